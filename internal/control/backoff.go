package control

import "time"

const maxBackoff = 30 * time.Second

// calculateBackoff doubles base once per failure beyond the first attempt and
// caps the result at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if base <= 0 {
		base = 2 * time.Second
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}
