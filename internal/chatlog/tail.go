package chatlog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Tail returns the last maxLines logged for target on server, spanning as
// many daily files as needed.
func Tail(dir, server, target string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	files, err := dailyFiles(dir, server, target)
	if err != nil {
		return nil, err
	}

	var lines []string
	for i := len(files) - 1; i >= 0 && len(lines) < maxLines; i-- {
		chunk, err := Read(files[i], maxLines-len(lines))
		if err != nil {
			return nil, err
		}
		lines = append(chunk, lines...)
	}
	return lines, nil
}

// dailyFiles lists a target's log files oldest first. The date suffix sorts
// lexically.
func dailyFiles(dir, server, target string) ([]string, error) {
	serverDir := filepath.Join(dir, componentName(server))
	prefix := componentName(target) + "_"

	entries, err := os.ReadDir(serverDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list logs: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		if date := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".log"); len(date) != len(dateLayout) {
			continue
		}
		files = append(files, filepath.Join(serverDir, name))
	}
	sort.Strings(files)
	return files, nil
}
