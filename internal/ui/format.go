package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/parley/internal/state"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// formatBytes renders a byte count with binary units.
func formatBytes(n uint64) string {
	const (
		kib = 1024
		mib = 1024 * kib
		gib = 1024 * mib
	)
	switch {
	case n >= gib:
		return fmt.Sprintf("%.2f GiB", float64(n)/gib)
	case n >= mib:
		return fmt.Sprintf("%.2f MiB", float64(n)/mib)
	case n >= kib:
		return fmt.Sprintf("%.2f KiB", float64(n)/kib)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// clampPercent ensures percent is between 0 and 100.
func clampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// bufferLabel is the tab title for a buffer.
func bufferLabel(app state.App, b *state.Buffer) string {
	switch b.Key.Kind {
	case state.BufferHighlights:
		return "highlights"
	case state.BufferStatus:
		if srv := app.Server(b.Key.Server); srv != nil {
			return srv.Name
		}
	}
	if b.Title != "" {
		return b.Title
	}
	return b.Key.Name
}

// formatMessage renders one scrollback line.
func formatMessage(msg state.Message, stamp string, styles Styles) string {
	ts := styles.FaintText.Render(msg.At.Format(stamp))
	text := strings.ReplaceAll(msg.Text, "\n", " ")

	var body string
	switch msg.Kind {
	case state.KindAction:
		body = styles.Nick(msg.Sender).Render("* "+msg.Sender) + " " + styles.Text.Render(text)
	case state.KindNotice:
		body = styles.InfoText.Render("-"+msg.Sender+"-") + " " + styles.Text.Render(text)
	case state.KindSystem:
		body = styles.MutedText.Render("*** " + text)
	case state.KindError:
		body = styles.DangerText.Render("!!! " + text)
	default:
		body = styles.Nick(msg.Sender).Render("<"+msg.Sender+">") + " " + styles.Text.Render(text)
	}
	return ts + " " + body
}

// transferName prefers the sanitized on-disk name once a transfer is
// admitted; before that only the peer's offer is known.
func transferName(rec state.TransferRecord) string {
	if rec.Filename != "" {
		return rec.Filename
	}
	return rec.Offered
}

// wrap hard-wraps rendered text to width.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
