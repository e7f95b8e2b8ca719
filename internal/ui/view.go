package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/parley/internal/state"
)

const maxTransferRows = 5

// transferRows returns how many transfer lines the pane shows, header
// included.
func (m Model) transferRows() int {
	if !m.showTransfers {
		return 0
	}
	n := len(m.snapshot.App.Transfers)
	if n == 0 {
		return 0
	}
	if n > maxTransferRows {
		n = maxTransferRows
	}
	return n + 1
}

// layout resizes components to the window and re-renders the scrollback.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.input.Width = maxInt(m.width-len(m.input.Prompt)-1, 1)
	m.scroll.Width = m.width
	m.scroll.Height = maxInt(m.height-3-m.transferRows(), 1)
	m.renderScrollback()
}

// renderScrollback loads the active buffer into the viewport, keeping the
// view pinned to the newest line while following.
func (m *Model) renderScrollback() {
	b, ok := m.snapshot.App.Buffers[m.snapshot.App.Active]
	if !ok {
		m.scroll.SetContent("")
		return
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(b.Lines))
	for _, msg := range b.Lines {
		lines = append(lines, wrap(formatMessage(msg, m.stampFormat, styles), m.width))
	}
	m.scroll.SetContent(strings.Join(lines, "\n"))
	if m.follow {
		m.scroll.GotoBottom()
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.scroll.View())
	b.WriteString("\n")
	if pane := m.renderTransfers(); pane != "" {
		b.WriteString(pane)
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.input.View())

	return b.String()
}

// renderTabs renders one tab per buffer. The first nine carry their
// alt+N shortcut.
func (m Model) renderTabs() string {
	bg := NewBgStyle(m.theme.Surface)
	styles := m.theme.Styles()
	app := m.snapshot.App

	parts := make([]string, 0, len(m.order))
	for i, k := range m.order {
		buf := app.Buffers[k]
		if buf == nil {
			continue
		}
		label := bufferLabel(app, buf)
		if i < 9 {
			label = fmt.Sprintf("%d:%s", i+1, label)
		}
		if buf.Unread > 0 && k != app.Active {
			label = fmt.Sprintf("%s(%d)", label, buf.Unread)
		}

		style := styles.MutedText
		switch {
		case k == app.Active:
			style = styles.Selected
		case buf.Mention:
			style = styles.DangerText
		case buf.Unread > 0:
			style = styles.WarningText
		}
		parts = append(parts, bg.Render(" "+label+" ", style))
	}
	return bg.FillLine(bg.Truncate(bg.Join(parts, ""), m.width), m.width)
}

// renderTransfers renders the newest transfers with progress bars.
func (m Model) renderTransfers() string {
	rows := m.transferRows()
	if rows == 0 {
		return ""
	}
	styles := m.theme.Styles()
	transfers := m.snapshot.App.Transfers
	if len(transfers) > rows-1 {
		transfers = transfers[len(transfers)-(rows-1):]
	}

	lines := make([]string, 0, rows)
	header := fmt.Sprintf("Transfers (%d)", len(m.snapshot.App.Transfers))
	lines = append(lines, styles.AccentText.Bold(true).Render(header))

	nameWidth := maxInt(m.width-62, 12)
	for _, rec := range transfers {
		status := styles.StatusStyle(rec.Status.String()).Render(rec.Status.String())
		name := padRight(truncate(transferName(rec), nameWidth), nameWidth)
		from := padRight(truncate(rec.From, 12), 12)
		bar := m.bar.ViewAs(clampPercent(rec.Percent()) / 100)
		amount := fmt.Sprintf("%s / %s", formatBytes(rec.Transferred), formatBytes(rec.Size))

		line := fmt.Sprintf("#%-3d %s %s %s %5.1f%% %s", rec.ID, name, styles.MutedText.Render(from), bar, rec.Percent(), status)
		if rec.Status == state.TransferFailed && rec.Reason != state.ReasonNone {
			line += " " + styles.DangerText.Render(string(rec.Reason))
		} else {
			line += " " + styles.FaintText.Render(amount)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// renderStatus renders the status bar for the active buffer's server.
func (m Model) renderStatus() string {
	bg := NewBgStyle(m.theme.SurfaceAlt)
	styles := m.theme.Styles()
	app := m.snapshot.App

	var parts []string
	if srv := app.Server(app.Active.Server); srv != nil {
		status := srv.Status.String()
		parts = append(parts,
			bg.Render(srv.Name, styles.AccentText.Bold(true)),
			bg.Render(srv.Nick, styles.Text),
			styles.StatusStyle(status).Render(status),
		)
	}
	if b, ok := app.Buffers[app.Active]; ok && b.Key.Kind != state.BufferStatus {
		parts = append(parts, bg.Render(bufferLabel(app, b), styles.Text))
	}
	if !m.follow {
		parts = append(parts, bg.Render("-- more --", styles.WarningText))
	}
	if m.notice != "" {
		parts = append(parts, bg.Render(m.notice, styles.WarningText))
	}

	left := bg.Join(parts, " ")
	right := bg.Render("F1 help", styles.FaintText)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return bg.FillLine(bg.Space()+bg.Truncate(left, m.width-2), m.width)
	}
	return bg.FillLine(bg.Space()+left+bg.Spaces(gap)+right, m.width)
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// maxInt returns the larger of two integers.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
