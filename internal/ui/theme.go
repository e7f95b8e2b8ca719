package ui

import (
	"hash/fnv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines colors for the UI. All colors are hex strings.
type Theme struct {
	Name string

	Background string // behind overlays
	Surface    string // tab bar
	SurfaceAlt string // status bar

	SelectionBg   string // active tab
	SelectionText string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StatusColors are keyed by connection and transfer status names.
	StatusColors map[string]string

	// NickColors is the palette senders are hashed into.
	NickColors []string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)).Bold(true),
		WarningText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		DangerText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
		InfoText:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Info)),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)).
			Bold(true),

		statusColors: t.StatusColors,
		nickColors:   t.NickColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style
	Selected    lipgloss.Style

	statusColors map[string]string
	nickColors   []string
	background   string
	muted        string
}

// StatusStyle returns a badge style for the given status.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color := s.statusColors[status]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// Nick returns the style for a sender. A nick keeps its color for the
// whole session regardless of case.
func (s Styles) Nick(nick string) lipgloss.Style {
	if len(s.nickColors) == 0 || nick == "" {
		return s.AccentText
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(nick)))
	color := s.nickColors[h.Sum32()%uint32(len(s.nickColors))]
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
}

// Theme definitions

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return nightfoxTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func nightfoxTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name:          "Nightfox",
		Background:    "#131a24", // bg0
		Surface:       "#192330", // bg1
		SurfaceAlt:    "#212e3f", // bg2
		SelectionBg:   "#2b3b51", // sel0
		SelectionText: "#cdcecf", // fg1

		Text:    "#cdcecf", // fg1
		Muted:   "#738091", // comment
		Faint:   "#71839b", // fg3
		Accent:  "#719cd6", // blue
		Success: "#81b29a", // green
		Warning: "#dbc074", // yellow
		Danger:  "#c94f6d", // red
		Info:    "#63cdcf", // cyan

		StatusColors: map[string]string{
			"disconnected": "#738091", // comment
			"connecting":   "#63cdcf", // cyan
			"connected":    "#81b29a", // green
			"pending":      "#dbc074", // yellow
			"active":       "#719cd6", // blue
			"completed":    "#81b29a", // green
			"failed":       "#c94f6d", // red
			"cancelled":    "#71839b", // fg3
		},
		NickColors: []string{
			"#719cd6", // blue
			"#81b29a", // green
			"#dbc074", // yellow
			"#63cdcf", // cyan
			"#9d79d6", // magenta
			"#f4a261", // orange
			"#d67ad2", // pink
		},
	}
}

func kanagawaTheme() Theme {
	// Kanagawa palette: https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name:          "Kanagawa",
		Background:    "#16161D", // sumiInk0
		Surface:       "#1F1F28", // sumiInk3
		SurfaceAlt:    "#2A2A37", // sumiInk4
		SelectionBg:   "#2D4F67", // waveBlue1
		SelectionText: "#DCD7BA", // fujiWhite

		Text:    "#DCD7BA", // fujiWhite
		Muted:   "#C8C093", // oldWhite
		Faint:   "#727169", // fujiGray
		Accent:  "#7E9CD8", // crystalBlue
		Success: "#98BB6C", // springGreen
		Warning: "#E6C384", // carpYellow
		Danger:  "#E46876", // waveRed
		Info:    "#7FB4CA", // springBlue

		StatusColors: map[string]string{
			"disconnected": "#727169", // fujiGray
			"connecting":   "#7FB4CA", // springBlue
			"connected":    "#98BB6C", // springGreen
			"pending":      "#E6C384", // carpYellow
			"active":       "#7E9CD8", // crystalBlue
			"completed":    "#98BB6C", // springGreen
			"failed":       "#E46876", // waveRed
			"cancelled":    "#C8C093", // oldWhite
		},
		NickColors: []string{
			"#7E9CD8", // crystalBlue
			"#98BB6C", // springGreen
			"#E6C384", // carpYellow
			"#7FB4CA", // springBlue
			"#957FB8", // oniViolet
			"#FFA066", // surimiOrange
			"#D27E99", // sakuraPink
		},
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name:          "Slate",
		Background:    "#020617", // slate-950
		Surface:       "#0f172a", // slate-900
		SurfaceAlt:    "#1e293b", // slate-800
		SelectionBg:   "#0284c7", // sky-600
		SelectionText: "#f8fafc", // slate-50

		Text:    "#f1f5f9", // slate-100
		Muted:   "#94a3b8", // slate-400
		Faint:   "#64748b", // slate-500
		Accent:  "#38bdf8", // sky-400
		Success: "#22c55e", // green-500
		Warning: "#f59e0b", // amber-500
		Danger:  "#ef4444", // red-500
		Info:    "#06b6d4", // cyan-500

		StatusColors: map[string]string{
			"disconnected": "#64748b", // slate-500
			"connecting":   "#38bdf8", // sky-400
			"connected":    "#22c55e", // green-500
			"pending":      "#f59e0b", // amber-500
			"active":       "#0ea5e9", // sky-500
			"completed":    "#16a34a", // green-600
			"failed":       "#dc2626", // red-600
			"cancelled":    "#94a3b8", // slate-400
		},
		NickColors: []string{
			"#38bdf8", // sky-400
			"#4ade80", // green-400
			"#facc15", // yellow-400
			"#22d3ee", // cyan-400
			"#a78bfa", // violet-400
			"#fb923c", // orange-400
			"#f472b6", // pink-400
		},
	}
}
