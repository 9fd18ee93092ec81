package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Palette colors shared by all views.
var (
	Primary     = lipgloss.Color("#7aa2f7")
	Success     = lipgloss.Color("#9ece6a")
	Warning     = lipgloss.Color("#e0af68")
	Error       = lipgloss.Color("#f7768e")
	Info        = lipgloss.Color("#7dcfff")
	TextPrimary = lipgloss.Color("#c0caf5")
	TextMuted   = lipgloss.Color("#565f89")
	BgSecondary = lipgloss.Color("#292e42")
	BorderDim   = lipgloss.Color("#3b4261")
)

var (
	Header = lipgloss.NewStyle().
		Background(BgSecondary).
		Foreground(TextPrimary).
		Bold(true)

	Footer = lipgloss.NewStyle().
		Background(BgSecondary).
		Foreground(TextMuted)

	TabActive = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Underline(true)

	TabInactive = lipgloss.NewStyle().
			Foreground(TextMuted)

	Title = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Subtle = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	KeyHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	Toast = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)

	ToastError = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	DetailPane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderDim).
			Padding(0, 1)

	PaneActive = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1)

	ModalBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	ModalTitle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)
)

// Status colors keyed by check/finding outcome.
var (
	StatusPass = lipgloss.NewStyle().Foreground(Success)
	StatusWarn = lipgloss.NewStyle().Foreground(Warning)
	StatusFail = lipgloss.NewStyle().Foreground(Error)
	StatusSkip = lipgloss.NewStyle().Foreground(TextMuted)
	StatusInfo = lipgloss.NewStyle().Foreground(Info)
)

// Truncate shortens s to at most maxWidth display cells, appending an
// ellipsis when anything was cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 1 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// PadRight pads s with spaces to exactly width display cells, truncating
// first when it is too long.
func PadRight(s string, width int) string {
	s = Truncate(s, width)
	return s + spaces(width-runewidth.StringWidth(s))
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
