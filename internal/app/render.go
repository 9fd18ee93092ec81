package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/prpkit/panel/internal/styles"
	"github.com/prpkit/panel/internal/view"
)

const minListWidth = 30

func (m *Model) recalcLayout() {
	lw := m.width / 3
	if lw < minListWidth {
		lw = minListWidth
	}
	if lw > m.width-40 && m.width > minListWidth+40 {
		lw = m.width - 40
	}
	if lw > m.width {
		lw = m.width
	}
	m.listWidth = lw
	m.bodyHeight = m.height - 2
	if m.bodyHeight < 3 {
		m.bodyHeight = 3
	}
}

func (m *Model) listContentWidth() int {
	if m.listWidth == 0 {
		return 76
	}
	return m.listWidth - 4
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "loading…"
	}

	body := m.renderBody()
	if m.showHelp {
		body = m.renderHelp()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m *Model) renderHeader() string {
	var tabs []string
	for i, v := range m.views {
		label := fmt.Sprintf("%d %s", i+1, v.Title())
		if i == m.active {
			tabs = append(tabs, styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, styles.TabInactive.Render(label))
		}
	}
	line := " panel  " + strings.Join(tabs, "  ")
	return styles.Header.Width(m.width).Render(styles.Truncate(line, m.width))
}

func (m *Model) renderBody() string {
	contentH := m.bodyHeight - 2
	if contentH < 1 {
		contentH = 1
	}
	detailW := m.width - m.listWidth

	list := styles.PaneActive.
		Width(m.listWidth - 2).
		Height(contentH).
		MaxHeight(m.bodyHeight).
		Render(m.renderList(contentH))

	detail := styles.DetailPane.
		Width(detailW - 2).
		Height(contentH).
		MaxHeight(m.bodyHeight).
		Render(m.activeView().Detail(detailW-4, contentH))

	return lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
}

// renderList draws the display list with the cursor marker, keeping the
// cursor row inside the visible window.
func (m *Model) renderList(height int) string {
	entries := m.activeView().Entries(m.listContentWidth())

	rows := make([]string, 0, len(entries))
	cursorRow := -1
	itemIdx := 0
	for _, e := range entries {
		switch e := e.(type) {
		case view.Header:
			rows = append(rows, "  "+e.Text)
		case view.Item:
			if itemIdx == m.cursor {
				cursorRow = len(rows)
				rows = append(rows, lipgloss.NewStyle().Foreground(styles.Primary).Render("▌")+" "+e.Text)
			} else {
				rows = append(rows, "  "+e.Text)
			}
			itemIdx++
		}
	}

	if cursorRow >= 0 {
		if cursorRow < m.scroll {
			m.scroll = cursorRow
		}
		if cursorRow >= m.scroll+height {
			m.scroll = cursorRow - height + 1
		}
	}
	if m.scroll > len(rows)-1 {
		m.scroll = 0
	}
	end := m.scroll + height
	if end > len(rows) {
		end = len(rows)
	}
	return strings.Join(rows[m.scroll:end], "\n")
}

func (m *Model) renderFooter() string {
	if m.toast != "" {
		style := styles.Toast
		if m.toastErr {
			style = styles.ToastError
		}
		return styles.Footer.Width(m.width).Render(" " + style.Render(styles.Truncate(m.toast, m.width-2)))
	}

	var hints []string
	for _, b := range m.activeView().Bindings() {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	hints = append(hints, "tab: views", "?: help", "q: quit")
	return styles.Footer.Width(m.width).Render(styles.Truncate(" "+strings.Join(hints, "  "), m.width))
}

func (m *Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(styles.ModalTitle.Render("Key bindings"))
	sb.WriteString("\n\n")
	sb.WriteString(styles.Title.Render("Global") + "\n")
	for _, h := range [][2]string{
		{"j/k", "move cursor"},
		{"g/G", "first / last"},
		{"tab / shift+tab", "next / previous view"},
		{"1-" + fmt.Sprint(len(m.views)), "jump to view"},
		{"esc", "dismiss / back to " + m.views[0].Title()},
		{"q", "quit"},
	} {
		sb.WriteString(fmt.Sprintf("  %s  %s\n", styles.PadRight(h[0], 18), styles.Muted.Render(h[1])))
	}
	sb.WriteString("\n" + styles.Title.Render(m.activeView().Title()) + "\n")
	sb.WriteString(formatBindings(m.activeView().Bindings()))
	sb.WriteString("\n" + styles.Subtle.Render("press any key to close"))

	box := styles.ModalBox.Render(sb.String())
	return lipgloss.Place(m.width, m.bodyHeight, lipgloss.Center, lipgloss.Center, box)
}

func formatBindings(bindings []key.Binding) string {
	var sb strings.Builder
	for _, b := range bindings {
		h := b.Help()
		sb.WriteString(fmt.Sprintf("  %s  %s\n", styles.PadRight(h.Key, 18), styles.Muted.Render(h.Desc)))
	}
	return sb.String()
}
