// Package views implements the panel's screens on top of the view
// contract: Browser, Security, Settings, Observability, Automation,
// Doctor and Install.
package views

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/fsnotify/fsnotify"

	"github.com/prpkit/panel/internal/scanner"
	"github.com/prpkit/panel/internal/styles"
	"github.com/prpkit/panel/internal/tree"
	"github.com/prpkit/panel/internal/view"
)

const (
	maxDetailBytes   = 256 * 1024
	rescanDebounce   = 400 * time.Millisecond
	browserViewID    = "browser"
	browserViewTitle = "Browser"
)

// Browser shows the .claude asset tree with live filter and markdown
// detail rendering.
type Browser struct {
	ctx *view.Context

	nodes []tree.Node // full tree, survives filtering

	filterInput textinput.Model
	filtering   bool
	query       string

	rows []tree.Node // selectable rows from the last Entries call
	sel  int

	watcher *fsnotify.Watcher

	mdWidth    int
	mdRenderer *glamour.TermRenderer
}

type browserScannedMsg struct {
	cats []scanner.Category
}

type browserChangedMsg struct{}

// NewBrowser creates the Browser view.
func NewBrowser() *Browser {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/"
	ti.CharLimit = 64
	return &Browser{filterInput: ti}
}

func (b *Browser) ID() string    { return browserViewID }
func (b *Browser) Title() string { return browserViewTitle }

func (b *Browser) Init(ctx *view.Context) error {
	b.ctx = ctx
	b.nodes = nil
	b.query = ""
	b.filtering = false
	b.sel = 0
	return nil
}

func (b *Browser) Enter() tea.Cmd {
	if len(b.nodes) > 0 {
		return nil
	}
	cmds := []tea.Cmd{b.scan()}
	if cmd := b.startWatcher(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (b *Browser) ResetTransient() {
	b.filtering = false
	b.filterInput.Blur()
	b.filterInput.SetValue("")
	b.query = ""
}

func (b *Browser) scan() tea.Cmd {
	dir := filepath.Join(b.ctx.Root, ".claude")
	return func() tea.Msg {
		return browserScannedMsg{cats: scanner.Scan(dir, scanner.DefaultSpecs())}
	}
}

// startWatcher watches the category directories and surfaces changes as
// a debounced message, so edits made outside the panel show up without
// a manual rescan.
func (b *Browser) startWatcher() tea.Cmd {
	if b.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		b.ctx.Logger.Warn("fs watcher unavailable", "error", err)
		return nil
	}
	claudeDir := filepath.Join(b.ctx.Root, ".claude")
	w.Add(claudeDir)
	for _, spec := range scanner.DefaultSpecs() {
		w.Add(filepath.Join(claudeDir, spec.Subdir))
	}
	b.watcher = w
	return b.awaitChange()
}

func (b *Browser) awaitChange() tea.Cmd {
	w := b.watcher
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				// Swallow the burst an editor save produces.
				deadline := time.After(rescanDebounce)
				for {
					select {
					case <-w.Events:
					case <-deadline:
						return browserChangedMsg{}
					}
				}
			case _, ok := <-w.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func (b *Browser) Update(msg tea.Msg) (view.View, tea.Cmd) {
	switch msg := msg.(type) {
	case browserScannedMsg:
		b.nodes = tree.Build(msg.cats)
		return b, nil

	case browserChangedMsg:
		return b, tea.Batch(b.scan(), b.awaitChange())

	case tea.KeyMsg:
		if b.filtering {
			return b.updateFilter(msg)
		}
		return b.handleKey(msg)
	}
	return b, nil
}

func (b *Browser) updateFilter(msg tea.KeyMsg) (view.View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		b.filtering = false
		b.filterInput.Blur()
		return b, nil
	case "esc":
		b.filtering = false
		b.filterInput.Blur()
		b.filterInput.SetValue("")
		b.query = ""
		return b, nil
	}
	var cmd tea.Cmd
	b.filterInput, cmd = b.filterInput.Update(msg)
	b.query = b.filterInput.Value()
	return b, cmd
}

func (b *Browser) handleKey(msg tea.KeyMsg) (view.View, tea.Cmd) {
	switch msg.String() {
	case "/":
		b.filtering = true
		return b, b.filterInput.Focus()
	case "enter", " ", "l", "h":
		if cat, ok := b.selectedNode().(*tree.Category); ok {
			cat.Toggle()
		}
		return b, nil
	case "r":
		return b, b.scan()
	case "y":
		if leaf, ok := b.selectedNode().(tree.Leaf); ok {
			if err := clipboard.WriteAll(leaf.Item.AbsPath); err != nil {
				return b, view.ToastError("clipboard unavailable: " + err.Error())
			}
			return b, view.Toast("copied " + leaf.Item.RelPath)
		}
		return b, nil
	}
	return b, nil
}

func (b *Browser) Dismiss() bool {
	if b.query == "" && !b.filtering {
		return false
	}
	b.filtering = false
	b.filterInput.Blur()
	b.filterInput.SetValue("")
	b.query = ""
	return true
}

func (b *Browser) selectedNode() tree.Node {
	if b.sel < 0 || b.sel >= len(b.rows) {
		return nil
	}
	return b.rows[b.sel]
}

func (b *Browser) visible() []tree.Node {
	if b.query == "" {
		return tree.Flatten(b.nodes)
	}
	return tree.Flatten(tree.Filter(b.nodes, b.query))
}

func (b *Browser) Entries(width int) []view.Entry {
	flat := b.visible()
	b.rows = b.rows[:0]

	var entries []view.Entry
	if b.filtering || b.query != "" {
		entries = append(entries, view.Header{Text: b.filterInput.View()})
	}
	if len(flat) == 0 {
		hint := "no assets found under .claude/"
		if b.query != "" {
			hint = "no matches for " + b.query
		}
		entries = append(entries, view.Header{Text: styles.Muted.Render(hint)})
		return entries
	}

	for _, n := range flat {
		b.rows = append(b.rows, n)
		entries = append(entries, view.Item{Text: renderTreeRow(n, width)})
	}
	return entries
}

func renderTreeRow(n tree.Node, width int) string {
	switch n := n.(type) {
	case *tree.Category:
		arrow := "▸"
		if n.Expanded {
			arrow = "▾"
		}
		count := fmt.Sprintf(" (%d)", len(n.Children))
		label := styles.Truncate(fmt.Sprintf("%s %s %s", arrow, n.Icon, n.Name), width-len(count))
		return styles.Title.Render(label) + styles.Muted.Render(count)
	case tree.Leaf:
		return styles.Truncate("    "+n.Item.Name, width)
	}
	return ""
}

func (b *Browser) Select(index int) { b.sel = index }

func (b *Browser) Detail(width, height int) string {
	switch n := b.selectedNode().(type) {
	case *tree.Category:
		var sb strings.Builder
		sb.WriteString(styles.Title.Render(n.Icon + " " + n.Name))
		sb.WriteString("\n\n")
		sb.WriteString(n.Description)
		sb.WriteString("\n\n")
		sb.WriteString(styles.Muted.Render(fmt.Sprintf("%d items", len(n.Children))))
		return sb.String()
	case tree.Leaf:
		return b.renderItemDetail(n.Item, width)
	}
	return styles.Muted.Render("select an entry")
}

func (b *Browser) renderItemDetail(item scanner.Item, width int) string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(item.Name))
	sb.WriteString("\n")
	sb.WriteString(styles.Muted.Render(item.RelPath))
	sb.WriteString("\n")
	if item.Description != "" {
		sb.WriteString(styles.Subtle.Render(item.Description))
		sb.WriteString("\n")
	}
	for k, v := range item.Metadata {
		if k == "description" {
			continue
		}
		sb.WriteString(styles.Muted.Render(k+": ") + styles.Truncate(v, width-len(k)-2))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	content, err := readCapped(item.AbsPath)
	if err != nil {
		sb.WriteString(styles.StatusFail.Render("unreadable: " + err.Error()))
		return sb.String()
	}

	if item.ContentType == "markdown" {
		if rendered, err := b.renderMarkdown(content, width); err == nil {
			sb.WriteString(rendered)
			return sb.String()
		}
	}
	sb.WriteString(content)
	return sb.String()
}

func (b *Browser) renderMarkdown(content string, width int) (string, error) {
	wrap := width - 2
	if wrap < 20 {
		wrap = 20
	}
	if b.mdRenderer == nil || b.mdWidth != wrap {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return "", err
		}
		b.mdRenderer = r
		b.mdWidth = wrap
	}
	return b.mdRenderer.Render(content)
}

func readCapped(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) > maxDetailBytes {
		data = data[:maxDetailBytes]
	}
	return string(data), nil
}

func (b *Browser) Bindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "expand")),
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
		key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yank path")),
	}
}

func (b *Browser) ConsumesTextInput() bool { return b.filtering }

// Close releases the filesystem watcher.
func (b *Browser) Close() {
	if b.watcher != nil {
		b.watcher.Close()
		b.watcher = nil
	}
}
