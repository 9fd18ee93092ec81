// Package view defines the contract between the application shell and
// its views. The shell owns the cursor and the pane layout; each view
// owns its data, its key actions, and its detail rendering.
package view

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prpkit/panel/internal/config"
	"github.com/prpkit/panel/internal/install"
	"github.com/prpkit/panel/internal/job"
)

// Context carries the shared services injected into every view.
type Context struct {
	Root      string // project root containing .claude/
	Settings  *config.Settings
	Runner    *job.Runner
	Installer *install.Orchestrator
	Logger    *slog.Logger
}

// Entry is one row of a view's display list. The shell moves the
// cursor across Item entries only; Header entries are decoration.
type Entry interface {
	isEntry()
}

// Header is a non-selectable section row, pre-styled by the view.
type Header struct {
	Text string
}

// Item is a selectable row, pre-styled by the view without any
// selection highlight; the shell applies that.
type Item struct {
	Text string
}

func (Header) isEntry() {}
func (Item) isEntry()   {}

// View is implemented by each screen of the panel.
//
// Entries returns the flattened display list for the list pane; Select
// is called with the index of the Item under the cursor (counting Item
// entries only) before Detail or any key action that acts on the
// selection. ResetTransient clears filters and overlays when the user
// leaves the view; loaded data and running jobs survive it.
type View interface {
	ID() string
	Title() string

	Init(ctx *Context) error
	Enter() tea.Cmd
	ResetTransient()

	Update(msg tea.Msg) (View, tea.Cmd)

	// Dismiss closes the view's topmost overlay or filter, reporting
	// whether anything was closed. The shell falls back to switching to
	// the home view when nothing was.
	Dismiss() bool

	Entries(width int) []Entry
	Select(index int)
	Detail(width, height int) string

	Bindings() []key.Binding
	ConsumesTextInput() bool
}
