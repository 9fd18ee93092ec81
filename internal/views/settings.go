package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prpkit/panel/internal/config"
	"github.com/prpkit/panel/internal/plane"
	"github.com/prpkit/panel/internal/styles"
	"github.com/prpkit/panel/internal/view"
)

// Settings edits the project settings document field by field. Edits
// stay in memory until the user explicitly saves; remote Plane pickers
// fill ID fields without ever touching the API key.
type Settings struct {
	ctx    *view.Context
	fields []config.Field
	sel    int
	dirty  bool

	editing bool
	input   textinput.Model
	editErr string

	confirmSave bool

	picking       bool
	pickerTarget  string // field path the picker fills
	pickerTitle   string
	pickerOptions []plane.Option
	pickerLoading bool
}

type planeOptionsMsg struct {
	target  string
	title   string
	options []plane.Option
	err     error
}

type settingsSavedMsg struct {
	err error
}

// NewSettings creates the Settings view.
func NewSettings() *Settings {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 128
	return &Settings{input: ti}
}

func (v *Settings) ID() string    { return "settings" }
func (v *Settings) Title() string { return "Settings" }

func (v *Settings) Init(ctx *view.Context) error {
	v.ctx = ctx
	v.fields = config.Fields()
	v.sel = 0
	v.dirty = false
	v.editing = false
	v.confirmSave = false
	v.picking = false
	return nil
}

func (v *Settings) Enter() tea.Cmd { return nil }

func (v *Settings) ResetTransient() {
	v.editing = false
	v.input.Blur()
	v.editErr = ""
	v.confirmSave = false
	v.closePicker()
}

func (v *Settings) closePicker() {
	v.picking = false
	v.pickerOptions = nil
	v.pickerLoading = false
	v.pickerTarget = ""
}

func (v *Settings) selectedField() (config.Field, bool) {
	if v.sel < 0 || v.sel >= len(v.fields) {
		return config.Field{}, false
	}
	return v.fields[v.sel], true
}

func (v *Settings) Update(msg tea.Msg) (view.View, tea.Cmd) {
	switch msg := msg.(type) {
	case planeOptionsMsg:
		if !v.picking || msg.target != v.pickerTarget {
			return v, nil
		}
		v.pickerLoading = false
		if msg.err != nil {
			v.closePicker()
			v.ctx.Logger.Error("plane fetch failed", "error", msg.err)
			return v, view.ToastError(msg.err.Error())
		}
		v.pickerOptions = msg.options
		v.pickerTitle = msg.title
		return v, nil

	case settingsSavedMsg:
		if msg.err != nil {
			v.ctx.Logger.Error("settings save failed", "error", msg.err)
			return v, view.ToastError("save failed: " + msg.err.Error())
		}
		v.dirty = false
		return v, view.Toast("settings saved")

	case tea.KeyMsg:
		switch {
		case v.editing:
			return v.updateEdit(msg)
		case v.confirmSave:
			return v.updateConfirm(msg)
		case v.picking:
			return v.updatePicker(msg)
		}
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *Settings) handleKey(msg tea.KeyMsg) (view.View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		f, ok := v.selectedField()
		if !ok {
			return v, nil
		}
		v.editing = true
		v.editErr = ""
		v.input.SetValue(f.Get(v.ctx.Settings))
		v.input.CursorEnd()
		return v, v.input.Focus()
	case "p":
		return v.openPicker()
	case "w":
		if !v.dirty {
			return v, view.Toast("no changes to save")
		}
		v.confirmSave = true
		return v, nil
	}
	return v, nil
}

func (v *Settings) updateEdit(msg tea.KeyMsg) (view.View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		f, ok := v.selectedField()
		if !ok {
			v.editing = false
			v.input.Blur()
			return v, nil
		}
		if err := f.Set(v.ctx.Settings, strings.TrimSpace(v.input.Value())); err != nil {
			v.editErr = err.Error()
			return v, nil
		}
		v.editing = false
		v.editErr = ""
		v.input.Blur()
		v.dirty = true
		return v, nil
	case "esc":
		v.editing = false
		v.editErr = ""
		v.input.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *Settings) updateConfirm(msg tea.KeyMsg) (view.View, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		v.confirmSave = false
		return v, v.save()
	case "n", "esc":
		v.confirmSave = false
		return v, nil
	}
	return v, nil
}

func (v *Settings) save() tea.Cmd {
	root := v.ctx.Root
	settings := v.ctx.Settings
	return func() tea.Msg {
		return settingsSavedMsg{err: config.Save(root, settings)}
	}
}

// openPicker fetches Plane options for the selected field. The API key
// is read from the environment at call time and handed straight to the
// client; it never lands in the settings document.
func (v *Settings) openPicker() (view.View, tea.Cmd) {
	f, ok := v.selectedField()
	if !ok {
		return v, nil
	}
	if f.Path != "plane.project_id" && f.Path != "plane.backlog_state_id" {
		return v, view.Toast("no picker for this field")
	}

	cfg := v.ctx.Settings.Plane
	if cfg.WorkspaceSlug == "" {
		return v, view.ToastError("set plane.workspace_slug first")
	}
	if f.Path == "plane.backlog_state_id" && cfg.ProjectID == "" {
		return v, view.ToastError("set plane.project_id first")
	}

	client := plane.NewClient(cfg.APIURL, cfg.WorkspaceSlug, config.PlaneAPIKey(v.ctx.Root))
	target := f.Path
	projectID := cfg.ProjectID

	v.picking = true
	v.pickerTarget = target
	v.pickerLoading = true
	v.pickerOptions = nil

	return v, func() tea.Msg {
		ctx := context.Background()
		if target == "plane.project_id" {
			opts, err := client.ListProjects(ctx)
			return planeOptionsMsg{target: target, title: "Plane projects", options: opts, err: err}
		}
		opts, err := client.ListStates(ctx, projectID)
		return planeOptionsMsg{target: target, title: "Workflow states", options: opts, err: err}
	}
}

func (v *Settings) updatePicker(msg tea.KeyMsg) (view.View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.closePicker()
		return v, nil
	case "enter":
		if v.sel < 0 || v.sel >= len(v.pickerOptions) {
			return v, nil
		}
		opt := v.pickerOptions[v.sel]
		target := v.pickerTarget
		v.closePicker()
		f, ok := config.FieldByPath(target)
		if !ok {
			return v, nil
		}
		if err := f.Set(v.ctx.Settings, opt.ID); err != nil {
			return v, view.ToastError(err.Error())
		}
		v.dirty = true
		return v, view.Toast(fmt.Sprintf("%s = %s (unsaved, press w)", target, opt.DisplayName))
	}
	return v, nil
}

func (v *Settings) Dismiss() bool {
	switch {
	case v.picking:
		v.closePicker()
		return true
	case v.confirmSave:
		v.confirmSave = false
		return true
	}
	return false
}

func sectionOf(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return "scanner"
}

func (v *Settings) Entries(width int) []view.Entry {
	if v.picking {
		return v.pickerEntries(width)
	}

	var entries []view.Entry
	if v.confirmSave {
		entries = append(entries, view.Header{
			Text: styles.Toast.Render("save settings? (y/n)"),
		})
	} else if v.dirty {
		entries = append(entries, view.Header{Text: styles.Muted.Render("unsaved changes, press w to save")})
	}

	section := ""
	for i, f := range v.fields {
		if sec := sectionOf(f.Path); sec != section {
			section = sec
			entries = append(entries, view.Header{Text: styles.Title.Render(strings.ToUpper(sec))})
		}
		if v.editing && i == v.sel {
			entries = append(entries, view.Item{Text: "  " + f.Label + " " + v.input.View()})
			continue
		}
		value := f.Get(v.ctx.Settings)
		if value == "" {
			value = styles.Muted.Render("(unset)")
		}
		entries = append(entries, view.Item{
			Text: styles.Truncate(fmt.Sprintf("  %s  %s", styles.PadRight(f.Label, 28), value), width),
		})
	}
	return entries
}

func (v *Settings) pickerEntries(width int) []view.Entry {
	entries := []view.Entry{view.Header{Text: styles.ModalTitle.Render(v.pickerTitle)}}
	if v.pickerLoading {
		entries = append(entries, view.Header{Text: styles.Muted.Render("loading…")})
		return entries
	}
	if len(v.pickerOptions) == 0 {
		entries = append(entries, view.Header{Text: styles.Muted.Render("no options")})
		return entries
	}
	for _, opt := range v.pickerOptions {
		entries = append(entries, view.Item{Text: styles.Truncate("  "+opt.DisplayName, width)})
	}
	return entries
}

func (v *Settings) Select(index int) { v.sel = index }

func (v *Settings) Detail(width, height int) string {
	if v.picking {
		if v.sel >= 0 && v.sel < len(v.pickerOptions) {
			opt := v.pickerOptions[v.sel]
			return styles.Title.Render(opt.DisplayName) + "\n\n" +
				styles.Muted.Render("id: "+opt.ID) + "\n\n" +
				styles.KeyHint.Render("enter: pick  esc: cancel")
		}
		return styles.Muted.Render("select an option")
	}

	f, ok := v.selectedField()
	if !ok {
		return styles.Muted.Render("select a field")
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(f.Label))
	sb.WriteString("\n")
	sb.WriteString(styles.Muted.Render(f.Path + "  (" + f.Type.String() + ")"))
	sb.WriteString("\n\n")
	sb.WriteString("value: " + f.Get(v.ctx.Settings))
	sb.WriteString("\n")
	if v.editErr != "" {
		sb.WriteString("\n" + styles.StatusFail.Render(v.editErr) + "\n")
	}
	if f.Path == "plane.project_id" || f.Path == "plane.backlog_state_id" {
		sb.WriteString("\n" + styles.KeyHint.Render("p: pick from Plane"))
	}
	return sb.String()
}

func (v *Settings) Bindings() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pick remote")),
		key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save")),
	}
}

func (v *Settings) ConsumesTextInput() bool { return v.editing }
