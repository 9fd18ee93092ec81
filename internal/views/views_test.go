package views

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prpkit/panel/internal/config"
	"github.com/prpkit/panel/internal/doctor"
	"github.com/prpkit/panel/internal/install"
	"github.com/prpkit/panel/internal/job"
	"github.com/prpkit/panel/internal/logging"
	"github.com/prpkit/panel/internal/plane"
	"github.com/prpkit/panel/internal/secreport"
	"github.com/prpkit/panel/internal/view"
)

func testContext(t *testing.T) *view.Context {
	t.Helper()
	root := t.TempDir()
	runner := job.New()
	return &view.Context{
		Root:      root,
		Settings:  config.Default(),
		Runner:    runner,
		Installer: install.New(runner, "/bin/true", filepath.Join(root, ".claude", "logs", "install.log"), logging.Discard()),
		Logger:    logging.Discard(),
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func countItems(entries []view.Entry) int {
	n := 0
	for _, e := range entries {
		if _, ok := e.(view.Item); ok {
			n++
		}
	}
	return n
}

func TestBrowserScanAndToggle(t *testing.T) {
	ctx := testContext(t)
	dir := filepath.Join(ctx.Root, ".claude", "commands")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deploy.md"),
		[]byte("---\ndescription: ship it\n---\n# Deploy\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "review.md"),
		[]byte("# Review\n"), 0o644))

	b := NewBrowser()
	require.NoError(t, b.Init(ctx))
	v, _ := b.Update(b.scan()())
	b = v.(*Browser)

	// category row plus two expanded leaves
	assert.Equal(t, 3, countItems(b.Entries(80)))

	b.Select(0)
	v, _ = b.Update(keyMsg("enter"))
	b = v.(*Browser)
	assert.Equal(t, 1, countItems(b.Entries(80)))
}

func TestBrowserFilterIsTransient(t *testing.T) {
	ctx := testContext(t)
	dir := filepath.Join(ctx.Root, ".claude", "commands")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deploy.md"), []byte("# D\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "review.md"), []byte("# R\n"), 0o644))

	b := NewBrowser()
	require.NoError(t, b.Init(ctx))
	v, _ := b.Update(b.scan()())
	b = v.(*Browser)

	b.query = "deploy"
	assert.Equal(t, 2, countItems(b.Entries(80))) // category + one match

	b.ResetTransient()
	assert.Empty(t, b.query)
	assert.Equal(t, 3, countItems(b.Entries(80)))
}

func TestSecurityFilterCycle(t *testing.T) {
	s := NewSecurity()
	require.NoError(t, s.Init(testContext(t)))

	assert.Nil(t, s.filter)
	seen := map[secreport.Severity]bool{}
	for range secreport.Severities {
		s.cycleFilter()
		require.NotNil(t, s.filter)
		seen[*s.filter] = true
	}
	s.cycleFilter()
	assert.Nil(t, s.filter)
	assert.Len(t, seen, len(secreport.Severities))
}

func TestSecurityEntriesGroupBySeverity(t *testing.T) {
	s := NewSecurity()
	require.NoError(t, s.Init(testContext(t)))
	s.report = &secreport.Report{
		RiskLevel:      "HIGH",
		AggregateScore: 7.5,
		Findings: []secreport.Finding{
			{Severity: secreport.SevCritical, FilePath: "a.py", Message: "exec"},
			{Severity: secreport.SevLow, FilePath: "b.sh", Message: "chmod"},
		},
	}

	entries := s.Entries(120)
	assert.Equal(t, 2, countItems(entries))
	assert.Len(t, s.rows, 2)
	assert.Equal(t, secreport.SevCritical, s.rows[0].Severity)

	sev := secreport.SevLow
	s.filter = &sev
	entries = s.Entries(120)
	assert.Equal(t, 1, countItems(entries))
	assert.Equal(t, "b.sh", s.rows[0].FilePath)
}

func TestSecurityScanFailureShowsRerunState(t *testing.T) {
	s := NewSecurity()
	require.NoError(t, s.Init(testContext(t)))
	s.handle = &job.Handle{}

	s.finishScan(job.Result{State: job.StateFailed, Reason: "command not found: claude-secure"})

	assert.Nil(t, s.report)
	assert.Contains(t, s.scanErr, "command not found")
	entries := s.Entries(120)
	assert.Zero(t, countItems(entries))
}

func TestSettingsEditValidatesType(t *testing.T) {
	v := NewSettings()
	require.NoError(t, v.Init(testContext(t)))

	// coverage.targets.overall is field index 8 in registry order
	v.Select(8)
	vv, _ := v.Update(keyMsg("enter"))
	v = vv.(*Settings)
	require.True(t, v.editing)

	v.input.SetValue("ninety")
	vv, _ = v.Update(keyMsg("enter"))
	v = vv.(*Settings)
	assert.True(t, v.editing)
	assert.NotEmpty(t, v.editErr)
	assert.False(t, v.dirty)

	v.input.SetValue("85")
	vv, _ = v.Update(keyMsg("enter"))
	v = vv.(*Settings)
	assert.False(t, v.editing)
	assert.True(t, v.dirty)
	assert.Equal(t, 85, v.ctx.Settings.Coverage.Targets.Overall)
}

func TestSettingsPickerAppliesWithoutSaving(t *testing.T) {
	ctx := testContext(t)
	v := NewSettings()
	require.NoError(t, v.Init(ctx))

	v.picking = true
	v.pickerTarget = "plane.project_id"
	v.pickerOptions = []plane.Option{{ID: "uuid-1", DisplayName: "Backend"}}
	v.Select(0)

	vv, _ := v.Update(keyMsg("enter"))
	v = vv.(*Settings)

	assert.Equal(t, "uuid-1", ctx.Settings.Plane.ProjectID)
	assert.True(t, v.dirty)
	assert.False(t, v.picking)
	_, err := os.Stat(config.SettingsPath(ctx.Root))
	assert.True(t, os.IsNotExist(err), "picker must not write the settings file")
}

func TestSettingsPickerFetchErrorClosesWithoutMutation(t *testing.T) {
	ctx := testContext(t)
	v := NewSettings()
	require.NoError(t, v.Init(ctx))

	v.picking = true
	v.pickerTarget = "plane.project_id"
	v.pickerLoading = true

	vv, cmd := v.Update(planeOptionsMsg{
		target: "plane.project_id",
		err:    errors.New("plane request: context deadline exceeded"),
	})
	v = vv.(*Settings)

	assert.False(t, v.picking, "picker must close on a fetch error")
	assert.Empty(t, v.pickerOptions)
	require.NotNil(t, cmd)
	toast, ok := cmd().(view.ToastMsg)
	require.True(t, ok)
	assert.True(t, toast.IsError)
	assert.Contains(t, toast.Message, "deadline exceeded")

	assert.Empty(t, ctx.Settings.Plane.ProjectID)
	assert.False(t, v.dirty)
	_, err := os.Stat(config.SettingsPath(ctx.Root))
	assert.True(t, os.IsNotExist(err), "a failed fetch must not touch the settings file")
}

func TestSettingsSaveRequiresConfirmation(t *testing.T) {
	ctx := testContext(t)
	v := NewSettings()
	require.NoError(t, v.Init(ctx))
	v.dirty = true

	vv, _ := v.Update(keyMsg("w"))
	v = vv.(*Settings)
	require.True(t, v.confirmSave)

	vv, _ = v.Update(keyMsg("n"))
	v = vv.(*Settings)
	assert.False(t, v.confirmSave)
	_, err := os.Stat(config.SettingsPath(ctx.Root))
	assert.True(t, os.IsNotExist(err))
}

func TestDoctorEntries(t *testing.T) {
	d := NewDoctor()
	require.NoError(t, d.Init(testContext(t)))
	d.report = &doctor.Report{
		Score: doctor.Score{Percentage: 75, Passed: 3, Total: 4, Fails: 1},
		Groups: []doctor.Group{
			{Name: "Structure", Checks: []doctor.Check{
				{Name: "a", Status: doctor.StatusPass},
				{Name: "b", Status: doctor.StatusFail, Fix: "install hooks"},
			}},
		},
	}

	entries := d.Entries(120)
	assert.Equal(t, 2, countItems(entries))

	d.Select(1)
	detail := d.Detail(80, 24)
	assert.Contains(t, detail, "install hooks")
}

func TestInstallEntriesAndToggle(t *testing.T) {
	ctx := testContext(t)
	i := NewInstall()
	require.NoError(t, i.Init(ctx))

	entries := i.Entries(100)
	// target row plus one row per component
	assert.Equal(t, 1+len(install.Components()), countItems(entries))
	assert.Equal(t, ctx.Root, ctx.Installer.Target())

	i.Select(1) // first component
	vv, _ := i.Update(keyMsg(" "))
	i = vv.(*Install)
	assert.True(t, ctx.Installer.Selected(install.Components()[0].ID))
}

func TestInstallStartWithoutComponents(t *testing.T) {
	ctx := testContext(t)
	i := NewInstall()
	require.NoError(t, i.Init(ctx))

	cmd := i.start()
	require.NotNil(t, cmd)
	toast, ok := cmd().(view.ToastMsg)
	require.True(t, ok)
	assert.True(t, toast.IsError)
	assert.Nil(t, i.handle)
}

func TestAutomationReadPlan(t *testing.T) {
	dir := t.TempDir()
	plan := "# Plan\n\n- [x] wire hooks\n- [ ] add coverage gate\nnot a task\n- [X] upper done\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fix_plan.md"), []byte(plan), 0o644))

	tasks := readPlan(filepath.Join(dir, "fix_plan.md"))
	require.Len(t, tasks, 3)
	assert.True(t, tasks[0].Done)
	assert.False(t, tasks[1].Done)
	assert.Equal(t, "add coverage gate", tasks[1].Text)
	assert.True(t, tasks[2].Done)
}

func TestAutomationStatusMissingDir(t *testing.T) {
	msg := readLoopStatus(filepath.Join(t.TempDir(), "ralph"))
	assert.False(t, msg.present)
}

func TestAutomationEntries(t *testing.T) {
	ctx := testContext(t)
	ralph := filepath.Join(ctx.Root, "ralph")
	require.NoError(t, os.MkdirAll(ralph, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ralph, "fix_plan.md"),
		[]byte("- [x] one\n- [ ] two\n"), 0o644))

	a := NewAutomation()
	require.NoError(t, a.Init(ctx))
	v, _ := a.Update(a.refresh()())
	a = v.(*Automation)

	entries := a.Entries(100)
	assert.Equal(t, 2, countItems(entries))
	assert.Len(t, a.rows, 2)
}
