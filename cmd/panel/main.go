package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/prpkit/panel/internal/app"
	"github.com/prpkit/panel/internal/config"
	"github.com/prpkit/panel/internal/install"
	"github.com/prpkit/panel/internal/job"
	"github.com/prpkit/panel/internal/logging"
	"github.com/prpkit/panel/internal/view"
	"github.com/prpkit/panel/internal/views"
)

var version = "dev"

type cli struct {
	Project string `flag:"" default:"." help:"Project root containing .claude/"`
	Config  string `flag:"" help:"Settings file path (default <project>/.claude/prp-settings.json)"`
	LogFile string `flag:"" help:"Log file path (default <project>/.claude/logs/panel.log)"`
	Debug   bool   `flag:"" help:"Enable debug logging"`
	Version bool   `flag:"" help:"Print version and exit"`
}

func main() {
	var args cli
	ctx := kong.Parse(&args,
		kong.Name("panel"),
		kong.Description("Terminal control panel for a project's .claude automation assets."))

	if args.Version {
		fmt.Println("panel " + version)
		return
	}

	if err := run(args); err != nil {
		ctx.FatalIfErrorf(err)
	}
}

func run(args cli) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("panel needs an interactive terminal")
	}

	root, err := filepath.Abs(args.Project)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("project root: %w", err)
	}

	logPath := args.LogFile
	if logPath == "" {
		logPath = filepath.Join(root, ".claude", "logs", "panel.log")
	}
	logger, closer, err := logging.Open(logPath, args.Debug)
	if err != nil {
		logger = logging.Discard()
	} else {
		defer closer.Close()
	}

	var settings *config.Settings
	if args.Config != "" {
		settings, err = config.LoadFrom(args.Config)
	} else {
		settings, err = config.Load(root)
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	runner := job.New()
	installer := install.New(runner,
		filepath.Join(root, "install-prp.sh"),
		filepath.Join(root, ".claude", "logs", "install.log"),
		logger)

	vctx := &view.Context{
		Root:      root,
		Settings:  settings,
		Runner:    runner,
		Installer: installer,
		Logger:    logger,
	}

	browser := views.NewBrowser()
	defer browser.Close()

	model, err := app.New(vctx, []view.View{
		browser,
		views.NewSecurity(),
		views.NewSettings(),
		views.NewObservability(),
		views.NewAutomation(),
		views.NewDoctor(),
		views.NewInstall(),
	})
	if err != nil {
		return err
	}

	logger.Info("panel starting", "version", version, "root", root)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
