package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/api"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/config"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/layoutstore"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/linking"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/ui"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/watcher"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/wm"
)

func main() {
	cfgPath := flag.String("config", defaultConfigPath(), "Path to the config file")
	server := flag.String("server", "", "Override the API server URL")
	layout := flag.String("layout", "", "Apply a saved layout on startup")
	help := flag.Bool("help", false, "Show help")
	version := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *help {
		fmt.Println("Usage: gw [options]")
		fmt.Println("\nA multi-window workspace for part quoting.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *version {
		fmt.Println("gw version 0.1.0")
		os.Exit(0)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.ServerURL = *server
	}

	layouts, err := layoutstore.Open(cfg.LayoutDBPath())
	if err != nil {
		fmt.Printf("Error opening layout database: %v\n", err)
		os.Exit(1)
	}
	defer layouts.Close()

	if logFile := os.Getenv("GW_DEBUG"); logFile != "" {
		f, err := tea.LogToFile(logFile, "gw")
		if err != nil {
			fmt.Printf("Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	deps := ui.Deps{
		Parts:        api.NewClient(cfg.ServerURL, "parts"),
		Technologies: api.NewClient(cfg.ServerURL, "technologies"),
		Quotes:       api.NewClient(cfg.ServerURL, "quotes"),
		Context:      linking.NewStore(),
		Cfg:          cfg,
	}

	// Window geometry is managed in terminal cells.
	windows := wm.NewManager(0, 0, wm.Options{
		MinWidth:      30,
		MinHeight:     8,
		SnapThreshold: 2,
		CascadeStep:   3,
	})

	app := ui.NewApp(deps, windows, layouts)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Message injection must never block the update loop, so sends from
	// panel construction and debounce timers go through a goroutine.
	// Sequence and version guards downstream absorb any reordering.
	app.SetSend(func(msg tea.Msg) { go p.Send(msg) })

	// External writes to the layout database refresh the picker.
	w, err := watcher.New(cfg.LayoutDBPath(), watcher.DefaultDebounce, func() {
		p.Send(ui.LayoutsChangedMsg{})
	})
	if err == nil {
		defer w.Close()
	}

	if *layout != "" {
		app.ApplyLayoutOnStart(*layout)
	}

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running workspace: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".gw", "config.yaml")
	}
	return "config.yaml"
}
