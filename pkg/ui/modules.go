package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/api"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/config"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/linking"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// Panel is the content a window mounts. Panels are plain message-driven
// components: the workspace routes window-addressed messages and key input
// to them and composites their View inside the window chrome.
type Panel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Panel, tea.Cmd)
	View(width, height int) string

	// Teardown runs when the window closes: flush pending field commits,
	// drop context subscriptions. Must be idempotent.
	Teardown()
}

// Publisher is implemented by panels that can feed a linking group, so the
// workspace can publish their current selection the instant a group is
// assigned, before any child opens.
type Publisher interface {
	CurrentSelection() (int64, map[string]string, bool)
}

// Deps is everything a panel needs from the outside world.
type Deps struct {
	Parts        *api.Client
	Technologies *api.Client
	Quotes       *api.Client
	Context      *linking.Store
	Cfg          config.Config

	// Send injects a message into the running program from any goroutine.
	Send func(tea.Msg)
}

// newPanel mounts the panel implementation for a window's module key.
// Unknown keys (a layout written by a newer build) degrade to an error panel
// rather than failing the whole layout.
func newPanel(win model.Window, deps Deps) Panel {
	switch win.Module {
	case model.ModulePartList:
		return newPartList(win, deps)
	case model.ModulePartDetail:
		return newPartDetail(win, deps)
	case model.ModuleTechnology:
		return newTechnology(win, deps)
	case model.ModuleQuote:
		return newQuote(win, deps)
	default:
		return &errorPanel{text: fmt.Sprintf("unknown module %q", win.Module)}
	}
}

// moduleTitle is the default window title per module.
func moduleTitle(key model.ModuleKey) string {
	switch key {
	case model.ModulePartList:
		return "Parts"
	case model.ModulePartDetail:
		return "Part Detail"
	case model.ModuleTechnology:
		return "Technology"
	case model.ModuleQuote:
		return "Quote"
	default:
		return string(key)
	}
}

// errorPanel renders a single error line in place of a real module.
type errorPanel struct {
	text string
}

func (p *errorPanel) Init() tea.Cmd                   { return nil }
func (p *errorPanel) Update(tea.Msg) (Panel, tea.Cmd) { return p, nil }
func (p *errorPanel) View(width, height int) string   { return ErrorStyle.Render(p.text) }
func (p *errorPanel) Teardown()                       {}
