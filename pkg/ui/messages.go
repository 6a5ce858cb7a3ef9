package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/api"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/feed"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/linking"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// StatusMsg flashes a line in the notification log and status bar.
type StatusMsg string

// status wraps a formatted StatusMsg in a command.
func status(format string, args ...any) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg(fmt.Sprintf(format, args...))
	}
}

// LayoutsChangedMsg signals that the layout database changed on disk and the
// cached layout names should be re-read.
type LayoutsChangedMsg struct{}

// windowMsg is implemented by messages addressed to a single window's panel.
type windowMsg interface {
	windowID() model.WindowID
}

// fetchRequestMsg asks the owning panel to execute one feed request.
type fetchRequestMsg struct {
	win model.WindowID
	req feed.Request
}

func (m fetchRequestMsg) windowID() model.WindowID { return m.win }

// feedResultMsg carries the outcome of a feed request back to its panel.
// Panels that fetch outside the feed stamp their load sequence into seq;
// stale responses are dropped on arrival.
type feedResultMsg struct {
	win  model.WindowID
	req  feed.Request
	seq  int
	page api.Page
	err  error
}

func (m feedResultMsg) windowID() model.WindowID { return m.win }

// entityLoadedMsg carries a fetched entity back to its panel. seq echoes the
// panel's load sequence so a slow fetch for a previous part cannot overwrite
// the current one.
type entityLoadedMsg struct {
	win    model.WindowID
	seq    int
	entity model.Entity
	err    error
}

func (m entityLoadedMsg) windowID() model.WindowID { return m.win }

// commitResultMsg carries the outcome of one field commit.
type commitResultMsg struct {
	win     model.WindowID
	key     string
	seq     uint64
	updated model.Entity
	err     error
}

func (m commitResultMsg) windowID() model.WindowID { return m.win }

// contextMsg delivers a linking context update to a subscribed child panel.
type contextMsg struct {
	win   model.WindowID
	entry linking.Entry
}

func (m contextMsg) windowID() model.WindowID { return m.win }

// dialogResultMsg routes a closed dialog's decision to the requesting panel.
type dialogResultMsg struct {
	win      model.WindowID
	tag      string
	accepted bool
	value    string
}

func (m dialogResultMsg) windowID() model.WindowID { return m.win }

// selectionMsg reports a master panel's current entity so the workspace can
// publish it to the panel's linking group.
type selectionMsg struct {
	win      model.WindowID
	entityID int64
	fields   map[string]string
}

// openLinkedMsg asks the workspace to open a linked child window.
type openLinkedMsg struct {
	win    model.WindowID
	module model.ModuleKey
	title  string
}

// dialogRequestMsg asks the workspace to open a modal decision dialog.
type dialogRequestMsg struct {
	win      model.WindowID
	tag      string
	kind     dialogKind
	title    string
	body     string
	affirm   string
	negative string
}
