package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

type dialogKind int

const (
	dialogConfirm dialogKind = iota
	dialogInput
	dialogSelect
)

// dialog is the single modal decision the workspace can show. Only one may
// be active at a time; further requests queue behind it, so a conflict
// prompt can never be buried or lost under another prompt.
type dialog struct {
	win  model.WindowID
	tag  string
	kind dialogKind

	form    *huh.Form
	confirm bool
	input   string
}

// newDialogForm builds a one-group form with esc bound to abort.
func newDialogForm(group *huh.Group) *huh.Form {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"))
	return huh.NewForm(group).WithKeyMap(km)
}

func newConfirmDialog(req dialogRequestMsg) *dialog {
	d := &dialog{win: req.win, tag: req.tag, kind: dialogConfirm}
	d.form = newDialogForm(huh.NewGroup(
		huh.NewConfirm().
			Title(req.title).
			Description(req.body).
			Affirmative(req.affirm).
			Negative(req.negative).
			Value(&d.confirm),
	))
	return d
}

func newInputDialog(tag, title, placeholder string) *dialog {
	d := &dialog{tag: tag, kind: dialogInput}
	d.form = newDialogForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Placeholder(placeholder).
			Value(&d.input),
	))
	return d
}

func newSelectDialog(tag, title string, options []string) *dialog {
	d := &dialog{tag: tag, kind: dialogSelect}
	d.form = newDialogForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(title).
			Options(huh.NewOptions(options...)...).
			Value(&d.input),
	))
	return d
}

func (d *dialog) Init() tea.Cmd {
	return d.form.Init()
}

// Update feeds the form and reports whether the dialog resolved. A resolved
// dialog yields its decision message; an aborted one (esc) yields a
// declined decision.
func (d *dialog) Update(msg tea.Msg) (done bool, result tea.Msg, cmd tea.Cmd) {
	f, cmd := d.form.Update(msg)
	if form, ok := f.(*huh.Form); ok {
		d.form = form
	}
	switch d.form.State {
	case huh.StateCompleted:
		accepted := true
		if d.kind == dialogConfirm {
			accepted = d.confirm
		}
		return true, dialogResultMsg{win: d.win, tag: d.tag, accepted: accepted, value: d.input}, cmd
	case huh.StateAborted:
		return true, dialogResultMsg{win: d.win, tag: d.tag, accepted: false}, cmd
	}
	return false, nil, cmd
}

func (d *dialog) View() string {
	return OverlayStyle.Render(d.form.View())
}
