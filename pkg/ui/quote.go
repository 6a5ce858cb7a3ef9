package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/api"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/linking"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// Quote record fields, costs in currency units as decimal strings.
const (
	fieldMaterialCost = "material_cost"
	fieldMachineCost  = "machine_cost"
	fieldToolingCost  = "tooling_cost"
	fieldMarginPct    = "margin_pct"
	fieldQuantity     = "quantity"
)

// quote is a read-only linked child showing the price breakdown for the
// group's current part.
type quote struct {
	win   model.WindowID
	deps  Deps
	unsub func()

	partID     int64
	partFields map[string]string
	lastVer    int
	loadSeq    int // current load request; older responses are dropped

	record  model.Entity
	loaded  bool
	loadErr error
}

func newQuote(win model.Window, deps Deps) *quote {
	q := &quote{win: win.ID, deps: deps}
	if win.LinkingGroup.IsValid() {
		winID := win.ID
		send := deps.Send
		q.unsub = deps.Context.Subscribe(win.LinkingGroup, func(e linking.Entry) {
			send(contextMsg{win: winID, entry: e})
		})
	}
	return q
}

func (q *quote) Init() tea.Cmd { return nil }

func (q *quote) Teardown() {
	if q.unsub != nil {
		q.unsub()
		q.unsub = nil
	}
}

func (q *quote) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case contextMsg:
		if msg.entry.GroupVersion <= q.lastVer {
			return q, nil
		}
		q.lastVer = msg.entry.GroupVersion
		if msg.entry.EntityID == 0 || msg.entry.EntityID == q.partID {
			return q, nil
		}
		q.partID = msg.entry.EntityID
		q.partFields = msg.entry.DisplayFields
		q.loaded = false
		return q, q.load(msg.entry.EntityID)

	case feedResultMsg:
		if msg.seq != q.loadSeq {
			return q, nil
		}
		if msg.err != nil {
			q.loadErr = msg.err
			return q, status("quote load: %v", msg.err)
		}
		q.loadErr = nil
		if len(msg.page.Items) == 0 {
			q.loaded = false
			return q, nil
		}
		q.record = msg.page.Items[0]
		q.loaded = true
		return q, nil

	case tea.KeyMsg:
		if msg.String() == "r" && q.partID != 0 {
			return q, q.load(q.partID)
		}
	}
	return q, nil
}

func (q *quote) load(partID int64) tea.Cmd {
	q.loadSeq++
	seq := q.loadSeq
	client := q.deps.Quotes
	win := q.win
	query := api.Query{Limit: 1, Filters: map[string]string{fieldPartID: fmt.Sprint(partID)}}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()
		page, err := client.List(ctx, query)
		return feedResultMsg{win: win, seq: seq, page: page, err: err}
	}
}

// cost reads a decimal field, treating blanks and garbage as zero.
func (q *quote) cost(key string) float64 {
	v, err := strconv.ParseFloat(q.record.Field(key), 64)
	if err != nil {
		return 0
	}
	return v
}

func (q *quote) View(width, height int) string {
	var b strings.Builder

	if q.partID == 0 {
		b.WriteString(FooterStyle.Render("waiting for a part from the linked list…"))
		return b.String()
	}

	b.WriteString(TitleStyle.Render(q.partFields[model.FieldNumber]))
	b.WriteString(" ")
	b.WriteString(TitleDimStyle.Render(q.partFields[model.FieldName]))
	b.WriteString("\n\n")

	if !q.loaded {
		if q.loadErr != nil {
			b.WriteString(ErrorStyle.Render(q.loadErr.Error()))
		} else {
			b.WriteString(FooterStyle.Render("no quote for this part, r to refresh"))
		}
		return b.String()
	}

	material := q.cost(fieldMaterialCost)
	machine := q.cost(fieldMachineCost)
	tooling := q.cost(fieldToolingCost)
	margin := q.cost(fieldMarginPct)
	base := material + machine + tooling
	total := base * (1 + margin/100)

	line := func(label string, v float64) {
		b.WriteString(LabelStyle.Render(label))
		b.WriteString(fmt.Sprintf("%10.2f\n", v))
	}
	line("Material", material)
	line("Machining", machine)
	line("Tooling", tooling)
	b.WriteString(LabelStyle.Render("Margin"))
	b.WriteString(fmt.Sprintf("%9.1f%%\n", margin))
	b.WriteString(strings.Repeat("─", 24))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Unit price"))
	b.WriteString(SuccessStyle.Render(fmt.Sprintf("%10.2f", total)))
	b.WriteString("\n")
	if qty := q.record.Field(fieldQuantity); qty != "" {
		b.WriteString(LabelStyle.Render("Quantity"))
		b.WriteString(qty)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render(fmt.Sprintf("v%d  r refresh", q.record.Version)))
	return b.String()
}
