package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/config"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/linking"
	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

func testDeps() Deps {
	return Deps{
		Context: linking.NewStore(),
		Cfg:     config.Default(),
		Send:    func(tea.Msg) {},
	}
}

func TestNewPanel_MountsByModuleKey(t *testing.T) {
	deps := testDeps()
	cases := []struct {
		module model.ModuleKey
		want   string
	}{
		{model.ModulePartList, "*ui.partList"},
		{model.ModulePartDetail, "*ui.partDetail"},
		{model.ModuleTechnology, "*ui.technology"},
		{model.ModuleQuote, "*ui.quote"},
	}
	for _, c := range cases {
		win := model.Window{ID: 1, Module: c.module}
		p := newPanel(win, deps)
		if got := typeName(p); got != c.want {
			t.Errorf("%s: panel type = %s, want %s", c.module, got, c.want)
		}
		p.Teardown()
	}
}

func TestNewPanel_UnknownModuleDegradesToErrorPanel(t *testing.T) {
	win := model.Window{ID: 1, Module: model.ModuleKey("material.browser")}
	p := newPanel(win, testDeps())
	ep, ok := p.(*errorPanel)
	if !ok {
		t.Fatalf("panel type = %s, want *ui.errorPanel", typeName(p))
	}
	if !strings.Contains(ep.text, "material.browser") {
		t.Errorf("error text %q does not name the module", ep.text)
	}
}

func TestModuleTitles(t *testing.T) {
	if moduleTitle(model.ModulePartList) != "Parts" {
		t.Error("part list title")
	}
	if moduleTitle(model.ModuleKey("x")) != "x" {
		t.Error("unknown module falls back to its key")
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *partList:
		return "*ui.partList"
	case *partDetail:
		return "*ui.partDetail"
	case *technology:
		return "*ui.technology"
	case *quote:
		return "*ui.quote"
	case *errorPanel:
		return "*ui.errorPanel"
	default:
		return "unknown"
	}
}
