package model

import "fmt"

// WindowID identifies a window for the lifetime of the process.
type WindowID int

// ModuleKey identifies which panel implementation a window mounts.
type ModuleKey string

const (
	ModulePartList   ModuleKey = "part.list"
	ModulePartDetail ModuleKey = "part.detail"
	ModuleTechnology ModuleKey = "technology"
	ModuleQuote      ModuleKey = "quote"
)

// WindowRole is a window's role within a linking group.
type WindowRole string

const (
	RoleNone   WindowRole = ""
	RoleMaster WindowRole = "master"
	RoleChild  WindowRole = "child"
)

// LinkingColor tags a master window and its children so they share one
// "current entity" context. A small fixed enumeration; ColorNone means
// the window is standalone.
type LinkingColor int

const (
	ColorNone LinkingColor = iota
	ColorRed
	ColorGreen
	ColorBlue
	ColorYellow
)

// LinkingColors lists every assignable color in allocation order.
var LinkingColors = []LinkingColor{ColorRed, ColorGreen, ColorBlue, ColorYellow}

// String returns the display name of the color.
func (c LinkingColor) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorYellow:
		return "yellow"
	default:
		return "none"
	}
}

// IsValid returns true for an assignable (non-none) color.
func (c LinkingColor) IsValid() bool {
	return c > ColorNone && int(c) <= len(LinkingColors)
}

// Geometry is a window's position and size in workspace units.
type Geometry struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Window is runtime-only UI state, never business data. Invariant: a child
// always has a color; a colorless window is always role-none.
type Window struct {
	ID           WindowID
	Module       ModuleKey
	Title        string
	Geom         Geometry
	Minimized    bool
	Maximized    bool
	ZIndex       int
	LinkingGroup LinkingColor
	Role         WindowRole

	// PreMax holds the geometry recorded at maximize time so restore is exact.
	PreMax Geometry
}

// Validate checks the role/group invariant.
func (w *Window) Validate() error {
	if w.Role == RoleChild && w.LinkingGroup == ColorNone {
		return fmt.Errorf("window %d: child role without linking group", w.ID)
	}
	if w.LinkingGroup == ColorNone && w.Role != RoleNone {
		return fmt.Errorf("window %d: role %q without linking group", w.ID, w.Role)
	}
	return nil
}

// GeometryRatio is viewport-independent geometry, each coordinate a fraction
// of the viewport dimension. Layouts persist ratios, not pixels.
type GeometryRatio struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// LayoutWindow is one window's persisted slice of a Layout.
type LayoutWindow struct {
	Module       ModuleKey     `json:"module"`
	Title        string        `json:"title,omitempty"`
	LinkingGroup LinkingColor  `json:"linkingGroup,omitempty"`
	Role         WindowRole    `json:"windowRole,omitempty"`
	Geometry     GeometryRatio `json:"geometryRatio"`
	Minimized    bool          `json:"minimized,omitempty"`
}

// Layout is a named, persisted window arrangement plus per-area resize
// proportions (percentages).
type Layout struct {
	Name        string             `json:"name"`
	Windows     []LayoutWindow     `json:"windows"`
	Proportions map[string]float64 `json:"proportions,omitempty"`
}
