package model

import "strings"

// Entity is the generic shape of any business record touched by the
// concurrency client: an id, the server-owned version counter, and a flat
// field map. The server is the sole arbiter of Version and increments it on
// every successful write.
type Entity struct {
	ID      int64             `json:"id"`
	Version int               `json:"version"`
	Fields  map[string]string `json:"fields"`
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	clone := e
	if e.Fields != nil {
		clone.Fields = make(map[string]string, len(e.Fields))
		for k, v := range e.Fields {
			clone.Fields[k] = v
		}
	}
	return clone
}

// Field returns a field value, or "" when absent.
func (e Entity) Field(key string) string {
	if e.Fields == nil {
		return ""
	}
	return e.Fields[key]
}

// Well-known part fields used by the workspace panels.
const (
	FieldNumber   = "number"
	FieldName     = "name"
	FieldMaterial = "material"
	FieldStatus   = "status"
	FieldDrawing  = "has_drawing"
	FieldNotes    = "notes"
)

// DisplayFields extracts the subset of fields a master publishes into the
// context store alongside the entity id.
func (e Entity) DisplayFields() map[string]string {
	out := make(map[string]string, 2)
	for _, k := range []string{FieldNumber, FieldName} {
		if v := e.Field(k); v != "" {
			out[k] = v
		}
	}
	return out
}

// SearchText is the haystack used for client-side fuzzy filtering of
// already-loaded rows.
func (e Entity) SearchText() string {
	parts := make([]string, 0, 3)
	for _, k := range []string{FieldNumber, FieldName, FieldMaterial} {
		if v := e.Field(k); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
