// Package question models the coach-managed diary questionnaire catalog.
package question

import (
	"encoding/json"
	"time"
)

// Type enumerates the answer widgets the diary form can render.
type Type string

const (
	TypeRadio  Type = "radio"
	TypeScale  Type = "scale"
	TypeText   Type = "text"
	TypeTime   Type = "time"
	TypeNumber Type = "number"
	TypeMulti  Type = "multi"
)

// ValidTypes lists every accepted question type, in display order for
// error messages.
var ValidTypes = []Type{TypeRadio, TypeScale, TypeText, TypeTime, TypeNumber, TypeMulti}

// Question is one item of the diary questionnaire. Core questions carry a
// FieldKey naming the sleep-entry field their answers populate; coach-added
// questions have an empty FieldKey. LogicJSON holds optional branching
// rules as opaque JSON.
type Question struct {
	ID           int             `json:"Id"`
	Label        string          `json:"label"`
	Type         Type            `json:"type"`
	Options      []string        `json:"options"`
	DisplayOrder int             `json:"displayOrder"`
	IsActive     bool            `json:"isActive"`
	LogicJSON    json.RawMessage `json:"logicJson"`
	FieldKey     string          `json:"fieldKey"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type CreateRequest struct {
	Label        string          `json:"label"`
	Type         Type            `json:"type"`
	Options      []string        `json:"options"`
	DisplayOrder *int            `json:"displayOrder"`
	IsActive     *bool           `json:"isActive"`
	LogicJSON    json.RawMessage `json:"logicJson"`
	FieldKey     string          `json:"fieldKey"`
}

// Patch enumerates the fields an update may touch. ID, FieldKey, and
// CreatedAt are not patchable. A LogicJSON of literal null clears the
// stored rules; an absent field leaves them alone.
type Patch struct {
	Label        *string         `json:"label"`
	Type         *Type           `json:"type"`
	Options      *[]string       `json:"options"`
	DisplayOrder *int            `json:"displayOrder"`
	IsActive     *bool           `json:"isActive"`
	LogicJSON    json.RawMessage `json:"logicJson"`
}

// ReorderItem pins one question to a display position.
type ReorderItem struct {
	ID           int `json:"Id"`
	DisplayOrder int `json:"displayOrder"`
}
