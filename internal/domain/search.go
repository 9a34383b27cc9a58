package domain

import "encoding/json"

// SavedSearch is a named, persisted list of criteria.
type SavedSearch struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Criteria []CriterionDTO `json:"criteria"`
	MatchAny bool           `json:"matchAny"`
	Position int            `json:"position"`
}

// CriterionDTO is the serialized form of a single search criterion.
// Value holds a JSON array of tag ids, a string, a number, or a date
// (RFC 3339 string or epoch milliseconds) depending on ValueType.
// An empty ValueType is inferred from Key.
type CriterionDTO struct {
	Key       string          `json:"key" validate:"required"`
	ValueType string          `json:"valueType,omitempty" validate:"omitempty,oneof=array string number date"`
	Operator  string          `json:"operator" validate:"required"`
	Value     json.RawMessage `json:"value"`
}
