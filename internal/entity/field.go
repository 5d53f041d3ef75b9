package entity

import (
	"slices"
	"time"
)

// FieldKind describes how a field value is normalized.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindCurrency FieldKind = "currency"
	KindDate     FieldKind = "date"
	KindEmail    FieldKind = "email"
	KindPhone    FieldKind = "phone"
	KindList     FieldKind = "list"
)

// Field is one extracted value with its provenance. Fields without located
// evidence are never constructed.
type Field struct {
	Name       string     `json:"name"`
	Kind       FieldKind  `json:"kind"`
	Value      string     `json:"value"`
	Amount     *float64   `json:"amount,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Items      []string   `json:"items,omitempty"`
	Confidence float64    `json:"confidence"`
	Provenance []int      `json:"provenance"`
	Box        BBox       `json:"box"`
	Method     string     `json:"method"`
}

// NewField builds a field from its contributing tokens: provenance is the
// sorted, de-duplicated index set and Box the minimal covering box.
func NewField(name string, kind FieldKind, value string, tokens []Token, idx []int, weight float64, method string) Field {
	prov := slices.Clone(idx)
	slices.Sort(prov)
	prov = slices.Compact(prov)

	var box BBox
	var sum float64
	for _, i := range prov {
		box = box.Union(tokens[i].Box)
		sum += tokens[i].Confidence
	}
	conf := 0.0
	if len(prov) > 0 {
		conf = sum / float64(len(prov))
	}
	return Field{
		Name:       name,
		Kind:       kind,
		Value:      value,
		Confidence: ClampUnit(conf * weight),
		Provenance: prov,
		Box:        box,
		Method:     method,
	}
}

// FieldSpec declares one entry of a document type's schema.
type FieldSpec struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
}
