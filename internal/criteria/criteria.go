// Package criteria models search criteria as a closed set of typed
// predicates over file fields.
//
// Every Criterion is one of Array, String, Number or Date. Each carries the
// operator enum for its kind, so a planner that switches over the four types
// and their operators covers every legal combination.
package criteria

import (
	"fmt"
	"slices"
	"time"

	"github.com/listenupapp/tagcatalog/internal/errors"
)

// Kind is the value kind of a criterion.
type Kind uint8

// Value kinds.
const (
	KindArray Kind = iota + 1
	KindString
	KindNumber
	KindDate
)

var kindNames = map[Kind]string{
	KindArray:  "array",
	KindString: "string",
	KindNumber: "number",
	KindDate:   "date",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind converts a value type name to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Field is a searchable file field, named by its JSON key.
type Field string

// Searchable fields.
const (
	FieldTags            Field = "tags"
	FieldName            Field = "name"
	FieldAbsolutePath    Field = "absolutePath"
	FieldRelativePath    Field = "relativePath"
	FieldExtension       Field = "extension"
	FieldSize            Field = "size"
	FieldWidth           Field = "width"
	FieldHeight          Field = "height"
	FieldDateAdded       Field = "dateAdded"
	FieldDateModified    Field = "dateModified"
	FieldDateCreated     Field = "dateCreated"
	FieldDateLastIndexed Field = "dateLastIndexed"
)

var fieldKinds = map[Field]Kind{
	FieldTags:            KindArray,
	FieldName:            KindString,
	FieldAbsolutePath:    KindString,
	FieldRelativePath:    KindString,
	FieldExtension:       KindString,
	FieldSize:            KindNumber,
	FieldWidth:           KindNumber,
	FieldHeight:          KindNumber,
	FieldDateAdded:       KindDate,
	FieldDateModified:    KindDate,
	FieldDateCreated:     KindDate,
	FieldDateLastIndexed: KindDate,
}

// Kind returns the fixed value kind of the field, or false if the field is unknown.
func (f Field) Kind() (Kind, bool) {
	k, ok := fieldKinds[f]
	return k, ok
}

// Criterion is one typed predicate over a file field.
type Criterion interface {
	Field() Field
	Kind() Kind
	Operator() string
	isCriterion()
}

// Array matches against the file's tag list.
type Array struct {
	Key Field
	Op  ArrayOp
	IDs []string
}

// String matches a string field.
type String struct {
	Key   Field
	Op    StringOp
	Value string
}

// Number matches a numeric field.
type Number struct {
	Key   Field
	Op    CompareOp
	Value float64
}

// Date matches a date field at day granularity in Value's location.
type Date struct {
	Key   Field
	Op    CompareOp
	Value time.Time
}

func (c Array) Field() Field  { return c.Key }
func (c String) Field() Field { return c.Key }
func (c Number) Field() Field { return c.Key }
func (c Date) Field() Field   { return c.Key }

func (Array) Kind() Kind  { return KindArray }
func (String) Kind() Kind { return KindString }
func (Number) Kind() Kind { return KindNumber }
func (Date) Kind() Kind   { return KindDate }

func (c Array) Operator() string  { return c.Op.String() }
func (c String) Operator() string { return c.Op.String() }
func (c Number) Operator() string { return c.Op.String() }
func (c Date) Operator() string   { return c.Op.String() }

func (Array) isCriterion()  {}
func (String) isCriterion() {}
func (Number) isCriterion() {}
func (Date) isCriterion()   {}

// Validate checks that the criterion's field has the criterion's kind and
// that its operator is defined for that kind.
func Validate(c Criterion) error {
	if c == nil {
		return errors.Validation("criterion is nil")
	}
	kind, ok := c.Field().Kind()
	if !ok {
		return errors.Validationf("unknown field %q", c.Field())
	}
	if kind != c.Kind() {
		return errors.Validationf("field %q is %s, not %s", c.Field(), kind, c.Kind())
	}

	var valid bool
	switch c := c.(type) {
	case Array:
		valid = c.Op.valid()
	case String:
		valid = c.Op.valid()
	case Number:
		valid = c.Op.valid()
	case Date:
		valid = c.Op.valid()
	}
	if !valid {
		return errors.Validationf("operator %s is not defined for %s values", c.Operator(), c.Kind())
	}
	// The empty id is the untagged entry of the tags index.
	if a, ok := c.(Array); ok && slices.Contains(a.IDs, "") {
		return errors.Validationf("field %q holds an empty tag id", a.Key)
	}
	return nil
}

// ValidateAll validates every criterion, reporting the first failure with its position.
func ValidateAll(cs []Criterion) error {
	for i, c := range cs {
		if err := Validate(c); err != nil {
			return errors.Wrapf(err, errors.CodeValidation, "criterion %d", i)
		}
	}
	return nil
}
