package criteria

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/validation"
)

var validate = validation.New()

// FromDTO converts a serialized criterion. Unknown fields, operators and
// malformed values are CodeValidation errors; stored data may be corrupt
// and must not crash the caller.
func FromDTO(d domain.CriterionDTO) (Criterion, error) {
	if err := validate.Validate(d); err != nil {
		return nil, err
	}

	field := Field(d.Key)
	kind, ok := field.Kind()
	if !ok {
		return nil, errors.Validationf("unknown criterion key %q", d.Key)
	}
	if d.ValueType != "" {
		if declared, _ := ParseKind(d.ValueType); declared != kind {
			return nil, errors.Validationf("key %q holds %s values, not %s", d.Key, kind, d.ValueType)
		}
	}

	switch kind {
	case KindArray:
		op, ok := ParseArrayOp(d.Operator)
		if !ok {
			return nil, unknownOperator(d, kind)
		}
		ids := []string{}
		if len(d.Value) > 0 && !isNull(d.Value) {
			if err := json.Unmarshal(d.Value, &ids); err != nil {
				return nil, errors.Validationf("key %q expects an array of tag ids", d.Key)
			}
		}
		c := Array{Key: field, Op: op, IDs: ids}
		if err := Validate(c); err != nil {
			return nil, err
		}
		return c, nil

	case KindString:
		op, ok := ParseStringOp(d.Operator)
		if !ok {
			return nil, unknownOperator(d, kind)
		}
		var s string
		if err := json.Unmarshal(d.Value, &s); err != nil {
			return nil, errors.Validationf("key %q expects a string", d.Key)
		}
		return String{Key: field, Op: op, Value: s}, nil

	case KindNumber:
		op, ok := ParseCompareOp(d.Operator)
		if !ok {
			return nil, unknownOperator(d, kind)
		}
		var n float64
		if err := json.Unmarshal(d.Value, &n); err != nil {
			return nil, errors.Validationf("key %q expects a number", d.Key)
		}
		return Number{Key: field, Op: op, Value: n}, nil

	case KindDate:
		op, ok := ParseCompareOp(d.Operator)
		if !ok {
			return nil, unknownOperator(d, kind)
		}
		t, err := parseDate(d.Value)
		if err != nil {
			return nil, errors.Validationf("key %q expects an RFC 3339 date or epoch milliseconds", d.Key)
		}
		return Date{Key: field, Op: op, Value: t}, nil
	}

	return nil, errors.Internalf("unhandled kind %s", kind)
}

// FromDTOs converts a list of serialized criteria.
func FromDTOs(ds []domain.CriterionDTO) ([]Criterion, error) {
	out := make([]Criterion, 0, len(ds))
	for i, d := range ds {
		c, err := FromDTO(d)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeValidation, "criterion %d", i)
		}
		out = append(out, c)
	}
	return out, nil
}

// ToDTO serializes a valid criterion. Dates keep their zone offset so the
// day boundaries survive a round trip.
func ToDTO(c Criterion) (domain.CriterionDTO, error) {
	if err := Validate(c); err != nil {
		return domain.CriterionDTO{}, err
	}

	var value any
	switch c := c.(type) {
	case Array:
		ids := c.IDs
		if ids == nil {
			ids = []string{}
		}
		value = ids
	case String:
		value = c.Value
	case Number:
		value = c.Value
	case Date:
		value = c.Value.Format(time.RFC3339Nano)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return domain.CriterionDTO{}, errors.Wrap(err, errors.CodeInternal, "marshal criterion value")
	}
	return domain.CriterionDTO{
		Key:       string(c.Field()),
		ValueType: c.Kind().String(),
		Operator:  c.Operator(),
		Value:     raw,
	}, nil
}

// ToDTOs serializes a list of criteria.
func ToDTOs(cs []Criterion) ([]domain.CriterionDTO, error) {
	out := make([]domain.CriterionDTO, 0, len(cs))
	for _, c := range cs {
		d, err := ToDTO(c)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func parseDate(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func unknownOperator(d domain.CriterionDTO, kind Kind) error {
	return errors.Validationf("operator %q is not defined for %s key %q", d.Operator, kind, d.Key)
}
