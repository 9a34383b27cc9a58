package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/listenupapp/tagcatalog/internal/criteria"
	"github.com/listenupapp/tagcatalog/internal/domain"
)

// parseWhere parses a "key:operator:value" expression into a criterion.
// Tag values are comma separated ids (empty for untagged files), numbers
// are decimal, and dates are YYYY-MM-DD in the local zone or RFC 3339.
func parseWhere(expr string) (domain.CriterionDTO, error) {
	key, rest, ok := strings.Cut(expr, ":")
	if !ok {
		return domain.CriterionDTO{}, fmt.Errorf("invalid criterion %q (want key:operator:value)", expr)
	}
	op, value, ok := strings.Cut(rest, ":")
	if !ok {
		return domain.CriterionDTO{}, fmt.Errorf("invalid criterion %q (want key:operator:value)", expr)
	}

	kind, known := criteria.Field(key).Kind()
	if !known {
		return domain.CriterionDTO{}, fmt.Errorf("unknown key %q", key)
	}

	var v any
	switch kind {
	case criteria.KindArray:
		ids := []string{}
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		v = ids
	case criteria.KindString:
		v = value
	case criteria.KindNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return domain.CriterionDTO{}, fmt.Errorf("key %q expects a number, got %q", key, value)
		}
		v = n
	case criteria.KindDate:
		t, err := parseDay(value)
		if err != nil {
			return domain.CriterionDTO{}, fmt.Errorf("key %q expects a date, got %q", key, value)
		}
		v = t.Format(time.RFC3339)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return domain.CriterionDTO{}, err
	}
	return domain.CriterionDTO{Key: key, ValueType: kind.String(), Operator: op, Value: raw}, nil
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseWheres(exprs []string) ([]domain.CriterionDTO, error) {
	out := make([]domain.CriterionDTO, 0, len(exprs))
	for _, e := range exprs {
		d, err := parseWhere(e)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
