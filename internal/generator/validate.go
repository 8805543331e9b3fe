package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"alcyxob/fitplan/internal/domain"
)

// Issue is one schema violation at a JSON path such as $.exercises[2].sets.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string { return i.Path + ": " + i.Message }

// SchemaError lists every violation found in a candidate plan.
type SchemaError struct {
	Issues []Issue
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("plan failed schema validation (%d issues): %s", len(e.Issues), strings.Join(msgs, "; "))
}

// ValidatePlan parses s and checks it against PlanSchema. A plan with any
// violation is rejected whole; nothing is coerced or dropped.
func ValidatePlan(s string) (*domain.WorkoutPlan, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &SchemaError{Issues: []Issue{{Path: "$", Message: "invalid JSON: " + err.Error()}}}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &SchemaError{Issues: []Issue{{Path: "$", Message: "unexpected data after JSON object"}}}
	}

	var issues []Issue
	checkValue(PlanSchema, doc, "$", &issues)
	if len(issues) > 0 {
		return nil, &SchemaError{Issues: issues}
	}

	var plan domain.WorkoutPlan
	if err := json.NewDecoder(bytes.NewReader([]byte(s))).Decode(&plan); err != nil {
		return nil, &SchemaError{Issues: []Issue{{Path: "$", Message: err.Error()}}}
	}
	return &plan, nil
}

func checkValue(def FieldSpec, v any, path string, issues *[]Issue) {
	add := func(format string, args ...any) {
		*issues = append(*issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	switch def.Kind {
	case KindObject:
		obj, ok := v.(map[string]any)
		if !ok {
			add("expected object, got %s", jsonType(v))
			return
		}
		for _, field := range def.Fields {
			fv, present := obj[field.Name]
			fieldPath := path + "." + field.Name
			if !present || fv == nil {
				if field.Required {
					*issues = append(*issues, Issue{Path: fieldPath, Message: "required field missing"})
				}
				continue
			}
			checkValue(field, fv, fieldPath, issues)
		}

	case KindArray:
		arr, ok := v.([]any)
		if !ok {
			add("expected array, got %s", jsonType(v))
			return
		}
		if len(arr) < def.MinItems {
			add("expected at least %d items, got %d", def.MinItems, len(arr))
		}
		if def.MaxItems > 0 && len(arr) > def.MaxItems {
			add("expected at most %d items, got %d", def.MaxItems, len(arr))
		}
		for i, elem := range arr {
			checkValue(*def.Elem, elem, fmt.Sprintf("%s[%d]", path, i), issues)
		}

	case KindString:
		sv, ok := v.(string)
		if !ok {
			add("expected string, got %s", jsonType(v))
			return
		}
		if def.MaxLen > 0 && utf8.RuneCountInString(sv) > def.MaxLen {
			add("longer than %d characters", def.MaxLen)
		}

	case KindEnum:
		sv, ok := v.(string)
		if !ok {
			add("expected string, got %s", jsonType(v))
			return
		}
		for _, allowed := range def.Enum {
			if sv == allowed {
				return
			}
		}
		add("%q is not one of %s", sv, strings.Join(def.Enum, ", "))

	case KindInteger, KindNumber:
		num, ok := v.(json.Number)
		if !ok {
			add("expected %s, got %s", def.Kind, jsonType(v))
			return
		}
		var f float64
		if def.Kind == KindInteger {
			n, err := num.Int64()
			if err != nil {
				add("expected integer, got %s", num.String())
				return
			}
			f = float64(n)
		} else {
			n, err := num.Float64()
			if err != nil {
				add("expected number, got %s", num.String())
				return
			}
			f = n
		}
		if def.bounded() && (f < def.Min || f > def.Max) {
			add("%s out of range %g-%g", num.String(), def.Min, def.Max)
		}
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
