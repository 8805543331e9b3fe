package generator

import (
	"fmt"
	"strings"
)

// Kind is the JSON type a field must have.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindEnum    Kind = "enum"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// FieldSpec describes one field of the plan schema. The same value renders
// the schema text in prompts and drives ValidatePlan.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Required bool

	// Inclusive numeric bounds; unchecked when both are zero.
	Min, Max float64
	// Array length bounds; MaxItems 0 means unbounded.
	MinItems, MaxItems int
	// Maximum string length in runes; 0 means unbounded.
	MaxLen int

	Enum   []string
	Elem   *FieldSpec  // element of an array
	Fields []FieldSpec // members of an object
}

func (f FieldSpec) bounded() bool { return f.Min != 0 || f.Max != 0 }

var difficultyValues = []string{"beginner", "intermediate", "advanced"}

func str(name string, required bool, maxLen int) FieldSpec {
	return FieldSpec{Name: name, Kind: KindString, Required: required, MaxLen: maxLen}
}

func integer(name string, required bool, min, max float64) FieldSpec {
	return FieldSpec{Name: name, Kind: KindInteger, Required: required, Min: min, Max: max}
}

func strList(name string, required bool, minItems, maxItems, maxLen int) FieldSpec {
	elem := FieldSpec{Kind: KindString, MaxLen: maxLen}
	return FieldSpec{Name: name, Kind: KindArray, Required: required, MinItems: minItems, MaxItems: maxItems, Elem: &elem}
}

func objList(name string, required bool, minItems, maxItems int, elem FieldSpec) FieldSpec {
	return FieldSpec{Name: name, Kind: KindArray, Required: required, MinItems: minItems, MaxItems: maxItems, Elem: &elem}
}

// ExerciseSchema is the shape of a single exercise entry.
var ExerciseSchema = FieldSpec{
	Kind: KindObject,
	Fields: []FieldSpec{
		str("name", true, 100),
		str("description", true, 500),
		strList("instructions", true, 1, 12, 300),
		strList("targetMuscles", true, 1, 10, 50),
		strList("equipment", true, 0, 10, 50),
		{Name: "difficulty", Kind: KindEnum, Required: true, Enum: difficultyValues},
		integer("sets", true, 1, 10),
		integer("reps", false, 1, 50),
		integer("durationSeconds", false, 5, 3600),
		integer("restSeconds", true, 0, 600),
		strList("tips", false, 0, 10, 200),
		str("progressionNotes", false, 500),
		strList("alternatives", false, 0, 10, 100),
		strList("formCues", false, 0, 10, 200),
	},
}

// PlanSchema is the shape of a complete workout plan.
var PlanSchema = FieldSpec{
	Kind: KindObject,
	Fields: []FieldSpec{
		str("name", true, 100),
		str("description", true, 1000),
		str("type", true, 50),
		{Name: "difficulty", Kind: KindEnum, Required: true, Enum: difficultyValues},
		integer("estimatedDuration", true, 10, 180),
		objList("exercises", true, 1, 40, ExerciseSchema),
		strList("equipment", true, 0, 20, 50),
		strList("targetMuscles", true, 0, 20, 50),
		objList("warmUp", false, 0, 10, ExerciseSchema),
		objList("coolDown", false, 0, 10, ExerciseSchema),
		strList("progressionTips", false, 0, 10, 300),
		str("motivationalQuote", false, 300),
		integer("calorieEstimate", false, 50, 1500),
	},
}

// Describe renders the field as annotated pseudo-JSON for the model.
func (f FieldSpec) Describe() string {
	var b strings.Builder
	f.describe(&b, 0)
	return b.String()
}

func (f FieldSpec) describe(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	switch f.Kind {
	case KindObject:
		b.WriteString("{\n")
		for i, field := range f.Fields {
			fmt.Fprintf(b, "%s  %q: ", indent, field.Name)
			field.describe(b, depth+1)
			if i < len(f.Fields)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + "}")
	case KindArray:
		b.WriteString("[")
		f.Elem.describe(b, depth)
		fmt.Fprintf(b, "] (%s)", f.annotation())
	default:
		b.WriteString(f.typeLabel())
		if note := f.annotation(); note != "" {
			fmt.Fprintf(b, " (%s)", note)
		}
	}
}

func (f FieldSpec) typeLabel() string {
	if f.Kind == KindEnum {
		quoted := make([]string, len(f.Enum))
		for i, v := range f.Enum {
			quoted[i] = fmt.Sprintf("%q", v)
		}
		return strings.Join(quoted, " | ")
	}
	return string(f.Kind)
}

func (f FieldSpec) annotation() string {
	var parts []string
	if f.Required {
		parts = append(parts, "required")
	} else if f.Name != "" {
		parts = append(parts, "optional")
	}
	switch f.Kind {
	case KindInteger, KindNumber:
		if f.bounded() {
			parts = append(parts, fmt.Sprintf("%g-%g", f.Min, f.Max))
		}
	case KindString:
		if f.MaxLen > 0 {
			parts = append(parts, fmt.Sprintf("max %d chars", f.MaxLen))
		}
	case KindArray:
		if f.MaxItems > 0 {
			parts = append(parts, fmt.Sprintf("%d-%d items", f.MinItems, f.MaxItems))
		} else if f.MinItems > 0 {
			parts = append(parts, fmt.Sprintf("at least %d items", f.MinItems))
		}
	}
	return strings.Join(parts, ", ")
}
