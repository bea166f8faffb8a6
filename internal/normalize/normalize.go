// Package normalize implements the Value Normalizer (C4): projecting raw
// user-supplied values to canonical scalar form for evaluation, and
// merging user inputs with schema defaults into CalculationComponents.
package normalize

import (
	"strconv"

	"github.com/rshade/aws-pricing-mcp/internal/model"
)

// fileSizeFactors converts a fileSize value into gigabytes (spec.md §4.4).
var fileSizeFactors = map[string]float64{
	"KB": 1.0 / (1 << 20),
	"MB": 1.0 / (1 << 10),
	"GB": 1,
	"TB": 1024,
}

// frequencyFactors converts a frequency value into per-month occurrences
// (spec.md §4.4).
var frequencyFactors = map[string]float64{
	"per second": 2592000,
	"per minute": 43200,
	"per hour":   720,
	"per day":    30,
	"per week":   30.0 / 7.0,
	"per month":  1,
	"per year":   1.0 / 12.0,
}

const (
	typeFileSize  = "fileSize"
	typeFrequency = "frequency"
)

// isSizedType decides whether a value (a schema default or a user input)
// needs a unit attached when building CalculationComponents.
func isSizedType(t string) bool {
	return t == typeFileSize || t == typeFrequency
}

// NormalizeValue projects a raw ComponentValue to a canonical scalar,
// keyed by the input's subType. Missing or non-numeric values yield 0.
func NormalizeValue(subType string, raw model.ComponentValue) float64 {
	rawVal, ok := raw.Value()
	if !ok {
		return 0
	}
	num, ok := toFloat(rawVal)
	if !ok {
		return 0
	}

	unit, _ := raw.Unit()
	switch subType {
	case typeFileSize:
		factor, ok := fileSizeFactors[unit]
		if !ok {
			factor = 1
		}
		return num * factor
	case typeFrequency:
		factor, ok := frequencyFactors[unit]
		if !ok {
			factor = 1
		}
		return num * factor
	default:
		return num
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// isMeaningfulDefault reports whether a schema default is non-null and,
// if a string, non-empty (spec.md §8 invariant).
func isMeaningfulDefault(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// ResolveValue substitutes a supplied label/value against a field's
// options: when raw equals an option's label or canonical value, it
// returns that option's canonical value; otherwise raw passes through
// unchanged.
func ResolveValue(field model.InputField, raw any) any {
	if len(field.Options) == 0 {
		return raw
	}
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	for _, opt := range field.Options {
		if opt.Label == s {
			return opt.Value
		}
		if valStr, ok := opt.Value.(string); ok && valStr == s {
			return opt.Value
		}
	}
	return raw
}

// BuildComponentValue wraps a resolved value into the ComponentValue shape
// appropriate for field: {value, unit: defaultUnit} for sized fields,
// {value} otherwise.
func BuildComponentValue(field model.InputField, value any) model.ComponentValue {
	if isSizedType(field.Type) {
		return model.NewComponentValue(value, field.DefaultUnit)
	}
	return model.NewComponentValue(value, "")
}

// BuildCalcComponents merges user-supplied input values with a service's
// schema defaults into a CalculationComponents map (spec.md §4.4).
func BuildCalcComponents(fields []model.InputField, userInputs map[string]any) model.CalculationComponents {
	out := make(model.CalculationComponents)

	byID := make(map[string]model.InputField, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
		if isMeaningfulDefault(f.Default) {
			out[f.ID] = BuildComponentValue(f, f.Default)
		}
	}

	if len(userInputs) == 0 {
		return out
	}

	for id, raw := range userInputs {
		field, known := byID[id]
		if !known {
			// Unknown key: preserved pass-through, not validated against
			// the schema (spec.md §3 invariant).
			out[id] = passThrough(raw)
			continue
		}
		out[id] = mergeUserValue(field, raw)
	}
	return out
}

func mergeUserValue(field model.InputField, raw any) model.ComponentValue {
	if field.Type == "pricingStrategy" {
		if obj, ok := raw.(map[string]any); ok {
			if inner, hasValue := obj["value"]; hasValue {
				if innerObj, ok := inner.(map[string]any); ok {
					return model.ComponentValue(innerObj)
				}
			}
			return model.ComponentValue(obj)
		}
	}

	if obj, ok := raw.(map[string]any); ok {
		if _, hasValue := obj["value"]; hasValue {
			resolved := ResolveValue(field, obj["value"])
			cv := model.ComponentValue{"value": resolved}
			if unit, ok := obj["unit"]; ok {
				cv["unit"] = unit
			}
			return cv
		}
	}

	resolved := ResolveValue(field, raw)
	return BuildComponentValue(field, resolved)
}

func passThrough(raw any) model.ComponentValue {
	if obj, ok := raw.(map[string]any); ok {
		return model.ComponentValue(obj)
	}
	return model.NewComponentValue(raw, "")
}
