package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aguxez/keecal/models"
)

// ErrUnparsable is returned when a reply is not a JSON object, even after
// the repair pass.
var ErrUnparsable = errors.New("classifier response is not parsable")

// MissingFieldError reports a required field that is absent or empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("classifier response is missing %q", e.Field)
}

// InvalidFieldError reports a numeric field that is negative or not a number.
type InvalidFieldError struct {
	Field string
	Value any
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("classifier response has invalid %q: %v", e.Field, e.Value)
}

// Largest accepted value for any numeric field.
const maxNutrientValue = 1_000_000

// fieldAliases lists the accepted spellings of each canonical field, in order
// of preference. Keys are compared after canonicalKey.
var fieldAliases = map[string][]string{
	"name":           {"name", "foodname", "food", "dish"},
	"calories":       {"calories", "calorie", "kcal", "energy"},
	"protein":        {"protein", "proteins"},
	"carbs":          {"carbs", "carbohydrates", "carbohydrate", "carb"},
	"fat":            {"fat", "fats"},
	"trainerComment": {"trainercomment", "comment"},
	"nutrition":      {"nutrition", "macros", "nutrients"},
}

var (
	fenceRe         = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	numberWithUnit  = regexp.MustCompile(`(?i)^(-?\d+(?:\.\d+)?)\s*(?:kcal|cal|calories|g|grams?)?$`)
)

// Normalize turns a raw classifier reply into a canonical NutritionResult.
// It has no side effects and returns identical output for identical input.
func Normalize(raw string) (models.NutritionResult, error) {
	payload := stripCodeFences(raw)

	obj, err := decodeObject(payload)
	if err != nil {
		// One repair attempt only.
		obj, err = decodeObject(repairJSON(payload))
		if err != nil {
			return models.NutritionResult{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
	}
	fields := canonicalize(obj)

	name, _ := lookup(fields, "name").(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return models.NutritionResult{}, &MissingFieldError{Field: "name"}
	}

	calories, err := intField(fields, "calories", true)
	if err != nil {
		return models.NutritionResult{}, err
	}

	// Nested nutrition wins per field; siblings fill the gaps.
	macroSource := fields
	if nested, ok := lookup(fields, "nutrition").(map[string]any); ok {
		macroSource = mergeFallback(canonicalize(nested), fields)
	}

	var breakdown models.NutritionBreakdown
	if breakdown.Protein, err = intField(macroSource, "protein", false); err != nil {
		return models.NutritionResult{}, err
	}
	if breakdown.Carbs, err = intField(macroSource, "carbs", false); err != nil {
		return models.NutritionResult{}, err
	}
	if breakdown.Fat, err = intField(macroSource, "fat", false); err != nil {
		return models.NutritionResult{}, err
	}

	comment, _ := lookup(fields, "trainerComment").(string)

	return models.NutritionResult{
		Name:           name,
		Calories:       calories,
		Nutrition:      breakdown,
		TrainerComment: strings.TrimSpace(comment),
	}, nil
}

func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Unterminated opening fence, e.g. a truncated reply.
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimLeft(s, "`")
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("payload is not an object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after object")
	}
	return obj, nil
}

// repairJSON trims prose around the outermost braces, rewrites single-quoted
// strings as double-quoted ones and drops trailing commas.
func repairJSON(s string) string {
	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start >= 0 && end > start {
		s = s[start : end+1]
	}

	var b bytes.Buffer
	inDouble, inSingle, escaped := false, false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
			if r == '\'' {
				b.WriteRune('\'')
				continue
			}
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\\' && (inDouble || inSingle):
			escaped = true
		case inDouble:
			if r == '"' {
				inDouble = false
			}
			b.WriteRune(r)
		case inSingle:
			switch r {
			case '\'':
				inSingle = false
				b.WriteRune('"')
			case '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
		case r == '"':
			inDouble = true
			b.WriteRune(r)
		case r == '\'':
			inSingle = true
			b.WriteRune('"')
		default:
			b.WriteRune(r)
		}
	}

	return trailingCommaRe.ReplaceAllString(b.String(), "$1")
}

func canonicalKey(k string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, strings.ToLower(k))
}

// canonicalize re-keys obj by canonicalKey. When two keys collide the one that
// sorts first wins so the result never depends on map iteration order.
func canonicalize(obj map[string]any) map[string]any {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(obj))
	for _, k := range keys {
		ck := canonicalKey(k)
		if _, taken := out[ck]; !taken {
			out[ck] = obj[k]
		}
	}
	return out
}

func mergeFallback(primary, fallback map[string]any) map[string]any {
	out := make(map[string]any, len(primary)+len(fallback))
	for k, v := range fallback {
		out[k] = v
	}
	for k, v := range primary {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func lookup(fields map[string]any, field string) any {
	for _, alias := range fieldAliases[field] {
		if v, ok := fields[alias]; ok && v != nil {
			return v
		}
	}
	return nil
}

func intField(fields map[string]any, field string, required bool) (int, error) {
	v := lookup(fields, field)
	if v == nil {
		if required {
			return 0, &MissingFieldError{Field: field}
		}
		return 0, nil
	}

	f, ok := toNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > maxNutrientValue {
		return 0, &InvalidFieldError{Field: field, Value: v}
	}
	return int(math.Round(f)), nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case string:
		m := numberWithUnit.FindStringSubmatch(strings.TrimSpace(n))
		if m == nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(m[1], 64)
		return f, err == nil
	default:
		return 0, false
	}
}
