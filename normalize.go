package effectdetect

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// fallbackDescription replaces an empty or whitespace-only model description.
const fallbackDescription = "No description was provided for the detected effect."

// record is the normalizer's intermediate form: a taxonomy member, a clamped
// confidence, a non-empty description, and flags for what normalization had
// to change.
type record struct {
	effect        EffectLabel
	confidence    float64
	description   string
	coercedLabel  bool
	lowConfidence bool
}

// normalize turns raw model output into a record that honors every result
// invariant. Structural problems (not JSON, missing or mistyped fields) fail
// with FailMalformedOutput; out-of-range values and unknown labels are
// repaired instead of failed.
func (d *Detector) normalize(raw string) (record, error) {
	clean := cleanModelJSON(raw)
	if len(clean) == 0 || !gjson.ValidBytes(clean) {
		return record{}, newFailure(FailMalformedOutput, "model output is not valid JSON")
	}

	root := gjson.ParseBytes(clean)
	if !root.IsObject() {
		return record{}, newFailure(FailMalformedOutput, "model output is not a JSON object")
	}

	effect := root.Get("effect")
	if !effect.Exists() || effect.Type != gjson.String {
		return record{}, newFailure(FailMalformedOutput, "model output is missing a string %q field", "effect")
	}

	confidence, err := numericField(root, "confidence")
	if err != nil {
		return record{}, err
	}

	description := root.Get("description")
	if !description.Exists() || description.Type != gjson.String {
		return record{}, newFailure(FailMalformedOutput, "model output is missing a string %q field", "description")
	}

	rec := record{confidence: clampConfidence(confidence)}

	rec.effect = EffectLabel(effect.Str)
	if !rec.effect.IsValid() {
		rec.effect = EffectUnknown
		rec.coercedLabel = true
	}

	if rec.confidence < d.cfg.ConfidenceThreshold {
		rec.effect = EffectUnknown
		rec.lowConfidence = true
	}

	rec.description = strings.TrimSpace(description.Str)
	if rec.description == "" {
		rec.description = fallbackDescription
	}

	return rec, nil
}

// numericField reads a field that must carry a number. A string holding a
// parseable number is accepted; anything else is malformed output. NaN is
// rejected because it cannot be clamped into [0, 1].
func numericField(root gjson.Result, key string) (float64, error) {
	v := root.Get(key)
	switch {
	case !v.Exists():
		return 0, newFailure(FailMalformedOutput, "model output is missing a numeric %q field", key)
	case v.Type == gjson.Number:
		if math.IsNaN(v.Num) {
			return 0, newFailure(FailMalformedOutput, "model output field %q is not a number", key)
		}
		return v.Num, nil
	case v.Type == gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, newFailure(FailMalformedOutput, "model output field %q is not a number", key)
		}
		if math.IsNaN(f) {
			return 0, newFailure(FailMalformedOutput, "model output field %q is not a number", key)
		}
		return f, nil
	default:
		return 0, newFailure(FailMalformedOutput, "model output field %q is not a number", key)
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// cleanModelJSON strips the markdown code fences models often wrap around
// JSON answers, leaving the payload untouched otherwise.
func cleanModelJSON(raw string) []byte {
	out := bytes.TrimSpace([]byte(raw))
	if bytes.HasPrefix(out, []byte("```")) {
		if idx := bytes.IndexByte(out, '\n'); idx != -1 {
			out = out[idx+1:]
		}
		out = bytes.TrimSuffix(bytes.TrimSpace(out), []byte("```"))
		out = bytes.TrimSpace(out)
	}
	return out
}
