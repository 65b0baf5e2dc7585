package arbiter

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// blockRe matches balanced single-level JSON objects inside narrative text.
var blockRe = regexp.MustCompile(`\{[^{}]*\}`)

// parseResponse unwraps the provider envelope and extracts a Verdict from
// the generated text. Providers disagree on envelope shape, so known
// shapes are tried in order; each failure maps to a named fallback.
func parseResponse(body []byte) Verdict {
	text, reason := generatedText(body)
	if reason != "" {
		return Fallback(reason)
	}
	return parseGenerated(text)
}

// generatedText pulls the model output out of the response envelope.
// Shape A is a list of objects with "generated_text"; shape B is a single
// object with "generated_text" or "output_text".
func generatedText(body []byte) (string, string) {
	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", ReasonInvalidResponse
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "", ReasonUnexpectedStructure
		}
		if s, ok := list[0]["generated_text"].(string); ok {
			return s, ""
		}
		return "", ReasonUnexpectedStructure
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if s, ok := obj["generated_text"].(string); ok && s != "" {
			return s, ""
		}
		if s, ok := obj["output_text"].(string); ok && s != "" {
			return s, ""
		}
		return "", ReasonUnexpectedStructure
	}

	return "", ReasonUnexpectedStructure
}

// parseGenerated scans the generated text for JSON objects carrying the
// three expected keys and parses the last match. Narrative content around
// (and echoed examples before) the final answer are ignored.
func parseGenerated(text string) Verdict {
	var candidate string
	for _, block := range blockRe.FindAllString(text, -1) {
		if strings.Contains(block, `"verdict"`) &&
			strings.Contains(block, `"confidence"`) &&
			strings.Contains(block, `"reason"`) {
			candidate = block
		}
	}
	if candidate == "" {
		return Fallback(ReasonNoJSONBlock)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return Fallback(ReasonInvalidJSONBlock)
	}

	v := Verdict{
		Verdict:    VerdictTP,
		Confidence: 0.5,
	}
	if s, ok := parsed["verdict"].(string); ok {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case VerdictTP:
			v.Verdict = VerdictTP
		case VerdictFP:
			v.Verdict = VerdictFP
		}
	}
	if conf, ok := parseConfidence(parsed["confidence"]); ok {
		v.Confidence = clamp01(conf)
	}
	if s, ok := parsed["reason"].(string); ok {
		v.Reason = s
	}
	return v
}

func parseConfidence(raw any) (float64, bool) {
	switch c := raw.(type) {
	case float64:
		return c, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(c), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
