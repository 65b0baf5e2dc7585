package arbiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenerated(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Verdict
	}{
		{
			name: "clean json only",
			text: `{"verdict": "FP", "confidence": 0.8, "reason": "placeholder value"}`,
			want: Verdict{Verdict: "FP", Confidence: 0.8, Reason: "placeholder value"},
		},
		{
			name: "narrative around json",
			text: "Sure! Here is my analysis.\n{\"verdict\": \"TP\", \"confidence\": 0.9, \"reason\": \"real key\"}\nHope that helps.",
			want: Verdict{Verdict: "TP", Confidence: 0.9, Reason: "real key"},
		},
		{
			name: "two blocks, last wins",
			text: `Example: {"verdict": "TP", "confidence": 0.1, "reason": "echoed example"}` +
				` Final answer: {"verdict": "FP", "confidence": 0.7, "reason": "test fixture"}`,
			want: Verdict{Verdict: "FP", Confidence: 0.7, Reason: "test fixture"},
		},
		{
			name: "keys in any order",
			text: `{"reason": "dummy", "confidence": 0.6, "verdict": "FP"}`,
			want: Verdict{Verdict: "FP", Confidence: 0.6, Reason: "dummy"},
		},
		{
			name: "no json block",
			text: "I think this is probably a real secret.",
			want: Fallback(ReasonNoJSONBlock),
		},
		{
			name: "unrelated json object ignored",
			text: `{"foo": 1} no verdict anywhere`,
			want: Fallback(ReasonNoJSONBlock),
		},
		{
			name: "invalid json block",
			text: `{"verdict": "FP", "confidence": oops, "reason": }`,
			want: Fallback(ReasonInvalidJSONBlock),
		},
		{
			name: "missing verdict defaults to TP",
			text: `{"verdict": null, "confidence": 0.3, "reason": "unsure"}`,
			want: Verdict{Verdict: "TP", Confidence: 0.3, Reason: "unsure"},
		},
		{
			name: "invalid confidence defaults to 0.5",
			text: `{"verdict": "FP", "confidence": "high", "reason": "eh"}`,
			want: Verdict{Verdict: "FP", Confidence: 0.5, Reason: "eh"},
		},
		{
			name: "string confidence parsed",
			text: `{"verdict": "FP", "confidence": "0.75", "reason": "quoted"}`,
			want: Verdict{Verdict: "FP", Confidence: 0.75, Reason: "quoted"},
		},
		{
			name: "confidence clamped",
			text: `{"verdict": "TP", "confidence": 3.0, "reason": "overshoot"}`,
			want: Verdict{Verdict: "TP", Confidence: 1.0, Reason: "overshoot"},
		},
		{
			name: "unknown verdict value defaults to TP",
			text: `{"verdict": "MAYBE", "confidence": 0.4, "reason": "odd"}`,
			want: Verdict{Verdict: "TP", Confidence: 0.4, Reason: "odd"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseGenerated(tc.text))
		})
	}
}

func TestParseResponse_Envelopes(t *testing.T) {
	inner := `{"verdict": "FP", "confidence": 0.8, "reason": "fixture"}`
	want := Verdict{Verdict: "FP", Confidence: 0.8, Reason: "fixture"}

	tests := []struct {
		name string
		body string
		want Verdict
	}{
		{
			name: "list shape",
			body: `[{"generated_text": ` + quote(inner) + `}]`,
			want: want,
		},
		{
			name: "object generated_text",
			body: `{"generated_text": ` + quote(inner) + `}`,
			want: want,
		},
		{
			name: "object output_text",
			body: `{"output_text": ` + quote(inner) + `}`,
			want: want,
		},
		{
			name: "not json",
			body: `<html>bad gateway</html>`,
			want: Fallback(ReasonInvalidResponse),
		},
		{
			name: "empty list",
			body: `[]`,
			want: Fallback(ReasonUnexpectedStructure),
		},
		{
			name: "object without text fields",
			body: `{"status": "ok"}`,
			want: Fallback(ReasonUnexpectedStructure),
		},
		{
			name: "scalar",
			body: `42`,
			want: Fallback(ReasonUnexpectedStructure),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseResponse([]byte(tc.body)))
		})
	}
}

func quote(s string) string {
	b := make([]byte, 0, len(s)+2)
	b = append(b, '"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			b = append(b, '\\', '"')
		case '\\':
			b = append(b, '\\', '\\')
		default:
			b = append(b, s[i])
		}
	}
	return string(append(b, '"'))
}

func TestClassify_TokenMissing(t *testing.T) {
	c := NewClient("http://localhost:1", "", time.Second)
	v := c.Classify(context.Background(), "secret", "main.go", "ctx")
	assert.Equal(t, Fallback(ReasonTokenMissing), v)
}

func TestClassify_TransportError(t *testing.T) {
	// Nothing listens here; the call must degrade, not propagate.
	c := NewClient("http://127.0.0.1:1", "token", time.Second)
	v := c.Classify(context.Background(), "secret", "main.go", "ctx")
	assert.Equal(t, VerdictTP, v.Verdict)
	assert.Equal(t, 0.5, v.Confidence)
	assert.Contains(t, v.Reason, "llm http error")
}

func TestClassify_EndToEnd(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"generated_text": "{\"verdict\": \"FP\", \"confidence\": 0.9, \"reason\": \"sample\"}"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token", time.Second)
	v := c.Classify(context.Background(), "secret", "main.go", "ctx")

	require.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, Verdict{Verdict: "FP", Confidence: 0.9, Reason: "sample"}, v)
}

func TestClassify_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token", time.Second)
	v := c.Classify(context.Background(), "secret", "main.go", "ctx")
	assert.Equal(t, VerdictTP, v.Verdict)
	assert.Contains(t, v.Reason, "status 503")
}

func TestClassify_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token", 20*time.Millisecond)
	start := time.Now()
	v := c.Classify(context.Background(), "secret", "main.go", "ctx")
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, VerdictTP, v.Verdict)
	assert.Contains(t, v.Reason, "llm http error")
}
