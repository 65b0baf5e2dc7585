package arbiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client talks to an external text-generation endpoint and parses its
// free-form output into a Verdict.
type Client struct {
	url              string
	token            string
	client           *http.Client
	maxResponseBytes int64
}

// NewClient creates an arbiter client. The timeout bounds every call; a
// hung endpoint maps to the same fallback path as a transport failure.
func NewClient(url, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:              url,
		token:            token,
		maxResponseBytes: 1 * 1024 * 1024,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type generateRequest struct {
	Inputs string `json:"inputs"`
}

// Classify asks the judge whether the candidate is a real secret (TP) or
// a test placeholder (FP). It never fails: every error path returns a
// TP-biased fallback with a stable reason string.
func (c *Client) Classify(ctx context.Context, secret, filePath, snippet string) Verdict {
	if c.token == "" {
		log.Printf("arbiter: no API token configured, using fallback verdict")
		return Fallback(ReasonTokenMissing)
	}

	body, err := json.Marshal(generateRequest{Inputs: buildPrompt(secret, filePath, snippet)})
	if err != nil {
		return Fallback(fmt.Sprintf("llm http error: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Fallback(fmt.Sprintf("llm http error: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("arbiter: transport error: %v", err)
		return Fallback(fmt.Sprintf("llm http error: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes))
	if err != nil {
		return Fallback(fmt.Sprintf("llm http error: %v", err))
	}
	if resp.StatusCode >= 400 {
		log.Printf("arbiter: endpoint returned status %d", resp.StatusCode)
		return Fallback(fmt.Sprintf("llm http error: status %d", resp.StatusCode))
	}

	return parseResponse(respBody)
}

// buildPrompt constructs the strict JSON-only instruction for the judge.
func buildPrompt(secret, filePath, snippet string) string {
	return fmt.Sprintf(`You are a JSON-only classifier.

Task: decide if this value is a REAL secret (TP) or a TEST placeholder (FP).

SECRET: %s
FILE: %s
CONTEXT: %s

Return ONLY valid JSON with the following keys:
- "verdict": string, either "TP" or "FP"
- "confidence": float between 0.0 and 1.0
- "reason": short string explanation.

Do not include any extra text, comments, or markdown. Output JSON only.`,
		secret, filePath, snippet)
}

var _ Judge = (*Client)(nil)
