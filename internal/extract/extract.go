// Package extract calls the generative-AI endpoint to pull structured
// questions out of a PDF. One call per attempt, up to three attempts with a
// fixed backoff; the response payload is validated strictly and never
// defaulted.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"paperbank/internal/model"
)

const (
	maxAttempts  = 3
	retryBackoff = 2 * time.Second

	// Truncation limits for diagnostic excerpts carried in errors.
	bodyExcerptLen = 100
	rawExcerptLen  = 50
)

const systemInstruction = "You are a specialized question extraction AI. " +
	"Analyze the provided PDF file data. Your task is to extract the **Subject** and **Exam Year** " +
	"from the document, and then extract all distinct questions and their associated marks (if present). " +
	"Respond ONLY with a clean JSON object structure. DO NOT INCLUDE ANY INTRODUCTORY OR EXPLANATORY TEXT. " +
	"The structure must strictly be an OBJECT with 'subject', 'exam_year', and an array of 'questions'. " +
	"Be precise and concise."

const userInstruction = "Extract questions, subject, and year from this past paper. Only process PDF files."

// TransportError reports that the AI endpoint never returned a success
// status within the retry envelope.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("AI extraction failed after retries: status %d: %s", e.StatusCode, e.Body)
}

// MalformedOutputError reports that the AI returned content that does not
// parse or validate against the extraction schema.
type MalformedOutputError struct {
	Snippet string
	Err     error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("AI returned malformed data: %v (raw: %s)", e.Err, e.Snippet)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// ErrEmptyContent is returned when the response envelope carries no text.
var ErrEmptyContent = errors.New("AI did not return a content block")

// Client calls the AI endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	backoff    time.Duration
}

// New creates a Client for a generateContent endpoint URL. The API key is
// appended as a query parameter on each request.
func New(endpoint, apiKey string) *Client {
	return &Client{
		// No overall timeout: extraction legitimately runs tens of
		// seconds. Callers cancel through ctx.
		httpClient: &http.Client{},
		endpoint:   endpoint,
		apiKey:     apiKey,
		backoff:    retryBackoff,
	}
}

// Encode converts raw file bytes to the text-safe transport form carried
// inside the request payload.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Extract encodes the file bytes and asks the AI endpoint for the
// structured result. mimeType must already be validated by the caller.
func (c *Client) Extract(ctx context.Context, data []byte, mimeType string) (*model.ExtractionResult, error) {
	return c.ExtractEncoded(ctx, Encode(data), mimeType)
}

// ExtractEncoded sends an already-encoded payload. The upload pipeline
// encodes during its conversion phase and calls this form directly.
func (c *Client) ExtractEncoded(ctx context.Context, base64Data, mimeType string) (*model.ExtractionResult, error) {
	payload, err := json.Marshal(buildRequest(base64Data, mimeType))
	if err != nil {
		return nil, fmt.Errorf("marshal extraction request: %w", err)
	}

	var lastStatus int
	var lastBody string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build extraction request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call AI endpoint: %w", err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read AI response: %w", readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return parseResponse(body)
		}

		lastStatus = resp.StatusCode
		lastBody = truncate(string(body), bodyExcerptLen)
		slog.Warn("AI endpoint returned non-success status",
			"attempt", attempt, "status", resp.StatusCode)

		if attempt < maxAttempts {
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, &TransportError{StatusCode: lastStatus, Body: lastBody}
}

// geminiRequest mirrors the generateContent payload shape.
type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction geminiContent   `json:"systemInstruction"`
	GenerationConfig  generationCfg   `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationCfg struct {
	ResponseMIMEType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

func buildRequest(base64Data, mimeType string) geminiRequest {
	return geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: userInstruction},
				{InlineData: &inlineData{MimeType: mimeType, Data: base64Data}},
			},
		}},
		SystemInstruction: geminiContent{
			Parts: []geminiPart{{Text: systemInstruction}},
		},
		GenerationConfig: generationCfg{
			ResponseMIMEType: "application/json",
			ResponseSchema:   extractionSchema(),
		},
	}
}

// extractionSchema is the strict output schema sent with every request:
// an object with subject, exam_year, and a list of {question, marks}.
func extractionSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"subject":   map[string]any{"type": "STRING"},
			"exam_year": map[string]any{"type": "INTEGER"},
			"questions": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"question": map[string]any{"type": "STRING"},
						"marks":    map[string]any{"type": "INTEGER"},
					},
					"required": []string{"question", "marks"},
				},
			},
		},
		"required": []string{"subject", "exam_year", "questions"},
	}
}

// Response envelope: candidates[0].content.parts[0].text holds the JSON,
// possibly wrapped in markdown fences.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// rawResult uses pointers so missing required fields are detectable instead
// of silently zeroed.
type rawResult struct {
	Subject   *string       `json:"subject"`
	ExamYear  *int          `json:"exam_year"`
	Questions []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	Question *string `json:"question"`
	Marks    *int    `json:"marks"`
}

func parseResponse(body []byte) (*model.ExtractionResult, error) {
	var envelope geminiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &MalformedOutputError{Snippet: truncate(string(body), rawExcerptLen), Err: err}
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyContent
	}
	text := envelope.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}

	cleaned := stripFences(text)
	slog.Debug("AI extraction output", "raw", cleaned)

	var raw rawResult
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &MalformedOutputError{Snippet: truncate(cleaned, rawExcerptLen), Err: err}
	}
	result, err := validate(raw)
	if err != nil {
		return nil, &MalformedOutputError{Snippet: truncate(cleaned, rawExcerptLen), Err: err}
	}
	return result, nil
}

func validate(raw rawResult) (*model.ExtractionResult, error) {
	if raw.Subject == nil || strings.TrimSpace(*raw.Subject) == "" {
		return nil, fmt.Errorf("missing required field subject")
	}
	if raw.ExamYear == nil {
		return nil, fmt.Errorf("missing required field exam_year")
	}
	result := &model.ExtractionResult{
		Subject:  *raw.Subject,
		ExamYear: *raw.ExamYear,
	}
	for i, q := range raw.Questions {
		if q.Question == nil || strings.TrimSpace(*q.Question) == "" {
			return nil, fmt.Errorf("question %d missing required field question", i+1)
		}
		if q.Marks == nil {
			return nil, fmt.Errorf("question %d missing required field marks", i+1)
		}
		if *q.Marks < 0 {
			return nil, fmt.Errorf("question %d has negative marks", i+1)
		}
		result.Questions = append(result.Questions, model.Question{
			Question: *q.Question,
			Marks:    *q.Marks,
		})
	}
	return result, nil
}

// stripFences removes markdown code-fence markers some models wrap around
// JSON output.
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
