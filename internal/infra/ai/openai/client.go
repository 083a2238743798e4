package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
	"github.com/bryanwahyu/vendor-voice/internal/infra/ai/prompt"
)

const (
	DefaultModel   = "gpt-5-mini"
	DefaultBaseURL = "https://api.openai.com/v1"

	purposeUserData = openai.PurposeType("user_data")
	maxErrorBody    = 2048
)

// Options konfigurasi client OpenAI
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// HTTPClient defaults to a plain http.Client; deadlines come from ctx.
	HTTPClient *http.Client
}

// Client uploads PDFs through the Files API and analyzes them through the
// Responses API. One Client is shared by every request; it holds no
// per-request state and is safe for concurrent use.
type Client struct {
	*openai.Client
	model string

	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = hc

	return &Client{
		Client:  openai.NewClientWithConfig(cfg),
		model:   opts.Model,
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		http:    hc,
	}
}

// Upload implementasi analysis.Uploader
func (c *Client) Upload(ctx context.Context, pdfName string, pdf []byte) (analysis.FileRef, error) {
	f, err := c.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    pdfName,
		Bytes:   pdf,
		Purpose: purposeUserData,
	})
	if err != nil {
		return analysis.FileRef{}, fmt.Errorf("openai file upload: %w", err)
	}
	return analysis.FileRef{ID: f.ID, Kind: analysis.RefFileID}, nil
}

func (c *Client) Delete(ctx context.Context, ref analysis.FileRef) error {
	if ref.Kind != analysis.RefFileID {
		return fmt.Errorf("openai: cannot delete %s reference", ref.Kind)
	}
	if err := c.DeleteFile(ctx, ref.ID); err != nil {
		return fmt.Errorf("openai file delete: %w", err)
	}
	return nil
}

func (c *Client) Model() string { return c.model }

type inputPart struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	FileID  string `json:"file_id,omitempty"`
	FileURL string `json:"file_url,omitempty"`
}

type inputMessage struct {
	Role    string      `json:"role"`
	Content []inputPart `json:"content"`
}

type responsesRequest struct {
	Model        string         `json:"model"`
	Instructions string         `json:"instructions"`
	Input        []inputMessage `json:"input"`
}

// buildInput returns the single user message: the prompt text followed by
// one file part per reference, in order.
func buildInput(userPrompt string, refs []analysis.FileRef) ([]inputMessage, error) {
	parts := make([]inputPart, 0, len(refs)+1)
	parts = append(parts, inputPart{Type: "input_text", Text: userPrompt})
	for _, ref := range refs {
		switch ref.Kind {
		case analysis.RefFileID:
			parts = append(parts, inputPart{Type: "input_file", FileID: ref.ID})
		case analysis.RefURL:
			parts = append(parts, inputPart{Type: "input_file", FileURL: ref.ID})
		default:
			return nil, fmt.Errorf("openai: unsupported file reference kind %q", ref.Kind)
		}
	}
	return []inputMessage{{Role: "user", Content: parts}}, nil
}

func (c *Client) Analyze(ctx context.Context, req analysis.AnalysisRequest) (string, error) {
	input, err := buildInput(req.Prompt, req.Refs)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(responsesRequest{
		Model:        c.model,
		Instructions: prompt.GetSystemPrompt(),
		Input:        input,
	})
	if err != nil {
		return "", fmt.Errorf("encode responses request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("responses request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read responses body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return prompt.ResponseText(body), nil
}

// APIError is a non-2xx reply from the Responses endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("responses api: status %d: %s", e.StatusCode, e.Message)
}

func errorMessage(body []byte) string {
	var eb struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	return msg
}
