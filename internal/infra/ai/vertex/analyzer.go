package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
	"github.com/bryanwahyu/vendor-voice/internal/infra/ai/prompt"
)

// Analyzer asks Gemini about the staged PDFs. The configured model is built
// once and only read afterwards, so one Analyzer serves concurrent requests.
type Analyzer struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewAnalyzer(ctx context.Context, opts Options) (*Analyzer, error) {
	if opts.ProjectID == "" || opts.Region == "" {
		return nil, errors.New("vertex: projectID and region cannot be empty")
	}
	name := opts.Model
	if name == "" {
		name = DefaultModel
	}

	client, err := genai.NewClient(ctx, opts.ProjectID, opts.Region, clientOptions(opts.CredentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := client.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt.GetSystemPrompt())},
	}
	model.SetTemperature(opts.Temperature)

	return &Analyzer{client: client, model: model, name: name}, nil
}

func (a *Analyzer) Model() string { return a.name }

func (a *Analyzer) Analyze(ctx context.Context, req analysis.AnalysisRequest) (string, error) {
	parts, err := contentParts(req)
	if err != nil {
		return "", err
	}
	resp, err := a.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}

func (a *Analyzer) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// contentParts builds the user turn: the prompt, then one file per ref.
func contentParts(req analysis.AnalysisRequest) ([]genai.Part, error) {
	parts := make([]genai.Part, 0, len(req.Refs)+1)
	parts = append(parts, genai.Text(req.Prompt))
	for _, ref := range req.Refs {
		if ref.Kind != analysis.RefGCSURI && ref.Kind != analysis.RefURL {
			return nil, fmt.Errorf("vertex: unsupported file reference kind %q", ref.Kind)
		}
		parts = append(parts, genai.FileData{MIMEType: analysis.MediaTypePDF, FileURI: ref.ID})
	}
	return parts, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}
