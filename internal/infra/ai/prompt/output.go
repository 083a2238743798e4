package prompt

import (
	"encoding/json"
	"strings"
)

// responseBody is the subset of a Responses API reply we read.
type responseBody struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// ResponseText pulls the answer out of a raw Responses API body. It prefers
// the aggregated output_text, then the concatenated text parts of every
// output message, and falls back to the raw body so nothing is lost.
func ResponseText(body []byte) string {
	var rb responseBody
	if err := json.Unmarshal(body, &rb); err != nil {
		return trimSpace(string(body))
	}
	if t := trimSpace(rb.OutputText); t != "" {
		return t
	}

	parts := make([]string, 0, len(rb.Output))
	for _, item := range rb.Output {
		for _, c := range item.Content {
			if t := trimSpace(c.Text); t != "" {
				parts = append(parts, t)
			}
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	return trimSpace(string(body))
}

func trimSpace(s string) string { return strings.TrimSpace(s) }
