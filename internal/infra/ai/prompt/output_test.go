package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"output_text wins", `{"output_text":" First attachment shows error 504. ","output":[{"content":[{"text":"ignored"}]}]}`, "First attachment shows error 504."},
		{"concatenated parts", `{"output":[{"type":"reasoning","content":[]},{"type":"message","content":[{"type":"output_text","text":"one"},{"type":"output_text","text":"two"}]}]}`, "one\ntwo"},
		{"raw fallback", `{"id":"resp_1","output":[]}`, `{"id":"resp_1","output":[]}`},
		{"not json", "plain answer", "plain answer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResponseText([]byte(tt.body)))
		})
	}
}
