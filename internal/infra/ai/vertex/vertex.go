// Package vertex runs the analysis on Gemini through Vertex AI, with the
// converted PDFs staged in a Cloud Storage bucket.
package vertex

import (
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-1.5-pro"

// Options shared by the Gemini client and the GCS uploader.
type Options struct {
	ProjectID       string
	Region          string
	Model           string
	Temperature     float32
	Bucket          string
	Prefix          string
	CredentialsFile string // empty means application default credentials
}

func clientOptions(credentialsFile string) []option.ClientOption {
	if credentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
}
