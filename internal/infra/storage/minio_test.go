package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/vendor-voice/internal/domain/analysis"
)

func TestObjectKey(t *testing.T) {
	a := objectKey("attachments/", "Scan.PDF")
	b := objectKey("attachments/", "Scan.PDF")

	assert.True(t, strings.HasPrefix(a, "attachments/"))
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(objectKey("", "noext"), ".pdf"))
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"path style", "http://minio:9000/vv/attachments/abc.pdf?X-Amz-Signature=x", "attachments/abc.pdf"},
		{"virtual host", "https://vv.s3.amazonaws.com/abc.pdf?X-Amz-Signature=x", "abc.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := keyFromURL("vv", analysis.FileRef{ID: tt.url, Kind: analysis.RefURL})
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}

	_, err := keyFromURL("vv", analysis.FileRef{ID: "file-1", Kind: analysis.RefFileID})
	assert.Error(t, err)
	_, err = keyFromURL("vv", analysis.FileRef{ID: "http://minio:9000/vv/", Kind: analysis.RefURL})
	assert.Error(t, err)
}
