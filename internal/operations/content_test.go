package operations

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aicell-lab/hypha-artifact/errors"
)

func TestContentType(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want string
	}{
		{"png_sniffed", "image", []byte("\x89PNG\r\n\x1a\n"), "image/png"},
		{"json_by_content", "data.bin", []byte(`{"a": 1}`), "application/json"},
		{"empty_uses_extension", "page.html", nil, "text/html; charset=utf-8"},
		{"unknown", "blob", nil, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentType(tt.file, tt.data))
		})
	}
}

func TestLocalError(t *testing.T) {
	err := LocalError("put", "/missing", fmt.Errorf("open: %w", fs.ErrNotExist))
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "/missing")

	err = LocalError("put", "/dir", fmt.Errorf("is a directory"))
	assert.True(t, errors.IsConfiguration(err))
}
