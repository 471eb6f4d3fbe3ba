package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
)

func TestValidateMultipartConfig(t *testing.T) {
	valid := artifacttypes.DefaultMultipartConfig()
	small := valid
	small.ChunkSize = 1024

	tests := []struct {
		name     string
		cfg      artifacttypes.MultipartConfig
		engaged  bool
		wantErr  error
		wantNone bool
	}{
		{"defaults", valid, true, nil, true},
		{"small_chunk_not_engaged", small, false, nil, true},
		{"small_chunk_engaged", small, true, errors.ErrChunkTooSmall, false},
		{"zero_chunk", artifacttypes.MultipartConfig{MaxParallelParts: 1}, false, errors.ErrInvalidConfig, false},
		{
			"zero_parallel",
			artifacttypes.MultipartConfig{ChunkSize: artifacttypes.MinChunkSize},
			true,
			errors.ErrInvalidConfig,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMultipartConfig(tt.cfg, tt.engaged)
			if tt.wantNone {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.IsConfiguration(err))
		})
	}
}

func TestValidateErrorPolicy(t *testing.T) {
	assert.NoError(t, ValidateErrorPolicy(artifacttypes.ErrorRaise))
	assert.NoError(t, ValidateErrorPolicy(artifacttypes.ErrorIgnore))
	assert.Error(t, ValidateErrorPolicy("skip"))
}

func TestValidateRemotePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{"simple", "data/report.csv", false},
		{"leading_slash", "/data/report.csv", false},
		{"dots_in_name", "data/v1..2.csv", false},
		{"empty", "", true},
		{"traversal", "data/../secret", true},
		{"control", "data/\x00file", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRemotePath(tt.path)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateServerURL(t *testing.T) {
	assert.NoError(t, ValidateServerURL("https://hypha.aicell.io"))
	assert.NoError(t, ValidateServerURL("http://localhost:9527"))
	assert.Error(t, ValidateServerURL(""))
	assert.Error(t, ValidateServerURL("hypha.aicell.io"))
	assert.Error(t, ValidateServerURL("ftp://hypha.aicell.io"))
}

func TestParseArtifactID(t *testing.T) {
	tests := []struct {
		name          string
		artifactID    string
		workspace     string
		wantWorkspace string
		wantAlias     string
		wantErr       error
	}{
		{"qualified", "ws-1/data", "", "ws-1", "data", nil},
		{"qualified_matching", "ws-1/data", "ws-1", "ws-1", "data", nil},
		{"separate_workspace", "data", "ws-1", "ws-1", "data", nil},
		{"mismatch", "ws-1/data", "ws-2", "", "", errors.ErrWorkspaceMismatch},
		{"missing_workspace", "data", "", "", "", errors.ErrInvalidConfig},
		{"empty", "", "ws-1", "", "", errors.ErrInvalidConfig},
		{"too_many_segments", "a/b/c", "", "", "", errors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, alias, err := ParseArtifactID(tt.artifactID, tt.workspace)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWorkspace, ws)
			assert.Equal(t, tt.wantAlias, alias)
		})
	}
}
