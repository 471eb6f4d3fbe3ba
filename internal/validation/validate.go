package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
)

// ValidateMultipartConfig validates multipart settings. The chunk size is only
// checked against the minimum when engaged is true, since a configuration that
// never splits a file cannot violate it.
func ValidateMultipartConfig(cfg artifacttypes.MultipartConfig, engaged bool) error {
	if cfg.ChunkSize <= 0 {
		return errors.NewConfigError("validateMultipart", errors.ErrInvalidConfig).
			WithMessage("chunk size must be positive")
	}
	if engaged && cfg.ChunkSize < artifacttypes.MinChunkSize {
		return errors.NewConfigError("validateMultipart", errors.ErrChunkTooSmall).
			WithMessage(fmt.Sprintf("got %d bytes", cfg.ChunkSize))
	}
	if cfg.Threshold < 0 {
		return errors.NewConfigError("validateMultipart", errors.ErrInvalidConfig).
			WithMessage("threshold cannot be negative")
	}
	if cfg.MaxParallelParts <= 0 {
		return errors.NewConfigError("validateMultipart", errors.ErrInvalidConfig).
			WithMessage("max parallel parts must be positive")
	}
	return nil
}

// ValidateErrorPolicy validates an error policy value.
func ValidateErrorPolicy(policy artifacttypes.ErrorPolicy) error {
	switch policy {
	case artifacttypes.ErrorRaise, artifacttypes.ErrorIgnore:
		return nil
	default:
		return errors.NewConfigError("validateErrorPolicy", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("unknown error policy %q", policy))
	}
}

// ValidateRemotePath validates a path inside the artifact.
func ValidateRemotePath(path string) error {
	if path == "" {
		return errors.NewConfigError("validateRemotePath", errors.ErrInvalidConfig).
			WithMessage("path cannot be empty")
	}
	if hasControlCharacters(path) {
		return errors.NewConfigError("validateRemotePath", errors.ErrInvalidConfig).
			WithPath(path).
			WithMessage("path cannot contain control characters")
	}
	if hasPathTraversal(path) {
		return errors.NewConfigError("validateRemotePath", errors.ErrInvalidConfig).
			WithPath(path).
			WithMessage("path cannot contain parent directory references")
	}
	return nil
}

// ValidateServerURL validates the Hypha server URL.
func ValidateServerURL(serverURL string) error {
	if serverURL == "" {
		return errors.NewConfigError("validateServerURL", errors.ErrInvalidConfig).
			WithMessage("server URL must be provided, e.g. https://hypha.aicell.io")
	}
	u, err := url.Parse(serverURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.NewConfigError("validateServerURL", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("invalid server URL %q", serverURL))
	}
	return nil
}

// ParseArtifactID splits an artifact id into workspace and alias. An id of the
// form "workspace/alias" carries its own workspace, which must agree with the
// explicit one when both are given.
func ParseArtifactID(artifactID, workspace string) (string, string, error) {
	if artifactID == "" {
		return "", "", errors.NewConfigError("parseArtifactID", errors.ErrInvalidConfig).
			WithMessage("artifact id cannot be empty")
	}

	ws, alias, found := strings.Cut(artifactID, "/")
	if !found {
		if workspace == "" {
			return "", "", errors.NewConfigError("parseArtifactID", errors.ErrInvalidConfig).
				WithMessage("workspace must be provided if artifact id does not include it")
		}
		return workspace, artifactID, nil
	}

	if ws == "" || alias == "" || strings.Contains(alias, "/") {
		return "", "", errors.NewConfigError("parseArtifactID", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("malformed artifact id %q", artifactID))
	}
	if workspace != "" && workspace != ws {
		return "", "", errors.NewConfigError("parseArtifactID", errors.ErrWorkspaceMismatch).
			WithMessage(fmt.Sprintf("%s != %s", workspace, ws))
	}
	return ws, alias, nil
}

// hasPathTraversal checks for ".." segments in a slash separated path
func hasPathTraversal(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

// hasControlCharacters checks for control characters in the path
func hasControlCharacters(path string) bool {
	for _, char := range path {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
