package operations

import (
	stderrors "errors"
	iofs "io/fs"
	"mime"
	"path"

	"github.com/gabriel-vasile/mimetype"

	"github.com/aicell-lab/hypha-artifact/errors"
)

const defaultContentType = "application/octet-stream"

// ContentType determines the content type of data, sniffing the content first
// and falling back to the extension of name.
func ContentType(name string, data []byte) string {
	if len(data) > 0 {
		if mt := mimetype.Detect(data); mt != nil && !mt.Is(defaultContentType) {
			return mt.String()
		}
	}
	if byExt := mime.TypeByExtension(path.Ext(name)); byExt != "" {
		return byExt
	}
	return defaultContentType
}

// LocalError classifies a local filesystem failure. Missing files are
// not-found errors, anything else is a configuration error.
func LocalError(op, name string, err error) *errors.Error {
	kind := errors.KindConfiguration
	if stderrors.Is(err, iofs.ErrNotExist) {
		kind = errors.KindNotFound
	}
	return errors.NewError(op, kind, err).WithPath(name)
}
