package s3backend

import (
	stderrors "errors"
	"net/http"

	"github.com/aws/smithy-go"

	"github.com/aicell-lab/hypha-artifact/errors"
)

// S3 error codes that mean the object or upload does not exist
const (
	codeNoSuchKey    = "NoSuchKey"
	codeNotFound     = "NotFound"
	codeNoSuchUpload = "NoSuchUpload"
	codeNoSuchBucket = "NoSuchBucket"
)

// mapError converts an SDK error into a transport error, mapping the
// not-found family of S3 error codes to a 404 status.
func mapError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	status := 0
	var respErr interface{ HTTPStatusCode() int }
	if stderrors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case codeNoSuchKey, codeNotFound, codeNoSuchUpload, codeNoSuchBucket:
			status = http.StatusNotFound
		}
	}

	return errors.NewTransportError(op, status, err).WithPath(path)
}
