package testutil

import (
	"context"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
)

// MockService is a mock implementation of the artifact Service for testing.
// It allows customization of each operation through function fields.
type MockService struct {
	ListFilesFunc         func(ctx context.Context, dir, version string) ([]artifacttypes.Entry, error)
	GetFileURLFunc        func(ctx context.Context, path, version string) (string, error)
	PutFileURLFunc        func(ctx context.Context, path string) (string, error)
	RemoveFileFunc        func(ctx context.Context, path string) error
	StartMultipartFunc    func(ctx context.Context, path string, partCount int, downloadWeight float64) (*artifacttypes.MultipartSession, error)
	CompleteMultipartFunc func(ctx context.Context, uploadID string, parts []artifacttypes.CompletedPart) error
}

var _ artifacttypes.Service = (*MockService)(nil)

// ListFiles mocks the list_files operation.
func (m *MockService) ListFiles(ctx context.Context, dir, version string) ([]artifacttypes.Entry, error) {
	if m.ListFilesFunc != nil {
		return m.ListFilesFunc(ctx, dir, version)
	}
	return nil, nil
}

// GetFileURL mocks the get_file operation.
func (m *MockService) GetFileURL(ctx context.Context, path, version string) (string, error) {
	if m.GetFileURLFunc != nil {
		return m.GetFileURLFunc(ctx, path, version)
	}
	return "", nil
}

// PutFileURL mocks the put_file operation.
func (m *MockService) PutFileURL(ctx context.Context, path string) (string, error) {
	if m.PutFileURLFunc != nil {
		return m.PutFileURLFunc(ctx, path)
	}
	return "", nil
}

// RemoveFile mocks the remove_file operation.
func (m *MockService) RemoveFile(ctx context.Context, path string) error {
	if m.RemoveFileFunc != nil {
		return m.RemoveFileFunc(ctx, path)
	}
	return nil
}

// StartMultipart mocks the put_file_start_multipart operation.
func (m *MockService) StartMultipart(
	ctx context.Context,
	path string,
	partCount int,
	downloadWeight float64,
) (*artifacttypes.MultipartSession, error) {
	if m.StartMultipartFunc != nil {
		return m.StartMultipartFunc(ctx, path, partCount, downloadWeight)
	}
	return &artifacttypes.MultipartSession{}, nil
}

// CompleteMultipart mocks the put_file_complete_multipart operation.
func (m *MockService) CompleteMultipart(
	ctx context.Context,
	uploadID string,
	parts []artifacttypes.CompletedPart,
) error {
	if m.CompleteMultipartFunc != nil {
		return m.CompleteMultipartFunc(ctx, uploadID, parts)
	}
	return nil
}

// TreeLister returns a ListFilesFunc serving a fixed directory tree. Keys are
// directory paths without surrounding slashes ("" is the root).
func TreeLister(tree map[string][]artifacttypes.Entry) func(context.Context, string, string) ([]artifacttypes.Entry, error) {
	return func(_ context.Context, dir, _ string) ([]artifacttypes.Entry, error) {
		return tree[clean(dir)], nil
	}
}
