package core

import (
	"context"
	"io"
)

// UploadedFile is the metadata returned by the object-storage service for an
// uploaded file. The core passes these values through untouched; no integrity
// verification is performed on them.
type UploadedFile struct {
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
	PublicID string `json:"publicId"`
}

// FileStorage is any service that can store opaque files and serve them back
// by URL.
type FileStorage interface {
	Upload(ctx context.Context, name, contentType string, size int64, r io.Reader) (UploadedFile, error)
	Delete(ctx context.Context, publicID string) error
}
