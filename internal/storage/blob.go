// Package storage provides blob storage for uploaded lecture PDFs.
package storage

import (
	"errors"
	"io"
)

// ErrNotFound is returned when a key has no stored blob.
var ErrNotFound = errors.New("blob not found")

// BlobStore stores uploaded documents keyed by path-like strings
// (e.g. "pdfs/<user>/<uuid>.pdf").
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
	Size(key string) (int64, error)
}
