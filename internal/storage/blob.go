package storage

import "io"

// BlobStore holds uploaded report PDFs. Keys are portal-chosen paths like
// "uploads/1712345678-report.pdf", never raw client filenames.
type BlobStore interface {
	// Put writes the blob and returns its canonical key.
	Put(key string, r io.Reader) (string, error)
	Get(key string) (io.ReadCloser, error)
	// SignedURL returns a fetchable URL for the key. FSStore yields a
	// file:// URL for local development.
	SignedURL(key string) (string, error)
}
