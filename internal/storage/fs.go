package storage

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *FSStore) SignedURL(key string) (string, error) {
	p, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String(), nil
}

// resolve keeps keys inside the base dir; uploaded filenames are untrusted.
func (s *FSStore) resolve(key string) (string, error) {
	p := filepath.Join(s.base, filepath.Clean("/"+key))
	if !strings.HasPrefix(p, filepath.Clean(s.base)+string(os.PathSeparator)) {
		return "", errors.New("invalid key")
	}
	return p, nil
}
