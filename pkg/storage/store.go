// Package storage abstracts the document store holding provenance
// artifacts: the catalog index and the per-run record directories.
//
// Keys are slash-separated paths relative to the store root. The only
// backend shipped today is a local filesystem store (see localfs), but
// nothing in the core depends on that.
package storage

import (
	"context"
	"io"
	"io/ioutil"
)

type errString string

func (e errString) Error() string { return string(e) }

const (
	// ErrNotFound indicates the requested key does not exist in the store
	ErrNotFound errString = "not found"

	// ErrExists indicates an exclusive put hit a pre-existing key
	ErrExists errString = "exists already"
)

const (
	// OverWrite replaces the destination key if present
	OverWrite = true

	// NoOverWrite makes Put fail with ErrExists on a pre-existing key
	NoOverWrite = false
)

// Store implementations know how to read and write whole documents by key.
type Store interface {
	String() string
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, source io.Reader, overWrite bool) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// ReadDocument fetches a whole document from the store.
func ReadDocument(ctx context.Context, store Store, key string) ([]byte, error) {
	rdr, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	return ioutil.ReadAll(rdr)
}
