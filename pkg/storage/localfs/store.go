// Package localfs implements a filesystem backed document store.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/salazaj/provenance-recorder/pkg/storage"
	"github.com/spf13/afero"
)

// New creates a document store rooted at dir on the given filesystem.
// A nil fs defaults to the OS filesystem.
func New(fs afero.Fs, dir string) storage.Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &localFS{fs: afero.NewBasePathFs(fs, dir), dir: dir}
}

type localFS struct {
	fs  afero.Fs
	dir string
}

func (l *localFS) String() string {
	return "localfs@" + l.dir
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	fi, err := l.fs.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	has, err := l.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, storage.ErrNotFound
	}
	return l.fs.Open(key)
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader, overWrite bool) error {
	if dir := filepath.Dir(key); dir != "" && dir != "." {
		if err := l.fs.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("ensuring directories for %q: %w", key, err)
		}
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overWrite {
		flag = os.O_CREATE | os.O_WRONLY | os.O_EXCL
	}
	target, err := l.fs.OpenFile(key, flag, 0600)
	if err != nil {
		if !overWrite && os.IsExist(err) {
			return storage.ErrExists
		}
		return fmt.Errorf("create document %q: %w", key, err)
	}
	_, err = io.Copy(target, source)
	if err != nil {
		_ = target.Close()
		return fmt.Errorf("write document %q: %w", key, err)
	}
	return target.Close()
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	if err := l.fs.Remove(key); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("removing document %q: %w", key, err)
	}
	return nil
}

func (l *localFS) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := afero.Walk(l.fs, ".", func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info == nil || info.IsDir() {
			return nil
		}
		keys = append(keys, filepath.ToSlash(pth))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
