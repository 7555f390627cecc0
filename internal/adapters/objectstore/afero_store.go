// Package objectstore implements the staged-file store on afero filesystems
// and Google Cloud Storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	"github.com/spf13/afero"
)

// AferoObjectStore stores objects as files. Object paths map to paths below
// the filesystem root.
type AferoObjectStore struct {
	fs afero.Fs
}

var _ repositories.ObjectStore = (*AferoObjectStore)(nil)

// NewAferoObjectStore wraps an existing filesystem.
func NewAferoObjectStore(fs afero.Fs) *AferoObjectStore {
	return &AferoObjectStore{fs: fs}
}

// NewLocalObjectStore stores objects under root on the OS filesystem.
func NewLocalObjectStore(root string) (*AferoObjectStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create object store root %s: %w", root, err)
	}
	return NewAferoObjectStore(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

// NewMemoryObjectStore keeps objects in memory.
func NewMemoryObjectStore() *AferoObjectStore {
	return NewAferoObjectStore(afero.NewMemMapFs())
}

func fsPath(objectPath string) string {
	return "/" + strings.TrimPrefix(path.Clean("/"+objectPath), "/")
}

func (s *AferoObjectStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := fsPath(objectPath)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return apperrors.NewStorageError("create directory for "+objectPath, err)
	}
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return apperrors.NewStorageError("write "+objectPath, err)
	}
	return nil
}

func (s *AferoObjectStore) Get(ctx context.Context, objectPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, fsPath(objectPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingFile, objectPath)
		}
		return nil, apperrors.NewStorageError("read "+objectPath, err)
	}
	return data, nil
}

func (s *AferoObjectStore) List(ctx context.Context, prefix string) ([]domain.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := prefix
	if !strings.HasSuffix(prefix, "/") {
		dir = path.Dir(prefix)
	}
	root := fsPath(dir)
	if exists, err := afero.DirExists(s.fs, root); err != nil {
		return nil, apperrors.NewStorageError("stat "+dir, err)
	} else if !exists {
		return []domain.ObjectInfo{}, nil
	}

	objects := make([]domain.ObjectInfo, 0)
	err := afero.Walk(s.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		key := strings.TrimPrefix(filepath.ToSlash(p), "/")
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		objects = append(objects, domain.ObjectInfo{Path: key, Size: info.Size(), Updated: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStorageError("list "+prefix, err)
	}
	sortNewestFirst(objects)
	return objects, nil
}

func (s *AferoObjectStore) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Remove(fsPath(objectPath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.NewStorageError("delete "+objectPath, err)
	}
	return nil
}

// sortNewestFirst orders by update time descending, then path descending so
// names carrying a later timestamp win ties.
func sortNewestFirst(objects []domain.ObjectInfo) {
	sort.SliceStable(objects, func(i, j int) bool {
		if !objects[i].Updated.Equal(objects[j].Updated) {
			return objects[i].Updated.After(objects[j].Updated)
		}
		return objects[i].Path > objects[j].Path
	})
}
