package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MKhiriev/go-proc-box/internal/logger"
)

const (
	fsDataDir = "data"
	fsMetaDir = "meta"
	fsTempDir = "tmp"
	fsMetaExt = ".json"
)

// fsBlobMeta is the side-car document stored next to every blob.
type fsBlobMeta struct {
	ContentType string `json:"content_type"`
}

// fsBlobStorage keeps every container in its own directory under root:
//
//	<root>/<container>/data/<key>       blob content
//	<root>/<container>/meta/<key>.json  side-car metadata
//	<root>/<container>/tmp/             staging area for atomic writes
type fsBlobStorage struct {
	root   string
	logger *logger.Logger
}

// NewFSBlobStorage constructs a filesystem [BlobStorage] rooted at dir.
func NewFSBlobStorage(dir string, logger *logger.Logger) (BlobStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating blob root %s: %w", dir, err)
	}

	logger.Debug().Str("dir", dir).Msg("creating filesystem blob storage")
	return &fsBlobStorage{root: dir, logger: logger}, nil
}

func (s *fsBlobStorage) EnsureContainer(_ context.Context, container string) error {
	if !validContainer(container) {
		return ErrInvalidBlobKey
	}

	for _, sub := range []string{fsDataDir, fsMetaDir, fsTempDir} {
		if err := os.MkdirAll(filepath.Join(s.root, container, sub), 0o755); err != nil {
			return fmt.Errorf("error creating container %s: %w", container, err)
		}
	}
	return nil
}

func (s *fsBlobStorage) Put(ctx context.Context, container, key, contentType string, content io.ReadSeeker) error {
	dataPath, metaPath, err := s.paths(container, key)
	if err != nil {
		return err
	}
	if err = s.EnsureContainer(ctx, container); err != nil {
		return err
	}

	if _, err = content.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("error rewinding blob content: %w", err)
	}

	if err = s.writeAtomic(container, dataPath, content); err != nil {
		return err
	}

	meta, err := json.Marshal(fsBlobMeta{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("error encoding blob metadata: %w", err)
	}
	if err = s.writeAtomic(container, metaPath, strings.NewReader(string(meta))); err != nil {
		return err
	}

	logger.FromContext(ctx).Debug().Str("container", container).Str("key", key).Msg("blob stored")
	return nil
}

// writeAtomic stages r in the container's tmp directory and renames it into
// place, so readers never observe a partially written file.
func (s *fsBlobStorage) writeAtomic(container, dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("error creating blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, container, fsTempDir), "blob-*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error writing blob: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("error closing temp file: %w", err)
	}

	if err = os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("error moving blob into place: %w", err)
	}
	return nil
}

func (s *fsBlobStorage) Get(_ context.Context, container, key string) ([]byte, error) {
	dataPath, _, err := s.paths(container, key)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading blob: %w", err)
	}
	return content, nil
}

func (s *fsBlobStorage) Delete(ctx context.Context, container, key string) (bool, error) {
	dataPath, metaPath, err := s.paths(container, key)
	if err != nil {
		return false, err
	}

	err = os.Remove(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error deleting blob: %w", err)
	}

	if err = os.Remove(metaPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("orphaned blob metadata")
	}
	return true, nil
}

func (s *fsBlobStorage) List(_ context.Context, container, prefix string) ([]BlobInfo, error) {
	if !validContainer(container) {
		return nil, ErrInvalidBlobKey
	}

	dataRoot := filepath.Join(s.root, container, fsDataDir)
	infos := make([]BlobInfo, 0)

	err := filepath.WalkDir(dataRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == dataRoot {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dataRoot, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}

		infos = append(infos, BlobInfo{
			Container:   container,
			Key:         key,
			ContentType: s.readContentType(container, key),
			Size:        fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing container %s: %w", container, err)
	}

	slices.SortFunc(infos, func(a, b BlobInfo) int { return strings.Compare(a.Key, b.Key) })
	return infos, nil
}

func (s *fsBlobStorage) readContentType(container, key string) string {
	_, metaPath, err := s.paths(container, key)
	if err != nil {
		return ""
	}

	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return ""
	}

	var meta fsBlobMeta
	if err = json.Unmarshal(raw, &meta); err != nil {
		return ""
	}
	return meta.ContentType
}

func (s *fsBlobStorage) paths(container, key string) (dataPath, metaPath string, err error) {
	if !validContainer(container) || !validKey(key) {
		return "", "", ErrInvalidBlobKey
	}

	native := filepath.FromSlash(key)
	dataPath = filepath.Join(s.root, container, fsDataDir, native)
	metaPath = filepath.Join(s.root, container, fsMetaDir, native+fsMetaExt)
	return dataPath, metaPath, nil
}

func validContainer(container string) bool {
	return container != "" && !strings.ContainsAny(container, `/\`) && filepath.IsLocal(container)
}

// validKey accepts relative slash-separated keys that stay inside their
// container.
func validKey(key string) bool {
	if key == "" || strings.HasSuffix(key, "/") || strings.Contains(key, `\`) {
		return false
	}
	return path.Clean(key) == key && filepath.IsLocal(filepath.FromSlash(key))
}
