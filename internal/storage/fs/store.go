package fs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledgerlens/ledgerlens/internal/storage"
)

// Store keeps objects on the local filesystem under a root directory.
// It backs dev and test profiles where no object storage is available.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create root directory: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	target, err := s.resolve(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("create object directory: %w", err)
	}

	file, err := os.Create(target)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("create object %q: %w", key, err)
	}
	written, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return storage.ObjectInfo{}, fmt.Errorf("write object %q: %w", key, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("stat object %q: %w", key, err)
	}
	return storage.ObjectInfo{Key: path.Clean(key), Size: written, LastModified: info.ModTime()}, nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object %q: %w", key, err)
	}
	return file, nil
}

func (s *Store) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	target, err := s.resolve(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.ObjectInfo{}, storage.ErrObjectNotFound
		}
		return storage.ObjectInfo{}, fmt.Errorf("stat object %q: %w", key, err)
	}
	return storage.ObjectInfo{Key: path.Clean(key), Size: info.Size(), LastModified: info.ModTime()}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	// Keep a trailing slash so "reports/" cannot match a sibling
	// directory like "reports-old/".
	keepSlash := strings.HasSuffix(prefix, "/")
	prefix = strings.TrimPrefix(path.Clean("/"+prefix), "/")
	if prefix != "" && keepSlash {
		prefix += "/"
	}

	var objects []storage.ObjectInfo
	err := filepath.WalkDir(s.root, func(walkPath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, walkPath)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		objects = append(objects, storage.ObjectInfo{Key: key, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects under %q: %w", prefix, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *Store) resolve(key string) (string, error) {
	key = strings.TrimSpace(strings.TrimPrefix(key, "/"))
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}
