package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"kestrel/internal/project"
)

// Disk хранит артефакты по ключу сборки (hash исходника и опций).
// Safe for concurrent use.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

// Open returns a cache rooted at dir, creating it when needed.
func Open(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{dir: dir}, nil
}

// Dir reports the cache root.
func (c *Disk) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Disk) pathFor(key project.Digest) string {
	hexKey := key.String()
	// подкаталог по первым двум символам, чтобы не раздувать один каталог
	return filepath.Join(c.dir, "art", hexKey[:2], hexKey+".mp")
}

// Put writes a under its key. The file is replaced atomically.
func (c *Disk) Put(a *Artifact) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(a.Key())
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// после успешного Rename временного файла уже нет
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err := WriteArtifact(f, a); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads the artifact stored under key. A missing entry, or one with a
// different schema, is a miss rather than an error.
func (c *Disk) Get(key project.Digest) (*Artifact, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	a, err := ReadArtifact(f)
	if err != nil {
		if errors.Is(err, ErrSchemaMismatch) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if a.Key() != key {
		return nil, false, nil
	}
	return a, true, nil
}

// Len counts stored artifacts.
func (c *Disk) Len() (int, error) {
	if c == nil {
		return 0, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	err := filepath.WalkDir(filepath.Join(c.dir, "art"), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".mp") {
			n++
		}
		return nil
	})
	return n, err
}

// DropAll removes every artifact. The cache stays usable.
func (c *Disk) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(filepath.Join(c.dir, "art")); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
