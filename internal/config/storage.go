package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"mcpstack/pkg/logging"

	"github.com/gofrs/flock"
)

// ErrStorageInUse is returned by Acquire when another process holds the store.
var ErrStorageInUse = errors.New("storage is in use by another process")

// Storage is a flat directory of named entries grouped by kind.
// In-process access is serialized with a RWMutex; Acquire additionally
// takes a cross-process lock on the directory.
type Storage struct {
	mu   sync.RWMutex
	root string
	ext  string
	lock *flock.Flock
}

// NewStorage creates a store rooted at root whose entries carry extension ext.
func NewStorage(root, ext string) *Storage {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Storage{root: root, ext: ext}
}

// Root returns the directory the store lives in.
func (s *Storage) Root() string {
	return s.root
}

// Acquire takes an exclusive cross-process lock on the store.
func (s *Storage) Acquire() error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", s.root, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lock != nil && s.lock.Locked() {
		return nil
	}

	lock := flock.New(filepath.Join(s.root, ".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", s.root, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", s.root, ErrStorageInUse)
	}
	s.lock = lock
	return nil
}

// Release drops the lock taken by Acquire. Releasing an unlocked store is a no-op.
func (s *Storage) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lock == nil {
		return nil
	}
	err := s.lock.Unlock()
	s.lock = nil
	return err
}

// Save stores data under kind/name.
func (s *Storage) Save(kind, name string, data []byte) error {
	if err := checkKey(kind, name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.entryPath(kind, name)
	if err := WriteFileAtomic(path, data, 0644); err != nil {
		return err
	}
	logging.Debug("Storage", "Saved %s/%s to %s", kind, name, path)
	return nil
}

// Load returns the data stored under kind/name.
func (s *Storage) Load(kind, name string) ([]byte, error) {
	if err := checkKey(kind, name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.entryPath(kind, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("entry %s/%s not found", kind, name)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// Delete removes kind/name.
func (s *Storage) Delete(kind, name string) error {
	if err := checkKey(kind, name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.entryPath(kind, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("entry %s/%s not found", kind, name)
		}
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	logging.Debug("Storage", "Deleted %s/%s", kind, name)
	return nil
}

// List returns the sorted entry names of kind.
func (s *Storage) List(kind string) ([]string, error) {
	if kind == "" {
		return nil, fmt.Errorf("kind cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := filepath.Glob(filepath.Join(s.root, kind, "*"+s.ext))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		base := filepath.Base(f)
		if strings.HasPrefix(base, ".") {
			continue
		}
		names = append(names, strings.TrimSuffix(base, s.ext))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Storage) entryPath(kind, name string) string {
	return filepath.Join(s.root, kind, SanitizeName(name)+s.ext)
}

func checkKey(kind, name string) error {
	if kind == "" {
		return fmt.Errorf("kind cannot be empty")
	}
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

// SanitizeName maps name onto a safe file base name.
func SanitizeName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '.', ' ':
			return '_'
		}
		return r
	}, name)

	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}
