// Package slotstore keeps named JSON values in a directory, one file per slot,
// plus append-only JSONL logs next to them.
package slotstore

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// ErrSlotNotFound is returned by Get for a slot that was never set.
var ErrSlotNotFound = errors.New("slot not found")

var keyRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store is a directory of named slots. Writes replace a slot atomically via a
// temp file and rename, so readers see either the old or the new value.
type Store struct {
	mu      sync.RWMutex
	baseDir string
}

// New creates a Store rooted at baseDir. The directory is created on first write.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.baseDir }

// Path returns the file backing key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

func checkKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("invalid slot key %q", key)
	}
	return nil
}

// Set encodes v as JSON and stores it under key.
func (s *Store) Set(key string, v any) error {
	if err := checkKey(key); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFileAtomic(key+".json", data)
}

// Get decodes the slot into out. Returns ErrSlotNotFound if it was never set.
func (s *Store) Get(key string, out any) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.Path(key))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSlotNotFound, key)
		}
		return fmt.Errorf("read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// Digest returns a SHA-256 of the slot's stored bytes, or "" if the slot was
// never set. It changes whenever any writer replaces the slot.
func (s *Store) Digest(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.Path(key))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Delete removes a slot. Deleting a missing slot is not an error.
func (s *Store) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys returns the names of all slots, sorted.
func (s *Store) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list slots: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// AppendJSONL appends v as one JSON line to the named log file.
func (s *Store) AppendJSONL(filename string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filename, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("create slot dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(s.baseDir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// LoadJSONL reads all JSON lines from a log file, deserializing each into T.
// Corrupted lines are skipped; a missing file yields no items.
func LoadJSONL[T any](s *Store, filename string) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(filepath.Join(s.baseDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	var items []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			continue // skip corrupted lines
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", filename, err)
	}
	return items, nil
}

// WriteFileAtomic stores raw content under filename.
func (s *Store) WriteFileAtomic(filename string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFileAtomic(filename, content)
}

func (s *Store) writeFileAtomic(filename string, content []byte) error {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("create slot dir: %w", err)
	}

	path := filepath.Join(s.baseDir, filename)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write %s tmp: %w", filename, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", filename, err)
	}
	return nil
}

// ReadFile returns the content of filename, or nil, nil if it doesn't exist.
func (s *Store) ReadFile(filename string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.baseDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return data, nil
}
