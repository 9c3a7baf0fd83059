package cache

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/zeebo/xxh3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fileFormat is the outer record on disk. Data stays raw so the checksum
// covers exactly the bytes that were written.
type fileFormat struct {
	SchemaVersion int                 `json:"schema_version"`
	Checksum      string              `json:"checksum"`
	Data          jsoniter.RawMessage `json:"data"`
}

// Store reads and writes the cache file at a resolved path.
type Store struct {
	path string
	mu   sync.Mutex // serializes writers; readers only see renamed files
}

// New returns a Store for path. Resolving the path is the caller's job.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the cache file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the cached envelope, or nil when the file is missing,
// unreadable, corrupted, or written with another schema. Failures are logged
// and never returned: a bad cache means a cold start.
func (s *Store) Load() *Envelope {
	env, err := s.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("cache: none at %s, starting empty", s.path)
		} else {
			log.Printf("cache: ignoring %s: %v", s.path, err)
		}
		return nil
	}
	return env
}

// Read is Load with the failure reason exposed.
func (s *Store) Read() (*Envelope, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: s.path, Err: err}
	}

	var file fileFormat
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, &IOError{Op: "decode", Path: s.path, Err: err}
	}
	if file.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrSchemaMismatch, file.SchemaVersion, SchemaVersion)
	}
	if file.Checksum != digest(file.Data) {
		return nil, ErrChecksum
	}

	var env Envelope
	if err := json.Unmarshal(file.Data, &env); err != nil {
		return nil, &IOError{Op: "decode", Path: s.path, Err: err}
	}
	env.SchemaVersion = SchemaVersion
	for i := range env.Events {
		env.Events[i].New = false
	}
	return &env, nil
}

// Save writes env atomically: encode, write a temp file in the same
// directory, fsync, then rename over the target.
func (s *Store) Save(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}
	out, err := json.Marshal(fileFormat{
		SchemaVersion: SchemaVersion,
		Checksum:      digest(data),
		Data:          data,
	})
	if err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &IOError{Op: "create", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(out); err != nil {
		_ = tmp.Close()
		cleanup()
		return &IOError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return &IOError{Op: "sync", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &IOError{Op: "close", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return &IOError{Op: "rename", Path: s.path, Err: err}
	}
	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &IOError{Op: "remove", Path: s.path, Err: err}
	}
	return nil
}

func digest(data []byte) string {
	return strconv.FormatUint(xxh3.Hash(data), 16)
}
