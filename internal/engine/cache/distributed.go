package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Distributed tier defaults. The distributed horizon is deliberately much
// longer than the memory tier's.
const DefaultDistributedTTL = 24 * time.Hour

// Distributed is the process-shared cache tier. Implementations are treated
// as best-effort: every error degrades the manager to memory-only behavior
// for that call. Both operations must respect the context deadline.
type Distributed interface {
	// Get returns the stored bytes for key, a presence flag, and any
	// transport error. An expired or missing entry is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores val under key with the given TTL.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// fileEnvelope wraps a distributed entry with its expiry on disk.
type fileEnvelope struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// FileStore implements Distributed over a shared directory, one JSON file
// per entry written atomically via rename. Suitable for co-located worker
// processes sharing a volume.
type FileStore struct {
	dir string
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Get implements Distributed. Expired entries are removed on read.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	path := s.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cache file: %w", err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		// A torn or foreign file is treated as a miss, not a failure.
		_ = os.Remove(path)
		return nil, false, nil
	}

	if time.Now().After(env.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}

	return env.Data, true, nil
}

// Set implements Distributed with an atomic tmp-then-rename write.
func (s *FileStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = DefaultDistributedTTL
	}

	now := time.Now()
	env := fileEnvelope{
		Key:       key,
		Data:      val,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

// CleanupExpired removes expired entries. Intended for periodic
// maintenance; errors on individual files are skipped.
func (s *FileStore) CleanupExpired() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			continue
		}
		var env fileEnvelope
		if json.Unmarshal(data, &env) != nil {
			continue
		}
		if time.Now().After(env.ExpiresAt) {
			_ = os.Remove(path)
		}
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
