// Package datastore is a small JSON-file key-value store. Values live in memory,
// are flushed to disk periodically and on Close, and every flush is an atomic
// write with rotating backups.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrClosed      = errors.New("datastore is closed")
	ErrMemoryLimit = errors.New("datastore memory limit exceeded")
)

// Config holds options for a DataStore.
type Config struct {
	FilePath         string
	AutoSaveInterval time.Duration
	MaxMemorySize    int64 // bytes of encoded values, 0 = unlimited
	BackupCount      int
	Logger           zerolog.Logger
}

// DefaultConfig returns the configuration New uses.
func DefaultConfig(filePath string) Config {
	return Config{
		FilePath:         filePath,
		AutoSaveInterval: 10 * time.Second,
		MaxMemorySize:    100 * 1024 * 1024,
		BackupCount:      3,
		Logger:           log.With().Str("component", "datastore").Logger(),
	}
}

// DataStore is safe for concurrent use.
type DataStore struct {
	mu           sync.RWMutex
	data         map[string]json.RawMessage
	size         int64
	lastChecksum string
	closed       bool

	cfg    Config
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens (or creates) the store at filePath with default settings.
func New(filePath string) (*DataStore, error) {
	return NewWithConfig(DefaultConfig(filePath))
}

// NewWithConfig opens (or creates) the store described by cfg.
func NewWithConfig(cfg Config) (*DataStore, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("datastore: file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("datastore: create directory: %w", err)
	}

	ds := &DataStore{data: make(map[string]json.RawMessage), cfg: cfg}

	switch _, err := os.Stat(cfg.FilePath); {
	case errors.Is(err, os.ErrNotExist):
		if err := ds.writeAtomic([]byte("{}")); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("datastore: stat %s: %w", cfg.FilePath, err)
	default:
		if err := ds.load(); err != nil {
			return nil, err
		}
	}

	if cfg.AutoSaveInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		ds.cancel = cancel
		ds.wg.Add(1)
		go ds.autoSave(ctx)
	}
	return ds, nil
}

// Put encodes value as JSON and stores it under key.
func (ds *DataStore) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("datastore: encode %s: %w", key, err)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}

	newSize := ds.size - int64(len(ds.data[key])) + int64(len(raw))
	if ds.cfg.MaxMemorySize > 0 && newSize > ds.cfg.MaxMemorySize {
		return fmt.Errorf("%w: %d > %d bytes", ErrMemoryLimit, newSize, ds.cfg.MaxMemorySize)
	}
	ds.size = newSize
	ds.data[key] = raw
	return nil
}

// Get decodes the value under key into out. It reports false when key is absent.
func (ds *DataStore) Get(key string, out any) (bool, error) {
	ds.mu.RLock()
	raw, ok := ds.data[key]
	closed := ds.closed
	ds.mu.RUnlock()

	if closed {
		return false, ErrClosed
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("datastore: decode %s: %w", key, err)
	}
	return true, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (ds *DataStore) Delete(key string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}
	if raw, ok := ds.data[key]; ok {
		ds.size -= int64(len(raw))
		delete(ds.data, key)
	}
	return nil
}

// Keys returns every key starting with prefix, sorted.
func (ds *DataStore) Keys(prefix string) []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	var keys []string
	for k := range ds.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Save flushes to disk now.
func (ds *DataStore) Save() error {
	ds.mu.RLock()
	closed := ds.closed
	ds.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return ds.save()
}

// Close stops auto-save and performs a final flush.
func (ds *DataStore) Close() error {
	ds.mu.Lock()
	if ds.closed {
		ds.mu.Unlock()
		return nil
	}
	ds.closed = true
	ds.mu.Unlock()

	if ds.cancel != nil {
		ds.cancel()
	}
	ds.wg.Wait()
	return ds.save()
}

// Stats describes the store for diagnostics.
type Stats struct {
	Keys     int    `json:"keys"`
	Bytes    int64  `json:"bytes"`
	FilePath string `json:"file_path"`
}

func (ds *DataStore) Stats() Stats {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return Stats{Keys: len(ds.data), Bytes: ds.size, FilePath: ds.cfg.FilePath}
}

func (ds *DataStore) save() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	data, err := json.MarshalIndent(ds.data, "", "  ")
	if err != nil {
		return fmt.Errorf("datastore: encode file: %w", err)
	}
	sum := checksum(data)
	if sum == ds.lastChecksum {
		return nil
	}

	if ds.cfg.BackupCount > 0 {
		if err := ds.backup(); err != nil {
			ds.cfg.Logger.Warn().Err(err).Msg("backup failed")
		}
	}
	if err := ds.writeAtomic(data); err != nil {
		return err
	}
	ds.lastChecksum = sum
	return nil
}

func (ds *DataStore) load() error {
	data, err := os.ReadFile(ds.cfg.FilePath)
	if err != nil {
		return fmt.Errorf("datastore: read %s: %w", ds.cfg.FilePath, err)
	}
	parsed := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("datastore: %s is not a JSON object: %w", ds.cfg.FilePath, err)
	}

	var size int64
	for _, raw := range parsed {
		size += int64(len(raw))
	}

	ds.mu.Lock()
	ds.data, ds.size = parsed, size
	ds.mu.Unlock()
	return nil
}

// writeAtomic writes to a temp file, syncs it and renames it over the target.
func (ds *DataStore) writeAtomic(data []byte) error {
	tmp := ds.cfg.FilePath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("datastore: open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("datastore: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("datastore: sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("datastore: close temp file: %w", err)
	}
	if err := os.Rename(tmp, ds.cfg.FilePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("datastore: replace %s: %w", ds.cfg.FilePath, err)
	}
	return nil
}

func (ds *DataStore) backup() error {
	src, err := os.Open(ds.cfg.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer src.Close()

	name := fmt.Sprintf("%s.backup.%s", ds.cfg.FilePath, time.Now().Format("20060102_150405.000000000"))
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	ds.pruneBackups()
	return nil
}

// pruneBackups keeps the newest BackupCount backups.
func (ds *DataStore) pruneBackups() {
	matches, err := filepath.Glob(ds.cfg.FilePath + ".backup.*")
	if err != nil || len(matches) <= ds.cfg.BackupCount {
		return
	}
	// names embed a sortable timestamp
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-ds.cfg.BackupCount] {
		os.Remove(old)
	}
}

func (ds *DataStore) autoSave(ctx context.Context) {
	defer ds.wg.Done()

	ticker := time.NewTicker(ds.cfg.AutoSaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ds.save(); err != nil {
				ds.cfg.Logger.Error().Err(err).Msg("auto-save failed")
			}
		}
	}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
