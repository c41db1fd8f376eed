package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kyleking/asksql/internal/errors"
)

// Cache defines the interface for local file caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int64, error)
	Cleanup(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
}

// Entry represents a cache entry with metadata. The payload lives in a
// .data file next to the .meta sidecar holding this struct.
type Entry struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Size      int64     `json:"size"`
}

// Stats represents cache statistics.
type Stats struct {
	TotalEntries int64   `json:"total_entries"`
	TotalSize    int64   `json:"total_size"`
	HitRate      float64 `json:"hit_rate"`
	MissRate     float64 `json:"miss_rate"`
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
}

// FileCache implements the Cache interface using the filesystem. Keys are
// hashed into short filenames, so any string works as a key.
type FileCache struct {
	directory   string
	maxBytes    int64
	defaultTTL  time.Duration
	cleanupFreq time.Duration
	mu          sync.RWMutex
	stats       Stats
	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// NewFileCache creates a file-based cache rooted at directory. A leading ~
// expands to the user home. The background cleanup goroutine runs until
// Close is called.
func NewFileCache(
	directory string,
	maxSizeMB int,
	defaultTTL, cleanupFreq time.Duration,
) (*FileCache, error) {
	if strings.HasPrefix(directory, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeConfig, "failed to get user home directory")
		}

		directory = filepath.Join(home, directory[2:])
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to create cache directory")
	}

	cache := &FileCache{
		directory:   directory,
		maxBytes:    int64(maxSizeMB) * 1024 * 1024,
		defaultTTL:  defaultTTL,
		cleanupFreq: cleanupFreq,
		stopCleanup: make(chan struct{}),
	}

	go cache.backgroundCleanup()

	return cache, nil
}

// Get retrieves data from cache. Missing and expired entries both report a
// not-found error.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath := c.dataPath(key)
	metaPath := c.metaPath(key)

	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		c.stats.Misses++
		return nil, errors.New(errors.ErrTypeNotFound, "cache miss: key not found")
	}

	var entry Entry
	if err := json.Unmarshal(metaData, &entry); err != nil {
		c.stats.Misses++
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to parse cache metadata")
	}

	if time.Now().After(entry.ExpiresAt) {
		c.stats.Misses++
		_ = os.Remove(filePath)
		_ = os.Remove(metaPath)

		return nil, errors.New(errors.ErrTypeNotFound, "cache miss: entry expired")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		c.stats.Misses++
		return nil, errors.Wrap(err, errors.ErrTypeInternal, "failed to read cache data")
	}

	c.stats.Hits++

	return data, nil
}

// Set stores data under key. A zero ttl applies the cache default.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	entry := Entry{
		Key:       key,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
		Size:      int64(len(data)),
	}

	if err := c.enforceSize(entry.Size); err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to enforce cache size")
	}

	filePath := c.dataPath(key)
	metaPath := c.metaPath(key)

	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to write cache data")
	}

	metaData, err := json.Marshal(entry)
	if err != nil {
		_ = os.Remove(filePath)
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to marshal cache metadata")
	}

	if err := os.WriteFile(metaPath, metaData, 0o600); err != nil {
		_ = os.Remove(filePath)
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to write cache metadata")
	}

	return nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	_ = os.Remove(c.dataPath(key))
	_ = os.Remove(c.metaPath(key))

	return nil
}

// Clear removes all entries and resets the statistics.
func (c *FileCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(c.directory)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to read cache directory")
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			_ = os.Remove(filepath.Join(c.directory, entry.Name()))
		}
	}

	c.stats = Stats{}

	return nil
}

// Size returns the total size of cached payloads in bytes.
func (c *FileCache) Size(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return c.calculateSize()
}

// Cleanup removes expired entries.
func (c *FileCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()

	entries, err := os.ReadDir(c.directory)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to read cache directory")
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta") {
			continue
		}

		metaPath := filepath.Join(c.directory, entry.Name())

		metaData, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var cacheEntry Entry
		if err := json.Unmarshal(metaData, &cacheEntry); err != nil {
			continue
		}

		if now.After(cacheEntry.ExpiresAt) {
			hash := strings.TrimSuffix(entry.Name(), ".meta")

			_ = os.Remove(filepath.Join(c.directory, hash+".data"))
			_ = os.Remove(metaPath)
		}
	}

	return nil
}

// GetStats returns cache statistics including current entry count and size.
func (c *FileCache) GetStats(ctx context.Context) (*Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var totalEntries int64

	entries, err := os.ReadDir(c.directory)
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".data") {
				totalEntries++
			}
		}
	}

	totalSize, _ := c.calculateSize()

	stats := c.stats
	stats.TotalEntries = totalEntries
	stats.TotalSize = totalSize

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
		stats.MissRate = float64(stats.Misses) / float64(total)
	}

	return &stats, nil
}

// Close stops the background cleanup goroutine. Safe to call repeatedly.
func (c *FileCache) Close() error {
	c.cleanupOnce.Do(func() {
		close(c.stopCleanup)
	})

	return nil
}

func (c *FileCache) dataPath(key string) string {
	return filepath.Join(c.directory, hashKey(key)+".data")
}

func (c *FileCache) metaPath(key string) string {
	return filepath.Join(c.directory, hashKey(key)+".meta")
}

// hashKey creates a safe filename from a cache key. The first 16 hex chars
// keep filenames short while staying collision-resistant for this use.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// enforceSize frees up space for a new entry by removing the oldest entries
// first. Caller holds the write lock.
func (c *FileCache) enforceSize(newEntrySize int64) error {
	currentSize, err := c.calculateSize()
	if err != nil {
		return err
	}

	if currentSize+newEntrySize <= c.maxBytes {
		return nil
	}

	entries, err := os.ReadDir(c.directory)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeInternal, "failed to read cache directory")
	}

	type entryInfo struct {
		hash    string
		modTime time.Time
		size    int64
	}

	var entryInfos []entryInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		hash := strings.TrimSuffix(entry.Name(), ".meta")

		dataInfo, err := os.Stat(filepath.Join(c.directory, hash+".data"))
		if err != nil {
			continue
		}

		entryInfos = append(entryInfos, entryInfo{
			hash:    hash,
			modTime: info.ModTime(),
			size:    dataInfo.Size(),
		})
	}

	// Oldest first
	for i := range len(entryInfos) - 1 {
		for j := i + 1; j < len(entryInfos); j++ {
			if entryInfos[i].modTime.After(entryInfos[j].modTime) {
				entryInfos[i], entryInfos[j] = entryInfos[j], entryInfos[i]
			}
		}
	}

	spaceNeeded := (currentSize + newEntrySize) - c.maxBytes

	var spaceFreed int64

	for _, info := range entryInfos {
		if spaceFreed >= spaceNeeded {
			break
		}

		_ = os.Remove(filepath.Join(c.directory, info.hash+".data"))
		_ = os.Remove(filepath.Join(c.directory, info.hash+".meta"))

		spaceFreed += info.size
	}

	return nil
}

func (c *FileCache) calculateSize() (int64, error) {
	var totalSize int64

	err := filepath.WalkDir(c.directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && strings.HasSuffix(path, ".data") {
			info, err := d.Info()
			if err != nil {
				return err
			}

			totalSize += info.Size()
		}

		return nil
	})

	return totalSize, err
}

func (c *FileCache) backgroundCleanup() {
	if c.cleanupFreq <= 0 {
		return
	}

	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.Cleanup(context.Background())
		case <-c.stopCleanup:
			return
		}
	}
}
