// Package assets locates rig documents on a search path and caches their contents.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Faultbox/morpher/internal/rig"
)

// ErrNotFound means no search directory holds the requested rig.
var ErrNotFound = errors.New("assets: rig not found")

// Extensions tried, in order, for names given without one.
var extensions = []string{"", ".yaml", ".yml"}

// Manager resolves rig names against a list of directories.
type Manager struct {
	dirs  []string
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// AddDir adds a search directory.
// Directories are searched in reverse order (last added = highest priority).
func (m *Manager) AddDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("adding rig directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding rig directory %s: not a directory", path)
	}

	m.mu.Lock()
	m.dirs = append(m.dirs, path)
	m.mu.Unlock()

	return nil
}

// Resolve returns the file a rig name refers to. A name that is itself an
// existing file wins over the search directories.
func (m *Manager) Resolve(name string) (string, error) {
	if isFile(name) {
		return name, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Search directories in reverse order
	for i := len(m.dirs) - 1; i >= 0; i-- {
		for _, ext := range extensions {
			path := filepath.Join(m.dirs[i], name+ext)
			if isFile(path) {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Load resolves name and parses the rig. File contents are cached by path,
// so repeated loads re-parse without touching the disk.
func (m *Manager) Load(name string) (*rig.Rig, error) {
	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}

	data, ok := m.cache.Get(path)
	if !ok {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		m.cache.Set(path, data)
	}

	r, err := rig.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// CacheStats returns the content cache hit and miss counts.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.Stats()
}

// Close drops all directories and cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dirs = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache of file contents.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
