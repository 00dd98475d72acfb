package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"vulnforest/ml"
)

const invalidatingOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

type cachedModel struct {
	forest  *ml.RandomForest
	modTime time.Time
	size    int64
}

// ModelCache keeps recently used forests keyed by absolute path. Entries are reloaded when the
// file's modification time or size changes and, when watching, evicted on file events.
type ModelCache struct {
	cache  *lru.Cache[string, cachedModel]
	logger *zap.Logger

	watcher *fsnotify.Watcher
	watched map[string]bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

func NewModelCache(size int, watch bool, logger *zap.Logger) (*ModelCache, error) {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[string, cachedModel](size)
	if err != nil {
		return nil, err
	}
	c := &ModelCache{
		cache:   cache,
		logger:  logger,
		watched: make(map[string]bool),
	}
	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			logger.Warn("model file watching disabled", zap.Error(err))
		} else {
			c.watcher = watcher
			c.wg.Add(1)
			go c.run()
		}
	}
	return c, nil
}

func (c *ModelCache) Get(path string) (*ml.RandomForest, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ml.ErrIO, err)
	}
	info, err := os.Stat(key)
	if errors.Is(err, os.ErrNotExist) {
		c.cache.Remove(key)
		return nil, fmt.Errorf("%w: %s", ml.ErrModelNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ml.ErrIO, err)
	}

	if entry, ok := c.cache.Get(key); ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.forest, nil
	}

	forest, err := ml.LoadForest(key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cachedModel{forest: forest, modTime: info.ModTime(), size: info.Size()})
	c.watch(filepath.Dir(key))
	c.logger.Debug("model loaded", zap.String("path", key), zap.Int("trees", forest.NumTrees()))
	return forest, nil
}

func (c *ModelCache) Invalidate(path string) {
	if key, err := filepath.Abs(path); err == nil {
		c.cache.Remove(key)
	}
}

func (c *ModelCache) Len() int {
	return c.cache.Len()
}

func (c *ModelCache) Close() error {
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.wg.Wait()
	return err
}

func (c *ModelCache) watch(dir string) {
	if c.watcher == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watched[dir] {
		return
	}
	if err := c.watcher.Add(dir); err != nil {
		c.logger.Warn("watch model dir failed", zap.String("dir", dir), zap.Error(err))
		return
	}
	c.watched[dir] = true
}

func (c *ModelCache) run() {
	defer c.wg.Done()
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&invalidatingOps == 0 {
				continue
			}
			if c.cache.Remove(filepath.Clean(event.Name)) {
				c.logger.Debug("model evicted", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("model watcher error", zap.Error(err))
		}
	}
}
