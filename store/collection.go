// Package store implements versioned, cache-backed record collections
// persisted as JSON documents.
//
// Each collection is one document {version, lastModified, data}. Reads are
// served from a short-lived in-process cache; writes rewrite the whole
// document and refresh the cache. Two storage locations exist: an immutable
// seed fixture and a mutable working dataset. In dynamic mode the first
// access copies the seed document to the working location exactly once;
// all further reads and writes target the working copy.
//
// All read methods return copies of the cached records, never references,
// so callers cannot mutate cached state. Record types must be plain value
// structs (no shared pointer or map fields) for this guarantee to hold.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/storekit/adminagent/logger"
	"github.com/storekit/adminagent/types"
)

// cacheKey is the single key under which the decoded record slice lives.
const cacheKey = "records"

// Settings configures a collection's storage locations and cache window.
type Settings struct {
	// SeedPath is the immutable fixture document.
	SeedPath string
	// WorkingPath is the mutable copy-on-first-write document.
	WorkingPath string
	// Dynamic selects the working dataset. When false, reads are pinned to
	// the seed and writes fail.
	Dynamic bool
	// CacheTTL is the read-cache freshness window. Zero disables caching.
	CacheTTL time.Duration
}

// Collection is a typed record collection addressed by record id.
type Collection[T types.Record] struct {
	name     string
	mu       sync.Mutex // serializes writes, mode switches, and the seed copy
	settings Settings
	seeded   bool // working copy confirmed to exist
	cache    *gocache.Cache
	group    singleflight.Group
}

// NewCollection creates a collection with the given name and settings.
// The name is used for logging and arena registration only.
func NewCollection[T types.Record](name string, settings Settings) *Collection[T] {
	ttl := settings.CacheTTL
	if ttl <= 0 {
		ttl = time.Nanosecond // effectively uncached
	}
	return &Collection[T]{
		name:     name,
		settings: settings,
		cache:    gocache.New(ttl, 5*time.Minute),
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// SetDynamic switches the collection between seed-backed and working-backed
// storage at runtime. Switching invalidates the cache.
func (c *Collection[T]) SetDynamic(dynamic bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settings.Dynamic != dynamic {
		c.settings.Dynamic = dynamic
		c.cache.Delete(cacheKey)
	}
}

// Invalidate drops the read cache. The next read re-reads the document.
func (c *Collection[T]) Invalidate() {
	c.cache.Delete(cacheKey)
	c.mu.Lock()
	c.seeded = false
	c.mu.Unlock()
}

// activePath returns the document currently backing the collection,
// performing the one-time seed-to-working copy in dynamic mode.
// Callers must hold c.mu.
func (c *Collection[T]) activePath() (string, error) {
	if !c.settings.Dynamic {
		return c.settings.SeedPath, nil
	}
	if !c.seeded {
		if _, err := os.Stat(c.settings.WorkingPath); errors.Is(err, fs.ErrNotExist) {
			if _, serr := os.Stat(c.settings.SeedPath); serr == nil {
				if cerr := copyFile(c.settings.SeedPath, c.settings.WorkingPath); cerr != nil {
					return "", cerr
				}
				logger.Debug("seeded working dataset", "collection", c.name, "path", c.settings.WorkingPath)
			}
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", c.settings.WorkingPath, err)
		}
		c.seeded = true
	}
	return c.settings.WorkingPath, nil
}

// loadLocked returns the decoded record slice, reading through the cache.
// Callers must hold c.mu.
func (c *Collection[T]) loadLocked() ([]T, error) {
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]T), nil
	}
	path, err := c.activePath()
	if err != nil {
		return nil, err
	}
	doc, err := readDocument[T](path)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKey, doc.Data, gocache.DefaultExpiration)
	return doc.Data, nil
}

// load is the read-path entry point. Concurrent cache misses are collapsed
// into a single document read.
func (c *Collection[T]) load() ([]T, error) {
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]T), nil
	}

	v, err, _ := c.group.Do(cacheKey, func() (any, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.loadLocked()
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

// persist writes records as the new document contents, bumping the version,
// and refreshes the cache. Callers must hold c.mu.
func (c *Collection[T]) persist(records []T) error {
	path, err := c.activePath()
	if err != nil {
		return err
	}
	prev, err := readDocument[T](path)
	if err != nil {
		return err
	}
	doc := Document[T]{
		Version:      prev.Version + 1,
		LastModified: time.Now().UTC(),
		Data:         records,
	}
	if err := writeDocument(path, doc); err != nil {
		return err
	}
	c.cache.Set(cacheKey, records, gocache.DefaultExpiration)
	return nil
}

// GetAll returns every record in the collection. The returned slice and its
// elements are copies; mutating them does not affect the store.
func (c *Collection[T]) GetAll() ([]T, error) {
	records, err := c.load()
	if err != nil {
		return nil, err
	}
	out := make([]T, len(records))
	copy(out, records)
	return out, nil
}

// GetByID returns the record with the given id. The second return value
// reports whether it was found.
func (c *Collection[T]) GetByID(id string) (T, bool, error) {
	var zero T
	records, err := c.load()
	if err != nil {
		return zero, false, err
	}
	for _, r := range records {
		if r.RecordID() == id {
			return r, true, nil
		}
	}
	return zero, false, nil
}

// GetByIDs returns the records whose ids appear in ids, in collection order.
// Unknown ids are silently ignored.
func (c *Collection[T]) GetByIDs(ids []string) ([]T, error) {
	records, err := c.load()
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []T
	for _, r := range records {
		if want[r.RecordID()] {
			out = append(out, r)
		}
	}
	return out, nil
}

// Find returns every record matching the predicate.
func (c *Collection[T]) Find(predicate func(T) bool) ([]T, error) {
	records, err := c.load()
	if err != nil {
		return nil, err
	}
	var out []T
	for _, r := range records {
		if predicate(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindOne returns the first record matching the predicate.
func (c *Collection[T]) FindOne(predicate func(T) bool) (T, bool, error) {
	var zero T
	records, err := c.load()
	if err != nil {
		return zero, false, err
	}
	for _, r := range records {
		if predicate(r) {
			return r, true, nil
		}
	}
	return zero, false, nil
}

// Count returns the number of records matching the predicate, or the total
// count when predicate is nil.
func (c *Collection[T]) Count(predicate func(T) bool) (int, error) {
	records, err := c.load()
	if err != nil {
		return 0, err
	}
	if predicate == nil {
		return len(records), nil
	}
	n := 0
	for _, r := range records {
		if predicate(r) {
			n++
		}
	}
	return n, nil
}

// Create appends a new record and persists the collection.
// Returns ErrDuplicateID without mutating anything if the id exists.
func (c *Collection[T]) Create(record T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.loadLocked()
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.RecordID() == record.RecordID() {
			return fmt.Errorf("%w: %s", ErrDuplicateID, record.RecordID())
		}
	}
	updated := make([]T, len(records), len(records)+1)
	copy(updated, records)
	updated = append(updated, record)
	return c.persist(updated)
}

// Update merges partial fields into the record with the given id and
// persists. The id field is preserved verbatim regardless of the partial
// contents. Returns found=false (not an error) when the id is absent.
func (c *Collection[T]) Update(id string, partial map[string]any) (T, bool, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.loadLocked()
	if err != nil {
		return zero, false, err
	}
	idx := -1
	for i, r := range records {
		if r.RecordID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return zero, false, nil
	}

	merged, err := mergeRecord(records[idx], id, partial)
	if err != nil {
		return zero, false, err
	}
	updated := make([]T, len(records))
	copy(updated, records)
	updated[idx] = merged
	if err := c.persist(updated); err != nil {
		return zero, false, err
	}
	return merged, true, nil
}

// Upsert creates the record if its id is new, otherwise replaces the
// existing record wholesale. Reports whether a create occurred.
func (c *Collection[T]) Upsert(record T) (created bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.loadLocked()
	if err != nil {
		return false, err
	}
	updated := make([]T, len(records))
	copy(updated, records)
	for i, r := range updated {
		if r.RecordID() == record.RecordID() {
			updated[i] = record
			return false, c.persist(updated)
		}
	}
	updated = append(updated, record)
	return true, c.persist(updated)
}

// Delete removes the record with the given id. Returns false without
// rewriting the document when the id is absent.
func (c *Collection[T]) Delete(id string) (bool, error) {
	n, err := c.DeleteMany([]string{id})
	return n > 0, err
}

// DeleteMany removes every record whose id appears in ids, writing once.
// Absent ids are silently ignored; the document is not rewritten when
// nothing was removed. Returns the number of removed records.
func (c *Collection[T]) DeleteMany(ids []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.loadLocked()
	if err != nil {
		return 0, err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]T, 0, len(records))
	for _, r := range records {
		if !drop[r.RecordID()] {
			kept = append(kept, r)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := c.persist(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// PartialUpdate pairs a record id with the fields to merge into it.
type PartialUpdate struct {
	ID     string
	Fields map[string]any
}

// BulkUpdate applies each partial merge, skipping unknown ids, and writes
// the document once. Returns the number of records actually updated.
func (c *Collection[T]) BulkUpdate(updates []PartialUpdate) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.loadLocked()
	if err != nil {
		return 0, err
	}
	byID := make(map[string]int, len(records))
	for i, r := range records {
		byID[r.RecordID()] = i
	}

	updated := make([]T, len(records))
	copy(updated, records)
	applied := 0
	for _, u := range updates {
		idx, ok := byID[u.ID]
		if !ok {
			continue
		}
		merged, err := mergeRecord(updated[idx], u.ID, u.Fields)
		if err != nil {
			return 0, err
		}
		updated[idx] = merged
		applied++
	}
	if applied == 0 {
		return 0, nil
	}
	if err := c.persist(updated); err != nil {
		return 0, err
	}
	return applied, nil
}
