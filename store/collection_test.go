package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekit/adminagent/types"
)

func writeSeed(t *testing.T, path string, products []types.Product) {
	t.Helper()
	doc := Document[types.Product]{
		Version:      1,
		LastModified: time.Now().UTC(),
		Data:         products,
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func sampleProducts() []types.Product {
	return []types.Product{
		{ID: "p1", SKU: "HP-BLK-001", Title: "Headphones", Price: 29.99, CostPrice: 12.00, Status: types.ProductActive},
		{ID: "p2", SKU: "KB-WHT-002", Title: "Keyboard", Price: 59.99, CostPrice: 30.00, Status: types.ProductActive},
		{ID: "p3", SKU: "MS-GRY-003", Title: "Mouse", Price: 19.99, CostPrice: 8.00, Status: types.ProductArchived},
	}
}

func newTestCollection(t *testing.T) (*Collection[types.Product], string, string) {
	t.Helper()
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed", "products.json")
	working := filepath.Join(dir, "working", "products.json")
	writeSeed(t, seed, sampleProducts())
	c := NewCollection[types.Product]("products", Settings{
		SeedPath:    seed,
		WorkingPath: working,
		Dynamic:     true,
		CacheTTL:    time.Second,
	})
	return c, seed, working
}

func TestGetAllCopyOnFirstWrite(t *testing.T) {
	c, seed, working := newTestCollection(t)

	all, err := c.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// First access in dynamic mode copies the seed to the working location.
	assert.FileExists(t, working)

	// Seed is untouched by subsequent writes.
	require.NoError(t, c.Create(types.Product{ID: "p4", SKU: "CB-BLU-004", Title: "Cable", Price: 5.99, Status: types.ProductActive}))
	seedData, err := os.ReadFile(seed)
	require.NoError(t, err)
	var seedDoc Document[types.Product]
	require.NoError(t, json.Unmarshal(seedData, &seedDoc))
	assert.Len(t, seedDoc.Data, 3)
}

func TestGetAllReturnsCopies(t *testing.T) {
	c, _, _ := newTestCollection(t)

	first, err := c.GetAll()
	require.NoError(t, err)
	first[0].Title = "mutated"

	second, err := c.GetAll()
	require.NoError(t, err)
	assert.Equal(t, "Headphones", second[0].Title)
}

func TestCreateThenGetByID(t *testing.T) {
	c, _, _ := newTestCollection(t)

	p := types.Product{ID: "p9", SKU: "SP-RED-009", Title: "Speaker", Price: 89.99, Status: types.ProductActive}
	require.NoError(t, c.Create(p))

	got, found, err := c.GetByID("p9")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, p, got)
}

func TestCreateDuplicateIDDoesNotMutate(t *testing.T) {
	c, _, _ := newTestCollection(t)

	err := c.Create(types.Product{ID: "p1", SKU: "DUP-001", Title: "Dup"})
	require.ErrorIs(t, err, ErrDuplicateID)

	n, err := c.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, found, err := c.GetByID("p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "HP-BLK-001", got.SKU)
}

func TestUpdatePreservesID(t *testing.T) {
	c, _, _ := newTestCollection(t)

	merged, found, err := c.Update("p1", map[string]any{
		"price": 49.99,
		"id":    "evil-id",
	})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "p1", merged.ID)
	assert.Equal(t, 49.99, merged.Price)
	// Untouched fields survive the merge.
	assert.Equal(t, "Headphones", merged.Title)
	assert.Equal(t, "HP-BLK-001", merged.SKU)
}

func TestUpdateNotFoundIsNotAnError(t *testing.T) {
	c, _, _ := newTestCollection(t)

	_, found, err := c.Update("missing", map[string]any{"price": 1.0})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpsert(t *testing.T) {
	c, _, _ := newTestCollection(t)

	created, err := c.Upsert(types.Product{ID: "p1", SKU: "HP-BLK-001", Title: "Headphones v2", Price: 35.00, Status: types.ProductActive})
	require.NoError(t, err)
	assert.False(t, created)

	created, err = c.Upsert(types.Product{ID: "p8", SKU: "NEW-008", Title: "New", Price: 10.00, Status: types.ProductActive})
	require.NoError(t, err)
	assert.True(t, created)

	got, found, err := c.GetByID("p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Headphones v2", got.Title)
}

func TestDeleteNonexistentDoesNotRewrite(t *testing.T) {
	c, _, working := newTestCollection(t)

	// Force the working copy into existence and note its version.
	_, err := c.GetAll()
	require.NoError(t, err)
	before, err := os.ReadFile(working)
	require.NoError(t, err)

	removed, err := c.Delete("missing")
	require.NoError(t, err)
	assert.False(t, removed)

	after, err := os.ReadFile(working)
	require.NoError(t, err)
	assert.Equal(t, before, after, "document must not be rewritten")
}

func TestDeleteMany(t *testing.T) {
	c, _, _ := newTestCollection(t)

	n, err := c.DeleteMany([]string{"p1", "p3", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	total, err := c.Count(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestBulkUpdateSkipsUnknownIDs(t *testing.T) {
	c, _, _ := newTestCollection(t)

	n, err := c.BulkUpdate([]PartialUpdate{
		{ID: "p1", Fields: map[string]any{"price": 31.99}},
		{ID: "missing", Fields: map[string]any{"price": 1.0}},
		{ID: "p2", Fields: map[string]any{"inventory": 7}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	p1, _, err := c.GetByID("p1")
	require.NoError(t, err)
	assert.Equal(t, 31.99, p1.Price)
	p2, _, err := c.GetByID("p2")
	require.NoError(t, err)
	assert.Equal(t, 7, p2.Inventory)
}

func TestFindAndCount(t *testing.T) {
	c, _, _ := newTestCollection(t)

	active, err := c.Find(func(p types.Product) bool { return p.Status == types.ProductActive })
	require.NoError(t, err)
	assert.Len(t, active, 2)

	n, err := c.Count(func(p types.Product) bool { return p.Price < 30 })
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, found, err := c.FindOne(func(p types.Product) bool { return p.SKU == "KB-WHT-002" })
	require.NoError(t, err)
	assert.True(t, found)
}

func TestGetByIDs(t *testing.T) {
	c, _, _ := newTestCollection(t)

	got, err := c.GetByIDs([]string{"p3", "p1", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Collection order, not request order.
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p3", got[1].ID)
}

func TestMalformedDocumentTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(seed, []byte("{not json"), 0o644))

	c := NewCollection[types.Product]("products", Settings{
		SeedPath: seed,
		Dynamic:  false,
		CacheTTL: time.Second,
	})

	all, err := c.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMissingDocumentTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	c := NewCollection[types.Product]("products", Settings{
		SeedPath: filepath.Join(dir, "absent.json"),
		Dynamic:  false,
		CacheTTL: time.Second,
	})

	n, err := c.Count(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeedModeReadsSeedOnly(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed", "products.json")
	working := filepath.Join(dir, "working", "products.json")
	writeSeed(t, seed, sampleProducts())

	c := NewCollection[types.Product]("products", Settings{
		SeedPath:    seed,
		WorkingPath: working,
		Dynamic:     false,
		CacheTTL:    time.Second,
	})

	all, err := c.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.NoFileExists(t, working)
}

func TestSetDynamicSwitchesAtRuntime(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed", "products.json")
	working := filepath.Join(dir, "working", "products.json")
	writeSeed(t, seed, sampleProducts())

	c := NewCollection[types.Product]("products", Settings{
		SeedPath:    seed,
		WorkingPath: working,
		Dynamic:     false,
		CacheTTL:    time.Second,
	})
	_, err := c.GetAll()
	require.NoError(t, err)
	assert.NoFileExists(t, working)

	c.SetDynamic(true)
	_, err = c.GetAll()
	require.NoError(t, err)
	assert.FileExists(t, working)
}

func TestCacheServesWithinFreshnessWindow(t *testing.T) {
	c, _, working := newTestCollection(t)

	_, err := c.GetAll()
	require.NoError(t, err)

	// Mutate the backing document behind the store's back; the cache
	// should still serve the stale read inside the window.
	writeSeed(t, working, sampleProducts()[:1])

	all, err := c.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	c.Invalidate()
	all, err = c.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestVersionBumpsOnWrite(t *testing.T) {
	c, _, working := newTestCollection(t)

	require.NoError(t, c.Create(types.Product{ID: "pA", SKU: "A", Title: "A", Status: types.ProductActive}))
	require.NoError(t, c.Create(types.Product{ID: "pB", SKU: "B", Title: "B", Status: types.ProductActive}))

	data, err := os.ReadFile(working)
	require.NoError(t, err)
	var doc Document[types.Product]
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 3, doc.Version) // seed v1 + two writes
	assert.False(t, doc.LastModified.IsZero())
}
