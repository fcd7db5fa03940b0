package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/storekit/adminagent/logger"
	"github.com/storekit/adminagent/types"
)

// Invalidator is the part of a collection the arena needs: every live
// collection can have its cache dropped.
type Invalidator interface {
	Name() string
	Invalidate()
}

// Arena owns the set of live collections so they can be invalidated or
// reset together. It replaces an implicit module-level registry with an
// explicit list owned by whoever wires up the stores.
type Arena struct {
	mu         sync.Mutex
	stores     []Invalidator
	workingDir string
}

// NewArena creates an arena whose Reset sweeps the given working directory.
func NewArena(workingDir string) *Arena {
	return &Arena{workingDir: workingDir}
}

// Register adds a collection to the arena.
func (a *Arena) Register(s Invalidator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stores = append(a.stores, s)
}

// InvalidateAll drops every registered collection's cache.
func (a *Arena) InvalidateAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.stores {
		s.Invalidate()
	}
}

// Reset deletes the working dataset and invalidates every collection.
// The next access in dynamic mode re-copies the seed (copy-on-first-write
// re-arms). Missing working files are not an error.
func (a *Arena) Reset() error {
	a.mu.Lock()
	dir := a.workingDir
	a.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	a.InvalidateAll()
	logger.Info("working dataset reset", "dir", dir)
	return nil
}

// Catalog bundles the three domain collections behind one arena.
type Catalog struct {
	Products   *Collection[types.Product]
	Orders     *Collection[types.Order]
	Promotions *Collection[types.Promotion]
	Arena      *Arena
}

// CatalogSettings configures where the catalog's documents live.
type CatalogSettings struct {
	SeedDir    string
	WorkingDir string
	Dynamic    bool
	CacheTTL   time.Duration
}

// OpenCatalog wires up the product, order, and promotion collections and
// registers them with a shared arena.
func OpenCatalog(settings CatalogSettings) *Catalog {
	collectionSettings := func(file string) Settings {
		return Settings{
			SeedPath:    filepath.Join(settings.SeedDir, file),
			WorkingPath: filepath.Join(settings.WorkingDir, file),
			Dynamic:     settings.Dynamic,
			CacheTTL:    settings.CacheTTL,
		}
	}

	c := &Catalog{
		Products:   NewCollection[types.Product]("products", collectionSettings("products.json")),
		Orders:     NewCollection[types.Order]("orders", collectionSettings("orders.json")),
		Promotions: NewCollection[types.Promotion]("promotions", collectionSettings("promotions.json")),
		Arena:      NewArena(settings.WorkingDir),
	}
	c.Arena.Register(c.Products)
	c.Arena.Register(c.Orders)
	c.Arena.Register(c.Promotions)
	return c
}

// ProductBySKU finds the product with the given SKU.
func (c *Catalog) ProductBySKU(sku string) (types.Product, bool, error) {
	return c.Products.FindOne(func(p types.Product) bool { return p.SKU == sku })
}

// OrderByNumber finds the order with the given order number.
func (c *Catalog) OrderByNumber(number string) (types.Order, bool, error) {
	return c.Orders.FindOne(func(o types.Order) bool { return o.OrderNumber == number })
}
