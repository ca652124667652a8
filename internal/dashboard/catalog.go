package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/citedash/internal/config"
)

// ErrDashboardNotFound is returned by Catalog.Get for unknown names.
var ErrDashboardNotFound = errors.New("dashboard not found")

// Catalog is the immutable set of loaded dashboards.
type Catalog struct {
	byName      map[string]*Dashboard
	order       []string
	defaultName string
}

// SourceFunc picks the data source of a dashboard definition.
type SourceFunc func(config.Dashboard) Source

// LoadCatalog loads every definition concurrently. A nil sourceFor reads
// the definition's data file.
func LoadCatalog(ctx context.Context, defs []config.Dashboard, defaultName string, sourceFor SourceFunc, logger *zap.Logger) (*Catalog, error) {
	if sourceFor == nil {
		sourceFor = SourceFor
	}

	loaded := make([]*Dashboard, len(defs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, def := range defs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			loaded[i] = Load(gctx, def, sourceFor(def), logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewCatalog(defaultName, loaded...)
}

// NewCatalog builds a catalog from loaded dashboards, keeping their order.
// An empty defaultName selects the first dashboard.
func NewCatalog(defaultName string, dashboards ...*Dashboard) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Dashboard, len(dashboards))}
	for _, d := range dashboards {
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate dashboard %q", d.Name)
		}
		c.byName[d.Name] = d
		c.order = append(c.order, d.Name)
	}
	if defaultName == "" && len(c.order) > 0 {
		defaultName = c.order[0]
	}
	if defaultName != "" {
		if _, ok := c.byName[defaultName]; !ok {
			return nil, fmt.Errorf("%w: default %q", ErrDashboardNotFound, defaultName)
		}
	}
	c.defaultName = defaultName
	return c, nil
}

// Get returns the named dashboard. An empty name returns the default.
func (c *Catalog) Get(name string) (*Dashboard, error) {
	if name == "" {
		name = c.defaultName
	}
	d, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrDashboardNotFound, name, c.Names())
	}
	return d, nil
}

// Default returns the default dashboard's name.
func (c *Catalog) Default() string {
	return c.defaultName
}

// Names returns dashboard names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := append([]string(nil), c.order...)
	sort.Strings(names)
	return names
}

// List returns listing entries in configuration order.
func (c *Catalog) List() []Info {
	infos := make([]Info, 0, len(c.order))
	for _, name := range c.order {
		infos = append(infos, c.byName[name].Info())
	}
	return infos
}

// Len returns the number of dashboards.
func (c *Catalog) Len() int {
	return len(c.order)
}
