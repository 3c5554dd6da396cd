// Package i18n resolves dotted translation keys against nested locale trees,
// falling back to English and finally to the key itself.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Tree is the nested string-keyed document of one locale.
type Tree map[string]any

// Catalog loads locale trees. English is cached after its first successful
// load; other locales are fetched again on every switch.
type Catalog struct {
	source Source
	group  singleflight.Group

	mu      sync.RWMutex
	english Tree
}

func NewCatalog(source Source) *Catalog {
	return &Catalog{source: source}
}

// Init eagerly loads the English tree.
func (c *Catalog) Init(ctx context.Context) error {
	_, err := c.English(ctx)
	return err
}

// English returns the cached fallback tree, loading it if needed. On failure
// an empty tree is returned along with the error so callers keep working.
func (c *Catalog) English(ctx context.Context) (Tree, error) {
	c.mu.RLock()
	tree := c.english
	c.mu.RUnlock()
	if tree != nil {
		return tree, nil
	}

	tree, err := c.fetch(ctx, DefaultLocale)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load fallback translations")
		return Tree{}, err
	}
	c.mu.Lock()
	c.english = tree
	c.mu.Unlock()
	return tree, nil
}

// Load returns the tree for code. English is served from the cache.
func (c *Catalog) Load(ctx context.Context, code string) (Tree, error) {
	if code == DefaultLocale {
		return c.English(ctx)
	}
	return c.fetch(ctx, code)
}

func (c *Catalog) fetch(ctx context.Context, code string) (Tree, error) {
	v, err, _ := c.group.Do(code, func() (any, error) {
		raw, err := c.source.Load(ctx, code)
		if err != nil {
			return nil, err
		}
		var tree Tree
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parse %s translations: %w", code, err)
		}
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Tree), nil
}
