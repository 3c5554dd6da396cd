package i18n

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const switchTimeout = 10 * time.Second

// Translator resolves keys for one browser's active locale.
type Translator struct {
	catalog *Catalog

	mu       sync.RWMutex
	locale   string
	active   Tree
	fallback Tree
	gen      uint64
}

// NewTranslator starts on English and, for any other locale, begins loading
// it in the background.
func NewTranslator(ctx context.Context, catalog *Catalog, locale string) *Translator {
	english, _ := catalog.English(ctx)
	t := &Translator{
		catalog:  catalog,
		locale:   DefaultLocale,
		active:   english,
		fallback: english,
	}
	if locale != "" && locale != DefaultLocale {
		t.Switch(ctx, locale)
	}
	return t
}

// Locale returns the selected locale code.
func (t *Translator) Locale() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.locale
}

// Resolve returns the localized text for key, substituting every "{name}"
// placeholder present in params. It never fails: a key missing from both the
// active and the English tree resolves to itself.
func (t *Translator) Resolve(key string, params map[string]any) string {
	t.mu.RLock()
	active, fallback := t.active, t.fallback
	t.mu.RUnlock()
	return Resolve(active, fallback, key, params)
}

// T is Resolve without parameters.
func (t *Translator) T(key string) string {
	return t.Resolve(key, nil)
}

// Switch selects code and reloads its tree asynchronously. The previous tree
// keeps serving until the load finishes; a failed load falls back to
// English. The returned channel closes once the new tree is in place.
func (t *Translator) Switch(ctx context.Context, code string) <-chan struct{} {
	done := make(chan struct{})

	normalized, err := Normalize(code)
	if err != nil {
		log.Warn().Err(err).Msg("rejecting locale, using English")
		normalized = DefaultLocale
	}

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.locale = normalized
	t.mu.Unlock()

	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), switchTimeout)
	go func() {
		defer close(done)
		defer cancel()

		english, _ := t.catalog.English(loadCtx)
		tree, err := t.catalog.Load(loadCtx, normalized)
		if err != nil {
			log.Warn().Err(err).Str("locale", normalized).Msg("locale load failed, falling back to English")
			tree = english
		}

		t.mu.Lock()
		defer t.mu.Unlock()
		if t.gen != gen {
			return
		}
		t.active = tree
		t.fallback = english
	}()
	return done
}

// Resolve looks key up in active, then fallback, then returns key.
func Resolve(active, fallback Tree, key string, params map[string]any) string {
	text, ok := lookup(active, key)
	if !ok {
		text, ok = lookup(fallback, key)
	}
	if !ok {
		text = key
	}
	if len(params) == 0 {
		return text
	}
	// One pass, so a value that looks like a placeholder is left as is.
	pairs := make([]string, 0, 2*len(params))
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func lookup(tree Tree, key string) (string, bool) {
	if tree == nil {
		return "", false
	}
	var cur any = map[string]any(tree)
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		if cur, ok = m[part]; !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok && s != ""
}
