package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

//go:embed locales/*.json
var embedded embed.FS

// Source returns the raw JSON document of one locale.
type Source interface {
	Load(ctx context.Context, code string) ([]byte, error)
}

// FSSource reads "<dir>/<code>.json" from a file system.
type FSSource struct {
	fsys fs.FS
	dir  string
}

func NewFSSource(fsys fs.FS, dir string) *FSSource {
	return &FSSource{fsys: fsys, dir: dir}
}

// EmbeddedSource serves the locale files compiled into the binary.
func EmbeddedSource() *FSSource {
	return NewFSSource(embedded, "locales")
}

// EmbeddedFS exposes the compiled locale files for static serving.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}

func (s *FSSource) Load(_ context.Context, code string) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, path.Join(s.dir, code+".json"))
	if err != nil {
		return nil, fmt.Errorf("could not load %s translations: %w", code, err)
	}
	return data, nil
}

// HTTPSource fetches GET {baseURL}/locales/{code}.json.
type HTTPSource struct {
	client *resty.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &HTTPSource{client: client}
}

func (s *HTTPSource) Load(ctx context.Context, code string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("code", code).
		Get("/locales/{code}.json")
	if err != nil {
		return nil, fmt.Errorf("fetch %s translations: %w", code, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("could not load %s translations: %s", code, resp.Status())
	}
	return resp.Body(), nil
}
