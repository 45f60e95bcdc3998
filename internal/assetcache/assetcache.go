// Package assetcache keeps a versioned copy of the app's static assets in
// SQLite and serves them ahead of the network, so pages still render when
// upstream hosts (web fonts) are unreachable.
package assetcache

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"
)

// maxAssetSize bounds a single fetched asset.
const maxAssetSize = 5 << 20

// Entry maps a served path to where its content comes from. Source is either
// a path inside the cache's file system or an absolute http(s) URL.
type Entry struct {
	Path   string
	Source string
}

// remote reports whether the entry is fetched over the network.
func (e Entry) remote() bool {
	return strings.HasPrefix(e.Source, "http://") || strings.HasPrefix(e.Source, "https://")
}

// Cache is one named version of the asset manifest.
type Cache struct {
	db         *sql.DB
	name       string
	entries    []Entry
	fsys       fs.FS
	httpClient *http.Client
	excluded   []string
}

// Option configures a Cache.
type Option func(*Cache)

// WithFS sets the file system local sources are read from.
func WithFS(fsys fs.FS) Option {
	return func(c *Cache) { c.fsys = fsys }
}

// WithHTTPClient sets the client remote sources are fetched with.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Cache) { c.httpClient = hc }
}

// WithExcludedHosts lists hosts whose responses are never cached, such as
// the inventory API and photo hosts.
func WithExcludedHosts(hosts ...string) Option {
	return func(c *Cache) {
		for _, h := range hosts {
			if h != "" {
				c.excluded = append(c.excluded, strings.ToLower(h))
			}
		}
	}
}

// New creates a cache named name (include a version, e.g. "zaloga-v1") over
// the given manifest.
func New(db *sql.DB, name string, entries []Entry, opts ...Option) *Cache {
	c := &Cache{
		db:         db,
		name:       name,
		entries:    entries,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the cache name.
func (c *Cache) Name() string {
	return c.name
}

// Excluded reports whether rawURL points at an excluded host.
func (c *Cache) Excluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return slices.Contains(c.excluded, strings.ToLower(u.Hostname()))
}

type asset struct {
	path        string
	contentType string
	body        []byte
}

// Install fetches every manifest entry and stores the set. Either all
// entries are stored or, on any failure, none are.
func (c *Cache) Install(ctx context.Context) error {
	var assets []asset
	for _, e := range c.entries {
		if e.remote() && c.Excluded(e.Source) {
			slog.Info("asset not cached, excluded host", "path", e.Path, "source", e.Source)
			continue
		}
		a, err := c.fetch(ctx, e)
		if err != nil {
			return fmt.Errorf("installing %s: %w", e.Path, err)
		}
		assets = append(assets, a)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM asset_cache WHERE cache_name = ?`, c.name); err != nil {
		return fmt.Errorf("clearing cache %s: %w", c.name, err)
	}
	for _, a := range assets {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO asset_cache (cache_name, path, content_type, body) VALUES (?, ?, ?, ?)`,
			c.name, a.path, a.contentType, a.body,
		)
		if err != nil {
			return fmt.Errorf("storing %s: %w", a.path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache %s: %w", c.name, err)
	}

	slog.Info("asset cache installed", "cache", c.name, "assets", len(assets))
	return nil
}

// Activate deletes every other cache version and returns how many entries
// were removed.
func (c *Cache) Activate(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM asset_cache WHERE cache_name != ?`, c.name)
	if err != nil {
		return 0, fmt.Errorf("deleting stale caches: %w", err)
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		slog.Info("stale asset caches deleted", "cache", c.name, "entries", n)
	}
	return n, nil
}

func (c *Cache) fetch(ctx context.Context, e Entry) (asset, error) {
	if e.remote() {
		return c.fetchRemote(ctx, e)
	}
	if c.fsys == nil {
		return asset{}, fmt.Errorf("no file system for local source %q", e.Source)
	}
	body, err := fs.ReadFile(c.fsys, strings.TrimPrefix(e.Source, "/"))
	if err != nil {
		return asset{}, fmt.Errorf("reading %s: %w", e.Source, err)
	}
	return asset{path: e.Path, contentType: contentType(e.Source, body), body: body}, nil
}

func (c *Cache) fetchRemote(ctx context.Context, e Entry) (asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.Source, nil)
	if err != nil {
		return asset{}, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return asset{}, fmt.Errorf("fetching %s: %w", e.Source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return asset{}, fmt.Errorf("fetching %s: unexpected status %d", e.Source, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return asset{}, fmt.Errorf("reading %s: %w", e.Source, err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = contentType(e.Path, body)
	}
	return asset{path: e.Path, contentType: ct, body: body}, nil
}

func contentType(name string, body []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(body)
}

// Handler serves cached assets first. Requests for paths not in the cache go
// to next, except remote manifest entries, which redirect to their source.
func (c *Cache) Handler(next http.Handler) http.Handler {
	remote := make(map[string]string)
	for _, e := range c.entries {
		if e.remote() {
			remote[e.Path] = e.Source
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		var (
			ct       string
			body     []byte
			cachedAt time.Time
		)
		err := c.db.QueryRowContext(r.Context(),
			`SELECT content_type, body, cached_at FROM asset_cache WHERE cache_name = ? AND path = ?`,
			c.name, r.URL.Path,
		).Scan(&ct, &body, &cachedAt)
		switch {
		case err == nil:
			w.Header().Set("Content-Type", ct)
			http.ServeContent(w, r, r.URL.Path, cachedAt, bytes.NewReader(body))
			return
		case err != sql.ErrNoRows:
			slog.Error("asset cache lookup", "path", r.URL.Path, "error", err)
		}

		if src, ok := remote[r.URL.Path]; ok {
			http.Redirect(w, r, src, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
