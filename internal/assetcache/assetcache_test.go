package assetcache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/erazemk/zaloga/internal/db"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"static/app.css": {Data: []byte("body{margin:0}")},
		"static/app.js":  {Data: []byte("console.log(1)")},
	}
}

func countRows(t *testing.T, c *Cache, name string) int {
	t.Helper()
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM asset_cache WHERE cache_name = ?`, name).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func get(t *testing.T, h http.Handler, path string) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec.Result()
}

func TestInstallAndServe(t *testing.T) {
	database := db.NewTestDB(t)

	fonts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		io.WriteString(w, "@font-face{}")
	}))
	defer fonts.Close()

	cache := New(database, "zaloga-v1", []Entry{
		{Path: "/static/app.css", Source: "static/app.css"},
		{Path: "/static/app.js", Source: "/static/app.js"},
		{Path: "/fonts/inter.css", Source: fonts.URL + "/css2?family=Inter"},
	}, WithFS(testFS()))

	if err := cache.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if n := countRows(t, cache, "zaloga-v1"); n != 3 {
		t.Fatalf("expected 3 cached assets, got %d", n)
	}

	var hits atomic.Int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	})
	h := cache.Handler(next)

	resp := get(t, h, "/static/app.css")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "body{margin:0}" {
		t.Errorf("expected cached css, got %d %q", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/css; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}

	resp = get(t, h, "/fonts/inter.css")
	body, _ = io.ReadAll(resp.Body)
	if string(body) != "@font-face{}" {
		t.Errorf("expected cached font css, got %q", body)
	}

	if hits.Load() != 0 {
		t.Errorf("expected no network hits, got %d", hits.Load())
	}

	resp = get(t, h, "/items")
	if resp.StatusCode != http.StatusNotFound || hits.Load() != 1 {
		t.Errorf("expected uncached path to reach next, got %d", resp.StatusCode)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/static/app.css", nil))
	if hits.Load() != 2 {
		t.Error("expected POST to bypass the cache")
	}
}

func TestInstallIsAllOrNothing(t *testing.T) {
	database := db.NewTestDB(t)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer down.Close()

	cache := New(database, "zaloga-v1", []Entry{
		{Path: "/static/app.css", Source: "static/app.css"},
		{Path: "/fonts/inter.css", Source: down.URL + "/css"},
	}, WithFS(testFS()))

	if err := cache.Install(context.Background()); err == nil {
		t.Fatal("expected install to fail")
	}
	if n := countRows(t, cache, "zaloga-v1"); n != 0 {
		t.Errorf("expected nothing cached after failed install, got %d", n)
	}

	missing := New(database, "zaloga-v1", []Entry{
		{Path: "/static/app.css", Source: "static/app.css"},
		{Path: "/static/nope.css", Source: "static/nope.css"},
	}, WithFS(testFS()))
	if err := missing.Install(context.Background()); err == nil {
		t.Fatal("expected install with a missing file to fail")
	}
	if n := countRows(t, cache, "zaloga-v1"); n != 0 {
		t.Errorf("expected nothing cached, got %d", n)
	}
}

func TestExcludedHostsAreNeverCached(t *testing.T) {
	database := db.NewTestDB(t)

	var fetched atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched.Add(1)
		io.WriteString(w, "{}")
	}))
	defer api.Close()
	u, _ := url.Parse(api.URL)

	cache := New(database, "zaloga-v1", []Entry{
		{Path: "/static/app.css", Source: "static/app.css"},
		{Path: "/api/exec", Source: api.URL + "/exec"},
	}, WithFS(testFS()), WithExcludedHosts(u.Hostname()))

	if !cache.Excluded(api.URL + "/exec?action=getInventory") {
		t.Error("expected API host to be excluded")
	}
	if cache.Excluded("https://fonts.googleapis.com/css2") {
		t.Error("expected font host not to be excluded")
	}

	if err := cache.Install(context.Background()); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if fetched.Load() != 0 {
		t.Error("excluded source was fetched")
	}
	if n := countRows(t, cache, "zaloga-v1"); n != 1 {
		t.Errorf("expected only the local asset cached, got %d", n)
	}

	resp := get(t, cache.Handler(http.NotFoundHandler()), "/api/exec")
	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected redirect to network for excluded entry, got %d", resp.StatusCode)
	}
}

func TestActivateDeletesOtherVersions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	entries := []Entry{{Path: "/static/app.css", Source: "static/app.css"}}

	old := New(database, "zaloga-v0", entries, WithFS(testFS()))
	if err := old.Install(ctx); err != nil {
		t.Fatal(err)
	}
	current := New(database, "zaloga-v1", entries, WithFS(testFS()))
	if err := current.Install(ctx); err != nil {
		t.Fatal(err)
	}

	n, err := current.Activate(ctx)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 stale entry removed, got %d", n)
	}
	if got := countRows(t, current, "zaloga-v0"); got != 0 {
		t.Errorf("expected old version gone, got %d rows", got)
	}
	if got := countRows(t, current, "zaloga-v1"); got != 1 {
		t.Errorf("expected current version kept, got %d rows", got)
	}

	// The old version no longer serves anything.
	resp := get(t, old.Handler(http.NotFoundHandler()), "/static/app.css")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected stale cache miss, got %d", resp.StatusCode)
	}
}

func TestReinstallReplacesEntries(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	fsys := testFS()

	cache := New(database, "zaloga-v1", []Entry{{Path: "/static/app.css", Source: "static/app.css"}}, WithFS(fsys))
	if err := cache.Install(ctx); err != nil {
		t.Fatal(err)
	}

	fsys["static/app.css"] = &fstest.MapFile{Data: []byte("body{margin:1px}")}
	if err := cache.Install(ctx); err != nil {
		t.Fatal(err)
	}

	resp := get(t, cache.Handler(http.NotFoundHandler()), "/static/app.css")
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "body{margin:1px}" {
		t.Errorf("expected reinstalled content, got %q", body)
	}
}
