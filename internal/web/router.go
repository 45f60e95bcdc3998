package web

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/assetcache"
	"github.com/erazemk/zaloga/internal/syncer"
	"github.com/erazemk/zaloga/internal/websocket"
	webembed "github.com/erazemk/zaloga/web"
)

// CacheName versions the offline asset set. Bump it when Assets changes.
const CacheName = "zaloga-v1"

// Assets is the offline asset manifest. Pages themselves are rendered from
// live data and are never cached.
var Assets = []assetcache.Entry{
	{Path: "/static/app.css", Source: "static/app.css"},
	{Path: "/static/app.js", Source: "static/app.js"},
	{Path: "/static/manifest.json", Source: "static/manifest.json"},
	{Path: "/static/icon.svg", Source: "static/icon.svg"},
	{Path: "/fonts/inter.css", Source: "https://fonts.googleapis.com/css2?family=Inter:wght@400;600;700&display=swap"},
	{Path: "/fonts/symbols.css", Source: "https://fonts.googleapis.com/css2?family=Material+Symbols+Outlined:opsz,wght,FILL,GRAD@20..48,100..700,0..1,-50..200"},
}

// NewRouter creates the page router. A nil cache serves assets straight
// from the binary; a nil hub disables live updates.
func NewRouter(ctrl *syncer.Controller, hub *websocket.Hub, cache *assetcache.Cache) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Sync:      ctrl,
		Templates: templates,
		Hub:       hub,
	}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /{$}", s.ListPage)
	mux.HandleFunc("GET /add", s.AddPage)
	mux.HandleFunc("POST /add", s.AddSubmit)
	mux.HandleFunc("GET /items/{id}/consume", s.ConsumePage)
	mux.HandleFunc("POST /items/{id}/consume", s.ConsumeSubmit)
	mux.HandleFunc("POST /items/{id}/archive", s.ArchiveSubmit)
	mux.HandleFunc("POST /sync", s.SyncSubmit)

	if hub != nil {
		mux.HandleFunc("GET /ws", websocket.HandleWebSocket(hub))
	}

	if cache == nil {
		return mux, nil
	}
	return cache.Handler(mux), nil
}
