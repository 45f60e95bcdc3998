package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/zaloga/internal/imaging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// maxBodySize bounds a POST body; photos arrive base64 encoded inline.
const maxBodySize = 32 << 20

// actionGetHistory lists the consumption log. It is not used by the app.
const actionGetHistory = "getHistory"

// ExecHandler serves the single /exec endpoint.
type ExecHandler struct {
	DB *sql.DB
}

// Get handles GET /exec?action=...
func (h *ExecHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	switch action := q.Get("action"); action {
	case model.ActionGetMaster:
		m, err := store.GetMaster(ctx, h.DB)
		if err != nil {
			h.internal(w, action, err)
			return
		}
		ok(w, m)

	case model.ActionGetInventory:
		items, err := store.ListItems(ctx, h.DB)
		if err != nil {
			h.internal(w, action, err)
			return
		}
		if items == nil {
			items = []model.Item{}
		}
		base := baseURL(r)
		for i := range items {
			items[i].PhotoURLs = absolutePhotos(base, items[i].PhotoURLs)
		}
		ok(w, items)

	case actionGetHistory:
		var itemID int64
		if s := q.Get("item_id"); s != "" {
			id, err := store.ParseItemID(s)
			if err != nil {
				fail(w, err.Error())
				return
			}
			itemID = id
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		history, err := store.ListConsumptions(ctx, h.DB, itemID, limit)
		if err != nil {
			h.internal(w, action, err)
			return
		}
		ok(w, history)

	default:
		fail(w, "unknown action: "+action)
	}
}

// Post handles POST /exec with a JSON action body.
func (h *ExecHandler) Post(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		fail(w, "request body too large")
		return
	}

	req, err := model.DecodeRequest(body)
	if err != nil {
		fail(w, err.Error())
		return
	}

	client := ""
	if claims := GetClaims(r.Context()); claims != nil {
		client = claims.Client
	}

	switch req := req.(type) {
	case model.AddItem:
		h.addItem(w, r, req, client)
	case model.ConsumeItem:
		h.consumeItem(w, r, req, client)
	case model.ArchiveItem:
		h.archiveItem(w, r, req, client)
	}
}

func (h *ExecHandler) addItem(w http.ResponseWriter, r *http.Request, a model.AddItem, client string) {
	var photo []byte
	var mime string
	if a.PhotoBase64 != "" {
		var err error
		photo, mime, err = imaging.DecodeDataURL(a.PhotoBase64)
		if err != nil {
			fail(w, "invalid photo")
			return
		}
		if !imaging.AllowedMIME[mime] {
			fail(w, "unsupported photo type: "+mime)
			return
		}
	}

	item, err := store.AddItem(r.Context(), h.DB, a, photo, mime)
	if err != nil {
		h.writeError(w, model.ActionAddItem, err)
		return
	}
	item.PhotoURLs = absolutePhotos(baseURL(r), item.PhotoURLs)

	slog.Info("item added", "item_id", item.ID, "name", item.Name, "qty", a.Qty,
		"strategy", a.Strategy, "client", client)
	ok(w, item)
}

func (h *ExecHandler) consumeItem(w http.ResponseWriter, r *http.Request, c model.ConsumeItem, client string) {
	id, err := store.ParseItemID(c.ItemID)
	if err != nil {
		fail(w, err.Error())
		return
	}

	item, err := store.ConsumeItem(r.Context(), h.DB, id, c.Qty, c.Note)
	if err != nil {
		h.writeError(w, model.ActionConsumeItem, err)
		return
	}
	item.PhotoURLs = absolutePhotos(baseURL(r), item.PhotoURLs)

	slog.Info("item consumed", "item_id", item.ID, "qty", c.Qty, "remaining", item.Qty, "client", client)
	ok(w, item)
}

func (h *ExecHandler) archiveItem(w http.ResponseWriter, r *http.Request, a model.ArchiveItem, client string) {
	id, err := store.ParseItemID(a.ItemID)
	if err != nil {
		fail(w, err.Error())
		return
	}

	if err := store.ArchiveItem(r.Context(), h.DB, id); err != nil {
		h.writeError(w, model.ActionArchiveItem, err)
		return
	}

	slog.Info("item archived", "item_id", a.ItemID, "client", client)
	ok(w, map[string]string{"item_id": a.ItemID})
}

// writeError reports known failures to the caller and hides the rest.
func (h *ExecHandler) writeError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrArchived),
		errors.Is(err, model.ErrInvalidQty):
		fail(w, err.Error())
	default:
		h.internal(w, action, err)
	}
}

func (h *ExecHandler) internal(w http.ResponseWriter, action string, err error) {
	slog.Error("exec action failed", "action", action, "error", err)
	fail(w, "internal error")
}

// GetPhoto handles GET /photos/{id}.
func (h *ExecHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemPhoto(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting photo", "item_id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// baseURL is the scheme and host the request was addressed to.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// absolutePhotos prefixes server-relative photo paths with base.
func absolutePhotos(base, urls string) string {
	if urls == "" {
		return ""
	}
	parts := strings.Split(urls, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "/") {
			p = base + p
		}
		parts[i] = p
	}
	return strings.Join(parts, ",")
}
