package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/erazemk/zaloga/internal/imaging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/view"
	"github.com/erazemk/zaloga/internal/websocket"
)

// maxFormSize bounds the add form, photo included.
const maxFormSize = imaging.MaxInputSize + 1<<20

// ListPage handles GET /.
func (s *Server) ListPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := view.Filter{
		Search:   q.Get("q"),
		Category: q.Get("category"),
		Location: q.Get("location"),
		Sort:     view.ParseSort(q.Get("sort")),
	}

	store := s.Sync.Store()
	items := view.Project(store.Items(), filter)

	s.Templates.Render(w, "list.html", &struct {
		PageData
		Items  []model.Item
		Master model.MasterData
		Filter view.Filter
		Sorts  []sortOption
	}{
		PageData: s.page(r, "在庫一覧", "list"),
		Items:    items,
		Master:   store.Master(),
		Filter:   filter,
		Sorts:    sortOptions,
	})
}

type sortOption struct {
	Value string
	Label string
}

var sortOptions = []sortOption{
	{view.SortUpdatedDesc, "更新日が新しい順"},
	{view.SortQtyAsc, "在庫が少ない順"},
}

// AddPage handles GET /add.
func (s *Server) AddPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "add.html", &struct {
		PageData
		Master      model.MasterData
		DefaultUnit string
	}{
		PageData:    s.page(r, "在庫登録", "add"),
		Master:      s.Sync.Store().Master(),
		DefaultUnit: model.DefaultUnit,
	})
}

// AddSubmit handles POST /add.
func (s *Server) AddSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Warn("failed to parse add form", "error", err)
		redirectFlash(w, r, "/add", flashError, msgPhotoRejected)
		return
	}

	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("qty")))
	if err != nil || qty < 0 {
		redirectFlash(w, r, "/add", flashError, msgInvalidQty)
		return
	}

	a := model.AddItem{
		Name:     r.FormValue("name"),
		Category: r.FormValue("category"),
		Location: r.FormValue("location"),
		Qty:      qty,
		Unit:     r.FormValue("unit"),
		Strategy: r.FormValue("strategy"),
		Note:     r.FormValue("note"),
	}

	if v := strings.TrimSpace(r.FormValue("threshold")); v != "" {
		threshold, err := strconv.Atoi(v)
		if err != nil || threshold < 0 {
			redirectFlash(w, r, "/add", flashError, msgInvalidThreshold)
			return
		}
		a.Threshold = &threshold
	}

	if file, _, err := r.FormFile("photo"); err == nil {
		photo, err := imaging.CompressDefault(file)
		file.Close()
		if err != nil {
			slog.Warn("failed to process photo", "error", err)
			redirectFlash(w, r, "/add", flashError, msgPhotoRejected)
			return
		}
		a.PhotoBase64 = photo.DataURL()
	}

	if err := s.Sync.Add(r.Context(), a); err != nil {
		switch {
		case errors.Is(err, model.ErrNameRequired):
			redirectFlash(w, r, "/add", flashError, "品名を入力してください。")
		case errors.Is(err, model.ErrInvalidQty), errors.Is(err, model.ErrInvalidThreshold), errors.Is(err, model.ErrInvalidStrategy):
			redirectFlash(w, r, "/add", flashError, msgAddFailed)
		default:
			redirectFlash(w, r, "/", flashError, failureMessage(err, msgAddFailed))
		}
		return
	}

	redirectFlash(w, r, "/", flashSuccess, msgAdded)
}

// ConsumePage handles GET /items/{id}/consume.
func (s *Server) ConsumePage(w http.ResponseWriter, r *http.Request) {
	item, ok := s.Sync.Store().Find(r.PathValue("id"))
	if !ok || item.Archived() {
		redirectFlash(w, r, "/", flashError, msgItemNotFound)
		return
	}

	s.Templates.Render(w, "consume.html", &struct {
		PageData
		Item model.Item
	}{
		PageData: s.page(r, item.Name, "list"),
		Item:     item,
	})
}

// ConsumeSubmit handles POST /items/{id}/consume.
func (s *Server) ConsumeSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("qty")))
	if err != nil || qty < 1 {
		redirectFlash(w, r, "/items/"+url.PathEscape(id)+"/consume", flashError, msgInvalidQty)
		return
	}

	if err := s.Sync.Consume(r.Context(), id, qty, r.FormValue("note")); err != nil {
		redirectFlash(w, r, "/", flashError, failureMessage(err, msgConsumeFailed))
		return
	}

	redirectFlash(w, r, "/", flashSuccess, msgConsumed)
}

// ArchiveSubmit handles POST /items/{id}/archive.
func (s *Server) ArchiveSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.Sync.Archive(r.Context(), r.PathValue("id")); err != nil {
		redirectFlash(w, r, "/", flashError, failureMessage(err, msgArchiveFailed))
		return
	}

	redirectFlash(w, r, "/", flashSuccess, msgArchived)
}

// SyncSubmit handles POST /sync.
func (s *Server) SyncSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.Sync.Refresh(r.Context()); err != nil {
		if s.Hub != nil {
			s.Hub.Broadcast(websocket.Message{Type: websocket.TypeSyncFailed, Error: msgOffline})
		}
		redirectFlash(w, r, "/", flashError, msgOffline)
		return
	}

	redirectFlash(w, r, "/", flashSuccess, msgSynced)
}
