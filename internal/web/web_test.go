package web

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/syncer"
)

// downAPI fails every call at the transport level.
type downAPI struct{}

func (downAPI) GetMaster(ctx context.Context) model.Result {
	return model.TransportFailure("connection refused")
}

func (downAPI) GetInventory(ctx context.Context) model.Result {
	return model.TransportFailure("connection refused")
}

func (downAPI) Post(ctx context.Context, r model.Request) model.Result {
	return model.TransportFailure("connection refused")
}

func setupMock(t *testing.T) (http.Handler, *inventory.Store) {
	t.Helper()
	store := inventory.New()
	store.Load(inventory.DefaultSeed(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)))

	mock := syncer.NewMock(0)
	ctrl := syncer.New(store, mock)

	router, err := NewRouter(ctrl, nil, nil)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, store
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(h, req)
}

// flash returns the redirect target path and its flash message.
func flash(t *testing.T, rec *httptest.ResponseRecorder) (string, string, string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	u, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	return u.Path, u.Query().Get("kind"), u.Query().Get("msg")
}

func TestListPage(t *testing.T) {
	router, _ := setupMock(t)

	rec := do(router, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"ピュアレストQR", "VVFケーブル 2.0-3C", "要発注", "開発者モード", "/items/mock1/consume"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestListPageFilters(t *testing.T) {
	router, _ := setupMock(t)

	rec := do(router, httptest.NewRequest("GET", "/?category="+url.QueryEscape("電材"), nil))
	body := rec.Body.String()
	if strings.Contains(body, "ピュアレストQR") || !strings.Contains(body, "VVFケーブル") {
		t.Error("expected category filter to keep only the cable")
	}

	rec = do(router, httptest.NewRequest("GET", "/?q=nothing-matches", nil))
	if !strings.Contains(rec.Body.String(), "アイテムが見つかりません。") {
		t.Error("expected empty state message")
	}
}

func TestListPageShowsFlash(t *testing.T) {
	router, _ := setupMock(t)

	rec := do(router, httptest.NewRequest("GET", "/?kind=success&msg="+url.QueryEscape(msgAdded), nil))
	if !strings.Contains(rec.Body.String(), msgAdded) || !strings.Contains(rec.Body.String(), "flash-success") {
		t.Error("expected success flash")
	}
}

func TestAddMergesInMockMode(t *testing.T) {
	router, store := setupMock(t)

	form := url.Values{
		"name":     {"Pipe"},
		"location": {"A"},
		"qty":      {"3"},
		"strategy": {model.StrategyAdd},
	}
	for range 2 {
		path, kind, msg := flash(t, postForm(router, "/add", form))
		if path != "/" || kind != flashSuccess || msg != msgAdded {
			t.Fatalf("unexpected redirect %s %s %s", path, kind, msg)
		}
	}

	var pipes []model.Item
	for _, item := range store.Items() {
		if item.Name == "Pipe" {
			pipes = append(pipes, item)
		}
	}
	if len(pipes) != 1 || pipes[0].Qty != 6 {
		t.Fatalf("expected one Pipe with qty 6, got %+v", pipes)
	}
	if pipes[0].Unit != model.DefaultUnit {
		t.Errorf("expected default unit, got %q", pipes[0].Unit)
	}
}

func TestAddValidation(t *testing.T) {
	router, _ := setupMock(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"negative qty", url.Values{"name": {"X"}, "qty": {"-1"}}},
		{"non-numeric qty", url.Values{"name": {"X"}, "qty": {"many"}}},
		{"blank name", url.Values{"name": {"  "}, "qty": {"1"}}},
		{"bad strategy", url.Values{"name": {"X"}, "qty": {"1"}, "strategy": {"replace"}}},
		{"negative threshold", url.Values{"name": {"X"}, "qty": {"1"}, "threshold": {"-3"}}},
		{"non-numeric threshold", url.Values{"name": {"X"}, "qty": {"1"}, "threshold": {"few"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, kind, _ := flash(t, postForm(router, "/add", tt.form))
			if path != "/add" || kind != flashError {
				t.Errorf("expected error redirect to /add, got %s %s", path, kind)
			}
		})
	}
}

func TestAddWithThreshold(t *testing.T) {
	router, store := setupMock(t)

	form := url.Values{"name": {"結束バンド"}, "location": {"倉庫A"}, "qty": {"3"}, "threshold": {"5"}, "strategy": {"new"}}
	if _, kind, _ := flash(t, postForm(router, "/add", form)); kind != flashSuccess {
		t.Fatalf("expected success, got %s", kind)
	}

	for _, item := range store.Items() {
		if item.Name != "結束バンド" {
			continue
		}
		if item.Threshold == nil || *item.Threshold != 5 || !item.LowStock() {
			t.Errorf("expected low-stock item with threshold 5, got %+v", item)
		}
		return
	}
	t.Fatal("added item not found")
}

func TestAddWithPhoto(t *testing.T) {
	api := &recordingAPI{}
	store := inventory.New()
	ctrl := syncer.New(store, syncer.NewRemote(api))
	router, err := NewRouter(ctrl, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 1600, 400))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var pngData bytes.Buffer
	png.Encode(&pngData, img)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("name", "Valve")
	mw.WriteField("qty", "2")
	mw.WriteField("strategy", model.StrategyNew)
	fw, _ := mw.CreateFormFile("photo", "valve.png")
	io.Copy(fw, &pngData)
	mw.Close()

	req := httptest.NewRequest("POST", "/add", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	path, kind, msg := flash(t, do(router, req))
	if path != "/" || kind != flashSuccess {
		t.Fatalf("unexpected redirect %s %s %s", path, kind, msg)
	}

	if len(api.posted) != 1 {
		t.Fatalf("expected one post, got %d", len(api.posted))
	}
	add, ok := api.posted[0].(model.AddItem)
	if !ok {
		t.Fatalf("expected AddItem, got %T", api.posted[0])
	}
	if !strings.HasPrefix(add.PhotoBase64, "data:image/jpeg;base64,") {
		t.Errorf("expected compressed JPEG data URL, got %.40q", add.PhotoBase64)
	}
}

// recordingAPI accepts every write and serves an empty inventory.
type recordingAPI struct {
	posted []model.Request
}

func (a *recordingAPI) GetMaster(ctx context.Context) model.Result {
	return model.Result{Success: true, Data: []byte(`{"categories":[],"locations":[]}`)}
}

func (a *recordingAPI) GetInventory(ctx context.Context) model.Result {
	return model.Result{Success: true, Data: []byte(`[]`)}
}

func (a *recordingAPI) Post(ctx context.Context, r model.Request) model.Result {
	a.posted = append(a.posted, r)
	return model.Result{Success: true}
}

func TestConsumeFlow(t *testing.T) {
	router, store := setupMock(t)

	rec := do(router, httptest.NewRequest("GET", "/items/mock2/consume", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "現在の在庫: 2 巻") {
		t.Fatalf("expected consume page, got %d", rec.Code)
	}

	path, kind, msg := flash(t, postForm(router, "/items/mock2/consume", url.Values{"qty": {"5"}, "note": {"現場"}}))
	if path != "/" || kind != flashSuccess || msg != msgConsumed {
		t.Fatalf("unexpected redirect %s %s %s", path, kind, msg)
	}

	item, _ := store.Find("mock2")
	if item.Qty != 0 || item.Status != model.ItemStatusOut {
		t.Errorf("expected qty 0 out, got %d %q", item.Qty, item.Status)
	}

	path, kind, _ = flash(t, postForm(router, "/items/mock2/consume", url.Values{"qty": {"0"}}))
	if path != "/items/mock2/consume" || kind != flashError {
		t.Errorf("expected zero qty to be rejected, got %s %s", path, kind)
	}
}

func TestConsumeCompletesAfterClientLeaves(t *testing.T) {
	store := inventory.New()
	store.Load(inventory.DefaultSeed(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)))
	router, err := NewRouter(syncer.New(store, syncer.NewMock(30*time.Millisecond)), nil, nil)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	req := httptest.NewRequestWithContext(ctx, "POST", "/items/mock1/consume", strings.NewReader(url.Values{"qty": {"3"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, kind, msg := flash(t, do(router, req))
	if kind != flashSuccess || msg != msgConsumed {
		t.Errorf("expected success flash, got %s %s", kind, msg)
	}
	if item, _ := store.Find("mock1"); item.Qty != 7 {
		t.Errorf("expected qty 7, got %d", item.Qty)
	}
}

func TestConsumeRedirectEscapesID(t *testing.T) {
	router, _ := setupMock(t)

	rec := postForm(router, "/items/a%3Fb/consume", url.Values{"qty": {"0"}})
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/items/a%3Fb/consume?") {
		t.Errorf("expected escaped item id in redirect, got %q", loc)
	}
	path, kind, _ := flash(t, rec)
	if path != "/items/a?b/consume" || kind != flashError {
		t.Errorf("unexpected redirect %s %s", path, kind)
	}
}

func TestArchiveFlow(t *testing.T) {
	router, store := setupMock(t)

	path, kind, msg := flash(t, postForm(router, "/items/mock1/archive", nil))
	if path != "/" || kind != flashSuccess || msg != msgArchived {
		t.Fatalf("unexpected redirect %s %s %s", path, kind, msg)
	}

	item, _ := store.Find("mock1")
	if !item.Archived() {
		t.Fatal("expected item to be archived")
	}

	rec := do(router, httptest.NewRequest("GET", "/?q="+url.QueryEscape("ピュアレスト"), nil))
	if strings.Contains(rec.Body.String(), "item-card") {
		t.Error("archived item should not be listed")
	}

	rec = do(router, httptest.NewRequest("GET", "/items/mock1/consume", nil))
	if _, _, msg := flash(t, rec); msg != msgItemNotFound {
		t.Errorf("expected not found flash for archived item, got %q", msg)
	}

	_, kind, msg = flash(t, postForm(router, "/items/mock1/archive", nil))
	if kind != flashError || msg != msgItemNotFound {
		t.Errorf("expected archiving twice to fail, got %s %q", kind, msg)
	}
}

func TestSync(t *testing.T) {
	router, _ := setupMock(t)

	_, kind, msg := flash(t, postForm(router, "/sync", nil))
	if kind != flashSuccess || msg != msgSynced {
		t.Errorf("expected mock sync to succeed, got %s %q", kind, msg)
	}

	ctrl := syncer.New(inventory.New(), syncer.NewRemote(downAPI{}))
	down, err := NewRouter(ctrl, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, kind, msg = flash(t, postForm(down, "/sync", nil))
	if kind != flashError || msg != msgOffline {
		t.Errorf("expected offline flash, got %s %q", kind, msg)
	}

	rec := do(down, httptest.NewRequest("GET", "/", nil))
	if strings.Contains(rec.Body.String(), "開発者モード") {
		t.Error("connected mode should not show the mock banner")
	}
}

func TestConnectedWriteFailures(t *testing.T) {
	store := inventory.New()
	store.ReplaceItems([]model.Item{{ID: "7", Name: "Tape", Qty: 3, Status: model.ItemStatusActive}})
	ctrl := syncer.New(store, syncer.NewRemote(downAPI{}))
	router, err := NewRouter(ctrl, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, kind, msg := flash(t, postForm(router, "/items/7/consume", url.Values{"qty": {"1"}}))
	if kind != flashError || msg != msgCommError {
		t.Errorf("expected communication error, got %s %q", kind, msg)
	}

	item, _ := store.Find("7")
	if item.Qty != 3 {
		t.Errorf("failed write must not touch the store, got qty %d", item.Qty)
	}
}

func TestStaticAssets(t *testing.T) {
	router, _ := setupMock(t)

	for _, path := range []string{"/static/app.css", "/static/app.js", "/static/manifest.json"} {
		rec := do(router, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{syncer.ErrRefreshFailed, msgSavedNotSynced},
		{syncer.ErrUnreachable, msgCommError},
		{inventory.ErrArchived, msgItemNotFound},
		{syncer.ErrRejected, msgAddFailed},
	}
	for _, tt := range tests {
		if got := failureMessage(tt.err, msgAddFailed); got != tt.want {
			t.Errorf("failureMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
