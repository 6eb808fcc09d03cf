package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hoanghai1803/ilistas/internal/feeds"
	"github.com/hoanghai1803/ilistas/internal/lists"
	"github.com/hoanghai1803/ilistas/internal/metrics"
	"github.com/hoanghai1803/ilistas/internal/models"
	"github.com/hoanghai1803/ilistas/internal/storage"
)

const watchlistRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Letterboxd</title>
    <item><title>Perfect Days</title><link>https://example.com/perfect-days</link></item>
    <item><title>Past Lives</title><link>https://example.com/past-lives</link></item>
  </channel>
</rss>`

// newTestServer starts the full router over an in-memory store.
func newTestServer(t *testing.T) (*httptest.Server, *metrics.Metrics) {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	store := storage.NewSQLiteStore(db)

	m := metrics.New(store)
	svc := lists.NewService(store,
		lists.WithObserver(m),
		lists.WithFetcher(feeds.NewFetcher(5*time.Second), feeds.FetchOptions{MaxItems: 10}),
	)

	srv := httptest.NewServer(NewRouter(Deps{Service: svc, Store: store, Metrics: m}))
	t.Cleanup(srv.Close)
	return srv, m
}

// do sends a JSON request and decodes the JSON response into out.
func do(t *testing.T, method, url string, body, out any) int {
	t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestRouter_ListLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	api := srv.URL + "/api"

	var list models.List
	if code := do(t, http.MethodPost, api+"/lists", map[string]string{"titulo": "Filmes"}, &list); code != http.StatusCreated {
		t.Fatalf("create list got %d", code)
	}

	var item models.Item
	code := do(t, http.MethodPost, api+"/lists/"+list.ID+"/items",
		map[string]string{"nome": "Matrix", "verEm": "Netflix", "tipo": "filme"}, &item)
	if code != http.StatusCreated {
		t.Fatalf("add item got %d", code)
	}

	var afterToggle models.List
	code = do(t, http.MethodPost, api+"/lists/"+list.ID+"/items/"+item.ID+"/watched", nil, &afterToggle)
	if code != http.StatusOK || len(afterToggle.Items) != 0 {
		t.Fatalf("toggle got %d, items %+v", code, afterToggle.Items)
	}

	var index struct {
		Lists          []models.List `json:"lists"`
		WatchedVisible bool          `json:"watchedVisible"`
	}
	do(t, http.MethodGet, api+"/lists", nil, &index)
	if !index.WatchedVisible || len(index.Lists) != 2 {
		t.Errorf("index = %+v", index)
	}

	var watched struct {
		List models.List `json:"list"`
	}
	do(t, http.MethodGet, api+"/lists/assistidos", nil, &watched)
	if len(watched.List.Items) != 1 || watched.List.Items[0].OriginListID != list.ID {
		t.Errorf("watched = %+v", watched.List)
	}

	if code := do(t, http.MethodDelete, api+"/lists/"+list.ID, nil, nil); code != http.StatusOK {
		t.Fatalf("delete got %d", code)
	}
	do(t, http.MethodGet, api+"/lists/assistidos", nil, &watched)
	if len(watched.List.Items) != 0 {
		t.Errorf("watched copies survived list deletion: %+v", watched.List.Items)
	}

	var missing map[string]string
	if code := do(t, http.MethodGet, api+"/lists/"+list.ID, nil, &missing); code != http.StatusNotFound || missing["redirect"] != "/api/lists" {
		t.Errorf("deleted list got %d %v", code, missing)
	}
}

func TestRouter_ShareRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	api := srv.URL + "/api"

	var list models.List
	do(t, http.MethodPost, api+"/lists", map[string]string{"titulo": "Animes", "descricao": "temporada"}, &list)
	do(t, http.MethodPost, api+"/lists/"+list.ID+"/items", map[string]string{"nome": "Frieren", "tipo": "anime"}, nil)

	var shared map[string]string
	if code := do(t, http.MethodPost, api+"/lists/"+list.ID+"/share", nil, &shared); code != http.StatusOK {
		t.Fatalf("share got %d", code)
	}
	if !strings.HasPrefix(shared["url"], srv.URL+"/share/") {
		t.Fatalf("url = %q", shared["url"])
	}

	// Importing into the same instance finds the list already carrying the
	// share ID.
	var imported struct {
		Status string      `json:"status"`
		List   models.List `json:"list"`
	}
	if code := do(t, http.MethodGet, shared["url"], nil, &imported); code != http.StatusOK {
		t.Fatalf("import got %d", code)
	}
	if imported.Status != "existing" || imported.List.ID != list.ID {
		t.Errorf("imported = %+v", imported)
	}
}

func TestRouter_ImportFeed(t *testing.T) {
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(watchlistRSS))
	}))
	t.Cleanup(feedSrv.Close)

	srv, _ := newTestServer(t)
	api := srv.URL + "/api"

	var list models.List
	do(t, http.MethodPost, api+"/lists", map[string]string{"titulo": "Watchlist"}, &list)

	var res lists.FeedImportResult
	code := do(t, http.MethodPost, api+"/lists/"+list.ID+"/items/from-feed",
		map[string]any{"urls": []string{feedSrv.URL + "/rss"}, "tipo": "filme"}, &res)
	if code != http.StatusOK {
		t.Fatalf("import feed got %d", code)
	}
	if res.Added != 2 || len(res.List.Items) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if it := res.List.Items[0]; it.Name != "Perfect Days" || it.WatchOn != "Letterboxd" || it.Type != models.TypeMovie {
		t.Errorf("first item = %+v", it)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	var health map[string]string
	if code := do(t, http.MethodGet, srv.URL+"/healthz", nil, &health); code != http.StatusOK || health["status"] != "ok" {
		t.Errorf("healthz = %d %v", code, health)
	}

	do(t, http.MethodGet, srv.URL+"/share/abc12345?data=broken", nil, nil)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`ilistas_share_imports_total{outcome="failed"} 1`,
		`ilistas_http_requests_total{method="GET",route="/healthz",status="200"} 1`,
		`ilistas_lists{kind="ordinary"} 0`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRouter_RedirectHintsResolve(t *testing.T) {
	srv, _ := newTestServer(t)
	api := srv.URL + "/api"

	var keep, gone models.List
	do(t, http.MethodPost, api+"/lists", map[string]string{"titulo": "Séries"}, &keep)
	do(t, http.MethodPost, api+"/lists/"+keep.ID+"/items", map[string]string{"nome": "Dark"}, nil)
	do(t, http.MethodPost, api+"/lists", map[string]string{"titulo": "Rascunho"}, &gone)

	var shared map[string]string
	do(t, http.MethodPost, api+"/lists/"+keep.ID+"/share", nil, &shared)

	hints := map[string]string{}
	var body map[string]any
	do(t, http.MethodDelete, api+"/lists/"+gone.ID, nil, &body)
	hints["deleted list"], _ = body["redirect"].(string)
	body = nil
	do(t, http.MethodGet, api+"/lists/"+gone.ID, nil, &body)
	hints["missing list"], _ = body["redirect"].(string)
	body = nil
	do(t, http.MethodGet, srv.URL+"/share/abcd1234?data=broken", nil, &body)
	hints["failed import"], _ = body["redirect"].(string)
	body = nil
	do(t, http.MethodGet, shared["url"], nil, &body)
	hints["imported list"], _ = body["redirect"].(string)

	if hints["imported list"] != "/api/lists/"+keep.ID {
		t.Errorf("imported list redirect = %q", hints["imported list"])
	}
	for name, hint := range hints {
		if !strings.HasPrefix(hint, "/") {
			t.Errorf("%s: redirect = %q, want a path", name, hint)
			continue
		}
		resp, err := http.Get(srv.URL + hint)
		if err != nil {
			t.Fatalf("%s: GET %s: %v", name, hint, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: GET %s = %d, want 200", name, hint, resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Request.URL.Path != "/api/lists" {
		t.Errorf("GET / ended at %s with %d", resp.Request.URL.Path, resp.StatusCode)
	}
}
