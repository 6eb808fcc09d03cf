package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hoanghai1803/ilistas/internal/models"
)

func TestImportShare(t *testing.T) {
	sender := newTestService(t)
	receiver := newTestService(t)
	l := seedList(t, sender, "Filmes", "Matrix", "Akira")

	shared, link, err := sender.Share(context.Background(), l.ID, "http://localhost:8080")
	if err != nil {
		t.Fatalf("Share() error: %v", err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parsing link: %v", err)
	}

	importOnce := func() (int, map[string]any) {
		w := httptest.NewRecorder()
		r := newRequest(t, http.MethodGet, u.RequestURI(), nil, map[string]string{"shareID": shared.ShareID})
		ImportShare(receiver).ServeHTTP(w, r)
		var body map[string]any
		decodeResponse(t, w, &body)
		return w.Code, body
	}

	code, body := importOnce()
	if code != http.StatusOK {
		t.Fatalf("got status %d, want %d; body: %v", code, http.StatusOK, body)
	}
	if body["status"] != "created" {
		t.Errorf("status = %v, want created", body["status"])
	}
	first := body["redirect"]
	if list, ok := body["list"].(map[string]any); !ok || first != IndexPath+"/"+list["id"].(string) {
		t.Errorf("redirect = %v, list = %v", first, body["list"])
	}

	code, body = importOnce()
	if code != http.StatusOK || body["status"] != "existing" {
		t.Errorf("second import = %d %v, want existing", code, body["status"])
	}
	if body["redirect"] != first {
		t.Errorf("redirect = %v, want %v", body["redirect"], first)
	}

	all, err := receiver.Index(context.Background())
	if err != nil {
		t.Fatalf("Index() error: %v", err)
	}
	if len(all) != 1 || len(all[0].Items) != 2 || all[0].ShareID != shared.ShareID {
		t.Errorf("receiver lists = %+v", all)
	}
}

func TestImportShare_Invalid(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing data", ""},
		{"not base64", "***"},
		{"truncated", "eyJ0aXR1bG8iOiJGaWxt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := newRequest(t, http.MethodGet, "/share/abc12345?data="+url.QueryEscape(tt.token), nil,
				map[string]string{"shareID": "abc12345"})
			ImportShare(svc).ServeHTTP(w, r)

			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("got status %d, want %d", w.Code, http.StatusUnprocessableEntity)
			}
			var body map[string]string
			decodeResponse(t, w, &body)
			if body["status"] != "failed" || body["redirect"] != IndexPath {
				t.Errorf("body = %v", body)
			}
		})
	}

	if all, _ := svc.Index(context.Background()); len(all) != 0 {
		t.Errorf("failed imports created %d lists", len(all))
	}
}

func TestHealth(t *testing.T) {
	store := newTestStore(t)

	w := httptest.NewRecorder()
	Health(store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]string
	decodeResponse(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}

	if _, err := store.DB().Exec(`INSERT INTO kv (key, value) VALUES ('listas', 'not json')`); err != nil {
		t.Fatalf("corrupting store: %v", err)
	}
	w = httptest.NewRecorder()
	Health(store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	decodeResponse(t, w, &body)
	if body["status"] != "degraded" {
		t.Errorf("status = %q, want degraded", body["status"])
	}
}

func TestSnapshotsHandlers(t *testing.T) {
	svc := newTestService(t)
	l := seedList(t, svc, "Filmes", "Matrix")

	w := httptest.NewRecorder()
	GetSnapshots(svc).ServeHTTP(w, newRequest(t, http.MethodGet, "/api/snapshots?limit=5", nil, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
	}
	var snaps []models.Snapshot
	decodeResponse(t, w, &snaps)
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}

	w = httptest.NewRecorder()
	RestoreSnapshot(svc).ServeHTTP(w, newRequest(t, http.MethodPost, "/", nil,
		map[string]string{"snapshotID": "1"}))
	if w.Code != http.StatusOK {
		t.Fatalf("restore got status %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	got, err := svc.Get(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(got.Items) != 0 {
		t.Errorf("got %d items after restoring the first snapshot, want 0", len(got.Items))
	}

	for _, tc := range []struct {
		name, target, id string
		want             int
	}{
		{"bad limit", "/api/snapshots?limit=zero", "", http.StatusBadRequest},
		{"bad id", "/", "x", http.StatusBadRequest},
		{"missing id", "/", "999", http.StatusNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if tc.id == "" {
				GetSnapshots(svc).ServeHTTP(w, newRequest(t, http.MethodGet, tc.target, nil, nil))
			} else {
				RestoreSnapshot(svc).ServeHTTP(w, newRequest(t, http.MethodPost, tc.target, nil,
					map[string]string{"snapshotID": tc.id}))
			}
			if w.Code != tc.want {
				t.Errorf("got status %d, want %d", w.Code, tc.want)
			}
		})
	}
}
