package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sensemap/internal/mapservice"
	"github.com/starford/sensemap/internal/models"
	"github.com/starford/sensemap/internal/storage"
	"github.com/starford/sensemap/internal/testutil"
)

// testEnv sets up a temp SQLite DB, image dir, service and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*mapservice.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvFull(t, authToken != "", authToken, nil)
	return svc, router
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*mapservice.Service, http.Handler, string) {
	t.Helper()
	imageDir, images := testutil.TestImages(t)
	svc := mapservice.NewService(testutil.TestDB(t), nil)
	router := NewRouter(svc, authEnabled, authToken, sseHandler, NewImageHandler(images, 0))
	return svc, router, imageDir
}

func do(t *testing.T, router http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func createMap(t *testing.T, router http.Handler) models.Map {
	t.Helper()
	w := do(t, router, http.MethodPost, "/maps", map[string]any{"name": "Research"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create map = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[models.Map](t, w)
}

func TestMapCRUD(t *testing.T) {
	_, router := testEnv(t, "")
	m := createMap(t, router)
	if m.Type != models.MapTypePublic || m.Name != "Research" {
		t.Errorf("created map = %+v", m)
	}

	w := do(t, router, http.MethodGet, "/maps", nil)
	if list := decode[MapListResponse](t, w); len(list.Maps) != 1 {
		t.Errorf("list = %+v", list)
	}

	w = do(t, router, http.MethodPatch, "/maps/"+string(m.ID), map[string]any{"name": "Renamed"})
	if w.Code != http.StatusOK || decode[models.Map](t, w).Name != "Renamed" {
		t.Errorf("patch = %d %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodDelete, "/maps/"+string(m.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}
	if w = do(t, router, http.MethodGet, "/maps/"+string(m.ID), nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted map = %d, want 404", w.Code)
	}
}

func TestContainmentFlow(t *testing.T) {
	_, router := testEnv(t, "")
	m := createMap(t, router)
	base := "/maps/" + string(m.ID)

	w := do(t, router, http.MethodPost, base+"/boxes", map[string]any{"boxType": "INFO"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create box = %d %s", w.Code, w.Body.String())
	}
	box := decode[models.Box](t, w)
	if box.Contains == nil || len(box.Contains) != 0 {
		t.Errorf("new box contains = %#v", box.Contains)
	}

	w = do(t, router, http.MethodPost, base+"/objects", map[string]any{"objectType": "CARD", "summary": "hi"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create object = %d %s", w.Code, w.Body.String())
	}
	obj := decode[models.MapObject](t, w)

	containsPath := "/boxes/" + string(box.ID) + "/contains/" + string(obj.ID)
	w = do(t, router, http.MethodPut, containsPath, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("add = %d %s", w.Code, w.Body.String())
	}
	if res := decode[models.Containment](t, w); res.ContainsObject != obj.ID || res.BelongsToBox != box.ID {
		t.Errorf("add result = %+v", res)
	}

	w = do(t, router, http.MethodGet, "/boxes/"+string(box.ID), nil)
	if got := decode[models.Box](t, w); len(got.Contains) != 1 || got.Contains[0] != obj.ID {
		t.Errorf("contains = %v", got.Contains)
	}

	w = do(t, router, http.MethodGet, base+"/scope?box="+string(box.ID), nil)
	if sc := decode[ScopeResponse](t, w); len(sc.Objects) != 1 || sc.Scope.Type != models.ScopeBox {
		t.Errorf("box scope = %+v", sc)
	}
	w = do(t, router, http.MethodGet, base+"/scope", nil)
	if sc := decode[ScopeResponse](t, w); len(sc.Objects) != 0 {
		t.Errorf("whole map scope should hide contained objects: %+v", sc)
	}

	w = do(t, router, http.MethodDelete, containsPath, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/boxes/"+string(box.ID), nil)
	if got := decode[models.Box](t, w); len(got.Contains) != 0 {
		t.Errorf("contains after remove = %v", got.Contains)
	}
}

func TestObjectLifecycle(t *testing.T) {
	_, router := testEnv(t, "")
	m := createMap(t, router)

	w := do(t, router, http.MethodPost, "/maps/"+string(m.ID)+"/objects", map[string]any{"objectType": "CARD"})
	obj := decode[models.MapObject](t, w)
	path := "/objects/" + string(obj.ID)

	w = do(t, router, http.MethodPatch, path, map[string]any{"summary": "updated", "x": 12.5})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodGet, path, nil)
	if got := decode[models.MapObject](t, w); got.Summary != "updated" || got.X != 12.5 {
		t.Errorf("after patch = %+v", got)
	}

	w = do(t, router, http.MethodDelete, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}
	if snap := decode[models.MapObject](t, w); snap.Summary != "updated" {
		t.Errorf("delete should return pre-delete record: %+v", snap)
	}
	if w = do(t, router, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", w.Code)
	}
	if w = do(t, router, http.MethodDelete, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")
	m := createMap(t, router)
	w := do(t, router, http.MethodPost, "/maps/"+string(m.ID)+"/boxes", map[string]any{})
	box := decode[models.Box](t, w)
	path := "/boxes/" + string(box.ID)

	w = do(t, router, http.MethodGet, path, nil)
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("GET should return an ETag")
	}

	w = do(t, router, http.MethodPatch, path, map[string]any{"title": "foobar"}, "If-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("patch with current etag = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("ETag") == etag {
		t.Error("ETag should change after update")
	}

	w = do(t, router, http.MethodPatch, path, map[string]any{"title": "lost"}, "If-Match", etag)
	if w.Code != http.StatusConflict {
		t.Errorf("patch with stale etag = %d, want 409", w.Code)
	}
	w = do(t, router, http.MethodGet, path, nil)
	if got := decode[models.Box](t, w); got.Title != "foobar" {
		t.Errorf("title = %q, want foobar", got.Title)
	}
}

func TestErrorMapping(t *testing.T) {
	_, router := testEnv(t, "")
	m := createMap(t, router)
	base := "/maps/" + string(m.ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown object type", http.MethodPost, base + "/objects", map[string]any{"objectType": "CIRCLE"}, http.StatusBadRequest},
		{"unknown box type", http.MethodPost, base + "/boxes", map[string]any{"boxType": "HUGE"}, http.StatusBadRequest},
		{"object on missing map", http.MethodPost, "/maps/nope/objects", map[string]any{"objectType": "CARD"}, http.StatusNotFound},
		{"get missing object", http.MethodGet, "/objects/nope", nil, http.StatusNotFound},
		{"get missing box", http.MethodGet, "/boxes/nope", nil, http.StatusNotFound},
		{"patch missing object", http.MethodPatch, "/objects/nope", map[string]any{"summary": "x"}, http.StatusNotFound},
		{"add missing object", http.MethodPut, "/boxes/nope/contains/nope", nil, http.StatusNotFound},
		{"scope of missing box", http.MethodGet, base + "/scope?box=nope", nil, http.StatusOK},
		{"search without query", http.MethodGet, base + "/search", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestInvalidJSONBody(t *testing.T) {
	_, router := testEnv(t, "")
	req := httptest.NewRequest(http.MethodPost, "/maps", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON = %d, want 400", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	m := createMap(t, router)
	base := "/maps/" + string(m.ID)
	do(t, router, http.MethodPost, base+"/objects", map[string]any{"objectType": "CARD", "summary": "quokka facts"})
	do(t, router, http.MethodPost, base+"/objects", map[string]any{"objectType": "CARD", "summary": "other"})

	w := do(t, router, http.MethodGet, base+"/search?q=quokka", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	if res := decode[SearchResponse](t, w); len(res.Results) != 1 {
		t.Errorf("results = %+v", res.Results)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	w := do(t, router, http.MethodPost, "/maps", map[string]any{"name": "x"}, "Authorization", "Bearer secret123")
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	if w := do(t, router, http.MethodGet, "/maps", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	if w := do(t, router, http.MethodGet, "/maps", nil, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/maps", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router, _ := testEnvFull(t, true, "secret", blockingSSE)
	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router, _ := testEnvFull(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	_, router, _ := testEnvFull(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("event stream with query token should not 401")
	}
}

func TestQueryTokenIgnoredOutsideEventStreams(t *testing.T) {
	_, router := testEnv(t, "tok")
	if w := do(t, router, http.MethodGet, "/maps?access_token=tok", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("query token on JSON route = %d, want 401", w.Code)
	}
}

// Image tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestUploadAndServeImage(t *testing.T) {
	_, router, imageDir := testEnvFull(t, false, "", nil)

	w := uploadFile(t, router, "photo.png", pngData)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[ImageUploadResponse](t, w)
	if filepath.Ext(resp.Filename) != ".png" || resp.Filename == "photo.png" {
		t.Errorf("filename = %q, want generated .png name", resp.Filename)
	}
	if resp.URL != "/images/"+resp.Filename {
		t.Errorf("url = %q", resp.URL)
	}

	data, err := os.ReadFile(filepath.Join(imageDir, resp.Filename))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if !bytes.Equal(data, pngData) {
		t.Errorf("content mismatch")
	}

	images, _ := storage.NewFS(imageDir)
	r := chi.NewRouter()
	r.Get("/images/{filename}", NewImageHandler(images, 0).ServeFile)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), pngData) {
		t.Errorf("serve = %d", w.Code)
	}
}

func TestUploadImage_RejectsNonImage(t *testing.T) {
	_, router, _ := testEnvFull(t, false, "", nil)
	if w := uploadFile(t, router, "notes.png", []byte("just text")); w.Code != http.StatusBadRequest {
		t.Errorf("non-image upload = %d, want 400", w.Code)
	}
}

func TestServeImage_NotFound(t *testing.T) {
	_, images := testutil.TestImages(t)
	r := chi.NewRouter()
	r.Get("/images/{filename}", NewImageHandler(images, 0).ServeFile)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/images/nope.png", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing image = %d, want 404", w.Code)
	}
}

func TestServeImage_TraversalBlocked(t *testing.T) {
	_, images := testutil.TestImages(t)
	r := chi.NewRouter()
	r.Get("/images/{filename}", NewImageHandler(images, 0).ServeFile)

	for _, name := range []string{"../secret.db", "../../etc/passwd", "..%2Fsecret.db"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/images/"+name, nil))
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}

func TestUploadImage_AuthProtected(t *testing.T) {
	_, router, _ := testEnvFull(t, true, "secret", nil)
	if w := uploadFile(t, router, "x.png", pngData); w.Code != http.StatusUnauthorized {
		t.Errorf("upload no auth = %d, want 401", w.Code)
	}
	if w := uploadFile(t, router, "x.png", pngData, "Authorization", "Bearer secret"); w.Code != http.StatusCreated {
		t.Errorf("upload with auth = %d, want 201", w.Code)
	}
}

func TestUploadImage_TooLarge(t *testing.T) {
	_, images := testutil.TestImages(t)
	svc := mapservice.NewService(testutil.TestDB(t), nil)
	router := NewRouter(svc, false, "", nil, NewImageHandler(images, 16))

	big := append(append([]byte{}, pngData...), make([]byte, 64)...)
	if w := uploadFile(t, router, "big.png", big); w.Code == http.StatusCreated {
		t.Errorf("oversized upload = %d, want rejection", w.Code)
	}
}

func TestUploadImage_MissingFileField(t *testing.T) {
	_, router, _ := testEnvFull(t, false, "", nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}
