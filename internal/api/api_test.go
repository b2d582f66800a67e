package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/uruz/internal/catalog"
	"github.com/starford/uruz/internal/changelog"
	"github.com/starford/uruz/internal/index"
	"github.com/starford/uruz/internal/matservice"
	"github.com/starford/uruz/internal/models"
	"github.com/starford/uruz/internal/storage"
)

// testEnv sets up a temp library, SQLite DB, service, and router for testing.
// authEnabled=false means disabled mode; authEnabled=true with non-empty token means token mode.
func testEnv(t *testing.T, authToken string) (*matservice.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvWithLibrary(t, authToken != "", authToken)
	return svc, router
}

func testEnvWithLibrary(t *testing.T, authEnabled bool, authToken string) (*matservice.Service, http.Handler, string) {
	t.Helper()

	libDir := t.TempDir()
	store, err := storage.NewFS(libDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "uruz-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cat := catalog.New(store, logger)
	cat.Reload()
	ledger := changelog.New(filepath.Join(t.TempDir(), changelog.DefaultFilename))

	svc := matservice.NewService(store, db, cat, ledger, logger, "tester")
	router := NewRouter(svc, authEnabled, authToken, nil)
	return svc, router, libDir
}

// sampleMaterial builds a minimal record with one physical series, one
// strength category, and one composition source.
func sampleMaterial(name string) *models.Material {
	m := models.New()
	m.Metadata.StandardName = name
	m.Metadata.ApplicationAreas = []string{"Крепеж"}
	m.Physical["modulus_elasticity"] = &models.PropertySeries{
		Source: "ГОСТ 5632",
		Pairs: []models.Pair{
			{Temperature: 0, Value: 250},
			{Temperature: 100, Value: 230},
			{Temperature: 200, Value: 200},
		},
	}
	minCr, maxCr := 10.0, 14.0
	m.Chemical.Composition = []*models.CompositionSource{{
		Source:      "ГОСТ 5632",
		BaseElement: "Fe",
		Elements: []models.ElementEntry{
			{Symbol: "Cr", MinValue: &minCr, MaxValue: &maxCr, Unit: "%"},
		},
	}}
	m.Mechanical.StrengthCategories = []*models.StrengthCategory{{
		Name: "КП 100",
		Properties: map[string]*models.PropertySeries{
			"yield_strength": {Pairs: []models.Pair{{Temperature: 20, Value: 100}}},
		},
	}}
	return m
}

func createMaterial(t *testing.T, router http.Handler, path, name string) MaterialDetail {
	t.Helper()
	body, _ := json.Marshal(CreateMaterialRequest{Path: path, Material: sampleMaterial(name)})
	req := httptest.NewRequest(http.MethodPost, "/materials", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s = %d, body = %s", path, w.Code, w.Body.String())
	}
	var detail MaterialDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	return detail
}

func TestCreateAndGetMaterial(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "steel.json", "12Х18Н10Т")

	req := httptest.NewRequest(http.MethodGet, "/materials/steel.json", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var detail MaterialDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.Path != "steel.json" {
		t.Errorf("path = %q", detail.Path)
	}
	if detail.Material == nil || detail.Material.Metadata.StandardName != "12Х18Н10Т" {
		t.Errorf("material = %+v", detail.Material)
	}
	if detail.Checksum == "" {
		t.Error("expected non-empty checksum")
	}
}

func TestCreateDuplicate(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "dup.json", "Сталь 20")

	body, _ := json.Marshal(CreateMaterialRequest{Path: "dup.json", Material: sampleMaterial("Сталь 20")})
	req := httptest.NewRequest(http.MethodPost, "/materials", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestCreateWithoutName(t *testing.T) {
	_, router := testEnv(t, "")

	m := models.New() // no standard name
	body, _ := json.Marshal(CreateMaterialRequest{Path: "anon.json", Material: m})
	req := httptest.NewRequest(http.MethodPost, "/materials", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("nameless create = %d, want 400", w.Code)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	_, router := testEnv(t, "")

	created := createMaterial(t, router, "lock.json", "Сталь 45")

	edited := sampleMaterial("Сталь 45")
	edited.ID = created.Material.ID
	edited.Metadata.Comment = "updated"
	updateBody, _ := json.Marshal(UpdateMaterialRequest{Material: edited})

	req := httptest.NewRequest(http.MethodPut, "/materials/lock.json", bytes.NewReader(updateBody))
	req.Header.Set("If-Match", created.Checksum)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update with correct checksum = %d, body = %s", w.Code, w.Body.String())
	}

	// Update with stale checksum → 409.
	req = httptest.NewRequest(http.MethodPut, "/materials/lock.json", bytes.NewReader(updateBody))
	req.Header.Set("If-Match", created.Checksum) // stale now
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale checksum = %d, want 409", w.Code)
	}
}

func TestUpdateWithoutIfMatch(t *testing.T) {
	_, router := testEnv(t, "")

	created := createMaterial(t, router, "nolock.json", "Сталь 10")

	edited := created.Material
	edited.Metadata.Comment = "no locking"
	updateBody, _ := json.Marshal(UpdateMaterialRequest{Material: edited})
	req := httptest.NewRequest(http.MethodPut, "/materials/nolock.json", bytes.NewReader(updateBody))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("update without If-Match = %d, want 200", w.Code)
	}
}

func TestDeleteMaterial(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "bye.json", "Сталь 3")

	req := httptest.NewRequest(http.MethodDelete, "/materials/bye.json", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}

	// GET should now 404.
	req = httptest.NewRequest(http.MethodGet, "/materials/bye.json", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestListMaterials(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "a.json", "Сталь А")
	createMaterial(t, router, "b.json", "Сталь Б")

	req := httptest.NewRequest(http.MethodGet, "/materials?limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	materials := resp["materials"].([]any)
	if len(materials) != 2 {
		t.Errorf("len(materials) = %d, want 2", len(materials))
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "find.json", "УникальноеИмя")

	req := httptest.NewRequest(http.MethodGet, "/search?q=УникальноеИмя", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	results := resp["results"].([]any)
	if len(results) != 1 {
		t.Errorf("search results = %d, want 1", len(results))
	}
}

func TestValueEndpoint_Interpolated(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "v.json", "Сталь В")

	req := httptest.NewRequest(http.MethodGet, "/value?path=v.json&prop=modulus_elasticity&temp=150", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("value = %d, body = %s", w.Code, w.Body.String())
	}
	var res matservice.ValueResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Interpolated || res.Value != 215 {
		t.Errorf("result = %+v, want interpolated 215", res)
	}
	if res.Display != "215.00" {
		t.Errorf("display = %q, want 215.00", res.Display)
	}
}

func TestValueEndpoint_OutOfRange(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "v.json", "Сталь В")

	req := httptest.NewRequest(http.MethodGet, "/value?path=v.json&prop=modulus_elasticity&temp=300", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("value = %d", w.Code)
	}
	var res matservice.ValueResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.NoData || res.Display != "-" {
		t.Errorf("result = %+v, want no-data sentinel", res)
	}
}

func TestValueEndpoint_UnknownProperty(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "v.json", "Сталь В")

	req := httptest.NewRequest(http.MethodGet, "/value?path=v.json&prop=bogus&temp=20", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown prop = %d, want 400", w.Code)
	}
}

func TestTableEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "t1.json", "Сталь 1")
	createMaterial(t, router, "t2.json", "Сталь 2")

	req := httptest.NewRequest(http.MethodGet, "/table?type=physical&temp=100", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("table = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Rows []matservice.TableRow `json:"rows"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(resp.Rows))
	}
	if resp.Rows[0].Values["modulus_elasticity"] != "230" {
		t.Errorf("exact value = %q, want 230", resp.Rows[0].Values["modulus_elasticity"])
	}
}

func TestCompositionMatchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "m.json", "Сталь М")

	body, _ := json.Marshal(MatchRequest{Targets: map[string]float64{"Cr": 12}})
	req := httptest.NewRequest(http.MethodPost, "/composition/match", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("match = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Matches []matservice.MatchItem `json:"matches"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(resp.Matches))
	}
	if !resp.Matches[0].Result.FullMatch || resp.Matches[0].Result.Score != 1 {
		t.Errorf("result = %+v, want full match with score 1", resp.Matches[0].Result)
	}
}

func TestAreasAndSourcesEndpoints(t *testing.T) {
	_, router := testEnv(t, "")

	createMaterial(t, router, "a.json", "Сталь А")

	req := httptest.NewRequest(http.MethodGet, "/areas", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("areas = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Крепеж") {
		t.Errorf("areas body = %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/sources", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("sources = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ГОСТ 5632") {
		t.Errorf("sources body = %s", w.Body.String())
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	body, _ := json.Marshal(CreateMaterialRequest{Path: "auth.json", Material: sampleMaterial("Сталь")})
	req := httptest.NewRequest(http.MethodPost, "/materials", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/materials", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/materials", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/materials", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestGetMaterial_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/materials/nope.json", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing material = %d, want 404", w.Code)
	}
}

func TestUpdateMaterial_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(UpdateMaterialRequest{Material: sampleMaterial("Призрак")})
	req := httptest.NewRequest(http.MethodPut, "/materials/ghost.json", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret")

	// No token → 401.
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	_, router := testEnvWithSSE(t, false, "")

	// Disabled mode → should not 401. SSE handler will write 200 and block,
	// so we cancel the context after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok")

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

// testEnvWithSSE creates a router with a dummy SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) (*matservice.Service, http.Handler) {
	t.Helper()

	svc, _, _ := testEnvWithLibrary(t, false, "")

	// Minimal SSE handler stub — writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	router := NewRouter(svc, authEnabled, token, sseHandler)
	return svc, router
}
