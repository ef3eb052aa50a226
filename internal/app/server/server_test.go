package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xinan/internal/platform/config"
	"xinan/internal/platform/jobs"
)

func testConfig() config.Config {
	return config.Config{
		Addr:           ":0",
		Environment:    "test",
		DefaultCity:    "杭州",
		MaxBodyBytes:   1 << 20,
		BatchWorkers:   2,
		MaxBatchRows:   10,
		MetricsEnabled: true,
	}
}

func TestRouterServesHealthAndPayroll(t *testing.T) {
	app, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.Close)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	body := `{"rows":[{"employee_code":"GH001","employee_name":"张伟","target_gross_salary":10000}]}`
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payroll/batch", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("batch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers")
	}

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if env.Data["batchesTotal"] != float64(1) {
		t.Fatalf("expected one batch in metrics, got %v", env.Data["batchesTotal"])
	}
}

func TestReloadSchedulesWithoutDatabase(t *testing.T) {
	app, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.Close)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/schedules/reload", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "reload_unavailable" {
		t.Fatalf("unexpected error code %q", env.Error.Code)
	}

	info, ok := app.Jobs.LastRun(jobs.JobScheduleReload)
	if !ok || info.Error == "" {
		t.Fatalf("expected a recorded failed run, got %+v (ok=%v)", info, ok)
	}
	if !app.Payroll.Config().KnownCity("杭州") {
		t.Fatal("schedules must stay in place after a refused reload")
	}
}

func TestReloadSchedulesRequiresPayrollRole(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "secret"
	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.Close)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/schedules/reload", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if _, ok := app.Jobs.LastRun(jobs.JobScheduleReload); ok {
		t.Fatal("anonymous request must not trigger a reload")
	}
}

func TestLoadSchedulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.yaml")
	doc := "cities:\n  - name: 宁波\n    min_wage: \"2490\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := testConfig()
	cfg.InsuranceConfigFile = path

	loaded, source, err := LoadSchedules(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if source != path || !loaded.KnownCity("宁波") || loaded.KnownCity("杭州") {
		t.Fatalf("unexpected schedules from %s: %v", source, loaded.Cities())
	}

	cfg.InsuranceConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, _, err := LoadSchedules(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSchedulesDefaults(t *testing.T) {
	loaded, source, err := LoadSchedules(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if source != "builtin" || !loaded.KnownCity("杭州") {
		t.Fatalf("unexpected defaults from %s", source)
	}
}
