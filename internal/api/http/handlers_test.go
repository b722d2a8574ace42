package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GriffinCanCode/taskdock/internal/domain/installer"
	"github.com/GriffinCanCode/taskdock/internal/domain/process"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/taskdock/internal/shared/paths"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApps struct {
	installed  []types.AppRecord
	running    []types.RunningApp
	startErr   error
	stopErr    error
	portErr    error
	installErr error
	autostart  map[string]bool

	lastKind types.Kind
	stopped  []int
}

func (f *fakeApps) ListInstalled(kind types.Kind) []types.AppRecord {
	f.lastKind = kind
	return f.installed
}

func (f *fakeApps) ListRunning(context.Context) []types.RunningApp { return f.running }

func (f *fakeApps) ManagedWebApps(context.Context) []types.ManagedApp {
	return []types.ManagedApp{{Name: "weather", Running: true, PID: 10, Port: types.IntPtr(9090)}}
}

func (f *fakeApps) Start(_ context.Context, name string, kind types.Kind) (types.ProcessRecord, error) {
	if f.startErr != nil {
		return types.ProcessRecord{}, f.startErr
	}
	return types.ProcessRecord{PID: 4242, AppName: name, Kind: kind, Port: types.IntPtr(9090), Origin: types.OriginSpawned}, nil
}

func (f *fakeApps) Stop(pid int) error {
	f.stopped = append(f.stopped, pid)
	return f.stopErr
}

func (f *fakeApps) ResolvePort(_ context.Context, pid int) (int, error) {
	return 8000, f.portErr
}

func (f *fakeApps) Install(_ context.Context, file string, kind types.Kind) (types.InstallReport, error) {
	return types.InstallReport{Package: file, Kind: kind, Files: 3}, f.installErr
}

func (f *fakeApps) Delete(string, types.Kind) error { return nil }

func (f *fakeApps) EnableAutoStart(name string, kind types.Kind) error {
	if err := paths.ValidateName(name); err != nil {
		return err
	}
	f.autostart[name] = true
	return nil
}

func (f *fakeApps) DisableAutoStart(name string) error {
	delete(f.autostart, name)
	return nil
}

func (f *fakeApps) IsAutoStartEnabled(name string, _ types.Kind) bool { return f.autostart[name] }

func (f *fakeApps) AutoStartStatuses() []types.AutoStartStatus {
	return []types.AutoStartStatus{{App: "weather", Kind: types.KindWeb, Enabled: f.autostart["weather"]}}
}

func (f *fakeApps) Available(context.Context, types.Kind) []types.Package {
	return []types.Package{{File: "notes.zip", Name: "notes"}}
}

func (f *fakeApps) Catalog(context.Context, types.Kind) map[string]types.CatalogEntry {
	return map[string]types.CatalogEntry{"notes": {Name: "Notes", Version: "1.0"}}
}

func (f *fakeApps) Describe(_ context.Context, name string, _ types.Kind) (types.CatalogEntry, bool) {
	if name != "notes" {
		return types.CatalogEntry{}, false
	}
	return types.CatalogEntry{Name: "Notes", Version: "1.0"}, true
}

func (f *fakeApps) Extras(context.Context) []types.Extra {
	return []types.Extra{{File: "term.apk", Name: "term", Category: "Utility"}}
}

type fakeRemote struct{}

func (fakeRemote) BreakerState() resilience.State   { return resilience.StateClosed }
func (fakeRemote) BreakerCounts() resilience.Counts { return resilience.Counts{Requests: 2} }

func setupRouter(apps *fakeApps) (*gin.Engine, *monitoring.Metrics) {
	gin.SetMode(gin.TestMode)
	metrics := monitoring.NewMetrics()
	router := gin.New()
	NewHandlers(apps, metrics, fakeRemote{}, nil).Register(router)
	return router, metrics
}

func newFakeApps() *fakeApps {
	return &fakeApps{
		installed: []types.AppRecord{{Name: "weather", Kind: types.KindWeb, InstallPath: "/apps/weather"}},
		running:   []types.RunningApp{{PID: 10, Name: "weather", Kind: types.KindWeb, Tracked: true}},
		autostart: map[string]bool{},
	}
}

func do(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(newFakeApps())

	w := do(router, "GET", "/health")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "closed", body["remote_store"])
}

func TestListApps(t *testing.T) {
	apps := newFakeApps()
	router, _ := setupRouter(apps)

	w := do(router, "GET", "/apps?kind=web")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.KindWeb, apps.lastKind)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = do(router, "GET", "/apps")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.Kind(""), apps.lastKind)

	w = do(router, "GET", "/apps?kind=daemon")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartApp(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"started", nil, http.StatusOK},
		{"not installed", fmt.Errorf("%w: /apps/x/app.py", process.ErrAppNotFound), http.StatusNotFound},
		{"no port", process.ErrNoPortDeclared, http.StatusUnprocessableEntity},
		{"bad name", paths.ErrInvalidName, http.StatusBadRequest},
		{"crashed", &process.StartupError{App: "weather", PID: 5, ExitCode: 1, Output: "Traceback"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps := newFakeApps()
			apps.startErr = tt.err
			router, _ := setupRouter(apps)

			w := do(router, "POST", "/apps/web/weather/start")
			assert.Equal(t, tt.wantStatus, w.Code)

			body := decode(t, w)
			assert.Equal(t, tt.err == nil, body["success"])
		})
	}
}

func TestStartAppReportsCrashOutput(t *testing.T) {
	apps := newFakeApps()
	apps.startErr = &process.StartupError{App: "weather", PID: 5, ExitCode: 1, Output: "Traceback"}
	router, _ := setupRouter(apps)

	body := decode(t, do(router, "POST", "/apps/web/weather/start"))
	assert.Equal(t, "Traceback", body["output"])
	assert.EqualValues(t, 1, body["exit_code"])
}

func TestStartAppRejectsUnknownKind(t *testing.T) {
	router, _ := setupRouter(newFakeApps())
	assert.Equal(t, http.StatusBadRequest, do(router, "POST", "/apps/daemon/weather/start").Code)
}

func TestInstallPackage(t *testing.T) {
	apps := newFakeApps()
	router, _ := setupRouter(apps)

	w := do(router, "POST", "/packages/web/notes.zip/install")
	require.Equal(t, http.StatusOK, w.Code)
	report := decode(t, w)["report"].(map[string]any)
	assert.Equal(t, "notes.zip", report["package"])

	apps.installErr = fmt.Errorf("%w: timeout", installer.ErrDownloadFailed)
	assert.Equal(t, http.StatusBadGateway, do(router, "POST", "/packages/web/notes.zip/install").Code)

	apps.installErr = installer.ErrUnsupportedArchive
	assert.Equal(t, http.StatusUnprocessableEntity, do(router, "POST", "/packages/cli/notes.rar/install").Code)
}

func TestStopProcess(t *testing.T) {
	apps := newFakeApps()
	router, _ := setupRouter(apps)

	w := do(router, "POST", "/processes/10/stop")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["signalled"])
	assert.Equal(t, []int{10}, apps.stopped)

	// Delivery failure is still a successful stop
	apps.stopErr = errors.New("no such process")
	w = do(router, "POST", "/processes/11/stop")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["signalled"])
	assert.Equal(t, "no such process", body["warning"])

	apps.stopErr = process.ErrInvalidPID
	assert.Equal(t, http.StatusBadRequest, do(router, "POST", "/processes/12/stop").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, "POST", "/processes/abc/stop").Code)
}

func TestProcessPort(t *testing.T) {
	apps := newFakeApps()
	router, _ := setupRouter(apps)

	w := do(router, "GET", "/processes/10/port")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 8000, decode(t, w)["port"])

	apps.portErr = process.ErrPortNotDetected
	assert.Equal(t, http.StatusNotFound, do(router, "GET", "/processes/10/port").Code)
}

func TestAutoStartRoutes(t *testing.T) {
	apps := newFakeApps()
	router, _ := setupRouter(apps)

	require.Equal(t, http.StatusOK, do(router, "PUT", "/autostart/web/weather").Code)
	assert.Equal(t, true, decode(t, do(router, "GET", "/autostart/web/weather"))["enabled"])

	list := decode(t, do(router, "GET", "/autostart"))["apps"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, true, list[0].(map[string]any)["enabled"])

	require.Equal(t, http.StatusOK, do(router, "DELETE", "/autostart/weather").Code)
	assert.Equal(t, false, decode(t, do(router, "GET", "/autostart/web/weather"))["enabled"])

	assert.Equal(t, http.StatusBadRequest, do(router, "PUT", "/autostart/web/..x").Code)
}

func TestCatalogRoutes(t *testing.T) {
	router, _ := setupRouter(newFakeApps())

	w := do(router, "GET", "/catalog/web")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["apps"], "notes")

	w = do(router, "GET", "/catalog/web/notes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.0", decode(t, w)["version"])

	assert.Equal(t, http.StatusNotFound, do(router, "GET", "/catalog/web/ghost").Code)

	assert.EqualValues(t, 1, decode(t, do(router, "GET", "/extras"))["count"])
	assert.EqualValues(t, 1, decode(t, do(router, "GET", "/packages/cli"))["count"])
}

func TestListingRoutes(t *testing.T) {
	router, _ := setupRouter(newFakeApps())

	procs := decode(t, do(router, "GET", "/processes"))
	assert.EqualValues(t, 1, procs["count"])

	managed := decode(t, do(router, "GET", "/apps/managed"))["apps"].([]any)
	require.Len(t, managed, 1)
	assert.EqualValues(t, 9090, managed[0].(map[string]any)["port"])
}

func TestMetricsEndpoints(t *testing.T) {
	router, metrics := setupRouter(newFakeApps())
	metrics.RecordOperation("start", "web", nil, 0)

	w := do(router, "GET", "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "taskdock_"))

	body := decode(t, do(router, "GET", "/metrics/json"))
	assert.EqualValues(t, 1, body["operations"])
	assert.EqualValues(t, 2, body["remote_store"].(map[string]any)["requests"])
}
