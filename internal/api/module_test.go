package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/seantiz/edgemgmt/internal/engine"
	"github.com/seantiz/edgemgmt/internal/mgmtapi"
	"github.com/seantiz/edgemgmt/internal/model"
)

func testModuleSpec(name string) mgmtapi.ModuleSpec {
	return mgmtapi.ModuleSpec{
		Name: name,
		Type: "docker",
		Config: mgmtapi.Config{
			Settings: json.RawMessage(`{"image":"busybox"}`),
			Env:      []mgmtapi.EnvVar{{Key: "MODE", Value: "fast"}},
		},
	}
}

func createModule(t *testing.T, ts *httptest.Server, name string) mgmtapi.ModuleDetails {
	t.Helper()
	resp := do(t, ts, http.MethodPost, "/modules", testModuleSpec(name))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create %s: status = %d, want 201", name, resp.StatusCode)
	}
	return decode[mgmtapi.ModuleDetails](t, resp)
}

func getModule(t *testing.T, ts *httptest.Server, name string) mgmtapi.ModuleDetails {
	t.Helper()
	resp := do(t, ts, http.MethodGet, "/modules/"+name, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get %s: status = %d, want 200", name, resp.StatusCode)
	}
	return decode[mgmtapi.ModuleDetails](t, resp)
}

func TestCreateModule(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	d := createModule(t, ts, "tempSensor")
	if d.Name != "tempSensor" || d.Type != "docker" || d.ID == "" {
		t.Errorf("details = %+v", d)
	}
	if string(d.Config.Settings) != `{"image":"busybox"}` {
		t.Errorf("settings = %s", d.Config.Settings)
	}
	if len(d.Config.Env) != 1 || d.Config.Env[0].Key != "MODE" {
		t.Errorf("env = %+v", d.Config.Env)
	}
	if d.Status == nil || d.Status.RuntimeStatus == nil || d.Status.RuntimeStatus.Status != "stopped" {
		t.Errorf("status = %+v, want stopped", d.Status)
	}
	if d.Status.ExitStatus != nil {
		t.Error("new module should have no exit status")
	}

	resp := do(t, ts, http.MethodPost, "/modules", testModuleSpec("tempSensor"))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", resp.StatusCode)
	}

	resp = do(t, ts, http.MethodPost, "/modules", mgmtapi.ModuleSpec{Name: "noType"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing type status = %d, want 400", resp.StatusCode)
	}
}

func TestModuleLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	createModule(t, ts, "m")

	steps := []struct {
		action string
		status int
		want   string
	}{
		{"start", http.StatusNoContent, "running"},
		{"start", http.StatusNotModified, "running"},
		{"restart", http.StatusNoContent, "running"},
		{"stop", http.StatusNoContent, "stopped"},
		{"stop", http.StatusNotModified, "stopped"},
		{"restart", http.StatusNoContent, "running"},
	}
	for i, step := range steps {
		resp := do(t, ts, http.MethodPost, "/modules/m/"+step.action, nil)
		if resp.StatusCode != step.status {
			t.Errorf("step %d %s: status = %d, want %d", i, step.action, resp.StatusCode, step.status)
		}
		if got := getModule(t, ts, "m").Status.RuntimeStatus.Status; got != step.want {
			t.Errorf("step %d %s: module status = %q, want %q", i, step.action, got, step.want)
		}
	}

	d := getModule(t, ts, "m")
	if d.Status.StartTime == nil {
		t.Error("start time not reported")
	}
	if d.Status.ExitStatus == nil || d.Status.ExitStatus.StatusCode != "0" {
		t.Errorf("exit status = %+v, want code 0", d.Status.ExitStatus)
	}
}

func TestNotModifiedHasNoBody(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	createModule(t, ts, "m")

	resp := do(t, ts, http.MethodPost, "/modules/m/stop", nil)
	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("304 body = %q, want empty", body)
	}
}

func TestModuleActionsNotFound(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, req := range []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/modules/ghost", nil},
		{http.MethodDelete, "/modules/ghost", nil},
		{http.MethodPost, "/modules/ghost/start", nil},
		{http.MethodPost, "/modules/ghost/stop", nil},
		{http.MethodPost, "/modules/ghost/restart", nil},
		{http.MethodPost, "/modules/ghost/prepare-update", testModuleSpec("ghost")},
		{http.MethodPut, "/modules/ghost", testModuleSpec("ghost")},
	} {
		resp := do(t, ts, req.method, req.path, req.body)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", req.method, req.path, resp.StatusCode)
			continue
		}
		if msg := decode[mgmtapi.ErrorResponse](t, resp).Message; msg == "" {
			t.Errorf("%s %s: empty error message", req.method, req.path)
		}
	}
}

func TestUpdateModule(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	createModule(t, ts, "m")

	spec := testModuleSpec("m")
	spec.Config.Settings = json.RawMessage(`{"image":"alpine"}`)

	resp := do(t, ts, http.MethodPut, "/modules/m", spec)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	d := decode[mgmtapi.ModuleDetails](t, resp)
	if string(d.Config.Settings) != `{"image":"alpine"}` {
		t.Errorf("settings = %s", d.Config.Settings)
	}
	if d.Status.RuntimeStatus.Status != "stopped" {
		t.Errorf("update without start changed status to %q", d.Status.RuntimeStatus.Status)
	}

	resp = do(t, ts, http.MethodPut, "/modules/m?start=true", spec)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start=true status = %d, want 200", resp.StatusCode)
	}
	if got := decode[mgmtapi.ModuleDetails](t, resp).Status.RuntimeStatus.Status; got != "running" {
		t.Errorf("update and start status = %q, want running", got)
	}
}

func TestUpdateModuleNameMismatch(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	createModule(t, ts, "m")

	resp := do(t, ts, http.MethodPut, "/modules/m", testModuleSpec("other"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPrepareUpdate(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	createModule(t, ts, "m")

	spec := testModuleSpec("m")
	spec.Config.Settings = json.RawMessage(`{"image":"next"}`)
	resp := do(t, ts, http.MethodPost, "/modules/m/prepare-update", spec)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := string(getModule(t, ts, "m").Config.Settings); got != `{"image":"busybox"}` {
		t.Errorf("prepare update changed settings to %s", got)
	}
}

func TestStopFailedModuleConflicts(t *testing.T) {
	srv, s := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	createModule(t, ts, "m")

	m, err := s.GetModule(t.Context(), "m")
	if err != nil {
		t.Fatalf("GetModule: %v", err)
	}
	m.Status = model.StatusFailed
	if err := s.UpdateModuleState(t.Context(), m); err != nil {
		t.Fatalf("UpdateModuleState: %v", err)
	}

	resp := do(t, ts, http.MethodPost, "/modules/m/stop", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestListAndDeleteModules(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	list := decode[mgmtapi.ModuleList](t, do(t, ts, http.MethodGet, "/modules", nil))
	if list.Modules == nil || len(list.Modules) != 0 {
		t.Errorf("empty list = %#v, want empty non-nil", list.Modules)
	}

	createModule(t, ts, "a")
	createModule(t, ts, "b")

	resp := do(t, ts, http.MethodDelete, "/modules/a", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}

	list = decode[mgmtapi.ModuleList](t, do(t, ts, http.MethodGet, "/modules", nil))
	if len(list.Modules) != 1 || list.Modules[0].Name != "b" {
		t.Errorf("modules = %+v", list.Modules)
	}
}

func TestSystemInfoEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := do(t, ts, http.MethodGet, "/systeminfo", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	info := decode[mgmtapi.SystemInfo](t, resp)
	if info.OSType != runtime.GOOS || info.Architecture != runtime.GOARCH || info.Version != engine.Version {
		t.Errorf("info = %+v", info)
	}
}
