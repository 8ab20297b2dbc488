package edgelet_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seantiz/edgemgmt/internal/api"
	"github.com/seantiz/edgemgmt/internal/edgelet"
	"github.com/seantiz/edgemgmt/internal/engine"
	"github.com/seantiz/edgemgmt/internal/model"
	"github.com/seantiz/edgemgmt/internal/store"
)

// newSimulator runs the management simulator over an in-memory store.
func newSimulator(t *testing.T, opts api.Options) *httptest.Server {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv := api.NewServer(":0", engine.NewEngine(s, logger), logger, opts)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

type busyboxConfig struct {
	Image string `json:"image"`
}

func TestSimulatorModuleFlow(t *testing.T) {
	for _, v := range edgelet.SupportedVersions {
		t.Run(v.String(), func(t *testing.T) {
			ts := newSimulator(t, api.Options{})
			c, err := edgelet.New(ts.URL, v, edgelet.WithRetryPolicy(fastPolicy()))
			require.NoError(t, err)
			ctx := context.Background()

			spec := model.ModuleSpec{
				Name:                 "tempSensor",
				Type:                 "docker",
				EnvironmentVariables: map[string]string{"MODE": "fast"},
				Settings:             json.RawMessage(`{"image":"busybox"}`),
			}
			require.NoError(t, c.CreateModule(ctx, spec))
			require.NoError(t, c.StartModule(ctx, "tempSensor"))

			// Already running: the runtime answers 304, which completes without error.
			require.NoError(t, c.StartModule(ctx, "tempSensor"))

			results, err := edgelet.ListModules[busyboxConfig](ctx, c)
			require.NoError(t, err)
			require.Len(t, results, 1)
			require.NoError(t, results[0].Err)
			info := results[0].Info
			assert.Equal(t, "tempSensor", info.Name)
			assert.Equal(t, "busybox", info.Config.Image)
			assert.Equal(t, model.StatusRunning, info.Status)
			assert.NotNil(t, info.StartTime)
			assert.Nil(t, info.ExitTime)

			require.NoError(t, c.StopModule(ctx, "tempSensor"))
			raw, err := c.ListModules(ctx)
			require.NoError(t, err)
			require.Len(t, raw, 1)
			assert.Equal(t, model.StatusStopped, raw[0].Status)
			assert.Equal(t, int64(0), raw[0].ExitCode)
			assert.NotNil(t, raw[0].ExitTime)

			spec.Settings = json.RawMessage(`{"image":"alpine"}`)
			require.NoError(t, c.PrepareUpdate(ctx, spec))
			require.NoError(t, c.UpdateAndStartModule(ctx, spec))
			require.NoError(t, c.RestartModule(ctx, "tempSensor"))

			results, err = edgelet.ListModules[busyboxConfig](ctx, c)
			require.NoError(t, err)
			assert.Equal(t, "alpine", results[0].Info.Config.Image)
			assert.Equal(t, model.StatusRunning, results[0].Info.Status)

			require.NoError(t, c.DeleteModule(ctx, "tempSensor"))
			raw, err = c.ListModules(ctx)
			require.NoError(t, err)
			assert.Empty(t, raw)
		})
	}
}

func TestSimulatorIdentityFlow(t *testing.T) {
	ts := newSimulator(t, api.Options{})
	c := newTestClient(t, ts.URL)
	ctx := context.Background()

	id, err := c.CreateIdentity(ctx, "mod1", "iotedge")
	require.NoError(t, err)
	assert.Equal(t, "mod1", id.ModuleID)
	assert.Equal(t, "iotedge", id.ManagedBy)
	assert.NotEmpty(t, id.GenerationID)

	_, err = c.CreateIdentity(ctx, "mod1", "iotedge")
	code, ok := edgelet.StatusCode(err)
	require.True(t, ok, "conflict should surface as an endpoint error: %v", err)
	assert.Equal(t, http.StatusConflict, code)

	updated, err := c.UpdateIdentity(ctx, "mod1", id.GenerationID, "iotedge")
	require.NoError(t, err)
	assert.NotEqual(t, id.GenerationID, updated.GenerationID)

	ids, err := c.ListIdentities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{updated}, ids)

	require.NoError(t, c.DeleteIdentity(ctx, "mod1"))
	err = c.DeleteIdentity(ctx, "mod1")
	assert.True(t, edgelet.IsNotFound(err))
}

func TestSimulatorErrors(t *testing.T) {
	ts := newSimulator(t, api.Options{})
	c := newTestClient(t, ts.URL)
	ctx := context.Background()

	err := c.StartModule(ctx, "ghost")
	var e *edgelet.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusNotFound, e.StatusCode)
	assert.Equal(t, "start module ghost", e.Operation)
	assert.Contains(t, e.Message, "not found")

	err = c.CreateModule(ctx, model.ModuleSpec{Name: "untyped"})
	code, _ := edgelet.StatusCode(err)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSimulatorSystemInfo(t *testing.T) {
	ts := newSimulator(t, api.Options{})
	c := newTestClient(t, ts.URL)

	info, err := c.GetSystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.SystemInfo{OSType: runtime.GOOS, Architecture: runtime.GOARCH, Version: engine.Version}, info)
}

func TestSimulatorFaultsAreRetried(t *testing.T) {
	ts := newSimulator(t, api.Options{Faults: 3})
	c := newTestClient(t, ts.URL)

	// Three injected 503s fit inside the three retries.
	info, err := c.GetSystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runtime.GOOS, info.OSType)
}

func TestSimulatorFaultsExhaustRetries(t *testing.T) {
	ts := newSimulator(t, api.Options{Faults: 4})
	c := newTestClient(t, ts.URL)

	_, err := c.ListIdentities(context.Background())
	code, ok := edgelet.StatusCode(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	// The budget is spent; the next call goes through.
	_, err = c.ListIdentities(context.Background())
	assert.NoError(t, err)
}
