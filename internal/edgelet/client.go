package edgelet

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/seantiz/edgemgmt/internal/mapping"
	"github.com/seantiz/edgemgmt/internal/mgmtapi"
	"github.com/seantiz/edgemgmt/internal/model"
	"github.com/seantiz/edgemgmt/internal/retry"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	tracerName         = "github.com/seantiz/edgemgmt/internal/edgelet"
)

// Manager is the module-management contract an orchestrator programs
// against. Each API version is served by an implementation of it.
type Manager interface {
	CreateIdentity(ctx context.Context, name, managedBy string) (model.Identity, error)
	UpdateIdentity(ctx context.Context, name, generationID, managedBy string) (model.Identity, error)
	DeleteIdentity(ctx context.Context, name string) error
	ListIdentities(ctx context.Context) ([]model.Identity, error)

	CreateModule(ctx context.Context, spec model.ModuleSpec) error
	DeleteModule(ctx context.Context, name string) error
	StartModule(ctx context.Context, name string) error
	StopModule(ctx context.Context, name string) error
	RestartModule(ctx context.Context, name string) error
	UpdateModule(ctx context.Context, spec model.ModuleSpec) error
	UpdateAndStartModule(ctx context.Context, spec model.ModuleSpec) error
	PrepareUpdate(ctx context.Context, spec model.ModuleSpec) error

	GetSystemInfo(ctx context.Context) (model.SystemInfo, error)
	// ListModules returns every module with its settings still undecoded.
	// Use the generic ListModules function for typed configs.
	ListModules(ctx context.Context) ([]RawModuleInfo, error)
}

var _ Manager = (*Client)(nil)

// Client talks to one management endpoint pinned to one API version. It
// holds no mutable state and is safe for concurrent use.
type Client struct {
	uri         string
	version     Version
	policy      retry.Policy
	httpTimeout time.Duration
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for operation events. The default discards them.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetryPolicy replaces retry.DefaultPolicy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithHTTPTimeout bounds each individual HTTP attempt.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpTimeout = d }
}

// WithTracerProvider sets where operation spans go. The default is the
// global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// New creates a client for the management endpoint at uri.
func New(uri string, version Version, opts ...Option) (*Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("management URI is required")
	}
	if _, err := ParseVersion(string(version)); err != nil {
		return nil, err
	}

	c := &Client{
		uri:         uri,
		version:     version,
		policy:      retry.DefaultPolicy(),
		httpTimeout: defaultHTTPTimeout,
		logger:      slog.New(slog.DiscardHandler),
		tracer:      otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Version returns the API version the client is pinned to.
func (c *Client) Version() Version {
	return c.version
}

// session opens a transport scoped to one call. The returned release func
// must be called when the call is done.
func (c *Client) session() (*mgmtapi.Client, func()) {
	transport := newTransport()
	hc := &http.Client{Transport: transport, Timeout: c.httpTimeout}
	return mgmtapi.NewClient(c.uri, hc), transport.CloseIdleConnections
}

// newTransport clones http.DefaultTransport, or builds one with the same
// settings when the default has been replaced by a wrapper.
func newTransport() *http.Transport {
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		return t.Clone()
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

func (c *Client) CreateIdentity(ctx context.Context, name, managedBy string) (model.Identity, error) {
	api, release := c.session()
	defer release()

	op := operation{kind: "create_identity", desc: fmt.Sprintf("create identity for %s", name)}
	res, err := execute(ctx, c, op, func(ctx context.Context) (*mgmtapi.Identity, error) {
		return api.CreateIdentity(ctx, c.version.String(), mgmtapi.IdentitySpec{ModuleID: name, ManagedBy: managedBy})
	})
	if err != nil || res.noOp {
		return model.Identity{}, err
	}
	return mapping.FromWireIdentity(*res.value), nil
}

func (c *Client) UpdateIdentity(ctx context.Context, name, generationID, managedBy string) (model.Identity, error) {
	api, release := c.session()
	defer release()

	op := operation{kind: "update_identity", desc: fmt.Sprintf("update identity for %s with generation ID %s", name, generationID)}
	res, err := execute(ctx, c, op, func(ctx context.Context) (*mgmtapi.Identity, error) {
		return api.UpdateIdentity(ctx, c.version.String(), name, mgmtapi.UpdateIdentity{GenerationID: generationID, ManagedBy: managedBy})
	})
	if err != nil || res.noOp {
		return model.Identity{}, err
	}
	return mapping.FromWireIdentity(*res.value), nil
}

func (c *Client) DeleteIdentity(ctx context.Context, name string) error {
	api, release := c.session()
	defer release()

	op := operation{kind: "delete_identity", desc: fmt.Sprintf("delete identity for %s", name)}
	return executeVoid(ctx, c, op, func(ctx context.Context) error {
		return api.DeleteIdentity(ctx, c.version.String(), name)
	})
}

func (c *Client) ListIdentities(ctx context.Context) ([]model.Identity, error) {
	api, release := c.session()
	defer release()

	op := operation{kind: "list_identities", desc: "list identities"}
	res, err := execute(ctx, c, op, func(ctx context.Context) (*mgmtapi.IdentityList, error) {
		return api.ListIdentities(ctx, c.version.String())
	})
	if err != nil || res.noOp {
		return nil, err
	}

	identities := make([]model.Identity, 0, len(res.value.Identities))
	for _, id := range res.value.Identities {
		identities = append(identities, mapping.FromWireIdentity(id))
	}
	return identities, nil
}

func (c *Client) CreateModule(ctx context.Context, spec model.ModuleSpec) error {
	api, release := c.session()
	defer release()

	wire := mapping.ToWireModuleSpec(spec)
	op := operation{kind: "create_module", desc: fmt.Sprintf("create module %s", spec.Name)}
	return executeVoid(ctx, c, op, func(ctx context.Context) error {
		_, err := api.CreateModule(ctx, c.version.String(), wire)
		return err
	})
}

func (c *Client) DeleteModule(ctx context.Context, name string) error {
	api, release := c.session()
	defer release()

	op := operation{kind: "delete_module", desc: fmt.Sprintf("delete module %s", name)}
	return executeVoid(ctx, c, op, func(ctx context.Context) error {
		return api.DeleteModule(ctx, c.version.String(), name)
	})
}

func (c *Client) StartModule(ctx context.Context, name string) error {
	api, release := c.session()
	defer release()

	op := operation{kind: "start_module", desc: fmt.Sprintf("start module %s", name)}
	return executeVoid(ctx, c, op, func(ctx context.Context) error {
		return api.StartModule(ctx, c.version.String(), name)
	})
}

func (c *Client) StopModule(ctx context.Context, name string) error {
	api, release := c.session()
	defer release()

	op := operation{kind: "stop_module", desc: fmt.Sprintf("stop module %s", name)}
	return executeVoid(ctx, c, op, func(ctx context.Context) error {
		return api.StopModule(ctx, c.version.String(), name)
	})
}

func (c *Client) RestartModule(ctx context.Context, name string) error {
	api, release := c.session()
	defer release()

	op := operation{kind: "restart_module", desc: fmt.Sprintf("restart module %s", name)}
	return executeVoid(ctx, c, op, func(ctx context.Context) error {
		return api.RestartModule(ctx, c.version.String(), name)
	})
}

func (c *Client) UpdateModule(ctx context.Context, spec model.ModuleSpec) error {
	return c.updateModule(ctx, spec, false)
}

func (c *Client) UpdateAndStartModule(ctx context.Context, spec model.ModuleSpec) error {
	return c.updateModule(ctx, spec, true)
}

func (c *Client) updateModule(ctx context.Context, spec model.ModuleSpec, start bool) error {
	api, release := c.session()
	defer release()

	op := operation{kind: "update_module", desc: fmt.Sprintf("update module %s", spec.Name)}
	if start {
		op = operation{kind: "update_and_start_module", desc: fmt.Sprintf("update and start module %s", spec.Name)}
	}

	wire := mapping.ToWireModuleSpec(spec)
	return executeVoid(ctx, c, op, func(ctx context.Context) error {
		_, err := api.UpdateModule(ctx, c.version.String(), spec.Name, start, wire)
		return err
	})
}

func (c *Client) PrepareUpdate(ctx context.Context, spec model.ModuleSpec) error {
	api, release := c.session()
	defer release()

	wire := mapping.ToWireModuleSpec(spec)
	op := operation{kind: "prepare_update", desc: fmt.Sprintf("prepare update for module %s", spec.Name)}
	return executeVoid(ctx, c, op, func(ctx context.Context) error {
		return api.PrepareUpdateModule(ctx, c.version.String(), spec.Name, wire)
	})
}

func (c *Client) GetSystemInfo(ctx context.Context) (model.SystemInfo, error) {
	api, release := c.session()
	defer release()

	op := operation{kind: "get_system_info", desc: "get system info"}
	res, err := execute(ctx, c, op, func(ctx context.Context) (*mgmtapi.SystemInfo, error) {
		return api.GetSystemInfo(ctx, c.version.String())
	})
	if err != nil || res.noOp {
		return model.SystemInfo{}, err
	}
	return mapping.FromWireSystemInfo(*res.value), nil
}

func (c *Client) ListModules(ctx context.Context) ([]RawModuleInfo, error) {
	api, release := c.session()
	defer release()

	op := operation{kind: "list_modules", desc: "list modules"}
	res, err := execute(ctx, c, op, func(ctx context.Context) (*mgmtapi.ModuleList, error) {
		return api.ListModules(ctx, c.version.String())
	})
	if err != nil || res.noOp {
		return nil, err
	}

	infos := make([]RawModuleInfo, 0, len(res.value.Modules))
	for _, d := range res.value.Modules {
		infos = append(infos, extractRuntimeInfo(d))
	}
	return infos, nil
}
