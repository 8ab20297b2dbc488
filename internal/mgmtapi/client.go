package mgmtapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 4 << 20 // 4 MB

// APIError is returned for any response whose status code is not the one the
// operation documents as success.
type APIError struct {
	StatusCode int
	// Response is the raw response body.
	Response string
	// Result is set when the body was a structured error.
	Result *ErrorResponse
}

func (e *APIError) Error() string {
	if e.Result != nil {
		return fmt.Sprintf("management API returned %d: %s", e.StatusCode, e.Result.Message)
	}
	return fmt.Sprintf("management API returned unexpected status %d", e.StatusCode)
}

// newAPIError treats body as structured when it is a JSON object carrying a
// message key, even an empty or null one.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Response: string(body)}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return apiErr
	}
	if _, ok := fields["message"]; !ok {
		return apiErr
	}
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		apiErr.Result = &er
	}
	return apiErr
}

// Client issues requests against one management endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a transport client for baseURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) CreateIdentity(ctx context.Context, version string, spec IdentitySpec) (*Identity, error) {
	var out Identity
	if err := c.do(ctx, http.MethodPost, "/identities", version, nil, spec, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateIdentity(ctx context.Context, version, name string, body UpdateIdentity) (*Identity, error) {
	var out Identity
	if err := c.do(ctx, http.MethodPut, "/identities/"+url.PathEscape(name), version, nil, body, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteIdentity(ctx context.Context, version, name string) error {
	return c.do(ctx, http.MethodDelete, "/identities/"+url.PathEscape(name), version, nil, nil, http.StatusNoContent, nil)
}

func (c *Client) ListIdentities(ctx context.Context, version string) (*IdentityList, error) {
	var out IdentityList
	if err := c.do(ctx, http.MethodGet, "/identities", version, nil, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateModule(ctx context.Context, version string, spec ModuleSpec) (*ModuleDetails, error) {
	var out ModuleDetails
	if err := c.do(ctx, http.MethodPost, "/modules", version, nil, spec, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListModules(ctx context.Context, version string) (*ModuleList, error) {
	var out ModuleList
	if err := c.do(ctx, http.MethodGet, "/modules", version, nil, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateModule replaces the module spec. When start is true the runtime also
// starts the module after updating it.
func (c *Client) UpdateModule(ctx context.Context, version, name string, start bool, spec ModuleSpec) (*ModuleDetails, error) {
	var query url.Values
	if start {
		query = url.Values{"start": []string{"true"}}
	}
	var out ModuleDetails
	if err := c.do(ctx, http.MethodPut, "/modules/"+url.PathEscape(name), version, query, spec, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PrepareUpdateModule(ctx context.Context, version, name string, spec ModuleSpec) error {
	return c.do(ctx, http.MethodPost, "/modules/"+url.PathEscape(name)+"/prepare-update", version, nil, spec, http.StatusNoContent, nil)
}

func (c *Client) DeleteModule(ctx context.Context, version, name string) error {
	return c.do(ctx, http.MethodDelete, "/modules/"+url.PathEscape(name), version, nil, nil, http.StatusNoContent, nil)
}

func (c *Client) StartModule(ctx context.Context, version, name string) error {
	return c.moduleAction(ctx, version, name, "start")
}

func (c *Client) StopModule(ctx context.Context, version, name string) error {
	return c.moduleAction(ctx, version, name, "stop")
}

func (c *Client) RestartModule(ctx context.Context, version, name string) error {
	return c.moduleAction(ctx, version, name, "restart")
}

func (c *Client) GetSystemInfo(ctx context.Context, version string) (*SystemInfo, error) {
	var out SystemInfo
	if err := c.do(ctx, http.MethodGet, "/systeminfo", version, nil, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) moduleAction(ctx context.Context, version, name, action string) error {
	return c.do(ctx, http.MethodPost, "/modules/"+url.PathEscape(name)+"/"+action, version, nil, nil, http.StatusNoContent, nil)
}

// do performs one request. A response with any status other than want
// becomes an *APIError; out, when non-nil, receives the decoded body.
func (c *Client) do(ctx context.Context, method, path, version string, query url.Values, in any, want int, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set(VersionParam, version)
	target := c.baseURL + path + "?" + query.Encode()

	var body io.Reader
	if in != nil {
		data, err := encodeBody(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// encodeBody marshals a request without HTML escaping. Raw settings are
// compacted but otherwise sent as given.
func encodeBody(in any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(in); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
