package edgelet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instrumentedTransport wraps a RoundTripper the way tracing libraries replace
// http.DefaultTransport.
type instrumentedTransport struct {
	http.RoundTripper
}

func TestSessionWithWrappedDefaultTransport(t *testing.T) {
	orig := http.DefaultTransport
	http.DefaultTransport = instrumentedTransport{orig}
	t.Cleanup(func() { http.DefaultTransport = orig })

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ts.Close)

	c, err := New(ts.URL, Version20181230)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		err = c.StartModule(context.Background(), "m")
	})
	assert.NoError(t, err)
}

func TestNewTransportFallback(t *testing.T) {
	orig := http.DefaultTransport
	http.DefaultTransport = instrumentedTransport{orig}
	t.Cleanup(func() { http.DefaultTransport = orig })

	tr := newTransport()
	require.NotNil(t, tr)
	assert.NotNil(t, tr.Proxy)
	assert.NotNil(t, tr.DialContext)
	assert.True(t, tr.ForceAttemptHTTP2)
}

func TestNewTransportClonesDefault(t *testing.T) {
	a, b := newTransport(), newTransport()
	assert.NotSame(t, a, b)
	assert.NotSame(t, http.DefaultTransport, a)
}
