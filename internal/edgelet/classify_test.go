package edgelet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seantiz/edgemgmt/internal/mgmtapi"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"500", &mgmtapi.APIError{StatusCode: 500}, true},
		{"503 structured", &mgmtapi.APIError{StatusCode: 503, Result: &mgmtapi.ErrorResponse{Message: "busy"}}, true},
		{"599", &mgmtapi.APIError{StatusCode: 599}, true},
		{"wrapped 502", fmt.Errorf("call: %w", &mgmtapi.APIError{StatusCode: 502}), true},
		{"499", &mgmtapi.APIError{StatusCode: 499}, false},
		{"404", &mgmtapi.APIError{StatusCode: 404}, false},
		{"304", &mgmtapi.APIError{StatusCode: 304}, false},
		{"network", errors.New("dial tcp: connection refused"), false},
		{"domain error 500", &Error{Operation: "x", StatusCode: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTranslate(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		noOp, err := translate("start module m", &mgmtapi.APIError{
			StatusCode: 404,
			Response:   `{"message":"no such module"}`,
			Result:     &mgmtapi.ErrorResponse{Message: "no such module"},
		})
		assert.False(t, noOp)
		assert.Equal(t, &Error{Operation: "start module m", Message: "no such module", StatusCode: 404}, err)
		assert.EqualError(t, err, "error calling start module m: no such module")
	})

	t.Run("unstructured", func(t *testing.T) {
		noOp, err := translate("list modules", &mgmtapi.APIError{StatusCode: 400, Response: "bad"})
		assert.False(t, noOp)
		assert.Equal(t, &Error{Operation: "list modules", Message: "bad", StatusCode: 400}, err)
	})

	t.Run("unstructured empty body", func(t *testing.T) {
		_, err := translate("list modules", &mgmtapi.APIError{StatusCode: 500})
		assert.Equal(t, &Error{Operation: "list modules", Message: "", StatusCode: 500}, err)
	})

	t.Run("benign", func(t *testing.T) {
		noOp, err := translate("stop module m", &mgmtapi.APIError{StatusCode: 304})
		assert.True(t, noOp)
		assert.NoError(t, err)
	})

	t.Run("structured below 400", func(t *testing.T) {
		noOp, err := translate("stop module m", &mgmtapi.APIError{
			StatusCode: 304,
			Response:   `{"message":""}`,
			Result:     &mgmtapi.ErrorResponse{},
		})
		assert.False(t, noOp)
		assert.Equal(t, &Error{Operation: "stop module m", StatusCode: 304}, err)
	})

	t.Run("foreign error unchanged", func(t *testing.T) {
		orig := errors.New("boom")
		noOp, err := translate("x", orig)
		assert.False(t, noOp)
		assert.Same(t, orig, err)
	})
}

func TestErrorHelpers(t *testing.T) {
	err := fmt.Errorf("reconcile: %w", &Error{Operation: "delete module m", Message: "gone", StatusCode: 404})
	code, ok := StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, 404, code)
	assert.True(t, IsNotFound(err))

	_, ok = StatusCode(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsNotFound(&Error{StatusCode: 409}))
}

func TestParseVersion(t *testing.T) {
	for _, v := range SupportedVersions {
		got, err := ParseVersion(string(v))
		assert.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := ParseVersion("2020-01-01")
	assert.Error(t, err)
}
