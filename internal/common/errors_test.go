package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_UnwrapsKindAndCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(ErrorInternal, "storage error", cause)

	assert.True(t, errors.Is(err, ErrorInternal))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "storage error: dial tcp: refused", err.Error())
	assert.Equal(t, "storage error", Message(err))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
		code int
		kind string
	}{
		{"typed", New(ErrorNotFound, "Lake not found"), ErrorNotFound, http.StatusNotFound, "not_found"},
		{"wrapped sentinel", fmt.Errorf("get: %w", ErrorForbidden), ErrorForbidden, http.StatusForbidden, "forbidden"},
		{"wrapped typed", fmt.Errorf("svc: %w", New(ErrorBadRequest, "Invalid status")), ErrorBadRequest, http.StatusBadRequest, "bad_request"},
		{"unauthorized", New(ErrorUnauthorized, "Invalid session"), ErrorUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"unknown", errors.New("boom"), ErrorInternal, http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
			assert.Equal(t, tt.code, HTTPStatus(tt.err))
			assert.Equal(t, tt.kind, KindName(tt.err))
		})
	}
}

func TestMessage_PlainErrorUsesKindText(t *testing.T) {
	assert.Equal(t, "internal error", Message(errors.New("secret dsn leaked")))
	assert.Equal(t, "forbidden", Message(ErrorForbidden))
}
