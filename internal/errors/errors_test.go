package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmtabletop/encounter-api/internal/errors"
)

func TestErrorString(t *testing.T) {
	err := errors.NotFound("encounter not found")
	assert.Equal(t, "NOT_FOUND: encounter not found", err.Error())

	wrapped := errors.Wrap(fmt.Errorf("dial tcp: refused"), "failed to load session")
	assert.Contains(t, wrapped.Error(), "INTERNAL: failed to load session")
	assert.Contains(t, wrapped.Error(), "dial tcp: refused")
}

func TestWrapPreservesCode(t *testing.T) {
	inner := errors.NotFoundf("no session for encounter %s", "goblin-ambush")
	outer := errors.Wrap(inner, "fetch session")

	assert.Equal(t, errors.CodeNotFound, errors.GetCode(outer))
	assert.True(t, errors.IsNotFound(outer))
	assert.True(t, stderrors.Is(outer, inner))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, "nothing"))
}

func TestWrapWithCode(t *testing.T) {
	inner := fmt.Errorf("redis: nil")
	err := errors.WrapWithCode(inner, errors.CodeNotFound, "encounter not found")

	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, "encounter not found", errors.GetMessage(err))
}

func TestWithMeta(t *testing.T) {
	err := errors.FailedPrecondition("session already completed").
		WithMeta("encounter_id", "goblin-ambush")

	meta := errors.GetMeta(err)
	assert.Equal(t, "goblin-ambush", meta["encounter_id"])
}

func TestGetCodeOnPlainError(t *testing.T) {
	assert.Equal(t, errors.CodeInternal, errors.GetCode(fmt.Errorf("boom")))
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[errors.Code]int{
		errors.CodeOK:                 http.StatusOK,
		errors.CodeInvalidArgument:    http.StatusBadRequest,
		errors.CodeNotFound:           http.StatusNotFound,
		errors.CodeAlreadyExists:      http.StatusConflict,
		errors.CodeFailedPrecondition: http.StatusConflict,
		errors.CodeInternal:           http.StatusInternalServerError,
		errors.CodeUnavailable:        http.StatusServiceUnavailable,
	}

	for code, want := range cases {
		assert.Equal(t, want, code.HTTPStatus(), "code %s", code)
	}
}
