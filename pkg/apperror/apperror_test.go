package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_WrappedError(t *testing.T) {
	sentinel := New(KindOutOfStock, "insufficient stock")
	wrapped := fmt.Errorf("add item: %w", sentinel)

	assert.Equal(t, KindOutOfStock, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, sentinel))
	assert.True(t, Is(wrapped, KindOutOfStock))
	assert.Equal(t, "insufficient stock", PublicMessage(wrapped))
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	err := errors.New("connection reset by peer")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Internal Server Error", PublicMessage(err))
	assert.False(t, Is(nil, KindInternal))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:            http.StatusNotFound,
		KindOutOfStock:          http.StatusConflict,
		KindInvalidQuantity:     http.StatusBadRequest,
		KindEmptyCart:           http.StatusUnprocessableEntity,
		KindConcurrencyConflict: http.StatusConflict,
		KindExternalService:     http.StatusBadGateway,
		KindUnauthorized:        http.StatusUnauthorized,
		KindInternal:            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind)
	}
}
