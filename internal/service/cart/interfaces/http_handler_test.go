package interfaces

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"bazaar/internal/service/cart/domain"
)

func TestWriteCartError_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"item not found", domain.ErrItemNotFound, http.StatusNotFound, "cart item not found"},
		{"not owned", domain.ErrNotOwnedByUser, http.StatusForbidden, "cart item does not belong to user"},
		{"invalid qty", domain.ErrInvalidQty, http.StatusUnprocessableEntity, "quantity must be greater than zero"},
		{"wrapped sentinel", errors.Wrap(domain.ErrInvalidQty, "add item"), http.StatusUnprocessableEntity, "quantity must be greater than zero"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeCartError(rec, tc.err)
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}

func TestWriteCartError_UnknownErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeCartError(rec, errors.New("dial tcp 10.0.0.5:3306: connect: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "something went wrong, please try again", strings.TrimSpace(body))
	assert.NotContains(t, body, "10.0.0.5")
}
