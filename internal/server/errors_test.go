package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farmsaathi/farmsaathi/internal/access"
	farmdomain "github.com/farmsaathi/farmsaathi/internal/farm/domain"
	financedomain "github.com/farmsaathi/farmsaathi/internal/finance/domain"
	registrydomain "github.com/farmsaathi/farmsaathi/internal/registry/domain"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrUnauthorized, http.StatusUnauthorized},
		{farmdomain.ErrInvalidActor, http.StatusUnauthorized},
		{access.ErrForbidden, http.StatusForbidden},
		{financedomain.ErrForbiddenOwner, http.StatusForbidden},
		{farmdomain.ErrNotFound, http.StatusNotFound},
		{registrydomain.ErrNotFound, http.StatusNotFound},
		{farmdomain.ErrConflict, http.StatusConflict},
		{farmdomain.ErrInvalidEvent, http.StatusBadRequest},
		{farmdomain.ErrInvalidField, http.StatusBadRequest},
		{financedomain.ErrInvalidRecord, http.StatusBadRequest},
		{financedomain.ErrInvalidRange, http.StatusBadRequest},
		{ErrInvalidRequest, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
		// Wrapped errors keep their mapping.
		{fmt.Errorf("appending: %w", farmdomain.ErrConflict), http.StatusConflict},
	}
	for _, tc := range cases {
		status, _ := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}
}
