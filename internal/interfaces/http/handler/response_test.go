package httphandler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/barterbay/barterd/internal/core/domain"
	httphandler "github.com/barterbay/barterd/internal/interfaces/http/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		err               error
		expectedStatus    int
		expectedCode      string
		expectedRetryable bool
	}{
		{domain.ErrSelfTrade, 400, "SELF_TRADE", false},
		{domain.ErrInvalidArgument, 400, "INVALID_ARGUMENT", false},
		{domain.ErrForbiddenTransition, 403, "FORBIDDEN_TRANSITION", false},
		{domain.ErrAlreadyDecided, 409, "ALREADY_DECIDED", false},
		{fmt.Errorf("update: %w", domain.ErrConcurrentModification), 409, "CONCURRENT_MODIFICATION", true},
		{domain.ErrNotFound, 404, "NOT_FOUND", false},
		{errors.New("db is on fire"), 500, "INTERNAL", false},
		{fiber.ErrMethodNotAllowed, 405, "METHOD_NOT_ALLOWED", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.expectedCode, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: httphandler.ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tt.expectedStatus, resp.StatusCode)

			var res httphandler.Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
			require.False(t, res.Success)
			require.Equal(t, tt.expectedCode, res.Error.Code)
			require.Equal(t, tt.expectedRetryable, res.Error.Retryable)
			if tt.expectedStatus == 500 {
				require.NotContains(t, res.Error.Message, "fire")
			}
		})
	}
}
