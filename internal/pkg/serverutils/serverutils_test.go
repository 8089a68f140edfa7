package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"ai-qa-rag-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestErrorHandlerMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", fmt.Errorf("%w: question is required", apperror.ErrValidation), 400, "validation"},
		{"chunk config", fmt.Errorf("%w: overlap", apperror.ErrInvalidChunkConfig), 400, "invalid_chunk_config"},
		{"not found", fmt.Errorf("%w: document", apperror.ErrNotFound), 404, "not_found"},
		{"embedding", fmt.Errorf("%w: timeout", apperror.ErrEmbeddingFailed), 502, "embedding_failed"},
		{"generation", fmt.Errorf("%w: 500", apperror.ErrGenerationFailed), 502, "generation_failed"},
		{"internal", errors.New("boom"), 500, "internal"},
		{"fiber", fiber.NewError(fiber.StatusTeapot, "teapot"), 418, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			raw, _ := io.ReadAll(resp.Body)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.kind, body.ErrorKind)
			if tt.status == 500 {
				assert.Equal(t, "internal server error", body.Message)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Question string `validate:"required,max=10"`
	}

	assert.NoError(t, ValidateRequest(req{Question: "ok"}))

	err := ValidateRequest(req{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Contains(t, err.Error(), "Question is required")

	err = ValidateRequest(req{Question: "this is far too long"})
	assert.Contains(t, err.Error(), "at most 10")
}

func TestOptionalUserMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(OptionalUserMiddleware(testSecret))
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendString(UserId(ctx)) })

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"anonymous", "", 200, ""},
		{"valid user_id claim", "Bearer " + signedToken(t, testSecret, jwt.MapClaims{"user_id": "u-1"}), 200, "u-1"},
		{"valid sub claim", "Bearer " + signedToken(t, testSecret, jwt.MapClaims{"sub": "u-2"}), 200, "u-2"},
		{"wrong secret", "Bearer " + signedToken(t, "other", jwt.MapClaims{"user_id": "u-1"}), 401, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == 200 {
				raw, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.body, string(raw))
			}
		})
	}
}

func TestJwtMiddleware_RequiresToken(t *testing.T) {
	app := fiber.New()
	app.Use(JwtMiddleware(testSecret))
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendString(UserId(ctx)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, jwt.MapClaims{"user_id": "admin"}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
