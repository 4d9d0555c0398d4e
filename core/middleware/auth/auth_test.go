package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		header string
		value  string
		want   int
	}{
		{"Disabled", "", "", "", fiber.StatusOK},
		{"Missing Key", "secret", "", "", fiber.StatusUnauthorized},
		{"Wrong Key", "secret", Header, "guess", fiber.StatusUnauthorized},
		{"Header Key", "secret", Header, "secret", fiber.StatusOK},
		{"Bearer Token", "secret", fiber.HeaderAuthorization, "Bearer secret", fiber.StatusOK},
		{"Basic Auth", "secret", fiber.HeaderAuthorization, "Basic secret", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(New(Config{ApiKey: tt.apiKey}))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
