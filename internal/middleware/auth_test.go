package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/anomalyeval/internal/config"
	"github.com/soltixdb/anomalyeval/internal/logging"
	"github.com/soltixdb/anomalyeval/internal/models"
)

// generateAPIKey generates a valid API key of specified length
func generateAPIKey(length int) string {
	key := make([]byte, length)
	for i := range key {
		key[i] = 'a' + byte(i%26)
	}
	return string(key)
}

func newAuthApp(cfg config.AuthConfig) *fiber.App {
	app := fiber.New()
	app.Use(APIKeyAuth(logging.NewNop(), cfg))
	app.Post("/v1/score", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"exactly 32 chars", generateAPIKey(32), true},
		{"longer than 32 chars", generateAPIKey(64), true},
		{"1 char", "a", false},
		{"31 chars", generateAPIKey(31), false},
		{"empty", "", false},
		{"32 spaces", strings.Repeat(" ", 32), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateAPIKey(tt.key))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "abcd****", maskAPIKey("abcdefghijklmnop"))
	assert.Equal(t, "abcd****", maskAPIKey("abcde"))
	assert.Equal(t, "****", maskAPIKey("abcd"))
	assert.Equal(t, "****", maskAPIKey(""))
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	app := newAuthApp(config.AuthConfig{Enabled: false})

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/score", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAPIKeyAuth(t *testing.T) {
	validKey := generateAPIKey(32)
	other := generateAPIKey(40)
	app := newAuthApp(config.AuthConfig{Enabled: true, APIKeys: []string{"", validKey, other}})

	tests := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{"X-API-Key header", "X-API-Key", validKey, fiber.StatusOK},
		{"second key", "X-API-Key", other, fiber.StatusOK},
		{"bearer token", "Authorization", "Bearer " + validKey, fiber.StatusOK},
		{"plain authorization", "Authorization", validKey, fiber.StatusOK},
		{"missing key", "", "", fiber.StatusUnauthorized},
		{"wrong key", "X-API-Key", validKey + "wrong", fiber.StatusUnauthorized},
		{"prefix of key", "X-API-Key", validKey[:16], fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/v1/score", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == fiber.StatusUnauthorized {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				var errResp models.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &errResp))
				assert.Equal(t, "UNAUTHORIZED", errResp.Error.Code)
				assert.Equal(t, "/v1/score", errResp.Error.Path)
			}
		})
	}
}

func TestAPIKeyAuth_WeakKeysRejected(t *testing.T) {
	weakKeys := []string{"a", "short", generateAPIKey(31)}
	app := newAuthApp(config.AuthConfig{Enabled: true, APIKeys: weakKeys})

	for _, key := range weakKeys {
		req := httptest.NewRequest("POST", "/v1/score", nil)
		req.Header.Set("X-API-Key", key)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "weak key of length %d", len(key))
	}
}

func TestMatchKey(t *testing.T) {
	keys := [][]byte{[]byte(generateAPIKey(32)), []byte(generateAPIKey(33))}

	assert.True(t, matchKey(keys, []byte(generateAPIKey(33))))
	assert.False(t, matchKey(keys, []byte(generateAPIKey(34))))
	assert.False(t, matchKey(nil, []byte(generateAPIKey(32))))
}
