package providers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenRouterProvider_BuildURL(t *testing.T) {
	p := &OpenRouterProvider{}
	assert.Equal(t, "openrouter", p.Name())
	assert.Equal(t, "https://openrouter.ai/api/v1/chat/completions", p.BuildURL(""))
	assert.Equal(t, "https://gw.example/v1/chat/completions", p.BuildURL("https://gw.example/v1/"))
}

func TestOpenRouterProvider_SetHeaders(t *testing.T) {
	p := &OpenRouterProvider{}

	t.Run("attribution headers when env vars present", func(t *testing.T) {
		t.Setenv("OPENROUTER_API_KEY", "or-key")
		t.Setenv("OPENROUTER_SITE_URL", "https://myapp.com")
		t.Setenv("OPENROUTER_APP_TITLE", "My App")

		req, _ := http.NewRequest(http.MethodPost, "https://openrouter.ai/api/v1/chat/completions", nil)
		p.SetHeaders(req, "")

		assert.Equal(t, "Bearer or-key", req.Header.Get("Authorization"))
		assert.Equal(t, "https://myapp.com", req.Header.Get("HTTP-Referer"))
		assert.Equal(t, "My App", req.Header.Get("X-Title"))
	})

	t.Run("no attribution when unset", func(t *testing.T) {
		t.Setenv("OPENROUTER_API_KEY", "")
		t.Setenv("OPENROUTER_SITE_URL", "")
		t.Setenv("OPENROUTER_APP_TITLE", "")

		req, _ := http.NewRequest(http.MethodPost, "https://openrouter.ai/api/v1/chat/completions", nil)
		p.SetHeaders(req, "")

		assert.Empty(t, req.Header.Get("Authorization"))
		assert.Empty(t, req.Header.Get("HTTP-Referer"))
		assert.Empty(t, req.Header.Get("X-Title"))
	})
}
