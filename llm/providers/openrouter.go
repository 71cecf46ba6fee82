package providers

import (
	"net/http"
	"os"

	"github.com/c360studio/specparse/llm"
)

// OpenRouterProvider routes OpenAI-format requests through OpenRouter.
type OpenRouterProvider struct {
	OllamaProvider
}

func init() {
	llm.RegisterProvider(&OpenRouterProvider{})
}

// Name returns the provider identifier.
func (o *OpenRouterProvider) Name() string {
	return "openrouter"
}

// BuildURL constructs the OpenRouter chat completions endpoint.
func (o *OpenRouterProvider) BuildURL(baseURL string) string {
	return chatCompletionsURL(baseURL, "https://openrouter.ai/api/v1")
}

// SetHeaders adds the bearer token and the optional attribution headers
// OpenRouter uses for app rankings.
func (o *OpenRouterProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	setBearer(req, apiKey)

	if siteURL := os.Getenv("OPENROUTER_SITE_URL"); siteURL != "" {
		req.Header.Set("HTTP-Referer", siteURL)
	}
	if title := os.Getenv("OPENROUTER_APP_TITLE"); title != "" {
		req.Header.Set("X-Title", title)
	}
}
