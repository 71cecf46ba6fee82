package providers

import (
	"net/http"
	"os"

	"github.com/c360studio/specparse/llm"
)

// OpenAIProvider implements the OpenAI chat completions API.
type OpenAIProvider struct {
	OllamaProvider // Embed for shared request/response format
}

func init() {
	llm.RegisterProvider(&OpenAIProvider{})
}

// Name returns the provider identifier.
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// BuildURL constructs the OpenAI API endpoint.
func (o *OpenAIProvider) BuildURL(baseURL string) string {
	return chatCompletionsURL(baseURL, "https://api.openai.com/v1")
}

// SetHeaders adds OpenAI authentication and organization headers.
func (o *OpenAIProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	setBearer(req, apiKey)

	if org := os.Getenv("OPENAI_ORG"); org != "" {
		req.Header.Set("OpenAI-Organization", org)
	}
}
