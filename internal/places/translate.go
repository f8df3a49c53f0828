package places

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const MyMemoryDefaultURL = "https://api.mymemory.translated.net/get"

// MyMemoryClient translates text using the MyMemory API (no key required).
type MyMemoryClient struct {
	baseURL string
	client  *http.Client
}

// NewMyMemoryClient constructs a MyMemoryClient using the public endpoint.
func NewMyMemoryClient() *MyMemoryClient {
	return NewMyMemoryClientWithURL(MyMemoryDefaultURL)
}

// NewMyMemoryClientWithURL constructs a MyMemoryClient pointing at a custom URL (for tests).
func NewMyMemoryClientWithURL(baseURL string) *MyMemoryClient {
	return &MyMemoryClient{baseURL: baseURL, client: newHTTPClient(httpTimeout)}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// MyMemory sends responseStatus as a number on success and sometimes as a string on error.
	ResponseStatus  any    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

func (r myMemoryResponse) ok() bool {
	switch v := r.ResponseStatus.(type) {
	case float64:
		return v == 200
	case string:
		return v == "200"
	}
	return false
}

// Translate translates text from sourceLang to targetLang.
func (c *MyMemoryClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text cannot be empty", ErrTranslationFailed)
	}

	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", sourceLang+"|"+targetLang)

	var raw myMemoryResponse
	if err := doGet(ctx, c.client, "mymemory", c.baseURL+"?"+params.Encode(), &raw); err != nil {
		return "", fmt.Errorf("%w: mymemory: %w", ErrTranslationFailed, err)
	}

	if !raw.ok() {
		details := raw.ResponseDetails
		if details == "" {
			details = fmt.Sprintf("status %v", raw.ResponseStatus)
		}
		return "", fmt.Errorf("%w: mymemory: %s", ErrTranslationFailed, details)
	}

	return raw.ResponseData.TranslatedText, nil
}
