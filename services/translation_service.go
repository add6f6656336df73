package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTranslationBaseURL = "https://api.mymemory.translated.net"

// TranslationService calls the MyMemory API. The free tier allows about
// 1000 words a day; past that it answers with a non-200 status.
type TranslationService struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewTranslationService(baseURL string) *TranslationService {
	return &TranslationService{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// MyMemory sends this as a number on success and sometimes as a
	// string on errors.
	ResponseStatus json.RawMessage `json:"responseStatus"`
}

func (s *TranslationService) Translate(ctx context.Context, text, source, target string) (string, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultTranslationBaseURL
	}
	httpClient := s.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", source+"|"+target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/get?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create translation request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call translation API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read translation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation API error %d", resp.StatusCode)
	}

	var parsed myMemoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode translation response: %w", err)
	}
	if strings.Trim(string(parsed.ResponseStatus), `"`) != "200" {
		return "", fmt.Errorf("translation API status %s", string(parsed.ResponseStatus))
	}
	out := strings.TrimSpace(parsed.ResponseData.TranslatedText)
	if out == "" {
		return "", fmt.Errorf("empty translation")
	}
	return out, nil
}
