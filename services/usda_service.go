package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultUSDABaseURL = "https://api.nal.usda.gov"
	// FoodData Central id of "Protein".
	proteinNutrientID = 1003
)

// USDAService is a FoodData Central client.
type USDAService struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewUSDAService(apiKey, baseURL string) *USDAService {
	return &USDAService{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// USDAFood is a food record with its nutrients flattened from either the
// search or the details payload.
type USDAFood struct {
	FDCID       int64
	Description string
	Brand       string
	DataType    string
	Nutrients   []USDANutrient
}

type USDANutrient struct {
	ID    int
	Name  string
	Value float64
}

type usdaSearchResponse struct {
	Foods []struct {
		FDCID         int64  `json:"fdcId"`
		Description   string `json:"description"`
		BrandName     string `json:"brandName"`
		BrandOwner    string `json:"brandOwner"`
		DataType      string `json:"dataType"`
		FoodNutrients []struct {
			NutrientID   int     `json:"nutrientId"`
			NutrientName string  `json:"nutrientName"`
			Value        float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

type usdaDetailResponse struct {
	FDCID         int64  `json:"fdcId"`
	Description   string `json:"description"`
	BrandName     string `json:"brandName"`
	BrandOwner    string `json:"brandOwner"`
	DataType      string `json:"dataType"`
	FoodNutrients []struct {
		Nutrient struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"nutrient"`
		Amount float64 `json:"amount"`
	} `json:"foodNutrients"`
}

func (s *USDAService) baseURL() string {
	b := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if b == "" {
		return defaultUSDABaseURL
	}
	return b
}

func (s *USDAService) client() *http.Client {
	if s.HTTPClient == nil {
		return &http.Client{Timeout: 10 * time.Second}
	}
	return s.HTTPClient
}

func (s *USDAService) do(req *http.Request) ([]byte, error) {
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute USDA request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read USDA response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("USDA request failed with status %d", resp.StatusCode)
	}
	return body, nil
}

// SearchFoods runs a foods/search query restricted to dataTypes.
func (s *USDAService) SearchFoods(ctx context.Context, query string, pageSize int, dataTypes []string) ([]USDAFood, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, fmt.Errorf("missing USDA API key")
	}
	payload, err := json.Marshal(map[string]any{
		"query":    query,
		"pageSize": pageSize,
		"dataType": dataTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal USDA search payload: %w", err)
	}

	u := fmt.Sprintf("%s/fdc/v1/foods/search?api_key=%s", s.baseURL(), url.QueryEscape(s.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create USDA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}
	var parsed usdaSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode USDA response: %w", err)
	}

	out := make([]USDAFood, 0, len(parsed.Foods))
	for _, f := range parsed.Foods {
		food := USDAFood{
			FDCID:       f.FDCID,
			Description: strings.TrimSpace(f.Description),
			Brand:       firstNonEmpty(f.BrandName, f.BrandOwner),
			DataType:    f.DataType,
		}
		for _, n := range f.FoodNutrients {
			food.Nutrients = append(food.Nutrients, USDANutrient{ID: n.NutrientID, Name: n.NutrientName, Value: n.Value})
		}
		out = append(out, food)
	}
	return out, nil
}

// Food fetches a single food by its FDC id.
func (s *USDAService) Food(ctx context.Context, fdcID int64) (*USDAFood, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, fmt.Errorf("missing USDA API key")
	}
	u := fmt.Sprintf("%s/fdc/v1/food/%d?api_key=%s", s.baseURL(), fdcID, url.QueryEscape(s.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create USDA request: %w", err)
	}
	body, err := s.do(req)
	if err != nil {
		return nil, err
	}
	var d usdaDetailResponse
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("decode USDA response: %w", err)
	}

	food := &USDAFood{
		FDCID:       d.FDCID,
		Description: strings.TrimSpace(d.Description),
		Brand:       firstNonEmpty(d.BrandName, d.BrandOwner),
		DataType:    d.DataType,
	}
	for _, n := range d.FoodNutrients {
		food.Nutrients = append(food.Nutrients, USDANutrient{ID: n.Nutrient.ID, Name: n.Nutrient.Name, Value: n.Amount})
	}
	return food, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
