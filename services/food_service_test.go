package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"proteinid/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usdaSearchFixture = `{
  "foods": [
    {
      "fdcId": 171077,
      "description": "Chicken, broilers or fryers, breast, meat only, raw",
      "dataType": "SR Legacy",
      "foodNutrients": [
        {"nutrientId": 1008, "nutrientName": "Energy", "value": 120},
        {"nutrientId": 1003, "nutrientName": "Protein", "value": 22.5}
      ]
    },
    {
      "fdcId": 2,
      "description": "Chicken fat",
      "foodNutrients": [
        {"nutrientId": 1004, "nutrientName": "Total lipid (fat)", "value": 99.8},
        {"nutrientId": 1003, "nutrientName": "Protein", "value": 0}
      ]
    },
    {
      "fdcId": 3,
      "description": "Chicken stock",
      "brandOwner": "Test Brand",
      "foodNutrients": [
        {"nutrientId": 9999, "nutrientName": "Adjusted PROTEIN", "value": 2.1}
      ]
    },
    {
      "fdcId": 4,
      "description": "Water, chicken flavored",
      "foodNutrients": []
    }
  ]
}`

type usdaStub struct {
	mu       sync.Mutex
	server   *httptest.Server
	requests []map[string]any
	queries  []string
}

func newUSDAStub(t *testing.T, status int, body string) *usdaStub {
	t.Helper()
	stub := &usdaStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		stub.mu.Lock()
		defer stub.mu.Unlock()
		stub.requests = append(stub.requests, payload)
		if q, ok := payload["query"].(string); ok {
			stub.queries = append(stub.queries, q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *usdaStub) client() *USDAService {
	return &USDAService{APIKey: "demo", BaseURL: s.server.URL, HTTPClient: s.server.Client()}
}

func newTranslationStub(t *testing.T, status int, body string, calls *int) *TranslationService {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		assert.Equal(t, "lt|en", r.URL.Query().Get("langpair"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return &TranslationService{BaseURL: ts.URL, HTTPClient: ts.Client()}
}

func TestSearchNormalizesAndDropsProteinless(t *testing.T) {
	usda := newUSDAStub(t, http.StatusOK, usdaSearchFixture)
	calls := 0
	tr := newTranslationStub(t, http.StatusOK, `{}`, &calls)
	svc := NewFoodService(tr, usda.client(), nil, nil)

	out := svc.Search(context.Background(), "chicken")

	require.Len(t, out, 2)
	assert.Equal(t, FoodResult{
		ID:             "171077",
		Description:    "Chicken, broilers or fryers, breast, meat only, raw",
		ProteinPer100g: 22.5,
	}, out[0])
	assert.Equal(t, "3", out[1].ID)
	assert.Equal(t, "Test Brand", out[1].Brand)
	assert.Equal(t, 2.1, out[1].ProteinPer100g)
	for _, r := range out {
		assert.Greater(t, r.ProteinPer100g, 0.0)
	}

	assert.Zero(t, calls, "plain English is not translated")
	require.Len(t, usda.requests, 1)
	assert.Equal(t, "chicken", usda.requests[0]["query"])
	assert.EqualValues(t, 10, usda.requests[0]["pageSize"])
	assert.Equal(t, []any{"Foundation", "SR Legacy"}, usda.requests[0]["dataType"])
}

func TestSearchTranslatesLithuanian(t *testing.T) {
	usda := newUSDAStub(t, http.StatusOK, usdaSearchFixture)
	calls := 0
	tr := newTranslationStub(t, http.StatusOK,
		`{"responseData":{"translatedText":"chicken breast"},"responseStatus":200}`, &calls)
	svc := NewFoodService(tr, usda.client(), nil, nil)

	out := svc.Search(context.Background(), "vištienos krūtinėlė")

	assert.Len(t, out, 2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"chicken breast"}, usda.queries)
}

func TestSearchFallsBackWhenTranslationFails(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"server error":   {http.StatusInternalServerError, `oops`},
		"quota exceeded": {http.StatusOK, `{"responseData":{"translatedText":"MYMEMORY WARNING"},"responseStatus":"403"}`},
		"malformed":      {http.StatusOK, `{"responseData":`},
		"empty":          {http.StatusOK, `{"responseData":{"translatedText":""},"responseStatus":200}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			usda := newUSDAStub(t, http.StatusOK, usdaSearchFixture)
			calls := 0
			tr := newTranslationStub(t, tc.status, tc.body, &calls)
			svc := NewFoodService(tr, usda.client(), nil, nil)

			var out []FoodResult
			require.NotPanics(t, func() { out = svc.Search(context.Background(), "sūris") })
			assert.Len(t, out, 2)
			assert.Equal(t, 1, calls)
			assert.Equal(t, []string{"sūris"}, usda.queries)
		})
	}
}

func TestSearchReturnsEmptyOnTransportFailure(t *testing.T) {
	usda := newUSDAStub(t, http.StatusBadGateway, `upstream down`)
	svc := NewFoodService(nil, usda.client(), nil, nil)
	out := svc.Search(context.Background(), "beef")
	assert.NotNil(t, out)
	assert.Empty(t, out)

	usda = newUSDAStub(t, http.StatusOK, `{"foods": [`)
	svc = NewFoodService(nil, usda.client(), nil, nil)
	assert.Empty(t, svc.Search(context.Background(), "beef"))

	// unreachable host
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	svc = NewFoodService(nil, &USDAService{APIKey: "demo", BaseURL: dead.URL}, nil, nil)
	assert.Empty(t, svc.Search(context.Background(), "beef"))

	assert.Empty(t, svc.Search(context.Background(), "   "))
}

func TestNeedsTranslation(t *testing.T) {
	assert.False(t, NeedsTranslation("chicken breast"))
	assert.True(t, NeedsTranslation("sūris"))
	assert.True(t, NeedsTranslation("VARŠKĖ"))
	assert.True(t, NeedsTranslation("jogurtas 2%"))
	assert.True(t, NeedsTranslation(""))
}

func TestDetails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fdc/v1/food/171077" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"fdcId":171077,"description":"Chicken breast","foodNutrients":[
			{"nutrient":{"id":1003,"name":"Protein"},"amount":22.5}]}`))
	}))
	defer ts.Close()
	svc := NewFoodService(nil, &USDAService{APIKey: "k", BaseURL: ts.URL, HTTPClient: ts.Client()}, nil, nil)

	got := svc.Details(context.Background(), 171077)
	require.NotNil(t, got)
	assert.Equal(t, 22.5, got.ProteinPer100g)

	assert.Nil(t, svc.Details(context.Background(), 1))
}

type labelStub struct {
	labels []string
	err    error
	got    []byte
}

func (l *labelStub) DetectLabels(_ context.Context, image []byte) ([]string, error) {
	l.got = image
	return l.labels, l.err
}

func TestRecognize(t *testing.T) {
	usda := newUSDAStub(t, http.StatusOK, usdaSearchFixture)
	img := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	_, err := NewFoodService(nil, usda.client(), nil, nil).Recognize(context.Background(), img)
	assert.ErrorIs(t, err, ErrRecognitionDisabled)

	labels := &labelStub{labels: []string{"Chicken", "Food"}}
	svc := NewFoodService(nil, usda.client(), labels, nil)
	out, err := svc.Recognize(context.Background(), img)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, []byte("jpeg-bytes"), labels.got)
	assert.Equal(t, []string{"Chicken"}, usda.queries)

	_, err = svc.Recognize(context.Background(), "not-a-data-uri")
	assert.ErrorIs(t, err, utils.ErrInvalidImage)

	_, err = NewFoodService(nil, usda.client(), &labelStub{}, nil).Recognize(context.Background(), img)
	assert.ErrorIs(t, err, ErrNoLabels)

	_, err = NewFoodService(nil, usda.client(), &labelStub{err: errors.New("throttled")}, nil).Recognize(context.Background(), img)
	assert.Error(t, err)
}
