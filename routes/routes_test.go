package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"proteinid/controllers"
	"proteinid/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtSecret = []byte("routes-test")

const usdaFixture = `{"foods":[
  {"fdcId":171077,"description":"Chicken breast","foodNutrients":[{"nutrientId":1003,"nutrientName":"Protein","value":22.5}]},
  {"fdcId":2,"description":"Chicken fat","foodNutrients":[{"nutrientId":1003,"nutrientName":"Protein","value":0}]}
]}`

func init() { gin.SetMode(gin.TestMode) }

type recordingNotifier struct {
	user, title string
	data        map[string]string
}

func (n *recordingNotifier) PushToUser(_ context.Context, userID, title, _ string, data map[string]string) int {
	n.user, n.title, n.data = userID, title, data
	return 2
}

type api struct {
	t      *testing.T
	router *gin.Engine
	store  *services.MemoryStore
	pushed *recordingNotifier
}

func newAPI(t *testing.T) *api {
	t.Helper()
	usda := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(usdaFixture))
	}))
	t.Cleanup(usda.Close)

	log := hclog.NewNullLogger()
	store := services.NewMemoryStore()
	foods := services.NewFoodService(nil, &services.USDAService{APIKey: "k", BaseURL: usda.URL, HTTPClient: usda.Client()}, nil, log)
	push := services.NewPushService(store, nil, "", log)
	pushed := &recordingNotifier{}

	clock := func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	logs := services.NewLogService(store, store, push, log)
	logs.Now, logs.Location = clock, time.UTC
	weights := services.NewWeightService(store, store, log)
	weights.Now, weights.Location = clock, time.UTC
	stats := services.NewStatsService(store, store, log)
	stats.Now, stats.Location = clock, time.UTC

	r := SetupRouter(Handlers{
		Auth:     controllers.NewAuthController(services.NewAuthService(store, store, nil, jwtSecret, time.Hour, log)),
		Profile:  controllers.NewProfileController(services.NewProfileService(store, nil, log)),
		Food:     controllers.NewFoodController(foods),
		SearchWS: controllers.NewSearchWSController(foods, services.SearchSessionOptions{QuietPeriod: 150 * time.Millisecond}, log),
		Log:      controllers.NewLogController(logs),
		Weight:   controllers.NewWeightController(weights),
		Stats:    controllers.NewStatsController(stats),
		Device:   controllers.NewDeviceController(push),
		Dev:      controllers.NewDevController(pushed),
	}, jwtSecret, log)
	return &api{t: t, router: r, store: store, pushed: pushed}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *api) register(email string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/auth/register", "", gin.H{"email": email, "password": "pa55word", "name": "Ona"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[services.AuthResult](a.t, w).Token
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)
	a.register("ona@example.com")

	w := a.do(http.MethodPost, "/auth/register", "", gin.H{"email": "ona@example.com", "password": "pa55word"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/auth/register", "", gin.H{"email": "nope", "password": "pa55word"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ona@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ona@example.com", "password": "pa55word"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[services.AuthResult](t, w).Token

	w = a.do(http.MethodGet, "/user/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ona@example.com")
	assert.NotContains(t, w.Body.String(), "pa55word")

	w = a.do(http.MethodPost, "/auth/forgot-password", "", gin.H{"email": "ona@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodPost, "/auth/reset-password", "", gin.H{"token": "ZZZZZZ", "new_password": "newpass1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/user/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/logs", "bad-token", nil).Code)
}

func TestProfileAndGoal(t *testing.T) {
	a := newAPI(t)
	token := a.register("ona@example.com")

	w := a.do(http.MethodGet, "/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[services.ProfileView](t, w)
	assert.False(t, view.SetupRequired)
	assert.Equal(t, "Ona", view.Profile.Name)
	assert.Equal(t, 100, view.Goal)

	w = a.do(http.MethodPut, "/user/profile", token, gin.H{"weight_kg": 80, "sex": "male"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 144, decode[services.ProfileView](t, w).Goal)

	w = a.do(http.MethodPut, "/user/profile", token, gin.H{"sex": "unknown"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/user/goal", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"goal":144,"source":"derived","setup_required":false}`, w.Body.String())

	w = a.do(http.MethodPut, "/user/profile", token, gin.H{"profile_picture": "data:image/png;base64,aGk="})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLogAndStats(t *testing.T) {
	a := newAPI(t)
	token := a.register("ona@example.com")
	other := a.register("jonas@example.com")

	w := a.do(http.MethodPost, "/logs", token, gin.H{"food_name": "Chicken", "serving_grams": 150, "protein_grams": 46.5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	day := decode[services.DaySnapshot](t, w)
	assert.Equal(t, "2024-03-15", day.Date)
	assert.Equal(t, 46.5, day.TotalProtein)
	require.Len(t, day.Entries, 1)
	id := day.Entries[0].ID

	w = a.do(http.MethodPost, "/logs", token, gin.H{"quick_food": "varškė", "date": "2024-03-14"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/logs", token, gin.H{"food_name": "", "serving_grams": 150, "protein_grams": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/logs?date=2024-03-15", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[services.DaySnapshot](t, w).Entries)

	w = a.do(http.MethodPut, "/logs/"+id, other, gin.H{"food_name": "x", "serving_grams": 1, "protein_grams": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodDelete, "/logs/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPut, "/logs/"+id, token, gin.H{"food_name": "Chicken", "serving_grams": 200, "protein_grams": 62})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 62.0, decode[services.DaySnapshot](t, w).TotalProtein)

	w = a.do(http.MethodGet, "/stats/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	dash := decode[services.Dashboard](t, w)
	assert.Equal(t, 62, dash.Today.Percent)
	assert.Len(t, dash.Chart, 31)
	assert.Equal(t, 62, dash.Chart[14].Protein)

	w = a.do(http.MethodGet, "/stats/history?year=2024&month=3", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[services.History](t, w)
	assert.Equal(t, 2, hist.Summary.LoggedDays)
	assert.Equal(t, 2, hist.AllTime.TotalDays)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/stats/history?month=13", token, nil).Code)

	w = a.do(http.MethodGet, "/stats/day?date=2024-03-14", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[services.DaySnapshot](t, w).Entries, 1)

	w = a.do(http.MethodDelete, "/logs/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[services.DaySnapshot](t, w).Entries)
}

func TestWeights(t *testing.T) {
	a := newAPI(t)
	token := a.register("ona@example.com")
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, "/user/profile", token, gin.H{"weight_kg": 80, "sex": "male"}).Code)

	w := a.do(http.MethodPost, "/weights", token, gin.H{"weight_kg": 79, "date": "2024-03-10"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[map[string]any](t, w)["id"].(string)

	w = a.do(http.MethodGet, "/weights?year=2024&month=3", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[services.WeightHistory](t, w)
	require.NotNil(t, hist.LatestWeight)
	assert.Equal(t, 79.0, *hist.LatestWeight)
	require.NotNil(t, hist.Days[9].WeightKg)

	w = a.do(http.MethodGet, "/user/goal", token, nil)
	assert.Contains(t, w.Body.String(), `"goal":142`)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/weights", token, gin.H{"weight_kg": -3}).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/weights/"+id, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/weights/"+id, token, nil).Code)
}

func TestFoodEndpoints(t *testing.T) {
	a := newAPI(t)
	token := a.register("ona@example.com")

	w := a.do(http.MethodGet, "/food/quick", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, len(decode[[]services.QuickFood](t, w)), 10)

	w = a.do(http.MethodGet, "/food/search?q=chicken", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[[]services.FoodResult](t, w)
	require.Len(t, results, 1)
	assert.Equal(t, "171077", results[0].ID)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/food/abc", token, nil).Code)

	w = a.do(http.MethodPost, "/food/recognize", token, gin.H{"image_base64": "data:image/png;base64,aGk="})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDevices(t *testing.T) {
	a := newAPI(t)
	token := a.register("ona@example.com")

	w := a.do(http.MethodPost, "/user/devices", token, gin.H{"platform": "android", "token": "t"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = a.do(http.MethodPost, "/user/notifications/toggle", token, gin.H{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"notifications updated","enabled":false}`, w.Body.String())

	w = a.do(http.MethodPost, "/user/notifications/toggle", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDevPushTest(t *testing.T) {
	a := newAPI(t)
	token := a.register("ona@example.com")

	w := a.do(http.MethodPost, "/dev/push-test", token, gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"devices":2}`, w.Body.String())
	assert.NotEmpty(t, a.pushed.user)
	assert.Equal(t, "Test notification", a.pushed.title)
	assert.Equal(t, "test", a.pushed.data["type"])

	w = a.do(http.MethodPost, "/dev/push-test", token, gin.H{"title": "Hi", "data": gin.H{"type": "ping"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hi", a.pushed.title)
	assert.Equal(t, "ping", a.pushed.data["type"])
}

func TestSearchWebsocket(t *testing.T) {
	a := newAPI(t)
	token := a.register("ona@example.com")
	srv := httptest.NewServer(a.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/food/search/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	for _, q := range []string{"ch", "chi", "chick", "chicken"} {
		require.NoError(t, conn.WriteJSON(gin.H{"query": q}))
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var update services.SearchUpdate
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, "chicken", update.Query)
	assert.Equal(t, uint64(4), update.Seq)
	require.Len(t, update.Results, 1)
	assert.Equal(t, 22.5, update.Results[0].ProteinPer100g)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/food/search/ws", nil)
	assert.Error(t, err)
}
