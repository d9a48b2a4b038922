package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/badminton-bracket/internal/db"
	"github.com/AdamBeresnev/badminton-bracket/internal/lock"
	"github.com/AdamBeresnev/badminton-bracket/internal/middleware"
	"github.com/AdamBeresnev/badminton-bracket/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return serve(t, newTestApp(t))
}

func serve(t *testing.T, app *application) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newRouter(app))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) *application {
	t.Helper()

	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	return &application{
		db:             database,
		log:            log,
		locker:         lock.NewMemoryLocker(),
		lockTimeout:    time.Second,
		shuffler:       service.NewShuffler(1),
		rateLimiter:    middleware.NewRateLimiter(1000, 1000),
		allowedOrigins: []string{"*"},
	}
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestTwoPlayerTournamentFlow(t *testing.T) {
	srv := newTestServer(t)

	var category struct {
		ID int64 `json:"id"`
	}
	status := doJSON(t, srv, http.MethodPost, "/api/categories", map[string]string{"name": "Simples"}, &category)
	require.Equal(t, http.StatusCreated, status)

	for _, name := range []string{"Ana", "Bia"} {
		status = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/categories/%d/players", category.ID), map[string]string{"name": name}, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	var generated map[string]any
	status = doJSON(t, srv, http.MethodPost, "/api/elimination/generate",
		map[string]any{"categoryId": category.ID, "gameType": "individual"}, &generated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), generated["gamesCreated"])
	assert.Equal(t, float64(0), generated["byesCreated"])
	assert.Equal(t, float64(2), generated["totalParticipants"])

	var again map[string]any
	status = doJSON(t, srv, http.MethodPost, "/api/elimination/generate",
		map[string]any{"categoryId": category.ID, "gameType": "individual"}, &again)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Jogos já foram gerados para esta categoria na primeira fase!", again["message"])

	var matches []struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	status = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/elimination/matches?categoryId=%d&phase=1", category.ID), nil, &matches)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, matches, 1)

	var waiting map[string]any
	status = doJSON(t, srv, http.MethodPost, "/api/elimination/advance",
		map[string]any{"categoryId": category.ID, "currentPhase": 1}, &waiting)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Nenhum jogo finalizado na Primeira Fase", waiting["error"])

	status = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/elimination/matches/%d/result", matches[0].ID),
		map[string]any{"sets": []map[string]int{{"side1": 21, "side2": 15}, {"side1": 21, "side2": 18}}}, nil)
	require.Equal(t, http.StatusOK, status)

	var champion map[string]any
	status = doJSON(t, srv, http.MethodPost, "/api/elimination/advance",
		map[string]any{"categoryId": category.ID, "currentPhase": 1}, &champion)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, champion["tournamentComplete"])
	assert.Contains(t, champion["message"], "Torneio finalizado! Campeão:")

	var phases []map[string]any
	status = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/elimination/phases?categoryId=%d", category.ID), nil, &phases)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, phases, 1)
	assert.Equal(t, "Primeira Fase", phases[0]["phaseName"])
	assert.Equal(t, false, phases[0]["isActive"])

	var reset map[string]any
	status = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/elimination/categories/%d", category.ID), nil, &reset)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), reset["matchesDeleted"])
	assert.Equal(t, float64(1), reset["phasesDeleted"])
}

// seedCategory registers a category with n players over the API.
func seedCategory(t *testing.T, srv *httptest.Server, n int) int64 {
	t.Helper()

	var category struct {
		ID int64 `json:"id"`
	}
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/categories", map[string]string{"name": "Simples"}, &category))
	for i := 1; i <= n; i++ {
		status := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/categories/%d/players", category.ID),
			map[string]string{"name": fmt.Sprintf("Jogador %d", i)}, nil)
		require.Equal(t, http.StatusCreated, status)
	}
	return category.ID
}

func TestGenerateSerializedPerCategory(t *testing.T) {
	t.Run("Concurrent generates seed once", func(t *testing.T) {
		srv := newTestServer(t)
		categoryID := seedCategory(t, srv, 4)

		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				payload := fmt.Sprintf(`{"categoryId": %d, "gameType": "individual"}`, categoryID)
				resp, err := srv.Client().Post(srv.URL+"/api/elimination/generate", "application/json", strings.NewReader(payload))
				if !assert.NoError(t, err) {
					return
				}
				resp.Body.Close()
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}()
		}
		wg.Wait()

		var matches []map[string]any
		status := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/elimination/matches?categoryId=%d&phase=1", categoryID), nil, &matches)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, matches, 2)
	})

	t.Run("Waits for the category lock", func(t *testing.T) {
		app := newTestApp(t)
		app.lockTimeout = 20 * time.Millisecond
		srv := serve(t, app)
		categoryID := seedCategory(t, srv, 2)

		unlock, err := app.locker.Lock(context.Background(), fmt.Sprintf("category:%d", categoryID))
		require.NoError(t, err)

		var body map[string]string
		status := doJSON(t, srv, http.MethodPost, "/api/elimination/generate",
			map[string]any{"categoryId": categoryID, "gameType": "individual"}, &body)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Erro interno do servidor", body["error"])

		unlock()
		status = doJSON(t, srv, http.MethodPost, "/api/elimination/generate",
			map[string]any{"categoryId": categoryID, "gameType": "individual"}, nil)
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestAPIErrors(t *testing.T) {
	srv := newTestServer(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Advance without phases",
			method:         http.MethodPost,
			path:           "/api/elimination/advance",
			body:           map[string]any{"categoryId": 42, "currentPhase": 1},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Nenhuma fase encontrada para esta categoria",
		},
		{
			name:           "Advance without category",
			method:         http.MethodPost,
			path:           "/api/elimination/advance",
			body:           map[string]any{"currentPhase": 1},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Category ID is required",
		},
		{
			name:           "Generate with too few players",
			method:         http.MethodPost,
			path:           "/api/elimination/generate",
			body:           map[string]any{"categoryId": 42, "gameType": "dupla"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "É necessário pelo menos 2 duplas na categoria",
		},
		{
			name:           "Schedule nothing",
			method:         http.MethodPost,
			path:           "/api/elimination/matches/schedule",
			body:           map[string]any{"gameDate": "2025-05-10"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "matchIds is required",
		},
		{
			name:           "Walkover without winner",
			method:         http.MethodPut,
			path:           "/api/elimination/matches/1/result",
			body:           map[string]any{"walkover": true},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "winnerSlot is invalid (required_if=Walkover true)",
		},
		{
			name:           "Unknown match",
			method:         http.MethodDelete,
			path:           "/api/elimination/matches/999",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Jogo 999 não encontrado",
		},
		{
			name:           "Bad id",
			method:         http.MethodDelete,
			path:           "/api/elimination/matches/abc",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "id inválido: abc",
		},
		{
			name:           "Unknown route",
			method:         http.MethodGet,
			path:           "/api/nada",
			expectedStatus: http.StatusNotFound,
			expectedError:  "Rota não encontrada",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var body map[string]string
			status := doJSON(t, srv, tc.method, tc.path, tc.body, &body)
			assert.Equal(t, tc.expectedStatus, status)
			assert.Equal(t, tc.expectedError, body["error"])
		})
	}
}

func TestOpsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var health map[string]string
	status := doJSON(t, srv, http.MethodGet, "/healthz", nil, &health)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", health["status"])

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(payload), "http_request_duration_seconds")
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
}
