package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"beatme/handlers"
	"beatme/models"
	"beatme/routes"
	"beatme/services"

	"github.com/gin-gonic/gin"
)

type stubCatalog struct {
	songs []models.Song
}

func (s *stubCatalog) FetchForGame(_ context.Context, _, _ []string, _ int) ([]models.Song, error) {
	return s.songs, nil
}

func (s *stubCatalog) SongByID(_ context.Context, songID string) (*models.Song, error) {
	for i := range s.songs {
		if s.songs[i].SongID == songID {
			return &s.songs[i], nil
		}
	}
	return nil, services.NotFound("SONG_NOT_FOUND", "song not found")
}

func (s *stubCatalog) SongsByIDs(_ context.Context, songIDs []string) ([]models.Song, error) {
	var out []models.Song
	for _, id := range songIDs {
		for i := range s.songs {
			if s.songs[i].SongID == id {
				out = append(out, s.songs[i])
			}
		}
	}
	return out, nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	catalog := &stubCatalog{songs: []models.Song{
		{SongID: "s1", Artist: "Queen", Title: "Bohemian Rhapsody"},
		{SongID: "s2", Artist: "ABBA", Title: "Waterloo"},
	}}
	hub := services.NewHub()
	coordinator := services.NewCoordinator(services.NewMemorySessionStore(), catalog, hub)
	hub.SetCoordinator(coordinator)

	router := gin.New()
	routes.SetupRoutes(router, handlers.NewGameHandler(coordinator), handlers.NewSongHandler(nil), hub, coordinator)
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %s: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func createGame(t *testing.T, router *gin.Engine) (gameID, creatorID string) {
	t.Helper()

	w, env := doJSON(t, router, http.MethodPost, "/api/games", gin.H{
		"creatorName":    "Alex",
		"secondsPerSong": 30,
		"songCount":      2,
		"genres":         []string{"pop"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create game: status %d body %s", w.Code, w.Body.String())
	}

	var data struct {
		GameID string            `json:"gameId"`
		Game   *services.Session `json:"game"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return data.GameID, data.Game.Players[0].ID
}

func TestCreateGameEndpoint(t *testing.T) {
	router := newTestRouter()
	gameID, creatorID := createGame(t, router)
	if gameID == "" || creatorID == "" {
		t.Fatal("create should return game and creator ids")
	}

	w, env := doJSON(t, router, http.MethodGet, "/api/games/"+gameID, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("get game: status %d body %s", w.Code, w.Body.String())
	}
}

func TestCreateGameValidation(t *testing.T) {
	router := newTestRouter()

	w, env := doJSON(t, router, http.MethodPost, "/api/games", gin.H{"creatorName": "Alex"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %s", w.Body.String())
	}
}

func TestGetUnknownGame(t *testing.T) {
	router := newTestRouter()

	w, env := doJSON(t, router, http.MethodGet, "/api/games/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if env.Error == nil || env.Error.Code != "GAME_NOT_FOUND" {
		t.Fatalf("expected GAME_NOT_FOUND, got %s", w.Body.String())
	}
}

func TestJoinGameEndpoint(t *testing.T) {
	router := newTestRouter()
	gameID, _ := createGame(t, router)

	w, _ := doJSON(t, router, http.MethodPost, "/api/games/"+gameID+"/join", gin.H{"playerName": "Bob"})
	if w.Code != http.StatusOK {
		t.Fatalf("join: status %d body %s", w.Code, w.Body.String())
	}

	// Duplicate name conflicts.
	w, env := doJSON(t, router, http.MethodPost, "/api/games/"+gameID+"/join", gin.H{"playerName": "Bob"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate join: expected 409, got %d", w.Code)
	}
	if env.Error == nil || env.Error.Code != "NAME_TAKEN" {
		t.Fatalf("expected NAME_TAKEN, got %s", w.Body.String())
	}
}

func TestJoinAfterStartEndpoint(t *testing.T) {
	router := newTestRouter()
	gameID, _ := createGame(t, router)

	if w, _ := doJSON(t, router, http.MethodPost, "/api/games/"+gameID+"/start", nil); w.Code != http.StatusOK {
		t.Fatalf("start: status %d", w.Code)
	}

	w, env := doJSON(t, router, http.MethodPost, "/api/games/"+gameID+"/join", gin.H{"playerName": "Late"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("late join: expected 400, got %d", w.Code)
	}
	if env.Error == nil || env.Error.Code != "GAME_ALREADY_STARTED" {
		t.Fatalf("expected GAME_ALREADY_STARTED, got %s", w.Body.String())
	}
}

func TestFullGameOverHTTP(t *testing.T) {
	router := newTestRouter()
	gameID, creatorID := createGame(t, router)

	_, env := doJSON(t, router, http.MethodPost, "/api/games/"+gameID+"/join", gin.H{"playerName": "Bob"})
	var joinData struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.Unmarshal(env.Data, &joinData); err != nil {
		t.Fatalf("decode join response: %v", err)
	}

	if w, _ := doJSON(t, router, http.MethodPost, "/api/games/"+gameID+"/start", nil); w.Code != http.StatusOK {
		t.Fatalf("start: status %d", w.Code)
	}

	submit := func(playerID, songID, artist, title string) *httptest.ResponseRecorder {
		w, _ := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/games/%s/answer", gameID), gin.H{
			"gameId":   gameID,
			"playerId": playerID,
			"songId":   songID,
			"guess":    gin.H{"artist": artist, "songName": title},
		})
		return w
	}

	if w := submit(creatorID, "s1", "Queen", "Bohemian Rhapsody"); w.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", w.Code, w.Body.String())
	}

	// Answering the same song twice conflicts.
	if w := submit(creatorID, "s1", "again", "again"); w.Code != http.StatusConflict {
		t.Fatalf("duplicate answer: expected 409, got %d", w.Code)
	}

	if w := submit(joinData.PlayerID, "s1", "", ""); w.Code != http.StatusOK {
		t.Fatalf("submit: status %d", w.Code)
	}
	if w := submit(creatorID, "s2", "wrong", "wrong"); w.Code != http.StatusOK {
		t.Fatalf("submit: status %d", w.Code)
	}
	if w := submit(joinData.PlayerID, "s2", "wrong", "wrong"); w.Code != http.StatusOK {
		t.Fatalf("submit: status %d", w.Code)
	}

	// The game is over, no further answers are accepted.
	if w := submit(creatorID, "s2", "again", "again"); w.Code != http.StatusBadRequest {
		t.Fatalf("post-game answer: expected 400, got %d", w.Code)
	}

	w, env := doJSON(t, router, http.MethodGet, "/api/games/"+gameID+"/results", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("results: status %d body %s", w.Code, w.Body.String())
	}
	var final services.FinalResults
	if err := json.Unmarshal(env.Data, &final); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(final.FinalScores) != 2 {
		t.Fatalf("expected 2 ranked players, got %+v", final.FinalScores)
	}
	if final.FinalScores[0].PlayerName != "Alex" || final.FinalScores[0].TotalScore != 10 {
		t.Fatalf("Alex should win with 10: %+v", final.FinalScores[0])
	}
	if final.FinalScores[1].Placement != 2 {
		t.Fatalf("placements must be sequential: %+v", final.FinalScores)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health: status %d", w.Code)
	}
}
