package handlers

import (
	"net/http"

	"beatme/services"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	coordinator *services.Coordinator
}

func NewGameHandler(coordinator *services.Coordinator) *GameHandler {
	return &GameHandler{coordinator: coordinator}
}

type joinGameRequest struct {
	PlayerName string `json:"playerName" binding:"required"`
}

// CreateGame handles POST /api/games.
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req services.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	game, err := h.coordinator.CreateGame(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, gin.H{"gameId": game.ID, "game": game})
}

// GetGame handles GET /api/games/:gameId.
func (h *GameHandler) GetGame(c *gin.Context) {
	game, err := h.coordinator.Game(c.Request.Context(), c.Param("gameId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, game)
}

// JoinGame handles POST /api/games/:gameId/join.
func (h *GameHandler) JoinGame(c *gin.Context) {
	var req joinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	player, game, err := h.coordinator.JoinGame(c.Request.Context(), c.Param("gameId"), req.PlayerName)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"playerId": player.ID, "game": game})
}

// StartGame handles POST /api/games/:gameId/start.
func (h *GameHandler) StartGame(c *gin.Context) {
	game, err := h.coordinator.StartGame(c.Request.Context(), c.Param("gameId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"game": game})
}

// SubmitAnswer handles POST /api/games/:gameId/answer. The WebSocket
// submit_answer event goes through the same coordinator path.
func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.GameID = c.Param("gameId")

	if err := h.coordinator.SubmitAnswer(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "answer submitted"})
}

// GetFinalResults handles GET /api/games/:gameId/results.
func (h *GameHandler) GetFinalResults(c *gin.Context) {
	results, err := h.coordinator.FinalResults(c.Request.Context(), c.Param("gameId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, results)
}
