package routes

import (
	"net/http"

	"beatme/handlers"
	"beatme/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced at the HTTP layer
	},
}

func SetupRoutes(
	router *gin.Engine,
	gameHandler *handlers.GameHandler,
	songHandler *handlers.SongHandler,
	hub *services.Hub,
	coordinator *services.Coordinator,
) {
	api := router.Group("/api")
	{
		games := api.Group("/games")
		{
			games.POST("", gameHandler.CreateGame)
			games.GET("/:gameId", gameHandler.GetGame)
			games.POST("/:gameId/join", gameHandler.JoinGame)
			games.POST("/:gameId/start", gameHandler.StartGame)
			games.POST("/:gameId/answer", gameHandler.SubmitAnswer)
			games.GET("/:gameId/results", gameHandler.GetFinalResults)
		}

		songs := api.Group("/songs")
		{
			songs.GET("", songHandler.GetSongs)
			songs.GET("/:id", songHandler.GetSong)
			songs.POST("", songHandler.CreateSong)
			songs.POST("/bulk", songHandler.CreateBulkSongs)
		}

		api.GET("/deezer/songs", songHandler.FetchFromDeezer)
	}

	// WebSocket endpoint for real-time game events.
	router.GET("/ws/:gameId/:playerId", func(c *gin.Context) {
		gameID := c.Param("gameId")
		playerID := c.Param("playerId")

		if err := validatePlayerAccess(c, coordinator, gameID, playerID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "PLAYER_NOT_FOUND", "message": "player not found in game"},
			})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("websocket upgrade failed")
			return
		}

		hub.RegisterClient(conn, gameID, playerID)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// validatePlayerAccess rejects socket connections from ids that are not part
// of the game's roster.
func validatePlayerAccess(c *gin.Context, coordinator *services.Coordinator, gameID, playerID string) error {
	game, err := coordinator.Game(c.Request.Context(), gameID)
	if err != nil {
		return err
	}
	for i := range game.Players {
		if game.Players[i].ID == playerID {
			return nil
		}
	}
	return services.NotFound("PLAYER_NOT_FOUND", "player not found in game").
		With("gameId", gameID).
		With("playerId", playerID)
}
