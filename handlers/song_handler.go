package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"beatme/models"
	"beatme/services"

	"github.com/gin-gonic/gin"
)

type SongHandler struct {
	catalog *services.SongCatalog
}

func NewSongHandler(catalog *services.SongCatalog) *SongHandler {
	return &SongHandler{catalog: catalog}
}

type createSongRequest struct {
	SongID     string `json:"songId" binding:"required"`
	Artist     string `json:"artist" binding:"required"`
	Title      string `json:"title" binding:"required"`
	AudioURL   string `json:"audioUrl" binding:"required"`
	Duration   int    `json:"duration"`
	Genre      string `json:"genre" binding:"required"`
	Year       string `json:"year"`
	AlbumCover string `json:"albumCover"`
}

func (r *createSongRequest) toModel() models.Song {
	duration := r.Duration
	if duration == 0 {
		duration = 30
	}
	return models.Song{
		SongID:     r.SongID,
		Artist:     r.Artist,
		Title:      r.Title,
		AudioURL:   r.AudioURL,
		Duration:   duration,
		Genre:      r.Genre,
		Year:       r.Year,
		AlbumCover: r.AlbumCover,
	}
}

func splitQueryList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

// GetSongs handles GET /api/songs?genres=a,b&years=2020&count=10.
func (h *SongHandler) GetSongs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "10"))
	if err != nil || count < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "VALIDATION_ERROR", "message": "count must be a positive integer"},
		})
		return
	}

	songs, err := h.catalog.RandomSongs(c.Request.Context(),
		splitQueryList(c.Query("genres")), splitQueryList(c.Query("years")), count)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"songs": songs})
}

// GetSong handles GET /api/songs/:id.
func (h *SongHandler) GetSong(c *gin.Context) {
	song, err := h.catalog.SongByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"song": song})
}

// CreateSong handles POST /api/songs.
func (h *SongHandler) CreateSong(c *gin.Context) {
	var req createSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	song := req.toModel()
	if err := h.catalog.UpsertSongs(c.Request.Context(), []models.Song{song}); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"song": song})
}

// CreateBulkSongs handles POST /api/songs/bulk.
func (h *SongHandler) CreateBulkSongs(c *gin.Context) {
	var req struct {
		Songs []createSongRequest `json:"songs" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	songs := make([]models.Song, len(req.Songs))
	for i := range req.Songs {
		songs[i] = req.Songs[i].toModel()
	}
	if err := h.catalog.UpsertSongs(c.Request.Context(), songs); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"count": len(songs), "songs": songs})
}

// FetchFromDeezer handles GET /api/deezer/songs?genres=pop,rock&limit=20.
// Fetched tracks are upserted into the catalog as a side effect.
func (h *SongHandler) FetchFromDeezer(c *gin.Context) {
	genres := splitQueryList(c.Query("genres"))
	if len(genres) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "MISSING_GENRE", "message": "genres query parameter is required"},
		})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"code": "VALIDATION_ERROR", "message": "limit must be a positive integer"},
		})
		return
	}

	songs, err := h.catalog.FetchForGame(c.Request.Context(), genres,
		splitQueryList(c.Query("years")), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"songs": songs})
}
