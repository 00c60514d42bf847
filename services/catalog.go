package services

import (
	"context"
	"errors"

	"beatme/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SongCatalog is the song-provider collaborator: it seeds the catalog from
// Deezer and serves ordered song lists for new games.
type SongCatalog struct {
	db     *gorm.DB
	deezer *DeezerClient
}

func NewSongCatalog(db *gorm.DB, deezer *DeezerClient) *SongCatalog {
	return &SongCatalog{db: db, deezer: deezer}
}

// UpsertSongs inserts or refreshes tracks keyed by SongID. Preview URLs go
// stale, so existing rows are updated rather than skipped.
func (c *SongCatalog) UpsertSongs(ctx context.Context, songs []models.Song) error {
	if len(songs) == 0 {
		return nil
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "song_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"artist", "title", "audio_url", "duration", "genre", "year", "album_cover", "updated_at",
		}),
	}).Create(&songs).Error
	if err != nil {
		return Unavailable("CATALOG_ERROR", "failed to store songs", err)
	}
	return nil
}

// RandomSongs samples up to count catalog songs matching the filters.
func (c *SongCatalog) RandomSongs(ctx context.Context, genres, years []string, count int) ([]models.Song, error) {
	query := c.db.WithContext(ctx).Model(&models.Song{})
	if len(genres) > 0 {
		query = query.Where("genre IN ?", genres)
	}
	if len(years) > 0 {
		query = query.Where("year IN ?", years)
	}

	var songs []models.Song
	if err := query.Order("RANDOM()").Limit(count).Find(&songs).Error; err != nil {
		return nil, Unavailable("CATALOG_ERROR", "failed to query songs", err)
	}
	return songs, nil
}

func (c *SongCatalog) SongByID(ctx context.Context, songID string) (*models.Song, error) {
	var song models.Song
	err := c.db.WithContext(ctx).Where("song_id = ?", songID).First(&song).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("SONG_NOT_FOUND", "song not found").With("songId", songID)
	}
	if err != nil {
		return nil, Unavailable("CATALOG_ERROR", "failed to load song", err).With("songId", songID)
	}
	return &song, nil
}

func (c *SongCatalog) SongsByIDs(ctx context.Context, songIDs []string) ([]models.Song, error) {
	var songs []models.Song
	if err := c.db.WithContext(ctx).Where("song_id IN ?", songIDs).Find(&songs).Error; err != nil {
		return nil, Unavailable("CATALOG_ERROR", "failed to load songs", err)
	}
	return songs, nil
}

// FetchForGame pulls chart tracks from Deezer for each requested genre,
// persists them, and returns the combined list. The per-genre limit splits
// the requested count evenly across genres, rounding up.
func (c *SongCatalog) FetchForGame(ctx context.Context, genres, years []string, count int) ([]models.Song, error) {
	if len(genres) == 0 {
		// No genre filter: serve from whatever the catalog already holds.
		return c.RandomSongs(ctx, nil, years, count)
	}

	perGenre := (count + len(genres) - 1) / len(genres)
	var songs []models.Song
	for _, genre := range genres {
		genreSongs, err := c.deezer.TracksByGenre(ctx, genre, perGenre)
		if err != nil {
			return nil, err
		}
		songs = append(songs, genreSongs...)
	}

	if err := c.UpsertSongs(ctx, songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// SongIDs projects a song list to the identifier order the engine consumes.
func SongIDs(songs []models.Song) []string {
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.SongID
	}
	return ids
}
