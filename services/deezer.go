package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"beatme/models"
)

// DeezerClient fetches chart tracks from the public Deezer API.
type DeezerClient struct {
	baseURL string
	http    *http.Client
}

func NewDeezerClient(baseURL string) *DeezerClient {
	return &DeezerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type deezerGenreList struct {
	Data []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

type deezerChart struct {
	Data []struct {
		ID       int    `json:"id"`
		Title    string `json:"title"`
		Preview  string `json:"preview"`
		Duration int    `json:"duration"`
		Artist   struct {
			Name string `json:"name"`
		} `json:"artist"`
		Album struct {
			Title string `json:"title"`
			Cover string `json:"cover_medium"`
		} `json:"album"`
	} `json:"data"`
}

func (c *DeezerClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Unavailable("CATALOG_ERROR", "failed to build deezer request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Unavailable("CATALOG_ERROR", "deezer request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unavailable("CATALOG_ERROR",
			fmt.Sprintf("deezer returned status %d", resp.StatusCode), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Unavailable("CATALOG_ERROR", "failed to decode deezer response", err)
	}
	return nil
}

// genreID resolves a genre name (case-insensitive) to Deezer's numeric id.
func (c *DeezerClient) genreID(ctx context.Context, genre string) (int, error) {
	var genres deezerGenreList
	if err := c.getJSON(ctx, c.baseURL+"/genre", &genres); err != nil {
		return 0, err
	}
	for _, g := range genres.Data {
		if strings.EqualFold(g.Name, genre) {
			return g.ID, nil
		}
	}
	return 0, NotFound("GENRE_NOT_FOUND", "unknown genre").With("genre", genre)
}

// TracksByGenre returns up to limit chart tracks for the given genre.
func (c *DeezerClient) TracksByGenre(ctx context.Context, genre string, limit int) ([]models.Song, error) {
	id, err := c.genreID(ctx, genre)
	if err != nil {
		return nil, err
	}

	var chart deezerChart
	url := fmt.Sprintf("%s/chart/%d/tracks?limit=%d", c.baseURL, id, limit)
	if err := c.getJSON(ctx, url, &chart); err != nil {
		return nil, err
	}

	songs := make([]models.Song, 0, len(chart.Data))
	for _, track := range chart.Data {
		songs = append(songs, models.Song{
			SongID:     strconv.Itoa(track.ID),
			Artist:     track.Artist.Name,
			Title:      track.Title,
			AudioURL:   track.Preview,
			Duration:   track.Duration,
			Genre:      genre,
			AlbumCover: track.Album.Cover,
		})
	}
	return songs, nil
}
