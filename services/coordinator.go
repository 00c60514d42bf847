package services

import (
	"context"
	"sync"
	"time"

	"beatme/models"

	"github.com/rs/zerolog/log"
)

// Broadcaster fans an event out to every connection in a game room.
type Broadcaster interface {
	BroadcastToGame(gameID string, eventType string, payload any)
}

// Catalog is the song-provider collaborator as the coordinator sees it.
type Catalog interface {
	FetchForGame(ctx context.Context, genres, years []string, count int) ([]models.Song, error)
	SongByID(ctx context.Context, songID string) (*models.Song, error)
	SongsByIDs(ctx context.Context, songIDs []string) ([]models.Song, error)
}

type CreateGameRequest struct {
	CreatorName    string   `json:"creatorName" binding:"required"`
	SecondsPerSong int      `json:"secondsPerSong" binding:"required"`
	SongCount      int      `json:"songCount" binding:"required"`
	Genres         []string `json:"genres"`
	Years          []string `json:"years"`
}

type SubmitAnswerRequest struct {
	GameID    string    `json:"gameId" binding:"required"`
	PlayerID  string    `json:"playerId" binding:"required"`
	SongID    string    `json:"songId" binding:"required"`
	Guess     Guess     `json:"guess"`
	Timestamp time.Time `json:"timestamp"`
}

// Coordinator is the entry point for every game mutation. It serializes
// writes per session (load, mutate, save under one per-game mutex), then
// hands fully-resolved snapshots to the broadcaster. Operations on different
// games run in parallel.
type Coordinator struct {
	store       SessionStore
	catalog     Catalog
	broadcaster Broadcaster

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCoordinator(store SessionStore, catalog Catalog, broadcaster Broadcaster) *Coordinator {
	return &Coordinator{
		store:       store,
		catalog:     catalog,
		broadcaster: broadcaster,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lock acquires the mutation guard for one game, creating it lazily.
func (c *Coordinator) lock(gameID string) *sync.Mutex {
	c.mu.Lock()
	l, ok := c.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[gameID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l
}

// reap drops the guard for a finished game so the map doesn't grow forever.
func (c *Coordinator) reap(gameID string) {
	c.mu.Lock()
	delete(c.locks, gameID)
	c.mu.Unlock()
}

func (c *Coordinator) broadcast(gameID, eventType string, payload any) {
	if c.broadcaster != nil {
		c.broadcaster.BroadcastToGame(gameID, eventType, payload)
	}
}

// CreateGame fetches a playable song list for the requested filters and
// builds a lobby session with the creator as first player.
func (c *Coordinator) CreateGame(ctx context.Context, req *CreateGameRequest) (*Session, error) {
	songs, err := c.catalog.FetchForGame(ctx, req.Genres, req.Years, req.SongCount)
	if err != nil {
		return nil, err
	}

	settings := GameSettings{
		CreatorName:    req.CreatorName,
		SecondsPerSong: req.SecondsPerSong,
		SongCount:      req.SongCount,
		Genres:         req.Genres,
		Years:          req.Years,
	}
	session, err := NewSession(settings, SongIDs(songs))
	if err != nil {
		return nil, err
	}

	if err := c.store.Save(ctx, session); err != nil {
		return nil, err
	}

	log.Info().Str("gameId", session.ID).Int("songs", len(session.SongOrder)).
		Msg("game created")
	return session, nil
}

// Game returns a read-only snapshot of a session.
func (c *Coordinator) Game(ctx context.Context, gameID string) (*Session, error) {
	return c.store.Load(ctx, gameID)
}

// JoinGame adds a player to a lobby and notifies the room.
func (c *Coordinator) JoinGame(ctx context.Context, gameID, playerName string) (*Player, *Session, error) {
	guard := c.lock(gameID)

	session, err := c.store.Load(ctx, gameID)
	if err != nil {
		guard.Unlock()
		return nil, nil, err
	}
	player, err := session.Join(playerName)
	if err != nil {
		guard.Unlock()
		return nil, nil, err
	}
	if err := c.store.Save(ctx, session); err != nil {
		guard.Unlock()
		return nil, nil, err
	}
	joined := *player
	guard.Unlock()

	log.Info().Str("gameId", gameID).Str("player", playerName).Msg("player joined")
	c.broadcast(gameID, EventPlayerJoined, map[string]any{"game": session})
	return &joined, session, nil
}

// StartGame moves a lobby to playing and notifies the room.
func (c *Coordinator) StartGame(ctx context.Context, gameID string) (*Session, error) {
	guard := c.lock(gameID)

	session, err := c.store.Load(ctx, gameID)
	if err != nil {
		guard.Unlock()
		return nil, err
	}
	if err := session.Start(); err != nil {
		guard.Unlock()
		return nil, err
	}
	if err := c.store.Save(ctx, session); err != nil {
		guard.Unlock()
		return nil, err
	}
	guard.Unlock()

	log.Info().Str("gameId", gameID).Msg("game started")
	c.broadcast(gameID, EventGameStarted, map[string]any{"game": session})
	return session, nil
}

// SubmitAnswer records one player's guess. When the submission makes every
// roster member ready the round is resolved in the same guarded operation,
// and when the resolved round was the last one the game is finished. All of
// it is persisted as a single write, then broadcast in order.
func (c *Coordinator) SubmitAnswer(ctx context.Context, req *SubmitAnswerRequest) error {
	guard := c.lock(req.GameID)

	session, err := c.store.Load(ctx, req.GameID)
	if err != nil {
		guard.Unlock()
		return err
	}

	answer := Answer{
		SongID:    req.SongID,
		Guess:     req.Guess,
		Timestamp: req.Timestamp,
	}
	if err := session.SubmitAnswer(req.PlayerID, answer); err != nil {
		guard.Unlock()
		return err
	}

	var (
		result *RoundResult
		final  *FinalResults
	)
	if session.AllReady() {
		result, final, err = c.resolveRound(ctx, session)
		if err != nil {
			guard.Unlock()
			return err
		}
	}

	if err := c.store.Save(ctx, session); err != nil {
		guard.Unlock()
		return err
	}
	guard.Unlock()

	log.Info().Str("gameId", req.GameID).Str("playerId", req.PlayerID).
		Str("songId", req.SongID).Msg("answer submitted")

	c.broadcast(req.GameID, EventAnswerSubmitted, map[string]any{"game": session})
	if result != nil {
		c.broadcast(req.GameID, EventRoundComplete, map[string]any{"result": result})
	}
	if final != nil {
		c.broadcast(req.GameID, EventGameComplete, map[string]any{"finalResults": final})
		c.reap(req.GameID)
	}
	return nil
}

// resolveRound scores the current round against the catalog's answer key and,
// if that was the terminal round, finishes the session and computes final
// results. Caller holds the session guard and persists afterwards.
func (c *Coordinator) resolveRound(ctx context.Context, session *Session) (*RoundResult, *FinalResults, error) {
	songID, err := session.CurrentSongID()
	if err != nil {
		return nil, nil, err
	}
	song, err := c.catalog.SongByID(ctx, songID)
	if err != nil {
		return nil, nil, err
	}

	result, err := session.ResolveRound(song.Artist, song.Title)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("gameId", session.ID).Int("round", result.RoundNumber).
		Msg("round resolved")

	if !session.IsComplete() {
		return result, nil, nil
	}

	if err := session.Finish(); err != nil {
		return nil, nil, err
	}
	final, err := c.finalResults(ctx, session)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("gameId", session.ID).Msg("game finished")
	return result, final, nil
}

func (c *Coordinator) finalResults(ctx context.Context, session *Session) (*FinalResults, error) {
	songs, err := c.catalog.SongsByIDs(ctx, session.SongOrder)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]SongKey, len(songs))
	for _, song := range songs {
		keys[song.SongID] = SongKey{Artist: song.Artist, Title: song.Title}
	}
	return session.FinalResults(keys), nil
}

// FinalResults recomputes the ranking for a session on demand.
func (c *Coordinator) FinalResults(ctx context.Context, gameID string) (*FinalResults, error) {
	session, err := c.store.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return c.finalResults(ctx, session)
}
