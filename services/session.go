package services

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type GameStatus string

const (
	StatusLobby    GameStatus = "lobby"
	StatusPlaying  GameStatus = "playing"
	StatusFinished GameStatus = "finished"
)

type GameSettings struct {
	CreatorName    string   `json:"creatorName"`
	SecondsPerSong int      `json:"secondsPerSong"`
	SongCount      int      `json:"songCount"`
	Genres         []string `json:"genres"`
	Years          []string `json:"years"`
}

type Guess struct {
	Artist   string `json:"artist"`
	SongName string `json:"songName"`
}

type Answer struct {
	SongID    string    `json:"songId"`
	Guess     Guess     `json:"guess"`
	Timestamp time.Time `json:"timestamp"`
	Points    int       `json:"points"`
}

type Player struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Score   int      `json:"score"`
	IsReady bool     `json:"isReady"`
	Answers []Answer `json:"answers"`
}

// Session is one game instance from lobby to finish. It is a plain in-memory
// value: every mutation happens under the coordinator's per-session guard and
// is persisted as a whole through the SessionStore afterwards.
type Session struct {
	ID           string       `json:"gameId"`
	Settings     GameSettings `json:"settings"`
	Creator      string       `json:"creator"`
	Status       GameStatus   `json:"status"`
	Players      []Player     `json:"players"`
	SongOrder    []string     `json:"songs"`
	CurrentRound int          `json:"currentSong"`
	CreatedAt    time.Time    `json:"createdAt"`
	StartedAt    *time.Time   `json:"startedAt,omitempty"`
	FinishedAt   *time.Time   `json:"finishedAt,omitempty"`
}

type RoundResult struct {
	RoundNumber   int                `json:"roundNumber"`
	CorrectAnswer Guess              `json:"correctAnswer"`
	PlayerScores  []PlayerRoundScore `json:"playerScores"`
}

type PlayerRoundScore struct {
	PlayerID     string         `json:"playerId"`
	PlayerName   string         `json:"playerName"`
	Guess        Guess          `json:"guess"`
	PointsEarned int            `json:"pointsEarned"`
	TotalScore   int            `json:"totalScore"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
}

type FinalResults struct {
	GameID       string             `json:"gameId"`
	FinalScores  []FinalPlayerScore `json:"finalScores"`
	GameSettings GameSettings       `json:"gameSettings"`
}

type FinalPlayerScore struct {
	PlayerID       string `json:"playerId"`
	PlayerName     string `json:"playerName"`
	TotalScore     int    `json:"totalScore"`
	Placement      int    `json:"placement"`
	CorrectArtists int    `json:"correctArtists"`
	CorrectSongs   int    `json:"correctSongs"`
}

// SongKey is the answer key for one song in the session's order.
type SongKey struct {
	Artist string
	Title  string
}

// NewSession builds a lobby session with the creator as the first player.
// songOrder must supply at least settings.SongCount songs; extras are cut off
// so the session always plays exactly SongCount rounds.
func NewSession(settings GameSettings, songOrder []string) (*Session, error) {
	if len(songOrder) < settings.SongCount {
		return nil, InsufficientData("INSUFFICIENT_SONGS",
			"not enough songs available for the selected criteria").
			With("requested", strconv.Itoa(settings.SongCount)).
			With("available", strconv.Itoa(len(songOrder)))
	}

	order := make([]string, settings.SongCount)
	copy(order, songOrder[:settings.SongCount])

	creator := Player{
		ID:      uuid.NewString(),
		Name:    settings.CreatorName,
		Answers: []Answer{},
	}

	return &Session{
		ID:        uuid.NewString(),
		Settings:  settings,
		Creator:   settings.CreatorName,
		Status:    StatusLobby,
		Players:   []Player{creator},
		SongOrder: order,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Join appends a new player to the roster. The roster is frozen once the
// session leaves the lobby; names are unique case-sensitively.
func (s *Session) Join(name string) (*Player, error) {
	if s.Status != StatusLobby {
		return nil, InvalidState("GAME_ALREADY_STARTED", "game has already started").
			With("gameId", s.ID)
	}
	for i := range s.Players {
		if s.Players[i].Name == name {
			return nil, Conflict("NAME_TAKEN", "name already taken").
				With("gameId", s.ID).
				With("name", name)
		}
	}

	player := Player{
		ID:      uuid.NewString(),
		Name:    name,
		Answers: []Answer{},
	}
	s.Players = append(s.Players, player)
	return &s.Players[len(s.Players)-1], nil
}

// Start moves the session from lobby to playing and stamps StartedAt.
// Starting twice is rejected rather than re-stamping the start time.
func (s *Session) Start() error {
	if s.Status != StatusLobby {
		return InvalidState("GAME_ALREADY_STARTED", "game has already started").
			With("gameId", s.ID)
	}
	now := time.Now().UTC()
	s.Status = StatusPlaying
	s.StartedAt = &now
	return nil
}

func (s *Session) findPlayer(playerID string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return &s.Players[i]
		}
	}
	return nil
}

// SubmitAnswer records a player's guess for one song and marks them ready.
// Scoring is deferred to ResolveRound so that every answer in a round is
// judged against the same answer key. One answer per (player, song).
func (s *Session) SubmitAnswer(playerID string, answer Answer) error {
	if s.Status != StatusPlaying {
		return InvalidState("GAME_NOT_ACTIVE", "game is not in progress").
			With("gameId", s.ID)
	}
	player := s.findPlayer(playerID)
	if player == nil {
		return NotFound("PLAYER_NOT_FOUND", "player not found in game").
			With("gameId", s.ID).
			With("playerId", playerID)
	}
	for _, a := range player.Answers {
		if a.SongID == answer.SongID {
			return Conflict("DUPLICATE_ANSWER", "answer already submitted for this song").
				With("playerId", playerID).
				With("songId", answer.SongID)
		}
	}

	answer.Points = 0
	player.Answers = append(player.Answers, answer)
	player.IsReady = true
	return nil
}

// AllReady reports whether every roster member has submitted for the current
// round. An empty roster is never ready.
func (s *Session) AllReady() bool {
	if len(s.Players) == 0 {
		return false
	}
	for i := range s.Players {
		if !s.Players[i].IsReady {
			return false
		}
	}
	return true
}

// CurrentSongID returns the song being played this round.
func (s *Session) CurrentSongID() (string, error) {
	if s.CurrentRound >= len(s.SongOrder) {
		return "", Conflict("ROUND_ALREADY_RESOLVED", "no rounds left to resolve").
			With("gameId", s.ID)
	}
	return s.SongOrder[s.CurrentRound], nil
}

// ResolveRound scores every player's answer for the current song, accumulates
// points, resets readiness and advances the round counter. It must be called
// exactly once per round; a second call for the same index fails.
func (s *Session) ResolveRound(correctArtist, correctTitle string) (*RoundResult, error) {
	songID, err := s.CurrentSongID()
	if err != nil {
		return nil, err
	}

	scores := make([]PlayerRoundScore, 0, len(s.Players))
	for i := range s.Players {
		player := &s.Players[i]

		var answer *Answer
		for j := range player.Answers {
			if player.Answers[j].SongID == songID {
				answer = &player.Answers[j]
				break
			}
		}

		var guess Guess
		var breakdown ScoreBreakdown
		if answer != nil {
			guess = answer.Guess
			breakdown = ScoreAnswer(guess.Artist, guess.SongName, correctArtist, correctTitle)
			answer.Points = breakdown.Total
			player.Score += breakdown.Total
		}

		scores = append(scores, PlayerRoundScore{
			PlayerID:     player.ID,
			PlayerName:   player.Name,
			Guess:        guess,
			PointsEarned: breakdown.Total,
			TotalScore:   player.Score,
			Breakdown:    breakdown,
		})
		player.IsReady = false
	}

	result := &RoundResult{
		RoundNumber:   s.CurrentRound + 1,
		CorrectAnswer: Guess{Artist: correctArtist, SongName: correctTitle},
		PlayerScores:  scores,
	}
	s.CurrentRound++
	return result, nil
}

// IsComplete reports whether the terminal round has been resolved.
func (s *Session) IsComplete() bool {
	return s.CurrentRound >= len(s.SongOrder)
}

// Finish stamps the finished transition. Only valid from playing.
func (s *Session) Finish() error {
	if s.Status != StatusPlaying {
		return InvalidState("GAME_NOT_ACTIVE", "game is not in progress").
			With("gameId", s.ID)
	}
	now := time.Now().UTC()
	s.Status = StatusFinished
	s.FinishedAt = &now
	return nil
}

// FinalResults ranks players by score descending. Ties keep roster order and
// receive distinct sequential placements. answerKeys must cover the full song
// order so per-field correct counts can be tallied.
func (s *Session) FinalResults(answerKeys map[string]SongKey) *FinalResults {
	scores := make([]FinalPlayerScore, 0, len(s.Players))
	for i := range s.Players {
		player := &s.Players[i]

		correctArtists := 0
		correctSongs := 0
		for _, answer := range player.Answers {
			key, ok := answerKeys[answer.SongID]
			if !ok {
				continue
			}
			if NormalizeAnswer(answer.Guess.Artist) == NormalizeAnswer(key.Artist) {
				correctArtists++
			}
			if NormalizeAnswer(answer.Guess.SongName) == NormalizeAnswer(key.Title) {
				correctSongs++
			}
		}

		scores = append(scores, FinalPlayerScore{
			PlayerID:       player.ID,
			PlayerName:     player.Name,
			TotalScore:     player.Score,
			CorrectArtists: correctArtists,
			CorrectSongs:   correctSongs,
		})
	}

	// Stable sort keeps roster order among equal scores.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})
	for i := range scores {
		scores[i].Placement = i + 1
	}

	return &FinalResults{
		GameID:       s.ID,
		FinalScores:  scores,
		GameSettings: s.Settings,
	}
}
