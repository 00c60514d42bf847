package models

import (
	"time"
)

// Song is one playable track in the catalog. SongID is the external
// identifier (Deezer track id) used throughout the game engine; the engine
// never sees anything but SongID, Artist and Title.
type Song struct {
	ID         uint      `json:"-" gorm:"primaryKey"`
	SongID     string    `json:"songId" gorm:"uniqueIndex;not null"`
	Artist     string    `json:"artist" gorm:"index;not null"`
	Title      string    `json:"title" gorm:"index;not null"`
	AudioURL   string    `json:"audioUrl" gorm:"not null"`
	Duration   int       `json:"duration" gorm:"not null;default:30"` // seconds
	Genre      string    `json:"genre" gorm:"index;not null"`
	Year       string    `json:"year,omitempty" gorm:"index"`
	AlbumCover string    `json:"albumCover,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
