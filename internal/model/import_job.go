package model

import (
	"context"
	"time"
)

const (
	BookmarkTypeText = "text"
	MaxTitleLength   = 255
)

// FileHandle is one selected input file.
type FileHandle interface {
	Name() string
	ReadText(ctx context.Context) (string, error)
}

type ImportJob struct {
	ID         string
	APIBaseURL string
	APIKey     string
	Files      []FileHandle
	Processed  int
	Succeeded  int
}

type BookmarkPayload struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	Type       string `json:"type"`
	Archived   bool   `json:"archived"`
	Favourited bool   `json:"favourited"`
	Note       string `json:"note"`
	Summary    string `json:"summary"`
}

type Summary struct {
	RunID      string    `json:"run_id"`
	Selected   int       `json:"selected"`
	Skipped    int       `json:"skipped"`
	Processed  int       `json:"processed"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Aborted    bool      `json:"aborted"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
