package model

import (
	"strings"
	"time"
)

// Category is the coarse content class used for dispatch
type Category string

const (
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryUnknown  Category = "unknown"
)

func (c Category) String() string {
	return string(c)
}

// Tools holds per-job overrides for external tool locations.
// Empty fields mean "look the tool up on PATH".
type Tools struct {
	FFmpegDir  string // folder containing ffmpeg and ffprobe
	YtDlpPath  string
	PandocPath string
}

// Options are the caller-supplied knobs that travel with a job
type Options struct {
	OutputDir  string
	CookieFile string // auth material for remote fetches
	NoPlaylist bool   // fetch a single item even when the URL names a playlist
	Tools      Tools
}

// Job is a single unit of requested work. The runner owns it and updates
// Status, Category and the timestamps; callers read it through a handle.
type Job struct {
	ID         string
	Kind       JobKind
	Source     string // URL for fetch, local path for convert
	Target     string // normalized target format, no leading dot
	Options    Options
	Status     JobStatus
	Category   Category
	OutputPath string
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// DisplayName returns the output filename, the source basename, or the raw
// source, in that order of preference.
func (j *Job) DisplayName() string {
	if name := baseName(j.OutputPath); name != "" {
		return name
	}
	if j.Kind == JobKindConvert {
		if name := baseName(j.Source); name != "" {
			return name
		}
	}
	return j.Source
}

func baseName(p string) string {
	parts := strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// PlaylistEntry is one item discovered when probing a playlist URL
type PlaylistEntry struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}
