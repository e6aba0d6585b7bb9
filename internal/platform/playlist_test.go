package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ytget/media-toolkit/internal/model"
)

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"playlist page", "https://www.youtube.com/playlist?list=PL123abc", "PL123abc"},
		{"watch with list", "https://www.youtube.com/watch?v=abc&list=PLxyz&index=2", "PLxyz"},
		{"mobile host", "https://m.youtube.com/playlist?list=PLm", "PLm"},
		{"no list", "https://www.youtube.com/watch?v=abc", ""},
		{"other host", "https://example.com/?list=PL1", ""},
		{"garbage", "::not a url", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPlaylistID(tt.url); got != tt.expected {
				t.Errorf("ExtractPlaylistID(%q) = %q, expected %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestPlaylistProbe_Entries(t *testing.T) {
	p := NewPlaylistProbe()
	p.SetTimeout(time.Second)
	var gotID string
	p.list = func(ctx context.Context, playlistID string) ([]model.PlaylistEntry, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected probe context to carry a deadline")
		}
		gotID = playlistID
		return []model.PlaylistEntry{{VideoID: "a"}, {VideoID: "b"}}, nil
	}

	entries, err := p.Entries(context.Background(), "https://www.youtube.com/playlist?list=PL9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "PL9" || len(entries) != 2 {
		t.Errorf("got id=%q entries=%d", gotID, len(entries))
	}
}

func TestPlaylistProbe_Errors(t *testing.T) {
	p := NewPlaylistProbe()
	boom := errors.New("boom")
	p.list = func(context.Context, string) ([]model.PlaylistEntry, error) { return nil, boom }

	if _, err := p.Entries(context.Background(), "https://www.youtube.com/watch?v=1"); err == nil {
		t.Error("expected error for URL without playlist ID")
	}
	if _, err := p.Entries(context.Background(), "https://www.youtube.com/playlist?list=PL1"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped list error, got %v", err)
	}
}
