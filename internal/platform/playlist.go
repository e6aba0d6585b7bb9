package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	ytclient "github.com/ytget/ytdlp/v2"

	"github.com/ytget/media-toolkit/internal/model"
)

// DefaultProbeTimeout bounds a playlist listing request
const DefaultProbeTimeout = 60 * time.Second

// URL parameters
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
)

// YouTubeVideoURLTemplate builds a watch URL from a video ID
const YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"

// ListFunc lists playlist items; swapped in tests.
type ListFunc func(ctx context.Context, playlistID string) ([]model.PlaylistEntry, error)

// PlaylistProbe lists the entries of a YouTube playlist URL without
// downloading anything, using the pure-Go ytdlp client.
type PlaylistProbe struct {
	timeout time.Duration
	list    ListFunc
}

// NewPlaylistProbe creates a probe backed by the ytdlp client
func NewPlaylistProbe() *PlaylistProbe {
	return &PlaylistProbe{
		timeout: DefaultProbeTimeout,
		list:    listWithClient,
	}
}

// SetTimeout sets the timeout for probe operations; zero disables it.
func (p *PlaylistProbe) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// Timeout returns the limit applied to each listing.
func (p *PlaylistProbe) Timeout() time.Duration {
	return p.timeout
}

// IsPlaylistURL reports whether rawURL is a YouTube URL naming a playlist.
func IsPlaylistURL(rawURL string) bool {
	return ExtractPlaylistID(rawURL) != ""
}

// ExtractPlaylistID returns the value of the list= parameter of a YouTube
// URL, or "" when there is none.
func ExtractPlaylistID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, "youtube.com") && host != "youtu.be" {
		return ""
	}
	return u.Query().Get(strings.TrimSuffix(PlaylistParam, "="))
}

// Entries returns the playlist items behind rawURL.
func (p *PlaylistProbe) Entries(ctx context.Context, rawURL string) ([]model.PlaylistEntry, error) {
	playlistID := ExtractPlaylistID(rawURL)
	if playlistID == "" {
		return nil, fmt.Errorf("could not extract playlist ID from URL: %s", rawURL)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	entries, err := p.list(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}
	return entries, nil
}

func listWithClient(ctx context.Context, playlistID string) ([]model.PlaylistEntry, error) {
	d := ytclient.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}

	entries := make([]model.PlaylistEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, model.PlaylistEntry{
			VideoID: it.VideoID,
			Title:   it.Title,
			URL:     fmt.Sprintf(YouTubeVideoURLTemplate, it.VideoID),
		})
	}
	return entries, nil
}
