package download

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/media-toolkit/internal/adapter"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
)

type sinkRecorder struct {
	mu       sync.Mutex
	logs     []string
	progress []float64
}

func (s *sinkRecorder) Log(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, line)
}

func (s *sinkRecorder) Progress(p float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, p)
}

type fakeLister struct {
	calls   int
	entries []model.PlaylistEntry
	err     error
}

func (l *fakeLister) Entries(context.Context, string) ([]model.PlaylistEntry, error) {
	l.calls++
	return l.entries, l.err
}

func foundResolver() *platform.Resolver {
	return &platform.Resolver{LookPath: func(string) (string, error) { return "/usr/bin/yt-dlp", nil }}
}

func missingResolver() *platform.Resolver {
	return &platform.Resolver{LookPath: func(string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	}}
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		target   string
		expected Profile
	}{
		{"mp3", Profile{Format: FormatBestAudio, ExtractAudio: true, AudioFormat: "mp3", AudioQuality: "192K"}},
		{"m4a", Profile{Format: FormatBestAudio, ExtractAudio: true, AudioFormat: "m4a", AudioQuality: "192K"}},
		{"mp4", Profile{Format: FormatBestVideo, MergeFormat: "mp4"}},
		{"mkv", Profile{Format: FormatBestVideo, MergeFormat: "mkv"}},
		{"best", Profile{Format: FormatBest}},
		{"", Profile{Format: FormatBest}},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.expected, ProfileFor(tt.target))
		})
	}
}

func TestFetcher_MissingYtDlpIsUnavailable(t *testing.T) {
	f := New(nil, missingResolver(), nil)
	f.run = func(context.Context, *ytdlp.Command, string) (*ytdlp.Result, error) {
		t.Fatal("yt-dlp must not run when it is not installed")
		return nil, nil
	}

	res := f.Run(context.Background(), adapter.Request{
		Input: "https://www.youtube.com/watch?v=abc", OutputDir: t.TempDir(), Target: "mp4",
	}, &sinkRecorder{})

	require.False(t, res.Success)
	assert.True(t, errors.Is(res.Err, model.ErrCapabilityUnavailable))
	assert.Contains(t, res.Message, "yt-dlp not found")
	assert.Error(t, f.Available(model.Tools{}))
}

func TestFetcher_RetriesOnceThenFails(t *testing.T) {
	f := New(nil, foundResolver(), nil)
	f.backoff = 0
	calls := 0
	f.run = func(context.Context, *ytdlp.Command, string) (*ytdlp.Result, error) {
		calls++
		return &ytdlp.Result{Stderr: "ERROR: Unable to download webpage\n"}, errors.New("exit status 1")
	}
	sink := &sinkRecorder{}

	res := f.Run(context.Background(), adapter.Request{
		Input: "https://example.com/v/1", OutputDir: t.TempDir(), Target: "mp3",
	}, sink)

	assert.Equal(t, 2, calls)
	require.False(t, res.Success)
	assert.True(t, errors.Is(res.Err, model.ErrAdapterExecutionFailed))
	assert.Contains(t, res.Message, "Unable to download webpage")
	assert.Contains(t, strings.Join(sink.logs, "\n"), "Retrying download (attempt 2)")
}

func TestFetcher_SuccessWithoutMetadataReportsDir(t *testing.T) {
	dir := t.TempDir()
	f := New(nil, foundResolver(), nil)
	f.run = func(context.Context, *ytdlp.Command, string) (*ytdlp.Result, error) {
		return &ytdlp.Result{}, nil
	}

	res := f.Run(context.Background(), adapter.Request{
		Input: "https://example.com/v/1", OutputDir: dir, Target: "mp4",
	}, &sinkRecorder{})

	require.True(t, res.Success, res.Message)
	assert.Equal(t, dir, res.OutputPath)
	assert.Equal(t, "remote-fetch", res.Adapter)
}

func TestFetcher_ProbesPlaylistsUnlessDisabled(t *testing.T) {
	lister := &fakeLister{entries: []model.PlaylistEntry{{VideoID: "a"}, {VideoID: "b"}}}
	f := New(nil, foundResolver(), lister)
	f.run = func(context.Context, *ytdlp.Command, string) (*ytdlp.Result, error) {
		return &ytdlp.Result{}, nil
	}
	url := "https://www.youtube.com/playlist?list=PL1"

	sink := &sinkRecorder{}
	res := f.Run(context.Background(), adapter.Request{Input: url, OutputDir: t.TempDir()}, sink)
	require.True(t, res.Success)
	assert.Equal(t, 1, lister.calls)
	assert.Contains(t, sink.logs, "Playlist with 2 entries")

	res = f.Run(context.Background(), adapter.Request{
		Input: url, OutputDir: t.TempDir(), Options: model.Options{NoPlaylist: true},
	}, &sinkRecorder{})
	require.True(t, res.Success)
	assert.Equal(t, 1, lister.calls)
}

func TestFetcher_PlaylistProbeFailureIsIgnored(t *testing.T) {
	lister := &fakeLister{err: errors.New("quota")}
	f := New(nil, foundResolver(), lister)
	f.run = func(context.Context, *ytdlp.Command, string) (*ytdlp.Result, error) {
		return &ytdlp.Result{}, nil
	}

	res := f.Run(context.Background(), adapter.Request{
		Input: "https://www.youtube.com/watch?v=x&list=PL2", OutputDir: t.TempDir(),
	}, &sinkRecorder{})
	assert.True(t, res.Success)
}

func TestOnProgress(t *testing.T) {
	state := &progressState{lastPct: -1}
	sink := &sinkRecorder{}
	name := "/downloads/Artist - Song.webm"
	title := "Song"
	info := &ytdlp.ExtractedInfo{Filename: &name, Title: &title}

	onProgress(state, sink, ytdlp.ProgressUpdate{Info: info, TotalBytes: 0, DownloadedBytes: 10})
	onProgress(state, sink, ytdlp.ProgressUpdate{Info: info, TotalBytes: 200, DownloadedBytes: 50})
	onProgress(state, sink, ytdlp.ProgressUpdate{Info: info, TotalBytes: 200, DownloadedBytes: 51})
	onProgress(state, sink, ytdlp.ProgressUpdate{Info: info, TotalBytes: 200, DownloadedBytes: 100})

	assert.Equal(t, []float64{25, 25.5, 50}, sink.progress)
	assert.Equal(t, []string{
		"Downloading: Artist - Song.webm 25.0%",
		"Downloading: Artist - Song.webm 50.0%",
	}, sink.logs)
	assert.Equal(t, name, state.savedName())
}

func TestSavedFilename_NilResult(t *testing.T) {
	assert.Empty(t, savedFilename(nil))
	assert.Empty(t, infoFilename(nil))
}

// infoLog is the JSON line yt-dlp prints before post-processing runs.
func infoLog(t *testing.T, filename string) *ytdlp.ResultLog {
	t.Helper()
	line := `{"_type":"video","id":"abc","title":"T","uploader":"Up","filename":"` + filename + `"}`
	raw := json.RawMessage(line)
	return &ytdlp.ResultLog{Line: line, JSON: &raw, Pipe: "stdout"}
}

func TestFetcher_ReportsPathAfterPostProcessing(t *testing.T) {
	f := New(nil, foundResolver(), nil)
	f.run = func(_ context.Context, dl *ytdlp.Command, _ string) (*ytdlp.Result, error) {
		printed := dl.GetFlagConfig().VerbositySimulation.Print
		require.NotNil(t, printed)
		assert.Equal(t, PrintFinalPath, *printed)
		return &ytdlp.Result{OutputLogs: []*ytdlp.ResultLog{
			infoLog(t, "/out/Up - T.webm"),
			{Line: "[ExtractAudio] Destination: /out/Up - T.mp3", Pipe: "stderr"},
			{Line: "/out/Up - T.mp3", Pipe: "stdout"},
		}}, nil
	}
	sink := &sinkRecorder{}

	res := f.Run(context.Background(), adapter.Request{
		Input: "https://www.youtube.com/watch?v=abc", OutputDir: "/out", Target: "mp3",
	}, sink)

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "/out/Up - T.mp3", res.OutputPath)
	assert.Contains(t, sink.logs, "Saved: /out/Up - T.mp3")
}

func TestFetcher_InfoFilenameFollowsProfile(t *testing.T) {
	tests := []struct {
		target   string
		info     string
		expected string
	}{
		{"mp3", "/out/Up - T.webm", "/out/Up - T.mp3"},
		{"m4a", "/out/Up - T.webm", "/out/Up - T.m4a"},
		{"mp4", "/out/Up - T.mp4", "/out/Up - T.mp4"},
		{"best", "/out/Up - T.webm", "/out/Up - T.webm"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			f := New(nil, foundResolver(), nil)
			f.run = func(context.Context, *ytdlp.Command, string) (*ytdlp.Result, error) {
				return &ytdlp.Result{OutputLogs: []*ytdlp.ResultLog{infoLog(t, tt.info)}}, nil
			}

			res := f.Run(context.Background(), adapter.Request{
				Input: "https://www.youtube.com/watch?v=abc", OutputDir: "/out", Target: tt.target,
			}, &sinkRecorder{})

			require.True(t, res.Success, res.Message)
			assert.Equal(t, tt.expected, res.OutputPath)
		})
	}
}

func TestExpectedFilename(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		expected string
	}{
		{"/out/A - B.webm", "mp3", "/out/A - B.mp3"},
		{"/out/A - B.f137.mp4", "mp4", "/out/A - B.mp4"},
		{"/out/A - B.f251-drc.webm", "mkv", "/out/A - B.mkv"},
		{"/out/A - B.final.webm", "mp4", "/out/A - B.final.mp4"},
		{"/out/A - B.webm", "best", "/out/A - B.webm"},
		{"", "mp3", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expectedFilename(tt.name, ProfileFor(tt.target)))
		})
	}
}

func TestDownloadWithRetry_LogsProgressAgainAfterRetry(t *testing.T) {
	f := New(nil, foundResolver(), nil)
	f.backoff = 0
	state := &progressState{lastPct: -1}
	sink := &sinkRecorder{}
	name := "/out/Up - T.webm"
	update := ytdlp.ProgressUpdate{
		Info:            &ytdlp.ExtractedInfo{Filename: &name},
		TotalBytes:      200,
		DownloadedBytes: 100,
	}

	calls := 0
	f.run = func(context.Context, *ytdlp.Command, string) (*ytdlp.Result, error) {
		calls++
		onProgress(state, sink, update)
		if calls == 1 {
			return &ytdlp.Result{}, errors.New("connection reset")
		}
		return &ytdlp.Result{}, nil
	}

	_, err := f.downloadWithRetry(context.Background(), ytdlp.New(), adapter.Request{Input: "u"}, state, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Downloading: Up - T.webm 50.0%",
		"Retrying download (attempt 2)",
		"Downloading: Up - T.webm 50.0%",
	}, sink.logs)
}
