package download

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/media-toolkit/internal/adapter"
	"github.com/ytget/media-toolkit/internal/logger"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
)

// Retry and progress settings
const (
	DefaultMaxRetries = 1
	DefaultBackoff    = 2 * time.Second
	ProgressInterval  = 500 * time.Millisecond

	// PrintFinalPath makes yt-dlp print each file's path once post-processing
	// and moving are done.
	PrintFinalPath = "after_move:filepath"
)

// formatIDSuffix matches the per-stream ".f137" part yt-dlp adds before merging.
var formatIDSuffix = regexp.MustCompile(`\.f[0-9]+(?:-[0-9a-z]+)?$`)

// PlaylistLister lists playlist entries before a fetch.
type PlaylistLister interface {
	Entries(ctx context.Context, rawURL string) ([]model.PlaylistEntry, error)
}

type runFunc func(ctx context.Context, dl *ytdlp.Command, url string) (*ytdlp.Result, error)

// Fetcher downloads remote media with yt-dlp.
type Fetcher struct {
	resolver   *platform.Resolver
	playlists  PlaylistLister
	run        runFunc
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// New creates a Fetcher. playlists may be nil to skip playlist probing.
func New(log logger.Logger, resolver *platform.Resolver, playlists PlaylistLister) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	if resolver == nil {
		resolver = platform.DefaultResolver
	}
	return &Fetcher{
		resolver:   resolver,
		playlists:  playlists,
		run:        runCommand,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		log:        log,
	}
}

func runCommand(ctx context.Context, dl *ytdlp.Command, url string) (*ytdlp.Result, error) {
	return dl.Run(ctx, url)
}

func (f *Fetcher) ID() adapter.ID {
	return adapter.RemoteFetch
}

// Capable is true for every pair; fetch jobs are routed here unconditionally.
func (f *Fetcher) Capable(model.Category, string) bool {
	return true
}

// Available checks that the yt-dlp executable can be located.
func (f *Fetcher) Available(tools model.Tools) error {
	_, err := f.executable(tools)
	return err
}

func (f *Fetcher) executable(tools model.Tools) (string, error) {
	path, err := f.resolver.Resolve(platform.YtDlpTool, tools.YtDlpPath)
	if err != nil {
		return "", model.Unavailable(adapter.RemoteFetch.String(), platform.YtDlpTool, err)
	}
	return path, nil
}

// progressState is shared with the yt-dlp progress callback.
type progressState struct {
	mu       sync.Mutex
	lastPct  int
	filename string
	title    string
}

func (s *progressState) savedName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filename
}

// restart forgets the last logged percent so a retry logs from its start.
func (s *progressState) restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPct = -1
}

// Run downloads req.Input into req.OutputDir.
func (f *Fetcher) Run(ctx context.Context, req adapter.Request, sink adapter.Sink) model.Result {
	id := f.ID().String()

	exe, err := f.executable(req.Options.Tools)
	if err != nil {
		return model.Failed(id, err)
	}

	if f.playlists != nil && !req.Options.NoPlaylist && platform.IsPlaylistURL(req.Input) {
		entries, err := f.playlists.Entries(ctx, req.Input)
		if err != nil {
			f.log.Warn("playlist probe failed", logger.String("job_id", req.JobID), logger.Error(err))
		} else {
			sink.Log(fmt.Sprintf("Playlist with %d entries", len(entries)))
		}
	}

	profile := ProfileFor(req.Target)
	state := &progressState{lastPct: -1}
	dl := f.buildCommand(exe, req, profile, state, sink)

	f.log.Debug("starting yt-dlp",
		logger.String("job_id", req.JobID),
		logger.String("path", exe),
		logger.String("format", profile.Format))

	result, err := f.downloadWithRetry(ctx, dl, req, state, sink)
	if err != nil {
		detail := ""
		if result != nil {
			detail = result.Stderr
		}
		return model.Failed(id, model.ExecutionFailed(id, "yt-dlp download failed", detail, err))
	}

	saved := savedFilename(result)
	if saved == "" {
		saved = expectedFilename(infoFilename(result), profile)
	}
	if saved == "" {
		saved = expectedFilename(state.savedName(), profile)
	}
	if saved == "" {
		saved = req.OutputDir
	} else {
		sink.Log("Saved: " + saved)
	}
	return model.Succeeded(id, saved, fmt.Sprintf("Downloaded to %s", saved))
}

func (f *Fetcher) buildCommand(exe string, req adapter.Request, p Profile, state *progressState, sink adapter.Sink) *ytdlp.Command {
	dl := ytdlp.New().
		SetExecutable(exe).
		Output(filepath.Join(req.OutputDir, OutputTemplate)).
		NoCheckCertificates().
		PrintJSON().
		Print(PrintFinalPath)

	if p.Format != "" {
		dl.Format(p.Format)
	}
	if p.ExtractAudio {
		dl.ExtractAudio().AudioFormat(p.AudioFormat).AudioQuality(p.AudioQuality)
	}
	if p.MergeFormat != "" {
		dl.MergeOutputFormat(p.MergeFormat)
	}
	if req.Options.CookieFile != "" {
		dl.Cookies(req.Options.CookieFile)
	}
	if req.Options.Tools.FFmpegDir != "" {
		dl.FFmpegLocation(req.Options.Tools.FFmpegDir)
	}
	if req.Options.NoPlaylist {
		dl.NoPlaylist()
	}

	dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
		onProgress(state, sink, update)
	})
	return dl
}

// downloadWithRetry attempts download with retry logic
func (f *Fetcher) downloadWithRetry(ctx context.Context, dl *ytdlp.Command, req adapter.Request, state *progressState, sink adapter.Sink) (*ytdlp.Result, error) {
	var lastErr error
	var result *ytdlp.Result

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.backoff):
			case <-ctx.Done():
				return result, ctx.Err()
			}
			sink.Log(fmt.Sprintf("Retrying download (attempt %d)", attempt+1))
		}
		state.restart()

		res, err := f.run(ctx, dl, req.Input)
		if err == nil {
			return res, nil
		}

		lastErr = err
		result = res
		f.log.Warn("download attempt failed",
			logger.String("job_id", req.JobID),
			logger.Int("attempt", attempt+1),
			logger.Error(err))

		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	return result, lastErr
}

// onProgress turns a yt-dlp progress update into job events, logging at
// most once per whole percent.
func onProgress(state *progressState, sink adapter.Sink, update ytdlp.ProgressUpdate) {
	state.mu.Lock()
	defer state.mu.Unlock()

	if update.Info != nil {
		if update.Info.Filename != nil && *update.Info.Filename != "" {
			state.filename = *update.Info.Filename
		}
		if update.Info.Title != nil && *update.Info.Title != "" {
			state.title = *update.Info.Title
		}
	}

	if update.TotalBytes <= 0 {
		return
	}
	percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
	sink.Progress(percent)

	if int(percent) == state.lastPct {
		return
	}
	state.lastPct = int(percent)

	name := filepath.Base(state.filename)
	if state.filename == "" {
		name = state.title
	}
	sink.Log(fmt.Sprintf("Downloading: %s %.1f%%", name, percent))
}

// savedFilename returns the last path printed by yt-dlp after post-processing,
// which is the file that actually remains on disk.
func savedFilename(result *ytdlp.Result) string {
	if result == nil {
		return ""
	}
	for i := len(result.OutputLogs) - 1; i >= 0; i-- {
		l := result.OutputLogs[i]
		if l == nil || l.Pipe != "stdout" || l.JSON != nil {
			continue
		}
		line := strings.TrimSpace(l.Line)
		if line == "" || strings.HasPrefix(line, "{") {
			continue
		}
		return line
	}
	return ""
}

// infoFilename returns the first filename in yt-dlp's JSON info. yt-dlp
// prints it before post-processing, so it names the downloaded stream.
func infoFilename(result *ytdlp.Result) string {
	if result == nil {
		return ""
	}
	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 || info[0].Filename == nil {
		return ""
	}
	return *info[0].Filename
}

// expectedFilename maps a pre-processing stream name to the file the profile
// leaves behind: extracted audio gets the audio extension and merged streams
// lose their format id and take the container extension.
func expectedFilename(name string, p Profile) string {
	if name == "" {
		return ""
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	switch {
	case p.ExtractAudio && p.AudioFormat != "":
		return base + "." + p.AudioFormat
	case p.MergeFormat != "":
		return formatIDSuffix.ReplaceAllString(base, "") + "." + p.MergeFormat
	default:
		return name
	}
}
