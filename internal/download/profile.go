package download

import "slices"

// Output and format constants
const (
	OutputTemplate      = "%(uploader)s - %(title)s.%(ext)s"
	FormatBestAudio     = "bestaudio/best"
	FormatBestVideo     = "bestvideo+bestaudio/best"
	FormatBest          = "best"
	DefaultAudioQuality = "192K"
)

var (
	audioTargets    = []string{"mp3", "m4a", "wav", "flac", "aac", "ogg", "opus"}
	videoContainers = []string{"mp4", "mkv", "webm", "mov"}
)

// Profile is the yt-dlp format selection for one target.
type Profile struct {
	Format       string
	ExtractAudio bool
	AudioFormat  string
	AudioQuality string
	MergeFormat  string
}

// ProfileFor maps a normalized target format to a yt-dlp profile:
// audio targets extract audio, video containers merge best streams,
// anything else downloads the best single file.
func ProfileFor(target string) Profile {
	switch {
	case slices.Contains(audioTargets, target):
		return Profile{
			Format:       FormatBestAudio,
			ExtractAudio: true,
			AudioFormat:  target,
			AudioQuality: DefaultAudioQuality,
		}
	case slices.Contains(videoContainers, target):
		return Profile{Format: FormatBestVideo, MergeFormat: target}
	default:
		return Profile{Format: FormatBest}
	}
}
