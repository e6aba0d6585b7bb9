package download

// Package download is the remote-media fetcher adapter built on top of
// yt-dlp (via github.com/lrstanley/go-ytdlp). It picks a format profile from
// the requested target, streams yt-dlp progress into the job, retries once
// on failure, and reports the file yt-dlp saved.
