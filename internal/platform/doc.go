package platform

// Package platform contains OS integration and external tooling glue:
// locating ffmpeg/yt-dlp/pandoc, filesystem helpers, OS open/reveal, and
// the playlist probe used before remote fetches.
