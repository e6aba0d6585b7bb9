// Package classify maps local files to a coarse content category and lists
// the target formats worth offering for each category.
package classify

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ytget/media-toolkit/internal/model"
)

var extensionCategories = map[string]model.Category{
	// video
	".mp4": model.CategoryVideo, ".m4v": model.CategoryVideo, ".mkv": model.CategoryVideo,
	".webm": model.CategoryVideo, ".mov": model.CategoryVideo, ".avi": model.CategoryVideo,
	".wmv": model.CategoryVideo, ".flv": model.CategoryVideo, ".mpeg": model.CategoryVideo,
	".mpg": model.CategoryVideo, ".3gp": model.CategoryVideo, ".ts": model.CategoryVideo,

	// audio
	".mp3": model.CategoryAudio, ".wav": model.CategoryAudio, ".flac": model.CategoryAudio,
	".aac": model.CategoryAudio, ".m4a": model.CategoryAudio, ".ogg": model.CategoryAudio,
	".oga": model.CategoryAudio, ".opus": model.CategoryAudio, ".wma": model.CategoryAudio,
	".aiff": model.CategoryAudio, ".aif": model.CategoryAudio,

	// image
	".png": model.CategoryImage, ".jpg": model.CategoryImage, ".jpeg": model.CategoryImage,
	".gif": model.CategoryImage, ".bmp": model.CategoryImage, ".tif": model.CategoryImage,
	".tiff": model.CategoryImage, ".webp": model.CategoryImage, ".ico": model.CategoryImage,

	// document
	".pdf": model.CategoryDocument, ".doc": model.CategoryDocument, ".docx": model.CategoryDocument,
	".odt": model.CategoryDocument, ".rtf": model.CategoryDocument, ".txt": model.CategoryDocument,
	".md": model.CategoryDocument, ".markdown": model.CategoryDocument, ".html": model.CategoryDocument,
	".htm": model.CategoryDocument, ".epub": model.CategoryDocument, ".tex": model.CategoryDocument,
	".rst": model.CategoryDocument, ".csv": model.CategoryDocument,
}

var documentMIMEs = []string{
	"application/pdf",
	"application/rtf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.oasis.opendocument.text",
	"application/epub+zip",
}

// detectFile is swapped in tests.
var detectFile = mimetype.DetectFile

// Classify returns the category of a local path. The extension table is
// consulted first; for unknown extensions a readable regular file is sniffed
// by content. Remote URLs are never opened and classify as Unknown.
func Classify(pathOrURL string) model.Category {
	if pathOrURL == "" || IsRemote(pathOrURL) {
		return model.CategoryUnknown
	}

	if cat, ok := extensionCategories[strings.ToLower(filepath.Ext(pathOrURL))]; ok {
		return cat
	}

	info, err := os.Stat(pathOrURL)
	if err != nil || !info.Mode().IsRegular() {
		return model.CategoryUnknown
	}
	mt, err := detectFile(pathOrURL)
	if err != nil || mt == nil {
		return model.CategoryUnknown
	}
	return FromMIME(mt.String())
}

// FromMIME maps a MIME type string to a category.
func FromMIME(mimeType string) model.Category {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return model.CategoryVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return model.CategoryAudio
	case strings.HasPrefix(mimeType, "image/"):
		return model.CategoryImage
	case strings.HasPrefix(mimeType, "text/"):
		return model.CategoryDocument
	}
	for _, doc := range documentMIMEs {
		if mimeType == doc {
			return model.CategoryDocument
		}
	}
	return model.CategoryUnknown
}

// IsRemote reports whether s is an absolute http(s) URL.
func IsRemote(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// NormalizeFormat lower-cases a target format, strips a leading dot and
// folds common aliases.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	f = strings.TrimPrefix(f, ".")
	switch f {
	case "jpeg":
		return "jpg"
	case "tif":
		return "tiff"
	case "markdown":
		return "md"
	}
	return f
}
