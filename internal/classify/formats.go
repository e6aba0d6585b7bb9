package classify

import "github.com/ytget/media-toolkit/internal/model"

var suggested = map[model.Category][]string{
	model.CategoryVideo:    {"mp4", "mp3", "wav", "gif"},
	model.CategoryAudio:    {"mp3", "wav", "mp4"},
	model.CategoryImage:    {"png", "jpg", "ico", "webp"},
	model.CategoryDocument: {"pdf", "docx", "txt", "md"},
}

var fallbackFormats = []string{"mp3", "mp4", "png", "jpg", "pdf", "txt"}

// SuggestedFormats returns the target formats offered for a category.
// The returned slice is a copy.
func SuggestedFormats(cat model.Category) []string {
	list, ok := suggested[cat]
	if !ok {
		list = fallbackFormats
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// SuggestedFormatsFor classifies path and returns its suggested formats.
func SuggestedFormatsFor(path string) []string {
	return SuggestedFormats(Classify(path))
}
