package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/media-toolkit/internal/model"
)

var (
	colorSucceeded = color.NRGBA{R: 46, G: 160, B: 67, A: 255}
	colorFailed    = color.NRGBA{R: 183, G: 28, B: 28, A: 255}
	colorRunning   = color.NRGBA{R: 25, G: 118, B: 210, A: 255}
)

// compactSizes trims the default paddings so three form rows, a progress
// bar and the log fit the default window.
var compactSizes = map[fyne.ThemeSizeName]float32{
	theme.SizeNamePadding:        3,
	theme.SizeNameInnerPadding:   6,
	theme.SizeNameLineSpacing:    2,
	theme.SizeNameScrollBar:      12,
	theme.SizeNameText:           13,
	theme.SizeNameHeadingText:    16,
	theme.SizeNameSubHeadingText: 13,
	theme.SizeNameCaptionText:    10,
}

// CompactTheme is the default theme with tighter spacing and status colors.
type CompactTheme struct {
	base fyne.Theme
}

// NewCompactTheme creates a new compact theme
func NewCompactTheme() fyne.Theme {
	return &CompactTheme{base: theme.DefaultTheme()}
}

func (t *CompactTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameSuccess:
		return colorSucceeded
	case theme.ColorNameError:
		return colorFailed
	case theme.ColorNamePrimary:
		return colorRunning
	}
	return t.base.Color(name, variant)
}

func (t *CompactTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *CompactTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *CompactTheme) Size(name fyne.ThemeSizeName) float32 {
	if size, ok := compactSizes[name]; ok {
		return size
	}
	return t.base.Size(name)
}

// StatusImportance maps a job status to the importance of its label.
func StatusImportance(status model.JobStatus) widget.Importance {
	switch status {
	case model.JobStatusSucceeded:
		return widget.SuccessImportance
	case model.JobStatusFailed:
		return widget.DangerImportance
	case model.JobStatusRunning:
		return widget.HighImportance
	default:
		return widget.MediumImportance
	}
}
