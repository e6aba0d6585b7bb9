package ui

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/media-toolkit/internal/config"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	store        SettingsStore
	localization *Localization
	window       fyne.Window
	dialog       *dialog.ConfirmDialog
	onSaved      func(config.Settings)

	ffmpegDirEntry   *widget.Entry
	ytdlpEntry       *widget.Entry
	pandocEntry      *widget.Entry
	outputDirEntry   *widget.Entry
	maxParallelEntry *widget.Entry
	logLevelSelect   *widget.Select
	languageSelect   *widget.Select
	autoRevealCheck  *widget.Check
}

// ShowSettingsDialog opens the dialog; onSaved runs after a successful save.
func ShowSettingsDialog(window fyne.Window, store SettingsStore, localization *Localization, onSaved func(config.Settings)) *SettingsDialog {
	sd := NewSettingsDialog(store, localization, window)
	sd.onSaved = onSaved
	sd.Show()
	return sd
}

// NewSettingsDialog creates a new settings dialog
func NewSettingsDialog(store SettingsStore, localization *Localization, window fyne.Window) *SettingsDialog {
	sd := &SettingsDialog{
		store:        store,
		localization: localization,
		window:       window,
	}
	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

func (sd *SettingsDialog) createUI() {
	text := sd.localization.GetText

	sd.ffmpegDirEntry = widget.NewEntry()
	sd.ffmpegDirEntry.SetPlaceHolder(text(KeyPathOnPATH))
	sd.ytdlpEntry = widget.NewEntry()
	sd.ytdlpEntry.SetPlaceHolder(text(KeyPathOnPATH))
	sd.pandocEntry = widget.NewEntry()
	sd.pandocEntry.SetPlaceHolder(text(KeyPathOnPATH))
	sd.outputDirEntry = widget.NewEntry()

	sd.maxParallelEntry = widget.NewEntry()
	sd.maxParallelEntry.SetPlaceHolder(fmt.Sprintf("0-%d", config.MaxParallelLimit))
	sd.maxParallelEntry.Validator = validateMaxParallel

	sd.logLevelSelect = widget.NewSelect(LogLevelOptions, nil)
	sd.languageSelect = widget.NewSelect(sd.localization.LanguageCodes(), nil)
	sd.autoRevealCheck = widget.NewCheck(text(KeyAutoReveal), nil)

	form := widget.NewForm(
		widget.NewFormItem(text(KeyFFmpegFolder), sd.withBrowse(sd.ffmpegDirEntry, true)),
		widget.NewFormItem(text(KeyYtDlpPath), sd.withBrowse(sd.ytdlpEntry, false)),
		widget.NewFormItem(text(KeyPandocPath), sd.withBrowse(sd.pandocEntry, false)),
		widget.NewFormItem(text(KeyDefaultOutput), sd.withBrowse(sd.outputDirEntry, true)),
		widget.NewFormItem(text(KeyMaxParallel), sd.maxParallelEntry),
		widget.NewFormItem(text(KeyLogLevel), sd.logLevelSelect),
		widget.NewFormItem(text(KeyLanguage), sd.languageSelect),
	)

	note := widget.NewLabel(text(KeyRestartNote))
	note.Importance = widget.LowImportance

	sd.dialog = dialog.NewCustomConfirm(
		text(KeySettings),
		text(KeySave),
		text(KeyCancel),
		container.NewVBox(form, sd.autoRevealCheck, note),
		sd.onSave,
		sd.window,
	)
	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

func (sd *SettingsDialog) withBrowse(entry *widget.Entry, folder bool) fyne.CanvasObject {
	browse := widget.NewButton(sd.localization.GetText(KeyBrowse), func() {
		if folder {
			dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
				if err == nil && uri != nil {
					entry.SetText(uri.Path())
				}
			}, sd.window)
			return
		}
		dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			defer reader.Close()
			entry.SetText(reader.URI().Path())
		}, sd.window)
	})
	return container.NewBorder(nil, nil, nil, browse, entry)
}

func (sd *SettingsDialog) loadCurrentSettings() {
	s := sd.store.Settings()
	sd.ffmpegDirEntry.SetText(s.FFmpegDir)
	sd.ytdlpEntry.SetText(s.YtDlpPath)
	sd.pandocEntry.SetText(s.PandocPath)
	sd.outputDirEntry.SetText(s.DefaultOutputDir)
	sd.maxParallelEntry.SetText(strconv.Itoa(s.MaxParallelJobs))
	sd.logLevelSelect.SetSelected(s.LogLevel)
	sd.languageSelect.SetSelected(s.Language)
	sd.autoRevealCheck.SetChecked(s.AutoReveal)
}

// collect merges the form into the current settings.
func (sd *SettingsDialog) collect() (config.Settings, error) {
	s := sd.store.Settings()
	s.FFmpegDir = strings.TrimSpace(sd.ffmpegDirEntry.Text)
	s.YtDlpPath = strings.TrimSpace(sd.ytdlpEntry.Text)
	s.PandocPath = strings.TrimSpace(sd.pandocEntry.Text)
	if dir := strings.TrimSpace(sd.outputDirEntry.Text); dir != "" {
		s.DefaultOutputDir = dir
	}
	if raw := strings.TrimSpace(sd.maxParallelEntry.Text); raw != "" {
		if err := validateMaxParallel(raw); err != nil {
			return s, err
		}
		s.MaxParallelJobs, _ = strconv.Atoi(raw)
	}
	if sd.logLevelSelect.Selected != "" {
		s.LogLevel = sd.logLevelSelect.Selected
	}
	if sd.languageSelect.Selected != "" {
		s.Language = sd.languageSelect.Selected
	}
	s.AutoReveal = sd.autoRevealCheck.Checked
	return s, nil
}

func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}
	s, err := sd.collect()
	if err == nil {
		err = sd.store.Save(s)
	}
	if err != nil {
		dialog.ShowError(err, sd.window)
		return
	}
	if sd.onSaved != nil {
		sd.onSaved(sd.store.Settings())
	}
	dialog.ShowInformation(sd.localization.GetText(KeySettings), sd.localization.GetText(KeySettingsSaved), sd.window)
}

func validateMaxParallel(raw string) error {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 || n > config.MaxParallelLimit {
		return fmt.Errorf("enter a number from 0 to %d", config.MaxParallelLimit)
	}
	return nil
}
