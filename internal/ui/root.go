package ui

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	toolkit "github.com/ytget/media-toolkit/internal/app"
	"github.com/ytget/media-toolkit/internal/classify"
	"github.com/ytget/media-toolkit/internal/config"
	"github.com/ytget/media-toolkit/internal/logger"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
	"github.com/ytget/media-toolkit/internal/runner"
)

// Submitter is the part of the runner the UI needs.
type Submitter interface {
	SubmitFetch(req runner.FetchRequest, opts ...runner.SubmitOption) (*runner.Handle, error)
	SubmitConvert(req runner.ConvertRequest, opts ...runner.SubmitOption) (*runner.Handle, error)
}

// SettingsStore reads and persists settings.
type SettingsStore interface {
	config.Provider
	Save(config.Settings) error
}

// RootUI represents the main UI structure
type RootUI struct {
	window       fyne.Window
	runner       Submitter
	store        SettingsStore
	doctor       func() []toolkit.ToolStatus
	log          logger.Logger
	localization *Localization

	tabs       *container.AppTabs
	downloader *fetchTab
	converter  *convertTab
	instagram  *fetchTab
}

// fetchTab backs both the Downloader and Instagram tabs.
type fetchTab struct {
	urlEntry     *widget.Entry
	formatSelect *widget.Select // nil on the Instagram tab
	cookieEntry  *widget.Entry
	outputEntry  *widget.Entry
	startBtn     *widget.Button
	panel        *JobPanel
	noPlaylist   bool
	emptyURLKey  string
}

type convertTab struct {
	inputEntry   *widget.Entry
	outputEntry  *widget.Entry
	formatSelect *widget.Select
	convertBtn   *widget.Button
	panel        *JobPanel
}

// NewRootUI builds the window content from the wired application.
func NewRootUI(window fyne.Window, a *toolkit.App) *RootUI {
	return newRootUI(window, a.Runner, a.Store, a.Doctor, a.Logger)
}

func newRootUI(window fyne.Window, r Submitter, store SettingsStore, doctor func() []toolkit.ToolStatus, log logger.Logger) *RootUI {
	if log == nil {
		log = logger.NewNop()
	}
	localization := NewLocalization()
	localization.SetLanguage(store.Settings().Language)

	ui := &RootUI{
		window:       window,
		runner:       r,
		store:        store,
		doctor:       doctor,
		log:          log,
		localization: localization,
	}

	window.SetTitle(localization.GetText(KeyAppTitle))
	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	defaultOut := ui.store.Settings().DefaultOutputDir
	ui.downloader = ui.newFetchTab(defaultOut, true, false, KeyPasteURL)
	ui.instagram = ui.newFetchTab(defaultOut, false, true, KeyPasteInstagramURL)
	ui.converter = ui.newConvertTab()

	ui.tabs = container.NewAppTabs(
		container.NewTabItem(ui.localization.GetText(KeyTabDownloader), ui.fetchTabContent(ui.downloader, KeyURL, KeyStartDownload)),
		container.NewTabItem(ui.localization.GetText(KeyTabConverter), ui.convertTabContent()),
		container.NewTabItem(ui.localization.GetText(KeyTabInstagram), ui.fetchTabContent(ui.instagram, KeyInstagramURL, KeyDownloadPost)),
	)
	ui.window.SetContent(ui.tabs)
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsMenu := fyne.NewMenu(ui.localization.GetText(KeySettings),
		fyne.NewMenuItem(ui.localization.GetText(KeySettings)+"...", ui.onShowSettings),
		fyne.NewMenuItem(ui.localization.GetText(KeySetFFmpegFolder), ui.onSetFFmpegFolder),
		fyne.NewMenuItem(ui.localization.GetText(KeySetDefaultOutput), ui.onSetDefaultOutput),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem(ui.localization.GetText(KeyCheckTools), ui.onCheckTools),
	)

	languageMenu := fyne.NewMenu(ui.localization.GetText(KeyLanguage))
	names := ui.localization.GetAvailableLanguages()
	for _, code := range ui.localization.LanguageCodes() {
		langCode := code
		item := fyne.NewMenuItem(names[code], func() { ui.onLanguageChange(langCode) })
		item.Checked = ui.localization.GetCurrentLanguage() == code
		languageMenu.Items = append(languageMenu.Items, item)
	}

	ui.window.SetMainMenu(fyne.NewMainMenu(settingsMenu, languageMenu))
}

func (ui *RootUI) newFetchTab(defaultOut string, withFormat, noPlaylist bool, emptyURLKey string) *fetchTab {
	tab := &fetchTab{
		urlEntry:    widget.NewEntry(),
		cookieEntry: widget.NewEntry(),
		outputEntry: widget.NewEntry(),
		panel:       ui.newPanel(),
		noPlaylist:  noPlaylist,
		emptyURLKey: emptyURLKey,
	}
	tab.urlEntry.SetPlaceHolder("https://")
	tab.urlEntry.Validator = validateURL
	tab.urlEntry.OnSubmitted = func(string) { ui.onFetch(tab) }
	tab.outputEntry.SetText(defaultOut)
	if withFormat {
		tab.formatSelect = widget.NewSelect(DownloaderFormats, nil)
		tab.formatSelect.SetSelected(DownloaderFormats[0])
	}
	return tab
}

func (ui *RootUI) fetchTabContent(tab *fetchTab, urlKey, buttonKey string) fyne.CanvasObject {
	cookieRow := container.NewBorder(nil, nil, nil,
		widget.NewButton(ui.localization.GetText(KeyBrowse), func() { ui.browseFile(tab.cookieEntry) }),
		tab.cookieEntry)
	outputRow := container.NewBorder(nil, nil, nil,
		widget.NewButton(IconFolder, func() { ui.browseFolder(tab.outputEntry) }),
		tab.outputEntry)

	form := widget.NewForm(widget.NewFormItem(ui.localization.GetText(urlKey), tab.urlEntry))
	if tab.formatSelect != nil {
		form.Append(ui.localization.GetText(KeyFormat), tab.formatSelect)
	}
	form.Append(ui.localization.GetText(KeyCookieFile), cookieRow)
	form.Append(ui.localization.GetText(KeyOutputFolder), outputRow)

	tab.startBtn = widget.NewButton(ui.localization.GetText(buttonKey), func() { ui.onFetch(tab) })
	tab.startBtn.Importance = widget.HighImportance

	return container.NewBorder(container.NewVBox(form, tab.startBtn), nil, nil, nil, tab.panel.Content())
}

func (ui *RootUI) newConvertTab() *convertTab {
	tab := &convertTab{
		inputEntry:   widget.NewEntry(),
		outputEntry:  widget.NewEntry(),
		formatSelect: widget.NewSelect(ConverterFormats, nil),
		panel:        ui.newPanel(),
	}
	tab.inputEntry.SetPlaceHolder(ui.localization.GetText(KeyInputFile))
	tab.inputEntry.OnChanged = func(path string) { ui.suggestFormats(tab, path) }
	tab.outputEntry.SetPlaceHolder(ui.localization.GetText(KeySameFolderAsInput))
	tab.formatSelect.SetSelected(ConverterFormats[0])
	return tab
}

func (ui *RootUI) convertTabContent() fyne.CanvasObject {
	tab := ui.converter
	inputRow := container.NewBorder(nil, nil, nil,
		widget.NewButton(ui.localization.GetText(KeyBrowse), func() { ui.browseFile(tab.inputEntry) }),
		tab.inputEntry)
	outputRow := container.NewBorder(nil, nil, nil,
		widget.NewButton(IconFolder, func() { ui.browseFolder(tab.outputEntry) }),
		tab.outputEntry)

	form := widget.NewForm(
		widget.NewFormItem(ui.localization.GetText(KeyInputFile), inputRow),
		widget.NewFormItem(ui.localization.GetText(KeyOutputFolder), outputRow),
		widget.NewFormItem(ui.localization.GetText(KeyConvertTo), tab.formatSelect),
	)
	tab.convertBtn = widget.NewButton(ui.localization.GetText(KeyConvert), ui.onConvert)
	tab.convertBtn.Importance = widget.HighImportance

	return container.NewBorder(container.NewVBox(form, tab.convertBtn), nil, nil, nil, tab.panel.Content())
}

func (ui *RootUI) newPanel() *JobPanel {
	panel := NewJobPanel(ui.localization, ui.log)
	panel.autoReveal = func() bool { return ui.store.Settings().AutoReveal }
	panel.notify = ui.notifyFinished
	return panel
}

// suggestFormats narrows the target list to what fits the chosen input.
func (ui *RootUI) suggestFormats(tab *convertTab, path string) {
	path = strings.TrimSpace(path)
	if path == "" || !fileExists(path) {
		return
	}
	formats := classify.SuggestedFormatsFor(path)
	tab.formatSelect.Options = formats
	if !slices.Contains(formats, tab.formatSelect.Selected) {
		tab.formatSelect.SetSelected(formats[0])
	}
	tab.formatSelect.Refresh()
}

func (ui *RootUI) onFetch(tab *fetchTab) {
	rawURL := strings.TrimSpace(tab.urlEntry.Text)
	if rawURL == "" {
		tab.panel.Append(IconError + " " + ui.localization.GetText(tab.emptyURLKey))
		return
	}

	target := InstagramFormat
	if tab.formatSelect != nil && tab.formatSelect.Selected != "" {
		target = tab.formatSelect.Selected
	}

	h, err := ui.runner.SubmitFetch(runner.FetchRequest{
		URL:        rawURL,
		OutputDir:  tab.outputEntry.Text,
		Target:     target,
		CookieFile: tab.cookieEntry.Text,
		NoPlaylist: tab.noPlaylist,
	})
	if err != nil {
		ui.reportSubmitError(tab.panel, err)
		return
	}
	ui.attach(h, tab.panel)
}

func (ui *RootUI) onConvert() {
	tab := ui.converter
	input := strings.TrimSpace(tab.inputEntry.Text)
	if input == "" || !fileExists(input) {
		tab.panel.Append(IconError + " " + ui.localization.GetText(KeySelectInput))
		return
	}

	h, err := ui.runner.SubmitConvert(runner.ConvertRequest{
		Input:     input,
		OutputDir: tab.outputEntry.Text,
		Target:    tab.formatSelect.Selected,
	})
	if err != nil {
		ui.reportSubmitError(tab.panel, err)
		return
	}
	ui.attach(h, tab.panel)
}

// attach binds a freshly submitted job to panel. Events emitted before the
// observer is attached stay queued on the job's channel.
func (ui *RootUI) attach(h *runner.Handle, panel *JobPanel) {
	if err := h.Attach(panel.Begin(h.ID())); err != nil {
		ui.log.Error("Attach observer failed", logger.String("job_id", h.ID()), logger.Error(err))
	}
}

func (ui *RootUI) reportSubmitError(panel *JobPanel, err error) {
	if !errors.Is(err, model.ErrInvalidInput) {
		ui.log.Error("Submit failed", logger.Error(err))
	}
	panel.Append(IconError + " " + err.Error())
}

func (ui *RootUI) notifyFinished(res model.Result) {
	if !res.Success {
		return
	}
	fyne.CurrentApp().SendNotification(fyne.NewNotification(
		ui.localization.GetText(KeyJobCompleted), res.Message))
}

func (ui *RootUI) browseFile(target *widget.Entry) {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		target.SetText(reader.URI().Path())
	}, ui.window)
}

func (ui *RootUI) browseFolder(target *widget.Entry) {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		target.SetText(uri.Path())
	}, ui.window)
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	ShowSettingsDialog(ui.window, ui.store, ui.localization, func(saved config.Settings) {
		ui.downloader.outputEntry.SetText(saved.DefaultOutputDir)
		ui.instagram.outputEntry.SetText(saved.DefaultOutputDir)
		if saved.Language != ui.localization.GetCurrentLanguage() {
			ui.onLanguageChange(saved.Language)
		}
	})
}

func (ui *RootUI) onSetFFmpegFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		ui.updateSettings(func(s *config.Settings) { s.FFmpegDir = uri.Path() },
			fmt.Sprintf(ui.localization.GetText(KeyFFmpegFolderSet), uri.Path()))
	}, ui.window)
}

func (ui *RootUI) onSetDefaultOutput() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		ui.updateSettings(func(s *config.Settings) { s.DefaultOutputDir = uri.Path() },
			fmt.Sprintf(ui.localization.GetText(KeyDefaultOutputSet), uri.Path()))
		ui.downloader.outputEntry.SetText(uri.Path())
		ui.instagram.outputEntry.SetText(uri.Path())
	}, ui.window)
}

// updateSettings applies edit to the current settings, saves them and logs
// message on the Downloader tab.
func (ui *RootUI) updateSettings(edit func(*config.Settings), message string) {
	s := ui.store.Settings()
	edit(&s)
	if err := ui.store.Save(s); err != nil {
		dialog.ShowError(err, ui.window)
		return
	}
	ui.downloader.panel.Append(message)
}

func (ui *RootUI) onCheckTools() {
	if ui.doctor == nil {
		return
	}
	dialog.ShowInformation(ui.localization.GetText(KeyCheckTools), toolkit.Summary(ui.doctor()), ui.window)
}

// onLanguageChange persists the language and rebuilds the window content.
func (ui *RootUI) onLanguageChange(langCode string) {
	ui.localization.SetLanguage(langCode)
	s := ui.store.Settings()
	if s.Language != langCode {
		s.Language = langCode
		if err := ui.store.Save(s); err != nil {
			ui.log.Warn("Saving language failed", logger.Error(err))
		}
	}
	ui.window.SetTitle(ui.localization.GetText(KeyAppTitle))
	ui.setupUI()
}

// validateURL accepts empty input and http(s) URLs.
func validateURL(input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parsed, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(platform.ExpandHome(path))
	return err == nil && !info.IsDir()
}
