package ui

import "sort"

// Localization manages UI text translations
type Localization struct {
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyTabDownloader     = "tab_downloader"
	KeyTabConverter      = "tab_converter"
	KeyTabInstagram      = "tab_instagram"
	KeyURL               = "url"
	KeyInstagramURL      = "instagram_url"
	KeyFormat            = "format"
	KeyConvertTo         = "convert_to"
	KeyCookieFile        = "cookie_file"
	KeyOutputFolder      = "output_folder"
	KeyInputFile         = "input_file"
	KeyBrowse            = "browse"
	KeyStartDownload     = "start_download"
	KeyDownloadPost      = "download_post"
	KeyConvert           = "convert"
	KeySettings          = "settings"
	KeySetFFmpegFolder   = "set_ffmpeg_folder"
	KeySetDefaultOutput  = "set_default_output"
	KeyCheckTools        = "check_tools"
	KeyLanguage          = "language"
	KeyPasteURL          = "paste_url"
	KeyPasteInstagramURL = "paste_instagram_url"
	KeySelectInput       = "select_input"
	KeySameFolderAsInput = "same_folder_as_input"
	KeyReveal            = "reveal"
	KeyOpen              = "open"
	KeyCopyPath          = "copy_path"
	KeyPathCopied        = "path_copied"
	KeyErrorOpeningFile  = "error_opening_file"
	KeySettingsSaved     = "settings_saved"
	KeyFFmpegFolderSet   = "ffmpeg_folder_set"
	KeyDefaultOutputSet  = "default_output_set"
	KeyStatusIdle        = "status_idle"
	KeyStatusPending     = "status_pending"
	KeyStatusRunning     = "status_running"
	KeyStatusSucceeded   = "status_succeeded"
	KeyStatusFailed      = "status_failed"
	KeyJobCompleted      = "job_completed"
	KeyFFmpegFolder      = "ffmpeg_folder"
	KeyYtDlpPath         = "ytdlp_path"
	KeyPandocPath        = "pandoc_path"
	KeyDefaultOutput     = "default_output"
	KeyMaxParallel       = "max_parallel"
	KeyLogLevel          = "log_level"
	KeyAutoReveal        = "auto_reveal"
	KeySave              = "save"
	KeyCancel            = "cancel"
	KeyRestartNote       = "restart_note"
	KeyPathOnPATH        = "path_on_path"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: "en",
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage switches language; unknown codes are ignored.
func (l *Localization) SetLanguage(lang string) {
	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	if text, found := l.texts[l.currentLanguage][key]; found {
		return text
	}
	if text, found := l.texts["en"][key]; found {
		return text
	}
	return key
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"ru": "Русский",
	}
}

// LanguageCodes returns the available language codes in stable order.
func (l *Localization) LanguageCodes() []string {
	codes := make([]string, 0, len(l.texts))
	for code := range l.texts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// initializeTexts initializes all text translations
func (l *Localization) initializeTexts() {
	l.texts["en"] = map[string]string{
		KeyAppTitle:          "All-in-One Media Toolkit",
		KeyTabDownloader:     "Downloader",
		KeyTabConverter:      "Converter",
		KeyTabInstagram:      "Instagram",
		KeyURL:               "URL",
		KeyInstagramURL:      "Instagram URL",
		KeyFormat:            "Format",
		KeyConvertTo:         "Convert to",
		KeyCookieFile:        "Cookie file (optional)",
		KeyOutputFolder:      "Output folder",
		KeyInputFile:         "Input file",
		KeyBrowse:            "Browse",
		KeyStartDownload:     "Start Download",
		KeyDownloadPost:      "Download Post/Reel",
		KeyConvert:           "Convert",
		KeySettings:          "Settings",
		KeySetFFmpegFolder:   "Set ffmpeg folder...",
		KeySetDefaultOutput:  "Set default output folder...",
		KeyCheckTools:        "Check tools",
		KeyLanguage:          "Language",
		KeyPasteURL:          "Please paste a URL.",
		KeyPasteInstagramURL: "Paste an Instagram URL.",
		KeySelectInput:       "Select a valid input file.",
		KeySameFolderAsInput: "Leave empty for same folder as input",
		KeyReveal:            "Show in folder",
		KeyOpen:              "Open",
		KeyCopyPath:          "Copy path",
		KeyPathCopied:        "Path copied to clipboard",
		KeyErrorOpeningFile:  "Error opening file",
		KeySettingsSaved:     "Settings saved successfully!",
		KeyFFmpegFolderSet:   "ffmpeg path set to: %s",
		KeyDefaultOutputSet:  "default output set to: %s",
		KeyStatusIdle:        "Idle",
		KeyStatusPending:     "Queued",
		KeyStatusRunning:     "Running",
		KeyStatusSucceeded:   "Done",
		KeyStatusFailed:      "Failed",
		KeyJobCompleted:      "Job completed",
		KeyFFmpegFolder:      "ffmpeg folder",
		KeyYtDlpPath:         "yt-dlp executable",
		KeyPandocPath:        "pandoc executable",
		KeyDefaultOutput:     "Default output folder",
		KeyMaxParallel:       "Max parallel jobs (0 = unlimited)",
		KeyLogLevel:          "Log level",
		KeyAutoReveal:        "Show finished files in folder",
		KeySave:              "Save",
		KeyCancel:            "Cancel",
		KeyRestartNote:       "Parallel job limit applies after restart.",
		KeyPathOnPATH:        "Empty = look up on PATH",
	}

	l.texts["ru"] = map[string]string{
		KeyAppTitle:          "Медиа-инструменты",
		KeyTabDownloader:     "Загрузчик",
		KeyTabConverter:      "Конвертер",
		KeyTabInstagram:      "Instagram",
		KeyURL:               "Ссылка",
		KeyInstagramURL:      "Ссылка Instagram",
		KeyFormat:            "Формат",
		KeyConvertTo:         "Конвертировать в",
		KeyCookieFile:        "Файл cookies (необязательно)",
		KeyOutputFolder:      "Папка сохранения",
		KeyInputFile:         "Исходный файл",
		KeyBrowse:            "Обзор",
		KeyStartDownload:     "Скачать",
		KeyDownloadPost:      "Скачать пост/Reels",
		KeyConvert:           "Конвертировать",
		KeySettings:          "Настройки",
		KeySetFFmpegFolder:   "Папка ffmpeg...",
		KeySetDefaultOutput:  "Папка сохранения по умолчанию...",
		KeyCheckTools:        "Проверить инструменты",
		KeyLanguage:          "Язык",
		KeyPasteURL:          "Вставьте ссылку.",
		KeyPasteInstagramURL: "Вставьте ссылку Instagram.",
		KeySelectInput:       "Выберите существующий файл.",
		KeySameFolderAsInput: "Пусто = папка исходного файла",
		KeyReveal:            "Показать в папке",
		KeyOpen:              "Открыть",
		KeyCopyPath:          "Копировать путь",
		KeyPathCopied:        "Путь скопирован",
		KeyErrorOpeningFile:  "Ошибка открытия файла",
		KeySettingsSaved:     "Настройки сохранены!",
		KeyFFmpegFolderSet:   "Папка ffmpeg: %s",
		KeyDefaultOutputSet:  "Папка по умолчанию: %s",
		KeyStatusIdle:        "Ожидание",
		KeyStatusPending:     "В очереди",
		KeyStatusRunning:     "Выполняется",
		KeyStatusSucceeded:   "Готово",
		KeyStatusFailed:      "Ошибка",
		KeyJobCompleted:      "Задача завершена",
		KeyFFmpegFolder:      "Папка ffmpeg",
		KeyYtDlpPath:         "Файл yt-dlp",
		KeyPandocPath:        "Файл pandoc",
		KeyDefaultOutput:     "Папка по умолчанию",
		KeyMaxParallel:       "Параллельных задач (0 = без ограничений)",
		KeyLogLevel:          "Уровень логов",
		KeyAutoReveal:        "Показывать готовые файлы в папке",
		KeySave:              "Сохранить",
		KeyCancel:            "Отмена",
		KeyRestartNote:       "Лимит задач применяется после перезапуска.",
		KeyPathOnPATH:        "Пусто = искать в PATH",
	}
}
