package ui

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconFolder   = "📁"
	IconFile     = "📄"
	IconCopy     = "📋"
	IconSuccess  = "✅"
	IconError    = "❌"
)

// Text fragments
const (
	ProgressLabelFormat = "%d%%"
	DashPlaceholder     = "—"
)

// Window and layout sizing
const (
	WindowWidth  float32 = 920
	WindowHeight float32 = 620

	StatusLabelWidth  float32 = 96
	PercentLabelWidth float32 = 48
	LogMinHeight      float32 = 260

	SettingsDialogWidth  float32 = 560
	SettingsDialogHeight float32 = 480
)

// MaxLogLines bounds the log kept by each tab.
const MaxLogLines = 500

// Target formats offered before an input is chosen
var (
	DownloaderFormats = []string{"mp4", "mp3"}
	ConverterFormats  = []string{"mp3", "mp4", "wav", "png", "jpg", "ico", "webp", "pdf", "txt", "docx"}
	InstagramFormat   = "mp4"
	LogLevelOptions   = []string{"debug", "info", "warn", "error"}
)
