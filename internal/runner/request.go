package runner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ytget/media-toolkit/internal/classify"
	"github.com/ytget/media-toolkit/internal/config"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
)

// FetchRequest asks for a remote URL to be downloaded.
type FetchRequest struct {
	URL        string
	OutputDir  string // empty selects the settings default
	Target     string // e.g. "mp4", "mp3"
	CookieFile string
	NoPlaylist bool
}

// ConvertRequest asks for a local file to be converted.
type ConvertRequest struct {
	Input     string
	OutputDir string // empty selects the settings default, then the input's folder
	Target    string
}

func (r *Runner) buildFetchJob(req FetchRequest, s config.Settings) (*model.Job, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, model.InvalidInput("no URL provided")
	}
	if !classify.IsRemote(url) {
		return nil, model.InvalidInput("unsupported URL %q: only http and https are allowed", url)
	}
	target := classify.NormalizeFormat(req.Target)
	if target == "" {
		return nil, model.InvalidInput("no target format provided")
	}
	cookies := strings.TrimSpace(req.CookieFile)
	if cookies != "" {
		info, err := os.Stat(platform.ExpandHome(cookies))
		if err != nil || info.IsDir() {
			return nil, model.InvalidInput("cookie file %q does not exist", cookies)
		}
		cookies = platform.ExpandHome(cookies)
	}

	return &model.Job{
		Kind:   model.JobKindFetch,
		Source: url,
		Target: target,
		Options: model.Options{
			OutputDir:  outputDir(req.OutputDir, s.DefaultOutputDir, ""),
			CookieFile: cookies,
			NoPlaylist: req.NoPlaylist,
			Tools:      s.Tools(),
		},
		Category: model.CategoryUnknown,
	}, nil
}

func (r *Runner) buildConvertJob(req ConvertRequest, s config.Settings) (*model.Job, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return nil, model.InvalidInput("no input file provided")
	}
	input = platform.ExpandHome(input)
	info, err := os.Stat(input)
	if err != nil {
		return nil, model.InvalidInput("input file %q does not exist", input)
	}
	if info.IsDir() {
		return nil, model.InvalidInput("input %q is a directory", input)
	}
	target := classify.NormalizeFormat(req.Target)
	if target == "" {
		return nil, model.InvalidInput("no target format provided")
	}

	dir := outputDir(req.OutputDir, s.DefaultOutputDir, filepath.Dir(input))
	out := ConvertOutputPath(input, dir, target)
	if samePath(out, input) {
		return nil, model.InvalidInput("output %q would overwrite the input", out)
	}

	return &model.Job{
		Kind:       model.JobKindConvert,
		Source:     input,
		Target:     target,
		OutputPath: out,
		Options: model.Options{
			OutputDir: dir,
			Tools:     s.Tools(),
		},
	}, nil
}

// ConvertOutputPath returns <dir>/<input base without extension>.<target>.
func ConvertOutputPath(input, dir, target string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"."+target)
}

// outputDir picks the first non-empty of requested, the settings default and
// fallback, then the working directory.
func outputDir(requested, settingsDefault, fallback string) string {
	for _, dir := range []string{requested, settingsDefault, fallback} {
		if dir = strings.TrimSpace(dir); dir != "" {
			return platform.ExpandHome(dir)
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
