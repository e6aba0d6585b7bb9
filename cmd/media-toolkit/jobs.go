package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ytget/media-toolkit/internal/app"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
	"github.com/ytget/media-toolkit/internal/runner"
)

// progressStep is the granularity of progress lines in the terminal.
const progressStep = 10

func newFetchCommand(flags *globalFlags) *cobra.Command {
	var (
		target     string
		outputDir  string
		cookieFile string
		noPlaylist bool
	)

	cmd := &cobra.Command{
		Use:   "fetch URL [URL...]",
		Short: "Download media from one or more URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(flags)
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout())

			var handles []*runner.Handle
			for _, url := range args {
				h, err := a.Runner.SubmitFetch(runner.FetchRequest{
					URL:        url,
					OutputDir:  outputDir,
					Target:     target,
					CookieFile: cookieFile,
					NoPlaylist: noPlaylist,
				}, runner.WithObserver(out.observer(url)))
				if err != nil {
					out.fail(url, err)
					continue
				}
				handles = append(handles, h)
			}
			return finish(a, flags, out, handles)
		},
	}

	cmd.Flags().StringVarP(&target, "format", "f", "mp4", "target format (mp4, mkv, webm, mp3, m4a, wav, ...)")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "output folder (default from settings)")
	cmd.Flags().StringVar(&cookieFile, "cookies", "", "Netscape cookie file for sites that need a login")
	cmd.Flags().BoolVar(&noPlaylist, "no-playlist", false, "download a single item even when the URL names a playlist")
	cmd.Flags().DurationVar(&flags.playlistTimeout, "playlist-timeout", platform.DefaultProbeTimeout, "time limit for listing playlist entries")
	return cmd
}

func newConvertCommand(flags *globalFlags) *cobra.Command {
	var (
		target    string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "convert FILE [FILE...]",
		Short: "Convert local files to another format",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(flags)
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout())

			var handles []*runner.Handle
			for _, input := range args {
				h, err := a.Runner.SubmitConvert(runner.ConvertRequest{
					Input:     input,
					OutputDir: outputDir,
					Target:    target,
				}, runner.WithObserver(out.observer(filepath.Base(input))))
				if err != nil {
					out.fail(input, err)
					continue
				}
				handles = append(handles, h)
			}
			return finish(a, flags, out, handles)
		},
	}

	cmd.Flags().StringVarP(&target, "to", "t", "", "target format, e.g. mp3, jpg, ico, pdf")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "output folder (default from settings, then the input's folder)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// finish waits for every observer to see its terminal result, then shuts
// the app down.
func finish(a *app.App, flags *globalFlags, out *printer, handles []*runner.Handle) error {
	for _, h := range handles {
		<-h.Delivered()
	}
	if err := shutdown(a, flags); err != nil {
		return err
	}
	if out.failures() > 0 {
		return errJobsFailed
	}
	return nil
}

// printer renders job events as terminal lines.
type printer struct {
	mu     sync.Mutex
	w      io.Writer
	failed int
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) observer(name string) *jobPrinter {
	return &jobPrinter{printer: p, name: name, lastStep: -1}
}

func (p *printer) println(name, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "[%s] %s\n", name, text)
}

func (p *printer) fail(name string, err error) {
	p.mu.Lock()
	p.failed++
	p.mu.Unlock()
	p.println(name, "❌ "+err.Error())
}

func (p *printer) failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

// jobPrinter observes a single job.
type jobPrinter struct {
	*printer
	name     string
	lastStep int
}

func (j *jobPrinter) OnEvent(ev model.Event) {
	switch ev.Type {
	case model.EventLog:
		j.println(j.name, strings.TrimRight(ev.Text, "\r\n"))
	case model.EventProgress:
		step := int(ev.Percent) / progressStep
		if step == j.lastStep || ev.Percent == 0 {
			return
		}
		j.lastStep = step
		j.println(j.name, fmt.Sprintf("%3.0f%%", ev.Percent))
	}
}

func (j *jobPrinter) OnResult(res model.Result) {
	if res.Success {
		if res.OutputPath != "" {
			j.println(j.name, "Saved to "+res.OutputPath)
		}
		return
	}
	j.mu.Lock()
	j.failed++
	j.mu.Unlock()
}
