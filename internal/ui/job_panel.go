package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/media-toolkit/internal/events"
	"github.com/ytget/media-toolkit/internal/logger"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
)

// JobPanel shows the progress of the most recent job started from a tab and
// the log of every job started from it.
type JobPanel struct {
	localization *Localization
	log          logger.Logger

	progress     *widget.ProgressBar
	statusLabel  *widget.Label
	percentLabel *widget.Label
	logLabel     *widget.Label
	logScroll    *container.Scroll

	revealBtn *widget.Button
	openBtn   *widget.Button
	copyBtn   *widget.Button

	lines      []string
	currentJob string
	status     model.JobStatus
	outputPath string

	// autoReveal reports whether finished files should be shown right away.
	autoReveal func() bool
	// notify is called for every finished job.
	notify func(res model.Result)
}

// NewJobPanel creates an idle panel.
func NewJobPanel(localization *Localization, log logger.Logger) *JobPanel {
	if log == nil {
		log = logger.NewNop()
	}
	p := &JobPanel{localization: localization, log: log}

	p.progress = widget.NewProgressBar()
	p.progress.Max = 100
	p.progress.TextFormatter = func() string { return "" }

	p.statusLabel = widget.NewLabel(localization.GetText(KeyStatusIdle))
	p.percentLabel = widget.NewLabel(DashPlaceholder)

	p.logLabel = widget.NewLabel("")
	p.logLabel.Wrapping = fyne.TextWrapWord
	p.logScroll = container.NewVScroll(p.logLabel)
	p.logScroll.SetMinSize(fyne.NewSize(0, LogMinHeight))

	p.revealBtn = widget.NewButton(IconFolder+" "+localization.GetText(KeyReveal), p.onReveal)
	p.openBtn = widget.NewButton(IconFile+" "+localization.GetText(KeyOpen), p.onOpen)
	p.copyBtn = widget.NewButton(IconCopy+" "+localization.GetText(KeyCopyPath), p.onCopyPath)
	p.setFileActions(false)
	return p
}

// Content returns the panel layout: status row on top, log below.
func (p *JobPanel) Content() fyne.CanvasObject {
	status := container.NewGridWrap(fyne.NewSize(StatusLabelWidth, p.statusLabel.MinSize().Height), p.statusLabel)
	percent := container.NewGridWrap(fyne.NewSize(PercentLabelWidth, p.percentLabel.MinSize().Height), p.percentLabel)
	row := container.NewBorder(nil, nil, status, percent, p.progress)
	actions := container.NewHBox(p.revealBtn, p.openBtn, p.copyBtn)
	return container.NewBorder(container.NewVBox(row, actions), nil, nil, nil, p.logScroll)
}

// Begin resets progress for jobID and returns the observer to attach to it.
// Must be called on the UI goroutine.
func (p *JobPanel) Begin(jobID string) events.Observer {
	p.currentJob = jobID
	p.outputPath = ""
	p.setFileActions(false)
	p.setStatus(model.JobStatusPending)
	p.setProgress(0)
	return &panelObserver{panel: p, jobID: jobID}
}

// Append adds a line to the log. Must be called on the UI goroutine.
func (p *JobPanel) Append(line string) {
	p.lines = append(p.lines, strings.TrimRight(line, "\r\n"))
	if len(p.lines) > MaxLogLines {
		p.lines = p.lines[len(p.lines)-MaxLogLines:]
	}
	p.logLabel.SetText(strings.Join(p.lines, "\n"))
	p.logScroll.ScrollToBottom()
}

// Lines returns a copy of the log.
func (p *JobPanel) Lines() []string {
	return append([]string(nil), p.lines...)
}

// Status returns the status of the current job.
func (p *JobPanel) Status() model.JobStatus {
	return p.status
}

// OutputPath returns the file produced by the current job, if any.
func (p *JobPanel) OutputPath() string {
	return p.outputPath
}

// Progress returns the progress bar value.
func (p *JobPanel) Progress() float64 {
	return p.progress.Value
}

func (p *JobPanel) applyEvent(jobID string, ev model.Event) {
	switch ev.Type {
	case model.EventLog:
		p.Append(ev.Text)
	case model.EventProgress:
		if jobID != p.currentJob {
			return
		}
		if p.status == model.JobStatusPending {
			p.setStatus(model.JobStatusRunning)
		}
		p.setProgress(ev.Percent)
	}
}

func (p *JobPanel) applyResult(jobID string, res model.Result) {
	if p.notify != nil {
		p.notify(res)
	}
	if jobID != p.currentJob {
		return
	}
	if !res.Success {
		p.setStatus(model.JobStatusFailed)
		p.setProgress(0)
		return
	}
	p.setStatus(model.JobStatusSucceeded)
	p.setProgress(100)
	p.outputPath = res.OutputPath
	p.setFileActions(res.OutputPath != "")
	if p.autoReveal != nil && p.autoReveal() && res.OutputPath != "" {
		p.onReveal()
	}
}

func (p *JobPanel) setStatus(status model.JobStatus) {
	p.status = status
	p.statusLabel.Importance = StatusImportance(status)
	p.statusLabel.SetText(p.localization.GetText(statusKey(status)))
}

func (p *JobPanel) setProgress(percent float64) {
	percent = model.ClampPercent(percent)
	p.progress.SetValue(percent)
	p.percentLabel.SetText(fmt.Sprintf(ProgressLabelFormat, int(percent)))
}

func (p *JobPanel) setFileActions(enabled bool) {
	for _, btn := range []*widget.Button{p.revealBtn, p.openBtn, p.copyBtn} {
		if enabled {
			btn.Enable()
		} else {
			btn.Disable()
		}
	}
}

func (p *JobPanel) onReveal() {
	if p.outputPath == "" {
		return
	}
	if err := platform.OpenFileInManager(p.outputPath); err != nil {
		p.log.Warn("Reveal failed", logger.String("path", p.outputPath), logger.Error(err))
		p.Append(IconError + " " + p.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}

func (p *JobPanel) onOpen() {
	if p.outputPath == "" {
		return
	}
	if err := platform.OpenFileWithDefaultApp(p.outputPath); err != nil {
		p.log.Warn("Open failed", logger.String("path", p.outputPath), logger.Error(err))
		p.Append(IconError + " " + p.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}

func (p *JobPanel) onCopyPath() {
	if p.outputPath == "" {
		return
	}
	fyne.CurrentApp().Clipboard().SetContent(p.outputPath)
	p.Append(p.localization.GetText(KeyPathCopied))
}

func statusKey(status model.JobStatus) string {
	switch status {
	case model.JobStatusPending:
		return KeyStatusPending
	case model.JobStatusRunning:
		return KeyStatusRunning
	case model.JobStatusSucceeded:
		return KeyStatusSucceeded
	case model.JobStatusFailed:
		return KeyStatusFailed
	default:
		return KeyStatusIdle
	}
}

// panelObserver hops events from the job's delivery goroutine onto the UI
// goroutine.
type panelObserver struct {
	panel *JobPanel
	jobID string
}

func (o *panelObserver) OnEvent(ev model.Event) {
	fyne.Do(func() { o.panel.applyEvent(o.jobID, ev) })
}

func (o *panelObserver) OnResult(res model.Result) {
	fyne.Do(func() { o.panel.applyResult(o.jobID, res) })
}
