package runner_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/media-toolkit/internal/config"
	"github.com/ytget/media-toolkit/internal/dispatch"
	"github.com/ytget/media-toolkit/internal/document"
	"github.com/ytget/media-toolkit/internal/download"
	"github.com/ytget/media-toolkit/internal/imaging"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
	"github.com/ytget/media-toolkit/internal/runner"
	"github.com/ytget/media-toolkit/internal/transcode"
)

const fakeFFmpeg = `#!/bin/sh
for last; do :; done
echo "out_time_us=5000000"
echo "progress=end"
printf 'converted' > "$last"
`

const fakeFFprobe = `#!/bin/sh
echo "10.000000"
`

// emptyPath resolves nothing, as on a machine without the external tools.
var emptyPath = &platform.Resolver{
	LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
	GOOS:     runtime.GOOS,
}

type observed struct {
	mu     sync.Mutex
	logs   []string
	result *model.Result
}

func (o *observed) OnEvent(ev model.Event) {
	if ev.Type != model.EventLog {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logs = append(o.logs, ev.Text)
}

func (o *observed) OnResult(res model.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.result = &res
}

func newScenarioRunner(t *testing.T, settings config.Settings) *runner.Runner {
	t.Helper()
	policy, err := dispatch.New(
		download.New(nil, emptyPath, nil),
		imaging.New(nil),
		document.New(nil, emptyPath),
		transcode.New(nil, emptyPath),
		document.IsAllowedTarget,
	)
	require.NoError(t, err)
	return runner.New(policy, config.Static(settings))
}

func await(t *testing.T, h *runner.Handle, obs *observed) model.Result {
	t.Helper()
	select {
	case <-h.Delivered():
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.NotNil(t, obs.result)
	return *obs.result
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestScenario_TransparentPNGToJPG(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 16; x++ {
			src.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	input := filepath.Join(dir, "photo.png")
	writePNG(t, input, src)

	r := newScenarioRunner(t, config.Settings{})
	obs := &observed{}
	h, err := r.SubmitConvert(runner.ConvertRequest{Input: input, OutputDir: dir, Target: "jpg"}, runner.WithObserver(obs))
	require.NoError(t, err)
	res := await(t, h, obs)

	require.True(t, res.Success, res.Message)
	assert.Equal(t, filepath.Join(dir, "photo.jpg"), res.OutputPath)
	assert.Equal(t, "raster-image", res.Adapter)

	f, err := os.Open(res.OutputPath)
	require.NoError(t, err)
	defer f.Close()
	out, err := jpeg.Decode(f)
	require.NoError(t, err)

	r8, g8, b8, a8 := out.At(28, 16).RGBA()
	assert.Equal(t, uint32(0xffff), a8)
	assert.Greater(t, r8>>8, uint32(240))
	assert.Greater(t, g8>>8, uint32(240))
	assert.Greater(t, b8>>8, uint32(240))
}

func TestScenario_VideoToAudio(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	tools := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tools, "ffmpeg"), []byte(fakeFFmpeg), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tools, "ffprobe"), []byte(fakeFFprobe), 0o755))

	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(input, []byte("not really a video"), 0o644))

	r := newScenarioRunner(t, config.Settings{FFmpegDir: tools})
	obs := &observed{}
	h, err := r.SubmitConvert(runner.ConvertRequest{Input: input, OutputDir: dir, Target: "mp3"}, runner.WithObserver(obs))
	require.NoError(t, err)
	res := await(t, h, obs)

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "audio-video", res.Adapter)
	assert.Equal(t, filepath.Join(dir, "clip.mp3"), res.OutputPath)
	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "converted", string(data))
	assert.Equal(t, model.CategoryVideo, h.Job().Category)
}

func TestScenario_FetchWithoutFetcher(t *testing.T) {
	r := newScenarioRunner(t, config.Settings{})
	obs := &observed{}
	h, err := r.SubmitFetch(runner.FetchRequest{
		URL:       "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		OutputDir: t.TempDir(),
		Target:    "mp4",
	}, runner.WithObserver(obs))
	require.NoError(t, err)
	res := await(t, h, obs)

	assert.False(t, res.Success)
	assert.True(t, errors.Is(res.Err, model.ErrCapabilityUnavailable))
	assert.Equal(t, model.JobStatusFailed, h.Status())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	last := obs.logs[len(obs.logs)-1]
	assert.True(t, strings.HasPrefix(last, "❌"))
	assert.Contains(t, last, "yt-dlp")
}

func TestScenario_IconContainer(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	input := filepath.Join(dir, "icon.png")
	writePNG(t, input, src)

	r := newScenarioRunner(t, config.Settings{})
	obs := &observed{}
	h, err := r.SubmitConvert(runner.ConvertRequest{Input: input, OutputDir: dir, Target: "ico"}, runner.WithObserver(obs))
	require.NoError(t, err)
	res := await(t, h, obs)

	require.True(t, res.Success, res.Message)
	data, err := os.ReadFile(filepath.Join(dir, "icon.ico"))
	require.NoError(t, err)
	assert.Equal(t, []int{16, 32, 48, 64, 128, 256}, iconSizes(t, data))

	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Len(t, matches, 2, "only the source and one icon file are expected")
}

// iconSizes reads the ICONDIR entries and decodes each embedded PNG.
func iconSizes(t *testing.T, data []byte) []int {
	t.Helper()
	require.GreaterOrEqual(t, len(data), 6)
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	sizes := make([]int, 0, count)
	for i := 0; i < count; i++ {
		entry := data[6+16*i : 6+16*(i+1)]
		length := binary.LittleEndian.Uint32(entry[8:12])
		offset := binary.LittleEndian.Uint32(entry[12:16])
		cfg, err := png.DecodeConfig(bytes.NewReader(data[offset : offset+length]))
		require.NoError(t, err)
		assert.Equal(t, cfg.Width, cfg.Height)
		sizes = append(sizes, cfg.Width)
	}
	return sizes
}

func TestScenario_IdenticalRequestsReproduceOutput(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 7)
	}
	input := filepath.Join(dir, "tile.png")
	writePNG(t, input, src)

	r := newScenarioRunner(t, config.Settings{})
	var outputs [][]byte
	for i := 0; i < 2; i++ {
		h, err := r.SubmitConvert(runner.ConvertRequest{Input: input, OutputDir: t.TempDir(), Target: "bmp"})
		require.NoError(t, err)
		res, err := h.Wait(context.Background())
		require.NoError(t, err)
		require.True(t, res.Success, res.Message)
		data, err := os.ReadFile(res.OutputPath)
		require.NoError(t, err)
		outputs = append(outputs, data)
	}
	assert.Equal(t, outputs[0], outputs[1])
}
