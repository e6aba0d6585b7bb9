package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/media-toolkit/internal/adapter"
	"github.com/ytget/media-toolkit/internal/model"
	"github.com/ytget/media-toolkit/internal/platform"
)

const fakePandoc = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
printf 'document' > "$out"
`

const failingPandoc = `#!/bin/sh
echo "pandoc: Unknown input format" >&2
exit 21
`

func fakeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script tool fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "pandoc")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func noPath() *platform.Resolver {
	return &platform.Resolver{LookPath: func(string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	}}
}

func TestBuildPandocArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"notes.docx", "-t", "plain", "-s", "-o", "notes.txt"},
		BuildPandocArgs("notes.docx", "notes.txt", "txt"))
	assert.Equal(t,
		[]string{"notes.md", "-s", "-o", "notes.pdf"},
		BuildPandocArgs("notes.md", "notes.pdf", "pdf"))
}

func TestConverter_Capable(t *testing.T) {
	c := New(nil, noPath())
	assert.Equal(t, adapter.Document, c.ID())
	for _, target := range []string{"pdf", "docx", "txt", "md", "rtf"} {
		assert.True(t, c.Capable(model.CategoryDocument, target), target)
	}
	assert.False(t, c.Capable(model.CategoryDocument, "mp3"))
	assert.False(t, c.Capable(model.CategoryDocument, "odt"))
}

func TestConverter_UnavailableWithoutPandoc(t *testing.T) {
	c := New(nil, noPath())
	err := c.Available(model.Tools{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrCapabilityUnavailable))

	res := c.Run(context.Background(), adapter.Request{
		Input: "notes.md", Output: filepath.Join(t.TempDir(), "notes.pdf"), Target: "pdf",
	}, adapter.Discard)
	assert.False(t, res.Success)
	assert.True(t, errors.Is(res.Err, model.ErrCapabilityUnavailable))
	assert.Contains(t, res.Message, "pandoc not found")
}

func TestConverter_RunWithOverride(t *testing.T) {
	pandoc := fakeTool(t, fakePandoc)
	out := filepath.Join(t.TempDir(), "notes.docx")

	res := New(nil, noPath()).Run(context.Background(), adapter.Request{
		Input:   "notes.md",
		Output:  out,
		Target:  "docx",
		Options: model.Options{Tools: model.Tools{PandocPath: pandoc}},
	}, adapter.Discard)

	require.True(t, res.Success, res.Message)
	assert.Equal(t, out, res.OutputPath)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "document", string(data))
}

func TestConverter_RunFailure(t *testing.T) {
	pandoc := fakeTool(t, failingPandoc)

	res := New(nil, noPath()).Run(context.Background(), adapter.Request{
		Input:   "notes.xyz",
		Output:  filepath.Join(t.TempDir(), "notes.txt"),
		Target:  "txt",
		Options: model.Options{Tools: model.Tools{PandocPath: pandoc}},
	}, adapter.Discard)

	require.False(t, res.Success)
	assert.True(t, errors.Is(res.Err, model.ErrAdapterExecutionFailed))
	assert.Contains(t, res.Message, "exited with code 21")
	assert.Contains(t, res.Message, "Unknown input format")
}
