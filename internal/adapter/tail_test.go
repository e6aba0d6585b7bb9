package adapter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTail_KeepsLastLines(t *testing.T) {
	tail := NewTail(3)
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(tail, "line %d\n", i)
	}
	assert.Equal(t, "line 3\nline 4\nline 5", tail.String())
}

func TestTail_SplitWritesAndCarriageReturns(t *testing.T) {
	tail := NewTail(0)
	_, _ = tail.Write([]byte("frame=1\rfra"))
	_, _ = tail.Write([]byte("me=2\r\n\nError opening input"))

	assert.Equal(t, "frame=1\nframe=2\nError opening input", tail.String())
}

func TestDiscardSink(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Log("x")
		Discard.Progress(50)
	})
}
