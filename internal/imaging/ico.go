package imaging

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// IconSizes are the square resolutions written into every .ico file.
var IconSizes = []int{16, 32, 48, 64, 128, 256}

const (
	icoHeaderSize = 6
	icoEntrySize  = 16
	icoTypeIcon   = 1
	icoMaxSize    = 256
)

type icoHeader struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

type icoEntry struct {
	Width       uint8 // 0 means 256
	Height      uint8
	ColorCount  uint8
	Reserved    uint8
	Planes      uint16
	BitCount    uint16
	BytesInRes  uint32
	ImageOffset uint32
}

// EncodeICO writes an ICO container holding one PNG-compressed frame per
// size. Each frame is src scaled to fit the square with its aspect ratio
// kept, centered on a transparent background.
func EncodeICO(w io.Writer, src image.Image, sizes []int) error {
	if len(sizes) == 0 {
		return fmt.Errorf("ico: no sizes")
	}
	if src.Bounds().Empty() {
		return fmt.Errorf("ico: empty source image")
	}

	frames := make([][]byte, len(sizes))
	for i, size := range sizes {
		if size < 1 || size > icoMaxSize {
			return fmt.Errorf("ico: size %d out of range", size)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, FitSquare(src, size)); err != nil {
			return fmt.Errorf("ico: encode %dpx frame: %w", size, err)
		}
		frames[i] = buf.Bytes()
	}

	header := icoHeader{Type: icoTypeIcon, Count: uint16(len(frames))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}

	offset := icoHeaderSize + icoEntrySize*len(frames)
	for i, size := range sizes {
		dim := uint8(size % icoMaxSize)
		entry := icoEntry{
			Width:       dim,
			Height:      dim,
			Planes:      1,
			BitCount:    32,
			BytesInRes:  uint32(len(frames[i])),
			ImageOffset: uint32(offset),
		}
		if err := binary.Write(w, binary.LittleEndian, entry); err != nil {
			return err
		}
		offset += len(frames[i])
	}

	for _, frame := range frames {
		if _, err := w.Write(frame); err != nil {
			return err
		}
	}
	return nil
}

// FitSquare scales src into a size x size transparent canvas.
func FitSquare(src image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	nw, nh := size, size
	if w > h {
		nh = max(1, (h*size+w/2)/w)
	} else if h > w {
		nw = max(1, (w*size+h/2)/h)
	}
	x0, y0 := (size-nw)/2, (size-nh)/2

	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+nw, y0+nh), src, b, draw.Over, nil)
	return dst
}
