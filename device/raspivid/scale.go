/*
DESCRIPTION
  scale.go provides scaling of raspivid's full resolution RGB frames to the
  raw frame size and format given to the animal detector.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package raspivid

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/ausocean/camtrap/classify"
)

// Format of raspivid raw output, given --raw-format rgb.
const rgbFormat = classify.RGB

// scaler converts packed RGB frames of one size into frames of another size
// and format. A scaler reuses its buffers and is not safe for concurrent use.
type scaler struct {
	src, dst *image.RGBA
	format   classify.Format
	out      []byte
	same     bool
}

func newScaler(srcW, srcH, dstW, dstH int, f classify.Format) *scaler {
	s := &scaler{
		src:    image.NewRGBA(image.Rect(0, 0, srcW, srcH)),
		dst:    image.NewRGBA(image.Rect(0, 0, dstW, dstH)),
		format: f,
		same:   srcW == dstW && srcH == dstH,
	}
	s.out = make([]byte, dstW*dstH*f.BytesPerPixel())
	return s
}

// srcSize returns the size in bytes of an input frame.
func (s *scaler) srcSize() int {
	return s.src.Rect.Dx() * s.src.Rect.Dy() * rgbFormat.BytesPerPixel()
}

// scale returns rgb scaled to the output size and format. The returned slice
// is valid until the next call.
func (s *scaler) scale(rgb []byte) []byte {
	if s.same && s.format == rgbFormat {
		return rgb
	}
	expand(s.src.Pix, rgb)
	img := s.src
	if !s.same {
		draw.ApproxBiLinear.Scale(s.dst, s.dst.Rect, s.src, s.src.Rect, draw.Src, nil)
		img = s.dst
	}
	if s.format == classify.RGBA {
		copy(s.out, img.Pix)
		return s.out
	}
	pack(s.out, img.Pix)
	return s.out
}

// expand writes packed RGB pixels as opaque RGBA pixels.
func expand(rgba, rgb []byte) {
	for i, j := 0, 0; i+2 < len(rgb) && j+3 < len(rgba); i, j = i+3, j+4 {
		rgba[j] = rgb[i]
		rgba[j+1] = rgb[i+1]
		rgba[j+2] = rgb[i+2]
		rgba[j+3] = 0xff
	}
}

// pack writes RGBA pixels as packed RGB pixels.
func pack(rgb, rgba []byte) {
	for i, j := 0, 0; i+2 < len(rgb) && j+3 < len(rgba); i, j = i+3, j+4 {
		rgb[i] = rgba[j]
		rgb[i+1] = rgba[j+1]
		rgb[i+2] = rgba[j+2]
	}
}
