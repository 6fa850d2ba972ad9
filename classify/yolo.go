//go:build withcv
// +build withcv

/*
DESCRIPTION
  yolo.go provides YOLO, an animal Classifier running a YOLOv4-tiny darknet
  model through the OpenCV DNN module.

AUTHORS
  Scott Barnard <scott@ausocean.org>
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package classify

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/utils/logging"
)

// Network input sizes.
var (
	YOLOv4TinySize = image.Pt(416, 416)
	SSDLiteSize    = image.Pt(300, 300)
)

// Index of the first class confidence in a YOLO detection row.
const yoloClassCol = 5

// YOLO is an animal-only Classifier backed by a darknet YOLO network. Its
// human confidence is always zero.
type YOLO struct {
	mu      sync.Mutex
	net     gocv.Net
	outputs []string
	size    image.Point
	log     logging.Logger
}

// NewYOLO loads the darknet network described by the given weights and
// config files.
func NewYOLO(weights, config string, l logging.Logger) (*YOLO, error) {
	net := gocv.ReadNet(weights, config)
	if net.Empty() {
		return nil, fmt.Errorf("could not load network from %s and %s", weights, config)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	names := net.GetLayerNames()
	var outputs []string
	for _, i := range net.GetUnconnectedOutLayers() {
		outputs = append(outputs, names[i-1])
	}
	l.Info("loaded animal detector", "weights", weights, "outputs", len(outputs))
	return &YOLO{net: net, outputs: outputs, size: YOLOv4TinySize, log: l}, nil
}

// RunRaw implements Classifier. Raw images are expected to be square.
func (y *YOLO) RunRaw(img []byte, f Format) (animal, human float64, err error) {
	mat, err := decode(img, f)
	if err != nil {
		return 0, 0, err
	}
	defer mat.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, y.size, 0, 0, gocv.InterpolationLinear)

	blob := gocv.BlobFromImage(resized, 1.0/255.0, y.size, gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	y.mu.Lock()
	y.net.SetInput(blob, "")
	out := y.net.ForwardLayers(y.outputs)
	y.mu.Unlock()

	for i := range out {
		for r := 0; r < out[i].Rows(); r++ {
			for c := yoloClassCol; c < out[i].Cols(); c++ {
				animal = math.Max(animal, float64(out[i].GetFloatAt(r, c)))
			}
		}
		out[i].Close()
	}
	return animal, 0, nil
}

// Close releases the network.
func (y *YOLO) Close() error {
	return y.net.Close()
}

// decode returns img as a BGR matrix.
func decode(img []byte, f Format) (gocv.Mat, error) {
	if f == JPEG {
		mat, err := gocv.IMDecode(img, gocv.IMReadColor)
		if err != nil {
			return mat, fmt.Errorf("%w: %v", ErrBadImage, err)
		}
		if mat.Empty() {
			return mat, ErrBadImage
		}
		return mat, nil
	}

	bpp := f.BytesPerPixel()
	if bpp == 0 {
		return gocv.NewMat(), fmt.Errorf("unsupported format: %v", f)
	}
	side := int(math.Sqrt(float64(len(img) / bpp)))
	if side == 0 || side*side*bpp != len(img) {
		return gocv.NewMat(), errors.New("raw image is not square")
	}

	typ, code := gocv.MatTypeCV8UC3, gocv.ColorRGBToBGR
	if f == RGBA {
		typ, code = gocv.MatTypeCV8UC4, gocv.ColorRGBAToBGR
	}
	raw, err := gocv.NewMatFromBytes(side, side, typ, img)
	if err != nil {
		return raw, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	defer raw.Close()
	bgr := gocv.NewMat()
	gocv.CvtColor(raw, &bgr, code)
	return bgr, nil
}
