/*
DESCRIPTION
  raspivid.go provides an implementation of the Camera interface for raspivid.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package raspivid provides an implementation of Camera for the raspberry
// pi camera.
package raspivid

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ausocean/camtrap/codec/h264"
	"github.com/ausocean/camtrap/codec/mvec"
	"github.com/ausocean/camtrap/device"
	"github.com/ausocean/camtrap/trap/config"
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/sliceutils"
)

// To indicate package when logging.
const pkg = "raspivid: "

// Names of the fifos raspivid writes its side streams to.
const (
	vectorsFifo = "vectors"
	rawFifo     = "raw"
)

// Number of synchronised frames held for Get.
const frameBacklog = 4

// Raspivid configuration defaults.
const (
	defaultRaspividRotation         = 0
	defaultRaspividWidth            = 640
	defaultRaspividHeight           = 480
	defaultRaspividBrightness       = 50
	defaultRaspividSaturation       = 0
	defaultRaspividExposure         = "auto"
	defaultRaspividAutoWhiteBalance = "auto"
	defaultRaspividBitrate          = 2000
	defaultRaspividFramerate        = 20
	defaultRaspividSharpness        = 0
	defaultRaspividContrast         = 0
	defaultRaspividISO              = 100
	defaultRaspividEV               = 0
	defaultRaspividAWBGains         = "1.0,1.0"
)

// Configuration errors.
var (
	errBadRotation         = errors.New("rotation bad or unset, defaulting")
	errBadWidth            = errors.New("width bad or unset, defaulting")
	errBadHeight           = errors.New("height bad or unset, defaulting")
	errBadFrameRate        = errors.New("framerate bad or unset, defaulting")
	errBadBitrate          = errors.New("bitrate bad or unset, defaulting")
	errBadSaturation       = errors.New("saturation bad or unset, defaulting")
	errBadBrightness       = errors.New("brightness bad or unset, defaulting")
	errBadExposure         = errors.New("exposure bad or unset, defaulting")
	errBadAutoWhiteBalance = errors.New("auto white balance bad or unset, defaulting")
	errBadAWBGains         = errors.New("auto white balance gains bad or unset, defaulting")
	errBadEV               = errors.New("exposure value bad or unset, defaulting")
	errBadContrast         = errors.New("contrast bad or unset, defaulting")
	errBadSharpness        = errors.New("sharpness bad or unset, defaulting")
	errBadISO              = errors.New("iso bad or unset, defaulting")
	errBadRawSize          = errors.New("raw frame size bad or unset, defaulting")
)

// Possible modes for raspivid --exposure parameter.
var ExposureModes = [...]string{
	"off",
	"auto",
	"night",
	"nightpreview",
	"backlight",
	"spotlight",
	"sports",
	"snow",
	"beach",
	"verylong",
	"fixedfps",
	"antishake",
	"fireworks",
}

// Possible modes for raspivid --awb parameter.
var AutoWhiteBalanceModes = [...]string{
	"off",
	"auto",
	"sun",
	"cloud",
	"shade",
	"tungsten",
	"fluorescent",
	"incandescent",
	"flash",
	"horizon",
}

// Raspivid is an implementation of Camera that provides control over the
// raspivid command to allow capture from a Raspberry Pi camera. H.264 is read
// from the command's stdout and lexed into access units; motion vectors and
// RGB frames are read from fifos. Every stream is written to its sink, and
// frames paired with their motion vectors are available from Get.
type Raspivid struct {
	cfg       config.Config
	sinks     device.Sinks
	sync      *device.Synchroniser
	cmd       *exec.Cmd
	out       io.ReadCloser
	fifoDir   string
	fifos     []*os.File
	log       logging.Logger
	done      chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New returns a new Raspivid writing its streams to s.
func New(l logging.Logger, s device.Sinks) *Raspivid {
	return &Raspivid{
		log:   l,
		sinks: s,
	}
}

// Name returns the name of the device.
func (r *Raspivid) Name() string {
	return "Raspivid"
}

// Set will take a Config struct, check the validity of the relevant fields
// and then performs any configuration necessary. If fields are not valid,
// an error is added to the multiError and a default value is used.
func (r *Raspivid) Set(c config.Config) error {
	var errs device.MultiError
	if c.Rotation > 359 {
		c.Rotation = defaultRaspividRotation
		errs = append(errs, errBadRotation)
	}

	if c.Width == 0 {
		c.Width = defaultRaspividWidth
		errs = append(errs, errBadWidth)
	}

	if c.Height == 0 {
		c.Height = defaultRaspividHeight
		errs = append(errs, errBadHeight)
	}

	if c.FrameRate == 0 {
		c.FrameRate = defaultRaspividFramerate
		errs = append(errs, errBadFrameRate)
	}

	if c.Bitrate <= 0 {
		errs = append(errs, errBadBitrate)
		c.Bitrate = defaultRaspividBitrate
	}

	if c.Brightness <= 0 || c.Brightness > 100 {
		errs = append(errs, errBadBrightness)
		c.Brightness = defaultRaspividBrightness
	}

	if c.Saturation < -100 || c.Saturation > 100 {
		errs = append(errs, errBadSaturation)
		c.Saturation = defaultRaspividSaturation
	}

	if c.Exposure == "" || !sliceutils.ContainsString(ExposureModes[:], c.Exposure) {
		errs = append(errs, errBadExposure)
		c.Exposure = defaultRaspividExposure
	}

	if c.EV < -10 || c.EV > 10 {
		errs = append(errs, errBadEV)
		c.EV = defaultRaspividEV
	}

	if c.Contrast < -100 || c.Contrast > 100 {
		errs = append(errs, errBadContrast)
		c.Contrast = defaultRaspividContrast
	}

	if c.Sharpness < -100 || c.Sharpness > 100 {
		errs = append(errs, errBadSharpness)
		c.Sharpness = defaultRaspividSharpness
	}

	if c.AutoWhiteBalance == "" || !sliceutils.ContainsString(AutoWhiteBalanceModes[:], c.AutoWhiteBalance) {
		errs = append(errs, errBadAutoWhiteBalance)
		c.AutoWhiteBalance = defaultRaspividAutoWhiteBalance
	}

	if !goodAWBGains(c.AWBGains) {
		errs = append(errs, errBadAWBGains)
		c.AWBGains = defaultRaspividAWBGains
	}

	if c.ISO == 0 || c.ISO < 100 || c.ISO > 800 {
		errs = append(errs, errBadISO)
		c.ISO = defaultRaspividISO
	}

	if c.RawFrameSize() == 0 {
		errs = append(errs, errBadRawSize)
		c.RawWidth, c.RawHeight = c.Width, c.Height
		if c.RawFormat.BytesPerPixel() == 0 {
			c.RawFormat = rgbFormat
		}
	}

	r.cfg = c
	if len(errs) != 0 {
		return errs
	}
	return nil
}

func goodAWBGains(g string) bool {
	parts := strings.Split(g, ",")
	if len(parts) != 2 {
		return false
	}

	bg, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return false
	}

	rg, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return false
	}

	if bg < 0 || rg < 0 {
		return false
	}

	return true
}

// Start will create the fifos for the side streams, prepare the arguments
// for the raspivid command using the configuration set using the Set method,
// then call the raspivid command and start the stream readers.
func (r *Raspivid) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isRunning {
		return nil
	}

	dir, err := os.MkdirTemp("", "raspivid")
	if err != nil {
		return fmt.Errorf("could not create fifo directory: %w", err)
	}
	r.fifoDir = dir

	vectors, err := openFifo(filepath.Join(dir, vectorsFifo))
	if err != nil {
		r.cleanup()
		return fmt.Errorf("could not create vectors fifo: %w", err)
	}
	raw, err := openFifo(filepath.Join(dir, rawFifo))
	if err != nil {
		vectors.Close()
		r.cleanup()
		return fmt.Errorf("could not create raw fifo: %w", err)
	}
	r.fifos = []*os.File{vectors, raw}

	args := r.createArgs(vectors.Name(), raw.Name())
	r.log.Info(pkg+"raspivid args", "raspividArgs", strings.Join(args, " "))
	r.cmd = exec.Command("raspivid", args...)

	r.out, err = r.cmd.StdoutPipe()
	if err != nil {
		r.cleanup()
		return fmt.Errorf("could not pipe command output: %w", err)
	}

	stderr, err := r.cmd.StderrPipe()
	if err != nil {
		r.cleanup()
		return fmt.Errorf("could not pipe command error: %w", err)
	}

	err = r.cmd.Start()
	if err != nil {
		r.cleanup()
		return fmt.Errorf("could not start raspivid command: %w", err)
	}

	r.done = make(chan struct{})
	r.sync = device.NewSynchroniser(r.cfg.RawFormat, frameBacklog, r.log)
	s := newScaler(int(r.cfg.Width), int(r.cfg.Height), int(r.cfg.RawWidth), int(r.cfg.RawHeight), r.cfg.RawFormat)

	images := []io.Writer{r.sync.Images()}
	if r.sinks.Raw != nil {
		images = append(images, r.sinks.Raw)
	}
	motion := []io.Writer{r.sync.Motion()}
	if r.sinks.Motion != nil {
		motion = append(motion, r.sinks.Motion)
	}
	dims := mvec.DimsFor(int(r.cfg.Width), int(r.cfg.Height))

	r.wg.Add(4)
	go r.readStderr(stderr)
	go r.readVideo()
	go r.readChunks(vectorsFifo, vectors, dims.GridSize(), nil, io.MultiWriter(motion...))
	go r.readChunks(rawFifo, raw, s.srcSize(), s.scale, io.MultiWriter(images...))
	r.isRunning = true

	return nil
}

// openFifo creates a fifo at path and opens it. The fifo is opened for
// reading and writing so that the open does not wait for raspivid, and so
// that closing it unblocks a pending read.
func openFifo(path string) (*os.File, error) {
	err := unix.Mkfifo(path, 0600)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_RDWR, 0)
}

func (r *Raspivid) readStderr(stderr io.Reader) {
	defer r.wg.Done()
	buf, err := io.ReadAll(stderr)
	if err != nil {
		r.log.Error(pkg+"could not read stderr", "error", err)
		return
	}
	if len(buf) != 0 {
		r.log.Error(pkg+"error from raspivid stderr", "error", string(buf))
	}
}

// readVideo lexes the H.264 stream into access units for the video sink.
func (r *Raspivid) readVideo() {
	defer r.wg.Done()
	dst := r.sinks.Video
	if dst == nil {
		dst = io.Discard
	}
	err := h264.Lex(dst, r.out, 0)
	select {
	case <-r.done:
		return
	default:
	}
	if err != nil && !errors.Is(err, io.EOF) {
		r.log.Error(pkg+"video lexer stopped", "error", err)
	}
}

// readChunks reads fixed size chunks from src, optionally transforms them
// and writes each to dst in a single write.
func (r *Raspivid) readChunks(name string, src io.Reader, size int, transform func([]byte) []byte, dst io.Writer) {
	defer r.wg.Done()
	buf := make([]byte, size)
	for {
		_, err := io.ReadFull(src, buf)
		if err != nil {
			select {
			case <-r.done:
			default:
				r.log.Error(pkg+"stream reader stopped", "stream", name, "error", err)
			}
			return
		}
		b := buf
		if transform != nil {
			b = transform(buf)
		}
		_, err = dst.Write(b)
		if err != nil {
			r.log.Warning(pkg+"could not write chunk", "stream", name, "error", err)
		}
	}
}

// Get returns the next frame paired with its motion vectors.
func (r *Raspivid) Get(timeout time.Duration) (*device.Frame, error) {
	r.mu.Lock()
	s := r.sync
	r.mu.Unlock()
	if s == nil {
		return nil, device.ErrStopped
	}
	return s.Get(timeout)
}

// Resolution returns the capture resolution.
func (r *Raspivid) Resolution() (int, int) {
	return int(r.cfg.Width), int(r.cfg.Height)
}

// FrameRate returns the capture frame rate.
func (r *Raspivid) FrameRate() int {
	return int(r.cfg.FrameRate)
}

// Stop will terminate the raspivid process, close the fifos and wait for the
// stream readers to return. The device is stopped even if the process could
// not be killed, so Stop may be called again safely.
func (r *Raspivid) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isRunning {
		return nil
	}
	r.isRunning = false
	close(r.done)

	var err error
	started := r.cmd != nil && r.cmd.Process != nil
	if !started {
		err = errors.New("raspivid process was never started")
	} else if kerr := r.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
		err = fmt.Errorf("could not kill raspivid process: %w", kerr)
	}
	if r.out != nil {
		r.out.Close()
	}
	r.cleanup()
	r.wg.Wait()
	if started {
		r.cmd.Wait()
	}
	r.sync.Close()
	return err
}

// cleanup closes the fifos and removes their directory.
func (r *Raspivid) cleanup() {
	for _, f := range r.fifos {
		f.Close()
	}
	r.fifos = nil
	if r.fifoDir != "" {
		err := os.RemoveAll(r.fifoDir)
		if err != nil {
			r.log.Warning(pkg+"could not remove fifo directory", "error", err)
		}
		r.fifoDir = ""
	}
}

// IsRunning is used to determine if the pi's camera is running.
func (r *Raspivid) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

// intraPeriod returns the number of frames between key frames. Key frames
// are placed every half context length so that a seek for context lands
// close to the wanted position.
func (r *Raspivid) intraPeriod() int {
	return max(1, int(r.cfg.ContextLength/2*float64(r.cfg.FrameRate)))
}

func (r *Raspivid) createArgs(vectors, raw string) []string {
	const disabled = "0"
	args := []string{
		"--output", "-",
		"--nopreview",
		"--timeout", disabled,
		"--width", fmt.Sprint(r.cfg.Width),
		"--height", fmt.Sprint(r.cfg.Height),
		"--bitrate", fmt.Sprint(r.cfg.Bitrate * 1000), // Convert from kbps to bps.
		"--framerate", fmt.Sprint(r.cfg.FrameRate),
		"--rotation", fmt.Sprint(r.cfg.Rotation),
		"--brightness", fmt.Sprint(r.cfg.Brightness),
		"--saturation", fmt.Sprint(r.cfg.Saturation),
		"--sharpness", fmt.Sprint(r.cfg.Sharpness),
		"--contrast", fmt.Sprint(r.cfg.Contrast),
		"--awb", fmt.Sprint(r.cfg.AutoWhiteBalance),
		"--exposure", fmt.Sprint(r.cfg.Exposure),
	}

	if r.cfg.ISO != defaultRaspividISO {
		args = append(args, []string{"--ISO", fmt.Sprint(r.cfg.ISO)}...)
	}

	if r.cfg.Exposure == "off" {
		args = append(args, []string{"--ev", fmt.Sprint(r.cfg.EV)}...)
	}

	if r.cfg.AutoWhiteBalance == "off" {
		args = append(args, []string{"--awbgains", fmt.Sprint(r.cfg.AWBGains)}...)
	}

	if r.cfg.HorizontalFlip {
		args = append(args, "--hflip")
	}

	if r.cfg.VerticalFlip {
		args = append(args, "--vflip")
	}

	return append(args,
		"--codec", "H264",
		"--inline",
		"--intra", fmt.Sprint(r.intraPeriod()),
		"--vectors", vectors,
		"--raw", raw,
		"--raw-format", "rgb",
	)
}
