/*
NAME
  config.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for a camera trap.
package config

import (
	"time"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/utils/logging"
)

// Enums to define pipeline modes and inputs.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	// Pipeline modes.
	ModeByFrame // Live motion-labelled queue.
	ModeByEvent // Disk-buffered events with spiral-out classification.

	// Inputs.
	InputRaspivid
	InputFile

	// Detectors.
	DetectorYOLO     // Animal-only YOLOv4-tiny darknet network.
	DetectorSSD      // Animal-only SSDLite MobileNet v2 network.
	DetectorSSDHuman // SSDLite MobileNet v2 network detecting humans and animals.
)

// Config provides parameters relevant to a camera trap. A new config must be
// passed to the constructor. Default values for these fields are defined as
// consts in variables.go.
type Config struct {
	// AutoWhiteBalance defines the auto white balance mode used by Raspivid input.
	// Valid modes are defined in the exported []string AutoWhiteBalanceModes
	// of the raspivid package.
	AutoWhiteBalance string

	// AWBGains sets the blue and red channel gains of the camera.
	AWBGains string

	AnimalThreshold float64 // Minimum classifier confidence for an animal.
	Bitrate         uint    // Bitrate of the H.264 stream in kbps.
	Brightness      uint

	// BufferLength is the number of seconds of each stream held in RAM. While
	// in an event the buffers are flushed every 0.75 of this length.
	BufferLength float64

	// ContextLength is the number of seconds of context kept before and after
	// an event or a run of animal frames.
	ContextLength float64

	Contrast int

	// DetectorFraction is the fraction of an event's frames that may be
	// classified, in [0, 1]. Zero means only the middle frame is classified.
	DetectorFraction float64

	// EventDir is the directory in which event directories are created.
	EventDir string

	// Exposure defines the exposure mode used by the Raspivid input.
	Exposure string

	// EV is the exposure value for the camera.
	EV int

	// FrameRate defines the capture frame rate.
	FrameRate uint

	Height         uint // Height defines the capture height.
	HorizontalFlip bool // HorizontalFlip flips video horizontally.
	HumanThreshold float64

	// IIRAttenuation, IIRCutoff and IIROrder describe the Chebyshev low pass
	// filter smoothing the motion score. The cutoff is in Hz.
	IIRAttenuation float64
	IIRCutoff      float64
	IIROrder       uint

	// Input defines the camera source.
	//
	// Valid values are defined by enums:
	// InputRaspivid:
	//		Use raspivid utility to capture from the Raspberry Pi Camera.
	// InputFile:
	//		Replay a recorded event directory given by InputPath.
	Input uint8

	// InputPath defines the event directory replayed by File input.
	InputPath string

	// ISO sets the camera's sensitivity to light.
	ISO uint

	// Logger holds an implementation of the Logger interface.
	// This must be set for the trap to work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	MaxEventLength    float64 // Seconds after which an event is ended.
	MaxSequencePeriod float64 // Seconds after which a sequence is ended.

	// Mode selects the pipeline variant: ModeByFrame or ModeByEvent.
	Mode uint8

	// Detector selects the detector network loaded from ModelWeights and
	// ModelConfig. Valid values are DetectorYOLO, DetectorSSD and
	// DetectorSSDHuman. Only DetectorSSDHuman reports humans.
	Detector uint8

	// ModelConfig and ModelWeights locate the animal detector network.
	ModelConfig  string
	ModelWeights string

	// OutputPath is the directory to which kept frames and event metadata
	// are written.
	OutputPath string

	// RawFormat is the pixel format of the raw stream, RGB or RGBA.
	RawFormat classify.Format

	// RawFrameRateDivisor keeps every nth raw frame in the raw buffer.
	RawFrameRateDivisor uint

	// RawHeight and RawWidth give the dimensions of the raw stream. The raw
	// stream is square as it feeds the animal detector.
	RawHeight uint
	RawWidth  uint

	Rotation   uint // Rotation defines the video rotation angle in degrees.
	Saturation int

	// SensorBaud, SensorInterval and SensorPort configure the environmental
	// sensor board. An empty port disables sensor logging.
	SensorBaud     uint
	SensorInterval time.Duration
	SensorPort     string

	// SensorObfuscation is the spacing in km of the grid GPS positions are
	// quantised to. Zero disables quantisation.
	SensorObfuscation float64

	// Sharpness is the sharpness of captured video.
	Sharpness int

	SmallThreshold float64 // Motion vectors of this magnitude or less are ignored.

	// SmoothingFactor is the number of seconds over which an animal
	// detection is spread.
	SmoothingFactor float64

	SoTVThreshold float64 // Motion score at which motion is detected.
	Suppress      bool    // Holds logger suppression state.

	VerticalFlip bool // VerticalFlip flips video vertically.
	Width        uint // Width defines the capture width.
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}

// RawFrameSize returns the size in bytes of one raw frame.
func (c *Config) RawFrameSize() int {
	return int(c.RawWidth * c.RawHeight * uint(c.RawFormat.BytesPerPixel()))
}
