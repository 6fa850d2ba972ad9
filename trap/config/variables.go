/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/camtrap/classify"
	"github.com/ausocean/camtrap/sensor"
	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyAnimalThreshold     = "AnimalThreshold"
	KeyAutoWhiteBalance    = "AutoWhiteBalance"
	KeyAWBGains            = "AWBGains"
	KeyBitrate             = "Bitrate"
	KeyBrightness          = "Brightness"
	KeyBufferLength        = "BufferLength"
	KeyContextLength       = "ContextLength"
	KeyContrast            = "Contrast"
	KeyDetector            = "Detector"
	KeyDetectorFraction    = "DetectorFraction"
	KeyEventDir            = "EventDir"
	KeyExposure            = "Exposure"
	KeyEV                  = "EV"
	KeyFrameRate           = "FrameRate"
	KeyHeight              = "Height"
	KeyHorizontalFlip      = "HorizontalFlip"
	KeyHumanThreshold      = "HumanThreshold"
	KeyIIRAttenuation      = "IIRAttenuation"
	KeyIIRCutoff           = "IIRCutoff"
	KeyIIROrder            = "IIROrder"
	KeyInput               = "Input"
	KeyInputPath           = "InputPath"
	KeyISO                 = "ISO"
	KeyLogging             = "logging"
	KeyMaxEventLength      = "MaxEventLength"
	KeyMaxSequencePeriod   = "MaxSequencePeriod"
	KeyModelConfig         = "ModelConfig"
	KeyModelWeights        = "ModelWeights"
	KeyOutputPath          = "OutputPath"
	KeyPipeline            = "Pipeline"
	KeyRawFormat           = "RawFormat"
	KeyRawFrameRateDivisor = "RawFrameRateDivisor"
	KeyRawHeight           = "RawHeight"
	KeyRawWidth            = "RawWidth"
	KeyRotation            = "Rotation"
	KeySaturation          = "Saturation"
	KeySensorBaud          = "SensorBaud"
	KeySensorInterval      = "SensorInterval"
	KeySensorObfuscation   = "SensorObfuscation"
	KeySensorPort          = "SensorPort"
	KeySharpness           = "Sharpness"
	KeySmallThreshold      = "SmallThreshold"
	KeySmoothingFactor     = "SmoothingFactor"
	KeySoTVThreshold       = "SoTVThreshold"
	KeySuppress            = "Suppress"
	KeyVerticalFlip        = "VerticalFlip"
	KeyWidth               = "Width"
)

// Config map parameter types.
const (
	typeString = "string"
	typeInt    = "int"
	typeUint   = "uint"
	typeBool   = "bool"
	typeFloat  = "float"
)

// Default variable values.
const (
	// General defaults.
	defaultMode       = ModeByEvent
	defaultInput      = InputRaspivid
	defaultVerbosity  = logging.Error
	defaultEventDir   = "/var/camtrap/events"
	defaultOutputPath = "/var/camtrap/output"

	// Camera defaults.
	defaultWidth     = 640
	defaultHeight    = 480
	defaultFrameRate = 20
	defaultBitrate   = 2000 // kbps

	// Raw stream defaults.
	defaultRawWidth            = 416
	defaultRawHeight           = 416
	defaultRawFormat           = classify.RGB
	defaultRawFrameRateDivisor = 5

	// Motion filter defaults.
	defaultSmallThreshold = 10.0
	defaultSoTVThreshold  = 300.0
	defaultIIRCutoff      = 2.0
	defaultIIROrder       = 3
	defaultIIRAttenuation = 35.0

	// Event and sequence defaults, in seconds.
	defaultBufferLength      = 20.0
	defaultContextLength     = 3.0
	defaultMaxEventLength    = 20.0
	defaultMaxSequencePeriod = 10.0
	defaultSmoothingFactor   = 0.5

	// Classifier defaults.
	defaultAnimalThreshold  = classify.DefaultAnimalThreshold
	defaultHumanThreshold   = classify.DefaultHumanThreshold
	defaultDetectorFraction = 1.0
	defaultDetector         = DetectorYOLO

	// Sensor defaults.
	defaultSensorBaud     = 57600
	defaultSensorInterval = 30 * time.Second
	defaultObfuscation    = sensor.DefaultObfuscation
)

// Variables describes the variables that can be used for camera trap control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:     KeyAnimalThreshold,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.AnimalThreshold = parseFloat(KeyAnimalThreshold, v, c) },
		Validate: func(c *Config) { c.AnimalThreshold = inUnit(KeyAnimalThreshold, c.AnimalThreshold, c, defaultAnimalThreshold) },
	},
	{
		Name:   KeyAutoWhiteBalance,
		Type:   "enum:off,auto,sun,cloud,shade,tungsten,fluorescent,incandescent,flash,horizon",
		Update: func(c *Config, v string) { c.AutoWhiteBalance = v },
	},
	{
		Name:   KeyAWBGains,
		Type:   typeString,
		Update: func(c *Config, v string) { c.AWBGains = v },
	},
	{
		Name:   KeyBitrate,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Bitrate = parseUint(KeyBitrate, v, c) },
		Validate: func(c *Config) {
			if c.Bitrate <= 0 {
				c.LogInvalidField(KeyBitrate, defaultBitrate)
				c.Bitrate = defaultBitrate
			}
		},
	},
	{
		Name:   KeyBrightness,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Brightness = parseUint(KeyBrightness, v, c) },
	},
	{
		Name:     KeyBufferLength,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.BufferLength = parseFloat(KeyBufferLength, v, c) },
		Validate: func(c *Config) { c.BufferLength = positive(KeyBufferLength, c.BufferLength, c, defaultBufferLength) },
	},
	{
		Name:   KeyContextLength,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.ContextLength = parseFloat(KeyContextLength, v, c) },
		Validate: func(c *Config) {
			if c.ContextLength <= 0 || c.ContextLength >= c.BufferLength {
				// The context is seeked within the buffer, so must be shorter.
				def := defaultContextLength
				if def >= c.BufferLength {
					def = c.BufferLength / 2
				}
				c.LogInvalidField(KeyContextLength, def)
				c.ContextLength = def
			}
		},
	},
	{
		Name:   KeyContrast,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.Contrast = parseInt(KeyContrast, v, c) },
	},
	{
		Name: KeyDetector,
		Type: "enum:yolo,ssd,ssd_human",
		Update: func(c *Config, v string) {
			c.Detector = parseEnum(
				KeyDetector,
				v,
				map[string]uint8{
					"yolo":      DetectorYOLO,
					"ssd":       DetectorSSD,
					"ssd_human": DetectorSSDHuman,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Detector {
			case DetectorYOLO, DetectorSSD, DetectorSSDHuman:
			default:
				c.LogInvalidField(KeyDetector, defaultDetector)
				c.Detector = defaultDetector
			}
		},
	},
	{
		Name:     KeyDetectorFraction,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.DetectorFraction = parseFloat(KeyDetectorFraction, v, c) },
		Validate: func(c *Config) {
			if c.DetectorFraction < 0 || c.DetectorFraction > 1 {
				c.LogInvalidField(KeyDetectorFraction, defaultDetectorFraction)
				c.DetectorFraction = defaultDetectorFraction
			}
		},
	},
	{
		Name:   KeyEventDir,
		Type:   typeString,
		Update: func(c *Config, v string) { c.EventDir = v },
		Validate: func(c *Config) {
			if c.EventDir == "" {
				c.LogInvalidField(KeyEventDir, defaultEventDir)
				c.EventDir = defaultEventDir
			}
		},
	},
	{
		Name:   KeyEV,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.EV = parseInt(KeyEV, v, c) },
	},
	{
		Name:   KeyExposure,
		Type:   "enum:auto,night,nightpreview,backlight,spotlight,sports,snow,beach,verylong,fixedfps,antishake,fireworks",
		Update: func(c *Config, v string) { c.Exposure = v },
	},
	{
		Name:   KeyFrameRate,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FrameRate = parseUint(KeyFrameRate, v, c) },
		Validate: func(c *Config) {
			if c.FrameRate <= 0 || c.FrameRate > 60 {
				c.LogInvalidField(KeyFrameRate, defaultFrameRate)
				c.FrameRate = defaultFrameRate
			}
		},
	},
	{
		Name:     KeyHeight,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.Height = parseUint(KeyHeight, v, c) },
		Validate: func(c *Config) { c.Height = lessThanOrEqual(KeyHeight, c.Height, 0, c, defaultHeight) },
	},
	{
		Name:   KeyHorizontalFlip,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.HorizontalFlip = parseBool(KeyHorizontalFlip, v, c) },
	},
	{
		Name:     KeyHumanThreshold,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.HumanThreshold = parseFloat(KeyHumanThreshold, v, c) },
		Validate: func(c *Config) { c.HumanThreshold = inUnit(KeyHumanThreshold, c.HumanThreshold, c, defaultHumanThreshold) },
	},
	{
		Name:     KeyIIRAttenuation,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.IIRAttenuation = parseFloat(KeyIIRAttenuation, v, c) },
		Validate: func(c *Config) { c.IIRAttenuation = positive(KeyIIRAttenuation, c.IIRAttenuation, c, defaultIIRAttenuation) },
	},
	{
		Name:     KeyIIRCutoff,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.IIRCutoff = parseFloat(KeyIIRCutoff, v, c) },
		Validate: func(c *Config) { c.IIRCutoff = positive(KeyIIRCutoff, c.IIRCutoff, c, defaultIIRCutoff) },
	},
	{
		Name:   KeyIIROrder,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.IIROrder = parseUint(KeyIIROrder, v, c) },
		Validate: func(c *Config) {
			const maxOrder = 16
			if c.IIROrder <= 0 || c.IIROrder > maxOrder {
				c.LogInvalidField(KeyIIROrder, defaultIIROrder)
				c.IIROrder = defaultIIROrder
			}
		},
	},
	{
		Name: KeyInput,
		Type: "enum:raspivid,file",
		Update: func(c *Config, v string) {
			c.Input = parseEnum(
				KeyInput,
				v,
				map[string]uint8{
					"raspivid": InputRaspivid,
					"file":     InputFile,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Input {
			case InputRaspivid, InputFile:
			default:
				c.LogInvalidField(KeyInput, defaultInput)
				c.Input = defaultInput
			}
		},
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name:   KeyISO,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.ISO = parseUint(KeyISO, v, c) },
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name:     KeyMaxEventLength,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.MaxEventLength = parseFloat(KeyMaxEventLength, v, c) },
		Validate: func(c *Config) { c.MaxEventLength = positive(KeyMaxEventLength, c.MaxEventLength, c, defaultMaxEventLength) },
	},
	{
		Name:     KeyMaxSequencePeriod,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.MaxSequencePeriod = parseFloat(KeyMaxSequencePeriod, v, c) },
		Validate: func(c *Config) { c.MaxSequencePeriod = positive(KeyMaxSequencePeriod, c.MaxSequencePeriod, c, defaultMaxSequencePeriod) },
	},
	{
		Name:   KeyModelConfig,
		Type:   typeString,
		Update: func(c *Config, v string) { c.ModelConfig = v },
	},
	{
		Name:   KeyModelWeights,
		Type:   typeString,
		Update: func(c *Config, v string) { c.ModelWeights = v },
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
		Validate: func(c *Config) {
			if c.OutputPath == "" {
				c.LogInvalidField(KeyOutputPath, defaultOutputPath)
				c.OutputPath = defaultOutputPath
			}
		},
	},
	{
		Name: KeyPipeline,
		Type: "enum:by_frame,by_event",
		Update: func(c *Config, v string) {
			c.Mode = parseEnum(
				KeyPipeline,
				v,
				map[string]uint8{
					"by_frame": ModeByFrame,
					"by_event": ModeByEvent,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Mode {
			case ModeByFrame, ModeByEvent:
			default:
				c.LogInvalidField(KeyPipeline, defaultMode)
				c.Mode = defaultMode
			}
		},
	},
	{
		Name: KeyRawFormat,
		Type: "enum:rgb,rgba",
		Update: func(c *Config, v string) {
			f, err := classify.ParseFormat(v)
			if err != nil {
				c.Logger.Warning("invalid RawFormat param", "value", v)
				return
			}
			c.RawFormat = f
		},
		Validate: func(c *Config) {
			if c.RawFormat.BytesPerPixel() == 0 {
				c.LogInvalidField(KeyRawFormat, defaultRawFormat)
				c.RawFormat = defaultRawFormat
			}
		},
	},
	{
		Name:   KeyRawFrameRateDivisor,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.RawFrameRateDivisor = parseUint(KeyRawFrameRateDivisor, v, c) },
		Validate: func(c *Config) {
			if c.RawFrameRateDivisor <= 0 || (c.FrameRate > 0 && c.RawFrameRateDivisor > c.FrameRate) {
				c.LogInvalidField(KeyRawFrameRateDivisor, defaultRawFrameRateDivisor)
				c.RawFrameRateDivisor = defaultRawFrameRateDivisor
			}
		},
	},
	{
		Name:     KeyRawHeight,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.RawHeight = parseUint(KeyRawHeight, v, c) },
		Validate: func(c *Config) { c.RawHeight = lessThanOrEqual(KeyRawHeight, c.RawHeight, 0, c, defaultRawHeight) },
	},
	{
		Name:     KeyRawWidth,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.RawWidth = parseUint(KeyRawWidth, v, c) },
		Validate: func(c *Config) { c.RawWidth = lessThanOrEqual(KeyRawWidth, c.RawWidth, 0, c, defaultRawWidth) },
	},
	{
		Name:   KeyRotation,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Rotation = parseUint(KeyRotation, v, c) },
	},
	{
		Name:   KeySaturation,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.Saturation = parseInt(KeySaturation, v, c) },
	},
	{
		Name:   KeySensorBaud,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.SensorBaud = parseUint(KeySensorBaud, v, c) },
		Validate: func(c *Config) {
			if c.SensorPort != "" && c.SensorBaud == 0 {
				c.LogInvalidField(KeySensorBaud, defaultSensorBaud)
				c.SensorBaud = defaultSensorBaud
			}
		},
	},
	{
		Name: KeySensorInterval,
		Type: typeUint,
		Update: func(c *Config, v string) {
			_v, err := strconv.Atoi(v)
			if err != nil {
				c.Logger.Warning("invalid SensorInterval param", "value", v)
			}
			c.SensorInterval = time.Duration(_v) * time.Second
		},
		Validate: func(c *Config) {
			if c.SensorPort != "" && c.SensorInterval <= 0 {
				c.LogInvalidField(KeySensorInterval, defaultSensorInterval)
				c.SensorInterval = defaultSensorInterval
			}
		},
	},
	{
		Name:   KeySensorObfuscation,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.SensorObfuscation = parseFloat(KeySensorObfuscation, v, c) },
		Validate: func(c *Config) {
			if c.SensorObfuscation < 0 {
				c.LogInvalidField(KeySensorObfuscation, defaultObfuscation)
				c.SensorObfuscation = defaultObfuscation
			}
		},
	},
	{
		Name:   KeySensorPort,
		Type:   typeString,
		Update: func(c *Config, v string) { c.SensorPort = v },
	},
	{
		Name:   KeySharpness,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.Sharpness = parseInt(KeySharpness, v, c) },
	},
	{
		Name:     KeySmallThreshold,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.SmallThreshold = parseFloat(KeySmallThreshold, v, c) },
		Validate: func(c *Config) { c.SmallThreshold = positive(KeySmallThreshold, c.SmallThreshold, c, defaultSmallThreshold) },
	},
	{
		Name:     KeySmoothingFactor,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.SmoothingFactor = parseFloat(KeySmoothingFactor, v, c) },
		Validate: func(c *Config) { c.SmoothingFactor = positive(KeySmoothingFactor, c.SmoothingFactor, c, defaultSmoothingFactor) },
	},
	{
		Name:     KeySoTVThreshold,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.SoTVThreshold = parseFloat(KeySoTVThreshold, v, c) },
		Validate: func(c *Config) { c.SoTVThreshold = positive(KeySoTVThreshold, c.SoTVThreshold, c, defaultSoTVThreshold) },
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
	{
		Name:   KeyVerticalFlip,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.VerticalFlip = parseBool(KeyVerticalFlip, v, c) },
	},
	{
		Name:     KeyWidth,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.Width = parseUint(KeyWidth, v, c) },
		Validate: func(c *Config) { c.Width = lessThanOrEqual(KeyWidth, c.Width, 0, c, defaultWidth) },
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseInt(n, v string, c *Config) int {
	_v, err := strconv.Atoi(v)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected integer for param %s", n), "value", v)
	}
	return _v
}

func parseFloat(n, v string, c *Config) float64 {
	_v, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(v)]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}

func lessThanOrEqual(n string, v, cmp uint, c *Config, def uint) uint {
	if v <= cmp {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}

func positive(n string, v float64, c *Config, def float64) float64 {
	if v <= 0 {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}

func inUnit(n string, v float64, c *Config, def float64) float64 {
	if v <= 0 || v > 1 {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}
