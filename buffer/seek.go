/*
DESCRIPTION
  seek.go provides the seek functions used to trim the context at the start
  of an event, and helpers for sizing the buffers of each stream.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package buffer

import "math"

// MotionSeek returns a SeekFunc keeping the last context seconds of motion
// records produced at framerate.
func MotionSeek(context, framerate float64) SeekFunc {
	return func(frames []Frame) (int, bool) {
		return max(0, len(frames)-int(context*framerate)), true
	}
}

// H264Seek returns a SeekFunc choosing the key frame closest to context
// seconds before the newest access unit. It reports false if no access unit
// carries an SPS.
func H264Seek(context, framerate float64) SeekFunc {
	return func(frames []Frame) (int, bool) {
		target := contextIndex(len(frames), context, framerate)
		best := -1
		for i, f := range frames {
			if !f.Key {
				continue
			}
			if best == -1 || abs(i-target) < abs(best-target) {
				best = i
			}
		}
		return best, best != -1
	}
}

// RawSeek returns a SeekFunc keeping the last context seconds of raw frames
// produced at framerate.
func RawSeek(context, framerate float64) SeekFunc {
	return func(frames []Frame) (int, bool) {
		return contextIndex(len(frames), context, framerate), true
	}
}

func contextIndex(n int, context, framerate float64) int {
	return int(math.RoundToEven(math.Max(0, float64(n)-context*framerate)))
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// H264Capacity returns the number of bytes needed to hold secs seconds of
// video encoded at bitrate bits per second.
func H264Capacity(bitrate int, secs float64) int {
	return int(float64(bitrate) * secs / 8)
}

// RawCapacity returns the number of bytes needed to hold secs seconds of
// raw frames of the given dimensions and bytes per pixel, with every
// divisor'th frame of the camera framerate kept.
func RawCapacity(width, height, bpp, framerate, divisor int, secs float64) int {
	if divisor < 1 {
		divisor = 1
	}
	return int(float64(width*height*bpp*(framerate/divisor)) * secs)
}

// MotionCapacity returns the number of bytes needed to hold secs seconds of
// motion records of the given size produced at framerate.
func MotionCapacity(recordSize int, secs, framerate float64) int {
	return int(float64(recordSize) * secs * framerate)
}
