//go:build !linux
// +build !linux

/*
DESCRIPTION
  serial_other.go provides a stub for opening the sensor board's serial
  port on platforms other than linux.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sensor

import (
	"errors"
	"os"
)

// OpenSerial is not supported on this platform.
func OpenSerial(path string, baud uint) (*os.File, error) {
	return nil, errors.New("serial ports are only supported on linux")
}
