/*
DESCRIPTION
  serial_linux.go provides opening of the sensor board's serial port.

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
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var bauds = map[uint]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

// OpenSerial opens the serial port at path in raw 8N1 mode at the given
// baud rate. Reads wait at most a tenth of a second for data, returning
// io.EOF if none arrives.
func OpenSerial(path string, baud uint) (*os.File, error) {
	rate, ok := bauds[baud]
	if !ok {
		return nil, fmt.Errorf("unsupported baud rate: %d", baud)
	}

	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open serial port: %w", err)
	}

	t, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not get terminal attributes: %w", err)
	}
	t.Iflag = 0
	t.Oflag = 0
	t.Lflag = 0
	t.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL | rate
	t.Ispeed = rate
	t.Ospeed = rate
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 1 // Tenths of a second.

	err = unix.IoctlSetTermios(int(f.Fd()), unix.TCSETS, t)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not set terminal attributes: %w", err)
	}
	return f, nil
}
