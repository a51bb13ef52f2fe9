//go:build !headless

// transport_serial.go - USB-CDC serial transport on Linux.
//
// Approach and terminology (raw-mode field clearing via a termios
// struct, explicit baud encoding) follow a generic termios-based serial
// port opener; the ioctl calls themselves go straight through
// golang.org/x/sys/unix rather than a third-party termios wrapper, since
// no such wrapper is available anywhere in this module's dependency set.
package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// SerialTransport is a non-blocking reader/writer over a USB-CDC ACM
// device node (e.g. /dev/ttyACM0).
type SerialTransport struct {
	file *os.File
	fd   int
}

// OpenSerialTransport opens path, puts it into raw mode at baud, and
// returns a transport ready for non-blocking reads.
func OpenSerialTransport(path string, baud uint32) (*SerialTransport, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open serial device %s: %w", path, err)
	}
	fd := int(f.Fd())

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("get termios on %s: %w", path, err)
	}
	makeRaw(t)
	if err := setSpeed(t, baud); err != nil {
		f.Close()
		return nil, err
	}
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		f.Close()
		return nil, fmt.Errorf("set termios on %s: %w", path, err)
	}

	return &SerialTransport{file: f, fd: fd}, nil
}

// makeRaw clears the termios fields the way cfmakeraw does: no echo, no
// canonical processing, no signal generation, 8N1, no minimum byte count
// and no inter-byte timeout (VMIN=0, VTIME=0).
func makeRaw(t *unix.Termios) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0
}

func setSpeed(t *unix.Termios, baud uint32) error {
	code, ok := baudCode(baud)
	if !ok {
		return fmt.Errorf("unsupported baud rate %d", baud)
	}
	t.Ispeed = code
	t.Ospeed = code
	return nil
}

func baudCode(baud uint32) (uint32, bool) {
	switch baud {
	case 9600:
		return unix.B9600, true
	case 19200:
		return unix.B19200, true
	case 38400:
		return unix.B38400, true
	case 57600:
		return unix.B57600, true
	case 115200:
		return unix.B115200, true
	case 230400:
		return unix.B230400, true
	case 460800:
		return unix.B460800, true
	case 921600:
		return unix.B921600, true
	default:
		return 0, false
	}
}

// Read is non-blocking: it returns (0, nil) rather than blocking when no
// bytes are currently available, matching the "parser polls USB" model
// in §5.
func (s *SerialTransport) Read(p []byte) (int, error) {
	n, err := s.file.Read(p)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || os.IsTimeout(err) {
			return 0, nil
		}
		return n, err
	}
	return n, nil
}

// WriteReadyLine emits the literal handshake line once per new session
// (§6, §8 property 7).
func (s *SerialTransport) WriteReadyLine() error {
	_, err := s.file.Write([]byte("[DUMP] READY\r\n"))
	return err
}

// Close releases the underlying file descriptor.
func (s *SerialTransport) Close() error {
	return s.file.Close()
}
