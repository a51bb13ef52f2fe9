//go:build headless

// transport_headless.go - no-op transport stub, mirroring the real
// backend's interface so the host binary still builds and runs (against
// silence/no input) without USB-CDC hardware or termios ioctl support.
package main

// SerialTransport in headless mode never produces bytes and discards
// anything written to it.
type SerialTransport struct{}

// OpenSerialTransport ignores path/baud and always succeeds.
func OpenSerialTransport(path string, baud uint32) (*SerialTransport, error) {
	return &SerialTransport{}, nil
}

func (s *SerialTransport) Read(p []byte) (int, error) { return 0, nil }
func (s *SerialTransport) WriteReadyLine() error      { return nil }
func (s *SerialTransport) Close() error               { return nil }
