package device

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialConfig describes the headset's UART link.
type SerialConfig struct {
	BaudRate int
	// ReadTimeout bounds each Read so the capture loop can poll.
	ReadTimeout time.Duration
}

// DefaultSerialConfig is 115200 8N1 with a 1 ms read timeout.
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{BaudRate: 115200, ReadTimeout: time.Millisecond}
}

// Serial is a ByteSource backed by a serial port.
type Serial struct {
	name string
	port serial.Port
}

// OpenSerial opens name with 8 data bits, no parity and one stop bit. Bytes
// already queued by the driver are dropped.
func OpenSerial(name string, cfg SerialConfig) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("setting read timeout on %s: %w", name, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flushing %s: %w", name, err)
	}
	return &Serial{name: name, port: port}, nil
}

// Name returns the port name.
func (s *Serial) Name() string { return s.name }

// Read returns 0 bytes and no error when the read timeout expires.
func (s *Serial) Read(p []byte) (int, error) { return s.port.Read(p) }

func (s *Serial) Write(p []byte) (int, error) { return s.port.Write(p) }

func (s *Serial) Close() error { return s.port.Close() }

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}
	return ports, nil
}
