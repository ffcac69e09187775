// Package printer builds ESC/POS receipts and ships them to a thermal printer.
package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// ErrNoPrinter is returned by the discard printer so callers can tell a missing
// printer from a failing one.
var ErrNoPrinter = errors.New("printer: no printer configured")

// Printer sends a finished job to a device.
type Printer interface {
	Print(ctx context.Context, job []byte) error
	// Kind is "usb", "network" or "none".
	Kind() string
	Ready(ctx context.Context) bool
}

// New picks a transport for kind. An empty kind means none.
func New(kind, devicePath, address string) (Printer, error) {
	switch kind {
	case "usb":
		if devicePath == "" {
			return nil, errors.New("printer: PRINTER_USB_PATH is required for usb printers")
		}
		return &devicePrinter{path: devicePath}, nil
	case "network":
		if address == "" {
			return nil, errors.New("printer: PRINTER_ADDRESS is required for network printers")
		}
		return &tcpPrinter{address: address, dialTimeout: 5 * time.Second, writeTimeout: 10 * time.Second}, nil
	case "none", "":
		return Discard{}, nil
	}
	return nil, fmt.Errorf("printer: unknown type %q", kind)
}

// devicePrinter writes to a character device such as /dev/usb/lp0. The device
// is opened per job so a replugged printer is picked up.
type devicePrinter struct {
	path string
}

func (p *devicePrinter) Print(ctx context.Context, job []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: open %s: %w", p.path, err)
	}
	defer f.Close()

	if _, err := f.Write(job); err != nil {
		return fmt.Errorf("printer: write %s: %w", p.path, err)
	}
	return nil
}

func (p *devicePrinter) Kind() string {
	return "usb"
}

func (p *devicePrinter) Ready(context.Context) bool {
	_, err := os.Stat(p.path)
	return err == nil
}

// tcpPrinter talks raw ESC/POS to port 9100 style network printers.
type tcpPrinter struct {
	address      string
	dialTimeout  time.Duration
	writeTimeout time.Duration
}

func (p *tcpPrinter) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: p.dialTimeout}
	return d.DialContext(ctx, "tcp", p.address)
}

func (p *tcpPrinter) Print(ctx context.Context, job []byte) error {
	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("printer: connect %s: %w", p.address, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(p.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)

	if _, err := conn.Write(job); err != nil {
		return fmt.Errorf("printer: write %s: %w", p.address, err)
	}
	return nil
}

func (p *tcpPrinter) Kind() string {
	return "network"
}

func (p *tcpPrinter) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	conn, err := p.dial(ctx)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Discard drops every job.
type Discard struct{}

func (Discard) Print(context.Context, []byte) error {
	return ErrNoPrinter
}

func (Discard) Kind() string {
	return "none"
}

func (Discard) Ready(context.Context) bool {
	return false
}
