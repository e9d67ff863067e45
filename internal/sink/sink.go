// Package sink delivers rendered receipts to output devices. A failed send
// never invalidates the receipt; callers may send the same document again.
package sink

import (
	"context"
	"errors"
	"fmt"
)

// Document is a rendered receipt ready for a device.
type Document struct {
	Name        string
	ContentType string
	Body        []byte
}

type DeviceSink interface {
	Send(ctx context.Context, doc Document) error
}

var (
	ErrDevice             = errors.New("device error")
	ErrUnsupportedContent = errors.New("content type not supported by device")
)

// DeviceError matches both ErrDevice and the underlying cause.
type DeviceError struct {
	Sink string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Sink, e.Err)
}

func (e *DeviceError) Unwrap() []error {
	return []error{ErrDevice, e.Err}
}

func deviceErr(sink string, err error) error {
	return &DeviceError{Sink: sink, Err: err}
}
