package sink

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	escInit = []byte{0x1b, 0x40}
	escFeed = []byte{0x1b, 0x64, 0x04}
	escCut  = []byte{0x1d, 0x56, 0x01}
)

const (
	defaultChunkSize     = 20
	defaultChunkInterval = 10 * time.Millisecond
	defaultPrintTimeout  = 15 * time.Second
)

// Printer streams plain text to a raw ESC/POS thermal printer over TCP
// (port 9100 on most network printers). Writes go out in 20 byte chunks,
// 10ms apart.
type Printer struct {
	addr      string
	dial      func(ctx context.Context, network, addr string) (net.Conn, error)
	chunkSize int
	interval  time.Duration
	timeout   time.Duration
}

func NewPrinter(addr string) *Printer {
	d := &net.Dialer{Timeout: 5 * time.Second}
	return &Printer{
		addr:      addr,
		dial:      d.DialContext,
		chunkSize: defaultChunkSize,
		interval:  defaultChunkInterval,
		timeout:   defaultPrintTimeout,
	}
}

func (p *Printer) Send(ctx context.Context, doc Document) error {
	if strings.HasPrefix(doc.ContentType, "text/html") {
		return deviceErr("printer", fmt.Errorf("%w: %s", ErrUnsupportedContent, doc.ContentType))
	}

	conn, err := p.dial(ctx, "tcp", p.addr)
	if err != nil {
		return deviceErr("printer", fmt.Errorf("connect %s: %w", p.addr, err))
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(p.timeout)); err != nil {
		return deviceErr("printer", err)
	}

	payload := make([]byte, 0, len(escInit)+len(doc.Body)+len(escFeed)+len(escCut))
	payload = append(payload, escInit...)
	payload = append(payload, doc.Body...)
	payload = append(payload, escFeed...)
	payload = append(payload, escCut...)

	limiter := rate.NewLimiter(rate.Every(p.interval), 1)
	for start := 0; start < len(payload); start += p.chunkSize {
		if err := limiter.Wait(ctx); err != nil {
			return deviceErr("printer", err)
		}
		end := min(start+p.chunkSize, len(payload))
		if _, err := conn.Write(payload[start:end]); err != nil {
			return deviceErr("printer", fmt.Errorf("write: %w", err))
		}
	}
	return nil
}
