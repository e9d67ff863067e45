// Package scancode assigns scan codes to new products. Strategies are
// interchangeable; the only hard requirement is that a generated code is not
// already used by any product in the snapshot it was given.
package scancode

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fjod/shop-scan-print/internal/domain"
)

const maxAttempts = 1000

var (
	ErrExhausted       = errors.New("no free scan code found")
	ErrUnknownStrategy = errors.New("unknown scan code strategy")
)

type Generator interface {
	Generate(snapshot []domain.Product) (string, error)
}

func used(snapshot []domain.Product) map[string]struct{} {
	codes := make(map[string]struct{}, len(snapshot))
	for _, p := range snapshot {
		codes[p.ScanCode] = struct{}{}
	}
	return codes
}

// Timestamp builds EAN-13 codes from the last 12 digits of the current
// millisecond clock plus a check digit. On collision it moves one
// millisecond forward.
type Timestamp struct {
	now func() time.Time
}

func NewTimestamp() *Timestamp {
	return &Timestamp{now: time.Now}
}

func (g *Timestamp) Generate(snapshot []domain.Product) (string, error) {
	taken := used(snapshot)
	ms := g.now().UnixMilli()
	for i := 0; i < maxAttempts; i++ {
		digits := fmt.Sprintf("%012d", (ms+int64(i))%1_000_000_000_000)
		code := digits + strconv.Itoa(EAN13CheckDigit(digits))
		if _, ok := taken[code]; !ok {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// EAN13CheckDigit computes the check digit for a 12 digit payload.
func EAN13CheckDigit(digits string) int {
	sum := 0
	for i, r := range digits {
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

// TimestampRandom appends four random digits to the millisecond clock.
type TimestampRandom struct {
	now func() time.Time
}

func NewTimestampRandom() *TimestampRandom {
	return &TimestampRandom{now: time.Now}
}

func (g *TimestampRandom) Generate(snapshot []domain.Product) (string, error) {
	taken := used(snapshot)
	ms := g.now().UnixMilli()
	for i := 0; i < maxAttempts; i++ {
		code := fmt.Sprintf("%d%04d", ms, rand.IntN(10_000))
		if _, ok := taken[code]; !ok {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Sequence hands out prefix + zero padded counter, one past the highest
// counter found in the snapshot.
type Sequence struct {
	Prefix string
	Width  int
}

func NewSequence(prefix string, width int) *Sequence {
	return &Sequence{Prefix: prefix, Width: width}
}

func (g *Sequence) Generate(snapshot []domain.Product) (string, error) {
	var highest uint64
	for _, p := range snapshot {
		rest, ok := strings.CutPrefix(p.ScanCode, g.Prefix)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	if highest == ^uint64(0) {
		return "", ErrExhausted
	}
	return fmt.Sprintf("%s%0*d", g.Prefix, g.Width, highest+1), nil
}

// Snowflake uses time ordered snowflake ids from a single node.
type Snowflake struct {
	mu   sync.Mutex
	node *snowflake.Node
}

func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node: %w", err)
	}
	return &Snowflake{node: node}, nil
}

func (g *Snowflake) Generate(snapshot []domain.Product) (string, error) {
	taken := used(snapshot)
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < maxAttempts; i++ {
		code := g.node.Generate().String()
		if _, ok := taken[code]; !ok {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// New returns the generator registered under name.
func New(name string) (Generator, error) {
	switch name {
	case "", "timestamp":
		return NewTimestamp(), nil
	case "timestamp-random":
		return NewTimestampRandom(), nil
	case "sequence":
		return NewSequence("", 13), nil
	case "snowflake":
		return NewSnowflake(1)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
}
