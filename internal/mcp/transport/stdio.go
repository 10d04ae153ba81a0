package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// maxLineBuffer caps a single stdio frame at 4 MB, the same ceiling the
// teacher's StdioTransport gives bufio.Scanner so a single oversized tool
// result can't wedge the scanner.
const maxLineBuffer = 4 * 1024 * 1024

// Stdio is a Transport over line-delimited JSON-RPC frames on an
// io.Reader/io.Writer pair — normally os.Stdin/os.Stdout. It follows the
// teacher's stdio bridge exactly: a bufio.Scanner with an enlarged buffer
// reads one frame per line, writes are newline-terminated, and every
// diagnostic goes to a logger pinned to stderr so stdout framing is never
// contaminated.
type Stdio struct {
	in     *bufio.Scanner
	out    io.Writer
	logger *log.Logger

	writeMu sync.Mutex
	mu      sync.RWMutex
	closed  bool
}

// NewStdio builds a Stdio transport reading in and writing out. Passing
// os.Stdin/os.Stdout gives the standard Claude Desktop / Claude Code
// binding; tests pass an io.Pipe or bytes.Buffer instead.
func NewStdio(in io.Reader, out io.Writer) *Stdio {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, maxLineBuffer)
	scanner.Buffer(buf, maxLineBuffer)
	return &Stdio{
		in:     scanner,
		out:    out,
		logger: log.New(os.Stderr, "mcpcore: ", log.LstdFlags),
	}
}

func (s *Stdio) Kind() Kind { return KindStdio }

func (s *Stdio) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// Send writes one newline-terminated frame to stdout. Concurrent callers
// are serialized by writeMu so a sampling request racing a tool response
// can never interleave their bytes on the wire.
func (s *Stdio) Send(ctx context.Context, frame []byte) error {
	if !s.IsConnected() {
		return ErrClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintf(s.out, "%s\n", frame); err != nil {
		return fmt.Errorf("transport: stdio write: %w", err)
	}
	return nil
}

// Receive blocks for the next line on stdin. It returns ErrClosed on a
// clean EOF (stdin closed) so callers can distinguish a graceful shutdown
// from a genuine scanner error.
func (s *Stdio) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	for {
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				s.logger.Printf("stdin scanner error: %v", err)
				return nil, fmt.Errorf("transport: stdin scanner: %w", err)
			}
			s.logger.Println("stdin closed")
			_ = s.Close()
			return nil, ErrClosed
		}
		line := s.in.Bytes()
		if len(line) == 0 {
			continue
		}
		// Copy: scanner.Bytes() is only valid until the next Scan call.
		frame := make([]byte, len(line))
		copy(frame, line)
		return frame, nil
	}
}

func (s *Stdio) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
