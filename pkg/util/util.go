package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

func UUID() string {
	return uuid.New().String()
}

// ParseAddress splits "host" or "host:port" into its parts, falling back to
// defaultPort when no port is given.
func ParseAddress(address string, defaultPort int) (string, int, error) {
	host := address
	port := defaultPort
	if i := strings.LastIndex(address, ":"); i >= 0 {
		host = address[:i]
		p, err := strconv.Atoi(address[i+1:])
		if err != nil {
			return "", 0, fmt.Errorf("invalid port in address %q: %v", address, err)
		}
		port = p
	}
	if host == "" {
		return "", 0, fmt.Errorf("empty host in address %q", address)
	}
	return host, port, nil
}

// Sink is a byte destination for dumped payloads: a buffered file or the
// process's standard output.
type Sink struct {
	w      io.Writer
	flush  *bufio.Writer
	file   *os.File
	stdout bool
}

// FileSink opens path for writing, truncating any existing file.
func FileSink(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(f)
	return &Sink{w: bw, flush: bw, file: f}, nil
}

// StdoutSink writes raw bytes to standard output. Closing it does not close
// the process's stdout.
func StdoutSink() *Sink {
	return &Sink{w: os.Stdout, stdout: true}
}

func (s *Sink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// IsFile reports whether the sink writes to a regular file.
func (s *Sink) IsFile() bool {
	return !s.stdout
}

// Close flushes buffered bytes and closes the underlying file, if any.
func (s *Sink) Close() error {
	var err error
	if s.flush != nil {
		err = s.flush.Flush()
	}
	if s.file != nil {
		err = multierr.Append(err, s.file.Close())
	}
	return err
}
