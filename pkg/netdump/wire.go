package netdump

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"net"

	"github.com/pkg/errors"
)

const (
	frameHeaderSize = len(MagicNumber) + 4
	requestSize     = frameHeaderSize + 4
)

// Wire is the frame codec for one connection. All integers on the wire are
// big-endian.
type Wire struct {
	conn   net.Conn
	rev    *Revision
	writer *bufio.Writer
	reader io.Reader
}

func NewWire(conn net.Conn, rev *Revision) *Wire {
	return &Wire{
		conn:   conn,
		rev:    rev,
		writer: bufio.NewWriterSize(conn, requestSize),
		reader: bufio.NewReaderSize(conn, ioSize),
	}
}

// SendCommand writes magic + version + command code as one contiguous frame.
// A write failure is fatal to the session and is never retried.
func (w *Wire) SendCommand(op Op) error {
	code, err := w.rev.CommandCode(op)
	if err != nil {
		return err
	}

	frame := make([]byte, 0, requestSize)
	frame = append(frame, MagicNumber...)
	frame = binary.BigEndian.AppendUint32(frame, w.rev.Version)
	frame = binary.BigEndian.AppendUint32(frame, code)

	if _, err := w.writer.Write(frame); err != nil {
		return errors.Wrapf(err, "failed to send %v command", op)
	}
	return errors.Wrapf(w.writer.Flush(), "failed to send %v command", op)
}

// ReadHeader reads and validates one response frame header, returning the
// decoded status. A magic or version mismatch is unrecoverable: the stream
// cannot be resynchronized, so the caller must abort the session.
func (w *Wire) ReadHeader() (Status, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(w.reader, header); err != nil {
		return StatusUnexpected, errors.Wrap(err, "failed to read response header")
	}

	if !bytes.Equal(header[:len(MagicNumber)], []byte(MagicNumber)) {
		return StatusUnexpected, errors.Wrapf(ErrFraming, "bad magic number % x", header[:len(MagicNumber)])
	}
	if version := binary.BigEndian.Uint32(header[len(MagicNumber):]); version != w.rev.Version {
		return StatusUnexpected, errors.Wrapf(ErrFraming, "protocol version %d received, expected %d", version, w.rev.Version)
	}

	var code uint32
	if err := binary.Read(w.reader, binary.BigEndian, &code); err != nil {
		return StatusUnexpected, errors.Wrap(err, "failed to read status code")
	}
	return w.rev.DecodeStatus(code), nil
}

// ReadUint64 reads one big-endian u64 from the stream, e.g. the total length
// preceding a single-length game dump.
func (w *Wire) ReadUint64() (uint64, error) {
	var v uint64
	err := binary.Read(w.reader, binary.BigEndian, &v)
	return v, err
}

// ReadUint32 reads one big-endian u32 from the stream.
func (w *Wire) ReadUint32() (uint32, error) {
	var v uint32
	err := binary.Read(w.reader, binary.BigEndian, &v)
	return v, err
}

// ReadFull fills buf from the stream, never reading past its length.
func (w *Wire) ReadFull(buf []byte) error {
	_, err := io.ReadFull(w.reader, buf)
	return err
}

func (w *Wire) Close() error {
	return w.conn.Close()
}
