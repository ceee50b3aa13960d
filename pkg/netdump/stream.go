package netdump

import (
	"io"

	"github.com/pkg/errors"
)

// ProgressFunc observes a running transfer. It is called with the declared
// total and the bytes received so far, after every block written to the sink.
type ProgressFunc func(total, received uint64)

// receiveSingleLength reads an 8-byte total length, then streams exactly that
// many bytes to the sink through the fixed-size buffer. The final block is
// sized to the exact remainder so the reader never runs past the declared
// length.
func receiveSingleLength(wire *Wire, sink io.Writer, progress ProgressFunc) (uint64, error) {
	total, err := wire.ReadUint64()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read data length")
	}

	var received uint64
	if err := streamBlocks(wire, sink, total, func(n uint64) {
		received += n
		if progress != nil {
			progress(total, received)
		}
	}); err != nil {
		return received, err
	}
	return total, nil
}

// receiveChunked consumes a chunked game dump. The response frame for the
// first chunk has already been read and validated by the dispatcher; every
// following chunk is preceded by a fresh frame that is validated the same way
// before its bytes are consumed. A mismatch aborts mid-stream; bytes already
// written to the sink stay written. The stream is complete exactly when the
// remaining length equals the current chunk's length.
func receiveChunked(wire *Wire, sink io.Writer, progress ProgressFunc) (uint64, error) {
	var total, received uint64
	first := true

	for {
		if !first {
			status, err := wire.ReadHeader()
			if err != nil {
				return received, err
			}
			if status != StatusGame {
				return received, errors.Wrapf(ErrUnexpectedStatus, "%v in the middle of a game dump", status)
			}
		}
		first = false

		remaining, err := wire.ReadUint64()
		if err != nil {
			return received, errors.Wrap(err, "failed to read remaining length")
		}
		length, err := wire.ReadUint32()
		if err != nil {
			return received, errors.Wrap(err, "failed to read chunk length")
		}
		if uint64(length) > remaining {
			return received, errors.Wrapf(ErrDecode, "chunk length %d exceeds remaining %d", length, remaining)
		}
		if total == 0 && received == 0 {
			total = remaining
		}

		if err := streamBlocks(wire, sink, uint64(length), func(n uint64) {
			received += n
		}); err != nil {
			return received, err
		}
		if progress != nil {
			progress(total, received)
		}

		if remaining == uint64(length) {
			return received, nil
		}
	}
}

// streamBlocks moves exactly length bytes from the wire to the sink, in
// order, through one reused buffer. Blocks are ioSize bytes except the last,
// which is cut to the remainder.
func streamBlocks(wire *Wire, sink io.Writer, length uint64, observe func(uint64)) error {
	buf := make([]byte, ioSize)
	var done uint64
	for done < length {
		block := buf
		if left := length - done; left < ioSize {
			block = buf[:left]
		}
		if err := wire.ReadFull(block); err != nil {
			return errors.Wrap(err, "failed to read data block")
		}
		if _, err := sink.Write(block); err != nil {
			return errors.Wrap(err, "failed to write data block to sink")
		}
		done += uint64(len(block))
		observe(uint64(len(block)))
	}
	return nil
}
