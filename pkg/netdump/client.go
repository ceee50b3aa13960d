package netdump

import (
	"io"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/MarimeGui/NetDump-client/pkg/util"
)

// Session is one connection to the console, owned by exactly one operation.
// All I/O is synchronous and blocking; the protocol has no notion of
// concurrent requests. By default reads and writes block indefinitely, which
// matches the baseline protocol. A nonzero timeout arms a deadline before
// every exchange as an opt-in robustness extension.
type Session struct {
	conn    net.Conn
	wire    *Wire
	rev     *Revision
	timeout time.Duration
	log     *logrus.Entry
}

// Dial connects to the console and binds the session to one protocol
// revision. The version must match the peer exactly; there is no negotiation.
func Dial(host string, port int, version uint32, timeout time.Duration) (*Session, error) {
	rev, err := GetRevision(version)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", addr)
	}
	return NewSession(conn, rev, timeout), nil
}

// NewSession wraps an established connection. Dial is the common path.
func NewSession(conn net.Conn, rev *Revision, timeout time.Duration) *Session {
	return &Session{
		conn:    conn,
		wire:    NewWire(conn, rev),
		rev:     rev,
		timeout: timeout,
		log: logrus.WithFields(logrus.Fields{
			"peer":    conn.RemoteAddr().String(),
			"session": util.UUID(),
			"version": rev.Version,
		}),
	}
}

// Revision returns the protocol descriptor the session was dialed with.
func (s *Session) Revision() *Revision {
	return s.rev
}

// EjectDisc asks the drive to eject the disc.
func (s *Session) EjectDisc() error {
	status, err := s.exchange(OpEjectDisc)
	if err != nil {
		return err
	}
	if status == StatusOK {
		return nil
	}
	return statusError(status)
}

// GetDiscInfo queries the metadata of the inserted disc.
func (s *Session) GetDiscInfo() (*DiscInfo, error) {
	status, err := s.exchange(OpGetDiscInfo)
	if err != nil {
		return nil, err
	}
	if status != StatusDiscInfo {
		return nil, statusError(status)
	}

	info, err := readDiscInfo(s.wire.reader)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("Received disc info for %q", info.GameName)
	return info, nil
}

// DumpBCA reads the fixed 64-byte Burst Cutting Area block into the sink.
func (s *Session) DumpBCA(sink io.Writer) error {
	status, err := s.exchange(OpDumpBCA)
	if err != nil {
		return err
	}
	if status != StatusBCA {
		return statusError(status)
	}

	block := make([]byte, BCASize)
	if err := s.wire.ReadFull(block); err != nil {
		return errors.Wrap(err, "failed to read BCA block")
	}
	if _, err := sink.Write(block); err != nil {
		return errors.Wrap(err, "failed to write BCA block to sink")
	}
	return nil
}

// DumpGame streams the full disc image into the sink, framed according to
// the session's revision. It returns the number of bytes written. progress
// may be nil.
func (s *Session) DumpGame(sink io.Writer, progress ProgressFunc) (uint64, error) {
	status, err := s.exchange(OpDumpGame)
	if err != nil {
		return 0, err
	}
	if status != StatusGame {
		return 0, statusError(status)
	}

	switch s.rev.GameFraming {
	case Chunked:
		return receiveChunked(s.wire, sink, progress)
	default:
		return receiveSingleLength(s.wire, sink, progress)
	}
}

// DumpAll is declared in the operation set but no observed revision carries
// a combined-dump wire command, so it always fails explicitly instead of
// silently doing nothing.
func (s *Session) DumpAll() error {
	return errors.Wrap(ErrNotSupported, "combined game+BCA+info dump has no wire command")
}

// ExitProgram asks the remote program to quit. The remote side terminates,
// so no Disconnect must follow.
func (s *Session) ExitProgram() error {
	return s.terminate(OpExitProgram)
}

// Shutdown powers the console off. The remote side terminates, so no
// Disconnect must follow.
func (s *Session) Shutdown() error {
	return s.terminate(OpShutdown)
}

func (s *Session) terminate(op Op) error {
	status, err := s.exchange(op)
	if err != nil {
		return err
	}
	if status != StatusOK {
		return statusError(status)
	}
	return nil
}

// Teardown sends a Disconnect frame and waits for its acknowledgement, then
// closes the socket no matter what. Protocol failures here are reported as
// warnings only; by this point the operation's outcome is already decided.
// Must not be called after ExitProgram or Shutdown.
func (s *Session) Teardown() {
	if err := s.disconnect(); err != nil {
		s.log.WithError(err).Warn("Disconnect not acknowledged, closing connection anyway")
	}
	s.Close()
}

func (s *Session) disconnect() error {
	status, err := s.exchange(OpDisconnect)
	if err != nil {
		return err
	}
	if status != StatusOK {
		return statusError(status)
	}
	return nil
}

// Close closes the socket without the Disconnect handshake.
func (s *Session) Close() {
	if err := s.conn.Close(); err != nil {
		s.log.WithError(err).Warn("Failed to close connection")
	}
}

// exchange performs one command/response-header round trip.
func (s *Session) exchange(op Op) (Status, error) {
	s.arm()
	s.log.Debugf("Sending %v command", op)
	if err := s.wire.SendCommand(op); err != nil {
		return StatusUnexpected, err
	}
	status, err := s.wire.ReadHeader()
	if err != nil {
		return StatusUnexpected, err
	}
	s.log.Debugf("Peer replied %v", status)
	return status, nil
}

func (s *Session) arm() {
	if s.timeout <= 0 {
		return
	}
	if err := s.conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		s.log.WithError(err).Warn("Failed to arm I/O deadline")
	}
}

// statusError maps a non-success status to its sentinel. Unexpected codes
// must not be followed by a payload read, or the byte stream desynchronizes;
// callers abort after this error.
func statusError(status Status) error {
	switch status {
	case StatusProtocolError:
		return ErrProtocol
	case StatusNoDisc:
		return ErrNoDisc
	case StatusCouldNotEject:
		return ErrCouldNotEject
	case StatusUnknownDiscType:
		return ErrUnknownDiscType
	default:
		return errors.Wrapf(ErrUnexpectedStatus, "%v", status)
	}
}
