package netdump

import (
	"github.com/pkg/errors"
)

const (
	// MagicNumber opens every request and every response frame.
	MagicNumber = "NETDUMP"

	// DefaultPort is the port netdump listens on.
	DefaultPort = 9875

	// BCASize is the fixed size of a Burst Cutting Area dump.
	BCASize = 64

	ioSize = 32768

	gameNameSize     = 32
	internalNameSize = 512
)

// Op identifies a client operation independent of its wire encoding.
// The per-revision command code tables map ops to the u32 sent on the wire.
type Op int

const (
	OpDisconnect Op = iota
	OpExitProgram
	OpShutdown
	OpEjectDisc
	OpGetDiscInfo
	OpDumpBCA
	OpDumpGame
)

func (o Op) String() string {
	switch o {
	case OpDisconnect:
		return "disconnect"
	case OpExitProgram:
		return "exit-program"
	case OpShutdown:
		return "shutdown"
	case OpEjectDisc:
		return "eject-disc"
	case OpGetDiscInfo:
		return "get-disc-info"
	case OpDumpBCA:
		return "dump-bca"
	case OpDumpGame:
		return "dump-game"
	}
	return "unknown"
}

// Status is a decoded response status. Codes the active revision does not
// know decode to StatusUnexpected rather than failing, so the dispatcher can
// report them without desynchronizing the stream.
type Status int

const (
	StatusUnexpected Status = iota
	StatusOK
	StatusDiscInfo
	StatusBCA
	StatusGame
	StatusProtocolError
	StatusNoDisc
	StatusCouldNotEject
	StatusUnknownDiscType
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDiscInfo:
		return "disc-info"
	case StatusBCA:
		return "bca"
	case StatusGame:
		return "game"
	case StatusProtocolError:
		return "protocol-error"
	case StatusNoDisc:
		return "no-disc"
	case StatusCouldNotEject:
		return "could-not-eject"
	case StatusUnknownDiscType:
		return "unknown-disc-type"
	}
	return "unexpected"
}

// GameFraming selects how a game dump payload arrives on the wire.
type GameFraming int

const (
	// SingleLength framing: one u64 total length, then raw bytes.
	SingleLength GameFraming = iota
	// Chunked framing: every chunk preceded by its own full response frame
	// and a {remaining u64, length u32} chunk header.
	Chunked
)

// Revision describes one wire revision of the protocol. Revisions are not
// wire-compatible with each other; the version is chosen at connect time and
// both sides must agree exactly.
type Revision struct {
	Version     uint32
	Commands    map[Op]uint32
	Statuses    map[uint32]Status
	GameFraming GameFraming
}

var revisions = map[uint32]*Revision{
	0: {
		Version: 0,
		Commands: map[Op]uint32{
			OpDisconnect:  0xFFFFFFFF,
			OpShutdown:    0xFFFFFFFE,
			OpEjectDisc:   1,
			OpGetDiscInfo: 2,
			OpDumpBCA:     3,
			OpDumpGame:    4,
		},
		Statuses: map[uint32]Status{
			0xFFFFFFFF: StatusProtocolError,
			0xFFFFFFFE: StatusNoDisc,
			0:          StatusOK,
			1:          StatusDiscInfo,
			2:          StatusBCA,
			3:          StatusGame,
		},
		GameFraming: Chunked,
	},
	1: {
		Version: 1,
		Commands: map[Op]uint32{
			OpDisconnect:  0xFFFFFFFF,
			OpExitProgram: 0xFFFFFFFE,
			OpShutdown:    0xFFFFFFFD,
			OpEjectDisc:   1,
			OpGetDiscInfo: 2,
			OpDumpBCA:     3,
			OpDumpGame:    4,
		},
		Statuses: map[uint32]Status{
			0xFFFFFFFF: StatusProtocolError,
			0xFFFFFFFE: StatusNoDisc,
			0xFFFFFFFD: StatusCouldNotEject,
			0xFFFFFFFC: StatusUnknownDiscType,
			0:          StatusOK,
			1:          StatusDiscInfo,
			2:          StatusBCA,
			3:          StatusGame,
		},
		GameFraming: SingleLength,
	},
}

// CurrentVersion is the revision netdump on the console speaks today.
const CurrentVersion = uint32(1)

// GetRevision returns the descriptor for a protocol version.
func GetRevision(version uint32) (*Revision, error) {
	rev, ok := revisions[version]
	if !ok {
		return nil, errors.Errorf("unknown protocol version %d", version)
	}
	return rev, nil
}

// CommandCode maps an op to its wire code under this revision.
func (r *Revision) CommandCode(op Op) (uint32, error) {
	code, ok := r.Commands[op]
	if !ok {
		return 0, errors.Wrapf(ErrNotSupported, "%v has no command code in protocol version %d", op, r.Version)
	}
	return code, nil
}

// DecodeStatus maps a wire status code to its variant under this revision.
func (r *Revision) DecodeStatus(code uint32) Status {
	status, ok := r.Statuses[code]
	if !ok {
		return StatusUnexpected
	}
	return status
}

var (
	// ErrFraming reports a magic or version mismatch on a response frame.
	// Fatal to the session; the byte stream cannot be resynchronized.
	ErrFraming = errors.New("frame header mismatch")

	// ErrUnexpectedStatus reports a status code outside the valid set for
	// the issued command. No payload is read after it.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrProtocol is the peer's generic protocol-error reply.
	ErrProtocol = errors.New("protocol error reported by peer")

	// ErrNoDisc means no disc is present in the drive.
	ErrNoDisc = errors.New("no disc in drive")

	// ErrCouldNotEject means the drive refused to eject.
	ErrCouldNotEject = errors.New("could not eject disc")

	// ErrUnknownDiscType means the peer could not identify the disc.
	ErrUnknownDiscType = errors.New("unknown disc type")

	// ErrDecode reports a malformed fixed-field payload.
	ErrDecode = errors.New("malformed payload")

	// ErrNotSupported marks operations with no wire behavior.
	ErrNotSupported = errors.New("operation not supported")
)
