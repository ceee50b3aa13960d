package netdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/pkg/errors"
	. "gopkg.in/check.v1"
)

type ClientSuite struct{}

var _ = Suite(&ClientSuite{})

// fakePeer scripts the console side of a session over an in-memory pipe.
// Script failures surface through wait, never from the goroutine itself.
type fakePeer struct {
	conn net.Conn
	rev  *Revision
	done chan error
}

func startPeer(conn net.Conn, rev *Revision, script func(*fakePeer) error) *fakePeer {
	p := &fakePeer{conn: conn, rev: rev, done: make(chan error, 1)}
	go func() {
		p.done <- script(p)
	}()
	return p
}

func (p *fakePeer) wait(c *C) {
	c.Assert(<-p.done, IsNil)
}

func (p *fakePeer) expect(op Op) error {
	frame := make([]byte, requestSize)
	if _, err := io.ReadFull(p.conn, frame); err != nil {
		return err
	}
	if !bytes.Equal(frame[:len(MagicNumber)], []byte(MagicNumber)) {
		return fmt.Errorf("request magic mismatch: % x", frame[:len(MagicNumber)])
	}
	if v := binary.BigEndian.Uint32(frame[7:11]); v != p.rev.Version {
		return fmt.Errorf("request version mismatch: %d", v)
	}
	if code := binary.BigEndian.Uint32(frame[11:15]); code != p.rev.Commands[op] {
		return fmt.Errorf("expected %v (0x%08X), got 0x%08X", op, p.rev.Commands[op], code)
	}
	return nil
}

func (p *fakePeer) reply(status uint32) error {
	_, err := p.conn.Write(responseFrame(p.rev.Version, status))
	return err
}

func (p *fakePeer) send(data []byte) error {
	_, err := p.conn.Write(data)
	return err
}

func (p *fakePeer) expectDisconnect() error {
	if err := p.expect(OpDisconnect); err != nil {
		return err
	}
	return p.reply(0)
}

func newTestSession(c *C, version uint32) (*Session, net.Conn, *Revision) {
	rev, err := GetRevision(version)
	c.Assert(err, IsNil)
	client, server := net.Pipe()
	return NewSession(client, rev, 0), server, rev
}

func (s *ClientSuite) TestEjectOK(c *C) {
	sess, server, rev := newTestSession(c, 1)
	peer := startPeer(server, rev, func(p *fakePeer) error {
		if err := p.expect(OpEjectDisc); err != nil {
			return err
		}
		if err := p.reply(0); err != nil {
			return err
		}
		return p.expectDisconnect()
	})

	c.Assert(sess.EjectDisc(), IsNil)
	sess.Teardown()
	peer.wait(c)
}

func (s *ClientSuite) TestEjectCouldNotEject(c *C) {
	sess, server, rev := newTestSession(c, 1)
	peer := startPeer(server, rev, func(p *fakePeer) error {
		if err := p.expect(OpEjectDisc); err != nil {
			return err
		}
		if err := p.reply(0xFFFFFFFD); err != nil {
			return err
		}
		return p.expectDisconnect()
	})

	err := sess.EjectDisc()
	c.Assert(errors.Cause(err), Equals, ErrCouldNotEject)
	sess.Teardown()
	peer.wait(c)
}

func (s *ClientSuite) TestGetDiscInfoNoDisc(c *C) {
	sess, server, rev := newTestSession(c, 1)
	peer := startPeer(server, rev, func(p *fakePeer) error {
		if err := p.expect(OpGetDiscInfo); err != nil {
			return err
		}
		if err := p.reply(0xFFFFFFFE); err != nil {
			return err
		}
		// no payload follows the failure status, only the disconnect
		return p.expectDisconnect()
	})

	info, err := sess.GetDiscInfo()
	c.Assert(info, IsNil)
	c.Assert(errors.Cause(err), Equals, ErrNoDisc)
	sess.Teardown()
	peer.wait(c)
}

func (s *ClientSuite) TestGetDiscInfo(c *C) {
	sess, server, rev := newTestSession(c, 1)
	peer := startPeer(server, rev, func(p *fakePeer) error {
		if err := p.expect(OpGetDiscInfo); err != nil {
			return err
		}
		if err := p.reply(1); err != nil {
			return err
		}
		if err := p.send(infoRecord(0x00, []byte("MARIO"), []byte("Super Mario Sunshine"))); err != nil {
			return err
		}
		return p.expectDisconnect()
	})

	info, err := sess.GetDiscInfo()
	c.Assert(err, IsNil)
	c.Assert(info.DiscType, Equals, DiscTypeGameCube)
	c.Assert(info.GameName, Equals, "MARIO")
	c.Assert(info.InternalName, Equals, "Super Mario Sunshine")
	sess.Teardown()
	peer.wait(c)
}

func (s *ClientSuite) TestDumpBCA(c *C) {
	block := pattern(BCASize)
	sess, server, rev := newTestSession(c, 1)
	peer := startPeer(server, rev, func(p *fakePeer) error {
		if err := p.expect(OpDumpBCA); err != nil {
			return err
		}
		if err := p.reply(2); err != nil {
			return err
		}
		if err := p.send(block); err != nil {
			return err
		}
		return p.expectDisconnect()
	})

	var sink bytes.Buffer
	c.Assert(sess.DumpBCA(&sink), IsNil)
	c.Assert(bytes.Equal(sink.Bytes(), block), Equals, true)
	sess.Teardown()
	peer.wait(c)
}

func (s *ClientSuite) TestDumpGameSingleLength(c *C) {
	// spans two full blocks plus a remainder
	payload := pattern(2*ioSize + 100)
	sess, server, rev := newTestSession(c, 1)
	peer := startPeer(server, rev, func(p *fakePeer) error {
		if err := p.expect(OpDumpGame); err != nil {
			return err
		}
		if err := p.reply(3); err != nil {
			return err
		}
		if err := p.send(binary.BigEndian.AppendUint64(nil, uint64(len(payload)))); err != nil {
			return err
		}
		if err := p.send(payload); err != nil {
			return err
		}
		return p.expectDisconnect()
	})

	var sink bytes.Buffer
	n, err := sess.DumpGame(&sink, nil)
	c.Assert(err, IsNil)
	c.Assert(n, Equals, uint64(len(payload)))
	c.Assert(bytes.Equal(sink.Bytes(), payload), Equals, true)
	sess.Teardown()
	peer.wait(c)
}

func (s *ClientSuite) TestDumpGameChunked(c *C) {
	payload := pattern(100)
	sess, server, rev := newTestSession(c, 0)
	peer := startPeer(server, rev, func(p *fakePeer) error {
		if err := p.expect(OpDumpGame); err != nil {
			return err
		}
		// every chunk is preceded by its own frame, the first one doubling
		// as the command response
		if err := p.reply(3); err != nil {
			return err
		}
		if err := p.send(chunk(100, payload[:40])); err != nil {
			return err
		}
		if err := p.reply(3); err != nil {
			return err
		}
		if err := p.send(chunk(60, payload[40:80])); err != nil {
			return err
		}
		if err := p.reply(3); err != nil {
			return err
		}
		if err := p.send(chunk(20, payload[80:])); err != nil {
			return err
		}
		return p.expectDisconnect()
	})

	var sink bytes.Buffer
	n, err := sess.DumpGame(&sink, nil)
	c.Assert(err, IsNil)
	c.Assert(n, Equals, uint64(100))
	c.Assert(bytes.Equal(sink.Bytes(), payload), Equals, true)
	sess.Teardown()
	peer.wait(c)
}

func (s *ClientSuite) TestBadMagicAbortsSession(c *C) {
	sess, server, rev := newTestSession(c, 1)
	peer := startPeer(server, rev, func(p *fakePeer) error {
		if err := p.expect(OpEjectDisc); err != nil {
			return err
		}
		frame := responseFrame(rev.Version, 0)
		frame[0] = 'X'
		return p.send(frame)
	})

	err := sess.EjectDisc()
	c.Assert(errors.Cause(err), Equals, ErrFraming)
	// the stream is unrecoverable, no disconnect handshake
	sess.Close()
	peer.wait(c)
}

func (s *ClientSuite) TestUnexpectedStatusSkipsPayload(c *C) {
	sess, server, rev := newTestSession(c, 1)
	peer := startPeer(server, rev, func(p *fakePeer) error {
		if err := p.expect(OpGetDiscInfo); err != nil {
			return err
		}
		if err := p.reply(7); err != nil {
			return err
		}
		// the client must not try to read a payload after an unknown code
		return p.expectDisconnect()
	})

	_, err := sess.GetDiscInfo()
	c.Assert(errors.Cause(err), Equals, ErrUnexpectedStatus)
	sess.Teardown()
	peer.wait(c)
}

func (s *ClientSuite) TestShutdownNoDisconnect(c *C) {
	sess, server, rev := newTestSession(c, 1)
	peer := startPeer(server, rev, func(p *fakePeer) error {
		if err := p.expect(OpShutdown); err != nil {
			return err
		}
		return p.reply(0)
	})

	c.Assert(sess.Shutdown(), IsNil)
	sess.Close()
	peer.wait(c)
}

func (s *ClientSuite) TestExitProgramUnsupportedOnRevZero(c *C) {
	sess, server, _ := newTestSession(c, 0)
	defer server.Close()

	// fails before anything is written to the wire
	err := sess.ExitProgram()
	c.Assert(errors.Cause(err), Equals, ErrNotSupported)
	sess.Close()
}

func (s *ClientSuite) TestDumpAllNotSupported(c *C) {
	sess, server, _ := newTestSession(c, 1)
	defer server.Close()

	err := sess.DumpAll()
	c.Assert(errors.Cause(err), Equals, ErrNotSupported)
	sess.Close()
}
