package uds

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tlindqvist/udsd/pkg/can"
)

// fakeTransport is an in-memory stand-in for an isotp.Link, letting
// tests feed PDUs directly and inspect exactly what the engine sent
// without running CAN segmentation at all.
type fakeTransport struct {
	recvQueue [][]byte
	sent      [][]byte
	idle      bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{idle: true}
}

func (f *fakeTransport) OnCANMessage(can.Frame) {}
func (f *fakeTransport) Poll()                  {}

func (f *fakeTransport) Send(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeTransport) Receive(buf []byte) (int, bool) {
	if len(f.recvQueue) == 0 {
		return 0, false
	}
	n := copy(buf, f.recvQueue[0])
	f.recvQueue = f.recvQueue[1:]
	return n, true
}

func (f *fakeTransport) SendIdle() bool {
	return f.idle
}

func (f *fakeTransport) push(req []byte) {
	f.recvQueue = append(f.recvQueue, req)
}

// fakeDriver never produces CAN frames of its own; every test drives
// the physical/functional transports directly.
type fakeDriver struct{}

func (fakeDriver) Connect() error             { return nil }
func (fakeDriver) Disconnect() error          { return nil }
func (fakeDriver) Send(can.Frame) error       { return nil }
func (fakeDriver) Receive() (can.Frame, bool) { return can.Frame{}, false }

type testClock struct {
	now uint32
}

func (c *testClock) advance(ms uint32) uint32 {
	c.now += ms
	return c.now
}

func newTestServer(t *testing.T, handlers Handlers, clock *testClock) (*Server, *fakeTransport, *fakeTransport) {
	t.Helper()
	physical := newFakeTransport()
	functional := newFakeTransport()
	cfg := Config{
		PhysicalRxID:           0x7E0,
		FunctionalRxID:         0x7DF,
		ResponseBufferCapacity: 64,
		P2Ms:                   50,
		P2StarMs:               5000,
		S3Ms:                   5000,
	}
	s, err := NewServer(cfg, handlers, fakeDriver{}, physical, functional, nil, func() uint32 { return clock.now })
	assert.NoError(t, err)
	// Advance past construction's timestamp so the first Poll call
	// satisfies "now > p2_timer" instead of ticking at the exact
	// instant p2_timer was seeded to (spec §4.1).
	clock.advance(1)
	return s, physical, functional
}

func TestSessionControlPositiveResponseEncodesTable29Timing(t *testing.T) {
	clock := &testClock{}
	handlers := Handlers{
		SessionControl: func(s *Server, sessionType uint8) NRC { return PositiveResponse },
	}
	s, physical, _ := newTestServer(t, handlers, clock)

	physical.push([]byte{0x10, 0x03})
	s.Poll()

	assert.Len(t, physical.sent, 1)
	got := physical.sent[0]
	assert.Equal(t, byte(0x50), got[0])
	assert.Equal(t, byte(0x03), got[1])
	assert.Equal(t, byte(0x00), got[2])
	assert.Equal(t, byte(0x32), got[3]) // p2Ms=50=0x0032
	p2Star := uint16(5000 / 10)
	assert.Equal(t, uint8(p2Star>>8), got[4])
	assert.Equal(t, uint8(p2Star), got[5])
	assert.Equal(t, SessionExtended, s.SessionType())
}

func TestSuppressPositiveResponseIsSilent(t *testing.T) {
	clock := &testClock{}
	handlers := Handlers{
		SessionControl: func(s *Server, sessionType uint8) NRC { return PositiveResponse },
	}
	s, physical, _ := newTestServer(t, handlers, clock)

	physical.push([]byte{0x10, 0x83}) // bit 7 set, subFunc 0x03
	s.Poll()

	assert.Empty(t, physical.sent)
	assert.Equal(t, SessionExtended, s.SessionType())
}

func TestFunctionalSilencingOnUnsupportedService(t *testing.T) {
	clock := &testClock{}
	s, _, functional := newTestServer(t, Handlers{}, clock)

	functional.push([]byte{0x22, 0xF1, 0x90}) // no RDBI handler -> NRCServiceNotSupported
	s.Poll()

	assert.Empty(t, functional.sent)
}

func TestUnknownSIDOnPhysicalRepliesNRC11(t *testing.T) {
	clock := &testClock{}
	s, physical, _ := newTestServer(t, Handlers{}, clock)

	physical.push([]byte{0x99})
	s.Poll()

	assert.Equal(t, [][]byte{{0x7F, 0x99, byte(NRCServiceNotSupported)}}, physical.sent)
}

func TestSecurityAccessLockedThenUnlockFlow(t *testing.T) {
	clock := &testClock{}
	handlers := Handlers{
		SecuritySeed: func(s *Server, level uint8, dataRecord, seedOut []byte) (int, NRC) {
			n := copy(seedOut, []byte{0xA5, 0x5A})
			return n, PositiveResponse
		},
		SecurityKey: func(s *Server, level uint8, key []byte) NRC {
			if len(key) == 2 && key[0] == 0xA5 && key[1] == 0x5A {
				return PositiveResponse
			}
			return NRCRequestSequenceError
		},
	}
	s, physical, _ := newTestServer(t, handlers, clock)

	physical.push([]byte{0x27, 0x01})
	s.Poll()
	assert.Equal(t, []byte{0x67, 0x01, 0xA5, 0x5A}, physical.sent[0])
	assert.EqualValues(t, 0, s.SecurityLevel())

	clock.advance(100)
	physical.push([]byte{0x27, 0x02, 0xA5, 0x5A})
	s.Poll()
	assert.Equal(t, []byte{0x67, 0x02}, physical.sent[1])
	assert.EqualValues(t, 1, s.SecurityLevel())
}

func TestDownloadHappyPathThenBscMismatchTeardown(t *testing.T) {
	clock := &testClock{}
	var transferred []byte
	handlers := Handlers{
		RequestDownload: func(s *Server, address, size uint64, format uint8) (*DownloadHandler, uint16, NRC) {
			return &DownloadHandler{
				OnTransfer: func(chunk []byte) NRC {
					transferred = append(transferred, chunk...)
					return PositiveResponse
				},
				OnExit: func(out []byte) (int, NRC) { return 0, PositiveResponse },
			}, 0x0082, PositiveResponse
		},
	}
	s, physical, _ := newTestServer(t, handlers, clock)

	physical.push([]byte{0x34, 0x00, 0x22, 0x12, 0x34, 0x00, 0x10})
	s.Poll()
	assert.Equal(t, []byte{0x74, 0x20, 0x00, 0x82}, physical.sent[0])
	assert.True(t, s.downloadActive())

	clock.advance(100)
	chunk := make([]byte, 16)
	physical.push(append([]byte{0x36, 0x01}, chunk...))
	s.Poll()
	assert.Equal(t, []byte{0x76, 0x01}, physical.sent[1])
	assert.Len(t, transferred, 16)

	clock.advance(100)
	physical.push(append([]byte{0x36, 0x04}, chunk...)) // wrong bsc, should be 0x02
	s.Poll()
	assert.Equal(t, []byte{0x7F, 0x36, byte(NRCRequestSequenceError)}, physical.sent[2])
	assert.False(t, s.downloadActive())
}

func TestRCRRPDeferralSequencesRealReplyAfterPending(t *testing.T) {
	clock := &testClock{}
	calls := 0
	handlers := Handlers{
		RoutineControl: func(s *Server, controlType uint8, rid uint16, dataRecord, statusOut []byte) (int, NRC) {
			calls++
			if calls == 1 {
				return 0, NRCRequestCorrectlyReceivedResponsePending
			}
			return 0, PositiveResponse
		},
	}
	s, physical, _ := newTestServer(t, handlers, clock)

	physical.push([]byte{0x31, 0x01, 0x12, 0x34})
	physical.idle = false // simulate the 0x78 frame still being transmitted
	s.Poll()

	assert.Equal(t, []byte{0x7F, 0x31, byte(NRCRequestCorrectlyReceivedResponsePending)}, physical.sent[0])
	assert.True(t, s.rcrrpInFlight)
	assert.True(t, s.notReadyToReceive)

	// No new request accepted while RCRRP is in flight and the send
	// hasn't drained yet.
	clock.advance(1000)
	physical.push([]byte{0x3E, 0x00})
	s.Poll()
	assert.Len(t, physical.sent, 1)

	physical.idle = true
	s.Poll()

	assert.Len(t, physical.sent, 2)
	assert.Equal(t, []byte{0x71, 0x01, 0x12, 0x34}, physical.sent[1])
	assert.False(t, s.rcrrpInFlight)
	assert.False(t, s.notReadyToReceive)
}

func TestS3TimeoutFiresExactlyOnceAfterNonDefaultSession(t *testing.T) {
	clock := &testClock{}
	fired := 0
	handlers := Handlers{
		SessionControl: func(s *Server, sessionType uint8) NRC { return PositiveResponse },
		SessionTimeout: func(s *Server) {
			fired++
			s.setSessionType(SessionDefault)
		},
	}
	s, physical, _ := newTestServer(t, handlers, clock)

	physical.push([]byte{0x10, 0x03})
	s.Poll()
	assert.Equal(t, SessionExtended, s.SessionType())

	clock.advance(5001)
	s.Poll()
	assert.Equal(t, 1, fired)
	assert.Equal(t, SessionDefault, s.SessionType())

	clock.advance(5001)
	s.Poll()
	assert.Equal(t, 1, fired)
}
