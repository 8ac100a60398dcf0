package uds

import (
	"log/slog"

	"github.com/tlindqvist/udsd/pkg/can"
)

// Server is the singleton-per-ECU engine state from spec §3. It holds
// no process-wide state of its own; a process hosting multiple ECUs
// constructs one Server per ECU (spec §9 "global singleton → instance
// parameter").
type Server struct {
	cfg      Config
	handlers Handlers
	logger   *slog.Logger
	now      func() uint32

	driver     can.Driver
	physical   Transport
	functional Transport

	sessionType   uint8
	securityLevel uint8

	rcrrpInFlight     bool
	notReadyToReceive bool
	ecuResetScheduled bool

	p2Timer uint32
	s3Timer uint32

	download *downloadSession

	// respBuf backs every handler's reply; reused across dispatches
	// since at most one request is in flight at a time (spec §5).
	respBuf []byte

	// pendingReq buffers the physical-link request that triggered an
	// RCRRP, so it can be replayed once the 0x78 has gone out (spec
	// §4.1 step 4, §4.2).
	pendingReq    []byte
	pendingReqLen int

	// funcReq is scratch space for a functionally-addressed receive;
	// kept alongside pendingReq so the poll loop never allocates.
	funcReq []byte

	nowMs uint32
}

// NewServer validates cfg and wires handlers, a CAN driver and the two
// ISO-TP links (physical, functional) into a fresh engine instance,
// initial session Default and no active download (spec §4.4).
func NewServer(cfg Config, handlers Handlers, driver can.Driver, physical, functional Transport, logger *slog.Logger, nowFunc func() uint32) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if driver == nil || physical == nil || functional == nil || nowFunc == nil {
		return nil, ErrIllegalArgument
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", "[UDS]")
	now := nowFunc()
	s := &Server{
		cfg:         cfg,
		handlers:    handlers,
		logger:      logger,
		now:         nowFunc,
		driver:      driver,
		physical:    physical,
		functional:  functional,
		sessionType: SessionDefault,
		p2Timer:     now,
		s3Timer:     now + cfg.S3Ms,
		respBuf:     make([]byte, cfg.ResponseBufferCapacity),
		pendingReq:  make([]byte, cfg.ResponseBufferCapacity),
		funcReq:     make([]byte, cfg.ResponseBufferCapacity),
		nowMs:       now,
	}
	return s, nil
}

// Poll drives one iteration of the cooperative engine loop (spec §4.1).
// It must be called at a cadence tight enough to honor p2_ms and the
// transport links' own timing; it never blocks.
func (s *Server) Poll() {
	s.nowMs = s.now()

	s.drainCAN()

	s.physical.Poll()
	s.functional.Poll()

	s.checkS3Timeout()

	s.processLinks()
}

// drainCAN asks the driver for at most one frame and routes it to the
// link whose configured receive ID matches (spec §4.1 step 1).
func (s *Server) drainCAN() {
	frame, ok := s.driver.Receive()
	if !ok {
		return
	}
	switch frame.ArbID & can.SffMask {
	case s.cfg.PhysicalRxID:
		s.physical.OnCANMessage(frame)
	case s.cfg.FunctionalRxID:
		s.functional.OnCANMessage(frame)
	}
}

func (s *Server) checkS3Timeout() {
	if s.sessionType == SessionDefault {
		return
	}
	if s.nowMs <= s.s3Timer {
		return
	}
	if s.handlers.SessionTimeout != nil {
		s.handlers.SessionTimeout(s)
	}
}

// processLinks implements spec §4.1 step 4 verbatim: RCRRP re-entry
// first, then the not-ready gate, then a single physical-or-functional
// receive once p2_timer has elapsed. Physical addressing has strict
// priority over functional within one tick.
func (s *Server) processLinks() {
	if s.rcrrpInFlight {
		if !s.physical.SendIdle() {
			return
		}
		s.dispatch(s.pendingReq[:s.pendingReqLen], Physical)
		s.notReadyToReceive = s.rcrrpInFlight
		return
	}

	if s.notReadyToReceive {
		return
	}

	if s.nowMs <= s.p2Timer {
		return
	}

	if n, ok := s.physical.Receive(s.pendingReq); ok {
		s.pendingReqLen = n
		s.dispatch(s.pendingReq[:n], Physical)
		s.p2Timer = s.nowMs + s.cfg.P2Ms
		return
	}

	if n, ok := s.functional.Receive(s.funcReq); ok {
		s.dispatch(s.funcReq[:n], Functional)
		s.p2Timer = s.nowMs + s.cfg.P2Ms
	}
}

// transportFor returns the Transport a given addressing scheme's reply
// must go out on.
func (s *Server) transportFor(addressing Addressing) Transport {
	if addressing == Functional {
		return s.functional
	}
	return s.physical
}
