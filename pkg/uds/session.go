package uds

// Diagnostic session types (ISO 14229-1 Table 27). Only the four the
// spec names are given constants; OEM-specific ranges still round-trip
// through SetSessionType/SessionType unchanged.
const (
	SessionDefault     uint8 = 0x01
	SessionProgramming uint8 = 0x02
	SessionExtended    uint8 = 0x03
	SessionSafety      uint8 = 0x04
)

// SessionType returns the server's current diagnostic session.
func (s *Server) SessionType() uint8 {
	return s.sessionType
}

// SecurityLevel returns the server's current security level (0 =
// locked).
func (s *Server) SecurityLevel() uint8 {
	return s.securityLevel
}

// ECUResetScheduled reports whether a successful 0x11 is waiting for
// the host platform to act on it (spec §3).
func (s *Server) ECUResetScheduled() bool {
	return s.ecuResetScheduled
}

// AcknowledgeECUReset clears the latched reset-scheduled flag and lifts
// not-ready-to-receive, once the host platform has acted on a
// previously successful 0x11 (e.g. it has finished quiescing whatever
// needed to quiesce before actually resetting).
func (s *Server) AcknowledgeECUReset() {
	s.ecuResetScheduled = false
	s.notReadyToReceive = s.rcrrpInFlight
}

// refreshS3 resets the session-alive deadline (spec §3 invariant 3:
// refreshed by any 0x3E, and by any 0x10 selecting a non-Default
// session).
func (s *Server) refreshS3() {
	s.s3Timer = s.nowMs + s.cfg.S3Ms
}

// SetSessionType applies a new session type, e.g. from a SessionTimeout
// callback returning the server to SessionDefault.
func (s *Server) SetSessionType(sessionType uint8) {
	s.setSessionType(sessionType)
}

// setSessionType applies a new session type, refreshing S3 if it is
// not Default (spec 0x10 handler, §9 open question (ii): the refresh
// is unconditional for every non-Default target, including
// Extended-to-Extended, which is harmless).
func (s *Server) setSessionType(sessionType uint8) {
	s.sessionType = sessionType
	if sessionType != SessionDefault {
		s.refreshS3()
	}
}
