package uds

// handleSessionControl implements 0x10 DiagnosticSessionControl (spec
// §4.3).
func handleSessionControl(s *Server, req *request, resp *response) NRC {
	if s.handlers.SessionControl == nil {
		return NRCServiceNotSupported
	}
	sessionType := req.data[1] & 0x4F

	code := s.handlers.SessionControl(s, sessionType)
	if code != PositiveResponse {
		return code
	}

	s.setSessionType(sessionType)

	p2 := uint16(s.cfg.P2Ms)
	p2Star := uint16(s.cfg.P2StarMs / 10)
	resp.append(uint8(PositiveResponseSID(SIDDiagnosticSessionControl)), sessionType,
		uint8(p2>>8), uint8(p2), uint8(p2Star>>8), uint8(p2Star))
	return PositiveResponse
}

// handleECUReset implements 0x11 ECUReset (spec §4.3). Absence of a
// handler is treated as a programming bug (NRC 0x72), not an
// unsupported-service condition.
func handleECUReset(s *Server, req *request, resp *response) NRC {
	if len(req.data) < 2 {
		return NRCIncorrectMessageLength
	}
	if s.handlers.ECUReset == nil {
		return NRCGeneralProgrammingFailure
	}
	resetType := req.data[1] & 0x3F

	powerDownTime, hasPowerDownTime, code := s.handlers.ECUReset(s, resetType)
	if code != PositiveResponse {
		return code
	}

	s.notReadyToReceive = true
	s.ecuResetScheduled = true

	resp.append(uint8(PositiveResponseSID(SIDECUReset)), resetType)
	if resetType == 0x04 && hasPowerDownTime {
		resp.append(powerDownTime)
	}
	return PositiveResponse
}

// handleTesterPresent implements 0x3E TesterPresent (spec §4.3).
func handleTesterPresent(s *Server, req *request, resp *response) NRC {
	if len(req.data) < 2 {
		return NRCIncorrectMessageLength
	}
	s.refreshS3()
	resp.append(uint8(PositiveResponseSID(SIDTesterPresent)), req.data[1]&0x3F)
	return PositiveResponse
}

// handleControlDTCSetting implements 0x85 ControlDTCSetting (spec
// §4.3, §9 open question (i)): accepted unconditionally, no user hook.
func handleControlDTCSetting(s *Server, req *request, resp *response) NRC {
	if len(req.data) < 2 {
		return NRCIncorrectMessageLength
	}
	resp.append(uint8(PositiveResponseSID(SIDControlDTCSetting)), req.data[1]&0x3F)
	return PositiveResponse
}
