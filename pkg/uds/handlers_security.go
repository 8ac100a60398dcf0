package uds

// isReservedSecurityLevel reports whether level is a reserved
// sub-function value (0x00 or 0x7F), which never reaches a user
// callback (spec §4.3: "Sub-function validated against a 'reserved
// levels' table").
func isReservedSecurityLevel(level uint8) bool {
	return level == 0x00 || level == 0x7F
}

// handleSecurityAccess implements 0x27 SecurityAccess (spec §4.3): the
// odd sub-function requests a seed, the even sub-function validates a
// key against it.
func handleSecurityAccess(s *Server, req *request, resp *response) NRC {
	if s.handlers.SecuritySeed == nil || s.handlers.SecurityKey == nil {
		return NRCServiceNotSupported
	}
	subFunc := subFunctionValue(req.data[1])
	if isReservedSecurityLevel(subFunc) {
		return NRCIncorrectMessageLength
	}

	if subFunc%2 == 1 {
		return handleRequestSeed(s, req, resp, subFunc)
	}
	return handleSendKey(s, req, resp, subFunc)
}

func handleRequestSeed(s *Server, req *request, resp *response, level uint8) NRC {
	if !resp.append(uint8(PositiveResponseSID(SIDSecurityAccess)), level) {
		return NRCGeneralProgrammingFailure
	}
	dataRecord := req.data[2:]
	seedOut := resp.buf[resp.n:]

	n, code := s.handlers.SecuritySeed(s, level, dataRecord, seedOut)
	if code != PositiveResponse {
		return code
	}
	if n <= 0 {
		return NRCGeneralProgrammingFailure
	}
	if _, ok := resp.reserve(n); !ok {
		return NRCGeneralProgrammingFailure
	}
	return PositiveResponse
}

func handleSendKey(s *Server, req *request, resp *response, subFunc uint8) NRC {
	key := req.data[2:]
	level := subFunc - 1

	code := s.handlers.SecurityKey(s, level, key)
	if code != PositiveResponse {
		s.logger.Warn("security access key rejected", "level", level, "nrc", code)
		return code
	}

	s.logger.Info("security access unlocked", "level", level)
	s.securityLevel = level
	resp.append(uint8(PositiveResponseSID(SIDSecurityAccess)), subFunc)
	return PositiveResponse
}
