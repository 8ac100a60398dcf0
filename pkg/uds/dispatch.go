package uds

// handlerFunc is the uniform shape every per-service handler conforms
// to: parse req, invoke the matching user callback, format a reply
// into resp, and return the response code governing what happens next
// (spec §4.2).
type handlerFunc func(s *Server, req *request, resp *response) NRC

// dispatchTable is the static SID → handler map (spec §4.2: "SID →
// handler table is static"), declared as a map literal.
var dispatchTable = map[ServiceID]handlerFunc{
	SIDDiagnosticSessionControl: handleSessionControl,
	SIDECUReset:                 handleECUReset,
	SIDReadDataByIdentifier:     handleRDBI,
	SIDSecurityAccess:           handleSecurityAccess,
	SIDCommunicationControl:     handleCommunicationControl,
	SIDWriteDataByIdentifier:    handleWDBI,
	SIDRoutineControl:           handleRoutineControl,
	SIDRequestDownload:          handleRequestDownload,
	SIDTransferData:             handleTransferData,
	SIDRequestTransferExit:      handleRequestTransferExit,
	SIDTesterPresent:            handleTesterPresent,
	SIDControlDTCSetting:        handleControlDTCSetting,
}

// dispatch runs one received PDU through length validation, the
// matching handler, and the response policy (spec §4.2), then hands
// the resulting bytes (if any) to the transport for the addressing
// scheme the request arrived on.
func (s *Server) dispatch(reqBytes []byte, addressing Addressing) {
	req := &request{data: reqBytes, addressing: addressing}
	resp := newResponse(s.respBuf)

	sid := req.sid()
	handler, known := dispatchTable[sid]

	var code NRC
	suppressed := false

	if !known {
		s.logger.Warn("unsupported service requested", "sid", sid, "addressing", addressing)
		code = NRCServiceNotSupported
	} else {
		if hasSubFunction(sid) && len(reqBytes) < 2 {
			code = NRCIncorrectMessageLength
		} else {
			if hasSubFunction(sid) && len(reqBytes) >= 2 {
				suppressed = suppressPositiveResponse(reqBytes[1])
			}
			code = handler(s, req, resp)
		}
	}

	s.applyResponsePolicy(req, resp, sid, code, suppressed)
}

// applyResponsePolicy implements spec §4.2's post-handler rules:
// functional silencing, suppress-positive-response silencing, RCRRP
// deferral, or verbatim transmission.
func (s *Server) applyResponsePolicy(req *request, resp *response, sid ServiceID, code NRC, suppressed bool) {
	transport := s.transportFor(req.addressing)

	if req.addressing == Functional && silencedOnFunctionalAddressing[code] {
		return
	}

	if code == NRCRequestCorrectlyReceivedResponsePending {
		pending := newResponse(s.respBuf)
		negativeResponse(pending.buf, sid, NRCRequestCorrectlyReceivedResponsePending)
		pending.n = 3
		s.logger.Info("deferring response pending", "sid", sid)
		if req.addressing == Physical {
			s.rcrrpInFlight = true
			s.notReadyToReceive = true
			s.pendingReqLen = copy(s.pendingReq, req.data)
		}
		_ = transport.Send(pending.bytes())
		return
	}

	if code == PositiveResponse {
		if suppressed {
			s.rcrrpInFlight = false
			return
		}
		if s.rcrrpInFlight {
			s.logger.Info("response pending resolved", "sid", sid)
		}
		s.rcrrpInFlight = false
		_ = transport.Send(resp.bytes())
		return
	}

	if s.rcrrpInFlight {
		s.logger.Info("response pending resolved negatively", "sid", sid, "nrc", code)
	}
	s.rcrrpInFlight = false
	out := newResponse(s.respBuf)
	out.n = negativeResponse(out.buf, sid, code)
	_ = transport.Send(out.bytes())
}
