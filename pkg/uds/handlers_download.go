package uds

// maxISOTPPDU is the ISO 15765-2 §5.3.3 maximum segmented PDU size;
// max_block_length is clamped to it regardless of what a handler
// requests (spec §4.3).
const maxISOTPPDU = 4095

// decodeBigEndian reads a big-endian unsigned integer of the given
// byte width (1..8) from b.
func decodeBigEndian(b []byte) uint64 {
	var v uint64
	for _, by := range b {
		v = v<<8 | uint64(by)
	}
	return v
}

// handleRequestDownload implements 0x34 RequestDownload (spec §4.3).
func handleRequestDownload(s *Server, req *request, resp *response) NRC {
	if s.handlers.RequestDownload == nil {
		return NRCServiceNotSupported
	}
	if len(req.data) < 3 {
		return NRCIncorrectMessageLength
	}
	if s.downloadActive() {
		return NRCConditionsNotCorrect
	}

	dataFormatIdentifier := req.data[1]
	memorySizeLength := (req.data[2] & 0xF0) >> 4
	memoryAddressLength := req.data[2] & 0x0F

	if memorySizeLength < 1 || memorySizeLength > 8 || memoryAddressLength < 1 || memoryAddressLength > 8 {
		return NRCRequestOutOfRange
	}
	if len(req.data) < 3+int(memoryAddressLength)+int(memorySizeLength) {
		return NRCIncorrectMessageLength
	}

	offset := 3
	address := decodeBigEndian(req.data[offset : offset+int(memoryAddressLength)])
	offset += int(memoryAddressLength)
	size := decodeBigEndian(req.data[offset : offset+int(memorySizeLength)])

	handler, maxBlockLength, code := s.handlers.RequestDownload(s, address, size, dataFormatIdentifier)
	if code != PositiveResponse {
		return code
	}
	if handler == nil || handler.OnTransfer == nil || handler.OnExit == nil || maxBlockLength < 3 {
		return NRCGeneralProgrammingFailure
	}
	if maxBlockLength > maxISOTPPDU {
		maxBlockLength = maxISOTPPDU
	}

	s.startDownload(size, handler, maxBlockLength)

	resp.append(uint8(PositiveResponseSID(SIDRequestDownload)), 0x20, uint8(maxBlockLength>>8), uint8(maxBlockLength))
	return PositiveResponse
}

// handleTransferData implements 0x36 TransferData (spec §4.3). The bsc
// match is skipped while re-entering after an RCRRP, since that replay
// feeds the identical request back in (spec §4.3, §4.1).
func handleTransferData(s *Server, req *request, resp *response) NRC {
	if len(req.data) < 2 {
		return NRCIncorrectMessageLength
	}
	if !s.downloadActive() {
		return NRCUploadDownloadNotAccepted
	}
	dl := s.download
	bsc := req.data[1]

	if !s.rcrrpInFlight {
		if bsc != dl.blockSeq {
			s.logger.Warn("transfer data block sequence mismatch", "expected", dl.blockSeq, "got", bsc)
			s.teardownDownload()
			return NRCRequestSequenceError
		}
		dl.nextBlockSeq()
	}

	chunk := req.data[2:]
	if dl.transferred+uint64(len(chunk)) > dl.requestedSize {
		s.teardownDownload()
		return NRCTransferDataSuspended
	}

	code := dl.handler.OnTransfer(chunk)
	if code == NRCRequestCorrectlyReceivedResponsePending {
		return code
	}
	if code != PositiveResponse {
		s.teardownDownload()
		return code
	}

	dl.transferred += uint64(len(chunk))

	resp.append(uint8(PositiveResponseSID(SIDTransferData)), bsc)
	return PositiveResponse
}

// handleRequestTransferExit implements 0x37 RequestTransferExit (spec
// §4.3).
func handleRequestTransferExit(s *Server, req *request, resp *response) NRC {
	if !s.downloadActive() {
		return NRCUploadDownloadNotAccepted
	}
	dl := s.download

	if !resp.append(uint8(PositiveResponseSID(SIDRequestTransferExit))) {
		return NRCGeneralProgrammingFailure
	}
	recordOut := resp.buf[resp.n:]

	n, code := dl.handler.OnExit(recordOut)
	if code == NRCRequestCorrectlyReceivedResponsePending {
		return code
	}
	if code != PositiveResponse {
		s.teardownDownload()
		return code
	}
	if n > 0 {
		if _, ok := resp.reserve(n); !ok {
			s.teardownDownload()
			return NRCGeneralProgrammingFailure
		}
	}

	s.teardownDownload()
	return PositiveResponse
}
