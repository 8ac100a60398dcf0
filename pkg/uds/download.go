package uds

// downloadSession holds the per-transfer state owned by the server
// between a positive 0x34 and the session's eventual teardown (spec
// §3, §4.4). Grounded on the teacher's SDOServer transfer bookkeeping
// (pkg/sdo/server.go: sizeIndicated/sizeTransferred/finished), reduced
// to the much smaller surface UDS download actually needs — no CRC, no
// block/segmented sub-protocols, just a byte counter and a wrapping
// sequence counter.
type downloadSession struct {
	requestedSize  uint64
	transferred    uint64
	blockSeq       uint8
	maxBlockLength uint16
	handler        *DownloadHandler
}

// downloadActive reports whether a download session currently owns the server
// (spec §3 invariant 1).
func (s *Server) downloadActive() bool {
	return s.download != nil
}

// startDownload initializes a fresh session (0x34 success path).
func (s *Server) startDownload(requestedSize uint64, handler *DownloadHandler, maxBlockLength uint16) {
	s.logger.Info("download session started", "requestedSize", requestedSize, "maxBlockLength", maxBlockLength)
	s.download = &downloadSession{
		requestedSize:  requestedSize,
		transferred:    0,
		blockSeq:       1,
		maxBlockLength: maxBlockLength,
		handler:        handler,
	}
}

// teardownDownload ends the session, clean or not. Per spec §4.4, no
// destructor is called on the handler — the user owns those resources
// and learns of the clean path only via OnExit.
func (s *Server) teardownDownload() {
	if s.download != nil {
		s.logger.Info("download session torn down", "transferred", s.download.transferred)
	}
	s.download = nil
}

// nextBlockSeq returns the session's current expected block sequence
// counter and advances it, wrapping modulo 256 (spec §3, §9 open
// question (iv)).
func (d *downloadSession) nextBlockSeq() uint8 {
	current := d.blockSeq
	d.blockSeq++
	return current
}
