package uds

// Config carries the configuration from spec §6: the two links'
// receive arbitration IDs, a response scratch buffer capacity, and the
// three protocol timeouts. Link send/receive buffers themselves belong
// to the Transport implementations (pkg/isotp.Link); Config only
// describes what the server needs to own and validate itself.
type Config struct {
	// PhysicalRxID / FunctionalRxID are the arbitration IDs the CAN
	// driver's received frames are matched against to route them to
	// the physical or functional Transport (spec §4.1 step 1).
	PhysicalRxID   uint32
	FunctionalRxID uint32

	// ResponseBufferCapacity bounds every handler's positive/negative
	// reply. Must be > 2 bytes (spec §6) since even a negative
	// response is 3 bytes.
	ResponseBufferCapacity uint16

	// P2Ms is the minimum spacing enforced between consuming two
	// consecutive requests (spec §3, §4.1).
	P2Ms uint32
	// P2StarMs is the extended reply window granted after RCRRP.
	P2StarMs uint32
	// S3Ms is the session-alive timeout for non-Default sessions.
	S3Ms uint32
}

func (c Config) validate() error {
	if c.ResponseBufferCapacity <= 2 {
		return ErrBufferTooSmall
	}
	if c.PhysicalRxID == c.FunctionalRxID {
		return ErrIllegalArgument
	}
	return nil
}
