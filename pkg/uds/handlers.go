package uds

// Handlers is the capability set from spec §9's redesign note:
// function-pointer polymorphism becomes a struct of independently
// optional callbacks, one per user-handleable service, each with its
// own documented absence behavior (mirrors the teacher's per-entry
// AddExtension callbacks in pkg/od, which are likewise individually
// optional read/write funcs).
type Handlers struct {
	// SessionControl backs 0x10. Absence ⇒ NRC 0x11.
	SessionControl SessionControlFunc

	// ECUReset backs 0x11. Absence ⇒ NRC 0x72 (deliberate: an ECU
	// without a reset handler is a bug, not a configuration choice).
	ECUReset ECUResetFunc

	// RDBI backs 0x22, one DID at a time. Absence ⇒ NRC 0x11.
	RDBI RDBIFunc

	// WDBI backs 0x2E. Absence ⇒ NRC 0x11.
	WDBI WDBIFunc

	// CommunicationControl backs 0x28. Absence ⇒ NRC 0x11.
	CommunicationControl CommunicationControlFunc

	// RoutineControl backs 0x31. Absence ⇒ NRC 0x11.
	RoutineControl RoutineControlFunc

	// SecuritySeed and SecurityKey together back 0x27; both must be
	// present or neither is used (spec: "Both ... must be present").
	// Absence of either ⇒ NRC 0x11.
	SecuritySeed SecuritySeedFunc
	SecurityKey  SecurityKeyFunc

	// RequestDownload backs 0x34/0x36/0x37. Absence ⇒ NRC 0x11 on 0x34.
	RequestDownload RequestDownloadFunc

	// SessionTimeout is called on every Poll while S3 has elapsed in a
	// non-Default session (spec §4.1 step 3), so it fires once when it
	// returns the server to Default via SetSessionType.
	SessionTimeout func(s *Server)
}

// SessionControlFunc validates and applies a requested diagnostic
// session type (spec 0x10). It returns PositiveResponse to accept.
type SessionControlFunc func(s *Server, sessionType uint8) NRC

// ECUResetFunc executes a requested reset type (spec 0x11). When
// resetType is 0x04 (EnableRapidPowerShutDown), hasPowerDownTime should
// be true and powerDownTime set; it is appended to the positive reply.
type ECUResetFunc func(s *Server, resetType uint8) (powerDownTime uint8, hasPowerDownTime bool, code NRC)

// RDBIFunc reads one data identifier's current value (spec 0x22). A
// non-positive code aborts the whole multi-DID request.
type RDBIFunc func(s *Server, did uint16) (data []byte, code NRC)

// WDBIFunc writes one data identifier's value (spec 0x2E).
type WDBIFunc func(s *Server, did uint16, data []byte) NRC

// CommunicationControlFunc applies a communication control type (spec
// 0x28).
type CommunicationControlFunc func(s *Server, controlType uint8) NRC

// RoutineControlFunc starts/stops/polls a routine (spec 0x31). It
// writes its status record directly into statusOut (capacity-bounded
// by the response buffer) and returns how many bytes it wrote.
// Returning NRCRequestCorrectlyReceivedResponsePending yields control
// back to the poll loop, which re-invokes with the identical request
// once the 0x78 has gone out (spec §4.2, §4.4).
type RoutineControlFunc func(s *Server, controlType uint8, rid uint16, dataRecord []byte, statusOut []byte) (n int, code NRC)

// SecuritySeedFunc generates a seed for a requested security level
// (spec 0x27, odd sub-function). An already-unlocked level must return
// an all-zero seed of the nominal length; a locked level must never
// return all zeros.
type SecuritySeedFunc func(s *Server, level uint8, securityAccessDataRecord []byte, seedOut []byte) (n int, code NRC)

// SecurityKeyFunc validates a key against a previously issued seed
// (spec 0x27, even sub-function).
type SecurityKeyFunc func(s *Server, level uint8, key []byte) NRC

// RequestDownloadFunc admits a download request (spec 0x34). On
// success it must return a non-nil handler (with both callbacks set)
// and maxBlockLength >= 3; any violation becomes NRC 0x72.
type RequestDownloadFunc func(s *Server, address uint64, size uint64, dataFormatIdentifier uint8) (handler *DownloadHandler, maxBlockLength uint16, code NRC)

// DownloadHandler is supplied by RequestDownloadFunc and owned by the
// server for the lifetime of one download session (spec §3, §4.4).
type DownloadHandler struct {
	// OnTransfer consumes one TransferData chunk (spec 0x36).
	OnTransfer func(chunk []byte) NRC

	// OnExit finalizes the transfer (spec 0x37), optionally writing a
	// transferResponseParameterRecord into out and reporting its
	// length. Called on the clean path only — teardown on any error
	// does not call this (spec §4.4).
	OnExit func(out []byte) (n int, code NRC)
}
