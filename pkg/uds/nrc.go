package uds

// NRC is a UDS negative response code (ISO 14229-1 Table A.1), the
// third byte of a {0x7F, SID, NRC} negative response.
type NRC uint8

const (
	// PositiveResponse is not a wire NRC; handlers return it to mean
	// "no error, send the positive reply built into resp".
	PositiveResponse NRC = 0x00

	NRCGeneralReject                           NRC = 0x10
	NRCServiceNotSupported                     NRC = 0x11
	NRCSubFunctionNotSupported                 NRC = 0x12
	NRCIncorrectMessageLength                  NRC = 0x13
	NRCConditionsNotCorrect                    NRC = 0x22
	NRCRequestSequenceError                    NRC = 0x24
	NRCRequestOutOfRange                       NRC = 0x31
	NRCUploadDownloadNotAccepted               NRC = 0x70
	NRCTransferDataSuspended                   NRC = 0x71
	NRCGeneralProgrammingFailure               NRC = 0x72
	NRCRequestCorrectlyReceivedResponsePending NRC = 0x78
	NRCServiceNotSupportedInActiveSession      NRC = 0x7E
	NRCSubFunctionNotSupportedInActiveSession  NRC = 0x7F
)

// silencedOnFunctionalAddressing is the set of NRCs that must never be
// put on the wire when the triggering request arrived functionally
// addressed (spec §4.2, §8 — "the five silencing NRCs").
var silencedOnFunctionalAddressing = map[NRC]bool{
	NRCServiceNotSupported:                    true,
	NRCSubFunctionNotSupported:                true,
	NRCServiceNotSupportedInActiveSession:     true,
	NRCSubFunctionNotSupportedInActiveSession: true,
	NRCRequestOutOfRange:                      true,
}
