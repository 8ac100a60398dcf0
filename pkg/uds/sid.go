package uds

// ServiceID is the first byte of a UDS request (ISO 14229-1 Table 1).
type ServiceID uint8

const (
	SIDDiagnosticSessionControl ServiceID = 0x10
	SIDECUReset                 ServiceID = 0x11
	SIDClearDiagnosticInfo      ServiceID = 0x14
	SIDReadDTCInformation       ServiceID = 0x19
	SIDReadDataByIdentifier     ServiceID = 0x22
	SIDReadMemoryByAddress      ServiceID = 0x23
	SIDReadScalingDataByID      ServiceID = 0x24
	SIDSecurityAccess           ServiceID = 0x27
	SIDCommunicationControl     ServiceID = 0x28
	SIDReadDataByPeriodicID     ServiceID = 0x2A
	SIDDynamicallyDefineDataID  ServiceID = 0x2C
	SIDWriteDataByIdentifier    ServiceID = 0x2E
	SIDInputOutputControl       ServiceID = 0x2F
	SIDRoutineControl           ServiceID = 0x31
	SIDRequestDownload          ServiceID = 0x34
	SIDRequestUpload            ServiceID = 0x35
	SIDTransferData             ServiceID = 0x36
	SIDRequestTransferExit      ServiceID = 0x37
	SIDRequestFileTransfer      ServiceID = 0x38
	SIDWriteMemoryByAddress     ServiceID = 0x3D
	SIDTesterPresent            ServiceID = 0x3E
	SIDAccessTimingParameter    ServiceID = 0x83
	SIDSecuredDataTransmission  ServiceID = 0x84
	SIDControlDTCSetting        ServiceID = 0x85
	SIDResponseOnEvent          ServiceID = 0x86

	// negativeResponseSID (0x7F) is the first byte of every negative
	// response, never a request SID.
	negativeResponseSID ServiceID = 0x7F
	// positiveResponseOffset is added to a request SID to build the
	// corresponding positive response SID.
	positiveResponseOffset ServiceID = 0x40
)

// PositiveResponseSID returns the response SID for a positive reply to
// sid (request SID | 0x40).
func PositiveResponseSID(sid ServiceID) ServiceID {
	return sid | positiveResponseOffset
}

// subFunctionServices lists every SID whose second byte is a
// sub-function (bit 7 = suppress-positive-response flag) rather than
// service-specific data (spec §4.2).
var subFunctionServices = map[ServiceID]bool{
	SIDDiagnosticSessionControl: true,
	SIDECUReset:                 true,
	SIDReadDTCInformation:       true,
	SIDSecurityAccess:           true,
	SIDCommunicationControl:     true,
	SIDRoutineControl:           true,
	SIDTesterPresent:            true,
	SIDAccessTimingParameter:    true,
	SIDSecuredDataTransmission:  true,
	SIDControlDTCSetting:        true,
	SIDResponseOnEvent:          true,
}

// hasSubFunction reports whether sid carries a sub-function byte.
func hasSubFunction(sid ServiceID) bool {
	return subFunctionServices[sid]
}

// suppressPositiveResponseBit is bit 7 of a sub-function byte.
const suppressPositiveResponseBit uint8 = 0x80

// subFunctionValue strips the suppress-positive-response bit off a
// sub-function byte.
func subFunctionValue(b uint8) uint8 {
	return b &^ suppressPositiveResponseBit
}

func suppressPositiveResponse(b uint8) bool {
	return b&suppressPositiveResponseBit != 0
}
