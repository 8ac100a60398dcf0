package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/tlindqvist/udsd/pkg/uds"
)

// exampleHandlers wires up a minimal but functional capability set,
// the way the teacher's cmd/canopen wires a single domain-object
// extension as a worked example rather than a complete OD.
func exampleHandlers() uds.Handlers {
	did42 := make([]byte, 4)

	return uds.Handlers{
		SessionControl: func(s *uds.Server, sessionType uint8) uds.NRC {
			log.Infof("session control requested: %#x", sessionType)
			return uds.PositiveResponse
		},
		ECUReset: func(s *uds.Server, resetType uint8) (uint8, bool, uds.NRC) {
			log.Infof("ecu reset requested: %#x", resetType)
			return 0, false, uds.PositiveResponse
		},
		RDBI: func(s *uds.Server, did uint16) ([]byte, uds.NRC) {
			if did != 0x0042 {
				return nil, uds.NRCRequestOutOfRange
			}
			return did42, uds.PositiveResponse
		},
		WDBI: func(s *uds.Server, did uint16, data []byte) uds.NRC {
			if did != 0x0042 || len(data) != len(did42) {
				return uds.NRCRequestOutOfRange
			}
			copy(did42, data)
			return uds.PositiveResponse
		},
		SessionTimeout: func(s *uds.Server) {
			log.Info("S3 session timeout, returning to default session")
			s.SetSessionType(uds.SessionDefault)
		},
	}
}
