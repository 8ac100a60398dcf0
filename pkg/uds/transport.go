package uds

import "github.com/tlindqvist/udsd/pkg/can"

// Transport is the ISO-TP link collaborator from spec §6: segments and
// reassembles UDS PDUs over a sequence of CAN frames on one
// addressing scheme (physical or functional). The engine holds exactly
// two of these, never speaking CAN directly itself.
type Transport interface {
	// OnCANMessage feeds one received CAN frame (already filtered by
	// arbitration ID) into the link's reassembly state machine.
	OnCANMessage(frame can.Frame)

	// Poll advances internal timers / flow-control bookkeeping. Must
	// not block and must not itself consume a complete request.
	Poll()

	// Send transmits a complete PDU, segmenting it as needed.
	Send(data []byte) error

	// Receive copies a complete, reassembled request PDU into buf and
	// reports its length. ok is false when no complete request is
	// pending. The link's internal "have a complete PDU" flag is
	// cleared by a successful Receive.
	Receive(buf []byte) (n int, ok bool)

	// SendIdle reports whether the link's transmit queue has drained,
	// i.e. whether a previously started Send has fully gone out on the
	// bus. The poll loop uses this to detect when an RCRRP negative
	// response has actually been transmitted before re-entering
	// dispatch (spec §4.1, §4.2).
	SendIdle() bool
}
