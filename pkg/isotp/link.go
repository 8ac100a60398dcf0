// Package isotp implements a single ISO 15765-2 ("ISO-TP") transport
// link: segmentation and reassembly of UDS PDUs over classic 8-byte
// CAN frames. It is a reference implementation of the Transport
// collaborator the dispatch engine (pkg/uds) depends on — grounded on
// the teacher's circular-FIFO reassembly idiom (internal/fifo,
// originally used by the SDO block-transfer path) and its
// BusManager-style "hand it a raw CAN frame, it drives its own state"
// shape (pkg/nmt.NMT.Handle / pkg/sdo.SDOServer.Handle).
package isotp

import (
	"fmt"
	"log/slog"

	"github.com/tlindqvist/udsd/internal/fifo"
	"github.com/tlindqvist/udsd/pkg/can"
)

const (
	pciTypeSingle      = 0x0
	pciTypeFirst       = 0x1
	pciTypeConsecutive = 0x2
	pciTypeFlowControl = 0x3

	fcContinue = 0x0
	fcWait     = 0x1
	fcOverflow = 0x2

	// MaxPDU is the ISO 15765-2 §5.3.3 classic-CAN payload ceiling.
	MaxPDU = 4095
)

type sendState uint8

const (
	sendIdle sendState = iota
	sendAwaitingFC
	sendSegmenting
)

// Link is one physical- or functional-addressed ISO-TP connection. It
// implements uds.Transport structurally (no import of pkg/uds is
// needed — the method set matches by shape).
type Link struct {
	logger *slog.Logger
	driver can.Driver
	txID   uint32

	// Reassembly (receive direction)
	rx           *fifo.Fifo
	rxExpected   int
	rxSN         uint8
	rxComplete   bool
	rxInProgress bool

	// Segmentation (send direction)
	state      sendState
	sendBuf    []byte
	sendOffset int
	sendSN     uint8
	blockSize  uint8
	blockCount uint8
	stMin      uint8
}

// NewLink constructs a Link that transmits via driver using txID as
// the outgoing arbitration ID, and reassembles incoming frames into a
// buffer sized for one MaxPDU-sized request.
func NewLink(logger *slog.Logger, driver can.Driver, txID uint32) *Link {
	if logger == nil {
		logger = slog.Default()
	}
	return &Link{
		logger: logger.With("component", "isotp"),
		driver: driver,
		txID:   txID,
		rx:     fifo.NewFifo(MaxPDU + 1),
	}
}

// OnCANMessage feeds one received CAN frame into the link's state
// machine. Frames shorter than a full PCI byte are dropped.
func (l *Link) OnCANMessage(frame can.Frame) {
	if frame.Size == 0 {
		return
	}
	pci := frame.Data[0] >> 4
	switch pci {
	case pciTypeSingle:
		l.onSingleFrame(frame)
	case pciTypeFirst:
		l.onFirstFrame(frame)
	case pciTypeConsecutive:
		l.onConsecutiveFrame(frame)
	case pciTypeFlowControl:
		l.onFlowControl(frame)
	}
}

func (l *Link) onSingleFrame(frame can.Frame) {
	length := int(frame.Data[0] & 0x0F)
	if length == 0 || length > 7 {
		return
	}
	l.rx.Reset()
	l.rx.Write(frame.Data[1 : 1+length])
	l.rxInProgress = false
	l.rxComplete = true
}

func (l *Link) onFirstFrame(frame can.Frame) {
	length := int(frame.Data[0]&0x0F)<<8 | int(frame.Data[1])
	if length <= 7 || length > MaxPDU {
		return
	}
	l.rx.Reset()
	l.rx.Write(frame.Data[2:8])
	l.rxExpected = length
	l.rxSN = 1
	l.rxInProgress = true
	l.rxComplete = false

	// Immediately grant flow control: BS=0 (send it all), STmin=0.
	fc := can.NewFrame(l.txID, 3)
	fc.Data[0] = pciTypeFlowControl<<4 | fcContinue
	fc.Data[1] = 0
	fc.Data[2] = 0
	if err := l.driver.Send(fc); err != nil {
		l.logger.Warn("failed to send flow control", "error", err)
	}
}

func (l *Link) onConsecutiveFrame(frame can.Frame) {
	if !l.rxInProgress {
		return
	}
	sn := frame.Data[0] & 0x0F
	if sn != l.rxSN {
		l.logger.Warn("consecutive frame sequence error, dropping reassembly", "got", sn, "want", l.rxSN)
		l.rxInProgress = false
		l.rx.Reset()
		return
	}
	remaining := l.rxExpected - l.rx.Occupied()
	n := remaining
	if n > 7 {
		n = 7
	}
	if n > 0 {
		l.rx.Write(frame.Data[1 : 1+n])
	}
	l.rxSN = (sn + 1) & 0x0F
	if l.rx.Occupied() >= l.rxExpected {
		l.rxInProgress = false
		l.rxComplete = true
	}
}

func (l *Link) onFlowControl(frame can.Frame) {
	flowStatus := frame.Data[0] & 0x0F
	switch flowStatus {
	case fcContinue:
		l.blockSize = frame.Data[1]
		l.stMin = frame.Data[2]
		if l.state == sendAwaitingFC {
			l.state = sendSegmenting
			l.blockCount = 0
		}
	case fcWait:
		// Stay awaiting; sender must wait for another FC.
	case fcOverflow:
		l.abortSend()
	}
}

// Poll drains queued consecutive frames once flow control has been
// granted. It never blocks.
func (l *Link) Poll() {
	if l.state != sendSegmenting {
		return
	}
	for l.sendOffset < len(l.sendBuf) {
		if l.blockSize > 0 && l.blockCount >= l.blockSize {
			l.state = sendAwaitingFC
			return
		}
		n := len(l.sendBuf) - l.sendOffset
		if n > 7 {
			n = 7
		}
		frame := can.NewFrame(l.txID, uint8(1+n))
		frame.Data[0] = pciTypeConsecutive<<4 | l.sendSN
		copy(frame.Data[1:], l.sendBuf[l.sendOffset:l.sendOffset+n])
		if err := l.driver.Send(frame); err != nil {
			l.logger.Warn("failed to send consecutive frame", "error", err)
			l.abortSend()
			return
		}
		l.sendOffset += n
		l.sendSN = (l.sendSN + 1) & 0x0F
		l.blockCount++
	}
	l.state = sendIdle
	l.sendBuf = nil
}

func (l *Link) abortSend() {
	l.state = sendIdle
	l.sendBuf = nil
}

// Send transmits a complete PDU. Payloads of 7 bytes or fewer go out
// as a single frame immediately; longer payloads start a multi-frame
// transfer that Poll/OnCANMessage continue across subsequent ticks.
func (l *Link) Send(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("isotp: empty payload")
	}
	if len(data) > MaxPDU {
		return fmt.Errorf("isotp: payload %d exceeds MaxPDU %d", len(data), MaxPDU)
	}
	if l.state != sendIdle {
		return fmt.Errorf("isotp: send already in progress")
	}

	if len(data) <= 7 {
		frame := can.NewFrame(l.txID, uint8(1+len(data)))
		frame.Data[0] = pciTypeSingle<<4 | uint8(len(data))
		copy(frame.Data[1:], data)
		return l.driver.Send(frame)
	}

	frame := can.NewFrame(l.txID, 8)
	frame.Data[0] = pciTypeFirst<<4 | uint8((len(data)>>8)&0x0F)
	frame.Data[1] = uint8(len(data) & 0xFF)
	copy(frame.Data[2:], data[:6])
	if err := l.driver.Send(frame); err != nil {
		return err
	}
	l.sendBuf = data
	l.sendOffset = 6
	l.sendSN = 1
	l.state = sendAwaitingFC
	return nil
}

// Receive copies a complete reassembled PDU into buf, reporting false
// if none is pending. A PDU too large for buf is truncated: Receive
// copies what fits, discards the rest and reports the number of bytes
// copied.
func (l *Link) Receive(buf []byte) (int, bool) {
	if !l.rxComplete {
		return 0, false
	}
	n := copy(buf, l.rx.ReadAll())
	l.rxComplete = false
	return n, true
}

// SendIdle reports whether any in-progress multi-frame send has fully
// completed (or none was ever started). Single-frame sends are always
// idle immediately since Send returns only once the frame is on the
// driver.
func (l *Link) SendIdle() bool {
	return l.state == sendIdle
}
