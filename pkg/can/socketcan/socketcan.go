// Package socketcan wraps github.com/brutella/can to talk to a real
// Linux SocketCAN interface. Adapted from the teacher's
// pkg/can/socketcan wrapper: the brutella bus and frame conversion are
// kept, but reception is buffered into an internal queue instead of
// forwarding straight into a push callback, so Receive can satisfy the
// pull-based can.Driver interface.
package socketcan

import (
	"sync"

	sockcan "github.com/brutella/can"
	log "github.com/sirupsen/logrus"

	"github.com/tlindqvist/udsd/pkg/can"
)

func init() {
	can.RegisterInterface("socketcan", NewBus)
}

type Bus struct {
	bus     *sockcan.Bus
	mu      sync.Mutex
	pending []can.Frame
}

func NewBus(name string) (can.Driver, error) {
	bus, err := sockcan.NewBusForInterfaceWithName(name)
	if err != nil {
		return nil, err
	}
	b := &Bus{bus: bus}
	bus.Subscribe(b)
	return b, nil
}

// Handle implements brutella/can's frame-handler interface.
func (b *Bus) Handle(frame sockcan.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, can.Frame{
		ArbID: frame.ID,
		Size:  frame.Length,
		Data:  frame.Data,
	})
}

func (b *Bus) Connect() error {
	go func() {
		if err := b.bus.ConnectAndPublish(); err != nil {
			log.WithError(err).Warn("socketcan: bus reader exited")
		}
	}()
	return nil
}

func (b *Bus) Disconnect() error {
	return b.bus.Disconnect()
}

func (b *Bus) Send(frame can.Frame) error {
	return b.bus.Publish(sockcan.Frame{
		ID:     frame.ArbID,
		Length: frame.Size,
		Data:   frame.Data,
	})
}

// Receive pops the oldest queued frame, if any. Non-blocking.
func (b *Bus) Receive() (can.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return can.Frame{}, false
	}
	frame := b.pending[0]
	b.pending = b.pending[1:]
	return frame, true
}
