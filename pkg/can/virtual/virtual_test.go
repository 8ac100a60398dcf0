package virtual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tlindqvist/udsd/pkg/can"
)

func newVcan(channel string) *Bus {
	driver, _ := NewBus(channel)
	return driver.(*Bus)
}

func TestReceiveOwnLoopback(t *testing.T) {
	vcan1 := newVcan("localhost:18888")
	vcan1.SetReceiveOwn(true)
	defer vcan1.Disconnect()

	frame := can.Frame{ArbID: 0x111, Size: 8, Data: [8]byte{0, 1, 2, 3, 4, 5, 6, 7}}
	err := vcan1.Send(frame)
	assert.NoError(t, err)

	got, ok := vcan1.Receive()
	assert.True(t, ok)
	assert.Equal(t, frame, got)

	_, ok = vcan1.Receive()
	assert.False(t, ok, "queue should be drained after one Receive")
}

func TestReceiveOwnOrdering(t *testing.T) {
	vcan1 := newVcan("localhost:18888")
	vcan1.SetReceiveOwn(true)
	defer vcan1.Disconnect()

	for i := 0; i < 10; i++ {
		frame := can.Frame{ArbID: 0x111, Size: 8}
		frame.Data[0] = uint8(i)
		assert.NoError(t, vcan1.Send(frame))
	}
	for i := 0; i < 10; i++ {
		got, ok := vcan1.Receive()
		assert.True(t, ok)
		assert.EqualValues(t, i, got.Data[0])
	}
	_, ok := vcan1.Receive()
	assert.False(t, ok)
}

func TestDisconnectWithoutConnect(t *testing.T) {
	vcan1 := newVcan("localhost:18888")
	assert.NoError(t, vcan1.Disconnect())
}
