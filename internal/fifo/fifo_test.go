package fifo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteFillsAndStops(t *testing.T) {
	f := NewFifo(8)
	n := f.Write([]byte{1, 2, 3})
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, f.Occupied())

	n = f.Write(make([]byte, 20))
	assert.Equal(t, 4, n, "circular buffer keeps one slot free to disambiguate full from empty")
}

func TestReadDrainsWhatWasWritten(t *testing.T) {
	f := NewFifo(8)
	f.Write([]byte{1, 2, 3, 4})

	out := make([]byte, 2)
	n := f.Read(out)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{1, 2}, out)
	assert.Equal(t, 2, f.Occupied())
}

func TestReadAllDrainsEverything(t *testing.T) {
	f := NewFifo(8)
	f.Write([]byte{9, 8, 7})
	assert.Equal(t, []byte{9, 8, 7}, f.ReadAll())
	assert.Equal(t, 0, f.Occupied())
}

func TestResetDiscardsBufferedBytes(t *testing.T) {
	f := NewFifo(8)
	f.Write([]byte{1, 2, 3})
	f.Reset()
	assert.Equal(t, 0, f.Occupied())
	assert.Equal(t, 7, f.Space())
}

func TestWrapAround(t *testing.T) {
	f := NewFifo(4)
	f.Write([]byte{1, 2, 3})
	f.Read(make([]byte, 2))
	n := f.Write([]byte{4, 5})
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{3, 4, 5}, f.ReadAll())
}
