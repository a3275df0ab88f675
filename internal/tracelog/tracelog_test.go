package tracelog

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderSize(t *testing.T) {
	assert.Equal(t, HeaderSize, binary.Size(Header{}))
}

func TestPayloadSizes(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want int
	}{
		{"irq", IRQPayload{}, IRQPayloadSize},
		{"switch", SwitchPayload{}, SwitchPayloadSize},
		{"preempt", PreemptPayload{}, PreemptPayloadSize},
		{"timer call", TimerCallPayload{}, TimerCallPayloadSize},
		{"af control", AFControlPayload{}, AFControlPayloadSize},
		{"af data", AFDataPayload{}, AFDataPayloadSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, binary.Size(tt.v))
		})
	}
}

func TestPackType(t *testing.T) {
	b := PackType(TypeKernel, KernelIRQExit)
	assert.Equal(t, uint8(0x61), b)

	h := Header{TypeByte: b}
	assert.Equal(t, TypeKernel, h.Type())
	assert.Equal(t, KernelIRQExit, h.Subtype())
}

func TestCString(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"nul padded", append([]byte("idle"), make([]byte, 28)...), "idle"},
		{"no nul", []byte("worker"), "worker"},
		{"empty", make([]byte, 4), ""},
		{"garbage after nul", []byte("ab\x00cd"), "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CString(tt.in))
		})
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "thread", TypeKernel.String())
	assert.Equal(t, "audio", TypeAF.String())
	assert.Equal(t, "type9", Type(9).String())
}
