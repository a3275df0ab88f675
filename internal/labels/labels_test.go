package labels

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestStage(t *testing.T) {
	tests := []struct {
		code uint8
		want string
	}{
		{0, "NULL"},
		{1, "CP"},
		{4, "DECODER"},
		{7, "OM"},
		{8, Unknown},
		{255, Unknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Stage(tt.code), "stage %d", tt.code)
	}
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "IN", Direction(0))
	assert.Equal(t, "OUT", Direction(1))
	assert.Equal(t, Unknown, Direction(2))
}

func TestOpcode_Documented(t *testing.T) {
	tests := []struct {
		code uint32
		want string
	}{
		{0, "IM_SETUP_REQ"},
		{12, "IM_DEVICE_EVT_IND"},
		{263, "IMRX_AUDIO_HAL_EVT"},
		{534, "OM_VOICE_IND"},
		{768, "CP_PING_IND"},
		{1026, "CP_EVENT_IND"},
		{1287, "PP_STOP_CNF"},
		{1546, "DEC_STOP_CNF"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Opcode(tt.code), "opcode %d", tt.code)
	}
}

func TestOpcode_TableSize(t *testing.T) {
	assert.Len(t, opcodes, 68)
}

func TestProperty_OpcodeRendering(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("opcodes render to their table name or unknown", prop.ForAll(
		func(code uint32) bool {
			want, ok := opcodes[code]
			if !ok {
				want = Unknown
			}
			return Opcode(code) == want
		},
		gen.UInt32Range(0, 0x700),
	))

	properties.TestingRun(t)
}
