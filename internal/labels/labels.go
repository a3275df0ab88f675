// Package labels maps the numeric codes carried by audio framework records
// to the names the audio team uses in their traces.
package labels

// Unknown is rendered for codes missing from a table.
const Unknown = "unknown"

var stages = [...]string{
	0: "NULL",
	1: "CP",
	2: "IM",
	3: "ADE",
	4: "DECODER",
	5: "PPP",
	6: "PPA",
	7: "OM",
}

var directions = [...]string{
	0: "IN",
	1: "OUT",
}

// Control plane opcodes. The high byte selects the message family.
var opcodes = map[uint32]string{
	// IM
	0x000: "IM_SETUP_REQ",
	0x001: "IM_SETUP_CNF",
	0x002: "IM_OPEN_REQ",
	0x003: "IM_OPEN_CNF",
	0x004: "IM_START_REQ",
	0x005: "IM_START_CNF",
	0x006: "IM_STOP_REQ",
	0x007: "IM_STOP_CNF",
	0x008: "IM_DECODER_IND",
	0x009: "IM_DECODER_RSP",
	0x00a: "IM_CLOSE_REQ",
	0x00b: "IM_CLOSE_CNF",
	0x00c: "IM_DEVICE_EVT_IND",

	// IMRX
	0x100: "IMRX_START_REQ",
	0x101: "IMRX_START_CNF",
	0x102: "IMRX_STOP_REQ",
	0x103: "IMRX_STOP_CNF",
	0x104: "IMRX_DATA_REQ",
	0x105: "IMRX_DATA_CNF",
	0x106: "IMRX_ERROR_IND",
	0x107: "IMRX_AUDIO_HAL_EVT",

	// OM
	0x200: "OM_SETUP_REQ",
	0x201: "OM_SETUP_CNF",
	0x202: "OM_SETUP_DELAY_REQ",
	0x203: "OM_SETUP_DELAY_CNF",
	0x204: "OM_SETUP_ROUTE_REQ",
	0x205: "OM_SETUP_ROUTE_CNF",
	0x206: "OM_OPEN_REQ",
	0x207: "OM_OPEN_CNF",
	0x208: "OM_START_REQ",
	0x209: "OM_START_CNF",
	0x20a: "OM_FLUSH_REQ",
	0x20b: "OM_FLUSH_CNF",
	0x20c: "OM_STOP_REQ",
	0x20d: "OM_STOP_CNF",
	0x20e: "OM_CLOSE_REQ",
	0x20f: "OM_CLOSE_CNF",
	0x210: "OM_MUTE_REQ",
	0x211: "OM_MUTE_CNF",
	0x212: "OM_SET_PARAM_REQ",
	0x213: "OM_SET_PARAM_CNF",
	0x214: "OM_ACTIVE_IND",
	0x215: "OM_AUDIO_HAL_EVT",
	0x216: "OM_VOICE_IND",

	// CP_PING
	0x300: "CP_PING_IND",
	0x301: "CP_PING_RSP",

	// CP
	0x400: "CP_REST_CMD_REQ",
	0x401: "CP_REST_CMD_CNF",
	0x402: "CP_EVENT_IND",

	// SPP
	0x500: "PP_SETUP_REQ",
	0x501: "PP_SETUP_CNF",
	0x502: "PP_START_REQ",
	0x503: "PP_START_CNF",
	0x504: "PP_FLUSH_REQ",
	0x505: "PP_FLUSH_CNF",
	0x506: "PP_STOP_REQ",
	0x507: "PP_STOP_CNF",

	// DEC
	0x600: "DEC_START_REQ",
	0x601: "DEC_START_CNF",
	0x602: "DEC_INFO_IND",
	0x603: "DEC_INFO_RSP",
	0x604: "DEC_STATUS_IND",
	0x605: "DEC_CONFIG_REQ",
	0x606: "DEC_CONFIG_CNF",
	0x607: "DEC_FLUSH_REQ",
	0x608: "DEC_FLUSH_CNF",
	0x609: "DEC_STOP_REQ",
	0x60a: "DEC_STOP_CNF",
}

// Stage returns the pipeline stage name for code.
func Stage(code uint8) string {
	if int(code) < len(stages) {
		return stages[code]
	}
	return Unknown
}

// Direction returns IN or OUT.
func Direction(code uint8) string {
	if int(code) < len(directions) {
		return directions[code]
	}
	return Unknown
}

// Opcode returns the control message name for code, or Unknown.
func Opcode(code uint32) string {
	if name, ok := opcodes[code]; ok {
		return name
	}
	return Unknown
}
