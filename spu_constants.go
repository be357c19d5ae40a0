// spu_constants.go - SPU register map and command opcodes

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

// SPU register offsets (from SPU_BASE).
const (
	SPU_REG_RUN_MODE         = 0x00
	SPU_REG_SAMPLE_COUNTER   = 0x04
	SPU_REG_SAMPLE_RATE      = 0x08
	SPU_REG_SUBMISSION_ERROR = 0x0C
	SPU_REG_QUEUE_0          = 0x10
	SPU_REG_QUEUE_1          = 0x14
	SPU_REG_QUEUE_2          = 0x18
	SPU_REG_QUEUE_3          = 0x1C
)

const (
	SPU_RUN_MODE_STOPPED = 0
	SPU_RUN_MODE_RUN     = 1
	SPU_RUN_MODE_MASK    = 1
)

const (
	SPU_RATE_16000 = 0
	SPU_RATE_32000 = 1
	SPU_RATE_44100 = 2
	SPU_RATE_48000 = 3
	SPU_RATE_MASK  = 3
)

// Submission error codes surfaced in SPU_REG_SUBMISSION_ERROR.
const (
	SPU_ERROR_NONE              = 0
	SPU_ERROR_HEADER_NOT_IN_RAM = 1
	SPU_ERROR_LIST_NOT_IN_RAM   = 2
	SPU_ERROR_LIST_TOO_LONG     = 3
	SPU_ERROR_INVALID_COMMAND   = 4
)

// SPU command opcodes.
const (
	SPU_CMD_RESET_SAMPLE_COUNTER   = 0x00
	SPU_CMD_WAIT_SAMPLE_COUNTER    = 0x01
	SPU_CMD_WRITE_FLAG             = 0x02
	SPU_CMD_STOP                   = 0x04
	SPU_CMD_ENVELOPE_COMMAND       = 0x05
	SPU_CMD_ENVELOPE_PARAM         = 0x06
	SPU_CMD_OSCILLATOR_COMMAND     = 0x07
	SPU_CMD_OSCILLATOR_PARAM       = 0x08
	SPU_CMD_FILTER_COMMAND         = 0x09
	SPU_CMD_FILTER_PARAM           = 0x0A
	SPU_CMD_PITCH_COMMAND          = 0x0B
	SPU_CMD_PITCH_PARAM            = 0x0C
	SPU_CMD_SET_MIX                = 0x0D
	SPU_CMD_NOTE_ON                = 0x0E
	SPU_CMD_RELWAIT_SAMPLE_COUNTER = 0x0F
	SPU_CMD_SAMPLER_PARAM          = 0x10
	SPU_CMD_SAMPLER_COMMAND        = 0x11
)

// Mixing graph geometry.
const (
	NUM_VOICES       = 16
	NUM_ENVELOPES    = 16
	NUM_SAMPLERS     = 32
	NUM_MIX_CHANNELS = NUM_VOICES + NUM_SAMPLERS
	SPU_TARGET_ALL   = 0xFF
)
