// gpu_constants.go - GPU command opcodes and resource table geometry

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

// GPU command opcodes (u16, little-endian).
const (
	GPU_CMD_CLEAR_TEXTURE         = 0x0000
	GPU_CMD_PRESENT_TEXTURE       = 0x0001
	GPU_CMD_SET_CONSTANT_SAMPLER  = 0x0002
	GPU_CMD_SET_VIDEO_MODE        = 0x0003
	GPU_CMD_WRITE_FLAG            = 0x0004
	GPU_CMD_CONFIGURE_TEXTURE     = 0x0005
	GPU_CMD_UPLOAD_TEXTURE        = 0x0006
	GPU_CMD_CONFIGURE_BUFFER      = 0x0007
	GPU_CMD_UPLOAD_BUFFER         = 0x0008
	GPU_CMD_DIRECT_BLIT           = 0x0009
	GPU_CMD_CUTOUT_BLIT           = 0x000A
	GPU_CMD_DRAW_BLENDED_RECT     = 0x000B
	GPU_CMD_UPLOAD_SHADER         = 0x000C
	GPU_CMD_UPLOAD_PIPELINE_STATE = 0x000D
	GPU_CMD_CONFIGURE_MAPPINGS    = 0x000E
	GPU_CMD_DRAW_PIPELINE         = 0x000F
	GPU_CMD_WRITE_BUFFER          = 0x0010
)

// Resource table sizes.
const (
	NUM_TEXTURES          = 64
	NUM_BUFFERS           = 256
	NUM_CONSTANT_SAMPLERS = 64
	NUM_SHADERS           = 128
	NUM_PIPELINE_STATES   = 64
	BUFFER_MAX_SIZE       = 0x100000
)

// Shading unit geometry.
const (
	CORE_COUNT         = 0x1000 // lanes per invocation batch
	STACK_SIZE         = 0x400
	LOCAL_COUNT        = 0x20
	INPUT_OUTPUT_COUNT = 0x100
	CONST_COUNT        = 0x100

	SHADER_MAX_INSTRUCTIONS = 1024
)

// Builtin register slots.
const (
	VERTEX_SIN_BUILTIN_VERTEX_ID        = 0x00 // scalar input
	VERTEX_SIN_BUILTIN_PROVOKING_VERTEX = 0x01 // scalar input
	VERTEX_SOUT_BUILTIN_VERTEX_DISCARD  = 0x00 // scalar output
	VERTEX_VOUT_BUILTIN_VERTEX_POSITION = 0x00 // vector output

	FRAGMENT_VIN_BUILTIN_POSITION    = 0x00 // vector input
	FRAGMENT_VIN_BUILTIN_BARYCENTRIC = 0x01 // vector input
	FRAGMENT_VIN_BUILTIN_LINEAR      = 0x02 // vector input
	FRAGMENT_VIN_BUILTIN_VERTEX_IDS  = 0x03 // vector input

	SHADER_USER_SLOT_OFFSET = 0x10
)
