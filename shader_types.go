// shader_types.go - Shading unit instruction model

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

type ShaderType uint8

const (
	SHADER_VERTEX ShaderType = iota
	SHADER_FRAGMENT
	SHADER_COMPUTE
)

func ShaderTypeFromU8(x uint8) (ShaderType, bool) {
	if x > uint8(SHADER_COMPUTE) {
		return 0, false
	}
	return ShaderType(x), true
}

// Register banks. Local and Output are writable; Input and Constant are
// read-only from shader code. Constant reads are uniform across lanes.
type RegBank uint8

const (
	REG_LOCAL RegBank = iota
	REG_INPUT
	REG_OUTPUT
	REG_CONSTANT
)

type RegAddr struct {
	Bank  RegBank
	Index uint8
}

// Vector channel selectors.
const (
	CHANNEL_X = 0
	CHANNEL_Y = 1
	CHANNEL_Z = 2
	CHANNEL_W = 3
)

// Comparison codes as encoded in bytecode.
const (
	CMP_EQUAL = iota
	CMP_NOT_EQUAL
	CMP_GREATER_THAN
	CMP_LESS_THAN_OR_EQUAL
	numComparisons
)

// Execution-level instruction kinds.
type ShaderOp uint8

const (
	OP_NOP ShaderOp = iota
	OP_PUSH_VECTOR
	OP_PUSH_SCALAR
	OP_POP_VECTOR
	OP_POP_SCALAR
	OP_COPY_VECTOR
	OP_COPY_SCALAR
	OP_COND_COPY_VECTOR
	OP_COND_COPY_SCALAR
	OP_COPY_VECTOR_COMPONENT_TO_SCALAR
	OP_COND_COPY_VECTOR_COMPONENT_TO_SCALAR
	OP_COPY_SCALAR_TO_VECTOR_COMPONENT
	OP_COND_COPY_SCALAR_TO_VECTOR_COMPONENT
	OP_COPY_SCALAR_TO_VECTOR_MASKED
	OP_READ_BUFFER_TO_VECTOR
	OP_WRITE_VECTOR_TO_BUFFER
	OP_COND_WRITE_VECTOR_TO_BUFFER
	OP_READ_BUFFER_TO_SCALAR
	OP_WRITE_SCALAR_TO_BUFFER
	OP_COND_WRITE_SCALAR_TO_BUFFER
	OP_LOAD_TEXTURE_VECTOR
	OP_LOAD_TEXTURE_SCALAR
	OP_SCALAR_UNARY
	OP_SCALAR_BINARY
	OP_SCALAR_TERNARY
	OP_VECTOR_UNARY
	OP_VECTOR_BINARY
	OP_VECTOR_TERNARY
	OP_VECTOR_UNARY_MASKED
	OP_VECTOR_BINARY_MASKED
	OP_VECTOR_TERNARY_MASKED
	OP_VECTOR_TO_VECTOR_UNARY
	OP_VECTOR_TO_SCALAR_UNARY
	OP_MATRIX_MULTIPLY_M44_V4
)

// Scalar unary operation selectors.
const (
	UNARY_CONVERT_F32_TO_I32 = iota
	UNARY_CONVERT_F32_TO_U32
	UNARY_CONVERT_U32_TO_F32
	UNARY_CONVERT_I32_TO_F32
	UNARY_NEGATE_F32
	UNARY_NEGATE_I32
	UNARY_SIGN_F32
	UNARY_SIGN_I32
	UNARY_RECIPROCAL
	UNARY_SIN
	UNARY_COS
	UNARY_TAN
	UNARY_ASIN
	UNARY_ACOS
	UNARY_ATAN
	UNARY_LN
	UNARY_EXP
)

// Scalar binary operation selectors. Comparisons carry the comparison code
// in ShaderInstruction.Cmp and produce 0 or 1.
const (
	BINARY_COMPARE_F32 = iota
	BINARY_COMPARE_I32
	BINARY_COMPARE_U32
	BINARY_ADD_F32
	BINARY_ADD_I32
	BINARY_SUB_F32
	BINARY_SUB_I32
	BINARY_MUL_F32
	BINARY_MUL_I32
	BINARY_DIV_F32
	BINARY_DIV_I32
	BINARY_MOD_F32
	BINARY_MOD_I32
	BINARY_ATAN2
	BINARY_AND
	BINARY_AND_NOT
	BINARY_OR
	BINARY_XOR
)

// Ternary operation selectors.
const (
	TERNARY_FMA_F32 = iota
	TERNARY_FMA_I32
)

// Vector-to-vector / vector-to-scalar selectors.
const (
	VECOP_NORMALIZE2 = iota
	VECOP_NORMALIZE3
	VECOP_NORMALIZE4
	VECOP_MAGNITUDE2
	VECOP_MAGNITUDE3
	VECOP_MAGNITUDE4
)

// Buffer element widths for typed loads.
const (
	BUFELEM_D8 = iota
	BUFELEM_D16
	BUFELEM_D32
)

// Buffer write encodings.
const (
	BUFWRITE_I8 = iota
	BUFWRITE_I16
	BUFWRITE_I32
	BUFWRITE_U8
	BUFWRITE_U16
	BUFWRITE_U32
	BUFWRITE_INORM8
	BUFWRITE_INORM16
	BUFWRITE_INORM32
	BUFWRITE_UNORM8
	BUFWRITE_UNORM16
	BUFWRITE_UNORM32
	BUFWRITE_F32
)

// Texture load conversions.
const (
	TEXLOAD_F32_FROM_INORM = iota
	TEXLOAD_F32_FROM_UNORM
	TEXLOAD_F32_FROM_INT
	TEXLOAD_F32_FROM_UINT
	TEXLOAD_F32_FROM_F32
	TEXLOAD_I32_FROM_INT
	TEXLOAD_I32_FROM_UINT
	TEXLOAD_I32_FROM_F32
)

// ShaderInstruction is one decoded instruction. Field use depends on Op;
// Resource indexes a buffer or texture through the draw's resource map.
type ShaderInstruction struct {
	Op   ShaderOp
	Dst  RegAddr
	SrcA RegAddr
	SrcB RegAddr
	SrcC RegAddr
	Cond RegAddr

	Channel uint8
	Mask    uint8

	Resource uint8
	Offset   uint32
	AddrReg  RegAddr
	HasAddr  bool

	Elem    uint8 // BUFELEM_* / BUFWRITE_* / TEXLOAD_*
	Card    uint8 // component count 1..4 for buffer transfers
	Unary   uint8
	Binary  uint8
	Cmp     uint8
	Ternary uint8
	VecOp   uint8

	MatRows [4]RegAddr // matrix-multiply row registers
}

// ShaderModule is one shader slot: a bounded decoded program. The default
// module is all Nop.
type ShaderModule struct {
	Type         ShaderType
	Instructions [SHADER_MAX_INSTRUCTIONS]ShaderInstruction
	Count        int
}

// ResourceMap remaps shader-visible resource slots onto the device tables.
// The default map is the identity.
type ResourceMap struct {
	Buffer  [NUM_BUFFERS]uint8
	Texture [NUM_TEXTURES]uint8
}

func NewResourceMap() ResourceMap {
	var rm ResourceMap
	for i := range rm.Buffer {
		rm.Buffer[i] = uint8(i)
	}
	for i := range rm.Texture {
		rm.Texture[i] = uint8(i)
	}
	return rm
}
