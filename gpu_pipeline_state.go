// gpu_pipeline_state.go - Graphics pipeline state and its guest-RAM layout

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

A pipeline state is three sub-states read from guest RAM: the vertex state
(typed input bindings), the fragment state (depth state plus typed output
bindings) and the rasterizer state (varyings, constants, resource remaps).
*/

package main

import "math"

type ShaderCardinality uint8

const (
	CARD_SCALAR ShaderCardinality = iota
	CARD_V2
	CARD_V3
	CARD_V4
)

func ShaderCardinalityFromU8(x uint8) (ShaderCardinality, bool) {
	if x > uint8(CARD_V4) {
		return 0, false
	}
	return ShaderCardinality(x), true
}

func (c ShaderCardinality) Count() uint32 {
	return uint32(c) + 1
}

// ShaderInputType selects the (element type -> register type) conversion
// for vertex inputs and shader constants.
type ShaderInputType uint8

const (
	INPUT_UINT_FROM_U8 ShaderInputType = iota
	INPUT_UINT_FROM_U16
	INPUT_UINT_FROM_U32
	INPUT_INT_FROM_I8
	INPUT_INT_FROM_I16
	INPUT_INT_FROM_I32
	INPUT_F32_FROM_U8
	INPUT_F32_FROM_U16
	INPUT_F32_FROM_U32
	INPUT_F32_FROM_I8
	INPUT_F32_FROM_I16
	INPUT_F32_FROM_I32
	INPUT_F32_FROM_UNORM8
	INPUT_F32_FROM_UNORM16
	INPUT_F32_FROM_UNORM32
	INPUT_F32_FROM_INORM8
	INPUT_F32_FROM_INORM16
	INPUT_F32_FROM_INORM32
	INPUT_F32_FROM_F32
	numShaderInputTypes
)

func ShaderInputTypeFromU8(x uint8) (ShaderInputType, bool) {
	if x >= uint8(numShaderInputTypes) {
		return 0, false
	}
	return ShaderInputType(x), true
}

func (t ShaderInputType) ElementSize() uint32 {
	switch t {
	case INPUT_UINT_FROM_U8, INPUT_INT_FROM_I8, INPUT_F32_FROM_U8,
		INPUT_F32_FROM_I8, INPUT_F32_FROM_UNORM8, INPUT_F32_FROM_INORM8:
		return 1
	case INPUT_UINT_FROM_U16, INPUT_INT_FROM_I16, INPUT_F32_FROM_U16,
		INPUT_F32_FROM_I16, INPUT_F32_FROM_UNORM16, INPUT_F32_FROM_INORM16:
		return 2
	default:
		return 4
	}
}

// Read pulls one typed element out of a buffer as register bits.
func (t ShaderInputType) Read(bytes []byte, offset uint32) uint32 {
	switch t {
	case INPUT_UINT_FROM_U8:
		return uint32(readBytesU8(bytes, offset))
	case INPUT_UINT_FROM_U16:
		return uint32(readBytesU16(bytes, offset))
	case INPUT_UINT_FROM_U32, INPUT_INT_FROM_I32, INPUT_F32_FROM_F32:
		return readBytesU32(bytes, offset)
	case INPUT_INT_FROM_I8:
		return uint32(int32(int8(readBytesU8(bytes, offset))))
	case INPUT_INT_FROM_I16:
		return uint32(int32(int16(readBytesU16(bytes, offset))))
	case INPUT_F32_FROM_U8:
		return math.Float32bits(float32(readBytesU8(bytes, offset)))
	case INPUT_F32_FROM_U16:
		return math.Float32bits(float32(readBytesU16(bytes, offset)))
	case INPUT_F32_FROM_U32:
		return math.Float32bits(float32(readBytesU32(bytes, offset)))
	case INPUT_F32_FROM_I8:
		return math.Float32bits(float32(int8(readBytesU8(bytes, offset))))
	case INPUT_F32_FROM_I16:
		return math.Float32bits(float32(int16(readBytesU16(bytes, offset))))
	case INPUT_F32_FROM_I32:
		return math.Float32bits(float32(int32(readBytesU32(bytes, offset))))
	case INPUT_F32_FROM_UNORM8:
		return math.Float32bits(float32(readBytesU8(bytes, offset)) / math.MaxUint8)
	case INPUT_F32_FROM_UNORM16:
		return math.Float32bits(float32(readBytesU16(bytes, offset)) / math.MaxUint16)
	case INPUT_F32_FROM_UNORM32:
		return math.Float32bits(float32(readBytesU32(bytes, offset)) / math.MaxUint32)
	case INPUT_F32_FROM_INORM8:
		return math.Float32bits(float32(int8(readBytesU8(bytes, offset))) / math.MaxInt8)
	case INPUT_F32_FROM_INORM16:
		return math.Float32bits(float32(int16(readBytesU16(bytes, offset))) / math.MaxInt16)
	default: // INPUT_F32_FROM_INORM32
		return math.Float32bits(float32(int32(readBytesU32(bytes, offset))) / math.MaxInt32)
	}
}

type VertexInputAssignment struct {
	Input     uint8
	SrcBuffer uint8
	Offset    uint32
	Stride    uint32
	T         ShaderInputType
	C         ShaderCardinality
}

type ShaderConstantAssignment struct {
	Constant     uint8
	SourceBuffer uint8
	Offset       uint32
	T            ShaderInputType
	C            ShaderCardinality
}

// Interpolation is the varying interpolation mode.
type Interpolation uint8

const (
	INTERP_PROVOKING_FLAT Interpolation = iota
	INTERP_LINEAR
	INTERP_SMOOTH
	INTERP_MAX
	INTERP_MIN
	numInterpolations
)

func InterpolationFromU8(x uint8) (Interpolation, bool) {
	if x >= uint8(numInterpolations) {
		return 0, false
	}
	return Interpolation(x), true
}

// Varying type codes 0..7: F32 x1..x4, then I32 x1..x4.
type VaryingType uint8

func VaryingTypeFromU8(x uint8) (VaryingType, bool) {
	if x > 7 {
		return 0, false
	}
	return VaryingType(x), true
}

func (v VaryingType) Cardinality() uint32 {
	return uint32(v)%4 + 1
}

func (v VaryingType) IsFloat() bool {
	return v < 4
}

type RasterizerVaryingAssignment struct {
	Slot   uint8
	Type   VaryingType
	Interp Interpolation
}

type FragmentOutputType uint8

const (
	FRAGOUT_F32_TO_F32 FragmentOutputType = iota
	FRAGOUT_F32_TO_INT
	FRAGOUT_F32_TO_UINT
	FRAGOUT_F32_TO_INORM
	FRAGOUT_F32_TO_UNORM
	FRAGOUT_INT_TO_INT
	FRAGOUT_INT_TO_F32
	FRAGOUT_UINT_TO_UINT
	FRAGOUT_UINT_TO_F32
	numFragmentOutputTypes
)

func FragmentOutputTypeFromU8(x uint8) (FragmentOutputType, bool) {
	if x >= uint8(numFragmentOutputTypes) {
		return 0, false
	}
	return FragmentOutputType(x), true
}

type DepthCompareFn uint8

const (
	DEPTH_NEVER DepthCompareFn = iota
	DEPTH_ALWAYS
	DEPTH_LESS
	DEPTH_LESS_OR_EQUAL
	DEPTH_GREATER
	DEPTH_GREATER_OR_EQUAL
	numDepthCompareFns
)

func DepthCompareFnFromU8(x uint8) (DepthCompareFn, bool) {
	if x >= uint8(numDepthCompareFns) {
		return 0, false
	}
	return DepthCompareFn(x), true
}

type FragmentOutputAssignment struct {
	Output  uint8
	Texture uint8
	T       FragmentOutputType
	C       ShaderCardinality
	OffsetX uint32
	OffsetY uint32
}

type FragmentDepthState struct {
	Texture uint8
	Compare DepthCompareFn
	Write   bool
}

type VertexState struct {
	Inputs []VertexInputAssignment
}

type FragmentState struct {
	Outputs []FragmentOutputAssignment
	Depth   *FragmentDepthState
}

type RasterizerState struct {
	Varyings    []RasterizerVaryingAssignment
	Constants   []ShaderConstantAssignment
	ResourceMap ResourceMap
}

type GraphicsPipelineState struct {
	Vertex   VertexState
	Fragment FragmentState
	Raster   RasterizerState
}

func NewGraphicsPipelineState() GraphicsPipelineState {
	return GraphicsPipelineState{
		Raster: RasterizerState{ResourceMap: NewResourceMap()},
	}
}

// ReadPipelineStateFromRAM parses the three sub-state structures at addr.
func ReadPipelineStateFromRAM(addr uint32, m *Machine) (GraphicsPipelineState, bool) {
	state := NewGraphicsPipelineState()
	vertexAddr, err1 := m.ReadU32(addr)
	fragmentAddr, err2 := m.ReadU32(addr + 4)
	rasterAddr, err3 := m.ReadU32(addr + 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return state, false
	}
	if !readVertexState(vertexAddr, m, &state.Vertex) {
		return state, false
	}
	if !readFragmentState(fragmentAddr, m, &state.Fragment) {
		return state, false
	}
	if !readRasterizerState(rasterAddr, m, &state.Raster) {
		return state, false
	}
	return state, true
}

func readVertexState(addr uint32, m *Machine, out *VertexState) bool {
	arrayAddr, err1 := m.ReadU32(addr)
	count, err2 := m.ReadU8(addr + 4)
	if err1 != nil || err2 != nil {
		return false
	}
	inputs := make([]VertexInputAssignment, 0, count)
	for i := uint32(0); i < uint32(count); i++ {
		base := arrayAddr + i*12
		input, e1 := m.ReadU8(base + 0)
		srcBuffer, e2 := m.ReadU8(base + 1)
		inputType, e3 := m.ReadU8(base + 2)
		card, e4 := m.ReadU8(base + 3)
		offset, e5 := m.ReadU32(base + 4)
		stride, e6 := m.ReadU32(base + 8)
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil || e6 != nil {
			return false
		}
		t, ok1 := ShaderInputTypeFromU8(inputType)
		c, ok2 := ShaderCardinalityFromU8(card)
		if !ok1 || !ok2 {
			return false
		}
		inputs = append(inputs, VertexInputAssignment{
			Input: input, SrcBuffer: srcBuffer, Offset: offset, Stride: stride, T: t, C: c,
		})
	}
	out.Inputs = inputs
	return true
}

func readFragmentState(addr uint32, m *Machine, out *FragmentState) bool {
	depthAddr, err1 := m.ReadU32(addr + 0)
	arrayAddr, err2 := m.ReadU32(addr + 4)
	count, err3 := m.ReadU8(addr + 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	if depthAddr != 0 {
		tex, e1 := m.ReadU8(depthAddr + 0)
		cmp, e2 := m.ReadU8(depthAddr + 1)
		write, e3 := m.ReadU8(depthAddr + 2)
		if e1 != nil || e2 != nil || e3 != nil {
			return false
		}
		compareFn, ok := DepthCompareFnFromU8(cmp)
		if !ok {
			return false
		}
		out.Depth = &FragmentDepthState{Texture: tex, Compare: compareFn, Write: write != 0}
	}
	outputs := make([]FragmentOutputAssignment, 0, count)
	for i := uint32(0); i < uint32(count); i++ {
		base := arrayAddr + i*12
		output, e1 := m.ReadU8(base + 0)
		texture, e2 := m.ReadU8(base + 1)
		outputType, e3 := m.ReadU8(base + 2)
		card, e4 := m.ReadU8(base + 3)
		offsetX, e5 := m.ReadU32(base + 4)
		offsetY, e6 := m.ReadU32(base + 8)
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil || e6 != nil {
			return false
		}
		t, ok1 := FragmentOutputTypeFromU8(outputType)
		c, ok2 := ShaderCardinalityFromU8(card)
		if !ok1 || !ok2 {
			return false
		}
		outputs = append(outputs, FragmentOutputAssignment{
			Output: output, Texture: texture, T: t, C: c, OffsetX: offsetX, OffsetY: offsetY,
		})
	}
	out.Outputs = outputs
	return true
}

func readRasterizerState(addr uint32, m *Machine, out *RasterizerState) bool {
	varyingArrayAddr, err1 := m.ReadU32(addr + 0)
	constantArrayAddr, err2 := m.ReadU32(addr + 4)
	bufferMapAddr, err3 := m.ReadU32(addr + 8)
	textureMapAddr, err4 := m.ReadU32(addr + 12)
	varyingCount, err5 := m.ReadU8(addr + 16)
	constantCount, err6 := m.ReadU8(addr + 17)
	bufferMapCount, err7 := m.ReadU8(addr + 18)
	textureMapCount, err8 := m.ReadU8(addr + 19)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil ||
		err5 != nil || err6 != nil || err7 != nil || err8 != nil {
		return false
	}
	varyings := make([]RasterizerVaryingAssignment, 0, varyingCount)
	for i := uint32(0); i < uint32(varyingCount); i++ {
		base := varyingArrayAddr + i*4
		typeCode, e1 := m.ReadU8(base + 0)
		interp, e2 := m.ReadU8(base + 1)
		slot, e3 := m.ReadU8(base + 2)
		if e1 != nil || e2 != nil || e3 != nil {
			return false
		}
		interpolation, ok1 := InterpolationFromU8(interp)
		varyingType, ok2 := VaryingTypeFromU8(typeCode)
		if !ok1 || !ok2 {
			return false
		}
		varyings = append(varyings, RasterizerVaryingAssignment{
			Slot: slot, Type: varyingType, Interp: interpolation,
		})
	}
	constants := make([]ShaderConstantAssignment, 0, constantCount)
	for i := uint32(0); i < uint32(constantCount); i++ {
		base := constantArrayAddr + i*8
		offset, e1 := m.ReadU32(base + 0)
		constant, e2 := m.ReadU8(base + 4)
		sourceBuffer, e3 := m.ReadU8(base + 5)
		card, e4 := m.ReadU8(base + 6)
		inputType, e5 := m.ReadU8(base + 7)
		if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil {
			return false
		}
		c, ok1 := ShaderCardinalityFromU8(card)
		t, ok2 := ShaderInputTypeFromU8(inputType)
		if !ok1 || !ok2 {
			return false
		}
		constants = append(constants, ShaderConstantAssignment{
			Constant: constant, SourceBuffer: sourceBuffer, Offset: offset, T: t, C: c,
		})
	}
	out.Varyings = varyings
	out.Constants = constants
	out.ResourceMap = NewResourceMap()
	if bufferMapCount != 0 {
		buf := make([]byte, bufferMapCount)
		if m.ReadBlock(bufferMapAddr, buf) != nil {
			return false
		}
		copy(out.ResourceMap.Buffer[:], buf)
	}
	if textureMapCount != 0 {
		buf := make([]byte, textureMapCount)
		if m.ReadBlock(textureMapAddr, buf) != nil {
			return false
		}
		copy(out.ResourceMap.Texture[:], buf)
	}
	return true
}

// SetupShaderConstants loads constant-bank assignments out of buffers
// before a draw. Constants are uniform across invocations.
func SetupShaderConstants(constArray *ShadingUnitConstantArray, constants []ShaderConstantAssignment, rm *ResourceMap, buffers *[NUM_BUFFERS]BufferModule) {
	for _, ca := range constants {
		bytes := buffers[rm.Buffer[ca.SourceBuffer]].Bytes()
		elemSize := ca.T.ElementSize()
		if ca.C == CARD_SCALAR {
			constArray.Scalar[ca.Constant] = ca.T.Read(bytes, ca.Offset)
			continue
		}
		for c := uint32(0); c < ca.C.Count(); c++ {
			constArray.Vector[ca.Constant][c] = ca.T.Read(bytes, ca.Offset+elemSize*c)
		}
	}
}
