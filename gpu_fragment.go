// gpu_fragment.go - Fragment stage: shader invocation, depth test, output writes

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

import "math"

type FragmentShaderCall struct {
	State         *FragmentState
	Shader        uint8
	FragmentCount int

	Context    *ShadingUnitContext
	RunContext *ShadingUnitRunContext

	Buffers  *[NUM_BUFFERS]BufferModule
	Textures *[NUM_TEXTURES]TextureModule
	Shaders  *[NUM_SHADERS]ShaderModule
	Resource *ResourceMap
}

// RunFragmentShader executes the fragment module over the batched
// fragments, applies the optional depth test and writes the declared
// outputs. Depth-failing lanes are suppressed from every output write.
func RunFragmentShader(call *FragmentShaderCall) {
	shader := &call.Shaders[call.Shader&(NUM_SHADERS-1)]
	if shader.Type != SHADER_FRAGMENT {
		return
	}
	call.Context.RunShader(shader, call.FragmentCount, call.RunContext, call.Buffers, call.Textures, call.Resource)

	var depthPass [(CORE_COUNT + 31) >> 5]uint32

	if ds := call.State.Depth; ds != nil {
		depthTexture := &call.Textures[call.Resource.Texture[ds.Texture]]
		if depthTexture.Config.PixelLayout != PIXEL_D32X1 {
			return
		}
		for f := 0; f < call.FragmentCount; f++ {
			pos := bitsToF32Vec(call.RunContext.VectorIn[FRAGMENT_VIN_BUILTIN_POSITION][f])
			depthVal := clampF32(pos[2], 0, 1)
			x := uint32(pos[0])
			y := uint32(pos[1])
			stored := math.Float32frombits(depthTexture.FetchU32(x, y))
			pass := false
			switch ds.Compare {
			case DEPTH_ALWAYS:
				pass = true
			case DEPTH_NEVER:
				pass = false
			case DEPTH_GREATER:
				pass = depthVal > stored
			case DEPTH_GREATER_OR_EQUAL:
				pass = depthVal >= stored
			case DEPTH_LESS:
				pass = depthVal < stored
			case DEPTH_LESS_OR_EQUAL:
				pass = depthVal <= stored
			}
			if pass {
				if ds.Write {
					depthTexture.StoreU32(x, y, math.Float32bits(depthVal))
				}
				depthPass[f>>5] |= 1 << (f & 31)
			}
		}
	} else {
		for i := range depthPass {
			depthPass[i] = 0xFFFFFFFF
		}
	}

	for _, output := range call.State.Outputs {
		texture := &call.Textures[call.Resource.Texture[output.Texture]]
		if output.C == CARD_SCALAR {
			writeFn, ok := scalarOutputFn(output.T, texture.Config.PixelLayout)
			if !ok {
				continue
			}
			lanes := &call.RunContext.ScalarOut[output.Output]
			for f := 0; f < call.FragmentCount; f++ {
				if depthPass[f>>5]&(1<<(f&31)) == 0 {
					continue
				}
				pos := bitsToF32Vec(call.RunContext.VectorIn[FRAGMENT_VIN_BUILTIN_POSITION][f])
				writeFn(texture, output.OffsetX+uint32(pos[0]), output.OffsetY+uint32(pos[1]), lanes[f])
			}
			continue
		}
		writeFn, ok := vectorOutputFn(output.T, output.C, texture.Config.PixelLayout)
		if !ok {
			continue
		}
		lanes := &call.RunContext.VectorOut[output.Output]
		for f := 0; f < call.FragmentCount; f++ {
			if depthPass[f>>5]&(1<<(f&31)) == 0 {
				continue
			}
			pos := bitsToF32Vec(call.RunContext.VectorIn[FRAGMENT_VIN_BUILTIN_POSITION][f])
			writeFn(texture, output.OffsetX+uint32(pos[0]), output.OffsetY+uint32(pos[1]), lanes[f])
		}
	}
}

type scalarWriteFn func(t *TextureModule, x, y uint32, value uint32)

// scalarOutputFn selects the (output type x pixel layout) store function.
// Unsupported combinations report false and the assignment is skipped.
func scalarOutputFn(t FragmentOutputType, layout PixelDataLayout) (scalarWriteFn, bool) {
	if layout.ComponentCount() != 1 {
		return nil, false
	}
	switch t {
	case FRAGOUT_F32_TO_F32:
		if layout != PIXEL_D32X1 {
			return nil, false
		}
		return func(tex *TextureModule, x, y, v uint32) { tex.StoreU32(x, y, v) }, true

	case FRAGOUT_F32_TO_INT, FRAGOUT_F32_TO_INORM:
		switch layout {
		case PIXEL_D8X1:
			return func(tex *TextureModule, x, y, v uint32) {
				tex.StoreU8(x, y, uint8(satF32ToI32(math.Float32frombits(v)*math.MaxInt8, math.MinInt8, math.MaxInt8)))
			}, true
		case PIXEL_D16X1:
			return func(tex *TextureModule, x, y, v uint32) {
				tex.StoreU16(x, y, uint16(satF32ToI32(math.Float32frombits(v)*math.MaxInt16, math.MinInt16, math.MaxInt16)))
			}, true
		default:
			return func(tex *TextureModule, x, y, v uint32) {
				tex.StoreU32(x, y, uint32(satF32ToI32(math.Float32frombits(v)*math.MaxInt32, math.MinInt32, math.MaxInt32)))
			}, true
		}

	case FRAGOUT_F32_TO_UINT, FRAGOUT_F32_TO_UNORM:
		switch layout {
		case PIXEL_D8X1:
			return func(tex *TextureModule, x, y, v uint32) {
				tex.StoreU8(x, y, uint8(satF32ToU32(math.Float32frombits(v)*math.MaxUint8, math.MaxUint8)))
			}, true
		case PIXEL_D16X1:
			return func(tex *TextureModule, x, y, v uint32) {
				tex.StoreU16(x, y, uint16(satF32ToU32(math.Float32frombits(v)*math.MaxUint16, math.MaxUint16)))
			}, true
		default:
			return func(tex *TextureModule, x, y, v uint32) {
				tex.StoreU32(x, y, satF32ToU32(math.Float32frombits(v)*math.MaxUint32, math.MaxUint32))
			}, true
		}

	case FRAGOUT_INT_TO_INT:
		switch layout {
		case PIXEL_D8X1:
			return func(tex *TextureModule, x, y, v uint32) { tex.StoreU8(x, y, uint8(v)) }, true
		case PIXEL_D16X1:
			return func(tex *TextureModule, x, y, v uint32) { tex.StoreU16(x, y, uint16(v)) }, true
		default:
			return func(tex *TextureModule, x, y, v uint32) { tex.StoreU32(x, y, v) }, true
		}

	case FRAGOUT_INT_TO_F32:
		if layout != PIXEL_D32X1 {
			return nil, false
		}
		return func(tex *TextureModule, x, y, v uint32) {
			tex.StoreU32(x, y, math.Float32bits(float32(int32(v))))
		}, true

	case FRAGOUT_UINT_TO_UINT:
		switch layout {
		case PIXEL_D8X1:
			return func(tex *TextureModule, x, y, v uint32) { tex.StoreU8(x, y, uint8(v)) }, true
		case PIXEL_D16X1:
			return func(tex *TextureModule, x, y, v uint32) { tex.StoreU16(x, y, uint16(v)) }, true
		default:
			return func(tex *TextureModule, x, y, v uint32) { tex.StoreU32(x, y, v) }, true
		}

	case FRAGOUT_UINT_TO_F32:
		if layout != PIXEL_D32X1 {
			return nil, false
		}
		return func(tex *TextureModule, x, y, v uint32) {
			tex.StoreU32(x, y, math.Float32bits(float32(v)))
		}, true
	}
	return nil, false
}

type vectorWriteFn func(t *TextureModule, x, y uint32, value [4]uint32)

// vectorOutputFn covers the multi-channel raw stores. Scalar-channel
// mismatches and unsupported conversions skip silently.
func vectorOutputFn(t FragmentOutputType, c ShaderCardinality, layout PixelDataLayout) (vectorWriteFn, bool) {
	if t != FRAGOUT_F32_TO_F32 && t != FRAGOUT_INT_TO_INT && t != FRAGOUT_UINT_TO_UINT {
		return nil, false
	}
	if layout.ComponentBytes() != 4 {
		return nil, false
	}
	n := c.Count()
	if n > layout.ComponentCount() {
		return nil, false
	}
	return func(tex *TextureModule, x, y uint32, v [4]uint32) {
		tex.StoreComponents(x, y, v, n)
	}, true
}
