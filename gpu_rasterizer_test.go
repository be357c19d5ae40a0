// gpu_rasterizer_test.go - Rasterizer coverage, varyings and depth tests

package main

import (
	"encoding/binary"
	"math"
	"testing"
)

// setupDraw prepares a core with a vertex-position buffer, a pass-through
// vertex shader (module 0) and a fragment shader (module 1) that copies
// its scalar varying 0x10 to the scalar output 0x10.
func setupDraw(t *testing.T, core *GpuCore, positions [][2]float32) {
	t.Helper()
	buf := make([]byte, 0, len(positions)*16)
	for _, p := range positions {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(p[0]))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(p[1]))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(0))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(1))
	}
	core.buffers[0].Configure(uint32(len(buf)))
	copy(core.buffers[0].Bytes(), buf)

	// Vertex shader: position passthrough plus the vertex id (converted
	// to F32) into scalar varying slot 0x10.
	vert := &core.shaders[0]
	*vert = ShaderModule{Type: SHADER_VERTEX}
	vert.Instructions[0] = ShaderInstruction{
		Op:   OP_COPY_VECTOR,
		Dst:  RegAddr{REG_OUTPUT, 0x00},
		SrcA: RegAddr{REG_INPUT, 0x10},
	}
	vert.Instructions[1] = ShaderInstruction{
		Op:    OP_SCALAR_UNARY,
		Unary: UNARY_CONVERT_U32_TO_F32,
		Dst:   RegAddr{REG_OUTPUT, 0x10},
		SrcA:  RegAddr{REG_INPUT, VERTEX_SIN_BUILTIN_VERTEX_ID},
	}
	vert.Count = 2

	frag := &core.shaders[1]
	*frag = ShaderModule{Type: SHADER_FRAGMENT}
	frag.Instructions[0] = ShaderInstruction{
		Op:   OP_COPY_SCALAR,
		Dst:  RegAddr{REG_OUTPUT, 0x10},
		SrcA: RegAddr{REG_INPUT, 0x10},
	}
	frag.Count = 1

	state := NewGraphicsPipelineState()
	state.Vertex.Inputs = []VertexInputAssignment{{
		Input: 0x10, SrcBuffer: 0, Offset: 0, Stride: 16,
		T: INPUT_F32_FROM_F32, C: CARD_V4,
	}}
	state.Fragment.Outputs = []FragmentOutputAssignment{{
		Output: 0x10, Texture: 0, T: FRAGOUT_F32_TO_F32, C: CARD_SCALAR,
	}}
	core.states[0] = state
}

func drawCmd(vertexCount uint32, rectW, rectH uint16) GpuCommand {
	return GpuCommand{
		Op:         GPU_CMD_DRAW_PIPELINE,
		StateIndex: 0, FragmentShader: 1, VertexShader: 0,
		VertexCount: vertexCount,
		XLow:        0, XHigh: rectW, YLow: 0, YHigh: rectH,
	}
}

func configureF32Target(core *GpuCore, w, h uint16) {
	core.textures[0].Configure(TextureConfig{
		PixelLayout: PIXEL_D32X1,
		ImageLayout: IMAGE_CONTIGUOUS,
		Width:       w,
		Height:      h,
	})
}

func TestRasterizerCoverage(t *testing.T) {
	core, _, _, _ := newTestCore()
	// Right triangle covering the upper-left half of an 8x8 rect.
	setupDraw(t, core, [][2]float32{{-1, -1}, {1, -1}, {-1, 1}})
	configureF32Target(core, 8, 8)
	// Preload a sentinel so covered pixels are observable.
	core.textures[0].Clear([4]float32{-1, 0, 0, 0})

	cmd := drawCmd(3, 8, 8)
	core.executeCommand(&cmd)

	sentinel := math.Float32bits(-1)
	for y := uint32(0); y < 8; y++ {
		for x := uint32(0); x < 8; x++ {
			covered := core.textures[0].FetchU32(x, y) != sentinel
			wantCovered := x+y <= 8
			if covered != wantCovered {
				t.Errorf("pixel (%d,%d): covered=%v, want %v", x, y, covered, wantCovered)
			}
		}
	}
}

func TestVertexDiscardSkipsTriangle(t *testing.T) {
	core, _, _, _ := newTestCore()
	setupDraw(t, core, [][2]float32{{-1, -1}, {1, -1}, {-1, 1}})
	// Discard every vertex.
	vert := &core.shaders[0]
	vert.Instructions[vert.Count] = ShaderInstruction{
		Op:   OP_COPY_SCALAR,
		Dst:  RegAddr{REG_OUTPUT, VERTEX_SOUT_BUILTIN_VERTEX_DISCARD},
		SrcA: RegAddr{REG_CONSTANT, 0x7F},
	}
	vert.Count++
	core.shaderConstants.Scalar[0x7F] = 1

	configureF32Target(core, 8, 8)
	core.textures[0].Clear([4]float32{-1, 0, 0, 0})
	cmd := drawCmd(3, 8, 8)
	core.executeCommand(&cmd)

	sentinel := math.Float32bits(-1)
	for y := uint32(0); y < 8; y++ {
		for x := uint32(0); x < 8; x++ {
			if core.textures[0].FetchU32(x, y) != sentinel {
				t.Fatalf("discarded triangle must not rasterize, pixel (%d,%d) written", x, y)
			}
		}
	}
}

func varyingTestDraw(t *testing.T, core *GpuCore, interp Interpolation) {
	t.Helper()
	setupDraw(t, core, [][2]float32{{-1, -1}, {1, -1}, {-1, 1}})
	core.states[0].Raster.Varyings = []RasterizerVaryingAssignment{{
		Slot: 0x10, Type: 0, Interp: interp, // F32 scalar
	}}
	configureF32Target(core, 8, 8)
	core.textures[0].Clear([4]float32{-1, 0, 0, 0})
	cmd := drawCmd(3, 8, 8)
	core.executeCommand(&cmd)
}

func TestVaryingProvokingFlat(t *testing.T) {
	core, _, _, _ := newTestCore()
	varyingTestDraw(t, core, INTERP_PROVOKING_FLAT)
	// Vertex 0's id is 0.0 everywhere.
	if got := math.Float32frombits(core.textures[0].FetchU32(1, 1)); got != 0 {
		t.Errorf("flat varying must copy vertex 0, got %f", got)
	}
}

func TestVaryingMaxExtremum(t *testing.T) {
	core, _, _, _ := newTestCore()
	varyingTestDraw(t, core, INTERP_MAX)
	// Max of ids {0, 1, 2} is 2.0 at every fragment.
	if got := math.Float32frombits(core.textures[0].FetchU32(2, 2)); got != 2 {
		t.Errorf("max varying must be 2.0, got %f", got)
	}
}

func TestVaryingMinExtremum(t *testing.T) {
	core, _, _, _ := newTestCore()
	varyingTestDraw(t, core, INTERP_MIN)
	if got := math.Float32frombits(core.textures[0].FetchU32(2, 2)); got != 0 {
		t.Errorf("min varying must be 0.0, got %f", got)
	}
}

func TestVaryingSmoothEqualValues(t *testing.T) {
	core, _, _, _ := newTestCore()
	setupDraw(t, core, [][2]float32{{-1, -1}, {1, -1}, {-1, 1}})
	// Replace the varying source with a constant so all three vertices
	// agree; smooth interpolation must reproduce it exactly at interior
	// fragments.
	vert := &core.shaders[0]
	vert.Instructions[1] = ShaderInstruction{
		Op:   OP_COPY_SCALAR,
		Dst:  RegAddr{REG_OUTPUT, 0x10},
		SrcA: RegAddr{REG_CONSTANT, 0x60},
	}
	core.shaderConstants.Scalar[0x60] = math.Float32bits(0.625)
	core.states[0].Raster.Varyings = []RasterizerVaryingAssignment{{
		Slot: 0x10, Type: 0, Interp: INTERP_SMOOTH,
	}}
	configureF32Target(core, 8, 8)
	cmd := drawCmd(3, 8, 8)
	core.executeCommand(&cmd)

	got := math.Float32frombits(core.textures[0].FetchU32(2, 2))
	if got < 0.624 || got > 0.626 {
		t.Errorf("smooth varying of equal values must reproduce them, got %f", got)
	}
}

func TestDepthTest(t *testing.T) {
	core, _, _, _ := newTestCore()
	setupDraw(t, core, [][2]float32{{-1, -1}, {1, -1}, {-1, 1}})
	configureF32Target(core, 8, 8)
	core.textures[0].Clear([4]float32{-1, 0, 0, 0})

	// Depth texture 1, cleared to 0.0; fragments at z=0 with Never fail,
	// with LessOrEqual pass and write.
	core.textures[1].Configure(TextureConfig{
		PixelLayout: PIXEL_D32X1,
		ImageLayout: IMAGE_CONTIGUOUS,
		Width:       8,
		Height:      8,
	})
	core.textures[1].Clear([4]float32{0, 0, 0, 0})

	core.states[0].Fragment.Depth = &FragmentDepthState{
		Texture: 1, Compare: DEPTH_NEVER, Write: true,
	}
	cmd := drawCmd(3, 8, 8)
	core.executeCommand(&cmd)
	sentinel := math.Float32bits(-1)
	if core.textures[0].FetchU32(1, 1) != sentinel {
		t.Error("Never depth test must suppress all output writes")
	}

	core.states[0].Fragment.Depth.Compare = DEPTH_LESS_OR_EQUAL
	core.executeCommand(&cmd)
	if core.textures[0].FetchU32(1, 1) == sentinel {
		t.Error("LessOrEqual at equal depth must pass")
	}
}
