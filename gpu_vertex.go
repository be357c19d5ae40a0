// gpu_vertex.go - Vertex stage: attribute gather and shader invocation

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

// VertexShaderCall is one vertex-stage invocation batch.
type VertexShaderCall struct {
	State        *VertexState
	VertexCount  int
	VertexOffset int

	Context    *ShadingUnitContext
	RunContext *ShadingUnitRunContext

	Buffers  *[NUM_BUFFERS]BufferModule
	Textures *[NUM_TEXTURES]TextureModule
	Shaders  *[NUM_SHADERS]ShaderModule
	Resource *ResourceMap

	Shader uint8
}

type VertexShaderResult struct {
	RemainingCount  int
	RemainingOffset int
	InvocationCount int
}

// RunVertexShader processes min(vertexCount, CORE_COUNT) vertices: writes
// the builtin inputs, zeroes the discard and position outputs, gathers the
// typed vertex inputs and executes the vertex shader module.
func RunVertexShader(call *VertexShaderCall) VertexShaderResult {
	invocationCount := call.VertexCount
	if invocationCount > CORE_COUNT {
		invocationCount = CORE_COUNT
	}

	for v := 0; v < invocationCount; v++ {
		id := v + call.VertexOffset
		provoking := uint32(0)
		if id%3 == 0 {
			provoking = 1
		}
		call.RunContext.ScalarIn[VERTEX_SIN_BUILTIN_VERTEX_ID][v] = uint32(id)
		call.RunContext.ScalarIn[VERTEX_SIN_BUILTIN_PROVOKING_VERTEX][v] = provoking
	}
	for v := 0; v < invocationCount; v++ {
		call.RunContext.ScalarOut[VERTEX_SOUT_BUILTIN_VERTEX_DISCARD][v] = 0
		call.RunContext.VectorOut[VERTEX_VOUT_BUILTIN_VERTEX_POSITION][v] = [4]uint32{}
	}

	for _, in := range call.State.Inputs {
		bytes := call.Buffers[call.Resource.Buffer[in.SrcBuffer]].Bytes()
		elemSize := in.T.ElementSize()
		if in.C == CARD_SCALAR {
			lanes := &call.RunContext.ScalarIn[in.Input]
			for i := 0; i < invocationCount; i++ {
				lanes[i] = in.T.Read(bytes, in.Offset+in.Stride*uint32(i))
			}
			continue
		}
		lanes := &call.RunContext.VectorIn[in.Input]
		count := in.C.Count()
		for i := 0; i < invocationCount; i++ {
			base := in.Offset + in.Stride*uint32(i)
			for c := uint32(0); c < count; c++ {
				lanes[i][c] = in.T.Read(bytes, base+elemSize*c)
			}
		}
	}

	shader := &call.Shaders[call.Shader&(NUM_SHADERS-1)]
	if shader.Type == SHADER_VERTEX {
		call.Context.RunShader(shader, invocationCount, call.RunContext, call.Buffers, call.Textures, call.Resource)
	} else {
		logGpu("draw with non-vertex shader module %d", call.Shader)
	}

	return VertexShaderResult{
		RemainingCount:  call.VertexCount - invocationCount,
		RemainingOffset: call.VertexOffset + invocationCount,
		InvocationCount: invocationCount,
	}
}
