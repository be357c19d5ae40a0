// gpu_rasterizer.go - Triangle setup, scanline walk and varying interpolation

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

Triangles are formed from consecutive triples of vertex shader outputs.
Clip-space positions map onto the target rect, scanlines intersect the
three edges, and covered pixels batch into CORE_COUNT-wide fragment
invocations.
*/

package main

import "math"

type RasterRect struct {
	X0, Y0 uint32 // upper-left, inclusive
	X1, Y1 uint32 // lower-right
}

// RasterizerCall carries everything one draw needs.
type RasterizerCall struct {
	Constants *ShadingUnitConstantArray
	IO        *ShadingUnitIOArrays

	Buffers  *[NUM_BUFFERS]BufferModule
	Textures *[NUM_TEXTURES]TextureModule
	Shaders  *[NUM_SHADERS]ShaderModule

	VertexCount int

	Context *ShadingUnitContext

	State         *RasterizerState
	VertexShader  uint8
	VertexState   *VertexState
	FragShader    uint8
	FragmentState *FragmentState

	TargetRect RasterRect
}

// RunRasterizer executes a full draw: vertex batches, triangle walk,
// fragment batching and flushing.
func RunRasterizer(call *RasterizerCall) {
	SetupShaderConstants(call.Constants, call.State.Constants, &call.State.ResourceMap, call.Buffers)

	io := call.IO
	vertexRC := &ShadingUnitRunContext{
		ScalarIn:    &io.Frames[0].Scalar,
		VectorIn:    &io.Frames[0].Vector,
		ScalarOut:   &io.Frames[1].Scalar,
		VectorOut:   &io.Frames[1].Vector,
		ScalarConst: &call.Constants.Scalar,
		VectorConst: &call.Constants.Vector,
	}

	rectW := float32(call.TargetRect.X1 - call.TargetRect.X0)
	rectH := float32(call.TargetRect.Y1 - call.TargetRect.Y0)

	vertexCount := call.VertexCount
	vertexOffset := 0

	for vertexCount >= 3 {
		batch := vertexCount
		if batch > CORE_COUNT {
			batch = CORE_COUNT
		}
		batch -= batch % 3

		vcall := &VertexShaderCall{
			State:        call.VertexState,
			VertexCount:  batch,
			VertexOffset: vertexOffset,
			Context:      call.Context,
			RunContext:   vertexRC,
			Buffers:      call.Buffers,
			Textures:     call.Textures,
			Shaders:      call.Shaders,
			Resource:     &call.State.ResourceMap,
			Shader:       call.VertexShader,
		}
		RunVertexShader(vcall)

		fragCount := 0
		for t := 0; t < batch/3; t++ {
			v0 := t * 3
			v1 := t*3 + 1
			v2 := t*3 + 2

			discard := &io.Frames[1].Scalar[VERTEX_SOUT_BUILTIN_VERTEX_DISCARD]
			if discard[v0]|discard[v1]|discard[v2] != 0 {
				continue
			}

			p0 := bitsToF32Vec(io.Frames[1].Vector[VERTEX_VOUT_BUILTIN_VERTEX_POSITION][v0])
			p1 := bitsToF32Vec(io.Frames[1].Vector[VERTEX_VOUT_BUILTIN_VERTEX_POSITION][v1])
			p2 := bitsToF32Vec(io.Frames[1].Vector[VERTEX_VOUT_BUILTIN_VERTEX_POSITION][v2])

			toScreen := func(p [4]float32) [4]float32 {
				return [4]float32{
					(p[0]*0.5+0.5)*rectW + float32(call.TargetRect.X0),
					(p[1]*0.5+0.5)*rectH + float32(call.TargetRect.Y0),
					p[2],
					p[3],
				}
			}
			p0sc := toScreen(p0)
			p1sc := toScreen(p1)
			p2sc := toScreen(p2)

			xMin := min3(p0[0], p1[0], p2[0])
			yMin := min3(p0[1], p1[1], p2[1])
			xMax := max3(p0[0], p1[0], p2[0])
			yMax := max3(p0[1], p1[1], p2[1])
			if xMax < -1 || xMin > 1 || yMax < -1 || yMin > 1 {
				continue
			}

			xMinTarget := (xMin*0.5+0.5)*rectW + float32(call.TargetRect.X0)
			xMaxTarget := (xMax*0.5+0.5)*rectW + float32(call.TargetRect.X0)
			yMinTarget := (yMin*0.5+0.5)*rectH + float32(call.TargetRect.Y0)
			yMaxTarget := (yMax*0.5+0.5)*rectH + float32(call.TargetRect.Y0)

			xMinClip := clampCoord(xMinTarget, call.TargetRect.X0, call.TargetRect.X1)
			xMaxClip := clampCoord(xMaxTarget, call.TargetRect.X0, call.TargetRect.X1)
			yMinClip := clampCoord(yMinTarget, call.TargetRect.Y0, call.TargetRect.Y1)
			yMaxClip := clampCoord(yMaxTarget, call.TargetRect.Y0, call.TargetRect.Y1)

			points := [5][4]float32{p0sc, p1sc, p2sc, p0sc, p1sc}

			for y := yMinClip; y <= yMaxClip; y++ {
				spanMin := float32(math.MaxFloat32)
				spanMax := float32(-math.MaxFloat32)
				fy := float32(y)
				for e := 0; e < 3; e++ {
					pa := points[e]
					pb := points[e+1]
					if pa[1] > pb[1] {
						pa, pb = pb, pa
					}
					if !(pa[1] <= fy && pb[1] >= fy) {
						continue
					}
					edgeDX := pb[0] - pa[0]
					edgeDY := pb[1] - pa[1]
					x := pa[0] + ((fy-pa[1])*edgeDX)/edgeDY
					if x < spanMin {
						spanMin = x
					}
					if x > spanMax {
						spanMax = x
					}
				}
				if !(spanMin <= spanMax) {
					continue
				}
				xStartF := math.Ceil(float64(spanMin))
				xEndF := math.Floor(float64(spanMax))
				xStart := xMinClip
				if xStartF > float64(xMinClip) {
					if xStartF > float64(xMaxClip) {
						continue
					}
					xStart = uint32(xStartF)
				}
				xEnd := xMaxClip
				if xEndF < float64(xMaxClip) {
					if xEndF < float64(xMinClip) {
						continue
					}
					xEnd = uint32(xEndF)
				}

				for x := xStart; x <= xEnd; x++ {
					var dx, dy [3]float32
					for e := 0; e < 3; e++ {
						dx[e] = float32(x) - points[e][0]
						dy[e] = fy - points[e][1]
					}
					areas := [3]float32{
						dx[2]*dy[1] - dx[1]*dy[2],
						dx[0]*dy[2] - dx[2]*dy[0],
						dx[1]*dy[0] - dx[0]*dy[1],
					}
					recipLen := [3]float32{
						1 / float32(math.Sqrt(float64(dx[0]*dx[0]+dy[0]*dy[0]))),
						1 / float32(math.Sqrt(float64(dx[1]*dx[1]+dy[1]*dy[1]))),
						1 / float32(math.Sqrt(float64(dx[2]*dx[2]+dy[2]*dy[2]))),
					}
					recipLenSum := 1 / (recipLen[0] + recipLen[1] + recipLen[2])
					recipAreaSum := 1 / (areas[0] + areas[1] + areas[2])
					b0 := areas[0] * recipAreaSum
					b1 := areas[1] * recipAreaSum
					b2 := areas[2] * recipAreaSum
					l0 := recipLen[0] * recipLenSum
					l1 := recipLen[1] * recipLenSum
					l2 := recipLen[2] * recipLenSum
					z := p0[2]*b0 + p1[2]*b1 + p2[2]*b2

					frag := &io.Frames[2].Vector
					frag[FRAGMENT_VIN_BUILTIN_POSITION][fragCount] = [4]uint32{
						math.Float32bits(float32(x)), math.Float32bits(fy), math.Float32bits(z), 0,
					}
					frag[FRAGMENT_VIN_BUILTIN_BARYCENTRIC][fragCount] = [4]uint32{
						math.Float32bits(b0), math.Float32bits(b1), math.Float32bits(b2), 0,
					}
					frag[FRAGMENT_VIN_BUILTIN_LINEAR][fragCount] = [4]uint32{
						math.Float32bits(l0), math.Float32bits(l1), math.Float32bits(l2), 0,
					}
					frag[FRAGMENT_VIN_BUILTIN_VERTEX_IDS][fragCount] = [4]uint32{
						uint32(v0), uint32(v1), uint32(v2), 0,
					}

					fragCount++
					if fragCount == CORE_COUNT {
						computeVaryingValues(CORE_COUNT, call)
						invokeFragmentShader(CORE_COUNT, call)
						fragCount = 0
					}
				}
			}
		}
		if fragCount > 0 {
			computeVaryingValues(fragCount, call)
			invokeFragmentShader(fragCount, call)
		}

		vertexCount -= batch
		vertexOffset += batch
	}
}

func clampCoord(v float32, lo, hi uint32) uint32 {
	iv := int64(v)
	if iv < int64(lo) {
		return lo
	}
	if iv > int64(hi) {
		return hi
	}
	return uint32(iv)
}

func min3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// computeVaryingValues interpolates each declared varying into the
// fragment input frame. Flat copies the provoking vertex; Smooth weights
// by barycentrics, Linear by reciprocal-length weights; Min/Max take
// per-component extrema. Integer varyings support Flat only; other
// combinations log and leave the slot untouched.
func computeVaryingValues(invocationCount int, call *RasterizerCall) {
	io := call.IO
	vertOutScalar := &io.Frames[1].Scalar
	vertOutVector := &io.Frames[1].Vector
	fragScalar := &io.Frames[2].Scalar
	fragVector := &io.Frames[2].Vector
	ids := &io.Frames[2].Vector[FRAGMENT_VIN_BUILTIN_VERTEX_IDS]

	for _, varying := range call.State.Varyings {
		slot := varying.Slot
		card := int(varying.Type.Cardinality())

		switch {
		case varying.Interp == INTERP_PROVOKING_FLAT:
			if card == 1 {
				for i := 0; i < invocationCount; i++ {
					v0 := ids[i][0]
					fragScalar[slot][i] = vertOutScalar[slot][v0]
				}
			} else {
				for i := 0; i < invocationCount; i++ {
					v0 := ids[i][0]
					for c := 0; c < card; c++ {
						fragVector[slot][i][c] = vertOutVector[slot][v0][c]
					}
				}
			}

		case !varying.Type.IsFloat():
			logGpu("varying interpolation %d unimplemented for integer type", varying.Interp)

		case varying.Interp == INTERP_SMOOTH || varying.Interp == INTERP_LINEAR:
			weightSlot := FRAGMENT_VIN_BUILTIN_BARYCENTRIC
			if varying.Interp == INTERP_LINEAR {
				weightSlot = FRAGMENT_VIN_BUILTIN_LINEAR
			}
			weights := &io.Frames[2].Vector[weightSlot]
			if card == 1 {
				for i := 0; i < invocationCount; i++ {
					v := ids[i]
					w := bitsToF32Vec(weights[i])
					sum := math.Float32frombits(vertOutScalar[slot][v[0]])*w[0] +
						math.Float32frombits(vertOutScalar[slot][v[1]])*w[1] +
						math.Float32frombits(vertOutScalar[slot][v[2]])*w[2]
					fragScalar[slot][i] = math.Float32bits(sum)
				}
			} else {
				for i := 0; i < invocationCount; i++ {
					v := ids[i]
					w := bitsToF32Vec(weights[i])
					for c := 0; c < card; c++ {
						sum := math.Float32frombits(vertOutVector[slot][v[0]][c])*w[0] +
							math.Float32frombits(vertOutVector[slot][v[1]][c])*w[1] +
							math.Float32frombits(vertOutVector[slot][v[2]][c])*w[2]
						fragVector[slot][i][c] = math.Float32bits(sum)
					}
				}
			}

		case varying.Interp == INTERP_MIN || varying.Interp == INTERP_MAX:
			pick := minF32
			if varying.Interp == INTERP_MAX {
				pick = maxF32
			}
			if card == 1 {
				for i := 0; i < invocationCount; i++ {
					v := ids[i]
					a := math.Float32frombits(vertOutScalar[slot][v[0]])
					b := math.Float32frombits(vertOutScalar[slot][v[1]])
					c := math.Float32frombits(vertOutScalar[slot][v[2]])
					fragScalar[slot][i] = math.Float32bits(pick(pick(a, b), c))
				}
			} else {
				for i := 0; i < invocationCount; i++ {
					v := ids[i]
					for c := 0; c < card; c++ {
						a := math.Float32frombits(vertOutVector[slot][v[0]][c])
						b := math.Float32frombits(vertOutVector[slot][v[1]][c])
						d := math.Float32frombits(vertOutVector[slot][v[2]][c])
						fragVector[slot][i][c] = math.Float32bits(pick(pick(a, b), d))
					}
				}
			}
		}
	}
}

func minF32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func invokeFragmentShader(invocationCount int, call *RasterizerCall) {
	io := call.IO
	fragmentRC := &ShadingUnitRunContext{
		ScalarIn:    &io.Frames[2].Scalar,
		VectorIn:    &io.Frames[2].Vector,
		ScalarOut:   &io.Frames[0].Scalar,
		VectorOut:   &io.Frames[0].Vector,
		ScalarConst: &call.Constants.Scalar,
		VectorConst: &call.Constants.Vector,
	}
	fcall := &FragmentShaderCall{
		State:         call.FragmentState,
		Shader:        call.FragShader,
		FragmentCount: invocationCount,
		Context:       call.Context,
		RunContext:    fragmentRC,
		Buffers:       call.Buffers,
		Textures:      call.Textures,
		Shaders:       call.Shaders,
		Resource:      &call.State.ResourceMap,
	}
	RunFragmentShader(fcall)
}
