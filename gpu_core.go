// gpu_core.go - GPU resource tables and command execution

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

The Core owns every GPU-side resource table and executes drained command
lists top to bottom. A parse failure mid-list skips the remainder of that
list; resource-index failures log and skip the single command.
*/

package main

import "math"

type GpuCore struct {
	machine *Machine
	intc    *InterruptController
	video   VideoOutput

	commandLists []*CommandList

	videoMode VideoMode
	samplers  [NUM_CONSTANT_SAMPLERS]ConstantSampler
	textures  [NUM_TEXTURES]TextureModule
	buffers   [NUM_BUFFERS]BufferModule
	shaders   [NUM_SHADERS]ShaderModule
	states    [NUM_PIPELINE_STATES]GraphicsPipelineState

	shaderContext   *ShadingUnitContext
	shaderConstants ShadingUnitConstantArray
	ioArrays        *ShadingUnitIOArrays

	frameScratch []byte
}

func NewGpuCore(machine *Machine, intc *InterruptController, video VideoOutput) *GpuCore {
	core := &GpuCore{
		machine:       machine,
		intc:          intc,
		video:         video,
		shaderContext: NewShadingUnitContext(),
		ioArrays:      NewShadingUnitIOArrays(),
	}
	for i := range core.states {
		core.states[i] = NewGraphicsPipelineState()
	}
	return core
}

func (core *GpuCore) AddCommandList(cl *CommandList) {
	core.commandLists = append(core.commandLists, cl)
}

// Process drains every queued command list.
func (core *GpuCore) Process() {
	for len(core.commandLists) > 0 {
		cl := core.commandLists[0]
		core.commandLists = core.commandLists[1:]
		core.executeCommandList(cl)
		RetireCommandList(cl)
	}
}

func (core *GpuCore) executeCommandList(cl *CommandList) {
	offset := uint32(0)
	for offset < cl.Len() {
		cmd, next, ok := ReadGpuCommand(cl, offset)
		if !ok {
			logGpu("command parse failed at offset %d, dropping rest of list", offset)
			return
		}
		core.executeCommand(&cmd)
		offset = next
	}
}

func (core *GpuCore) executeCommand(cmd *GpuCommand) {
	switch cmd.Op {
	case GPU_CMD_CLEAR_TEXTURE:
		core.clearTexture(cmd.Texture, cmd.ConstantSampler)
	case GPU_CMD_PRESENT_TEXTURE:
		core.presentTexture(cmd.Texture, cmd.CompletionAddr, cmd.Interrupt)
	case GPU_CMD_SET_CONSTANT_SAMPLER:
		core.samplers[cmd.ConstantSampler] = cmd.Sampler
	case GPU_CMD_SET_VIDEO_MODE:
		core.setVideoMode(cmd.Mode)
	case GPU_CMD_WRITE_FLAG:
		core.writeFlag(cmd.Address, cmd.Value, cmd.Interrupt)
	case GPU_CMD_CONFIGURE_TEXTURE:
		core.configureTexture(cmd)
	case GPU_CMD_UPLOAD_TEXTURE:
		core.uploadTexture(cmd.Texture, cmd.ImageLayout, cmd.Address)
	case GPU_CMD_CONFIGURE_BUFFER:
		core.buffers[cmd.Buffer].Configure(cmd.Length)
	case GPU_CMD_UPLOAD_BUFFER:
		core.uploadBuffer(cmd.Buffer, cmd.Address)
	case GPU_CMD_DIRECT_BLIT:
		core.directBlit(cmd)
	case GPU_CMD_CUTOUT_BLIT:
		core.cutoutBlit(cmd)
	case GPU_CMD_DRAW_BLENDED_RECT:
		core.drawBlendedRect(cmd)
	case GPU_CMD_UPLOAD_SHADER:
		core.uploadShader(cmd.ShaderIndex, cmd.ShaderKind, cmd.ShaderSize, cmd.Address)
	case GPU_CMD_UPLOAD_PIPELINE_STATE:
		core.uploadPipelineState(cmd.StateIndex, cmd.Address)
	case GPU_CMD_CONFIGURE_MAPPINGS:
		// Reserved, accepted without effect.
	case GPU_CMD_DRAW_PIPELINE:
		core.drawGraphicsPipeline(cmd)
	case GPU_CMD_WRITE_BUFFER:
		core.writeBuffer(cmd.Buffer, cmd.Address, cmd.Length, cmd.Offset)
	}
}

func (core *GpuCore) setVideoMode(mode VideoMode) {
	core.videoMode = mode
	if core.video != nil {
		w, h := mode.Resolution.Dimensions()
		core.video.SetDisplayConfig(DisplayConfig{Width: w, Height: h})
	}
}

func (core *GpuCore) clearTexture(texture, sampler uint8) {
	if texture >= NUM_TEXTURES || sampler >= NUM_CONSTANT_SAMPLERS {
		logGpu("clear_texture: index out of range (texture %d, sampler %d)", texture, sampler)
		return
	}
	value := core.samplers[sampler].Abstract()
	core.textures[texture].Clear(value)
}

func (core *GpuCore) presentTexture(texture uint8, completionAddr uint32, interrupt bool) {
	if texture >= NUM_TEXTURES {
		logGpu("present_texture: texture %d out of range", texture)
		return
	}
	tex := &core.textures[texture]
	if core.video != nil {
		if cap(core.frameScratch) < len(tex.Data) {
			core.frameScratch = make([]byte, len(tex.Data))
		}
		core.frameScratch = core.frameScratch[:len(tex.Data)]
		copy(core.frameScratch, tex.Data)
		core.video.PresentFrame(core.frameScratch, int(tex.Config.Width), int(tex.Config.Height))
	}
	if completionAddr != 0 {
		if err := core.machine.WriteU32(completionAddr, 1); err != nil {
			logGpu("present_texture: bad completion address %08X", completionAddr)
		}
		core.machine.Fence()
	}
	if interrupt {
		core.intc.TriggerInterrupt(INT_PRESENT)
	}
}

func (core *GpuCore) writeFlag(address, value uint32, interrupt bool) {
	if err := core.machine.WriteU32(address, value); err != nil {
		logGpu("write_flag: bad address %08X", address)
	}
	core.machine.Fence()
	if interrupt {
		core.intc.TriggerInterrupt(INT_GPU)
	}
}

func (core *GpuCore) configureTexture(cmd *GpuCommand) {
	if cmd.Texture >= NUM_TEXTURES {
		logGpu("configure_texture: texture %d out of range", cmd.Texture)
		return
	}
	core.textures[cmd.Texture].Configure(TextureConfig{
		PixelLayout: cmd.PixelLayout,
		ImageLayout: cmd.ImageLayout,
		Width:       uint16(cmd.Width),
		Height:      uint16(cmd.Height),
	})
}

func (core *GpuCore) uploadTexture(texture uint8, srcLayout ImageDataLayout, srcAddr uint32) {
	if texture >= NUM_TEXTURES {
		logGpu("upload_texture: texture %d out of range", texture)
		return
	}
	tex := &core.textures[texture]
	core.machine.Fence()
	if srcLayout == tex.Config.ImageLayout {
		if err := core.machine.ReadBlock(srcAddr, tex.Data); err != nil {
			logGpu("upload_texture: source %08X not in memory", srcAddr)
		}
		return
	}
	pb := tex.Config.PixelLayout.PixelBytes()
	pixel := make([]byte, pb)
	width := uint32(tex.Config.Width)
	for y := uint32(0); y < uint32(tex.Config.Height); y++ {
		for x := uint32(0); x < width; x++ {
			srcOffset := srcLayout.Index(x, y, width) * pb
			if core.machine.ReadBlock(srcAddr+srcOffset, pixel) != nil {
				continue
			}
			tex.Store(x, y, pixel)
		}
	}
}

func (core *GpuCore) uploadBuffer(buffer uint8, srcAddr uint32) {
	core.machine.Fence()
	if err := core.machine.ReadBlock(srcAddr, core.buffers[buffer].Bytes()); err != nil {
		logGpu("upload_buffer: source %08X not in memory", srcAddr)
	}
}

func (core *GpuCore) writeBuffer(buffer uint8, srcAddr, length, offset uint32) {
	dst := core.buffers[buffer].Bytes()
	if uint64(offset)+uint64(length) > uint64(len(dst)) {
		logGpu("write_buffer: range overflows buffer %d", buffer)
		return
	}
	core.machine.Fence()
	if err := core.machine.ReadBlock(srcAddr, dst[offset:offset+length]); err != nil {
		logGpu("write_buffer: source %08X not in memory", srcAddr)
	}
}

func (core *GpuCore) uploadShader(index uint8, kind ShaderType, size uint16, address uint32) {
	code := make([]byte, size)
	core.machine.Fence()
	if err := core.machine.ReadBlock(address, code); err != nil {
		logGpu("upload_shader: source %08X not in memory", address)
		return
	}
	module := &core.shaders[index&(NUM_SHADERS-1)]
	if err := ParseShaderBytecode(kind, code, module); err != nil {
		logGpu("shader bytecode parse failed: %v", err)
	}
}

func (core *GpuCore) uploadPipelineState(index uint8, address uint32) {
	if index >= NUM_PIPELINE_STATES {
		logGpu("upload_pipeline_state: index %d out of range", index)
		return
	}
	core.machine.Fence()
	state, ok := ReadPipelineStateFromRAM(address, core.machine)
	if !ok {
		logGpu("pipeline state upload failed")
		return
	}
	core.states[index] = state
}

// texturePair vends disjoint references to two texture slots. A blit onto
// the same slot is a no-op per the command semantics.
func (core *GpuCore) texturePair(src, dst uint8) (*TextureModule, *TextureModule, bool) {
	if src == dst || src >= NUM_TEXTURES || dst >= NUM_TEXTURES {
		return nil, nil, false
	}
	return &core.textures[src], &core.textures[dst], true
}

func (core *GpuCore) directBlit(cmd *GpuCommand) {
	src, dst, ok := core.texturePair(cmd.SrcTex, cmd.DstTex)
	if !ok {
		return
	}
	if src.Config.PixelLayout != dst.Config.PixelLayout {
		return
	}
	pixel := make([]byte, src.Config.PixelLayout.PixelBytes())
	for y := uint32(0); y < uint32(cmd.RectH); y++ {
		for x := uint32(0); x < uint32(cmd.RectW); x++ {
			src.Fetch(x+uint32(cmd.SrcX), y+uint32(cmd.SrcY), pixel)
			dst.Store(x+uint32(cmd.DstX), y+uint32(cmd.DstY), pixel)
		}
	}
}

func (core *GpuCore) cutoutBlit(cmd *GpuCommand) {
	src, dst, ok := core.texturePair(cmd.SrcTex, cmd.DstTex)
	if !ok {
		return
	}
	if src.Config.PixelLayout != dst.Config.PixelLayout {
		logGpu("cutout_blit with mismatched pixel layouts unimplemented")
		return
	}
	pb := src.Config.PixelLayout.PixelBytes()
	var test func([]byte) bool
	switch {
	case cmd.SrcPixelType == PIXELTYPE_RGBA_UNORM8 && pb == 4:
		test = func(p []byte) bool { return p[3] != 0 }
	case cmd.SrcPixelType == PIXELTYPE_RGBA_F32 && pb == 16:
		test = func(p []byte) bool {
			return math.Float32frombits(loadLE(p[12:16])) > 0
		}
	default:
		logGpu("cutout_blit: unsupported pixel type %d for layout", cmd.SrcPixelType)
		return
	}
	pixel := make([]byte, pb)
	for y := uint32(0); y < uint32(cmd.RectH); y++ {
		for x := uint32(0); x < uint32(cmd.RectW); x++ {
			src.Fetch(x+uint32(cmd.SrcX), y+uint32(cmd.SrcY), pixel)
			if test(pixel) {
				dst.Store(x+uint32(cmd.DstX), y+uint32(cmd.DstY), pixel)
			}
		}
	}
}

func (core *GpuCore) drawBlendedRect(cmd *GpuCommand) {
	if cmd.SrcPixelType.ComponentCount() != cmd.DstPixelType.ComponentCount() {
		return
	}
	src, dst, ok := core.texturePair(cmd.SrcTex, cmd.DstTex)
	if !ok {
		return
	}
	readSrc, okS := blendReadFn(cmd.SrcPixelType)
	readDst, okD := blendReadFn(cmd.DstPixelType)
	writeDst, okW := blendWriteFn(cmd.DstPixelType)
	if !okS || !okD || !okW {
		logGpu("draw_blended_rect: unsupported pixel types src %d dst %d", cmd.SrcPixelType, cmd.DstPixelType)
		return
	}

	colorFn := colorBlendFn(cmd.ColorOp)
	alphaFn := alphaBlendFn(cmd.AlphaOp)

	srcX, srcY := uint32(cmd.SrcX), uint32(cmd.SrcY)
	dstX, dstY := uint32(cmd.DstX), uint32(cmd.DstY)
	if srcX >= uint32(src.Config.Width) || srcY >= uint32(src.Config.Height) ||
		dstX >= uint32(dst.Config.Width) || dstY >= uint32(dst.Config.Height) {
		return
	}
	width := uint32(cmd.RectW)
	height := uint32(cmd.RectH)
	width = minU32(width, minU32(uint32(src.Config.Width)-srcX, uint32(dst.Config.Width)-dstX))
	height = minU32(height, minU32(uint32(src.Config.Height)-srcY, uint32(dst.Config.Height)-dstY))

	srcPixel := make([]byte, src.Config.PixelLayout.PixelBytes())
	dstPixel := make([]byte, dst.Config.PixelLayout.PixelBytes())
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			src.Fetch(x+srcX, y+srcY, srcPixel)
			dst.Fetch(x+dstX, y+dstY, dstPixel)
			s := readSrc(srcPixel)
			d := readDst(dstPixel)
			rgb := colorFn(s, d)
			a := alphaFn(s[3], d[3])
			writeDst(dstPixel, [4]float32{rgb[0], rgb[1], rgb[2], a})
			dst.Store(x+dstX, y+dstY, dstPixel)
		}
	}
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func blendReadFn(t PixelDataType) (func([]byte) [4]float32, bool) {
	switch t {
	case PIXELTYPE_RGBA_UNORM8:
		return func(p []byte) [4]float32 {
			return [4]float32{
				unorm8ToF32(p[0]), unorm8ToF32(p[1]), unorm8ToF32(p[2]), unorm8ToF32(p[3]),
			}
		}, true
	case PIXELTYPE_RGBA_F32:
		return func(p []byte) [4]float32 {
			return [4]float32{
				math.Float32frombits(loadLE(p[0:4])),
				math.Float32frombits(loadLE(p[4:8])),
				math.Float32frombits(loadLE(p[8:12])),
				math.Float32frombits(loadLE(p[12:16])),
			}
		}, true
	}
	return nil, false
}

func blendWriteFn(t PixelDataType) (func([]byte, [4]float32), bool) {
	switch t {
	case PIXELTYPE_RGBA_UNORM8:
		return func(p []byte, v [4]float32) {
			p[0] = f32ToUnorm8(v[0])
			p[1] = f32ToUnorm8(v[1])
			p[2] = f32ToUnorm8(v[2])
			p[3] = f32ToUnorm8(v[3])
		}, true
	case PIXELTYPE_RGBA_F32:
		return func(p []byte, v [4]float32) {
			storeLE(p[0:4], math.Float32bits(v[0]))
			storeLE(p[4:8], math.Float32bits(v[1]))
			storeLE(p[8:12], math.Float32bits(v[2]))
			storeLE(p[12:16], math.Float32bits(v[3]))
		}, true
	}
	return nil, false
}

func colorBlendFn(op ColorBlendOp) func(src, dst [4]float32) [3]float32 {
	switch op {
	case COLOR_BLEND_ZERO:
		return func(src, dst [4]float32) [3]float32 { return [3]float32{} }
	case COLOR_BLEND_SRC:
		return func(src, dst [4]float32) [3]float32 { return [3]float32{src[0], src[1], src[2]} }
	case COLOR_BLEND_DST:
		return func(src, dst [4]float32) [3]float32 { return [3]float32{dst[0], dst[1], dst[2]} }
	case COLOR_BLEND_ADD:
		return func(src, dst [4]float32) [3]float32 {
			return [3]float32{src[0] + dst[0], src[1] + dst[1], src[2] + dst[2]}
		}
	case COLOR_BLEND_SUB:
		return func(src, dst [4]float32) [3]float32 {
			return [3]float32{dst[0] - src[0], dst[1] - src[1], dst[2] - src[2]}
		}
	case COLOR_BLEND_RSUB:
		return func(src, dst [4]float32) [3]float32 {
			return [3]float32{src[0] - dst[0], src[1] - dst[1], src[2] - dst[2]}
		}
	case COLOR_BLEND_AVG:
		return func(src, dst [4]float32) [3]float32 {
			return [3]float32{(src[0] + dst[0]) * 0.5, (src[1] + dst[1]) * 0.5, (src[2] + dst[2]) * 0.5}
		}
	case COLOR_BLEND_BLEND:
		return func(src, dst [4]float32) [3]float32 {
			a := src[3]
			return [3]float32{
				src[0]*a + dst[0]*(1-a),
				src[1]*a + dst[1]*(1-a),
				src[2]*a + dst[2]*(1-a),
			}
		}
	default: // COLOR_BLEND_RBLEND
		return func(src, dst [4]float32) [3]float32 {
			a := src[3]
			return [3]float32{
				src[0]*(1-a) + dst[0]*a,
				src[1]*(1-a) + dst[1]*a,
				src[2]*(1-a) + dst[2]*a,
			}
		}
	}
}

func alphaBlendFn(op AlphaBlendOp) func(src, dst float32) float32 {
	switch op {
	case ALPHA_BLEND_ZERO:
		return func(src, dst float32) float32 { return 0 }
	case ALPHA_BLEND_ONE:
		return func(src, dst float32) float32 { return 1 }
	case ALPHA_BLEND_SRC:
		return func(src, dst float32) float32 { return src }
	case ALPHA_BLEND_DST:
		return func(src, dst float32) float32 { return dst }
	case ALPHA_BLEND_AVG:
		return func(src, dst float32) float32 { return (src + dst) * 0.5 }
	case ALPHA_BLEND_ADD:
		return func(src, dst float32) float32 { return src + dst }
	case ALPHA_BLEND_SUB:
		return func(src, dst float32) float32 { return dst - src }
	case ALPHA_BLEND_RSUB:
		return func(src, dst float32) float32 { return src - dst }
	default: // ALPHA_BLEND_BLEND
		return func(src, dst float32) float32 { return dst + (1-dst)*src }
	}
}

func (core *GpuCore) drawGraphicsPipeline(cmd *GpuCommand) {
	if cmd.StateIndex >= NUM_PIPELINE_STATES {
		logGpu("draw_graphics_pipeline: state %d out of range", cmd.StateIndex)
		return
	}
	state := &core.states[cmd.StateIndex]
	core.shaderContext.ResetStacks()
	call := &RasterizerCall{
		Constants:     &core.shaderConstants,
		IO:            core.ioArrays,
		Buffers:       &core.buffers,
		Textures:      &core.textures,
		Shaders:       &core.shaders,
		VertexCount:   int(cmd.VertexCount),
		Context:       core.shaderContext,
		State:         &state.Raster,
		VertexShader:  cmd.VertexShader,
		VertexState:   &state.Vertex,
		FragShader:    cmd.FragmentShader,
		FragmentState: &state.Fragment,
		TargetRect: RasterRect{
			X0: uint32(cmd.XLow), Y0: uint32(cmd.YLow),
			X1: uint32(cmd.XHigh), Y1: uint32(cmd.YHigh),
		},
	}
	RunRasterizer(call)
}
