// gpu_command.go - Bit-exact GPU command decode

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

Every command is a 16-bit little-endian opcode followed by a fixed-length
body. An unknown opcode or a truncated body aborts the enclosing command
list.
*/

package main

// GpuCommand is one decoded device command.
type GpuCommand struct {
	Op uint16

	Texture         uint8
	ConstantSampler uint8
	Interrupt       bool
	CompletionAddr  uint32
	Sampler         ConstantSampler
	Mode            VideoMode
	Address         uint32
	Value           uint32

	Width       uint32
	Height      uint32
	PixelLayout PixelDataLayout
	ImageLayout ImageDataLayout

	Buffer uint8
	Length uint32
	Offset uint32

	SrcTex, DstTex         uint8
	SrcX, SrcY, DstX, DstY uint16
	RectW, RectH           uint16
	SrcPixelType           PixelDataType
	DstPixelType           PixelDataType
	ColorOp                ColorBlendOp
	AlphaOp                AlphaBlendOp

	ShaderSize  uint16
	ShaderIndex uint8
	ShaderKind  ShaderType

	StateIndex     uint8
	StateFlags     uint8
	FragmentShader uint8
	VertexShader   uint8
	VertexCount    uint32
	XLow, XHigh    uint16
	YLow, YHigh    uint16
}

// ReadGpuCommand decodes the command at offset. It returns the offset of
// the next command and false when the opcode is unknown or the body is
// truncated.
func ReadGpuCommand(cl *CommandList, offset uint32) (GpuCommand, uint32, bool) {
	var cmd GpuCommand
	op, ok := cl.ReadU16(offset)
	if !ok {
		return cmd, 0, false
	}
	cmd.Op = op
	switch op {
	case GPU_CMD_CLEAR_TEXTURE:
		tex, ok1 := cl.ReadU8(offset + 2)
		smp, ok2 := cl.ReadU8(offset + 3)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.Texture = tex & 0x1F
		cmd.ConstantSampler = smp & 0x3F
		return cmd, offset + 4, true

	case GPU_CMD_PRESENT_TEXTURE:
		tex, ok1 := cl.ReadU8(offset + 2)
		irq, ok2 := cl.ReadU8(offset + 3)
		addr, ok3 := cl.ReadU32(offset + 4)
		if !ok1 || !ok2 || !ok3 {
			return cmd, 0, false
		}
		cmd.Texture = tex & 0x1F
		cmd.Interrupt = irq != 0
		cmd.CompletionAddr = addr
		return cmd, offset + 8, true

	case GPU_CMD_SET_CONSTANT_SAMPLER:
		smp, ok1 := cl.ReadU8(offset + 2)
		dt, ok2 := cl.ReadU8(offset + 3)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.ConstantSampler = smp & 0x3F
		cmd.Sampler.DataType = PixelDataType(dt & 0x7)
		size := cmd.Sampler.DataType.ByteSize()
		for i := uint32(0); i < size; i++ {
			b, _ := cl.ReadU8(offset + 4 + i)
			cmd.Sampler.Data[i] = b
		}
		return cmd, offset + 20, true

	case GPU_CMD_SET_VIDEO_MODE:
		mode, ok1 := cl.ReadU8(offset + 3)
		if !ok1 {
			return cmd, 0, false
		}
		mode &= 0x0F
		cmd.Mode = VideoMode{
			Resolution:  VIDEO_256X192,
			Backgrounds: mode&2 != 0,
			Sprites:     mode&4 != 0,
			Triangles:   mode&8 != 0,
		}
		if mode&1 != 0 {
			cmd.Mode.Resolution = VIDEO_512X384
		}
		return cmd, offset + 4, true

	case GPU_CMD_WRITE_FLAG:
		irq, ok1 := cl.ReadU8(offset + 3)
		addr, ok2 := cl.ReadU32(offset + 4)
		value, ok3 := cl.ReadU32(offset + 8)
		if !ok1 || !ok2 || !ok3 {
			return cmd, 0, false
		}
		cmd.Interrupt = irq != 0
		cmd.Address = addr
		cmd.Value = value
		return cmd, offset + 12, true

	case GPU_CMD_CONFIGURE_TEXTURE:
		w, ok1 := cl.ReadU16(offset + 2)
		h, ok2 := cl.ReadU16(offset + 4)
		tex, ok3 := cl.ReadU8(offset + 6)
		pl, ok4 := cl.ReadU8(offset + 7)
		il, ok5 := cl.ReadU8(offset + 8)
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
			return cmd, 0, false
		}
		pixelLayout, ok6 := PixelDataLayoutFromU8(pl)
		imageLayout, ok7 := ImageDataLayoutFromU8(il)
		if !ok6 || !ok7 {
			return cmd, 0, false
		}
		cmd.Width = uint32(w)
		cmd.Height = uint32(h)
		cmd.Texture = tex
		cmd.PixelLayout = pixelLayout
		cmd.ImageLayout = imageLayout
		return cmd, offset + 12, true

	case GPU_CMD_UPLOAD_TEXTURE:
		tex, ok1 := cl.ReadU8(offset + 2)
		il, ok2 := cl.ReadU8(offset + 3)
		addr, ok3 := cl.ReadU32(offset + 4)
		if !ok1 || !ok2 || !ok3 {
			return cmd, 0, false
		}
		imageLayout, ok4 := ImageDataLayoutFromU8(il)
		if !ok4 {
			return cmd, 0, false
		}
		cmd.Texture = tex
		cmd.ImageLayout = imageLayout
		cmd.Address = addr
		return cmd, offset + 8, true

	case GPU_CMD_CONFIGURE_BUFFER:
		buf, ok1 := cl.ReadU8(offset + 3)
		length, ok2 := cl.ReadU32(offset + 4)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.Buffer = buf
		cmd.Length = length
		return cmd, offset + 8, true

	case GPU_CMD_UPLOAD_BUFFER:
		buf, ok1 := cl.ReadU8(offset + 3)
		addr, ok2 := cl.ReadU32(offset + 4)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.Buffer = buf
		cmd.Address = addr
		return cmd, offset + 8, true

	case GPU_CMD_DIRECT_BLIT, GPU_CMD_CUTOUT_BLIT, GPU_CMD_DRAW_BLENDED_RECT:
		src, ok1 := cl.ReadU8(offset + 2)
		dst, ok2 := cl.ReadU8(offset + 3)
		sx, ok3 := cl.ReadU16(offset + 4)
		sy, ok4 := cl.ReadU16(offset + 6)
		dx, ok5 := cl.ReadU16(offset + 8)
		dy, ok6 := cl.ReadU16(offset + 10)
		w, ok7 := cl.ReadU16(offset + 12)
		h, ok8 := cl.ReadU16(offset + 14)
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 || !ok8 {
			return cmd, 0, false
		}
		cmd.SrcTex, cmd.DstTex = src, dst
		cmd.SrcX, cmd.SrcY, cmd.DstX, cmd.DstY = sx, sy, dx, dy
		cmd.RectW, cmd.RectH = w, h
		switch op {
		case GPU_CMD_DIRECT_BLIT:
			return cmd, offset + 16, true
		case GPU_CMD_CUTOUT_BLIT:
			pt, ok9 := cl.ReadU8(offset + 19)
			if !ok9 {
				return cmd, 0, false
			}
			pixelType, ok10 := PixelDataTypeFromU8(pt)
			if !ok10 {
				return cmd, 0, false
			}
			cmd.SrcPixelType = pixelType
			return cmd, offset + 20, true
		default:
			st, ok9 := cl.ReadU8(offset + 16)
			dt, ok10 := cl.ReadU8(offset + 17)
			co, ok11 := cl.ReadU8(offset + 18)
			ao, ok12 := cl.ReadU8(offset + 19)
			if !ok9 || !ok10 || !ok11 || !ok12 {
				return cmd, 0, false
			}
			srcType, okA := PixelDataTypeFromU8(st)
			dstType, okB := PixelDataTypeFromU8(dt)
			colorOp, okC := ColorBlendOpFromU8(co)
			alphaOp, okD := AlphaBlendOpFromU8(ao)
			if !okA || !okB || !okC || !okD {
				return cmd, 0, false
			}
			cmd.SrcPixelType = srcType
			cmd.DstPixelType = dstType
			cmd.ColorOp = colorOp
			cmd.AlphaOp = alphaOp
			return cmd, offset + 20, true
		}

	case GPU_CMD_UPLOAD_SHADER:
		size, ok1 := cl.ReadU16(offset + 2)
		addr, ok2 := cl.ReadU32(offset + 4)
		index, ok3 := cl.ReadU8(offset + 10)
		kind, ok4 := cl.ReadU8(offset + 11)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return cmd, 0, false
		}
		shaderKind, ok5 := ShaderTypeFromU8(kind)
		if !ok5 {
			return cmd, 0, false
		}
		cmd.ShaderSize = size
		cmd.Address = addr
		cmd.ShaderIndex = index
		cmd.ShaderKind = shaderKind
		return cmd, offset + 12, true

	case GPU_CMD_UPLOAD_PIPELINE_STATE:
		index, ok1 := cl.ReadU8(offset + 2)
		flags, ok2 := cl.ReadU8(offset + 3)
		addr, ok3 := cl.ReadU32(offset + 4)
		if !ok1 || !ok2 || !ok3 {
			return cmd, 0, false
		}
		cmd.StateIndex = index
		cmd.StateFlags = flags
		cmd.Address = addr
		return cmd, offset + 8, true

	case GPU_CMD_CONFIGURE_MAPPINGS:
		// Reserved: parse the fixed body and take no effect.
		if _, ok := cl.ReadU32(offset + 12); !ok {
			return cmd, 0, false
		}
		return cmd, offset + 16, true

	case GPU_CMD_DRAW_PIPELINE:
		state, ok1 := cl.ReadU8(offset + 2)
		frag, ok2 := cl.ReadU8(offset + 3)
		vert, ok3 := cl.ReadU8(offset + 4)
		count, ok4 := cl.ReadU32(offset + 8)
		xl, ok5 := cl.ReadU16(offset + 12)
		xh, ok6 := cl.ReadU16(offset + 14)
		yl, ok7 := cl.ReadU16(offset + 16)
		yh, ok8 := cl.ReadU16(offset + 18)
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 || !ok8 {
			return cmd, 0, false
		}
		cmd.StateIndex = state
		cmd.FragmentShader = frag
		cmd.VertexShader = vert
		cmd.VertexCount = count
		cmd.XLow, cmd.XHigh, cmd.YLow, cmd.YHigh = xl, xh, yl, yh
		return cmd, offset + 20, true

	case GPU_CMD_WRITE_BUFFER:
		buf, ok1 := cl.ReadU8(offset + 3)
		addr, ok2 := cl.ReadU32(offset + 4)
		length, ok3 := cl.ReadU32(offset + 8)
		off, ok4 := cl.ReadU32(offset + 12)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return cmd, 0, false
		}
		cmd.Buffer = buf
		cmd.Address = addr
		cmd.Length = length
		cmd.Offset = off
		return cmd, offset + 16, true
	}
	return cmd, 0, false
}
