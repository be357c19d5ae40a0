// gpu_texture.go - Texture slots for the GPU resource table

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"math"
)

type TextureConfig struct {
	PixelLayout PixelDataLayout
	ImageLayout ImageDataLayout
	Width       uint16
	Height      uint16
}

// TextureModule is one texture slot: a configuration plus a byte buffer
// sized exactly width*height*pixelBytes.
type TextureModule struct {
	Config TextureConfig
	Data   []byte
}

func (t *TextureModule) Configure(cfg TextureConfig) {
	t.Config = cfg
	size := uint32(cfg.Width) * uint32(cfg.Height) * cfg.PixelLayout.PixelBytes()
	if uint32(cap(t.Data)) >= size {
		t.Data = t.Data[:size]
	} else {
		t.Data = make([]byte, size)
	}
}

// texelOffset maps (x, y) to a byte offset, or reports false when the
// coordinate or the layout-mapped index falls outside the buffer.
func (t *TextureModule) texelOffset(x, y uint32) (uint32, bool) {
	if x >= uint32(t.Config.Width) || y >= uint32(t.Config.Height) {
		return 0, false
	}
	pb := t.Config.PixelLayout.PixelBytes()
	off := t.Config.ImageLayout.Index(x, y, uint32(t.Config.Width)) * pb
	if uint64(off)+uint64(pb) > uint64(len(t.Data)) {
		return 0, false
	}
	return off, true
}

// Fetch copies the texel at (x, y) into dst (pixel-size bytes). Out of
// bounds reads as zero.
func (t *TextureModule) Fetch(x, y uint32, dst []byte) {
	off, ok := t.texelOffset(x, y)
	if !ok {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	copy(dst, t.Data[off:])
}

// Store writes pixel-size bytes at (x, y). Out of bounds writes are dropped.
func (t *TextureModule) Store(x, y uint32, src []byte) {
	off, ok := t.texelOffset(x, y)
	if !ok {
		return
	}
	copy(t.Data[off:], src)
}

func (t *TextureModule) FetchU8(x, y uint32) uint8 {
	off, ok := t.texelOffset(x, y)
	if !ok {
		return 0
	}
	return t.Data[off]
}

func (t *TextureModule) FetchU16(x, y uint32) uint16 {
	off, ok := t.texelOffset(x, y)
	if !ok {
		return 0
	}
	return binary.LittleEndian.Uint16(t.Data[off:])
}

func (t *TextureModule) FetchU32(x, y uint32) uint32 {
	off, ok := t.texelOffset(x, y)
	if !ok {
		return 0
	}
	return binary.LittleEndian.Uint32(t.Data[off:])
}

// FetchComponents reads up to four components as raw widening loads.
func (t *TextureModule) FetchComponents(x, y uint32) [4]uint32 {
	var out [4]uint32
	off, ok := t.texelOffset(x, y)
	if !ok {
		return out
	}
	cb := t.Config.PixelLayout.ComponentBytes()
	n := t.Config.PixelLayout.ComponentCount()
	for c := uint32(0); c < n; c++ {
		switch cb {
		case 1:
			out[c] = uint32(t.Data[off+c])
		case 2:
			out[c] = uint32(binary.LittleEndian.Uint16(t.Data[off+c*2:]))
		default:
			out[c] = binary.LittleEndian.Uint32(t.Data[off+c*4:])
		}
	}
	return out
}

func (t *TextureModule) StoreU8(x, y uint32, v uint8) {
	if off, ok := t.texelOffset(x, y); ok {
		t.Data[off] = v
	}
}

func (t *TextureModule) StoreU16(x, y uint32, v uint16) {
	if off, ok := t.texelOffset(x, y); ok {
		binary.LittleEndian.PutUint16(t.Data[off:], v)
	}
}

func (t *TextureModule) StoreU32(x, y uint32, v uint32) {
	if off, ok := t.texelOffset(x, y); ok {
		binary.LittleEndian.PutUint32(t.Data[off:], v)
	}
}

// StoreComponents writes the first n components of v as raw narrowing
// stores.
func (t *TextureModule) StoreComponents(x, y uint32, v [4]uint32, n uint32) {
	off, ok := t.texelOffset(x, y)
	if !ok {
		return
	}
	cb := t.Config.PixelLayout.ComponentBytes()
	if n > t.Config.PixelLayout.ComponentCount() {
		n = t.Config.PixelLayout.ComponentCount()
	}
	for c := uint32(0); c < n; c++ {
		switch cb {
		case 1:
			t.Data[off+c] = uint8(v[c])
		case 2:
			binary.LittleEndian.PutUint16(t.Data[off+c*2:], uint16(v[c]))
		default:
			binary.LittleEndian.PutUint32(t.Data[off+c*4:], v[c])
		}
	}
}

// Clear fills every texel from the abstract sampler value. 8-bit components
// encode as unsigned normalized, 16-bit as unsigned normalized, 32-bit as
// IEEE-754 bits.
func (t *TextureModule) Clear(value [4]float32) {
	pb := t.Config.PixelLayout.PixelBytes()
	if pb == 0 || len(t.Data) == 0 {
		return
	}
	texel := make([]byte, pb)
	cb := t.Config.PixelLayout.ComponentBytes()
	n := t.Config.PixelLayout.ComponentCount()
	for c := uint32(0); c < n; c++ {
		switch cb {
		case 1:
			texel[c] = f32ToUnorm8(value[c])
		case 2:
			binary.LittleEndian.PutUint16(texel[c*2:], uint16(clampF32(value[c], 0, 1)*65535.999))
		default:
			binary.LittleEndian.PutUint32(texel[c*4:], math.Float32bits(value[c]))
		}
	}
	for off := 0; off < len(t.Data); off += int(pb) {
		copy(t.Data[off:], texel)
	}
}
