// gpu_types_test.go - Pixel and image layout tests

package main

import "testing"

func TestPixelBytesInvariant(t *testing.T) {
	valid := map[uint32]bool{1: true, 2: true, 4: true, 8: true, 16: true}
	for code := uint8(0); code < uint8(numPixelLayouts); code++ {
		layout, ok := PixelDataLayoutFromU8(code)
		if !ok {
			t.Fatalf("layout %d should decode", code)
		}
		if !valid[layout.PixelBytes()] {
			t.Errorf("layout %d: pixel bytes %d not in {1,2,4,8,16}", code, layout.PixelBytes())
		}
	}
	if _, ok := PixelDataLayoutFromU8(9); ok {
		t.Error("layout 9 must be rejected")
	}
}

func TestImageLayoutBijection(t *testing.T) {
	dims := [][2]uint32{{8, 8}, {16, 8}, {32, 32}, {64, 16}, {8, 24}}
	for layoutCode := uint8(0); layoutCode < uint8(numImageLayouts); layoutCode++ {
		layout, _ := ImageDataLayoutFromU8(layoutCode)
		for _, d := range dims {
			w, h := d[0], d[1]
			seen := make(map[uint32]bool, w*h)
			for y := uint32(0); y < h; y++ {
				for x := uint32(0); x < w; x++ {
					idx := layout.Index(x, y, w)
					if idx >= w*h {
						t.Fatalf("layout %d %dx%d: index %d out of range", layoutCode, w, h, idx)
					}
					if seen[idx] {
						t.Fatalf("layout %d %dx%d: index %d not unique", layoutCode, w, h, idx)
					}
					seen[idx] = true
				}
			}
		}
	}
}

func TestTextureBufferSize(t *testing.T) {
	var tex TextureModule
	for code := uint8(0); code < uint8(numPixelLayouts); code++ {
		layout, _ := PixelDataLayoutFromU8(code)
		tex.Configure(TextureConfig{
			PixelLayout: layout,
			ImageLayout: IMAGE_CONTIGUOUS,
			Width:       16,
			Height:      8,
		})
		want := 16 * 8 * layout.PixelBytes()
		if uint32(len(tex.Data)) != want {
			t.Errorf("layout %d: buffer %d bytes, want %d", code, len(tex.Data), want)
		}
	}
}

func TestTextureFetchStoreTiled(t *testing.T) {
	var tex TextureModule
	tex.Configure(TextureConfig{
		PixelLayout: PIXEL_D8X4,
		ImageLayout: IMAGE_BLOCK8X8,
		Width:       16,
		Height:      16,
	})
	tex.Store(9, 3, []byte{1, 2, 3, 4})
	got := make([]byte, 4)
	tex.Fetch(9, 3, got)
	if got[0] != 1 || got[3] != 4 {
		t.Errorf("tiled fetch mismatch: %v", got)
	}
	// Out of bounds reads as zero, writes drop.
	tex.Store(99, 99, []byte{9, 9, 9, 9})
	tex.Fetch(99, 99, got)
	if got[0] != 0 {
		t.Errorf("out-of-bounds fetch must be zero, got %v", got)
	}
}

func TestConstantSamplerAbstract(t *testing.T) {
	cs := ConstantSampler{DataType: PIXELTYPE_RGBA_UNORM8}
	cs.Data[0] = 255
	cs.Data[1] = 0
	cs.Data[2] = 51
	cs.Data[3] = 102
	v := cs.Abstract()
	if v[0] != 1.0 {
		t.Errorf("expected 1.0, got %f", v[0])
	}
	if v[2] < 0.19 || v[2] > 0.21 {
		t.Errorf("expected ~0.2, got %f", v[2])
	}
}

func TestEnumDecodersRejectUnknown(t *testing.T) {
	if _, ok := ColorBlendOpFromU8(9); ok {
		t.Error("color blend op 9 must be rejected")
	}
	if _, ok := AlphaBlendOpFromU8(9); ok {
		t.Error("alpha blend op 9 must be rejected")
	}
	if _, ok := PixelDataTypeFromU8(8); ok {
		t.Error("pixel type 8 must be rejected")
	}
	if _, ok := ImageDataLayoutFromU8(3); ok {
		t.Error("image layout 3 must be rejected")
	}
	if _, ok := InterpolationFromU8(5); ok {
		t.Error("interpolation 5 must be rejected")
	}
	if _, ok := FragmentOutputTypeFromU8(9); ok {
		t.Error("fragment output type 9 must be rejected")
	}
	if _, ok := DepthCompareFnFromU8(6); ok {
		t.Error("depth compare 6 must be rejected")
	}
	if _, ok := ShaderInputTypeFromU8(19); ok {
		t.Error("shader input type 19 must be rejected")
	}
}
