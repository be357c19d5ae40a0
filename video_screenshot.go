// video_screenshot.go - Frame snapshots for the -dump-frame flag

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// SaveFrameUpscaled writes an RGBA8 frame to a PNG, nearest-neighbour
// upscaled by the given factor so the low-resolution output stays crisp.
func SaveFrameUpscaled(data []byte, width, height, scale int, path string) error {
	if len(data) != width*height*4 {
		return fmt.Errorf("frame is not RGBA8 at %dx%d", width, height)
	}
	if scale < 1 {
		scale = 1
	}
	src := &image.RGBA{
		Pix:    data,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	dst := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, dst)
}
