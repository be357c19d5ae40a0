// video_interface.go - Present sink interface

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

type DisplayConfig struct {
	Width      int
	Height     int
	Scale      int
	Fullscreen bool
}

// VideoOutput consumes presented frames. Frames are raw texture bytes;
// a backend draws them when they are RGBA8 at the configured resolution
// and ignores them otherwise.
type VideoOutput interface {
	Start() error
	Stop() error
	PresentFrame(data []byte, width, height int)
	SetDisplayConfig(config DisplayConfig) error
}
