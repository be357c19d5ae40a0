// video_backend_headless.go - Null video backend

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

import "sync"

// HeadlessVideo keeps the last presented frame for inspection.
type HeadlessVideo struct {
	mutex  sync.Mutex
	frame  []byte
	width  int
	height int
	count  uint64
}

func NewHeadlessVideo() *HeadlessVideo {
	return &HeadlessVideo{}
}

func (h *HeadlessVideo) Start() error { return nil }
func (h *HeadlessVideo) Stop() error  { return nil }

func (h *HeadlessVideo) PresentFrame(data []byte, width, height int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if cap(h.frame) < len(data) {
		h.frame = make([]byte, len(data))
	}
	h.frame = h.frame[:len(data)]
	copy(h.frame, data)
	h.width = width
	h.height = height
	h.count++
}

func (h *HeadlessVideo) SetDisplayConfig(DisplayConfig) error { return nil }

// LastFrame returns a copy of the most recent frame.
func (h *HeadlessVideo) LastFrame() ([]byte, int, int, uint64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	out := make([]byte, len(h.frame))
	copy(out, h.frame)
	return out, h.width, h.height, h.count
}
