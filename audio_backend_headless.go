// audio_backend_headless.go - Null audio backend

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

// HeadlessAudio discards output. Tests drive the SPU by calling
// RenderFrames directly.
type HeadlessAudio struct{}

func NewHeadlessAudio(*SpuDevice) (*HeadlessAudio, error) {
	return &HeadlessAudio{}, nil
}

func (h *HeadlessAudio) Start() error { return nil }
func (h *HeadlessAudio) Stop() error  { return nil }
func (h *HeadlessAudio) Close() error { return nil }
