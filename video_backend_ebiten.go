// video_backend_ebiten.go - Ebiten window backend

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

Presents RGBA8 frames into an ebiten window, raises the VSync interrupt
once per host frame and feeds key presses and clipboard pastes into the
debug serial input.
*/

package main

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"
)

type EbitenOutput struct {
	running     bool
	width       int
	height      int
	scale       int
	fullscreen  bool
	frameBuffer []byte
	bufferMutex sync.RWMutex
	window      *ebiten.Image
	keyHandler  func(byte)
	vsync       func()
	readyChan   chan struct{}
	readyOnce   sync.Once

	clipboardOnce sync.Once
	clipboardOK   bool
}

func NewEbitenOutput(scale int, fullscreen bool) *EbitenOutput {
	if scale < 1 {
		scale = 2
	}
	w, h := VIDEO_256X192.Dimensions()
	return &EbitenOutput{
		width:       w,
		height:      h,
		scale:       scale,
		fullscreen:  fullscreen,
		frameBuffer: make([]byte, w*h*4),
		readyChan:   make(chan struct{}),
	}
}

// SetKeyHandler routes typed bytes into the debug serial input.
func (eo *EbitenOutput) SetKeyHandler(handler func(byte)) {
	eo.keyHandler = handler
}

// SetVSyncHandler installs a handler that Update calls once per host frame.
func (eo *EbitenOutput) SetVSyncHandler(handler func()) {
	eo.vsync = handler
}

func (eo *EbitenOutput) Start() error {
	if eo.running {
		return nil
	}
	eo.running = true
	ebiten.SetWindowSize(eo.width*eo.scale, eo.height*eo.scale)
	ebiten.SetWindowTitle("RVFM")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if eo.fullscreen {
		ebiten.SetFullscreen(true)
	}
	go func() {
		if err := ebiten.RunGame(eo); err != nil {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()
	<-eo.readyChan
	return nil
}

func (eo *EbitenOutput) Stop() error {
	eo.running = false
	return nil
}

func (eo *EbitenOutput) PresentFrame(data []byte, width, height int) {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()
	if width != eo.width || height != eo.height || len(data) != width*height*4 {
		// Only RGBA8 frames at the configured resolution are drawable.
		return
	}
	copy(eo.frameBuffer, data)
}

func (eo *EbitenOutput) SetDisplayConfig(config DisplayConfig) error {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()
	if config.Width > 0 && config.Height > 0 {
		eo.width = config.Width
		eo.height = config.Height
		eo.frameBuffer = make([]byte, eo.width*eo.height*4)
		eo.window = nil
	}
	return nil
}

func (eo *EbitenOutput) Update() error {
	eo.readyOnce.Do(func() { close(eo.readyChan) })
	if eo.vsync != nil {
		eo.vsync()
	}
	if eo.keyHandler != nil {
		for _, r := range ebiten.AppendInputChars(nil) {
			if r < 0x80 {
				eo.keyHandler(byte(r))
			}
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			eo.keyHandler('\n')
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
			eo.keyHandler(0x08)
		}
		if ebiten.IsKeyPressed(ebiten.KeyControl) && inpututil.IsKeyJustPressed(ebiten.KeyV) {
			eo.pasteClipboard()
		}
	}
	return nil
}

func (eo *EbitenOutput) pasteClipboard() {
	eo.clipboardOnce.Do(func() {
		eo.clipboardOK = clipboard.Init() == nil
	})
	if !eo.clipboardOK {
		return
	}
	for _, b := range clipboard.Read(clipboard.FmtText) {
		if b < 0x80 {
			eo.keyHandler(b)
		}
	}
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	eo.bufferMutex.RLock()
	defer eo.bufferMutex.RUnlock()
	if eo.window == nil ||
		eo.window.Bounds().Dx() != eo.width || eo.window.Bounds().Dy() != eo.height {
		eo.window = ebiten.NewImage(eo.width, eo.height)
	}
	eo.window.WritePixels(eo.frameBuffer)
	op := &ebiten.DrawImageOptions{}
	sw := float64(screen.Bounds().Dx()) / float64(eo.width)
	sh := float64(screen.Bounds().Dy()) / float64(eo.height)
	op.GeoM.Scale(sw, sh)
	screen.DrawImage(eo.window, op)
}

func (eo *EbitenOutput) Layout(outsideWidth, outsideHeight int) (int, int) {
	return eo.width * eo.scale, eo.height * eo.scale
}
