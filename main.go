// main.go - Entry point for the RVFM coprocessor core

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

func main() {
	romPath := flag.String("rom", "", "ROM image to load")
	headless := flag.Bool("headless", false, "run without window or audio device")
	audioBackend := flag.String("audio", "oto", "audio backend: oto, none")
	scale := flag.Int("scale", 2, "window scale factor")
	fullscreen := flag.Bool("fullscreen", false, "start fullscreen")
	dumpFrame := flag.String("dump-frame", "", "write the last presented frame to a PNG on exit (headless)")
	flag.Parse()

	var romData []byte
	if *romPath != "" {
		data, err := os.ReadFile(*romPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read ROM: %v\n", err)
			os.Exit(1)
		}
		romData = data
	}

	machine := NewMachine(romData)
	intc := NewInterruptController()
	serial := NewDebugSerial()
	clock := NewHartClock()

	var video VideoOutput
	var headlessVideo *HeadlessVideo
	if *headless {
		headlessVideo = NewHeadlessVideo()
		video = headlessVideo
	} else {
		ebitenOut := NewEbitenOutput(*scale, *fullscreen)
		ebitenOut.SetKeyHandler(serial.PushInput)
		ebitenOut.SetVSyncHandler(func() {
			intc.TriggerInterrupt(INT_VSYNC)
		})
		video = ebitenOut
	}

	gpu := NewGpuDevice(machine, intc, video)
	spu := NewSpuDevice(machine, intc)

	machine.AttachDebug(serial)
	machine.AttachClock(clock)
	machine.AttachIntc(intc)
	machine.AttachGPU(gpu)
	machine.AttachSPU(spu)

	var audio AudioOutput
	if *headless || *audioBackend == "none" {
		audio, _ = NewHeadlessAudio(spu)
	} else {
		player, err := NewOtoPlayer(spu)
		if err != nil {
			fmt.Fprintf(os.Stderr, "audio init failed, continuing silent: %v\n", err)
			audio, _ = NewHeadlessAudio(spu)
		} else {
			audio = player
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	gpu.Start()
	spu.Start()
	if err := video.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "video init failed: %v\n", err)
		os.Exit(1)
	}
	audio.Start()
	if *headless {
		serial.StartConsole()
	}

	group.Go(func() error {
		<-ctx.Done()
		return nil
	})
	group.Wait()

	audio.Close()
	spu.Stop()
	gpu.Stop()
	video.Stop()
	serial.StopConsole()

	if *dumpFrame != "" && headlessVideo != nil {
		frame, w, h, count := headlessVideo.LastFrame()
		if count > 0 {
			if err := SaveFrameUpscaled(frame, w, h, *scale, *dumpFrame); err != nil {
				fmt.Fprintf(os.Stderr, "frame dump failed: %v\n", err)
			}
		}
	}
}
