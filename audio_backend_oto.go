// audio_backend_oto.go - oto host audio backend

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

The oto player pulls float32 stereo at the host rate. Each callback
renders ceil(dstFrames * srcRate / dstRate) engine frames at the SPU's
configured rate and nearest-neighbour resamples them into the host buffer.
*/

package main

import (
	"encoding/binary"
	"math"

	"github.com/ebitengine/oto/v3"
)

const otoHostRate = 48000

type OtoPlayer struct {
	ctx     *oto.Context
	player  *oto.Player
	spu     *SpuDevice
	srcBuf  []int16
	started bool
}

func NewOtoPlayer(spu *SpuDevice) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   otoHostRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	player := &OtoPlayer{
		ctx: ctx,
		spu: spu,
	}
	player.player = ctx.NewPlayer(player)
	return player, nil
}

// Read renders SPU frames and resamples them into the host buffer. Eight
// bytes per host frame: two float32 channels.
func (op *OtoPlayer) Read(p []byte) (int, error) {
	dstFrames := len(p) / 8
	if dstFrames == 0 {
		return 0, nil
	}
	srcRate := op.spu.SampleRate()
	ratio := float64(srcRate) / float64(otoHostRate)
	srcFrames := int(math.Ceil(float64(dstFrames) * ratio))
	if srcFrames < 1 {
		srcFrames = 1
	}
	if cap(op.srcBuf) < srcFrames*2 {
		op.srcBuf = make([]int16, srcFrames*2)
	}
	src := op.srcBuf[:srcFrames*2]
	op.spu.RenderFrames(src)

	for i := 0; i < dstFrames; i++ {
		srcIndex := int(float64(i) * ratio)
		if srcIndex >= srcFrames {
			srcIndex = srcFrames - 1
		}
		l := float32(src[srcIndex*2]) / 32768.0
		r := float32(src[srcIndex*2+1]) / 32768.0
		binary.LittleEndian.PutUint32(p[i*8:], math.Float32bits(l))
		binary.LittleEndian.PutUint32(p[i*8+4:], math.Float32bits(r))
	}
	return dstFrames * 8, nil
}

func (op *OtoPlayer) Start() error {
	if !op.started {
		op.player.Play()
		op.started = true
	}
	return nil
}

func (op *OtoPlayer) Stop() error {
	if op.started {
		op.player.Pause()
		op.started = false
	}
	return nil
}

func (op *OtoPlayer) Close() error {
	op.Stop()
	return op.player.Close()
}
