// spu_engine.go - SPU mixing graph

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

Sixteen envelope-gated voices and thirty-two PCM samplers accumulate into
a stereo sum through a 48-entry fixed-point mix matrix, evaluated once per
output frame at the engine sample rate.
*/

package main

type SpuEngine struct {
	voices    [NUM_VOICES]Voice
	envelopes [NUM_ENVELOPES]Envelope
	samplers  [NUM_SAMPLERS]Sampler
	mix       [NUM_MIX_CHANNELS][2]int16
}

func fixedToFloat(x int16) float32 {
	return float32(x) * (1.0 / 32767.0)
}

func saturateI16(x int32) int16 {
	if x > 32767 {
		return 32767
	}
	if x < -32768 {
		return -32768
	}
	return int16(x)
}

// Process renders one stereo frame. The envelope gain is squared to map
// the linear fixed-point curve onto perceptual volume.
func (e *SpuEngine) Process(dt float32, m *Machine) (int16, int16) {
	var sumL, sumR int32
	for v := 0; v < NUM_VOICES; v++ {
		gain, active := e.envelopes[v].Process()
		if !active {
			continue
		}
		yl := fixedToFloat(e.mix[v][0])
		yr := fixedToFloat(e.mix[v][1])
		x := fixedToFloat(gain)
		x = x * x
		a := e.voices[v].Process(dt) * x
		sumL += int32(yl * a * 32767)
		sumR += int32(yr * a * 32767)
	}
	for s := 0; s < NUM_SAMPLERS; s++ {
		al, ar := e.samplers[s].Process(m)
		yl := int32(e.mix[NUM_VOICES+s][0])
		yr := int32(e.mix[NUM_VOICES+s][1])
		sumL += int32(al) * yl / 32767
		sumR += int32(ar) * yr / 32767
	}
	return saturateI16(sumL), saturateI16(sumR)
}

func (e *SpuEngine) EnvelopeCommand(target uint8, cmd EnvelopeCommand) {
	switch {
	case target < NUM_ENVELOPES:
		e.envelopes[target].SendCommand(cmd)
	case target == SPU_TARGET_ALL:
		for i := range e.envelopes {
			e.envelopes[i].SendCommand(cmd)
		}
	}
}

func (e *SpuEngine) OscillatorCommand(target uint8, cmd OscillatorCommand) {
	switch {
	case target < NUM_VOICES:
		e.voices[target].Oscillator.SendCommand(cmd)
	case target == SPU_TARGET_ALL:
		for i := range e.voices {
			e.voices[i].Oscillator.SendCommand(cmd)
		}
	}
}

func (e *SpuEngine) FilterCommand(target uint8, cmd FilterCommand) {
	switch {
	case target < NUM_VOICES:
		e.voices[target].Filter.SendCommand(cmd)
	case target == SPU_TARGET_ALL:
		for i := range e.voices {
			e.voices[i].Filter.SendCommand(cmd)
		}
	}
}

func (e *SpuEngine) PitchCommand(target uint8, cmd PitchCommand) {
	switch {
	case target < NUM_VOICES:
		e.voices[target].Pitch.SendCommand(cmd)
	case target == SPU_TARGET_ALL:
		for i := range e.voices {
			e.voices[i].Pitch.SendCommand(cmd)
		}
	}
}

func (e *SpuEngine) SamplerCommand(target uint8, cmd SamplerCommand) {
	switch {
	case target < NUM_SAMPLERS:
		e.samplers[target].SendCommand(cmd)
	case target == SPU_TARGET_ALL:
		for i := range e.samplers {
			e.samplers[i].SendCommand(cmd)
		}
	}
}

// SetMix sets one side of one mix pair: bit 0 of channel selects right,
// the remaining bits select the voice or sampler slot. Slot 0xFF fills
// every pair.
func (e *SpuEngine) SetMix(channel uint16, value int16) {
	right := channel&1 != 0
	slot := channel >> 1
	switch {
	case slot < NUM_MIX_CHANNELS:
		if right {
			e.mix[slot][1] = value
		} else {
			e.mix[slot][0] = value
		}
	case slot == 0xFF:
		for i := range e.mix {
			e.mix[i] = [2]int16{value, value}
		}
	}
}
