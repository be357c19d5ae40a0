// spu_voice.go - Voice slot: oscillator, filter and pitch generator

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

import "math"

// Oscillator waveforms.
const (
	WAVE_SQUARE = 0
	WAVE_TRIANGLE = 1
	WAVE_SINE     = 2
	WAVE_SUPERSAW = 3
)

func waveformFromU8(v uint8) uint8 {
	switch v {
	case 1:
		return WAVE_TRIANGLE
	case 2:
		return WAVE_SINE
	case 3:
		return WAVE_SUPERSAW
	default:
		return WAVE_SQUARE
	}
}

// Oscillator commands.
const (
	OSC_RESET = iota
	OSC_SET_PARAM
	OSC_SET_PHASE
	OSC_SET_WAVEFORM
)

type OscillatorCommand struct {
	Op       uint8
	Index    uint8
	Value    int16
	Waveform uint8
}

type Oscillator struct {
	waveform uint8
	params   [4]int16
	phases   [5]float32
}

func (o *Oscillator) SendCommand(cmd OscillatorCommand) {
	switch cmd.Op {
	case OSC_RESET:
		o.phases = [5]float32{}
	case OSC_SET_PARAM:
		o.params[cmd.Index&3] = cmd.Value
	case OSC_SET_PHASE:
		o.phases[cmd.Index%5] = float32(cmd.Value) / 32768.0
	case OSC_SET_WAVEFORM:
		o.waveform = cmd.Waveform
	}
}

// Compute advances the oscillator by dt seconds at frequency f and returns
// one sample in [-1, 1]. Param 0 controls the square duty cycle and the
// SuperSaw detune spread.
func (o *Oscillator) Compute(dt, f float32) float32 {
	switch o.waveform {
	case WAVE_SINE:
		o.phases[0] = float32(math.Mod(float64(o.phases[0]+f*dt), 1))
		return float32(math.Sin(float64(o.phases[0]) * 2 * math.Pi))
	case WAVE_TRIANGLE:
		o.phases[0] = float32(math.Mod(float64(o.phases[0]+f*dt), 1))
		if o.phases[0] > 0.5 {
			return -(o.phases[0]-0.5)*4 + 1
		}
		return o.phases[0]*4 - 1
	case WAVE_SUPERSAW:
		spread := 1 + float32(o.params[0])/65536.0
		if spread <= 0 {
			spread = 1
		}
		spreadSq := spread * spread
		freqs := [5]float32{f * spreadSq, f * spread, f, f / spread, f / spreadSq}
		var total float32
		for i := 0; i < 5; i++ {
			o.phases[i] = float32(math.Mod(float64(o.phases[i]+freqs[i]*dt), 1))
			total += o.phases[i] - 0.5
		}
		return total * 0.4
	default: // WAVE_SQUARE
		o.phases[0] = float32(math.Mod(float64(o.phases[0]+f*dt), 1))
		transition := (float32(o.params[0]) + 32767.5) / 65535.0
		if o.phases[0] < transition {
			return 1
		}
		return -1
	}
}

// Filter modes: low/high/band-pass at 6, 12 and 24 dB per octave.
const (
	FILTER_OFF = 0
	FILTER_LP6 = 1
	FILTER_LP12 = 2
	FILTER_LP24 = 3
	FILTER_HP6  = 4
	FILTER_HP12 = 5
	FILTER_HP24 = 6
	FILTER_BP6  = 7
	FILTER_BP12 = 8
	FILTER_BP24 = 9
)

const (
	FILT_RESET = iota
	FILT_SET_MODE
	FILT_SET_RESONANCE
)

type FilterCommand struct {
	Op        uint8
	Mode      uint8
	Resonance uint16
}

func filterModeFromU8(v uint8) uint8 {
	if v > FILTER_BP24 {
		return FILTER_OFF
	}
	return v
}

// Filter is a state-variable filter cascade. The cutoff tracks the voice
// frequency; resonance sets Q.
type Filter struct {
	mode      uint8
	resonance uint16
	low       [4]float32
	band      [4]float32
}

func (fl *Filter) SendCommand(cmd FilterCommand) {
	switch cmd.Op {
	case FILT_RESET:
		fl.low = [4]float32{}
		fl.band = [4]float32{}
	case FILT_SET_MODE:
		fl.mode = cmd.Mode
	case FILT_SET_RESONANCE:
		fl.resonance = cmd.Resonance
	}
}

func (fl *Filter) stages() (int, int) {
	switch fl.mode {
	case FILTER_LP6:
		return 1, 0
	case FILTER_LP12:
		return 2, 0
	case FILTER_LP24:
		return 4, 0
	case FILTER_HP6:
		return 1, 1
	case FILTER_HP12:
		return 2, 1
	case FILTER_HP24:
		return 4, 1
	case FILTER_BP6:
		return 1, 2
	case FILTER_BP12:
		return 2, 2
	case FILTER_BP24:
		return 4, 2
	}
	return 0, 0
}

// Compute filters one sample. dt is the sample period; f is the voice
// frequency driving the cutoff.
func (fl *Filter) Compute(x, dt, f float32) float32 {
	stages, kind := fl.stages()
	if stages == 0 {
		return x
	}
	fc := 2 * float32(math.Sin(math.Pi*math.Min(float64(f*dt), 0.24)))
	q := 1.0 - float32(fl.resonance)/70000.0
	if q < 0.06 {
		q = 0.06
	}
	out := x
	for s := 0; s < stages; s++ {
		high := out - fl.low[s] - q*fl.band[s]
		fl.band[s] += fc * high
		fl.low[s] += fc * fl.band[s]
		switch kind {
		case 0:
			out = fl.low[s]
		case 1:
			out = high
		default:
			out = fl.band[s]
		}
	}
	return out
}

// Pitch modes.
const (
	PITCH_MODE_SET   = 0
	PITCH_MODE_GLIDE = 1
)

const (
	PITCH_FINISH = iota
	PITCH_SET_TARGET
	PITCH_SET_SPEED
	PITCH_SET_MODE
)

type PitchCommand struct {
	Op     uint8
	Target uint16
	Speed  uint16
	Mode   uint8
}

// Pitch holds the voice frequency. In glide mode it approaches the target
// at Speed hertz per millisecond; Finish snaps to the target.
type Pitch struct {
	mode    uint8
	current float32
	target  float32
	speed   uint16
}

func (p *Pitch) SendCommand(cmd PitchCommand) {
	switch cmd.Op {
	case PITCH_FINISH:
		p.current = p.target
	case PITCH_SET_TARGET:
		p.target = float32(cmd.Target)
		if p.mode == PITCH_MODE_SET {
			p.current = p.target
		}
	case PITCH_SET_SPEED:
		p.speed = cmd.Speed
	case PITCH_SET_MODE:
		if cmd.Mode == PITCH_MODE_GLIDE {
			p.mode = PITCH_MODE_GLIDE
		} else {
			p.mode = PITCH_MODE_SET
		}
	}
}

func (p *Pitch) Process(dt float32) float32 {
	if p.mode == PITCH_MODE_GLIDE && p.current != p.target {
		step := float32(p.speed) * 1000 * dt
		diff := p.target - p.current
		if diff > step {
			p.current += step
		} else if diff < -step {
			p.current -= step
		} else {
			p.current = p.target
		}
	}
	return p.current
}

// Voice chains pitch -> oscillator -> filter.
type Voice struct {
	Oscillator Oscillator
	Filter     Filter
	Pitch      Pitch
}

func (v *Voice) Process(dt float32) float32 {
	f := v.Pitch.Process(dt)
	osc := v.Oscillator.Compute(dt, f)
	return v.Filter.Compute(osc, dt, f)
}
