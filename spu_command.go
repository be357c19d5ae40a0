// spu_command.go - Bit-exact SPU command decode

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

// SpuCommand is one decoded SPU queue command.
type SpuCommand struct {
	Kind   uint8
	Target uint8

	Counter   uint32 // reset value / wait count
	Address   uint32
	Value     uint32
	Interrupt bool

	Envelope   EnvelopeCommand
	Oscillator OscillatorCommand
	Filter     FilterCommand
	Pitch      PitchCommand
	Sampler    SamplerCommand

	Channel   uint16
	Mix       int16
	Frequency uint16
}

// ReadSpuCommand decodes the command at offset, returning the next offset
// and false on an unknown opcode or truncated body.
func ReadSpuCommand(cl *CommandList, offset uint32) (SpuCommand, uint32, bool) {
	var cmd SpuCommand
	op, ok := cl.ReadU8(offset)
	if !ok {
		return cmd, 0, false
	}
	cmd.Kind = op
	switch op {
	case SPU_CMD_RESET_SAMPLE_COUNTER, SPU_CMD_WAIT_SAMPLE_COUNTER, SPU_CMD_RELWAIT_SAMPLE_COUNTER:
		v, ok := cl.ReadU32(offset + 1)
		if !ok {
			return cmd, 0, false
		}
		cmd.Counter = v
		return cmd, offset + 5, true

	case SPU_CMD_WRITE_FLAG:
		irq, ok1 := cl.ReadU8(offset + 1)
		addr, ok2 := cl.ReadU32(offset + 2)
		value, ok3 := cl.ReadU32(offset + 6)
		if !ok1 || !ok2 || !ok3 {
			return cmd, 0, false
		}
		cmd.Interrupt = irq != 0
		cmd.Address = addr
		cmd.Value = value
		return cmd, offset + 10, true

	case SPU_CMD_STOP:
		return cmd, offset + 1, true

	case SPU_CMD_ENVELOPE_COMMAND:
		target, ok1 := cl.ReadU8(offset + 1)
		sub, ok2 := cl.ReadU8(offset + 2)
		if !ok1 || !ok2 || sub > ENV_ON {
			return cmd, 0, false
		}
		cmd.Target = target
		cmd.Envelope = EnvelopeCommand{Op: sub}
		return cmd, offset + 3, true

	case SPU_CMD_ENVELOPE_PARAM:
		target, ok1 := cl.ReadU8(offset + 1)
		sub, ok2 := cl.ReadU8(offset + 2)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.Kind = SPU_CMD_ENVELOPE_COMMAND
		cmd.Target = target
		switch sub {
		case 0, 1, 2:
			v, ok := cl.ReadU32(offset + 3)
			if !ok {
				return cmd, 0, false
			}
			cmd.Envelope = EnvelopeCommand{Op: ENV_SET_ATTACK + sub, Time: v}
			return cmd, offset + 7, true
		case 3:
			v, ok := cl.ReadU16(offset + 3)
			if !ok {
				return cmd, 0, false
			}
			cmd.Envelope = EnvelopeCommand{Op: ENV_SET_SUSTAIN, Sustain: int16(v)}
			return cmd, offset + 5, true
		}
		return cmd, 0, false

	case SPU_CMD_OSCILLATOR_COMMAND:
		target, ok1 := cl.ReadU8(offset + 1)
		sub, ok2 := cl.ReadU8(offset + 2)
		if !ok1 || !ok2 || sub != 0 {
			return cmd, 0, false
		}
		cmd.Target = target
		cmd.Oscillator = OscillatorCommand{Op: OSC_RESET}
		return cmd, offset + 3, true

	case SPU_CMD_OSCILLATOR_PARAM:
		target, ok1 := cl.ReadU8(offset + 1)
		sub, ok2 := cl.ReadU8(offset + 2)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.Kind = SPU_CMD_OSCILLATOR_COMMAND
		cmd.Target = target
		switch sub {
		case 0, 1:
			index, ok3 := cl.ReadU8(offset + 3)
			value, ok4 := cl.ReadU16(offset + 4)
			if !ok3 || !ok4 {
				return cmd, 0, false
			}
			op := uint8(OSC_SET_PARAM)
			if sub == 1 {
				op = OSC_SET_PHASE
			}
			cmd.Oscillator = OscillatorCommand{Op: op, Index: index, Value: int16(value)}
			return cmd, offset + 6, true
		case 2:
			wf, ok3 := cl.ReadU8(offset + 3)
			if !ok3 {
				return cmd, 0, false
			}
			cmd.Oscillator = OscillatorCommand{Op: OSC_SET_WAVEFORM, Waveform: waveformFromU8(wf)}
			return cmd, offset + 4, true
		}
		return cmd, 0, false

	case SPU_CMD_FILTER_COMMAND:
		target, ok1 := cl.ReadU8(offset + 1)
		sub, ok2 := cl.ReadU8(offset + 2)
		if !ok1 || !ok2 || sub != 0 {
			return cmd, 0, false
		}
		cmd.Target = target
		cmd.Filter = FilterCommand{Op: FILT_RESET}
		return cmd, offset + 3, true

	case SPU_CMD_FILTER_PARAM:
		target, ok1 := cl.ReadU8(offset + 1)
		sub, ok2 := cl.ReadU8(offset + 2)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.Kind = SPU_CMD_FILTER_COMMAND
		cmd.Target = target
		switch sub {
		case 0:
			mode, ok3 := cl.ReadU8(offset + 3)
			if !ok3 {
				return cmd, 0, false
			}
			cmd.Filter = FilterCommand{Op: FILT_SET_MODE, Mode: filterModeFromU8(mode)}
			return cmd, offset + 4, true
		case 1:
			res, ok3 := cl.ReadU16(offset + 3)
			if !ok3 {
				return cmd, 0, false
			}
			cmd.Filter = FilterCommand{Op: FILT_SET_RESONANCE, Resonance: res}
			return cmd, offset + 5, true
		}
		return cmd, 0, false

	case SPU_CMD_PITCH_COMMAND:
		target, ok1 := cl.ReadU8(offset + 1)
		sub, ok2 := cl.ReadU8(offset + 2)
		if !ok1 || !ok2 || sub != 0 {
			return cmd, 0, false
		}
		cmd.Target = target
		cmd.Pitch = PitchCommand{Op: PITCH_FINISH}
		return cmd, offset + 3, true

	case SPU_CMD_PITCH_PARAM:
		target, ok1 := cl.ReadU8(offset + 1)
		sub, ok2 := cl.ReadU8(offset + 2)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.Kind = SPU_CMD_PITCH_COMMAND
		cmd.Target = target
		switch sub {
		case 0, 1:
			v, ok3 := cl.ReadU16(offset + 3)
			if !ok3 {
				return cmd, 0, false
			}
			if sub == 0 {
				cmd.Pitch = PitchCommand{Op: PITCH_SET_TARGET, Target: v}
			} else {
				cmd.Pitch = PitchCommand{Op: PITCH_SET_SPEED, Speed: v}
			}
			return cmd, offset + 5, true
		case 2:
			mode, ok3 := cl.ReadU8(offset + 3)
			if !ok3 {
				return cmd, 0, false
			}
			cmd.Pitch = PitchCommand{Op: PITCH_SET_MODE, Mode: mode}
			return cmd, offset + 4, true
		}
		return cmd, 0, false

	case SPU_CMD_SET_MIX:
		channel, ok1 := cl.ReadU8(offset + 1)
		mix, ok2 := cl.ReadU16(offset + 2)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.Channel = uint16(channel)
		cmd.Mix = int16(mix)
		return cmd, offset + 4, true

	case SPU_CMD_NOTE_ON:
		target, ok1 := cl.ReadU8(offset + 1)
		freq, ok2 := cl.ReadU16(offset + 2)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.Target = target
		cmd.Frequency = freq
		return cmd, offset + 4, true

	case SPU_CMD_SAMPLER_PARAM:
		sub, ok1 := cl.ReadU8(offset + 1)
		target, ok2 := cl.ReadU8(offset + 2)
		if !ok1 || !ok2 {
			return cmd, 0, false
		}
		cmd.Kind = SPU_CMD_SAMPLER_COMMAND
		cmd.Target = target
		switch sub {
		case 0:
			channels, ok3 := cl.ReadU8(offset + 3)
			count, ok4 := cl.ReadU32(offset + 4)
			addr, ok5 := cl.ReadU32(offset + 8)
			if !ok3 || !ok4 || !ok5 {
				return cmd, 0, false
			}
			channelCount := uint8(1)
			if channels == 1 {
				channelCount = 2
			}
			cmd.Sampler = SamplerCommand{
				Op: SAMPLER_SETUP, ChannelCount: channelCount,
				SampleCount: count, StartAddress: addr,
			}
			return cmd, offset + 12, true
		case 1:
			mode, ok3 := cl.ReadU32(offset + 3)
			if !ok3 {
				return cmd, 0, false
			}
			cmd.Sampler = SamplerCommand{Op: SAMPLER_SET_LOOP_MODE, LoopMode: mode}
			return cmd, offset + 7, true
		case 2:
			addr, ok3 := cl.ReadU32(offset + 3)
			if !ok3 {
				return cmd, 0, false
			}
			cmd.Sampler = SamplerCommand{Op: SAMPLER_GET_STATUS, StatusAddr: addr}
			return cmd, offset + 7, true
		}
		return cmd, 0, false

	case SPU_CMD_SAMPLER_COMMAND:
		sub, ok1 := cl.ReadU8(offset + 1)
		target, ok2 := cl.ReadU8(offset + 2)
		if !ok1 || !ok2 || sub > 2 {
			return cmd, 0, false
		}
		cmd.Target = target
		cmd.Sampler = SamplerCommand{Op: SAMPLER_START + sub}
		return cmd, offset + 3, true
	}
	return cmd, 0, false
}
