// spu.go - SPU device: registers, command queues and frame rendering

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

Four independent command queues advance against a shared sample counter.
Command lists are parsed off the audio thread by a helper goroutine and
handed over through a staging queue; the audio thread takes the staging
mutex with TryLock only and never parses guest memory.
*/

package main

import (
	"sync"
	"sync/atomic"
)

type spuSubmission struct {
	queue uint8
	addr  uint32
}

type stagedCommand struct {
	queue uint8
	cmd   SpuCommand
}

type SpuDevice struct {
	machine *Machine
	intc    *InterruptController

	runMode         atomic.Uint32
	sampleCounter   atomic.Uint32
	sampleRate      atomic.Uint32
	submissionError atomic.Uint32

	submit chan spuSubmission

	stagingMutex sync.Mutex
	staging      []stagedCommand

	queues [4][]SpuCommand
	engine SpuEngine

	closeOnce sync.Once
	done      chan struct{}
}

func NewSpuDevice(machine *Machine, intc *InterruptController) *SpuDevice {
	return &SpuDevice{
		machine: machine,
		intc:    intc,
		submit:  make(chan spuSubmission, 256),
		done:    make(chan struct{}),
	}
}

// Start launches the command parser goroutine.
func (s *SpuDevice) Start() {
	go s.parserThread()
}

func (s *SpuDevice) Stop() {
	s.closeOnce.Do(func() {
		close(s.submit)
	})
	<-s.done
}

func (s *SpuDevice) parserThread() {
	defer close(s.done)
	var commands []stagedCommand
	for sub := range s.submit {
		commands = s.parseCommandList(sub.queue, sub.addr, commands[:0])
		if len(commands) == 0 {
			continue
		}
		s.stagingMutex.Lock()
		s.staging = append(s.staging, commands...)
		s.stagingMutex.Unlock()
	}
}

func (s *SpuDevice) parseCommandList(queue uint8, addr uint32, out []stagedCommand) []stagedCommand {
	cl, err := ParseCommandListHeader(addr, s.machine)
	if err != nil {
		switch err {
		case ErrHeaderNotInRam:
			s.submissionError.Store(SPU_ERROR_HEADER_NOT_IN_RAM)
		case ErrListNotInRam:
			s.submissionError.Store(SPU_ERROR_LIST_NOT_IN_RAM)
		case ErrListTooLong:
			s.submissionError.Store(SPU_ERROR_LIST_TOO_LONG)
		}
		return out
	}
	defer RetireCommandList(cl)
	offset := uint32(0)
	for offset < cl.Len() {
		cmd, next, ok := ReadSpuCommand(cl, offset)
		if !ok {
			s.submissionError.Store(SPU_ERROR_INVALID_COMMAND)
			break
		}
		out = append(out, stagedCommand{queue: queue, cmd: cmd})
		offset = next
	}
	return out
}

// SampleRate returns the configured engine rate in hertz.
func (s *SpuDevice) SampleRate() int {
	switch s.sampleRate.Load() {
	case SPU_RATE_32000:
		return 32000
	case SPU_RATE_44100:
		return 44100
	case SPU_RATE_48000:
		return 48000
	default:
		return 16000
	}
}

func (s *SpuDevice) Running() bool {
	return s.runMode.Load() == SPU_RUN_MODE_RUN
}

// RenderFrames fills dst (interleaved stereo i16) at the engine rate.
// While stopped it renders silence and the counter holds.
func (s *SpuDevice) RenderFrames(dst []int16) {
	if !s.Running() {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	dt := 1.0 / float32(s.SampleRate())
	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		l, r := s.renderFrame(dt)
		dst[i*2] = l
		dst[i*2+1] = r
	}
}

func (s *SpuDevice) renderFrame(dt float32) (int16, int16) {
	if s.stagingMutex.TryLock() {
		for _, staged := range s.staging {
			q := staged.queue & 3
			s.queues[q] = append(s.queues[q], staged.cmd)
		}
		s.staging = s.staging[:0]
		s.stagingMutex.Unlock()
	}

	counter := s.sampleCounter.Add(1) - 1

	for q := range s.queues {
		s.runQueue(q, counter)
	}
	return s.engine.Process(dt, s.machine)
}

// runQueue retires head commands in order until one is not ready.
func (s *SpuDevice) runQueue(q int, counter uint32) {
	for len(s.queues[q]) > 0 {
		cmd := &s.queues[q][0]
		switch cmd.Kind {
		case SPU_CMD_RESET_SAMPLE_COUNTER:
			s.sampleCounter.Store(cmd.Counter)
		case SPU_CMD_WAIT_SAMPLE_COUNTER:
			if counter < cmd.Counter {
				return
			}
		case SPU_CMD_RELWAIT_SAMPLE_COUNTER:
			// Rewritten in place to an absolute wait on first evaluation.
			cmd.Kind = SPU_CMD_WAIT_SAMPLE_COUNTER
			cmd.Counter += counter
			continue
		case SPU_CMD_WRITE_FLAG:
			s.machine.WriteU32(cmd.Address, cmd.Value)
			s.machine.Fence()
			if cmd.Interrupt {
				s.intc.TriggerInterrupt(INT_SPU)
			}
		case SPU_CMD_STOP:
			s.runMode.Store(SPU_RUN_MODE_STOPPED)
		case SPU_CMD_ENVELOPE_COMMAND:
			s.engine.EnvelopeCommand(cmd.Target, cmd.Envelope)
		case SPU_CMD_OSCILLATOR_COMMAND:
			s.engine.OscillatorCommand(cmd.Target, cmd.Oscillator)
		case SPU_CMD_FILTER_COMMAND:
			s.engine.FilterCommand(cmd.Target, cmd.Filter)
		case SPU_CMD_PITCH_COMMAND:
			s.engine.PitchCommand(cmd.Target, cmd.Pitch)
		case SPU_CMD_SAMPLER_COMMAND:
			s.engine.SamplerCommand(cmd.Target, cmd.Sampler)
		case SPU_CMD_SET_MIX:
			s.engine.SetMix(cmd.Channel, cmd.Mix)
		case SPU_CMD_NOTE_ON:
			s.engine.PitchCommand(cmd.Target, PitchCommand{Op: PITCH_SET_TARGET, Target: cmd.Frequency})
			s.engine.EnvelopeCommand(cmd.Target, EnvelopeCommand{Op: ENV_ON})
		}
		s.queues[q] = s.queues[q][1:]
	}
}

func (s *SpuDevice) ReadReg(offset uint32, size int) (uint32, error) {
	switch offset {
	case SPU_REG_RUN_MODE:
		return s.runMode.Load(), nil
	case SPU_REG_SAMPLE_COUNTER:
		return s.sampleCounter.Load(), nil
	case SPU_REG_SAMPLE_RATE:
		return s.sampleRate.Load(), nil
	case SPU_REG_SUBMISSION_ERROR:
		return s.submissionError.Load(), nil
	case SPU_REG_QUEUE_0, SPU_REG_QUEUE_1, SPU_REG_QUEUE_2, SPU_REG_QUEUE_3:
		return 0, nil
	}
	return 0, ErrInvalidAddress
}

func (s *SpuDevice) WriteReg(offset uint32, value uint32, size int) error {
	switch offset {
	case SPU_REG_RUN_MODE:
		s.runMode.Store(value & SPU_RUN_MODE_MASK)
	case SPU_REG_SAMPLE_COUNTER:
		s.sampleCounter.Store(0)
	case SPU_REG_SAMPLE_RATE:
		s.sampleRate.Store(value & SPU_RATE_MASK)
	case SPU_REG_SUBMISSION_ERROR:
		s.submissionError.Store(SPU_ERROR_NONE)
	case SPU_REG_QUEUE_0, SPU_REG_QUEUE_1, SPU_REG_QUEUE_2, SPU_REG_QUEUE_3:
		if size != 4 {
			return ErrInvalidAddress
		}
		s.submit <- spuSubmission{queue: uint8((offset - SPU_REG_QUEUE_0) / 4), addr: value}
	default:
		return ErrInvalidAddress
	}
	return nil
}
