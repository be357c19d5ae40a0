// spu_sampler.go - PCM sampler reading guest RAM

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

// Sampler commands.
const (
	SAMPLER_SETUP = iota
	SAMPLER_SET_LOOP_MODE
	SAMPLER_START
	SAMPLER_CONTINUE
	SAMPLER_PAUSE
	SAMPLER_GET_STATUS
)

// LoopForever is the loop-mode word selecting an infinite loop.
const LoopForever = 0xFFFFFFFF

type SamplerCommand struct {
	Op           uint8
	ChannelCount uint8 // 1 mono, 2 stereo
	SampleCount  uint32
	StartAddress uint32
	LoopMode     uint32 // LoopForever or a finite loop count
	StatusAddr   uint32
}

// Sampler plays 16-bit PCM (mono or stereo) directly out of guest RAM.
type Sampler struct {
	stereo       bool
	startAddress uint32
	sampleCount  uint32

	running bool
	index   uint32

	loopInfinite bool
	loopLimit    uint32
	loopCount    uint32

	statusRequests []uint32
}

func (s *Sampler) SendCommand(cmd SamplerCommand) {
	switch cmd.Op {
	case SAMPLER_SETUP:
		s.stereo = cmd.ChannelCount == 2
		s.sampleCount = cmd.SampleCount
		s.startAddress = cmd.StartAddress
	case SAMPLER_SET_LOOP_MODE:
		s.loopInfinite = cmd.LoopMode == LoopForever
		s.loopLimit = cmd.LoopMode
	case SAMPLER_START:
		s.running = true
		s.index = 0
		s.loopCount = 0
	case SAMPLER_CONTINUE:
		s.running = true
	case SAMPLER_PAUSE:
		s.running = false
	case SAMPLER_GET_STATUS:
		s.statusRequests = append(s.statusRequests, cmd.StatusAddr)
	}
}

// writeSamplerStatus publishes {running, index, loop_count} into guest RAM; the
// ready flag at +0 is written last.
func writeSamplerStatus(running bool, loopCount, index, addr uint32, m *Machine) {
	runWord := uint32(0)
	if running {
		runWord = 1
	}
	if m.WriteU32(addr+4, runWord) != nil {
		return
	}
	if m.WriteU32(addr+8, index) != nil {
		return
	}
	if m.WriteU32(addr+12, loopCount) != nil {
		return
	}
	m.Fence()
	m.WriteU32(addr, 1)
}

// Process advances one frame and returns a stereo sample pair.
func (s *Sampler) Process(m *Machine) (int16, int16) {
	if len(s.statusRequests) > 0 {
		addr := s.statusRequests[0]
		s.statusRequests = s.statusRequests[1:]
		writeSamplerStatus(s.running, s.loopCount, s.index, addr, m)
	}
	if !s.running {
		return 0, 0
	}
	if s.index >= s.sampleCount {
		s.loopCount++
		if !s.loopInfinite && s.loopCount > s.loopLimit {
			s.running = false
			return 0, 0
		}
		s.index = 0
	}
	var left, right int16
	if s.stereo {
		l, _ := m.ReadU16(s.startAddress + (s.index << 2))
		r, _ := m.ReadU16(s.startAddress + (s.index << 2) + 2)
		left, right = int16(l), int16(r)
	} else {
		v, _ := m.ReadU16(s.startAddress + (s.index << 1))
		left, right = int16(v), int16(v)
	}
	s.index++
	return left, right
}
