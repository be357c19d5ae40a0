// spu_test.go - SPU engine and command processor tests

package main

import "testing"

func newTestSpu() (*SpuDevice, *Machine, *InterruptController) {
	m := NewMachine(nil)
	ic := NewInterruptController()
	spu := NewSpuDevice(m, ic)
	m.AttachSPU(spu)
	spu.runMode.Store(SPU_RUN_MODE_RUN)
	return spu, m, ic
}

// queueCommands parses a payload already in guest RAM and moves the
// commands into the staging queue synchronously.
func queueCommands(t *testing.T, spu *SpuDevice, m *Machine, queue uint8, payload []byte) {
	t.Helper()
	writeCommandList(t, m, 0x1000, 0, payload)
	staged := spu.parseCommandList(queue, 0x1000, nil)
	if len(staged) == 0 {
		t.Fatalf("no commands staged (submission error %d)", spu.submissionError.Load())
	}
	spu.staging = append(spu.staging, staged...)
}

func renderFrames(spu *SpuDevice, n int) []int16 {
	buf := make([]int16, n*2)
	spu.RenderFrames(buf)
	return buf
}

func TestSampleCounterMonotonic(t *testing.T) {
	spu, _, _ := newTestSpu()
	renderFrames(spu, 25)
	if got := spu.sampleCounter.Load(); got != 25 {
		t.Errorf("expected counter 25, got %d", got)
	}
}

func TestCounterHoldsWhileStopped(t *testing.T) {
	spu, _, _ := newTestSpu()
	spu.runMode.Store(SPU_RUN_MODE_STOPPED)
	out := renderFrames(spu, 8)
	for _, v := range out {
		if v != 0 {
			t.Fatal("stopped SPU must render silence")
		}
	}
	if spu.sampleCounter.Load() != 0 {
		t.Error("counter must hold while stopped")
	}
}

func TestWaitSampleCounterGates(t *testing.T) {
	spu, m, _ := newTestSpu()
	var b cmdBuilder
	b.u8(SPU_CMD_WAIT_SAMPLE_COUNTER)
	b.u32(10)
	b.u8(SPU_CMD_WRITE_FLAG)
	b.u8(0)
	b.u32(0x2000)
	b.u32(1)
	queueCommands(t, spu, m, 0, b.data)

	renderFrames(spu, 10)
	if v, _ := m.ReadU32(0x2000); v != 0 {
		t.Fatal("flag must not be written before the counter reaches 10")
	}
	renderFrames(spu, 1)
	if v, _ := m.ReadU32(0x2000); v != 1 {
		t.Fatal("flag must be written once the counter reaches 10")
	}
}

func TestRelativeWaitRewrites(t *testing.T) {
	spu, m, _ := newTestSpu()
	renderFrames(spu, 5) // counter at 5 before submission
	var b cmdBuilder
	b.u8(SPU_CMD_RELWAIT_SAMPLE_COUNTER)
	b.u32(3)
	b.u8(SPU_CMD_WRITE_FLAG)
	b.u8(0)
	b.u32(0x2000)
	b.u32(1)
	queueCommands(t, spu, m, 1, b.data)

	renderFrames(spu, 3)
	if v, _ := m.ReadU32(0x2000); v != 0 {
		t.Fatal("relative wait must gate until counter+delta")
	}
	renderFrames(spu, 1)
	if v, _ := m.ReadU32(0x2000); v != 1 {
		t.Fatal("relative wait must retire at counter+delta")
	}
}

func TestResetSampleCounter(t *testing.T) {
	spu, m, _ := newTestSpu()
	var b cmdBuilder
	b.u8(SPU_CMD_RESET_SAMPLE_COUNTER)
	b.u32(500)
	queueCommands(t, spu, m, 0, b.data)
	renderFrames(spu, 1)
	if got := spu.sampleCounter.Load(); got != 500 {
		t.Errorf("expected counter 500 after reset, got %d", got)
	}
}

func TestStopCommand(t *testing.T) {
	spu, m, _ := newTestSpu()
	var b cmdBuilder
	b.u8(SPU_CMD_STOP)
	queueCommands(t, spu, m, 2, b.data)
	renderFrames(spu, 1)
	if spu.Running() {
		t.Error("Stop must clear the run mode")
	}
}

func TestWriteFlagInterrupt(t *testing.T) {
	spu, m, ic := newTestSpu()
	var b cmdBuilder
	b.u8(SPU_CMD_WRITE_FLAG)
	b.u8(1)
	b.u32(0x3000)
	b.u32(7)
	queueCommands(t, spu, m, 0, b.data)
	renderFrames(spu, 1)
	if v, _ := m.ReadU32(0x3000); v != 7 {
		t.Error("write flag value missing")
	}
	if ic.Pending()&(1<<INT_SPU) == 0 {
		t.Error("expected Spu interrupt")
	}
}

func TestNoteOnProducesTone(t *testing.T) {
	spu, m, _ := newTestSpu()
	var b cmdBuilder
	b.u8(SPU_CMD_SET_MIX)
	b.u8(0) // voice 0 left
	b.u16(0x7FFF)
	b.u8(SPU_CMD_SET_MIX)
	b.u8(1) // voice 0 right
	b.u16(0x7FFF)
	b.u8(SPU_CMD_ENVELOPE_PARAM)
	b.u8(0)
	b.u8(3) // sustain
	b.u16(32767)
	b.u8(SPU_CMD_NOTE_ON)
	b.u8(0)
	b.u16(440)
	queueCommands(t, spu, m, 0, b.data)

	out := renderFrames(spu, 200)
	nonzero := false
	for _, v := range out {
		if v != 0 {
			nonzero = true
			break
		}
	}
	if !nonzero {
		t.Error("voice 0 must produce a tone after NoteOn")
	}

	// Release: envelope off, output decays back to silence.
	var c cmdBuilder
	c.u8(SPU_CMD_ENVELOPE_COMMAND)
	c.u8(0)
	c.u8(1) // Off
	queueCommands(t, spu, m, 0, c.data)
	renderFrames(spu, 100)
	tail := renderFrames(spu, 10)
	for _, v := range tail {
		if v != 0 {
			t.Errorf("voice must be silent after release, got %d", v)
			break
		}
	}
}

func TestSamplerPlayback(t *testing.T) {
	spu, m, _ := newTestSpu()
	// Four mono PCM samples at 0x4000.
	pcm := []int16{1000, -2000, 3000, -4000}
	for i, v := range pcm {
		m.WriteU16(uint32(0x4000+i*2), uint16(v))
	}
	e := &spu.engine
	e.SamplerCommand(0, SamplerCommand{
		Op: SAMPLER_SETUP, ChannelCount: 1, SampleCount: 4, StartAddress: 0x4000,
	})
	e.SamplerCommand(0, SamplerCommand{Op: SAMPLER_START})
	e.SetMix(uint16(NUM_VOICES*2), 32767)   // sampler 0 left
	e.SetMix(uint16(NUM_VOICES*2+1), 32767) // sampler 0 right

	out := renderFrames(spu, 4)
	for i, want := range pcm {
		got := out[i*2]
		if got < want-2 || got > want+2 {
			t.Errorf("frame %d: expected ~%d, got %d", i, want, got)
		}
	}
	// Finite loop mode 0: one pass, then silence.
	out = renderFrames(spu, 2)
	if out[2] != 0 || out[3] != 0 {
		t.Errorf("sampler must stop after its finite loop: %v", out)
	}
}

func TestSamplerStatusWriteback(t *testing.T) {
	spu, m, _ := newTestSpu()
	e := &spu.engine
	e.SamplerCommand(3, SamplerCommand{Op: SAMPLER_GET_STATUS, StatusAddr: 0x5000})
	renderFrames(spu, 1)
	if flag, _ := m.ReadU32(0x5000); flag != 1 {
		t.Error("status ready flag must be written")
	}
	if running, _ := m.ReadU32(0x5004); running != 0 {
		t.Error("idle sampler must report not running")
	}
}

func TestSpuRegisters(t *testing.T) {
	spu, m, _ := newTestSpu()
	if err := m.WriteU32(SPU_BASE+SPU_REG_SAMPLE_RATE, SPU_RATE_44100); err != nil {
		t.Fatalf("rate write failed: %v", err)
	}
	if spu.SampleRate() != 44100 {
		t.Errorf("expected 44100, got %d", spu.SampleRate())
	}
	renderFrames(spu, 3)
	if err := m.WriteU32(SPU_BASE+SPU_REG_SAMPLE_COUNTER, 0xFFFF); err != nil {
		t.Fatalf("counter write failed: %v", err)
	}
	if v, _ := m.ReadU32(SPU_BASE + SPU_REG_SAMPLE_COUNTER); v != 0 {
		t.Errorf("counter write must reset to zero, got %d", v)
	}

	spu.submissionError.Store(SPU_ERROR_LIST_TOO_LONG)
	if v, _ := m.ReadU32(SPU_BASE + SPU_REG_SUBMISSION_ERROR); v != SPU_ERROR_LIST_TOO_LONG {
		t.Error("submission error must be readable")
	}
	m.WriteU32(SPU_BASE+SPU_REG_SUBMISSION_ERROR, 0)
	if v, _ := m.ReadU32(SPU_BASE + SPU_REG_SUBMISSION_ERROR); v != SPU_ERROR_NONE {
		t.Error("submission error write must clear")
	}
}

func TestSubmissionErrorCodes(t *testing.T) {
	spu, m, _ := newTestSpu()
	spu.parseCommandList(0, 0x90000000, nil)
	if spu.submissionError.Load() != SPU_ERROR_HEADER_NOT_IN_RAM {
		t.Error("expected header-not-in-RAM error")
	}

	// Trailing garbage inside a list sets the invalid-command error.
	var b cmdBuilder
	b.u8(SPU_CMD_STOP)
	b.u8(0x77)
	writeCommandList(t, m, 0x1000, 0, b.data)
	spu.submissionError.Store(0)
	staged := spu.parseCommandList(0, 0x1000, nil)
	if len(staged) != 1 {
		t.Errorf("valid prefix must stage, got %d", len(staged))
	}
	if spu.submissionError.Load() != SPU_ERROR_INVALID_COMMAND {
		t.Error("expected invalid-command error")
	}
}

func TestSpuQueueSubmissionPort(t *testing.T) {
	spu, m, _ := newTestSpu()
	spu.Start()
	defer spu.Stop()

	var b cmdBuilder
	b.u8(SPU_CMD_RESET_SAMPLE_COUNTER)
	b.u32(123)
	writeCommandList(t, m, 0x1000, 0x2000, b.data)
	if err := m.WriteU32(SPU_BASE+SPU_REG_QUEUE_1, 0x1000); err != nil {
		t.Fatalf("queue submission failed: %v", err)
	}

	// The parser thread acknowledges the submission with the completion
	// flag, then the staged command applies on the next rendered frame.
	deadline := 0
	for {
		if v, _ := m.ReadU32(0x2000); v == 1 {
			break
		}
		deadline++
		if deadline > 1_000_000 {
			t.Fatal("submission completion flag never written")
		}
	}
	for i := 0; i < 100; i++ {
		renderFrames(spu, 1)
		if spu.sampleCounter.Load() == 123 {
			return
		}
	}
	t.Fatal("queued command never applied")
}
