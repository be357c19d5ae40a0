// gpu_worker_test.go - GPU submission port tests

package main

import (
	"testing"
	"time"
)

func TestGpuSubmissionPort(t *testing.T) {
	m := NewMachine(nil)
	ic := NewInterruptController()
	video := NewHeadlessVideo()
	gpu := NewGpuDevice(m, ic, video)
	m.AttachGPU(gpu)
	gpu.Start()
	defer gpu.Stop()

	var b cmdBuilder
	b.u16(GPU_CMD_WRITE_FLAG)
	b.u8(0)
	b.u8(0)
	b.u32(0x6000)
	b.u32(0xCAFE)
	writeCommandList(t, m, 0x1000, 0x5000, b.data)

	if err := m.WriteU32(GPU_BASE, 0x1000); err != nil {
		t.Fatalf("submission failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		submitted, _ := m.ReadU32(0x5000)
		executed, _ := m.ReadU32(0x6000)
		if submitted == 1 && executed == 0xCAFE {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("command list was not ingested and executed")
}

func TestGpuSubmissionBadAddress(t *testing.T) {
	m := NewMachine(nil)
	gpu := NewGpuDevice(m, NewInterruptController(), nil)
	m.AttachGPU(gpu)
	gpu.Start()

	// A bad submission logs and is dropped; the worker keeps serving.
	m.WriteU32(GPU_BASE, 0xF0000000)

	var b cmdBuilder
	b.u16(GPU_CMD_WRITE_FLAG)
	b.u8(0)
	b.u8(0)
	b.u32(0x6000)
	b.u32(1)
	writeCommandList(t, m, 0x1000, 0, b.data)
	m.WriteU32(GPU_BASE, 0x1000)
	gpu.Stop() // drains the queue before returning

	if v, _ := m.ReadU32(0x6000); v != 1 {
		t.Error("worker must keep executing after a failed submission")
	}
}
