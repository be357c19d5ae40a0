// gpu_worker.go - GPU submission port and worker thread

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

The GPU device is a single MMIO word: writing a guest address submits the
command list at that address. A dedicated worker goroutine ingests the
list, queues it and drains as many lists as are ready before executing.
*/

package main

import "sync"

type GpuDevice struct {
	machine *Machine
	core    *GpuCore

	submit chan uint32

	closeOnce sync.Once
	done      chan struct{}
}

func NewGpuDevice(machine *Machine, intc *InterruptController, video VideoOutput) *GpuDevice {
	g := &GpuDevice{
		machine: machine,
		core:    NewGpuCore(machine, intc, video),
		submit:  make(chan uint32, 256),
		done:    make(chan struct{}),
	}
	return g
}

// Start launches the worker goroutine. It exits when Stop closes the
// submission channel.
func (g *GpuDevice) Start() {
	go g.worker()
}

func (g *GpuDevice) Stop() {
	g.closeOnce.Do(func() {
		close(g.submit)
	})
	<-g.done
}

func (g *GpuDevice) worker() {
	defer close(g.done)
	for addr := range g.submit {
		g.ingest(addr)
		// Drain whatever else is already queued before executing, so a
		// burst of submissions runs as one batch.
	drain:
		for {
			select {
			case more, ok := <-g.submit:
				if !ok {
					break drain
				}
				g.ingest(more)
			default:
				break drain
			}
		}
		g.core.Process()
	}
	g.core.Process()
}

func (g *GpuDevice) ingest(addr uint32) {
	cl, err := ParseCommandListHeader(addr, g.machine)
	if err != nil {
		logGpu("failed command list submission (%08X): %v", addr, err)
		return
	}
	g.core.AddCommandList(cl)
}

func (g *GpuDevice) ReadReg(offset uint32, size int) (uint32, error) {
	if offset == 0 {
		return 0, nil
	}
	return 0, ErrInvalidAddress
}

func (g *GpuDevice) WriteReg(offset uint32, value uint32, size int) error {
	if offset != 0 {
		return ErrInvalidAddress
	}
	g.submit <- value
	return nil
}
