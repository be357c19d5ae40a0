// machine_bus.go - Guest memory bus and MMIO dispatch for the RVFM core

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

The Machine owns guest RAM and ROM and routes every byte, half-word and word
access either into memory or into one of the memory-mapped devices (debug
serial, GPU submission port, hart start registers, interrupt controller,
SPU registers). It is the only legal path to guest memory for the
coprocessors, and it provides the acquire-release fence the completion
protocol depends on.
*/

package main

import (
	"encoding/binary"
	"errors"
	"sync/atomic"
)

var (
	ErrInvalidAddress = errors.New("bus: invalid address")
	ErrReadOnly       = errors.New("bus: write to read-only memory")
)

// DeviceHandler is an MMIO window. Offsets are relative to the window base.
type DeviceHandler interface {
	ReadReg(offset uint32, size int) (uint32, error)
	WriteReg(offset uint32, value uint32, size int) error
}

type Machine struct {
	ram []byte
	rom []byte

	fence atomic.Uint32

	debug DeviceHandler
	gpu   DeviceHandler
	clk   DeviceHandler
	intc  DeviceHandler
	spu   DeviceHandler
}

func NewMachine(romData []byte) *Machine {
	m := &Machine{
		ram: make([]byte, RAM_SIZE),
		rom: make([]byte, ROM_SIZE),
	}
	copy(m.rom, romData)
	return m
}

func (m *Machine) AttachDebug(d DeviceHandler) { m.debug = d }
func (m *Machine) AttachGPU(d DeviceHandler)   { m.gpu = d }
func (m *Machine) AttachClock(d DeviceHandler) { m.clk = d }
func (m *Machine) AttachIntc(d DeviceHandler)  { m.intc = d }
func (m *Machine) AttachSPU(d DeviceHandler)   { m.spu = d }

// Fence establishes acquire-release ordering between the coprocessors and
// the guest harts around guest-RAM block accesses. The atomic RMW is a full
// synchronization point under the Go memory model.
func (m *Machine) Fence() {
	m.fence.Add(1)
}

// InRAM reports whether addr lies in guest RAM.
func InRAM(addr uint32) bool {
	return addr <= RAM_END
}

func (m *Machine) device(addr uint32) (DeviceHandler, uint32) {
	switch {
	case addr >= DEBUG_BASE && addr <= DEBUG_END:
		return m.debug, addr - DEBUG_BASE
	case addr >= GPU_BASE && addr <= GPU_END:
		return m.gpu, addr - GPU_BASE
	case addr >= CLK_BASE && addr <= CLK_END:
		return m.clk, addr - CLK_BASE
	case addr >= INT_BASE && addr <= INT_END:
		return m.intc, addr - INT_BASE
	case addr >= SPU_BASE && addr <= SPU_END:
		return m.spu, addr - SPU_BASE
	}
	return nil, 0
}

func (m *Machine) read(addr uint32, size int) (uint32, error) {
	last := uint64(addr) + uint64(size) - 1
	switch {
	case last <= RAM_END:
		return loadLE(m.ram[addr : addr+uint32(size)]), nil
	case addr >= ROM_START:
		off := addr - ROM_START
		if uint64(off)+uint64(size) > uint64(len(m.rom)) {
			return 0, ErrInvalidAddress
		}
		return loadLE(m.rom[off : off+uint32(size)]), nil
	}
	if dev, off := m.device(addr); dev != nil {
		return dev.ReadReg(off, size)
	}
	return 0, ErrInvalidAddress
}

func (m *Machine) write(addr uint32, value uint32, size int) error {
	last := uint64(addr) + uint64(size) - 1
	switch {
	case last <= RAM_END:
		storeLE(m.ram[addr:addr+uint32(size)], value)
		return nil
	case addr >= ROM_START:
		return ErrReadOnly
	}
	if dev, off := m.device(addr); dev != nil {
		return dev.WriteReg(off, value, size)
	}
	return ErrInvalidAddress
}

func (m *Machine) ReadU8(addr uint32) (uint8, error) {
	v, err := m.read(addr, 1)
	return uint8(v), err
}

func (m *Machine) ReadU16(addr uint32) (uint16, error) {
	v, err := m.read(addr, 2)
	return uint16(v), err
}

func (m *Machine) ReadU32(addr uint32) (uint32, error) {
	return m.read(addr, 4)
}

func (m *Machine) WriteU8(addr uint32, value uint8) error {
	return m.write(addr, uint32(value), 1)
}

func (m *Machine) WriteU16(addr uint32, value uint16) error {
	return m.write(addr, uint32(value), 2)
}

func (m *Machine) WriteU32(addr uint32, value uint32) error {
	return m.write(addr, value, 4)
}

// ReadBlock copies len(dst) bytes of guest memory starting at addr. The
// whole range must lie inside RAM or inside ROM; block access never touches
// device windows.
func (m *Machine) ReadBlock(addr uint32, dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	end := uint64(addr) + uint64(len(dst)) - 1
	switch {
	case end <= RAM_END:
		copy(dst, m.ram[addr:])
		return nil
	case addr >= ROM_START && end <= ROM_END:
		copy(dst, m.rom[addr-ROM_START:])
		return nil
	}
	return ErrInvalidAddress
}

// WriteBlock copies src into guest RAM starting at addr.
func (m *Machine) WriteBlock(addr uint32, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	end := uint64(addr) + uint64(len(src)) - 1
	if end <= RAM_END {
		copy(m.ram[addr:], src)
		return nil
	}
	if addr >= ROM_START {
		return ErrReadOnly
	}
	return ErrInvalidAddress
}

func loadLE(b []byte) uint32 {
	switch len(b) {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	default:
		return binary.LittleEndian.Uint32(b)
	}
}

func storeLE(b []byte, v uint32) {
	switch len(b) {
	case 1:
		b[0] = uint8(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	default:
		binary.LittleEndian.PutUint32(b, v)
	}
}
