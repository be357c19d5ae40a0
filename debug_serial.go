// debug_serial.go - Debug serial port device and raw-console host

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later
*/

package main

import (
	"os"
	"sync"

	"golang.org/x/term"
)

// Serial register offsets (from DEBUG_BASE).
const (
	SERIAL_REG_OUTPUT = 0x00 // write: emit byte to host console
	SERIAL_REG_INPUT  = 0x04 // read: next buffered byte, 0 when empty
	SERIAL_REG_STATUS = 0x08 // read: buffered byte count
)

type DebugSerial struct {
	mutex sync.Mutex
	input []byte

	rawState *term.State
	stopRead chan struct{}
	readOnce sync.Once
}

func NewDebugSerial() *DebugSerial {
	return &DebugSerial{stopRead: make(chan struct{})}
}

// PushInput buffers a byte for the guest (console reader, window key
// events, clipboard paste).
func (d *DebugSerial) PushInput(b byte) {
	d.mutex.Lock()
	d.input = append(d.input, b)
	d.mutex.Unlock()
}

// StartConsole puts the host terminal into raw mode and feeds stdin bytes
// into the input buffer.
func (d *DebugSerial) StartConsole() error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	d.rawState = state
	go d.readLoop()
	return nil
}

func (d *DebugSerial) readLoop() {
	buf := make([]byte, 64)
	for {
		select {
		case <-d.stopRead:
			return
		default:
		}
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		for _, b := range buf[:n] {
			d.PushInput(b)
		}
	}
}

func (d *DebugSerial) StopConsole() {
	d.readOnce.Do(func() { close(d.stopRead) })
	if d.rawState != nil {
		term.Restore(int(os.Stdin.Fd()), d.rawState)
		d.rawState = nil
	}
}

func (d *DebugSerial) ReadReg(offset uint32, size int) (uint32, error) {
	switch offset {
	case SERIAL_REG_INPUT:
		d.mutex.Lock()
		defer d.mutex.Unlock()
		if len(d.input) == 0 {
			return 0, nil
		}
		b := d.input[0]
		d.input = d.input[1:]
		return uint32(b), nil
	case SERIAL_REG_STATUS:
		d.mutex.Lock()
		defer d.mutex.Unlock()
		return uint32(len(d.input)), nil
	case SERIAL_REG_OUTPUT:
		return 0, nil
	}
	return 0, ErrInvalidAddress
}

func (d *DebugSerial) WriteReg(offset uint32, value uint32, size int) error {
	switch offset {
	case SERIAL_REG_OUTPUT:
		os.Stdout.Write([]byte{byte(value)})
		return nil
	case SERIAL_REG_INPUT, SERIAL_REG_STATUS:
		return nil
	}
	return ErrInvalidAddress
}
