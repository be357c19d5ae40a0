// command_list.go - Command-list ingest shared by the GPU and SPU front ends

/*
RVFM - Rad Virtual Fantasy Machine
License: GPLv3 or later

A command list is submitted by writing the guest address of its 8-byte
header to a device submission port. The header holds the payload length and
an optional submission-completion flag address. The payload is copied out of
guest RAM into a pooled buffer so device workers never chase guest pointers
mid-execution.
*/

package main

import (
	"encoding/binary"
	"errors"
	"sync"
)

const MAX_COMMANDLIST_LEN = 1024 * 1024

var (
	ErrHeaderNotInRam = errors.New("command list: header not in RAM")
	ErrListNotInRam   = errors.New("command list: payload not in RAM")
	ErrListTooLong    = errors.New("command list: payload too long")
)

type CommandList struct {
	data []byte
}

func (cl *CommandList) Len() uint32 {
	return uint32(len(cl.data))
}

func (cl *CommandList) ReadU8(offset uint32) (uint8, bool) {
	if offset >= uint32(len(cl.data)) {
		return 0, false
	}
	return cl.data[offset], true
}

func (cl *CommandList) ReadU16(offset uint32) (uint16, bool) {
	if uint64(offset)+2 > uint64(len(cl.data)) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(cl.data[offset:]), true
}

func (cl *CommandList) ReadU32(offset uint32) (uint32, bool) {
	if uint64(offset)+4 > uint64(len(cl.data)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(cl.data[offset:]), true
}

var commandListPool = sync.Pool{
	New: func() any { return &CommandList{} },
}

// ParseCommandListHeader validates the header at addr, copies the payload
// into a pooled buffer and writes the submission-completion flag. The fence
// before the reads pairs with the guest's release of the list memory; the
// fence after the flag write publishes it.
func ParseCommandListHeader(addr uint32, m *Machine) (*CommandList, error) {
	if !InRAM(addr) || !InRAM(addr+8) {
		return nil, ErrHeaderNotInRam
	}
	m.Fence()
	listLen, _ := m.ReadU32(addr)
	completionAddr, _ := m.ReadU32(addr + 4)

	if listLen > MAX_COMMANDLIST_LEN {
		return nil, ErrListTooLong
	}
	listStart := addr + 8
	if !InRAM(listStart) || !InRAM(listStart+listLen) {
		return nil, ErrListNotInRam
	}

	cl := commandListPool.Get().(*CommandList)
	if cap(cl.data) < int(listLen) {
		cl.data = make([]byte, listLen)
	}
	cl.data = cl.data[:listLen]
	if err := m.ReadBlock(listStart, cl.data); err != nil {
		RetireCommandList(cl)
		return nil, ErrListNotInRam
	}
	if completionAddr != 0 {
		m.WriteU32(completionAddr, 1)
		m.Fence()
	}
	return cl, nil
}

// RetireCommandList returns a drained list's buffer to the pool.
func RetireCommandList(cl *CommandList) {
	commandListPool.Put(cl)
}
