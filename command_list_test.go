// command_list_test.go - Command-list ingest tests

package main

import (
	"encoding/binary"
	"testing"
)

// writeCommandList places an 8-byte header plus payload at addr; the
// header carries the payload length and the completion address.
func writeCommandList(t *testing.T, m *Machine, addr, completionAddr uint32, payload []byte) {
	t.Helper()
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[4:], completionAddr)
	if err := m.WriteBlock(addr, header); err != nil {
		t.Fatalf("header write failed: %v", err)
	}
	if err := m.WriteBlock(addr+8, payload); err != nil {
		t.Fatalf("payload write failed: %v", err)
	}
}

func TestCommandListParse(t *testing.T) {
	m := NewMachine(nil)
	payload := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	writeCommandList(t, m, 0x1000, 0x4000, payload)

	cl, err := ParseCommandListHeader(0x1000, m)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	defer RetireCommandList(cl)

	if cl.Len() != 4 {
		t.Fatalf("expected length 4, got %d", cl.Len())
	}
	for i, want := range payload {
		got, ok := cl.ReadU8(uint32(i))
		if !ok || got != want {
			t.Errorf("payload byte %d: expected %02X, got %02X", i, want, got)
		}
	}

	// Submission completion flag must read 1.
	flag, _ := m.ReadU32(0x4000)
	if flag != 1 {
		t.Errorf("expected completion flag 1, got %d", flag)
	}
}

func TestCommandListZeroCompletionAddr(t *testing.T) {
	m := NewMachine(nil)
	writeCommandList(t, m, 0x1000, 0, []byte{1})
	cl, err := ParseCommandListHeader(0x1000, m)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	RetireCommandList(cl)
	if v, _ := m.ReadU32(0); v != 0 {
		t.Errorf("completion write to address 0 must not happen, got %d", v)
	}
}

func TestCommandListHeaderNotInRam(t *testing.T) {
	m := NewMachine(nil)
	if _, err := ParseCommandListHeader(0x90000000, m); err != ErrHeaderNotInRam {
		t.Errorf("expected ErrHeaderNotInRam, got %v", err)
	}
	if _, err := ParseCommandListHeader(RAM_END-3, m); err != ErrHeaderNotInRam {
		t.Errorf("expected ErrHeaderNotInRam near end of RAM, got %v", err)
	}
}

func TestCommandListTooLong(t *testing.T) {
	m := NewMachine(nil)
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:], MAX_COMMANDLIST_LEN+1)
	m.WriteBlock(0x1000, header)
	if _, err := ParseCommandListHeader(0x1000, m); err != ErrListTooLong {
		t.Errorf("expected ErrListTooLong, got %v", err)
	}
}

func TestCommandListNotInRam(t *testing.T) {
	m := NewMachine(nil)
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:], 0x100000)
	addr := uint32(RAM_END - 0x20)
	// Header fits, payload runs past the end of RAM.
	m.WriteBlock(addr, header)
	if _, err := ParseCommandListHeader(addr, m); err != ErrListNotInRam {
		t.Errorf("expected ErrListNotInRam, got %v", err)
	}
}

func TestCommandListReaders(t *testing.T) {
	cl := &CommandList{data: []byte{0x01, 0x02, 0x03, 0x04}}
	if v, ok := cl.ReadU16(2); !ok || v != 0x0403 {
		t.Errorf("ReadU16: expected 0403, got %04X (%v)", v, ok)
	}
	if v, ok := cl.ReadU32(0); !ok || v != 0x04030201 {
		t.Errorf("ReadU32: expected 04030201, got %08X (%v)", v, ok)
	}
	if _, ok := cl.ReadU32(1); ok {
		t.Error("ReadU32 past end must fail")
	}
	if _, ok := cl.ReadU16(3); ok {
		t.Error("ReadU16 past end must fail")
	}
}
