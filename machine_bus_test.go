// machine_bus_test.go - Bus facade tests

package main

import "testing"

func TestBusRamReadWrite(t *testing.T) {
	m := NewMachine(nil)

	if err := m.WriteU32(0x1000, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteU32 failed: %v", err)
	}
	v, err := m.ReadU32(0x1000)
	if err != nil {
		t.Fatalf("ReadU32 failed: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Errorf("expected DEADBEEF, got %08X", v)
	}

	// Little-endian byte order.
	b, _ := m.ReadU8(0x1000)
	if b != 0xEF {
		t.Errorf("expected low byte EF, got %02X", b)
	}
	h, _ := m.ReadU16(0x1002)
	if h != 0xDEAD {
		t.Errorf("expected high half DEAD, got %04X", h)
	}
}

func TestBusRomReadOnly(t *testing.T) {
	rom := make([]byte, 16)
	rom[0] = 0x42
	m := NewMachine(rom)

	v, err := m.ReadU8(ROM_START)
	if err != nil {
		t.Fatalf("ROM read failed: %v", err)
	}
	if v != 0x42 {
		t.Errorf("expected 42, got %02X", v)
	}
	if err := m.WriteU8(ROM_START, 1); err != ErrReadOnly {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestBusInvalidAddress(t *testing.T) {
	m := NewMachine(nil)
	if _, err := m.ReadU32(0x40000000); err != ErrInvalidAddress {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
	if err := m.WriteU32(0x40000000, 1); err != ErrInvalidAddress {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestBusBlockAccess(t *testing.T) {
	m := NewMachine(nil)
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := m.WriteBlock(0x2000, src); err != nil {
		t.Fatalf("WriteBlock failed: %v", err)
	}
	dst := make([]byte, 8)
	if err := m.ReadBlock(0x2000, dst); err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("byte %d: expected %d, got %d", i, src[i], dst[i])
		}
	}

	// Block access must lie entirely in one region.
	if err := m.ReadBlock(RAM_END-3, dst); err != ErrInvalidAddress {
		t.Errorf("expected ErrInvalidAddress for straddling read, got %v", err)
	}
}

func TestBusDeviceDispatch(t *testing.T) {
	m := NewMachine(nil)
	ic := NewInterruptController()
	m.AttachIntc(ic)

	ic.TriggerInterrupt(INT_SPU)
	pending, err := m.ReadU32(INT_BASE + INT_REG_PENDING)
	if err != nil {
		t.Fatalf("interrupt controller read failed: %v", err)
	}
	if pending != 1<<INT_SPU {
		t.Errorf("expected pending %08X, got %08X", uint32(1)<<INT_SPU, pending)
	}
	if err := m.WriteU32(INT_BASE+INT_REG_ACK, pending); err != nil {
		t.Fatalf("ack failed: %v", err)
	}
	pending, _ = m.ReadU32(INT_BASE + INT_REG_PENDING)
	if pending != 0 {
		t.Errorf("expected cleared pending, got %08X", pending)
	}
}

func TestInterruptCoalesce(t *testing.T) {
	ic := NewInterruptController()
	ic.TriggerInterrupt(INT_GPU)
	ic.TriggerInterrupt(INT_GPU)
	if ic.Pending() != 1<<INT_GPU {
		t.Errorf("expected single pending bit, got %08X", ic.Pending())
	}
}

func TestHartClockLatches(t *testing.T) {
	m := NewMachine(nil)
	hc := NewHartClock()
	m.AttachClock(hc)

	for hart := 0; hart < 4; hart++ {
		addr := uint32(CLK_BASE + hart*4)
		if err := m.WriteU32(addr, uint32(0x1000+hart)); err != nil {
			t.Fatalf("hart %d write failed: %v", hart, err)
		}
	}
	for hart := 0; hart < 4; hart++ {
		if got := hc.StartAddress(hart); got != uint32(0x1000+hart) {
			t.Errorf("hart %d: expected %08X, got %08X", hart, 0x1000+hart, got)
		}
	}
}
