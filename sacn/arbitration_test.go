package sacn

import (
	"testing"

	"github.com/Hundemeier/go-sacn/packets"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		emptyA, emptyB, isA, isB bool
		shouldBe                 admission
		slot                     int
		merging                  bool
	}{
		{true, true, false, false, admitFirst, slotA, false},
		{false, true, true, false, admitUpdateA, slotA, false},
		{true, false, false, true, admitUpdateB, slotB, false},
		{false, true, false, false, admitJoinB, slotB, true},
		{true, false, false, false, admitJoinA, slotA, true},
		{false, false, true, false, admitMergeA, slotA, true},
		{false, false, false, true, admitMergeB, slotB, true},
		{false, false, true, true, rejectBothMatch, slotA, false},
		{false, false, false, false, rejectThirdSource, slotA, false},
	}
	for _, tt := range tests {
		adm := classify(tt.emptyA, tt.emptyB, tt.isA, tt.isB)
		if adm != tt.shouldBe {
			t.Errorf("classify(%v, %v, %v, %v) = %v; Should've been: %v",
				tt.emptyA, tt.emptyB, tt.isA, tt.isB, adm, tt.shouldBe)
			continue
		}
		if !adm.rejected() && adm.slot() != tt.slot {
			t.Errorf("%v: slot %v; Should've been: %v", adm, adm.slot(), tt.slot)
		}
		if adm.merging() != tt.merging {
			t.Errorf("%v: merging %v; Should've been: %v", adm, adm.merging(), tt.merging)
		}
	}
}

func TestClassifyTotal(t *testing.T) {
	seen := make(map[admission]bool)
	for i := 0; i < 16; i++ {
		adm := classify(i&1 != 0, i&2 != 0, i&4 != 0, i&8 != 0)
		if adm > rejectThirdSource {
			t.Fatalf("classify returned an unknown case %d for input %04b", adm, i)
		}
		seen[adm] = true
	}
	if len(seen) != 9 {
		t.Errorf("Every admission case should be reachable, got %v", len(seen))
	}
}

func TestHigherPriorityPreempts(t *testing.T) {
	b, sink, _ := newTestBridge(t)
	b.ProcessDatagram(1000, ip1, newPkt(1, 1, 1, []byte{10, 20}).bytes())
	b.ProcessDatagram(1010, ip2, newPkt(1, 2, 1, []byte{30, 5}).bytes())
	if !b.IsMerging(0) {
		t.Fatal("Sources should be merging")
	}

	p := newPkt(1, 3, 1, []byte{1, 1})
	p.priority = 150
	b.ProcessDatagram(1020, ip3, p.bytes())
	if b.IsMerging(0) {
		t.Error("Higher priority should end merging")
	}
	expectData(t, sink, 0, []byte{1, 1})
	if s := b.State(); s.Priority != 150 || s.Ports[0].Sources != 1 {
		t.Errorf("Wrong state: %+v", s)
	}

	//the old sources are ignored now
	b.ProcessDatagram(1030, ip1, newPkt(1, 1, 2, []byte{99, 99}).bytes())
	expectData(t, sink, 0, []byte{1, 1})
}

func TestPreemptionOnSharedUniverse(t *testing.T) {
	b, sink, _ := newTestBridge(t)
	b.SetUniverse(1, DirectionOutput, 1)
	b.SetDirection(1, DirectionOutput)

	b.ProcessDatagram(1000, ip1, newPkt(1, 1, 1, []byte{10}).bytes())
	p := newPkt(1, 2, 1, []byte{20})
	p.priority = 150
	b.ProcessDatagram(1010, ip2, p.bytes())

	for port := 0; port < 2; port++ {
		if b.IsMerging(port) {
			t.Errorf("Port %v should not merge sources of different priority", port)
		}
		if n := b.State().Ports[port].Sources; n != 1 {
			t.Errorf("Port %v: Wrong output! Was: %v; Should've been: %v", port, n, 1)
		}
		expectData(t, sink, port, []byte{20})
	}
}

func TestLowerPriorityAfterTimeout(t *testing.T) {
	b, sink, _ := newTestBridge(t)
	p := newPkt(1, 1, 1, []byte{10})
	p.priority = 150
	b.ProcessDatagram(1000, ip1, p.bytes())

	low := newPkt(1, 2, 1, []byte{20})
	b.ProcessDatagram(2000, ip2, low.bytes())
	expectData(t, sink, 0, []byte{10})
	if b.State().Ports[0].Sources != 1 {
		t.Error("Lower priority source must not be admitted")
	}

	low.seq = 2
	b.ProcessDatagram(11001, ip2, low.bytes())
	expectData(t, sink, 0, []byte{20})
	if s := b.State(); s.Priority != packets.DefaultPriority || s.Ports[0].Sources != 1 {
		t.Errorf("Wrong state: %+v", s)
	}
}

func TestThirdSourceRejected(t *testing.T) {
	b, sink, _ := newTestBridge(t)
	b.ProcessDatagram(1000, ip1, newPkt(1, 1, 1, []byte{10}).bytes())
	b.ProcessDatagram(1010, ip2, newPkt(1, 2, 1, []byte{0, 20}).bytes())
	calls := len(sink.calls)

	b.ProcessDatagram(1020, ip3, newPkt(1, 3, 1, []byte{255, 255, 255}).bytes())
	if len(sink.calls) != calls {
		t.Errorf("Third source must not change the output: %v", sink.calls[calls:])
	}
	if b.Diagnostics().SourceConflicts != 1 {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", b.Diagnostics().SourceConflicts, 1)
	}
	expectData(t, sink, 0, []byte{10, 20})
}

func TestSenderInBothSlotsRejected(t *testing.T) {
	b, sink, _ := newTestBridge(t)
	b.ProcessDatagram(1000, ip1, newPkt(1, 1, 1, []byte{10}).bytes())
	b.ports[0].sources[slotB] = b.ports[0].sources[slotA]
	calls := len(sink.calls)

	b.ProcessDatagram(1010, ip1, newPkt(1, 1, 2, []byte{30}).bytes())
	if len(sink.calls) != calls {
		t.Error("A sender in both slots must not change the output")
	}
	if b.Diagnostics().SourceConflicts != 1 {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", b.Diagnostics().SourceConflicts, 1)
	}
}

func TestSameAddressDifferentCID(t *testing.T) {
	b, sink, _ := newTestBridge(t)
	b.ProcessDatagram(1000, ip1, newPkt(1, 1, 1, []byte{10, 0}).bytes())
	b.ProcessDatagram(1010, ip1, newPkt(1, 2, 1, []byte{0, 10}).bytes())
	if !b.IsMerging(0) {
		t.Error("Two CIDs on one address are two sources")
	}
	expectData(t, sink, 0, []byte{10, 10})
}

func TestJoinFreeSlotA(t *testing.T) {
	b, sink, _ := newTestBridge(t)
	b.ProcessDatagram(1000, ip1, newPkt(1, 1, 1, []byte{10}).bytes())
	b.ProcessDatagram(1010, ip2, newPkt(1, 2, 1, []byte{20}).bytes())
	term := newPkt(1, 1, 2, nil)
	term.terminated = true
	b.ProcessDatagram(1020, ip1, term.bytes())
	expectData(t, sink, 0, []byte{20})

	b.ProcessDatagram(1030, ip3, newPkt(1, 3, 1, []byte{0, 30}).bytes())
	if !b.IsMerging(0) {
		t.Error("New source should merge in slot A")
	}
	if !b.ports[0].sources[slotA].matches(ip3, [16]byte{3}) {
		t.Error("New source should be in slot A")
	}
	expectData(t, sink, 0, []byte{20, 30})
}

func TestLowerPriorityOnOtherUniverse(t *testing.T) {
	b, sink, _ := newTestBridge(t)
	b.SetUniverse(1, DirectionOutput, 2)
	b.SetDirection(1, DirectionOutput)

	b.ProcessDatagram(1000, ip1, newPkt(1, 1, 1, []byte{10, 20, 30}).bytes())
	b.ProcessDatagram(1010, ip3, newPkt(1, 3, 1, []byte{5, 50, 5}).bytes())
	expectData(t, sink, 0, []byte{10, 50, 30})

	low := newPkt(2, 2, 1, []byte{1})
	low.priority = 50
	b.ProcessDatagram(1020, ip2, low.bytes())
	if b.State().Priority != packets.DefaultPriority || b.IsTransmitting(1) {
		t.Errorf("A lower priority must wait for the priority timeout: %+v", b.State())
	}

	//the merge partner on universe 1 is still there
	b.ProcessDatagram(1030, ip1, newPkt(1, 1, 2, []byte{10, 20, 30}).bytes())
	if !b.IsMerging(0) {
		t.Error("Equal priority source must not be evicted")
	}
	expectData(t, sink, 0, []byte{10, 50, 30})

	low.seq = 2
	b.ProcessDatagram(11030, ip2, low.bytes())
	if b.IsTransmitting(1) {
		t.Error("Priority timeout has not elapsed yet")
	}
	low.seq = 3
	b.ProcessDatagram(11031, ip2, low.bytes())
	if b.State().Priority != 50 || !b.IsTransmitting(1) {
		t.Errorf("Lower priority should take over after the timeout: %+v", b.State())
	}
	expectData(t, sink, 1, []byte{1})
}
