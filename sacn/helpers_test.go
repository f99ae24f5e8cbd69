package sacn

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/Hundemeier/go-sacn/packets"
)

var (
	ip1 = netip.MustParseAddr("192.168.0.1")
	ip2 = netip.MustParseAddr("192.168.0.2")
	ip3 = netip.MustParseAddr("192.168.0.3")
)

type sinkCall struct {
	op   string
	port int
	data []byte
}

//recordingSink remembers every call in order
type recordingSink struct {
	calls []sinkCall
}

func (s *recordingSink) Start(port int) {
	s.calls = append(s.calls, sinkCall{op: "start", port: port})
}

func (s *recordingSink) Stop(port int) {
	s.calls = append(s.calls, sinkCall{op: "stop", port: port})
}

func (s *recordingSink) SetData(port int, data []byte) {
	s.calls = append(s.calls, sinkCall{op: "data", port: port, data: append([]byte(nil), data...)})
}

func (s *recordingSink) count(op string, port int) int {
	n := 0
	for _, c := range s.calls {
		if c.op == op && c.port == port {
			n++
		}
	}
	return n
}

//lastData returns the data of the last SetData call for the port
func (s *recordingSink) lastData(port int) []byte {
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].op == "data" && s.calls[i].port == port {
			return s.calls[i].data
		}
	}
	return nil
}

type recordingGroups struct {
	joined []netip.Addr
	left   []netip.Addr
}

func (g *recordingGroups) JoinGroup(group netip.Addr) error {
	g.joined = append(g.joined, group)
	return nil
}

func (g *recordingGroups) LeaveGroup(group netip.Addr) error {
	g.left = append(g.left, group)
	return nil
}

//pkt describes a data packet for the tests
type pkt struct {
	universe   uint16
	cid        byte
	seq        byte
	priority   byte
	sync       uint16
	preview    bool
	terminated bool
	force      bool
	startCode  byte
	data       []byte
}

func newPkt(universe uint16, cid, seq byte, data []byte) pkt {
	return pkt{universe: universe, cid: cid, seq: seq, priority: packets.DefaultPriority, data: data}
}

func (p pkt) bytes() []byte {
	d := packets.NewDataPacket()
	d.SetUniverse(p.universe)
	d.SetCID([16]byte{p.cid})
	d.SetSequence(p.seq)
	d.SetPriority(p.priority)
	d.SetSyncAddress(p.sync)
	d.SetPreviewData(p.preview)
	d.SetStreamTerminated(p.terminated)
	d.SetForceSync(p.force)
	d.SetDmxStartCode(p.startCode)
	d.SetSourceName("test")
	d.SetData(p.data)
	return append([]byte(nil), d.Bytes()...)
}

func syncBytes(address uint16) []byte {
	s := packets.NewSyncPacket([16]byte{0xee}, address)
	return s.Bytes()
}

//newTestBridge returns a bridge with port 0 as output on universe 1
func newTestBridge(t *testing.T) (*Bridge, *recordingSink, *recordingGroups) {
	t.Helper()
	sink := &recordingSink{}
	groups := &recordingGroups{}
	b := NewBridge(Options{Sink: sink, Groups: groups})
	if err := b.SetUniverse(0, DirectionOutput, 1); err != nil {
		t.Fatalf("SetUniverse: %v", err)
	}
	if err := b.SetDirection(0, DirectionOutput); err != nil {
		t.Fatalf("SetDirection: %v", err)
	}
	b.StatusChanged()
	return b, sink, groups
}

func expectData(t *testing.T, sink *recordingSink, port int, shouldBe []byte) {
	t.Helper()
	if out := sink.lastData(port); !bytes.Equal(out, shouldBe) {
		t.Errorf("Wrong output! Was: %v; Should've been: %v", out, shouldBe)
	}
}
