package sacn

import (
	"net/netip"

	"github.com/Hundemeier/go-sacn/packets"
)

const (
	slotA = 0
	slotB = 1
)

//source is one sender that currently contributes to an output port
type source struct {
	address  netip.Addr //invalid if the slot is empty
	cid      [16]byte
	sequence byte
	lastSeen uint32
	data     [packets.MaxChannels]byte
	length   int
}

func (s *source) occupied() bool {
	return s.address.IsValid()
}

//matches returns true, if the sender is the one in this slot. A different CID on the same
//address is a different source.
func (s *source) matches(address netip.Addr, cid [16]byte) bool {
	return s.occupied() && s.address == address && s.cid == cid
}

func (s *source) admit(address netip.Addr, cid [16]byte, sequence byte, now uint32, data []byte) {
	s.address = address
	s.cid = cid
	s.sequence = sequence
	s.lastSeen = now
	s.length = copy(s.data[:], data)
}

func (s *source) clear() {
	s.address = netip.Addr{}
	s.cid = [16]byte{}
	s.sequence = 0
	s.length = 0
}

func (s *source) payload() []byte {
	return s.data[:s.length]
}

//admission is the outcome of matching a sender against the two slots of a port
type admission uint8

const (
	admitFirst        admission = iota //both slots empty: take A
	admitUpdateA                       //A is the sender, B empty
	admitUpdateB                       //A empty, B is the sender
	admitJoinB                         //A is another sender, B empty: merge
	admitJoinA                         //B is another sender, A empty: merge
	admitMergeA                        //A is the sender, B is another sender
	admitMergeB                        //B is the sender, A is another sender
	rejectBothMatch                    //the sender is in both slots
	rejectThirdSource                  //both slots taken by other senders
)

//classify decides the admission case. Every combination of inputs maps to exactly one case.
func classify(emptyA, emptyB, isA, isB bool) admission {
	switch {
	case isA && isB:
		return rejectBothMatch
	case emptyA && emptyB:
		return admitFirst
	case isA && emptyB:
		return admitUpdateA
	case emptyA && isB:
		return admitUpdateB
	case isA:
		return admitMergeA
	case isB:
		return admitMergeB
	case emptyB:
		return admitJoinB
	case emptyA:
		return admitJoinA
	default:
		return rejectThirdSource
	}
}

func (a admission) rejected() bool {
	return a == rejectBothMatch || a == rejectThirdSource
}

func (a admission) slot() int {
	switch a {
	case admitUpdateB, admitJoinB, admitMergeB:
		return slotB
	default:
		return slotA
	}
}

func (a admission) merging() bool {
	switch a {
	case admitJoinA, admitJoinB, admitMergeA, admitMergeB:
		return true
	default:
		return false
	}
}

func (a admission) String() string {
	switch a {
	case admitFirst:
		return "first source"
	case admitUpdateA:
		return "update A"
	case admitUpdateB:
		return "update B"
	case admitJoinB:
		return "join B"
	case admitJoinA:
		return "join A"
	case admitMergeA:
		return "merge A"
	case admitMergeB:
		return "merge B"
	case rejectBothMatch:
		return "sender matches both slots"
	default:
		return "third source"
	}
}
