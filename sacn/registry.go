package sacn

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/Hundemeier/go-sacn/packets"
)

//MaxPorts is the number of ports a bridge can drive
const MaxPorts = 4

const (
	//UniverseMin is the lowest valid universe
	UniverseMin = 1
	//UniverseMax is the highest valid universe, everything above is reserved
	UniverseMax = 63999
)

var (
	ErrInvalidPort      = errors.New("port index out of range")
	ErrInvalidUniverse  = errors.New("universe out of range [1-63999]")
	ErrInvalidDirection = errors.New("invalid port direction")
	ErrInvalidMerge     = errors.New("invalid merge policy")
)

//Direction tells wether a port is used for input (DMX to network), output (network to DMX) or not at all
type Direction uint8

const (
	DirectionDisabled Direction = iota
	DirectionInput
	DirectionOutput
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	default:
		return "disabled"
	}
}

//ParseDirection parses the names returned by Direction.String
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "disabled", "disable":
		return DirectionDisabled, nil
	case "input", "in":
		return DirectionInput, nil
	case "output", "out":
		return DirectionOutput, nil
	}
	return DirectionDisabled, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

//MergePolicy decides how two sources on the same port are combined
type MergePolicy uint8

const (
	//MergeHTP outputs the highest value of both sources per channel
	MergeHTP MergePolicy = iota
	//MergeLTP outputs the data of the source that sent last
	MergeLTP
)

func (m MergePolicy) String() string {
	if m == MergeLTP {
		return "ltp"
	}
	return "htp"
}

//ParseMergePolicy parses "htp" or "ltp"
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "htp":
		return MergeHTP, nil
	case "ltp":
		return MergeLTP, nil
	}
	return MergeHTP, fmt.Errorf("%w: %q", ErrInvalidMerge, s)
}

//GroupMembership joins and leaves the multicast groups of universes and synchronization addresses
type GroupMembership interface {
	JoinGroup(group netip.Addr) error
	LeaveGroup(group netip.Addr) error
}

type nopGroups struct{}

func (nopGroups) JoinGroup(netip.Addr) error  { return nil }
func (nopGroups) LeaveGroup(netip.Addr) error { return nil }

//outputPort is the state of one port that is driven from the network
type outputPort struct {
	universe       uint16
	enabled        bool
	mergePolicy    MergePolicy
	sources        [2]source
	output         [packets.MaxChannels]byte
	length         int
	isTransmitting bool
	isMerging      bool
	dataPending    bool
	lastReceived   uint32 //network data loss timer of this port
}

func (p *outputPort) occupiedSources() int {
	n := 0
	for i := range p.sources {
		if p.sources[i].occupied() {
			n++
		}
	}
	return n
}

func checkPort(index int) error {
	if index < 0 || index >= MaxPorts {
		return fmt.Errorf("%w: %d", ErrInvalidPort, index)
	}
	return nil
}

func checkUniverse(universe uint16) error {
	if universe < UniverseMin || universe > UniverseMax {
		return fmt.Errorf("%w: %d", ErrInvalidUniverse, universe)
	}
	return nil
}

//SetUniverse sets the universe of a port for the given direction. Changing the universe of an
//enabled output port resets its sources and moves the multicast membership to the new universe.
func (b *Bridge) SetUniverse(index int, direction Direction, universe uint16) error {
	if err := checkPort(index); err != nil {
		return err
	}
	if err := checkUniverse(universe); err != nil {
		return err
	}
	switch direction {
	case DirectionInput:
		b.inputUniverse[index] = universe
		return nil
	case DirectionOutput:
	default:
		return fmt.Errorf("%w: %v", ErrInvalidDirection, direction)
	}

	port := &b.ports[index]
	old := port.universe
	if old == universe {
		return nil
	}
	if !port.enabled {
		port.universe = universe
		return nil
	}
	b.resetPort(index)
	port.universe = universe
	b.leaveGroup(old, index, -1)
	b.joinGroup(universe, index, -1)
	b.isChanged = true
	b.logger.Info("output universe changed", "port", index, "old", old, "universe", universe)
	return nil
}

//GetUniverse returns the universe of the port, if the port is enabled in the given direction
func (b *Bridge) GetUniverse(index int, direction Direction) (uint16, bool) {
	if checkPort(index) != nil || direction == DirectionDisabled || b.direction[index] != direction {
		return 0, false
	}
	if direction == DirectionInput {
		return b.inputUniverse[index], true
	}
	return b.ports[index].universe, true
}

//SetDirection enables a port as input or output, or disables it. Output ports join the multicast
//group of their universe.
func (b *Bridge) SetDirection(index int, direction Direction) error {
	if err := checkPort(index); err != nil {
		return err
	}
	if direction > DirectionOutput {
		return fmt.Errorf("%w: %d", ErrInvalidDirection, direction)
	}
	old := b.direction[index]
	if old == direction {
		return nil
	}
	port := &b.ports[index]

	switch old {
	case DirectionInput:
		b.activeInputs--
	case DirectionOutput:
		b.activeOutputs--
		b.resetPort(index)
		port.enabled = false
		b.leaveGroup(port.universe, index, -1)
	}

	switch direction {
	case DirectionInput:
		b.activeInputs++
	case DirectionOutput:
		b.activeOutputs++
		port.enabled = true
		port.lastReceived = b.lastPacket
		b.joinGroup(port.universe, index, -1)
	}

	b.direction[index] = direction
	b.isChanged = true
	b.logger.Info("port direction changed", "port", index, "old", old, "direction", direction)
	return nil
}

//SetMergePolicy sets the merge policy of an output port
func (b *Bridge) SetMergePolicy(index int, policy MergePolicy) error {
	if err := checkPort(index); err != nil {
		return err
	}
	if policy > MergeLTP {
		return fmt.Errorf("%w: %d", ErrInvalidMerge, policy)
	}
	if b.ports[index].mergePolicy != policy {
		b.ports[index].mergePolicy = policy
		b.isChanged = true
	}
	return nil
}

//GetMergePolicy returns the merge policy of the port. Invalid indexes return MergeHTP.
func (b *Bridge) GetMergePolicy(index int) MergePolicy {
	if checkPort(index) != nil {
		return MergeHTP
	}
	return b.ports[index].mergePolicy
}

//ActivePorts returns the number of enabled input and output ports
func (b *Bridge) ActivePorts() (inputs, outputs int) {
	return b.activeInputs, b.activeOutputs
}

//groupInUse returns true, if another enabled output port listens on the universe, or the other
//synchronization slot recorded it as address. exceptPort and exceptSlot may be -1.
func (b *Bridge) groupInUse(group uint16, exceptPort, exceptSlot int) bool {
	for i := range b.ports {
		if i != exceptPort && b.ports[i].enabled && b.ports[i].universe == group {
			return true
		}
	}
	for slot, address := range b.syncAddress {
		if slot != exceptSlot && address == group {
			return true
		}
	}
	return false
}

func (b *Bridge) joinGroup(group uint16, exceptPort, exceptSlot int) {
	if group == 0 || b.groupInUse(group, exceptPort, exceptSlot) {
		return
	}
	addr := packets.MulticastAddr(group)
	if err := b.groups.JoinGroup(addr); err != nil {
		b.logger.Warn("join multicast group", "group", addr, "error", err)
	}
}

func (b *Bridge) leaveGroup(group uint16, exceptPort, exceptSlot int) {
	if group == 0 || b.groupInUse(group, exceptPort, exceptSlot) {
		return
	}
	addr := packets.MulticastAddr(group)
	if err := b.groups.LeaveGroup(addr); err != nil {
		b.logger.Warn("leave multicast group", "group", addr, "error", err)
	}
}

//resetPort drops all sources of a port and stops it, if it was transmitting
func (b *Bridge) resetPort(index int) {
	port := &b.ports[index]
	port.sources[slotA].clear()
	port.sources[slotB].clear()
	port.isMerging = false
	port.dataPending = false
	port.length = 0
	b.stop(index)
}
