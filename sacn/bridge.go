package sacn

import (
	"io"
	"log/slog"
	"net/netip"
	"time"

	"github.com/Hundemeier/go-sacn/packets"
)

//Timeouts according to the E1.31 protocol
const (
	DefaultMergeTimeout           = 10 * time.Second
	DefaultPriorityTimeout        = 10 * time.Second
	DefaultNetworkDataLossTimeout = 2500 * time.Millisecond
)

//Options configure a Bridge. Zero values are replaced by defaults.
type Options struct {
	//Sink receives the output of all ports. Defaults to NopSink.
	Sink Sink
	//Groups is used to join and leave multicast groups, usually a *ReceiverSocket.
	Groups GroupMembership
	Logger *slog.Logger

	MergeTimeout           time.Duration
	PriorityTimeout        time.Duration
	NetworkDataLossTimeout time.Duration

	//DisableSynchronize applies data immediately, even if sync packets are received
	DisableSynchronize bool
}

//Diagnostics counts the packets and events the bridge resolved internally
type Diagnostics struct {
	Packets         uint64
	Malformed       uint64
	OutOfSequence   uint64
	SourceConflicts uint64
	NetworkDataLoss uint64
	SyncPackets     uint64
}

//PortState is a snapshot of one port
type PortState struct {
	Index        int
	Direction    Direction
	Universe     uint16
	MergePolicy  MergePolicy
	Sources      int
	Transmitting bool
	Merging      bool
	DataPending  bool
}

//State is a snapshot of the bridge for the host
type State struct {
	NetworkDataLoss    bool
	Synchronized       bool
	ForcedSynchronized bool
	Priority           uint8
	SyncAddress        [2]uint16
	ActiveInputs       int
	ActiveOutputs      int
	Ports              []PortState
}

//Bridge receives sACN packets, arbitrates between sources and drives the output ports.
//A Bridge is not safe for concurrent use, all methods have to be called from the same goroutine.
type Bridge struct {
	ports         [MaxPorts]outputPort
	direction     [MaxPorts]Direction
	inputUniverse [MaxPorts]uint16
	activeInputs  int
	activeOutputs int

	sink   Sink
	groups GroupMembership
	logger *slog.Logger

	mergeTimeout    uint32
	priorityTimeout uint32
	dataLossTimeout uint32

	priority             uint8  //arbitrated priority over all ports
	lastPriority         uint32 //last admission of a source at the arbitrated priority
	syncAddress          [2]uint16
	isSynchronized       bool
	isForcedSynchronized bool
	disableSynchronize   bool
	networkDataLoss      bool
	isChanged            bool
	lastPacket           uint32
	lastSync             uint32

	diag Diagnostics
}

//NewBridge creates a bridge with all ports disabled. Port i is preset to universe i+1.
func NewBridge(opts Options) *Bridge {
	b := &Bridge{
		sink:               opts.Sink,
		groups:             opts.Groups,
		logger:             opts.Logger,
		mergeTimeout:       millis(opts.MergeTimeout),
		priorityTimeout:    millis(opts.PriorityTimeout),
		dataLossTimeout:    millis(opts.NetworkDataLossTimeout),
		disableSynchronize: opts.DisableSynchronize,
		networkDataLoss:    true,
	}
	if b.sink == nil {
		b.sink = NopSink{}
	}
	if b.groups == nil {
		b.groups = nopGroups{}
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if b.mergeTimeout == 0 {
		b.mergeTimeout = millis(DefaultMergeTimeout)
	}
	if b.priorityTimeout == 0 {
		b.priorityTimeout = millis(DefaultPriorityTimeout)
	}
	if b.dataLossTimeout == 0 {
		b.dataLossTimeout = millis(DefaultNetworkDataLossTimeout)
	}
	for i := range b.ports {
		b.ports[i].universe = uint16(i + 1)
		b.inputUniverse[i] = uint16(i + 1)
	}
	return b
}

//ProcessDatagram handles one received datagram. now is the clock sample of this iteration and
//from the address of the sender. Malformed packets are dropped without changing any state.
func (b *Bridge) ProcessDatagram(now uint32, from netip.Addr, raw []byte) {
	from = unmapAddr(from)
	if !from.IsValid() {
		//an empty slot is marked by an invalid address, such a sender could never be matched
		b.diag.Malformed++
		b.logger.Debug("dropped packet without sender address")
		return
	}
	kind, err := packets.Validate(raw)
	if err != nil {
		b.diag.Malformed++
		b.logger.Debug("dropped packet", "from", from, "error", err)
		return
	}
	b.diag.Packets++
	b.lastPacket = now
	for i := range b.ports {
		if b.ports[i].enabled {
			b.ports[i].lastReceived = now
		}
	}
	if b.networkDataLoss {
		b.networkDataLoss = false
		b.isChanged = true
	}

	switch kind {
	case packets.KindData:
		p := packets.AliasDataPacket(raw)
		b.handleData(now, from, &p)
	case packets.KindSync:
		p := packets.AliasSyncPacket(raw)
		b.handleSync(now, &p)
	}
}

//StatusChanged returns true, if an observable state changed since the last call
func (b *Bridge) StatusChanged() bool {
	changed := b.isChanged
	b.isChanged = false
	return changed
}

//IsTransmitting returns true, if the port is currently driving its sink
func (b *Bridge) IsTransmitting(index int) bool {
	return checkPort(index) == nil && b.ports[index].isTransmitting
}

//IsMerging returns true, if two sources are merged on the port
func (b *Bridge) IsMerging(index int) bool {
	return checkPort(index) == nil && b.ports[index].isMerging
}

//Clear sends 512 zeros to the sink of the port and restarts the network data loss timer of
//this port only.
func (b *Bridge) Clear(now uint32, index int) error {
	if err := checkPort(index); err != nil {
		return err
	}
	port := &b.ports[index]
	port.output = [packets.MaxChannels]byte{}
	port.length = packets.MaxChannels
	port.lastReceived = now
	b.apply(index)
	return nil
}

//SetDisableSynchronize turns synchronization handling off. Pending data is released at once.
func (b *Bridge) SetDisableSynchronize(disable bool) {
	if b.disableSynchronize == disable {
		return
	}
	b.disableSynchronize = disable
	b.isChanged = true
	if disable {
		b.releasePending()
	}
}

//Diagnostics returns a copy of the counters
func (b *Bridge) Diagnostics() Diagnostics {
	return b.diag
}

//State returns a snapshot of the bridge and all of its ports
func (b *Bridge) State() State {
	s := State{
		NetworkDataLoss:    b.networkDataLoss,
		Synchronized:       b.isSynchronized,
		ForcedSynchronized: b.isForcedSynchronized,
		Priority:           b.priority,
		SyncAddress:        b.syncAddress,
		ActiveInputs:       b.activeInputs,
		ActiveOutputs:      b.activeOutputs,
		Ports:              make([]PortState, 0, MaxPorts),
	}
	for i := range b.ports {
		port := &b.ports[i]
		universe := port.universe
		if b.direction[i] == DirectionInput {
			universe = b.inputUniverse[i]
		}
		s.Ports = append(s.Ports, PortState{
			Index:        i,
			Direction:    b.direction[i],
			Universe:     universe,
			MergePolicy:  port.mergePolicy,
			Sources:      port.occupiedSources(),
			Transmitting: port.isTransmitting,
			Merging:      port.isMerging,
			DataPending:  port.dataPending,
		})
	}
	return s
}

//output hands the port output to the sink, or holds it until the next matching sync packet
func (b *Bridge) output(index int, immediate bool) {
	if immediate || !b.isSynchronized || b.disableSynchronize {
		b.apply(index)
		return
	}
	b.ports[index].dataPending = true
}

//apply sends the port output to the sink, starting the port if necessary
func (b *Bridge) apply(index int) {
	port := &b.ports[index]
	if !port.isTransmitting {
		port.isTransmitting = true
		b.isChanged = true
		b.sink.Start(index)
		b.logger.Info("port started", "port", index, "universe", port.universe)
	}
	b.sink.SetData(index, port.output[:port.length])
	port.dataPending = false
}

//stop stops the port, if it is transmitting
func (b *Bridge) stop(index int) {
	port := &b.ports[index]
	port.dataPending = false
	if !port.isTransmitting {
		return
	}
	port.isTransmitting = false
	b.isChanged = true
	b.sink.Stop(index)
	b.logger.Info("port stopped", "port", index, "universe", port.universe)
}
