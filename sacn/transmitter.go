package sacn

import (
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"

	"github.com/Hundemeier/go-sacn/packets"
)

//terminateCount is how often the last packet with the stream_terminated bit is sent
const terminateCount = 3

//Transmitter : This struct is for sending sACN data, e.g. to test a bridge.
//It keeps the master packet and the destinations for every activated universe and handles the
//sequence numbering. It is not safe for concurrent use.
type Transmitter struct {
	socket     *ipv4.PacketConn
	cid        [16]byte //the global cid for all packets
	sourceName string   //the global source name for all packets
	universes  map[uint16]*universeOut
	syncs      map[uint16]*packets.SyncPacket
}

type universeOut struct {
	//master is the last send out packet
	master       packets.DataPacket
	multicast    bool
	destinations []netip.AddrPort
}

//NewTransmitter creates a new Transmitter object and returns it. Only use one object for one
//network interface. bind is a string like "192.168.2.34" or "". It is used for binding the udp
//connection. If you want to use multicast, you may have to provide an interface (eg Windows).
//The caller is responsible for closing!
func NewTransmitter(bind string, ifi *net.Interface, cid [16]byte, sourceName string) (*Transmitter, error) {
	conn, err := net.ListenPacket("udp4", net.JoinHostPort(bind, "0"))
	if err != nil {
		return nil, fmt.Errorf("bind transmitter: %w", err)
	}
	socket := ipv4.NewPacketConn(conn)
	if ifi != nil {
		if err := socket.SetMulticastInterface(ifi); err != nil {
			socket.Close()
			return nil, fmt.Errorf("set multicast interface: %w", err)
		}
	}
	//multicast should leave the local network segment only if the network is configured for it
	if err := socket.SetMulticastTTL(1); err != nil {
		socket.Close()
		return nil, fmt.Errorf("set multicast ttl: %w", err)
	}
	//a bridge on the same host should see our data too
	if err := socket.SetMulticastLoopback(true); err != nil {
		socket.Close()
		return nil, fmt.Errorf("set multicast loopback: %w", err)
	}
	return &Transmitter{
		socket:     socket,
		cid:        cid,
		sourceName: sourceName,
		universes:  make(map[uint16]*universeOut),
		syncs:      make(map[uint16]*packets.SyncPacket),
	}, nil
}

//Activate prepares sending on the given universe. syncAddress 0 sends unsynchronized data.
func (t *Transmitter) Activate(universe uint16, priority byte, syncAddress uint16) error {
	if err := checkUniverse(universe); err != nil {
		return err
	}
	//check if the universe is already activated
	if t.IsActivated(universe) {
		return fmt.Errorf("the given universe %v is already activated", universe)
	}
	master := packets.NewDataPacket()
	if err := master.SetPriority(priority); err != nil {
		return err
	}
	master.SetCID(t.cid)
	master.SetSourceName(t.sourceName)
	master.SetUniverse(universe)
	master.SetSyncAddress(syncAddress)
	master.SetData(make([]byte, packets.MaxChannels)) //set 0 data
	t.universes[universe] = &universeOut{master: master}
	if syncAddress != 0 {
		if _, ok := t.syncs[syncAddress]; !ok {
			sync := packets.NewSyncPacket(t.cid, syncAddress)
			t.syncs[syncAddress] = &sync
		}
	}
	return nil
}

//IsActivated checks if the given universe was activated and returns true if this is the case
func (t *Transmitter) IsActivated(universe uint16) bool {
	_, ok := t.universes[universe]
	return ok
}

//GetActivated returns a slice with all activated universes
func (t *Transmitter) GetActivated() (list []uint16) {
	list = make([]uint16, 0, len(t.universes))
	for univ := range t.universes {
		list = append(list, univ)
	}
	return
}

//SetMulticast is for setting wether or not a universe should be send out via multicast.
func (t *Transmitter) SetMulticast(universe uint16, multicast bool) {
	if u, ok := t.universes[universe]; ok {
		u.multicast = multicast
	}
}

//IsMulticast returns wether or not multicast is turned on for the given universe. true: on
func (t *Transmitter) IsMulticast(universe uint16) bool {
	u, ok := t.universes[universe]
	return ok && u.multicast
}

//SetDestinations sets the unicast destinations of the universe. A destination is an ip-address,
//optionally with a port. Note: the existing slice will be overwritten! Destinations that could not
//be parsed are left out and returned as errors.
func (t *Transmitter) SetDestinations(universe uint16, destinations []string) []error {
	u, ok := t.universes[universe]
	if !ok {
		return []error{fmt.Errorf("the given universe %v is not activated", universe)}
	}
	newDest := make([]netip.AddrPort, 0, len(destinations))
	var errs []error
	for _, dest := range destinations {
		if dest == "" {
			continue // continue if the string is empty
		}
		addr, err := parseDestination(dest)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		newDest = append(newDest, addr)
	}
	u.destinations = newDest
	return errs
}

//Destinations returns a copy of the unicast destinations of the universe
func (t *Transmitter) Destinations(universe uint16) []netip.AddrPort {
	u, ok := t.universes[universe]
	if !ok {
		return nil
	}
	return append([]netip.AddrPort(nil), u.destinations...)
}

func parseDestination(dest string) (netip.AddrPort, error) {
	if addr, err := netip.ParseAddrPort(dest); err == nil {
		return addr, nil
	}
	addr, err := netip.ParseAddr(dest)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("parse destination %q: %w", dest, err)
	}
	return netip.AddrPortFrom(addr, packets.Port), nil
}

//Send transmits the DMX data on the universe
func (t *Transmitter) Send(universe uint16, data []byte) error {
	u, ok := t.universes[universe]
	if !ok {
		return fmt.Errorf("the given universe %v is not activated", universe)
	}
	u.master.SetData(data)
	return t.sendOut(universe, u)
}

//SendSync transmits a synchronization packet for the given address
func (t *Transmitter) SendSync(syncAddress uint16) error {
	sync, ok := t.syncs[syncAddress]
	if !ok {
		return fmt.Errorf("no universe uses the synchronization address %v", syncAddress)
	}
	sync.SequenceIncr()
	var firstErr error
	multicast := false
	for _, u := range t.universes {
		if u.master.SyncAddress() != syncAddress {
			continue
		}
		multicast = multicast || u.multicast
		for _, dest := range u.destinations {
			if err := t.writeTo(sync.Bytes(), dest); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if multicast {
		if err := t.writeTo(sync.Bytes(), packets.MulticastAddrPort(syncAddress)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

//Terminate sends the last packets with the stream_terminated bit set and deactivates the universe
func (t *Transmitter) Terminate(universe uint16) error {
	u, ok := t.universes[universe]
	if !ok {
		return fmt.Errorf("the given universe %v is not activated", universe)
	}
	u.master.SetStreamTerminated(true)
	var firstErr error
	for i := 0; i < terminateCount; i++ {
		if err := t.sendOut(universe, u); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	delete(t.universes, universe)
	return firstErr
}

//Close terminates all universes and closes the socket
func (t *Transmitter) Close() error {
	for univ := range t.universes {
		t.Terminate(univ)
	}
	return t.socket.Close()
}

//handles sending and sequence numbering
func (t *Transmitter) sendOut(universe uint16, u *universeOut) error {
	u.master.SequenceIncr()
	var firstErr error
	//check if we have to transmitt via multicast
	if u.multicast {
		firstErr = t.writeTo(u.master.Bytes(), packets.MulticastAddrPort(universe))
	}
	//for every destination, send out
	for _, dest := range u.destinations {
		if err := t.writeTo(u.master.Bytes(), dest); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *Transmitter) writeTo(b []byte, dest netip.AddrPort) error {
	_, err := t.socket.WriteTo(b, nil, net.UDPAddrFromAddrPort(dest))
	return err
}
