package sacn

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/Hundemeier/go-sacn/packets"
)

//DefaultPollInterval is how long ReadDatagram waits for a packet before it returns empty handed
const DefaultPollInterval = 50 * time.Millisecond

//ReceiverSocket is used to listen on a network interface for sACN data.
//It joins and leaves the multicast groups of the bridge and hands out one datagram per call,
//so a single goroutine can drive the bridge.
//
//Depending on your operating system, you might can provide nil as an interface, sometimes you
//have to use a dedicated interface, to get multicast working. Windows needs an interface and
//Linux generally not. Binding to a specific address on Linux prevents multicast reception.
type ReceiverSocket struct {
	socket             *ipv4.PacketConn
	multicastInterface *net.Interface // the interface that is used for joining multicast groups
	pollInterval       time.Duration
}

//NewReceiverSocket opens the E1.31 port on the given bind address, "" for all interfaces.
//The caller is responsible for closing!
func NewReceiverSocket(bind string, ifi *net.Interface) (*ReceiverSocket, error) {
	return listenReceiverSocket(net.JoinHostPort(bind, strconv.Itoa(packets.Port)), ifi)
}

func listenReceiverSocket(address string, ifi *net.Interface) (*ReceiverSocket, error) {
	conn, err := net.ListenPacket("udp4", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}
	return &ReceiverSocket{
		socket:             ipv4.NewPacketConn(conn),
		multicastInterface: ifi,
		pollInterval:       DefaultPollInterval,
	}, nil
}

//SetPollInterval changes how long ReadDatagram blocks at most
func (r *ReceiverSocket) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

//JoinGroup joins the socket to a multicast group. After the group was joined, any source that
//transmits to this universe via multicast should reach this socket.
func (r *ReceiverSocket) JoinGroup(group netip.Addr) error {
	return r.socket.JoinGroup(r.multicastInterface, &net.UDPAddr{IP: group.AsSlice()})
}

//LeaveGroup will leave the multicast group. Note that a timeout may occur afterwards, because no
//more data arrives.
func (r *ReceiverSocket) LeaveGroup(group netip.Addr) error {
	return r.socket.LeaveGroup(r.multicastInterface, &net.UDPAddr{IP: group.AsSlice()})
}

//ReadDatagram reads one datagram into buf. If nothing arrived within the poll interval it returns
//0 bytes and no error.
func (r *ReceiverSocket) ReadDatagram(buf []byte) (int, netip.Addr, error) {
	if err := r.socket.SetReadDeadline(time.Now().Add(r.pollInterval)); err != nil {
		return 0, netip.Addr{}, err
	}
	n, _, addr, err := r.socket.ReadFrom(buf) //n, ControlMessage, addr, err
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, netip.Addr{}, nil
		}
		return 0, netip.Addr{}, err
	}
	udp, ok := addr.(*net.UDPAddr)
	if !ok {
		return 0, netip.Addr{}, fmt.Errorf("unexpected source address %v", addr)
	}
	from, _ := netip.AddrFromSlice(udp.IP)
	return n, from.Unmap(), nil
}

//LocalAddr returns the address the socket is bound to
func (r *ReceiverSocket) LocalAddr() net.Addr {
	return r.socket.LocalAddr()
}

//Close will close the open udp socket.
//If you want to receive again, create a new ReceiverSocket object.
func (r *ReceiverSocket) Close() error {
	return r.socket.Close()
}
