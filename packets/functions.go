package packets

import (
	"encoding/binary"
	"net/netip"
)

//Port is the UDP port used by E1.31 for both unicast and multicast traffic
const Port = 5568

//calculateFal : Calculates the two bytes of a FlagsAndLength field of a sACN packet
func calculateFal(length uint16) [2]byte {
	return [2]byte{
		byte(0x70) + byte((length>>8)&0x0F),
		byte(0xFF & length)}
}

func getAsBytes32(i uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, i)
	return b
}

func getAsBytes16(i uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, i)
	return b
}

//MulticastAddr returns the multicast group a receiver joins for the given universe.
//The universe (or synchronization address) is stored big-endian in the last two octets: 239.255.hi.lo
func MulticastAddr(universe uint16) netip.Addr {
	return netip.AddrFrom4([4]byte{239, 255, byte(universe >> 8), byte(universe)})
}

//MulticastAddrPort is MulticastAddr combined with the E1.31 port
func MulticastAddrPort(universe uint16) netip.AddrPort {
	return netip.AddrPortFrom(MulticastAddr(universe), Port)
}
