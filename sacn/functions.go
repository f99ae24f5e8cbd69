package sacn

import (
	"net/netip"

	"github.com/google/uuid"
)

//sequenceWindow is how far behind the last accepted sequence number a packet may be and still be
//treated as out of order rather than as a restarted source
const sequenceWindow = -20

//checkSequ returns true, if a packet with the sequence number new may follow a packet with old.
//The difference is taken in 8-bit signed arithmetic, so the counter may wrap.
func checkSequ(old, new byte) bool {
	delta := int8(new - old)
	if delta <= 0 && delta > sequenceWindow {
		return false
	}
	return true
}

//cidString formats a CID the way it is shown in logs
func cidString(cid [16]byte) string {
	return uuid.UUID(cid).String()
}

//unmapAddr normalizes IPv4-mapped IPv6 addresses, so a sender is identified the same way
//regardless of the socket family it was received on
func unmapAddr(addr netip.Addr) netip.Addr {
	return addr.Unmap()
}
