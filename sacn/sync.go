package sacn

import (
	"net/netip"

	"github.com/Hundemeier/go-sacn/packets"
)

//trackSync records the synchronization address a sender asked for. The address belongs to the
//slot the sender occupies, on any port, so one sender governs all the ports it writes to.
func (b *Bridge) trackSync(from netip.Addr, cid [16]byte, address uint16, forced bool) {
	if forced != b.isForcedSynchronized {
		b.isForcedSynchronized = forced
		b.isChanged = true
	}
	if forced || address == 0 {
		return
	}
	for slot := range b.syncAddress {
		if !b.occupiesSlot(from, cid, slot) {
			continue
		}
		old := b.syncAddress[slot]
		if old == address {
			continue
		}
		b.syncAddress[slot] = address
		b.isChanged = true
		b.leaveGroup(old, -1, slot)
		b.joinGroup(address, -1, slot)
		b.logger.Info("synchronization address changed", "slot", slot, "old", old, "address", address,
			"cid", cidString(cid))
	}
}

//occupiesSlot returns true, if the sender is in the given slot of any enabled output port
func (b *Bridge) occupiesSlot(from netip.Addr, cid [16]byte, slot int) bool {
	for i := range b.ports {
		if b.ports[i].enabled && b.ports[i].sources[slot].matches(from, cid) {
			return true
		}
	}
	return false
}

//handleSync releases the held data of every port whose sources asked for this synchronization address
func (b *Bridge) handleSync(now uint32, p *packets.SyncPacket) {
	address := p.SyncAddress()
	if address == 0 || (b.syncAddress[slotA] != address && b.syncAddress[slotB] != address) {
		return
	}
	b.diag.SyncPackets++
	b.lastSync = now
	if !b.isSynchronized {
		b.isSynchronized = true
		b.isChanged = true
		b.logger.Info("synchronized", "address", address)
	}

	for i := range b.ports {
		port := &b.ports[i]
		if port.enabled && port.dataPending && b.portSyncMatches(port, address) {
			b.apply(i)
		}
	}
}

func (b *Bridge) portSyncMatches(port *outputPort, address uint16) bool {
	for slot := range port.sources {
		if port.sources[slot].occupied() && b.syncAddress[slot] == address {
			return true
		}
	}
	return false
}

//releasePending applies the data of every port that waits for a sync packet
func (b *Bridge) releasePending() {
	for i := range b.ports {
		if b.ports[i].enabled && b.ports[i].dataPending {
			b.apply(i)
		}
	}
}
