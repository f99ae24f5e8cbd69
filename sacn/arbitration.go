package sacn

import (
	"net/netip"

	"github.com/Hundemeier/go-sacn/packets"
)

//dmxStartCode is the start code of DMX512 level data. Packets with other start codes are not output.
const dmxStartCode = 0x00

//handleData runs a data packet through every enabled output port that listens on its universe
func (b *Bridge) handleData(now uint32, from netip.Addr, p *packets.DataPacket) {
	universe := p.Universe()
	cid := p.CID()
	priority := p.Priority()
	//ports sharing a universe are all compared against the priority from before this packet
	arbitrated := b.priority
	timedOut := b.priorityTimedOut(now)
	admitted := false

	for i := range b.ports {
		port := &b.ports[i]
		if !port.enabled || port.universe != universe {
			continue
		}
		isA := port.sources[slotA].matches(from, cid)
		isB := port.sources[slotB].matches(from, cid)

		if isA && !checkSequ(port.sources[slotA].sequence, p.Sequence()) ||
			!isA && isB && !checkSequ(port.sources[slotB].sequence, p.Sequence()) {
			b.diag.OutOfSequence++
			b.logger.Debug("out of sequence", "port", i, "from", from, "sequence", p.Sequence())
			continue
		}
		if p.PreviewData() || p.DmxStartCode() != dmxStartCode {
			continue
		}
		if p.StreamTerminated() {
			if isA {
				b.dropSource(i, slotA, true)
			}
			if isB {
				b.dropSource(i, slotB, true)
			}
			if isA || isB {
				b.logger.Info("stream terminated", "port", i, "from", from, "cid", cidString(cid))
			}
			continue
		}

		switch {
		case priority < arbitrated:
			if !timedOut {
				continue
			}
			//every source left on the port is older than the priority timeout
			port.sources[slotA].clear()
			port.sources[slotB].clear()
			port.isMerging = false
			isA, isB = false, false
			b.priority = priority
			b.isChanged = true
			b.logger.Info("priority timed out", "port", i, "priority", priority)
		case priority > arbitrated:
			port.sources[slotA].clear()
			port.sources[slotB].clear()
			port.isMerging = false
			isA, isB = false, false
			if b.priority != priority {
				b.priority = priority
				b.isChanged = true
				b.logger.Info("priority raised", "port", i, "priority", priority, "cid", cidString(cid))
			}
		}

		adm := classify(!port.sources[slotA].occupied(), !port.sources[slotB].occupied(), isA, isB)
		if adm.rejected() {
			b.diag.SourceConflicts++
			b.logger.Warn("source conflict", "port", i, "universe", universe, "from", from,
				"cid", cidString(cid), "reason", adm.String())
			continue
		}

		slot := adm.slot()
		if !port.sources[slot].occupied() {
			b.logger.Info("source added", "port", i, "slot", slot, "from", from, "cid", cidString(cid),
				"name", p.SourceName())
		}
		port.sources[slot].admit(from, cid, p.Sequence(), now, p.Data())
		b.lastPriority = now
		admitted = true

		if merging := adm.merging(); merging != port.isMerging {
			port.isMerging = merging
			b.isChanged = true
		}

		if port.merge(p.Data()) || !port.isTransmitting {
			b.output(i, p.ForceSync() || p.SyncAddress() == 0)
		}
	}

	if admitted {
		b.trackSync(from, cid, p.SyncAddress(), p.ForceSync())
	}
}

//priorityTimedOut returns true, if no source at the arbitrated priority was admitted on any port
//for longer than the priority timeout. Only then a lower priority may take over.
func (b *Bridge) priorityTimedOut(now uint32) bool {
	return now-b.lastPriority > b.priorityTimeout
}

//dropSource removes one source from a port. If the other source remains it drives the port alone,
//otherwise the port is stopped when stop is set.
func (b *Bridge) dropSource(index, slot int, stop bool) {
	port := &b.ports[index]
	port.sources[slot].clear()
	port.isMerging = false
	b.isChanged = true

	remaining := &port.sources[1-slot]
	if remaining.occupied() {
		if port.updateSingle(remaining.payload()) {
			b.output(index, false)
		}
		return
	}
	if stop {
		b.stop(index)
	}
}
