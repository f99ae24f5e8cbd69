package sacn

//Tick runs the timeout checks. now has to be the same clock sample that was used for the
//datagram of this iteration, if there was one.
func (b *Bridge) Tick(now uint32) {
	b.checkMergeTimeouts(now)
	b.checkNetworkDataLoss(now)
	b.checkSynchronizationLoss(now)
}

//checkMergeTimeouts removes sources that stopped sending. The port keeps its last output.
func (b *Bridge) checkMergeTimeouts(now uint32) {
	for i := range b.ports {
		port := &b.ports[i]
		if !port.enabled {
			continue
		}
		var expired [2]bool
		for slot := range port.sources {
			s := &port.sources[slot]
			if s.occupied() && now-s.lastSeen > b.mergeTimeout {
				expired[slot] = true
				b.logger.Info("source timed out", "port", i, "slot", slot, "from", s.address,
					"cid", cidString(s.cid))
			}
		}
		switch {
		case expired[slotA] && expired[slotB]:
			//nobody is left to re-emit, the merged output stays
			port.sources[slotA].clear()
			port.sources[slotB].clear()
			port.isMerging = false
			b.isChanged = true
		case expired[slotA]:
			b.dropSource(i, slotA, false)
		case expired[slotB]:
			b.dropSource(i, slotB, false)
		}
	}
}

//checkNetworkDataLoss clears all sources and stops every port, if no packet arrived for too long
func (b *Bridge) checkNetworkDataLoss(now uint32) {
	if b.activeOutputs == 0 || now-b.lastPacket <= b.dataLossTimeout {
		return
	}
	lost := false
	for i := range b.ports {
		port := &b.ports[i]
		if !port.enabled || now-port.lastReceived <= b.dataLossTimeout {
			continue
		}
		if !port.isTransmitting && port.occupiedSources() == 0 {
			continue
		}
		//all sources are gone at once, so the remaining one is not re-emitted
		port.sources[slotA].clear()
		port.sources[slotB].clear()
		port.isMerging = false
		b.isChanged = true
		b.stop(i)
		lost = true
	}
	if lost {
		b.diag.NetworkDataLoss++
		b.logger.Warn("network data loss", "timeout_ms", b.dataLossTimeout)
		if !b.networkDataLoss {
			b.networkDataLoss = true
			b.isChanged = true
		}
	}
}

//checkSynchronizationLoss falls back to unsynchronized output, if the sync packets stopped
func (b *Bridge) checkSynchronizationLoss(now uint32) {
	if !b.isSynchronized || now-b.lastSync <= b.dataLossTimeout {
		return
	}
	b.isSynchronized = false
	b.isChanged = true
	b.logger.Info("synchronization lost")
	b.releasePending()
}
