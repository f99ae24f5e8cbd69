package sacn

import "bytes"

//updateSingle copies data to the output of the port. Returns true, if the output changed.
func (p *outputPort) updateSingle(data []byte) bool {
	if p.length == len(data) && bytes.Equal(p.output[:p.length], data) {
		return false
	}
	p.length = copy(p.output[:], data)
	return true
}

//updateHTP sets every channel of the output to the highest value of both sources. A source that
//sent fewer channels contributes 0 to the missing ones. Returns true, if the output changed.
func (p *outputPort) updateHTP() bool {
	a := p.sources[slotA].payload()
	b := p.sources[slotB].payload()
	length := max(len(a), len(b))

	changed := false
	if length != p.length {
		p.length = length
		changed = true
	}
	for i := 0; i < length; i++ {
		var value byte
		if i < len(a) {
			value = a[i]
		}
		if i < len(b) && b[i] > value {
			value = b[i]
		}
		if p.output[i] != value {
			p.output[i] = value
			changed = true
		}
	}
	return changed
}

//merge computes the output of the port after a source sent data. Single sources and LTP merging
//pass the data through, HTP merging combines both sources.
func (p *outputPort) merge(data []byte) bool {
	if p.isMerging && p.mergePolicy == MergeHTP {
		return p.updateHTP()
	}
	return p.updateSingle(data)
}
