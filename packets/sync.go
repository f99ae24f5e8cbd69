package packets

import (
	"encoding/binary"
	"fmt"
)

const (
	offSyncSequence  = 44
	offSyncUniverse  = 45
	offSyncReserved  = 47
	syncPacketLength = 49
)

//SyncPacket is an E1.31 synchronization packet. Receivers that hold data for a synchronization
//address release it when a SyncPacket with that address arrives.
type SyncPacket struct {
	data []byte
}

//NewSyncPacket creates a synchronization packet for the given synchronization address
func NewSyncPacket(cid [16]byte, syncAddress uint16) SyncPacket {
	p := SyncPacket{make([]byte, syncPacketLength)}
	copy(p.data[offPreamble:], constHeader)
	fal := calculateFal(syncPacketLength - offRootFAL)
	copy(p.data[offRootFAL:], fal[:])
	copy(p.data[offRootVector:], getAsBytes32(vectorRootE131Extended))
	copy(p.data[offCID:], cid[:])
	fal = calculateFal(syncPacketLength - offFramingFAL)
	copy(p.data[offFramingFAL:], fal[:])
	copy(p.data[offFramingVector:], getAsBytes32(vectorE131ExtendedSynchronization))
	p.SetSyncAddress(syncAddress)
	return p
}

//ParseSyncPacket validates raw as a synchronization packet. The returned packet aliases raw.
func ParseSyncPacket(raw []byte) (SyncPacket, error) {
	kind, err := Validate(raw)
	if err != nil {
		return SyncPacket{}, err
	}
	if kind != KindSync {
		return SyncPacket{}, fmt.Errorf("expected a sync packet, got %v", kind)
	}
	return AliasSyncPacket(raw), nil
}

//AliasSyncPacket wraps raw without validating it. raw must already have passed Validate as KindSync.
func AliasSyncPacket(raw []byte) SyncPacket {
	return SyncPacket{data: raw[:syncPacketLength]}
}

//CID returns the identifier of the sender
func (s *SyncPacket) CID() [16]byte {
	var cid [16]byte
	copy(cid[:], s.data[offCID:offCID+16])
	return cid
}

//SetSequence sets the sequence number of the packet
func (s *SyncPacket) SetSequence(sequ byte) {
	s.data[offSyncSequence] = sequ
}

//Sequence returns the sequence number of the packet
func (s *SyncPacket) Sequence() byte {
	return s.data[offSyncSequence]
}

//SequenceIncr increments the sequence number
func (s *SyncPacket) SequenceIncr() {
	s.data[offSyncSequence]++
}

//SetSyncAddress sets the synchronization address that is released by this packet
func (s *SyncPacket) SetSyncAddress(sync uint16) {
	binary.BigEndian.PutUint16(s.data[offSyncUniverse:], sync)
}

//SyncAddress returns the synchronization address of the packet
func (s *SyncPacket) SyncAddress() uint16 {
	return binary.BigEndian.Uint16(s.data[offSyncUniverse:])
}

//Bytes returns the wire representation of the packet
func (s *SyncPacket) Bytes() []byte {
	return s.data
}
