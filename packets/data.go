package packets

import (
	"encoding/binary"
	"fmt"
)

const (
	vectorRootE131Data                = 0x4 //VECTOR_ROOT_E131_DATA
	vectorRootE131Extended            = 0x8 //VECTOR_ROOT_E131_EXTENDED
	vectorE131DataPacket              = 0x2 //VECTOR_E131_DATA_PACKET
	vectorE131ExtendedSynchronization = 0x1 //VECTOR_E131_EXTENDED_SYNCHRONIZATION
	vectorDmpSetProperty              = 0x2 //VECTOR_DMP_SET_PROPERTY
	addressDataType                   = 0xa1
	preambleSize                      = 0x10
)

//Byte offsets of an E1.31 data packet. The sync packet shares the root layer and the
//framing vector offset.
const (
	offPreamble         = 0
	offIdentifier       = 4
	offRootFAL          = 16
	offRootVector       = 18
	offCID              = 22
	offFramingFAL       = 38
	offFramingVector    = 40
	offSourceName       = 44
	offPriority         = 108
	offSyncAddress      = 109
	offSequence         = 111
	offOptions          = 112
	offUniverse         = 113
	offDmpFAL           = 115
	offDmpVector        = 117
	offAddressType      = 118
	offFirstAddress     = 119
	offAddressIncrement = 121
	offPropertyCount    = 123
	offStartCode        = 125
	offData             = 126

	rootLayerLength  = 38
	dataHeaderLength = offData
	sourceNameLength = 64
)

const (
	//MaxChannels is the maximum number of DMX slots in one data packet
	MaxChannels = 512
	//MaxPacketLength is the length of a data packet that carries MaxChannels slots
	MaxPacketLength = offData + MaxChannels
	//MaxPriority is the highest priority a source may send
	MaxPriority = 200
	//DefaultPriority is used by sources that do not care about priority
	DefaultPriority = 100
)

//Options bits, offset 112
const (
	optionForceSync        = 1 << 5
	optionStreamTerminated = 1 << 6
	optionPreviewData      = 1 << 7
)

var acnIdentifier = []byte{0x41, 0x53, 0x43, 0x2d, 0x45, 0x31, 0x2e, 0x31, 0x37, 0x00, 0x00, 0x00}

var constHeader = append([]byte{0, 0x10, 0, 0}, acnIdentifier...)

//DataPacket is a byte array with unspecific length
type DataPacket struct {
	data   []byte
	length uint16
}

//NewDataPacket creates a new DataPacket with an empty 638-length byte slice
func NewDataPacket() DataPacket {
	p := DataPacket{make([]byte, MaxPacketLength), offData}
	//Set constants: at index [0;16[
	p.replace(offPreamble, constHeader)
	//Set vectors:
	p.replace(offRootVector, getAsBytes32(vectorRootE131Data))
	p.replace(offFramingVector, getAsBytes32(vectorE131DataPacket))
	p.data[offDmpVector] = vectorDmpSetProperty
	//set initial FAL
	p.setFAL(offData)
	//set address and data type
	p.data[offAddressType] = addressDataType
	//set address increment
	p.data[offAddressIncrement+1] = 0x1
	//Default priority:
	p.SetPriority(DefaultPriority)

	return p
}

//NewDataPacketRaw creates a new DataPacket based on a copy of the given raw bytes.
//The raw bytes have to pass Validate as a data packet.
func NewDataPacketRaw(raw []byte) (DataPacket, error) {
	p, err := ParseDataPacket(raw)
	if err != nil {
		return p, err
	}
	return p.copy(), nil
}

//ParseDataPacket validates raw as a data packet and returns a DataPacket that aliases raw,
//so no allocation happens. The packet is only valid as long as raw is not reused.
func ParseDataPacket(raw []byte) (DataPacket, error) {
	kind, err := Validate(raw)
	if err != nil {
		return DataPacket{}, err
	}
	if kind != KindData {
		return DataPacket{}, fmt.Errorf("expected a data packet, got %v", kind)
	}
	return AliasDataPacket(raw), nil
}

//AliasDataPacket wraps raw without validating it. raw must already have passed Validate as
//KindData, otherwise the accessors may panic.
func AliasDataPacket(raw []byte) DataPacket {
	length := offStartCode + binary.BigEndian.Uint16(raw[offPropertyCount:])
	return DataPacket{data: raw[:length], length: length}
}

//Set the FAL values in the byte slice according to the length
//Note: Length is the length of the whole message!
//Also sets the property value count!
//Also sets the length of the struct
func (d *DataPacket) setFAL(length uint16) {
	rootFAL := calculateFal(length - offRootFAL)
	d.replace(offRootFAL, rootFAL[:])
	framingFAL := calculateFal(length - offFramingFAL)
	d.replace(offFramingFAL, framingFAL[:])
	dmpFAL := calculateFal(length - offDmpFAL)
	d.replace(offDmpFAL, dmpFAL[:])
	//property value count, start code included:
	d.replace(offPropertyCount, getAsBytes16(length-offStartCode))

	d.length = length
}

//replace everything starting from the startindex in the datapacket with the given replacement
func (d *DataPacket) replace(startIndex int, replacement []byte) {
	copy(d.data[startIndex:], replacement)
}

//copy returns a copy of the DataPacket
func (d *DataPacket) copy() DataPacket {
	copySlice := make([]byte, MaxPacketLength)
	copy(copySlice, d.data)
	return DataPacket{
		data:   copySlice,
		length: d.length,
	}
}

//SetCID sets the CID unique identifier
func (d *DataPacket) SetCID(cid [16]byte) {
	d.replace(offCID, cid[:])
}

//CID returns the cid that is set for this object
func (d *DataPacket) CID() [16]byte {
	var cid [16]byte
	copy(cid[:], d.data[offCID:offCID+16])
	return cid
}

//SetSourceName sets the source name field to the given string values.
//Note that only the first 63 characters are used, the field is null terminated!
func (d *DataPacket) SetSourceName(s string) {
	b := [sourceNameLength]byte{}
	copy(b[:sourceNameLength-1], []byte(s))
	d.replace(offSourceName, b[:])
}

//SourceName returns the stored source name. Note that the source name max length is 64!
func (d *DataPacket) SourceName() string {
	i := offSourceName //the ending index for the string, because it is 0 terminated
	for i < offPriority && d.data[i] != 0 {
		i++
	}
	return string(d.data[offSourceName:i])
}

//SetPriority sets the priority field for the packet. Value must be [0-200]!
func (d *DataPacket) SetPriority(prio byte) error {
	if prio > MaxPriority {
		return fmt.Errorf("the priority was %v and therefore is not in range [0-200]", prio)
	}
	d.data[offPriority] = prio
	return nil
}

//Priority returns the byte value of the priorty field of the packet. Senders should stay in [0-200],
//but a received packet is returned as is.
func (d *DataPacket) Priority() byte {
	return d.data[offPriority]
}

//SetSyncAddress sets the synchronization universe for the given packet
func (d *DataPacket) SetSyncAddress(sync uint16) {
	d.replace(offSyncAddress, getAsBytes16(sync))
}

//SyncAddress returns the sync universe of the given packet. 0 means the data is not synchronized.
func (d *DataPacket) SyncAddress() uint16 {
	return binary.BigEndian.Uint16(d.data[offSyncAddress:])
}

//SetSequence sets the sequence number of the packet
func (d *DataPacket) SetSequence(sequ byte) {
	d.data[offSequence] = sequ
}

//Sequence returns the sequence number of the packet
func (d *DataPacket) Sequence() byte {
	return d.data[offSequence]
}

//SequenceIncr increments the sequence number
func (d *DataPacket) SequenceIncr() {
	d.data[offSequence]++
}

//SetPreviewData sets the preview_data flag in this packet to the given value
func (d *DataPacket) SetPreviewData(value bool) {
	d.setOptionsBit(optionPreviewData, value)
}

//PreviewData returns wether this packet has the preview flag set
func (d *DataPacket) PreviewData() bool {
	return d.getOptionsBit(optionPreviewData)
}

//SetStreamTerminated sets the stream_termiantion falg on or off
func (d *DataPacket) SetStreamTerminated(value bool) {
	d.setOptionsBit(optionStreamTerminated, value)
}

//StreamTerminated returns the state of the stream_termination flag
func (d *DataPacket) StreamTerminated() bool {
	return d.getOptionsBit(optionStreamTerminated)
}

//SetForceSync sets the force_synchronization bit flag
func (d *DataPacket) SetForceSync(value bool) {
	d.setOptionsBit(optionForceSync, value)
}

//ForceSync returns the state of the force_synchronization flag
func (d *DataPacket) ForceSync() bool {
	return d.getOptionsBit(optionForceSync)
}

func (d *DataPacket) setOptionsBit(mask byte, value bool) {
	if value {
		d.data[offOptions] |= mask
	} else {
		d.data[offOptions] &^= mask
	}
}

func (d *DataPacket) getOptionsBit(mask byte) bool {
	return d.data[offOptions]&mask != 0
}

//SetUniverse sets the universe value of the packet
func (d *DataPacket) SetUniverse(universe uint16) {
	d.replace(offUniverse, getAsBytes16(universe))
}

//Universe returns the universe value of the packet
func (d *DataPacket) Universe() uint16 {
	return binary.BigEndian.Uint16(d.data[offUniverse:])
}

//SetDmxStartCode sets the DMX start code that is transmitted together with the DMX data
func (d *DataPacket) SetDmxStartCode(startCode byte) {
	d.data[offStartCode] = startCode
}

//DmxStartCode return the start code of the given packet
func (d *DataPacket) DmxStartCode() byte {
	return d.data[offStartCode]
}

//SetData sets the dmx data for the given DataPacket. Anything after 512 bytes is cut off.
func (d *DataPacket) SetData(data []byte) {
	if len(data) > MaxChannels {
		data = data[:MaxChannels]
	}
	d.setFAL(uint16(offData + len(data)))
	d.replace(offData, data)
}

//Data returns the DMX data that is set for this DataPacket. Length: [0-512]
func (d *DataPacket) Data() []byte {
	return d.data[offData:d.length]
}

//Bytes returns the wire representation of the packet
func (d *DataPacket) Bytes() []byte {
	return d.data[:d.length]
}
