package packets

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

//Kind is the result of validating a received buffer
type Kind uint8

const (
	//KindNotRoot is anything that is not a well-formed data or synchronization packet
	KindNotRoot Kind = iota
	//KindData is an E1.31 data packet carrying DMX512 channel values
	KindData
	//KindSync is an E1.31 synchronization packet
	KindSync
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindSync:
		return "sync"
	default:
		return "not-root"
	}
}

var (
	ErrTooShort         = errors.New("packet too short")
	ErrPreamble         = errors.New("invalid preamble size")
	ErrIdentifier       = errors.New("invalid ACN packet identifier")
	ErrRootVector       = errors.New("unknown root vector")
	ErrFramingVector    = errors.New("unknown framing vector")
	ErrDmpVector        = errors.New("invalid DMP vector")
	ErrAddressType      = errors.New("invalid address and data type")
	ErrFirstAddress     = errors.New("first property address must be 0")
	ErrAddressIncrement = errors.New("address increment must be 1")
	ErrPropertyCount    = errors.New("property value count out of range")
)

//ParseError describes where in the buffer validation failed. It wraps one of the Err* values above,
//so callers can use errors.Is.
type ParseError struct {
	Err    error
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseError(err error, offset int) error {
	return &ParseError{Err: err, Offset: offset}
}

//Validate checks raw against the root layer framing and, depending on the root vector, against the
//data or synchronization layer framing. On failure KindNotRoot is returned together with a *ParseError.
//Validate never modifies raw.
func Validate(raw []byte) (Kind, error) {
	if len(raw) < rootLayerLength {
		return KindNotRoot, parseError(ErrTooShort, len(raw))
	}
	if binary.BigEndian.Uint16(raw[offPreamble:]) != preambleSize {
		return KindNotRoot, parseError(ErrPreamble, offPreamble)
	}
	if !bytes.Equal(raw[offIdentifier:offIdentifier+len(acnIdentifier)], acnIdentifier) {
		return KindNotRoot, parseError(ErrIdentifier, offIdentifier)
	}
	switch binary.BigEndian.Uint32(raw[offRootVector:]) {
	case vectorRootE131Data:
		if err := validateData(raw); err != nil {
			return KindNotRoot, err
		}
		return KindData, nil
	case vectorRootE131Extended:
		if err := validateSync(raw); err != nil {
			return KindNotRoot, err
		}
		return KindSync, nil
	default:
		return KindNotRoot, parseError(ErrRootVector, offRootVector)
	}
}

func validateData(raw []byte) error {
	if len(raw) < dataHeaderLength {
		return parseError(ErrTooShort, len(raw))
	}
	if binary.BigEndian.Uint32(raw[offFramingVector:]) != vectorE131DataPacket {
		return parseError(ErrFramingVector, offFramingVector)
	}
	if raw[offDmpVector] != vectorDmpSetProperty {
		return parseError(ErrDmpVector, offDmpVector)
	}
	if raw[offAddressType] != addressDataType {
		return parseError(ErrAddressType, offAddressType)
	}
	if binary.BigEndian.Uint16(raw[offFirstAddress:]) != 0 {
		return parseError(ErrFirstAddress, offFirstAddress)
	}
	if binary.BigEndian.Uint16(raw[offAddressIncrement:]) != 1 {
		return parseError(ErrAddressIncrement, offAddressIncrement)
	}
	//the count includes the start code
	count := int(binary.BigEndian.Uint16(raw[offPropertyCount:]))
	if count < 1 || count > MaxChannels+1 || offStartCode+count > len(raw) {
		return parseError(ErrPropertyCount, offPropertyCount)
	}
	return nil
}

func validateSync(raw []byte) error {
	if len(raw) < syncPacketLength {
		return parseError(ErrTooShort, len(raw))
	}
	if binary.BigEndian.Uint32(raw[offFramingVector:]) != vectorE131ExtendedSynchronization {
		return parseError(ErrFramingVector, offFramingVector)
	}
	return nil
}
