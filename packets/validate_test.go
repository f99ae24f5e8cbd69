package packets

import (
	"encoding/binary"
	"errors"
	"testing"
)

func validDataBytes() []byte {
	p := NewDataPacket()
	p.SetUniverse(1)
	p.SetData([]byte{10, 20, 30})
	return append([]byte(nil), p.Bytes()...)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		want    Kind
		wantErr error
	}{
		{name: "valid data", mutate: func(b []byte) []byte { return b }, want: KindData},
		{name: "valid sync", mutate: func([]byte) []byte {
			s := NewSyncPacket([16]byte{1}, 7)
			return s.Bytes()
		}, want: KindSync},
		{name: "empty", mutate: func([]byte) []byte { return nil }, wantErr: ErrTooShort},
		{name: "root only", mutate: func(b []byte) []byte { return b[:60] }, wantErr: ErrTooShort},
		{name: "preamble", mutate: func(b []byte) []byte { b[1] = 0x11; return b }, wantErr: ErrPreamble},
		{name: "identifier", mutate: func(b []byte) []byte { b[4] = 'X'; return b }, wantErr: ErrIdentifier},
		{name: "root vector", mutate: func(b []byte) []byte { b[21] = 0x5; return b }, wantErr: ErrRootVector},
		{name: "framing vector", mutate: func(b []byte) []byte { b[43] = 0x3; return b }, wantErr: ErrFramingVector},
		{name: "dmp vector", mutate: func(b []byte) []byte { b[117] = 0x1; return b }, wantErr: ErrDmpVector},
		{name: "address type", mutate: func(b []byte) []byte { b[118] = 0xa0; return b }, wantErr: ErrAddressType},
		{name: "first address", mutate: func(b []byte) []byte { b[120] = 1; return b }, wantErr: ErrFirstAddress},
		{name: "address increment", mutate: func(b []byte) []byte { b[122] = 2; return b }, wantErr: ErrAddressIncrement},
		{name: "zero count", mutate: func(b []byte) []byte {
			binary.BigEndian.PutUint16(b[123:], 0)
			return b
		}, wantErr: ErrPropertyCount},
		{name: "count past buffer", mutate: func(b []byte) []byte {
			binary.BigEndian.PutUint16(b[123:], 10)
			return b
		}, wantErr: ErrPropertyCount},
		{name: "count too large", mutate: func(b []byte) []byte {
			b = append(b, make([]byte, 600)...)
			binary.BigEndian.PutUint16(b[123:], 514)
			return b
		}, wantErr: ErrPropertyCount},
		{name: "extended discovery", mutate: func([]byte) []byte {
			s := NewSyncPacket([16]byte{1}, 7)
			b := s.Bytes()
			b[43] = 0x2
			return b
		}, wantErr: ErrFramingVector},
		{name: "short sync", mutate: func([]byte) []byte {
			s := NewSyncPacket([16]byte{1}, 7)
			return s.Bytes()[:45]
		}, wantErr: ErrTooShort},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind, err := Validate(tc.mutate(validDataBytes()))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Fatalf("err = %T, want *ParseError", err)
				}
				if kind != KindNotRoot {
					t.Fatalf("kind = %v, want %v", kind, KindNotRoot)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if kind != tc.want {
				t.Fatalf("kind = %v, want %v", kind, tc.want)
			}
		})
	}
}

func FuzzValidate(f *testing.F) {
	f.Add(validDataBytes())
	s := NewSyncPacket([16]byte{1, 2, 3}, 1)
	f.Add(s.Bytes())
	f.Add([]byte{})
	f.Add(make([]byte, 125))
	f.Add(make([]byte, 638))

	f.Fuzz(func(t *testing.T, raw []byte) {
		kind, err := Validate(raw)
		switch kind {
		case KindData:
			p, perr := ParseDataPacket(raw)
			if perr != nil {
				t.Fatalf("valid data packet did not parse: %v", perr)
			}
			if len(p.Data()) > MaxChannels {
				t.Fatalf("dmx data should be at most 512 bytes, got %d", len(p.Data()))
			}
		case KindSync:
			if _, perr := ParseSyncPacket(raw); perr != nil {
				t.Fatalf("valid sync packet did not parse: %v", perr)
			}
		default:
			if err == nil {
				t.Fatal("rejected packet without error")
			}
		}
	})
}
