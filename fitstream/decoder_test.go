package fitstream

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// streamBuilder assembles raw activity buffers byte by byte for decoder
// tests.
type streamBuilder struct {
	buf []byte
}

func newStream() *streamBuilder {
	header := make([]byte, 12)
	header[0] = 12 // header length
	header[1] = 1  // protocol version
	return &streamBuilder{buf: header}
}

func (b *streamBuilder) definition(local uint8, littleEndian bool, global uint16, fields ...FieldLayout) *streamBuilder {
	b.buf = append(b.buf, 0x40|local, 0)
	arch := byte(1)
	globalBytes := make([]byte, 2)
	if littleEndian {
		arch = 0
		binary.LittleEndian.PutUint16(globalBytes, global)
	} else {
		binary.BigEndian.PutUint16(globalBytes, global)
	}
	b.buf = append(b.buf, arch)
	b.buf = append(b.buf, globalBytes...)
	b.buf = append(b.buf, byte(len(fields)))
	for _, f := range fields {
		b.buf = append(b.buf, f.FieldNumber, f.Size, f.BaseType)
	}
	return b
}

func (b *streamBuilder) data(local uint8, payload ...byte) *streamBuilder {
	b.buf = append(b.buf, local)
	b.buf = append(b.buf, payload...)
	return b
}

func (b *streamBuilder) raw(bytes ...byte) *streamBuilder {
	b.buf = append(b.buf, bytes...)
	return b
}

func le16(v uint16) []byte {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, v)
	return out
}

func le32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

func recordPayloadLE(timestamp uint32, power uint16) []byte {
	payload := le32(timestamp)
	return append(payload, le16(power)...)
}

var recordDefLE = []FieldLayout{
	{FieldNumber: 253, Size: 4, BaseType: 0x86}, // timestamp uint32
	{FieldNumber: 7, Size: 2, BaseType: 0x84},   // power uint16
}

func TestDecodeRoundTripPower(t *testing.T) {
	stream := newStream().
		definition(0, true, 20, recordDefLE...).
		data(0, recordPayloadLE(1000, 250)...).
		data(0, recordPayloadLE(1001, 260)...)

	tl, err := Decode(stream.buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(tl.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(tl.Samples))
	}
	first := tl.Samples[0]
	if first.PowerW == nil || *first.PowerW != 250 {
		t.Fatalf("expected power 250, got %v", first.PowerW)
	}
	if got := first.Timestamp.Unix(); got != epochOffsetUnix+1000 {
		t.Fatalf("expected timestamp %d, got %d", epochOffsetUnix+1000, got)
	}
	if tl.SkippedRecords != 0 {
		t.Fatalf("expected no skipped records, got %d", tl.SkippedRecords)
	}
}

func TestDecodeBigEndianDefinition(t *testing.T) {
	payload := []byte{0, 0, 3, 0xE8} // timestamp 1000 big-endian
	payload = append(payload, 1, 0x2C) // power 300 big-endian

	stream := newStream().
		definition(0, false, 20, recordDefLE...).
		data(0, payload...)

	tl, err := Decode(stream.buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got := *tl.Samples[0].PowerW; got != 300 {
		t.Fatalf("expected power 300, got %v", got)
	}
}

func TestDecodeTooShort(t *testing.T) {
	_, err := Decode(make([]byte, 13))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestDecodeHeaderLengthBelowMinimum(t *testing.T) {
	buf := make([]byte, 20)
	buf[0] = 11
	buf[1] = 1
	_, err := Decode(buf)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	buf := make([]byte, 20)
	buf[0] = 12
	buf[1] = 3
	_, err := Decode(buf)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestDecodeNoRecordsIsNoActivityData(t *testing.T) {
	// Structurally valid: a definition but no data messages.
	stream := newStream().definition(0, true, 20, recordDefLE...)
	_, err := Decode(stream.buf)
	if !errors.Is(err, ErrNoActivityData) {
		t.Fatalf("expected ErrNoActivityData, got %v", err)
	}
}

func TestDecodeTruncatedDataIsCorrupted(t *testing.T) {
	stream := newStream().
		definition(0, true, 20, recordDefLE...).
		data(0, le32(1000)...) // power bytes missing

	_, err := Decode(stream.buf)
	if !errors.Is(err, ErrCorruptedData) {
		t.Fatalf("expected ErrCorruptedData, got %v", err)
	}
}

func TestDecodeTruncatedDefinitionIsCorrupted(t *testing.T) {
	stream := newStream().raw(0x40, 0, 0) // definition cut off after architecture
	_, err := Decode(stream.buf)
	if !errors.Is(err, ErrCorruptedData) {
		t.Fatalf("expected ErrCorruptedData, got %v", err)
	}
}

func TestDecodeSemicircleConversion(t *testing.T) {
	fields := append([]FieldLayout{}, recordDefLE...)
	fields = append(fields,
		FieldLayout{FieldNumber: 0, Size: 4, BaseType: 0x85}, // latitude sint32
		FieldLayout{FieldNumber: 1, Size: 4, BaseType: 0x85}, // longitude sint32
	)
	payload := recordPayloadLE(1000, 200)
	payload = append(payload, le32(uint32(1<<30))...) // 2^30 semicircles = 90 degrees
	payload = append(payload, le32(0)...)             // 0 semicircles = 0 degrees

	stream := newStream().
		definition(0, true, 20, fields...).
		data(0, payload...)

	tl, err := Decode(stream.buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	s := tl.Samples[0]
	if s.Latitude == nil || math.Abs(*s.Latitude-90.0) > 1e-9 {
		t.Fatalf("expected latitude 90, got %v", s.Latitude)
	}
	if s.Longitude == nil || *s.Longitude != 0 {
		t.Fatalf("expected longitude 0, got %v", s.Longitude)
	}
}

func TestDecodeAltitudeScaleOffset(t *testing.T) {
	fields := append([]FieldLayout{}, recordDefLE...)
	fields = append(fields, FieldLayout{FieldNumber: 2, Size: 2, BaseType: 0x84})
	payload := recordPayloadLE(1000, 200)
	payload = append(payload, le16(2600)...) // 2600/5 - 500 = 20m

	stream := newStream().
		definition(0, true, 20, fields...).
		data(0, payload...)

	tl, err := Decode(stream.buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got := *tl.Samples[0].AltitudeM; got != 20 {
		t.Fatalf("expected altitude 20, got %v", got)
	}
}

func TestDecodeInvalidSentinelLeavesFieldAbsent(t *testing.T) {
	payload := le32(1000)
	payload = append(payload, 0xFF, 0xFF) // uint16 invalid sentinel

	stream := newStream().
		definition(0, true, 20, recordDefLE...).
		data(0, payload...)

	tl, err := Decode(stream.buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if tl.Samples[0].PowerW != nil {
		t.Fatalf("expected absent power, got %v", *tl.Samples[0].PowerW)
	}
}

func TestDecodeRedefinitionSupersedes(t *testing.T) {
	timestampOnly := []FieldLayout{{FieldNumber: 253, Size: 4, BaseType: 0x86}}

	stream := newStream().
		definition(0, true, 20, recordDefLE...).
		data(0, recordPayloadLE(1000, 250)...).
		definition(0, true, 20, timestampOnly...).
		data(0, le32(1001)...)

	tl, err := Decode(stream.buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(tl.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(tl.Samples))
	}
	// Power carries forward from the first record; the second layout no
	// longer decodes it but the slot keeps its last value.
	if tl.Samples[1].PowerW == nil || *tl.Samples[1].PowerW != 250 {
		t.Fatalf("expected carried power 250, got %v", tl.Samples[1].PowerW)
	}
}

func TestDecodeUnknownLocalIDSkipsOneByte(t *testing.T) {
	stream := newStream().
		definition(0, true, 20, recordDefLE...).
		data(0, recordPayloadLE(1000, 250)...).
		raw(0x03). // data header for an undefined local id
		data(0, recordPayloadLE(1001, 255)...)

	tl, err := Decode(stream.buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(tl.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(tl.Samples))
	}
	if tl.SkippedRecords != 1 {
		t.Fatalf("expected 1 skipped record, got %d", tl.SkippedRecords)
	}
	if got := *tl.Samples[1].PowerW; got != 255 {
		t.Fatalf("expected power 255 after resync, got %v", got)
	}
}

func TestDecodeNonRecordMessagesIgnored(t *testing.T) {
	lapFields := []FieldLayout{{FieldNumber: 0, Size: 2, BaseType: 0x84}}

	stream := newStream().
		definition(0, true, 20, recordDefLE...).
		definition(1, true, 19, lapFields...). // lap message on another slot
		data(1, le16(42)...).
		data(0, recordPayloadLE(1000, 250)...)

	tl, err := Decode(stream.buf)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(tl.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(tl.Samples))
	}
	if tl.SkippedRecords != 0 {
		t.Fatalf("non-record data should not count as skipped, got %d", tl.SkippedRecords)
	}
}

func TestDecodeErrorMessageMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrInvalidFormat, "This file does not look like a supported activity recording."},
		{ErrUnsupportedVersion, "This activity file uses a newer protocol version than this app supports."},
		{ErrCorruptedData, "The activity file appears to be corrupted and could not be read."},
		{ErrNoActivityData, "The file was read successfully but contains no ride data."},
	}
	for _, tc := range cases {
		if got := DecodeErrorMessage(tc.err); got != tc.want {
			t.Fatalf("DecodeErrorMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
