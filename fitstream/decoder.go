package fitstream

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	headerMinLen       = 12
	fileMinLen         = 14
	maxProtocolVersion = 2

	definitionFlag   = 0x40
	localMessageMask = 0x0F
	baseTypeMask     = 0x1F

	// Global message number of the per-second "record" message.
	recordMessageNum = 20
)

// decoder walks a byte buffer once, front to back. Its definition table and
// assembler state are local to a single Decode call and discarded afterward.
type decoder struct {
	data    []byte
	pos     int
	layouts [16]*MessageLayout
	asm     sampleAssembler
	skipped int
}

// Decode reconstructs a ride timeline from a raw activity byte buffer.
//
// The buffer must start with a header of at least 12 bytes whose first byte
// is the header length and second byte the protocol version; the rest of the
// header is ignored. Records follow back to back until the end of the
// buffer. Decode fails with ErrInvalidFormat, ErrUnsupportedVersion,
// ErrCorruptedData, or ErrNoActivityData; there is no partial-result mode.
func Decode(data []byte) (*Timeline, error) {
	if len(data) < fileMinLen {
		return nil, fmt.Errorf("file is %d bytes, need at least %d: %w", len(data), fileMinLen, ErrInvalidFormat)
	}
	headerLen := int(data[0])
	if headerLen < headerMinLen {
		return nil, fmt.Errorf("header length byte is %d, need at least %d: %w", headerLen, headerMinLen, ErrInvalidFormat)
	}
	if version := data[1]; version > maxProtocolVersion {
		return nil, fmt.Errorf("protocol version %d: %w", version, ErrUnsupportedVersion)
	}
	if headerLen > len(data) {
		return nil, fmt.Errorf("header length %d exceeds file size %d: %w", headerLen, len(data), ErrCorruptedData)
	}

	d := &decoder{data: data, pos: headerLen}
	for d.pos < len(d.data) {
		header := d.data[d.pos]
		d.pos++

		local := header & localMessageMask
		if header&definitionFlag != 0 {
			if err := d.readDefinition(local); err != nil {
				return nil, err
			}
			continue
		}
		if err := d.readData(local); err != nil {
			return nil, err
		}
	}

	samples := d.asm.samples
	if len(samples) == 0 {
		return nil, fmt.Errorf("scan finished with zero record samples: %w", ErrNoActivityData)
	}
	tl := NewTimeline(samples)
	tl.SkippedRecords = d.skipped
	return tl, nil
}

func (d *decoder) take(n int) ([]byte, bool) {
	if d.pos+n > len(d.data) {
		return nil, false
	}
	out := d.data[d.pos : d.pos+n]
	d.pos += n
	return out, true
}

// readDefinition parses [reserved:1][architecture:1][global:2][count:1]
// followed by count 3-byte field descriptors, and installs the layout for
// the given local id, overwriting any earlier one.
func (d *decoder) readDefinition(local uint8) error {
	fixed, ok := d.take(5)
	if !ok {
		return fmt.Errorf("definition message for local id %d truncated: %w", local, ErrCorruptedData)
	}
	littleEndian := fixed[1] == 0
	order := byteOrder(littleEndian)
	global := order.Uint16(fixed[2:4])
	count := int(fixed[4])

	descriptors, ok := d.take(count * 3)
	if !ok {
		return fmt.Errorf("definition message for local id %d declares %d fields beyond buffer end: %w", local, count, ErrCorruptedData)
	}

	fields := make([]FieldLayout, 0, count)
	for i := 0; i < count; i++ {
		raw := descriptors[i*3 : i*3+3]
		fields = append(fields, FieldLayout{
			FieldNumber: raw[0],
			Size:        raw[1],
			BaseType:    raw[2],
		})
	}

	d.layouts[local] = &MessageLayout{
		GlobalMessageNumber: global,
		LittleEndian:        littleEndian,
		Fields:              fields,
	}
	return nil
}

// readData decodes one data message per the active layout for its local id.
// When no layout exists the record is skipped by advancing exactly one byte
// (the header byte already consumed); this is a best-effort recovery for
// malformed streams, counted in SkippedRecords, not a hard failure.
func (d *decoder) readData(local uint8) error {
	layout := d.layouts[local]
	if layout == nil {
		d.skipped++
		return nil
	}

	order := byteOrder(layout.LittleEndian)
	isRecord := layout.GlobalMessageNumber == recordMessageNum
	for _, field := range layout.Fields {
		raw, ok := d.take(int(field.Size))
		if !ok {
			return fmt.Errorf("data message for local id %d overruns buffer at field %d: %w", local, field.FieldNumber, ErrCorruptedData)
		}
		// The cursor advanced by the declared size regardless of whether the
		// value decodes, guaranteeing forward progress.
		value, ok := decodeBaseValue(raw, field.BaseType&baseTypeMask, order)
		if !ok || !isRecord {
			continue
		}
		d.asm.apply(field.FieldNumber, value)
	}
	if isRecord {
		d.asm.finishRecord()
	}
	return nil
}

func byteOrder(littleEndian bool) binary.ByteOrder {
	if littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// decodeBaseValue decodes size bytes per the masked base-type code. Values
// holding the FIT invalid sentinel for their type, undersized buffers, and
// unrecognized codes all report absent.
func decodeBaseValue(raw []byte, code uint8, order binary.ByteOrder) (wireValue, bool) {
	switch code {
	case baseEnum, baseUint8:
		if len(raw) < 1 || raw[0] == 0xFF {
			return wireValue{}, false
		}
		return wireValue{f: float64(raw[0])}, true
	case baseSint8:
		if len(raw) < 1 || raw[0] == 0x7F {
			return wireValue{}, false
		}
		return wireValue{f: float64(int8(raw[0]))}, true
	case baseSint16:
		if len(raw) < 2 {
			return wireValue{}, false
		}
		v := int16(order.Uint16(raw))
		if v == 0x7FFF {
			return wireValue{}, false
		}
		return wireValue{f: float64(v)}, true
	case baseUint16:
		if len(raw) < 2 {
			return wireValue{}, false
		}
		v := order.Uint16(raw)
		if v == 0xFFFF {
			return wireValue{}, false
		}
		return wireValue{f: float64(v)}, true
	case baseSint32:
		if len(raw) < 4 {
			return wireValue{}, false
		}
		v := int32(order.Uint32(raw))
		if v == 0x7FFFFFFF {
			return wireValue{}, false
		}
		return wireValue{f: float64(v)}, true
	case baseUint32:
		if len(raw) < 4 {
			return wireValue{}, false
		}
		v := order.Uint32(raw)
		if v == 0xFFFFFFFF {
			return wireValue{}, false
		}
		return wireValue{f: float64(v)}, true
	case baseString:
		s := trimControl(raw)
		if s == "" {
			return wireValue{}, false
		}
		return wireValue{s: s, str: true}, true
	default:
		return wireValue{}, false
	}
}

// trimControl interprets raw bytes as UTF-8 with control characters removed.
func trimControl(raw []byte) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, string(raw))
}
