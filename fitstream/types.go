package fitstream

// FieldLayout is one 3-byte field descriptor from a definition message.
type FieldLayout struct {
	FieldNumber uint8
	Size        uint8
	BaseType    uint8
}

// MessageLayout is the active shape of data messages for one local message
// type. A later definition for the same local id supersedes the former for
// all subsequent data messages.
type MessageLayout struct {
	GlobalMessageNumber uint16
	LittleEndian        bool
	Fields              []FieldLayout
}

// Recognized base-type codes after masking with baseTypeMask. Codes outside
// this set decode to absent rather than erroring.
const (
	baseEnum   = 0x00
	baseSint8  = 0x01
	baseUint8  = 0x02
	baseSint16 = 0x03
	baseUint16 = 0x04
	baseSint32 = 0x05
	baseUint32 = 0x06
	baseString = 0x07
)

// wireValue is a decoded field value. Exactly one member is meaningful:
// str selects s, otherwise f holds the numeric value.
type wireValue struct {
	f   float64
	s   string
	str bool
}

// Field numbers of the "record" (global message 20) fields this core
// understands. Unknown numbers are ignored, not fatal.
const (
	fieldTimestamp   = 253
	fieldLatitude    = 0
	fieldLongitude   = 1
	fieldAltitude    = 2
	fieldHeartRate   = 3
	fieldCadence     = 4
	fieldDistance    = 5
	fieldSpeed       = 6
	fieldPower       = 7
	fieldTemperature = 13
)
