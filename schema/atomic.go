package schema

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Atomic is one of the non-container BSON kinds. Declaration order is the
// order used to place Atomics inside sets; it carries no semantic ranking.
type Atomic uint8

const (
	MinKey Atomic = iota
	Null
	Integer
	Long
	Double
	Decimal
	Symbol
	String
	BinData
	Undefined
	ObjectID
	Boolean
	Date
	Timestamp
	Regex
	DbPointer
	Javascript
	JavascriptWithScope
	MaxKey
)

// atomicNames are the $jsonSchema bsonType aliases, indexed by Atomic.
var atomicNames = [...]string{
	MinKey:              "minKey",
	Null:                "null",
	Integer:             "int",
	Long:                "long",
	Double:              "double",
	Decimal:             "decimal",
	Symbol:              "symbol",
	String:              "string",
	BinData:             "binData",
	Undefined:           "undefined",
	ObjectID:            "objectId",
	Boolean:             "bool",
	Date:                "date",
	Timestamp:           "timestamp",
	Regex:               "regex",
	DbPointer:           "dbPointer",
	Javascript:          "javascript",
	JavascriptWithScope: "javascriptWithScope",
	MaxKey:              "maxKey",
}

var atomicByName = func() map[string]Atomic {
	m := make(map[string]Atomic, len(atomicNames))
	for i, name := range atomicNames {
		m[name] = Atomic(i)
	}
	return m
}()

const (
	objectTypeName = "object"
	arrayTypeName  = "array"
)

// Atomics returns every Atomic in order.
func Atomics() []Atomic {
	out := make([]Atomic, 0, len(atomicNames))
	for i := range atomicNames {
		out = append(out, Atomic(i))
	}
	return out
}

func (a Atomic) String() string {
	if int(a) < len(atomicNames) {
		return atomicNames[a]
	}
	return fmt.Sprintf("atomic(%d)", uint8(a))
}

func (a Atomic) IsNumeric() bool {
	switch a {
	case Decimal, Double, Integer, Long:
		return true
	}
	return false
}

// isOpaque reports kinds that cannot be compared with anything but null.
func (a Atomic) isOpaque() bool {
	switch a {
	case Javascript, JavascriptWithScope, DbPointer:
		return true
	}
	return false
}

// ParseAtomic maps a $jsonSchema bsonType alias to its Atomic.
func ParseAtomic(name string) (Atomic, error) {
	if a, ok := atomicByName[name]; ok {
		return a, nil
	}
	if name == objectTypeName || name == arrayTypeName {
		return 0, CannotConvertToAtomicError(name)
	}
	return 0, InvalidBSONTypeError(name)
}

// AtomicFromBSONType maps a BSON element type byte to its Atomic.
func AtomicFromBSONType(t bsontype.Type) (Atomic, error) {
	switch t {
	case bsontype.Double:
		return Double, nil
	case bsontype.String:
		return String, nil
	case bsontype.EmbeddedDocument:
		return 0, CannotConvertToAtomicError(objectTypeName)
	case bsontype.Array:
		return 0, CannotConvertToAtomicError(arrayTypeName)
	case bsontype.Binary:
		return BinData, nil
	case bsontype.Undefined:
		return Undefined, nil
	case bsontype.ObjectID:
		return ObjectID, nil
	case bsontype.Boolean:
		return Boolean, nil
	case bsontype.DateTime:
		return Date, nil
	case bsontype.Null:
		return Null, nil
	case bsontype.Regex:
		return Regex, nil
	case bsontype.DBPointer:
		return DbPointer, nil
	case bsontype.JavaScript:
		return Javascript, nil
	case bsontype.Symbol:
		return Symbol, nil
	case bsontype.CodeWithScope:
		return JavascriptWithScope, nil
	case bsontype.Int32:
		return Integer, nil
	case bsontype.Timestamp:
		return Timestamp, nil
	case bsontype.Int64:
		return Long, nil
	case bsontype.Decimal128:
		return Decimal, nil
	case bsontype.MinKey:
		return MinKey, nil
	case bsontype.MaxKey:
		return MaxKey, nil
	}
	return 0, UnsupportedBsonTypeError(fmt.Sprintf("bson element type 0x%02x", byte(t)))
}
