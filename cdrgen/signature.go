package cdrgen

import "fmt"

// Signature is a short, human-readable description of a constructed
// type's wire shape, not part of the wire format itself. Neither
// Generate nor the cdrgen command uses it. It plays the same
// role the teacher's Signature type does for DBus: a debug-facing
// projection of a type's structure, not a serialization primitive.
type Signature struct {
	name string
	str  string
}

// String returns the signature's textual form, e.g.
// "SensorReading{int32;char;string<32>;double}".
func (s Signature) String() string { return s.str }

// StructSignature builds a Signature for decl from its fields'
// IDL type names in declaration order.
func StructSignature(name string, fieldTypes []string) Signature {
	str := name + "{"
	for i, t := range fieldTypes {
		if i > 0 {
			str += ";"
		}
		str += t
	}
	str += "}"
	return Signature{name: name, str: str}
}

func fieldTypeSignature(typeName string, stringBound, arrayLen uint32) string {
	switch {
	case arrayLen > 0:
		return fmt.Sprintf("%s[%d]", typeName, arrayLen)
	case typeName == "string" && stringBound > 0:
		return fmt.Sprintf("string<%d>", stringBound)
	default:
		return typeName
	}
}
