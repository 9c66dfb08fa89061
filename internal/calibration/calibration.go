// Package calibration is a hand-written stand-in for cdrgen's output:
// since the Go toolchain isn't available to run cdrgen on itself
// during development, this package implements the same shape cdrgen
// would generate for one small struct, in three extensibilities, and
// is exercised by the golden-vector tests in calibration_test.go.
package calibration

import "github.com/nikolov99/cdr"

// Sample is the struct used throughout §6/§8 of the layout
// walkthrough: an int32, a single byte, an unbounded string, and a
// double, with the byte as the sole key member.
type Sample struct {
	L   int32
	C   uint8
	Str string
	D   float64
}

func buildSampleProps(ext cdr.Extensibility) *cdr.Property {
	p := cdr.NewStruct(ext)
	p.AddMember(0, 0, false)
	mc := p.AddMember(1, 1, false)
	mc.IsKey = true
	p.AddMember(2, 2, false)
	p.AddMember(3, 3, false)
	p.Finish(true)
	return p
}

var (
	BasicProps      = buildSampleProps(cdr.Final)
	AppendableProps = buildSampleProps(cdr.Appendable)
	MutableProps    = buildSampleProps(cdr.Mutable)
)

// StreamSample drives v through s using props, in declaration order.
// It is the same shape cdrgen.Generate would emit for a struct with
// no nested members.
func StreamSample(s cdr.Stream, props *cdr.Property, v *Sample) {
	cdr.Struct(s, props, func() {
		if s.Mode() == cdr.ModeRead {
			cdr.ReadDispatch(s, props, s.Key(), func(id uint32) {
				switch id {
				case 0:
					cdr.Primitive(s, &v.L)
				case 1:
					cdr.Primitive(s, &v.C)
				case 2:
					cdr.String(s, &v.Str, 0)
				case 3:
					cdr.Primitive(s, &v.D)
				}
			})
			return
		}
		cdr.WriteEach(props, s.Key(), func(prop *cdr.Property) {
			cdr.Member(s, prop, true, func() {
				switch prop.MemberID {
				case 0:
					cdr.Primitive(s, &v.L)
				case 1:
					cdr.Primitive(s, &v.C)
				case 2:
					cdr.String(s, &v.Str, 0)
				case 3:
					cdr.Primitive(s, &v.D)
				}
			})
		})
	})
}
