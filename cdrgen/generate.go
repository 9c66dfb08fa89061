// Package cdrgen compiles an idl.Module into Go source built on top of
// github.com/nikolov99/cdr: for each struct a package-level property
// tree variable and a Stream<Name> function, for each union a Go
// struct type and a Stream<Name> function, and for each enum a typed
// constant block. Stream<Name> performs whichever of read, write,
// move or max the stream's Mode selects; no separate per-mode entry
// points are emitted, and typedef declarations are not processed.
//
// Schema descriptors reach cdrgen two ways: a hand-written YAML file
// (descriptor.go) or a Go struct's field tags (gostruct.go, reflect
// used only at generation time, never at runtime). Both converge on
// the same idl.Module, so Generate only needs to know that shape.
package cdrgen

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/nikolov99/cdr/idl"
	"golang.org/x/tools/imports"
)

// generator accumulates generated source the way the teacher's
// dbusgen.generator does: a single output buffer plus small
// s/f helper methods, formatted once at the end.
type generator struct {
	out bytes.Buffer
	pkg string
}

// Generate renders m as a single Go source file in package pkg.
func Generate(m *idl.Module, pkg string) ([]byte, error) {
	g := &generator{pkg: pkg}
	g.f("// Code generated by cdrgen from module %q. DO NOT EDIT.\n\n", m.Name)
	g.f("package %s\n\n", pkg)
	g.s("import (\n\"github.com/nikolov99/cdr\"\n)\n\n")

	for _, e := range m.Enums {
		g.enum(e)
	}
	for _, s := range m.Structs {
		if err := g.structDecl(s); err != nil {
			return nil, err
		}
	}
	for _, u := range m.Unions {
		if err := g.unionDecl(u); err != nil {
			return nil, err
		}
	}

	formatted, err := imports.Process("generated.go", g.out.Bytes(), nil)
	if err != nil {
		return g.out.Bytes(), fmt.Errorf("cdrgen: formatting output: %w", err)
	}
	return formatted, nil
}

func (g *generator) s(s string)                    { g.out.WriteString(s) }
func (g *generator) f(msg string, args ...any)      { fmt.Fprintf(&g.out, msg, args...) }

func (g *generator) enum(e *idl.EnumDecl) {
	name := PublicIdentifier(e.Name)
	g.f("type %s int32\n\nconst (\n", name)
	for i, v := range e.Values {
		if i == 0 {
			g.f("\t%s%s %s = iota\n", name, PublicIdentifier(v), name)
		} else {
			g.f("\t%s%s\n", name, PublicIdentifier(v))
		}
	}
	g.s(")\n\n")
	bb := e.BitBound
	if bb == 0 {
		bb = 32
	}
	g.f("const %sBitBound cdr.BitBound = %d\n\n", name, bb)
}

// structDecl emits a property-tree builder and a generic stream_op
// for one struct. The stream_op is written against the Go type of
// the same name: callers are expected to define (or have cdrgen's Go
// front end derive) a Go struct whose exported fields line up with
// decl's fields in declaration order.
func (g *generator) structDecl(decl *idl.StructDecl) error {
	name := PublicIdentifier(decl.Name)
	propsVar := PropsVar(decl.Name)

	g.f("// %s is the compiled property tree for %s.\n", propsVar, name)
	g.f("var %s = build%s()\n\n", propsVar, name)
	g.f("func build%s() *cdr.Property {\n", name)
	g.f("\tp := cdr.NewStruct(%s)\n", extConst(decl.Extensibility))
	for seq, f := range decl.Fields {
		if f.Type.Sequence != nil || f.Type.ArrayLen > 0 || f.Type.Name == "string" || isPrimitiveName(f.Type.Name) {
			g.f("\tm%s := p.AddMember(%d, %d, %t)\n", PublicIdentifier(f.Name), seq, f.MemberID, f.Ann.Optional)
			if f.Ann.Key {
				g.f("\tm%s.IsKey = true\n", PublicIdentifier(f.Name))
			}
		} else {
			g.f("\tp.AddNested(%d, %d, %t, %t, %s)\n", seq, f.MemberID, f.Ann.Optional, f.Ann.Key, PropsVar(f.Type.Name))
		}
	}
	g.f("\tp.Finish(true)\n\treturn p\n}\n\n")

	g.f("// Stream%s drives v through s according to %s's compiled layout.\n", name, propsVar)
	g.f("func Stream%s(s cdr.Stream, v *%s) {\n", name, name)
	g.f("\tcdr.Struct(s, %s, func() {\n", propsVar)
	g.f("\t\tif s.Mode() == cdr.ModeRead {\n")
	g.f("\t\t\tcdr.ReadDispatch(s, %s, s.Key(), func(id uint32) {\n", propsVar)
	g.f("\t\t\t\tswitch id {\n")
	for _, f := range decl.Fields {
		g.f("\t\t\t\tcase %d:\n", f.MemberID)
		g.f("\t\t\t\t\t%s\n", fieldOp(f, "v."+PublicIdentifier(f.Name)))
	}
	g.f("\t\t\t\t}\n\t\t\t})\n")
	g.f("\t\t\treturn\n\t\t}\n")
	g.f("\t\tcdr.WriteEach(%s, s.Key(), func(prop *cdr.Property) {\n", propsVar)
	g.f("\t\t\tcdr.Member(s, prop, true, func() {\n")
	g.f("\t\t\t\tswitch prop.MemberID {\n")
	for _, f := range decl.Fields {
		g.f("\t\t\t\tcase %d:\n", f.MemberID)
		g.f("\t\t\t\t\t%s\n", fieldOp(f, "v."+PublicIdentifier(f.Name)))
	}
	g.f("\t\t\t\t}\n\t\t\t})\n\t\t})\n\t})\n}\n\n")
	return nil
}

// unionDecl emits a discriminator-driven stream_op. Per the wire
// semantics in §5.6, the discriminator is read or written first, and
// while reading, re-read from the branch actually present on the wire
// rather than trusted from the caller's struct.
func (g *generator) unionDecl(decl *idl.UnionDecl) error {
	name := PublicIdentifier(decl.Name)
	g.f("// %s is a generated union; Discriminator selects which field of\n", name)
	g.f("// Value is meaningful.\n")
	g.f("type %s struct {\n\tDiscriminator %s\n", name, idlPrimitiveGoType(decl.Discriminator.Name))
	for _, b := range decl.Branches {
		g.f("\t%s %s\n", PublicIdentifier(b.Field.Name), goFieldType(b.Field.Type))
	}
	g.s("}\n\n")

	g.f("func Stream%s(s cdr.Stream, v *%s) {\n", name, name)
	g.f("\tcdr.Primitive(s, &v.Discriminator)\n")
	g.f("\tswitch v.Discriminator {\n")
	for _, b := range decl.Branches {
		if b.Default {
			continue
		}
		labels := make([]string, len(b.Labels))
		for i, l := range b.Labels {
			labels[i] = fmt.Sprintf("%d", l)
		}
		g.f("\tcase %s:\n\t\t%s\n", joinLabels(labels), fieldOp(b.Field, "v."+PublicIdentifier(b.Field.Name)))
	}
	for _, b := range decl.Branches {
		if b.Default {
			g.f("\tdefault:\n\t\t%s\n", fieldOp(b.Field, "v."+PublicIdentifier(b.Field.Name)))
		}
	}
	g.s("\t}\n}\n\n")
	return nil
}

func joinLabels(labels []string) string {
	out := ""
	for i, l := range labels {
		if i > 0 {
			out += ", "
		}
		out += l
	}
	return out
}

func fieldOp(f *idl.Field, expr string) string {
	switch {
	case f.Type.Sequence != nil:
		return fmt.Sprintf("cdr.PrimitiveSequence(s, &%s, %d)", expr, f.Type.Sequence.Bound)
	case f.Type.ArrayLen > 0:
		return fmt.Sprintf("cdr.PrimitiveArray(s, %s[:])", expr)
	case f.Type.Name == "string":
		return fmt.Sprintf("cdr.String(s, &%s, %d)", expr, f.Type.StringBound)
	case isPrimitiveName(f.Type.Name):
		return fmt.Sprintf("cdr.Primitive(s, &%s)", expr)
	default:
		return fmt.Sprintf("%s(s, &%s)", StreamOpFunc(f.Type.Name), expr)
	}
}

func idlPrimitiveGoType(name string) string {
	if isPrimitiveName(name) {
		return name
	}
	return PublicIdentifier(name)
}

func goFieldType(t idl.TypeRef) string {
	switch {
	case t.Sequence != nil:
		return "[]" + idlPrimitiveGoType(t.Sequence.Elem.Name)
	case t.ArrayLen > 0:
		return fmt.Sprintf("[%d]%s", t.ArrayLen, idlPrimitiveGoType(t.Name))
	default:
		return idlPrimitiveGoType(t.Name)
	}
}

var primitiveNames = map[string]bool{
	"bool": true, "uint8": true, "int16": true, "uint16": true,
	"int32": true, "uint32": true, "int64": true, "uint64": true,
	"float32": true, "float64": true,
}

func isPrimitiveName(name string) bool { return primitiveNames[name] }

func extConst(e idl.Extensibility) string {
	switch e {
	case idl.ExtensibilityAppendable:
		return "cdr.Appendable"
	case idl.ExtensibilityMutable:
		return "cdr.Mutable"
	default:
		return "cdr.Final"
	}
}

// sortedFieldNames is used by callers (e.g. tests) that want a
// deterministic listing of a struct's fields independent of
// declaration order.
func sortedFieldNames(decl *idl.StructDecl) []string {
	names := make([]string, len(decl.Fields))
	for i, f := range decl.Fields {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}
