// Package idl is the abstract syntax this module's schema compiler,
// cdrgen, consumes: a minimal, CDR-relevant projection of an OMG IDL
// document. It carries no parser of its own — descriptors are
// normally produced by hand, by a separate IDL front end, or (for Go
// source trees) derived from struct tags by cdrgen's reflective
// front end — idl only defines the shape those producers target.
package idl

// Module is a named collection of constructed-type declarations, the
// compilation unit cdrgen.Generate consumes.
type Module struct {
	Name    string
	Structs []*StructDecl
	Unions  []*UnionDecl
	Enums   []*EnumDecl
	Typedefs []*TypedefDecl
}

// Annotations captures the subset of IDL/XTypes annotations that
// affect wire representation: @key, @optional, @must_understand, the
// type's own @final/@appendable/@mutable, and @bit_bound for enums.
type Annotations struct {
	Key            bool
	Optional       bool
	MustUnderstand bool
	Extensibility  Extensibility
	BitBound       int
}

// Extensibility mirrors cdr.Extensibility at the AST level, so idl
// has no import dependency on the runtime package.
type Extensibility int

const (
	ExtensibilityUnspecified Extensibility = iota
	ExtensibilityFinal
	ExtensibilityAppendable
	ExtensibilityMutable
)

// Field is one member of a struct or union branch.
type Field struct {
	Name     string
	Type     TypeRef
	MemberID uint32 // explicit @id, or declaration order if unset
	Ann      Annotations
}

// TypeRef names a field's type: exactly one of the pointer fields is
// set, except Name which is always set for a primitive or a
// reference to another declared type.
type TypeRef struct {
	// Name is a primitive type name ("int32", "float64", "string",
	// "bool", ...) or another declaration's Name for a nested
	// struct/union/enum/typedef reference.
	Name string

	// StringBound is the declared bound for a bounded string (0 means
	// unbounded "string"/"wstring").
	StringBound uint32

	// Sequence, if non-nil, makes this a sequence of Sequence.Elem,
	// bounded by Sequence.Bound (0 meaning unbounded).
	Sequence *SequenceType

	// ArrayLen, if nonzero, makes this a fixed-size array of Name
	// with ArrayLen elements.
	ArrayLen uint32
}

// SequenceType is the element type and bound of a sequence<T, N>.
type SequenceType struct {
	Elem  TypeRef
	Bound uint32
}

// StructDecl is a constructed struct type: an ordered field list plus
// its own extensibility and (optionally) an explicit #pragma keylist.
type StructDecl struct {
	Name          string
	Extensibility Extensibility
	Fields        []*Field

	// Keylist, if non-nil, names the members that form this struct's
	// key via #pragma keylist rather than @key annotations. The two
	// mechanisms are mutually exclusive on one struct.
	Keylist []string
}

// UnionDecl is a constructed union type: a discriminator and a set of
// case branches, each labeled by one or more discriminator values
// (or the implicit default branch).
type UnionDecl struct {
	Name          string
	Extensibility Extensibility
	Discriminator TypeRef
	Branches      []*UnionBranch
}

// UnionBranch is one case (or the default case, when Default is
// true and Labels is empty) of a union.
type UnionBranch struct {
	Labels  []int64
	Default bool
	Field   *Field
}

// EnumDecl is an IDL enum, whose wire representation is an integer of
// BitBound width (defaulting to 32 when unset).
type EnumDecl struct {
	Name     string
	BitBound int
	Values   []string
}

// TypedefDecl aliases Target under Name. cdrgen.Generate does not read
// Module.Typedefs: a field whose type names a typedef is generated as
// a reference to a constructed type of that name.
type TypedefDecl struct {
	Name   string
	Target TypeRef
}
