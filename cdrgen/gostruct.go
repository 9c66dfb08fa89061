package cdrgen

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/nikolov99/cdr/idl"
)

// This file derives an idl.StructDecl from a Go struct type's fields
// and `cdr:"..."` tags, for callers who'd rather annotate Go structs
// directly than hand-write a YAML descriptor (see descriptor.go).
// Like the teacher's reflect-based struct walker this uses
// reflect.Type, never reflect.Value — it runs once, at code-generation
// time, never during a stream operation, so it does not conflict with
// this module's "no reflective value traversal" runtime contract.

// kindToIDLName maps the reflect.Kinds directly representable in CDR
// to their IDL primitive name, mirroring the teacher's kindToType
// table.
var kindToIDLName = map[reflect.Kind]string{
	reflect.Bool:    "bool",
	reflect.Uint8:   "uint8",
	reflect.Int16:   "int16",
	reflect.Uint16:  "uint16",
	reflect.Int32:   "int32",
	reflect.Uint32:  "uint32",
	reflect.Int64:   "int64",
	reflect.Uint64:  "uint64",
	reflect.Float32: "float32",
	reflect.Float64: "float64",
	reflect.String:  "string",
}

// StructFromGo derives an idl.StructDecl from t, a Go struct type.
// Field order becomes declaration order (and therefore the default
// member id sequence); tag options override the defaults:
//
//	`cdr:"id=4"`               explicit member id
//	`cdr:"key"`                member participates in the key
//	`cdr:"optional"`           member is IDL @optional
//	`cdr:"must_understand"`    member is must-understand even if not key
//	`cdr:"bound=32"`           string/sequence bound
//
// Anonymous (embedded) struct fields are *not* flattened — unlike the
// teacher's DBus struct walker, a nested CDR struct is always a
// distinct constructed type with its own property subtree, so
// embedding must be explicit.
func StructFromGo(t reflect.Type, ext idl.Extensibility) (*idl.StructDecl, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &unsupportedKindError{t}
	}
	decl := &idl.StructDecl{Name: t.Name(), Extensibility: ext}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := parseTag(sf.Tag.Get("cdr"))
		if tag.skip {
			continue
		}
		ft, err := typeRefFromGo(sf.Type, tag)
		if err != nil {
			return nil, err
		}
		id := uint32(i)
		if tag.id != nil {
			id = *tag.id
		}
		decl.Fields = append(decl.Fields, &idl.Field{
			Name:     sf.Name,
			MemberID: id,
			Type:     ft,
			Ann: idl.Annotations{
				Key:            tag.key,
				Optional:       tag.optional,
				MustUnderstand: tag.mustUnderstand || tag.key,
			},
		})
	}
	return decl, nil
}

func typeRefFromGo(t reflect.Type, tag fieldTag) (idl.TypeRef, error) {
	switch t.Kind() {
	case reflect.Slice:
		elem, err := typeRefFromGo(t.Elem(), fieldTag{})
		if err != nil {
			return idl.TypeRef{}, err
		}
		return idl.TypeRef{Sequence: &idl.SequenceType{Elem: elem, Bound: tag.bound}}, nil
	case reflect.Array:
		elem, err := typeRefFromGo(t.Elem(), fieldTag{})
		if err != nil {
			return idl.TypeRef{}, err
		}
		return idl.TypeRef{Name: elem.Name, ArrayLen: uint32(t.Len())}, nil
	case reflect.String:
		return idl.TypeRef{Name: "string", StringBound: tag.bound}, nil
	case reflect.Struct:
		return idl.TypeRef{Name: t.Name()}, nil
	case reflect.Pointer:
		return typeRefFromGo(t.Elem(), tag)
	default:
		if name, ok := kindToIDLName[t.Kind()]; ok {
			return idl.TypeRef{Name: name}, nil
		}
		return idl.TypeRef{}, &unsupportedKindError{t}
	}
}

type unsupportedKindError struct{ t reflect.Type }

func (e *unsupportedKindError) Error() string {
	return "cdrgen: " + e.t.String() + " has no CDR representation"
}

type fieldTag struct {
	skip           bool
	id             *uint32
	key            bool
	optional       bool
	mustUnderstand bool
	bound          uint32
}

func parseTag(raw string) fieldTag {
	var t fieldTag
	if raw == "-" {
		t.skip = true
		return t
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "key":
			t.key = true
		case part == "optional":
			t.optional = true
		case part == "must_understand":
			t.mustUnderstand = true
		case strings.HasPrefix(part, "id="):
			if v, err := strconv.ParseUint(part[3:], 10, 32); err == nil {
				id := uint32(v)
				t.id = &id
			}
		case strings.HasPrefix(part, "bound="):
			if v, err := strconv.ParseUint(part[6:], 10, 32); err == nil {
				t.bound = uint32(v)
			}
		}
	}
	return t
}
