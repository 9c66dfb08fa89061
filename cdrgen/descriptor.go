package cdrgen

import (
	"fmt"
	"os"
	"strings"

	"github.com/nikolov99/cdr/idl"
	"gopkg.in/yaml.v3"
)

// descriptor is the on-disk YAML shape of an idl.Module, used when
// cdrgen is fed a hand- or tool-written schema descriptor rather than
// deriving one from Go struct tags (see gostruct.go). Field names are
// lowercased to keep descriptor files terse; the zero value of every
// optional field is the IDL default (final extensibility, unbounded
// strings/sequences, sequential member ids).
type descriptor struct {
	Module   string               `yaml:"module"`
	Structs  []structDescriptor   `yaml:"structs,omitempty"`
	Unions   []unionDescriptor    `yaml:"unions,omitempty"`
	Enums    []enumDescriptor     `yaml:"enums,omitempty"`
	Typedefs []typedefDescriptor  `yaml:"typedefs,omitempty"`
}

type structDescriptor struct {
	Name          string             `yaml:"name"`
	Extensibility string             `yaml:"extensibility,omitempty"`
	Fields        []fieldDescriptor  `yaml:"fields"`
	Keylist       []string           `yaml:"keylist,omitempty"`
}

type unionDescriptor struct {
	Name          string                `yaml:"name"`
	Extensibility string                `yaml:"extensibility,omitempty"`
	Discriminator string                `yaml:"discriminator"`
	Branches      []unionBranchDescriptor `yaml:"branches"`
}

type unionBranchDescriptor struct {
	Labels  []int64         `yaml:"labels,omitempty"`
	Default bool            `yaml:"default,omitempty"`
	Field   fieldDescriptor `yaml:"field"`
}

type fieldDescriptor struct {
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	ID             *uint32 `yaml:"id,omitempty"`
	Key            bool   `yaml:"key,omitempty"`
	Optional       bool   `yaml:"optional,omitempty"`
	MustUnderstand bool   `yaml:"must_understand,omitempty"`
	StringBound    uint32 `yaml:"string_bound,omitempty"`
	SeqBound       uint32 `yaml:"seq_bound,omitempty"`
	ArrayLen       uint32 `yaml:"array_len,omitempty"`
}

type enumDescriptor struct {
	Name     string   `yaml:"name"`
	BitBound int      `yaml:"bit_bound,omitempty"`
	Values   []string `yaml:"values"`
}

type typedefDescriptor struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
}

// LoadDescriptor reads a YAML schema descriptor from path and
// converts it into an idl.Module.
func LoadDescriptor(path string) (*idl.Module, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cdrgen: reading descriptor: %w", err)
	}
	var d descriptor
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("cdrgen: parsing descriptor %s: %w", path, err)
	}
	return d.toModule()
}

func (d *descriptor) toModule() (*idl.Module, error) {
	m := &idl.Module{Name: d.Module}
	for _, s := range d.Structs {
		sd := &idl.StructDecl{
			Name:          s.Name,
			Extensibility: parseExtensibility(s.Extensibility),
			Keylist:       s.Keylist,
		}
		for i, f := range s.Fields {
			fld, err := f.toField(uint32(i))
			if err != nil {
				return nil, fmt.Errorf("cdrgen: struct %s: %w", s.Name, err)
			}
			sd.Fields = append(sd.Fields, fld)
		}
		m.Structs = append(m.Structs, sd)
	}
	for _, u := range d.Unions {
		ud := &idl.UnionDecl{
			Name:          u.Name,
			Extensibility: parseExtensibility(u.Extensibility),
			Discriminator: idl.TypeRef{Name: u.Discriminator},
		}
		for _, b := range u.Branches {
			fld, err := b.Field.toField(0)
			if err != nil {
				return nil, fmt.Errorf("cdrgen: union %s: %w", u.Name, err)
			}
			ud.Branches = append(ud.Branches, &idl.UnionBranch{
				Labels:  b.Labels,
				Default: b.Default,
				Field:   fld,
			})
		}
		m.Unions = append(m.Unions, ud)
	}
	for _, e := range d.Enums {
		m.Enums = append(m.Enums, &idl.EnumDecl{
			Name:     e.Name,
			BitBound: e.BitBound,
			Values:   e.Values,
		})
	}
	for _, t := range d.Typedefs {
		m.Typedefs = append(m.Typedefs, &idl.TypedefDecl{
			Name:   t.Name,
			Target: idl.TypeRef{Name: t.Target},
		})
	}
	return m, nil
}

func (f fieldDescriptor) toField(seq uint32) (*idl.Field, error) {
	id := seq
	if f.ID != nil {
		id = *f.ID
	}
	return &idl.Field{
		Name:     f.Name,
		MemberID: id,
		Type: idl.TypeRef{
			Name:        f.Type,
			StringBound: f.StringBound,
			ArrayLen:    f.ArrayLen,
			Sequence:    seqTypeOrNil(f),
		},
		Ann: idl.Annotations{
			Key:            f.Key,
			Optional:       f.Optional,
			MustUnderstand: f.MustUnderstand || f.Key,
		},
	}, nil
}

func seqTypeOrNil(f fieldDescriptor) *idl.SequenceType {
	if f.SeqBound == 0 && !isSequenceType(f.Type) {
		return nil
	}
	return &idl.SequenceType{Elem: idl.TypeRef{Name: strings.TrimPrefix(f.Type, "sequence:")}, Bound: f.SeqBound}
}

// isSequenceType is a placeholder hook for descriptor authors who
// prefix a type name with "sequence:" instead of setting seq_bound
// explicitly; seq_bound alone is the primary, preferred spelling.
func isSequenceType(t string) bool {
	return len(t) > 9 && t[:9] == "sequence:"
}

func parseExtensibility(s string) idl.Extensibility {
	switch s {
	case "appendable":
		return idl.ExtensibilityAppendable
	case "mutable":
		return idl.ExtensibilityMutable
	case "final", "":
		return idl.ExtensibilityFinal
	default:
		return idl.ExtensibilityUnspecified
	}
}
