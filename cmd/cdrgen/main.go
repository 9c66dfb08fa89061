// Command cdrgen compiles a CDR schema descriptor into Go source.
package main

import (
	"fmt"
	"os"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/kr/pretty"
	"github.com/nikolov99/cdr/cdrgen"
)

var generateArgs struct {
	PackageName string `flag:"package,default=main,Package name to emit"`
	OutFile     string `flag:"out,default=gen.go,Output file path"`
}

var dumpArgs struct {
	Verbose bool `flag:"v,Print full property-tree detail"`
}

func main() {
	root := &command.C{
		Name:  "cdrgen",
		Usage: "command args...",
		Commands: []*command.C{
			{
				Name:     "generate",
				Usage:    "generate descriptor.yaml",
				Help:     "Generate Go source for the types in a YAML schema descriptor.",
				SetFlags: command.Flags(flax.MustBind, &generateArgs),
				Run:      command.Adapt(runGenerate),
			},
			{
				Name:     "dump-props",
				Usage:    "dump-props descriptor.yaml",
				Help:     "Parse a descriptor and print the derived module, for debugging.",
				SetFlags: command.Flags(flax.MustBind, &dumpArgs),
				Run:      command.Adapt(runDumpProps),
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	env := root.NewEnv(nil)
	command.RunOrFail(env, os.Args[1:])
}

func runGenerate(env *command.Env, descriptorPath string) error {
	mod, err := cdrgen.LoadDescriptor(descriptorPath)
	if err != nil {
		return err
	}
	src, err := cdrgen.Generate(mod, generateArgs.PackageName)
	if err != nil {
		return fmt.Errorf("generating %s: %w", descriptorPath, err)
	}
	if err := os.WriteFile(generateArgs.OutFile, src, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", generateArgs.OutFile, err)
	}
	fmt.Printf("Wrote generated package to %s\n", generateArgs.OutFile)
	return nil
}

func runDumpProps(env *command.Env, descriptorPath string) error {
	mod, err := cdrgen.LoadDescriptor(descriptorPath)
	if err != nil {
		return err
	}
	if dumpArgs.Verbose {
		fmt.Printf("%# v\n", pretty.Formatter(mod))
		return nil
	}
	for _, s := range mod.Structs {
		fmt.Printf("struct %s (%d fields)\n", s.Name, len(s.Fields))
	}
	for _, u := range mod.Unions {
		fmt.Printf("union %s (%d branches)\n", u.Name, len(u.Branches))
	}
	for _, e := range mod.Enums {
		fmt.Printf("enum %s (%d values)\n", e.Name, len(e.Values))
	}
	return nil
}
