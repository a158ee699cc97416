// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "bdf",
		Subcommands: []*Command{
			{
				Name: "cbor",
				Subcommands: []*Command{
					{
						Name: "to",
						Run: func(args []string) error {
							called = "cbor to"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"cbor", "to", "value.bdf"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "cbor to" {
		t.Errorf("dispatched to %q, want %q", called, "cbor to")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "value.bdf" {
		t.Errorf("args = %v, want [value.bdf]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var nestedLimit int
	var hexInput bool
	var file string

	command := &Command{
		Name: "decode",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.IntVar(&nestedLimit, "nested-limit", 5, "maximum nesting depth")
			flagSet.BoolVarP(&hexInput, "hex", "x", false, "hex input")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				file = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--nested-limit", "9", "-x", "value.bdf"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if nestedLimit != 9 {
		t.Errorf("nestedLimit = %d, want 9", nestedLimit)
	}
	if !hexInput {
		t.Error("hexInput = false, want true from -x")
	}
	if file != "value.bdf" {
		t.Errorf("file = %q, want %q", file, "value.bdf")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "decode",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.Int("max-buffer", 0, "buffer budget")
			flagSet.Int("nested-limit", 0, "nesting depth")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--max-bufer", "10"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --max-buffer") {
		t.Errorf("error = %q, want suggestion for '--max-buffer'", errStr)
	}
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "decode",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.Bool("compact", false, "compact output")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "bdf",
		Subcommands: []*Command{
			{Name: "decode"},
			{Name: "encode"},
			{Name: "validate"},
		},
	}

	err := root.Execute([]string{"valdate"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"validate\"") {
		t.Errorf("error = %q, want suggestion for 'validate'", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			var buffer bytes.Buffer
			root := &Command{
				Name:        "bdf",
				Summary:     "Binary data format tool",
				HelpOutput:  &buffer,
				Subcommands: []*Command{{Name: "diag", Summary: "Show diagnostic notation"}},
			}

			if err := root.Execute([]string{helpArg}); err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
			if !strings.Contains(buffer.String(), "Show diagnostic notation") {
				t.Errorf("help output = %q, missing subcommand summary", buffer.String())
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	var buffer bytes.Buffer
	root := &Command{
		Name:        "bdf",
		HelpOutput:  &buffer,
		Subcommands: []*Command{{Name: "decode", Summary: "Decode"}},
	}

	err := root.Execute([]string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
	if !strings.Contains(buffer.String(), "Usage:") {
		t.Errorf("help output = %q, want usage", buffer.String())
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "validate",
		Summary: "Check canonical encoding",
		Usage:   "bdf validate [flags] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			flagSet.BoolP("hex", "x", false, "treat input as hex")
			return flagSet
		},
		Examples: []Example{{Description: "Validate a file", Command: "bdf validate message.bdf"}},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"bdf validate [flags] [file]",
		"Flags:",
		"--hex",
		"Examples:",
		"# Validate a file",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "bdf"}
	cbor := &Command{Name: "cbor", parent: root}
	to := &Command{Name: "to", parent: cbor}

	if got := to.fullName(); got != "bdf cbor to" {
		t.Errorf("to.fullName() = %q, want %q", got, "bdf cbor to")
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"decode", "decode", 0},
		{"decod", "decode", 1},
		{"ecnode", "encode", 2},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 2}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok || coder.ExitCode() != 2 {
		t.Errorf("ExitError does not report code 2")
	}
}
