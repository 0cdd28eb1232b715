package worker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"imgoptim/pkg/imgutil"
)

// OptionKind is the declared type of a worker option.
type OptionKind int

const (
	KindInvalid OptionKind = iota
	// KindBool is a plain boolean.
	KindBool
	// KindOptionalBool is a boolean that may also be left unset.
	KindOptionalBool
	// KindInt is an integer.
	KindInt
	// KindList is a list of strings.
	KindList
)

func (k OptionKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindOptionalBool:
		return "optional bool"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("OptionKind(%d)", int(k))
	}
}

// OptionDefinition declares one configurable option of a worker.
type OptionDefinition struct {
	Name        string
	Kind        OptionKind
	Default     any
	Description string
}

// DefaultDescription renders the default value for help output.
func (d OptionDefinition) DefaultDescription() string {
	switch v := d.Default.(type) {
	case nil:
		return "unset"
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case []string:
		if len(v) == 0 {
			return "none"
		}
		return strings.Join(v, ",")
	default:
		return fmt.Sprint(v)
	}
}

// Env carries process-level settings that workers need at construction.
type Env struct {
	// Nice is the niceness external tools run with; 0 disables it.
	Nice int
	// LookPath resolves binaries; defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

func (e Env) lookPath(name string) (string, error) {
	if e.LookPath != nil {
		return e.LookPath(name)
	}
	return exec.LookPath(name)
}

// Descriptor is the declarative metadata of one worker.
type Descriptor struct {
	Bin     string
	Formats []imgutil.Kind
	Options []OptionDefinition
	// External workers shell out to a binary named Bin.
	External bool
	// Lossy workers only run when lossy optimization is allowed.
	Lossy bool
	New   func(opts Options, env Env) (Worker, error)
}

// Option returns the definition named name.
func (d Descriptor) Option(name string) (OptionDefinition, bool) {
	for _, def := range d.Options {
		if def.Name == name {
			return def, true
		}
	}
	return OptionDefinition{}, false
}

// Defaults returns the default value of every option.
func (d Descriptor) Defaults() Options {
	opts := make(Options, len(d.Options))
	for _, def := range d.Options {
		if def.Default != nil {
			opts[def.Name] = def.Default
		}
	}
	return opts
}

// Worker optimizes a single file.
type Worker interface {
	Bin() string
	// Optimize writes an optimized version of src to dst. It reports false
	// when it chose not to produce anything.
	Optimize(ctx context.Context, src, dst string) (bool, error)
}

// ErrBinaryNotFound is returned by New when an external tool is missing.
var ErrBinaryNotFound = errors.New("binary not found")

// OptionError describes an option value a worker refuses.
type OptionError struct {
	Worker string
	Option string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%s: option %s %s", e.Worker, e.Option, e.Reason)
}

// Options holds resolved option values keyed by option name.
type Options map[string]any

func (o Options) Bool(name string) bool {
	v, _ := o[name].(bool)
	return v
}

// OptionalBool returns nil when the option is unset.
func (o Options) OptionalBool(name string) *bool {
	v, ok := o[name].(bool)
	if !ok {
		return nil
	}
	return &v
}

func (o Options) Int(name string) int {
	v, _ := o[name].(int)
	return v
}

func (o Options) List(name string) []string {
	v, _ := o[name].([]string)
	return v
}

func intInRange(bin, name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return &OptionError{Worker: bin, Option: name, Reason: fmt.Sprintf("must be between %d and %d, got %d", lo, hi, v)}
	}
	return nil
}
