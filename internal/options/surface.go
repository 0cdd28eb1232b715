// Package options turns worker descriptors into command-line flags.
//
// Build inspects the descriptors once and produces a Surface, an explicit
// list of flag specifications. Bind registers those flags, together with the
// fixed global flags, on a pflag.FlagSet so that parsing fills a
// config.Config.
package options

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"imgoptim/internal/worker"
)

// HelpWidth is the column at which generated help text is wrapped.
const HelpWidth = 60

// ErrUnsupportedKind is returned by Build for options whose declared type
// has no flag representation.
var ErrUnsupportedKind = errors.New("unsupported option type")

// Shape is the flag representation of an option type.
type Shape int

const (
	ShapeBool Shape = iota + 1
	ShapeInt
	ShapeList
)

// Placeholder is the argument name shown in usage output.
func (s Shape) Placeholder() string {
	switch s {
	case ShapeBool:
		return "B"
	case ShapeInt:
		return "N"
	case ShapeList:
		return "a,b,c"
	default:
		return "?"
	}
}

// Classify maps a declared option type onto a flag shape.
func Classify(kind worker.OptionKind) (Shape, error) {
	switch kind {
	case worker.KindBool, worker.KindOptionalBool:
		return ShapeBool, nil
	case worker.KindInt:
		return ShapeInt, nil
	case worker.KindList:
		return ShapeList, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
}

// FlagSpec describes one generated flag.
type FlagSpec struct {
	// Name is the flag name without leading dashes.
	Name string
	// Worker is the binary identifier the flag belongs to.
	Worker string
	// Option is the stored option key; empty for a disabling flag.
	Option string
	Shape  Shape
	Help   string
}

// Disables reports whether the flag is a --no-<worker> switch.
func (f FlagSpec) Disables() bool {
	return f.Option == ""
}

// Surface is the generated part of the command-line interface.
type Surface struct {
	Specs []FlagSpec
}

// Build generates flag specifications for every descriptor. It fails on
// option types without a flag shape and on colliding flag names.
func Build(descriptors []worker.Descriptor) (*Surface, error) {
	s := &Surface{}
	seen := make(map[string]string)

	add := func(spec FlagSpec) error {
		if owner, ok := seen[spec.Name]; ok {
			return fmt.Errorf("flag --%s of %s collides with %s", spec.Name, spec.Worker, owner)
		}
		seen[spec.Name] = spec.Worker
		s.Specs = append(s.Specs, spec)
		return nil
	}

	for _, d := range descriptors {
		if err := add(FlagSpec{
			Name:   "no-" + d.Bin,
			Worker: d.Bin,
			Shape:  ShapeBool,
			Help:   fmt.Sprintf("disable %s worker", d.Bin),
		}); err != nil {
			return nil, err
		}

		for _, def := range d.Options {
			shape, err := Classify(def.Kind)
			if err != nil {
				return nil, fmt.Errorf("worker %s option %s: %w", d.Bin, def.Name, err)
			}
			if err := add(FlagSpec{
				Name:   d.Bin + "-" + strings.ReplaceAll(def.Name, "_", "-"),
				Worker: d.Bin,
				Option: def.Name,
				Shape:  shape,
				Help:   helpText(def),
			}); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func helpText(def worker.OptionDefinition) string {
	text := fmt.Sprintf("%s (defaults to %s)", def.Description, def.DefaultDescription())
	text = strings.ReplaceAll(text, "`", "")
	return wordwrap.WrapString(text, HelpWidth)
}
