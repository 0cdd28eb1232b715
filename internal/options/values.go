package options

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"imgoptim/internal/config"
)

// ParseValue converts a flag argument according to shape.
func ParseValue(shape Shape, s string) (any, error) {
	switch shape {
	case ShapeBool:
		return parseBool(s)
	case ShapeInt:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return n, nil
	case ShapeList:
		if strings.TrimSpace(s) == "" {
			return []string{}, nil
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return nil, fmt.Errorf("unknown flag shape %d", shape)
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "+":
		return true, nil
	case "no", "n", "-":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", s)
	}
	return b, nil
}

// optionValue stores a worker option into the worker's option mapping.
type optionValue struct {
	spec  FlagSpec
	cfg   *config.Config
	value string
}

func (v *optionValue) String() string { return v.value }

func (v *optionValue) Type() string { return v.spec.Shape.Placeholder() }

func (v *optionValue) Set(s string) error {
	parsed, err := ParseValue(v.spec.Shape, s)
	if err != nil {
		return err
	}
	w := v.cfg.Worker(v.spec.Worker)
	w.EnsureOptions()
	w.Set(v.spec.Option, parsed)
	v.value = s
	return nil
}

// disableValue backs --no-<worker>.
type disableValue struct {
	bin string
	cfg *config.Config
	set bool
}

func (v *disableValue) String() string { return strconv.FormatBool(v.set) }

func (v *disableValue) Type() string { return "bool" }

func (v *disableValue) Set(s string) error {
	disable, err := parseBool(s)
	if err != nil {
		return err
	}
	v.cfg.Worker(v.bin).SetEnabled(!disable)
	v.set = disable
	return nil
}

// boolValue writes into an optional boolean field of the configuration.
type boolValue struct {
	target **bool
	invert bool
}

func (v *boolValue) String() string {
	if *v.target == nil {
		return "false"
	}
	return strconv.FormatBool(**v.target != v.invert)
}

func (v *boolValue) Type() string { return "bool" }

func (v *boolValue) Set(s string) error {
	b, err := parseBool(s)
	if err != nil {
		return err
	}
	b = b != v.invert
	*v.target = &b
	return nil
}

// limitValue backs --threads N and --nice N.
type limitValue struct {
	target **config.Limit
}

func (v *limitValue) String() string {
	if *v.target == nil || (*v.target).Off {
		return ""
	}
	return strconv.Itoa((*v.target).N)
}

func (v *limitValue) Type() string { return "N" }

func (v *limitValue) Set(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%q is not an integer", s)
	}
	*v.target = &config.Limit{N: n}
	return nil
}

// offValue backs --no-threads and --no-nice.
type offValue struct {
	target **config.Limit
}

func (v *offValue) String() string { return "false" }

func (v *offValue) Type() string { return "bool" }

func (v *offValue) Set(s string) error {
	off, err := parseBool(s)
	if err != nil {
		return err
	}
	if off {
		*v.target = &config.Limit{Off: true}
	}
	return nil
}

// globValue appends to a glob list; the first use replaces the default.
type globValue struct {
	targets []*[]string
}

func (v *globValue) String() string {
	if len(v.targets) == 0 || *v.targets[0] == nil {
		return ""
	}
	return strings.Join(*v.targets[0], " ")
}

func (v *globValue) Type() string { return "GLOB" }

func (v *globValue) Set(s string) error {
	for _, t := range v.targets {
		*t = append(*t, s)
	}
	return nil
}

var _ pflag.Value = (*optionValue)(nil)
