package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// boolish is a pflag.Value that takes an explicit value: -f 1, -f yes,
// --force=off. It does not implement IsBoolFlag, so -f always consumes the
// next argument.
type boolish bool

func (b *boolish) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		*b = true
	case "0", "f", "false", "n", "no", "off", "":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q (use 1/0, true/false, yes/no, on/off)", s)
	}
	return nil
}

func (b *boolish) String() string { return strconv.FormatBool(bool(*b)) }

func (b *boolish) Type() string { return "bool" }

// oneOf is a string pflag.Value restricted to a fixed set of choices.
type oneOf struct {
	value   string
	choices []string
}

func newOneOf(def string, choices ...string) *oneOf {
	return &oneOf{value: def, choices: choices}
}

func (o *oneOf) Set(s string) error {
	for _, c := range o.choices {
		if s == c {
			o.value = s
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(o.choices, ", "))
}

func (o *oneOf) String() string { return o.value }

func (o *oneOf) Type() string { return "string" }
