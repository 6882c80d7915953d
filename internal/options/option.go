// Package options is the catalogue of command-line switches understood by the
// encoder. Each option knows how many value tokens it consumes and how to apply
// its value to the parameters being accumulated.
package options

import (
	"errors"

	"github.com/smazurov/encodenode/internal/types"
)

// ErrHelp is returned by the help switch.
var ErrHelp = errors.New("help requested")

// Arity is the number of value tokens following a switch.
type Arity int

const (
	NoValue  Arity = 0
	OneValue Arity = 1
)

// Category groups options in usage output.
type Category string

const (
	CategoryGeometry    Category = "Geometry"
	CategoryFormat      Category = "Color and format"
	CategoryRateControl Category = "Rate control"
	CategoryStructure   Category = "GOP structure"
	CategorySlicing     Category = "Slicing"
	CategoryExecution   Category = "Execution"
	CategoryFeatures    Category = "Features"
	CategoryFiles       Category = "Files"
	CategoryCapture     Category = "Capture"
	CategoryGeneral     Category = "General"
)

// Setter applies an option to p. value is empty for NoValue options.
type Setter func(p *types.Params, value string) error

// Option describes one recognized switch.
type Option struct {
	Name        string   `json:"name"`
	Arg         string   `json:"arg,omitempty"` // value placeholder, empty when the switch takes no value
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Repeatable  bool     `json:"repeatable,omitempty"` // appends to a list instead of overwriting
	Capability  string   `json:"capability,omitempty"` // capability that registers the switch
	Set         Setter   `json:"-"`
}

// Arity returns how many tokens the option consumes after its name.
func (o Option) Arity() Arity {
	if o.Arg == "" {
		return NoValue
	}
	return OneValue
}
