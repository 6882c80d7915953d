package resolver

import (
	"github.com/smazurov/encodenode/internal/options"
	"github.com/smazurov/encodenode/internal/types"
)

// Adjustment records a setting that Finalize changed instead of failing.
type Adjustment struct {
	Option string `json:"option" yaml:"option" toml:"option"`
	Reason string `json:"reason" yaml:"reason" toml:"reason"`
}

// Config is a finalized encode configuration. It cannot be modified; accessors
// return copies.
type Config struct {
	params      types.Params
	adjustments []Adjustment
}

// Params returns a copy of the resolved parameters.
func (c Config) Params() types.Params {
	return c.params.Clone()
}

// Adjustments lists options that were silently disabled during Finalize.
func (c Config) Adjustments() []Adjustment {
	out := make([]Adjustment, len(c.adjustments))
	copy(out, c.adjustments)
	return out
}

// Draft returns the configuration as a draft, for re-running Finalize.
func (c Config) Draft() *Draft {
	return NewDraft(c.params)
}

func (c Config) Codec() types.Codec { return c.params.Codec }
func (c Config) MultiView() bool { return c.params.MultiView }
func (c Config) NumViews() int { return c.params.NumViews }
func (c Config) RegionEncode() bool { return c.params.RegionEncode }
func (c Config) RotationAngle() uint16 { return c.params.RotationAngle }
func (c Config) CaptureEnabled() bool { return c.params.Capture.Enabled }

// Resolve parses tokens and finalizes the result.
func Resolve(tokens []string, reg *options.Registry) (Config, error) {
	d, err := Parse(tokens, reg)
	if err != nil {
		return Config{}, err
	}
	return Finalize(d)
}
