package pipeline

import "fmt"

// Variant is the closed set of pipeline kinds.
type Variant int

const (
	VariantStandard Variant = iota
	// VariantUserAugmented inserts a rotation pre-processing stage.
	VariantUserAugmented
	VariantRegionEncode
)

func (v Variant) String() string {
	switch v {
	case VariantStandard:
		return "standard"
	case VariantUserAugmented:
		return "user_augmented"
	case VariantRegionEncode:
		return "region_encode"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Selection is the part of a configuration that decides the variant.
type Selection interface {
	RegionEncode() bool
	RotationAngle() uint16
}

// Select maps a configuration to a variant. Region encode takes precedence
// over rotation, which takes precedence over the standard pipeline.
func Select(sel Selection) Variant {
	switch {
	case sel.RegionEncode():
		return VariantRegionEncode
	case sel.RotationAngle() != 0:
		return VariantUserAugmented
	default:
		return VariantStandard
	}
}

// Factory constructs pipeline instances. New must not perform hardware initialization.
type Factory interface {
	New(v Variant) Pipeline
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(v Variant) Pipeline

// New calls f(v).
func (f FactoryFunc) New(v Variant) Pipeline {
	return f(v)
}

// Build selects the variant for sel and constructs it with f.
func Build(f Factory, sel Selection) (Variant, Pipeline) {
	v := Select(sel)
	return v, f.New(v)
}
