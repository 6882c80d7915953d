package options

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/smazurov/encodenode/internal/types"
)

func parseUint16(value string) (uint16, error) {
	n, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer in [0, %d]", value, math.MaxUint16)
	}
	return uint16(n), nil
}

func parseUint32(value string) (uint32, error) {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer in [0, %d]", value, uint32(math.MaxUint32))
	}
	return uint32(n), nil
}

func parseInt(value string) (int, error) {
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", value)
	}
	return int(n), nil
}

func parseFrameRate(value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a frame rate", value)
	}
	return f, nil
}

func parseTargetUsage(value string) (types.TargetUsage, error) {
	switch tu := types.TargetUsage(value); tu {
	case types.TargetUsageQuality, types.TargetUsageBalanced, types.TargetUsageSpeed:
		return tu, nil
	default:
		return "", fmt.Errorf("%q is not one of quality, balanced, speed", value)
	}
}

// parseGUID accepts 32 hexadecimal digits and returns them lower-cased.
func parseGUID(value string) (string, error) {
	if len(value) != 32 {
		return "", fmt.Errorf("%q is not a 32 digit hexadecimal plugin GUID", value)
	}
	for _, c := range value {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return "", fmt.Errorf("%q is not a 32 digit hexadecimal plugin GUID", value)
		}
	}
	return strings.ToLower(value), nil
}

// parseMipiMode maps a sensor mode name case-insensitively. Unknown names
// yield the empty mode, which capture validation rejects when a port is set.
func parseMipiMode(name string) types.MipiMode {
	switch mode := types.MipiMode(strings.ToLower(name)); mode {
	case types.MipiStill, types.MipiVideo, types.MipiPreview, types.MipiContinuous:
		return mode
	default:
		return ""
	}
}

func setUint16(field func(*types.Params) *uint16) Setter {
	return func(p *types.Params, value string) error {
		n, err := parseUint16(value)
		if err != nil {
			return err
		}
		*field(p) = n
		return nil
	}
}

func setUint32(field func(*types.Params) *uint32) Setter {
	return func(p *types.Params, value string) error {
		n, err := parseUint32(value)
		if err != nil {
			return err
		}
		*field(p) = n
		return nil
	}
}

func flag(apply func(*types.Params)) Setter {
	return func(p *types.Params, _ string) error {
		apply(p)
		return nil
	}
}
