// Package resolver turns command-line tokens into one validated, immutable
// encode configuration. Parse accumulates switches into a Draft; Finalize
// applies the cross-field rules and defaults.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smazurov/encodenode/internal/options"
	"github.com/smazurov/encodenode/internal/types"
)

// Draft holds parameters accumulated by Parse and not yet validated.
type Draft struct {
	params types.Params
}

// NewDraft wraps already accumulated parameters for Finalize.
func NewDraft(p types.Params) *Draft {
	return &Draft{params: p.Clone()}
}

// Params returns a copy of the accumulated parameters.
func (d *Draft) Params() types.Params {
	return d.params.Clone()
}

// Parse consumes tokens left to right. Tokens without a leading hyphen name
// the codec and are checked against the catalogue immediately. Index values
// in returned errors are argv positions, so the first token is 1.
func Parse(tokens []string, reg *options.Registry) (*Draft, error) {
	d := &Draft{params: types.NewParams()}
	codecSet := false

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		pos := i + 1

		if !strings.HasPrefix(tok, "-") {
			if codecSet {
				return nil, tokenError(ErrIncompatibleOptionCombination, tok, pos,
					fmt.Sprintf("codec already set to %s", d.params.Codec), nil)
			}
			if err := d.setCodec(tok, pos, reg.Capabilities()); err != nil {
				return nil, err
			}
			codecSet = true
			continue
		}

		opt, ok := reg.Lookup(tok)
		if !ok {
			return nil, tokenError(ErrUnknownOption, tok, pos, "unknown option", nil)
		}

		var value string
		if opt.Arity() == options.OneValue {
			if i+1 >= len(tokens) {
				return nil, tokenError(ErrInvalidOptionValue, tok, pos,
					fmt.Sprintf("expects a %s argument", opt.Arg), nil)
			}
			i++
			value = tokens[i]
		}

		if err := opt.Set(&d.params, value); err != nil {
			if errors.Is(err, options.ErrHelp) {
				return nil, ErrHelpRequested
			}
			return nil, tokenError(ErrInvalidOptionValue, tok, i+1, "invalid value", err)
		}
	}

	return d, nil
}

func (d *Draft) setCodec(tok string, pos int, caps types.Capabilities) error {
	info, ok := types.LookupCodec(tok, caps)
	switch {
	case !ok:
		return tokenError(ErrUnsupportedCodec, tok, pos, "unknown codec", nil)
	case !info.Encodable:
		return tokenError(ErrUnsupportedCodec, tok, pos, "codec cannot be encoded", nil)
	case !info.Enabled:
		return tokenError(ErrUnsupportedCodec, tok, pos,
			fmt.Sprintf("codec requires the %s capability", info.Capability), nil)
	}

	if info.Codec == types.CodecMVC {
		d.params.Codec = types.CodecH264
		d.params.MultiView = true
		return nil
	}
	d.params.Codec = info.Codec
	return nil
}
