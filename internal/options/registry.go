package options

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/smazurov/encodenode/internal/types"
)

// Registry maps switch names to options for one set of capabilities.
type Registry struct {
	caps   types.Capabilities
	order  []Option
	byName map[string]Option
}

// NewRegistry builds the registry of switches available with caps.
func NewRegistry(caps types.Capabilities) *Registry {
	r := &Registry{
		caps:   caps,
		byName: make(map[string]Option),
	}
	for _, opt := range catalogue(caps) {
		if opt.Capability != "" && !caps.Has(opt.Capability) {
			continue
		}
		if _, dup := r.byName[opt.Name]; dup {
			panic(fmt.Sprintf("options: duplicate switch %s", opt.Name))
		}
		r.byName[opt.Name] = opt
		r.order = append(r.order, opt)
	}
	return r
}

// Lookup finds the option for an exact, case-sensitive switch name.
func (r *Registry) Lookup(name string) (Option, bool) {
	opt, ok := r.byName[name]
	return opt, ok
}

// Options returns all registered options in usage order.
func (r *Registry) Options() []Option {
	out := make([]Option, len(r.order))
	copy(out, r.order)
	return out
}

// Capabilities returns the capabilities the registry was built with.
func (r *Registry) Capabilities() types.Capabilities {
	return r.caps
}

// WriteUsage prints the command synopsis followed by every option grouped by category.
func (r *Registry) WriteUsage(w io.Writer, program string) error {
	codecs := ""
	for _, info := range types.Codecs(r.caps) {
		if !info.Enabled {
			continue
		}
		if codecs != "" {
			codecs += "|"
		}
		codecs += string(info.Codec)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Usage: %s %s [options] -i InputFile -o OutputFile -w width -h height\n", program, codecs)

	var current Category
	for _, opt := range r.order {
		if opt.Category != current {
			current = opt.Category
			fmt.Fprintf(tw, "\n%s:\n", current)
		}
		name := opt.Name
		if opt.Arg != "" {
			name += " " + opt.Arg
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, opt.Description)
	}
	return tw.Flush()
}
