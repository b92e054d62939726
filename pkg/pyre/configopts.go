package pyre

import (
	"github.com/pyregraph/pyre/pkg/pyre/config"
)

// OptionsFromConfig translates loaded engine settings into run
// options. Zero-valued fields produce no option, leaving the
// scheduler defaults in place.
func OptionsFromConfig(cfg config.Engine) []RunOption {
	var opts []RunOption
	if cfg.MaxInFlight > 0 {
		opts = append(opts, WithMaxInFlight(cfg.MaxInFlight))
	}
	if cfg.NodeTimeout > 0 {
		opts = append(opts, WithNodeTimeout(cfg.NodeTimeout))
	}
	if cfg.FailFast {
		opts = append(opts, WithFailFast())
	}
	return opts
}
