// Package config loads and validates engine settings from YAML or
// JSON documents: max_in_flight, node_timeout, and fail_fast. Unknown
// keys are ignored, so the engine block can live inside a larger
// application config file.
//
// A loaded Engine is handed to the scheduler through
// pyre.OptionsFromConfig:
//
//	cfg, err := config.FromFile("engine.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	handle := pyre.Run(ctx, compiled, input, nil,
//	    pyre.OptionsFromConfig(cfg)...)
package config
