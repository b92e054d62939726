package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid indicates engine settings that parsed but cannot be
// honored by the scheduler.
var ErrInvalid = errors.New("invalid engine config")

// Engine holds the scheduler settings a run accepts from
// configuration. The zero value means "use the scheduler defaults"
// for every field.
type Engine struct {
	// MaxInFlight bounds concurrently executing invocations.
	// Zero means unlimited.
	MaxInFlight int

	// NodeTimeout bounds each invocation's wall-clock time.
	// Zero disables the timeout.
	NodeTimeout time.Duration

	// FailFast cancels the whole run on the first invocation failure
	// instead of isolating it to its own execution path.
	FailFast bool
}

// Validate rejects settings the scheduler cannot honor.
func (e Engine) Validate() error {
	if e.MaxInFlight < 0 {
		return fmt.Errorf("%w: max_in_flight cannot be negative", ErrInvalid)
	}
	if e.NodeTimeout < 0 {
		return fmt.Errorf("%w: node_timeout cannot be negative", ErrInvalid)
	}
	return nil
}

// raw is the wire form of Engine. node_timeout accepts a Go duration
// string ("250ms") or a bare number of seconds. Unknown keys in the
// document are ignored so engine settings can share a file with
// application config.
type raw struct {
	MaxInFlight int  `yaml:"max_in_flight" json:"max_in_flight"`
	NodeTimeout any  `yaml:"node_timeout" json:"node_timeout"`
	FailFast    bool `yaml:"fail_fast" json:"fail_fast"`
}

// engine coerces and validates the wire form.
func (r raw) engine() (Engine, error) {
	timeout, err := coerceDuration(r.NodeTimeout)
	if err != nil {
		return Engine{}, fmt.Errorf("%w: node_timeout: %v", ErrInvalid, err)
	}
	e := Engine{
		MaxInFlight: r.MaxInFlight,
		NodeTimeout: timeout,
		FailFast:    r.FailFast,
	}
	if err := e.Validate(); err != nil {
		return Engine{}, err
	}
	return e, nil
}

// coerceDuration converts a decoded node_timeout value. YAML decodes
// numbers as int, JSON as float64; both are taken as seconds.
func coerceDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		return time.ParseDuration(val)
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported value of type %T", v)
	}
}

// FromFile loads engine settings from a file, picking the format by
// extension. Supported extensions: .yaml, .yml, .json.
func FromFile(path string) (Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Engine{}, fmt.Errorf("read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Engine{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses engine settings from a YAML document.
func FromYAML(data []byte) (Engine, error) {
	var r raw
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Engine{}, fmt.Errorf("parse yaml: %w", err)
	}
	return r.engine()
}

// FromJSON parses engine settings from a JSON document.
func FromJSON(data []byte) (Engine, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return Engine{}, fmt.Errorf("parse json: %w", err)
	}
	return r.engine()
}
