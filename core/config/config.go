// Package config holds the tunable execution limits of the sandbox
// shell. Limits exist so hostile input (fork-bomb style substitution
// nesting, unbounded loops) runs out of budget instead of memory.
package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	// MaxSubshellDepth bounds nested subshells and command
	// substitutions.
	MaxSubshellDepth int `json:"max_subshell_depth" validate:"gte=1"`

	// MaxLoopIterations bounds each for/while/until loop.
	MaxLoopIterations int `json:"max_loop_iterations" validate:"gte=1"`

	// PipeCapacity is the buffer size in bytes between pipeline
	// stages and command streams.
	PipeCapacity int `json:"pipe_capacity" validate:"gte=512"`
}

// Default returns the limits used when no configuration file exists.
func Default() *Config {
	return &Config{
		MaxSubshellDepth:  16,
		MaxLoopIterations: 10000,
		PipeCapacity:      64 * 1024,
	}
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}
