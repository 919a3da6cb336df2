// Package config loads regforge configuration files.
//
// A config file is YAML. It is checked against the embedded CUE schema
// before it is decoded, so unknown keys and out-of-range values are reported
// with the offending path. Command line flags override file values.
package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/regforge/regforge/pkg/generate"
	"github.com/regforge/regforge/pkg/naming"
)

//go:embed schema.cue
var schemaFS embed.FS

// ErrInvalid is returned for config files that do not match the schema.
var ErrInvalid = errors.New("invalid config")

// Naming selects the case of generated identifiers.
type Naming struct {
	Types     string `yaml:"types,omitempty" json:"types,omitempty"`
	Members   string `yaml:"members,omitempty" json:"members,omitempty"`
	Constants string `yaml:"constants,omitempty" json:"constants,omitempty"`
}

// Config is the content of a config file.
type Config struct {
	Package  string `yaml:"package,omitempty"`
	Naming   Naming `yaml:"naming,omitempty"`
	Output   string `yaml:"output,omitempty"`
	EventLog string `yaml:"eventLog,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`
	Parallel int    `yaml:"parallel,omitempty"`
}

// Default returns the configuration used without a config file.
func Default() Config {
	return Config{
		Package: "regs",
		Naming: Naming{
			Types:     naming.Pascal.String(),
			Members:   naming.Pascal.String(),
			Constants: naming.Pascal.String(),
		},
		LogLevel: "warn",
	}
}

// Load reads and validates the config file at path. Keys missing from the
// file keep their Default value.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates and decodes YAML config data.
func Parse(data []byte) (Config, error) {
	if err := validate(data); err != nil {
		return Config{}, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

// validate checks data against the #Config definition of the schema.
func validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	schemaBytes, err := schemaFS.ReadFile("schema.cue")
	if err != nil {
		return fmt.Errorf("loading embedded schema: %w", err)
	}
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return fmt.Errorf("compiling schema: %w", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if def.Err() != nil {
		return fmt.Errorf("looking up #Config definition: %w", def.Err())
	}

	value := ctx.CompileBytes(jsonBytes)
	if value.Err() != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, value.Err())
	}
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		var msgs []string
		for _, e := range cueerrors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}

// Convention returns the naming convention selected by the config.
func (c Config) Convention() (naming.Convention, error) {
	var conv naming.Convention
	for _, f := range []struct {
		name string
		dst  *naming.Case
	}{
		{c.Naming.Types, &conv.Type},
		{c.Naming.Members, &conv.Member},
		{c.Naming.Constants, &conv.Const},
	} {
		if f.name == "" {
			continue
		}
		cs, err := naming.ParseCase(f.name)
		if err != nil {
			return naming.Convention{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		*f.dst = cs
	}
	return conv, nil
}

// Level returns the slog level selected by the config. An empty level is
// Warn.
func (c Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return l, nil
}

// Generator returns the generator configuration described by c. Loggers are
// left for the caller to attach.
func (c Config) Generator() (generate.Config, error) {
	conv, err := c.Convention()
	if err != nil {
		return generate.Config{}, err
	}
	gc := generate.Config{
		Package:    c.Package,
		Convention: conv,
		Parallel:   c.Parallel,
	}
	if err := gc.Validate(); err != nil {
		return generate.Config{}, err
	}
	return gc, nil
}
