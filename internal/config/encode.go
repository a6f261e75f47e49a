package config

import (
	"io"

	"github.com/BurntSushi/toml"

	"covflow/internal/errors"
)

// WriteTOML writes c in covflow.toml syntax. The output can be saved and
// loaded back as a project configuration.
func (c *Config) WriteTOML(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return errors.Wrap(err, "encoding configuration")
	}
	return nil
}
