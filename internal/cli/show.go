package cli

import (
	"io"

	"covflow/internal/config"
)

// ShowConfig prints the effective configuration for dir as TOML.
func ShowConfig(w io.Writer, dir string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	return cfg.WriteTOML(w)
}
