package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mickamy/activerecord/orm"
)

// Validate checks values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	var errs []error

	if _, err := orm.DialectByName(c.Database.Dialect); err != nil {
		errs = append(errs, fmt.Errorf("database.dialect: %w", err))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Database.MaxOpenConns < 0 {
		errs = append(errs, errors.New("database.max_open_conns must not be negative"))
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}

	seen := make(map[string]bool, len(c.Types))
	for i, t := range c.Types {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("types[%d]: name is required", i))
			continue
		}
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("types[%d]: duplicate type %q", i, t.Name))
		}
		seen[t.Name] = true
		for _, col := range t.Columns {
			if _, err := orm.ParseKind(col.Kind); err != nil {
				errs = append(errs, fmt.Errorf("types[%d] %s.%s: %w", i, t.Name, col.Name, err))
			}
		}
	}

	return errors.Join(errs...)
}

func (l Log) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
