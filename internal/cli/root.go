// Package cli provides the arctl command-line interface: it migrates the
// configured store and attaches, lists and detaches polymorphic children.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/mickamy/activerecord/internal/config"
	"github.com/mickamy/activerecord/orm"
)

// Version is set at build time.
var Version = "0.1.0"

type appKey struct{}

// app holds what a subcommand needs, built once per invocation.
type app struct {
	cfg *config.Config
	raw *sql.DB
	db  *orm.DB
	reg *orm.Registry
	res *orm.Resolver
}

func appFrom(ctx context.Context) *app {
	a, _ := ctx.Value(appKey{}).(*app)
	return a
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "arctl",
		Short: "Manage polymorphic parent-child associations",
		Long: `arctl attaches child records to parents of different types through a
parent_type/parent_id discriminator, and lists, resolves and detaches them.

Types come from the types section of the config file and from the Go
structs in --types-from files. Without either the built-in blog schema is
used: comments can belong to articles or posts.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a, err := open(cfg, cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./arctl.yaml)")
	rootCmd.PersistentFlags().String("dialect", "", "database dialect (sqlite|mysql|postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database DSN")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text|json)")
	rootCmd.PersistentFlags().StringSlice("types-from", nil, "Go source files whose db-tagged structs are registered as types")

	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sqlite", "mysql", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newTypesCommand())
	rootCmd.AddCommand(newAddCommand())
	rootCmd.AddCommand(newChildrenCommand())
	rootCmd.AddCommand(newParentCommand())
	rootCmd.AddCommand(newRemoveCommand())

	return rootCmd
}

// open connects to the configured store. Queries are logged at debug level.
func open(cfg *config.Config, cmd *cobra.Command) (*app, error) {
	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	d, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}
	driver, err := cfg.DriverName()
	if err != nil {
		return nil, err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	raw, err := sql.Open(driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name(), err)
	}
	switch {
	case cfg.Database.MaxOpenConns > 0:
		raw.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	case d == orm.SQLite && strings.Contains(cfg.Database.DSN, ":memory:"):
		// Each connection to :memory: is a separate database.
		raw.SetMaxOpenConns(1)
	}
	if err := raw.PingContext(cmd.Context()); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("connect %s: %w", d.Name(), err)
	}

	db := orm.New(raw, d).Debug(orm.NewSlogLogger(logger))
	logger.Debug("connected", "dialect", d.Name(), "types", len(reg.Types()))
	return &app{cfg: cfg, raw: raw, db: db, reg: reg, res: orm.NewResolver(db, reg)}, nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if _, err := execute(context.Background(), NewRootCmd()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, orm.ErrNotFound) {
			return 2
		}
		return 1
	}
	return 0
}

// execute runs root and closes the store the invoked command opened, also
// when the command fails.
func execute(ctx context.Context, root *cobra.Command) (*cobra.Command, error) {
	cmd, err := root.ExecuteContextC(ctx)
	if cmd != nil && cmd.Context() != nil {
		if a := appFrom(cmd.Context()); a != nil {
			err = errors.Join(err, a.raw.Close())
		}
	}
	return cmd, err
}
