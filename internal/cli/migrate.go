package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mickamy/activerecord/internal/schema"
	"github.com/mickamy/activerecord/orm"
)

func newMigrateCommand() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the blog tables",
		Example: `  # Create tables in ./arctl.db
  arctl migrate

  # Create tables and insert sample articles and posts
  arctl migrate --seed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd.Context())
			ctx := cmd.Context()

			n, err := schema.Migrate(ctx, a.raw, a.db.Dialect())
			if err != nil {
				return err
			}
			v, err := schema.Version(ctx, a.raw, a.db.Dialect())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations, now at version %d\n", n, v)

			if !seed {
				return nil
			}
			var rows int
			err = a.db.Transaction(ctx, func(tx *orm.Tx) error {
				rows, err = schema.Seed(ctx, tx, a.reg)
				return err
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rows\n", rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert sample articles and posts into empty tables in one transaction")
	return cmd
}
