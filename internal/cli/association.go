package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mickamy/activerecord/orm"
	"github.com/mickamy/activerecord/scope"
)

func newAddCommand() *cobra.Command {
	var (
		sets    []string
		childID string
	)

	cmd := &cobra.Command{
		Use:   "add <parent-type> <parent-id> <child-type>",
		Short: "Attach a child to a parent",
		Long: `Create a child record attached to the parent, or with --child-id move an
existing child to the parent. A child belongs to one parent at a time.`,
		Example: `  arctl add articles 1 comments --set author=ipolevoy --set content="nice"
  arctl add posts 2 comments --child-id 5`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			ctx := cmd.Context()

			parent, err := a.find(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			attrs, err := parseAssignments(sets)
			if err != nil {
				return err
			}

			ct, err := a.reg.Resolve(args[2])
			if err != nil {
				return err //nolint:wrapcheck // already prefixed
			}
			child, err := ct.New(nil)
			if err != nil {
				return err //nolint:wrapcheck // already prefixed
			}
			if childID != "" {
				if child, err = a.find(ctx, args[2], childID); err != nil {
					return err
				}
			}
			for col, v := range attrs {
				if err := child.Set(col, v); err != nil {
					return err //nolint:wrapcheck // already prefixed
				}
			}

			if err := a.res.Add(ctx, parent, child); err != nil {
				return err //nolint:wrapcheck // already prefixed
			}
			renderRecords(cmd.OutOrStdout(), ct, []*orm.Record{child})
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "column=value to set on the child (repeatable)")
	cmd.Flags().StringVar(&childID, "child-id", "", "attach an existing child instead of creating one")
	return cmd
}

func newChildrenCommand() *cobra.Command {
	var (
		where   string
		args    []string
		columns []string
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "children <parent-type> <parent-id> <name>",
		Short: "List the children of a parent",
		Long: `List the children of a parent reached under an association name such as
"comments". With --where only children matching the criteria are listed;
values are passed with --arg and bound to ? placeholders in order.

--page lists one page of children ordered by primary key, and --columns
reads only the named columns.`,
		Example: `  arctl children articles 1 comments
  arctl children posts 2 comments --where "author = ?" --arg kmandy
  arctl children posts 2 comments --page 2 --per-page 10 --columns id,author`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, pos []string) error {
			a := appFrom(cmd.Context())
			ctx := cmd.Context()

			if page < 0 || perPage < 1 {
				return fmt.Errorf("invalid page %d of %d", page, perPage)
			}
			parent, err := a.find(ctx, pos[0], pos[1])
			if err != nil {
				return err
			}
			ct, err := a.childType(parent.Type(), pos[2])
			if err != nil {
				return err
			}

			var children []*orm.Record
			switch {
			case page > 0 || len(columns) > 0:
				children, err = a.listChildren(ctx, parent, ct, where, toArgs(args), columns, page, perPage)
			case where == "":
				children, err = a.res.Children(ctx, parent, ct.ChildAccessor())
			default:
				children, err = a.res.Get(ctx, parent, ct, where, toArgs(args)...)
			}
			if err != nil {
				return err //nolint:wrapcheck // already prefixed
			}
			if len(columns) == 0 {
				columns = ct.ColumnNames()
			}
			renderColumns(cmd.OutOrStdout(), columns, children)
			return nil
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "criteria with ? placeholders")
	cmd.Flags().StringArrayVar(&args, "arg", nil, "value bound to the next ? placeholder (repeatable)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to read (default: all)")
	cmd.Flags().IntVar(&page, "page", 0, "1-based page to list (default: all children)")
	cmd.Flags().IntVar(&perPage, "per-page", 20, "children per page")
	return cmd
}

// listChildren reads children of parent through a scoped query.
func (a *app) listChildren(
	ctx context.Context,
	parent *orm.Record,
	ct *orm.TypeDescriptor,
	where string,
	args []any,
	columns []string,
	page, perPage int,
) ([]*orm.Record, error) {
	q, err := a.res.GetAll(parent, ct)
	if err != nil {
		return nil, err //nolint:wrapcheck // already prefixed
	}
	if where != "" {
		q = q.Where(where, args...)
	}
	if len(columns) > 0 {
		q = q.Scopes(scope.Select(columns...))
	}
	if page > 0 {
		q = q.OrderBy(a.db.Dialect().QuoteIdent(ct.PrimaryKey)).Scopes(scope.Paginate(page, perPage)...)
	}
	return q.All(ctx) //nolint:wrapcheck // already prefixed
}

func newParentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parent <child-type> <child-id> <name>",
		Short: "Show the parent of a child",
		Long: `Show the parent a child is attached to, reached under an association name
such as "article". The command fails when the child belongs to a parent of
another type.`,
		Example: `  arctl parent comments 3 article`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			ctx := cmd.Context()

			child, err := a.find(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			parent, err := a.res.ParentOf(ctx, child, args[2])
			if err != nil {
				return err //nolint:wrapcheck // already prefixed
			}
			renderRecords(cmd.OutOrStdout(), parent.Type(), []*orm.Record{parent})
			return nil
		},
	}
}

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <parent-type> <parent-id> <child-type> <child-id>",
		Short:   "Delete a child of a parent",
		Example: `  arctl remove articles 1 comments 3`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd.Context())
			ctx := cmd.Context()

			parent, err := a.find(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			child, err := a.find(ctx, args[2], args[3])
			if err != nil {
				return err
			}
			if err := a.res.Remove(ctx, parent, child); err != nil {
				return err //nolint:wrapcheck // already prefixed
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s %s\n", args[2], args[3])
			return nil
		},
	}
}
