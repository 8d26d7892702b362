package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List registered types and their association names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd.Context())

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"type", "table", "children name", "parent name", "parents", "discriminator"})
			for _, d := range a.reg.Types() {
				disc := ""
				if d.IsPolymorphic() {
					disc = d.ParentTypeColumn + ", " + d.ParentIDColumn
				}
				t.AppendRow(table.Row{
					d.Name, d.Table, d.ChildAccessor(), d.ParentAccessor(), strings.Join(d.Parents, ", "), disc,
				})
			}
			t.Render()
			return nil
		},
	}
}
