package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/irtazafoods/homecheck/internal/scenario"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered scenarios in run order",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTITLE\tDEFAULT")
			for _, name := range scenario.Names() {
				s, _ := scenario.Lookup(name)
				def := "yes"
				if s.Optional {
					def = "no"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Title, def)
			}
			_ = tw.Flush()
		},
	}
}
