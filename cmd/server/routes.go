package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/halrest/internal/handler"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the named routes and the gin paths they serve",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := handler.NewRouteTable()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTEMPLATE\tPATHS")
		for _, r := range table.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Template, strings.Join(r.GinPaths(), " "))
		}
		return w.Flush()
	},
}
