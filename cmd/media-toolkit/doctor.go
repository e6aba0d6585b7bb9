package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newDoctorCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and show the conversion routing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(flags)
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(a, flags) }()

			tools := table.NewWriter()
			tools.SetOutputMirror(cmd.OutOrStdout())
			tools.SetStyle(table.StyleLight)
			tools.SetTitle("Backends")
			tools.AppendHeader(table.Row{"Adapter", "Status", "Detail"})
			for _, s := range a.Doctor() {
				if s.OK() {
					tools.AppendRow(table.Row{s.Adapter, "✅ ready", ""})
				} else {
					tools.AppendRow(table.Row{s.Adapter, "❌ unavailable", s.Err.Error()})
				}
			}
			tools.Render()

			rules := table.NewWriter()
			rules.SetOutputMirror(cmd.OutOrStdout())
			rules.SetStyle(table.StyleLight)
			rules.SetTitle("Conversion routing")
			rules.AppendHeader(table.Row{"#", "Rule", "Adapter"})
			for i, rule := range a.Policy.Table() {
				rules.AppendRow(table.Row{i + 1, rule.Name, rule.Adapter})
			}
			rules.Render()

			fmt.Fprintf(cmd.OutOrStdout(), "Settings: %s\n", a.Store.Path())
			return nil
		},
	}
}
