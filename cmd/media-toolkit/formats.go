package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ytget/media-toolkit/internal/classify"
	"github.com/ytget/media-toolkit/internal/model"
)

var categories = []model.Category{
	model.CategoryVideo,
	model.CategoryAudio,
	model.CategoryImage,
	model.CategoryDocument,
	model.CategoryUnknown,
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats [FILE]",
		Short: "List suggested target formats, optionally for one file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Category", "Suggested formats"})

			if len(args) == 1 {
				cat := classify.Classify(args[0])
				t.AppendRow(table.Row{cat, strings.Join(classify.SuggestedFormats(cat), ", ")})
			} else {
				for _, cat := range categories {
					t.AppendRow(table.Row{cat, strings.Join(classify.SuggestedFormats(cat), ", ")})
				}
			}

			t.Render()
			return nil
		},
	}
}
