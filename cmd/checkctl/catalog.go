package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/report"
)

func newCatalogCmd(open opener) *cobra.Command {
	var items bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the equipment catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			for _, cat := range domain.Categories {
				var codes []domain.EquipmentDescriptor
				for _, e := range a.catalog.Equipment() {
					if e.Category == cat {
						codes = append(codes, e)
					}
				}
				if len(codes) == 0 {
					continue
				}

				fmt.Fprintf(out, "%s (%s)\n", report.CategoryTitle(cat), cat)
				for _, e := range codes {
					fmt.Fprintf(out, "  %-6s %s\n", e.Code, e.Name)
				}
				if items {
					tpl, _ := a.catalog.Template(cat)
					for _, sec := range tpl.Sections {
						fmt.Fprintf(out, "    %s\n", sec.Name)
						for _, item := range sec.Items {
							fmt.Fprintf(out, "      - %s\n", item)
						}
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&items, "items", false, "also print each category's checklist")
	return cmd
}
