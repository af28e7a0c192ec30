package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/wellspring/internal/model"
)

// categoriesCmd lists categories and themes
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List content categories, their duplicate checks, and themes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printCategories(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func printCategories(w io.Writer) {
	fmt.Fprintln(w, "Categories:")
	for _, c := range model.Categories() {
		s, _ := model.StrategyFor(c)

		checks := []string{"exact", "overlap"}
		if s.Citation {
			checks = append(checks, "citation")
		}
		if s.Semantic {
			checks = append(checks, "semantic")
		}
		extra := ""
		if s.Authored {
			extra = " (attributed)"
		}
		fmt.Fprintf(w, "  %-20s %-16s checks: %s%s\n", c, s.Label, strings.Join(checks, ", "), extra)
	}
	fmt.Fprintf(w, "  %-20s every category above\n", model.CategoryAll)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Themes:")
	themes := make([]string, 0, len(model.Themes()))
	for _, t := range model.Themes() {
		themes = append(themes, string(t))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(themes, ", "))
}
