package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/wellspring/internal/model"
	"github.com/ppiankov/wellspring/internal/store"
)

var (
	itemsCategory string
	itemsArchived bool
	itemsLimit    int
)

// itemsCmd groups the content store commands
var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Inspect and archive stored content",
	Long: `Inspect and archive items in the content store.

Archived items are hidden from listings but still count as duplicates, so
archiving never lets an item be generated again.`,
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored items, newest first",
	Example: `  wellspring items list --category quote --limit 20
  wellspring items list --archived`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := store.Filter{
			Category:        model.Category(strings.ToLower(itemsCategory)),
			IncludeArchived: itemsArchived,
			Limit:           itemsLimit,
		}
		if f.Category != "" && !f.Category.Valid() {
			return fmt.Errorf("%w: unknown category %q", model.ErrInvalidRequest, itemsCategory)
		}

		return withStore(func(st store.Store) error {
			items, err := st.List(context.Background(), f)
			if err != nil {
				return err
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		})
	},
}

var itemsArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st store.Store) error {
			if err := st.Archive(context.Background(), args[0]); err != nil {
				return fmt.Errorf("archive %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Archived %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(itemsCmd)
	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsArchiveCmd)

	itemsListCmd.Flags().StringVar(&itemsCategory, "category", "", "only this category")
	itemsListCmd.Flags().BoolVar(&itemsArchived, "archived", false, "include archived items")
	itemsListCmd.Flags().IntVar(&itemsLimit, "limit", 50, "maximum items to show (0 for all)")
}

// withStore opens the configured store for the duration of fn
func withStore(fn func(store.Store) error) (err error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(st)
}

func printItems(w io.Writer, items []model.AcceptedItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found")
		return
	}
	for _, it := range items {
		flags := ""
		if it.IsApproved {
			flags += " approved"
		}
		if it.IsUsed {
			flags += " used"
		}
		if it.IsArchived {
			flags += " archived"
		}
		fmt.Fprintf(w, "%s  %s  %-18s%s\n", it.ID, it.CreatedAt.Format("2006-01-02"), it.Category, flags)

		line := "    " + it.Content
		switch {
		case it.Citation != "":
			line += " (" + it.Citation + ")"
		case it.Author != "":
			line += " (" + it.Author + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%d item(s)\n", len(items))
}
