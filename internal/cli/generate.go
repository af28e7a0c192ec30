package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/wellspring/internal/generate"
	"github.com/ppiankov/wellspring/internal/model"
)

var (
	genCategory    string
	genCount       int
	genTheme       string
	genTranslation string
	genCategories  string
	genDryRun      bool
	genOutJSON     string
	genRole        string
	genNoJudge     bool
	genNoCache     bool
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new content items for a category (or all categories)",
	Long: `Generate asks the configured LLM for candidates and stores only the ones
that are not duplicates of anything already stored or accepted in this run.

A single category runs a retrying quota loop with rising temperature.
--category all spreads --count across categories (at least 2 each), runs them
concurrently and removes cross-category duplicates.

Example:
  wellspring generate --category affirmation --count 10 --role editor
  wellspring generate --category bible_verse --count 5 --theme hope --translation ESV
  wellspring generate --category all --count 20 --categories quote,life_lesson --dry-run --json -`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	// Request flags
	generateCmd.Flags().StringVar(&genCategory, "category", "", "category to generate, or \"all\" (required)")
	generateCmd.Flags().IntVar(&genCount, "count", 10, "number of items to request")
	generateCmd.Flags().StringVar(&genTheme, "theme", "", "optional theme (see 'wellspring categories')")
	generateCmd.Flags().StringVar(&genTranslation, "translation", "", "Bible translation for citation categories (default from config)")
	generateCmd.Flags().StringVar(&genCategories, "categories", "", "comma-separated subset for --category all")
	generateCmd.Flags().StringVar(&genRole, "role", "", "caller role (or WELLSPRING_ROLE)")
	_ = generateCmd.MarkFlagRequired("category")

	// Output flags
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "check against the store but do not insert")
	generateCmd.Flags().StringVar(&genOutJSON, "json", "", "write the result as JSON to this path (\"-\" for stdout)")

	// Pipeline flags
	generateCmd.Flags().BoolVar(&genNoJudge, "no-judge", false, "disable the LLM semantic duplicate judge")
	generateCmd.Flags().BoolVar(&genNoCache, "no-cache", false, "disable the judge verdict cache")
	generateCmd.Flags().String("provider", "", "LLM provider (openai, anthropic, ollama)")
	generateCmd.Flags().String("model", "", "LLM model name")

	_ = viper.BindPFlag("role", generateCmd.Flags().Lookup("role"))
	_ = viper.BindPFlag("llm.provider", generateCmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("llm.model", generateCmd.Flags().Lookup("model"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if genNoJudge {
		cfg.Dedup.JudgeEnabled = false
	}
	if genNoCache {
		cfg.Cache.Enabled = false
	}

	req := generate.Request{
		Category:    genCategory,
		Count:       genCount,
		Theme:       model.Theme(genTheme),
		Translation: genTranslation,
		Role:        viper.GetString("role"),
		DryRun:      genDryRun,
	}
	if genCategories != "" {
		if req.Categories, err = model.ParseCategories(genCategories); err != nil {
			return err
		}
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("close store", "error", cerr)
		}
	}()

	svc, err := buildService(cfg, st, log)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	printBanner(stderr, "Wellspring Generation")
	fmt.Fprintf(stderr, "  Category:     %s\n", req.Category)
	fmt.Fprintf(stderr, "  Count:        %d\n", req.Count)
	if req.Theme != "" {
		fmt.Fprintf(stderr, "  Theme:        %s\n", req.Theme)
	}
	fmt.Fprintf(stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(stderr, "  Judge:        %v\n", cfg.Dedup.JudgeEnabled)
	fmt.Fprintf(stderr, "  Store:        %s\n", st.Path())
	fmt.Fprintf(stderr, "\n")

	res, err := svc.Run(context.Background(), req)
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}

	printSummary(stderr, res, verbose)

	if genOutJSON != "" {
		if err := writeResultJSON(cmd.OutOrStdout(), genOutJSON, res); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

func printBanner(w io.Writer, title string) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
}

// printSummary writes the human-readable run summary
func printSummary(w io.Writer, res *generate.Result, listItems bool) {
	if listItems {
		for _, it := range res.Items {
			ref := it.Citation
			if ref == "" {
				ref = it.Author
			}
			if ref != "" {
				fmt.Fprintf(w, "✓ [%s] %s (%s)\n", it.Category, it.Content, ref)
			} else {
				fmt.Fprintf(w, "✓ [%s] %s\n", it.Category, it.Content)
			}
		}
	}

	printBanner(w, "Generation Complete")
	fmt.Fprintf(w, "  Accepted:  %d of %d requested\n", res.AcceptedCount, res.Requested)
	fmt.Fprintf(w, "  Outcome:   %s\n", res.Outcome)
	if res.Attempts > 0 {
		fmt.Fprintf(w, "  Attempts:  %d\n", res.Attempts)
	}
	if res.Saturated {
		fmt.Fprintf(w, "  Saturated: yes (too many duplicates in a row)\n")
	}
	if len(res.PerCategoryDistribution) > 0 {
		fmt.Fprintf(w, "  Distribution:\n")
		cats := make([]string, 0, len(res.PerCategoryDistribution))
		for c := range res.PerCategoryDistribution {
			cats = append(cats, string(c))
		}
		sort.Strings(cats)
		for _, c := range cats {
			fmt.Fprintf(w, "    %-20s %d\n", c, res.PerCategoryDistribution[model.Category(c)])
		}
	}
	if res.DryRun {
		fmt.Fprintf(w, "  Dry run:   nothing was stored\n")
	}
	fmt.Fprintf(w, "  Duration:  %s\n", res.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
}

// writeResultJSON writes res to path, or to stdout when path is "-"
func writeResultJSON(stdout io.Writer, path string, res *generate.Result) (err error) {
	w := stdout
	if path != "-" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return createErr
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", path, closeErr)
			}
		}()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
