package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/wellspring/internal/llm"
	"github.com/ppiankov/wellspring/internal/model"
	"github.com/ppiankov/wellspring/internal/store"
)

var checkTimeout time.Duration

// checkCmd verifies the provider and the store before a long run
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the LLM provider and content store are reachable",
	Long: `Make one cheap authenticated call to the configured LLM provider and read
the duplicate baseline from the content store.

Exits non-zero when either check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		defer cancel()
		return runChecks(ctx, cmd.OutOrStdout(), provider, st)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "overall time limit")
}

// runChecks pings the provider and counts the baseline. Both checks run even
// when the first fails; the first error is returned.
func runChecks(ctx context.Context, w io.Writer, provider llm.Provider, st store.Store) error {
	var firstErr error

	if err := provider.Ping(ctx); err != nil {
		fmt.Fprintf(w, "✗ provider %s: %v\n", provider.Name(), err)
		firstErr = fmt.Errorf("%w: provider %s unreachable: %v", model.ErrConfig, provider.Name(), err)
	} else {
		fmt.Fprintf(w, "✓ provider %s\n", provider.Name())
	}

	baseline, err := st.FetchBaseline(ctx)
	if err != nil {
		fmt.Fprintf(w, "✗ store: %v\n", err)
		if firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", model.ErrPersistence, err)
		}
	} else {
		fmt.Fprintf(w, "✓ store (%d items in baseline)\n", len(baseline))
	}

	return firstErr
}
