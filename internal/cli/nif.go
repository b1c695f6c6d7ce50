package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"despesify/internal/app"
	"despesify/internal/csvexport"
	"despesify/internal/domain"
	"despesify/internal/nifimport"
	"despesify/internal/service"
	"despesify/internal/taxid"
)

func newNIFCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nif",
		Short: "Resolve NIFs and manage the NIF cache",
	}

	lookup := &cobra.Command{
		Use:   "lookup <nif>",
		Short: "Resolve a NIF to a company name",
		Long: `Resolve a NIF through the local cache first and then the configured
providers (DESPESIFY_NIF_PROVIDERS). Provider results are written back
to the cache. With --no-cache only the providers are queried and
nothing is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noCache, _ := cmd.Flags().GetBool("no-cache")
			if noCache {
				return st.lookupProvidersOnly(cmd, args[0])
			}
			return st.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.NIF.Lookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	lookup.Flags().Bool("no-cache", false, "Query providers directly without reading or writing the cache")

	correct := &cobra.Command{
		Use:   "correct <nif> <company name>",
		Short: "Store a corrected company name (and category) for a NIF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := service.CorrectNIFInput{NIF: args[0], CompanyName: args[1]}
			if cmd.Flags().Changed("category") {
				cat, _ := cmd.Flags().GetInt64("category")
				input.CategoryID = &cat
			}
			return st.withApp(cmd.Context(), func(a *app.App) error {
				entry, err := a.NIF.Correct(cmd.Context(), input)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), entry)
			})
		},
	}
	correct.Flags().Int64("category", 0, "Expense category id (0 clears it)")

	export := &cobra.Command{
		Use:   "export",
		Short: "Write the NIF cache as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("output")
			w := cmd.OutOrStdout()
			if out != "" {
				if out == "auto" {
					out = csvexport.BuildFilename("nif-cache", time.Now())
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			return st.withApp(cmd.Context(), func(a *app.App) error {
				return a.NIF.ExportCSV(cmd.Context(), w)
			})
		},
	}
	export.Flags().StringP("output", "o", "", `Output path, or "auto" for nif-cache_<date>.csv (default: stdout)`)

	importCmd := &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Load NIF, company name and category rows from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			res, err := nifimport.ReadWorkbook(f)
			if err != nil {
				return err
			}
			for _, skipped := range res.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", skipped.Error())
			}

			return st.withApp(cmd.Context(), func(a *app.App) error {
				for _, e := range res.Entries {
					if _, err := a.NIF.Correct(cmd.Context(), service.CorrectNIFInput{
						NIF: e.NIF, CompanyName: e.CompanyName, CategoryID: e.CategoryID,
					}); err != nil {
						return fmt.Errorf("import %s: %w", e.NIF, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries, skipped %d rows\n", len(res.Entries), len(res.Skipped))
				return nil
			})
		},
	}

	cmd.AddCommand(lookup, correct, export, importCmd)
	return cmd
}

func (st *state) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, st.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}

func (st *state) lookupProvidersOnly(cmd *cobra.Command, raw string) error {
	nif, err := taxid.Normalize(raw)
	if err != nil {
		return err
	}
	chain, err := taxid.NewChainFromConfig(&st.cfg.NIF)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), st.cfg.NIF.Timeout)
	defer cancel()
	name, source, err := chain.Lookup(ctx, nif)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), domain.NIFResolution{NIF: nif, CompanyName: name, Source: source})
}
