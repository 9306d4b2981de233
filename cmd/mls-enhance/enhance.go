package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/mls-photo-enhancer/internal/archive"
	"github.com/ironsheep/mls-photo-enhancer/internal/batch"
	"github.com/ironsheep/mls-photo-enhancer/internal/enhance"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [files...]",
	Short: "Enhance photos into a ZIP archive or a directory",
	Long: `Enhance one or more photos and write them as 01.jpg, 02.jpg, ... in input
order. An --out path ending in .zip produces an archive; anything else is
treated as a directory of individual JPEGs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnhance,
}

func init() {
	enhanceCmd.Flags().StringP("variant", "V", "", "Pipeline variant: safe or pro (default from config)")
	enhanceCmd.Flags().StringP("out", "o", "", "Output .zip file or directory")
	enhanceCmd.Flags().String("account", "", "Account to charge (default from config)")
	enhanceCmd.Flags().Int("workers", 0, "Concurrent workers (default from config, 0 = all CPUs)")
	enhanceCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(enhanceCmd)
}

func runEnhance(cmd *cobra.Command, args []string) error {
	a := current
	variantStr, _ := cmd.Flags().GetString("variant")
	out, _ := cmd.Flags().GetString("out")
	account, _ := cmd.Flags().GetString("account")
	workers, _ := cmd.Flags().GetInt("workers")

	var variant enhance.Variant
	if variantStr != "" {
		v, err := enhance.ParseVariant(variantStr)
		if err != nil {
			return err
		}
		variant = v
	}
	if account == "" {
		account = a.cfg.Metering.Account
	}
	if !cmd.Flags().Changed("workers") {
		workers = a.cfg.Batch.Workers
	}

	runner := batch.NewRunner(a.enhancer, batch.WithQuota(a.meter), batch.WithLogger(a.logger.Named("batch")))
	stderr := cmd.ErrOrStderr()
	report, err := runner.Run(cmd.Context(), batch.ReadItems(args), batch.Options{
		Workers: workers,
		Variant: variant,
		Account: account,
		OnItem: func(completed, total int) {
			fmt.Fprintf(stderr, "\rEnhanced %d/%d", completed, total)
		},
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(stderr)

	entries := report.Entries()
	stdout := cmd.OutOrStdout()
	if strings.EqualFold(filepath.Ext(out), ".zip") {
		if err := archive.WriteFile(out, entries); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s (%d photos)\n", out, len(entries))
	} else {
		paths, err := archive.WriteDir(out, entries)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(stdout, p)
		}
	}

	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Fprintf(stderr, "  %02d %s: %v\n", res.Index, res.Source, res.Err)
		}
	}
	fmt.Fprintln(stdout, report.Summary)

	if status, err := a.meter.Status(cmd.Context(), account); err == nil {
		fmt.Fprintln(stdout, status)
	}

	if report.Summary.Succeeded == 0 {
		return fmt.Errorf("no photos were enhanced")
	}
	return nil
}
