package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"regkareport/pkg/contracts"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "regkareport",
		Short: "Merge, load and analyze REGKA experiment results",
		Long: `regkareport turns the per-run result fragments of the REGKA experiment
runner into one analysis workbook. Without a subcommand it runs all three
stages: merge, load and analyze.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAll(cmd, a)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configFile, "config", "", "config file (default: regkareport.yaml or configs/regkareport.yaml)")
	flags.StringVarP(&a.opts.workDir, "workdir", "w", ".", "directory holding merged files, stores and workbooks")
	flags.StringVar(&a.opts.fragmentDir, "fragments", "results_cache", "fragment directory, relative to the work dir")
	flags.StringVar(&a.opts.csvFile, "csv-file", "", "merged CSV file (merge: output, load: input; default newest *_Result.csv)")
	flags.StringVar(&a.opts.storeFile, "db", "", "SQLite store (load: output, analyze: input; default newest *_experiment_results.db)")
	flags.BoolVar(&a.opts.exportCSV, "export-csv", false, "also export every report sheet as CSV")

	root.AddCommand(
		newRunCmd(a),
		newMergeCmd(a),
		newLoadCmd(a),
		newAnalyzeCmd(a),
		newVersionCmd(),
	)
	return root
}

func runAll(cmd *cobra.Command, a *app) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	if err := a.paths.EnsureDirectories(); err != nil {
		return err
	}
	return a.runSteps(cmd.OutOrStdout(), a.newMergeStep(), a.newLoadStep(), a.newAnalyzeStep())
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Merge fragments, load the merged file and write the analysis workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAll(cmd, a)
		},
	}
}

func newMergeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Merge result fragments into <timestamp>_Result.csv and delete them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return a.runSteps(cmd.OutOrStdout(), a.newMergeStep())
		},
	}
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load a merged file into the experiment_results table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return a.runSteps(cmd.OutOrStdout(), a.newLoadStep())
		},
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Write <timestamp>_analysis_results.xlsx from a result store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			return a.runSteps(cmd.OutOrStdout(), a.newAnalyzeStep())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}
}
