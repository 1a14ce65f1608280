package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"bennypowers.dev/tplcache/internal/check"
	"bennypowers.dev/tplcache/internal/config"
	"bennypowers.dev/tplcache/internal/log"
	"bennypowers.dev/tplcache/internal/report"
	"bennypowers.dev/tplcache/internal/version"
	"bennypowers.dev/tplcache/internal/workspace"
	"github.com/spf13/cobra"
)

var errFailed = errors.New("template object checks failed")

var (
	configPath string
	flagFormat string
	flagIter   int
	flagConc   int
	flagTags   []string
	flagDebug  bool

	rootCmd = &cobra.Command{
		Use:           "tplcache",
		Short:         "Check that tagged template call sites resolve to one template object",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	checkCmd = &cobra.Command{
		Use:   "check [paths...]",
		Short: "Compile JS files and evaluate every tagged template call site concurrently",
		Args:  cobra.ArbitraryArgs,
		RunE:  runCheck,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.FileName, "path to config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "log cache traffic")

	checkCmd.Flags().StringVarP(&flagFormat, "format", "f", "", "report format: text, yaml or json")
	checkCmd.Flags().IntVarP(&flagIter, "iterations", "n", 0, "evaluations per worker per call site")
	checkCmd.Flags().IntVarP(&flagConc, "concurrency", "j", 0, "concurrent workers per unit")
	checkCmd.Flags().StringSliceVarP(&flagTags, "tag", "t", nil, "only check call sites with this tag (repeatable)")

	rootCmd.AddCommand(checkCmd, versionCmd)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = flagFormat
	}
	if cmd.Flags().Changed("iterations") {
		cfg.Iterations = flagIter
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = flagConc
	}
	if cmd.Flags().Changed("tag") {
		cfg.Tags = flagTags
	}
	if flagDebug {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if len(args) == 0 {
		args = []string{"."}
	}
	files, err := workspace.Expand(args, cfg.Include, cfg.Exclude)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn("No files matched %v", cfg.Include)
	}

	r, err := check.New(cfg).Files(cmd.Context(), files)
	if err != nil {
		return err
	}
	if err := report.Write(cmd.OutOrStdout(), r, cfg.Format); err != nil {
		return err
	}
	if !r.OK() {
		return errFailed
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFailed) {
			log.Error("%v", err)
		}
		os.Exit(1)
	}
}
