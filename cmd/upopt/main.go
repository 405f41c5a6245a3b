// Command upopt assigns a user's properties to collections so that the
// boosted monthly yield is as large as possible.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssolson/upOpt/internal/config"
	"github.com/ssolson/upOpt/internal/ilp/pbsolver"
	"github.com/ssolson/upOpt/internal/optimizer"
	"github.com/ssolson/upOpt/internal/provider"
	"github.com/ssolson/upOpt/internal/store"
	"github.com/ssolson/upOpt/pkg/constants"
	"github.com/ssolson/upOpt/pkg/output"
	"github.com/ssolson/upOpt/pkg/validation"
)

type rootFlags struct {
	configPath   string
	logLevel     string
	outputFormat string
	outputDir    string
	auth         string
	dumpModels   string
	stdout       bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line and returns the process exit code.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "upopt",
		Short:        "Optimize property collection assignments",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	optimize := &cobra.Command{
		Use:   "optimize <username>",
		Short: "Compute the best collection assignment for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd.Context(), flags, args[0])
		},
	}
	optimize.Flags().StringVar(&flags.outputFormat, "output", "", "report format override: text, json")
	optimize.Flags().StringVar(&flags.outputDir, "output-dir", "", "directory the report is written to")
	optimize.Flags().StringVar(&flags.auth, "auth", os.Getenv("UPOPT_AUTH"), "authorization header used to mark currently active properties")
	optimize.Flags().StringVar(&flags.dumpModels, "dump-models", "", "write each phase model in LP format to this directory")
	optimize.Flags().BoolVar(&flags.stdout, "stdout", false, "print the report instead of writing a file")

	collections := &cobra.Command{
		Use:   "collections",
		Short: "List the collection catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollections(cmd.Context(), flags)
		},
	}

	last := &cobra.Command{
		Use:   "last <username>",
		Short: "Print the most recent stored run of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLast(cmd.Context(), flags, args[0])
		},
	}
	last.Flags().StringVar(&flags.outputFormat, "output", "", "report format override: text, json")

	root.AddCommand(optimize, collections, last)
	return root
}

// setup loads the configuration and builds the logger.
func setup(flags *rootFlags) (*config.Configuration, *zap.Logger, error) {
	conf, err := config.LoadOrDefault(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration at %s: %w", flags.configPath, err)
	}
	logger, err := initializeLogger(conf.Logging, flags.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return conf, logger, nil
}

func outputFormat(conf *config.Configuration, override string) (string, error) {
	format := conf.Output.Format
	if override != "" {
		format = override
	}
	if err := validation.ValidateOutputFormat(format); err != nil {
		return "", err
	}
	return format, nil
}

// sources picks local files where configured and the HTTP APIs otherwise.
func sources(logger *zap.Logger, conf config.ProvidersConfig) (provider.UnitProvider, provider.CatalogProvider, provider.ActivityProvider) {
	remote := provider.NewHTTP(logger, nil, provider.HTTPConfig{
		UnitsURL:    conf.UnitsURL,
		CatalogURL:  conf.CatalogURL,
		ActivityURL: conf.ActivityURL,
		Timeout:     conf.Timeout,
	})
	local := provider.File{
		UnitsPath:    conf.UnitsFile,
		CatalogPath:  conf.CatalogFile,
		ActivityPath: conf.ActivityFile,
	}

	var (
		units    provider.UnitProvider     = remote
		catalog  provider.CatalogProvider  = remote
		activity provider.ActivityProvider = remote
	)
	if conf.UnitsFile != "" {
		units = local
	}
	if conf.CatalogFile != "" {
		catalog = local
	}
	if conf.ActivityFile != "" {
		activity = local
	}
	return units, catalog, activity
}

func runOptimize(ctx context.Context, flags *rootFlags, username string) error {
	conf, logger, err := setup(flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	format, err := outputFormat(conf, flags.outputFormat)
	if err != nil {
		return err
	}

	units, catalog, activity := sources(logger, conf.Providers)
	in, err := provider.FetchAll(ctx, units, catalog, username)
	if err != nil {
		logger.Error("failed to fetch inputs", zap.String("op", "main"), zap.Error(err))
		return err
	}

	solver := pbsolver.New(logger, pbsolver.Options{
		Scale:             conf.Optimizer.ObjectiveScale,
		Timeout:           conf.Optimizer.SolveTimeout,
		RelaxationMaxVars: conf.Optimizer.RelaxationMaxVariables,
	})
	var opts []optimizer.Option
	if flags.dumpModels != "" {
		opts = append(opts, optimizer.WithModelDump(flags.dumpModels))
	}
	runner, err := optimizer.NewRunner(logger, conf, solver, opts...)
	if err != nil {
		return err
	}

	sol, err := runner.Run(ctx, in.Units, in.Catalog)
	if err != nil {
		var phaseErr *optimizer.PhaseError
		if errors.As(err, &phaseErr) {
			logger.Error("optimization phase failed",
				zap.String("op", "main"),
				zap.Int("phase", phaseErr.Phase),
				zap.String("status", phaseErr.Status.String()),
			)
		}
		return err
	}

	if flags.auth != "" {
		enrollments, err := activity.Activity(ctx, flags.auth)
		if err != nil {
			// the report is still useful without activity marks
			logger.Warn("failed to fetch activity", zap.String("op", "main"), zap.Error(err))
		} else {
			marked := sol.Annotate(enrollments)
			logger.Info("annotated activity", zap.String("op", "main"), zap.Int("active", marked))
		}
	}

	if conf.Store.Driver != "" {
		st, err := store.Open(ctx, logger, conf.Store.Driver, conf.Store.DSN)
		if err != nil {
			return err
		}
		defer st.Close()
		if _, err := st.Save(ctx, username, sol); err != nil {
			return err
		}
	}

	if flags.stdout {
		return output.Write(os.Stdout, format, sol)
	}
	dir := conf.Output.Directory
	if flags.outputDir != "" {
		dir = flags.outputDir
	}
	path, err := output.WriteFile(dir, username, format, sol)
	if err != nil {
		return err
	}
	logger.Info("report written",
		zap.String("op", "main"),
		zap.String("path", path),
		zap.Float64("total_monthly", sol.Earnings.TotalMonthly),
	)
	return nil
}

func runCollections(ctx context.Context, flags *rootFlags) error {
	conf, logger, err := setup(flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	_, source, _ := sources(logger, conf.Providers)
	catalog, err := source.Catalog(ctx)
	if err != nil {
		return err
	}
	catalog = catalog.WithScopes(conf.Collections.Scopes())

	fmt.Printf("%-6s %-32s %-8s %-7s %s\n", "ID", "Name", "Needed", "Boost", "Scope")
	for _, c := range catalog.Collections() {
		fmt.Printf("%-6d %-32s %-8d %-7.2f %s\n", c.ID, c.Name, c.Required, c.Boost, c.Scope)
	}
	return nil
}

func runLast(ctx context.Context, flags *rootFlags, username string) error {
	conf, logger, err := setup(flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if conf.Store.Driver == "" {
		return fmt.Errorf("no store configured")
	}
	format, err := outputFormat(conf, flags.outputFormat)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, logger, conf.Store.Driver, conf.Store.DSN)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Latest(ctx, username)
	if err != nil {
		return err
	}
	logger.Debug("loaded run", zap.String("op", "main"), zap.String("run_id", rec.ID), zap.Time("created", rec.CreatedAt))
	return output.Write(os.Stdout, format, rec.Solution)
}
