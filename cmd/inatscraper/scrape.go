package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"inatscraper/pkg/auth"
	"inatscraper/pkg/config"
	"inatscraper/pkg/logger"
	"inatscraper/pkg/scraper"
	"inatscraper/pkg/ui"
)

var (
	speciesNames  []string
	outputDir     string
	target        int
	perPage       int
	qualityGrade  string
	delay         time.Duration
	timeout       time.Duration
	maxAttempts   int
	pageSlack     int
	apiToken      string
	profileName   string
	logFile       string
	logConsole    bool
	notifications bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [species name...]",
	Short: "Download observation photos for the configured species",
	Long: `Fetch observations page by page for each species and save their photos
at full resolution under <output>/<Genus_species>/.

Each species stops when the target count is reached, the API has no more
results, the page limit is hit, or a page keeps failing after retries.
A failure in one species never stops the others.

An API token is optional. When none is given on the command line or in the
config, a stored profile (see 'inatscraper auth login') is used if present.`,
	Example: `  # Scrape the species listed in the config file
  inatscraper scrape

  # Scrape two species, 50 images each, into ./photos
  inatscraper scrape "Aedes aegypti" "Culex pipiens" -n 50 -o ./photos

  # Be gentler with the API
  inatscraper scrape --delay 3s --max-attempts 5`,
	Args: cobra.ArbitraryArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	addScrapeFlags(scrapeCmd.Flags())
	// Also on the root command so a bare "inatscraper" takes the same flags
	addScrapeFlags(rootCmd.Flags())
}

func addScrapeFlags(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&speciesNames, "species", "s", nil, "species to scrape (repeatable; default: all configured)")
	fs.StringVarP(&outputDir, "output", "o", "", "output root directory")
	fs.IntVarP(&target, "target", "n", 0, "images to download per species")
	fs.IntVar(&perPage, "per-page", 0, "observations per API page (max 200)")
	fs.StringVar(&qualityGrade, "quality-grade", "", "observation quality grade (research, needs_id, casual)")
	fs.DurationVar(&delay, "delay", 0, "pause after each saved image")
	fs.DurationVar(&timeout, "timeout", 0, "HTTP timeout per request")
	fs.IntVar(&maxAttempts, "max-attempts", 0, "attempts per page fetch, including the first")
	fs.IntVar(&pageSlack, "page-slack", 0, "page limit multiplier over the pages the target needs")
	fs.StringVar(&apiToken, "token", "", "iNaturalist API token")
	fs.StringVarP(&profileName, "profile", "p", "", "use a stored token profile")
	fs.StringVar(&logFile, "log-file", "", "log file path (empty string disables file logging)")
	fs.BoolVar(&logConsole, "log-console", false, "write logs to stderr alongside the progress display")
	fs.BoolVar(&notifications, "notifications", false, "notify when the run finishes")
}

// collectFlags returns the flags the user set, keyed the way
// config.MergeCommandLineFlags expects
func collectFlags(fs *pflag.FlagSet) map[string]interface{} {
	flags := make(map[string]interface{})

	set := func(name string, value interface{}) {
		if fs.Changed(name) {
			flags[name] = value
		}
	}
	set("species", speciesNames)
	set("output", outputDir)
	set("target", target)
	set("per-page", perPage)
	set("quality-grade", qualityGrade)
	set("delay", delay)
	set("timeout", timeout)
	set("max-attempts", maxAttempts)
	set("page-slack", pageSlack)
	set("log-file", logFile)
	set("log-console", logConsole)
	set("notifications", notifications)
	if fs.Changed("token") {
		flags["api-token"] = apiToken
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	return flags
}

// consoleLogging decides whether logs go to stderr. Quiet silences them and
// verbose turns them on. Otherwise the progress display owns the terminal
// unless the config, environment or --log-console chose a value.
func consoleLogging(cfg config.LoggingConfig, verbose, quiet bool) bool {
	switch {
	case quiet:
		return false
	case verbose:
		return true
	case cfg.ConsoleSet:
		return cfg.Console
	default:
		return false
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	flags := collectFlags(cmd.Flags())
	if len(args) > 0 {
		names, _ := flags["species"].([]string)
		flags["species"] = append(names, args...)
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.Logging.Console = consoleLogging(cfg.Logging, verbose, quiet)
	if cfg.Logging.File == "" && !cfg.Logging.Console {
		cfg.Logging.Level = "error"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger().WithField("version", version)
	log.Info("inatscraper starting")

	if err := resolveToken(cfg, log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := ui.NewProgressDisplay(ui.Output, verbose)
	s := scraper.NewFromConfig(cfg, log,
		scraper.WithReporter(scraper.MultiReporter{scraper.NewLogReporter(log), display}),
	)

	for _, sp := range cfg.Species {
		ui.PrintInfo("Species", sp.String())
	}
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)

	run, runErr := s.Run(ctx)
	if run != nil && len(run.Species) > 0 {
		display.RunComplete(run)
	}
	ui.NewNotifier(cfg.Notifications).NotifyRun(run, runErr)

	switch {
	case errors.Is(runErr, context.Canceled):
		log.Warn("Run interrupted")
		ui.PrintWarning("Interrupted. Images saved so far are kept; rerun to continue.")
		return nil
	case runErr != nil:
		log.WithError(runErr).Error("Run failed")
		return runErr
	}

	log.Info("Run completed")
	return nil
}

// resolveToken fills cfg.INaturalist.APIToken from the credential store
// when neither flags, env nor config provided one. Missing tokens are fine.
func resolveToken(cfg *config.Config, log logger.Logger) error {
	if cfg.INaturalist.APIToken != "" && profileName == "" {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		if profileName != "" {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		log.WithError(err).Debug("Credential store unavailable, continuing without token")
		return nil
	}

	var profile *auth.Profile
	if profileName != "" {
		profile, err = manager.Retrieve(profileName)
		if err != nil {
			return fmt.Errorf("profile %q not found (see 'inatscraper auth list'): %w", profileName, err)
		}
	} else {
		profile, err = manager.RetrieveDefault()
		if err != nil {
			log.Debug("No stored API token, using anonymous access")
			return nil
		}
	}

	cfg.INaturalist.APIToken = profile.APIToken
	if profile.UserAgent != "" {
		cfg.INaturalist.UserAgent = profile.UserAgent
	}
	log.WithField("profile", profile.Name).Info("Using stored API token")
	return nil
}
