package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"inatscraper/pkg/auth"
	"inatscraper/pkg/config"
	"inatscraper/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage inatscraper configuration.

Values are resolved in this order, highest first:
  - Command line flags
  - Environment variables (INATSCRAPER_*, .env files included)
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create a commented configuration file with every option.

The file is written to ./inatscraper.yaml unless --config names another path.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long:  `Print the configuration after merging all sources. The API token is masked.`,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)
}

const exampleConfig = `# inatscraper configuration
#
# Every value can also be set through INATSCRAPER_* environment variables,
# e.g. INATSCRAPER_TARGET=100 or INATSCRAPER_API_TOKEN=...

inaturalist:
  base_url: "https://api.inaturalist.org/v1"
  # Optional. Prefer 'inatscraper auth login' over putting a token here.
  api_token: ""
  user_agent: "iNaturalistImageScraper/1.0"
  # research, needs_id or casual
  quality_grade: "research"
  # 1-200
  per_page: 30
  order_by: "created_at"
  order: "desc"

# Processed in order. taxon_id wins over taxon_name; with neither, name is
# sent as the taxon name.
species:
  - name: "Python molurus"
  - name: "Bungarus caeruleus"
  - name: "Dendrelaphis punctulatus"
  # - name: "Aedes aegypti"
  #   taxon_id: 48484

output:
  # One sub-folder per species, spaces replaced by underscores
  base_directory: "inat_images"
  allowed_extensions: ["jpg", "jpeg", "png"]
  default_extension: "jpg"
  # <Genus_species>.attributions.json next to each folder, with observer,
  # license and source URL per image
  write_manifest: true

download:
  target_per_species: 250
  timeout: 30s
  # Pause after each saved image
  politeness_delay: 1500ms
  # Page limit is ceil(target / per_page) * page_slack
  page_slack: 2
  low_res_marker: "square"
  full_res_marker: "original"
  # 0 disables the check
  min_file_size: 0
  max_file_size: 0

retry:
  # Attempts per page, including the first
  max_attempts: 3
  base_delay: 1s
  max_delay: 60s
  multiplier: 2.0
  # 0-1, fraction of each delay randomised
  jitter: 0

notifications:
  enabled: false
  on_complete: true
  on_error: true
  # terminal or desktop
  notification_type: "terminal"

logging:
  # debug, info, warn, error
  level: "info"
  # Empty disables the log file
  file: "inat_scraper.log"
  # Unset: console logs only with --verbose, so the progress display
  # keeps the terminal. Set true or false to decide it yourself.
  # console: true
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "inatscraper.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(ui.Output, "\nNext steps:")
	fmt.Fprintln(ui.Output, "  1. Edit the species list and output directory")
	fmt.Fprintln(ui.Output, "  2. Run 'inatscraper config validate'")
	fmt.Fprintf(ui.Output, "  3. Run 'inatscraper --config %s'\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	display := *cfg
	if display.INaturalist.APIToken != "" {
		display.INaturalist.APIToken = auth.MaskToken(display.INaturalist.APIToken)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Fprintln(ui.Output, ui.Magenta("Current configuration"))
	fmt.Fprintln(ui.Output)
	fmt.Fprint(ui.Output, string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", cfg.Output.BaseDirectory, err)
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	if len(cfg.Species) == 0 {
		ui.PrintWarning("No species configured; a run would do nothing")
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Fprintln(ui.Output, "\nConfiguration summary:")
	fmt.Fprintf(ui.Output, "  Species:            %d\n", len(cfg.Species))
	fmt.Fprintf(ui.Output, "  Target per species: %d\n", cfg.Download.TargetPerSpecies)
	fmt.Fprintf(ui.Output, "  Page limit:         %d\n", cfg.Download.MaxPages(cfg.INaturalist.PerPage))
	fmt.Fprintf(ui.Output, "  Output directory:   %s\n", cfg.Output.BaseDirectory)
	fmt.Fprintf(ui.Output, "  Politeness delay:   %s\n", cfg.Download.PolitenessDelay)
	fmt.Fprintf(ui.Output, "  Max attempts:       %d\n", cfg.Retry.MaxAttempts)
	fmt.Fprintf(ui.Output, "  Log level:          %s\n", cfg.Logging.Level)
	return nil
}
