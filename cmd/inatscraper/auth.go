package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"inatscraper/pkg/auth"
	"inatscraper/pkg/config"
	"inatscraper/pkg/inaturalist"
	"inatscraper/pkg/logger"
	"inatscraper/pkg/ui"
)

var skipVerify bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored iNaturalist API tokens",
	Long: `Manage iNaturalist API tokens stored as named profiles.

Tokens are kept in the system keychain when available, otherwise in an
encrypted file under the user config directory. INATSCRAPER_API_TOKEN
is read as well but never written.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store an API token",
	Example: `  # Store the default profile
  inatscraper auth login

  # Store a second token under its own name
  inatscraper auth login fieldwork`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles with masked tokens",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)
	loginCmd.Flags().BoolVar(&skipVerify, "no-verify", false, "store the token without checking it against the API")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultProfile
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)
	auth.ShowTokenGuide(ui.Output)

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Fprintf(ui.Output, "\nProfile '%s' already exists. Replace its token? (y/N): ", name)
		if !confirm(reader) {
			return nil
		}
	}

	fmt.Fprint(ui.Output, "\nAPI token (hidden): ")
	token, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("no token entered")
	}

	fmt.Fprintf(ui.Output, "User agent (Enter for %q): ", inaturalist.DefaultUserAgent)
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	profile := &auth.Profile{Name: name, APIToken: token, UserAgent: userAgent}

	if !skipVerify {
		login, err := verifyToken(cmd.Context(), profile)
		if err != nil {
			ui.PrintError("Token rejected by iNaturalist", err)
			fmt.Fprint(ui.Output, "Store it anyway? (y/N): ")
			if !confirm(reader) {
				return nil
			}
		} else {
			ui.PrintInfo("Signed in as", login)
		}
	}

	if err := manager.Store(profile); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Token stored as profile '%s'", name))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultProfile
	if len(args) > 0 {
		name = args[0]
	}
	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Removed profile '%s'", name))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profiles, err := manager.List()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		ui.PrintWarning("No stored profiles. Run 'inatscraper auth login' to add one.")
		return nil
	}

	for _, p := range profiles {
		p = auth.Sanitize(p)
		fmt.Fprintf(ui.Output, "  %s  %s  %s\n",
			ui.Cyan(p.Name), p.APIToken, ui.Dim(p.LastModified.Format(time.DateTime)))
	}
	return nil
}

// verifyToken asks the API who the token belongs to
func verifyToken(ctx context.Context, p *auth.Profile) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.DefaultConfig().INaturalist
	cfg.APIToken = p.APIToken
	if p.UserAgent != "" {
		cfg.UserAgent = p.UserAgent
	}

	client := inaturalist.NewClient(cfg, 15*time.Second, logger.NewNopLogger())
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return user.Login, nil
}

// readSecret reads without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Output)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func confirm(reader *bufio.Reader) bool {
	input, _ := reader.ReadString('\n')
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y")
}
