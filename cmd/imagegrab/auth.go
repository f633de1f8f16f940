package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"imagegrab/pkg/auth"
	"imagegrab/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API identifiers",
	Long: `Manage the identifiers imagegrab presents to the Imgur and Reddit APIs.

Identifiers are kept in the system keychain when available, otherwise in an
encrypted file in the user config directory. IMAGEGRAB_IMGUR_CLIENT_ID and
IMAGEGRAB_REDDIT_APP_ID are used when nothing is stored.`,
}

var authSetCmd = &cobra.Command{
	Use:       "set <imgur|reddit>",
	Short:     "Store the identifier for a service",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{auth.ServiceImgur, auth.ServiceReddit},
	RunE:      runAuthSet,
}

var authShowCmd = &cobra.Command{
	Use:   "show [imgur|reddit]",
	Short: "Show stored identifiers, masked",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthShow,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete <imgur|reddit>",
	Short: "Remove the stored identifier for a service",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthDelete,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd, authShowCmd, authDeleteCmd)
}

func serviceArg(arg string) (string, error) {
	service := strings.ToLower(strings.TrimSpace(arg))
	if !auth.ValidService(service) {
		return "", fmt.Errorf("unknown service %q, expected %s or %s", arg, auth.ServiceImgur, auth.ServiceReddit)
	}
	return service, nil
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	service, err := serviceArg(args[0])
	if err != nil {
		return err
	}
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	auth.WriteRegistrationGuide(os.Stdout, service)
	fmt.Println()

	label := "Client ID"
	if service == auth.ServiceReddit {
		label = "App ID"
	}
	fmt.Printf("%s (input hidden): ", label)
	id, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", label, err)
	}
	if id == "" {
		return errors.New(label + " is required")
	}

	if err := manager.Store(&auth.Credential{Service: service, ClientID: id}); err != nil {
		return err
	}
	ui.PrintSuccess("Stored " + service + " identifier")
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	var creds []*auth.Credential
	if len(args) == 1 {
		service, err := serviceArg(args[0])
		if err != nil {
			return err
		}
		cred, err := manager.Retrieve(service)
		if err != nil {
			return err
		}
		creds = append(creds, cred)
	} else if creds, err = manager.List(); err != nil {
		return err
	}

	if len(creds) == 0 {
		ui.PrintInfo("No stored identifiers", "use 'imagegrab auth set <service>'")
		return nil
	}

	ui.PrintHighlight("Stored identifiers")
	for _, cred := range creds {
		masked := auth.SanitizeCredential(cred)
		fmt.Printf("  %-7s %s  (modified %s)\n", masked.Service, masked.ClientID, masked.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	service, err := serviceArg(args[0])
	if err != nil {
		return err
	}
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}
	if err := manager.Delete(service); err != nil {
		return err
	}
	ui.PrintSuccess("Removed " + service + " identifier")
	return nil
}

// readSecret reads a line without echo when stdin is a terminal.
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(b)), nil
		}
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
