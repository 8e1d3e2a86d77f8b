package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/sightlinehq/sightline/internal/api"
	"github.com/sightlinehq/sightline/internal/config"
	"github.com/sightlinehq/sightline/internal/errors"
	"github.com/sightlinehq/sightline/internal/logger"
)

// verifyTimeout bounds the pre-save connection check.
const verifyTimeout = 5 * time.Second

// loginCommand collects server credentials, optionally verifies them,
// and writes them to the global config file.
func loginCommand(urlFlag, tokenFlag string, noVerify bool) error {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return err
	}

	serverURL := urlFlag
	token := tokenFlag
	if serverURL == "" {
		serverURL = cfg.Server.URL
	}

	// Prompt only when attached to a terminal; flags cover scripted use.
	if urlFlag == "" || tokenFlag == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			if urlFlag == "" {
				return errors.New(errors.ErrConfig,
					"No server URL provided",
					"Pass --url (and --token if required) when running non-interactively.")
			}
		} else {
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Server URL").
						Description("The Pulse server to connect to.").
						Value(&serverURL),
					huh.NewInput().
						Title("API token").
						Description("Leave empty for anonymous access.").
						EchoMode(huh.EchoModePassword).
						Value(&token),
				),
			)
			if err := form.Run(); err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig,
					"Login cancelled", "")
			}
		}
	}

	cfg.Server.URL = serverURL
	cfg.Server.Token = token
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if !noVerify {
		ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
		defer cancel()

		client := api.NewClient(serverURL, token, logger.NewEnvLogger("[api]"))
		if _, err := client.Resources(ctx); err != nil {
			return errors.WrapWithCode(err, errors.ErrAPI,
				"Could not reach "+serverURL,
				"Check the URL and token, or pass --no-verify to save anyway.")
		}
	}

	path, err := config.GlobalPath()
	if err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}

	fmt.Printf("✓ Saved credentials for %s to %s\n", serverURL, path)
	return nil
}
