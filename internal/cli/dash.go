package cli

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sightlinehq/sightline/internal/api"
	"github.com/sightlinehq/sightline/internal/config"
	"github.com/sightlinehq/sightline/internal/dashboard"
	"github.com/sightlinehq/sightline/internal/errors"
	"github.com/sightlinehq/sightline/internal/logger"
	"github.com/sightlinehq/sightline/internal/timeseries"
)

// dashCommand starts the dashboard TUI against the configured server.
func dashCommand(rangeFlag, refreshFlag string) error {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return err
	}

	if rangeFlag != "" {
		if !timeseries.ValidRange(rangeFlag) {
			return errors.New(errors.ErrConfig,
				"Unknown range: "+rangeFlag,
				"Valid ranges: "+strings.Join(timeseries.RangeNames(), ", "))
		}
		cfg.Charts.DefaultRange = rangeFlag
	}
	if refreshFlag != "" {
		refresh, err := time.ParseDuration(refreshFlag)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Invalid refresh interval: "+refreshFlag,
				"Use a valid duration like 10s, 30s, or 1m.")
		}
		cfg.Charts.Refresh = refresh
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	client := api.NewClient(cfg.Server.URL, cfg.Server.Token, logger.NewEnvLogger("[api]"))
	model := dashboard.NewModel(client, cfg, logger.NewEnvLogger("[dash]"))

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(dashboard.Model); ok {
		m.Stop()
	}
	return err
}
