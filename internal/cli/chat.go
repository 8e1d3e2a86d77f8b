package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sightlinehq/sightline/internal/api"
	"github.com/sightlinehq/sightline/internal/chatui"
	"github.com/sightlinehq/sightline/internal/config"
	"github.com/sightlinehq/sightline/internal/logger"
)

// chatCommand starts the chat TUI against the configured server.
func chatCommand() error {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.Server.URL, cfg.Server.Token, logger.NewEnvLogger("[api]"))
	model := chatui.NewModel(client, cfg, logger.NewEnvLogger("[chat]"))

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
