package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sightlinehq/sightline/internal/errors"
	"github.com/sightlinehq/sightline/internal/timeseries"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but sightline only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest sightline release")
	}

	if err := validateServer(cfg.Server); err != nil {
		return err
	}

	if err := validateCharts(cfg.Charts); err != nil {
		return err
	}

	if cfg.Chat.IdleCeiling < 0 {
		return errors.New(errors.ErrConfig,
			"chat.idle_ceiling cannot be negative",
			"Use a duration like '5m', or 0 for the default")
	}

	return nil
}

func validateServer(s ServerConfig) error {
	if s.URL == "" {
		return errors.New(errors.ErrConfig,
			"server.url is required",
			"Set it with 'sightline login' or in the config file")
	}

	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" || !strings.HasPrefix(u.Scheme, "http") {
		return errors.New(errors.ErrConfig,
			"server.url is not a valid http(s) URL: "+s.URL,
			"Use a URL like http://pulse.local:7655")
	}

	return nil
}

func validateCharts(c ChartConfig) error {
	if c.Refresh != 0 && c.Refresh < time.Second {
		return errors.New(errors.ErrConfig,
			"charts.refresh is too aggressive: "+c.Refresh.String(),
			"Use at least 1s between history fetches")
	}

	if c.DefaultRange != "" && !timeseries.ValidRange(c.DefaultRange) {
		return errors.New(errors.ErrConfig,
			"charts.default_range is not a known range: "+c.DefaultRange,
			"Use one of: "+strings.Join(timeseries.RangeNames(), ", "))
	}

	if c.MaxPoints < 0 || c.BackendThreshold < 0 {
		return errors.New(errors.ErrConfig,
			"chart limits cannot be negative",
			"Check charts.max_points and charts.backend_threshold")
	}

	return nil
}
