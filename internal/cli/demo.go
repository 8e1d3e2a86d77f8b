package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sightlinehq/sightline/internal/demoserver"
	"github.com/sightlinehq/sightline/internal/logger"
)

// demoCommand serves the embedded demo backend until interrupted.
func demoCommand(addr, token string, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []demoserver.Option{demoserver.WithSampleInterval(interval)}
	if token != "" {
		opts = append(opts, demoserver.WithToken(token))
	}

	srv := demoserver.New(logger.NewEnvLogger("[demo]"), opts...)
	return srv.Run(ctx, addr)
}
