package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/samcharles93/tokenloop/internal/api"
	"github.com/samcharles93/tokenloop/internal/logger"
	"github.com/urfave/cli/v3"
)

func serveCmd() *cli.Command {
	var (
		mf          modelFlags
		addr        string
		readTimeout time.Duration
		rateLimit   float64
		burst       int
		storeSize   int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the generation REST API",
		Flags: append(mf.flags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Float64Flag{
				Name:        "rate",
				Usage:       "requests per second across all clients (0 = unlimited)",
				Destination: &rateLimit,
			},
			&cli.IntFlag{
				Name:        "burst",
				Usage:       "rate limiter burst size",
				Value:       4,
				Destination: &burst,
			},
			&cli.IntFlag{
				Name:        "store-size",
				Usage:       "finished generations kept for retrieval (0 = unbounded)",
				Value:       1024,
				Destination: &storeSize,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, fileConfig, &addr, &rateLimit)

			registry, err := newRegistry(&mf, fileConfig)
			if err != nil {
				return err
			}
			service := api.NewGenerationService(registry, toyModelName, log.With("component", "api"))
			server := api.NewServer(api.NewGenerationStore(storeSize), service)

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			e.Use(api.RateLimit(rateLimit, burst))
			server.Register(e)

			log.Info("starting server", "address", addr, "model", toyModelName, "rate", rateLimit)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
