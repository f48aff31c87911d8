package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/taskchat/internal/agent"
	"github.com/taskchat/internal/aiconnectors"
	"github.com/taskchat/internal/api"
	"github.com/taskchat/internal/config"
	"github.com/taskchat/internal/conversation"
	"github.com/taskchat/internal/database"
	"github.com/taskchat/internal/jobqueue"
	"github.com/taskchat/internal/logging"
	"github.com/taskchat/internal/tasks"
)

// ServeCommand runs the API server.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override the configured server port",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Action: func(c *cli.Context) error {
			logging.Setup(c.String("log-level"))

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if c.Int("port") > 0 {
				cfg.Server.Port = c.Int("port")
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			db, err := database.NewDB(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			ctx := context.Background()

			connector, err := aiconnectors.NewConnector(ctx, aiconnectors.ConnectorOptions{
				Provider: aiconnectors.Provider(cfg.AI.Provider),
				APIKey:   cfg.AI.APIKey,
				BaseURL:  cfg.AI.BaseURL,
				ModelConfig: aiconnectors.ModelConfig{
					Model:       cfg.AI.Model,
					Temperature: cfg.AI.Temperature,
					MaxTokens:   cfg.AI.MaxTokens,
				},
			})

			var chatAgent *agent.Agent
			if err != nil {
				log.Warn().Err(err).Msg("AI connector unavailable, chat endpoint will return 503")
			} else {
				chatAgent = agent.New(connector.LLM(), cfg.Agent.MaxToolRounds, connector.CallOptions()...)
			}

			var queue *jobqueue.JobQueue
			if cfg.Jobs.Enabled {
				qcfg := jobqueue.DefaultQueueConfig()
				if cfg.Jobs.MaxWorkers > 0 {
					qcfg.MaxWorkers = cfg.Jobs.MaxWorkers
				}
				queue, err = jobqueue.NewJobQueue(cfg.Database.URL, connector, qcfg)
				if err != nil {
					return fmt.Errorf("failed to create job queue: %w", err)
				}
				if err := queue.Start(ctx); err != nil {
					return fmt.Errorf("failed to start job queue: %w", err)
				}
				log.Info().Int("max_workers", qcfg.MaxWorkers).Msg("Job queue started")
			}

			server := api.NewServer(api.Options{
				DB:        db,
				Config:    cfg,
				TaskStore: tasks.NewPostgresStore(db),
				ConvStore: conversation.NewPostgresStore(db),
				Agent:     chatAgent,
				JobQueue:  queue,
			})

			log.Info().Int("port", cfg.Server.Port).Msg("Starting API server")
			return server.Start()
		},
	}
}
