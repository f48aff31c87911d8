// Package jobqueue provides a River-based job queue for background work
// that must not block chat responses, currently conversation title
// generation. Tunables live in queue_config.go.
package jobqueue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/rs/zerolog/log"

	"github.com/taskchat/internal/aiconnectors"
)

// ConversationTitleJobArgs carries what the worker needs to label a
// conversation after its first exchange.
type ConversationTitleJobArgs struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	FirstMessage   string    `json:"first_message"`
}

// Kind returns the job kind for River
func (ConversationTitleJobArgs) Kind() string {
	return "conversation_title"
}

// ConversationTitleWorker generates a short title for a new conversation
// from its opening message and stores it.
type ConversationTitleWorker struct {
	river.WorkerDefaults[ConversationTitleJobArgs]
	pool      *pgxpool.Pool
	connector *aiconnectors.Connector
	config    *QueueConfig
}

// Timeout bounds each title generation run; a hung model call gets the
// job rescheduled instead of holding a worker forever.
func (w *ConversationTitleWorker) Timeout(job *river.Job[ConversationTitleJobArgs]) time.Duration {
	return w.config.JobTimeout
}

// Work generates and persists the conversation title.
func (w *ConversationTitleWorker) Work(ctx context.Context, job *river.Job[ConversationTitleJobArgs]) error {
	args := job.Args

	log.Debug().
		Stringer("conversation_id", args.ConversationID).
		Stringer("user_id", args.UserID).
		Msg("Generating conversation title")

	title := w.generateTitle(ctx, args.FirstMessage)

	tag, err := w.pool.Exec(ctx, `
        UPDATE conversations SET title=$1, updated_at=NOW()
        WHERE id=$2 AND user_id=$3 AND deleted=FALSE AND title IS NULL
    `, title, args.ConversationID, args.UserID)
	if err != nil {
		return fmt.Errorf("failed to store conversation title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Conversation already titled or gone; nothing to retry.
		log.Debug().Stringer("conversation_id", args.ConversationID).Msg("Conversation title already set, skipping")
		return nil
	}

	log.Info().
		Stringer("conversation_id", args.ConversationID).
		Str("title", title).
		Msg("Conversation title generated")
	return nil
}

// generateTitle asks the model for a short label, falling back to a
// truncation of the first message when the model is unavailable.
func (w *ConversationTitleWorker) generateTitle(ctx context.Context, firstMessage string) string {
	if w.connector != nil {
		prompt := fmt.Sprintf(
			"Write a title of at most five words for a conversation that starts with the following message. Reply with the title only, no quotes.\n\nMessage: %s",
			firstMessage,
		)
		raw, err := w.connector.Call(ctx, prompt)
		if err == nil {
			title := strings.Trim(strings.TrimSpace(raw), `"'`)
			title = strings.ReplaceAll(title, "\n", " ")
			if title != "" && len(title) <= w.config.MaxTitleLength {
				return title
			}
		} else {
			log.Warn().Err(err).Msg("Title generation call failed, falling back to truncation")
		}
	}

	return truncateTitle(firstMessage, w.config.MaxTitleLength)
}

func truncateTitle(s string, max int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}

// JobQueue manages the River job queue
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// NewJobQueue creates a new job queue instance. The connector may be nil;
// titles then fall back to truncation.
func NewJobQueue(databaseURL string, connector *aiconnectors.Connector, config *QueueConfig) (*JobQueue, error) {
	if config == nil {
		config = DefaultQueueConfig()
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &ConversationTitleWorker{
		pool:      pool,
		connector: connector,
		config:    config,
	})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:      config.RiverQueueConfig(),
		Workers:     workers,
		MaxAttempts: config.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Start starts the job queue workers
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers and closes the pool
func (jq *JobQueue) Stop(ctx context.Context) error {
	err := jq.client.Stop(ctx)
	jq.pool.Close()
	return err
}

// QueueTitleJob queues a conversation title generation job
func (jq *JobQueue) QueueTitleJob(ctx context.Context, conversationID, userID uuid.UUID, firstMessage string) error {
	args := ConversationTitleJobArgs{
		ConversationID: conversationID,
		UserID:         userID,
		FirstMessage:   firstMessage,
	}

	_, err := jq.client.Insert(ctx, args, nil)
	if err != nil {
		return fmt.Errorf("failed to queue conversation title job: %w", err)
	}

	return nil
}
