package jobqueue

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/stretchr/testify/assert"
)

func TestConversationTitleJobArgs_Kind(t *testing.T) {
	assert.Equal(t, "conversation_title", ConversationTitleJobArgs{}.Kind())
}

func TestWorkerTimeout(t *testing.T) {
	w := &ConversationTitleWorker{config: DefaultQueueConfig()}

	assert.Equal(t, time.Minute, w.Timeout(nil))

	cfg := DefaultQueueConfig()
	cfg.JobTimeout = 30 * time.Second
	w = &ConversationTitleWorker{config: cfg}
	assert.Equal(t, 30*time.Second, w.Timeout(nil))
}

func TestRiverQueueConfig(t *testing.T) {
	cfg := DefaultQueueConfig()
	cfg.MaxWorkers = 7

	queues := cfg.RiverQueueConfig()
	assert.Equal(t, 7, queues[river.QueueDefault].MaxWorkers)
}

func TestGenerateTitle_NilConnectorTruncates(t *testing.T) {
	w := &ConversationTitleWorker{config: DefaultQueueConfig()}

	title := w.generateTitle(context.Background(), "short message")
	assert.Equal(t, "short message", title)

	long := strings.Repeat("remind me about the dentist ", 10)
	title = w.generateTitle(context.Background(), long)
	assert.LessOrEqual(t, len(title), w.config.MaxTitleLength)
	assert.True(t, strings.HasSuffix(title, "..."))
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "plan the trip", truncateTitle("plan the trip\n", 80))
	assert.Equal(t, "one two...", truncateTitle("one two three", 10))
}
