//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"talenttrack/internal/audit"
	"talenttrack/pkg/testutil/containers"
)

func TestKafkaSink_PublishRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.NewRedpandaContainer(t)

	const topic = "talenttrack.audit"
	sink, err := audit.NewKafkaSink(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	defer sink.Close()

	event := audit.Event{
		Timestamp:  time.Now().UTC().Truncate(time.Millisecond),
		Actor:      audit.SystemActor,
		Action:     audit.ActionCandidateCreated,
		ResponseID: "resp-1",
		Details:    "candidate created from response",
	}
	require.NoError(t, sink.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(pollCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "resp-1", string(records[0].Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, string(audit.ActionCandidateCreated), got["action"])
	require.Equal(t, audit.SystemActor, got["actor"])
	require.Equal(t, "resp-1", got["response_id"])
	// Omitted references must not appear in the export at all.
	require.NotContains(t, got, "candidate_id")
}

func TestNewKafkaSink_IdempotentTopicCreation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.NewRedpandaContainer(t)

	const topic = "talenttrack.audit"
	first, err := audit.NewKafkaSink(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	first.Close()

	// A second sink against the same topic must not fail on the existing
	// topic.
	second, err := audit.NewKafkaSink(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	second.Close()
}
