//go:build integration

package reporting_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	docmodels "catchcert/internal/document/models"
	"catchcert/internal/reporting"
	"catchcert/pkg/testutil/containers"
)

func TestKafkaReporterProducesLandingUpdates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "landing-updates-test"
	reporter, err := reporting.NewKafka(ctx, []string{broker.Broker}, topic)
	require.NoError(t, err)
	defer reporter.Close()

	group := reporting.LandingUpdateGroup{
		DocumentID: "doc-1",
		Claims: []docmodels.LandingClaim{{
			ID:      "c1",
			PLN:     "WA1",
			Species: "HER",
			Weight:  40,
			Status:  docmodels.ClaimPending,
		}},
	}
	require.NoError(t, reporter.ReportLandingUpdate(ctx, group))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "doc-1", string(records[0].Key))

	var decoded reporting.LandingUpdateGroup
	require.NoError(t, json.Unmarshal(records[0].Value, &decoded))
	require.Equal(t, group.DocumentID, decoded.DocumentID)
	require.Len(t, decoded.Claims, 1)
	require.Equal(t, "HER", decoded.Claims[0].Species)
}

// TestKafkaReporterToleratesExistingTopic ensures re-connecting to an already
// created topic does not fail startup.
func TestKafkaReporterToleratesExistingTopic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "landing-updates-existing"
	first, err := reporting.NewKafka(ctx, []string{broker.Broker}, topic)
	require.NoError(t, err)
	first.Close()

	second, err := reporting.NewKafka(ctx, []string{broker.Broker}, topic)
	require.NoError(t, err)
	second.Close()
}
