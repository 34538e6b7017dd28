package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

func noEnv(string) string { return "" }

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig([]string{
		"-brokers=broker-1:9092, ,broker-2:9092",
		"-source-topic=storefront.dlq",
		"-target-topic=storefront.events",
		"-limit=10",
		"-execute",
		"-from-newest",
		"-idle-timeout=3s",
	}, noEnv, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.brokers)
	assert.Equal(t, 10, cfg.limit)
	assert.True(t, cfg.execute)
	assert.True(t, cfg.fromNewest)
	assert.Equal(t, 3*time.Second, cfg.idleTimeout)
	assert.Equal(t, "execute", cfg.mode())
}

func TestParseConfig_Defaults(t *testing.T) {
	env := func(key string) string {
		if key == envKafkaBrokers {
			return "env-broker:9092"
		}
		return ""
	}

	cfg, err := parseConfig(nil, env, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"env-broker:9092"}, cfg.brokers)
	assert.Equal(t, kafka.TopicDeadLetterQueue, cfg.sourceTopic)
	assert.Equal(t, kafka.TopicStorefrontEvents, cfg.targetTopic)
	assert.Equal(t, defaultReplayLimit, cfg.limit)
	assert.Equal(t, defaultIdleTimeout, cfg.idleTimeout)
	assert.Equal(t, "dry-run", cfg.mode())
}

func TestParseConfig_Errors(t *testing.T) {
	tests := map[string]struct {
		args []string
		want string
	}{
		"no brokers":        {args: []string{"-brokers="}, want: "kafka brokers are required"},
		"empty source":      {args: []string{"-brokers=b:9092", "-source-topic= "}, want: "source-topic is required"},
		"empty target":      {args: []string{"-brokers=b:9092", "-target-topic="}, want: "target-topic is required"},
		"same topics":       {args: []string{"-brokers=b:9092", "-target-topic=" + kafka.TopicDeadLetterQueue}, want: "must differ"},
		"zero limit":        {args: []string{"-brokers=b:9092", "-limit=0"}, want: "limit must be > 0"},
		"zero idle timeout": {args: []string{"-brokers=b:9092", "-idle-timeout=0s"}, want: "idle-timeout must be > 0"},
		"unknown flag":      {args: []string{"-nope"}, want: "flag provided but not defined"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseConfig(tt.args, noEnv, io.Discard)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := parseConfig([]string{"-h"}, noEnv, io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestRun_UsesDependencies(t *testing.T) {
	original := newReplayDependencies
	t.Cleanup(func() { newReplayDependencies = original })

	cfg := config{sourceTopic: "storefront.dlq", targetTopic: "storefront.events", limit: 1, idleTimeout: 20 * time.Millisecond}

	newReplayDependencies = func(config) (replayDependencies, error) {
		return replayDependencies{}, errors.New("deps failed")
	}
	assert.ErrorContains(t, run(context.Background(), cfg), "deps failed")

	client := singlePartition(0, 2)
	consumer := &stubConsumerSource{consumers: map[int32]partitionConsumer{
		0: bufferedPartition(dlqMessage(t, 0, 0, "outbox-1", "order-1")),
	}}
	newReplayDependencies = func(config) (replayDependencies, error) {
		return replayDependencies{client: client, consumer: consumer}, nil
	}

	require.NoError(t, run(context.Background(), cfg))
	assert.True(t, client.closed, "client must be closed")
	assert.True(t, consumer.closed, "consumer must be closed")
}

func TestFailExits(t *testing.T) {
	if os.Getenv("DLQ_TEST_FAIL_EXIT") == "1" {
		fail("boom")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFailExits")
	cmd.Env = append(os.Environ(), "DLQ_TEST_FAIL_EXIT=1")
	err := cmd.Run()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.NotZero(t, exitErr.ExitCode())
}
