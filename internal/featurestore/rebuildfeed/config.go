package rebuildfeed

import (
	"os"
	"strings"
	"time"
)

// Config mirrors pkg/invalidation/kafka's InvalidationConfig shape,
// trimmed to the fields a rebuild-generation feed actually needs: no
// per-message TLS/SASL override, since the broker connection here is
// cluster-internal.
type Config struct {
	Enabled bool

	Brokers []string
	Topic   string
	GroupID string

	SessionTimeout   time.Duration
	Heartbeat        time.Duration
	RebalanceTimeout time.Duration
	InitialOldest    bool
}

func FromEnv() Config {
	enabled := strings.ToLower(os.Getenv("REBUILD_FEED_ENABLED")) == "true"
	brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokers == "" {
		brokers = "localhost:9092"
	}
	topic := strings.TrimSpace(os.Getenv("KAFKA_REBUILD_TOPIC"))
	if topic == "" {
		topic = "dggs-rebuilds"
	}
	group := strings.TrimSpace(os.Getenv("KAFKA_REBUILD_GROUP_ID"))
	if group == "" {
		group = "dggs-engine"
	}

	return Config{
		Enabled:          enabled,
		Brokers:          split(brokers),
		Topic:            topic,
		GroupID:          group,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		InitialOldest:    false,
	}
}

func split(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
