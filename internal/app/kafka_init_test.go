package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitKafkaProducer_NoBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	producer, err := initKafkaProducer(DefaultConfig(), logger)
	if err != nil {
		t.Errorf("expected no error without brokers, got %v", err)
	}
	if producer != nil {
		t.Error("expected nil producer without brokers")
	}
}

func TestInitKafkaProducer_InvalidBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	testCases := []struct {
		name    string
		brokers []string
	}{
		{name: "single", brokers: []string{"invalid-broker:9999"}},
		{name: "multiple", brokers: []string{"broker1:9092", "broker2:9092", "broker3:9092"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.KafkaBrokers = tc.brokers

			producer, err := initKafkaProducer(cfg, logger)
			if err == nil {
				closeKafka(producer, logger)
				t.Skip("kafka broker unexpectedly reachable")
			}
			if producer != nil {
				t.Error("expected nil producer on error")
			}
		})
	}
}

func TestCloseKafka_NilProducer(_ *testing.T) {
	// не должно паниковать
	closeKafka(nil, log.WithField("test", "kafka"))
}
