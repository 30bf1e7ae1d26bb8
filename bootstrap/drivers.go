package bootstrap

import (
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"video-indexer/config"
	"video-indexer/driver"
	"video-indexer/logger"
)

const (
	initMaxRetries = 5
	initRetryDelay = 5 * time.Second
)

// initElasticsearchClient creates the index store client and verifies
// connectivity with retries. The client is a process-wide singleton safe
// for concurrent use.
func initElasticsearchClient(cfg config.SearchConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	logger.Logger.Info("Connecting to Elasticsearch", "addresses", cfg.Addresses)

	for i := range initMaxRetries {
		res, pingErr := client.Info()
		if pingErr == nil && !res.IsError() {
			res.Body.Close()
			logger.Logger.Info("Connected to Elasticsearch successfully")
			return client, nil
		}
		if res != nil {
			res.Body.Close()
		}
		logger.Logger.Warn("Elasticsearch not ready, retrying",
			"attempt", i+1, "max", initMaxRetries, "err", pingErr,
		)
		if i < initMaxRetries-1 {
			time.Sleep(initRetryDelay)
		}
	}
	return nil, fmt.Errorf("failed to connect to Elasticsearch after %d attempts", initMaxRetries)
}

// initBrokerConnection dials the broker with retries. A connection that
// cannot be established at startup is fatal; the process cannot serve
// its sync function without it.
func initBrokerConnection(cfg config.QueueConfig) (*driver.Connection, error) {
	var lastErr error
	for i := range initMaxRetries {
		conn, err := driver.Dial(cfg.URL, logger.Logger)
		if err == nil {
			logger.Logger.Info("Connected to broker successfully")
			return conn, nil
		}
		lastErr = err
		logger.Logger.Warn("broker not ready, retrying",
			"attempt", i+1, "max", initMaxRetries, "err", err,
		)
		if i < initMaxRetries-1 {
			time.Sleep(initRetryDelay)
		}
	}
	return nil, fmt.Errorf("failed to connect to broker after %d attempts: %w", initMaxRetries, lastErr)
}
