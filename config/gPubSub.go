package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// LoadCompletedMessage is published on INGEST_TOPIC after a load commits.
type LoadCompletedMessage struct {
	RunId         string `json:"run_id"`
	Module        string `json:"module"`
	Table         string `json:"table"`
	SourceFile    string `json:"source_file"`
	Inserted      int    `json:"inserted"`
	Duplicates    int    `json:"duplicates"`
	Errors        int    `json:"errors"`
	LoadedAt      string `json:"loaded_at"`
	CorrelationId string `json:"correlation_id"`
}

// Publisher publishes ingest notifications to one Pub/Sub topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPublisher returns nil, nil when projectID or topic is empty (notifications disabled).
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is provided.
func NewPublisher(ctx context.Context, projectID, topic string) (*Publisher, error) {
	if projectID == "" || topic == "" {
		return nil, nil
	}

	var (
		c   *pubsub.Client
		err error
	)
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("pubsub client (project_id=%s): %w", projectID, err)
	}
	return &Publisher{client: c, topic: c.Topic(topic)}, nil
}

// PublishLoadCompleted publishes msg and returns the server-assigned message ID.
func (p *Publisher) PublishLoadCompleted(ctx context.Context, msg LoadCompletedMessage) (string, error) {
	if p == nil {
		return "", errors.New("pubsub publisher is nil")
	}
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: msgJSON,
		Attributes: map[string]string{
			"module": msg.Module,
			"table":  msg.Table,
		},
	})
	return result.Get(ctx)
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.topic.Stop()
	return p.client.Close()
}
