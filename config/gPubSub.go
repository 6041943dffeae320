package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// LedgerEventMessage is the payload published for every transaction change.
// DateKey is the local business day the change lands on (YYYY-MM-DD).
type LedgerEventMessage struct {
	ID            int    `json:"id"`
	ClientId      string `json:"client_id"`
	DateKey       string `json:"date_key"`
	ReferenceId   int    `json:"reference_id"`
	ReferenceType string `json:"reference_type"`
	Action        string `json:"action"`
	CorrelationId string `json:"correlation_id"`
}

// PushEnvelope is the body Pub/Sub push subscriptions POST to /pubsub.
type PushEnvelope struct {
	Message struct {
		Data      []byte `json:"data,omitempty"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func getPubSubProjectID() string {
	if v := GetSettings().PubSub.ProjectId; v != "" {
		return v
	}
	// Cloud Run sets this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

// GetPubSubClient returns a Pub/Sub client, initializing with retries if needed.
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is provided.
func GetPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}
	credJSON := GetSettings().PubSub.CredentialsJSON

	var attempt int
	for {
		attempt++
		var opts []option.ClientOption
		if credJSON != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
		}
		c, err := pubsub.NewClient(ctx, projectID, opts...)
		if err == nil {
			pubsubClientMu.Lock()
			if pubsubClient == nil {
				pubsubClient = c
			} else {
				// lost the race
				_ = c.Close()
			}
			c2 := pubsubClient
			pubsubClientMu.Unlock()
			log.Printf("pubsub client ready (project_id=%s attempt=%d)", projectID, attempt)
			return c2, nil
		}
		if attempt >= 5 {
			return nil, fmt.Errorf("init pubsub client: %w", err)
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		log.Printf("failed to init pubsub client (project_id=%s attempt=%d): %v; retrying in %s", projectID, attempt, err, sleep)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

func CreateTopicIfNotExists(ctx context.Context, c *pubsub.Client, topic string) (*pubsub.Topic, error) {
	if c == nil {
		return nil, errors.New("pubsub client is nil")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	t := c.Topic(topic)
	ok, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return t, nil
	}
	t, err = c.CreateTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("create topic %q: %w", topic, err)
	}
	return t, nil
}

// PublishLedgerEventWithResult publishes and returns the Pub/Sub server-assigned message ID.
// Messages are ordered per client.
func PublishLedgerEventWithResult(ctx context.Context, msg LedgerEventMessage) (string, error) {
	client, err := GetPubSubClient(ctx)
	if err != nil {
		return "", err
	}
	topicName := GetSettings().PubSub.Topic
	if topicName == "" {
		return "", errors.New("PUBSUB_TOPIC is required")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	t := client.Topic(topicName)
	t.EnableMessageOrdering = true
	result := t.Publish(ctx, &pubsub.Message{
		Data:        data,
		OrderingKey: msg.ClientId,
		Attributes: map[string]string{
			"client_id":      msg.ClientId,
			"correlation_id": msg.CorrelationId,
		},
	})
	return result.Get(ctx)
}

// DecodePushEnvelope unwraps a push request body into the ledger event it carries.
func DecodePushEnvelope(body []byte) (PushEnvelope, LedgerEventMessage, error) {
	var env PushEnvelope
	var msg LedgerEventMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return env, msg, fmt.Errorf("decode push envelope: %w", err)
	}
	if len(env.Message.Data) == 0 {
		return env, msg, errors.New("push envelope has no data")
	}
	if err := json.Unmarshal(env.Message.Data, &msg); err != nil {
		return env, msg, fmt.Errorf("decode ledger event: %w", err)
	}
	return env, msg, nil
}
