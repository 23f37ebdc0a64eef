//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"web_summarizer/internal/domain"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	cfg := RabbitMQConfig{
		URL:        s.amqpURL,
		Exchange:   "test-exchange",
		RoutingKey: "test-routing-key",
		QueueName:  "test-queue",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.NoError(err)
	s.NotNil(pub)

	err = pub.Close()
	s.NoError(err)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishSummary() {
	cfg := RabbitMQConfig{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-summary",
		RoutingKey: "test-routing-key-summary",
		QueueName:  "test-queue-summary",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	summary := &domain.PendingSummary{
		Token:           "d8b6f5a0-8a15-4a8b-a43c-16ce9c9f6de7",
		OriginalURL:     "https://example.com/article",
		SummaryHTML:     "<h1>Title</h1>",
		SummaryMarkdown: "# Title",
	}

	err = pub.Publish(s.ctx, summary, domain.KindWebPage)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)
	s.Equal("application/json", msg.ContentType)
	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)

	var received SummaryMessage
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)
	s.Equal("summarized", received.Action)
	s.Equal("https://example.com/article", received.URL)
	s.Equal(domain.KindWebPage, received.Kind)
	s.Equal("# Title", received.SummaryMarkdown)
	s.False(received.Timestamp.IsZero())

	// The one-time token must not leak onto the wire.
	s.NotContains(string(msg.Body), summary.Token)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_YouTubeKind() {
	cfg := RabbitMQConfig{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-youtube",
		RoutingKey: "test-routing-key-youtube",
		QueueName:  "test-queue-youtube",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	summary := &domain.PendingSummary{
		OriginalURL:     "https://youtu.be/dQw4w9WgXcQ",
		SummaryMarkdown: "- point one",
	}

	err = pub.Publish(s.ctx, summary, domain.KindYouTubeVideo)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)

	var received SummaryMessage
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)
	s.Equal(domain.KindYouTubeVideo, received.Kind)
	s.Equal("https://youtu.be/dQw4w9WgXcQ", received.URL)
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg RabbitMQConfig) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
