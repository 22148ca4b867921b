package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"empathy-server/pkg/metrics"
)

// AMQPConfig holds AMQP sink configuration.
type AMQPConfig struct {
	URL        string
	QueueName  string
	Exchange   string
	RoutingKey string
}

// AMQPNotifier publishes events to an AMQP queue. The queue is declared
// durable and messages are published persistent so events survive a
// broker restart.
type AMQPNotifier struct {
	logger    *logrus.Logger
	config    AMQPConfig
	conn      *amqp.Connection
	channel   *amqp.Channel
	connected bool
	connMutex sync.RWMutex
	stopChan  chan struct{}
}

// NewAMQPNotifier creates an AMQP sink. Call Connect before sending.
func NewAMQPNotifier(logger *logrus.Logger, config AMQPConfig) *AMQPNotifier {
	if config.RoutingKey == "" {
		config.RoutingKey = config.QueueName
	}
	return &AMQPNotifier{
		logger:   logger,
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Name implements Notifier.
func (c *AMQPNotifier) Name() string { return "amqp" }

// Enabled implements Notifier.
func (c *AMQPNotifier) Enabled() bool {
	return c.config.URL != "" && c.config.QueueName != ""
}

// Connect establishes a connection to the AMQP server and declares the
// event queue.
func (c *AMQPNotifier) Connect() error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.connected {
		return nil
	}

	if !c.Enabled() {
		c.logger.Warn("AMQP_URL or AMQP_QUEUE_NAME not set, AMQP notifications will be disabled")
		return ErrNotConfigured
	}

	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP server: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		c.config.QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare AMQP queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	c.connected = true
	c.stopChan = make(chan struct{})

	c.logger.WithFields(logrus.Fields{
		"queue": c.config.QueueName,
	}).Info("Connected to AMQP server")

	go c.monitorConnection()

	return nil
}

// Disconnect closes the AMQP connection.
func (c *AMQPNotifier) Disconnect() {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if !c.connected {
		return
	}

	close(c.stopChan)

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}

	c.connected = false
	c.logger.Info("Disconnected from AMQP server")
}

// IsConnected returns the connection status.
func (c *AMQPNotifier) IsConnected() bool {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()
	return c.connected
}

// Send implements Notifier. The event is published as persistent JSON;
// a lost connection is reported as a delivery failure and the monitor
// goroutine handles reconnecting.
func (c *AMQPNotifier) Send(ctx context.Context, event Event) error {
	if !c.Enabled() {
		return nil
	}
	if !c.IsConnected() {
		metrics.RecordNotification(c.Name(), "failure")
		return fmt.Errorf("%w: not connected to AMQP server", ErrDeliveryFailed)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal AMQP event: %w", err)
	}

	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	if !c.connected || c.channel == nil {
		metrics.RecordNotification(c.Name(), "failure")
		return fmt.Errorf("%w: lost AMQP connection before publishing", ErrDeliveryFailed)
	}

	err = c.channel.Publish(
		c.config.Exchange,
		c.config.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		metrics.RecordNotification(c.Name(), "failure")
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	metrics.RecordNotification(c.Name(), "success")
	c.logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"user_id":    event.UserID,
	}).Debug("Published event to AMQP")
	return nil
}

// monitorConnection watches for a closed connection and reconnects with
// exponential backoff.
func (c *AMQPNotifier) monitorConnection() {
	closeChan := make(chan *amqp.Error)

	c.connMutex.RLock()
	if c.conn != nil {
		c.conn.NotifyClose(closeChan)
	}
	c.connMutex.RUnlock()

	for {
		select {
		case <-c.stopChan:
			return
		case closeErr := <-closeChan:
			c.connMutex.Lock()
			c.connected = false
			c.connMutex.Unlock()

			c.logger.WithError(closeErr).Warn("AMQP connection closed, attempting to reconnect")

			for attempt := 1; attempt <= 10; attempt++ {
				if err := c.Connect(); err == nil {
					c.logger.Info("Successfully reconnected to AMQP server")
					return
				} else {
					c.logger.WithError(err).WithField("attempt", attempt).Error("Failed to reconnect to AMQP server")
				}

				backoff := time.Duration(1<<uint(attempt-1)) * time.Second
				if backoff > 30*time.Second {
					backoff = 30 * time.Second
				}
				time.Sleep(backoff)
			}
			return
		}
	}
}
