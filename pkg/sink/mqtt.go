package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/itohio/restroom/pkg/config"
	"github.com/itohio/restroom/pkg/monitor"
)

// CommandCalibrate is the payload on the command topic that requests a gas
// sensor calibration.
const CommandCalibrate = "calibrate"

// MQTT publishes snapshots as JSON and reports as text:
//
//	<prefix>/<device>/snapshot
//	<prefix>/<device>/report
//
// and listens for commands on <prefix>/<device>/cmd.
type MQTT struct {
	client mqtt.Client
	prefix string
	device string
	qos    byte
}

var _ Sink = (*MQTT)(nil)

// NewMQTT connects to the broker, retrying with exponential backoff.
func NewMQTT(cfg config.MQTTConfig, device string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID + "-" + device)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)

	m := &MQTT{
		prefix: strings.TrimSuffix(cfg.TopicPrefix, "/"),
		device: device,
		qos:    cfg.QoS,
	}
	// Retained offline status, cleared once the first snapshot is published.
	opts.SetWill(m.topic("status"), "offline", cfg.QoS, true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("Failed to connect to MQTT broker: %v", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithMaxRetries(bo, cfg.ConnectRetries))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}
	log.Printf("Connected to MQTT broker at %s", cfg.Broker)

	m.client = client
	return m, nil
}

func (m *MQTT) Name() string { return "mqtt" }

func (m *MQTT) topic(leaf string) string {
	return m.prefix + "/" + m.device + "/" + leaf
}

// Publish sends the snapshot and its text report.
func (m *MQTT) Publish(ctx context.Context, s monitor.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := m.publish(ctx, m.topic("snapshot"), false, payload); err != nil {
		return err
	}
	if s.Report != "" {
		if err := m.publish(ctx, m.topic("report"), false, []byte(s.Report)); err != nil {
			return err
		}
	}
	return m.publish(ctx, m.topic("status"), true, []byte("online"))
}

func (m *MQTT) publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	token := m.client.Publish(topic, m.qos, retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// OnCommand subscribes to the command topic. fn receives the trimmed payload.
func (m *MQTT) OnCommand(fn func(cmd string)) error {
	token := m.client.Subscribe(m.topic("cmd"), m.qos, func(_ mqtt.Client, msg mqtt.Message) {
		fn(strings.TrimSpace(string(msg.Payload())))
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", m.topic("cmd"), token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	if m.client.IsConnected() {
		m.client.Disconnect(250)
		log.Println("MQTT client disconnected")
	}
	return nil
}
