package publisher

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-json-experiment/json"
	"github.com/google/uuid"

	"github.com/jgoulah/waterdash/internal/config"
	"github.com/jgoulah/waterdash/internal/filter"
)

// Publisher sends filtered-view summaries to MQTT and Home Assistant
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	haConfig    config.HAConfig
	httpClient  *http.Client
}

// New creates a new publisher (supports both MQTT and HA HTTP API)
func New(mqttCfg config.MQTTConfig, topicPrefix string, haCfg config.HAConfig) (*Publisher, error) {
	// Validate HA config if enabled
	if haCfg.Enabled {
		if haCfg.URL == "" {
			return nil, fmt.Errorf("Home Assistant URL is required when enabled")
		}
		if haCfg.Token == "" {
			return nil, fmt.Errorf("Home Assistant token is required when enabled")
		}
		if haCfg.EntityID == "" {
			return nil, fmt.Errorf("Home Assistant entity_id is required when enabled")
		}
	}

	var client mqtt.Client
	if mqttCfg.Enabled {
		if mqttCfg.Broker == "" {
			return nil, fmt.Errorf("MQTT broker address is required when enabled")
		}

		// Configure MQTT client options
		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
		opts.SetClientID("waterdash-" + uuid.NewString()[:8])
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)

		if mqttCfg.Username != "" {
			opts.SetUsername(mqttCfg.Username)
		}
		if mqttCfg.Password != "" {
			opts.SetPassword(mqttCfg.Password)
		}

		// Create and connect client
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
		}
	}

	return &Publisher{
		client:      client,
		topicPrefix: topicPrefix,
		haConfig:    haCfg,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Enabled reports whether at least one destination is configured
func (p *Publisher) Enabled() bool {
	return p.client != nil || p.haConfig.Enabled
}

// Message is the retained MQTT payload describing a filtered view
type Message struct {
	SnapshotID string         `json:"snapshot_id,omitempty"`
	Source     string         `json:"source"`
	Summary    filter.Summary `json:"summary"`
	Published  string         `json:"published_at"`
}

// HAPayload matches the Home Assistant state API body
type HAPayload struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// SummaryTopic returns the MQTT topic summaries are published on
func (p *Publisher) SummaryTopic() string {
	return p.topicPrefix + "/summary"
}

// Publish sends a summary to every enabled destination
func (p *Publisher) Publish(msg Message) error {
	if !p.Enabled() {
		return fmt.Errorf("no publish destination is enabled in config")
	}
	if msg.Published == "" {
		msg.Published = time.Now().UTC().Format(time.RFC3339)
	}

	if p.client != nil {
		if err := p.publishMQTT(msg); err != nil {
			return err
		}
	}
	if p.haConfig.Enabled {
		if err := p.publishHA(msg); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishMQTT(msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	token := p.client.Publish(p.SummaryTopic(), 1, true, body)
	if !token.WaitTimeout(10*time.Second) {
		return fmt.Errorf("publishing to %s: timed out", p.SummaryTopic())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.SummaryTopic(), err)
	}
	return nil
}

// BuildHAPayload converts a message into a Home Assistant state update.
// The state is the total consumption in liters.
func BuildHAPayload(msg Message) HAPayload {
	s := msg.Summary
	attrs := map[string]any{
		"unit_of_measurement": "L",
		"friendly_name":       "Filtered Water Consumption",
		"rows":                s.Rows,
		"users":               s.Users,
		"devices":             s.Devices,
		"anomalies":           s.Anomalies,
		"at_home_share":       fmt.Sprintf("%.3f", s.AtHomeShare),
		"source":              msg.Source,
	}
	if msg.SnapshotID != "" {
		attrs["snapshot_id"] = msg.SnapshotID
	}
	if !s.First.IsZero() {
		attrs["first"] = s.First.Format(time.RFC3339)
		attrs["last"] = s.Last.Format(time.RFC3339)
	}

	return HAPayload{
		State:      fmt.Sprintf("%.2f", s.ConsumeSum),
		Attributes: attrs,
	}
}

func (p *Publisher) publishHA(msg Message) error {
	apiURL := fmt.Sprintf("%s/api/states/%s", p.haConfig.URL, p.haConfig.EntityID)

	body, err := json.Marshal(BuildHAPayload(msg))
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequest("POST", apiURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	// HA answers 201 for a new entity and 200 for an update
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
