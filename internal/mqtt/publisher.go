package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/AnamolZ/weatherly/internal/weather"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool

	mu        sync.Mutex
	announced map[string]bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		enabled:     true,
		announced:   make(map[string]bool),
	}, nil
}

// LocationSlug turns "Kathmandu, NP" style names into a topic segment.
func LocationSlug(s *weather.Snapshot) string {
	name := strings.ToLower(strings.TrimSpace(s.Name))
	if s.Country != "" {
		name += "_" + strings.ToLower(s.Country)
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// Topics maps each state topic to its payload for one snapshot.
func (p *Publisher) Topics(s *weather.Snapshot) map[string]string {
	base := fmt.Sprintf("%s/%s", p.topicPrefix, LocationSlug(s))
	return map[string]string{
		base + "/temperature": fmt.Sprintf("%.1f", s.Temperature),
		base + "/humidity":    fmt.Sprintf("%d", s.Humidity),
		base + "/wind_speed":  fmt.Sprintf("%g", s.WindSpeed),
		base + "/description": s.Description,
		base + "/icon":        string(weather.SelectIcon(s.Description)),
	}
}

func (p *Publisher) Publish(s *weather.Snapshot) error {
	if !p.enabled {
		return nil
	}

	p.mu.Lock()
	slug := LocationSlug(s)
	first := !p.announced[slug]
	p.announced[slug] = true
	p.mu.Unlock()
	if first {
		p.PublishHomeAssistantDiscovery(s)
	}

	for topic, payload := range p.Topics(s) {
		token := p.client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	statusJSON, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	statusTopic := fmt.Sprintf("%s/%s/status", p.topicPrefix, slug)
	token := p.client.Publish(statusTopic, 0, true, statusJSON)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish status: %w", token.Error())
	}

	return nil
}

// PublishHomeAssistantDiscovery announces the sensors of one location.
func (p *Publisher) PublishHomeAssistantDiscovery(s *weather.Snapshot) error {
	if !p.enabled {
		return nil
	}

	slug := LocationSlug(s)
	sensors := []struct {
		Name        string
		ID          string
		Unit        string
		DeviceClass string
	}{
		{"Temperature", "temperature", "°C", "temperature"},
		{"Humidity", "humidity", "%", "humidity"},
		{"Wind Speed", "wind_speed", "m/s", "wind_speed"},
		{"Condition", "description", "", ""},
	}

	for _, sensor := range sensors {
		discoveryTopic := fmt.Sprintf("homeassistant/sensor/weatherly_%s/%s/config", slug, sensor.ID)

		config := map[string]interface{}{
			"name":        fmt.Sprintf("%s %s", s.Name, sensor.Name),
			"unique_id":   fmt.Sprintf("weatherly_%s_%s", slug, sensor.ID),
			"state_topic": fmt.Sprintf("%s/%s/%s", p.topicPrefix, slug, sensor.ID),
			"device": map[string]interface{}{
				"identifiers":  []string{"weatherly_" + slug},
				"name":         fmt.Sprintf("Weatherly %s, %s", s.Name, s.Country),
				"manufacturer": "Weatherly",
			},
		}
		if sensor.Unit != "" {
			config["unit_of_measurement"] = sensor.Unit
		}
		if sensor.DeviceClass != "" {
			config["device_class"] = sensor.DeviceClass
		}

		payload, _ := json.Marshal(config)
		token := p.client.Publish(discoveryTopic, 0, true, payload)
		token.Wait()
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
