package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/restroom/pkg/ammonia"
)

// Config represents the application configuration.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Serial   SerialConfig   `yaml:"serial"`
	Pins     PinsConfig     `yaml:"pins"`
	Ammonia  ammonia.Config `yaml:"ammonia"`
	Soap     SoapConfig     `yaml:"soap"`
	Display  DisplayConfig  `yaml:"display"`
	Report   ReportConfig   `yaml:"report"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Influx   InfluxConfig   `yaml:"influx"`
	Telegram TelegramConfig `yaml:"telegram"`
	HTTP     HTTPConfig     `yaml:"http"`
	Mock     MockConfig     `yaml:"mock"`
}

// DeviceConfig identifies the monitor.
type DeviceConfig struct {
	ID string `yaml:"id"` // Generated on first start when empty
	IP string `yaml:"ip"` // Shown on the running screen; detected when empty
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port           string `yaml:"port"`
	BaudRate       int    `yaml:"baud_rate"`
	ConnectRetries uint64 `yaml:"connect_retries"`
}

// PinsConfig mirrors the firmware pin map. The host does not drive pins; the
// values document the wiring of the board the serial link talks to.
type PinsConfig struct {
	Gas      int    `yaml:"gas"`
	LED      int    `yaml:"led"`
	SoapTrig [3]int `yaml:"soap_trig"`
	SoapEcho [3]int `yaml:"soap_echo"`
	Tissue   [2]int `yaml:"tissue"`
	Water    int    `yaml:"water"`
	OLEDSDA  int    `yaml:"oled_sda"`
	OLEDSCL  int    `yaml:"oled_scl"`
	OLEDAddr uint16 `yaml:"oled_addr"`
}

// SoapConfig contains the soap level threshold.
type SoapConfig struct {
	EmptyThresholdCM int32 `yaml:"empty_threshold_cm"`
}

// DisplayConfig selects the screen backend.
type DisplayConfig struct {
	Backend string `yaml:"backend"` // "log" or "none"
}

// ReportConfig contains text report parameters.
type ReportConfig struct {
	Locale string `yaml:"locale"` // "en" or "id"
}

// MonitorConfig contains polling parameters.
type MonitorConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	HistorySize      int           `yaml:"history_size"`
}

// MQTTConfig contains MQTT sink configuration.
type MQTTConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"client_id"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TopicPrefix    string `yaml:"topic_prefix"`
	QoS            byte   `yaml:"qos"`
	ConnectRetries uint64 `yaml:"connect_retries"`
}

// KafkaConfig contains Kafka sink configuration.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// InfluxConfig contains InfluxDB sink configuration.
type InfluxConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
}

// TelegramConfig contains messaging bot configuration.
type TelegramConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Token         string        `yaml:"token"`
	ChatID        int64         `yaml:"chat_id"` // Initial alert target, replaced by the last chat seen
	AlertCooldown time.Duration `yaml:"alert_cooldown"`
	FailThreshold uint32        `yaml:"fail_threshold"`
	OpenTimeout   time.Duration `yaml:"open_timeout"`
}

// HTTPConfig contains the status API configuration.
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// MockConfig contains simulated board configuration.
type MockConfig struct {
	BaselineADC  uint16        `yaml:"baseline_adc"`  // Clean air ADC count
	Noise        float64       `yaml:"noise"`         // ADC noise (counts)
	OdorPeriod   time.Duration `yaml:"odor_period"`   // Time between odor events
	OdorDuration time.Duration `yaml:"odor_duration"` // Length of an odor event
	OdorDepth    float64       `yaml:"odor_depth"`    // ADC rise at the peak of an event
	SoapStartCM  [3]float64    `yaml:"soap_start_cm"` // Initial distance to the soap surface
	SoapDrain    float64       `yaml:"soap_drain"`    // Soap level drop (cm/h)
	SampleRate   time.Duration `yaml:"sample_rate"`   // Frame period
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:           "/dev/ttyUSB0",
			BaudRate:       115200,
			ConnectRetries: 5,
		},
		Pins: PinsConfig{
			Gas:      35,
			LED:      2,
			SoapTrig: [3]int{12, 16, 27},
			SoapEcho: [3]int{14, 17, 33},
			Tissue:   [2]int{18, 5},
			Water:    13,
			OLEDSDA:  26,
			OLEDSCL:  25,
			OLEDAddr: 0x3C,
		},
		Ammonia: ammonia.DefaultConfig(),
		Soap: SoapConfig{
			EmptyThresholdCM: 10,
		},
		Display: DisplayConfig{
			Backend: "log",
		},
		Report: ReportConfig{
			Locale: "en",
		},
		Monitor: MonitorConfig{
			PollInterval:     time.Second,
			SnapshotInterval: 10 * time.Second,
			HistorySize:      720,
		},
		MQTT: MQTTConfig{
			Broker:         "tcp://localhost:1883",
			ClientID:       "restroomd",
			TopicPrefix:    "restroom",
			QoS:            1,
			ConnectRetries: 5,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "restroom.snapshots",
		},
		Influx: InfluxConfig{
			URL:    "http://localhost:8086",
			Org:    "restroom",
			Bucket: "restroom",
		},
		Telegram: TelegramConfig{
			AlertCooldown: 30 * time.Minute,
			FailThreshold: 3,
			OpenTimeout:   time.Minute,
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Addr:    ":8080",
		},
		Mock: MockConfig{
			BaselineADC:  1900,
			Noise:        4,
			OdorPeriod:   20 * time.Minute,
			OdorDuration: 4 * time.Minute,
			OdorDepth:    900,
			SoapStartCM:  [3]float64{3, 5, 8},
			SoapDrain:    0.5,
			SampleRate:   100 * time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	c.Ammonia.EnsureDefaults()

	if c.Soap.EmptyThresholdCM == 0 {
		c.Soap.EmptyThresholdCM = def.Soap.EmptyThresholdCM
	}
	if c.Display.Backend == "" {
		c.Display.Backend = def.Display.Backend
	}
	if c.Report.Locale == "" {
		c.Report.Locale = def.Report.Locale
	}

	if c.Monitor.PollInterval == 0 {
		c.Monitor.PollInterval = def.Monitor.PollInterval
	}
	if c.Monitor.SnapshotInterval == 0 {
		c.Monitor.SnapshotInterval = def.Monitor.SnapshotInterval
	}
	if c.Monitor.HistorySize == 0 {
		c.Monitor.HistorySize = def.Monitor.HistorySize
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = def.MQTT.TopicPrefix
	}
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = def.Kafka.Brokers
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = def.Kafka.Topic
	}
	if c.Influx.URL == "" {
		c.Influx.URL = def.Influx.URL
	}
	if c.Influx.Bucket == "" {
		c.Influx.Bucket = def.Influx.Bucket
	}

	if c.Telegram.AlertCooldown == 0 {
		c.Telegram.AlertCooldown = def.Telegram.AlertCooldown
	}
	if c.Telegram.FailThreshold == 0 {
		c.Telegram.FailThreshold = def.Telegram.FailThreshold
	}
	if c.Telegram.OpenTimeout == 0 {
		c.Telegram.OpenTimeout = def.Telegram.OpenTimeout
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}

	if c.Mock.BaselineADC == 0 {
		c.Mock.BaselineADC = def.Mock.BaselineADC
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.OdorPeriod == 0 {
		c.Mock.OdorPeriod = def.Mock.OdorPeriod
	}
	if c.Mock.OdorDuration == 0 {
		c.Mock.OdorDuration = def.Mock.OdorDuration
	}
}
