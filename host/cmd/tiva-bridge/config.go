package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tivago/host/serial"
)

// Config is the optional YAML file given with -config
type Config struct {
	Serial   serial.Config `yaml:"serial"`
	LogLevel string        `yaml:"log_level"`
	Timeout  string        `yaml:"timeout"`

	// Modules used when a command leaves them out
	SPIModule uint8 `yaml:"spi_module"`
	I2CModule uint8 `yaml:"i2c_module"`
}

func defaultConfig() *Config {
	return &Config{
		Serial:    *serial.DefaultConfig("/dev/ttyACM0"),
		LogLevel:  "info",
		Timeout:   "1s",
		SPIModule: 2,
		I2CModule: 1,
	}
}

// loadConfig reads path over the defaults. Unknown keys are rejected.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
