package main

import (
	"fmt"
	"os"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/listen"
)

// AppConfig is the configuration of keeperd.
type AppConfig struct {
	// Daemon holds the runtime settings shared by every keeper daemon.
	Daemon config.Settings `yaml:"daemon" toml:"daemon" json:"daemon"`

	// Listen lists the TCP greeting endpoints.
	Listen []listen.Endpoint `yaml:"listen" toml:"listen" json:"listen"`

	// ListenUDP lists the UDP greeting endpoints. Any datagram is answered
	// with the message.
	ListenUDP []listen.Endpoint `yaml:"listen_udp" toml:"listen_udp" json:"listen_udp"`

	// Message is written to every connection.
	Message string `yaml:"message" toml:"message" json:"message" required:"true"`
}

func defaultAppConfig() AppConfig {
	return AppConfig{Daemon: config.DefaultSettings()}
}

func daemonSettings(c AppConfig) config.Settings { return c.Daemon }

func listenEndpoints(c AppConfig) []listen.Endpoint { return c.Listen }

func udpEndpoints(c AppConfig) []listen.Endpoint { return c.ListenUDP }

// newLoader builds the layered loader from the global flags:
// defaults, then each --config path, then the environment, then --set.
func newLoader() (*config.Loader[AppConfig], error) {
	sources := []config.Source[AppConfig]{config.Defaults(defaultAppConfig)}

	for _, path := range cfgPaths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("config path %s: %w", path, err)
		}
		if info.IsDir() {
			dir := config.Dir[AppConfig](path)
			dir.Strict = strict
			sources = append(sources, dir)
			continue
		}
		file := config.File[AppConfig](path)
		file.Strict = strict
		sources = append(sources, file)
	}

	if envPrefix != "" {
		sources = append(sources, config.Env[AppConfig](envPrefix))
	}
	if len(overrides) > 0 {
		sources = append(sources, config.Overrides[AppConfig](overrides...))
	}
	return config.NewLoader(sources...), nil
}
