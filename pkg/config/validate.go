package config

import (
	"fmt"
	"net/url"

	"github.com/DeBrosOfficial/overlay/pkg/config/validate"
	"github.com/DeBrosOfficial/overlay/pkg/protocol"
	"github.com/DeBrosOfficial/overlay/pkg/transport"
)

// ValidationError represents a single validation error with context.
type ValidationError = validate.ValidationError

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateClient()...)
	errs = append(errs, c.validateSession()...)
	errs = append(errs, c.validatePush()...)
	errs = append(errs, c.validateRelay()...)
	errs = append(errs, validate.ValidateLogging(validate.LoggingConfig{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		OutputFile: c.Logging.OutputFile,
	})...)
	errs = append(errs, c.validateMetrics()...)

	return errs
}

func (c *Config) validateClient() []error {
	var errs []error

	if _, err := transport.ParseEndpoint(c.Client.Endpoint); err != nil {
		errs = append(errs, ValidationError{
			Path:    "client.endpoint",
			Message: err.Error(),
			Hint:    "expected ws://host:port/path or wss://host/path",
		})
	}
	if c.Client.ReconnectDelayStep < 0 {
		errs = append(errs, ValidationError{
			Path:    "client.reconnect_delay_step",
			Message: "must not be negative",
		})
	}

	return errs
}

func (c *Config) validateSession() []error {
	var errs []error
	sc := c.Session

	switch sc.Store {
	case StoreNone, StoreFile, StoreSQLite:
	default:
		errs = append(errs, ValidationError{
			Path:    "session.store",
			Message: fmt.Sprintf("invalid value %q", sc.Store),
			Hint:    "allowed values: none, file, sqlite",
		})
	}

	if sc.Path != "" && sc.Store != StoreNone {
		if err := validate.ValidateParentWritable(sc.Path); err != nil {
			errs = append(errs, ValidationError{
				Path:    "session.path",
				Message: err.Error(),
			})
		}
	}

	seen := make(map[string]bool)
	for i, topic := range sc.Topics {
		path := fmt.Sprintf("session.topics[%d]", i)
		if err := protocol.ValidateTopic(topic); err != nil {
			errs = append(errs, ValidationError{Path: path, Message: err.Error()})
			continue
		}
		if seen[topic] {
			errs = append(errs, ValidationError{Path: path, Message: "duplicate topic"})
		}
		seen[topic] = true
	}

	return errs
}

func (c *Config) validatePush() []error {
	var errs []error

	if c.Push.NodeURL != "" {
		u, err := url.Parse(c.Push.NodeURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Path:    "push.node_url",
				Message: fmt.Sprintf("invalid URL %q", c.Push.NodeURL),
				Hint:    "expected http://host:port/ or https://host/",
			})
		}
	}
	if c.Push.Timeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "push.timeout",
			Message: "must not be negative",
		})
	}

	return errs
}

func (c *Config) validateRelay() []error {
	var errs []error

	if err := validate.ValidateListenAddr(c.Relay.ListenAddr); err != nil {
		errs = append(errs, ValidationError{
			Path:    "relay.listen_addr",
			Message: err.Error(),
			Hint:    "e.g. :7400 or 127.0.0.1:7400",
		})
	}
	if c.Relay.MaxFrameSize < protocol.MinMessageSize {
		errs = append(errs, ValidationError{
			Path:    "relay.max_frame_size",
			Message: fmt.Sprintf("must be at least %d bytes", protocol.MinMessageSize),
		})
	}

	return errs
}

func (c *Config) validateMetrics() []error {
	if !c.Metrics.Enabled {
		return nil
	}
	if err := validate.ValidateListenAddr(c.Metrics.ListenAddr); err != nil {
		return []error{ValidationError{
			Path:    "metrics.listen_addr",
			Message: err.Error(),
		}}
	}
	return nil
}
