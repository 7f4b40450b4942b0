package model

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/hay-kot/criterio"
)

// Validate checks the configuration for structural errors. It returns
// criterio.FieldErrors describing every invalid field.
func (c *AppConfig) Validate() error {
	return criterio.ValidateStruct(
		c.validateAI(),
		c.validateServer(),
		c.validateIntake(),
		criterio.Run("display.markdown_style", c.Display.MarkdownStyle, isMarkdownStyle),
	)
}

func (c *AppConfig) validateAI() error {
	var errs criterio.FieldErrorsBuilder

	if err := isHTTPURL(c.AI.BaseURL); err != nil {
		errs = errs.Append("ai.base_url", err)
	}
	if c.AI.Model == "" {
		errs = errs.Append("ai.model", fmt.Errorf("must not be empty"))
	}
	if c.AI.TimeoutSec < 0 {
		errs = errs.Append("ai.timeout_sec", fmt.Errorf("must not be negative"))
	}

	return errs.ToError()
}

func (c *AppConfig) validateServer() error {
	var errs criterio.FieldErrorsBuilder

	if c.Server.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
			errs = errs.Append("server.addr", fmt.Errorf("invalid listen address %q: %w", c.Server.Addr, err))
		}
	}

	return errs.ToError()
}

func (c *AppConfig) validateIntake() error {
	if !c.Intake.Enabled {
		return nil
	}

	var errs criterio.FieldErrorsBuilder

	if c.Intake.Host == "" {
		errs = errs.Append("intake.host", fmt.Errorf("required when intake is enabled"))
	}
	if c.Intake.Username == "" {
		errs = errs.Append("intake.username", fmt.Errorf("required when intake is enabled"))
	}
	if port, err := strconv.Atoi(c.Intake.Port); err != nil || port <= 0 || port > 65535 {
		errs = errs.Append("intake.port", fmt.Errorf("invalid port %q", c.Intake.Port))
	}
	if c.Intake.PollIntervalSec < 30 {
		errs = errs.Append("intake.poll_interval_sec", fmt.Errorf("must be at least 30 seconds"))
	}
	if c.Intake.SinceDays <= 0 {
		errs = errs.Append("intake.since_days", fmt.Errorf("must be positive"))
	}

	return errs.ToError()
}

func isHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

func isMarkdownStyle(style string) error {
	switch style {
	case "", "auto", "dark", "light", "notty":
		return nil
	default:
		return fmt.Errorf("unknown style %q", style)
	}
}
