// validate.go: validation of loaded settings.
package conf

import (
	"net/url"
	"strings"

	"github.com/pitchpod/pitchpod-go/internal/errors"
)

// ValidateSettings checks the loaded settings for values that would only
// fail later at first use.
func ValidateSettings(settings *Settings) error {
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return errors.Newf("output.sqlite.path must be set when SQLite output is enabled").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("setting", "output.sqlite.path").
			Build()
	}

	if settings.Podholder.Enabled {
		if err := validateEndpoint(settings.Podholder.Endpoint); err != nil {
			return err
		}
	}

	if settings.MQTT.Enabled && settings.MQTT.Broker == "" {
		return errors.Newf("mqtt.broker must be set when MQTT is enabled").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("setting", "mqtt.broker").
			Build()
	}

	if settings.Telemetry.Enabled && settings.Telemetry.Listen == "" {
		return errors.Newf("telemetry.listen must be set when telemetry is enabled").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("setting", "telemetry.listen").
			Build()
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || !strings.HasPrefix(u.Scheme, "http") || u.Host == "" {
		return errors.Newf("podholder.endpoint must be a valid http(s) URL, got %q", endpoint).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("setting", "podholder.endpoint").
			Build()
	}
	return nil
}
