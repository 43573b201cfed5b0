// defaults.go: default values for each configuration parameter.
package conf

import "github.com/spf13/viper"

// setDefaultConfig sets the default values for each configuration parameter.
// The values mirror the embedded config.yaml.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main settings
	viper.SetDefault("main.name", "pitchpod")

	// Output settings
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "data/pitchpod.db")

	// Podholder upload settings
	viper.SetDefault("podholder.enabled", false)
	viper.SetDefault("podholder.endpoint", "http://192.168.4.1")
	viper.SetDefault("podholder.timeout", 30)

	// Roster settings
	viper.SetDefault("roster.cachettl", 60)

	// MQTT settings
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "pitchpod/sessions")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.retain", false)

	// Telemetry settings
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "0.0.0.0:8090")
}
