package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{
			name:   "empty settings are valid",
			mutate: func(*Settings) {},
		},
		{
			name: "sqlite enabled without path",
			mutate: func(s *Settings) {
				s.Output.SQLite.Enabled = true
			},
			wantErr: true,
		},
		{
			name: "sqlite enabled with path",
			mutate: func(s *Settings) {
				s.Output.SQLite.Enabled = true
				s.Output.SQLite.Path = "data/pitchpod.db"
			},
		},
		{
			name: "podholder enabled with bad endpoint",
			mutate: func(s *Settings) {
				s.Podholder.Enabled = true
				s.Podholder.Endpoint = "not a url"
			},
			wantErr: true,
		},
		{
			name: "podholder enabled with valid endpoint",
			mutate: func(s *Settings) {
				s.Podholder.Enabled = true
				s.Podholder.Endpoint = "http://192.168.4.1"
			},
		},
		{
			name: "mqtt enabled without broker",
			mutate: func(s *Settings) {
				s.MQTT.Enabled = true
			},
			wantErr: true,
		},
		{
			name: "telemetry enabled without listen address",
			mutate: func(s *Settings) {
				s.Telemetry.Enabled = true
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			settings := &Settings{}
			tt.mutate(settings)
			err := ValidateSettings(settings)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	t.Parallel()

	settings := &Settings{}
	assert.Equal(t, "30s", settings.PodholderTimeout().String(), "zero timeout falls back to default")
	assert.Zero(t, settings.RosterCacheTTL())

	settings.Podholder.Timeout = 5
	settings.Roster.CacheTTL = 60
	assert.Equal(t, "5s", settings.PodholderTimeout().String())
	assert.Equal(t, "1m0s", settings.RosterCacheTTL().String())
}
