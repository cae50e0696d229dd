package connector

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	require.NoError(t, s.Validate())
	assert.Equal(t, SeparatorSemicolon, s.Separator)
	assert.Equal(t, FrequencyDaily, s.Frequency)
	assert.Equal(t, "02:00", s.Time.String())
	assert.Equal(t, []commerce.Status{"wc-completed", "wc-processing", "wc-shipped"}, s.Statuses)
	assert.Len(t, s.StatusMapping, 6)
}

func TestSettings_Template(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, DefaultClientsTemplate, s.Template(FileClients))

	s.OrderLinesTemplate = "  "
	assert.Equal(t, "%Y%m%d%H%i_LIGNES_COMMANDES.csv", s.Template(FileOrderLines))

	s.OrderHeadersTemplate = "headers-%Y.csv"
	assert.Equal(t, "headers-%Y.csv", s.Template(FileOrderHeaders))
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"unknown separator", func(s *Settings) { s.Separator = '|' }},
		{"unknown frequency", func(s *Settings) { s.Frequency = "monthly" }},
		{"hour out of range", func(s *Settings) { s.Time.Hour = 24 }},
		{"minute out of range", func(s *Settings) { s.Time.Minute = 60 }},
		{"empty status", func(s *Settings) { s.Statuses = []commerce.Status{""} }},
		{"empty mapped status", func(s *Settings) { s.StatusMapping = StatusMapping{"LIVREE": ""} }},
		{"missing language", func(s *Settings) { s.CountryLanguage = "" }},
		{"empty custom status", func(s *Settings) { s.CustomStatuses = map[commerce.Status]string{"": "Lost"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Equal(t, shared.CodeConfiguration, shared.CodeOf(err))
			assert.True(t, errors.Is(err, shared.ErrConfiguration))
		})
	}

	t.Run("empty statuses are allowed", func(t *testing.T) {
		s := DefaultSettings()
		s.Statuses = nil
		assert.NoError(t, s.Validate())
	})
}

func TestSettings_StatusRegistry(t *testing.T) {
	s := DefaultSettings()
	s.CustomStatuses = map[commerce.Status]string{
		"wc-quality-check": "Quality check",
		"wc-backorder":     "",
	}
	s.StatusMapping = NewStatusMapping(map[string]string{
		"PRET":   "wc-awaiting-pickup",
		"LIVREE": "wc-delivered",
	})

	r := s.StatusRegistry()
	assert.True(t, r.Known("wc-awaiting-pickup"))
	assert.Equal(t, "wc-awaiting-pickup", r.Label("wc-awaiting-pickup"))
	assert.Equal(t, "Quality check", r.Label("quality-check"))
	assert.Equal(t, "wc-backorder", r.Label("wc-backorder"))
	assert.Equal(t, "Livrée", r.Label(commerce.StatusDelivered))
	assert.False(t, r.Known("wc-lost"))

	assert.False(t, DefaultSettings().StatusRegistry().Known("wc-awaiting-pickup"))
}

func TestParseSeparator(t *testing.T) {
	tests := []struct {
		in      string
		want    Separator
		wantErr bool
	}{
		{";", SeparatorSemicolon, false},
		{",", SeparatorComma, false},
		{"\t", SeparatorTab, false},
		{`\t`, SeparatorTab, false},
		{"TAB", SeparatorTab, false},
		{"|", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeparator(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("07:45")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 7, Minute: 45}, got)

	for _, bad := range []string{"", "7", "25:00", "10:61", "aa:bb", "1:2:3"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestStatusMapping(t *testing.T) {
	m := NewStatusMapping(map[string]string{
		" livree ": "delivered",
		"EXPEDIEE": "wc-shipped",
		"":         "wc-failed",
	})

	assert.Len(t, m, 2)
	assert.Equal(t, []string{"EXPEDIEE", "LIVREE"}, m.Keys())

	status, ok := m.Resolve("Livree")
	require.True(t, ok)
	assert.Equal(t, commerce.StatusDelivered, status)

	_, ok = m.Resolve("PERDUE")
	assert.False(t, ok)
}

func TestNextRun(t *testing.T) {
	at := TimeOfDay{Hour: 2, Minute: 30}
	// Friday 2025-03-07 10:15
	now := time.Date(2025, 3, 7, 10, 15, 0, 0, time.UTC)

	tests := []struct {
		name string
		freq Frequency
		now  time.Time
		want time.Time
	}{
		{"hourly later this hour", FrequencyHourly, now, time.Date(2025, 3, 7, 10, 30, 0, 0, time.UTC)},
		{"hourly minute passed", FrequencyHourly, now.Add(20 * time.Minute), time.Date(2025, 3, 7, 11, 30, 0, 0, time.UTC)},
		{"daily passed rolls to tomorrow", FrequencyDaily, now, time.Date(2025, 3, 8, 2, 30, 0, 0, time.UTC)},
		{"daily later today", FrequencyDaily, time.Date(2025, 3, 7, 1, 0, 0, 0, time.UTC), time.Date(2025, 3, 7, 2, 30, 0, 0, time.UTC)},
		{"weekly next monday", FrequencyWeekly, now, time.Date(2025, 3, 10, 2, 30, 0, 0, time.UTC)},
		{"weekly monday before time", FrequencyWeekly, time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 2, 30, 0, 0, time.UTC)},
		{"weekly monday after time", FrequencyWeekly, time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC), time.Date(2025, 3, 17, 2, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextRun(tt.freq, at, tt.now)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := NextRun(FrequencyDisabled, at, now)
	assert.False(t, ok)
}
