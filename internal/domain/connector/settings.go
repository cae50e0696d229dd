package connector

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// Default filename templates
const (
	DefaultClientsTemplate      = "%Y%m%d%H%i_CLIENTS.csv"
	DefaultOrderHeadersTemplate = "%Y%m%d%H%i_COMMANDES_ENTETES.csv"
	DefaultOrderLinesTemplate   = "%Y%m%d%H%i_COMMANDES_LIGNES.csv"
)

// FileKind names the three export files. It is the suffix of the fallback
// template used when a configured template is empty.
type FileKind string

const (
	FileClients      FileKind = "CLIENTS"
	FileOrderHeaders FileKind = "ENTETE_COMMANDES"
	FileOrderLines   FileKind = "LIGNES_COMMANDES"
)

// FallbackTemplate returns the template used when none is configured
func (k FileKind) FallbackTemplate() string {
	return "%Y%m%d%H%i_" + string(k) + ".csv"
}

// Separator is the CSV field separator
type Separator rune

const (
	SeparatorSemicolon Separator = ';'
	SeparatorComma     Separator = ','
	SeparatorTab       Separator = '\t'
)

// ParseSeparator accepts ";", ",", a literal tab, "\t" or "tab".
func ParseSeparator(s string) (Separator, error) {
	switch strings.ToLower(s) {
	case ";":
		return SeparatorSemicolon, nil
	case ",":
		return SeparatorComma, nil
	case "\t", `\t`, "tab":
		return SeparatorTab, nil
	}
	return 0, shared.NewConfigurationError("unsupported field separator %q", s)
}

// Rune returns the separator as used by encoding/csv
func (s Separator) Rune() rune {
	return rune(s)
}

// String returns the separator character
func (s Separator) String() string {
	return string(rune(s))
}

// Frequency is how often the scheduled export runs
type Frequency string

const (
	FrequencyDisabled Frequency = "disabled"
	FrequencyHourly   Frequency = "hourly"
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
)

// IsValid checks if the frequency is known
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDisabled, FrequencyHourly, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

// TimeOfDay is an HH:MM wall clock time
type TimeOfDay struct {
	Hour   int `validate:"min=0,max=23"`
	Minute int `validate:"min=0,max=59"`
}

// ParseTimeOfDay parses "HH:MM"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, shared.NewConfigurationError("invalid time of day %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, shared.NewConfigurationError("invalid hour in time of day %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, shared.NewConfigurationError("invalid minute in time of day %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// String formats the time as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Settings is the connector configuration. It is validated once when loaded
// and passed by value to the pipeline.
type Settings struct {
	// ExportDir is checked when an export runs, not at load time.
	ExportDir            string
	ClientsTemplate      string
	OrderHeadersTemplate string
	OrderLinesTemplate   string
	Separator            Separator `validate:"separator"`
	Frequency            Frequency `validate:"frequency"`
	Time                 TimeOfDay
	Statuses             []commerce.Status `validate:"dive,required"`
	StatusMapping        StatusMapping     `validate:"dive,keys,required,endkeys,required"`

	// CustomStatuses are store statuses beyond the built-in ones, with their labels.
	CustomStatuses map[commerce.Status]string `validate:"dive,keys,required,endkeys"`

	// CountryLanguage selects the language of country names in the client file.
	CountryLanguage string `validate:"required"`
}

// DefaultSettings returns the settings applied on first load
func DefaultSettings() Settings {
	return Settings{
		ClientsTemplate:      DefaultClientsTemplate,
		OrderHeadersTemplate: DefaultOrderHeadersTemplate,
		OrderLinesTemplate:   DefaultOrderLinesTemplate,
		Separator:            SeparatorSemicolon,
		Frequency:            FrequencyDaily,
		Time:                 TimeOfDay{Hour: 2},
		Statuses: []commerce.Status{
			commerce.StatusCompleted,
			commerce.StatusProcessing,
			commerce.StatusShipped,
		},
		StatusMapping:   DefaultStatusMapping(),
		CountryLanguage: "fr",
	}
}

// Template returns the configured template for kind, or its fallback when empty.
func (s Settings) Template(kind FileKind) string {
	var tpl string
	switch kind {
	case FileClients:
		tpl = s.ClientsTemplate
	case FileOrderHeaders:
		tpl = s.OrderHeadersTemplate
	case FileOrderLines:
		tpl = s.OrderLinesTemplate
	}
	if strings.TrimSpace(tpl) == "" {
		return kind.FallbackTemplate()
	}
	return tpl
}

// StatusRegistry returns the built-in statuses extended with the custom
// statuses and with every target of the status mapping
func (s Settings) StatusRegistry() *commerce.StatusRegistry {
	r := commerce.NewStatusRegistry()
	for status, label := range s.CustomStatuses {
		if label == "" {
			label = string(commerce.ParseStatus(string(status)))
		}
		r.Register(status, label)
	}
	for _, status := range s.StatusMapping {
		if !r.Known(status) {
			r.Register(status, string(status))
		}
	}
	return r
}

// Validate checks the settings and returns a CONFIGURATION_ERROR describing
// the first invalid field.
func (s Settings) Validate() error {
	v := validator.New()
	_ = v.RegisterValidation("separator", func(fl validator.FieldLevel) bool {
		switch Separator(fl.Field().Int()) {
		case SeparatorSemicolon, SeparatorComma, SeparatorTab:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return Frequency(fl.Field().String()).IsValid()
	})

	if err := v.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return shared.WrapDomainError(shared.CodeConfiguration,
				fmt.Sprintf("invalid connector setting %s (%s)", fe.Namespace(), fe.Tag()), err)
		}
		return shared.WrapDomainError(shared.CodeConfiguration, "invalid connector settings", err)
	}
	return nil
}
