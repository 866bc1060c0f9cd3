/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package settings holds the run configuration: the calendar, the
// deterministic iteration budgets, and the acceleration profiles.
// Defaults ship a Mon-Fri week with no holidays.
package settings

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/Davidian-Abdo/planitor/pkg/apis/planning"
	"github.com/Davidian-Abdo/planitor/pkg/calendar"
	"github.com/Davidian-Abdo/planitor/pkg/scheduling"
	"github.com/Davidian-Abdo/planitor/pkg/utils/functional"
)

var defaultSettings = Settings{
	StartDate:             "2024-01-01",
	Workweek:              []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
	MaxSchedulingAttempts: scheduling.DefaultMaxSchedulingAttempts,
	MaxForwardAttempts:    scheduling.DefaultMaxForwardAttempts,
	Acceleration: map[string]scheduling.AccelerationProfile{
		"Terrassement":               {Factor: 3.0, MaxCrews: 5, Constraints: []string{"space_availability", "equipment_limits"}},
		"FondationsProfondes":        {Factor: 2.0, MaxCrews: 4, Constraints: []string{"curing_time", "sequential_work", "specialized_equipment"}},
		"GrosŒuvre":                  {Factor: 1.5, MaxCrews: 3, Constraints: []string{"curing_time", "structural_sequence"}},
		"SecondŒuvre":                {Factor: 1.2, MaxCrews: 4, Constraints: []string{"space_limitation", "trade_coordination"}},
		scheduling.DefaultProfileKey: {Factor: 1.0, MaxCrews: 2, Constraints: []string{"quality_requirements"}},
	},
}

// Settings is the validated run configuration.
type Settings struct {
	// StartDate is the project origin in YYYY-MM-DD form.
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	// Workweek lists working weekday names.
	Workweek []string `json:"workweek" validate:"required,min=1,dive,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	// Holidays lists non-working dates in YYYY-MM-DD form.
	Holidays []string `json:"holidays" validate:"dive,datetime=2006-01-02"`

	MaxSchedulingAttempts int `json:"maxSchedulingAttempts" validate:"gt=0"`
	MaxForwardAttempts    int `json:"maxForwardAttempts" validate:"gt=0"`

	// Acceleration maps disciplines to crew acceleration profiles; the
	// "default" key matches every other discipline.
	Acceleration map[string]scheduling.AccelerationProfile `json:"acceleration,omitempty" validate:"dive"`
}

// Default returns a copy of the shipped settings.
func Default() Settings {
	s := defaultSettings
	s.Workweek = append([]string(nil), defaultSettings.Workweek...)
	s.Acceleration = lo.Assign(map[string]scheduling.AccelerationProfile{}, defaultSettings.Acceleration)
	return s
}

// FromViper overlays the configuration file onto the defaults and
// validates the result.
func FromViper(v *viper.Viper) (Settings, error) {
	s := Default()
	if v.IsSet("startDate") {
		s.StartDate = v.GetString("startDate")
	}
	if v.IsSet("workweek") {
		s.Workweek = v.GetStringSlice("workweek")
	}
	if v.IsSet("holidays") {
		s.Holidays = v.GetStringSlice("holidays")
	}
	if v.IsSet("maxSchedulingAttempts") {
		s.MaxSchedulingAttempts = v.GetInt("maxSchedulingAttempts")
	}
	if v.IsSet("maxForwardAttempts") {
		s.MaxForwardAttempts = v.GetInt("maxForwardAttempts")
	}
	if v.IsSet("acceleration") {
		profiles := map[string]scheduling.AccelerationProfile{}
		if err := v.UnmarshalKey("acceleration", &profiles); err != nil {
			return s, &planning.ConfigurationError{Field: "acceleration", Reason: err.Error()}
		}
		s.Acceleration = profiles
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate reports every violated constraint as a ConfigurationError.
func (s Settings) Validate() (errs error) {
	err := validator.New().Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &planning.ConfigurationError{Field: "settings", Reason: err.Error()}
	}
	for _, fieldErr := range validationErrors {
		errs = multierr.Append(errs, &planning.ConfigurationError{
			Field:  fieldErr.Field(),
			Reason: "failed constraint " + fieldErr.Tag(),
		})
	}
	return errs
}

// Calendar materializes the configured calendar.
func (s Settings) Calendar() (*calendar.Calendar, error) {
	origin, err := time.Parse(time.DateOnly, s.StartDate)
	if err != nil {
		return nil, &planning.ConfigurationError{Field: "startDate", Reason: err.Error()}
	}
	var week calendar.Workweek
	for _, name := range s.Workweek {
		day, ok := weekdayByName[name]
		if !ok {
			return nil, &planning.ConfigurationError{Field: "workweek", Reason: "unknown weekday " + name}
		}
		week[day] = true
	}
	holidays := make([]time.Time, 0, len(s.Holidays))
	for _, raw := range s.Holidays {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, &planning.ConfigurationError{Field: "holidays", Reason: err.Error()}
		}
		holidays = append(holidays, d)
	}
	return calendar.New(origin, calendar.WithWorkweek(week), calendar.WithHolidays(holidays...)), nil
}

// SchedulerOptions translates the settings into scheduler options.
func (s Settings) SchedulerOptions() []functional.Option[scheduling.Options] {
	opts := []functional.Option[scheduling.Options]{
		scheduling.WithMaxSchedulingAttempts(s.MaxSchedulingAttempts),
		scheduling.WithMaxForwardAttempts(s.MaxForwardAttempts),
	}
	if len(s.Acceleration) > 0 {
		opts = append(opts, scheduling.WithAcceleration(scheduling.NewProfilePolicy(s.Acceleration)))
	}
	return opts
}

var weekdayByName = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}
