package tariff

import (
	"time"

	"table-tracking-backend/config"
)

// FromConfig builds the Tariff described by the tariff section of the configuration.
func FromConfig(cfg config.TariffConfig, loc *time.Location) (*Tariff, error) {
	return New(cfg.DayOpenHour, cfg.DayCloseHour, map[Category]Rates{
		Adult:   {Day: FromUnits(cfg.AdultDay), Night: FromUnits(cfg.AdultNight)},
		Student: {Day: FromUnits(cfg.StudentDay), Night: FromUnits(cfg.StudentNight)},
	}, loc)
}
