package services

import (
	"context"
	"fmt"
	"time"

	"github.com/benmeehan/envnode/internal/constants"
	"github.com/benmeehan/envnode/internal/models"
	"github.com/benmeehan/envnode/internal/utils"
	"github.com/benmeehan/envnode/pkg/display"
	"github.com/rs/zerolog"
)

// DisplayService renders readings and alert screens on a two line display.
type DisplayService struct {
	sink    display.Sink
	columns int
	logger  zerolog.Logger
}

// NewDisplayService initializes a new DisplayService.
func NewDisplayService(sink display.Sink, columns int, logger zerolog.Logger) *DisplayService {
	if columns <= 0 {
		columns = constants.DisplayColumns
	}
	return &DisplayService{sink: sink, columns: columns, logger: logger}
}

func (d *DisplayService) show(line1, line2 string) {
	steps := []func() error{
		d.sink.Clear,
		func() error { return d.sink.SetCursor(0, 0) },
		func() error { return d.sink.Print(d.fit(line1)) },
		func() error { return d.sink.SetCursor(0, 1) },
		func() error { return d.sink.Print(d.fit(line2)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			d.logger.Warn().Err(err).Msg("Display update failed")
			return
		}
	}
}

func (d *DisplayService) fit(s string) string {
	r := []rune(s)
	if len(r) > d.columns {
		return string(r[:d.columns])
	}
	return s
}

// ShowReading renders the humidity and temperature screen.
func (d *DisplayService) ShowReading(r models.SensorReading) {
	d.show(
		fmt.Sprintf("Umidade: %.2f%%", r.HumidityPct),
		fmt.Sprintf("Temp: %.2f C", r.TempC),
	)
}

// ShowAlert renders the screen for mode. The flood alert shows the high
// readings screen for pause before the alert itself.
func (d *DisplayService) ShowAlert(ctx context.Context, mode models.AlertMode, pause time.Duration) error {
	switch mode {
	case models.AlertFlood:
		d.show(constants.DisplayHumidityHigh, constants.DisplayTemperatureHigh)
		if !utils.SleepCtx(ctx, pause) {
			return ctx.Err()
		}
		d.show(constants.DisplayAlertLine1, constants.DisplayAlertLine2)
	case models.AlertHighHumidity:
		d.show(constants.DisplayHumidityHigh, constants.DisplayTemperatureOK)
	case models.AlertHighTemperature:
		d.show(constants.DisplayHumidityOK, constants.DisplayTemperatureHigh)
	default:
		d.show(constants.DisplayHumidityOK, constants.DisplayTemperatureOK)
	}
	return nil
}
