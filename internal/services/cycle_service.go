package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/envnode/internal/models"
	"github.com/benmeehan/envnode/internal/utils"
	"github.com/benmeehan/envnode/pkg/mqtt"
	"github.com/rs/zerolog"
)

// CycleConfig holds the pacing of the main cycle.
type CycleConfig struct {
	Period       time.Duration
	PublishPause time.Duration
	DisplayPause time.Duration
}

// CycleResult summarizes one pass of the cycle.
type CycleResult struct {
	Commands  int
	Reading   models.SensorReading
	Mode      models.AlertMode
	Abandoned bool
}

// CycleService runs the connect, poll, publish, sample, display loop. All
// NodeState mutation happens on the goroutine running the loop.
type CycleService struct {
	cfg          CycleConfig
	connectivity *ConnectivityService
	session      mqtt.Session
	telemetry    *TelemetryService
	sensor       *SensorService
	alerts       AlertEngine
	display      *DisplayService
	state        *models.NodeState
	logger       zerolog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCycleService initializes a new CycleService.
func NewCycleService(cfg CycleConfig, connectivity *ConnectivityService, session mqtt.Session,
	telemetry *TelemetryService, sensor *SensorService, alerts AlertEngine, display *DisplayService,
	state *models.NodeState, logger zerolog.Logger) *CycleService {
	return &CycleService{
		cfg:          cfg,
		connectivity: connectivity,
		session:      session,
		telemetry:    telemetry,
		sensor:       sensor,
		alerts:       alerts,
		display:      display,
		state:        state,
		logger:       logger,
	}
}

// RunOnce performs one cycle. The returned error is non-nil only when ctx
// is done.
func (c *CycleService) RunOnce(ctx context.Context) (CycleResult, error) {
	var result CycleResult

	if !utils.SleepCtx(ctx, c.cfg.Period) {
		return result, ctx.Err()
	}

	if err := c.connectivity.EnsureConnected(ctx); err != nil {
		return result, err
	}

	result.Commands = c.session.Poll()

	_ = c.telemetry.PublishState()
	if !utils.SleepCtx(ctx, c.cfg.PublishPause) {
		return result, ctx.Err()
	}

	reading := c.sensor.Sample(ctx)
	result.Reading = reading
	if !reading.Valid {
		c.logger.Warn().Msg("Failed to read from sensor")
		result.Abandoned = true
		return result, nil
	}

	_ = c.telemetry.PublishReading(reading)

	c.display.ShowReading(reading)
	if !utils.SleepCtx(ctx, c.cfg.DisplayPause) {
		return result, ctx.Err()
	}

	result.Mode = c.alerts.Classify(reading)
	if err := c.display.ShowAlert(ctx, result.Mode, c.cfg.DisplayPause); err != nil {
		return result, err
	}

	c.logger.Info().
		Float64("humidity", reading.HumidityPct).
		Float64("temp_c", reading.TempC).
		Float64("temp_f", reading.TempF).
		Float64("heat_index_c", reading.HeatIndexC).
		Float64("heat_index_f", reading.HeatIndexF).
		Bool("output_on", c.state.Actuator.OutputOn).
		Str("mode", result.Mode.String()).
		Msg("Cycle complete")

	return result, nil
}

// Run repeats RunOnce until ctx is done.
func (c *CycleService) Run(ctx context.Context) error {
	for {
		if _, err := c.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Start launches the cycle loop in a separate goroutine.
func (c *CycleService) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx != nil {
		c.logger.Warn().Msg("CycleService is already running")
		return errors.New("cycle service is already running")
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.wg.Add(1)
	go func(ctx context.Context) {
		defer c.wg.Done()
		if err := c.Run(ctx); err != nil {
			c.logger.Error().Err(err).Msg("Cycle loop exited")
		}
	}(c.ctx)

	c.logger.Info().Dur("period", c.cfg.Period).Msg("CycleService started successfully")
	return nil
}

// Stop cancels the loop and waits for the current cycle to return.
func (c *CycleService) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil {
		c.logger.Warn().Msg("CycleService is not running")
		return errors.New("cycle service is not running")
	}

	c.cancel()
	c.wg.Wait()

	c.ctx = nil
	c.cancel = nil

	c.logger.Info().Msg("CycleService stopped successfully")
	return nil
}
