package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"devicecore-go/sched"
	"devicecore-go/services/hal/core"
	"devicecore-go/types"
)

// Owner is the claim name of the heartbeat LED.
const Owner = "heartbeat"

const (
	defaultOn  = 100 * time.Millisecond
	defaultOff = 900 * time.Millisecond
)

type Service struct {
	reg   *core.Registry
	clock *sched.Clock
	cfg   types.HeartbeatConfig
	log   *slog.Logger

	led     core.Actuator
	label   string
	started bool
}

func New(reg *core.Registry, clock *sched.Clock, cfg types.HeartbeatConfig, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if cfg.On <= 0 {
		cfg.On = defaultOn
	}
	if cfg.Off <= 0 {
		cfg.Off = defaultOff
	}
	return &Service{reg: reg, clock: clock, cfg: cfg, log: log}
}

// Start resolves and claims the LED.
func (s *Service) Start() error {
	d, err := s.reg.Resolve(s.cfg.Actuator, types.IsClass(types.ClassActLED), "heartbeat led")
	if err != nil {
		return err
	}
	a, err := s.reg.Claim(Owner, d)
	if err != nil {
		return err
	}
	s.led, s.label, s.started = a, d.Label(), true
	return nil
}

// Run blinks until ctx ends or Cycles blinks have completed. The LED is
// left off on return.
func (s *Service) Run(ctx context.Context) error {
	if !s.started {
		if err := s.Start(); err != nil {
			return err
		}
	}
	name := sched.Name(ctx)
	s.log.Debug("heartbeat ready", "led", s.label, "on", s.cfg.On, "off", s.cfg.Off)
	defer s.led.Write(context.WithoutCancel(ctx), types.Bool(false))

	for n := 0; s.cfg.Cycles <= 0 || n < s.cfg.Cycles; n++ {
		if ctx.Err() != nil {
			return nil
		}
		s.log.Info("Thread " + name)
		if err := s.led.Write(ctx, types.Bool(true)); err != nil {
			return err
		}
		s.clock.SleepExtended(s.cfg.On)
		if err := s.led.Write(ctx, types.Bool(false)); err != nil {
			return err
		}
		s.clock.SleepExtended(s.cfg.Off)
	}
	return nil
}
