package types

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"devicecore-go/errcode"
)

// BoardConfig is the boot-time description of one board: the platform device
// table plus the tasks that run on top of it.
type BoardConfig struct {
	Board        string           `yaml:"board"`
	StartupDelay time.Duration    `yaml:"startup_delay"`
	Console      ConsoleConfig    `yaml:"console"`
	Logging      LoggingConfig    `yaml:"logging"`
	Devices      []DeviceConfig   `yaml:"devices"`
	Control      *ControlConfig   `yaml:"control,omitempty"`
	Toggle       *ToggleConfig    `yaml:"toggle,omitempty"`
	Heartbeat    *HeartbeatConfig `yaml:"heartbeat,omitempty"`
}

type ConsoleConfig struct {
	Prompt  string `yaml:"prompt"`
	Echo    bool   `yaml:"echo"`     // echo received bytes (raw UART terminals)
	LineMax int    `yaml:"line_max"` // 0 => shell default
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, auto
}

// DeviceConfig is one row of the platform device table.
type DeviceConfig struct {
	Name   string    `yaml:"name"`   // optional; unnamed devices list as "(unnamed)"
	Type   string    `yaml:"type"`   // builder type, e.g. "gpio_led"
	Params yaml.Node `yaml:"params"` // decoded by the builder
}

// DeviceRef selects a device by name, or by class when Name is empty.
type DeviceRef struct {
	Name  string `yaml:"name,omitempty"`
	Class Class  `yaml:"class,omitempty"`
}

// TaskConfig carries the execution-unit parameters shared by every task.
type TaskConfig struct {
	Priority  uint8 `yaml:"priority"`
	StackSize int   `yaml:"stack_size"`
}

// ControlConfig drives a threshold loop: sensor above Threshold×10^Scale
// switches the actuator on.
type ControlConfig struct {
	TaskConfig      `yaml:",inline"`
	Sensor          DeviceRef     `yaml:"sensor"`
	Actuator        DeviceRef     `yaml:"actuator"`
	Threshold       int16         `yaml:"threshold"`
	Scale           int8          `yaml:"scale"`
	Unit            Unit          `yaml:"unit"`
	Period          time.Duration `yaml:"period"`
	MaxReadFailures int           `yaml:"max_read_failures"`
}

// ToggleConfig flips an actuator on each button press delivered by IRQ.
type ToggleConfig struct {
	TaskConfig `yaml:",inline"`
	Button     DeviceRef `yaml:"button"`
	Actuator   DeviceRef `yaml:"actuator"`
}

// HeartbeatConfig blinks an actuator with a fixed duty cycle.
type HeartbeatConfig struct {
	TaskConfig `yaml:",inline"`
	Actuator   DeviceRef     `yaml:"actuator"`
	On         time.Duration `yaml:"on"`
	Off        time.Duration `yaml:"off"`
	Cycles     int           `yaml:"cycles"` // 0 => forever
}

// Validate checks the structure of a board profile. Builder types and
// device params are checked later, when the table is built.
func (c *BoardConfig) Validate() error {
	bad := func(format string, args ...any) error {
		return errcode.New(errcode.InvalidParams, "config", fmt.Sprintf(format, args...))
	}
	if c.Board == "" {
		return bad("board name required")
	}
	if c.StartupDelay < 0 {
		return bad("negative startup_delay")
	}
	if c.Console.LineMax != 0 && c.Console.LineMax < 2 {
		return bad("console.line_max %d too small", c.Console.LineMax)
	}
	if c.Logging.Level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(c.Logging.Level)); err != nil {
			return bad("logging.level %q", c.Logging.Level)
		}
	}
	switch c.Logging.Format {
	case "", "text", "json", "auto":
	default:
		return bad("logging.format %q", c.Logging.Format)
	}
	seen := map[string]int{}
	for i, d := range c.Devices {
		if d.Type == "" {
			return bad("device %d: type required", i)
		}
		if d.Name == "" {
			continue
		}
		if j, dup := seen[d.Name]; dup {
			return bad("device %d: name %q already used by device %d", i, d.Name, j)
		}
		seen[d.Name] = i
	}
	if t := c.Control; t != nil {
		if t.Period < 0 {
			return bad("control.period negative")
		}
		if t.MaxReadFailures < 0 {
			return bad("control.max_read_failures negative")
		}
	}
	if t := c.Heartbeat; t != nil {
		if t.On < 0 || t.Off < 0 {
			return bad("heartbeat duty cycle negative")
		}
		if t.Cycles < 0 {
			return bad("heartbeat.cycles negative")
		}
	}
	return nil
}
