package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicecore-go/bus"
	"devicecore-go/errcode"
	"devicecore-go/types"
)

func TestEmbeddedBoardsValidate(t *testing.T) {
	for _, board := range Boards() {
		cfg, err := Embedded(board)
		require.NoError(t, err, board)
		assert.Equal(t, board, cfg.Board)
		assert.NotEmpty(t, cfg.Devices, board)
		require.NotNil(t, cfg.Control, board)
		require.NotNil(t, cfg.Toggle, board)
		require.NotNil(t, cfg.Heartbeat, board)
	}
	assert.Equal(t, []string{"pico", "sim"}, Boards())
}

func TestSimProfileDecodesTypedFields(t *testing.T) {
	cfg, err := Embedded("sim")
	require.NoError(t, err)

	c := cfg.Control
	assert.Equal(t, "env.temp", c.Sensor.Name)
	assert.Equal(t, "fan", c.Actuator.Name)
	assert.Equal(t, int16(2600), c.Threshold)
	assert.Equal(t, int8(-2), c.Scale)
	assert.Equal(t, types.UnitTempC, c.Unit)
	assert.Equal(t, 2*time.Second, c.Period)
	assert.Equal(t, uint8(10), c.Priority)

	assert.Equal(t, 100*time.Millisecond, cfg.Heartbeat.On)
	assert.Equal(t, 900*time.Millisecond, cfg.Heartbeat.Off)

	// Params stay as YAML nodes for the builders.
	assert.Equal(t, "gpio_button", cfg.Devices[3].Type)
	var p struct {
		Pin    int  `yaml:"pin"`
		Invert bool `yaml:"invert"`
	}
	require.NoError(t, cfg.Devices[3].Params.Decode(&p))
	assert.Equal(t, 14, p.Pin)
	assert.True(t, p.Invert)
}

func TestPicoProfileUsesStartupDelay(t *testing.T) {
	cfg, err := Embedded("pico")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.StartupDelay)
	assert.True(t, cfg.Console.Echo)
}

func TestUnknownBoard(t *testing.T) {
	_, err := Embedded("nope")
	assert.Equal(t, errcode.NotFound, errcode.Of(err))
}

func TestEmbeddedLookupOverride(t *testing.T) {
	old := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(board string) ([]byte, bool) {
		return []byte("board: " + board + "\n"), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = old })

	cfg, err := Embedded("bench")
	require.NoError(t, err)
	assert.Equal(t, "bench", cfg.Board)
	assert.Nil(t, cfg.Control)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"unknown key":   "board: x\nbaord: y\n",
		"no board":      "devices: []\n",
		"bad unit":      "board: x\ncontrol: {unit: furlongs}\n",
		"bad class":     "board: x\ntoggle: {button: {class: SENSE_SMELL}}\n",
		"bad duration":  "board: x\nheartbeat: {on: soon}\n",
		"bad level":     "board: x\nlogging: {level: loud}\n",
		"bad format":    "board: x\nlogging: {format: xml}\n",
		"untyped":       "board: x\ndevices: [{name: a}]\n",
		"duplicate":     "board: x\ndevices: [{name: a, type: gpio_led}, {name: a, type: gpio_led}]\n",
		"negative":      "board: x\ncontrol: {max_read_failures: -1}\n",
		"tiny line max": "board: x\nconsole: {line_max: 1}\n",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfgSim), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sim", cfg.Board)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, errcode.NotFound, errcode.Of(err))
}

func TestPublishRetainsSections(t *testing.T) {
	cfg, err := Embedded("sim")
	require.NoError(t, err)

	b := bus.NewBus(16)
	Publish(b.NewConnection("config"), cfg)

	m, ok := b.Retained(bus.T("config", "board"))
	require.True(t, ok)
	assert.Equal(t, "sim", m.Payload)

	m, ok = b.Retained(bus.T("config", "control"))
	require.True(t, ok)
	cc, ok := m.Payload.(types.ControlConfig)
	require.True(t, ok)
	assert.Equal(t, int16(2600), cc.Threshold)

	// Late subscribers still see every section.
	sub := b.NewConnection("late").Subscribe(bus.T("config", bus.MultiWild))
	n := 0
	for len(sub.Channel()) > 0 {
		<-sub.Channel()
		n++
	}
	assert.Equal(t, 5, n)
}
