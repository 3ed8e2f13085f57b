package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// One YAML profile per board name. Key: board name (the --board flag).
// -----------------------------------------------------------------------------

const cfgSim = `
board: sim
startup_delay: 0s
console:
  prompt: "> "
logging:
  level: info
  format: auto
devices:
  - name: led0
    type: gpio_led
    params: {pin: 25}
  - name: led1
    type: gpio_led
    params: {pin: 15}
  - name: fan
    type: gpio_switch
    params: {pin: 16}
  - name: btn0
    type: gpio_button
    params: {pin: 14, pull: up, invert: true, debounce_ms: 20}
  - name: env
    type: aht20
    params: {bus: i2c0, trigger_hint_ms: 80}
  - name: probe
    type: sim_temp
    params: {values: [2400, 2550, 2700, 2650]}
control:
  priority: 10
  sensor: {name: env.temp}
  actuator: {name: fan}
  threshold: 2600
  scale: -2
  unit: temp_c
  period: 2s
  max_read_failures: 5
toggle:
  priority: 5
  button: {name: btn0}
  actuator: {name: led1}
heartbeat:
  priority: 20
  actuator: {name: led0}
  on: 100ms
  off: 900ms
`

const cfgPico = `
board: pico
startup_delay: 3s
console:
  prompt: "> "
  echo: true
  line_max: 128
logging:
  level: info
  format: text
devices:
  - name: led0
    type: gpio_led
    params: {pin: 25}
  - name: led1
    type: gpio_led
    params: {pin: 15}
  - name: fan
    type: gpio_switch
    params: {pin: 16}
  - name: btn0
    type: gpio_button
    params: {pin: 14, pull: up, invert: true, debounce_ms: 20}
  - name: env
    type: aht20
    params: {bus: i2c0}
control:
  priority: 10
  stack_size: 2048
  sensor: {name: env.temp}
  actuator: {name: fan}
  threshold: 2600
  scale: -2
  unit: temp_c
  period: 2s
  max_read_failures: 5
toggle:
  priority: 5
  stack_size: 1024
  button: {name: btn0}
  actuator: {name: led1}
heartbeat:
  priority: 20
  stack_size: 1024
  actuator: {name: led0}
`

var embeddedConfigs = map[string][]byte{
	"sim":  []byte(cfgSim),
	"pico": []byte(cfgPico),
}
