//go:build rp2040

// Command pico is the Raspberry Pi Pico firmware image.
package main

import (
	"context"

	"devicecore-go/services/app"
	"devicecore-go/services/config"
	"devicecore-go/services/hal/platform/rp2"
	"devicecore-go/x/logx"
)

func main() {
	ctx := context.Background()
	board := rp2.New(ctx)
	_, out := board.Console()

	cfg, err := config.Embedded(board.Name())
	if err != nil {
		println("[main] config:", err.Error())
		halt()
	}
	log := logx.New(cfg.Logging, cfg.Board, out)
	if err := app.Boot(ctx, cfg, board, app.Console{}, log); err != nil {
		log.Error("fatal", "err", err)
	}
	halt()
}

// halt parks the core; the watchdog or a reset brings the board back.
func halt() {
	select {}
}
