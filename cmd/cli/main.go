package main

import (
	"bufio"
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"freightchat/internal/bootstrap"
	"freightchat/internal/config"
	"freightchat/internal/pkg/logger"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()

	// Logs go to the file only so they do not interleave with the conversation
	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer sysLogger.Sync()

	container := bootstrap.NewContainer(cfg, sysLogger)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := container.Start(ctx); err != nil {
		log.Panicf("Unable to start background services: %v", err)
	}

	out := newRenderer(color.Output)
	term := newTerminal(container.AgentService, container.TrackingService, container.MetadataService, out)

	color.Cyan("FreightChat terminal. Type /help for commands.")
	term.refresh()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			cmd, err := parseCommand(line)
			if errors.Is(err, errEmptyLine) {
				continue
			}
			if err != nil {
				term.print(func(r *renderer) { r.errorLine(err) })
				continue
			}
			if term.execute(ctx, cmd) {
				return
			}
		}
	}
}
