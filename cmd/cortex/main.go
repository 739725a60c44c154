// cortex is the terminal-native coding agent workbench CLI.
package main

import (
	"log/slog"
	"os"

	"github.com/cortexagent/cortex/internal/cmd"
)

func main() {
	configureLogging()
	os.Exit(cmd.Execute())
}

// configureLogging sets the default slog handler from CORTEX_DEBUG,
// matching the teacher's practice of reading its own debug env var once
// at startup rather than threading a verbosity flag through every
// package.
func configureLogging() {
	level := slog.LevelInfo
	if os.Getenv("CORTEX_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
