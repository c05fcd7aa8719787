// plyview - textured PLY scene viewer
// Walk through a room of textured meshes in a window or in your terminal.
//
// Controls:
//
//	W/S         - Move forward/back
//	A/D         - Strafe left/right
//	Arrow keys  - Look around
//	X           - Toggle wireframe
//	?           - Toggle HUD overlay (terminal only)
//	Esc         - Quit
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	logFile string
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "plyview [mesh.ply[:texture.bmp]...]",
		Short: "View textured PLY meshes",
		Long: "plyview draws textured PLY and glTF meshes from a first-person camera.\n" +
			"With no arguments it loads the scene from --config, or Link's house from ./LinksHouse.",
		Args: cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging()
		},
	}
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "write log output to this file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log load and upload progress")

	view := newViewCmd()
	root.RunE = view.RunE
	root.Flags().AddFlagSet(view.Flags())
	root.AddCommand(view, newInspectCmd(), newSnapshotCmd())

	if err := fang.Execute(context.Background(), root,
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

// setupLogging sends log output to stderr, or to --log-file. Full-screen
// surfaces own the terminal, so a log file is the only way to see their
// output while they run.
func setupLogging() error {
	log.SetFlags(log.Lshortfile)
	log.SetPrefix("plyview: ")
	if logFile == "" {
		return nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return nil
}

func debugf(format string, args ...any) {
	if verbose {
		log.Output(2, fmt.Sprintf(format, args...))
	}
}

// quietLog silences stderr logging while a surface draws on the terminal,
// unless logging goes to a file. It returns a function restoring the writer.
func quietLog() func() {
	if logFile != "" {
		return func() {}
	}
	prev := log.Writer()
	log.SetOutput(io.Discard)
	return func() { log.SetOutput(prev) }
}
