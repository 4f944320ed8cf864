// Package cli hosts the application entry point.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skyfield/missionforge/internal/infrastructure/httpapi"
	"github.com/skyfield/missionforge/internal/infrastructure/watch"
	"github.com/skyfield/missionforge/internal/infrastructure/wiring"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	flagHost string
	flagPort int
)

// RootCmd starts the editor server. There are no subcommands.
var RootCmd = &cobra.Command{
	Use:     "missionforge",
	Version: Version,
	Short:   "Mission dataset editor for UAV training data",
	Long: `MissionForge edits UAV mission datasets: projects, missions,
waypoints, and the state-machine mission types that drive them.
It serves a local HTTP API and streams change events to connected editors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.Flags().StringVar(&flagHost, "host", "127.0.0.1", "interface to listen on")
	RootCmd.Flags().IntVar(&flagPort, "port", 8321, "port to listen on")
}

func runServer(ctx context.Context) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	container, err := wiring.Build(ctx, root)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	watcher, err := watch.NewMissionTypeWatcher(filepath.Join(container.ConfigsDir, "mission_types"), 0, container.Publisher)
	if err != nil {
		return err
	}
	go func() {
		if err := watcher.Run(watchCtx); err != nil && watchCtx.Err() == nil {
			fmt.Fprintf(os.Stderr, "mission type watcher stopped: %v\n", err)
		}
	}()

	addr := net.JoinHostPort(flagHost, strconv.Itoa(flagPort))
	server := httpapi.NewServer(addr, container)

	// Handle graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		fmt.Println("\nShutting down...")
		cancelWatch()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Printf("MissionForge listening on http://%s\n", addr)
	fmt.Printf("Workspace: %s\n", root)
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
