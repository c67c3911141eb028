package mcp

import (
	"context"
	"os"
	"time"

	"ocular/internal/logging"
)

// WatchParent polls for parent process death in a background goroutine and
// calls cancelFn when the parent PID changes, so a disconnected host does
// not leave a zombie stdio server behind.
//
// It must never read from stdin: the MCP StdioTransport owns stdin, and
// stealing bytes from it corrupts the JSON-RPC stream.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	logger := logging.New("mcp-watchdog")
	ppid := os.Getppid()
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if os.Getppid() != ppid {
					logger.Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
