package flow

import (
	"context"
	"log/slog"
	"time"
)

// NopActuator logs every input action instead of performing it. Used for
// dry runs where the workflow's control flow and perception should execute
// but the target application must not be touched.
type NopActuator struct {
	Logger *slog.Logger
}

func (n NopActuator) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

func (n NopActuator) MoveCursor(ctx context.Context, x, y int) error {
	n.logger().Info("dry-run: move cursor", "x", x, "y", y)
	return ctx.Err()
}

func (n NopActuator) Click(ctx context.Context, button MouseButton) error {
	n.logger().Info("dry-run: click", "button", string(button))
	return ctx.Err()
}

func (n NopActuator) DoubleClick(ctx context.Context) error {
	n.logger().Info("dry-run: double click")
	return ctx.Err()
}

func (n NopActuator) KeyPress(ctx context.Context, key string) error {
	n.logger().Info("dry-run: key press", "key", key)
	return ctx.Err()
}

func (n NopActuator) TypeText(ctx context.Context, text string, perKeyDelay time.Duration) error {
	n.logger().Info("dry-run: type text", "chars", len(text))
	return ctx.Err()
}

func (n NopActuator) KeyCombination(ctx context.Context, keys []string) error {
	n.logger().Info("dry-run: key combination", "keys", keys)
	return ctx.Err()
}
