// Package notify delivers best-effort desktop notifications via notify-send.
package notify

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"
)

const appName = "Whisperd"

// syncHint makes successive notifications replace each other instead of stacking.
const syncHint = "string:x-canonical-private-synchronous:whisperd"

// Notification is one desktop notification payload.
type Notification struct {
	Title     string
	Body      string
	Icon      string
	TimeoutMS int
}

// Notifier dispatches notifications asynchronously while preserving the order
// in which they were issued. Delivery failures are logged and discarded; a full
// queue drops the newest notification rather than blocking the caller.
type Notifier struct {
	enabled bool
	logger  *slog.Logger
	run     func(context.Context, []string) error

	queue  chan Notification
	done   chan struct{}
	closed atomic.Bool
}

// New starts the dispatch worker. A disabled notifier accepts and discards
// everything so callers never need to branch.
func New(enabled bool, logger *slog.Logger) *Notifier {
	return newWithRunner(enabled, logger, runCommand)
}

func newWithRunner(enabled bool, logger *slog.Logger, run func(context.Context, []string) error) *Notifier {
	n := &Notifier{
		enabled: enabled,
		logger:  logger,
		run:     run,
		queue:   make(chan Notification, 16),
		done:    make(chan struct{}),
	}
	go n.dispatchLoop()
	return n
}

// Notify enqueues a notification without blocking.
func (n *Notifier) Notify(notification Notification) {
	if !n.enabled || n.closed.Load() {
		return
	}
	select {
	case n.queue <- notification:
	default:
		n.log("notification queue full; dropping", nil, "title", notification.Title)
	}
}

// Close stops the worker after draining queued notifications.
func (n *Notifier) Close() {
	if n.closed.CompareAndSwap(false, true) {
		close(n.queue)
	}
	<-n.done
}

// dispatchLoop sends queued notifications one at a time, in program order.
func (n *Notifier) dispatchLoop() {
	defer close(n.done)
	for notification := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := n.run(ctx, argvFor(notification)); err != nil {
			n.log("notification dispatch failed", err, "title", notification.Title)
		}
		cancel()
	}
}

// argvFor builds the notify-send invocation for one notification.
func argvFor(notification Notification) []string {
	icon := notification.Icon
	if icon == "" {
		icon = "dialog-information"
	}
	timeout := notification.TimeoutMS
	if timeout <= 0 {
		timeout = 2000
	}
	return []string{
		"notify-send",
		"-a", appName,
		"-i", icon,
		"-t", strconv.Itoa(timeout),
		"-h", syncHint,
		notification.Title,
		notification.Body,
	}
}

func runCommand(ctx context.Context, argv []string) error {
	return exec.CommandContext(ctx, argv[0], argv[1:]...).Run()
}

func (n *Notifier) log(message string, err error, args ...any) {
	if n.logger == nil {
		return
	}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	n.logger.Debug(message, args...)
}
