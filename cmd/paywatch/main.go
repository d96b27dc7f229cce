package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payhub/internal/client"
	"payhub/internal/model"
	"payhub/internal/poller"
)

// paywatch follows one order until it settles: it polls the status
// endpoint and prints the final record, or exits when interrupted.
func main() {
	var (
		serverAddr = flag.String("s", "http://localhost:8080", "payment server base URL")
		orderNo    = flag.String("o", "", "order number to watch")
		interval   = flag.Duration("i", 3*time.Second, "poll interval")
		maxWait    = flag.Duration("w", 15*time.Minute, "give up after this long")
	)
	flag.Parse()

	if *orderNo == "" {
		slog.Error("order number is required (-o)")
		os.Exit(2)
	}

	watcher := poller.NewWatcher(client.New(*serverAddr), poller.Options{
		Interval: *interval,
		MaxWait:  *maxWait,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("watching order", "order_no", *orderNo, "interval", *interval)
	poll := watcher.Watch(ctx, *orderNo, func(final model.Order) {
		slog.Info("order settled",
			"order_no", final.OrderNo,
			"status", final.Status,
			"amount", final.Amount,
			"currency", final.Currency,
			"updated_at", final.UpdatedAt,
		)
	})

	if err := poll.Err(); err != nil {
		if errors.Is(err, poller.ErrPollTimeout) {
			slog.Error("order did not settle in time", "order_no", *orderNo)
		} else {
			slog.Info("watch stopped", "reason", err)
		}
		os.Exit(1)
	}
}
