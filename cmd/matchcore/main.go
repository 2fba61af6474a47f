// Command matchcore is a demo wiring of the full matching stack: it loads
// the instrument registry, builds a router, feeds a handful of sample
// orders through it, and logs the events the router fans out.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/orbitbook/matchcore/internal/config"
	"github.com/orbitbook/matchcore/internal/matching/router"
	"github.com/orbitbook/matchcore/internal/matching/types"
	"github.com/orbitbook/matchcore/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to instruments.yaml (optional; falls back to search paths, then defaults)")
	logLevel := flag.String("log-level", "info", "debug|info|warn|error")
	flag.Parse()

	log, err := logger.New(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*configPath, log); err != nil {
		log.Error("matchcore exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(configPath string, log *zap.Logger) error {
	instruments, err := config.LoadInstruments(configPath, log)
	if err != nil {
		return fmt.Errorf("loading instrument registry: %w", err)
	}

	r, err := router.New(instruments, log)
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}

	r.Start(10 * time.Millisecond)
	defer r.Stop()

	instrumentID := instruments[0].ID
	now := time.Now().UnixNano()

	orders := []types.Order{
		{ID: 1, InstrumentID: instrumentID, ParticipantID: 1, Side: types.Sell, Type: types.TypeLimit, Price: instruments[0].MinPrice + instruments[0].TickSize*100, Quantity: 10},
		{ID: 2, InstrumentID: instrumentID, ParticipantID: 2, Side: types.Buy, Type: types.TypeLimit, Price: instruments[0].MinPrice + instruments[0].TickSize*100, Quantity: 4},
		{ID: 3, InstrumentID: instrumentID, ParticipantID: 2, Side: types.Buy, Type: types.TypeIOC, Price: instruments[0].MinPrice + instruments[0].TickSize*100, Quantity: 10},
	}

	for _, o := range orders {
		result, err := r.SubmitOrder(o, now)
		if err != nil {
			log.Warn("order rejected", zap.Uint64("order_id", o.ID), zap.Error(err))
			continue
		}
		log.Info("order processed",
			zap.Uint64("order_id", o.ID),
			zap.Int("trades", result.TradeCount),
			zap.Uint64("filled", result.FilledQuantity),
			zap.Uint64("remaining", result.RemainingQuantity),
		)
	}

	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case msg, ok := <-r.Events():
			if !ok {
				return nil
			}
			logEvent(log, msg)
		case <-deadline:
			return nil
		}
	}
}

func logEvent(log *zap.Logger, msg types.EventMessage) {
	if msg.Tag == types.EventTrade {
		t := msg.AsTrade()
		log.Info("trade",
			zap.Uint64("trade_id", t.TradeID),
			zap.Uint64("buy_order_id", t.BuyOrderID),
			zap.Uint64("sell_order_id", t.SellOrderID),
			zap.Uint64("quantity", t.Quantity),
		)
		return
	}
	p := msg.AsOrderEvent()
	log.Info("order event",
		zap.Uint8("tag", uint8(msg.Tag)),
		zap.Uint64("order_id", p.OrderID),
		zap.Uint64("filled", p.FilledQuantity),
		zap.Uint64("remaining", p.RemainingQuantity),
	)
}
