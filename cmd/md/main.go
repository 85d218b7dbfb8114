package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/grafana/pyroscope-go"
	"github.com/quickfixgo/quickfix"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"okfix/internal/model"
	"okfix/internal/store"
	"okfix/internal/stream"
)

func main() {
	if err := run(); err != nil {
		logs.Errorf("md: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "config/initiator.cfg", "quickfix settings file")
	symbolsFlag := flag.String("symbols", "BTC/CNY", "comma separated symbols to subscribe")
	pyroscopeAddr := flag.String("pyroscope", "", "pyroscope server address (optional)")
	pgHost := flag.String("pg-host", "", "postgres host for the snapshot store; empty disables persistence")
	pgPort := flag.Int("pg-port", 5432, "postgres port")
	pgUser := flag.String("pg-user", "", "postgres user")
	pgPassword := flag.String("pg-password", "", "postgres password")
	pgDatabase := flag.String("pg-db", "okfix", "postgres database")
	flag.Parse()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "okfix.md",
			ServerAddress:   *pyroscopeAddr,
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	cfg, err := os.Open(*cfgPath)
	if err != nil {
		return err
	}
	defer cfg.Close()

	settings, err := quickfix.ParseSettings(cfg)
	if err != nil {
		return err
	}

	symbols := strings.Split(*symbolsFlag, ",")

	var app *stream.App
	app = stream.New(stream.Option{
		Listeners: []stream.Listener{printListener{}},
		OnLogon: func(sessionID quickfix.SessionID) {
			for _, symbol := range symbols {
				symbol = strings.TrimSpace(symbol)
				if symbol == "" {
					continue
				}
				if err := app.SubscribeOrderBook(symbol, sessionID); err != nil {
					logs.Errorf("subscribe %s: %+v", symbol, err)
				}
			}
		},
	})

	if *pgHost != "" {
		snapshots, err := store.Open(store.Option{
			Host:     *pgHost,
			Port:     *pgPort,
			User:     *pgUser,
			Password: *pgPassword,
			Database: *pgDatabase,
		})
		if err != nil {
			return err
		}
		defer snapshots.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go snapshots.Run(ctx)

		app.AddListener(snapshots)
	}

	initiator, err := quickfix.NewInitiator(app, quickfix.NewMemoryStoreFactory(), settings, quickfix.NewScreenLogFactory())
	if err != nil {
		return err
	}
	if err := initiator.Start(); err != nil {
		return err
	}
	defer initiator.Stop()

	<-sys.Shutdown()
	return nil
}

type printListener struct {
	stream.NopListener
}

func (printListener) OnOrderBook(book *model.OrderBook, _ quickfix.SessionID) {
	logs.Infof("book %s ask %s@%s bid %s@%s",
		book.Bids[0].Pair,
		book.Asks[0].Amount, book.Asks[0].Price,
		book.Bids[0].Amount, book.Bids[0].Price,
	)
}

func (printListener) OnTrades(trades []model.Trade, _ quickfix.SessionID) {
	for _, trade := range trades {
		logs.Infof("trade %s %s %s@%s", trade.Pair, trade.Side, trade.Amount, trade.Price)
	}
}

func (printListener) OnTicker(ticker model.Ticker, _ quickfix.SessionID) {
	logs.Infof("ticker %s high %s low %s last %s vol %s",
		ticker.Pair, ticker.High, ticker.Low, ticker.Last, ticker.Volume)
}

func (printListener) OnAccountInfo(info model.AccountInfo, _ quickfix.SessionID) {
	for _, balance := range info.Balances {
		logs.Infof("balance %s available %s frozen %s",
			balance.Currency, balance.Available, balance.Frozen)
	}
}
