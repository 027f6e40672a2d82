package main

import (
	"fmt"
	"log"
	"os"

	"github.com/bytedance/sonic"

	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/ledger"
	"signal_bridge/internal/modules/reconcile"
	"signal_bridge/internal/notify"
	"signal_bridge/pkg/logger"
)

// Одноразовый прогон сверки: читает оба журнала, печатает IntegrityReport
// и возвращает ненулевой код при нарушении целостности.
func main() {
	logger.SetServiceName("reconcile")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatal("config: %v", err)
	}

	led := ledger.New(cfg.LedgerDir)
	decisions, err := led.LoadDecisions()
	if err != nil {
		logger.Fatal("load decisions: %v", err)
	}
	results, err := led.LoadTradeResults()
	if err != nil {
		logger.Fatal("load trade results: %v", err)
	}

	report := reconcile.Validate(decisions, results)

	out, err := sonic.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("marshal report: %v", err)
	}
	fmt.Println(string(out))

	if !report.IntegrityPass {
		if n, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID); err == nil {
			n.Sendf("⚠️ ledger integrity failed: orphans=%d unique=%v",
				report.OrphanResults, report.DecisionsUnique)
		}
		os.Exit(1)
	}
}
