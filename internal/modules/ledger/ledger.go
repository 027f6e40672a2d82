package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"signal_bridge/internal/models"
)

const (
	decisionFile = "decision_log.csv"
	resultsFile  = "trade_results.csv"

	// фиксированные форматы чисел: перечитанная строка обязана совпасть
	// с записанной посимвольно, не "примерно по значению"
	priceFormat = "%.8f"
	ratioFormat = "%.4f"

	timeFormat = time.RFC3339
)

var decisionHeaders = []string{
	"decision_id", "timestamp", "symbol", "side", "entry_price",
	"stop", "tp1", "tp2", "confidence",
}

var resultHeaders = []string{
	"decision_id", "exit_price", "pnl_r_multiple", "exit_reason", "timestamp",
}

// Ledger — append-only CSV-журналы решений и исходов.
// Заголовок пишется один раз при создании файла, каждая запись — ровно
// одна строка. Строка уходит на диск одним Write в O_APPEND-файл, плюс
// мьютекс на файл против конкурентных аппендеров внутри процесса.
type Ledger struct {
	dir string

	decisionMu sync.Mutex
	resultMu   sync.Mutex
}

func New(dir string) *Ledger {
	return &Ledger{dir: dir}
}

func (l *Ledger) DecisionPath() string { return filepath.Join(l.dir, decisionFile) }
func (l *Ledger) ResultsPath() string  { return filepath.Join(l.dir, resultsFile) }

// AppendDecision пишет одобренный сигнал в журнал решений.
// Сигнал к этому моменту финализирован, пишем как есть.
func (l *Ledger) AppendDecision(sig *models.TradingSignal, entryPrice float64) error {
	if sig == nil || sig.DecisionID == "" {
		return fmt.Errorf("%w: decision without decision_id", models.ErrValidation)
	}
	row := []string{
		sig.DecisionID,
		sig.Timestamp.UTC().Format(timeFormat),
		sig.Symbol,
		string(sig.Side),
		fmt.Sprintf(priceFormat, entryPrice),
		fmt.Sprintf(priceFormat, sig.Risk.InitialStop),
		fmt.Sprintf(priceFormat, sig.Risk.TakeProfits[0].Price),
		fmt.Sprintf(priceFormat, sig.Risk.TakeProfits[1].Price),
		fmt.Sprintf(ratioFormat, sig.Confidence),
	}

	l.decisionMu.Lock()
	defer l.decisionMu.Unlock()
	return appendRow(l.DecisionPath(), decisionHeaders, row)
}

// AppendTradeResult пишет реализованный исход. Единственный легальный
// производитель этих строк — execution bridge.
func (l *Ledger) AppendTradeResult(decisionID string, exitPrice, pnlRMultiple float64, exitReason string, ts time.Time) error {
	if decisionID == "" {
		return fmt.Errorf("%w: trade result without decision_id", models.ErrValidation)
	}
	row := []string{
		decisionID,
		fmt.Sprintf(priceFormat, exitPrice),
		fmt.Sprintf(ratioFormat, pnlRMultiple),
		exitReason,
		ts.UTC().Format(timeFormat),
	}

	l.resultMu.Lock()
	defer l.resultMu.Unlock()
	return appendRow(l.ResultsPath(), resultHeaders, row)
}

// appendRow — заголовок при пустом/отсутствующем файле, дальше одна строка
// одним системным Write.
func appendRow(path string, headers, row []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "mkdir ledger dir")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open ledger file")
	}
	defer func() {
		_ = f.Close()
	}()

	st, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat ledger file")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if st.Size() == 0 {
		if err := w.Write(headers); err != nil {
			return errors.Wrap(err, "write header")
		}
	}
	if err := w.Write(row); err != nil {
		return errors.Wrap(err, "write row")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flush row")
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "append ledger file")
	}
	return nil
}
