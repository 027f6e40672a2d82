package ledger

import (
	"encoding/csv"
	"os"

	"github.com/pkg/errors"

	"signal_bridge/internal/models"
)

// LoadDecisions перечитывает журнал решений. Пустой или отсутствующий
// файл — пустой срез, не ошибка.
func (l *Ledger) LoadDecisions() ([]models.DecisionRow, error) {
	records, err := readCSV(l.DecisionPath())
	if err != nil {
		return nil, err
	}

	out := make([]models.DecisionRow, 0, len(records))
	for _, rec := range records {
		if len(rec) < len(decisionHeaders) {
			continue
		}
		out = append(out, models.DecisionRow{
			DecisionID: rec[0],
			Timestamp:  rec[1],
			Symbol:     rec[2],
			Side:       rec[3],
			EntryPrice: rec[4],
			Stop:       rec[5],
			TP1:        rec[6],
			TP2:        rec[7],
			Confidence: rec[8],
		})
	}
	return out, nil
}

// LoadTradeResults перечитывает журнал исходов.
func (l *Ledger) LoadTradeResults() ([]models.TradeResultRow, error) {
	records, err := readCSV(l.ResultsPath())
	if err != nil {
		return nil, err
	}

	out := make([]models.TradeResultRow, 0, len(records))
	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}
		row := models.TradeResultRow{
			DecisionID:   rec[0],
			ExitPrice:    rec[1],
			PnlRMultiple: rec[2],
		}
		if len(rec) > 3 {
			row.ExitReason = rec[3]
		}
		if len(rec) > 4 {
			row.Timestamp = rec[4]
		}
		out = append(out, row)
	}
	return out, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open ledger file")
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // строки исходов могут быть короче/длиннее
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read ledger csv")
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil // без заголовка
}
