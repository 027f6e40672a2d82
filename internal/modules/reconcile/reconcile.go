package reconcile

import (
	"signal_bridge/internal/models"
)

// Validate сверяет журнал решений с журналом исходов по decision_id.
// Только чтение: ни один из журналов не трогаем.
//
// Классификация:
//   - unmatched decision — решение без исхода: открытая или потерянная
//     сделка, само по себе integrity не валит;
//   - orphan result — исход без решения: серьёзный сбой, сделка
//     материализовалась без записанного решения;
//   - дубль decision_id в решениях — жёсткое нарушение.
func Validate(decisions []models.DecisionRow, results []models.TradeResultRow) models.IntegrityReport {
	seen := make(map[string]int, len(decisions))
	for _, d := range decisions {
		seen[d.DecisionID]++
	}
	unique := true
	for _, n := range seen {
		if n > 1 {
			unique = false
			break
		}
	}

	resultIDs := make(map[string]struct{}, len(results))
	var orphans []string
	for _, r := range results {
		resultIDs[r.DecisionID] = struct{}{}
		if _, ok := seen[r.DecisionID]; !ok {
			orphans = append(orphans, r.DecisionID)
		}
	}

	unmatched := 0
	for id := range seen {
		if _, ok := resultIDs[id]; !ok {
			unmatched++
		}
	}

	return models.IntegrityReport{
		DecisionsTotal:     len(seen), // уникальные id
		ResultsTotal:       len(results),
		UnmatchedDecisions: unmatched,
		OrphanResults:      len(orphans),
		IntegrityPass:      len(orphans) == 0 && unique,
		DecisionsUnique:    unique,
		OrphanIDs:          orphans,
	}
}
