package models

// DecisionRow — строка журнала решений (decision_log.csv).
type DecisionRow struct {
	DecisionID string
	Timestamp  string
	Symbol     string
	Side       string
	EntryPrice string
	Stop       string
	TP1        string
	TP2        string
	Confidence string
}

// TradeResultRow — строка журнала исходов (trade_results.csv).
// DecisionID обязан ссылаться на строку решений; несматченные строки —
// "сироты", репортим, не выбрасываем.
type TradeResultRow struct {
	DecisionID   string
	ExitPrice    string
	PnlRMultiple string
	ExitReason   string
	Timestamp    string
}

// IntegrityReport — итог сверки решений и исходов.
type IntegrityReport struct {
	DecisionsTotal     int      `json:"decisions_total"`
	ResultsTotal       int      `json:"results_total"`
	UnmatchedDecisions int      `json:"unmatched_decisions"`
	OrphanResults      int      `json:"orphan_results"`
	IntegrityPass      bool     `json:"integrity_pass"`
	DecisionsUnique    bool     `json:"decisions_unique"`
	OrphanIDs          []string `json:"orphan_ids,omitempty"`
}
