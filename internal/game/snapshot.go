package game

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the persisted pair of state and ledger.
type Snapshot struct {
	State  State
	Ledger []Transaction
}

type investmentRecord struct {
	Amount   float64 `json:"amount"`
	ValuePer float64 `json:"valuePer"`
	Risk     float64 `json:"risk"`
}

type stateRecord struct {
	Cash                float64                     `json:"cash"`
	Portfolio           map[string]investmentRecord `json:"portfolio"`
	AdvisorHired        bool                        `json:"advisorHired"`
	PRProtection        float64                     `json:"prProtection"`
	TotalPortfolioValue float64                     `json:"totalPortfolioValue"`
	HasVehicle          bool                        `json:"hasVehicle"`
	WorkCooldown        int64                       `json:"workCooldown"`
	WorkCount           int                         `json:"workCount"`
	SecondJobAvailable  bool                        `json:"secondJobAvailable"`
	CompanyOwned        bool                        `json:"companyOwned"`
	CompanyAge          int                         `json:"companyAge"`
	TransactionCounter  int64                       `json:"transactionCounter"`
	UniqueAccountTypes  []string                    `json:"uniqueAccountTypes"`
	ActiveFilters       []string                    `json:"activeFilters"`
}

type transactionRecord struct {
	ID          int64    `json:"id"`
	Group       string   `json:"group,omitempty"`
	AccountType string   `json:"accountType"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
	Total       *float64 `json:"total"`
	Timestamp   string   `json:"timestamp"`
}

// EncodeState renders the state in its persisted form: sets as lists, the work cooldown
// in milliseconds.
func EncodeState(s State) ([]byte, error) {
	rec := stateRecord{
		Cash:                s.Cash,
		Portfolio:           make(map[string]investmentRecord, len(Kinds)),
		AdvisorHired:        s.AdvisorHired,
		PRProtection:        s.PRProtection,
		TotalPortfolioValue: s.TotalPortfolioValue,
		HasVehicle:          s.HasVehicle,
		WorkCooldown:        s.WorkCooldown.Milliseconds(),
		WorkCount:           s.WorkCount,
		SecondJobAvailable:  s.SecondJobAvailable,
		CompanyOwned:        s.CompanyOwned,
		CompanyAge:          s.CompanyAge,
		TransactionCounter:  s.TransactionCounter,
		UniqueAccountTypes:  s.UniqueAccountTypes.Sorted(),
		ActiveFilters:       s.ActiveFilters.Sorted(),
	}
	for _, k := range Kinds {
		inv := s.Portfolio[k]
		rec.Portfolio[k.Key()] = investmentRecord{Amount: inv.Quantity, ValuePer: inv.ValuePerUnit, Risk: inv.RiskWeight}
	}
	return json.Marshal(rec)
}

// DecodeState reads a persisted state. Each field is decoded on its own: a missing or
// malformed field keeps its initial value instead of failing the whole state. Only input
// that is not a JSON object is an error.
func DecodeState(raw []byte) (State, error) {
	st := InitialState()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return st, fmt.Errorf("decode state: %w", err)
	}

	field := func(name string, dst any) {
		if v, ok := fields[name]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}
	field("cash", &st.Cash)
	field("advisorHired", &st.AdvisorHired)
	field("prProtection", &st.PRProtection)
	field("hasVehicle", &st.HasVehicle)
	field("workCount", &st.WorkCount)
	field("secondJobAvailable", &st.SecondJobAvailable)
	field("companyOwned", &st.CompanyOwned)
	field("companyAge", &st.CompanyAge)
	field("transactionCounter", &st.TransactionCounter)

	var cooldownMillis int64
	if v, ok := fields["workCooldown"]; ok && json.Unmarshal(v, &cooldownMillis) == nil && cooldownMillis > 0 {
		st.WorkCooldown = time.Duration(cooldownMillis) * time.Millisecond
	}

	st.UniqueAccountTypes = decodeSet(fields["uniqueAccountTypes"])
	st.ActiveFilters = decodeSet(fields["activeFilters"])

	var portfolio map[string]json.RawMessage
	if v, ok := fields["portfolio"]; ok && json.Unmarshal(v, &portfolio) == nil {
		for _, k := range Kinds {
			v, ok := portfolio[k.Key()]
			if !ok {
				continue
			}
			st.Portfolio[k] = decodeInvestment(v, st.Portfolio[k])
		}
	}

	// The cached total is derived; never trust the persisted one.
	st.recomputeTotal()
	return st, nil
}

// decodeInvestment overlays the valid fields of one persisted account onto def. A
// negative amount, a non-positive value per unit or a risk outside [0,1] is ignored.
func decodeInvestment(raw json.RawMessage, def Investment) Investment {
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return def
	}
	inv := def
	var n float64
	if v, ok := fields["amount"]; ok && json.Unmarshal(v, &n) == nil && n >= 0 {
		inv.Quantity = n
	}
	if v, ok := fields["valuePer"]; ok && json.Unmarshal(v, &n) == nil && n > 0 {
		inv.ValuePerUnit = n
	}
	if v, ok := fields["risk"]; ok && json.Unmarshal(v, &n) == nil && n >= 0 && n <= 1 {
		inv.RiskWeight = n
	}
	return inv
}

func decodeSet(raw json.RawMessage) Set {
	var items []string
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return NewSet()
	}
	return NewSet(items...)
}

func EncodeLedger(entries []Transaction) ([]byte, error) {
	out := make([]transactionRecord, 0, len(entries))
	for _, e := range entries {
		rec := transactionRecord{
			ID:          e.ID,
			Group:       e.Group,
			AccountType: e.AccountType,
			Description: e.Description,
			Timestamp:   e.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if e.Monetary() {
			amount, total := e.Amount, e.Total
			rec.Amount = &amount
			rec.Total = &total
		}
		out = append(out, rec)
	}
	return json.Marshal(out)
}

// DecodeLedger reads persisted entries. Entries without a positive id, or repeating an id
// already seen, are dropped; a missing or unparsable timestamp becomes now(). An entry is
// monetary only when both amount and total are numbers.
func DecodeLedger(raw []byte, now func() time.Time) ([]Transaction, error) {
	if now == nil {
		now = time.Now
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	seen := make(map[int64]struct{}, len(items))
	out := make([]Transaction, 0, len(items))
	for _, item := range items {
		var fields map[string]json.RawMessage
		if json.Unmarshal(item, &fields) != nil {
			continue
		}
		var t Transaction
		if v, ok := fields["id"]; !ok || json.Unmarshal(v, &t.ID) != nil || t.ID <= 0 {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}

		if v, ok := fields["group"]; ok {
			_ = json.Unmarshal(v, &t.Group)
		}
		if v, ok := fields["accountType"]; ok {
			_ = json.Unmarshal(v, &t.AccountType)
		}
		if v, ok := fields["description"]; ok {
			_ = json.Unmarshal(v, &t.Description)
		}

		var amount, total *float64
		if v, ok := fields["amount"]; ok {
			_ = json.Unmarshal(v, &amount)
		}
		if v, ok := fields["total"]; ok {
			_ = json.Unmarshal(v, &total)
		}
		if amount != nil && total != nil {
			t.Kind = EntryMonetary
			t.Amount, t.Total = *amount, *total
		} else {
			t.Kind = EntryInfo
		}

		t.Timestamp = now()
		var ts string
		if v, ok := fields["timestamp"]; ok && json.Unmarshal(v, &ts) == nil {
			if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				t.Timestamp = parsed
			}
		}
		out = append(out, t)
	}
	return out, nil
}
