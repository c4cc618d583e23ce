package game

import "time"

// EntryKind tells monetary ledger entries apart from purely informational ones.
type EntryKind int

const (
	EntryMonetary EntryKind = iota
	EntryInfo
)

// Transaction is one immutable ledger entry. Amount and Total are only meaningful when
// Kind is EntryMonetary; Total is the running balance of AccountType after the entry.
type Transaction struct {
	ID          int64
	Group       string
	AccountType string
	Description string
	Kind        EntryKind
	Amount      float64
	Total       float64
	Timestamp   time.Time
}

func (t Transaction) Monetary() bool {
	return t.Kind == EntryMonetary
}

// Ledger is the append-only sequence of transactions of a session.
type Ledger struct {
	entries []Transaction
	nextID  int64
}

// NewLedger wraps restored entries; ids continue from the highest one seen.
func NewLedger(entries []Transaction) *Ledger {
	l := &Ledger{entries: append([]Transaction(nil), entries...), nextID: 1}
	for _, e := range entries {
		if e.ID >= l.nextID {
			l.nextID = e.ID + 1
		}
	}
	return l
}

func (l *Ledger) append(t Transaction) Transaction {
	t.ID = l.nextID
	l.nextID++
	l.entries = append(l.entries, t)
	return t
}

func (l *Ledger) Len() int { return len(l.entries) }

// NextID is the id the next appended entry will receive.
func (l *Ledger) NextID() int64 { return l.nextID }

func (l *Ledger) Entries() []Transaction {
	return append([]Transaction(nil), l.entries...)
}

func (l *Ledger) reset() {
	l.entries = nil
	l.nextID = 1
}

// Filter returns the entries whose account type is in filters, newest first.
// An empty filter set selects everything.
func Filter(entries []Transaction, filters Set) []Transaction {
	out := make([]Transaction, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if len(filters) > 0 && !filters.Has(e.AccountType) {
			continue
		}
		out = append(out, e)
	}
	return out
}
