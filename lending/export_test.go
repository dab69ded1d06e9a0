package lending

// SetPageSize shrinks ListAvailable pages so tests can cross page borders.
func (l *Ledger) SetPageSize(n int) { l.pageSize = n }
