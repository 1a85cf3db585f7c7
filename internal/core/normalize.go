package core

// PreviewRows is how many accepted rows an ingestion run echoes back.
const PreviewRows = 5

// Normalize maps a decoded row onto a Record using def's column mapping.
// Rows without an order id or a usable amount are rejected with a *SkipError;
// an unparseable timestamp only leaves Timestamp nil.
func Normalize(row RawRow, def SourceDefinition) (Record, error) {
	col, rawID, ok := lookup(row, def.OrderIDColumns)
	if !ok {
		return Record{}, &SkipError{Reason: "missing order id", Column: def.OrderIDColumns[0]}
	}
	orderID := CleanCell(rawID)
	if orderID == "" {
		return Record{}, &SkipError{Reason: "empty order id", Column: col}
	}

	col, rawAmount, ok := lookup(row, def.AmountColumns)
	if !ok {
		return Record{}, &SkipError{Reason: "missing amount", Column: def.AmountColumns[0]}
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return Record{}, &SkipError{Reason: "invalid amount: " + err.Error(), Column: col}
	}

	rec := Record{
		Source:  def.Source,
		OrderID: orderID,
		Amount:  amount,
		Raw:     row,
	}

	// first non-empty candidate decides; a bad value there is not retried
	for _, name := range def.TimestampColumns {
		_, v, ok := lookup(row, []string{name})
		if !ok || v == "" {
			continue
		}
		if ts, ok := ParseTimestamp(v); ok {
			rec.Timestamp = &ts
		}
		break
	}

	return rec, nil
}
