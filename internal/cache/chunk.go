package cache

import "encoding/json"

// chunkOverheadBytes reserves room for the chunk envelope fields and JSON
// separators so a packed chunk stays under the store's payload ceiling.
const chunkOverheadBytes = 128

// splitRows partitions rows into ordered groups whose serialized size stays
// under limit. Order is preserved exactly; reassembling the groups in index
// order reproduces the input. A single row larger than the limit still gets
// its own group — the store rejects it on write and the next read rebuilds.
func splitRows(rows []json.RawMessage, limit int) [][]json.RawMessage {
	if len(rows) == 0 {
		return nil
	}

	budget := limit - chunkOverheadBytes
	if budget <= 0 {
		budget = limit
	}

	var groups [][]json.RawMessage
	var current []json.RawMessage
	size := 0
	for _, row := range rows {
		rowSize := len(row) + 1 // trailing comma
		if len(current) > 0 && size+rowSize > budget {
			groups = append(groups, current)
			current = nil
			size = 0
		}
		current = append(current, row)
		size += rowSize
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// joinChunks concatenates chunk row groups in index order.
func joinChunks(groups [][]json.RawMessage) []json.RawMessage {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	rows := make([]json.RawMessage, 0, total)
	for _, g := range groups {
		rows = append(rows, g...)
	}
	return rows
}
