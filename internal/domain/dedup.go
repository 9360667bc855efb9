package domain

// Dedup collapses records sharing an identifier down to the one with the
// greatest timestamp string. Output order is input order of each identifier's
// first appearance; records without an identifier pass through at their
// original position and are never deduplicated against each other.
//
// Timestamps are compared lexically, which is correct for the uniform
// ISO-8601-like strings the sources emit. On an exact timestamp tie the
// later record wins, so reprocessing the same feed is deterministic.
func Dedup(records []RawRecord) []RawRecord {
	out := make([]RawRecord, 0, len(records))
	byID := make(map[string]int, len(records))

	for _, rec := range records {
		if rec.ID == "" {
			out = append(out, rec)
			continue
		}
		pos, seen := byID[rec.ID]
		if !seen {
			byID[rec.ID] = len(out)
			out = append(out, rec)
			continue
		}
		if rec.Timestamp >= out[pos].Timestamp {
			out[pos] = rec
		}
	}

	return out
}
