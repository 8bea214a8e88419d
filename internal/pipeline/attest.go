package pipeline

import (
	"fmt"
	"sort"

	"nabonassar/internal"
)

// AttestationFields are the date components, outermost first.
var AttestationFields = []string{"king", "regnal-year", "month", "day"}

// AttestationIndex nests king -> regnal year -> month -> day -> record ids.
type AttestationIndex map[string]map[string]map[string]map[string][]string

// IndexAttestations files each fully dated record under its date. Records
// lacking a component, carrying a "<component>-comment" field, or holding
// several values for a component are left out; the reasons are returned.
func IndexAttestations(records []internal.Record, idField string) (AttestationIndex, []string) {
	idx := AttestationIndex{}
	var skipped []string

	for _, rec := range records {
		id := rec.ID(idField)
		keys, reason := attestationKeys(rec)
		if reason != "" {
			skipped = append(skipped, fmt.Sprintf("%s: %s", id, reason))
			continue
		}
		king, year, month, day := keys[0], keys[1], keys[2], keys[3]

		if idx[king] == nil {
			idx[king] = map[string]map[string]map[string][]string{}
		}
		if idx[king][year] == nil {
			idx[king][year] = map[string]map[string][]string{}
		}
		if idx[king][year][month] == nil {
			idx[king][year][month] = map[string][]string{}
		}
		idx[king][year][month][day] = insertSorted(idx[king][year][month][day], id)
	}
	return idx, skipped
}

func attestationKeys(rec internal.Record) ([]string, string) {
	keys := make([]string, 0, len(AttestationFields))
	for _, field := range AttestationFields {
		v, ok := rec.Get(field)
		if !ok {
			return nil, fmt.Sprintf("no %q field", field)
		}
		if _, commented := rec.Get(field + "-comment"); commented {
			return nil, fmt.Sprintf("%q carries a comment", field)
		}
		if v.IsMultiple() {
			return nil, fmt.Sprintf("%q has %d values", field, len(v.Items))
		}
		keys = append(keys, internal.FormatScalar(v.Scalar()))
	}
	return keys, ""
}

func insertSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
