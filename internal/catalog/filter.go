package catalog

import "github.com/breeze-rmm/upgrade-assistant/internal/logging"

var log = logging.L("catalog")

// Filter removes every record whose ID is in the skip set, preserving the
// original relative order. The returned empty flag is true when no records
// survive, whether the raw inventory was already empty or every record was
// skipped; the two cases differ only in what gets logged.
func Filter(records []Record, skip map[string]struct{}) ([]Record, bool) {
	if len(records) == 0 {
		log.Info("inventory is empty, nothing to filter")
		return nil, true
	}

	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if _, skipped := skip[r.ID]; skipped {
			log.Debug("skipping package", logging.KeyPackageID, r.ID)
			continue
		}
		kept = append(kept, r)
	}

	if len(kept) == 0 {
		log.Info("all packages filtered out by skip list", "skipped", len(records))
		return nil, true
	}

	return kept, false
}
