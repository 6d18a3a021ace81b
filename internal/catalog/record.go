package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record describes one upgradeable application discovered in the user session.
type Record struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	InstalledVersion string `json:"installedVersion"`
	AvailableVersion string `json:"availableVersion"`
}

// HasID reports whether the record carries the identifier required for an
// upgrade action. Records without one are reported, never upgraded.
func (r Record) HasID() bool {
	return r.ID != ""
}

// Label renders the record for display: "Mozilla Firefox  128.0 → 129.0".
func (r Record) Label() string {
	name := r.Name
	if name == "" {
		name = r.ID
	}
	if r.InstalledVersion == "" && r.AvailableVersion == "" {
		return name
	}
	return fmt.Sprintf("%s  %s → %s", name, r.InstalledVersion, r.AvailableVersion)
}

// EncodeResult serializes records for the handoff result artifact.
func EncodeResult(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}

// DecodeResult parses the handoff result artifact. The user-session writer
// may have produced either a list or a single object; both are normalized
// into one uniform slice. Empty input decodes to an empty inventory.
func DecodeResult(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal(trimmed, &records); err == nil {
		return records, nil
	}

	var single Record
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	return []Record{single}, nil
}
