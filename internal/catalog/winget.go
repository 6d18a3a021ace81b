package catalog

import (
	"bufio"
	"regexp"
	"strings"
)

// validPackageID matches valid winget package identifiers (e.g. "Mozilla.Firefox").
var validPackageID = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]{0,255}$`)

// ValidID reports whether id is a well-formed winget package identifier.
func ValidID(id string) bool {
	return validPackageID.MatchString(id)
}

// ParseUpgradeTable parses `winget upgrade` table output into records.
// winget upgrade output format:
//
//	Name            Id                  Version   Available  Source
//	---------------------------------------------------------------
//	Mozilla Firefox Mozilla.Firefox     128.0     129.0      winget
func ParseUpgradeTable(output string) []Record {
	cols := findColumnBoundaries(output)
	if cols == nil {
		return nil
	}

	var records []Record
	scanner := bufio.NewScanner(strings.NewReader(output))
	pastSeparator := false

	for scanner.Scan() {
		line := scanner.Text()

		// Skip until we pass the separator line
		if !pastSeparator {
			if isSeparatorLine(line) {
				pastSeparator = true
			}
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		// winget prints a summary line like "X upgrades available."
		if strings.Contains(line, " upgrades available") || strings.Contains(line, " upgrade available") {
			continue
		}
		// winget prints informational messages when no results found
		if strings.Contains(line, "No installed package") || strings.Contains(line, "No applicable update") {
			continue
		}

		name, id, version, available := extractColumns(line, cols)
		if id == "" || !validPackageID.MatchString(id) {
			continue
		}

		records = append(records, Record{
			ID:               id,
			Name:             strings.TrimSpace(name),
			InstalledVersion: strings.TrimSpace(version),
			AvailableVersion: strings.TrimSpace(available),
		})
	}

	return records
}

// columnPositions holds the start positions of known columns in winget table output.
type columnPositions struct {
	name      int
	id        int
	version   int
	available int // -1 if the Available column is missing
}

// findColumnBoundaries finds column start positions from the header line.
func findColumnBoundaries(output string) *columnPositions {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		nameIdx := strings.Index(line, "Name")
		idIdx := strings.Index(line, "Id")
		versionIdx := strings.Index(line, "Version")
		if nameIdx == -1 || idIdx == -1 || versionIdx == -1 {
			continue
		}
		// Verify Id comes after Name and Version comes after Id
		if idIdx <= nameIdx || versionIdx <= idIdx {
			continue
		}

		cols := &columnPositions{
			name:      nameIdx,
			id:        idIdx,
			version:   versionIdx,
			available: -1,
		}

		availIdx := strings.Index(line, "Available")
		if availIdx > versionIdx {
			cols.available = availIdx
		}

		return cols
	}
	return nil
}

// isSeparatorLine checks if a line is a winget table separator (all dashes/spaces).
func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 10 {
		return false
	}
	for _, ch := range trimmed {
		if ch != '-' && ch != ' ' {
			return false
		}
	}
	return true
}

// extractColumns extracts Name, Id, Version, Available from a data row.
func extractColumns(line string, cols *columnPositions) (name, id, version, available string) {
	if len(line) <= cols.id {
		return
	}
	name = safeSubstring(line, cols.name, cols.id)
	if cols.available > 0 {
		id = safeSubstring(line, cols.id, cols.version)
		version = safeSubstring(line, cols.version, cols.available)
		available = safeSubstring(line, cols.available, len(line))
		// Available column may contain "Source" at the end — trim the source column
		if spaceIdx := strings.LastIndex(strings.TrimSpace(available), " "); spaceIdx > 0 {
			candidate := strings.TrimSpace(available[:spaceIdx])
			// Only strip if the trailing part looks like a source name (no dots/numbers)
			tail := strings.TrimSpace(available[spaceIdx:])
			if !strings.ContainsAny(tail, ".0123456789") {
				available = candidate
			}
		}
	} else {
		id = safeSubstring(line, cols.id, cols.version)
		version = safeSubstring(line, cols.version, len(line))
	}
	return
}

// safeSubstring extracts a substring with bounds checking and trims whitespace.
func safeSubstring(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return strings.TrimSpace(s[start:end])
}
