package snapshot

import "fmt"

// Snapshot is the keyed, deduplicated form of a registry fetch.
type Snapshot struct {
	Firms   map[string]FirmRecord
	Offices map[string]OfficeRecord

	rows             int
	skippedRows      int
	duplicateOffices int
	conflictingFirms int
	integrityChecked bool
}

// Normalize folds rows into firm and office maps. For firms the first row
// wins; for offices the last row wins.
func Normalize(rows []Row) *Snapshot {
	s := &Snapshot{
		Firms:   make(map[string]FirmRecord),
		Offices: make(map[string]OfficeRecord),
		rows:    len(rows),
	}
	for _, row := range rows {
		f := row.firm()
		o := row.office()
		if f.Code == "" || o.Code == "" {
			s.skippedRows++
			continue
		}

		if existing, ok := s.Firms[f.Code]; !ok {
			s.Firms[f.Code] = f
		} else if existing != f {
			s.conflictingFirms++
		}

		if _, ok := s.Offices[o.Code]; ok {
			s.duplicateOffices++
		}
		s.Offices[o.Code] = o
	}
	return s
}

func (s *Snapshot) Rows() int { return s.rows }

// CheckIntegrity repairs the maps in place and returns one warning per rule
// that fired. Rules run in order: diagnostics, orphan offices, childless firms.
func (s *Snapshot) CheckIntegrity() []string {
	var warnings []string

	if s.skippedRows > 0 {
		warnings = append(warnings, fmt.Sprintf("Skipped %d registry rows with missing business codes", s.skippedRows))
	}
	if s.duplicateOffices > 0 {
		warnings = append(warnings, fmt.Sprintf("Found %d duplicate office codes", s.duplicateOffices))
	}
	if s.conflictingFirms > 0 {
		warnings = append(warnings, fmt.Sprintf("Found %d duplicate firm codes with conflicting attributes", s.conflictingFirms))
	}

	orphans := 0
	for code, o := range s.Offices {
		if _, ok := s.Firms[o.FirmCode]; !ok {
			delete(s.Offices, code)
			orphans++
		}
	}
	if orphans > 0 {
		warnings = append(warnings, fmt.Sprintf("Removed %d orphan offices", orphans))
	}

	referenced := make(map[string]struct{}, len(s.Firms))
	for _, o := range s.Offices {
		referenced[o.FirmCode] = struct{}{}
	}
	childless := 0
	for code := range s.Firms {
		if _, ok := referenced[code]; !ok {
			delete(s.Firms, code)
			childless++
		}
	}
	if childless > 0 {
		warnings = append(warnings, fmt.Sprintf("Removed %d firms without offices", childless))
	}

	s.integrityChecked = true
	return warnings
}

// Checked reports whether CheckIntegrity has run.
func (s *Snapshot) Checked() bool { return s.integrityChecked }
