package leads

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// Ingestor turns uploaded delimited-text files into lead records. Duplicate
// detection is scoped to the batch: the seen-sets live for the lifetime of one
// Ingestor, which spans every file in a single upload action. Cross-batch
// duplicates are only caught on the manual entry path.
type Ingestor struct {
	seenEmails map[string]struct{}
	seenPhones map[string]struct{}
}

// NewIngestor creates an ingestor with empty duplicate-detection state.
func NewIngestor() *Ingestor {
	return &Ingestor{
		seenEmails: make(map[string]struct{}),
		seenPhones: make(map[string]struct{}),
	}
}

// ParseFile reads one CSV file into lead records. The first row is a header;
// header cells are lower-cased and trimmed, and the name/email/phone columns
// are looked up by position. A missing column yields an empty field. The
// source column is optional and defaults to the file name.
//
// Quoted fields are handled by encoding/csv, and rows with a deviant field
// count are tolerated rather than aborting the file.
func (g *Ingestor) ParseFile(fileName string, r io.Reader) ([]*Lead, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyBatch
	}
	if err != nil {
		return nil, fmt.Errorf("leads: read header of %s: %w", fileName, err)
	}

	columns := make(map[string]int, len(header))
	for i, cell := range header {
		columns[strings.ToLower(strings.TrimSpace(cell))] = i
	}

	var out []*Lead
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leads: parse %s: %w", fileName, err)
		}
		if isBlankRow(record) {
			continue
		}

		lead := &Lead{
			Name:      cellAt(record, columns, "name"),
			Email:     cellAt(record, columns, "email"),
			Phone:     cellAt(record, columns, "phone"),
			Source:    cellAt(record, columns, "source"),
			CreatedAt: time.Now().UTC(),
		}
		if lead.Source == "" {
			lead.Source = fileName
		}

		g.classify(lead)
		out = append(out, lead)
	}

	return out, nil
}

// classify runs both field validators and the batch-scoped duplicate check,
// then assigns the record status. Duplicate takes precedence over invalid.
func (g *Ingestor) classify(lead *Lead) {
	if res := ValidateEmail(lead.Email); !res.Valid {
		lead.ValidationErrors = append(lead.ValidationErrors, res.Errors...)
	}
	if res := ValidatePhone(lead.Phone); !res.Valid {
		lead.ValidationErrors = append(lead.ValidationErrors, res.Errors...)
	}

	email := NormalizeEmail(lead.Email)
	phone := NormalizePhone(lead.Phone)

	// Empty values never participate in duplicate detection; two rows with
	// no email are not duplicates of each other.
	if email != "" {
		if _, seen := g.seenEmails[email]; seen {
			lead.IsDuplicate = true
		}
	}
	if phone != "" {
		if _, seen := g.seenPhones[phone]; seen {
			lead.IsDuplicate = true
		}
	}

	switch {
	case lead.IsDuplicate:
		lead.Status = StatusDuplicate
	case len(lead.ValidationErrors) > 0:
		lead.Status = StatusInvalid
	default:
		lead.Status = StatusValid
	}

	// Every non-duplicate row claims its values, so a later row repeating an
	// invalid row's email is still flagged as a duplicate.
	if !lead.IsDuplicate {
		if email != "" {
			g.seenEmails[email] = struct{}{}
		}
		if phone != "" {
			g.seenPhones[phone] = struct{}{}
		}
	}
}

// FilterValid returns the subset of a batch eligible for persistence.
func FilterValid(batch []*Lead) []*Lead {
	var out []*Lead
	for _, lead := range batch {
		if lead.Status == StatusValid {
			out = append(out, lead)
		}
	}
	return out
}

func cellAt(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isBlankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
