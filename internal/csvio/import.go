package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shaadi-rsvp/shaadi/internal/code"
	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

// ImportRow is one parsed guest line. Line is the 1-based line in the file.
type ImportRow struct {
	Line  int
	Input model.PartyInput
	Code  string
}

type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Message)
}

func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(strings.ReplaceAll(h, "_", " ")), "_")
}

// ParseBool accepts true, yes, 1, y and t in any case.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y", "t":
		return true
	}
	return false
}

// ParseImport reads a guest CSV. Rows without a name are reported as row errors;
// an unreadable file or a header without a name column fails the whole parse.
func ParseImport(r io.Reader) ([]ImportRow, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New("empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[headerKey(h)] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, nil, errors.New("missing name column")
	}

	var rows []ImportRow
	var rowErrs []RowError
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rowErrs = append(rowErrs, RowError{Line: perr.StartLine, Message: perr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("read rows: %w", err)
		}
		line, _ := cr.FieldPos(0)
		get := func(key string) string {
			if i, ok := cols[key]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		if isBlank(rec) {
			continue
		}
		name := get("name")
		if name == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Message: "name is required"})
			continue
		}
		maxGuests, err := strconv.Atoi(get("max_guests"))
		if err != nil || maxGuests < 1 {
			maxGuests = 1
		}
		inv := model.Invitations{}
		for _, slug := range model.EventSlugs {
			if ParseBool(get("invited_" + string(slug))) {
				inv[slug] = true
			}
		}
		rows = append(rows, ImportRow{
			Line: line,
			Input: model.PartyInput{
				Name:        name,
				Email:       get("email"),
				Phone:       get("phone"),
				PartyName:   get("party_name"),
				MaxGuests:   maxGuests,
				Notes:       get("notes"),
				Invitations: inv,
			},
			Code: code.Normalize(get("rsvp_code")),
		})
	}
	return rows, rowErrs, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Options controls how Run treats existing parties.
type Options struct {
	Update bool
	DryRun bool
}

type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors"`
	DryRun  bool       `json:"dry_run"`
}

// Importer writes parsed rows into the party store.
type Importer struct {
	parties *store.PartyStore
}

func NewImporter(parties *store.PartyStore) *Importer {
	return &Importer{parties: parties}
}

// Run imports rows. A matching party (by email, then by name) is updated when
// opts.Update is set and skipped otherwise. Per-row failures are collected in the
// result; the returned error is reserved for storage failures that stop the run.
func (im *Importer) Run(rows []ImportRow, opts Options) (ImportResult, error) {
	res := ImportResult{DryRun: opts.DryRun}
	for _, row := range rows {
		existing, err := im.match(row.Input)
		if err != nil {
			return res, fmt.Errorf("row %d: %w", row.Line, err)
		}

		if existing != nil {
			if !opts.Update {
				res.Skipped++
				continue
			}
			if !opts.DryRun {
				in := row.Input
				in.Name = existing.Name
				if in.Notes == "" {
					in.Notes = existing.Notes
				}
				if _, err := im.parties.Update(existing.ID, in); err != nil {
					res.Errors = append(res.Errors, RowError{Line: row.Line, Message: err.Error()})
					continue
				}
			}
			res.Updated++
			continue
		}

		if !opts.DryRun {
			if err := im.create(row); err != nil {
				if errors.Is(err, code.ErrRetryExhausted) {
					return res, fmt.Errorf("row %d: %w", row.Line, err)
				}
				res.Errors = append(res.Errors, RowError{Line: row.Line, Message: err.Error()})
				continue
			}
		}
		res.Created++
	}
	return res, nil
}

func (im *Importer) match(in model.PartyInput) (*model.Party, error) {
	if in.Email != "" {
		p, err := im.parties.GetByEmail(in.Email)
		if err != nil || p != nil {
			return p, err
		}
	}
	return im.parties.GetByName(in.Name)
}

// create keeps a provided code when it is well formed and unused, and falls back
// to a generated one otherwise.
func (im *Importer) create(row ImportRow) error {
	if row.Code != "" && code.Acceptable(row.Code) {
		_, err := im.parties.CreateWithCode(row.Input, row.Code)
		if !errors.Is(err, store.ErrCodeTaken) {
			return err
		}
	}
	_, err := im.parties.Create(row.Input)
	return err
}
