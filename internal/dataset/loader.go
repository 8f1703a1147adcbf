package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"leadflow-go/internal/types"
)

// Historical is a labelled lead export used for training.
type Historical struct {
	Leads   []types.LeadRecord
	Labels  []bool
	Skipped int // rows without a usable label
}

// LoadLeads reads leads from the first sheet of an .xlsx file or from a .csv file.
func LoadLeads(path string) ([]types.LeadRecord, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	return toRecords(rows)
}

// LoadHistorical reads leads plus their is_qualified_lead label.
func LoadHistorical(path string) (Historical, error) {
	leads, err := LoadLeads(path)
	if err != nil {
		return Historical{}, err
	}
	var h Historical
	for _, l := range leads {
		raw, _ := l.Text(types.FieldQualified)
		label, ok := parseLabel(raw)
		if !ok {
			h.Skipped++
			continue
		}
		delete(l, types.FieldQualified)
		h.Leads = append(h.Leads, l)
		h.Labels = append(h.Labels, label)
	}
	if len(h.Leads) == 0 {
		return Historical{}, fmt.Errorf("%s: no labelled rows (column %q)", path, types.FieldQualified)
	}
	return h, nil
}

func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return rows, nil
	default:
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no sheets")
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read rows: %w", err)
		}
		return rows, nil
	}
}

func toRecords(rows [][]string) ([]types.LeadRecord, error) {
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = columnName(h)
	}
	var out []types.LeadRecord
	for _, r := range rows[1:] {
		rec := types.LeadRecord{}
		for i, cell := range r {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				rec[header[i]] = v
			}
		}
		// blank spreadsheet rows
		if len(rec) == 0 {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// columnName maps a spreadsheet header to a lead field name.
func columnName(h string) string {
	// Excel "CSV UTF-8" exports start with a byte-order mark
	n := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	switch n {
	case "budget", "yearly_budget":
		return types.FieldAnnualBudget
	case "square_feet", "sqft", "sq_ft":
		return types.FieldPropertySquareFeet
	case "channel", "source", "lead_source":
		return types.FieldSourceChannel
	case "industry":
		return types.FieldIndustryType
	case "engagement", "engagement_score":
		return types.FieldWebsiteEngagementScore
	case "qualified", "is_qualified":
		return types.FieldQualified
	case "e_mail", "email_address":
		return types.FieldEmail
	}
	return n
}

func parseLabel(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "yes", "y":
		return true, true
	case "0", "0.0", "false", "no", "n":
		return false, true
	}
	return false, false
}
