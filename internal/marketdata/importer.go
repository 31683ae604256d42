package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aristath/eventscope/internal/domain"
)

// Kind names an importable market table.
type Kind string

const (
	KindIndex      Kind = "index"
	KindIndustry   Kind = "industry"
	KindStock      Kind = "stock"
	KindMembership Kind = "membership"
)

// ParseKind maps a table name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindIndex, KindIndustry, KindStock, KindMembership:
		return k, nil
	default:
		return "", fmt.Errorf("unknown table %q (want index, industry, stock or membership)", s)
	}
}

func (k Kind) table() table {
	switch k {
	case KindIndex:
		return indexTable
	case KindIndustry:
		return industryTable
	default:
		return stockTable
	}
}

// Import reads a CSV export of one table and writes it in a single
// transaction. The header names the columns, in any order:
//
//	index:      date, index_name, return, volume
//	industry:   date, industry_name, return, volume
//	stock:      date, stkcode, return, volume
//	membership: stock, industry_name
//
// Rows with a blank return are skipped. It returns the number of rows
// written.
func (s *Store) Import(kind Kind, r io.Reader) (int, error) {
	if kind == KindMembership {
		members, err := ReadMembership(r)
		if err != nil {
			return 0, err
		}
		if err := s.ReplaceMembership(members); err != nil {
			return 0, err
		}
		return len(members), nil
	}

	t := kind.table()
	series, err := ReadSeries(r, t.entity)
	if err != nil {
		return 0, err
	}
	if err := s.replace(t, series); err != nil {
		return 0, err
	}
	return len(series), nil
}

// ReadSeries parses date/entity/return/volume rows; entityColumn names the
// entity column of the header.
func ReadSeries(r io.Reader, entityColumn string) (domain.Series, error) {
	reader, cols, err := openCSV(r, "date", entityColumn, "return", "volume")
	if err != nil {
		return nil, err
	}

	var series domain.Series
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		rawReturn := strings.TrimSpace(record[cols["return"]])
		if rawReturn == "" {
			continue
		}

		date, err := domain.ParseDate(strings.TrimSpace(record[cols["date"]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ret, err := strconv.ParseFloat(rawReturn, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad return %q: %w", line, rawReturn, err)
		}
		volume := 0.0
		if raw := strings.TrimSpace(record[cols["volume"]]); raw != "" {
			if volume, err = strconv.ParseFloat(raw, 64); err != nil {
				return nil, fmt.Errorf("line %d: bad volume %q: %w", line, raw, err)
			}
		}

		series = append(series, domain.Observation{
			Date:   date,
			Entity: strings.TrimSpace(record[cols[entityColumn]]),
			Return: ret,
			Volume: volume,
		})
	}
	return series, nil
}

// ReadMembership parses stock/industry_name rows.
func ReadMembership(r io.Reader) (map[string]string, error) {
	reader, cols, err := openCSV(r, "stock", "industry_name")
	if err != nil {
		return nil, err
	}

	members := make(map[string]string)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		stock := strings.TrimSpace(record[cols["stock"]])
		industry := strings.TrimSpace(record[cols["industry_name"]])
		if stock == "" || industry == "" {
			return nil, fmt.Errorf("line %d: stock and industry_name are required", line)
		}
		members[stock] = industry
	}
	return members, nil
}

// openCSV reads the header and maps each required column to its position.
func openCSV(r io.Reader, required ...string) (*csv.Reader, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	reader.FieldsPerRecord = len(header)

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("CSV header is missing column %q", name)
		}
	}
	return reader, cols, nil
}
