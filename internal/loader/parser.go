package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	apperrors "regkareport/internal/errors"
	"regkareport/pkg/contracts/domain"
)

// Positional layout of a merged result line. There is no header row.
const (
	colTimestamp = iota
	colAreaLength
	colAreaWidth
	colAreaHeight
	colNumNodes
	colLinkQuality
	colRunID
	colKeyAgreementDelay
	colTotalSent
	colTotalReceived
	colOverheadRatio
	colSuccessRate
	colAvgUniqueContributions

	// FieldCount is the number of fields on every merged line
	FieldCount
)

// ParseFile parses a merged result file into records.
func ParseFile(path string) ([]domain.ResultRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("merged file %s", path))
		}
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	records, err := ParseReader(f)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("file", path)
		}
		return nil, err
	}
	return records, nil
}

// ParseReader parses positional result lines from r. Blank lines are
// skipped. The timestamp and runId columns are read and discarded.
func ParseReader(r io.Reader) ([]domain.ResultRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var records []domain.ResultRecord
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("malformed result line", err)
		}

		line, _ := reader.FieldPos(0)
		if len(fields) != FieldCount {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("line %d: expected %d fields, got %d", line, FieldCount, len(fields)), nil).
				WithContext("line", line)
		}

		rec, err := parseRecord(fields)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("line %d", line), err).
				WithContext("line", line)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(fields []string) (domain.ResultRecord, error) {
	p := fieldParser{fields: fields}

	rec := domain.ResultRecord{
		AreaLength:             p.int(colAreaLength, "areaLength"),
		AreaWidth:              p.int(colAreaWidth, "areaWidth"),
		AreaHeight:             p.int(colAreaHeight, "areaHeight"),
		NumNodes:               p.int(colNumNodes, "numNodes"),
		LinkQuality:            strings.TrimSpace(fields[colLinkQuality]),
		KeyAgreementDelay:      p.delay(colKeyAgreementDelay),
		TotalSent:              p.int(colTotalSent, "totalSent"),
		TotalReceived:          p.int(colTotalReceived, "totalReceived"),
		OverheadRatio:          p.float(colOverheadRatio, "overheadRatio"),
		SuccessRate:            p.float(colSuccessRate, "successRate"),
		AvgUniqueContributions: p.float(colAvgUniqueContributions, "avgUniqueContributions"),
	}
	return rec, p.err
}

// fieldParser keeps the first conversion error so a record can be built
// in one expression.
type fieldParser struct {
	fields []string
	err    error
}

func (p *fieldParser) float(idx int, name string) float64 {
	if p.err != nil {
		return 0
	}
	s := strings.TrimSpace(p.fields[idx])
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("field %s: invalid number %q", name, s)
		return 0
	}
	return v
}

// int accepts integral values written in float notation ("50.0") since
// the experiment runner does not always format counters as integers.
func (p *fieldParser) int(idx int, name string) int64 {
	if p.err != nil {
		return 0
	}
	s := strings.TrimSpace(p.fields[idx])
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		p.err = fmt.Errorf("field %s: invalid integer %q", name, s)
		return 0
	}
	return int64(f)
}

// delay treats an absent value as the failure sentinel 0.
func (p *fieldParser) delay(idx int) float64 {
	if strings.TrimSpace(p.fields[idx]) == "" {
		return 0
	}
	return p.float(idx, "keyAgreementDelay")
}
