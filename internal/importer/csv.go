package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"vinohub/internal/catalog"
)

// Row is one CSV data row after header mapping. Numeric fields that failed
// to parse are simply absent; the row still imports with what it has.
type Row struct {
	Line     int
	Name     string
	Winery   string
	Variety  string
	Region   string
	Country  string
	Type     string
	Vintage  *int
	Rating   *float64 // personal rating column
	Average  *float64 // community average column
	Price    *float64
	Pairings []string
	Note     string
	TastedAt *time.Time
}

// columns holds the index of each recognized role, -1 when the header
// didn't carry it.
type columns struct {
	name, winery, variety, region, country, wineType int
	vintage, rating, average, price                  int
	pairings, note, date                             int
}

// mapColumns locates roles by case-insensitive substring match on the
// header names. Export formats disagree on exact wording ("Wine name",
// "Producer", "Your rating", "Average rating"), substrings cover them all.
// The winery and type checks run before the name one so that "Winery" and
// "Wine type" are not taken for name columns, and the average check runs
// before the rating one so "Average rating" is not taken for a personal
// rating.
func mapColumns(header []string) columns {
	cols := columns{
		name: -1, winery: -1, variety: -1, region: -1, country: -1, wineType: -1,
		vintage: -1, rating: -1, average: -1, price: -1,
		pairings: -1, note: -1, date: -1,
	}

	assign := func(target *int, i int) {
		if *target == -1 {
			*target = i
		}
	}

	for i, raw := range header {
		h := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case strings.Contains(h, "winery") || strings.Contains(h, "producer"):
			assign(&cols.winery, i)
		case strings.Contains(h, "type") || strings.Contains(h, "color") || strings.Contains(h, "colour"):
			assign(&cols.wineType, i)
		case strings.Contains(h, "name") || strings.Contains(h, "wine"):
			assign(&cols.name, i)
		case strings.Contains(h, "variet") || strings.Contains(h, "grape"):
			assign(&cols.variety, i)
		case strings.Contains(h, "region"):
			assign(&cols.region, i)
		case strings.Contains(h, "country"):
			assign(&cols.country, i)
		case strings.Contains(h, "average"):
			assign(&cols.average, i)
		case strings.Contains(h, "rating"):
			assign(&cols.rating, i)
		case strings.Contains(h, "vintage") || strings.Contains(h, "year"):
			assign(&cols.vintage, i)
		case strings.Contains(h, "price"):
			assign(&cols.price, i)
		case strings.Contains(h, "pairing") || strings.Contains(h, "food"):
			assign(&cols.pairings, i)
		case strings.Contains(h, "note") || strings.Contains(h, "review"):
			assign(&cols.note, i)
		case strings.Contains(h, "date") || strings.Contains(h, "time"):
			assign(&cols.date, i)
		}
	}
	return cols
}

// ReadRows parses the CSV stream into mapped rows. The first record is the
// header. Rows with no usable name are dropped; a truncated row keeps
// whatever columns it does have.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := mapColumns(header)
	if cols.name == -1 {
		return nil, fmt.Errorf("no name column in header")
	}

	var rows []Row
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// skip the malformed row, keep reading
			continue
		}

		row := Row{
			Line:    line,
			Name:    field(record, cols.name),
			Winery:  field(record, cols.winery),
			Variety: field(record, cols.variety),
			Region:  field(record, cols.region),
			Country: field(record, cols.country),
			Type:    strings.ToLower(field(record, cols.wineType)),
			Note:    field(record, cols.note),
		}
		if row.Name == "" {
			continue
		}

		row.Vintage = parseIntField(field(record, cols.vintage))
		row.Rating = parseFloatField(field(record, cols.rating))
		row.Average = parseFloatField(field(record, cols.average))
		row.Price = parseFloatField(field(record, cols.price))
		if p := field(record, cols.pairings); p != "" {
			row.Pairings = catalog.ParsePairings(p)
		}
		if d := field(record, cols.date); d != "" {
			row.TastedAt = parseDateField(d)
		}

		rows = append(rows, row)
	}
	return rows, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseIntField(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloatField(s string) *float64 {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseDateField(s string) *time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
