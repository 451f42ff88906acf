package umowy

import (
	"bytes"
	"net/url"
	"strconv"

	"nfzharvest/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Row is one data row of an extracted table. when the table's header count
// matches the row's cell count the cells are addressable by header name;
// otherwise the mapping would be ambiguous and only positional access is
// available.
type Row struct {
	named map[string]string
	cells []string

	// Link is the href of the first anchor in the row's first cell,
	// resolved to an absolute URL. nil when the cell holds no anchor.
	Link *url.URL
}

// Named reports whether cells are addressable by header name.
func (r Row) Named() bool {
	return r.named != nil
}

// Get looks a cell up by header name. it never falls back to a positional
// guess: on a positional row (or an unknown header) it returns false and
// the caller decides whether At is appropriate.
func (r Row) Get(name string) (string, bool) {
	if r.named == nil || name == "" {
		return "", false
	}
	v, ok := r.named[name]
	return v, ok
}

// At returns the cell at index i, or "" out of range.
func (r Row) At(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

func (r Row) Len() int {
	return len(r.cells)
}

// Fields returns the row as a flat column→value mapping. positional rows
// are keyed by cell index.
func (r Row) Fields() map[string]string {
	out := make(map[string]string, len(r.cells))
	if r.named != nil {
		for k, v := range r.named {
			out[k] = v
		}
		return out
	}
	for i, v := range r.cells {
		out[strconv.Itoa(i)] = v
	}
	return out
}

// Table is the first <table> of a portal page.
type Table struct {
	Headers []string
	Rows    []Row
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// ExtractTable parses body and converts the first table in document order
// into rows plus per-row primary links resolved against base. it never
// fails: empty or table-less input yields an empty Table.
func ExtractTable(base *url.URL, body []byte) Table {
	if len(body) == 0 {
		return Table{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Table{}
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return Table{}
	}

	var headers []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, htmlutil.CellText(th))
	})

	var rows []Row
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		// header-only and spacer rows carry no data cells
		if tds.Length() == 0 {
			return
		}

		cells := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, htmlutil.CellText(td))
		})

		row := Row{
			cells: cells,
			Link:  htmlutil.FirstAnchorURL(base, tds.First()),
		}
		if len(headers) > 0 && len(headers) == len(cells) {
			row.named = make(map[string]string, len(cells))
			for i, h := range headers {
				row.named[h] = cells[i]
			}
		}
		rows = append(rows, row)
	})

	return Table{Headers: headers, Rows: rows}
}
