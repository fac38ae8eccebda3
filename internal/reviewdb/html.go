package reviewdb

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseHTMLTable extracts rows from a published-to-web spreadsheet export.
// The pubhtml variant wraps the sheet in a single <table>; cells map 1:1
// onto the CSV columns, so the result feeds the same grouped-layout parser.
// Each row may start with a <th> gutter cell holding the row number, which
// is dropped.
func parseHTMLTable(body []byte) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var rows [][]string
	doc.Find("table").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Children().Each(func(_ int, cell *goquery.Selection) {
			if goquery.NodeName(cell) == "th" && cell.Find("div.row-header-wrapper").Length() > 0 {
				return
			}
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows, nil
}
