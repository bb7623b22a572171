package ranking

import (
	"errors"
	"fmt"
	"iter"
	"rankwatch/lib/htmlutil"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrNoRankingContainer = errors.New("no ranking container found")

// Selectors describes where ranking data lives in a page.
type Selectors struct {
	// Rows are tried in order, the first one that matches anything wins.
	Rows []string `json:"rows"`
	// Anchor is the name-bearing element of a cell, cells without it are skipped.
	Anchor string `json:"anchor"`
	// Images are tried in order for an alt attribute before falling back to the anchor text.
	Images []string `json:"images"`
	// Caption holds the "M/D" date the ranking was compiled on.
	Caption string `json:"caption"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		Rows: []string{
			"tr[class^='rank']",
			"#ranking tr",
			"table.ranking tr",
		},
		Anchor:  "a.listbox-rank",
		Images:  []string{"img.cgimg", "img"},
		Caption: "div.rank_title + p",
	}
}

// Page is a parsed ranking page.
type Page struct {
	Label string
	// Month is the month of the caption date, 0 when the page has none.
	Month int

	rows      *goquery.Selection
	selectors Selectors
}

// ParsePage resolves the ranking rows of markup, it fails with
// ErrNoRankingContainer when none of the row selectors match.
func ParsePage(markup, label string, selectors Selectors) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	var rows *goquery.Selection
	for _, selector := range selectors.Rows {
		found := doc.Find(selector)
		if found.Length() > 0 {
			rows = found
			break
		}
	}
	if rows == nil {
		return Page{}, fmt.Errorf("%s: %w", label, ErrNoRankingContainer)
	}

	return Page{
		Label:     label,
		Month:     captionMonth(doc, selectors.Caption),
		rows:      rows,
		selectors: selectors,
	}, nil
}

var captionDateRegex = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)

func captionMonth(doc *goquery.Document, selector string) int {
	if selector == "" {
		return 0
	}
	groups := captionDateRegex.FindStringSubmatch(htmlutil.CleanText(doc.Find(selector).First()))
	if len(groups) < 3 {
		return 0
	}
	month, err := strconv.Atoi(groups[1])
	if err != nil || month < 1 || month > 12 {
		return 0
	}
	return month
}

// Records walks the ranking rows lazily. The rank of a row is its 1-based
// position among rows that have cells, the column of a record is the
// position of its cell in the row.
func (p Page) Records() iter.Seq[RawRecord] {
	return func(yield func(RawRecord) bool) {
		if p.rows == nil {
			return
		}
		rank := 0
		p.rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.ChildrenFiltered("td")
			if cells.Length() == 0 {
				return true
			}
			rank++

			keepGoing := true
			cells.EachWithBreak(func(column int, cell *goquery.Selection) bool {
				name, ok := p.cellName(cell)
				if !ok {
					return true
				}
				keepGoing = yield(RawRecord{Rank: rank, Name: name, Column: column})
				return keepGoing
			})
			return keepGoing
		})
	}
}

func (p Page) cellName(cell *goquery.Selection) (string, bool) {
	anchor := cell.Find(p.selectors.Anchor).First()
	if anchor.Length() == 0 {
		return "", false
	}
	for _, selector := range p.selectors.Images {
		alt, ok := htmlutil.FirstAttr(anchor.Find(selector), "alt")
		if ok {
			return alt, true
		}
	}
	text := htmlutil.CleanText(anchor)
	return text, text != ""
}

// Enrich resolves the ranking type of every record of the page, the page label
// becomes the category.
func Enrich(page Page, vocabularies Vocabularies) []EnrichedRecord {
	var out []EnrichedRecord
	for raw := range page.Records() {
		out = append(out, EnrichedRecord{
			Rank:     raw.Rank,
			Name:     raw.Name,
			Type:     vocabularies.Resolve(page.Label, raw.Column),
			Category: page.Label,
		})
	}
	return out
}
