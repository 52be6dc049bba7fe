package portal

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// periodColspan is the colspan the portal uses for period header cells.
const periodColspan = "5"

// ParseRows turns the activity table markup into raw rows. The fragment may
// be the whole page, the table, or just its tbody: every <tr> found is
// returned in document order. Header rows made only of <th> cells come back
// as rows without cells and are dropped later by the extractor.
func ParseRows(markup string) ([]RawRow, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse activity table: %w", err)
	}

	var rows []RawRow
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			rows = append(rows, parseRow(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return rows, nil
}

func parseRow(tr *html.Node) RawRow {
	var cells []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Td {
			cells = append(cells, c)
		}
	}

	for _, td := range cells {
		if attr(td, "colspan") == periodColspan {
			return PeriodRow(strings.TrimSpace(textContent(td)))
		}
	}

	row := RawRow{Cells: make([]Cell, 0, len(cells))}
	for _, td := range cells {
		cell := Cell{Text: textContent(td)}
		if img := find(td, atom.Img); img != nil {
			cell.HasIcon = true
			cell.IconTitle = attr(img, "title")
		}
		if a := find(td, atom.A); a != nil {
			cell.HasLink = true
			cell.LinkText = strings.TrimSpace(textContent(a))
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}

// textContent mirrors the DOM property of the same name, except that <br>
// contributes a line break.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte('\n')
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// find returns the first descendant element with the given tag.
func find(n *html.Node, tag atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == tag {
			return c
		}
		if found := find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
