package portal

// RawRow is one <tr> of the portal's activity table, before any
// interpretation. A row is either a period marker (a single cell spanning
// the table, e.g. "2025.1") or a data row with ordered cells.
type RawRow struct {
	// IsPeriod marks a period-marker row; Period then holds its label.
	IsPeriod bool
	Period   string

	Cells []Cell
}

// Cell is the text-level view of a <td>.
type Cell struct {
	// Text is the cell's text content with line breaks preserved.
	Text string

	// HasIcon reports an <img> inside the cell; IconTitle is its title attribute.
	HasIcon   bool
	IconTitle string

	// HasLink reports an <a> inside the cell; LinkText is its text content.
	HasLink  bool
	LinkText string
}

// PeriodRow builds a period-marker row.
func PeriodRow(label string) RawRow {
	return RawRow{IsPeriod: true, Period: label}
}

// DataRow builds a data row from cells.
func DataRow(cells ...Cell) RawRow {
	return RawRow{Cells: cells}
}
