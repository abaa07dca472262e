package stock_max

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// sheet is a header row plus data rows, whatever file format it came from.
type sheet struct {
	name   string
	header []string
	rows   [][]string
}

// readSheet reads a CSV or the first worksheet of an XLSX workbook. The format is
// chosen from the file name extension.
func readSheet(r io.Reader, name string) (*sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(r, name)
	default:
		records, err = readCSV(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableTable, name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: empty file, header row required", ErrUnreadableTable, name)
	}

	s := &sheet{name: name, header: trimAll(records[0])}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		s.rows = append(s.rows, rec)
	}
	return s, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comma = sniffDelimiter(data)
	return reader.ReadAll()
}

// sniffDelimiter picks ';' when the header uses it and has no commas, which is how
// spreadsheets export CSV in Portuguese locales.
func sniffDelimiter(data []byte) rune {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	if bytes.Count(firstLine, []byte(";")) > 0 && bytes.Count(firstLine, []byte(",")) == 0 {
		return ';'
	}
	return ','
}

// readXLSX returns the first worksheet as raw cell values. Display formats such as
// "#,##0" are ignored, so 1234 reads as "1234" and never as "1,234".
func readXLSX(r io.Reader, name string) ([][]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", name, err)
	}
	defer book.Close()

	first := book.GetSheetName(0)
	if first == "" {
		return nil, fmt.Errorf("workbook %s has no worksheet", name)
	}
	records, err := book.GetRows(first, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s of %s: %w", first, name, err)
	}
	for len(records) > 0 && isBlank(records[len(records)-1]) {
		records = records[:len(records)-1]
	}
	return records, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// col returns the index of the first header matching any of the names, or -1.
func (s *sheet) col(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, n := range names {
		targets[normalizeColumnName(n)] = struct{}{}
	}
	for i, h := range s.header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

// require is col that fails when the column is absent.
func (s *sheet) require(names ...string) (int, error) {
	if i := s.col(names...); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %s has no %q column", ErrMissingColumn, s.name, names[0])
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// Loader turns input files into typed tables for a topology, collecting non-fatal
// warnings along the way.
type Loader struct {
	topology *Topology
	warnings []string
}

// NewLoader creates a loader for a topology.
func NewLoader(topology *Topology) *Loader {
	if topology == nil {
		topology = DefaultTopology()
	}
	return &Loader{topology: topology}
}

// Warnings returns the warnings gathered so far.
func (l *Loader) Warnings() []string {
	return append([]string(nil), l.warnings...)
}

func (l *Loader) warnf(format string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

// warehouseColumns resolves one column per topology warehouse; a missing one is a
// configuration error.
func (l *Loader) warehouseColumns(s *sheet, suffix string) (map[string]int, error) {
	cols := make(map[string]int)
	var missing []string
	for _, wh := range l.topology.Names() {
		i := s.col(wh + suffix)
		if i < 0 {
			missing = append(missing, wh+suffix)
			continue
		}
		cols[wh] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s has no column for warehouse(s) %s",
			ErrUnknownWarehouse, s.name, strings.Join(missing, ", "))
	}
	return cols, nil
}

// LoadSales reads the sales table.
func (l *Loader) LoadSales(r io.Reader, name string) (*SalesTable, error) {
	s, err := readSheet(r, name)
	if err != nil {
		return nil, err
	}
	idxLabel, err := s.require("Rótulos de Linha", "rotulos de linha", "label", "produto", "referencia")
	if err != nil {
		return nil, err
	}
	idxType, err := s.require("Tipodesc", "tipo desc", "product type")
	if err != nil {
		return nil, err
	}
	idxLoad, err := s.require("QtVeiculo", "qt veiculo", "vehicle load")
	if err != nil {
		return nil, err
	}
	idxPrice := s.col("Preço", "preco", "preco unitario", "unit price", "pvp", "custo", "pcusto")
	if idxPrice < 0 {
		l.warnf("%s: no unit price column, stock values will be 0", name)
	}
	whCols, err := l.warehouseColumns(s, "")
	if err != nil {
		return nil, err
	}

	table := &SalesTable{Header: s.header, Records: make([]SalesRecord, 0, len(s.rows))}
	for _, rec := range s.rows {
		sales := make(map[string]float64, len(whCols))
		for wh, i := range whCols {
			sales[wh] = parseNumber(cell(rec, i))
		}
		cells := make([]string, len(s.header))
		copy(cells, rec)
		table.Records = append(table.Records, SalesRecord{
			Label:       cell(rec, idxLabel),
			TypeDesc:    cell(rec, idxType),
			VehicleLoad: parseNumber(cell(rec, idxLoad)),
			UnitPrice:   parseNumber(cell(rec, idxPrice)),
			Sales:       sales,
			Cells:       cells,
		})
	}
	return table, nil
}

// LoadPolicy reads the tiered stock policy table.
func (l *Loader) LoadPolicy(r io.Reader, name string) (*TierTable, error) {
	s, err := readSheet(r, name)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int)
	for _, c := range []string{"Tipo", "Vendas", "ABC", "Central", "calculo_Central",
		"Regional", "calculo_Regional", "Local", "calculo_Local"} {
		i, err := s.require(c)
		if err != nil {
			return nil, err
		}
		idx[c] = i
	}

	rule := func(rec []string, tier string) TierRule {
		raw := cell(rec, idx["calculo_"+tier])
		mode, ok := ParseCalcMode(raw)
		if !ok {
			l.warnf("%s: unknown calculation mode %q for %s, using fixed units", name, raw, tier)
		}
		return TierRule{Value: parseNumber(cell(rec, idx[tier])), Mode: mode}
	}

	var tiers []PolicyTier
	for n, rec := range s.rows {
		rawType := cell(rec, idx["Tipo"])
		policy, ok := ParsePolicyType(rawType)
		if !ok {
			l.warnf("%s: row %d has unknown policy type %q, skipped", name, n+2, rawType)
			continue
		}
		tiers = append(tiers, PolicyTier{
			Type:      policy,
			Threshold: parseThreshold(cell(rec, idx["Vendas"])),
			Class:     cell(rec, idx["ABC"]),
			Central:   rule(rec, "Central"),
			Regional:  rule(rec, "Regional"),
			Local:     rule(rec, "Local"),
		})
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: %s has no Normal or Direto rows", ErrNoPolicyTiers, name)
	}
	return NewTierTable(tiers), nil
}

// LoadLimits reads the per product type minimum sales table.
func (l *Loader) LoadLimits(r io.Reader, name string) (*LimitIndex, error) {
	s, err := readSheet(r, name)
	if err != nil {
		return nil, err
	}
	idxType, err := s.require("Tipodesc", "tipo desc", "product type")
	if err != nil {
		return nil, err
	}
	idxDireto, err := s.require("Stock Direto", "direto")
	if err != nil {
		return nil, err
	}
	whCols, err := l.warehouseColumns(s, "")
	if err != nil {
		return nil, err
	}

	rules := make([]LimitRule, 0, len(s.rows))
	for _, rec := range s.rows {
		mins := make(map[string]float64, len(whCols))
		for wh, i := range whCols {
			mins[wh] = parseNumber(cell(rec, i))
		}
		rules = append(rules, LimitRule{
			TypeDesc: cell(rec, idxType),
			MinSales: mins,
			Direto:   parseFlag(cell(rec, idxDireto)),
		})
	}
	idx := NewLimitIndex(rules)
	for _, d := range idx.Duplicates() {
		l.warnf("%s: product type %q listed more than once, first row used", name, d)
	}
	return idx, nil
}

// LoadOverrides reads the manual stock table ("<warehouse> SM" columns).
func (l *Loader) LoadOverrides(r io.Reader, name string) (*OverrideIndex, error) {
	s, err := readSheet(r, name)
	if err != nil {
		return nil, err
	}
	idxLabel, err := s.require("RótulosdeLinha", "rotulos de linha", "label", "produto", "referencia")
	if err != nil {
		return nil, err
	}
	whCols, err := l.warehouseColumns(s, " SM")
	if err != nil {
		return nil, err
	}

	rows := make([]ManualOverride, 0, len(s.rows))
	for _, rec := range s.rows {
		qty := make(map[string]float64, len(whCols))
		for wh, i := range whCols {
			qty[wh] = parseNumber(cell(rec, i))
		}
		rows = append(rows, ManualOverride{Label: cell(rec, idxLabel), Quantity: qty})
	}
	idx := NewOverrideIndex(rows)
	for _, d := range idx.Duplicates() {
		l.warnf("%s: product %q has more than one manual stock row, first row used", name, d)
	}
	return idx, nil
}

// LoadFile opens path and hands it to one of the Load* methods.
func LoadFile[T any](path string, load func(io.Reader, string) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return zero, fmt.Errorf("%w: %s", ErrMissingTable, path)
		}
		return zero, err
	}
	defer f.Close()
	return load(f, filepath.Base(path))
}
