package datasource

import (
	"encoding/json"
	"os"

	"github.com/rxtech-lab/backsim/pkg/errors"
)

// SymbolMapper is a bidirectional translation between local symbols and
// vendor-specific identifiers. It is applied exactly once before a fetch and
// undone exactly once when results return, regardless of how many sources a
// delegate chain traverses; the price provider owns that boundary.
type SymbolMapper struct {
	mapping        map[string]string
	inverseMapping map[string]string
}

func NewSymbolMapper() *SymbolMapper {
	return &SymbolMapper{
		mapping:        make(map[string]string),
		inverseMapping: make(map[string]string),
	}
}

// NewSymbolMapperFromFile loads a flat JSON object of local -> vendor symbols.
func NewSymbolMapperFromFile(path string) (*SymbolMapper, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidMapping, err, "failed to read mapping file %s", path)
	}

	var root map[string]string
	if err := json.Unmarshal(content, &root); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidMapping, err, "mapping file %s must be a flat string object", path)
	}

	mapper := NewSymbolMapper()
	for from, to := range root {
		mapper.Add(from, to)
	}

	return mapper, nil
}

func (m *SymbolMapper) Add(from, to string) {
	m.mapping[from] = to
	m.inverseMapping[to] = from
}

// Map translates a local symbol to its vendor identifier. Unmapped symbols
// pass through unchanged.
func (m *SymbolMapper) Map(symbol string) string {
	if to, ok := m.mapping[symbol]; ok {
		return to
	}

	return symbol
}

// Unmap translates a vendor identifier back to the local symbol.
func (m *SymbolMapper) Unmap(symbol string) string {
	if from, ok := m.inverseMapping[symbol]; ok {
		return from
	}

	return symbol
}

func (m *SymbolMapper) MapAll(symbols []string) []string {
	mapped := make([]string, len(symbols))
	for i, symbol := range symbols {
		mapped[i] = m.Map(symbol)
	}

	return mapped
}

// UnmapTable rewrites a fetched table's columns back to local symbols.
func (m *SymbolMapper) UnmapTable(table Table) Table {
	unmapped := make(Table, len(table))
	for symbol, column := range table {
		unmapped[m.Unmap(symbol)] = column
	}

	return unmapped
}
