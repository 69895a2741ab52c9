package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// CostTableVersion is the current on-disk format version
const CostTableVersion = 1

// ErrCostTableVersion is returned when a recorded table has an unsupported version
var ErrCostTableVersion = errors.New("unsupported cost table version")

// CostTable is a recording of per-unit aperiodic task costs
// Replaying a table in estimated mode gives identical time slicing on every platform
type CostTable struct {
	Version  int                      `msgpack:"version"`
	Platform string                   `msgpack:"platform"`
	Costs    map[string]time.Duration `msgpack:"costs"`
}

// Encode writes the table as msgpack
func (ct CostTable) Encode(w io.Writer) error {
	if err := msgpack.NewEncoder(w).Encode(ct); err != nil {
		return fmt.Errorf("encode cost table: %w", err)
	}
	return nil
}

// DecodeCostTable reads a msgpack table
func DecodeCostTable(r io.Reader) (CostTable, error) {
	var ct CostTable
	if err := msgpack.NewDecoder(r).Decode(&ct); err != nil {
		return CostTable{}, fmt.Errorf("decode cost table: %w", err)
	}
	if ct.Version != CostTableVersion {
		return CostTable{}, fmt.Errorf("version %d: %w", ct.Version, ErrCostTableVersion)
	}
	return ct, nil
}

// SaveCostTable writes the table to path
func SaveCostTable(path string, ct CostTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cost table: %w", err)
	}
	if err := ct.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadCostTable reads a table from path
func LoadCostTable(path string) (CostTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return CostTable{}, fmt.Errorf("open cost table: %w", err)
	}
	defer f.Close()
	return DecodeCostTable(f)
}
