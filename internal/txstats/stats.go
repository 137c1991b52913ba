// =============================================================================
// aqtools - Transactional Statistics
// =============================================================================
//
// This module computes statistics over a transactional database: one
// transaction per line, items separated by a fixed separator.
//
// STATISTICS:
//   - Database size and distinct items
//   - Transaction length: min, max, mean, standard deviation, variance
//   - Sparsity and density of the item matrix
//   - Item frequencies and the length distribution
//
// =============================================================================

package txstats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptyDatabase is returned by Compute for a database without transactions.
var ErrEmptyDatabase = errors.New("transactional database is empty")

// Database is an ordered list of transactions.
type Database struct {
	Transactions [][]string
	Source       string
}

// ItemCount is the number of transactions an item occurs in.
type ItemCount struct {
	Item  string
	Count int
}

// LengthCount is the number of transactions of a given length.
type LengthCount struct {
	Length int
	Count  int
}

// Stats summarizes a transactional database.
type Stats struct {
	DatabaseSize    int
	MinLength       int
	MaxLength       int
	AverageLength   float64
	StdDevLength    float64
	VarianceLength  float64
	DistinctItems   int
	TotalItems      int
	Sparsity        float64
	Density         float64
	ItemFrequencies []ItemCount
	LengthCounts    []LengthCount
}

// Read parses a transactional database from r. Blank lines are ignored and
// empty items produced by repeated separators are dropped.
func Read(r io.Reader, sep string) (*Database, error) {
	if sep == "" {
		return nil, fmt.Errorf("separator must not be empty")
	}

	db := &Database{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var items []string
		for _, item := range strings.Split(line, sep) {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			db.Transactions = append(db.Transactions, items)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return db, nil
}

// ReadFile parses the transactional database at path.
func ReadFile(path, sep string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactional file: %w", err)
	}
	defer f.Close()

	db, err := Read(f, sep)
	if err != nil {
		return nil, err
	}
	db.Source = path
	return db, nil
}

// Compute derives the statistics of db. An item counts once per
// transaction it occurs in.
func Compute(db *Database) (*Stats, error) {
	if len(db.Transactions) == 0 {
		return nil, ErrEmptyDatabase
	}

	lengths := make([]float64, len(db.Transactions))
	frequencies := make(map[string]int)
	lengthCounts := make(map[int]int)

	s := &Stats{
		DatabaseSize: len(db.Transactions),
		MinLength:    math.MaxInt,
	}

	for i, tx := range db.Transactions {
		seen := make(map[string]bool, len(tx))
		for _, item := range tx {
			if seen[item] {
				continue
			}
			seen[item] = true
			frequencies[item]++
		}

		n := len(seen)
		lengths[i] = float64(n)
		lengthCounts[n]++
		s.TotalItems += n
		if n < s.MinLength {
			s.MinLength = n
		}
		if n > s.MaxLength {
			s.MaxLength = n
		}
	}

	s.AverageLength = stat.Mean(lengths, nil)
	s.VarianceLength = stat.PopVariance(lengths, nil)
	s.StdDevLength = stat.PopStdDev(lengths, nil)
	s.DistinctItems = len(frequencies)

	cells := float64(s.DatabaseSize * s.DistinctItems)
	s.Density = float64(s.TotalItems) / cells
	s.Sparsity = 1 - s.Density

	s.ItemFrequencies = make([]ItemCount, 0, len(frequencies))
	for item, count := range frequencies {
		s.ItemFrequencies = append(s.ItemFrequencies, ItemCount{Item: item, Count: count})
	}
	sort.Slice(s.ItemFrequencies, func(i, j int) bool {
		a, b := s.ItemFrequencies[i], s.ItemFrequencies[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Item < b.Item
	})

	s.LengthCounts = make([]LengthCount, 0, len(lengthCounts))
	for length, count := range lengthCounts {
		s.LengthCounts = append(s.LengthCounts, LengthCount{Length: length, Count: count})
	}
	sort.Slice(s.LengthCounts, func(i, j int) bool {
		return s.LengthCounts[i].Length < s.LengthCounts[j].Length
	})

	return s, nil
}

// Summary renders the scalar statistics as label/value pairs in display
// order.
func (s *Stats) Summary() [][2]string {
	return [][2]string{
		{"Database size", fmt.Sprint(s.DatabaseSize)},
		{"Minimum transaction length", fmt.Sprint(s.MinLength)},
		{"Maximum transaction length", fmt.Sprint(s.MaxLength)},
		{"Average transaction length", fmt.Sprintf("%.4f", s.AverageLength)},
		{"Standard deviation of transaction length", fmt.Sprintf("%.4f", s.StdDevLength)},
		{"Variance of transaction length", fmt.Sprintf("%.4f", s.VarianceLength)},
		{"Number of distinct items", fmt.Sprint(s.DistinctItems)},
		{"Total item occurrences", fmt.Sprint(s.TotalItems)},
		{"Sparsity", fmt.Sprintf("%.4f", s.Sparsity)},
		{"Density", fmt.Sprintf("%.4f", s.Density)},
	}
}
