package spatialdb

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
)

// Database answers point queries for named values. It is consulted only while
// integrators initialize their auxiliary fields.
type Database interface {
	Label() string
	Query(names []string, x []float64) ([]float64, error)
}

type UniformDB struct {
	Name   string
	Values map[string]float64
}

func NewUniformDB(label string, values map[string]float64) *UniformDB {
	return &UniformDB{Name: label, Values: values}
}

func (db *UniformDB) Label() string { return db.Name }

func (db *UniformDB) Query(names []string, x []float64) (vals []float64, err error) {
	vals = make([]float64, len(names))
	for i, name := range names {
		var ok bool
		if vals[i], ok = db.Values[name]; !ok {
			return nil, &MissingValueError{DB: db.Name, Name: name}
		}
	}
	return
}

type MissingValueError struct {
	DB, Name string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("value %q not found in spatial database %q", e.Name, e.DB)
}

type QueryType string

const (
	Nearest         QueryType = "nearest"
	InverseDistance QueryType = "inverse_distance"
)

type SimplePoint struct {
	X      []float64 `json:"x"`
	Values []float64 `json:"values"`
}

/*
SimpleDB is a scattered point database read from YAML:

	label: initial tractions
	query-type: nearest
	value-names: [initial_amplitude_tangential, initial_amplitude_normal]
	points:
	  - {x: [0, 0], values: [0, -10]}
	  - {x: [0, 5], values: [0, -12]}
*/
type SimpleDB struct {
	Name       string        `json:"label"`
	Type       QueryType     `json:"query-type"`
	ValueNames []string      `json:"value-names"`
	Points     []SimplePoint `json:"points"`
}

func ParseSimpleDB(data []byte) (db *SimpleDB, err error) {
	db = &SimpleDB{}
	if err = yaml.Unmarshal(data, db); err != nil {
		return nil, fmt.Errorf("parsing spatial database: %w", err)
	}
	if err = db.validate(); err != nil {
		return nil, err
	}
	return
}

func ReadSimpleDB(filename string) (db *SimpleDB, err error) {
	var data []byte
	if data, err = os.ReadFile(filename); err != nil {
		return
	}
	return ParseSimpleDB(data)
}

func (db *SimpleDB) validate() (err error) {
	if len(db.Type) == 0 {
		db.Type = Nearest
	}
	db.Type = QueryType(strings.ToLower(string(db.Type)))
	if db.Type != Nearest && db.Type != InverseDistance {
		return fmt.Errorf("spatial database %q: unknown query type %q", db.Name, db.Type)
	}
	if len(db.Points) == 0 {
		return fmt.Errorf("spatial database %q has no points", db.Name)
	}
	for i, p := range db.Points {
		if len(p.Values) != len(db.ValueNames) {
			return fmt.Errorf("spatial database %q: point %d has %d values, want %d",
				db.Name, i, len(p.Values), len(db.ValueNames))
		}
		if len(p.X) != len(db.Points[0].X) {
			return fmt.Errorf("spatial database %q: point %d has inconsistent dimension", db.Name, i)
		}
	}
	return
}

func (db *SimpleDB) Label() string { return db.Name }

func (db *SimpleDB) Query(names []string, x []float64) (vals []float64, err error) {
	var (
		cols = make([]int, len(names))
	)
	for i, name := range names {
		if cols[i] = db.column(name); cols[i] < 0 {
			return nil, &MissingValueError{DB: db.Name, Name: name}
		}
	}
	if len(x) != len(db.Points[0].X) {
		return nil, fmt.Errorf("spatial database %q: query point has dimension %d, database has %d",
			db.Name, len(x), len(db.Points[0].X))
	}
	vals = make([]float64, len(names))
	switch db.Type {
	case InverseDistance:
		var wSum float64
		for _, p := range db.Points {
			d2 := dist2(p.X, x)
			if d2 < 1.e-24 {
				for i, c := range cols {
					vals[i] = p.Values[c]
				}
				return
			}
			w := 1. / d2
			wSum += w
			for i, c := range cols {
				vals[i] += w * p.Values[c]
			}
		}
		for i := range vals {
			vals[i] /= wSum
		}
	default:
		best, bestD2 := 0, math.MaxFloat64
		for j, p := range db.Points {
			if d2 := dist2(p.X, x); d2 < bestD2 {
				best, bestD2 = j, d2
			}
		}
		for i, c := range cols {
			vals[i] = db.Points[best].Values[c]
		}
	}
	return
}

func (db *SimpleDB) column(name string) int {
	for i, n := range db.ValueNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Names lists the values provided, sorted.
func (db *SimpleDB) Names() (names []string) {
	names = append(names, db.ValueNames...)
	sort.Strings(names)
	return
}

func dist2(a, b []float64) (d2 float64) {
	for i := range a {
		d := a[i] - b[i]
		d2 += d * d
	}
	return
}
