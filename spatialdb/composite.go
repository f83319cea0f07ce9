package spatialdb

import (
	"errors"
	"strings"
)

// CompositeDB answers each name from the first member database that has it.
type CompositeDB struct {
	DBs []Database
}

func NewCompositeDB(dbs ...Database) *CompositeDB {
	c := &CompositeDB{}
	for _, db := range dbs {
		if db != nil {
			c.DBs = append(c.DBs, db)
		}
	}
	return c
}

func (c *CompositeDB) Label() string {
	var labels []string
	for _, db := range c.DBs {
		labels = append(labels, db.Label())
	}
	return strings.Join(labels, "+")
}

func (c *CompositeDB) Query(names []string, x []float64) (vals []float64, err error) {
	vals = make([]float64, len(names))
	for i, name := range names {
		var (
			found bool
			v     []float64
		)
		for _, db := range c.DBs {
			if v, err = db.Query([]string{name}, x); err == nil {
				vals[i], found = v[0], true
				break
			}
			var mv *MissingValueError
			if !errors.As(err, &mv) {
				return nil, err
			}
		}
		if !found {
			return nil, &MissingValueError{DB: c.Label(), Name: name}
		}
	}
	return vals, nil
}
