package feassemble

import (
	"fmt"

	"github.com/notargets/gofault/spatialdb"
)

// AuxField holds auxiliary values (material properties, initial tractions)
// at the quadrature points of each cell in a stratum.
type AuxField struct {
	Names  []string
	Values [][][]float64 // [cell - stratum start][q][name]
}

func (af *AuxField) Index(name string) int {
	if af == nil {
		return -1
	}
	for i, n := range af.Names {
		if n == name {
			return i
		}
	}
	return -1
}

func (af *AuxField) at(cellLocal, q int) []float64 {
	if af == nil || len(af.Values) == 0 {
		return nil
	}
	return af.Values[cellLocal][q]
}

// PopulateAux queries db at every quadrature point returned by points.
func PopulateAux(db spatialdb.Database, names []string, numCells int,
	points func(cellLocal int) [][]float64) (af *AuxField, err error) {
	if db == nil {
		return nil, fmt.Errorf("%w: no spatial database for auxiliary fields %v", ErrInvalidConfiguration, names)
	}
	af = &AuxField{
		Names:  names,
		Values: make([][][]float64, numCells),
	}
	for c := 0; c < numCells; c++ {
		xq := points(c)
		af.Values[c] = make([][]float64, len(xq))
		for q, x := range xq {
			if af.Values[c][q], err = db.Query(names, x); err != nil {
				return nil, fmt.Errorf("auxiliary field from %q: %w", db.Label(), err)
			}
		}
	}
	return
}
