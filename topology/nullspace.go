package topology

import (
	"gonum.org/v1/gonum/floats"
)

/*
RigidBodyModes returns the translations and infinitesimal rotations of the
displacement subfield of f (dim translations, then 1 rotation in 2D or 3 in
3D), each normalized. Other subfields are zero in every mode.
*/
func RigidBodyModes(m *Mesh, f *Field) (modes [][]float64) {
	var (
		dim  = m.Dim
		nRot = 1
		disp = -1
	)
	if dim == 3 {
		nRot = 3
	}
	for _, sf := range f.Subfields {
		if sf.Name == DisplacementName {
			disp = sf.Index
		}
	}
	modes = make([][]float64, dim+nRot)
	for k := range modes {
		modes[k] = make([]float64, f.Len())
	}
	if disp < 0 {
		return
	}
	// Rotation about axis a moves x by e_a x x
	rotations := [][2]int{{0, 1}, {1, 2}, {2, 0}}
	for v := 0; v < f.NumPoints(); v++ {
		if f.PointSubfield(v) != disp {
			continue
		}
		var (
			x   = m.Coordinates[v]
			off = f.PointOffset(v)
		)
		for k := 0; k < dim; k++ {
			modes[k][off+k] = 1
		}
		for r := 0; r < nRot; r++ {
			i, j := rotations[r][0], rotations[r][1]
			modes[dim+r][off+i] = -x[j]
			modes[dim+r][off+j] = x[i]
		}
	}
	for _, mode := range modes {
		if n := floats.Norm(mode, 2); n > 0 {
			floats.Scale(1./n, mode)
		}
	}
	return
}
