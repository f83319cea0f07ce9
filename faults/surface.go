package faults

import (
	"fmt"
	"sort"

	"github.com/notargets/gofault/geometry"
	"github.com/notargets/gofault/topology"
)

/*
FaultSurface lists the constrained (Lagrange multiplier) vertices of a fault
in ascending order with their negative and positive side vertices, the
vertex orientation frames and the lumped vertex areas. Frames of vertices
shared by several cohesive cells are averaged.
*/
type FaultSurface struct {
	Stratum  topology.Stratum
	UpDir    []float64
	Vertices []int // Lagrange vertices
	Neg, Pos []int
	Frames   []geometry.Frame
	Areas    []float64
	index    map[int]int
	stale    bool
}

func NewFaultSurface(mesh *topology.Mesh, stratum topology.Stratum, upDir []float64) (fs *FaultSurface, err error) {
	fs = &FaultSurface{Stratum: stratum, UpDir: upDir}
	if err = fs.Rebuild(mesh); err != nil {
		return nil, err
	}
	return
}

// Invalidate marks the frames and areas stale after coordinate changes.
func (fs *FaultSurface) Invalidate() { fs.stale = true }

func (fs *FaultSurface) Stale() bool { return fs.stale }

func (fs *FaultSurface) NumVertices() int { return len(fs.Vertices) }

// Index returns the position of Lagrange vertex v.
func (fs *FaultSurface) Index(v int) (i int, ok bool) {
	i, ok = fs.index[v]
	return
}

func (fs *FaultSurface) Rebuild(mesh *topology.Mesh) (err error) {
	var (
		rc      *geometry.ReferenceCell
		pairs   = make(map[int][2]int)
		frames  = make(map[int][]geometry.Frame)
		areas   = make(map[int]float64)
		cellTyp = mesh.Cells[fs.Stratum.Start].Type
	)
	if rc, err = geometry.NewReferenceCell(cellTyp); err != nil {
		return
	}
	for c := fs.Stratum.Start; c < fs.Stratum.End; c++ {
		var (
			cell               = mesh.Cells[c]
			neg, pos, lagrange = cell.CohesiveVertices()
			vFrames            []geometry.Frame
			vAreas             []float64
		)
		if !cell.Type.IsCohesive() {
			return fmt.Errorf("cell %d of type %s in a fault stratum", c, cell.Type)
		}
		coords := mesh.CellCoordinates(c)[:len(neg)]
		if vFrames, vAreas, err = geometry.ComputeVertexFrames(c, rc, coords, fs.UpDir); err != nil {
			return
		}
		for a, v := range lagrange {
			pair := [2]int{neg[a], pos[a]}
			if old, ok := pairs[v]; ok && old != pair {
				return fmt.Errorf("Lagrange vertex %d pairs with %v in one cell and %v in cell %d", v, old, pair, c)
			}
			pairs[v] = pair
			frames[v] = append(frames[v], vFrames[a])
			areas[v] += vAreas[a]
		}
	}
	fs.Vertices = fs.Vertices[:0]
	for v := range pairs {
		fs.Vertices = append(fs.Vertices, v)
	}
	sort.Ints(fs.Vertices)
	var (
		n = len(fs.Vertices)
	)
	fs.Neg, fs.Pos = make([]int, n), make([]int, n)
	fs.Frames, fs.Areas = make([]geometry.Frame, n), make([]float64, n)
	fs.index = make(map[int]int, n)
	for i, v := range fs.Vertices {
		fs.Neg[i], fs.Pos[i] = pairs[v][0], pairs[v][1]
		fs.Frames[i] = geometry.AverageFrames(frames[v], fs.UpDir)
		fs.Areas[i] = areas[v]
		fs.index[v] = i
	}
	fs.stale = false
	return
}
