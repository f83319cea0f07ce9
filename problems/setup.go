package problems

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/notargets/gofault/InputParameters"
	"github.com/notargets/gofault/bc"
	"github.com/notargets/gofault/faults"
	"github.com/notargets/gofault/friction"
	"github.com/notargets/gofault/materials"
	"github.com/notargets/gofault/readfiles"
	"github.com/notargets/gofault/spatialdb"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/types"
	"github.com/notargets/gofault/utils"
)

// ReadMesh reads a YAML mesh, or an SU2 mesh when the name ends in .su2.
func ReadMesh(filename string, verbose bool) (m *topology.Mesh, err error) {
	if strings.EqualFold(filepath.Ext(filename), ".su2") {
		return readfiles.ReadSU2(filename, verbose)
	}
	return readfiles.ReadMesh(filename)
}

/*
NewProblemFromParameters builds the physics described by ip on mesh. Database
file names are taken relative to dir. Inline values take precedence over
database files.
*/
func NewProblemFromParameters(ip *InputParameters.ProblemParameters, mesh *topology.Mesh, dir string) (p *Problem, err error) {
	if p, err = NewProblem(mesh); err != nil {
		return
	}
	p.Title = ip.Title
	p.StartTime, p.EndTime, p.Dt = ip.StartTime, ip.EndTime, ip.Dt
	p.MaxIterations, p.AbsTol, p.RelTol = ip.MaxIterations, ip.AbsTolerance, ip.RelTolerance
	if p.Formulation, err = types.NewFormulation(ip.Formulation); err != nil {
		return nil, err
	}
	if ip.ParallelDegree > 0 {
		utils.DefaultParallelDegree = ip.ParallelDegree
	}
	for _, mp := range ip.Materials {
		ile := materials.NewIsotropicLinearElasticity(mesh, mp.ID)
		ile.UseBodyForce, ile.UseReferenceState = mp.BodyForce, mp.UseReferenceState
		if ile.DB, err = database(fmt.Sprintf("material_%d", mp.ID), mp.Values, mp.DBFile, dir); err != nil {
			return nil, err
		}
		p.Integrators = append(p.Integrators, ile)
	}
	for _, np := range ip.Neumann {
		var nt *bc.NeumannTraction
		if nt, err = bc.NewNeumannTraction(mesh, np.Label, np.Value); err != nil {
			return nil, err
		}
		if nt.DB, err = database(np.Label, np.Values, np.DBFile, dir); err != nil {
			return nil, err
		}
		p.Integrators = append(p.Integrators, nt)
	}
	for _, dp := range ip.Dirichlet {
		var d *bc.Dirichlet
		if d, err = bc.NewDirichlet(mesh, dp.Label, dp.Value); err != nil {
			return nil, err
		}
		d.Components, d.UseRate = dp.Components, dp.UseRate
		if d.DB, err = database(dp.Label, dp.Values, "", dir); err != nil {
			return nil, err
		}
		p.Constraints = append(p.Constraints, d)
	}
	for _, fp := range ip.Faults {
		fc := faults.NewFaultCohesiveDyn(mesh, fp.Value)
		if err = fc.SetMarkerLabel(fp.Label); err != nil {
			return nil, err
		}
		if fc.Friction, err = friction.NewModel(fp.Friction); err != nil {
			return nil, err
		}
		fc.Tolerances, fc.UpDir = fp.Tolerances, fp.UpDir
		if fc.FrictionDB, err = database(fp.Label+"_friction", fp.FrictionValues, fp.FrictionDBFile, dir); err != nil {
			return nil, err
		}
		if fc.TractionDB, err = database(fp.Label+"_traction", fp.TractionValues, fp.TractionDBFile, dir); err != nil {
			return nil, err
		}
		p.Faults = append(p.Faults, fc)
	}
	return
}

// database combines inline values with a SimpleDB file; nil when neither
// is given.
func database(label string, values map[string]float64, file, dir string) (db spatialdb.Database, err error) {
	var (
		dbs []spatialdb.Database
	)
	if len(values) != 0 {
		dbs = append(dbs, spatialdb.NewUniformDB(label, values))
	}
	if len(file) != 0 {
		var sdb *spatialdb.SimpleDB
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		if sdb, err = spatialdb.ReadSimpleDB(file); err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		dbs = append(dbs, sdb)
	}
	switch len(dbs) {
	case 0:
		return nil, nil
	case 1:
		return dbs[0], nil
	}
	return spatialdb.NewCompositeDB(dbs...), nil
}
