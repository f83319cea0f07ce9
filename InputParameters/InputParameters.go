package InputParameters

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/gofault/friction"
	"github.com/notargets/gofault/types"
)

type MaterialParameters struct {
	ID                int                `json:"ID"`
	Values            map[string]float64 `json:"Values"` // density, vs, vp, body_force_x, ...
	DBFile            string             `json:"DBFile,omitempty"`
	BodyForce         bool               `json:"BodyForce,omitempty"`
	UseReferenceState bool               `json:"ReferenceState,omitempty"`
}

type DirichletParameters struct {
	Label      string             `json:"Label"`
	Value      int                `json:"Value"`
	Components []int              `json:"Components,omitempty"`
	Values     map[string]float64 `json:"Values,omitempty"` // initial_amplitude_x, rate_amplitude_x, ...
	UseRate    bool               `json:"UseRate,omitempty"`
}

type NeumannParameters struct {
	Label  string             `json:"Label"`
	Value  int                `json:"Value"`
	Values map[string]float64 `json:"Values,omitempty"` // initial_amplitude_tangential, ...
	DBFile string             `json:"DBFile,omitempty"`
}

type FaultParameters struct {
	Label            string              `json:"Label"`
	Value            int                 `json:"Value"`
	Friction         string              `json:"Friction,omitempty"` // static, slip_weakening
	FrictionValues   map[string]float64  `json:"FrictionValues,omitempty"`
	FrictionDBFile   string              `json:"FrictionDBFile,omitempty"`
	TractionValues   map[string]float64  `json:"TractionValues,omitempty"`
	TractionDBFile   string              `json:"TractionDBFile,omitempty"`
	UpDir            []float64           `json:"UpDir,omitempty"`
	Tolerances       friction.Tolerances `json:"Tolerances"`
	OutputFile       string              `json:"OutputFile,omitempty"`
	OutputEverySteps int                 `json:"OutputEverySteps,omitempty"`
}

// Parameters obtained from the YAML problem file
type ProblemParameters struct {
	Title          string                `json:"Title"`
	MeshFile       string                `json:"MeshFile"` // .su2 or YAML mesh
	Formulation    string                `json:"Formulation,omitempty"`
	StartTime      float64               `json:"StartTime"`
	EndTime        float64               `json:"EndTime"`
	Dt             float64               `json:"Dt"`
	MaxIterations  int                   `json:"MaxIterations"`
	AbsTolerance   float64               `json:"AbsTolerance"`
	RelTolerance   float64               `json:"RelTolerance"`
	ParallelDegree int                   `json:"ParallelDegree,omitempty"` // Assembly goroutines, NumCPU when zero
	Materials      []MaterialParameters  `json:"Materials"`
	Dirichlet      []DirichletParameters `json:"Dirichlet,omitempty"`
	Neumann        []NeumannParameters   `json:"Neumann,omitempty"`
	Faults         []FaultParameters     `json:"Faults,omitempty"`
}

var DefaultTolerances = friction.Tolerances{Open: 0, Slip: 1.e-12, Tie: 1.e-10}

const ExampleFile = `
########################################
Title: "Strike slip fault"
MeshFile: fault.yaml
EndTime: 1
Dt: 0.1
Materials:
  - ID: 1
    Values: {density: 2500, vs: 3000, vp: 5291.5}
Dirichlet:
  - {Label: boundary_xneg, Value: 1}
  - {Label: boundary_xpos, Value: 1, Components: [1], UseRate: true, Values: {rate_amplitude_y: 1.e-3}}
Faults:
  - Label: fault
    Value: 10
    Friction: static
    FrictionValues: {friction_coefficient: 0.6, cohesion: 0}
    TractionValues: {initial_traction_shear: 0, initial_traction_normal: -1.e6}
########################################
`

func (ip *ProblemParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	ip.setDefaults()
	return ip.Validate()
}

func ReadProblem(filename string) (ip *ProblemParameters, err error) {
	var (
		data []byte
	)
	if data, err = os.ReadFile(filename); err != nil {
		return
	}
	ip = &ProblemParameters{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return
}

func (ip *ProblemParameters) setDefaults() {
	if ip.MaxIterations == 0 {
		ip.MaxIterations = 25
	}
	if ip.AbsTolerance == 0 {
		ip.AbsTolerance = 1.e-10
	}
	if ip.RelTolerance == 0 {
		ip.RelTolerance = 1.e-12
	}
	for i := range ip.Faults {
		f := &ip.Faults[i]
		if f.Tolerances == (friction.Tolerances{}) {
			f.Tolerances = DefaultTolerances
		}
		if len(f.Friction) == 0 {
			f.Friction = "static"
		}
	}
}

func (ip *ProblemParameters) Validate() (err error) {
	var (
		msgs []string
	)
	if len(ip.MeshFile) == 0 {
		msgs = append(msgs, "no MeshFile given")
	}
	if _, err = types.NewFormulation(ip.Formulation); err != nil {
		msgs = append(msgs, err.Error())
	}
	if ip.Dt <= 0 {
		msgs = append(msgs, fmt.Sprintf("Dt must be positive, have %g", ip.Dt))
	}
	if ip.EndTime < ip.StartTime {
		msgs = append(msgs, fmt.Sprintf("EndTime %g is before StartTime %g", ip.EndTime, ip.StartTime))
	}
	if len(ip.Materials) == 0 {
		msgs = append(msgs, "no Materials given")
	}
	for _, bc := range ip.Dirichlet {
		if len(bc.Label) == 0 {
			msgs = append(msgs, "Dirichlet boundary condition without Label")
		}
	}
	for _, bc := range ip.Neumann {
		if len(bc.Label) == 0 {
			msgs = append(msgs, "Neumann boundary condition without Label")
		}
	}
	for _, f := range ip.Faults {
		if len(f.Label) == 0 {
			msgs = append(msgs, "fault without Label")
		}
		if _, err = friction.NewModel(f.Friction); err != nil {
			msgs = append(msgs, err.Error())
		}
		if err = f.Tolerances.Validate(); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) != 0 {
		return fmt.Errorf("invalid problem parameters: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func (ip *ProblemParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t= Mesh File\n", ip.MeshFile)
	fmt.Printf("%8.5f\t\t= StartTime\n", ip.StartTime)
	fmt.Printf("%8.5f\t\t= EndTime\n", ip.EndTime)
	fmt.Printf("%8.5f\t\t= Dt\n", ip.Dt)
	fmt.Printf("[%d]\t\t\t= Max Newton Iterations\n", ip.MaxIterations)
	fmt.Printf("[%g, %g]\t= Absolute, Relative Tolerance\n", ip.AbsTolerance, ip.RelTolerance)
	if ip.ParallelDegree != 0 {
		fmt.Printf("[%d]\t\t\t= Parallel Degree\n", ip.ParallelDegree)
	}
	for _, mat := range ip.Materials {
		fmt.Printf("Material[%d] = %s\n", mat.ID, sortedValues(mat.Values))
	}
	for _, bc := range ip.Dirichlet {
		fmt.Printf("Dirichlet[%s=%d] components %v = %s\n", bc.Label, bc.Value, bc.Components, sortedValues(bc.Values))
	}
	for _, bc := range ip.Neumann {
		fmt.Printf("Neumann[%s=%d] = %s\n", bc.Label, bc.Value, sortedValues(bc.Values))
	}
	for _, f := range ip.Faults {
		fmt.Printf("Fault[%s=%d] %s friction = %s, traction = %s, tolerances %+v\n",
			f.Label, f.Value, f.Friction, sortedValues(f.FrictionValues), sortedValues(f.TractionValues), f.Tolerances)
	}
}

func sortedValues(values map[string]float64) string {
	keys := make([]string, len(values))
	i := 0
	for k := range values {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %g", k, values[k])
	}
	b.WriteString("}")
	return b.String()
}
