package fem

// A Material is the registry-managed definition of a material. The physical
// parameters (moduli, densities, strengths) live in wrapper types outside
// this package; the base type carries only the identity and tag bookkeeping
// shared by every kind.
type Material struct {
	EntityBase
}

// NewMaterial creates a material and registers it with r.
func NewMaterial(r *Registry) *Material {
	m := new(Material)
	m.init(KindMaterial)
	r.Register(m)

	return m
}

// A Damping is the registry-managed definition of a damping specification.
type Damping struct {
	EntityBase
}

// NewDamping creates a damping specification and registers it with r.
func NewDamping(r *Registry) *Damping {
	d := new(Damping)
	d.init(KindDamping)
	r.Register(d)

	return d
}

// A Pattern is the registry-managed definition of a load pattern.
type Pattern struct {
	EntityBase
}

// NewPattern creates a load pattern and registers it with r.
func NewPattern(r *Registry) *Pattern {
	p := new(Pattern)
	p.init(KindPattern)
	r.Register(p)

	return p
}

// A Section is the registry-managed definition of a cross section.
type Section struct {
	EntityBase
}

// NewSection creates a section and registers it with r.
func NewSection(r *Registry) *Section {
	s := new(Section)
	s.init(KindSection)
	r.Register(s)

	return s
}

// A TimeSeries is the registry-managed definition of a time series.
type TimeSeries struct {
	EntityBase
}

// NewTimeSeries creates a time series and registers it with r.
func NewTimeSeries(r *Registry) *TimeSeries {
	t := new(TimeSeries)
	t.init(KindTimeSeries)
	r.Register(t)

	return t
}

// A Transform is the registry-managed definition of a geometric
// transformation.
type Transform struct {
	EntityBase
}

// NewTransform creates a geometric transformation and registers it with r.
func NewTransform(r *Registry) *Transform {
	t := new(Transform)
	t.init(KindTransform)
	r.Register(t)

	return t
}
