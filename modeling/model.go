package modeling

import (
	"github.com/sarchlab/femcore/analysis"
	"github.com/sarchlab/femcore/fem"
	"github.com/sarchlab/femcore/monitoring"
	"github.com/sarchlab/femcore/tagrecording"
)

// A Model provides the services required to define a finite-element model.
// It owns one tag registry per entity kind, together with the recording and
// monitoring attached to them. Entity constructors take their registry from
// the model, so there is no ambient per-kind global state.
type Model struct {
	id string

	registries map[fem.Kind]*fem.Registry

	dataRecorder tagrecording.DataRecorder
	tracer       *tagrecording.Tracer
	churn        *analysis.ChurnAnalyzer
	monitor      *monitoring.Monitor
}

// ID returns the unique identity of the model session.
func (m *Model) ID() string {
	return m.id
}

// Registry returns the registry owning the tag space of kind. Asking for an
// unknown kind is a programmer error and panics.
func (m *Model) Registry(kind fem.Kind) *fem.Registry {
	reg, ok := m.registries[kind]
	if !ok {
		panic("no registry for kind " + string(kind))
	}

	return reg
}

// Registries returns all registries in canonical kind order.
func (m *Model) Registries() []*fem.Registry {
	out := make([]*fem.Registry, 0, len(m.registries))
	for _, kind := range fem.AllKinds() {
		out = append(out, m.registries[kind])
	}

	return out
}

// NewMaterial creates a material in this model.
func (m *Model) NewMaterial() *fem.Material {
	return fem.NewMaterial(m.Registry(fem.KindMaterial))
}

// NewDamping creates a damping specification in this model.
func (m *Model) NewDamping() *fem.Damping {
	return fem.NewDamping(m.Registry(fem.KindDamping))
}

// NewPattern creates a load pattern in this model.
func (m *Model) NewPattern() *fem.Pattern {
	return fem.NewPattern(m.Registry(fem.KindPattern))
}

// NewSection creates a cross section in this model.
func (m *Model) NewSection() *fem.Section {
	return fem.NewSection(m.Registry(fem.KindSection))
}

// NewTimeSeries creates a time series in this model.
func (m *Model) NewTimeSeries() *fem.TimeSeries {
	return fem.NewTimeSeries(m.Registry(fem.KindTimeSeries))
}

// NewTransform creates a geometric transformation in this model.
func (m *Model) NewTransform() *fem.Transform {
	return fem.NewTransform(m.Registry(fem.KindTransform))
}

// GetDataRecorder returns the data recorder used in the model session.
func (m *Model) GetDataRecorder() tagrecording.DataRecorder {
	return m.dataRecorder
}

// GetTracer returns the tracer recording registry events.
func (m *Model) GetTracer() *tagrecording.Tracer {
	return m.tracer
}

// GetChurnAnalyzer returns the analyzer counting registry operations.
func (m *Model) GetChurnAnalyzer() *analysis.ChurnAnalyzer {
	return m.churn
}

// GetMonitor returns the monitor serving this model, or nil when monitoring
// is disabled.
func (m *Model) GetMonitor() *monitoring.Monitor {
	return m.monitor
}

// Terminate ends the model session. It writes the churn summary, closes the
// recording session, and closes the database.
func (m *Model) Terminate() {
	for _, churn := range m.churn.Snapshot() {
		m.dataRecorder.InsertData("tag_churn", churn)
	}

	m.tracer.Terminate()
	m.dataRecorder.Close()
}
