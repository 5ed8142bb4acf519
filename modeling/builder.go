package modeling

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/sarchlab/femcore/analysis"
	"github.com/sarchlab/femcore/fem"
	"github.com/sarchlab/femcore/monitoring"
	"github.com/sarchlab/femcore/tagrecording"
)

// Builder can be used to build a model session.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	outputFileName string
	startTags      map[fem.Kind]int
}

// MakeBuilder creates a new builder with the default configuration:
// monitoring on, a fresh database named after the model ID, and every
// registry numbering from 1.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the model session to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithStartTag numbers the registry of kind from tag instead of 1.
func (b Builder) WithStartTag(kind fem.Kind, tag int) Builder {
	tags := make(map[fem.Kind]int, len(b.startTags)+1)
	for k, v := range b.startTags {
		tags[k] = v
	}
	tags[kind] = tag

	b.startTags = tags

	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	for kind, tag := range b.startTags {
		if !kind.IsValid() {
			panic(fmt.Sprintf("unknown entity kind %q", string(kind)))
		}

		if tag < 1 {
			panic(fmt.Sprintf("start tag for %s must be positive, got %d",
				kind, tag))
		}
	}
}

// Build builds the model session.
func (b Builder) Build() *Model {
	b.parametersMustBeValid()

	m := &Model{
		registries: make(map[fem.Kind]*fem.Registry),
	}

	m.id = xid.New().String()

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "femcore_model_" + m.id
	}
	m.dataRecorder = tagrecording.NewDataRecorder(outputPath)
	m.dataRecorder.CreateTable("tag_churn", analysis.KindChurn{})

	m.tracer = tagrecording.NewTracer(m.dataRecorder)
	m.churn = analysis.NewChurnAnalyzer()

	for _, kind := range fem.AllKinds() {
		reg := fem.NewRegistry(kind)
		reg.AcceptHook(m.tracer)
		reg.AcceptHook(m.churn)
		m.registries[kind] = reg
	}

	b.applyStartTags(m)

	if b.monitorOn {
		m.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			m.monitor.WithPortNumber(b.monitorPort)
		}
		m.monitor.RegisterModel(m)
		m.monitor.RegisterChurnAnalyzer(m.churn)
		m.monitor.StartServer()
	}

	return m
}

func (b Builder) applyStartTags(m *Model) {
	for _, kind := range fem.AllKinds() {
		tag, ok := b.startTags[kind]
		if !ok {
			continue
		}

		err := m.registries[kind].SetStartTag(tag)
		if err != nil {
			panic(err)
		}
	}
}
