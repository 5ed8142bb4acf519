package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/femcore/analysis"
	"github.com/sarchlab/femcore/fem"
)

// A ModelSource exposes the identity and registries of a live model session.
type ModelSource interface {
	ID() string
	Registries() []*fem.Registry
}

// Monitor can turn a model session into a server and allows external
// inspection of the registries while the model is being edited.
type Monitor struct {
	model      ModelSource
	registries []*fem.Registry
	kindIndex  map[fem.Kind]*fem.Registry
	churn      *analysis.ChurnAnalyzer
	portNumber int
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		kindIndex: make(map[fem.Kind]*fem.Registry),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterModel registers the model session to be monitored, including all
// of its registries.
func (m *Monitor) RegisterModel(s ModelSource) {
	m.model = s

	for _, reg := range s.Registries() {
		m.RegisterRegistry(reg)
	}
}

// RegisterRegistry registers a single registry to be monitored.
func (m *Monitor) RegisterRegistry(r *fem.Registry) {
	if _, ok := m.kindIndex[r.Kind()]; ok {
		panic("registry for kind " + string(r.Kind()) + " already registered")
	}

	m.registries = append(m.registries, r)
	m.kindIndex[r.Kind()] = r
}

// RegisterChurnAnalyzer sets the churn analyzer to be used in the monitor.
func (m *Monitor) RegisterChurnAnalyzer(a *analysis.ChurnAnalyzer) {
	m.churn = a
}

// StartServer starts the monitor as a web server with a custom port if
// wanted.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/", m.index)
	r.HandleFunc("/api/model", m.modelInfo)
	r.HandleFunc("/api/kinds", m.listKinds)
	r.HandleFunc("/api/registry/{kind}", m.registrySummary)
	r.HandleFunc("/api/registry/{kind}/entities", m.listEntities)
	r.HandleFunc("/api/entity/{kind}/{tag}", m.entityDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/churn", m.listChurn)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	fmt.Fprintf(
		os.Stderr,
		"Monitoring model with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()
}

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "femcore monitor\n\n")
	fmt.Fprint(w, "GET /api/model\n")
	fmt.Fprint(w, "GET /api/kinds\n")
	fmt.Fprint(w, "GET /api/registry/{kind}\n")
	fmt.Fprint(w, "GET /api/registry/{kind}/entities\n")
	fmt.Fprint(w, "GET /api/entity/{kind}/{tag}\n")
	fmt.Fprint(w, "GET /api/field/{json}\n")
	fmt.Fprint(w, "GET /api/churn\n")
	fmt.Fprint(w, "GET /api/resource\n")
	fmt.Fprint(w, "GET /api/profile\n")
}

type registryRsp struct {
	Kind     string `json:"kind"`
	StartTag int    `json:"start_tag"`
	Count    int    `json:"count"`
	NextTag  int    `json:"next_tag"`
}

type modelRsp struct {
	ID         string        `json:"id"`
	Registries []registryRsp `json:"registries"`
}

func (m *Monitor) modelInfo(w http.ResponseWriter, _ *http.Request) {
	rsp := modelRsp{}
	if m.model != nil {
		rsp.ID = m.model.ID()
	}

	for _, reg := range m.registries {
		rsp.Registries = append(rsp.Registries, summarize(reg))
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func summarize(reg *fem.Registry) registryRsp {
	return registryRsp{
		Kind:     string(reg.Kind()),
		StartTag: reg.StartTag(),
		Count:    reg.Count(),
		NextTag:  reg.NextTag(),
	}
}

func (m *Monitor) listKinds(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, reg := range m.registries {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "\"%s\"", reg.Kind())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) registrySummary(w http.ResponseWriter, r *http.Request) {
	reg := m.findRegistryOr404(w, mux.Vars(r)["kind"])
	if reg == nil {
		return
	}

	bytes, err := json.Marshal(summarize(reg))
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type entityRsp struct {
	ID            string `json:"id"`
	Tag           int    `json:"tag"`
	CreationOrder uint64 `json:"creation_order"`
}

func (m *Monitor) listEntities(w http.ResponseWriter, r *http.Request) {
	reg := m.findRegistryOr404(w, mux.Vars(r)["kind"])
	if reg == nil {
		return
	}

	entities := reg.Entities()
	rsp := make([]entityRsp, 0, len(entities))
	for _, e := range entities {
		rsp = append(rsp, entityRsp{
			ID:            e.ID(),
			Tag:           e.Tag(),
			CreationOrder: e.CreationOrder(),
		})
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) entityDetails(w http.ResponseWriter, r *http.Request) {
	reg := m.findRegistryOr404(w, mux.Vars(r)["kind"])
	if reg == nil {
		return
	}

	tag, err := strconv.Atoi(mux.Vars(r)["tag"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	entity := m.findEntityOr404(w, reg, tag)
	if entity == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(entity)
	serializer.SetMaxDepth(1)
	err = serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	Kind      string `json:"kind,omitempty"`
	Tag       int    `json:"tag,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		dieOnErr(err)
	}

	reg := m.findRegistryOr404(w, req.Kind)
	if reg == nil {
		return
	}

	entity := m.findEntityOr404(w, reg, req.Tag)
	if entity == nil {
		return
	}

	fields := strings.Split(req.FieldName, ".")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(entity)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(fields)
	dieOnErr(err)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) listChurn(w http.ResponseWriter, _ *http.Request) {
	snapshot := []analysis.KindChurn{}
	if m.churn != nil {
		snapshot = m.churn.Snapshot()
	}

	bytes, err := json.Marshal(snapshot)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) findRegistryOr404(
	w http.ResponseWriter,
	kind string,
) *fem.Registry {
	reg, ok := m.kindIndex[fem.Kind(kind)]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Registry not found"))
		dieOnErr(err)

		return nil
	}

	return reg
}

func (m *Monitor) findEntityOr404(
	w http.ResponseWriter,
	reg *fem.Registry,
	tag int,
) fem.Entity {
	entity, err := reg.EntityByTag(tag)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		_, werr := w.Write([]byte("Entity not found"))
		dieOnErr(werr)

		return nil
	}

	return entity
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
