package monitoring

import (
	"encoding/json"
	"net/http/httptest"

	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/femcore/analysis"
	"github.com/sarchlab/femcore/fem"
)

type sampleModel struct {
	id         string
	registries []*fem.Registry
}

func (m *sampleModel) ID() string {
	return m.id
}

func (m *sampleModel) Registries() []*fem.Registry {
	return m.registries
}

func newSampleModel() *sampleModel {
	return &sampleModel{
		id: "model1",
		registries: []*fem.Registry{
			fem.NewRegistry(fem.KindMaterial),
			fem.NewRegistry(fem.KindPattern),
		},
	}
}

var _ = Describe("Monitor", func() {
	var (
		monitor *Monitor
		model   *sampleModel
	)

	BeforeEach(func() {
		monitor = NewMonitor()
		model = newSampleModel()
		monitor.RegisterModel(model)
	})

	It("should register the registries of the model", func() {
		Expect(monitor.registries).To(HaveLen(2))
		Expect(monitor.kindIndex).To(HaveKey(fem.KindMaterial))
		Expect(monitor.kindIndex).To(HaveKey(fem.KindPattern))
	})

	It("should panic when a kind is registered twice", func() {
		Expect(func() {
			monitor.RegisterRegistry(fem.NewRegistry(fem.KindMaterial))
		}).To(Panic())
	})

	It("should report the model", func() {
		fem.NewMaterial(model.registries[0])

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/model", nil)

		monitor.modelInfo(w, r)

		rsp := modelRsp{}
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.ID).To(Equal("model1"))
		Expect(rsp.Registries).To(HaveLen(2))
		Expect(rsp.Registries[0].Count).To(Equal(1))
	})

	It("should list kinds", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/kinds", nil)

		monitor.listKinds(w, r)

		Expect(w.Body.String()).To(Equal(`["material","pattern"]`))
	})

	It("should summarize a registry", func() {
		fem.NewMaterial(model.registries[0])
		fem.NewMaterial(model.registries[0])

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/registry/material", nil)
		r = mux.SetURLVars(r, map[string]string{"kind": "material"})

		monitor.registrySummary(w, r)

		rsp := registryRsp{}
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Kind).To(Equal("material"))
		Expect(rsp.StartTag).To(Equal(1))
		Expect(rsp.Count).To(Equal(2))
		Expect(rsp.NextTag).To(Equal(3))
	})

	It("should return 404 for an unknown kind", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/registry/beam", nil)
		r = mux.SetURLVars(r, map[string]string{"kind": "beam"})

		monitor.registrySummary(w, r)

		Expect(w.Code).To(Equal(404))
	})

	It("should list the entities of a registry", func() {
		m1 := fem.NewMaterial(model.registries[0])
		fem.NewMaterial(model.registries[0])

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/registry/material/entities", nil)
		r = mux.SetURLVars(r, map[string]string{"kind": "material"})

		monitor.listEntities(w, r)

		var rsp []entityRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(2))
		Expect(rsp[0].ID).To(Equal(m1.ID()))
		Expect(rsp[0].Tag).To(Equal(1))
		Expect(rsp[1].Tag).To(Equal(2))
	})

	It("should serialize an entity", func() {
		fem.NewMaterial(model.registries[0])

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/entity/material/1", nil)
		r = mux.SetURLVars(r, map[string]string{
			"kind": "material",
			"tag":  "1",
		})

		monitor.entityDetails(w, r)

		Expect(w.Code).To(Equal(200))
		Expect(w.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should return 404 for a tag that is not live", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/entity/material/5", nil)
		r = mux.SetURLVars(r, map[string]string{
			"kind": "material",
			"tag":  "5",
		})

		monitor.entityDetails(w, r)

		Expect(w.Code).To(Equal(404))
	})

	It("should return 400 for a tag that is not a number", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/entity/material/abc", nil)
		r = mux.SetURLVars(r, map[string]string{
			"kind": "material",
			"tag":  "abc",
		})

		monitor.entityDetails(w, r)

		Expect(w.Code).To(Equal(400))
	})

	It("should report churn", func() {
		churn := analysis.NewChurnAnalyzer()
		model.registries[0].AcceptHook(churn)
		monitor.RegisterChurnAnalyzer(churn)

		fem.NewMaterial(model.registries[0])
		fem.NewMaterial(model.registries[0])

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/churn", nil)

		monitor.listChurn(w, r)

		var rsp []analysis.KindChurn
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Kind).To(Equal("material"))
		Expect(rsp[0].Registered).To(Equal(int64(2)))
		Expect(rsp[0].Live).To(Equal(2))
	})

	It("should report empty churn without an analyzer", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/churn", nil)

		monitor.listChurn(w, r)

		Expect(w.Body.String()).To(Equal(`[]`))
	})
})
