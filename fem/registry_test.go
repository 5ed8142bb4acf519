package fem

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Registry", func() {
	var registry *Registry

	BeforeEach(func() {
		registry = NewRegistry(KindMaterial)
	})

	It("should panic on an unknown kind", func() {
		Expect(func() { NewRegistry(Kind("beam")) }).To(Panic())
	})

	Context("registering", func() {
		It("should assign tags from 1 by default", func() {
			m1 := NewMaterial(registry)
			m2 := NewMaterial(registry)
			m3 := NewMaterial(registry)

			Expect(m1.Tag()).To(Equal(1))
			Expect(m2.Tag()).To(Equal(2))
			Expect(m3.Tag()).To(Equal(3))
		})

		It("should assign tags from the configured start", func() {
			Expect(registry.SetStartTag(100)).To(Succeed())

			m1 := NewMaterial(registry)
			m2 := NewMaterial(registry)

			Expect(m1.Tag()).To(Equal(100))
			Expect(m2.Tag()).To(Equal(101))
		})

		It("should continue the sequence from the current layout", func() {
			Expect(registry.SetStartTag(104)).To(Succeed())
			NewMaterial(registry)
			NewMaterial(registry)

			m := NewMaterial(registry)

			Expect(m.Tag()).To(Equal(106))
		})

		It("should hand out creation orders that are never reused", func() {
			m1 := NewMaterial(registry)
			m2 := NewMaterial(registry)

			Expect(m1.CreationOrder()).To(Equal(uint64(0)))
			Expect(m2.CreationOrder()).To(Equal(uint64(1)))

			Expect(registry.Remove(m2.Tag())).To(Succeed())

			m3 := NewMaterial(registry)
			Expect(m3.CreationOrder()).To(Equal(uint64(2)))
		})

		It("should register a detached entity afresh", func() {
			m1 := NewMaterial(registry)
			NewMaterial(registry)
			id := m1.ID()

			Expect(registry.Remove(m1.Tag())).To(Succeed())
			Expect(m1.Live()).To(BeFalse())

			tag := registry.Register(m1)

			Expect(tag).To(Equal(2))
			Expect(m1.ID()).To(Equal(id))
			Expect(m1.CreationOrder()).To(Equal(uint64(2)))
		})

		It("should panic on a nil entity", func() {
			Expect(func() { registry.Register(nil) }).To(Panic())
		})

		It("should panic on an entity of another kind", func() {
			patterns := NewRegistry(KindPattern)
			p := NewPattern(patterns)
			Expect(patterns.Remove(p.Tag())).To(Succeed())

			Expect(func() { registry.Register(p) }).To(Panic())
		})

		It("should panic on an entity that is already live", func() {
			m := NewMaterial(registry)

			Expect(func() { registry.Register(m) }).To(Panic())
		})
	})

	Context("removing", func() {
		It("should renumber the entities created after the removed one", func() {
			Expect(registry.SetStartTag(10)).To(Succeed())
			m1 := NewMaterial(registry)
			m2 := NewMaterial(registry)
			m3 := NewMaterial(registry)
			Expect(m3.Tag()).To(Equal(12))

			Expect(registry.Remove(11)).To(Succeed())

			Expect(m1.Tag()).To(Equal(10))
			Expect(m3.Tag()).To(Equal(11))
			Expect(m2.Live()).To(BeFalse())
			Expect(m2.Tag()).To(Equal(InvalidTag))
			Expect(registry.Count()).To(Equal(2))
		})

		It("should keep the creation orders of survivors", func() {
			m1 := NewMaterial(registry)
			m2 := NewMaterial(registry)
			m3 := NewMaterial(registry)

			Expect(registry.Remove(m1.Tag())).To(Succeed())

			Expect(m2.CreationOrder()).To(Equal(uint64(1)))
			Expect(m3.CreationOrder()).To(Equal(uint64(2)))
		})

		It("should report a tag that no live entity holds", func() {
			NewMaterial(registry)

			err := registry.Remove(9)

			Expect(err).To(MatchError(ErrNotFound))
			Expect(registry.Count()).To(Equal(1))
		})

		It("should report removal from an empty registry", func() {
			Expect(registry.Remove(1)).To(MatchError(ErrNotFound))
		})

		It("should report a tag below the start", func() {
			Expect(registry.SetStartTag(10)).To(Succeed())
			NewMaterial(registry)

			Expect(registry.Remove(9)).To(MatchError(ErrNotFound))
		})
	})

	Context("rebasing", func() {
		It("should renumber all live entities when raising the start", func() {
			m1 := NewMaterial(registry)
			m2 := NewMaterial(registry)

			Expect(registry.SetStartTag(100)).To(Succeed())

			Expect(m1.Tag()).To(Equal(100))
			Expect(m2.Tag()).To(Equal(101))
		})

		It("should renumber when lowering the start below the current range",
			func() {
				Expect(registry.SetStartTag(100)).To(Succeed())
				m1 := NewMaterial(registry)
				m2 := NewMaterial(registry)
				m3 := NewMaterial(registry)

				Expect(registry.SetStartTag(10)).To(Succeed())

				Expect(m1.Tag()).To(Equal(10))
				Expect(m2.Tag()).To(Equal(11))
				Expect(m3.Tag()).To(Equal(12))
			})

		It("should keep tags when the start does not change", func() {
			m := NewMaterial(registry)

			Expect(registry.SetStartTag(1)).To(Succeed())

			Expect(m.Tag()).To(Equal(1))
		})

		It("should reject a non-positive start and leave tags untouched", func() {
			m := NewMaterial(registry)

			Expect(registry.SetStartTag(0)).To(MatchError(ErrInvalidStartTag))
			Expect(registry.SetStartTag(-7)).To(MatchError(ErrInvalidStartTag))

			Expect(registry.StartTag()).To(Equal(1))
			Expect(m.Tag()).To(Equal(1))
		})

		It("should apply to an empty registry", func() {
			Expect(registry.SetStartTag(202)).To(Succeed())

			m := NewMaterial(registry)

			Expect(m.Tag()).To(Equal(202))
		})

		It("should take effect after all entities are removed", func() {
			m1 := NewMaterial(registry)
			m2 := NewMaterial(registry)
			Expect(registry.Remove(m1.Tag())).To(Succeed())
			Expect(registry.Remove(m2.Tag())).To(Succeed())

			Expect(registry.SetStartTag(202)).To(Succeed())

			m3 := NewMaterial(registry)
			Expect(m3.Tag()).To(Equal(202))
		})
	})

	Context("resetting", func() {
		It("should detach every entity and restore the defaults", func() {
			Expect(registry.SetStartTag(50)).To(Succeed())
			m1 := NewMaterial(registry)
			m2 := NewMaterial(registry)

			registry.Reset()

			Expect(m1.Live()).To(BeFalse())
			Expect(m2.Live()).To(BeFalse())
			Expect(m1.Tag()).To(Equal(InvalidTag))
			Expect(registry.Count()).To(Equal(0))
			Expect(registry.StartTag()).To(Equal(1))

			m3 := NewMaterial(registry)
			Expect(m3.Tag()).To(Equal(1))
			Expect(m3.CreationOrder()).To(Equal(uint64(0)))
		})

		It("should be idempotent", func() {
			NewMaterial(registry)

			registry.Reset()
			registry.Reset()

			Expect(registry.Count()).To(Equal(0))
			Expect(registry.StartTag()).To(Equal(1))
			Expect(registry.NextTag()).To(Equal(1))
		})
	})

	Context("looking up", func() {
		It("should find live entities by tag", func() {
			m1 := NewMaterial(registry)
			m2 := NewMaterial(registry)
			Expect(registry.SetStartTag(30)).To(Succeed())

			Expect(registry.EntityByTag(30)).To(BeIdenticalTo(m1))
			Expect(registry.EntityByTag(31)).To(BeIdenticalTo(m2))
		})

		It("should report a tag outside the live range", func() {
			NewMaterial(registry)

			_, err := registry.EntityByTag(2)

			Expect(err).To(MatchError(ErrNotFound))
		})

		It("should report the next tag to be assigned", func() {
			Expect(registry.NextTag()).To(Equal(1))

			NewMaterial(registry)
			Expect(registry.NextTag()).To(Equal(2))

			Expect(registry.SetStartTag(100)).To(Succeed())
			Expect(registry.NextTag()).To(Equal(101))
		})

		It("should return a copy of the live sequence", func() {
			m1 := NewMaterial(registry)
			NewMaterial(registry)

			entities := registry.Entities()
			entities[0] = nil

			Expect(registry.EntityByTag(1)).To(BeIdenticalTo(m1))
		})
	})

	Context("maintaining density", func() {
		It("should hold the invariant across interleaved operations", func() {
			for i := 0; i < 10; i++ {
				NewMaterial(registry)
			}

			Expect(registry.Remove(3)).To(Succeed())
			Expect(registry.Remove(7)).To(Succeed())
			Expect(registry.SetStartTag(21)).To(Succeed())
			NewMaterial(registry)
			Expect(registry.Remove(21)).To(Succeed())

			entities := registry.Entities()
			Expect(entities).To(HaveLen(8))

			seen := make(map[int]bool)
			for i, e := range entities {
				Expect(e.Tag()).To(Equal(registry.StartTag() + i))
				Expect(seen[e.Tag()]).To(BeFalse())
				seen[e.Tag()] = true
			}

			for i := 1; i < len(entities); i++ {
				Expect(entities[i].CreationOrder()).To(
					BeNumerically(">", entities[i-1].CreationOrder()))
			}
		})
	})

	Context("with hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
			ctxs     []HookCtx
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
			ctxs = nil
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx HookCtx) {
				ctxs = append(ctxs, ctx)
			}).AnyTimes()

			registry.AcceptHook(hook)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should report registrations", func() {
			m := NewMaterial(registry)

			Expect(ctxs).To(HaveLen(1))
			Expect(ctxs[0].Domain).To(BeIdenticalTo(registry))
			Expect(ctxs[0].Pos).To(BeIdenticalTo(HookPosRegister))
			Expect(ctxs[0].Item).To(BeIdenticalTo(m))
		})

		It("should report a removal followed by the renumbering", func() {
			m1 := NewMaterial(registry)
			m2 := NewMaterial(registry)
			m3 := NewMaterial(registry)
			ctxs = nil

			Expect(registry.Remove(m2.Tag())).To(Succeed())

			Expect(m1.Tag()).To(Equal(1))
			Expect(ctxs).To(HaveLen(2))
			Expect(ctxs[0].Pos).To(BeIdenticalTo(HookPosRemove))
			Expect(ctxs[0].Item).To(BeIdenticalTo(m2))
			Expect(ctxs[0].Detail).To(Equal(2))
			Expect(ctxs[1].Pos).To(BeIdenticalTo(HookPosRetag))
			Expect(ctxs[1].Item).To(BeIdenticalTo(m3))
			Expect(ctxs[1].Detail).To(Equal(3))
		})

		It("should report a rebase followed by the renumbering", func() {
			m := NewMaterial(registry)
			ctxs = nil

			Expect(registry.SetStartTag(5)).To(Succeed())

			Expect(ctxs).To(HaveLen(2))
			Expect(ctxs[0].Pos).To(BeIdenticalTo(HookPosRebase))
			Expect(ctxs[0].Item).To(Equal(Rebase{PrevStart: 1, NewStart: 5}))
			Expect(ctxs[1].Pos).To(BeIdenticalTo(HookPosRetag))
			Expect(ctxs[1].Item).To(BeIdenticalTo(m))
			Expect(ctxs[1].Detail).To(Equal(1))
		})

		It("should not report retags when the start does not change", func() {
			NewMaterial(registry)
			ctxs = nil

			Expect(registry.SetStartTag(1)).To(Succeed())

			Expect(ctxs).To(HaveLen(1))
			Expect(ctxs[0].Pos).To(BeIdenticalTo(HookPosRebase))
		})

		It("should report resets", func() {
			NewMaterial(registry)
			NewMaterial(registry)
			ctxs = nil

			registry.Reset()

			Expect(ctxs).To(HaveLen(1))
			Expect(ctxs[0].Pos).To(BeIdenticalTo(HookPosReset))
			Expect(ctxs[0].Item).To(Equal(2))
		})

		It("should panic when the same hook is added twice", func() {
			Expect(func() { registry.AcceptHook(hook) }).To(Panic())
		})
	})
})
