package fem

import "fmt"

// Kind names one of the entity categories managed by registries. Every kind
// owns an independent tag space; a material and a pattern can hold the same
// tag at the same time without conflict.
type Kind string

// The entity kinds of a structural model definition.
const (
	KindMaterial   Kind = "material"
	KindDamping    Kind = "damping"
	KindPattern    Kind = "pattern"
	KindSection    Kind = "section"
	KindTimeSeries Kind = "timeseries"
	KindTransform  Kind = "transform"
)

// AllKinds returns every entity kind in canonical order.
func AllKinds() []Kind {
	return []Kind{
		KindMaterial,
		KindDamping,
		KindPattern,
		KindSection,
		KindTimeSeries,
		KindTransform,
	}
}

// IsValid reports whether k is one of the known entity kinds.
func (k Kind) IsValid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}

	return false
}

func (k Kind) mustBeValid() {
	if !k.IsValid() {
		panic(fmt.Sprintf("fem: unknown entity kind %q", string(k)))
	}
}
