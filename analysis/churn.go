package analysis

import (
	"github.com/sarchlab/femcore/fem"
)

// KindChurn aggregates the registry operations observed for one entity kind.
type KindChurn struct {
	Kind       string `json:"kind"`
	Registered int64  `json:"registered"`
	Removed    int64  `json:"removed"`
	Retagged   int64  `json:"retagged"`
	Rebased    int64  `json:"rebased"`
	Resets     int64  `json:"resets"`
	Live       int    `json:"live"`
}

// ChurnAnalyzer is a hook that counts registry operations per kind. It gives
// a running view of how much tag traffic a model session generates, without
// touching the recorded event stream.
type ChurnAnalyzer struct {
	kindToChurn map[fem.Kind]*KindChurn
}

// NewChurnAnalyzer creates a ChurnAnalyzer.
func NewChurnAnalyzer() *ChurnAnalyzer {
	return &ChurnAnalyzer{
		kindToChurn: make(map[fem.Kind]*KindChurn),
	}
}

// Func counts one registry event.
func (a *ChurnAnalyzer) Func(ctx fem.HookCtx) {
	reg, ok := ctx.Domain.(*fem.Registry)
	if !ok {
		return
	}

	churn := a.churnFor(reg.Kind())

	switch ctx.Pos {
	case fem.HookPosRegister:
		churn.Registered++
	case fem.HookPosRemove:
		churn.Removed++
	case fem.HookPosRetag:
		churn.Retagged++
	case fem.HookPosRebase:
		churn.Rebased++
	case fem.HookPosReset:
		churn.Resets++
	}

	churn.Live = reg.Count()
}

func (a *ChurnAnalyzer) churnFor(kind fem.Kind) *KindChurn {
	churn, ok := a.kindToChurn[kind]
	if !ok {
		churn = &KindChurn{Kind: string(kind)}
		a.kindToChurn[kind] = churn
	}

	return churn
}

// Snapshot returns the per-kind counters in canonical kind order, skipping
// kinds with no recorded activity.
func (a *ChurnAnalyzer) Snapshot() []KindChurn {
	out := make([]KindChurn, 0, len(a.kindToChurn))
	for _, kind := range fem.AllKinds() {
		if churn, ok := a.kindToChurn[kind]; ok {
			out = append(out, *churn)
		}
	}

	return out
}
