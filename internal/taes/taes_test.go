package taes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/govkernel/chain/internal/models"
)

func TestComputeIV_CanonicalWeighting(t *testing.T) {
	iv := ComputeIV(Scores{Logical: 1, Practical: 1, Probable: 1}, CanonicalWeights)
	assert.InDelta(t, 1.0, iv, 1e-9)

	iv2 := ComputeIV(Scores{Logical: 1, Practical: 0, Probable: 0}, CanonicalWeights)
	assert.InDelta(t, 0.5, iv2, 1e-9)
}

func TestComputeIRD_FloorAndPenalties(t *testing.T) {
	ird := ComputeIRD(0.65, 0, 0)
	assert.InDelta(t, 0.0, ird, 1e-9)

	ird2 := ComputeIRD(0.5, 2, 3)
	assert.InDelta(t, 0.15+0.10+0.06, ird2, 1e-9)
}

func TestComputeDomainWeighted_UnknownDomainErrors(t *testing.T) {
	_, err := ComputeDomainWeighted(Scores{Logical: 1}, models.Domain("bogus"))
	assert.Error(t, err)
}

func TestComputeDomainWeighted_KnownDomain(t *testing.T) {
	dw, err := ComputeDomainWeighted(Scores{Logical: 1, Practical: 1, Probable: 1}, models.DomainMarketing)
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, dw, 1e-9)
}

func TestDomainWeights_CoversAllNineDomains(t *testing.T) {
	assert.Len(t, DomainWeights, len(models.Domains))
	for _, d := range models.Domains {
		w, ok := DomainWeights[d]
		assert.True(t, ok, "missing weights for domain %s", d)
		assert.InDelta(t, 1.0, w.Logical+w.Practical+w.Probable, 1e-9)
	}
}
