package pipeline_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
	"github.com/couchcryptid/plume-trajectory-service/internal/pipeline"
)

func TestResample_CoarseSamplesReproducedExactly(t *testing.T) {
	p := domain.DefaultParams()
	coarse := domain.NewGrid(p.TimeSteps, 2, 3)
	for ti := 0; ti < coarse.Steps; ti++ {
		for m := 0; m < coarse.Members; m++ {
			for v := 0; v < coarse.Vars; v++ {
				// Irregular values so interpolation errors would show.
				coarse.Set(ti, m, v, math.Sin(float64(ti*7+m*3+v))*123.456)
			}
		}
	}

	fine := pipeline.Resample(coarse, p)
	require.Equal(t, p.FineSteps, fine.Steps)

	// With 13 coarse and 721 fine steps every 60th fine sample lands on a
	// coarse step and must reproduce it bit-for-bit, not approximately.
	perSegment := (p.FineSteps - 1) / (p.TimeSteps - 1)
	for ti := 0; ti < coarse.Steps; ti++ {
		for m := 0; m < coarse.Members; m++ {
			for v := 0; v < coarse.Vars; v++ {
				assert.Equal(t, coarse.At(ti, m, v), fine.At(ti*perSegment, m, v),
					"coarse step %d member %d var %d", ti, m, v)
			}
		}
	}
}

func TestResample_LinearBetweenSteps(t *testing.T) {
	p := domain.DefaultParams()
	p.TimeSteps = 3
	p.FineSteps = 5

	coarse := domain.NewGrid(3, 1, 1)
	coarse.Set(0, 0, 0, 10)
	coarse.Set(1, 0, 0, 20)
	coarse.Set(2, 0, 0, 40)

	fine := pipeline.Resample(coarse, p)

	assert.InDelta(t, 10, fine.At(0, 0, 0), 1e-12)
	assert.InDelta(t, 15, fine.At(1, 0, 0), 1e-12)
	assert.InDelta(t, 20, fine.At(2, 0, 0), 1e-12)
	assert.InDelta(t, 30, fine.At(3, 0, 0), 1e-12)
	assert.InDelta(t, 40, fine.At(4, 0, 0), 1e-12)
}

func TestResample_NoOvershoot(t *testing.T) {
	p := domain.DefaultParams()
	coarse := domain.NewGrid(p.TimeSteps, 1, 1)
	for ti := 0; ti < coarse.Steps; ti++ {
		coarse.Set(ti, 0, 0, float64(ti%3))
	}

	fine := pipeline.Resample(coarse, p)
	for i := 0; i < fine.Steps; i++ {
		v := fine.At(i, 0, 0)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 2.0)
	}
	assert.Equal(t, coarse.At(coarse.Steps-1, 0, 0), fine.At(fine.Steps-1, 0, 0))
}
