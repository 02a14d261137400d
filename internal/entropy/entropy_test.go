package entropy

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandDeterministic(t *testing.T) {
	a := NewRand(12345)
	b := NewRand(12345)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Uniform(), b.Uniform(), "mismatch at draw %d", i)
	}
	assert.Equal(t, a.Gaussian(0, 1), b.Gaussian(0, 1))
	assert.Equal(t, a.Poisson(4), b.Poisson(4))
}

func TestWeightedIndexExhausted(t *testing.T) {
	r := NewRand(1)
	_, err := r.WeightedIndex([]float64{0, 0, -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExhaustedChoice))

	_, err = r.Softmax(nil)
	assert.ErrorIs(t, err, ErrExhaustedChoice)
}

func TestWeightedIndexMapping(t *testing.T) {
	cases := []struct {
		u    float64
		want int
	}{
		{0.0, 1},
		{0.24, 1},
		{0.26, 3},
		{0.999, 3},
	}
	weights := []float64{0, 1, 0, 3}
	for _, tc := range cases {
		got, err := weightedIndex(tc.u, weights)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "u=%v", tc.u)
	}
}

func TestStubSequences(t *testing.T) {
	s := &Stub{Uniforms: []float64{0.1, 0.9}, Normals: []float64{1}}
	assert.Equal(t, 0.1, s.Uniform())
	assert.Equal(t, 0.9, s.Uniform())
	assert.Equal(t, 0.1, s.Uniform())
	assert.Equal(t, 3.0, s.Gaussian(1, 2))
	assert.Equal(t, 3, s.Draws())

	empty := &Stub{}
	assert.Equal(t, 0.5, empty.Uniform())
	assert.Equal(t, 4.0, empty.Gaussian(4, 10))
}

func TestPoissonZeroRate(t *testing.T) {
	assert.Equal(t, 0, NewRand(3).Poisson(0))
	assert.Equal(t, 0, NewRand(3).Poisson(-2))
}

func TestPoissonMeanRoughlyLambda(t *testing.T) {
	r := NewRand(99)
	total := 0
	for i := 0; i < 2000; i++ {
		total += r.Poisson(3)
	}
	mean := float64(total) / 2000
	assert.InDelta(t, 3.0, mean, 0.3)
}

func TestHelpers(t *testing.T) {
	s := &Stub{Uniforms: []float64{0.25}}
	assert.True(t, Bernoulli(s, 0.3))
	assert.False(t, Bernoulli(s, 0.2))
	assert.InDelta(t, 1.5, Range(s, 1, 3), 1e-12)
	assert.Equal(t, 1, Intn(s, 4))
	assert.Equal(t, 3, Intn(&Stub{Uniforms: []float64{0.9999999999}}, 4))
}

func TestClientSeedFromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[11,22]}},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key").WithEndpoint(srv.URL)
	assert.Equal(t, int64(11), c.Seed())
	assert.Equal(t, int64(22), c.Seed())
}

func TestClientFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","error":{"message":"bad key"},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key").WithEndpoint(srv.URL)
	assert.Greater(t, c.Seed(), int64(0))
}

func TestNilClient(t *testing.T) {
	assert.Nil(t, NewClient(""))
	var c *Client
	assert.Greater(t, c.Seed(), int64(0))
}
