package common

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryInterning(t *testing.T) {
	d := NewDictionary()
	a := d.GetOrCreateID("alpha")
	b := d.GetOrCreateID("beta")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, d.GetOrCreateID("alpha"))

	assert.Equal(t, "alpha", d.Value(a))
	assert.Equal(t, "beta", d.Value(b))
	assert.Equal(t, 2, d.Len())

	id, ok := d.ID("beta")
	require.True(t, ok)
	assert.Equal(t, b, id)

	_, ok = d.ID("gamma")
	assert.False(t, ok)
}

func TestDictionaryConcurrent(t *testing.T) {
	d := NewDictionary()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.GetOrCreateID(string(rune('a' + j%26)))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 26, d.Len())
}

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2021-03-18")
	require.NoError(t, err)
	assert.Equal(t, "2021-03-18", d.String())
	assert.False(t, d.IsNull())
}

func TestDateEpoch(t *testing.T) {
	d, err := ParseDate("1970-01-01")
	require.NoError(t, err)
	assert.Equal(t, Date(0), d)
}

func TestDateOrdering(t *testing.T) {
	early, err := ParseDate("2020-01-01")
	require.NoError(t, err)
	late, err := ParseDate("2021-01-01")
	require.NoError(t, err)
	assert.Less(t, early, late)
	assert.Less(t, DateNull, early)
}

func TestDateInvalid(t *testing.T) {
	_, err := ParseDate("18.03.2021")
	assert.Error(t, err)
}

func TestDateNullFormats(t *testing.T) {
	assert.Equal(t, "", DateNull.String())
	assert.True(t, DateNull.IsNull())
}
