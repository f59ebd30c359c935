package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapValue(t *testing.T) {
	m := JSONMap{"codec": "prores", "fps": 23.976}
	v, err := m.Value()
	require.NoError(t, err)
	assert.Contains(t, v.(string), `"codec":"prores"`)

	var nilMap JSONMap
	v, err = nilMap.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v, "nil map serializes as an empty object")
}

func TestJSONMapScan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan(`{"codec":"h264","width":1920}`))
	assert.Equal(t, "h264", m["codec"])
	assert.Equal(t, float64(1920), m["width"])

	require.NoError(t, m.Scan([]byte(`{"a":1}`)))
	assert.Equal(t, float64(1), m["a"])

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)

	assert.Error(t, m.Scan(42))
}

func TestMediaTypeScan(t *testing.T) {
	var mt MediaType
	require.NoError(t, mt.Scan("video"))
	assert.Equal(t, MediaTypeVideo, mt)

	require.NoError(t, mt.Scan([]byte("audio")))
	assert.Equal(t, MediaTypeAudio, mt)

	assert.Error(t, mt.Scan(3.14))
}

func TestLocationID(t *testing.T) {
	loc := &PhysicalLocation{Bay: 2, Shelf: 11, Position: 4}
	assert.Equal(t, "B2-S11-P4", loc.LocationID())
}
