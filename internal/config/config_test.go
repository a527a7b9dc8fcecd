package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "https://api.safecast.org", c.API.BaseURL)
	assert.Equal(t, 100, c.API.Limit)
	assert.Equal(t, 1, c.API.MaxRetries)
	assert.Equal(t, "live_combined.kml", c.Output.Path)
	require.Len(t, c.Regions, 3)
	assert.Equal(t, "Turkey", c.Regions[0].Name)
	assert.Equal(t, 150, c.Regions[2].DistanceKM)
	assert.NoError(t, c.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
api:
  base_url: http://localhost:9999/
  limit: 25
  http:
    timeout: 3s
  rate_per_second: 2
regions:
  - name: Armenia
    latitude: 40.1
    longitude: 44.5
    distance_km: 120
output:
  path: out.kml
archive:
  path: archive.db
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", c.API.BaseURL)
	assert.Equal(t, 25, c.API.Limit)
	assert.Equal(t, 3*time.Second, c.API.HTTP.Timeout)
	assert.Equal(t, 1, c.API.Burst)
	require.Len(t, c.Regions, 1)
	assert.Equal(t, "Armenia", c.Regions[0].Name)
	assert.Equal(t, "out.kml", c.Output.Path)
	assert.Equal(t, "Safecast Radiation - Combined", c.Output.DocumentName)
	assert.Equal(t, "archive.db", c.Archive.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestParseRejectsBadRegions(t *testing.T) {
	cases := map[string]string{
		"empty name": "regions:\n  - name: \"\"\n    latitude: 1\n    longitude: 1\n    distance_km: 1\n",
		"duplicate":  "regions:\n  - {name: A, latitude: 1, longitude: 1, distance_km: 1}\n  - {name: A, latitude: 2, longitude: 2, distance_km: 1}\n",
		"latitude":   "regions:\n  - {name: A, latitude: 91, longitude: 1, distance_km: 1}\n",
		"distance":   "regions:\n  - {name: A, latitude: 1, longitude: 1, distance_km: 0}\n",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(yml))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, " secret ")
	c := Default()
	c.ApplyEnv()
	assert.Equal(t, "secret", c.API.APIKey)
}
