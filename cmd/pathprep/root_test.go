package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/pathprep/pkg/failure"
)

const twoPaths = `{"type":"FeatureCollection","features":[
 {"type":"Feature","geometry":{"type":"LineString","coordinates":[[11.34,44.49],[11.35,44.50]]},
  "properties":{"codice":"P1","duso":"C","dtipologia2":"Pista","tipologia2":"Ciclabile","lunghezza":120.5,
   "length":120.5,"geo_point_2d":{"lon":11.345,"lat":44.495},"anno":"A.2015","zona_fiu":"Navile","nomequart":"Bolognina"}},
 {"type":"Feature","geometry":{"type":"LineString","coordinates":[[11.30,44.40],[11.31,44.41]]},
  "properties":{"codice":"P2","duso":"C","dtipologia2":"Percorso","tipologia2":null,"lunghezza":80.25,
   "length":80.25,"geo_point_2d":{"lon":11.305,"lat":44.405},"anno":"2016","zona_fiu":"Reno","nomequart":"Barca"}}
]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AUDIT_ENABLED", "false")
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(nil, &stdout, &stderr)
	cmd.SetArgs(append(args, "--log-file", "", "--log-level", "error"))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestIngestCleanInspect(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw")
	processed := filepath.Join(dir, "processed")
	require.NoError(t, os.MkdirAll(raw, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(raw, "paths.geojson"), []byte(twoPaths), 0o644))

	common := []string{"--dataset", "paths", "--raw-dir", raw, "--processed-dir", processed}

	out, err := execute(t, append([]string{"ingest"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 rows")
	assert.Contains(t, out, "Warning: null values in columns: tipologia2")
	assert.FileExists(t, filepath.Join(raw, "paths.parquet"))

	out, err = execute(t, append([]string{"clean"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows Written:            1")
	cleaned := filepath.Join(processed, "paths.parquet")
	assert.FileExists(t, cleaned)

	out, err = execute(t, "inspect", cleaned, "--rows", "-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Rows:    1")
	assert.Contains(t, out, "neighborhood_name")
	assert.Contains(t, out, "pista - ciclabile")
	assert.Contains(t, out, `"primary_column": "geometry"`)
}

func TestIngest_ExplicitPath(t *testing.T) {
	src := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(src, []byte(twoPaths), 0o644))

	_, err := execute(t, "ingest", src)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(filepath.Dir(src), "custom.parquet"))
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "ingest", filepath.Join(dir, "missing.geojson"))
	assert.True(t, failure.Is(err, failure.NotFound))
	assert.Contains(t, err.Error(), "missing.geojson")

	_, err = execute(t, "clean", "--in", filepath.Join(dir, "missing.parquet"), "--out", filepath.Join(dir, "out.parquet"))
	assert.True(t, failure.Is(err, failure.NotFound))

	_, err = execute(t, "inspect", filepath.Join(dir, "missing.parquet"))
	assert.True(t, failure.Is(err, failure.NotFound))

	_, err = execute(t, "inspect")
	assert.Error(t, err)
}

func TestFlagsOverrideInvalidEnvironment(t *testing.T) {
	src := filepath.Join(t.TempDir(), "paths.geojson")
	require.NoError(t, os.WriteFile(src, []byte(twoPaths), 0o644))
	t.Setenv("LOG_FORMAT", "xml")

	_, err := execute(t, "ingest", src)
	assert.Error(t, err)

	_, err = execute(t, "ingest", src, "--log-format", "json")
	assert.NoError(t, err)
}

func TestClean_JSONMetrics(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "paths.geojson")
	require.NoError(t, os.WriteFile(src, []byte(twoPaths), 0o644))

	_, err := execute(t, "ingest", src)
	require.NoError(t, err)

	out, err := execute(t, "clean",
		"--in", filepath.Join(dir, "paths.parquet"),
		"--out", filepath.Join(dir, "clean", "paths.parquet"),
		"--json")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, float64(2), decoded["rowsRead"])
	assert.Equal(t, float64(1), decoded["rowsWritten"])
	assert.Equal(t, float64(1), decoded["rowsDiscarded"])
	assert.Equal(t, float64(1), decoded["cleaningOps"])
}
