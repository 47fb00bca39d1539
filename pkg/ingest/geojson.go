// pkg/ingest/geojson.go
package ingest

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/David-Botos/pathprep/pkg/model"
)

// GeometryColumn is the name given to the geometry column of ingested tables
const GeometryColumn = "geometry"

type featureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type rawFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

// property is one decoded key/value pair, kept in document order
type property struct {
	key   string
	value interface{}
}

// decodedFeature is a feature with its geometry already encoded as WKB
type decodedFeature struct {
	properties []property
	geometry   []byte
}

// decodeFeatureCollection parses a GeoJSON FeatureCollection document
func decodeFeatureCollection(data []byte) ([]decodedFeature, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, errors.Wrap(err, "parse geojson document")
	}
	if fc.Type != "FeatureCollection" {
		return nil, errors.Errorf("expected a FeatureCollection, got %q", fc.Type)
	}

	features := make([]decodedFeature, 0, len(fc.Features))
	for i, raw := range fc.Features {
		f, err := decodeFeature(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "feature %d", i)
		}
		features = append(features, f)
	}
	return features, nil
}

func decodeFeature(raw json.RawMessage) (decodedFeature, error) {
	var rf rawFeature
	if err := json.Unmarshal(raw, &rf); err != nil {
		return decodedFeature{}, errors.Wrap(err, "parse feature")
	}
	if rf.Type != "Feature" {
		return decodedFeature{}, errors.Errorf("expected a Feature, got %q", rf.Type)
	}

	props, err := decodeProperties(rf.Properties)
	if err != nil {
		return decodedFeature{}, err
	}

	f := decodedFeature{properties: props}
	if isNull(rf.Geometry) {
		return f, nil
	}

	var g geom.T
	if err := geojson.Unmarshal(rf.Geometry, &g); err != nil {
		return decodedFeature{}, errors.Wrap(err, "parse geometry")
	}
	f.geometry, err = wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return decodedFeature{}, errors.Wrap(err, "encode geometry as wkb")
	}
	return f, nil
}

// decodeProperties walks the properties object token by token so keys keep
// their document order. Numbers stay json.Number.
func decodeProperties(raw json.RawMessage) ([]property, error) {
	if isNull(raw) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "parse properties")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("properties must be an object")
	}

	var props []property
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "parse property key")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("unexpected token %v in properties", tok)
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, errors.Wrapf(err, "parse property %s", key)
		}
		props = append(props, property{key: key, value: value})
	}
	return props, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// buildTable turns decoded features into a table. Property columns appear in
// order of first appearance; the geometry column comes last.
func (i *Ingestor) buildTable(features []decodedFeature) (*model.Table, error) {
	var order []string
	values := make(map[string][]interface{})

	for n, f := range features {
		for _, p := range f.properties {
			if p.key == GeometryColumn {
				return nil, errors.Errorf("feature %d: property %q collides with the geometry column", n, p.key)
			}
			if _, seen := values[p.key]; !seen {
				order = append(order, p.key)
				values[p.key] = make([]interface{}, len(features))
			}
			values[p.key][n] = p.value
		}
	}

	t := &model.Table{
		Columns: make([]model.Column, 0, len(order)+1),
		Rows:    make([]model.Row, len(features)),
	}
	for n := range t.Rows {
		t.Rows[n] = make(model.Row, len(order)+1)
	}

	for _, name := range order {
		kind := i.converter.InferKind(name, values[name])
		t.Columns = append(t.Columns, model.Column{Name: name, Kind: kind, Nullable: true})
		for n, v := range values[name] {
			converted, err := i.converter.ConvertValue(v, kind)
			if err != nil {
				return nil, errors.Wrapf(err, "feature %d property %s", n, name)
			}
			t.Rows[n][name] = converted
		}
	}

	t.Columns = append(t.Columns, model.Column{Name: GeometryColumn, Kind: model.KindGeometry, Nullable: true})
	for n, f := range features {
		if f.geometry == nil {
			t.Rows[n][GeometryColumn] = nil
			continue
		}
		t.Rows[n][GeometryColumn] = model.Geometry{WKB: f.geometry}
	}
	return t, nil
}
