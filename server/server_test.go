package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	log "github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/require"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/render"
	"github.com/akhenakh/vectormap/storage/bbolt"
	"github.com/akhenakh/vectormap/style"
)

func testScene(t *testing.T) *render.Scene {
	t.Helper()

	fs := vectormap.NewFeatureSet()
	fs.AddNode(vectormap.Node{ID: 1, Point: vectormap.GeoPoint{Lat: 48.850, Lon: 2.340}})
	fs.AddNode(vectormap.Node{ID: 2, Point: vectormap.GeoPoint{Lat: 48.860, Lon: 2.360}})
	fs.AddNode(vectormap.Node{
		ID:    3,
		Point: vectormap.GeoPoint{Lat: 48.855, Lon: 2.350},
		Tags:  vectormap.Tags{"amenity": "cafe", "name": "Flore"},
	})
	fs.AddWay(vectormap.Way{ID: 10, NodeIDs: []int64{1, 2}, Tags: vectormap.Tags{"highway": "primary", "name": "Rivoli"}})

	scene, err := render.NewScene(fs, vectormap.RTreeStrategy)
	require.NoError(t, err)
	return scene
}

func setup(t *testing.T, tiles TileStore, opts Options) (*Server, *mux.Router) {
	t.Helper()

	logger := log.NewNopLogger()
	styles := map[string]*style.Set{style.DefaultName: style.Default()}
	s, err := New(context.Background(), logger, testScene(t), render.NewRenderer(logger, render.Options{}), styles, tiles, opts)
	require.NoError(t, err)

	r := mux.NewRouter()
	s.Routes(r, nil)
	return s, r
}

func do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNew(t *testing.T) {
	logger := log.NewNopLogger()
	renderer := render.NewRenderer(logger, render.Options{})

	_, err := New(context.Background(), logger, testScene(t), renderer, nil, nil, Options{})
	require.Error(t, err)

	_, err = New(context.Background(), logger, testScene(t), renderer,
		map[string]*style.Set{"a": style.Default()}, nil, Options{DefaultStyle: "b"})
	require.ErrorIs(t, err, ErrUnknownStyle)
}

func TestRenderHandler(t *testing.T) {
	_, r := setup(t, nil, Options{CacheMaxCost: DefaultCacheMaxCost})

	target := "/api/render/svg?lat=48.855&lon=2.35&zoom=17&width=300&height=200"
	w := do(r, "GET", target)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	body := w.Body.String()
	require.Contains(t, body, `width="300"`)
	require.Contains(t, body, `height="200"`)
	require.Contains(t, body, "Flore")

	// identical requests return identical bytes, cached or not
	w2 := do(r, "GET", target)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Equal(t, body, w2.Body.String())

	w = do(r, "GET", "/api/render/png?lat=48.855&lon=2.35&zoom=15&width=64&height=64")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestRenderHandler_Precision(t *testing.T) {
	_, r := setup(t, nil, Options{})

	// the cafe sits at the center
	base := "/api/render/svg?lat=48.855&lon=2.35&zoom=17&width=300&height=200"

	w := do(r, "GET", base+"&precision=0")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `<text x="150" y=`)

	w = do(r, "GET", base)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `<text x="150.000" y=`)
}

func TestRenderHandler_FitsScene(t *testing.T) {
	_, r := setup(t, nil, Options{})

	w := do(r, "GET", "/api/render/svg")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `width="800"`)
	require.Contains(t, w.Body.String(), "Rivoli")
}

func TestRenderHandler_Invalid(t *testing.T) {
	_, r := setup(t, nil, Options{MaxSize: 1000})

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"zero width", "/api/render/svg?width=0", http.StatusBadRequest},
		{"too high", "/api/render/svg?height=1001", http.StatusBadRequest},
		{"lat out of mercator", "/api/render/svg?lat=86&lon=0", http.StatusBadRequest},
		{"lat ok equirectangular", "/api/render/svg?lat=86&lon=0&projection=equirectangular", http.StatusOK},
		{"lon", "/api/render/svg?lat=0&lon=181", http.StatusBadRequest},
		{"missing lon", "/api/render/svg?lat=10", http.StatusBadRequest},
		{"negative scale", "/api/render/svg?scale=-1", http.StatusBadRequest},
		{"nan scale", "/api/render/svg?scale=NaN", http.StatusBadRequest},
		{"zoom", "/api/render/svg?zoom=42", http.StatusBadRequest},
		{"precision", "/api/render/svg?precision=-2", http.StatusBadRequest},
		{"style", "/api/render/svg?style=nope", http.StatusNotFound},
		{"format", "/api/render/gif", http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := do(r, "GET", tt.target)
			require.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestTileHandler(t *testing.T) {
	tmpFile, err := ioutil.TempFile(os.TempDir(), "vectormap-test-")
	require.NoError(t, err)
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	storage, close, err := bbolt.NewStorage(tmpFile.Name(), log.NewNopLogger())
	require.NoError(t, err)
	defer close()

	stored := []byte("<svg>stored</svg>")
	require.NoError(t, storage.StoreTile(bbolt.TileAddress{
		Style: style.DefaultName, Format: "svg", Z: 2, X: 1, Y: 1,
	}, stored))

	_, r := setup(t, storage, Options{})

	w := do(r, "GET", "/api/tiles/google-maps/2/1/1.svg")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, stored, w.Body.Bytes())

	w = do(r, "GET", "/api/tiles/google-maps/2/2/1.svg")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `width="256"`)

	w = do(r, "GET", "/api/tiles/google-maps/2/4/1.svg")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, "GET", "/api/tiles/google-maps/21/0/0.png")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, "GET", "/api/tiles/unknown/0/0/0.png")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport(t *testing.T) {
	dir, err := ioutil.TempDir(os.TempDir(), "vectormap-export-")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s, r := setup(t, nil, Options{ExportDir: dir})

	w := do(r, "POST", "/api/export?format=svg&lat=48.855&lon=2.35&zoom=14")
	require.Equal(t, http.StatusAccepted, w.Code)

	var st ExportStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.NotEmpty(t, st.ID)
	require.Equal(t, "/api/export/"+st.ID, w.Header().Get("Location"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.WaitExport(ctx, st.ID))

	w = do(r, "GET", "/api/export/"+st.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, "finished", st.State)
	require.Empty(t, st.Error)

	w = do(r, "GET", "/api/export/"+st.ID+"/file")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<svg")

	w = do(r, "GET", "/api/export/404")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, "POST", "/api/export?format=gif")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport_Failed(t *testing.T) {
	s, r := setup(t, nil, Options{ExportDir: "/nonexistent/vectormap"})

	w := do(r, "POST", "/api/export")
	require.Equal(t, http.StatusAccepted, w.Code)

	var st ExportStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))

	var eerr *render.ExportError
	require.ErrorAs(t, s.WaitExport(context.Background(), st.ID), &eerr)
	require.Equal(t, "create", eerr.Op)

	w = do(r, "GET", "/api/export/"+st.ID+"/file")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, "failed", st.State)
	require.NotEmpty(t, st.Error)
}

func TestExport_Disabled(t *testing.T) {
	_, r := setup(t, nil, Options{})

	w := do(r, "POST", "/api/export")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStylesHandler(t *testing.T) {
	_, r := setup(t, nil, Options{})

	w := do(r, "GET", "/api/styles")
	require.Equal(t, http.StatusOK, w.Code)

	var names []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	require.Equal(t, []string{style.DefaultName}, names)
}

func TestDebugFeaturesHandler(t *testing.T) {
	_, r := setup(t, nil, Options{})

	w := do(r, "GET", "/api/debug/features?lat=48.855&lon=2.35&zoom=14")
	require.Equal(t, http.StatusOK, w.Code)

	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	// ways come before nodes
	require.True(t, fc.Features[0].Geometry.IsLineString())
	require.Equal(t, "way", fc.Features[0].Properties["kind"])
	require.Equal(t, "primary", fc.Features[0].Properties["highway"])
	require.True(t, fc.Features[1].Geometry.IsPoint())
	require.Equal(t, "cafe", fc.Features[1].Properties["amenity"])

	w = do(r, "GET", "/api/debug/features?lat=-40&lon=-70&zoom=14")
	require.Equal(t, http.StatusOK, w.Code)
	fc, err = geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	require.Empty(t, fc.Features)
}

type memoryStore struct {
	names []string
	sets  map[string]*style.Set
}

func (m *memoryStore) LoadFeatureSet() (*vectormap.FeatureSet, error) { return vectormap.NewFeatureSet(), nil }
func (m *memoryStore) LoadStyleSet(name string) (*style.Set, error)   { return m.sets[name], nil }
func (m *memoryStore) StyleSetNames() ([]string, error)               { return m.names, nil }
func (m *memoryStore) LoadIndexInfos() (*vectormap.IndexInfos, error) { return &vectormap.IndexInfos{}, nil }
func (m *memoryStore) LoadMapInfos() (*vectormap.MapInfos, bool, error) {
	return nil, false, nil
}

func TestLoadStyles(t *testing.T) {
	night := style.Default()
	night.Name = "night"

	styles, err := LoadStyles(&memoryStore{
		names: []string{"night"},
		sets:  map[string]*style.Set{"night": night},
	})
	require.NoError(t, err)
	require.Len(t, styles, 2)
	require.Equal(t, "night", styles["night"].Name)
	require.Equal(t, style.DefaultName, styles[style.DefaultName].Name)
}
