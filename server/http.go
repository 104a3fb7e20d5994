package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/opentracing/opentracing-go"
	geojson "github.com/paulmach/go.geojson"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/storage/bbolt"
)

// Routes registers the API handlers on r, wrap is applied to every handler with
// a stable id, it can be nil
func (s *Server) Routes(r *mux.Router, wrap func(id string, h http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(_ string, h http.Handler) http.Handler { return h }
	}

	r.Handle("/api/render/{format:svg|png}",
		wrap("/api/render/format", http.HandlerFunc(s.RenderHandler))).Methods("GET")
	r.Handle("/api/tiles/{style}/{z:[0-9]+}/{x:[0-9]+}/{y:[0-9]+}.{format:svg|png}",
		wrap("/api/tiles/style/z/x/y", http.HandlerFunc(s.TileHandler))).Methods("GET")
	r.Handle("/api/export",
		wrap("/api/export", http.HandlerFunc(s.ExportHandler))).Methods("POST")
	r.HandleFunc("/api/export/{id}", s.ExportStatusHandler).Methods("GET")
	r.HandleFunc("/api/export/{id}/file", s.ExportFileHandler).Methods("GET")
	r.HandleFunc("/api/styles", s.StylesHandler).Methods("GET")
	r.HandleFunc("/api/debug/features", s.DebugFeaturesHandler).Methods("GET")
}

// RenderHandler HTTP 1.1 Handler rendering the viewport described by the query
func (s *Server) RenderHandler(w http.ResponseWriter, r *http.Request) {
	span, ctx := opentracing.StartSpanFromContext(r.Context(), "RenderHandler")
	defer span.Finish()

	format := mux.Vars(r)["format"]

	req, err := s.parseRequest(r.URL.Query(), format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.Render(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", ContentType(format))
	w.Write(data)
}

// TileHandler HTTP 1.1 Handler serving web tiles
func (s *Server) TileHandler(w http.ResponseWriter, r *http.Request) {
	span, ctx := opentracing.StartSpanFromContext(r.Context(), "TileHandler")
	defer span.Finish()

	vars := mux.Vars(r)

	z, err := strconv.ParseUint(vars["z"], 10, 8)
	if err != nil || int(z) > s.opts.MaxZoom {
		http.Error(w, "invalid parameter z", http.StatusBadRequest)
		return
	}
	x, err := strconv.ParseUint(vars["x"], 10, 32)
	if err != nil || x >= 1<<z {
		http.Error(w, "invalid parameter x", http.StatusBadRequest)
		return
	}
	y, err := strconv.ParseUint(vars["y"], 10, 32)
	if err != nil || y >= 1<<z {
		http.Error(w, "invalid parameter y", http.StatusBadRequest)
		return
	}

	data, err := s.Tile(ctx, bbolt.TileAddress{
		Style:  vars["style"],
		Format: vars["format"],
		Z:      uint8(z),
		X:      uint32(x),
		Y:      uint32(y),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", ContentType(vars["format"]))
	w.Write(data)
}

// ExportHandler HTTP 1.1 Handler starting a background export, the viewport is read
// from the query like RenderHandler plus a format parameter
func (s *Server) ExportHandler(w http.ResponseWriter, r *http.Request) {
	span, ctx := opentracing.StartSpanFromContext(r.Context(), "ExportHandler")
	defer span.Finish()

	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = FormatSVG
	}

	req, err := s.parseRequest(q, format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := s.StartExport(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/export/"+st.ID)
	writeJSON(w, http.StatusAccepted, st)
}

// ExportStatusHandler HTTP 1.1 Handler reporting an export state
func (s *Server) ExportStatusHandler(w http.ResponseWriter, r *http.Request) {
	st, _, ok := s.Export(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "{\"msg\": \"no such export\"}", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// ExportFileHandler HTTP 1.1 Handler serving a finished export
func (s *Server) ExportFileHandler(w http.ResponseWriter, r *http.Request) {
	st, path, ok := s.Export(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "{\"msg\": \"no such export\"}", http.StatusNotFound)
		return
	}

	switch st.State {
	case "running":
		writeJSON(w, http.StatusConflict, st)
		return
	case "failed":
		writeJSON(w, http.StatusInternalServerError, st)
		return
	}

	w.Header().Set("Content-Type", ContentType(st.Format))
	http.ServeFile(w, r, path)
}

// StylesHandler HTTP 1.1 Handler listing the style sets
func (s *Server) StylesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Styles())
}

// DebugFeaturesHandler HTTP 1.1 Handler returning the features culled for a viewport as GeoJSON
func (s *Server) DebugFeaturesHandler(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r.URL.Query(), FormatSVG)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fs := s.scene.Features
	fc := geojson.NewFeatureCollection()
	for _, ref := range s.Features(r.Context(), req.Viewport) {
		pts := s.scene.Geometry(ref)
		coords := make([][]float64, len(pts))
		for i, p := range pts {
			coords[i] = []float64{p.Lon, p.Lat}
		}

		var f *geojson.Feature
		var tags vectormap.Tags
		switch ref.Kind {
		case vectormap.KindWay:
			way := &fs.Ways[ref.Pos]
			if way.Closed() && len(coords) >= 4 {
				f = geojson.NewPolygonFeature([][][]float64{coords})
			} else {
				f = geojson.NewLineStringFeature(coords)
			}
			f.ID = way.ID
			tags = way.Tags
		case vectormap.KindTrack:
			f = geojson.NewLineStringFeature(coords)
			f.SetProperty("name", fs.Tracks[ref.Pos].Name)
		case vectormap.KindNode:
			n := &fs.Nodes[ref.Pos]
			f = geojson.NewPointFeature(coords[0])
			f.ID = n.ID
			tags = n.Tags
		}

		for k, v := range tags {
			f.SetProperty(k, v)
		}
		f.SetProperty("kind", ref.Kind.String())
		fc.AddFeature(f)
	}

	b, err := fc.MarshalJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
}

// parseRequest reads the viewport from q: lat, lon, scale or zoom, width, height,
// projection, style and precision. Missing center and scale fit the whole scene.
func (s *Server) parseRequest(q url.Values, format string) (Request, error) {
	req := Request{
		Style:  q.Get("style"),
		Format: format,
	}

	if format != FormatSVG && format != FormatPNG {
		return req, fmt.Errorf("invalid parameter format")
	}

	width, err := intParam(q, "width", DefaultWidth)
	if err != nil || width <= 0 || width > s.opts.MaxSize {
		return req, fmt.Errorf("invalid parameter width")
	}
	height, err := intParam(q, "height", DefaultHeight)
	if err != nil || height <= 0 || height > s.opts.MaxSize {
		return req, fmt.Errorf("invalid parameter height")
	}
	req.Precision, err = intParam(q, "precision", -1)
	if err != nil || (q.Get("precision") != "" && req.Precision < 0) {
		return req, fmt.Errorf("invalid parameter precision")
	}

	proj := vectormap.ProjectionFromString(q.Get("projection"))

	vp := vectormap.Viewport{Width: width, Height: height, Projection: proj, Scale: vectormap.ScaleForZoom(0)}
	if b, ok := s.scene.Bounds(); ok {
		vp = vectormap.ViewportFitting(b, width, height, proj)
	}

	if q.Get("lat") != "" || q.Get("lon") != "" {
		lat, err := floatParam(q, "lat")
		if err != nil || math.Abs(lat) > vp.MaxLatitude() {
			return req, fmt.Errorf("invalid parameter lat")
		}
		lon, err := floatParam(q, "lon")
		if err != nil || math.Abs(lon) > 180 {
			return req, fmt.Errorf("invalid parameter lon")
		}
		vp.Center = vectormap.GeoPoint{Lat: lat, Lon: lon}
	}

	switch {
	case q.Get("scale") != "":
		scale, err := floatParam(q, "scale")
		if err != nil || scale <= 0 {
			return req, fmt.Errorf("invalid parameter scale")
		}
		vp.Scale = scale
	case q.Get("zoom") != "":
		zoom, err := floatParam(q, "zoom")
		if err != nil || zoom < 0 || zoom > float64(s.opts.MaxZoom) {
			return req, fmt.Errorf("invalid parameter zoom")
		}
		vp.Scale = vectormap.ScaleForZoom(zoom)
	}

	req.Viewport = vp
	return req, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func floatParam(q url.Values, name string) (float64, error) {
	v, err := strconv.ParseFloat(q.Get(name), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s is not finite", name)
	}
	return v, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownStyle), errors.Is(err, ErrUnknownFormat):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrExportDisabled):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}
