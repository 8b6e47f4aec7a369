package server

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/coaldraw/pkg/buildinfo"
	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/pipeline"
	"github.com/matzehuels/coaldraw/pkg/quiz"
	"github.com/matzehuels/coaldraw/pkg/render/sink"
	"github.com/matzehuels/coaldraw/pkg/store"
	"github.com/matzehuels/coaldraw/pkg/tree"
	"github.com/matzehuels/coaldraw/pkg/workbook"
	"github.com/matzehuels/coaldraw/pkg/workbook/figures"
)

const defaultListLimit = 50

// =============================================================================
// Health and rendering
// =============================================================================

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

type renderRequest struct {
	Tree    tree.Document    `json:"tree"`
	Options pipeline.Options `json:"options"`
}

// handleRender draws the tree in the request body in the format given by the
// format query parameter (svg by default).
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.Tree.Tree()
	if err != nil {
		writeError(w, r, cerrors.Wrap(cerrors.ErrCodeInvalidTree, err, "invalid tree"))
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	s.render(w, r, t, req.Options, format)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, t *tree.Tree, opts pipeline.Options, format string) {
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	opts.Logger = s.logger

	res, err := s.runner.Execute(r.Context(), t, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("X-Tree-Hash", res.TreeHash)
	if res.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeArtifact(w, pipeline.ContentType(format), res.Artifacts[format])
}

// =============================================================================
// Tree gallery
// =============================================================================

type createTreeRequest struct {
	Name string        `json:"name"`
	Tree tree.Document `json:"tree"`
}

func (s *Server) handleCreateTree(w http.ResponseWriter, r *http.Request) {
	var req createTreeRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.Tree.Tree()
	if err != nil {
		writeError(w, r, cerrors.Wrap(cerrors.ErrCodeInvalidTree, err, "invalid tree"))
		return
	}
	rec, err := s.store.Put(r.Context(), store.NewRecord(req.Name, t))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.logger.Debug("stored tree", "id", rec.ID, "nodes", t.Len())
	w.Header().Set("Location", "/trees/"+rec.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID})
}

type treeSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Nodes     int    `json:"nodes"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, cerrors.New(cerrors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	recs, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]treeSummary, len(recs))
	for i, rec := range recs {
		out[i] = treeSummary{
			ID:        rec.ID,
			Name:      rec.Name,
			Nodes:     max(len(rec.Tree.Nodes), len(rec.Tree.Ancestors)),
			CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	rec, err := s.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := cerrors.ValidateID(id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, r, storeError(id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenderTree(w http.ResponseWriter, r *http.Request) {
	rec, err := s.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := rec.Tree.Tree()
	if err != nil {
		writeError(w, r, cerrors.Wrap(cerrors.ErrCodeInvalidTree, err, "stored tree %s", rec.ID))
		return
	}
	opts, err := optionsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.render(w, r, t, opts, chi.URLParam(r, "format"))
}

func (s *Server) lookup(r *http.Request) (store.Record, error) {
	id := chi.URLParam(r, "id")
	if err := cerrors.ValidateID(id); err != nil {
		return store.Record{}, err
	}
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		return store.Record{}, storeError(id, err)
	}
	return rec, nil
}

func storeError(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return cerrors.Wrap(cerrors.ErrCodeTreeNotFound, err, "tree %s", id)
	}
	return err
}

// optionsFromQuery reads drawing options from query parameters, e.g.
// ?width=600&labels=true&jitter_y=15.
func optionsFromQuery(q url.Values) (pipeline.Options, error) {
	var o pipeline.Options
	o.VizType = q.Get("viz")
	o.IDPrefix = q.Get("id_prefix")
	o.Class = q.Get("class")
	o.Background = q.Get("background")

	floats := map[string]*float64{
		"width":     &o.Width,
		"height":    &o.Height,
		"font_size": &o.FontSize,
		"node_size": &o.NodeSize,
		"jitter_x":  &o.JitterX,
		"jitter_y":  &o.JitterY,
		"scale":     &o.Scale,
	}
	for name, dst := range floats {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, cerrors.New(cerrors.ErrCodeInvalidOptions, "%s: not a number: %q", name, v)
		}
		*dst = f
	}

	bools := map[string]*bool{
		"labels":   &o.NodeLabels,
		"internal": &o.ShowInternal,
		"detailed": &o.Detailed,
		"refresh":  &o.Refresh,
	}
	for name, dst := range bools {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return o, cerrors.New(cerrors.ErrCodeInvalidOptions, "%s: not a boolean: %q", name, v)
		}
		*dst = b
	}
	// internal labels imply labels
	if o.ShowInternal {
		o.NodeLabels = true
	}

	// mutation=3:A>G&mutation=5:C>T
	for _, m := range q["mutation"] {
		idx, label, ok := strings.Cut(m, ":")
		n, err := strconv.Atoi(idx)
		if !ok || err != nil {
			return o, cerrors.New(cerrors.ErrCodeInvalidOptions, "mutation must be node:label, got %q", m)
		}
		if o.Mutations == nil {
			o.Mutations = make(map[int]string)
		}
		o.Mutations[n] = label
	}

	if q.Get("style") == "workbook" {
		o.CSS = workbook.CSS
	}
	return o, nil
}

// =============================================================================
// Figures and quizzes
// =============================================================================

func (s *Server) handleListFigures(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, figures.Names())
}

func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	sc, err := figures.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var opts []sink.SVGOption
	if r.URL.Query().Get("small") == "true" {
		opts = append(opts, sink.WithClass(workbook.SmallClass), sink.WithCSS(workbook.SmallStyle))
	}
	writeArtifact(w, pipeline.ContentType(pipeline.FormatSVG), sink.RenderSVG(sc, opts...))
}

func (s *Server) handleListQuiz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.quiz.Sections())
}

func (s *Server) handleQuizSection(w http.ResponseWriter, r *http.Request) {
	sec, err := s.section(chi.URLParam(r, "section"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sec)
}

// section returns a quiz section, prepared by its workbook when one exists
// (HOWTO fills in today's date).
func (s *Server) section(name string) (quiz.Section, error) {
	if slices.Contains(workbook.Names(), name) {
		wb, err := workbook.New(name, s.quiz)
		if err != nil {
			return nil, err
		}
		return wb.Quiz, nil
	}
	return s.quiz.Section(name)
}

type checkRequest struct {
	Question int    `json:"question"`
	Answer   string `json:"answer"`
}

// handleQuizCheck grades one answer. Question is the 0-based position within
// the label's question list.
func (s *Server) handleQuizCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sec, err := s.section(chi.URLParam(r, "section"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	qs, err := sec.Questions(chi.URLParam(r, "label"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Question < 0 || req.Question >= len(qs) {
		writeError(w, r, cerrors.New(cerrors.ErrCodeInvalidInput, "question %d out of range (0..%d)", req.Question, len(qs)-1))
		return
	}
	writeJSON(w, http.StatusOK, quiz.Check(qs[req.Question], req.Answer))
}
