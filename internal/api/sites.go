package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleSites lists the site collections.
// GET /api/v1/sites
func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"collections": s.opts.Sites.List()})
}

// handleCollection returns one collection, optionally centred on a selected site.
// GET /api/v1/sites/{collection}?selected=louvre-museum
func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	c, ok := s.opts.Sites.Collection(chi.URLParam(r, "collection"), r.URL.Query().Get("selected"))
	if !ok {
		writeError(w, http.StatusNotFound, "collection not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleSite returns a single site by id, name or local name.
// GET /api/v1/sites/{collection}/{site}
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	site, ok := s.opts.Sites.Site(chi.URLParam(r, "collection"), chi.URLParam(r, "site"))
	if !ok {
		writeError(w, http.StatusNotFound, "site not found")
		return
	}
	writeJSON(w, http.StatusOK, site)
}
