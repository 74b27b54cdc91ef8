package http

import (
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"dailyboard/internal/core"
)

type lookupResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type nameRequest struct {
	Name string `json:"name"`
}

func categoriesToLookups(categories []core.Category) []lookupResponse {
	out := make([]lookupResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, lookupResponse{ID: c.ID, Name: c.Name})
	}
	return out
}

func unitsToLookups(units []core.Unit) []lookupResponse {
	out := make([]lookupResponse, 0, len(units))
	for _, u := range units {
		out = append(out, lookupResponse{ID: u.ID, Name: u.Name})
	}
	return out
}

func tagsToLookups(tags []core.Tag) []lookupResponse {
	out := make([]lookupResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, lookupResponse{ID: t.ID, Name: t.Name})
	}
	return out
}

// handleAllLookups fetches categories, units and tags concurrently so the
// expense form loads with one round trip.
func (s *Server) handleAllLookups(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var (
		categories []core.Category
		units      []core.Unit
		tags       []core.Tag
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		categories, err = s.repo.ListCategories(ctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		units, err = s.repo.ListUnits(ctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = s.repo.ListTags(ctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		respondStoreError(w, r, err, "list lookups")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"categories": categoriesToLookups(categories),
		"units":      unitsToLookups(units),
		"tags":       tagsToLookups(tags),
	})
}

func parseName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondValidationError(w, core.ErrEmptyName)
		return "", false
	}
	return name, true
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	name, ok := parseName(w, r)
	if !ok {
		return
	}
	c, err := s.repo.CreateCategory(r.Context(), userID(r), name)
	if err != nil {
		respondStoreError(w, r, err, "create category")
		return
	}
	respondJSON(w, http.StatusCreated, lookupResponse{ID: c.ID, Name: c.Name})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context(), userID(r))
	if err != nil {
		respondStoreError(w, r, err, "list categories")
		return
	}
	respondJSON(w, http.StatusOK, categoriesToLookups(categories))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !requireConfirmation(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteCategory(r.Context(), id, userID(r)); err != nil {
		respondStoreError(w, r, err, "delete category")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	name, ok := parseName(w, r)
	if !ok {
		return
	}
	u, err := s.repo.CreateUnit(r.Context(), userID(r), name)
	if err != nil {
		respondStoreError(w, r, err, "create unit")
		return
	}
	respondJSON(w, http.StatusCreated, lookupResponse{ID: u.ID, Name: u.Name})
}

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.repo.ListUnits(r.Context(), userID(r))
	if err != nil {
		respondStoreError(w, r, err, "list units")
		return
	}
	respondJSON(w, http.StatusOK, unitsToLookups(units))
}

func (s *Server) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	if !requireConfirmation(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteUnit(r.Context(), id, userID(r)); err != nil {
		respondStoreError(w, r, err, "delete unit")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	name, ok := parseName(w, r)
	if !ok {
		return
	}
	t, err := s.repo.CreateTag(r.Context(), userID(r), name)
	if err != nil {
		respondStoreError(w, r, err, "create tag")
		return
	}
	respondJSON(w, http.StatusCreated, lookupResponse{ID: t.ID, Name: t.Name})
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.repo.ListTags(r.Context(), userID(r))
	if err != nil {
		respondStoreError(w, r, err, "list tags")
		return
	}
	respondJSON(w, http.StatusOK, tagsToLookups(tags))
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if !requireConfirmation(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteTag(r.Context(), id, userID(r)); err != nil {
		respondStoreError(w, r, err, "delete tag")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type favoriteRequest struct {
	ItemName   string  `json:"item_name"`
	CategoryID *int64  `json:"category_id"`
	UnitID     *int64  `json:"unit_id"`
	Quantity   float64 `json:"quantity"`
}

type favoriteResponse struct {
	ID         int64   `json:"id"`
	ItemName   string  `json:"item_name"`
	CategoryID *int64  `json:"category_id"`
	UnitID     *int64  `json:"unit_id"`
	Quantity   float64 `json:"quantity"`
}

func (s *Server) handleCreateFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	f := core.Favorite{
		UserID:     userID(r),
		ItemName:   strings.TrimSpace(req.ItemName),
		CategoryID: req.CategoryID,
		UnitID:     req.UnitID,
		Quantity:   req.Quantity,
	}
	if err := f.Validate(); err != nil {
		respondValidationError(w, err)
		return
	}

	id, err := s.repo.CreateFavorite(r.Context(), f)
	if err != nil {
		respondStoreError(w, r, err, "create favorite")
		return
	}
	respondJSON(w, http.StatusCreated, favoriteResponse{
		ID:         id,
		ItemName:   f.ItemName,
		CategoryID: f.CategoryID,
		UnitID:     f.UnitID,
		Quantity:   f.Quantity,
	})
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := s.repo.ListFavorites(r.Context(), userID(r))
	if err != nil {
		respondStoreError(w, r, err, "list favorites")
		return
	}

	out := make([]favoriteResponse, 0, len(favorites))
	for _, f := range favorites {
		out = append(out, favoriteResponse{
			ID:         f.ID,
			ItemName:   f.ItemName,
			CategoryID: f.CategoryID,
			UnitID:     f.UnitID,
			Quantity:   f.Quantity,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteFavorite(w http.ResponseWriter, r *http.Request) {
	if !requireConfirmation(w, r) {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteFavorite(r.Context(), id, userID(r)); err != nil {
		respondStoreError(w, r, err, "delete favorite")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
