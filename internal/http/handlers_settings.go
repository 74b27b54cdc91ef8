package http

import (
	"errors"
	"net/http"
	"strings"

	"dailyboard/internal/storage"
)

type settingsResponse struct {
	EditMode bool `json:"edit_mode"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.repo.GetSettings(r.Context(), userID(r))
	if err != nil {
		respondStoreError(w, r, err, "get settings")
		return
	}
	respondJSON(w, http.StatusOK, settingsResponse{EditMode: settings.EditMode})
}

func (s *Server) handleSetEditMode(w http.ResponseWriter, r *http.Request) {
	var req settingsResponse
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.SetEditMode(r.Context(), userID(r), req.EditMode); err != nil {
		respondStoreError(w, r, err, "set edit mode")
		return
	}
	respondJSON(w, http.StatusOK, settingsResponse{EditMode: req.EditMode})
}

type familyResponse struct {
	ID         int64  `json:"id"`
	OwnerID    string `json:"owner_id"`
	InviteCode string `json:"invite_code"`
}

type familyMemberResponse struct {
	UserID string `json:"user_id"`
	CanAdd bool   `json:"can_add"`
}

func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	if _, err := s.repo.GetFamilyForUser(r.Context(), uid); err == nil {
		respondError(w, http.StatusConflict, "already part of a family")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		respondStoreError(w, r, err, "check family membership")
		return
	}

	fam, err := s.repo.CreateFamily(r.Context(), uid)
	if err != nil {
		respondStoreError(w, r, err, "create family")
		return
	}
	respondJSON(w, http.StatusCreated, familyResponse{ID: fam.ID, OwnerID: fam.OwnerID, InviteCode: fam.InviteCode})
}

func (s *Server) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	fam, err := s.repo.GetFamilyForUser(r.Context(), userID(r))
	if err != nil {
		respondStoreError(w, r, err, "get family")
		return
	}
	respondJSON(w, http.StatusOK, familyResponse{ID: fam.ID, OwnerID: fam.OwnerID, InviteCode: fam.InviteCode})
}

type joinFamilyRequest struct {
	InviteCode string `json:"invite_code"`
}

func (s *Server) handleJoinFamily(w http.ResponseWriter, r *http.Request) {
	var req joinFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if code == "" {
		respondError(w, http.StatusBadRequest, "invite_code is required")
		return
	}

	fam, err := s.repo.JoinFamily(r.Context(), code, userID(r))
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "invite code not recognized")
		return
	}
	if err != nil {
		respondStoreError(w, r, err, "join family")
		return
	}
	respondJSON(w, http.StatusOK, familyResponse{ID: fam.ID, OwnerID: fam.OwnerID, InviteCode: fam.InviteCode})
}

func (s *Server) handleListFamilyMembers(w http.ResponseWriter, r *http.Request) {
	fam, err := s.repo.GetFamilyForUser(r.Context(), userID(r))
	if err != nil {
		respondStoreError(w, r, err, "get family")
		return
	}

	members, err := s.repo.ListFamilyMembers(r.Context(), fam.ID)
	if err != nil {
		respondStoreError(w, r, err, "list family members")
		return
	}

	out := make([]familyMemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, familyMemberResponse{UserID: m.UserID, CanAdd: m.CanAdd})
	}
	respondJSON(w, http.StatusOK, out)
}

type canAddRequest struct {
	CanAdd bool `json:"can_add"`
}

// ownedFamily loads the caller's family and verifies ownership. Member
// management is an owner-only operation.
func (s *Server) ownedFamily(w http.ResponseWriter, r *http.Request) (int64, bool) {
	fam, err := s.repo.GetFamilyForUser(r.Context(), userID(r))
	if err != nil {
		respondStoreError(w, r, err, "get family")
		return 0, false
	}
	if fam.OwnerID != userID(r) {
		respondError(w, http.StatusForbidden, "only the family owner can manage members")
		return 0, false
	}
	return fam.ID, true
}

func (s *Server) handleSetMemberCanAdd(w http.ResponseWriter, r *http.Request) {
	familyID, ok := s.ownedFamily(w, r)
	if !ok {
		return
	}

	var req canAddRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	memberID := r.PathValue("userID")
	if err := s.repo.SetMemberCanAdd(r.Context(), familyID, memberID, req.CanAdd); err != nil {
		respondStoreError(w, r, err, "set member permission")
		return
	}
	respondJSON(w, http.StatusOK, familyMemberResponse{UserID: memberID, CanAdd: req.CanAdd})
}

func (s *Server) handleRemoveFamilyMember(w http.ResponseWriter, r *http.Request) {
	if !requireConfirmation(w, r) {
		return
	}

	familyID, ok := s.ownedFamily(w, r)
	if !ok {
		return
	}

	memberID := r.PathValue("userID")
	if err := s.repo.RemoveFamilyMember(r.Context(), familyID, memberID); err != nil {
		respondStoreError(w, r, err, "remove family member")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
