package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tripleclub/travel-group-api/internal/app/groups"
	"github.com/tripleclub/travel-group-api/internal/app/joins"
	"github.com/tripleclub/travel-group-api/internal/app/travels"
	"github.com/tripleclub/travel-group-api/internal/app/users"
	"github.com/tripleclub/travel-group-api/internal/domain"
)

// Server holds the application services the handlers delegate to.
type Server struct {
	groups  *groups.Service
	joins   *joins.Service
	travels *travels.Service
	users   *users.Service
}

func NewServer(groupsSvc *groups.Service, joinsSvc *joins.Service, travelsSvc *travels.Service, usersSvc *users.Service) *Server {
	return &Server{
		groups:  groupsSvc,
		joins:   joinsSvc,
		travels: travelsSvc,
		users:   usersSvc,
	}
}

// Wire DTOs. Field names follow the public API contract, thumbNailUrl
// included.

type groupRequest struct {
	GroupKind    string `json:"groupKind"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ThumbNailURL string `json:"thumbNailUrl"`
	MemberLimit  int    `json:"memberLimit"`
}

type groupResponse struct {
	GroupID            int64  `json:"groupId"`
	GroupKind          string `json:"groupKind"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	ThumbNailURL       string `json:"thumbNailUrl"`
	MemberLimit        int    `json:"memberLimit"`
	CurrentMemberCount int    `json:"currentMemberCount"`
}

type groupPageResponse struct {
	Items      []groupResponse `json:"items"`
	NextCursor *int64          `json:"nextCursor"`
	HasNext    bool            `json:"hasNext"`
}

type memberResponse struct {
	UserID   int64  `json:"userId"`
	Nickname string `json:"nickname"`
	Owner    bool   `json:"owner"`
}

type groupDetailResponse struct {
	groupResponse
	Members []memberResponse `json:"members"`
}

type applicationResponse struct {
	UserID    int64     `json:"userId"`
	Nickname  string    `json:"nickname"`
	AppliedAt time.Time `json:"appliedAt"`
}

type travelRequest struct {
	GroupID      int64     `json:"groupId"`
	Title        string    `json:"title"`
	StartAt      time.Time `json:"startAt"`
	EndAt        time.Time `json:"endAt"`
	Description  string    `json:"description"`
	ThumbNailURL string    `json:"thumbNailUrl"`
	MemberLimit  int       `json:"memberLimit"`
}

type userResponse struct {
	UserID      int64      `json:"userId"`
	Nickname    string     `json:"nickname"`
	Email       string     `json:"email"`
	Gender      *string    `json:"gender,omitempty"`
	Birth       *time.Time `json:"birth,omitempty"`
	Description *string    `json:"description,omitempty"`
	ProfileURL  *string    `json:"profileUrl,omitempty"`
}

func toGroupResponse(g domain.Group) groupResponse {
	return groupResponse{
		GroupID:            int64(g.ID),
		GroupKind:          string(g.Kind),
		Name:               g.Name,
		Description:        g.Description,
		ThumbNailURL:       g.ThumbnailURL,
		MemberLimit:        g.MemberLimit,
		CurrentMemberCount: g.CurrentMemberCount,
	}
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity", nil)
		return
	}
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}

	id, err := s.groups.Create(r.Context(), groupInput(req), userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"groupId": int64(id)})
}

func (s *Server) handleBrowseGroups(w http.ResponseWriter, r *http.Request) {
	cursor, _ := strconv.ParseInt(r.URL.Query().Get("cursor"), 10, 64)
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	page, err := s.groups.BrowsePublicGroups(r.Context(), domain.GroupID(cursor), size)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := groupPageResponse{
		Items:   make([]groupResponse, 0, len(page.Items)),
		HasNext: page.HasNext,
	}
	for _, g := range page.Items {
		resp.Items = append(resp.Items, toGroupResponse(g))
	}
	if page.HasNext {
		c := int64(page.NextCursor)
		resp.NextCursor = &c
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGroupDetail(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := s.identityAndGroup(w, r)
	if !ok {
		return
	}

	d, err := s.groups.Detail(r.Context(), groupID, userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := groupDetailResponse{
		groupResponse: toGroupResponse(d.Group),
		Members:       make([]memberResponse, 0, len(d.Members)),
	}
	for _, m := range d.Members {
		resp.Members = append(resp.Members, memberResponse{
			UserID:   int64(m.UserID),
			Nickname: m.Nickname,
			Owner:    m.Owner,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := s.identityAndGroup(w, r)
	if !ok {
		return
	}
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}

	g, err := s.groups.Update(r.Context(), groupInput(req), groupID, userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(g))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := s.identityAndGroup(w, r)
	if !ok {
		return
	}
	if err := s.groups.Delete(r.Context(), groupID, userID); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := s.identityAndGroup(w, r)
	if !ok {
		return
	}
	if err := s.groups.Leave(r.Context(), groupID, userID); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApplyJoin(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := s.identityAndGroup(w, r)
	if !ok {
		return
	}
	if err := s.joins.Apply(r.Context(), groupID, userID); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleCancelJoin(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := s.identityAndGroup(w, r)
	if !ok {
		return
	}
	if err := s.joins.Cancel(r.Context(), groupID, userID); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := s.identityAndGroup(w, r)
	if !ok {
		return
	}

	apps, err := s.joins.ListPending(r.Context(), groupID, userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	resp := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		resp = append(resp, applicationResponse{
			UserID:    int64(a.UserID),
			Nickname:  a.Nickname,
			AppliedAt: a.AppliedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": resp})
}

func (s *Server) handleApproveJoin(w http.ResponseWriter, r *http.Request) {
	ownerID, groupID, ok := s.identityAndGroup(w, r)
	if !ok {
		return
	}
	applicantID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	if err := s.joins.Approve(r.Context(), groupID, applicantID, ownerID); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRejectJoin(w http.ResponseWriter, r *http.Request) {
	ownerID, groupID, ok := s.identityAndGroup(w, r)
	if !ok {
		return
	}
	applicantID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	if err := s.joins.Reject(r.Context(), groupID, applicantID, ownerID); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveTravel(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity", nil)
		return
	}
	var req travelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}

	id, err := s.travels.SaveItinerary(r.Context(), travels.SaveItineraryInput{
		GroupID:      domain.GroupID(req.GroupID),
		Title:        req.Title,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		Description:  req.Description,
		ThumbnailURL: req.ThumbNailURL,
		MemberLimit:  req.MemberLimit,
	}, userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"travelId": int64(id)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity", nil)
		return
	}

	u, err := s.users.Info(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := userResponse{
		UserID:      int64(u.ID),
		Nickname:    u.Nickname,
		Email:       u.Email,
		Birth:       u.Birth,
		Description: u.Description,
		ProfileURL:  u.ProfileURL,
	}
	if u.Gender != nil {
		g := string(*u.Gender)
		resp.Gender = &g
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) identityAndGroup(w http.ResponseWriter, r *http.Request) (domain.UserID, domain.GroupID, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity", nil)
		return 0, 0, false
	}
	raw := chi.URLParam(r, "groupId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed group id", nil)
		return 0, 0, false
	}
	return userID, domain.GroupID(id), true
}

func pathUserID(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	raw := chi.URLParam(r, "userId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed user id", nil)
		return 0, false
	}
	return domain.UserID(id), true
}

func groupInput(req groupRequest) groups.GroupInput {
	return groups.GroupInput{
		Kind:         domain.GroupKind(req.GroupKind),
		Name:         req.Name,
		Description:  req.Description,
		ThumbnailURL: req.ThumbNailURL,
		MemberLimit:  req.MemberLimit,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
