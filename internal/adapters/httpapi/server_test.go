package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tripleclub/travel-group-api/internal/adapters/memory"
	memclock "github.com/tripleclub/travel-group-api/internal/adapters/memory/clock"
	"github.com/tripleclub/travel-group-api/internal/app/groups"
	"github.com/tripleclub/travel-group-api/internal/app/joins"
	"github.com/tripleclub/travel-group-api/internal/app/travels"
	"github.com/tripleclub/travel-group-api/internal/app/users"
	"github.com/tripleclub/travel-group-api/internal/domain"
)

type harness struct {
	handler http.Handler
	store   *memory.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.New()
	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())

	srv := NewServer(
		groups.NewService(store.Groups(), store.Memberships(), store.Users(), clk),
		joins.NewService(store.Groups(), store.JoinApplies(), store.Memberships(), store.Users(), clk),
		travels.NewService(store.Itineraries(), store.Groups(), store.Memberships(), store.Users(), clk),
		users.NewService(store.Users()),
	)
	return &harness{
		handler: NewRouter(srv, zap.NewNop()),
		store:   store,
	}
}

func (h *harness) seedUser(t *testing.T, nickname string) domain.UserID {
	t.Helper()
	id, err := h.store.Users().Create(context.Background(), domain.User{Nickname: nickname, Email: nickname + "@example.com"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func (h *harness) do(t *testing.T, method, path string, userID domain.UserID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != 0 {
		req.Header.Set("X-User-Id", fmt.Sprintf("%d", userID))
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"requestId"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	if resp.Error.RequestID == "" {
		t.Fatalf("error envelope missing requestId: %s", rec.Body.String())
	}
	return resp.Error.Code
}

func groupBody(name string) map[string]any {
	return map[string]any{
		"groupKind":    "PUBLIC",
		"name":         name,
		"description":  "a trip to plan together",
		"thumbNailUrl": "https://img.example.com/1.png",
		"memberLimit":  5,
	}
}

func TestRouter_RequiresIdentity(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/groups", 0, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "UNAUTHORIZED" {
		t.Fatalf("code=%s", code)
	}

	// Health stays open.
	rec = h.do(t, http.MethodGet, "/healthz", 0, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rec.Code)
	}
}

func TestRouter_CreateAndBrowseGroups(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	owner := h.seedUser(t, "alice")

	rec := h.do(t, http.MethodPost, "/groups", owner, groupBody("seoul weekend"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		GroupID int64 `json:"groupId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.GroupID == 0 {
		t.Fatalf("created=%+v err=%v", created, err)
	}

	rec = h.do(t, http.MethodGet, "/groups?size=10", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("browse status=%d", rec.Code)
	}
	var page struct {
		Items []struct {
			GroupID      int64  `json:"groupId"`
			GroupKind    string `json:"groupKind"`
			ThumbNailURL string `json:"thumbNailUrl"`
		} `json:"items"`
		NextCursor *int64 `json:"nextCursor"`
		HasNext    bool   `json:"hasNext"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 1 || page.HasNext || page.NextCursor != nil {
		t.Fatalf("page=%+v, want single item and no next page", page)
	}
	if page.Items[0].ThumbNailURL != "https://img.example.com/1.png" {
		t.Fatalf("thumbNailUrl=%q", page.Items[0].ThumbNailURL)
	}

	// The last page carries a null cursor; a full page carries the last id.
	for i := 0; i < 3; i++ {
		h.do(t, http.MethodPost, "/groups", owner, groupBody("more"))
	}
	rec = h.do(t, http.MethodGet, "/groups?size=2", owner, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 2 || !page.HasNext || page.NextCursor == nil || *page.NextCursor != page.Items[1].GroupID {
		t.Fatalf("page=%+v, want hasNext with cursor", page)
	}
}

func TestRouter_JoinApplyLifecycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	owner := h.seedUser(t, "alice")
	applicant := h.seedUser(t, "bob")

	rec := h.do(t, http.MethodPost, "/groups", owner, groupBody("trip"))
	var created struct {
		GroupID int64 `json:"groupId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	base := fmt.Sprintf("/groups/%d/join-applies", created.GroupID)

	if rec := h.do(t, http.MethodPost, base, applicant, nil); rec.Code != http.StatusCreated {
		t.Fatalf("apply status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = h.do(t, http.MethodPost, base, applicant, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second apply status=%d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "ALREADY_APPLY_JOIN_REQUEST" {
		t.Fatalf("code=%s", code)
	}

	// Only the owner sees the pending list.
	rec = h.do(t, http.MethodGet, base, applicant, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("list as applicant status=%d", rec.Code)
	}
	rec = h.do(t, http.MethodGet, base, owner, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"nickname":"bob"`) {
		t.Fatalf("pending list status=%d body=%s", rec.Code, rec.Body.String())
	}

	approve := fmt.Sprintf("%s/%d/approve", base, applicant)
	if rec := h.do(t, http.MethodPost, approve, owner, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("approve status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, fmt.Sprintf("/groups/%d", created.GroupID), applicant, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status=%d", rec.Code)
	}
	var detail struct {
		CurrentMemberCount int `json:"currentMemberCount"`
		Members            []struct {
			Nickname string `json:"nickname"`
			Owner    bool   `json:"owner"`
		} `json:"members"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.CurrentMemberCount != 2 || len(detail.Members) != 2 {
		t.Fatalf("detail=%+v, want two members", detail)
	}
}

func TestRouter_UpdateDeleteAuthz(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	owner := h.seedUser(t, "alice")
	other := h.seedUser(t, "bob")

	rec := h.do(t, http.MethodPost, "/groups", owner, groupBody("trip"))
	var created struct {
		GroupID int64 `json:"groupId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	path := fmt.Sprintf("/groups/%d", created.GroupID)

	rec = h.do(t, http.MethodPatch, path, other, groupBody("hijacked"))
	if rec.Code != http.StatusForbidden || decodeErrorCode(t, rec) != "NOT_GROUP_OWNER" {
		t.Fatalf("patch as other: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodPatch, path, owner, groupBody("renamed"))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"renamed"`) {
		t.Fatalf("patch status=%d body=%s", rec.Code, rec.Body.String())
	}

	if rec := h.do(t, http.MethodDelete, path, owner, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rec.Code)
	}
	rec = h.do(t, http.MethodDelete, path, owner, nil)
	if rec.Code != http.StatusNotFound || decodeErrorCode(t, rec) != "GROUP_NOT_FOUND" {
		t.Fatalf("second delete status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_TravelsAndMe(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	owner := h.seedUser(t, "alice")

	rec := h.do(t, http.MethodPost, "/groups", owner, groupBody("trip"))
	var created struct {
		GroupID int64 `json:"groupId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}

	rec = h.do(t, http.MethodPost, "/travels", owner, map[string]any{
		"groupId":     created.GroupID,
		"title":       "jeju island",
		"startAt":     "2026-03-01T09:00:00Z",
		"endAt":       "2026-03-05T18:00:00Z",
		"description": "spring trip",
		"memberLimit": 4,
	})
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), "travelId") {
		t.Fatalf("save travel status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.do(t, http.MethodGet, "/users/me", owner, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"nickname":"alice"`) {
		t.Fatalf("me status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMaskID(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":     "*",
		"ab":   "*",
		"abc":  "a*c",
		"1234": "1**4",
	}
	for in, want := range cases {
		if got := maskID(in); got != want {
			t.Fatalf("maskID(%q)=%q, want %q", in, got, want)
		}
	}
}
