package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/menu"
	"storefront/catnav/internal/service"
)

type stubCatalog struct {
	tree *domain.Category
	err  error
}

func (s *stubCatalog) GetCategoryTree(ctx context.Context, rootID domain.CategoryID) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tree, nil
}

func node(id domain.CategoryID, name string, children ...*domain.Category) *domain.Category {
	return &domain.Category{ID: id, Name: name, Children: children}
}

func newTestRouter(t *testing.T, catalog *stubCatalog) http.Handler {
	t.Helper()
	if catalog.tree == nil {
		catalog.tree = node(7, "root",
			node(1, "Store",
				node(10, "Phones", node(55, "Android"), node(56, "iOS")),
				node(11, "Laptops"),
			),
			node(2, "RFQ"),
			node(3, "Buy Group"),
			node(4, "Factories", node(40, "Secret factory")),
		)
	}
	svc := service.NewService(nil, catalog, nil, nil, service.Options{
		Roots: map[domain.MenuRoot]domain.CategoryID{domain.MenuRootPrimary: 7},
		Icons: menu.NewIconSet(nil, nil, "ph.svg"),
		Gated: map[string]string{"Factories": "factories:view"},
	})
	return NewRouter(svc, 5*time.Second)
}

func do(t *testing.T, h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Authorization", "Bearer test-token")
	for k, v := range header {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func entryNames(entries []domain.MenuEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestHealthNeedsNoToken(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, &stubCatalog{})

	rec := do(t, h, http.MethodGet, "/healthz", "", map[string]string{"Authorization": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMenuRequiresToken(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, &stubCatalog{})

	rec := do(t, h, http.MethodGet, "/menu/primary", "", map[string]string{"Authorization": ""})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/menu/primary", "", map[string]string{"Authorization": "Bearer "})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMenuDirectionAndGating(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, &stubCatalog{})

	rec := do(t, h, http.MethodGet, "/menu/primary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res service.MenuResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, domain.DirectionLTR, res.Direction)
	require.Equal(t, []string{"Store", "RFQ", "Buy Group"}, entryNames(res.Entries))
	require.Contains(t, rec.Header().Values("Vary"), "Accept-Language")

	rec = do(t, h, http.MethodGet, "/menu/primary", "", map[string]string{
		"Accept-Language": "ar-EG,ar;q=0.9,en;q=0.5",
		PermissionsHeader: "orders:view, factories:view",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var rtl service.MenuResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rtl))
	require.Equal(t, domain.DirectionRTL, rtl.Direction)
	require.Equal(t, []string{"Store", "Buy Group", "Factories", "RFQ"}, entryNames(rtl.Entries))

	rec = do(t, h, http.MethodGet, "/menu/primary?dir=ltr", "", map[string]string{"Accept-Language": "he"})
	var forced service.MenuResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forced))
	require.Equal(t, domain.DirectionLTR, forced.Direction)
}

func TestMenuErrors(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &stubCatalog{})
	rec := do(t, h, http.MethodGet, "/menu/seasonal", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/menu/trending", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code, "trending root is not configured")

	failing := newTestRouter(t, &stubCatalog{tree: node(7, "root"), err: errors.New("catalog down")})
	rec = do(t, failing, http.MethodGet, "/menu/primary", "", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "catalog down")
}

func TestChildren(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, &stubCatalog{})

	rec := do(t, h, http.MethodGet, "/menu/primary/children/10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body service.ChildrenResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "1,10", body.Path)
	require.Equal(t, []string{"Android", "iOS"}, entryNames(body.Entries))
	require.Equal(t, "ph.svg", body.Entries[0].Icon)

	rec = do(t, h, http.MethodGet, "/menu/primary/children/999", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/menu/primary/children/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/menu/primary/children/4", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/menu/primary/children/4", "", map[string]string{PermissionsHeader: "factories:view"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBreadcrumb(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, &stubCatalog{})

	rec := do(t, h, http.MethodGet, "/menu/primary/path?ids=1,10,55", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Entries []domain.MenuEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"Store", "Phones", "Android"}, entryNames(body.Entries))

	rec = do(t, h, http.MethodGet, "/menu/primary/path?ids=1,11,55", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/menu/primary/path?ids=1,x", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/menu/primary/path", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/menu/primary/path?ids=4,40", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/menu/primary/path?ids=4,40", "", map[string]string{PermissionsHeader: "factories:view"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, &stubCatalog{})

	rec := do(t, h, http.MethodPost, "/sessions", `{"root":"primary","locale":"fa-IR"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var view service.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	require.Equal(t, domain.DirectionRTL, view.Direction)
	require.Equal(t, "collapsed", view.State)
	require.Equal(t, []string{"Store", "Buy Group", "RFQ"}, entryNames(view.Top))

	events := "/sessions/" + view.ID + "/events"

	rec = do(t, h, http.MethodPost, events, `{"type":"hover","level":1,"index":0}`, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, events, `{"type":"click","level":0,"index":0}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, events, `{"type":"hover","level":1,"index":5}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, events, `{"type":"click","level":1,"index":0}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, events, `{"type":"click","level":2,"index":0,"parent_index":0}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "1,10,55", view.Selection.CategoryIDs)
	require.Equal(t, domain.CategoryID(55), view.Selection.CategoryID)
	require.Equal(t, "Store", view.Selection.SubCategoryParentName)
	require.Equal(t, "Phones", view.Selection.SubSubCategoryParentName)

	rec = do(t, h, http.MethodPost, events, `{"type":"wiggle"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, events, `not json`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, events, `{"type":"outside_click"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/sessions/"+view.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var collapsed service.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &collapsed))
	require.Equal(t, "collapsed", collapsed.State)
	require.Zero(t, collapsed.Selection.CategoryID)
	require.Equal(t, "1,10,55", collapsed.Selection.CategoryIDs)

	rec = do(t, h, http.MethodDelete, "/sessions/"+view.ID, "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/sessions/"+view.ID, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSessionDirectionField(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, &stubCatalog{})

	rec := do(t, h, http.MethodPost, "/sessions", `{"root":"primary","direction":"RTL"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var view service.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, domain.DirectionRTL, view.Direction)
}

func TestCreateSessionUnknownRoot(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t, &stubCatalog{})

	rec := do(t, h, http.MethodPost, "/sessions", `{"root":"seasonal"}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
