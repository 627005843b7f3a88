package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanline-ai/shieldrev/internal/model"
	"github.com/scanline-ai/shieldrev/internal/review"
)

func testShield(id string) model.Shield {
	return model.Shield{
		ID:         id,
		Type:       model.ShieldLogo,
		BBox:       model.BBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.1},
		PageTarget: model.AllPages(),
		ZoneTarget: model.EveryZone(),
	}
}

func TestResolve(t *testing.T) {
	var gotPath string
	var gotBody resolveRequestJSON

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(resolveResponseJSON{
			ResolvedShields: []model.Shield{testShield("resolved-1")},
			PrecedenceExplanations: []model.PrecedenceExplanation{{
				ShieldID:      "resolved-1",
				WinningSource: model.SourceVendorRule,
			}},
			Zones: []model.Zone{{ID: "totals", Critical: true}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	res, err := c.Resolve(context.Background(), review.ResolveRequest{
		CaseID:           "case-9",
		VendorID:         "v1",
		SessionOverrides: []model.Shield{testShield("local")},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/cases/case-9/resolve", gotPath)
	assert.Equal(t, "v1", gotBody.VendorID)
	require.Len(t, gotBody.SessionOverrides, 1)
	assert.Equal(t, "local", gotBody.SessionOverrides[0].ID)

	require.Len(t, res.Shields, 1)
	assert.Equal(t, "resolved-1", res.Shields[0].ID)
	require.Len(t, res.Explanations, 1)
	assert.Equal(t, model.SourceVendorRule, res.Explanations[0].WinningSource)
	require.Len(t, res.Zones, 1)
	assert.True(t, res.Zones[0].Critical)
}

func TestResolveSendsEmptyOverridesArray(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		json.NewEncoder(w).Encode(resolveResponseJSON{})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	_, err := c.Resolve(context.Background(), review.ResolveRequest{CaseID: "c"})
	require.NoError(t, err)

	overrides, ok := raw["sessionOverrides"]
	require.True(t, ok)
	assert.Equal(t, "[]", string(overrides))
}

func TestSaveVendorRules(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody rulesRequestJSON
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	err := c.SaveVendorRules(context.Background(), "acme", []model.Shield{testShield("s1")})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/vendors/acme/shield-rules", gotPath)
	require.Len(t, gotBody.Rules, 1)
	assert.Empty(t, gotBody.VendorID)
}

func TestSaveTemplateRulesCarriesVendorID(t *testing.T) {
	var gotBody rulesRequestJSON
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	err := c.SaveTemplateRules(context.Background(), "tmpl-7", "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, "acme", gotBody.VendorID)
}

func TestSnapshotAndRerunSequence(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	err := c.SnapshotAndRerun(context.Background(), "case-1", []model.Shield{testShield("s1")})
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, "PUT /api/cases/case-1/shield-snapshot", calls[0])
	assert.Equal(t, "POST /api/cases/case-1/rerun-extraction", calls[1])
}

func TestSnapshotFailureSkipsRerun(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"snapshot store full"}`, http.StatusInsufficientStorage)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	err := c.SnapshotAndRerun(context.Background(), "case-1", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "snapshot store full")
}

func TestServerErrorMessageSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"rules backend timed out"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	err := c.SaveVendorRules(context.Background(), "acme", nil)
	require.Error(t, err)
	assert.Equal(t, "rules backend timed out", err.Error())
}

func TestServerErrorWithoutBodyFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil)
	err := c.SaveVendorRules(context.Background(), "acme", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
