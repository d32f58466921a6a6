package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/portfelo/ledger-backend/internal/api/request"
	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/repository"
	"github.com/portfelo/ledger-backend/internal/service"
	"github.com/portfelo/ledger-backend/internal/testutil"
)

func setupInstrumentHandler(t *testing.T) (*InstrumentHandler, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := service.NewInstrumentService(repository.NewInstrumentRepository(db))
	return NewInstrumentHandler(svc), db
}

func customInstrumentRequest() request.CreateCustomInstrumentRequest {
	return request.CreateCustomInstrumentRequest{
		ClientRequestID: testutil.MakeID(),
		Name:            "Apartment",
		Currency:        "PLN",
		Kind:            "REAL_ESTATE",
		AnnualRatePct:   "3",
	}
}

func TestInstrumentHandler_CreateCustomInstrument(t *testing.T) {
	t.Run("creates a custom instrument and returns 201", func(t *testing.T) {
		handler, _ := setupInstrumentHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/instrument/custom",
			jsonBody(t, customInstrumentRequest()))
		w := serveAs(handler.CreateCustomInstrument, req, testutil.TestUserID)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var custom model.CustomInstrument
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&custom)
		if custom.ID == "" {
			t.Error("Expected id to be populated")
		}
		if custom.UserID != testutil.TestUserID {
			t.Errorf("Expected owner %s, got %s", testutil.TestUserID, custom.UserID)
		}
	})

	t.Run("re-submitting the same request returns the existing instrument", func(t *testing.T) {
		handler, _ := setupInstrumentHandler(t)
		body := customInstrumentRequest()

		first := serveAs(handler.CreateCustomInstrument,
			httptest.NewRequest(http.MethodPost, "/api/instrument/custom", jsonBody(t, body)), testutil.TestUserID)
		second := serveAs(handler.CreateCustomInstrument,
			httptest.NewRequest(http.MethodPost, "/api/instrument/custom", jsonBody(t, body)), testutil.TestUserID)

		var a, b model.CustomInstrument
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(first.Body).Decode(&a)
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(second.Body).Decode(&b)

		if a.ID == "" || a.ID != b.ID {
			t.Errorf("Expected both submissions to return the same id, got %q and %q", a.ID, b.ID)
		}
	})

	t.Run("returns 400 for an unknown kind", func(t *testing.T) {
		handler, _ := setupInstrumentHandler(t)
		body := customInstrumentRequest()
		body.Kind = "SPACESHIP"

		req := httptest.NewRequest(http.MethodPost, "/api/instrument/custom", jsonBody(t, body))
		w := serveAs(handler.CreateCustomInstrument, req, testutil.TestUserID)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 400 for malformed body", func(t *testing.T) {
		handler, _ := setupInstrumentHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/instrument/custom", bytes.NewBufferString("{not json"))
		w := serveAs(handler.CreateCustomInstrument, req, testutil.TestUserID)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestInstrumentHandler_GetInstrument(t *testing.T) {
	t.Run("returns the instrument", func(t *testing.T) {
		handler, db := setupInstrumentHandler(t)
		instrument := testutil.NewInstrument().Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/instrument/"+instrument.ID,
			map[string]string{"uuid": instrument.ID})
		w := serveAs(handler.GetInstrument, req, testutil.TestUserID)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var got model.Instrument
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&got)
		if got.ID != instrument.ID {
			t.Errorf("Expected id %s, got %s", instrument.ID, got.ID)
		}
	})

	t.Run("returns 404 for an unknown instrument", func(t *testing.T) {
		handler, _ := setupInstrumentHandler(t)

		id := testutil.MakeID()
		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/instrument/"+id,
			map[string]string{"uuid": id})
		w := serveAs(handler.GetInstrument, req, testutil.TestUserID)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestInstrumentHandler_ProjectCustomValue(t *testing.T) {
	t.Run("projects the value at the annual rate", func(t *testing.T) {
		handler, db := setupInstrumentHandler(t)
		custom := testutil.NewCustomInstrument().Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodGet,
			"/api/instrument/custom/"+custom.ID+"/projection?base=100&acquired=2024-01-01&asOf=2025-01-01",
			map[string]string{"uuid": custom.ID})
		w := serveAs(handler.ProjectCustomValue, req, testutil.TestUserID)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var projection service.CustomInstrumentProjection
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&projection)

		got, err := decimal.NewFromString(projection.Value)
		if err != nil {
			t.Fatalf("Expected a decimal value, got %q: %v", projection.Value, err)
		}
		if got.Sub(decimal.NewFromInt(103)).Abs().GreaterThan(decimal.NewFromFloat(0.1)) {
			t.Errorf("Expected a value near 103, got %s", projection.Value)
		}
	})

	t.Run("returns 400 for a malformed acquired date", func(t *testing.T) {
		handler, db := setupInstrumentHandler(t)
		custom := testutil.NewCustomInstrument().Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodGet,
			"/api/instrument/custom/"+custom.ID+"/projection?base=100&acquired=yesterday",
			map[string]string{"uuid": custom.ID})
		w := serveAs(handler.ProjectCustomValue, req, testutil.TestUserID)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}
