package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/srejanashetty/efarm-backend/pkg/errors"
	"github.com/srejanashetty/efarm-backend/pkg/logger"
	"github.com/srejanashetty/efarm-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCreated(w, "Order placed", map[string]string{"orderNumber": "EF1"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", w.Code)
	}
	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Message != "Order placed" {
		t.Fatalf("unexpected envelope %+v", body)
	}
	if body.Data.(map[string]any)["orderNumber"] != "EF1" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorBusinessRuleCarriesReason(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.BusinessRule(pkgerrors.ReasonInsufficientStock, "Insufficient stock for Tomatoes")
	WriteError(context.Background(), logger.Nop(), w, err)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Code != string(pkgerrors.CodeBusinessRule) {
		t.Fatalf("unexpected envelope %+v", body)
	}
	if body.Message != "Insufficient stock for Tomatoes" {
		t.Fatalf("unexpected message %q", body.Message)
	}
	details, ok := body.Details.(map[string]any)
	if !ok || details["reason"] != string(pkgerrors.ReasonInsufficientStock) {
		t.Fatalf("expected reason in details, got %v", body.Details)
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("pq: connection refused"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", w.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message == "pq: connection refused" || body.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("internal error leaked: %+v", body)
	}
}
