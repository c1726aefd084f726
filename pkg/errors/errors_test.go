package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("row missing")
	err := Wrap(CodeNotFound, cause, "transaction lookup")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", err.Code())
	}
}

func TestAsThroughFmtWrap(t *testing.T) {
	inner := New(CodeConflict, "dependencies present").WithDetails(map[string]int{"bookings": 2})
	outer := fmt.Errorf("delete transaction: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error through fmt wrap")
	}
	if typed.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if typed.Details() == nil {
		t.Fatal("expected details to survive")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestNegativeBalanceMetadata(t *testing.T) {
	meta := MetadataFor(CodeNegativeBalance)
	if meta.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", meta.HTTPStatus)
	}
	if !meta.DetailsAllowed {
		t.Fatal("negative balance blocks must surface the package in details")
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeValidation, "bad strategy"))
	if !IsCode(err, CodeValidation) {
		t.Fatal("expected IsCode to match through wrapping")
	}
	if IsCode(err, CodeConflict) {
		t.Fatal("expected IsCode mismatch for different code")
	}
	if IsCode(nil, CodeValidation) {
		t.Fatal("nil error should never match")
	}
}
