package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	meta := MetadataFor(CodeInsufficientStock)
	if meta.HTTPStatus != http.StatusConflict {
		t.Fatalf("unexpected status: %d", meta.HTTPStatus)
	}
	if !meta.DetailsAllowed {
		t.Fatal("expected stock errors to allow details")
	}

	fallback := MetadataFor(Code("UNKNOWN"))
	if fallback.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes should map to internal, got %d", fallback.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "reserve call failed")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code: %s", err.Code())
	}
}

func TestAsUnwrapsThroughFmt(t *testing.T) {
	inner := New(CodeInvalidRelease, "nothing reserved")
	wrapped := fmt.Errorf("saga step: %w", inner)

	typed := As(wrapped)
	if typed == nil || typed.Code() != CodeInvalidRelease {
		t.Fatalf("expected typed error, got %v", typed)
	}
	if !IsCode(wrapped, CodeInvalidRelease) {
		t.Fatal("IsCode should match through wrapping")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeInsufficientStock, "requested 1, only 0 available").
		WithDetails(map[string]int{"requested": 1, "available": 0})
	details, ok := err.Details().(map[string]int)
	if !ok || details["requested"] != 1 {
		t.Fatalf("unexpected details: %v", err.Details())
	}
}
