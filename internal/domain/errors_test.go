package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "validation error",
			err:  NewValidationError("userId", "required", "is required"),
			want: KindValidation,
		},
		{
			name: "wrapped referential error",
			err:  fmt.Errorf("create order: %w", &ReferentialIntegrityError{Entity: "product", MissingIDs: []string{"p9"}}),
			want: KindReferentialIntegrity,
		},
		{
			name: "not found error",
			err:  &NotFoundError{Entity: "order", ID: "o1"},
			want: KindNotFound,
		},
		{
			name: "bare not found sentinel",
			err:  fmt.Errorf("lookup: %w", ErrNotFound),
			want: KindNotFound,
		},
		{
			name: "conflict error",
			err:  &ConflictError{Entity: "user", Field: "email"},
			want: KindConflict,
		},
		{
			name: "nothing to update",
			err:  ErrNothingToUpdate,
			want: KindValidation,
		},
		{
			name: "persistence error",
			err:  &PersistenceError{Op: "insert order", Err: errors.New("connection reset")},
			want: KindPersistence,
		},
		{
			name: "unclassified error",
			err:  errors.New("boom"),
			want: KindPersistence,
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFoundError_IsErrNotFound(t *testing.T) {
	err := fmt.Errorf("get: %w", &NotFoundError{Entity: "product", ID: "p1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected NotFoundError to match ErrNotFound")
	}
}

func TestReferentialIntegrityError_Message(t *testing.T) {
	err := &ReferentialIntegrityError{Entity: "product", MissingIDs: []string{"p9", "p10"}}
	if got, want := err.Error(), "product references do not exist: p9, p10"; got != want {
		t.Fatalf("unexpected message: %q, want %q", got, want)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{
		{Field: "userId", Rule: "required", Message: "is required"},
		{Field: "productIds", Rule: "min", Message: "must contain at least 1 item"},
	}}
	want := "validation failed: userId: is required; productIds: must contain at least 1 item"
	if got := err.Error(); got != want {
		t.Fatalf("unexpected message: %q, want %q", got, want)
	}
}

func TestIsIdempotencyConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "idempotency already exists", err: ErrIdempotencyKeyAlreadyExists, want: true},
		{name: "idempotency hash mismatch", err: ErrIdempotencyHashMismatch, want: true},
		{name: "wrapped idempotency conflict", err: errors.Join(ErrIdempotencyHashMismatch, errors.New("extra context")), want: true},
		{name: "non idempotency error", err: ErrNotFound, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsIdempotencyConflict(tt.err); got != tt.want {
				t.Errorf("IsIdempotencyConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}
