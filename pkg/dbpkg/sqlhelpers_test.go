package dbpkg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestConstraintViolation(t *testing.T) {
	t.Parallel()

	pqErr := &pq.Error{Code: "23505", Constraint: "transactions_batch_id_type_key"}

	constraint, class, ok := ConstraintViolation(fmt.Errorf("insert: %w", pqErr))
	if !ok {
		t.Fatalf("ConstraintViolation(%v) ok = false, want true", pqErr)
	}

	if constraint != "transactions_batch_id_type_key" {
		t.Errorf("constraint = %q, want %q", constraint, "transactions_batch_id_type_key")
	}

	if class != "unique_violation" {
		t.Errorf("class = %q, want %q", class, "unique_violation")
	}

	if _, _, ok := ConstraintViolation(errors.New("boom")); ok {
		t.Error("ConstraintViolation(non pq error) ok = true, want false")
	}
}
