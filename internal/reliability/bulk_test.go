package reliability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/mcpcore/internal/reliability"
)

func TestBulkRecovery_AllSuccess(t *testing.T) {
	result := reliability.BulkRecovery(context.Background(), 5, func(ctx context.Context, i int) error {
		return nil
	})
	assert.Equal(t, reliability.AllSuccess, result.Outcome)
	assert.Empty(t, result.Failures())
}

func TestBulkRecovery_PartialSuccess(t *testing.T) {
	result := reliability.BulkRecovery(context.Background(), 4, func(ctx context.Context, i int) error {
		if i%2 == 0 {
			return errors.New("even index failed")
		}
		return nil
	})
	assert.Equal(t, reliability.PartialSuccess, result.Outcome)
	assert.Len(t, result.Failures(), 2)
}

func TestBulkRecovery_AllFailed(t *testing.T) {
	result := reliability.BulkRecovery(context.Background(), 3, func(ctx context.Context, i int) error {
		return errors.New("always fails")
	})
	assert.Equal(t, reliability.AllFailed, result.Outcome)
	assert.Len(t, result.Failures(), 3)
}

func TestBulkRecovery_ZeroItems(t *testing.T) {
	result := reliability.BulkRecovery(context.Background(), 0, func(ctx context.Context, i int) error {
		t.Fatal("fn should never run for zero items")
		return nil
	})
	assert.Equal(t, reliability.AllSuccess, result.Outcome)
}
