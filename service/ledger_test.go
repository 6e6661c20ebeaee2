package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEnsureGrantsOnce(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	require.NoError(t, l.Ensure(ctx, "u1", "Alice", 100))
	bal, err := l.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)

	// 重复 Ensure 不会再次发放初始额度
	require.NoError(t, l.Ensure(ctx, "u1", "Alice", 100))
	bal, err = l.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)
}

func TestLedgerDebitInsufficient(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.Ensure(ctx, "u1", "", 100))

	ok, err := l.Debit(ctx, "u1", 150)
	require.NoError(t, err)
	assert.False(t, ok)

	// 扣费失败不动余额
	bal, _ := l.Balance(ctx, "u1")
	assert.Equal(t, int64(100), bal)

	ok, err = l.Debit(ctx, "u1", 100)
	require.NoError(t, err)
	assert.True(t, ok)
	bal, _ = l.Balance(ctx, "u1")
	assert.Equal(t, int64(0), bal)
}

func TestLedgerCreditAndTopup(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.Ensure(ctx, "u1", "", 100))
	require.NoError(t, l.Credit(ctx, "u1", 500))

	bal, err := l.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(600), bal)

	assert.Error(t, l.Credit(ctx, "ghost", 500))
	_, err = l.Balance(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

// 并发扣费下余额不能透支：100 点、20 个并发扣 10 点，恰好 10 次成功。
func TestLedgerConcurrentDebit(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	require.NoError(t, l.Ensure(ctx, "u1", "", 100))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Debit(ctx, "u1", 10)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	bal, _ := l.Balance(ctx, "u1")
	assert.Equal(t, int64(0), bal)
}
