package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/metrics"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
	"github.com/mythrivebuddy/thrive_server/internal/testutil"
)

func newTestLedger(db *gorm.DB) *LedgerService {
	return NewLedgerService(
		db,
		repository.NewUserRepository(db),
		repository.NewActivityRepository(db),
		repository.NewTransactionRepository(db),
	)
}

// assertLedgerConsistent 校验余额不变式
func assertLedgerConsistent(t *testing.T, db *gorm.DB, userID int64) *model.User {
	t.Helper()

	user := testutil.ReloadUser(t, db, userID)
	assert.Equal(t, user.JPEarned-user.JPSpent, user.JPBalance, "balance must equal earned - spent")
	assert.GreaterOrEqual(t, user.JPBalance, int64(0))
	return user
}

func int64Ptr(v int64) *int64 {
	return &v
}

// ledgerOpCount 读取账本操作计数器的当前值
func ledgerOpCount(t *testing.T, direction, result string) float64 {
	t.Helper()

	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "thrive_ledger_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["direction"] == direction && labels["result"] == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
