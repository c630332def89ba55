package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestRecord_InsertsEntry(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)

	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	svc.Record(context.Background(), Entry{
		AccountID: uuid.New(),
		Action:    ActionClaimFiled,
		Entity:    "lead_claim",
		EntityID:  uuid.NewString(),
		Metadata:  map[string]interface{}{"call_count": 3, "channels": []string{"phone", "whatsapp"}},
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLogs_Paginates(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db)
	accountID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE account_id = .* AND action = `).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE .* ORDER BY created_at DESC LIMIT .* OFFSET`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "action", "entity", "entity_id", "created_at"}).
			AddRow(uuid.NewString(), accountID.String(), ActionLeadAccessed, "lead", uuid.NewString(), time.Now()))

	resp, err := svc.GetLogs(context.Background(), AuditFilter{
		AccountID: &accountID,
		Action:    ActionLeadAccessed,
		Page:      2,
		PageSize:  2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.TotalCount)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Len(t, resp.Logs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
