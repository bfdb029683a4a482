package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/nutripipe/pkg/adapter"
	"github.com/leapstack-labs/nutripipe/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=testdb sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode and options",
			config: adapter.Config{
				Host:     "prod.example.com",
				Database: "proddb",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require", "connect_timeout": "5", "application_name": "nutripipe"},
			},
			expected: "host=prod.example.com port=5432 dbname=proddb sslmode=require user=admin application_name=nutripipe connect_timeout=5",
		},
		{
			name: "defaults",
			config: adapter.Config{
				Database: "mydb",
			},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
		{
			name: "quoted values",
			config: adapter.Config{
				Host:     "db.example.com",
				Port:     5433,
				Database: "food data",
				Password: `it's a \secret`,
			},
			expected: `host=db.example.com port=5433 dbname='food data' sslmode=disable password='it\'s a \\secret'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestNew(t *testing.T) {
	adp := New(nil)

	assert.NotNil(t, adp)
	assert.Nil(t, adp.DB, "DB should be nil before Connect")
	assert.False(t, adp.IsConnected())
	assert.Equal(t, "postgres", adp.DialectName())
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	err := adp.Exec(ctx, "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not established")

	err = adp.WriteTable(ctx, "foods", table.MustNew())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not established")
}

func TestAdapter_WriteTable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	adp := New(nil)
	adp.DB = db
	adp.Cfg = adapter.Config{Schema: "nutrition"}
	defer func() { _ = adp.Close() }()

	in := table.MustNew(
		table.NewColumn("description", table.KindString, []any{"Apple"}),
		table.NewColumn("Protein_G", table.KindFloat, []any{0.3}),
	)

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS "nutrition"."foods"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "nutrition"."foods" ("description" TEXT, "Protein_G" DOUBLE PRECISION)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(`INSERT INTO "nutrition"."foods" ("description", "Protein_G") VALUES ($1, $2)`).
		ExpectExec().WithArgs("Apple", 0.3).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	require.NoError(t, adp.WriteTable(context.Background(), "foods", in))
	require.NoError(t, adp.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ConnectInvalidSettings(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), adapter.Config{
		Database: "db",
		Options:  map[string]string{"connect_timeout": "not-a-number"},
	})
	require.Error(t, err)
	assert.False(t, adp.IsConnected())
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("postgres"))

	reg, ok := adapter.Lookup("postgres")
	require.True(t, ok)
	assert.False(t, reg.FileBased)

	pg, ok := reg.Factory(nil).(*Adapter)
	require.True(t, ok, "factory should return *Adapter")
	assert.Equal(t, "postgres", pg.DialectName())
}

func TestAdapter_Close(t *testing.T) {
	adp := New(nil)
	assert.NoError(t, adp.Close())
}
