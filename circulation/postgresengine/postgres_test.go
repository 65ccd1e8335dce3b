package postgresengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
	"github.com/mohamedzaid0/Library-project-sql/circulation/postgresengine"
)

func Test_NewStores_Fails_WithNilConnection(t *testing.T) {
	// act
	_, errPGX := postgresengine.NewStoresFromPGXPool(nil)
	_, errReplica := postgresengine.NewStoresFromPGXPoolWithReplica(nil, nil)
	_, errSQL := postgresengine.NewStoresFromSQLDB(nil)
	_, errSQLX := postgresengine.NewStoresFromSQLX(nil)

	// assert
	assert.ErrorIs(t, errPGX, circulation.ErrNilDatabaseConnection)
	assert.ErrorIs(t, errReplica, circulation.ErrNilDatabaseConnection)
	assert.ErrorIs(t, errSQL, circulation.ErrNilDatabaseConnection)
	assert.ErrorIs(t, errSQLX, circulation.ErrNilDatabaseConnection)
}

func Test_WithTableNames_Fails_WithEmptyTableName(t *testing.T) {
	// arrange
	tables := postgresengine.DefaultTableNames()
	tables.ReturnLedger = ""

	// act
	err := postgresengine.WithTableNames(tables)(&postgresengine.Stores{})

	// assert
	assert.ErrorIs(t, err, postgresengine.ErrEmptyTableName)
}

func Test_DefaultTableNames_AreComplete(t *testing.T) {
	// act
	err := postgresengine.WithTableNames(postgresengine.DefaultTableNames())(&postgresengine.Stores{})

	// assert
	assert.NoError(t, err)
}
