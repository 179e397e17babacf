package behavior

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStoreSaveProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	snap := Snapshot{SessionID: "s", Profile: ProfileAnalytic, ClassifiedAt: time.Now()}

	mock.ExpectExec("UPDATE patients").
		WithArgs("analytic", pgxmock.AnyArg(), "patient-1", "clinic-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SaveProfile(context.Background(), "clinic-1", "patient-1", snap))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSaveProfileMissingPatient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE patients").
		WithArgs("hesitant", pgxmock.AnyArg(), "ghost", "clinic-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = NewPostgresStore(mock).SaveProfile(context.Background(), "clinic-1", "ghost", Snapshot{Profile: ProfileHesitant})
	assert.ErrorIs(t, err, ErrPatientNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
