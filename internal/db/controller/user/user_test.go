package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/dbtest"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

func strPtr(s string) *string { return &s }

func seedInstitution(t *testing.T, db *gorm.DB, code string) models.Institution {
	t.Helper()

	inst := models.Institution{Code: code, Name: "Institucion " + code, Active: true}
	require.NoError(t, db.Create(&inst).Error)

	return inst
}

func TestCreate(t *testing.T) {
	db := dbtest.Open(t)
	inst := seedInstitution(t, db, "MEF")
	missing := uint64(999)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		in            models.User
		expectedError error
	}{
		{name: "nil database", dbParam: nil, in: models.User{Email: "a@example.org"}, expectedError: ErrDBNil},
		{name: "unknown institution", dbParam: db, in: models.User{Email: "b@example.org", InstitutionID: &missing}, expectedError: ErrInstitutionNotFound},
		{name: "successful create", dbParam: db, in: models.User{Email: " Ana@Example.org ", Name: "Ana", InstitutionID: &inst.ID}},
		{name: "email taken ignoring case", dbParam: db, in: models.User{Email: "ANA@example.org"}, expectedError: ErrEmailTaken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := Create(tc.dbParam, tc.in)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, u)

				return
			}

			require.NoError(t, err)
			assert.NotZero(t, u.ID)
			assert.Equal(t, "ana@example.org", u.Email)
			assert.True(t, u.Active)
		})
	}
}

func TestList(t *testing.T) {
	db := dbtest.Open(t)

	for _, email := range []string{"ana@example.org", "beto@example.org", "carla@otra.org"} {
		_, err := Create(db, models.User{Email: email, Name: email})
		require.NoError(t, err)
	}

	_, _, err := SetActive(db, 3, false)
	require.NoError(t, err)

	users, total, err := List(db, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 2)
	assert.Equal(t, "beto@example.org", users[0].Email, "newest first")

	users, total, err = List(db, ListQuery{IncludeInactive: true, Search: "OTRA"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "carla@otra.org", users[0].Email)

	users, total, err = List(db, ListQuery{IncludeInactive: true, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, users, 1)
	assert.Equal(t, "ana@example.org", users[0].Email)
}

func TestUpdate(t *testing.T) {
	db := dbtest.Open(t)
	inst := seedInstitution(t, db, "MEF")

	a, err := Create(db, models.User{Email: "a@example.org", Name: "A"})
	require.NoError(t, err)

	_, err = Create(db, models.User{Email: "b@example.org", Name: "B"})
	require.NoError(t, err)

	before, after, err := Update(db, a.ID, Changes{Name: strPtr("Ana"), InstitutionID: &inst.ID})
	require.NoError(t, err)
	assert.Equal(t, "A", before.Name)
	assert.Nil(t, before.InstitutionID)
	assert.Equal(t, "Ana", after.Name)
	require.NotNil(t, after.InstitutionID)

	_, _, err = Update(db, a.ID, Changes{Email: strPtr("B@example.org")})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, after, err = Update(db, a.ID, Changes{Email: strPtr("A@example.org"), ClearInst: true})
	require.NoError(t, err, "keeping your own email is not a conflict")
	assert.Nil(t, after.InstitutionID)

	stored, err := Get(db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", stored.Name)
	assert.Nil(t, stored.InstitutionID)

	_, _, err = Update(db, 404, Changes{})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetActive(t *testing.T) {
	db := dbtest.Open(t)

	u, err := Create(db, models.User{Email: "a@example.org"})
	require.NoError(t, err)

	_, _, err = SetActive(db, u.ID, true)
	require.ErrorIs(t, err, ErrUserUnchanged)

	before, after, err := SetActive(db, u.ID, false)
	require.NoError(t, err)
	assert.True(t, before.Active)
	assert.False(t, after.Active)

	stored, err := Get(db, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}
