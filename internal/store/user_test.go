package store

import (
	"path/filepath"
	"testing"
	"time"

	"bitwise74/account-api/model"
	"bitwise74/account-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(model.User{}, model.Item{}))

	return db
}

func testStores(t *testing.T) (*UserStore, *ItemStore, *security.ArgonHash) {
	t.Helper()

	db := testDB(t)
	argon := security.NewArgon()

	return NewUserStore(db, argon), NewItemStore(db), argon
}

func TestCreate(t *testing.T) {
	users, _, argon := testStores(t)

	user, err := users.Create("user@example.com", "password123", time.Hour)
	require.NoError(t, err)

	assert.Len(t, user.ID, 16)
	assert.Equal(t, "user@example.com", user.Email)
	assert.False(t, user.IsActive)
	assert.Empty(t, user.OTPSecret)
	require.NotNil(t, user.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *user.ExpiresAt, time.Minute)

	ok, err := argon.VerifyPasswd("password123", user.HashedPassword)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateDuplicateEmail(t *testing.T) {
	users, _, _ := testStores(t)

	_, err := users.Create("user@example.com", "password123", time.Hour)
	require.NoError(t, err)

	_, err = users.Create("user@example.com", "different456", time.Hour)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestFindNotFound(t *testing.T) {
	users, _, _ := testStores(t)

	_, err := users.FindByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = users.FindByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivate(t *testing.T) {
	users, _, _ := testStores(t)

	user, err := users.Create("user@example.com", "password123", time.Hour)
	require.NoError(t, err)

	require.NoError(t, users.Activate(user.ID, "JBSWY3DPEHPK3PXP"))

	got, err := users.FindByID(user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", got.OTPSecret)
	assert.Nil(t, got.ExpiresAt)

	assert.ErrorIs(t, users.Activate("missing", "x"), ErrNotFound)
}

func TestUpdateSparse(t *testing.T) {
	users, _, argon := testStores(t)

	user, err := users.Create("user@example.com", "password123", time.Hour)
	require.NoError(t, err)

	name := "Jane Doe"
	require.NoError(t, users.Update(user.ID, UserPatch{FullName: &name}))

	got, err := users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.FullName)
	// Untouched fields survive the patch
	assert.Equal(t, "user@example.com", got.Email)
	assert.Equal(t, user.HashedPassword, got.HashedPassword)

	email := "new@example.com"
	require.NoError(t, users.Update(user.ID, UserPatch{Email: &email}))

	got, err = users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, "Jane Doe", got.FullName)

	password := "newpassword456"
	require.NoError(t, users.Update(user.ID, UserPatch{Password: &password}))

	got, err = users.FindByID(user.ID)
	require.NoError(t, err)
	ok, err := argon.VerifyPasswd("newpassword456", got.HashedPassword)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateEmailConflict(t *testing.T) {
	users, _, _ := testStores(t)

	_, err := users.Create("taken@example.com", "password123", time.Hour)
	require.NoError(t, err)

	user, err := users.Create("user@example.com", "password123", time.Hour)
	require.NoError(t, err)

	taken := "taken@example.com"
	err = users.Update(user.ID, UserPatch{Email: &taken})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	// The record must be left untouched on conflict
	got, err := users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", got.Email)

	// Keeping your own email is not a conflict
	own := "user@example.com"
	assert.NoError(t, users.Update(user.ID, UserPatch{Email: &own}))
}

func TestDeleteCascades(t *testing.T) {
	users, items, _ := testStores(t)

	user, err := users.Create("user@example.com", "password123", time.Hour)
	require.NoError(t, err)

	other, err := users.Create("other@example.com", "password123", time.Hour)
	require.NoError(t, err)

	_, err = items.Create(user.ID, "first", "")
	require.NoError(t, err)
	_, err = items.Create(user.ID, "second", "")
	require.NoError(t, err)
	_, err = items.Create(other.ID, "keep", "")
	require.NoError(t, err)

	require.NoError(t, users.Delete(user.ID))

	_, err = users.FindByID(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := items.CountByOwner(user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Other users' records survive
	count, err = items.CountByOwner(other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestList(t *testing.T) {
	users, _, _ := testStores(t)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := users.Create(email, "password123", time.Hour)
		require.NoError(t, err)
	}

	page, count, err := users.List(0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Len(t, page, 2)

	page, count, err = users.List(2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Len(t, page, 1)
}

func TestOTPFailureLockout(t *testing.T) {
	users, _, _ := testStores(t)

	user, err := users.Create("user@example.com", "password123", time.Hour)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		locked, err := users.RecordOTPFailure(user.ID, 5, 15*time.Minute)
		require.NoError(t, err)
		assert.False(t, locked)
	}

	locked, err := users.RecordOTPFailure(user.ID, 5, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, locked)

	got, err := users.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LockoutUntil)
	assert.True(t, got.LockoutUntil.After(time.Now()))

	require.NoError(t, users.ResetOTPFailures(user.ID))

	got, err = users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedOTPAttempts)
	assert.Nil(t, got.LockoutUntil)
}

func TestItemOwnership(t *testing.T) {
	users, items, _ := testStores(t)

	owner, err := users.Create("owner@example.com", "password123", time.Hour)
	require.NoError(t, err)

	intruder, err := users.Create("intruder@example.com", "password123", time.Hour)
	require.NoError(t, err)

	item, err := items.Create(owner.ID, "mine", "")
	require.NoError(t, err)

	assert.ErrorIs(t, items.Delete(intruder.ID, item.ID), ErrNotFound)
	assert.NoError(t, items.Delete(owner.ID, item.ID))
}
