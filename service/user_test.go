package service

import (
	"testing"

	"campusbridge/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	t.Setenv("ACCESS_SECRET", "test-secret")
	svc := &UserService{DB: newTestDB(t)}

	require.NoError(t, svc.Register("Kim", "kim@example.com", "secret", model.RoleStudent))

	// the same live email cannot register twice
	err := svc.Register("Kim2", "kim@example.com", "other", model.RoleStudent)
	require.Error(t, err)

	token, err := svc.Login("kim@example.com", "secret", model.RoleStudent)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.Login("kim@example.com", "wrong", model.RoleStudent)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// logging in under the wrong role fails even with the right password
	_, err = svc.Login("kim@example.com", "secret", model.RoleCompany)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "secret", model.RoleStudent)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetUserByIDIncludesAuthorizationStatus(t *testing.T) {
	db := newTestDB(t)
	svc := &UserService{DB: db}
	student := seedUser(t, db, "student", model.RoleStudent)
	student.IsAuthorized = false
	require.NoError(t, db.Save(student).Error)

	resp, err := svc.GetUserByID(student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AuthorizationNone, resp.StudentAuthorizationStatus)

	require.NoError(t, svc.RequestStudentAuthorization(student.ID, "서울대학교", "컴퓨터공학", []byte("proof")))

	resp, err = svc.GetUserByID(student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AuthorizationPending, resp.StudentAuthorizationStatus)
	assert.Equal(t, "서울대학교", resp.University)
	assert.Equal(t, "컴퓨터공학", resp.Major)

	_, err = svc.GetUserByID(9999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestStudentAuthorizationReview(t *testing.T) {
	db := newTestDB(t)
	svc := &UserService{DB: db}
	student := seedUser(t, db, "student", model.RoleStudent)
	student.IsAuthorized = false
	require.NoError(t, db.Save(student).Error)

	require.NoError(t, svc.RequestStudentAuthorization(student.ID, "고려대학교", "경영학", nil))

	// a second request while one is pending is rejected
	err := svc.RequestStudentAuthorization(student.ID, "고려대학교", "경영학", nil)
	require.Error(t, err)

	require.NoError(t, svc.ReviewStudentAuthorization(student.ID, true))

	var refreshed model.User
	require.NoError(t, db.First(&refreshed, student.ID).Error)
	assert.True(t, refreshed.IsAuthorized)

	// nothing pending anymore
	err = svc.ReviewStudentAuthorization(student.ID, true)
	require.Error(t, err)
}

func TestCompanyCannotRequestAuthorization(t *testing.T) {
	db := newTestDB(t)
	svc := &UserService{DB: db}
	company := seedUser(t, db, "acme", model.RoleCompany)

	err := svc.RequestStudentAuthorization(company.ID, "서울대학교", "컴퓨터공학", nil)
	require.Error(t, err)
}
