package services

import (
	"testing"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/solywsh/smserver-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdminHashesPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db, &config.Config{})

	admin := models.Admin{Username: "admin", Password: "plain-secret"}
	require.NoError(t, svc.CreateAdmin(&admin))

	stored, err := svc.GetAdminByUsername("admin")
	require.NoError(t, err)

	// BeforeSave钩子落库前完成哈希，明文不落库
	assert.NotEqual(t, "plain-secret", stored.Password)
	assert.True(t, utils.CheckPasswordHash("plain-secret", stored.Password))
}

func TestCreateAdminRejectsDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db, &config.Config{})

	require.NoError(t, svc.CreateAdmin(&models.Admin{Username: "admin", Password: "secret"}))
	assert.Error(t, svc.CreateAdmin(&models.Admin{Username: "admin", Password: "other"}))
}

func TestUpdateAdminRehashesPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db, &config.Config{})

	admin := models.Admin{Username: "admin", Password: "old-secret"}
	require.NoError(t, svc.CreateAdmin(&admin))

	_, err := svc.UpdateAdmin(admin.ID, map[string]interface{}{"password": "new-secret"})
	require.NoError(t, err)

	verified, err := svc.VerifyPassword("admin", "new-secret")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, verified.ID)

	_, err = svc.VerifyPassword("admin", "old-secret")
	assert.Error(t, err)
}

func TestVerifyPasswordRejectsWrongCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdminService(db, &config.Config{})

	require.NoError(t, svc.CreateAdmin(&models.Admin{Username: "admin", Password: "secret"}))

	_, err := svc.VerifyPassword("admin", "wrong")
	assert.Error(t, err)
	_, err = svc.VerifyPassword("nobody", "secret")
	assert.Error(t, err)
}
