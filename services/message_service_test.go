package services

import (
	"path/filepath"
	"testing"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 打开一个测试专用的SQLite库并迁移全部模型
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "smserver_test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Admin{},
		&models.Device{},
		&models.MessageRecord{},
		&models.CallRecord{},
		&models.ContactRecord{},
	))
	return db
}

func seedMessages(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&[]models.MessageRecord{
		{DeviceID: 1, PhoneNumber: "+1555", Content: "hello there", Type: models.MessageTypeReceived, DeviceTime: 1700000001000},
		{DeviceID: 1, PhoneNumber: "+1666", Content: "reply", Type: models.MessageTypeSent, DeviceTime: 1700000002000},
		{DeviceID: 2, PhoneNumber: "+1777", Content: "other phone", Type: models.MessageTypeReceived, DeviceTime: 1700000003000},
	}).Error)
}

func TestGetMessagesWithoutDeviceFilterReturnsAllDevices(t *testing.T) {
	db := newTestDB(t)
	seedMessages(t, db)
	svc := NewMessageService(db, &config.Config{}, nil)

	// device_id为0表示不限设备
	records, total, err := svc.GetMessages(0, models.MessageTypeAll, "", 1, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(3), total)
	require.Len(t, records, 3)
	// 按设备时间倒序
	assert.Equal(t, int64(1700000003000), records[0].DeviceTime)
}

func TestGetMessagesFiltersByDevice(t *testing.T) {
	db := newTestDB(t)
	seedMessages(t, db)
	svc := NewMessageService(db, &config.Config{}, nil)

	records, total, err := svc.GetMessages(2, models.MessageTypeAll, "", 1, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, "+1777", records[0].PhoneNumber)
}

func TestGetMessagesFiltersByTypeAndKeyword(t *testing.T) {
	db := newTestDB(t)
	seedMessages(t, db)
	svc := NewMessageService(db, &config.Config{}, nil)

	records, total, err := svc.GetMessages(0, models.MessageTypeReceived, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, records, 2)

	records, total, err = svc.GetMessages(0, models.MessageTypeAll, "hello", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, "+1555", records[0].PhoneNumber)
}

func TestSoftDeletedMessageHiddenFromListButBlocksResync(t *testing.T) {
	db := newTestDB(t)
	seedMessages(t, db)
	svc := NewMessageService(db, &config.Config{}, nil)
	repo := NewSyncRepository(db)

	require.NoError(t, svc.SoftDeleteMessage(1))

	// 列表不再返回
	_, total, err := svc.GetMessages(0, models.MessageTypeAll, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// 但同步去重仍视其为已存在，不会复活
	exists, err := repo.MessageExists(1, "+1555", 1700000001000, models.MessageTypeReceived)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMarkReadUnknownMessage(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, &config.Config{}, nil)

	assert.Error(t, svc.MarkRead(99))
}
