package services

import (
	"testing"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCalls(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&[]models.CallRecord{
		{DeviceID: 1, PhoneNumber: "+1555", Type: models.CallTypeIncoming, Duration: 30, DeviceTime: 1700000001000},
		{DeviceID: 1, PhoneNumber: "+1666", Type: models.CallTypeMissed, DeviceTime: 1700000002000},
		{DeviceID: 2, PhoneNumber: "+1777", Type: models.CallTypeOutgoing, Duration: 90, DeviceTime: 1700000003000},
	}).Error)
}

func TestGetCallRecordsWithoutDeviceFilterReturnsAllDevices(t *testing.T) {
	db := newTestDB(t)
	seedCalls(t, db)
	svc := NewCallRecordService(db, &config.Config{})

	records, total, err := svc.GetCallRecords(0, models.CallTypeAll, "", 1, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(3), total)
	require.Len(t, records, 3)
	assert.Equal(t, int64(1700000003000), records[0].DeviceTime)
}

func TestGetCallRecordsFiltersByDeviceAndType(t *testing.T) {
	db := newTestDB(t)
	seedCalls(t, db)
	svc := NewCallRecordService(db, &config.Config{})

	records, total, err := svc.GetCallRecords(1, models.CallTypeAll, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, records, 2)

	records, total, err = svc.GetCallRecords(0, models.CallTypeMissed, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, "+1666", records[0].PhoneNumber)
}

func TestSoftDeletedCallHiddenFromListButBlocksResync(t *testing.T) {
	db := newTestDB(t)
	seedCalls(t, db)
	svc := NewCallRecordService(db, &config.Config{})
	repo := NewSyncRepository(db)

	require.NoError(t, svc.SoftDeleteCallRecord(2))

	_, total, err := svc.GetCallRecords(0, models.CallTypeAll, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	exists, err := repo.CallExists(1, "+1666", 1700000002000, models.CallTypeMissed)
	require.NoError(t, err)
	assert.True(t, exists)
}
