package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSyncRepository 内存版同步存储，软删除行保留在existence集合中
type fakeSyncRepository struct {
	messages    []models.MessageRecord
	calls       []models.CallRecord
	contacts    []models.ContactRecord
	deletedMsgs map[string]bool // 模拟软删除：记录不在messages里但自然键仍占用
	nextID      uint

	insertMessagesErr error
}

func newFakeSyncRepository() *fakeSyncRepository {
	return &fakeSyncRepository{deletedMsgs: map[string]bool{}}
}

func msgKey(deviceID uint, number string, deviceTime int64, msgType int) string {
	return fmt.Sprintf("%d|%s|%d|%d", deviceID, number, deviceTime, msgType)
}

func (r *fakeSyncRepository) MessageExists(deviceID uint, phoneNumber string, deviceTime int64, msgType int) (bool, error) {
	if r.deletedMsgs[msgKey(deviceID, phoneNumber, deviceTime, msgType)] {
		return true, nil
	}
	for _, m := range r.messages {
		if m.DeviceID == deviceID && m.PhoneNumber == phoneNumber && m.DeviceTime == deviceTime && m.Type == msgType {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSyncRepository) CallExists(deviceID uint, phoneNumber string, deviceTime int64, callType int) (bool, error) {
	for _, c := range r.calls {
		if c.DeviceID == deviceID && c.PhoneNumber == phoneNumber && c.DeviceTime == deviceTime && c.Type == callType {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSyncRepository) InsertMessages(records []models.MessageRecord) error {
	if r.insertMessagesErr != nil {
		return r.insertMessagesErr
	}
	r.messages = append(r.messages, records...)
	return nil
}

func (r *fakeSyncRepository) InsertCalls(records []models.CallRecord) error {
	r.calls = append(r.calls, records...)
	return nil
}

func (r *fakeSyncRepository) HasContacts(deviceID uint) (bool, error) {
	for _, c := range r.contacts {
		if c.DeviceID == deviceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSyncRepository) FindContactByNumber(deviceID uint, phoneNumber string) (*models.ContactRecord, error) {
	for i := range r.contacts {
		if r.contacts[i].DeviceID == deviceID && r.contacts[i].PhoneNumber == phoneNumber {
			c := r.contacts[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeSyncRepository) CreateContact(record *models.ContactRecord) error {
	r.nextID++
	record.ID = r.nextID
	r.contacts = append(r.contacts, *record)
	return nil
}

func (r *fakeSyncRepository) UpdateContactColumns(id uint, updates map[string]interface{}) error {
	for i := range r.contacts {
		if r.contacts[i].ID == id {
			if name, ok := updates["name"].(string); ok {
				r.contacts[i].Name = name
			}
			if shadow, ok := updates["is_shadow"].(bool); ok {
				r.contacts[i].IsShadow = shadow
			}
			return nil
		}
	}
	return errors.New("联系人不存在")
}

// fakeDeviceClient 预置分页数据的设备客户端替身
type fakeDeviceClient struct {
	messagePages map[int][][]MessageItem // msgType -> 页序列
	callPages    map[int][][]CallItem
	contacts     []ContactItem
	contactErr   error

	messageCalls int
}

func (c *fakeDeviceClient) Call(device *models.Device, path string, payload interface{}, out interface{}) error {
	return nil
}

func (c *fakeDeviceClient) QueryMessages(device *models.Device, msgType, pageNum, pageSize int) ([]MessageItem, error) {
	c.messageCalls++
	pages := c.messagePages[msgType]
	if pageNum > len(pages) {
		return nil, nil
	}
	return pages[pageNum-1], nil
}

func (c *fakeDeviceClient) SendMessage(device *models.Device, simSlot int, numbers []string, content string) error {
	return nil
}

func (c *fakeDeviceClient) QueryCalls(device *models.Device, callType, pageNum, pageSize int) ([]CallItem, error) {
	pages := c.callPages[callType]
	if pageNum > len(pages) {
		return nil, nil
	}
	return pages[pageNum-1], nil
}

func (c *fakeDeviceClient) QueryContacts(device *models.Device) ([]ContactItem, error) {
	if c.contactErr != nil {
		return nil, c.contactErr
	}
	return c.contacts, nil
}

func (c *fakeDeviceClient) AddContact(device *models.Device, name, phoneNumber string) error {
	return nil
}

func (c *fakeDeviceClient) QueryBattery(device *models.Device) (*BatteryInfo, error) {
	return &BatteryInfo{}, nil
}

func (c *fakeDeviceClient) QueryLocation(device *models.Device) (*LocationInfo, error) {
	return &LocationInfo{}, nil
}

func (c *fakeDeviceClient) QueryConfig(device *models.Device) (*AgentConfig, error) {
	return &AgentConfig{}, nil
}

func (c *fakeDeviceClient) SendWol(device *models.Device, mac, ip string) error { return nil }

func (c *fakeDeviceClient) PullClone(device *models.Device) (json.RawMessage, error) {
	return nil, nil
}

func (c *fakeDeviceClient) PushClone(device *models.Device, cloneData json.RawMessage) error {
	return nil
}

type silentLogger struct{}

func (silentLogger) Info(format string, v ...interface{})    {}
func (silentLogger) Warning(format string, v ...interface{}) {}
func (silentLogger) Error(format string, v ...interface{})   {}

func newTestSyncService(repo InterfaceSyncRepository, client InterfaceDeviceClient) InterfaceSyncService {
	return NewSyncService(repo, client, &config.Config{}, silentLogger{}, nil)
}

func testDevice() *models.Device {
	return &models.Device{
		ID:        1,
		Name:      "test phone",
		AgentURL:  "http://127.0.0.1:5000",
		SecretKey: "0123456789abcdef0123456789abcdef",
	}
}

func TestSyncMessagesInsertsNewRecordsAndShadowContact(t *testing.T) {
	repo := newFakeSyncRepository()
	client := &fakeDeviceClient{
		messagePages: map[int][][]MessageItem{
			models.MessageTypeReceived: {
				{{Number: "+1555", Content: "hi", Type: models.MessageTypeReceived, Date: 1700000000000}},
			},
		},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncMessages(testDevice(), models.MessageTypeReceived)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewCount)
	assert.True(t, result.Complete)
	require.Len(t, repo.messages, 1)
	assert.Equal(t, "+1555", repo.messages[0].PhoneNumber)
	assert.Equal(t, "hi", repo.messages[0].Content)
	assert.Equal(t, int64(1700000000000), repo.messages[0].DeviceTime)

	// 未知号码自动建立占位联系人，名称回退为号码
	require.Len(t, repo.contacts, 1)
	assert.Equal(t, "+1555", repo.contacts[0].PhoneNumber)
	assert.Equal(t, "+1555", repo.contacts[0].Name)
	assert.True(t, repo.contacts[0].IsShadow)
}

func TestSyncMessagesSecondRunIsIdempotent(t *testing.T) {
	repo := newFakeSyncRepository()
	client := &fakeDeviceClient{
		messagePages: map[int][][]MessageItem{
			models.MessageTypeReceived: {
				{{Number: "+1555", Content: "hi", Type: models.MessageTypeReceived, Date: 1700000000000}},
			},
		},
	}
	svc := newTestSyncService(repo, client)
	device := testDevice()

	first, err := svc.SyncMessages(device, models.MessageTypeReceived)
	require.NoError(t, err)
	require.Equal(t, 1, first.NewCount)

	second, err := svc.SyncMessages(device, models.MessageTypeReceived)
	require.NoError(t, err)

	assert.Equal(t, 0, second.NewCount)
	assert.True(t, second.Complete)
	assert.Len(t, repo.messages, 1)
	assert.Len(t, repo.contacts, 1)
}

func TestSyncMessagesDoesNotResurrectSoftDeletedRecords(t *testing.T) {
	repo := newFakeSyncRepository()
	repo.deletedMsgs[msgKey(1, "+1555", 1700000000000, models.MessageTypeReceived)] = true
	client := &fakeDeviceClient{
		messagePages: map[int][][]MessageItem{
			models.MessageTypeReceived: {
				{{Number: "+1555", Content: "hi", Type: models.MessageTypeReceived, Date: 1700000000000}},
			},
		},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncMessages(testDevice(), models.MessageTypeReceived)
	require.NoError(t, err)

	assert.Equal(t, 0, result.NewCount)
	assert.True(t, result.Complete)
	assert.Empty(t, repo.messages)
}

func TestSyncMessagesStopsOnEmptyPage(t *testing.T) {
	repo := newFakeSyncRepository()
	client := &fakeDeviceClient{
		messagePages: map[int][][]MessageItem{
			models.MessageTypeReceived: {}, // 第一页即空
		},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncMessages(testDevice(), models.MessageTypeReceived)
	require.NoError(t, err)

	assert.Equal(t, 0, result.NewCount)
	assert.True(t, result.Complete)
	// seedContacts一次联系人查询 + 一次短信查询
	assert.Equal(t, 1, client.messageCalls)
}

func TestSyncMessagesStopsOnPageWithNoNewRecords(t *testing.T) {
	repo := newFakeSyncRepository()
	repo.messages = []models.MessageRecord{
		{DeviceID: 1, PhoneNumber: "+1555", Type: models.MessageTypeReceived, DeviceTime: 1700000000000},
	}
	client := &fakeDeviceClient{
		messagePages: map[int][][]MessageItem{
			models.MessageTypeReceived: {
				{{Number: "+1555", Content: "hi", Type: models.MessageTypeReceived, Date: 1700000000000}},
				{{Number: "+1666", Content: "later", Type: models.MessageTypeReceived, Date: 1700000001000}},
			},
		},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncMessages(testDevice(), models.MessageTypeReceived)
	require.NoError(t, err)

	// 第一页全部已知即终止，第二页不再拉取
	assert.Equal(t, 0, result.NewCount)
	assert.True(t, result.Complete)
	assert.Equal(t, 1, client.messageCalls)
}

func TestSyncMessagesMaxPagesLeavesIncomplete(t *testing.T) {
	repo := newFakeSyncRepository()
	// 每页都有一条新记录，永远读不尽
	pages := make([][]MessageItem, syncMaxPages+10)
	for i := range pages {
		pages[i] = []MessageItem{{
			Number: fmt.Sprintf("+1%04d", i),
			Type:   models.MessageTypeReceived,
			Date:   int64(1700000000000 + i),
		}}
	}
	client := &fakeDeviceClient{
		messagePages: map[int][][]MessageItem{models.MessageTypeReceived: pages},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncMessages(testDevice(), models.MessageTypeReceived)
	require.NoError(t, err)

	assert.Equal(t, syncMaxPages, result.NewCount)
	assert.False(t, result.Complete)
	assert.Equal(t, syncMaxPages, client.messageCalls)
}

func TestSyncMessagesAllRunsIndependentPassesPerType(t *testing.T) {
	repo := newFakeSyncRepository()
	client := &fakeDeviceClient{
		messagePages: map[int][][]MessageItem{
			models.MessageTypeReceived: {
				{{Number: "+1555", Content: "in", Type: models.MessageTypeReceived, Date: 1700000000000}},
			},
			models.MessageTypeSent: {
				{{Number: "+1666", Content: "out", Type: models.MessageTypeSent, Date: 1700000002000}},
			},
		},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncMessages(testDevice(), models.MessageTypeAll)
	require.NoError(t, err)

	assert.Equal(t, 2, result.NewCount)
	assert.True(t, result.Complete)
	assert.Len(t, repo.messages, 2)
}

func TestSyncMessagesBatchInsertFailureSkipsPage(t *testing.T) {
	repo := newFakeSyncRepository()
	repo.insertMessagesErr = errors.New("db unavailable")
	client := &fakeDeviceClient{
		messagePages: map[int][][]MessageItem{
			models.MessageTypeReceived: {
				{{Number: "+1555", Content: "hi", Type: models.MessageTypeReceived, Date: 1700000000000}},
			},
		},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncMessages(testDevice(), models.MessageTypeReceived)
	require.NoError(t, err)

	// 页被丢弃但同步不报错，下次同步会重新发现这些记录
	assert.Equal(t, 0, result.NewCount)
	assert.Empty(t, repo.messages)
}

func TestSyncCallsAllRunsThreePasses(t *testing.T) {
	repo := newFakeSyncRepository()
	client := &fakeDeviceClient{
		callPages: map[int][][]CallItem{
			models.CallTypeIncoming: {
				{{Number: "+1555", Type: models.CallTypeIncoming, Duration: 30, Date: 1700000000000}},
			},
			models.CallTypeOutgoing: {
				{{Number: "+1666", Type: models.CallTypeOutgoing, Duration: 12, Date: 1700000001000}},
			},
			models.CallTypeMissed: {
				{{Number: "+1777", Type: models.CallTypeMissed, Date: 1700000002000}},
			},
		},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncCalls(testDevice(), models.CallTypeAll)
	require.NoError(t, err)

	assert.Equal(t, 3, result.NewCount)
	assert.True(t, result.Complete)
	assert.Len(t, repo.calls, 3)
	// 三个号码各建立一条占位联系人
	assert.Len(t, repo.contacts, 3)
}

func TestSyncContactsPromotesShadowContact(t *testing.T) {
	repo := newFakeSyncRepository()
	require.NoError(t, repo.CreateContact(&models.ContactRecord{
		DeviceID:    1,
		PhoneNumber: "+1555",
		Name:        "+1555",
		IsShadow:    true,
	}))

	client := &fakeDeviceClient{
		contacts: []ContactItem{{Number: "+1555", Name: "Alice"}},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncContacts(testDevice())
	require.NoError(t, err)

	assert.Equal(t, 0, result.NewCount)
	assert.Equal(t, 1, result.UpdatedCount)
	assert.True(t, result.Complete)
	// 原地提升，不产生重复行
	require.Len(t, repo.contacts, 1)
	assert.Equal(t, "Alice", repo.contacts[0].Name)
	assert.False(t, repo.contacts[0].IsShadow)
}

func TestSyncContactsUnknownNameFallsBackToNumber(t *testing.T) {
	repo := newFakeSyncRepository()
	client := &fakeDeviceClient{
		contacts: []ContactItem{
			{Number: "+1555", Name: "未知"},
			{Number: "+1666", Name: "null"},
			{Number: "+1777", Name: "Bob"},
		},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncContacts(testDevice())
	require.NoError(t, err)

	assert.Equal(t, 3, result.NewCount)
	byNumber := map[string]string{}
	for _, c := range repo.contacts {
		byNumber[c.PhoneNumber] = c.Name
	}
	assert.Equal(t, "+1555", byNumber["+1555"])
	assert.Equal(t, "+1666", byNumber["+1666"])
	assert.Equal(t, "Bob", byNumber["+1777"])
}

func TestSyncContactsSkipsEmptyNumbers(t *testing.T) {
	repo := newFakeSyncRepository()
	client := &fakeDeviceClient{
		contacts: []ContactItem{{Number: "", Name: "ghost"}},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncContacts(testDevice())
	require.NoError(t, err)

	assert.Equal(t, 0, result.NewCount)
	assert.Empty(t, repo.contacts)
}

func TestSyncMessagesSeedsContactsOnFirstRun(t *testing.T) {
	repo := newFakeSyncRepository()
	client := &fakeDeviceClient{
		contacts: []ContactItem{{Number: "+1555", Name: "Alice"}},
		messagePages: map[int][][]MessageItem{
			models.MessageTypeReceived: {
				{{Number: "+1555", Name: "Alice", Content: "hi", Type: models.MessageTypeReceived, Date: 1700000000000}},
			},
		},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncMessages(testDevice(), models.MessageTypeReceived)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NewCount)
	// 首次同步前已做联系人种子同步，落库的是真实联系人而非占位
	require.Len(t, repo.contacts, 1)
	assert.Equal(t, "Alice", repo.contacts[0].Name)
	assert.False(t, repo.contacts[0].IsShadow)
}

func TestSyncMessagesSeedFailureDoesNotBlockSync(t *testing.T) {
	repo := newFakeSyncRepository()
	client := &fakeDeviceClient{
		contactErr: errors.New("agent busy"),
		messagePages: map[int][][]MessageItem{
			models.MessageTypeReceived: {
				{{Number: "+1555", Content: "hi", Type: models.MessageTypeReceived, Date: 1700000000000}},
			},
		},
	}
	svc := newTestSyncService(repo, client)

	result, err := svc.SyncMessages(testDevice(), models.MessageTypeReceived)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewCount)
}

func TestContactDisplayName(t *testing.T) {
	assert.Equal(t, "Alice", contactDisplayName("+1555", "Alice"))
	assert.Equal(t, "+1555", contactDisplayName("+1555", ""))
	assert.Equal(t, "+1555", contactDisplayName("+1555", "unknown"))
	assert.Equal(t, "+1555", contactDisplayName("+1555", "Unknown"))
	assert.Equal(t, "+1555", contactDisplayName("+1555", "未知号码"))
}

func TestSyncResultMerge(t *testing.T) {
	r := models.SyncResult{NewCount: 2, Complete: true}
	r.Merge(models.SyncResult{NewCount: 3, UpdatedCount: 1, Complete: false})

	assert.Equal(t, 5, r.NewCount)
	assert.Equal(t, 1, r.UpdatedCount)
	assert.False(t, r.Complete)
}
