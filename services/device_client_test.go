package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/solywsh/smserver-sub000/config"
	"github.com/solywsh/smserver-sub000/models"
	"github.com/solywsh/smserver-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

func newTestClient() *DeviceClient {
	return &DeviceClient{
		Config:     &config.Config{DeviceTimeoutSeconds: 5},
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// newFakeAgent 启动一个模拟设备代理：解密请求、校验信封、按handler返回加密响应
func newFakeAgent(t *testing.T, handler func(t *testing.T, path string, data json.RawMessage) responseEnvelope) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		plaintext, err := utils.DecryptPayload(testSecretKey, string(body))
		require.NoError(t, err, "代理应能用预共享密钥解开请求")

		var envelope requestEnvelope
		require.NoError(t, json.Unmarshal(plaintext, &envelope))
		assert.Equal(t, "", envelope.Sign)
		assert.Greater(t, envelope.Timestamp, int64(0))

		data, err := json.Marshal(envelope.Data)
		require.NoError(t, err)

		respEnvelope := handler(t, r.URL.Path, data)
		respEnvelope.Timestamp = time.Now().UnixMilli()

		respBody, err := json.Marshal(respEnvelope)
		require.NoError(t, err)
		ciphertext, err := utils.EncryptPayload(testSecretKey, respBody)
		require.NoError(t, err)

		_, _ = w.Write([]byte(ciphertext))
	}))
}

func TestDeviceClientQueryMessagesRoundTrip(t *testing.T) {
	agent := newFakeAgent(t, func(t *testing.T, path string, data json.RawMessage) responseEnvelope {
		assert.Equal(t, EndpointSmsQuery, path)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &payload))
		assert.EqualValues(t, 1, payload["type"])
		assert.EqualValues(t, 1, payload["page_num"])
		assert.EqualValues(t, 50, payload["page_size"])

		items, _ := json.Marshal([]MessageItem{
			{Number: "+1555", Content: "hi", Type: models.MessageTypeReceived, Date: 1700000000000},
		})
		return responseEnvelope{Code: 200, Msg: "ok", Data: items}
	})
	defer agent.Close()

	device := &models.Device{AgentURL: agent.URL, SecretKey: testSecretKey}
	items, err := newTestClient().QueryMessages(device, models.MessageTypeReceived, 1, 50)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "+1555", items[0].Number)
	assert.Equal(t, "hi", items[0].Content)
	assert.Equal(t, int64(1700000000000), items[0].Date)
}

func TestDeviceClientSurfacesRemoteError(t *testing.T) {
	agent := newFakeAgent(t, func(t *testing.T, path string, data json.RawMessage) responseEnvelope {
		return responseEnvelope{Code: 500, Msg: "sms query disabled"}
	})
	defer agent.Close()

	device := &models.Device{AgentURL: agent.URL, SecretKey: testSecretKey}
	_, err := newTestClient().QueryMessages(device, models.MessageTypeReceived, 1, 50)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 500, remoteErr.Code)
	assert.Equal(t, "sms query disabled", remoteErr.Msg)
}

func TestDeviceClientRejectsWrongKeyResponse(t *testing.T) {
	// 代理用另一把密钥加密响应，解密必须失败
	otherKey := "ffffffffffffffffffffffffffffffff"
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respBody, _ := json.Marshal(responseEnvelope{Code: 200, Msg: "ok"})
		ciphertext, err := utils.EncryptPayload(otherKey, respBody)
		require.NoError(t, err)
		_, _ = w.Write([]byte(ciphertext))
	}))
	defer agent.Close()

	device := &models.Device{AgentURL: agent.URL, SecretKey: testSecretKey}
	_, err := newTestClient().QueryConfig(device)
	require.Error(t, err)
}

func TestDeviceClientReportsHTTPErrorWhenBodyUndecryptable(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream proxy error"))
	}))
	defer agent.Close()

	device := &models.Device{AgentURL: agent.URL, SecretKey: testSecretKey}
	_, err := newTestClient().QueryConfig(device)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDeviceClientDecryptsBusinessErrorOnNon2xx(t *testing.T) {
	// 部分代理实现业务失败时返回非2xx，但响应体仍是合法的加密信封
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respBody, _ := json.Marshal(responseEnvelope{Code: 500, Msg: "battery query disabled"})
		ciphertext, err := utils.EncryptPayload(testSecretKey, respBody)
		require.NoError(t, err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(ciphertext))
	}))
	defer agent.Close()

	device := &models.Device{AgentURL: agent.URL, SecretKey: testSecretKey}
	_, err := newTestClient().QueryBattery(device)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "battery query disabled", remoteErr.Msg)
}

func TestDeviceClientTrimsTrailingSlashInAgentURL(t *testing.T) {
	agent := newFakeAgent(t, func(t *testing.T, path string, data json.RawMessage) responseEnvelope {
		assert.Equal(t, EndpointConfigQuery, path)
		cfg, _ := json.Marshal(AgentConfig{EnableApiBatteryQuery: true, ExtraDeviceMark: "pixel"})
		return responseEnvelope{Code: 200, Msg: "ok", Data: cfg}
	})
	defer agent.Close()

	device := &models.Device{AgentURL: agent.URL + "/", SecretKey: testSecretKey}
	cfg, err := newTestClient().QueryConfig(device)
	require.NoError(t, err)

	assert.True(t, cfg.EnableApiBatteryQuery)
	assert.Equal(t, "pixel", cfg.ExtraDeviceMark)
}
