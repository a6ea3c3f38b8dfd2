package utils

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintexts := []string{
		"",
		"hi",
		`{"data":{"type":1},"timestamp":1700000000000,"sign":""}`,
		strings.Repeat("块", 100), // 多分组、多字节字符
		strings.Repeat("a", 16),  // 恰好一个分组，验证整组填充
	}

	for _, pt := range plaintexts {
		ciphertext, err := EncryptPayload(testKey, []byte(pt))
		require.NoError(t, err)

		// 密文应为合法十六进制且为分组整数倍
		raw, err := hex.DecodeString(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, 0, len(raw)%16)

		decrypted, err := DecryptPayload(testKey, ciphertext)
		require.NoError(t, err)
		assert.Equal(t, pt, string(decrypted))
	}
}

func TestEncryptDeterministic(t *testing.T) {
	// 固定IV意味着相同输入必然产生相同密文，这是与设备代理的互通前提
	c1, err := EncryptPayload(testKey, []byte("same input"))
	require.NoError(t, err)
	c2, err := EncryptPayload(testKey, []byte("same input"))
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestInvalidKeyRejected(t *testing.T) {
	badKeys := []string{
		"",
		"0123456789abcdef",                  // 8字节
		testKey + "00",                      // 17字节
		"zz23456789abcdef0123456789abcdef",  // 非十六进制
		testKey + testKey,                   // 32字节，本系统只允许AES-128
	}

	for _, key := range badKeys {
		_, err := EncryptPayload(key, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)

		_, err = DecryptPayload(key, "00112233445566778899aabbccddeeff")
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestInvalidCiphertextRejected(t *testing.T) {
	// 非十六进制
	_, err := DecryptPayload(testKey, "not-hex!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	// 11字节，不是分组整数倍
	_, err = DecryptPayload(testKey, hex.EncodeToString(make([]byte, 11)))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	// 空密文
	_, err = DecryptPayload(testKey, "")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestInvalidPaddingRejected(t *testing.T) {
	// 用错误的密钥解密合法密文，填充校验大概率失败
	ciphertext, err := EncryptPayload(testKey, []byte("plaintext"))
	require.NoError(t, err)

	otherKey := "ffffffffffffffffffffffffffffffff"
	if _, err := DecryptPayload(otherKey, ciphertext); err != nil {
		assert.ErrorIs(t, err, ErrInvalidPadding)
	}

	// 构造填充字节为0的分组
	block := make([]byte, 16)
	enc, err := EncryptPayload(testKey, block)
	require.NoError(t, err)
	raw, _ := hex.DecodeString(enc)
	// 只保留首个分组：解密后末字节为0，应判定填充非法
	_, err = DecryptPayload(testKey, hex.EncodeToString(raw[:16]))
	assert.ErrorIs(t, err, ErrInvalidPadding)
}
