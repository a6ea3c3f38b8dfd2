package utils

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
)

// 设备报文编解码错误
var (
	ErrInvalidKey        = errors.New("无效的设备密钥: 必须为32个十六进制字符(16字节)")
	ErrInvalidPadding    = errors.New("无效的填充: 解密结果不符合PKCS#7")
	ErrInvalidCiphertext = errors.New("无效的密文: 非十六进制或长度不是分组大小的整数倍")
)

// deviceIV 设备代理约定的固定初始向量。
// 代理端硬编码了同样的16字节，双方必须逐字节一致才能互通，不能改为随机IV。
var deviceIV = []byte("smserver_fixediv")

// EncryptPayload 使用 AES-128-CBC + PKCS#7 加密明文并十六进制编码。
// hexKey 为32个十六进制字符的预共享密钥。纯函数，可并发调用。
func EncryptPayload(hexKey string, plaintext []byte) (string, error) {
	key, err := decodeKey(hexKey)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrInvalidKey
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, deviceIV).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(ciphertext), nil
}

// DecryptPayload 解码十六进制密文并使用 AES-128-CBC 解密，剥除PKCS#7填充
func DecryptPayload(hexKey string, hexCiphertext string) ([]byte, error) {
	key, err := decodeKey(hexKey)
	if err != nil {
		return nil, err
	}

	ciphertext, err := hex.DecodeString(hexCiphertext)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKey
	}

	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, ErrInvalidCiphertext
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, deviceIV).CryptBlocks(padded, ciphertext)

	return pkcs7Unpad(padded, block.BlockSize())
}

// decodeKey 解析十六进制密钥，长度必须恰好为16字节
func decodeKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, ErrInvalidKey
	}
	if len(key) != 16 {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// pkcs7Pad 按PKCS#7补齐到分组大小
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

// pkcs7Unpad 校验并剥除PKCS#7填充
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPadding
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-padLen], nil
}
