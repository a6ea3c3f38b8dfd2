package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/solywsh/smserver-sub000/config"
)

// 电量/定位查询结果的缓存有效期。
// 前端面板会高频轮询这些接口，短缓存可以避免反复打扰手机。
const deviceQueryCacheTTL = time.Minute

// InterfaceRedisService 定义Redis缓存服务接口
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	CacheBattery(deviceID uint, info *BatteryInfo) error
	GetCachedBattery(deviceID uint) (*BatteryInfo, error)
	CacheLocation(deviceID uint, info *LocationInfo) error
	GetCachedLocation(deviceID uint) (*LocationInfo, error)
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	return &RedisService{
		Client: client,
		Ctx:    context.Background(),
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// CacheBattery 缓存设备电量查询结果
func (s *RedisService) CacheBattery(deviceID uint, info *BatteryInfo) error {
	return s.Set(fmt.Sprintf("device_battery:%d", deviceID), info, deviceQueryCacheTTL)
}

// GetCachedBattery 读取缓存的电量信息，未命中时返回redis.Nil错误
func (s *RedisService) GetCachedBattery(deviceID uint) (*BatteryInfo, error) {
	var info BatteryInfo
	if err := s.Get(fmt.Sprintf("device_battery:%d", deviceID), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CacheLocation 缓存设备定位查询结果
func (s *RedisService) CacheLocation(deviceID uint, info *LocationInfo) error {
	return s.Set(fmt.Sprintf("device_location:%d", deviceID), info, deviceQueryCacheTTL)
}

// GetCachedLocation 读取缓存的定位信息
func (s *RedisService) GetCachedLocation(deviceID uint) (*LocationInfo, error) {
	var info LocationInfo
	if err := s.Get(fmt.Sprintf("device_location:%d", deviceID), &info); err != nil {
		return nil, err
	}
	return &info, nil
}
