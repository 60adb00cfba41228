package cloud

import (
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SecretCache 캐싱 구조체
type SecretCache struct {
	mu         sync.RWMutex
	data       map[string]CacheItem
	defaultTTL time.Duration
	now        func() time.Time
}

// CacheItem 캐시 아이템
type CacheItem struct {
	Value     string
	ExpiresAt time.Time
}

// NewSecretCache 새로운 캐시 생성
func NewSecretCache(defaultTTL time.Duration) *SecretCache {
	return &SecretCache{
		data:       make(map[string]CacheItem),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Set 캐시에 값 저장
func (c *SecretCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = CacheItem{
		Value:     value,
		ExpiresAt: c.now().Add(c.defaultTTL),
	}
}

// Get 캐시에서 값 조회
func (c *SecretCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.data[key]
	if !exists {
		return "", false
	}

	if c.now().After(item.ExpiresAt) {
		delete(c.data, key)
		return "", false
	}

	return item.Value, true
}

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type kmsAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// SignerSecret is the JSON layout of a stored signer key
type SignerSecret struct {
	EncryptedPrivateKey string `json:"encrypted_private_key"`
	PrivateKey          string `json:"private_key"`
	Address             string `json:"address"`
}

// SignerKeyService loads the settlement signer key from Secrets Manager,
// decrypting it with KMS
type SignerKeyService struct {
	secretsClient secretsAPI
	kmsClient     kmsAPI
	cache         *SecretCache
	logger        *zap.Logger
}

// NewSignerKeyService creates a service from the default AWS credential chain
func NewSignerKeyService(ctx context.Context, region string, logger *zap.Logger) (*SignerKeyService, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	return newSignerKeyService(secretsmanager.NewFromConfig(cfg), kms.NewFromConfig(cfg), logger), nil
}

func newSignerKeyService(secrets secretsAPI, kmsClient kmsAPI, logger *zap.Logger) *SignerKeyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignerKeyService{
		secretsClient: secrets,
		kmsClient:     kmsClient,
		cache:         NewSecretCache(15 * time.Minute),
		logger:        logger,
	}
}

// GetSecret Secrets Manager에서 시크릿 조회 (캐싱 포함)
func (s *SignerKeyService) GetSecret(ctx context.Context, secretID string) (string, error) {
	if cachedValue, exists := s.cache.Get(secretID); exists {
		s.logger.Debug("Secret cache hit", zap.String("secret_id", secretID))
		return cachedValue, nil
	}

	result, err := s.secretsClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to get secret value")
	}
	if result.SecretString == nil {
		return "", errors.New("secret string is nil")
	}

	s.cache.Set(secretID, *result.SecretString)
	return *result.SecretString, nil
}

// Decrypt KMS로 암호화된 base64 데이터 복호화
func (s *SignerKeyService) Decrypt(ctx context.Context, keyAlias, encryptedData string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encryptedData))
	if err != nil {
		return "", errors.Wrap(err, "failed to decode base64 data")
	}

	result, err := s.kmsClient.Decrypt(ctx, &kms.DecryptInput{
		KeyId:          aws.String(keyAlias),
		CiphertextBlob: ciphertext,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt with KMS")
	}

	return string(result.Plaintext), nil
}

// LoadSignerKey resolves the private key stored under secretID. The secret is
// either JSON carrying a KMS-encrypted key, or a base64 KMS ciphertext whose
// plaintext is a hex key or the same JSON layout with a plain key.
func (s *SignerKeyService) LoadSignerKey(ctx context.Context, secretID, keyAlias string) (*ecdsa.PrivateKey, error) {
	secretString, err := s.GetSecret(ctx, secretID)
	if err != nil {
		return nil, err
	}

	var keyHex string
	if strings.HasPrefix(strings.TrimSpace(secretString), "{") {
		var secret SignerSecret
		if err := json.Unmarshal([]byte(secretString), &secret); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal JSON secret")
		}
		if secret.PrivateKey != "" {
			keyHex = secret.PrivateKey
		} else {
			keyHex, err = s.Decrypt(ctx, keyAlias, secret.EncryptedPrivateKey)
			if err != nil {
				return nil, errors.Wrap(err, "failed to decrypt private key")
			}
		}
	} else {
		plaintext, err := s.Decrypt(ctx, keyAlias, secretString)
		if err != nil {
			return nil, err
		}
		keyHex = plaintext
		if strings.HasPrefix(strings.TrimSpace(plaintext), "{") {
			var secret SignerSecret
			if err := json.Unmarshal([]byte(plaintext), &secret); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal decrypted JSON")
			}
			keyHex = secret.PrivateKey
		}
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid signer key in secret %s", secretID)
	}

	s.logger.Info("Loaded signer key",
		zap.String("secret_id", secretID),
		zap.String("address", crypto.PubkeyToAddress(key.PublicKey).Hex()),
	)
	return key, nil
}
