package cloud

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

type fakeSecrets struct {
	values map[string]string
	calls  int
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[aws.ToString(in.SecretId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

// fakeKMS "decrypts" by returning the ciphertext bytes as is
type fakeKMS struct {
	keyID string
}

func (f *fakeKMS) Decrypt(_ context.Context, in *kms.DecryptInput, _ ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	f.keyID = aws.ToString(in.KeyId)
	return &kms.DecryptOutput{Plaintext: in.CiphertextBlob}, nil
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestLoadSignerKey_Formats(t *testing.T) {
	expected, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	wantAddr := crypto.PubkeyToAddress(expected.PublicKey)

	secrets := &fakeSecrets{values: map[string]string{
		"json-encrypted":  `{"encrypted_private_key":"` + b64(testKeyHex) + `"}`,
		"json-plain":      `{"private_key":"0x` + testKeyHex + `"}`,
		"ciphertext-hex":  b64(testKeyHex),
		"ciphertext-json": b64(`{"private_key":"` + testKeyHex + `"}`),
	}}
	kmsClient := &fakeKMS{}
	svc := newSignerKeyService(secrets, kmsClient, nil)

	for id := range secrets.values {
		t.Run(id, func(t *testing.T) {
			key, err := svc.LoadSignerKey(context.Background(), id, "alias/settlement")
			require.NoError(t, err)
			assert.Equal(t, wantAddr, crypto.PubkeyToAddress(key.PublicKey))
		})
	}
	assert.Equal(t, "alias/settlement", kmsClient.keyID)
}

func TestLoadSignerKey_Errors(t *testing.T) {
	secrets := &fakeSecrets{values: map[string]string{
		"garbage":     "%%%not-base64%%%",
		"bad-key":     b64("zz" + hex.EncodeToString([]byte("short"))),
		"broken-json": `{"private_key":`,
	}}
	svc := newSignerKeyService(secrets, &fakeKMS{}, nil)

	for _, id := range []string{"missing", "garbage", "bad-key", "broken-json"} {
		t.Run(id, func(t *testing.T) {
			_, err := svc.LoadSignerKey(context.Background(), id, "alias/settlement")
			assert.Error(t, err)
		})
	}
}

func TestGetSecret_Caches(t *testing.T) {
	secrets := &fakeSecrets{values: map[string]string{"id": "value"}}
	svc := newSignerKeyService(secrets, &fakeKMS{}, nil)

	for i := 0; i < 3; i++ {
		v, err := svc.GetSecret(context.Background(), "id")
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, secrets.calls)
}

func TestSecretCache_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewSecretCache(time.Minute)
	cache.now = func() time.Time { return now }

	cache.Set("k", "v")
	v, ok := cache.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("k")
	assert.False(t, ok)
}
