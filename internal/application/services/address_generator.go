package services

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// RandomAddressGenerator derives addresses from keys drawn from the system CSPRNG.
// This is the generator used outside of tests.
type RandomAddressGenerator struct{}

// Generate returns n new addresses
func (RandomAddressGenerator) Generate(n int) ([]common.Address, error) {
	addresses := make([]common.Address, 0, n)
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			return addresses, errors.Wrap(err, "generate key")
		}
		addresses = append(addresses, crypto.PubkeyToAddress(key.PublicKey))
	}
	return addresses, nil
}

// SeededAddressGenerator derives addresses from a fixed seed. Every request
// for n addresses yields the same sequence, so anyone knowing the seed knows
// the destinations: use it only for simulations and tests.
type SeededAddressGenerator struct {
	seed string
	salt []byte
}

// NewSeededAddressGenerator creates a deterministic generator
func NewSeededAddressGenerator(seed, salt string) *SeededAddressGenerator {
	return &SeededAddressGenerator{seed: seed, salt: []byte(salt)}
}

// Generate returns the first n addresses of the seed's sequence
func (g *SeededAddressGenerator) Generate(n int) ([]common.Address, error) {
	addresses := make([]common.Address, 0, n)
	for i := 0; i < n; i++ {
		addr, err := g.deriveAddress(i)
		if err != nil {
			return addresses, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

func (g *SeededAddressGenerator) deriveAddress(index int) (common.Address, error) {
	input := fmt.Sprintf("recipient_derivation_%s_%d", strings.TrimSpace(g.seed), index)
	material := pbkdf2.Key([]byte(input), g.salt, 4096, 32, sha256.New)

	// a derived scalar can fall outside the curve order; retry with a counter byte
	const maxRetries = 10
	for attempt := 0; attempt < maxRetries; attempt++ {
		hash := sha256.Sum256(append(material, byte(attempt)))
		key, err := crypto.ToECDSA(hash[:])
		if err == nil {
			return crypto.PubkeyToAddress(key.PublicKey), nil
		}
	}
	return common.Address{}, errors.Errorf("no valid key for index %d after %d attempts", index, maxRetries)
}
