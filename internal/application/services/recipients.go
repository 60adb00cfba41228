package services

import (
	"context"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// RecipientResolver supplies the addresses paired with resolved amounts.
// Position i of the returned list is the counterparty of amount i.
type RecipientResolver interface {
	ResolveRecipients(ctx context.Context, count int) (entities.RecipientList, error)
}

// AddressGenerator produces fresh destination addresses
type AddressGenerator interface {
	Generate(n int) ([]common.Address, error)
}

// FixedRecipients resolves to a pre-agreed address set, e.g. the configured
// ERC20 senders of a collect
type FixedRecipients struct {
	addresses entities.RecipientList
}

// NewFixedRecipients creates a resolver over addresses in the given order
func NewFixedRecipients(addresses []common.Address) *FixedRecipients {
	return &FixedRecipients{addresses: append(entities.RecipientList(nil), addresses...)}
}

// ResolveRecipients returns the first count configured addresses
func (f *FixedRecipients) ResolveRecipients(_ context.Context, count int) (entities.RecipientList, error) {
	if count > len(f.addresses) {
		return nil, errors.Wrapf(entities.ErrInsufficientRecipients, "need %d, have %d configured", count, len(f.addresses))
	}
	return append(entities.RecipientList(nil), f.addresses[:count]...), nil
}

// GeneratedRecipients resolves to freshly generated destinations
type GeneratedRecipients struct {
	generator AddressGenerator
}

// NewGeneratedRecipients creates a resolver backed by generator
func NewGeneratedRecipients(generator AddressGenerator) *GeneratedRecipients {
	return &GeneratedRecipients{generator: generator}
}

// ResolveRecipients generates exactly count distinct addresses
func (g *GeneratedRecipients) ResolveRecipients(ctx context.Context, count int) (entities.RecipientList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addresses, err := g.generator.Generate(count)
	if err != nil {
		return nil, errors.Wrapf(entities.ErrGenerationFailed, "%v", err)
	}
	if len(addresses) < count {
		return nil, errors.Wrapf(entities.ErrInsufficientRecipients, "generated %d of %d", len(addresses), count)
	}

	seen := make(map[common.Address]struct{}, count)
	for _, addr := range addresses[:count] {
		if _, dup := seen[addr]; dup {
			return nil, errors.Wrapf(entities.ErrGenerationFailed, "duplicate address %s", addr.Hex())
		}
		seen[addr] = struct{}{}
	}
	return entities.RecipientList(addresses[:count]), nil
}
