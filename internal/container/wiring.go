package container

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/acecasino/settlement_api/internal/application/services"
	"github.com/acecasino/settlement_api/internal/config"
	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/acecasino/settlement_api/internal/infrastructure/external/blockchain/ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// NewRouteStrategies builds the per-route ceilings and recipient sources.
// ETH collects draw on the withdrawal contracts, ERC20 collects on the
// configured senders, and both disperse routes on freshly generated addresses.
func NewRouteStrategies(
	limits config.LimitsConfig,
	withdrawals services.RecipientResolver,
	collectSenders []common.Address,
	generator services.AddressGenerator,
) map[entities.Route]services.RouteStrategy {
	generated := services.NewGeneratedRecipients(generator)

	return map[entities.Route]services.RouteStrategy{
		entities.RouteCollectEth: {
			MaxValues:  limits.MaxValues(entities.RouteCollectEth),
			Recipients: withdrawals,
		},
		entities.RouteCollectERC20: {
			MaxValues:  limits.MaxValues(entities.RouteCollectERC20),
			Recipients: services.NewFixedRecipients(collectSenders),
		},
		entities.RouteDisperseEth: {
			MaxValues:  limits.MaxValues(entities.RouteDisperseEth),
			Recipients: generated,
		},
		entities.RouteDisperseERC20: {
			MaxValues:  limits.MaxValues(entities.RouteDisperseERC20),
			Recipients: generated,
		},
	}
}

// NewAddressGenerator returns the disperse destination generator selected in cfg
func NewAddressGenerator(cfg config.RecipientsConfig) (services.AddressGenerator, error) {
	switch cfg.Generator {
	case "", config.GeneratorRandom:
		return services.RandomAddressGenerator{}, nil
	case config.GeneratorSeeded:
		if cfg.Seed == "" {
			return nil, errors.New("seeded generator requires a seed")
		}
		return services.NewSeededAddressGenerator(cfg.Seed, cfg.Salt), nil
	}
	return nil, errors.Errorf("unknown recipient generator %q", cfg.Generator)
}

// ExecutorConfigFrom converts the ethereum section into executor settings.
// Unset contract addresses stay zero and fail only the routes that need them.
func ExecutorConfigFrom(eth config.EthereumConfig) (ethereum.ExecutorConfig, error) {
	var cfg ethereum.ExecutorConfig

	addresses := []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{name: "collect_contract", value: eth.CollectContract, dst: &cfg.CollectContract},
		{name: "disperse_contract", value: eth.DisperseContract, dst: &cfg.DisperseContract},
		{name: "token_contract", value: eth.TokenContract, dst: &cfg.TokenContract},
		{name: "receiver", value: eth.Receiver, dst: &cfg.Receiver},
	}
	for _, a := range addresses {
		if a.value == "" {
			continue
		}
		if !common.IsHexAddress(a.value) {
			return cfg, errors.Errorf("invalid %s address %q", a.name, a.value)
		}
		*a.dst = common.HexToAddress(a.value)
	}

	for i, raw := range eth.SenderKeys {
		key, err := ParsePrivateKey(raw)
		if err != nil {
			return cfg, errors.Wrapf(err, "invalid sender key #%d", i)
		}
		cfg.SenderKeys = append(cfg.SenderKeys, key)
	}

	if eth.ApprovalAmount != "" {
		amount, err := ParseAmount(eth.ApprovalAmount)
		if err != nil {
			return cfg, errors.Wrap(err, "invalid approval amount")
		}
		cfg.ApprovalAmount = amount
	}

	cfg.PrefundWithdrawals = eth.PrefundWithdrawals
	return cfg, nil
}

// ParsePrivateKey parses a hex secp256k1 key with or without the 0x prefix
func ParsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
}

// ParseAddresses parses hex addresses, keeping their order
func ParseAddresses(raw []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(raw))
	for _, s := range raw {
		if !common.IsHexAddress(s) {
			return nil, errors.Errorf("invalid address %q", s)
		}
		out = append(out, common.HexToAddress(s))
	}
	return out, nil
}

// ParseAmount parses a non-negative integer amount that fits in 256 bits.
// Exponent notation such as "1e24" is accepted.
func ParseAmount(raw string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if d.IsNegative() || !d.IsInteger() {
		return nil, errors.Errorf("%s is not a non-negative integer", raw)
	}
	amount := d.BigInt()
	if amount.BitLen() > 256 {
		return nil, errors.Errorf("%s does not fit in 256 bits", raw)
	}
	return amount, nil
}
