package entities

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Direction of a settlement
type Direction string

const (
	// DirectionCollect moves funds from many senders into one receiver
	DirectionCollect Direction = "collect"
	// DirectionDisperse moves funds from one sender to many receivers
	DirectionDisperse Direction = "disperse"
)

// AssetKind distinguishes the native asset from an ERC20 token balance
type AssetKind string

const (
	AssetEth   AssetKind = "eth"
	AssetERC20 AssetKind = "erc20"
)

// Route is the {direction, asset} capability pair a settlement runs under
type Route struct {
	Direction Direction
	Asset     AssetKind
}

var (
	RouteCollectEth    = Route{Direction: DirectionCollect, Asset: AssetEth}
	RouteCollectERC20  = Route{Direction: DirectionCollect, Asset: AssetERC20}
	RouteDisperseEth   = Route{Direction: DirectionDisperse, Asset: AssetEth}
	RouteDisperseERC20 = Route{Direction: DirectionDisperse, Asset: AssetERC20}
	AllRoutes          = []Route{RouteCollectEth, RouteCollectERC20, RouteDisperseEth, RouteDisperseERC20}
)

// String returns the route as it appears in the URL path, e.g. "collect/eth"
func (r Route) String() string {
	return string(r.Direction) + "/" + string(r.Asset)
}

// ParseRoute parses "collect/eth" style names
func ParseRoute(s string) (Route, bool) {
	s = strings.Trim(strings.ToLower(s), "/")
	for _, r := range AllRoutes {
		if r.String() == s {
			return r, true
		}
	}
	return Route{}, false
}

// SettlementOutcome is the terminal result of one executor call.
// TxHash may be set on failure when the transaction was broadcast but
// could not be confirmed. Mined is set when a receipt exists, so a failure
// with Mined is a revert and final.
type SettlementOutcome struct {
	TxHash      common.Hash
	BlockNumber uint64
	Mined       bool
	Err         error
}

// Success builds a successful outcome for a transaction included in blockNumber
func Success(txHash common.Hash, blockNumber uint64) SettlementOutcome {
	return SettlementOutcome{TxHash: txHash, BlockNumber: blockNumber, Mined: true}
}

// Failure builds a failed outcome carrying the raw executor reason
func Failure(txHash common.Hash, reason error) SettlementOutcome {
	return SettlementOutcome{TxHash: txHash, Err: reason}
}

// Reverted builds a failed outcome for a transaction mined in blockNumber
// with a failing receipt status
func Reverted(txHash common.Hash, blockNumber uint64, reason error) SettlementOutcome {
	return SettlementOutcome{TxHash: txHash, BlockNumber: blockNumber, Mined: true, Err: reason}
}

// Succeeded reports whether the settlement went through
func (o SettlementOutcome) Succeeded() bool {
	return o.Err == nil
}

// Broadcast reports whether a transaction hash is known for the outcome
func (o SettlementOutcome) Broadcast() bool {
	return o.TxHash != (common.Hash{})
}
