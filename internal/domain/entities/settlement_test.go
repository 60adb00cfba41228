package entities

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKind_UnmarshalJSON(t *testing.T) {
	var body struct {
		Kind ValueKind `json:"values_type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"values_type":"Amount"}`), &body))
	assert.Equal(t, ValueKindAmount, body.Kind)

	require.NoError(t, json.Unmarshal([]byte(`{"values_type":"Percentage"}`), &body))
	assert.Equal(t, ValueKindPercentage, body.Kind)

	for _, raw := range []string{`{"values_type":"amount"}`, `{"values_type":"Percent"}`, `{"values_type":1}`} {
		assert.Error(t, json.Unmarshal([]byte(raw), &body), raw)
	}

	err := json.Unmarshal([]byte(`{"values_type":"Ratio"}`), &body)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownValueKind), err.Error())
	assert.Equal(t, ErrUnknownValueKind, errors.Cause(err))
	assert.Contains(t, err.Error(), `"Ratio"`)
}

func TestParseRoute(t *testing.T) {
	for _, r := range AllRoutes {
		parsed, ok := ParseRoute(r.String())
		require.True(t, ok, r.String())
		assert.Equal(t, r, parsed)
	}

	r, ok := ParseRoute("/Disperse/ERC20/")
	require.True(t, ok)
	assert.Equal(t, RouteDisperseERC20, r)

	_, ok = ParseRoute("collect/btc")
	assert.False(t, ok)
}

func TestSettlementOutcome(t *testing.T) {
	hash := common.HexToHash("0x01")

	ok := Success(hash, 12)
	assert.True(t, ok.Succeeded())
	assert.True(t, ok.Broadcast())
	assert.EqualValues(t, 12, ok.BlockNumber)

	failed := Failure(common.Hash{}, errors.New("insufficient funds"))
	assert.False(t, failed.Succeeded())
	assert.False(t, failed.Broadcast())
	assert.False(t, failed.Mined)

	reverted := Reverted(hash, 13, errors.New("transaction reverted"))
	assert.False(t, reverted.Succeeded())
	assert.True(t, reverted.Broadcast())
	assert.True(t, reverted.Mined)
	assert.EqualValues(t, 13, reverted.BlockNumber)
}
