package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"avax-launch-indexer/internal/domain"
)

func avax(v float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(v), big.NewFloat(1e18))
	out, _ := f.Int(nil)
	return out
}

func TestDecoder_DecodeBuy(t *testing.T) {
	dec, err := NewDecoder()
	require.NoError(t, err)

	user := common.HexToAddress("0x1111111111111111111111111111111111111111")
	data, err := dec.abi.Events["Buy"].Inputs.Pack(
		big.NewInt(42),
		user,
		avax(10),    // cost
		avax(1000),  // tokenAmount
		avax(0.05),  // protocolFee
		avax(0.03),  // creatorFee
		avax(0.01),  // referralFee
	)
	require.NoError(t, err)

	lg := &types.Log{
		Topics:      []common.Hash{dec.abi.Events["Buy"].ID},
		Data:        data,
		BlockNumber: 12345,
		TxHash:      common.HexToHash("0xabc"),
		Index:       3,
	}

	ev, err := dec.DecodeLog(lg, 1704067200)
	require.NoError(t, err)
	require.Equal(t, domain.KindBuy, ev.Kind)
	require.NotNil(t, ev.Buy)
	require.Equal(t, uint64(42), ev.Buy.TokenID)
	require.Equal(t, "0x1111111111111111111111111111111111111111", ev.Buy.User)
	require.InDelta(t, 10.0, ev.Buy.AvaxAmount, 1e-9)
	require.InDelta(t, 1000.0, ev.Buy.TokenAmount, 1e-9)
	require.InDelta(t, 0.05, ev.Buy.ProtocolFee, 1e-9)
	require.Equal(t, uint64(12345), ev.BlockNumber)
	require.Equal(t, uint32(3), ev.LogIndex)
	require.Equal(t, int64(1704067200), ev.Timestamp)
}

func TestDecoder_DecodeSell(t *testing.T) {
	dec, err := NewDecoder()
	require.NoError(t, err)

	user := common.HexToAddress("0x2222222222222222222222222222222222222222")
	data, err := dec.abi.Events["Sell"].Inputs.Pack(
		big.NewInt(7),
		user,
		avax(5),    // reward
		avax(500),  // tokenAmount
		avax(0.02), // protocolFee
		avax(0.01), // creatorFee
		big.NewInt(0),
	)
	require.NoError(t, err)

	lg := &types.Log{
		Topics: []common.Hash{dec.abi.Events["Sell"].ID},
		Data:   data,
		TxHash: common.HexToHash("0xdef"),
	}

	ev, err := dec.DecodeLog(lg, 1704067200)
	require.NoError(t, err)
	require.Equal(t, domain.KindSell, ev.Kind)
	require.NotNil(t, ev.Sell)
	require.Equal(t, uint64(7), ev.Sell.TokenID)
	require.InDelta(t, 5.0, ev.Sell.AvaxAmount, 1e-9)
	require.InDelta(t, 500.0, ev.Sell.TokenAmount, 1e-9)
}

func TestDecoder_DecodeTokenCreated(t *testing.T) {
	dec, err := NewDecoder()
	require.NoError(t, err)

	params := struct {
		CurveScaler           *big.Int
		A                     uint16
		B                     uint8
		LpDeployed            bool
		LpPercentage          uint8
		SalePercentage        uint8
		CreatorFeeBasisPoints uint8
		CreatorAddress        common.Address
		PairAddress           common.Address
		TokenContractAddress  common.Address
	}{
		CurveScaler:           big.NewInt(1),
		A:                     100,
		B:                     2,
		LpDeployed:            false,
		LpPercentage:          50,
		SalePercentage:        50,
		CreatorFeeBasisPoints: 100,
		CreatorAddress:        common.HexToAddress("0x3333333333333333333333333333333333333333"),
		PairAddress:           common.HexToAddress("0x4444444444444444444444444444444444444444"),
		TokenContractAddress:  common.HexToAddress("0x5555555555555555555555555555555555555555"),
	}

	data, err := dec.abi.Events["TokenCreated"].Inputs.Pack(
		big.NewInt(9),
		params,
		avax(1e10), // 10B token supply
	)
	require.NoError(t, err)

	lg := &types.Log{
		Topics: []common.Hash{dec.abi.Events["TokenCreated"].ID},
		Data:   data,
		TxHash: common.HexToHash("0x123"),
	}

	ev, err := dec.DecodeLog(lg, 1704067200)
	require.NoError(t, err)
	require.Equal(t, domain.KindTokenCreated, ev.Kind)
	require.NotNil(t, ev.TokenCreated)
	require.Equal(t, uint64(9), ev.TokenCreated.TokenID)
	require.Equal(t, "0x5555555555555555555555555555555555555555", ev.TokenCreated.TokenContractAddress)
	require.Equal(t, "0x3333333333333333333333333333333333333333", ev.TokenCreated.CreatorAddress)
	require.False(t, ev.TokenCreated.LPDeployed)
	require.InDelta(t, 1e10, ev.TokenCreated.Supply, 1)
}

func TestDecoder_DecodeLiquidityMigrated(t *testing.T) {
	dec, err := NewDecoder()
	require.NoError(t, err)

	data, err := dec.abi.Events["LiquidityMigrated"].Inputs.Pack(
		big.NewInt(9),
		avax(450),
	)
	require.NoError(t, err)

	lg := &types.Log{
		Topics: []common.Hash{dec.abi.Events["LiquidityMigrated"].ID},
		Data:   data,
		TxHash: common.HexToHash("0x456"),
	}

	ev, err := dec.DecodeLog(lg, 1704067200)
	require.NoError(t, err)
	require.Equal(t, domain.KindLiquidityMigrated, ev.Kind)
	require.InDelta(t, 450.0, ev.LiquidityMigrated.AmountDeployed, 1e-9)
}

func TestDecoder_UnknownTopic(t *testing.T) {
	dec, err := NewDecoder()
	require.NoError(t, err)

	lg := &types.Log{
		Topics: []common.Hash{common.HexToHash("0xdeadbeef")},
	}
	_, err = dec.DecodeLog(lg, 0)
	require.ErrorIs(t, err, ErrUnknownTopic)
}

func TestFromBaseUnit(t *testing.T) {
	require.Equal(t, 0.0, FromBaseUnit(nil))
	require.Equal(t, 0.0, FromBaseUnit(big.NewInt(0)))
	require.InDelta(t, 1.5, FromBaseUnit(avax(1.5)), 1e-12)
}

func TestSynthesizeMetadata_Deterministic(t *testing.T) {
	a := SynthesizeMetadata("0x8315f1eb449Dd4B779495C3A0b05e5d194446c6e")
	b := SynthesizeMetadata("0x8315f1eb449Dd4B779495C3A0b05e5d194446c6e")
	require.Equal(t, a, b)
	require.Len(t, a.Symbol, 6)
	require.Equal(t, "Token "+a.Symbol, a.Name)
	require.Equal(t, uint8(18), a.Decimals)

	c := SynthesizeMetadata("0x1111111111111111111111111111111111111111")
	require.NotEqual(t, a.Symbol, c.Symbol)
}
