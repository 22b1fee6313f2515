// Package chain decodes Avalanche C-Chain factory logs into domain events and
// resolves ERC20 token metadata. All monetary amounts leave this package as
// float64 AVAX / whole tokens: the 18-decimal base-unit conversion happens
// exactly once, here.
package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"avax-launch-indexer/internal/domain"
)

// factoryABI covers the four events emitted by the bonding-curve token factory.
const factoryABI = `[
  {"type":"event","name":"TokenCreated","anonymous":false,"inputs":[
    {"name":"tokenId","type":"uint256","indexed":false},
    {"name":"params","type":"tuple","indexed":false,"components":[
      {"name":"curveScaler","type":"uint128"},
      {"name":"a","type":"uint16"},
      {"name":"b","type":"uint8"},
      {"name":"lpDeployed","type":"bool"},
      {"name":"lpPercentage","type":"uint8"},
      {"name":"salePercentage","type":"uint8"},
      {"name":"creatorFeeBasisPoints","type":"uint8"},
      {"name":"creatorAddress","type":"address"},
      {"name":"pairAddress","type":"address"},
      {"name":"tokenContractAddress","type":"address"}
    ]},
    {"name":"tokenSupply","type":"uint256","indexed":false}
  ]},
  {"type":"event","name":"Buy","anonymous":false,"inputs":[
    {"name":"tokenId","type":"uint256","indexed":false},
    {"name":"user","type":"address","indexed":false},
    {"name":"cost","type":"uint256","indexed":false},
    {"name":"tokenAmount","type":"uint256","indexed":false},
    {"name":"protocolFee","type":"uint256","indexed":false},
    {"name":"creatorFee","type":"uint256","indexed":false},
    {"name":"referralFee","type":"uint256","indexed":false}
  ]},
  {"type":"event","name":"Sell","anonymous":false,"inputs":[
    {"name":"tokenId","type":"uint256","indexed":false},
    {"name":"user","type":"address","indexed":false},
    {"name":"reward","type":"uint256","indexed":false},
    {"name":"tokenAmount","type":"uint256","indexed":false},
    {"name":"protocolFee","type":"uint256","indexed":false},
    {"name":"creatorFee","type":"uint256","indexed":false},
    {"name":"referralFee","type":"uint256","indexed":false}
  ]},
  {"type":"event","name":"LiquidityMigrated","anonymous":false,"inputs":[
    {"name":"tokenId","type":"uint256","indexed":false},
    {"name":"amountDeployed","type":"uint256","indexed":false}
  ]}
]`

// Decoder maps raw chain logs to domain events by topic0.
type Decoder struct {
	abi   abi.ABI
	kinds map[common.Hash]domain.EventKind
}

// NewDecoder parses the factory ABI and builds the topic dispatch table.
func NewDecoder() (*Decoder, error) {
	parsed, err := abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	d := &Decoder{
		abi:   parsed,
		kinds: make(map[common.Hash]domain.EventKind, 4),
	}
	d.kinds[parsed.Events["TokenCreated"].ID] = domain.KindTokenCreated
	d.kinds[parsed.Events["Buy"].ID] = domain.KindBuy
	d.kinds[parsed.Events["Sell"].ID] = domain.KindSell
	d.kinds[parsed.Events["LiquidityMigrated"].ID] = domain.KindLiquidityMigrated
	return d, nil
}

// ErrUnknownTopic is returned for logs that do not match any factory event.
var ErrUnknownTopic = fmt.Errorf("unknown log topic")

// DecodeLog converts a factory log into a domain event. blockTime is the
// containing block's unix timestamp, which the log itself does not carry.
func (d *Decoder) DecodeLog(lg *types.Log, blockTime int64) (*domain.Event, error) {
	if len(lg.Topics) == 0 {
		return nil, ErrUnknownTopic
	}
	kind, ok := d.kinds[lg.Topics[0]]
	if !ok {
		return nil, ErrUnknownTopic
	}

	ev := &domain.Event{
		Kind:        kind,
		BlockNumber: lg.BlockNumber,
		TxHash:      strings.ToLower(lg.TxHash.Hex()),
		LogIndex:    uint32(lg.Index),
		Timestamp:   blockTime,
	}

	switch kind {
	case domain.KindTokenCreated:
		var raw struct {
			TokenId *big.Int
			Params  struct {
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
			}
			TokenSupply *big.Int
		}
		if err := d.abi.UnpackIntoInterface(&raw, "TokenCreated", lg.Data); err != nil {
			return nil, fmt.Errorf("unpack TokenCreated: %w", err)
		}
		ev.TokenCreated = &domain.TokenCreatedPayload{
			TokenID:              raw.TokenId.Uint64(),
			CreatorAddress:       lowerHex(raw.Params.CreatorAddress),
			TokenContractAddress: lowerHex(raw.Params.TokenContractAddress),
			PairAddress:          lowerHex(raw.Params.PairAddress),
			LPDeployed:           raw.Params.LpDeployed,
			Supply:               FromBaseUnit(raw.TokenSupply),
			Decimals:             18,
		}

	case domain.KindBuy, domain.KindSell:
		var raw struct {
			TokenId     *big.Int
			User        common.Address
			Amount      *big.Int `abi:"cost"`
			TokenAmount *big.Int
			ProtocolFee *big.Int
			CreatorFee  *big.Int
			ReferralFee *big.Int
		}
		name := "Buy"
		if kind == domain.KindSell {
			name = "Sell"
			// Sell carries "reward" where Buy carries "cost".
			if err := d.unpackSell(lg.Data, &raw.TokenId, &raw.User, &raw.Amount,
				&raw.TokenAmount, &raw.ProtocolFee, &raw.CreatorFee, &raw.ReferralFee); err != nil {
				return nil, fmt.Errorf("unpack Sell: %w", err)
			}
		} else {
			if err := d.abi.UnpackIntoInterface(&raw, name, lg.Data); err != nil {
				return nil, fmt.Errorf("unpack Buy: %w", err)
			}
		}

		trade := &domain.TradePayload{
			TokenID:     raw.TokenId.Uint64(),
			User:        lowerHex(raw.User),
			AvaxAmount:  FromBaseUnit(raw.Amount),
			TokenAmount: FromBaseUnit(raw.TokenAmount),
			ProtocolFee: FromBaseUnit(raw.ProtocolFee),
			CreatorFee:  FromBaseUnit(raw.CreatorFee),
			ReferralFee: FromBaseUnit(raw.ReferralFee),
		}
		if kind == domain.KindBuy {
			ev.Buy = trade
		} else {
			ev.Sell = trade
		}

	case domain.KindLiquidityMigrated:
		var raw struct {
			TokenId        *big.Int
			AmountDeployed *big.Int
		}
		if err := d.abi.UnpackIntoInterface(&raw, "LiquidityMigrated", lg.Data); err != nil {
			return nil, fmt.Errorf("unpack LiquidityMigrated: %w", err)
		}
		ev.LiquidityMigrated = &domain.LiquidityMigratedPayload{
			TokenID:        raw.TokenId.Uint64(),
			AmountDeployed: FromBaseUnit(raw.AmountDeployed),
		}
	}

	return ev, nil
}

// unpackSell unpacks Sell positionally because its second amount field is
// named "reward" rather than "cost".
func (d *Decoder) unpackSell(data []byte, tokenID **big.Int, user *common.Address,
	reward, tokenAmount, protocolFee, creatorFee, referralFee **big.Int) error {

	values, err := d.abi.Events["Sell"].Inputs.UnpackValues(data)
	if err != nil {
		return err
	}
	if len(values) != 7 {
		return fmt.Errorf("expected 7 values, got %d", len(values))
	}

	*tokenID = values[0].(*big.Int)
	*user = values[1].(common.Address)
	*reward = values[2].(*big.Int)
	*tokenAmount = values[3].(*big.Int)
	*protocolFee = values[4].(*big.Int)
	*creatorFee = values[5].(*big.Int)
	*referralFee = values[6].(*big.Int)
	return nil
}

// FromBaseUnit converts an 18-decimal fixed-point base-unit amount to a
// float64. Precision loss beyond float64's 15-16 significant digits is
// accepted; aggregates tolerate it by clamping (see the engine's floor rules).
func FromBaseUnit(x *big.Int) float64 {
	if x == nil || x.Sign() == 0 {
		return 0
	}
	f := new(big.Float).SetInt(x)
	f.Quo(f, big.NewFloat(1e18))
	out, _ := f.Float64()
	return out
}

func lowerHex(a common.Address) string {
	return strings.ToLower(a.Hex())
}
