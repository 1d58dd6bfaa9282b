package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"
)

const erc20ABIJSON = `[
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]}
]`

// spokeABIJSON is the settlement spoke entry point that opens an intent.
const spokeABIJSON = `[
  {"type":"function","name":"newIntent","stateMutability":"nonpayable",
   "inputs":[
     {"name":"destinations","type":"uint32[]"},
     {"name":"receiver","type":"address"},
     {"name":"inputAsset","type":"address"},
     {"name":"outputAsset","type":"address"},
     {"name":"amount","type":"uint256"},
     {"name":"maxFee","type":"uint24"},
     {"name":"ttl","type":"uint48"},
     {"name":"data","type":"bytes"}],
   "outputs":[{"name":"intentId","type":"bytes32"}]}
]`

var (
	erc20ABI = mustParseABI(erc20ABIJSON)
	spokeABI = mustParseABI(spokeABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("chain: parse abi: %v", err))
	}
	return parsed
}

// unpackUint256 decodes a single uint256 return value.
func unpackUint256(method string, out []byte) (*uint256.Int, error) {
	values, err := erc20ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: expected 1 value, got %d", method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unexpected type %T", method, values[0])
	}
	amount, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("unpack %s: value overflows uint256", method)
	}
	return amount, nil
}
