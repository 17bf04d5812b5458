// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	log "github.com/luxfi/log"

	"github.com/parsdao/lxbin/contract"
)

const lxbinABIJSON = `[
  {"type":"function","name":"modifyLiquidity","stateMutability":"nonpayable",
   "inputs":[
     {"name":"from","type":"address"},
     {"name":"positionId","type":"int32"},
     {"name":"args","type":"tuple[]","components":[
       {"name":"isRemove","type":"bool"},
       {"name":"binIdOrOffset","type":"int32"},
       {"name":"amount","type":"int128"}]},
     {"name":"offsetFromActive","type":"bool"}],
   "outputs":[{"name":"xDelta","type":"int128"},{"name":"yDelta","type":"int128"}]},
  {"type":"function","name":"swapExactAmountIn","stateMutability":"nonpayable",
   "inputs":[
     {"name":"from","type":"address"},
     {"name":"amountIn","type":"int128"},
     {"name":"minAmountOut","type":"int128"},
     {"name":"inToken","type":"address"}],
   "outputs":[{"name":"amountOut","type":"int128"}]},
  {"type":"function","name":"quoteExactAmountIn","stateMutability":"view",
   "inputs":[{"name":"amountIn","type":"int128"},{"name":"inToken","type":"address"}],
   "outputs":[{"name":"amountOut","type":"int128"},{"name":"activeBin","type":"int32"}]},
  {"type":"function","name":"getBinVec","stateMutability":"view",
   "inputs":[{"name":"vecId","type":"int32"}],
   "outputs":[{"name":"bins","type":"tuple[]","components":[
     {"name":"binId","type":"int32"},
     {"name":"reserveX","type":"int128"},
     {"name":"reserveY","type":"int128"}]}]},
  {"type":"function","name":"getSharesVec","stateMutability":"view",
   "inputs":[{"name":"vecId","type":"int32"}],
   "outputs":[{"name":"shares","type":"tuple[]","components":[
     {"name":"binId","type":"int32"},
     {"name":"shares","type":"int128"}]}]},
  {"type":"function","name":"getPosition","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"positionId","type":"int32"}],
   "outputs":[
     {"name":"found","type":"bool"},
     {"name":"binShares","type":"tuple[]","components":[
       {"name":"binId","type":"int32"},
       {"name":"shares","type":"int128"}]}]},
  {"type":"function","name":"getConfig","stateMutability":"view",
   "inputs":[],
   "outputs":[
     {"name":"tokenX","type":"address"},
     {"name":"tokenY","type":"address"},
     {"name":"binStep","type":"uint32"},
     {"name":"activeBin","type":"int32"},
     {"name":"fee","type":"uint32"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"token","type":"address"},{"name":"owner","type":"address"}],
   "outputs":[{"name":"balance","type":"uint256"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable",
   "inputs":[
     {"name":"token","type":"address"},
     {"name":"to","type":"address"},
     {"name":"amount","type":"uint256"}],
   "outputs":[{"name":"success","type":"bool"}]},
  {"type":"event","name":"LiquidityModified","anonymous":false,
   "inputs":[
     {"name":"from","type":"address","indexed":true},
     {"name":"positionId","type":"int32","indexed":false},
     {"name":"xDelta","type":"int128","indexed":false},
     {"name":"yDelta","type":"int128","indexed":false}]},
  {"type":"event","name":"Swap","anonymous":false,
   "inputs":[
     {"name":"from","type":"address","indexed":true},
     {"name":"inToken","type":"address","indexed":true},
     {"name":"amountIn","type":"int128","indexed":false},
     {"name":"amountOut","type":"int128","indexed":false},
     {"name":"activeBin","type":"int32","indexed":false}]},
  {"type":"event","name":"Transfer","anonymous":false,
   "inputs":[
     {"name":"token","type":"address","indexed":true},
     {"name":"from","type":"address","indexed":true},
     {"name":"to","type":"address","indexed":true},
     {"name":"amount","type":"uint256","indexed":false}]}
]`

// LXBinABI is the Solidity interface of the precompile.
var LXBinABI = contract.ParseABI(lxbinABIJSON)

// ABI tuple shapes; field names follow the camel-cased component names.
type (
	depositArgsABI struct {
		IsRemove      bool
		BinIdOrOffset int32
		Amount        *big.Int
	}

	binABI struct {
		BinId    int32
		ReserveX *big.Int
		ReserveY *big.Int
	}

	binSharesABI struct {
		BinId  int32
		Shares *big.Int
	}
)

var _ contract.StatefulPrecompiledContract = (*LXBinContract)(nil)

// LXBinPrecompile is the singleton instance
var LXBinPrecompile = &LXBinContract{
	log: log.NewTestLogger(log.InfoLevel),
}

// LXBinContract exposes a Pool stored in the precompile account.
type LXBinContract struct {
	log log.Logger
}

// newPool builds the pool for one call. [caller] is the only address the
// call may act for.
func (c *LXBinContract) newPool(stateDB contract.StateDB, addr, caller common.Address, opts ...Option) *Pool {
	pool, _ := c.meteredPool(stateDB, addr, caller, opts...)
	return pool
}

// meteredPool is newPool that also returns the store, whose slot writes
// the call pays for.
func (c *LXBinContract) meteredPool(stateDB contract.StateDB, addr, caller common.Address, opts ...Option) (*Pool, *StateKV) {
	opts = append([]Option{
		WithLogger(c.log),
		WithAuthorizer(CallerAuthorizer(caller)),
	}, opts...)
	kv := NewStateKV(stateDB, addr)
	return NewPool(kv, addr, &NativeTokens{State: stateDB}, opts...), kv
}

// RequiredGas returns the fixed part of the cost of [input].
func (c *LXBinContract) RequiredGas(input []byte) uint64 {
	method, _, err := LXBinABI.MethodFromInput(input)
	if err != nil {
		return 0
	}
	switch method.Name {
	case "modifyLiquidity":
		return GasModifyBase
	case "swapExactAmountIn":
		return GasSwapBase
	case "quoteExactAmountIn":
		return GasQuoteBase
	case "getBinVec", "getSharesVec":
		return GasViewVec
	case "getPosition":
		return GasViewPosition
	case "getConfig":
		return GasViewConfig
	case "balanceOf":
		return GasBalanceOf
	case "transfer":
		return GasTransferBase
	default:
		return 0
	}
}

// Run executes the precompile
func (c *LXBinContract) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) (ret []byte, remainingGas uint64, err error) {
	method, data, err := LXBinABI.MethodFromInput(input)
	if err != nil {
		return nil, suppliedGas, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	switch method.Name {
	case "modifyLiquidity":
		return c.runModifyLiquidity(accessibleState, caller, addr, data, suppliedGas, readOnly)
	case "swapExactAmountIn":
		return c.runSwap(accessibleState, caller, addr, data, suppliedGas, readOnly)
	case "quoteExactAmountIn":
		return c.runQuote(accessibleState, caller, addr, data, suppliedGas)
	case "getBinVec":
		return c.runGetBinVec(accessibleState, caller, addr, data, suppliedGas)
	case "getSharesVec":
		return c.runGetSharesVec(accessibleState, caller, addr, data, suppliedGas)
	case "getPosition":
		return c.runGetPosition(accessibleState, caller, addr, data, suppliedGas)
	case "getConfig":
		return c.runGetConfig(accessibleState, caller, addr, suppliedGas)
	case "balanceOf":
		return c.runBalanceOf(accessibleState, caller, addr, data, suppliedGas)
	case "transfer":
		return c.runTransfer(accessibleState, caller, addr, data, suppliedGas, readOnly)
	default:
		return nil, suppliedGas, fmt.Errorf("%w: unknown method %s", ErrInvalidInput, method.Name)
	}
}

func (c *LXBinContract) runModifyLiquidity(
	state contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, ErrReadOnly
	}
	values, err := LXBinABI.UnpackInput("modifyLiquidity", input, true)
	if err != nil {
		return nil, suppliedGas, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	from := values[0].(common.Address)
	positionID := values[1].(int32)
	rawArgs := *abi.ConvertType(values[2], new([]depositArgsABI)).(*[]depositArgsABI)
	offsetFromActive := values[3].(bool)

	cost := GasModifyBase + uint64(len(rawArgs))*GasModifyPerArg
	remaining, err := contract.DeductGas(suppliedGas, cost)
	if err != nil {
		return nil, 0, err
	}

	args := make([]DepositArgs, len(rawArgs))
	for i, a := range rawArgs {
		args[i] = DepositArgs{IsRemove: a.IsRemove, BinIDOrOffset: a.BinIdOrOffset, Amount: a.Amount}
	}

	stateDB := state.GetStateDB()
	snapshot := stateDB.Snapshot()
	pool, kv := c.meteredPool(stateDB, addr, caller)
	xDelta, yDelta, err := pool.ModifyLiquidity(from, positionID, args, offsetFromActive)
	if err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, remaining, err
	}
	if remaining, err = chargeWrites(remaining, kv); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, 0, err
	}

	if remaining, err = c.emit(state, addr, remaining, "LiquidityModified", from, positionID, xDelta, yDelta); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, remaining, err
	}
	ret, err := LXBinABI.PackOutput("modifyLiquidity", xDelta, yDelta)
	return ret, remaining, err
}

func (c *LXBinContract) runSwap(
	state contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, ErrReadOnly
	}
	remaining, err := contract.DeductGas(suppliedGas, GasSwapBase)
	if err != nil {
		return nil, 0, err
	}
	values, err := LXBinABI.UnpackInput("swapExactAmountIn", input, true)
	if err != nil {
		return nil, remaining, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	from := values[0].(common.Address)
	amountIn := values[1].(*big.Int)
	minAmountOut := values[2].(*big.Int)
	inToken := values[3].(common.Address)

	budget := vecBudget(remaining)
	if budget == 0 {
		return nil, 0, ErrOutOfGas
	}

	stateDB := state.GetStateDB()
	snapshot := stateDB.Snapshot()
	pool, kv := c.meteredPool(stateDB, addr, caller, WithMaxVecLoads(budget))
	res, err := pool.swapExactAmountIn(from, amountIn, minAmountOut, inToken)
	if err != nil {
		stateDB.RevertToSnapshot(snapshot)
		if errors.Is(err, ErrVecLoadLimit) {
			return nil, 0, fmt.Errorf("%w: %v", ErrOutOfGas, err)
		}
		return nil, remaining, err
	}
	if remaining, err = contract.DeductGas(remaining, uint64(res.vecLoads)*GasVecLoad); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, 0, err
	}
	if remaining, err = chargeWrites(remaining, kv); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, 0, err
	}

	if remaining, err = c.emit(state, addr, remaining, "Swap", from, inToken, amountIn, res.amountOut, res.activeBin); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, remaining, err
	}
	ret, err := LXBinABI.PackOutput("swapExactAmountIn", res.amountOut)
	return ret, remaining, err
}

func (c *LXBinContract) runQuote(
	state contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remaining, err := contract.DeductGas(suppliedGas, GasQuoteBase)
	if err != nil {
		return nil, 0, err
	}
	values, err := LXBinABI.UnpackInput("quoteExactAmountIn", input, true)
	if err != nil {
		return nil, remaining, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	amountIn := values[0].(*big.Int)
	inToken := values[1].(common.Address)

	budget := vecBudget(remaining)
	if budget == 0 {
		return nil, 0, ErrOutOfGas
	}
	pool := c.newPool(state.GetStateDB(), addr, caller, WithMaxVecLoads(budget))
	res, err := pool.quoteExactAmountIn(amountIn, inToken)
	if err != nil {
		if errors.Is(err, ErrVecLoadLimit) {
			return nil, 0, fmt.Errorf("%w: %v", ErrOutOfGas, err)
		}
		return nil, remaining, err
	}
	if remaining, err = contract.DeductGas(remaining, uint64(res.vecLoads)*GasVecLoad); err != nil {
		return nil, 0, err
	}
	ret, err := LXBinABI.PackOutput("quoteExactAmountIn", res.amountOut, res.activeBin)
	return ret, remaining, err
}

func (c *LXBinContract) runGetBinVec(
	state contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remaining, err := contract.DeductGas(suppliedGas, GasViewVec)
	if err != nil {
		return nil, 0, err
	}
	values, err := LXBinABI.UnpackInput("getBinVec", input, true)
	if err != nil {
		return nil, remaining, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	vec, err := c.newPool(state.GetStateDB(), addr, caller).GetBinVec(values[0].(int32))
	if err != nil {
		return nil, remaining, err
	}
	out := make([]binABI, len(vec))
	for i, bin := range vec {
		out[i] = binABI{BinId: bin.BinID, ReserveX: bin.ReserveX, ReserveY: bin.ReserveY}
	}
	ret, err := LXBinABI.PackOutput("getBinVec", out)
	return ret, remaining, err
}

func (c *LXBinContract) runGetSharesVec(
	state contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remaining, err := contract.DeductGas(suppliedGas, GasViewVec)
	if err != nil {
		return nil, 0, err
	}
	values, err := LXBinABI.UnpackInput("getSharesVec", input, true)
	if err != nil {
		return nil, remaining, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	vec, err := c.newPool(state.GetStateDB(), addr, caller).GetSharesVec(values[0].(int32))
	if err != nil {
		return nil, remaining, err
	}
	ret, err := LXBinABI.PackOutput("getSharesVec", toBinSharesABI(vec))
	return ret, remaining, err
}

func (c *LXBinContract) runGetPosition(
	state contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remaining, err := contract.DeductGas(suppliedGas, GasViewPosition)
	if err != nil {
		return nil, 0, err
	}
	values, err := LXBinABI.UnpackInput("getPosition", input, true)
	if err != nil {
		return nil, remaining, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	pos, err := c.newPool(state.GetStateDB(), addr, caller).GetPosition(values[0].(common.Address), values[1].(int32))
	if err != nil {
		return nil, remaining, err
	}
	if pos == nil {
		ret, err := LXBinABI.PackOutput("getPosition", false, []binSharesABI{})
		return ret, remaining, err
	}
	ret, err := LXBinABI.PackOutput("getPosition", true, toBinSharesABI(pos.BinShares))
	return ret, remaining, err
}

func (c *LXBinContract) runGetConfig(
	state contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remaining, err := contract.DeductGas(suppliedGas, GasViewConfig)
	if err != nil {
		return nil, 0, err
	}
	cfg, err := c.newPool(state.GetStateDB(), addr, caller).GetConfig()
	if err != nil {
		return nil, remaining, err
	}
	ret, err := LXBinABI.PackOutput("getConfig", cfg.TokenX, cfg.TokenY, cfg.BinStep, cfg.ActiveBin, cfg.Fee)
	return ret, remaining, err
}

func (c *LXBinContract) runBalanceOf(
	state contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remaining, err := contract.DeductGas(suppliedGas, GasBalanceOf)
	if err != nil {
		return nil, 0, err
	}
	values, err := LXBinABI.UnpackInput("balanceOf", input, true)
	if err != nil {
		return nil, remaining, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	token := values[0].(common.Address)
	owner := values[1].(common.Address)

	stateDB := state.GetStateDB()
	var bal *big.Int
	if token == NativeToken {
		bal = stateDB.GetBalance(owner).ToBig()
	} else if bal, err = c.newPool(stateDB, addr, caller).BalanceOf(token, owner); err != nil {
		return nil, remaining, err
	}
	ret, err := LXBinABI.PackOutput("balanceOf", bal)
	return ret, remaining, err
}

func (c *LXBinContract) runTransfer(
	state contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, ErrReadOnly
	}
	remaining, err := contract.DeductGas(suppliedGas, GasTransferBase)
	if err != nil {
		return nil, 0, err
	}
	values, err := LXBinABI.UnpackInput("transfer", input, true)
	if err != nil {
		return nil, remaining, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	token := values[0].(common.Address)
	to := values[1].(common.Address)
	amount := values[2].(*big.Int)

	stateDB := state.GetStateDB()
	snapshot := stateDB.Snapshot()
	pool, kv := c.meteredPool(stateDB, addr, caller)
	if err := pool.Transfer(token, caller, to, amount); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, remaining, err
	}
	if remaining, err = chargeWrites(remaining, kv); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, 0, err
	}

	if remaining, err = c.emit(state, addr, remaining, "Transfer", token, caller, to, amount); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return nil, remaining, err
	}
	ret, err := LXBinABI.PackOutput("transfer", true)
	return ret, remaining, err
}

// chargeWrites deducts GasSlotWrite for every slot [kv] wrote.
func chargeWrites(gas uint64, kv *StateKV) (uint64, error) {
	return contract.DeductGas(gas, kv.SlotWrites()*GasSlotWrite)
}

// emit charges GasEventEmit and appends event [name] to the state logs.
func (c *LXBinContract) emit(
	state contract.AccessibleState,
	addr common.Address,
	suppliedGas uint64,
	name string,
	args ...interface{},
) (uint64, error) {
	remaining, err := contract.DeductGas(suppliedGas, GasEventEmit)
	if err != nil {
		return 0, err
	}
	topics, data, err := LXBinABI.PackEvent(name, args...)
	if err != nil {
		return remaining, err
	}

	entry := &types.Log{Address: addr, Topics: topics, Data: data}
	if bc := state.GetBlockContext(); bc != nil {
		entry.BlockNumber = bc.Number().Uint64()
	}
	state.GetStateDB().AddLog(entry)
	return remaining, nil
}

// vecBudget converts remaining gas into the vectors a swap may load.
func vecBudget(gas uint64) int {
	n := gas / GasVecLoad
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func toBinSharesABI(shares []BinShares) []binSharesABI {
	out := make([]binSharesABI, len(shares))
	for i, s := range shares {
		out[i] = binSharesABI{BinId: s.BinID, Shares: s.Shares}
	}
	return out
}
