// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"

	"github.com/parsdao/lxbin/contract"
)

// NativeToken is the pool token id of the chain's native coin.
var NativeToken = common.Address{}

// Tokens moves token balances. [kv] is the store of the running operation so
// that balances kept in storage commit or abort together with the pool.
type Tokens interface {
	Transfer(kv KVStore, token, from, to common.Address, amount *big.Int) error
}

// Authorizer asserts that the current call may act for [addr].
type Authorizer interface {
	RequireAuth(addr common.Address) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(addr common.Address) error

func (f AuthorizerFunc) RequireAuth(addr common.Address) error {
	return f(addr)
}

// AllowAll authorizes every address. Used by offline simulation.
var AllowAll Authorizer = AuthorizerFunc(func(common.Address) error { return nil })

// CallerAuthorizer only authorizes the direct caller.
func CallerAuthorizer(caller common.Address) Authorizer {
	return AuthorizerFunc(func(addr common.Address) error {
		if addr != caller {
			return fmt.Errorf("%w: caller %s cannot act for %s", ErrUnauthorized, caller, addr)
		}
		return nil
	})
}

// Ledger keeps token balances in the Balance(token, owner) namespace.
type Ledger struct{}

var _ Tokens = Ledger{}

// BalanceOf returns the ledger balance of [owner].
func (Ledger) BalanceOf(kv KVStore, token, owner common.Address) (*big.Int, error) {
	data, err := store{kv: kv}.get(balanceKey(token, owner))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return new(big.Int), nil
	}
	return decodeBalance(data)
}

func (l Ledger) setBalance(kv KVStore, token, owner common.Address, amount *big.Int) error {
	key := balanceKey(token, owner)
	if amount.Sign() == 0 {
		return kv.Delete(key)
	}
	data, err := encodeBalance(amount)
	if err != nil {
		return err
	}
	return kv.Put(key, data)
}

// Mint credits [amount] to [owner] out of thin air.
func (l Ledger) Mint(kv KVStore, token, owner common.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	bal, err := l.BalanceOf(kv, token, owner)
	if err != nil {
		return err
	}
	return l.setBalance(kv, token, owner, bal.Add(bal, amount))
}

// Transfer moves [amount] of [token] from [from] to [to].
func (l Ledger) Transfer(kv KVStore, token, from, to common.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	fromBal, err := l.BalanceOf(kv, token, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, from, fromBal, token, amount)
	}
	if err := l.setBalance(kv, token, from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := l.BalanceOf(kv, token, to)
	if err != nil {
		return err
	}
	return l.setBalance(kv, token, to, toBal.Add(toBal, amount))
}

// NativeTokens moves the native coin through the EVM state and every other
// token through the storage ledger.
type NativeTokens struct {
	State  contract.StateDB
	Ledger Ledger
}

var _ Tokens = (*NativeTokens)(nil)

func (n *NativeTokens) Transfer(kv KVStore, token, from, to common.Address, amount *big.Int) error {
	if token != NativeToken {
		return n.Ledger.Transfer(kv, token, from, to, amount)
	}
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		return fmt.Errorf("%w: native amount %s", ErrInvalidInput, amount)
	}
	if n.State.GetBalance(from).Cmp(value) < 0 {
		return fmt.Errorf("%w: %s native balance below %s", ErrInsufficientBalance, from, amount)
	}
	n.State.SubBalance(from, value, tracing.BalanceChangeTransfer)
	n.State.AddBalance(to, value, tracing.BalanceChangeTransfer)
	return nil
}
