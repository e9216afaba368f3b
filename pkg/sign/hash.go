package sign

import (
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
)

// MessageHash returns keccak256("\x19Ethereum Signed Message:\n" + len(message) + message).
// The prefix keeps a signed message from being valid as a transaction or any
// other payload signed with the same key.
func MessageHash(message []byte) common.Hash {
	return common.BytesToHash(accounts.TextHash(message))
}
