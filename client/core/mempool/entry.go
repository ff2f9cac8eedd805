package mempool

import (
	"bytes"
	"encoding/json"

	"github.com/weisyn/albatross-rpc/client/core/types"
)

// Entry 交易池条目，可能只有哈希
type Entry struct {
	types.Transaction
}

// UnmarshalJSON 兼容哈希字符串与完整交易两种形式
func (e *Entry) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '"' {
		var hash types.Hash
		if err := json.Unmarshal(trimmed, &hash); err != nil {
			return err
		}
		*e = Entry{Transaction: types.Transaction{Hash: hash}}
		return nil
	}
	return json.Unmarshal(b, &e.Transaction)
}
