// Package types holds the node's response and parameter shapes shared by the façade services.
package types

import (
	"encoding/json"
	"strconv"
)

// 基础类型
type (
	// Address 用户友好格式的地址，如 "NQ07 0000 ..."
	Address = string
	// Hash 十六进制哈希
	Hash = string
	// Coin 以 Luna 计的金额，1 NIM = 100000 Luna
	Coin = uint64
	// BlockNumber 区块高度
	BlockNumber = uint32
	// BatchIndex 批次编号
	BatchIndex = uint32
	// EpochIndex 纪元编号
	EpochIndex = uint32
	// RawTransaction 序列化后的十六进制交易
	RawTransaction = string
)

// BlockType 区块类型
type BlockType string

const (
	BlockMicro BlockType = "micro"
	BlockMacro BlockType = "macro"
)

// Block 区块
type Block struct {
	Hash               Hash            `json:"hash"`
	Size               uint32          `json:"size"`
	Batch              BatchIndex      `json:"batch"`
	Epoch              EpochIndex      `json:"epoch"`
	Network            string          `json:"network"`
	Version            uint16          `json:"version"`
	Number             BlockNumber     `json:"number"`
	Timestamp          uint64          `json:"timestamp"`
	ParentHash         Hash            `json:"parentHash"`
	Seed               string          `json:"seed"`
	ExtraData          string          `json:"extraData"`
	StateHash          Hash            `json:"stateHash"`
	BodyHash           Hash            `json:"bodyHash"`
	HistoryHash        Hash            `json:"historyHash"`
	Type               BlockType       `json:"type"`
	Producer           *Slot           `json:"producer,omitempty"`
	IsElectionBlock    bool            `json:"isElectionBlock,omitempty"`
	ParentElectionHash Hash            `json:"parentElectionHash,omitempty"`
	Transactions       []Transaction   `json:"transactions,omitempty"`
	Justification      json.RawMessage `json:"justification,omitempty"`
}

// Slot 出块槽位
type Slot struct {
	SlotNumber uint16  `json:"slotNumber"`
	Validator  Address `json:"validator"`
	PublicKey  string  `json:"publicKey"`
}

// Transaction 交易
type Transaction struct {
	Hash                Hash        `json:"hash"`
	BlockNumber         BlockNumber `json:"blockNumber,omitempty"`
	Timestamp           uint64      `json:"timestamp,omitempty"`
	Confirmations       uint32      `json:"confirmations,omitempty"`
	Size                uint32      `json:"size"`
	RelatedAddresses    []Address   `json:"relatedAddresses,omitempty"`
	From                Address     `json:"from"`
	FromType            uint8       `json:"fromType"`
	To                  Address     `json:"to"`
	ToType              uint8       `json:"toType"`
	Value               Coin        `json:"value"`
	Fee                 Coin        `json:"fee"`
	SenderData          string      `json:"senderData"`
	RecipientData       string      `json:"recipientData"`
	Flags               uint8       `json:"flags"`
	ValidityStartHeight BlockNumber `json:"validityStartHeight"`
	Proof               string      `json:"proof"`
	NetworkID           uint8       `json:"networkId"`
}

// Inherent 系统内生交易（奖励、惩罚等）
type Inherent struct {
	Type        string      `json:"type"`
	BlockNumber BlockNumber `json:"blockNumber"`
	Timestamp   uint64      `json:"timestamp"`
	Target      Address     `json:"target"`
	Value       Coin        `json:"value,omitempty"`
	Hash        Hash        `json:"hash,omitempty"`
}

// AccountType 账户类型
type AccountType string

const (
	AccountBasic   AccountType = "basic"
	AccountVesting AccountType = "vesting"
	AccountHTLC    AccountType = "htlc"
	AccountStaking AccountType = "staking"
)

// Account 账户，不同类型的附加字段放在 Extra 中
type Account struct {
	Address Address     `json:"address"`
	Balance Coin        `json:"balance"`
	Type    AccountType `json:"type"`

	Extra map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON 保留类型相关的附加字段
func (a *Account) UnmarshalJSON(b []byte) error {
	type plain Account
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	delete(all, "address")
	delete(all, "balance")
	delete(all, "type")
	*a = Account(p)
	if len(all) > 0 {
		a.Extra = all
	}
	return nil
}

// Validator 验证者
type Validator struct {
	Address         Address          `json:"address"`
	SigningKey      string           `json:"signingKey"`
	VotingKey       string           `json:"votingKey"`
	RewardAddress   Address          `json:"rewardAddress"`
	SignalData      *Hash            `json:"signalData,omitempty"`
	Balance         Coin             `json:"balance"`
	NumStakers      uint64           `json:"numStakers"`
	InactivityFlag  *BlockNumber     `json:"inactivityFlag,omitempty"`
	Retired         bool             `json:"retired"`
	JailedFrom      *BlockNumber     `json:"jailedFrom,omitempty"`
	Stakers         map[Address]Coin `json:"stakers,omitempty"`
	AutoReactivated *bool            `json:"automaticReactivation,omitempty"`
}

// Staker 质押者
type Staker struct {
	Address         Address      `json:"address"`
	Balance         Coin         `json:"balance"`
	Delegation      *Address     `json:"delegation,omitempty"`
	InactiveBalance Coin         `json:"inactiveBalance"`
	InactiveFrom    *BlockNumber `json:"inactiveFrom,omitempty"`
	RetiredBalance  Coin         `json:"retiredBalance"`
}

// SlashedSlots 被惩罚的槽位
type SlashedSlots struct {
	BlockNumber BlockNumber `json:"blockNumber"`
	LostRewards []uint16    `json:"lostRewards"`
	Disabled    []uint16    `json:"disabled"`
}

// ParkedValidators 被暂停的验证者
type ParkedValidators struct {
	BlockNumber BlockNumber `json:"blockNumber"`
	Validators  []Address   `json:"validators"`
}

// PolicyConstants 共识参数
type PolicyConstants struct {
	StakingContractAddress    Address     `json:"stakingContractAddress"`
	CoinbaseAddress           Address     `json:"coinbaseAddress"`
	TransactionValidityWindow uint32      `json:"transactionValidityWindow"`
	MaxSizeMicroBody          uint32      `json:"maxSizeMicroBody"`
	Version                   uint16      `json:"version"`
	Slots                     uint16      `json:"slots"`
	BlocksPerBatch            uint32      `json:"blocksPerBatch"`
	BatchesPerEpoch           uint16      `json:"batchesPerEpoch"`
	BlocksPerEpoch            uint32      `json:"blocksPerEpoch"`
	ValidatorDeposit          Coin        `json:"validatorDeposit"`
	MinimumStake              Coin        `json:"minimumStake"`
	TotalSupply               Coin        `json:"totalSupply"`
	JailEpochs                uint32      `json:"jailEpochs"`
	GenesisBlockNumber        BlockNumber `json:"genesisBlockNumber"`
}

// MempoolInfo 交易池概况，Buckets 为按手续费分桶的计数
type MempoolInfo struct {
	Total   uint32            `json:"total"`
	Buckets map[string]uint32 `json:"-"`
}

// UnmarshalJSON 除 total 外的字段都是手续费桶
func (m *MempoolInfo) UnmarshalJSON(b []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	*m = MempoolInfo{Buckets: make(map[string]uint32, len(all))}
	for k, v := range all {
		var n uint32
		if err := json.Unmarshal(v, &n); err != nil {
			return err
		}
		if k == "total" {
			m.Total = n
			continue
		}
		m.Buckets[k] = n
	}
	return nil
}

// WalletAccount 新建的钱包账户
type WalletAccount struct {
	Address    Address `json:"address"`
	PublicKey  string  `json:"publicKey"`
	PrivateKey string  `json:"privateKey"`
}

// Signature 签名结果
type Signature struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

// BlockLog 日志订阅通知
type BlockLog struct {
	Type         string          `json:"type"`
	InherentLogs json.RawMessage `json:"inherentLogs,omitempty"`
	TxLogs       json.RawMessage `json:"txLogs,omitempty"`
	Hash         Hash            `json:"hash,omitempty"`
	BlockNumber  BlockNumber     `json:"blockNumber,omitempty"`
}

// LogType 日志类型，用于 subscribeForLogsByAddressesAndTypes
type LogType string

// ZKPState 零知识证明组件状态
type ZKPState struct {
	LatestHeaderHash  Hash        `json:"latestHeaderHash"`
	LatestBlockNumber BlockNumber `json:"latestBlockNumber"`
	LatestProof       string      `json:"latestProof,omitempty"`
}

// ValidityStartHeight 交易生效高度：相对当前高度（"+n"）或绝对高度（"n"）
type ValidityStartHeight string

// RelativeHeight 相对当前高度
func RelativeHeight(n uint32) ValidityStartHeight {
	return ValidityStartHeight("+" + strconv.FormatUint(uint64(n), 10))
}

// AbsoluteHeight 绝对高度
func AbsoluteHeight(n BlockNumber) ValidityStartHeight {
	return ValidityStartHeight(strconv.FormatUint(uint64(n), 10))
}

// HashAlgorithm HTLC 哈希算法
type HashAlgorithm string

const (
	HashBlake2b HashAlgorithm = "blake2b"
	HashSha256  HashAlgorithm = "sha256"
	HashSha512  HashAlgorithm = "sha512"
)
