package registry

// 功能区域
const (
	AreaBlockchain = "blockchain"
	AreaConsensus  = "consensus"
	AreaMempool    = "mempool"
	AreaNetwork    = "network"
	AreaPolicy     = "policy"
	AreaValidator  = "validator"
	AreaWallet     = "wallet"
	AreaZKP        = "zkp"
)

// 交易构建参数的公共尾部
var (
	txTail     = []string{"value", "fee", "validityStartHeight"}
	txFeeTail  = []string{"fee", "validityStartHeight"}
	htlcRedeem = []string{"wallet", "contractAddress", "recipient", "preImage", "hashRoot", "hashCount", "hashAlgorithm", "value", "fee", "validityStartHeight"}
)

func with(head []string, tail ...string) []string {
	out := make([]string, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

// transaction 同时注册 create 与 send 两个变体
func transaction(name, result string, params ...string) []Method {
	return []Method{
		call(AreaConsensus, "create"+name, "RawTransaction", params...),
		call(AreaConsensus, "send"+name, result, params...),
	}
}

var methods = func() []Method {
	out := []Method{
		// blockchain
		call(AreaBlockchain, "getBlockNumber", "BlockNumber"),
		call(AreaBlockchain, "getBatchNumber", "BatchIndex"),
		call(AreaBlockchain, "getEpochNumber", "EpochIndex"),
		call(AreaBlockchain, "getBlockByHash", "Block", "hash", "includeTransactions?"),
		call(AreaBlockchain, "getBlockByNumber", "Block", "blockNumber", "includeTransactions?"),
		call(AreaBlockchain, "getLatestBlock", "Block", "includeTransactions?"),
		call(AreaBlockchain, "getSlotAt", "Slot", "blockNumber", "offsetOpt?"),
		call(AreaBlockchain, "getTransactionByHash", "Transaction", "hash"),
		call(AreaBlockchain, "getTransactionsByBlockNumber", "[]Transaction", "blockNumber"),
		call(AreaBlockchain, "getTransactionsByBatchNumber", "[]Transaction", "batchNumber"),
		call(AreaBlockchain, "getTransactionHashesByAddress", "[]Hash", "address", "max?"),
		call(AreaBlockchain, "getTransactionsByAddress", "[]Transaction", "address", "max?"),
		call(AreaBlockchain, "getInherentsByBlockNumber", "[]Inherent", "blockNumber"),
		call(AreaBlockchain, "getInherentsByBatchNumber", "[]Inherent", "batchNumber"),
		call(AreaBlockchain, "getAccountByAddress", "Account", "address"),
		call(AreaBlockchain, "getActiveValidators", "[]Validator"),
		call(AreaBlockchain, "getCurrentSlashedSlots", "SlashedSlots"),
		call(AreaBlockchain, "getPreviousSlashedSlots", "SlashedSlots"),
		call(AreaBlockchain, "getParkedValidators", "ParkedValidators"),
		call(AreaBlockchain, "getValidatorByAddress", "Validator", "address", "includeStakers?"),
		call(AreaBlockchain, "getStakerByAddress", "Staker", "address"),
		subscription(AreaBlockchain, "subscribeForHeadBlock", "Block", "includeTransactions"),
		subscription(AreaBlockchain, "subscribeForHeadBlockHash", "Hash"),
		subscription(AreaBlockchain, "subscribeForValidatorElectionByAddress", "Validator", "address"),
		subscription(AreaBlockchain, "subscribeForLogsByAddressesAndTypes", "BlockLog", "addresses", "logTypes"),

		// consensus
		call(AreaConsensus, "isConsensusEstablished", "bool"),
		call(AreaConsensus, "getRawTransactionInfo", "Transaction", "rawTransaction"),

		// mempool
		call(AreaMempool, "pushTransaction", "Hash", "transaction"),
		call(AreaMempool, "pushHighPriorityTransaction", "Hash", "transaction"),
		call(AreaMempool, "mempoolContent", "[]Transaction", "includeTransactions?"),
		call(AreaMempool, "mempool", "MempoolInfo"),
		call(AreaMempool, "getMinFeePerByte", "number"),

		// network
		call(AreaNetwork, "getPeerId", "string"),
		call(AreaNetwork, "getPeerCount", "number"),
		call(AreaNetwork, "getPeerList", "[]string"),

		// policy
		call(AreaPolicy, "getPolicyConstants", "PolicyConstants"),
		call(AreaPolicy, "getEpochAt", "EpochIndex", "blockNumber"),
		call(AreaPolicy, "getEpochIndexAt", "EpochIndex", "blockNumber"),
		call(AreaPolicy, "getBatchAt", "BatchIndex", "blockNumber"),
		call(AreaPolicy, "getBatchIndexAt", "BatchIndex", "blockNumber"),
		call(AreaPolicy, "getElectionBlockAfter", "BlockNumber", "blockNumber"),
		call(AreaPolicy, "getElectionBlockBefore", "BlockNumber", "blockNumber"),
		call(AreaPolicy, "getLastElectionBlock", "BlockNumber", "blockNumber"),
		call(AreaPolicy, "getIsElectionBlockAt", "bool", "blockNumber"),
		call(AreaPolicy, "getMacroBlockAfter", "BlockNumber", "blockNumber"),
		call(AreaPolicy, "getMacroBlockBefore", "BlockNumber", "blockNumber"),
		call(AreaPolicy, "getLastMacroBlock", "BlockNumber", "blockNumber"),
		call(AreaPolicy, "getIsMacroBlockAt", "bool", "blockNumber"),
		call(AreaPolicy, "getIsMicroBlockAt", "bool", "blockNumber"),
		call(AreaPolicy, "getFirstBlockOf", "BlockNumber", "epochIndex"),
		call(AreaPolicy, "getFirstBlockOfBatch", "BlockNumber", "batchIndex"),
		call(AreaPolicy, "getElectionBlockOf", "BlockNumber", "epochIndex"),
		call(AreaPolicy, "getMacroBlockOf", "BlockNumber", "batchIndex"),
		call(AreaPolicy, "getFirstBatchOfEpoch", "bool", "blockNumber"),
		call(AreaPolicy, "getSupplyAt", "Coin", "genesisSupply", "genesisTime", "currentTime"),

		// validator
		call(AreaValidator, "getAddress", "Address"),
		call(AreaValidator, "getSigningKey", "string"),
		call(AreaValidator, "getVotingKey", "string"),
		call(AreaValidator, "setAutomaticReactivation", "null", "automaticReactivation"),

		// wallet
		call(AreaWallet, "importRawKey", "Address", "keyData", "passphrase?"),
		call(AreaWallet, "isAccountImported", "bool", "address"),
		call(AreaWallet, "listAccounts", "[]Address"),
		call(AreaWallet, "lockAccount", "null", "address"),
		call(AreaWallet, "createAccount", "WalletAccount", "passphrase?"),
		call(AreaWallet, "unlockAccount", "bool", "address", "passphrase?", "duration?"),
		call(AreaWallet, "isAccountLocked", "bool", "address"),
		call(AreaWallet, "sign", "Signature", "message", "address", "passphrase", "isHex"),
		call(AreaWallet, "verifySignature", "bool", "message", "publicKey", "signature", "isHex"),

		// zkp
		call(AreaZKP, "getZkpState", "ZKPState"),
	}

	basic := []string{"wallet", "recipient"}
	groups := [][]Method{
		transaction("BasicTransaction", "Hash", with(basic, txTail...)...),
		transaction("BasicTransactionWithData", "Hash", with(basic, with([]string{"data"}, txTail...)...)...),

		transaction("NewVestingTransaction", "Hash", with([]string{"wallet", "owner", "startTime", "timeStep", "numSteps"}, txTail...)...),
		transaction("RedeemVestingTransaction", "Hash", with([]string{"wallet", "contractAddress", "recipient"}, txTail...)...),

		transaction("NewHtlcTransaction", "Hash", with([]string{"wallet", "htlcSender", "htlcRecipient", "hashRoot", "hashCount", "hashAlgorithm", "timeout"}, txTail...)...),
		transaction("RedeemRegularHtlcTransaction", "Hash", htlcRedeem...),
		transaction("RedeemTimeoutHtlcTransaction", "Hash", with([]string{"wallet", "contractAddress", "recipient"}, txTail...)...),
		transaction("RedeemEarlyHtlcTransaction", "Hash", with([]string{"wallet", "htlcAddress", "recipient", "htlcSenderSignature", "htlcRecipientSignature"}, txTail...)...),

		transaction("NewStakerTransaction", "Hash", with([]string{"senderWallet", "staker", "delegation"}, txTail...)...),
		transaction("StakeTransaction", "Hash", with([]string{"senderWallet", "staker"}, txTail...)...),
		transaction("UpdateStakerTransaction", "Hash", with([]string{"senderWallet", "staker", "newDelegation"}, txFeeTail...)...),
		transaction("UnstakeTransaction", "Hash", with([]string{"staker", "recipient"}, txTail...)...),

		transaction("NewValidatorTransaction", "Hash", with([]string{"senderWallet", "validator", "signingSecretKey", "votingSecretKey", "rewardAddress", "signalData"}, txFeeTail...)...),
		transaction("UpdateValidatorTransaction", "Hash", with([]string{"senderWallet", "validator", "newSigningSecretKey", "newVotingSecretKey", "newRewardAddress", "newSignalData"}, txFeeTail...)...),
		transaction("InactivateValidatorTransaction", "Hash", with([]string{"senderWallet", "validator", "signingSecretKey"}, txFeeTail...)...),
		transaction("ReactivateValidatorTransaction", "Hash", with([]string{"senderWallet", "validator", "signingSecretKey"}, txFeeTail...)...),
		transaction("UnparkValidatorTransaction", "Hash", with([]string{"senderWallet", "validator", "signingSecretKey"}, txFeeTail...)...),
		transaction("DeleteValidatorTransaction", "Hash", "senderWallet", "validator", "fee", "value", "validityStartHeight"),
		{call(AreaConsensus, "signRedeemEarlyHtlcTransaction", "Signature", with([]string{"wallet", "htlcAddress", "recipient"}, txTail...)...)},
	}
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}()
