package blockchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/albatross-rpc/client/core/registry"
	"github.com/weisyn/albatross-rpc/client/core/transport"
	"github.com/weisyn/albatross-rpc/client/core/transport/transporttest"
	"github.com/weisyn/albatross-rpc/client/core/types"
)

func TestGetBlockNumber(t *testing.T) {
	gw := transporttest.New().Respond("getBlockNumber", `1234`)
	s := NewService(gw)

	res, err := s.GetBlockNumber(context.Background())
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, types.BlockNumber(1234), res.Data)
	assert.Equal(t, "getBlockNumber", gw.LastCall().Method)
}

func TestGetBlockBy(t *testing.T) {
	gw := transporttest.New().
		Respond("getBlockByHash", `{"hash":"aa","number":7,"type":"micro"}`).
		Respond("getBlockByNumber", `{"hash":"bb","number":8,"type":"macro","isElectionBlock":true}`)
	s := NewService(gw)
	ctx := context.Background()

	res, err := s.GetBlockBy(ctx, BlockQuery{Hash: "aa"})
	require.NoError(t, err)
	assert.Equal(t, types.BlockNumber(7), res.Data.Number)
	assert.Equal(t, []any{"aa", false}, gw.LastCall().Params)

	n := types.BlockNumber(8)
	res, err = s.GetBlockBy(ctx, BlockQuery{Number: &n, IncludeTransactions: true})
	require.NoError(t, err)
	assert.Equal(t, types.BlockMacro, res.Data.Type)
	assert.True(t, res.Data.IsElectionBlock)
	assert.Equal(t, []any{n, true}, gw.LastCall().Params)

	_, err = s.GetBlockBy(ctx, BlockQuery{})
	assert.ErrorIs(t, err, ErrInvalidQuery)
	_, err = s.GetBlockBy(ctx, BlockQuery{Hash: "aa", Number: &n})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestGetTransactionsBy(t *testing.T) {
	gw := transporttest.New().Respond("getTransactionsByAddress", `[{"hash":"h1","value":5,"fee":1}]`)
	s := NewService(gw)
	ctx := context.Background()

	res, err := s.GetTransactionsBy(ctx, TransactionQuery{Address: "NQ01"})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, types.Coin(5), res.Data[0].Value)
	assert.Equal(t, []any{"NQ01", nil}, gw.LastCall().Params)

	limit := uint16(10)
	_, err = s.GetTransactionHashesByAddress(ctx, "NQ01", &limit)
	require.NoError(t, err)
	assert.Equal(t, "getTransactionHashesByAddress", gw.LastCall().Method)
	assert.Equal(t, []any{"NQ01", limit}, gw.LastCall().Params)

	batch := types.BatchIndex(3)
	_, err = s.GetTransactionsBy(ctx, TransactionQuery{BatchNumber: &batch})
	require.NoError(t, err)
	assert.Equal(t, "getTransactionsByBatchNumber", gw.LastCall().Method)

	_, err = s.GetTransactionsBy(ctx, TransactionQuery{BatchNumber: &batch, Address: "NQ01"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestGetSlotAt(t *testing.T) {
	gw := transporttest.New().Respond("getSlotAt", `{"slotNumber":3,"validator":"NQ02","publicKey":"pk"}`)
	s := NewService(gw)

	res, err := s.GetSlotAt(context.Background(), 100, nil, registry.WithMetadata())
	require.NoError(t, err)
	assert.Equal(t, uint16(3), res.Data.SlotNumber)
	assert.Equal(t, []any{types.BlockNumber(100), nil}, gw.LastCall().Params)
	assert.True(t, gw.LastCall().WithMetadata)
}

func TestErrorIsValue(t *testing.T) {
	gw := transporttest.New().RespondError("getAccountByAddress", -32602, "Invalid params: bad address")
	s := NewService(gw)

	res, err := s.GetAccountBy(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, -32602, res.Error.Code)
}

func TestSubscriptions(t *testing.T) {
	gw := transporttest.New()
	s := NewService(gw)
	ctx := context.Background()

	_, err := s.SubscribeForBlocks(ctx, BlockPartial, transport.DefaultStreamOptions)
	assert.ErrorIs(t, err, transporttest.ErrNoStream)
	assert.Equal(t, "subscribeForHeadBlock", gw.LastSubscription().Method)
	assert.Equal(t, []any{false}, gw.LastSubscription().Params)

	_, err = s.SubscribeForBlockHashes(ctx, transport.DefaultStreamOptions)
	assert.ErrorIs(t, err, transporttest.ErrNoStream)
	assert.Equal(t, "subscribeForHeadBlockHash", gw.LastSubscription().Method)

	_, err = s.SubscribeForLogsByAddressesAndTypes(ctx, nil, nil, transport.DefaultStreamOptions, registry.WithMetadata())
	assert.ErrorIs(t, err, transporttest.ErrNoStream)
	sub := gw.LastSubscription()
	assert.Equal(t, []any{[]types.Address{}, []types.LogType{}}, sub.Params)
	assert.True(t, sub.WithMetadata)
}
