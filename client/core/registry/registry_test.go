package registry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/albatross-rpc/client/core/transport"
)

type fakeCaller struct {
	req    transport.CallRequest
	opts   transport.CallOptions
	result *transport.CallResult
}

func (f *fakeCaller) Call(_ context.Context, req transport.CallRequest, opts transport.CallOptions) (*transport.CallResult, error) {
	f.req, f.opts = req, opts
	res := *f.result
	res.Context.Body.Method = req.Method
	return &res, nil
}

func TestLookup(t *testing.T) {
	m, err := Lookup("getBlockByHash")
	require.NoError(t, err)
	assert.Equal(t, AreaBlockchain, m.Area)
	assert.Equal(t, KindCall, m.Kind)
	assert.Equal(t, 1, m.Required())
	assert.Equal(t, "getBlockByHash(hash, includeTransactions?)", m.Signature())

	_, err = Lookup("getFoo")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestAll(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)

	seen := map[string]bool{}
	for i, m := range all {
		assert.False(t, seen[m.Name], m.Name)
		seen[m.Name] = true
		if i > 0 && all[i-1].Area == m.Area {
			assert.Less(t, all[i-1].Name, m.Name)
		}
	}
	for _, name := range []string{
		"subscribeForHeadBlock",
		"subscribeForHeadBlockHash",
		"subscribeForValidatorElectionByAddress",
		"subscribeForLogsByAddressesAndTypes",
		"createUpdateValidatorTransaction",
		"sendDeleteValidatorTransaction",
		"signRedeemEarlyHtlcTransaction",
		"getZkpState",
	} {
		assert.True(t, seen[name], name)
	}
}

func TestMethod_CallRequest(t *testing.T) {
	m, err := Lookup("getTransactionsByAddress")
	require.NoError(t, err)

	req, err := m.CallRequest(true, "NQ07 0000")
	require.NoError(t, err)
	assert.Equal(t, "getTransactionsByAddress", req.Method)
	assert.True(t, req.WithMetadata)
	assert.Equal(t, []any{"NQ07 0000", nil}, req.Params)

	_, err = m.CallRequest(false)
	assert.ErrorIs(t, err, ErrArity)

	_, err = m.CallRequest(false, "a", 1, 2)
	assert.ErrorIs(t, err, ErrArity)

	sub, err := Lookup("subscribeForHeadBlock")
	require.NoError(t, err)
	_, err = sub.CallRequest(false, true)
	assert.ErrorIs(t, err, ErrKind)

	sreq, err := sub.SubscriptionRequest(false, true)
	require.NoError(t, err)
	assert.Equal(t, []any{true}, sreq.Params)

	_, err = m.SubscriptionRequest(false, "a")
	assert.ErrorIs(t, err, ErrKind)
}

func TestInvokeAs(t *testing.T) {
	f := &fakeCaller{result: &transport.CallResult{Data: json.RawMessage(`42`)}}

	res, err := InvokeAs[uint32](context.Background(), f, "getBlockNumber", []Option{WithTimeout(time.Second)})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.NoError(t, res.Err())
	assert.Equal(t, uint32(42), res.Data)
	assert.Nil(t, res.Metadata)
	assert.Equal(t, time.Second, f.opts.Timeout)
	assert.Empty(t, f.req.Params)

	_, err = InvokeAs[uint32](context.Background(), f, "getBlockNumber", nil, 1)
	assert.ErrorIs(t, err, ErrArity)
}

func TestInvokeAs_Metadata(t *testing.T) {
	f := &fakeCaller{result: &transport.CallResult{
		Data:     json.RawMessage(`{"data":true,"metadata":{"blockNumber":9,"blockHash":"ab"}}`),
		Metadata: json.RawMessage(`{"blockNumber":9,"blockHash":"ab"}`),
	}}

	res, err := InvokeAs[bool](context.Background(), f, "isConsensusEstablished", []Option{WithMetadata()})
	require.NoError(t, err)
	assert.True(t, f.req.WithMetadata)
	assert.True(t, res.Data)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, uint32(9), res.Metadata.BlockNumber)
}

func TestInvokeAs_ErrorValue(t *testing.T) {
	f := &fakeCaller{result: &transport.CallResult{Error: transport.NewCallError(-32601, "Method not found: null")}}

	res, err := InvokeAs[uint32](context.Background(), f, "getBlockNumber", nil)
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, -32601, res.Error.Code)

	var cerr *transport.CallError
	assert.ErrorAs(t, res.Err(), &cerr)
}

func TestInvokeAs_DecodeMismatch(t *testing.T) {
	f := &fakeCaller{result: &transport.CallResult{Data: json.RawMessage(`"not a number"`)}}

	_, err := InvokeAs[uint32](context.Background(), f, "getBlockNumber", nil)
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	even := Filter[int](false, func(n int) bool { return n%2 == 0 })
	assert.True(t, even(json.RawMessage(`2`)))
	assert.False(t, even(json.RawMessage(`3`)))
	assert.False(t, even(json.RawMessage(`"x"`)))

	withMeta := Filter[int](true, func(n int) bool { return n > 1 })
	assert.True(t, withMeta(json.RawMessage(`{"data":5,"metadata":null}`)))
	assert.False(t, withMeta(json.RawMessage(`{"data":1,"metadata":null}`)))

	assert.Nil(t, Filter[int](false, nil))
}

func TestDecodeNotification(t *testing.T) {
	n := decodeNotification[string](transport.StreamNotification{
		Data:     json.RawMessage(`{"data":"hash","metadata":{"blockNumber":3,"blockHash":"cd"}}`),
		Metadata: json.RawMessage(`{"blockNumber":3,"blockHash":"cd"}`),
	}, true)
	require.Nil(t, n.Error)
	assert.Equal(t, "hash", n.Data)
	assert.Equal(t, "cd", n.Metadata.BlockHash)

	n = decodeNotification[string](transport.StreamNotification{Data: json.RawMessage(`7`)}, false)
	require.NotNil(t, n.Error)
	assert.Equal(t, transport.CodeMalformedFrame, n.Error.Code)

	n = decodeNotification[string](transport.StreamNotification{Error: transport.NewCallError(1000, "reset")}, false)
	assert.Equal(t, 1000, n.Error.Code)
}
