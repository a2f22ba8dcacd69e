package scanner

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/feescope/internal/compress"
	"github.com/manifest-network/feescope/internal/models"
)

type stubClient struct {
	mu       sync.Mutex
	blocks   map[uint64]*types.Block
	head     uint64
	failures map[uint64]int
	calls    int
}

func (s *stubClient) BlockByNumber(_ context.Context, number *big.Int) (*types.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	height := s.head
	if number != nil {
		height = number.Uint64()
	}
	if s.failures[height] > 0 {
		s.failures[height]--
		return nil, errors.New("transient rpc failure")
	}
	block, ok := s.blocks[height]
	if !ok {
		return nil, errors.New("block not found")
	}
	return block, nil
}

func (s *stubClient) Close() {}

func makeLegacyTx(nonce uint64, payload int) *types.Transaction {
	to := common.HexToAddress("0x00000000000000000000000000000000deadbeef")
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: big.NewInt(1_000_000_000),
		Gas:      21_000,
		To:       &to,
		Value:    big.NewInt(1),
		Data:     bytes.Repeat([]byte{0xab, 0x00}, payload),
	})
}

func makeBlock(number uint64, txs ...*types.Transaction) *types.Block {
	header := &types.Header{
		Number:   new(big.Int).SetUint64(number),
		GasLimit: 30_000_000,
		GasUsed:  21_000 * uint64(len(txs)),
	}
	return types.NewBlock(header, &types.Body{Transactions: txs}, nil, trie.NewStackTrie(nil))
}

func newStub(head uint64, blocks ...*types.Block) *stubClient {
	s := &stubClient{
		blocks:   make(map[uint64]*types.Block),
		head:     head,
		failures: make(map[uint64]int),
	}
	for _, b := range blocks {
		s.blocks[b.NumberU64()] = b
	}
	return s
}

func stubDialer(s *stubClient) Dialer {
	return func(context.Context) (BlockClient, error) {
		return s, nil
	}
}

func TestRunProducesRecordsInDescendingOrder(t *testing.T) {
	stub := newStub(10,
		makeBlock(8, makeLegacyTx(0, 50), makeLegacyTx(1, 50)),
		makeBlock(9, makeLegacyTx(2, 50), makeLegacyTx(3, 50)),
		makeBlock(10, makeLegacyTx(4, 50), makeLegacyTx(5, 50)),
	)

	var buf bytes.Buffer
	cfg := Config{StartBlock: 10, EndBlock: 7, Fetchers: 1}
	require.NoError(t, Run(context.Background(), stubDialer(stub), cfg, &buf))

	records, err := models.ReadTxSizeRecords(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, records, 6)

	want := []uint32{10, 10, 9, 9, 8, 8}
	for i, rec := range records {
		assert.Equal(t, want[i], rec.Block)
		assert.NotZero(t, rec.FastLZ)
		assert.NotZero(t, rec.NonZeroes)
	}
}

func TestRunResolvesHeadStartBlock(t *testing.T) {
	stub := newStub(5,
		makeBlock(4, makeLegacyTx(0, 20)),
		makeBlock(5, makeLegacyTx(1, 20)),
	)

	var buf bytes.Buffer
	cfg := Config{StartBlock: -1, EndBlock: 3, Fetchers: 1}
	require.NoError(t, Run(context.Background(), stubDialer(stub), cfg, &buf))

	records, err := models.ReadTxSizeRecords(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint32(5), records[0].Block)
	assert.Equal(t, uint32(4), records[1].Block)
}

func TestRunRejectsEmptyRange(t *testing.T) {
	stub := newStub(5, makeBlock(5))
	var buf bytes.Buffer
	err := Run(context.Background(), stubDialer(stub), Config{StartBlock: 5, EndBlock: 5}, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not above")
}

func TestRunBootstrapSkipsEarlyTransactions(t *testing.T) {
	stub := newStub(3,
		makeBlock(2, makeLegacyTx(0, 30)),
		makeBlock(3, makeLegacyTx(1, 30), makeLegacyTx(2, 30)),
	)

	var buf bytes.Buffer
	cfg := Config{StartBlock: 3, EndBlock: 1, Fetchers: 1, BootstrapTxs: 2}
	require.NoError(t, Run(context.Background(), stubDialer(stub), cfg, &buf))

	records, err := models.ReadTxSizeRecords(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint32(2), records[0].Block)
}

func TestFetchWithRetryRecoversFromTransientFailures(t *testing.T) {
	stub := newStub(7, makeBlock(7, makeLegacyTx(0, 10)))
	stub.failures[7] = 2

	block, err := fetchWithRetry(context.Background(), stub, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), block.NumberU64())
	assert.Equal(t, 3, stub.calls)
}

func TestFetchWithRetryGivesUp(t *testing.T) {
	stub := newStub(7, makeBlock(7))
	stub.failures[7] = 10

	_, err := fetchWithRetry(context.Background(), stub, 7, 2)
	require.Error(t, err)
	assert.Equal(t, 3, stub.calls)
}

func TestMeasureTxTrimsSignature(t *testing.T) {
	estimator, err := compress.NewZlibBatchEstimator()
	require.NoError(t, err)

	tx := makeLegacyTx(0, 200)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	require.Greater(t, len(raw), 68)

	bootstrap := 0
	rec, ok, err := measureTx(1, tx, estimator, &bootstrap, true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(len(raw)-68), rec.Zeroes+rec.NonZeroes)
	assert.Equal(t, compress.FlzCompressLen(raw[:len(raw)-68]), rec.FastLZ)
}
