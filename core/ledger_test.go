package core

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps links in memory. Transact serializes callers but does not
// roll back.
type memStore struct {
	txMu    sync.Mutex
	mu      sync.Mutex
	links   map[string]PaymentLink
	records map[string]*TransactionRecord
}

func newMemStore() *memStore {
	return &memStore{links: map[string]PaymentLink{}, records: map[string]*TransactionRecord{}}
}

func (m *memStore) Transact(_ context.Context, fn func(s Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *memStore) CreateLink(_ context.Context, link *PaymentLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[link.Id]; ok {
		return errors.New("duplicate link")
	}
	m.links[link.Id] = *link
	return nil
}

func (m *memStore) GetLink(_ context.Context, id string) (*PaymentLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok {
		return nil, ErrLinkNotFound
	}
	return &link, nil
}

func (m *memStore) ListLinksByCreator(_ context.Context, creator string, limit int) ([]*PaymentLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*PaymentLink
	for _, link := range m.links {
		if StringValue(link.CreatorAddress) == creator && len(list) < limit {
			l := link
			list = append(list, &l)
		}
	}
	return list, nil
}

func (m *memStore) AttachDeposit(_ context.Context, id, ref string, updatedAt int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok || link.DepositTransactionRef != nil {
		return false, nil
	}
	link.DepositTransactionRef = &ref
	link.UpdatedAt = updatedAt
	m.links[id] = link
	return true, nil
}

func (m *memStore) MarkClaimed(_ context.Context, id, claimedBy, withdrawRef string, updatedAt int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok || link.Claimed || link.DepositTransactionRef == nil {
		return false, nil
	}
	link.Claimed = true
	link.ClaimedBy = &claimedBy
	link.WithdrawTransactionRef = &withdrawRef
	link.UpdatedAt = updatedAt
	m.links[id] = link
	return true, nil
}

func (m *memStore) AttachSpendKey(_ context.Context, id string, sealed SealedKey, updatedAt int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok || link.EncryptedSpendKey != nil {
		return false, nil
	}
	link.EncryptedSpendKey = StringPtr(sealed.Ciphertext)
	link.EncryptionIv = StringPtr(sealed.IV)
	link.EncryptionSalt = StringPtr(sealed.Salt)
	link.UpdatedAt = updatedAt
	m.links[id] = link
	return true, nil
}

func (m *memStore) DeleteLink(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[id]; !ok {
		return ErrLinkNotFound
	}
	delete(m.links, id)
	for k, r := range m.records {
		if r.LinkId == id {
			delete(m.records, k)
		}
	}
	return nil
}

func (m *memStore) CreateTransaction(_ context.Context, record *TransactionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.Id]; ok {
		return errors.New("duplicate record")
	}
	m.records[record.Id] = record
	return nil
}

func (m *memStore) ListTransactionsByLink(_ context.Context, linkId string) ([]*TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*TransactionRecord
	for _, r := range m.records {
		if r.LinkId == linkId {
			list = append(list, r)
		}
	}
	return list, nil
}

// bindVault binds the plaintext to the link id without real cryptography.
type bindVault struct{}

func (bindVault) Encrypt(plaintext []byte, linkId string) (SealedKey, error) {
	return SealedKey{
		Ciphertext: base64.StdEncoding.EncodeToString(plaintext),
		IV:         base64.StdEncoding.EncodeToString([]byte(linkId)),
		Salt:       "test",
	}, nil
}

func (bindVault) Decrypt(sealed SealedKey, linkId string) ([]byte, error) {
	if sealed.IV != base64.StdEncoding.EncodeToString([]byte(linkId)) {
		return nil, ErrDecryptionFailed
	}
	return base64.StdEncoding.DecodeString(sealed.Ciphertext)
}

func newTestLedger(t *testing.T) (*Ledger, *memStore, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	store := newMemStore()
	return NewLedger(clk, store, DefaultFeeEngine(), bindVault{}, nil), store, clk
}

func TestLedgerCreate(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	link, err := ledger.Create(ctx, CreateLinkParams{Amount: 100_000_000, AssetType: AssetSOL, CreatorAddress: " creator "})
	require.NoError(t, err)
	assert.NotEmpty(t, link.Id)
	assert.Equal(t, LinkStatePendingDeposit, link.State())
	assert.Equal(t, "creator", StringValue(link.CreatorAddress))
	assert.False(t, link.HasSpendKey())

	got, err := ledger.Get(ctx, link.Id)
	require.NoError(t, err)
	assert.Equal(t, link.Amount, got.Amount)
	assert.Nil(t, got.DepositTransactionRef)
	assert.False(t, got.Claimed)

	_, err = ledger.Create(ctx, CreateLinkParams{Amount: 0, AssetType: AssetSOL})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ledger.Create(ctx, CreateLinkParams{Amount: 1_000, AssetType: AssetSOL})
	assert.ErrorIs(t, err, ErrAmountTooSmall)
	_, err = ledger.Create(ctx, CreateLinkParams{Amount: 100_000_000, AssetType: "DOGE"})
	assert.ErrorIs(t, err, ErrUnsupportedAsset)

	_, err = ledger.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestLedgerRecordDeposit(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	ctx := context.Background()

	link, err := ledger.Create(ctx, CreateLinkParams{Amount: 100_000_000, AssetType: AssetSOL})
	require.NoError(t, err)

	got, err := ledger.RecordDeposit(ctx, link.Id, "sig-1", "payer")
	require.NoError(t, err)
	assert.Equal(t, "sig-1", StringValue(got.DepositTransactionRef))
	assert.Equal(t, LinkStateDeposited, got.State())

	// retry with the same ref is tolerated and appends nothing
	_, err = ledger.RecordDeposit(ctx, link.Id, " sig-1 ", "payer")
	require.NoError(t, err)

	_, err = ledger.RecordDeposit(ctx, link.Id, "sig-2", "payer")
	assert.ErrorIs(t, err, ErrDepositAlreadyRecorded)

	_, err = ledger.RecordDeposit(ctx, link.Id, " ", "payer")
	assert.ErrorIs(t, err, ErrInvalidReference)
	_, err = ledger.RecordDeposit(ctx, "missing", "sig-1", "payer")
	assert.ErrorIs(t, err, ErrLinkNotFound)

	records, err := store.ListTransactionsByLink(ctx, link.Id)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, TransactionTypeDeposit, records[0].Type)
	assert.Equal(t, uint64(100_000_000), records[0].Amount)
	assert.Equal(t, "payer", records[0].CounterpartyAddress)
}

func TestLedgerClaim(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	link, err := ledger.Create(ctx, CreateLinkParams{Amount: 100_000_000, AssetType: AssetSOL})
	require.NoError(t, err)

	_, err = ledger.Claim(ctx, link.Id, "recipient", "wd-1")
	assert.ErrorIs(t, err, ErrDepositMissing)

	_, err = ledger.RecordDeposit(ctx, link.Id, "sig-1", "payer")
	require.NoError(t, err)

	_, err = ledger.Claim(ctx, link.Id, "", "wd-1")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	_, err = ledger.Claim(ctx, link.Id, "recipient", "")
	assert.ErrorIs(t, err, ErrInvalidReference)

	result, err := ledger.Claim(ctx, link.Id, "recipient", "wd-1")
	require.NoError(t, err)
	assert.True(t, result.Link.Claimed)
	assert.Equal(t, LinkStateClaimed, result.Link.State())
	assert.Equal(t, uint64(93_650_000), result.Fee.NetAmount)
	assert.Equal(t, uint64(93_650_000), result.Record.Amount)
	assert.Equal(t, TransactionTypeWithdraw, result.Record.Type)

	got, err := ledger.Get(ctx, link.Id)
	require.NoError(t, err)
	assert.True(t, got.Claimed)
	assert.Equal(t, "recipient", StringValue(got.ClaimedBy))
	assert.Equal(t, "wd-1", StringValue(got.WithdrawTransactionRef))

	_, err = ledger.Claim(ctx, link.Id, "someone-else", "wd-2")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	_, err = ledger.Claim(ctx, "missing", "recipient", "wd-1")
	assert.ErrorIs(t, err, ErrLinkNotFound)

	txs, err := ledger.Transactions(ctx, link.Id)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestLedgerClaimKeepsQuotedFee(t *testing.T) {
	_, store, clk := newTestLedger(t)
	ctx := context.Background()

	quoted := NewLedger(clk, store, DefaultFeeEngine(), bindVault{}, nil)
	link, err := quoted.Create(ctx, CreateLinkParams{Amount: 7_000_000, AssetType: AssetSOL})
	require.NoError(t, err)
	assert.Equal(t, uint64(DEFAULT_SOL_BASE_FEE), link.BaseFee)
	assert.Equal(t, uint64(24_500), link.PercentageFee)
	_, err = quoted.RecordDeposit(ctx, link.Id, "sig-1", "payer")
	require.NoError(t, err)

	// operator raises the base fee above the link amount before the claim
	raised := DefaultFeeEngine()
	sol := raised.Schedules[AssetSOL]
	sol.BaseFee = 8_000_000
	raised.Schedules[AssetSOL] = sol
	_, err = raised.ComputeFee(link.Amount, AssetSOL)
	require.ErrorIs(t, err, ErrAmountTooSmall)

	result, err := NewLedger(clk, store, raised, bindVault{}, nil).Claim(ctx, link.Id, "recipient", "wd-1")
	require.NoError(t, err)
	assert.Equal(t, LinkStateClaimed, result.Link.State())
	assert.Equal(t, uint64(DEFAULT_SOL_BASE_FEE+24_500), result.Fee.TotalFee)
	assert.Equal(t, uint64(7_000_000-DEFAULT_SOL_BASE_FEE-24_500), result.Record.Amount)

	// dropping the asset schedule does not block the claim either
	usdc, err := quoted.Create(ctx, CreateLinkParams{Amount: 20_000_000, AssetType: AssetUSDC})
	require.NoError(t, err)
	_, err = quoted.RecordDeposit(ctx, usdc.Id, "sig-2", "payer")
	require.NoError(t, err)
	dropped := DefaultFeeEngine()
	delete(dropped.Schedules, AssetUSDC)
	result, err = NewLedger(clk, store, dropped, bindVault{}, nil).Claim(ctx, usdc.Id, "recipient", "wd-2")
	require.NoError(t, err)
	assert.Equal(t, usdc.Fee().NetAmount, result.Record.Amount)
}

func TestLedgerConcurrentClaim(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	ctx := context.Background()

	link, err := ledger.Create(ctx, CreateLinkParams{Amount: LAMPORTS_PER_SOL, AssetType: AssetSOL})
	require.NoError(t, err)
	_, err = ledger.RecordDeposit(ctx, link.Id, "sig-1", "payer")
	require.NoError(t, err)

	const n = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		claimed int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ledger.Claim(ctx, link.Id, "recipient", "wd")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrAlreadyClaimed):
				claimed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, n-1, claimed)

	records, err := store.ListTransactionsByLink(ctx, link.Id)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLedgerSpendKey(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()
	secret := []byte("spend-key-bytes")

	link, err := ledger.Create(ctx, CreateLinkParams{Amount: 100_000_000, AssetType: AssetSOL, SpendKey: secret})
	require.NoError(t, err)
	assert.True(t, link.HasSpendKey())
	assert.Nil(t, link.Public().EncryptedSpendKey)

	got, err := ledger.RevealSpendKey(ctx, link.Id)
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	assert.ErrorIs(t, ledger.AttachSpendKey(ctx, link.Id, secret), ErrSpendKeyAlreadySet)

	bare, err := ledger.Create(ctx, CreateLinkParams{Amount: 100_000_000, AssetType: AssetSOL})
	require.NoError(t, err)
	_, err = ledger.RevealSpendKey(ctx, bare.Id)
	assert.ErrorIs(t, err, ErrSpendKeyMissing)
	assert.ErrorIs(t, ledger.AttachSpendKey(ctx, bare.Id, nil), ErrSpendKeyMissing)

	require.NoError(t, ledger.AttachSpendKey(ctx, bare.Id, secret))
	got, err = ledger.RevealSpendKey(ctx, bare.Id)
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	noVault := NewLedger(clock.NewMock(), newMemStore(), nil, nil, nil)
	_, err = noVault.Create(ctx, CreateLinkParams{Amount: 100_000_000, AssetType: AssetSOL, SpendKey: secret})
	assert.ErrorIs(t, err, ErrVaultUnavailable)
}

func TestLedgerListAndDelete(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ledger.Create(ctx, CreateLinkParams{Amount: 100_000_000, AssetType: AssetSOL, CreatorAddress: "alice"})
		require.NoError(t, err)
	}
	other, err := ledger.Create(ctx, CreateLinkParams{Amount: 100_000_000, AssetType: AssetSOL, CreatorAddress: "bob"})
	require.NoError(t, err)

	links, err := ledger.ListByCreator(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Len(t, links, 3)

	links, err = ledger.ListByCreator(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	_, err = ledger.ListByCreator(ctx, "", 10)
	assert.ErrorIs(t, err, ErrInvalidCreator)
	assert.EqualError(t, err, "invalid creator address")

	require.NoError(t, ledger.Delete(ctx, other.Id))
	_, err = ledger.Get(ctx, other.Id)
	assert.ErrorIs(t, err, ErrLinkNotFound)
	assert.ErrorIs(t, ledger.Delete(ctx, other.Id), ErrLinkNotFound)

	_, err = ledger.Transactions(ctx, other.Id)
	assert.ErrorIs(t, err, ErrLinkNotFound)
}
