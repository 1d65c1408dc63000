package registry

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerorg/libticker-go/identity"
	"github.com/tickerorg/libticker-go/ledger"
)

type testEnv struct {
	ledger   *ledger.Ledger
	registry *Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return &testEnv{ledger: l, registry: New(l)}
}

func (env *testEnv) fundedKeyPair(t *testing.T, amount uint64) *identity.KeyPair {
	t.Helper()
	kp, err := identity.NewKeyPair()
	require.NoError(t, err)
	require.NoError(t, env.ledger.Update(func(tx *ledger.Tx) error {
		return tx.Deposit(kp.ID(), amount)
	}))
	return kp
}

func (env *testEnv) balance(t *testing.T, id identity.ID) uint64 {
	t.Helper()
	var bal uint64
	require.NoError(t, env.ledger.View(func(tx *ledger.Tx) error {
		bal = tx.Balance(id)
		return nil
	}))
	return bal
}

func sign(t *testing.T, kp *identity.KeyPair, digest [32]byte) *ec.Signature {
	t.Helper()
	sig, err := kp.Sign(digest)
	require.NoError(t, err)
	return sig
}

func (env *testEnv) register(t *testing.T, owner *identity.KeyPair, ticker string) (*TickerRegistration, identity.ID) {
	t.Helper()
	feeKP, err := identity.NewKeyPair()
	require.NoError(t, err)
	req := &RegisterRequest{
		Ticker:       ticker,
		TargetURL:    "https://example.com/" + ticker,
		Description:  "test ticker",
		Owner:        owner.ID(),
		FeeRecipient: feeKP.ID(),
	}
	reg, err := env.registry.Register(req, sign(t, owner, req.Digest()))
	require.NoError(t, err)
	return reg, feeKP.ID()
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee+500)
	feeKP, err := identity.NewKeyPair()
	require.NoError(t, err)

	req := &RegisterRequest{
		Ticker:          "ABC",
		TargetURL:       "https://example.com/abc",
		Description:     "An example ticker",
		ContractAddress: "0xdeadbeef",
		Owner:           owner.ID(),
		FeeRecipient:    feeKP.ID(),
	}
	reg, err := env.registry.Register(req, sign(t, owner, req.Digest()))
	require.NoError(t, err)

	assert.Equal(t, owner.ID(), reg.Owner)
	assert.Equal(t, "ABC", reg.Ticker)
	assert.False(t, reg.IsForSale)
	assert.Zero(t, reg.Price)
	assert.NotZero(t, reg.CreatedAt)

	// Registration fee moved from owner to the fee recipient.
	assert.Equal(t, uint64(500), env.balance(t, owner.ID()))
	assert.Equal(t, RegistrationFee, env.balance(t, feeKP.ID()))

	// Record is durable and readable.
	stored, err := env.registry.Get("ABC")
	require.NoError(t, err)
	assert.Equal(t, reg, stored)
}

func TestRegister_DuplicateSymbol(t *testing.T) {
	env := newTestEnv(t)
	first := env.fundedKeyPair(t, RegistrationFee)
	second := env.fundedKeyPair(t, RegistrationFee)

	env.register(t, first, "ABC")

	feeKP, err := identity.NewKeyPair()
	require.NoError(t, err)
	req := &RegisterRequest{
		Ticker:       "ABC",
		TargetURL:    "https://other.example.com",
		Description:  "squatter",
		Owner:        second.ID(),
		FeeRecipient: feeKP.ID(),
	}
	_, err = env.registry.Register(req, sign(t, second, req.Digest()))
	assert.ErrorIs(t, err, ledger.ErrRecordExists)

	// The aborted transaction must not have taken the fee.
	assert.Equal(t, RegistrationFee, env.balance(t, second.ID()))

	// First registration is untouched.
	stored, err := env.registry.Get("ABC")
	require.NoError(t, err)
	assert.Equal(t, first.ID(), stored.Owner)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)

	tests := []struct {
		name string
		mod  func(*RegisterRequest)
		want error
	}{
		{"ticker too long", func(r *RegisterRequest) { r.Ticker = strings.Repeat("T", MaxTickerLen+1) }, ErrTickerTooLong},
		{"url too long", func(r *RegisterRequest) { r.TargetURL = strings.Repeat("u", MaxTargetURLLen+1) }, ErrURLTooLong},
		{"description too long", func(r *RegisterRequest) { r.Description = strings.Repeat("d", MaxDescriptionLen+1) }, ErrDescriptionTooLong},
		{"contract too long", func(r *RegisterRequest) { r.ContractAddress = strings.Repeat("c", MaxContractAddressLen+1) }, ErrContractAddressTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &RegisterRequest{
				Ticker:      "OK",
				TargetURL:   "https://example.com",
				Description: "ok",
				Owner:       owner.ID(),
			}
			tt.mod(req)
			_, err := env.registry.Register(req, sign(t, owner, req.Digest()))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister_BadSignature(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	imposter := env.fundedKeyPair(t, RegistrationFee)

	req := &RegisterRequest{
		Ticker:    "ABC",
		TargetURL: "https://example.com",
		Owner:     owner.ID(),
	}
	_, err := env.registry.Register(req, sign(t, imposter, req.Digest()))
	assert.ErrorIs(t, err, identity.ErrBadSignature)
}

func TestRegister_InsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee-1)

	req := &RegisterRequest{
		Ticker:    "ABC",
		TargetURL: "https://example.com",
		Owner:     owner.ID(),
	}
	_, err := env.registry.Register(req, sign(t, owner, req.Digest()))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// No record was allocated.
	_, err = env.registry.Get("ABC")
	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)
}

func strPtr(s string) *string { return &s }

func TestUpdate(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	env.register(t, owner, "ABC")

	req := &UpdateRequest{
		Ticker:    "ABC",
		Owner:     owner.ID(),
		TargetURL: strPtr("https://new.example.com"),
	}
	reg, err := env.registry.Update(req, sign(t, owner, req.Digest()))
	require.NoError(t, err)

	// Only the supplied field changed.
	assert.Equal(t, "https://new.example.com", reg.TargetURL)
	assert.Equal(t, "test ticker", reg.Description)
}

func TestUpdate_ContractAddressNeverCleared(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	env.register(t, owner, "ABC")

	set := &UpdateRequest{Ticker: "ABC", Owner: owner.ID(), ContractAddress: strPtr("0xabc")}
	reg, err := env.registry.Update(set, sign(t, owner, set.Digest()))
	require.NoError(t, err)
	assert.Equal(t, "0xabc", reg.ContractAddress)

	clearReq := &UpdateRequest{Ticker: "ABC", Owner: owner.ID(), ContractAddress: strPtr("")}
	reg, err = env.registry.Update(clearReq, sign(t, owner, clearReq.Digest()))
	require.NoError(t, err)
	assert.Equal(t, "0xabc", reg.ContractAddress)

	overwrite := &UpdateRequest{Ticker: "ABC", Owner: owner.ID(), ContractAddress: strPtr("0xdef")}
	reg, err = env.registry.Update(overwrite, sign(t, owner, overwrite.Digest()))
	require.NoError(t, err)
	assert.Equal(t, "0xdef", reg.ContractAddress)
}

func TestUpdate_NotOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	other := env.fundedKeyPair(t, RegistrationFee)
	env.register(t, owner, "ABC")

	req := &UpdateRequest{
		Ticker:      "ABC",
		Owner:       other.ID(),
		Description: strPtr("hijacked"),
	}
	_, err := env.registry.Update(req, sign(t, other, req.Digest()))
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestListForSale(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	env.register(t, owner, "ABC")

	req := &ListForSaleRequest{Ticker: "ABC", Owner: owner.ID(), Price: 1000}
	reg, err := env.registry.ListForSale(req, sign(t, owner, req.Digest()))
	require.NoError(t, err)
	assert.True(t, reg.IsForSale)
	assert.Equal(t, uint64(1000), reg.Price)
}

func TestListForSale_ZeroPriceAccepted(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	env.register(t, owner, "ABC")

	req := &ListForSaleRequest{Ticker: "ABC", Owner: owner.ID(), Price: 0}
	reg, err := env.registry.ListForSale(req, sign(t, owner, req.Digest()))
	require.NoError(t, err)
	assert.True(t, reg.IsForSale)
	assert.Zero(t, reg.Price)

	// Free transfer to the first buyer.
	buyer := env.fundedKeyPair(t, 0)
	buy := &BuyRequest{Ticker: "ABC", Buyer: buyer.ID()}
	reg, err = env.registry.Buy(buy, sign(t, buyer, buy.Digest()))
	require.NoError(t, err)
	assert.Equal(t, buyer.ID(), reg.Owner)
}

func TestBuy(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	buyer := env.fundedKeyPair(t, 1500)
	env.register(t, owner, "ABC")

	list := &ListForSaleRequest{Ticker: "ABC", Owner: owner.ID(), Price: 1000}
	_, err := env.registry.ListForSale(list, sign(t, owner, list.Digest()))
	require.NoError(t, err)

	buy := &BuyRequest{Ticker: "ABC", Buyer: buyer.ID()}
	reg, err := env.registry.Buy(buy, sign(t, buyer, buy.Digest()))
	require.NoError(t, err)

	assert.Equal(t, buyer.ID(), reg.Owner)
	assert.False(t, reg.IsForSale)
	assert.Zero(t, reg.Price)

	// Price moved buyer -> previous owner, exactly.
	assert.Equal(t, uint64(1000), env.balance(t, owner.ID()))
	assert.Equal(t, uint64(500), env.balance(t, buyer.ID()))
}

func TestBuy_NotForSale(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	buyer := env.fundedKeyPair(t, 1000)
	env.register(t, owner, "ABC")

	buy := &BuyRequest{Ticker: "ABC", Buyer: buyer.ID()}
	_, err := env.registry.Buy(buy, sign(t, buyer, buy.Digest()))
	assert.ErrorIs(t, err, ErrNotForSale)
}

func TestBuy_InsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	buyer := env.fundedKeyPair(t, 999)
	env.register(t, owner, "ABC")

	list := &ListForSaleRequest{Ticker: "ABC", Owner: owner.ID(), Price: 1000}
	_, err := env.registry.ListForSale(list, sign(t, owner, list.Digest()))
	require.NoError(t, err)

	buy := &BuyRequest{Ticker: "ABC", Buyer: buyer.ID()}
	_, err = env.registry.Buy(buy, sign(t, buyer, buy.Digest()))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Listing survives the failed purchase.
	stored, err := env.registry.Get("ABC")
	require.NoError(t, err)
	assert.True(t, stored.IsForSale)
	assert.Equal(t, owner.ID(), stored.Owner)
}

func TestCancelSale_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	env.register(t, owner, "ABC")

	list := &ListForSaleRequest{Ticker: "ABC", Owner: owner.ID(), Price: 1000}
	_, err := env.registry.ListForSale(list, sign(t, owner, list.Digest()))
	require.NoError(t, err)

	cancel := &CancelSaleRequest{Ticker: "ABC", Owner: owner.ID()}
	reg, err := env.registry.CancelSale(cancel, sign(t, owner, cancel.Digest()))
	require.NoError(t, err)
	assert.False(t, reg.IsForSale)
	assert.Zero(t, reg.Price)

	// Safe when already delisted.
	reg, err = env.registry.CancelSale(cancel, sign(t, owner, cancel.Digest()))
	require.NoError(t, err)
	assert.False(t, reg.IsForSale)
	assert.Zero(t, reg.Price)
}

// Full marketplace scenario: register, list, buy.
func TestMarketplaceScenario(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	buyer := env.fundedKeyPair(t, 1000)

	reg, feeRecipient := env.register(t, owner, "ABC")
	assert.False(t, reg.IsForSale)
	assert.Equal(t, RegistrationFee, env.balance(t, feeRecipient))
	assert.Equal(t, uint64(0), env.balance(t, owner.ID()))

	list := &ListForSaleRequest{Ticker: "ABC", Owner: owner.ID(), Price: 1000}
	reg, err := env.registry.ListForSale(list, sign(t, owner, list.Digest()))
	require.NoError(t, err)
	assert.True(t, reg.IsForSale)
	assert.Equal(t, uint64(1000), reg.Price)

	buy := &BuyRequest{Ticker: "ABC", Buyer: buyer.ID()}
	reg, err = env.registry.Buy(buy, sign(t, buyer, buy.Digest()))
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), env.balance(t, owner.ID()))
	assert.Equal(t, uint64(0), env.balance(t, buyer.ID()))
	assert.Equal(t, buyer.ID(), reg.Owner)
	assert.False(t, reg.IsForSale)
}

// Two concurrent buys of the same listing: exactly one succeeds, the
// other observes the winner's post-state.
func TestBuy_ConcurrentRace(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fundedKeyPair(t, RegistrationFee)
	env.register(t, owner, "ABC")

	list := &ListForSaleRequest{Ticker: "ABC", Owner: owner.ID(), Price: 1000}
	_, err := env.registry.ListForSale(list, sign(t, owner, list.Digest()))
	require.NoError(t, err)

	buyers := []*identity.KeyPair{
		env.fundedKeyPair(t, 1000),
		env.fundedKeyPair(t, 1000),
	}

	// Sign up front; require must not be called from spawned goroutines.
	reqs := make([]*BuyRequest, len(buyers))
	sigs := make([]*ec.Signature, len(buyers))
	for i, b := range buyers {
		reqs[i] = &BuyRequest{Ticker: "ABC", Buyer: b.ID()}
		sigs[i] = sign(t, b, reqs[i].Digest())
	}

	errs := make([]error, len(buyers))
	var wg sync.WaitGroup
	for i := range buyers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.registry.Buy(reqs[i], sigs[i])
		}(i)
	}
	wg.Wait()

	var winners, losers int
	for i, err := range errs {
		if err == nil {
			winners++
			stored, gerr := env.registry.Get("ABC")
			require.NoError(t, gerr)
			assert.Equal(t, buyers[i].ID(), stored.Owner)
			assert.Equal(t, uint64(0), env.balance(t, buyers[i].ID()))
		} else {
			losers++
			assert.ErrorIs(t, err, ErrNotForSale)
			assert.Equal(t, uint64(1000), env.balance(t, buyers[i].ID()))
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)

	// Seller was paid exactly once.
	assert.Equal(t, uint64(1000), env.balance(t, owner.ID()))
}
