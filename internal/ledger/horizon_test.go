package ledger

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/base"
	"github.com/stellar/go/support/render/problem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestHorizonClient_LoadAccountMapsTrustlines(t *testing.T) {
	hc := &horizonclient.MockClient{}
	client := NewHorizonClientWithAPI(hc)
	id := keypair.MustRandom().Address()
	issuer := keypair.MustRandom().Address()

	hc.On("AccountDetail", horizonclient.AccountRequest{AccountID: id}).Return(hProtocol.Account{
		AccountID: id,
		Sequence:  900,
		Balances: []hProtocol.Balance{
			{Balance: "10.0000000", Asset: base.Asset{Type: "native"}},
			{Balance: "5.0000000", IsAuthorized: boolPtr(false), Asset: base.Asset{Type: "credit_alphanum4", Code: "USDC", Issuer: issuer}},
			{Balance: "1.0000000", IsAuthorized: boolPtr(true), Asset: base.Asset{Type: "credit_alphanum12", Code: "LONGASSET", Issuer: issuer}},
		},
	}, nil)

	acc, err := client.LoadAccount(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, acc.ID)
	assert.Equal(t, int64(900), acc.Sequence)
	require.Len(t, acc.Trustlines, 2)

	tl, ok := acc.Trustline(Asset{Code: "USDC", Issuer: issuer})
	require.True(t, ok)
	assert.True(t, tl.Frozen())

	tl, ok = acc.Trustline(Asset{Code: "LONGASSET", Issuer: issuer})
	require.True(t, ok)
	assert.False(t, tl.Frozen())

	_, ok = acc.Trustline(Asset{Code: "USDC", Issuer: keypair.MustRandom().Address()})
	assert.False(t, ok)
	hc.AssertExpectations(t)
}

func TestHorizonClient_LoadAccountNotFound(t *testing.T) {
	hc := &horizonclient.MockClient{}
	client := NewHorizonClientWithAPI(hc)

	hc.On("AccountDetail", mock.Anything).Return(hProtocol.Account{}, &horizonclient.Error{
		Problem: problem.P{Type: "https://stellar.org/horizon-errors/not_found", Status: 404, Title: "Resource Missing"},
	})

	_, err := client.LoadAccount(context.Background(), keypair.MustRandom().Address())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestHorizonClient_SubmitTransaction(t *testing.T) {
	issuer := keypair.MustRandom()
	tx, err := NewBuilder(network.TestNetworkPassphrase, 0, 0).Build(
		Account{ID: issuer.Address(), Sequence: 1}, issuer,
		Asset{Code: "USDC", Issuer: issuer.Address()}, false, randomAddresses(2))
	require.NoError(t, err)

	t.Run("confirmed", func(t *testing.T) {
		hc := &horizonclient.MockClient{}
		hc.On("SubmitTransaction", tx).Return(hProtocol.Transaction{Hash: "feedbeef"}, nil)

		hash, err := NewHorizonClientWithAPI(hc).SubmitTransaction(context.Background(), tx)
		require.NoError(t, err)
		assert.Equal(t, "feedbeef", hash)
	})

	t.Run("rejected with result codes", func(t *testing.T) {
		hc := &horizonclient.MockClient{}
		hc.On("SubmitTransaction", tx).Return(hProtocol.Transaction{}, &horizonclient.Error{
			Problem: problem.P{
				Type:   "https://stellar.org/horizon-errors/transaction_failed",
				Status: 400,
				Extras: map[string]interface{}{
					"result_codes": map[string]interface{}{
						"transaction": "tx_failed",
						"operations":  []string{"op_success", "op_not_permitted"},
					},
				},
			},
		})

		_, err := NewHorizonClientWithAPI(hc).SubmitTransaction(context.Background(), tx)
		var rej *RejectionError
		require.True(t, errors.As(err, &rej), "got %v", err)
		assert.Equal(t, "tx_failed", rej.TransactionCode)
		assert.Equal(t, []string{"op_success", "op_not_permitted"}, rej.OperationCodes)
		assert.Equal(t, []string{"tx_failed", "op_success", "op_not_permitted"}, rej.Codes())
		assert.Contains(t, rej.Error(), "op_not_permitted")
	})

	t.Run("server error is transient", func(t *testing.T) {
		hc := &horizonclient.MockClient{}
		hc.On("SubmitTransaction", tx).Return(hProtocol.Transaction{}, &horizonclient.Error{
			Problem: problem.P{Type: "https://stellar.org/horizon-errors/timeout", Status: 504},
		})

		_, err := NewHorizonClientWithAPI(hc).SubmitTransaction(context.Background(), tx)
		var transient *TransientError
		assert.True(t, errors.As(err, &transient), "got %v", err)
	})

	t.Run("connection failure is transient", func(t *testing.T) {
		hc := &horizonclient.MockClient{}
		netErr := &url.Error{Op: "Post", URL: "https://horizon.invalid/transactions", Err: errors.New("connection refused")}
		hc.On("SubmitTransaction", tx).Return(hProtocol.Transaction{}, netErr)

		_, err := NewHorizonClientWithAPI(hc).SubmitTransaction(context.Background(), tx)
		var transient *TransientError
		require.True(t, errors.As(err, &transient), "got %v", err)
		assert.ErrorIs(t, err, netErr)
	})
}

func TestHorizonClient_ListHolders(t *testing.T) {
	hc := &horizonclient.MockClient{}
	client := NewHorizonClientWithAPI(hc)
	asset := Asset{Code: "USDC", Issuer: keypair.MustRandom().Address()}
	holders := randomAddresses(2)

	var page hProtocol.AccountsPage
	for _, h := range holders {
		page.Embedded.Records = append(page.Embedded.Records, hProtocol.Account{AccountID: h})
	}
	hc.On("Accounts", horizonclient.AccountsRequest{
		Asset:  asset.String(),
		Cursor: "",
		Limit:  200,
		Order:  horizonclient.OrderAsc,
	}).Return(page, nil)

	got, err := client.ListHolders(context.Background(), asset, "", 200)
	require.NoError(t, err)
	assert.Equal(t, holders, got.Holders)
	hc.AssertExpectations(t)
}

func TestHorizonClient_CanceledContextSkipsCall(t *testing.T) {
	hc := &horizonclient.MockClient{}
	client := NewHorizonClientWithAPI(hc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.LoadAccount(ctx, keypair.MustRandom().Address())
	var transient *TransientError
	assert.True(t, errors.As(err, &transient))
	hc.AssertNotCalled(t, "AccountDetail", mock.Anything)
}
