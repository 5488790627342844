package ledger

import (
	"context"
	"net/http"
	"time"

	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/txnbuild"

	"github.com/trustfreeze/backend/internal/version"
)

// horizonAPI is the part of horizonclient.ClientInterface the adapter uses.
type horizonAPI interface {
	AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error)
	Accounts(request horizonclient.AccountsRequest) (hProtocol.AccountsPage, error)
	SubmitTransaction(transaction *txnbuild.Transaction) (hProtocol.Transaction, error)
}

// HorizonClient implements Network on top of a Horizon server.
type HorizonClient struct {
	api horizonAPI
}

var _ Network = (*HorizonClient)(nil)

// NewHorizonClient creates a client for the Horizon instance at url. The
// timeout bounds every HTTP call the client makes.
func NewHorizonClient(url string, timeout time.Duration) *HorizonClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HorizonClient{
		api: &horizonclient.Client{
			HorizonURL: url,
			HTTP:       &http.Client{Timeout: timeout},
			AppName:    version.Name,
			AppVersion: version.Version,
		},
	}
}

// NewHorizonClientWithAPI wraps an existing horizon client, e.g. horizonclient.MockClient.
func NewHorizonClientWithAPI(api horizonAPI) *HorizonClient {
	return &HorizonClient{api: api}
}

func (c *HorizonClient) LoadAccount(ctx context.Context, accountID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, &TransientError{Op: "load account", Err: err}
	}
	detail, err := c.api.AccountDetail(horizonclient.AccountRequest{AccountID: accountID})
	if err != nil {
		return Account{}, classifyError("load account", err)
	}
	return fromHorizonAccount(detail), nil
}

func (c *HorizonClient) SubmitTransaction(ctx context.Context, tx *txnbuild.Transaction) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TransientError{Op: "submit transaction", Err: err}
	}
	resp, err := c.api.SubmitTransaction(tx)
	if err != nil {
		return "", classifyError("submit transaction", err)
	}
	return resp.Hash, nil
}

func (c *HorizonClient) ListHolders(ctx context.Context, asset Asset, cursor string, limit int) (HolderPage, error) {
	if err := ctx.Err(); err != nil {
		return HolderPage{}, &TransientError{Op: "list holders", Err: err}
	}
	page, err := c.api.Accounts(horizonclient.AccountsRequest{
		Asset:  asset.String(),
		Cursor: cursor,
		Limit:  uint(limit),
		Order:  horizonclient.OrderAsc,
	})
	if err != nil {
		return HolderPage{}, classifyError("list holders", err)
	}

	records := page.Embedded.Records
	out := HolderPage{Holders: make([]string, 0, len(records)), Cursor: cursor}
	for _, rec := range records {
		out.Holders = append(out.Holders, rec.AccountID)
		out.Cursor = rec.PagingToken()
	}
	return out, nil
}

func fromHorizonAccount(a hProtocol.Account) Account {
	acc := Account{ID: a.AccountID, Sequence: a.Sequence}
	for _, b := range a.Balances {
		// native and liquidity pool share balances carry no issuer
		if b.Code == "" || b.Issuer == "" {
			continue
		}
		acc.Trustlines = append(acc.Trustlines, Trustline{
			AssetCode:   b.Code,
			AssetIssuer: b.Issuer,
			Authorized:  b.IsAuthorized,
		})
	}
	return acc
}

// classifyError maps Horizon failures onto the package's closed error set.
func classifyError(op string, err error) error {
	if horizonclient.IsNotFoundError(err) {
		return ErrAccountNotFound
	}
	hErr := horizonclient.GetError(err)
	if hErr == nil {
		return &TransientError{Op: op, Err: err}
	}
	if codes, cerr := hErr.ResultCodes(); cerr == nil && codes != nil {
		txCode := codes.TransactionCode
		opCodes := codes.OperationCodes
		if codes.InnerTransactionCode != "" {
			txCode = codes.InnerTransactionCode
		}
		return &RejectionError{
			Op:              op,
			Status:          hErr.Problem.Status,
			TransactionCode: txCode,
			OperationCodes:  opCodes,
			Err:             err,
		}
	}
	switch status := hErr.Problem.Status; {
	case status == http.StatusNotFound:
		return ErrAccountNotFound
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return &TransientError{Op: op, Err: err}
	default:
		return &RejectionError{Op: op, Status: status, Err: err}
	}
}
