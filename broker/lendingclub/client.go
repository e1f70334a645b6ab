package lendingclub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/notebuyer/broker"
	"github.com/rustyeddy/notebuyer/market"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the investor API root.
const DefaultBaseURL = "https://api.lendingclub.com/api/investor/v1"

// Client talks to the investor API with one account's token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ broker.Broker = (*Client)(nil)

// NewClient creates a client; an empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type listingResponse struct {
	AsOfDate string        `json:"asOfDate"`
	Loans    []market.Loan `json:"loans"`
}

// apiNote keeps the numeric fields raw so one bad row does not fail the
// whole response.
type apiNote struct {
	LoanID           int64           `json:"loanId"`
	NoteID           int64           `json:"noteId"`
	LoanStatus       string          `json:"loanStatus"`
	AddrState        string          `json:"addrState"`
	PrincipalPending json.RawMessage `json:"principalPending"`
}

type notesResponse struct {
	MyNotes []apiNote `json:"myNotes"`
}

// The platform wants bare numbers for amounts.
type apiOrderLine struct {
	LoanID          int64       `json:"loanId"`
	RequestedAmount json.Number `json:"requestedAmount"`
	PortfolioID     *int64      `json:"portfolioId,omitempty"`
}

type apiOrder struct {
	AID    int64          `json:"aid"`
	Orders []apiOrderLine `json:"orders"`
}

type orderResponse struct {
	OrderInstructID    json.RawMessage       `json:"orderInstructId"`
	OrderConfirmations []broker.Confirmation `json:"orderConfirmations"`
}

// AccountSummary fetches available cash and total account value.
func (c *Client) AccountSummary(ctx context.Context, accountID int64) (broker.AccountSummary, error) {
	var s broker.AccountSummary
	if err := c.do(ctx, http.MethodGet, c.accountPath(accountID, "summary"), nil, nil, &s); err != nil {
		return broker.AccountSummary{}, fmt.Errorf("account summary: %w", err)
	}
	return s, nil
}

// OwnedNotes fetches every note the account holds.
func (c *Client) OwnedNotes(ctx context.Context, accountID int64) ([]market.Note, error) {
	var resp notesResponse
	if err := c.do(ctx, http.MethodGet, c.accountPath(accountID, "detailednotes"), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("owned notes: %w", err)
	}

	notes := make([]market.Note, 0, len(resp.MyNotes))
	for _, an := range resp.MyNotes {
		notes = append(notes, market.Note{
			LoanID:           an.LoanID,
			NoteID:           an.NoteID,
			Status:           an.LoanStatus,
			Region:           an.AddrState,
			PrincipalPending: parseAmount(an.PrincipalPending),
		})
	}
	return notes, nil
}

// ListLoans fetches the loan listing.
func (c *Client) ListLoans(ctx context.Context, showAll bool) ([]market.Loan, error) {
	params := url.Values{}
	params.Set("showAll", strconv.FormatBool(showAll))

	var resp listingResponse
	if err := c.do(ctx, http.MethodGet, "/loans/listing", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	if resp.Loans == nil {
		return []market.Loan{}, nil
	}
	return resp.Loans, nil
}

// SubmitOrder posts an order and returns the per-loan confirmations.
func (c *Client) SubmitOrder(ctx context.Context, order broker.Order) ([]broker.Confirmation, error) {
	wire := apiOrder{AID: order.AccountID, Orders: make([]apiOrderLine, 0, len(order.Lines))}
	for _, l := range order.Lines {
		wire.Orders = append(wire.Orders, apiOrderLine{
			LoanID:          l.LoanID,
			RequestedAmount: json.Number(market.Cents(l.RequestedAmount).String()),
			PortfolioID:     l.PortfolioID,
		})
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, c.accountPath(order.AccountID, "orders"), nil, body, &resp); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	return resp.OrderConfirmations, nil
}

func (c *Client) accountPath(accountID int64, resource string) string {
	return fmt.Sprintf("/accounts/%d/%s", accountID, resource)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	apiURL := c.baseURL + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseAmount accepts a JSON number or a quoted number; anything else is nil.
func parseAmount(raw json.RawMessage) *decimal.Decimal {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
