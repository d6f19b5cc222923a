// Package myclub is a client for the myClub member management REST API.
//
// The API wraps every record in an envelope named after its type, e.g.
// GET groups returns [{"group":{...}}] and GET members/1 returns
// {"member":{...}}. The client unwraps the envelopes and converts the records
// to pkg/models types.
package myclub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"clubcheck/internal/logger"
	"clubcheck/pkg/models"
)

const (
	// DefaultBaseURL is the production API root
	DefaultBaseURL = "https://hallinta.myclub.fi/api/"

	tokenHeader = "X-myClub-token"
	maxBodySize = 10 << 20
)

// Config holds the client settings
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client fetches club records over HTTP
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a client for the configured API root
func NewClient(cfg Config) (*Client, error) {
	const op = "NewClient"

	if cfg.Token == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingToken)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid base URL: %w", op, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     logger.WithComponent("myclub"),
	}, nil
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Groups returns all groups of the club
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	const op = "Groups"

	var envelopes []groupEnvelope
	if err := c.getList(ctx, op, "groups", &envelopes); err != nil {
		return nil, err
	}

	groups := make([]Group, 0, len(envelopes))
	for _, e := range envelopes {
		groups = append(groups, Group{ID: string(e.Group.ID), Name: e.Group.Name})
	}
	return groups, nil
}

// BankAccounts returns all bank accounts of the club
func (c *Client) BankAccounts(ctx context.Context) ([]BankAccount, error) {
	const op = "BankAccounts"

	var envelopes []bankAccountEnvelope
	if err := c.getList(ctx, op, "bank_accounts", &envelopes); err != nil {
		return nil, err
	}

	accounts := make([]BankAccount, 0, len(envelopes))
	for _, e := range envelopes {
		accounts = append(accounts, BankAccount{
			ID:   string(e.BankAccount.ID),
			Name: e.BankAccount.Name,
			IBAN: e.BankAccount.IBAN,
		})
	}
	return accounts, nil
}

// Events returns the events of a group starting on or after since. A zero
// since lists all events.
func (c *Client) Events(ctx context.Context, groupID string, since civil.Date) ([]Event, error) {
	const op = "Events"

	query := url.Values{"group_id": {groupID}}
	if since != (civil.Date{}) {
		query.Set("start_date", since.String())
	}

	var envelopes []eventEnvelope
	if err := c.getListURL(ctx, op, c.resolveQuery("events/", query), &envelopes); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(envelopes))
	for _, e := range envelopes {
		events = append(events, e.toEvent())
	}
	return events, nil
}

// EventsOfGroups returns the events of every group, group by group
func (c *Client) EventsOfGroups(ctx context.Context, groupIDs []string, since civil.Date) ([]Event, error) {
	var all []Event
	for _, id := range groupIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events, err := c.Events(ctx, id, since)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	return all, nil
}

// Memberships returns the memberships of a group
func (c *Client) Memberships(ctx context.Context, groupID string) ([]models.Membership, error) {
	const op = "Memberships"

	var envelopes []membershipEnvelope
	path := "groups/" + groupID + "/memberships"
	if err := c.getList(ctx, op, path, &envelopes); err != nil {
		return nil, err
	}

	memberships := make([]models.Membership, 0, len(envelopes))
	for _, e := range envelopes {
		memberships = append(memberships, e.Membership.toModel())
	}
	return memberships, nil
}

// Member returns one member with its invoice summaries and memberships
func (c *Client) Member(ctx context.Context, id string) (*models.Member, error) {
	const op = "Member"

	var envelope memberEnvelope
	u := c.resolve("members/"+id)
	if err := c.get(ctx, op, u, &envelope); err != nil {
		return nil, err
	}
	if envelope.Member == nil {
		return nil, &FetchError{Op: op, URL: u, Err: ErrUnexpectedShape}
	}
	return envelope.Member.toModel(), nil
}

// MembersOfGroup fetches every member of the group, one request at a time in
// membership order. Memberships listed by the group are merged into members
// that do not list them themselves.
func (c *Client) MembersOfGroup(ctx context.Context, groupID string) ([]*models.Member, error) {
	const op = "MembersOfGroup"

	memberships, err := c.Memberships(ctx, groupID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]*models.Member, len(memberships))
	members := make([]*models.Member, 0, len(memberships))
	for _, ms := range memberships {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if m, ok := seen[ms.MemberID]; ok {
			m.Memberships = appendMembership(m.Memberships, ms)
			continue
		}

		c.log.Debug().Str("member_id", ms.MemberID).Msg("Fetching member")
		member, err := c.Member(ctx, ms.MemberID)
		if err != nil {
			return nil, err
		}
		member.Memberships = appendMembership(member.Memberships, ms)
		seen[ms.MemberID] = member
		members = append(members, member)
	}

	c.log.Info().
		Str("group_id", groupID).
		Int("members", len(members)).
		Msg("Group members fetched")

	return members, nil
}

// Invoice returns one invoice with its payments. The API answers either with
// an envelope object or with a list holding exactly one envelope.
func (c *Client) Invoice(ctx context.Context, id string) (*models.Invoice, error) {
	const op = "Invoice"

	u := c.resolve("invoices/"+id)
	var raw json.RawMessage
	if err := c.get(ctx, op, u, &raw); err != nil {
		return nil, err
	}

	wire, err := decodeInvoice(raw)
	if err != nil {
		return nil, &FetchError{Op: op, URL: u, Err: err}
	}
	invoice, err := wire.toModel()
	if err != nil {
		return nil, &FetchError{Op: op, URL: u, Err: fmt.Errorf("%w: %v", ErrUnexpectedShape, err)}
	}
	return invoice, nil
}

func decodeInvoice(raw json.RawMessage) (*wireInvoice, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var list []invoiceEnvelope
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		if len(list) != 1 || list[0].Invoice == nil {
			return nil, fmt.Errorf("%w: expected exactly one invoice, got %d", ErrUnexpectedShape, len(list))
		}
		return list[0].Invoice, nil
	}

	var envelope invoiceEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	if envelope.Invoice == nil {
		return nil, fmt.Errorf("%w: no invoice in response", ErrUnexpectedShape)
	}
	return envelope.Invoice, nil
}

func appendMembership(list []models.Membership, ms models.Membership) []models.Membership {
	for _, existing := range list {
		if existing.GroupID == ms.GroupID && existing.Level == ms.Level {
			return list
		}
	}
	return append(list, ms)
}

// getList fetches a list endpoint; a non-array body is an error
func (c *Client) getList(ctx context.Context, op, path string, out any) error {
	return c.getListURL(ctx, op, c.resolve(path), out)
}

func (c *Client) getListURL(ctx context.Context, op, u string, out any) error {
	var raw json.RawMessage
	if err := c.get(ctx, op, u, &raw); err != nil {
		return err
	}
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		return &FetchError{Op: op, URL: u, Err: fmt.Errorf("%w: non-array JSON received", ErrUnexpectedShape)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &FetchError{Op: op, URL: u, Err: fmt.Errorf("%w: %v", ErrUnexpectedShape, err)}
	}
	return nil
}

func (c *Client) resolve(path string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: path}).String()
}

func (c *Client) resolveQuery(path string, query url.Values) string {
	return c.baseURL.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()}).String()
}

func (c *Client) get(ctx context.Context, op, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{Op: op, URL: u, Err: err}
	}
	req.Header.Set("User-Agent", "clubcheck")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, c.token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("op", op).
		Str("url", u).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("API request finished")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &FetchError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &FetchError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: ErrNotFound}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &FetchError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: errors.New(snippet(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrUnexpectedShape, err)}
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	if s == "" {
		return "empty response body"
	}
	return s
}
