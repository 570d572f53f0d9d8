// Package sheets is the transport adapter for the spreadsheet-backed
// endpoint (a Google Apps Script web app): GET returns the full state as a
// JSON object keyed by collection name, POST replaces the full state and is
// fire-and-forget: the endpoint's response is never inspected.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"shiftsync/internal/domain"
)

// Client implements ports.RemoteClient against the Apps Script contract.
type Client struct {
	http *http.Client
	log  *slog.Logger
}

func NewClient(timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// FetchState GETs the full remote state. A non-2xx status or an unreadable
// top-level body is an error; inside the body, collections that are absent
// or not lists decode to nil (no remote data), and individually malformed
// rows are skipped so one bad spreadsheet row cannot block the rest of the
// collection.
func (c *Client) FetchState(ctx context.Context, endpoint string) (*domain.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sheets: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("sheets: decode response: %w", err)
	}

	state := &domain.State{
		Employees:      decodeList[domain.Employee](c, raw[domain.CollectionEmployees], domain.CollectionEmployees),
		TaxSettings:    decodeList[domain.TaxSetting](c, raw[domain.CollectionSettings], domain.CollectionSettings),
		Leave:          decodeList[domain.LeaveEntry](c, raw[domain.CollectionHolidays], domain.CollectionHolidays),
		PublicHolidays: decodeList[domain.PublicHoliday](c, raw[domain.CollectionPublicHolidays], domain.CollectionPublicHolidays),
		Company:        decodeList[domain.CompanyProfile](c, raw[domain.CollectionCompany], domain.CollectionCompany),
	}
	for _, row := range decodeList[rawTimesheetRow](c, raw[domain.CollectionTimesheet], domain.CollectionTimesheet) {
		state.Timesheet = append(state.Timesheet, row.toDomain())
	}
	return state, nil
}

// PushState POSTs the full-state payload. The response body is discarded
// and the status is not checked; only a transport-level failure is
// reported, matching the endpoint's fire-and-forget write contract.
func (c *Client) PushState(ctx context.Context, endpoint string, state *domain.State) error {
	payload := pushPayload{FullSync: true}
	payload.Data.Employees = emptyNotNil(state.Employees)
	payload.Data.Timesheet = emptyNotNil(state.Timesheet)
	payload.Data.Settings = emptyNotNil(state.TaxSettings)
	payload.Data.Holidays = emptyNotNil(state.Leave)
	payload.Data.PublicHolidays = emptyNotNil(state.PublicHolidays)
	payload.Data.Company = emptyNotNil(state.Company)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sheets: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	c.log.Debug("pushed full state", slog.Int("status", resp.StatusCode))
	return nil
}

// pushPayload matches the endpoint's replace-state request shape.
type pushPayload struct {
	FullSync bool `json:"full_sync"`
	Data     struct {
		Employees      []domain.Employee       `json:"Employees"`
		Timesheet      []domain.TimesheetEntry `json:"Timesheet"`
		Settings       []domain.TaxSetting     `json:"Settings"`
		Holidays       []domain.LeaveEntry     `json:"Holidays"`
		PublicHolidays []domain.PublicHoliday  `json:"Public Holidays"`
		Company        []domain.CompanyProfile `json:"Company"`
	} `json:"data"`
}

// decodeList decodes one collection tolerantly: a missing or non-list value
// yields nil, and rows that fail to decode are skipped individually.
func decodeList[T any](c *Client, raw json.RawMessage, name string) []T {
	if raw == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		c.log.Debug("remote collection is not a list, ignoring", slog.String("collection", name))
		return nil
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			c.log.Debug("skipping malformed remote row",
				slog.String("collection", name),
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, v)
	}
	return out
}

func emptyNotNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
