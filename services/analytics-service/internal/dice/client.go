// Package dice talks to the DICE partners GraphQL endpoint.
package dice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"colorfest/services/analytics-service/internal/models"
)

// DefaultEndpoint is the production partners endpoint
const DefaultEndpoint = "https://partners-endpoint.dice.fm/graphql"

const (
	pageSize = 50
	maxPages = 20
)

var (
	// ErrUpstream wraps every non-2xx or GraphQL-level failure
	ErrUpstream = errors.New("dice upstream error")
	// ErrEventNotFound is returned when node(id) resolves to nothing
	ErrEventNotFound = errors.New("dice event not found")
)

const eventFields = `
	id
	name
	state
	startDatetime
	endDatetime
	ticketTypes {
		id
		name
		price
		totalTicketAllocationQty
	}
	tickets(first: 0) {
		totalCount
	}`

var eventsQuery = `query Events($first: Int!, $after: String) {
	viewer {
		events(first: $first, after: $after) {
			totalCount
			pageInfo {
				hasNextPage
				endCursor
			}
			edges {
				node {` + eventFields + `
				}
			}
		}
	}
}`

var eventQuery = `query Event($id: ID!) {
	node(id: $id) {
		... on Event {` + eventFields + `
		}
	}
}`

// Client fetches events from DICE
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. timeout bounds every upstream call.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type eventNode struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	State         string    `json:"state"`
	StartDatetime time.Time `json:"startDatetime"`
	EndDatetime   time.Time `json:"endDatetime"`
	TicketTypes   []struct {
		ID                       string `json:"id"`
		Name                     string `json:"name"`
		Price                    int64  `json:"price"`
		TotalTicketAllocationQty int64  `json:"totalTicketAllocationQty"`
	} `json:"ticketTypes"`
	Tickets struct {
		TotalCount int64 `json:"totalCount"`
	} `json:"tickets"`
}

func (n eventNode) toModel() models.RawEvent {
	ev := models.RawEvent{
		ID:            n.ID,
		Name:          n.Name,
		State:         n.State,
		StartDatetime: n.StartDatetime,
		EndDatetime:   n.EndDatetime,
		TicketsSold:   n.Tickets.TotalCount,
		TicketTypes:   make([]models.TicketType, 0, len(n.TicketTypes)),
	}
	for _, tt := range n.TicketTypes {
		ev.TicketTypes = append(ev.TicketTypes, models.TicketType{
			ID:           tt.ID,
			Name:         tt.Name,
			Price:        tt.Price,
			AllocatedQty: tt.TotalTicketAllocationQty,
		})
	}
	return ev
}

// FetchEvents returns every event visible to the API key, cancelled ones
// included
func (c *Client) FetchEvents(ctx context.Context) ([]models.RawEvent, error) {
	var (
		events []models.RawEvent
		after  *string
	)

	for page := 0; page < maxPages; page++ {
		var data struct {
			Viewer struct {
				Events struct {
					TotalCount int `json:"totalCount"`
					PageInfo   struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
					Edges []struct {
						Node eventNode `json:"node"`
					} `json:"edges"`
				} `json:"events"`
			} `json:"viewer"`
		}

		vars := map[string]interface{}{"first": pageSize}
		if after != nil {
			vars["after"] = *after
		}
		if err := c.do(ctx, eventsQuery, vars, &data); err != nil {
			return nil, err
		}

		for _, edge := range data.Viewer.Events.Edges {
			events = append(events, edge.Node.toModel())
		}

		info := data.Viewer.Events.PageInfo
		if !info.HasNextPage || info.EndCursor == "" {
			break
		}
		cursor := info.EndCursor
		after = &cursor
	}

	return events, nil
}

// FetchEvent returns one event by ID
func (c *Client) FetchEvent(ctx context.Context, id string) (*models.RawEvent, error) {
	var data struct {
		Node *eventNode `json:"node"`
	}
	if err := c.do(ctx, eventQuery, map[string]interface{}{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Node == nil || data.Node.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	ev := data.Node.toModel()
	return &ev, nil
}

func (c *Client) do(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: %s", ErrUpstream, strings.Join(msgs, "; "))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%w: empty data", ErrUpstream)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to parse data: %w", err)
	}
	return nil
}
