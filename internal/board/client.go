package board

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/clock"
	"github.com/droverhq/drover/internal/domain"
	"github.com/droverhq/drover/internal/errors"
	"github.com/droverhq/drover/internal/httpx"
)

// DefaultBaseURL is the production board API endpoint.
const DefaultBaseURL = "https://api.trello.com/1"

// Client talks to one board. It caches the board's lists and the stage→list
// mapping built by Initialize; every network operation goes through the
// secure request wrapper, which redacts the auth query parameters from any
// error it produces.
type Client struct {
	baseURL string
	apiKey  string
	token   string
	boardID string
	http    *httpx.Client
	clk     clock.Clock
	logger  zerolog.Logger

	lists         map[string]List
	stageToListID map[domain.Stage]string
	labels        []Label
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the board API endpoint (used by tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient substitutes the secure request wrapper.
func WithHTTPClient(hc *httpx.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithClock substitutes the clock used for due-date priority derivation.
func WithClock(clk clock.Clock) ClientOption {
	return func(c *Client) { c.clk = clk }
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger.With().Str("component", "board").Logger() }
}

// NewClient creates a board client for the given board.
func NewClient(apiKey, token, boardID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		apiKey:        apiKey,
		token:         token,
		boardID:       boardID,
		http:          httpx.NewClient(),
		clk:           clock.RealClock{},
		logger:        zerolog.Nop(),
		lists:         make(map[string]List),
		stageToListID: make(map[domain.Stage]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request performs one authenticated board API call and decodes the JSON
// response into out (skipped when out is nil).
func (c *Client) request(ctx context.Context, method, path string, body any, out any) error {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	full := c.baseURL + path + sep +
		"key=" + url.QueryEscape(c.apiKey) + "&token=" + url.QueryEscape(c.token)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, full, reader)
	if err != nil {
		return errors.Wrap(err, "building board request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.DoOK(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding board response")
	}
	return nil
}

// Initialize fetches the board's lists and rebuilds the list cache and the
// stage→list mapping. Call before any other operation; safe to call again to
// refresh.
func (c *Client) Initialize(ctx context.Context) error {
	var lists []List
	if err := c.request(ctx, http.MethodGet, "/boards/"+c.boardID+"/lists", nil, &lists); err != nil {
		return errors.Wrap(err, "fetching board lists")
	}

	c.lists = make(map[string]List, len(lists))
	c.stageToListID = make(map[domain.Stage]string)
	for _, list := range lists {
		c.lists[list.ID] = list
		if stage, ok := listNameToStage(list.Name); ok {
			c.stageToListID[stage] = list.ID
		}
	}

	var labels []Label
	if err := c.request(ctx, http.MethodGet, "/boards/"+c.boardID+"/labels", nil, &labels); err != nil {
		return errors.Wrap(err, "fetching board labels")
	}
	c.labels = labels

	c.logger.Debug().
		Int("lists", len(lists)).
		Int("stages_mapped", len(c.stageToListID)).
		Msg("board initialized")
	return nil
}

// cardFields is the field selection requested on card listings.
const cardFields = "fields=id,name,desc,idList,labels,due,url"

// AvailableCards returns every card in the todo list, the pool agents pick
// work from. Fails if the board has no list mapped to todo.
func (c *Client) AvailableCards(ctx context.Context) ([]Card, error) {
	listID, ok := c.stageToListID[domain.StageTodo]
	if !ok {
		return nil, errors.Wrap(errors.ErrStageNotMapped, "no todo list on board")
	}

	var cards []Card
	if err := c.request(ctx, http.MethodGet, "/lists/"+listID+"/cards?"+cardFields, nil, &cards); err != nil {
		return nil, errors.Wrap(err, "fetching available cards")
	}
	return cards, nil
}

// AllCards returns every card on the board.
func (c *Client) AllCards(ctx context.Context) ([]Card, error) {
	var cards []Card
	if err := c.request(ctx, http.MethodGet, "/boards/"+c.boardID+"/cards?"+cardFields, nil, &cards); err != nil {
		return nil, errors.Wrap(err, "fetching all cards")
	}
	return cards, nil
}

// MoveCard moves a card to the list mapped from stage.
// Fails with ErrStageNotMapped if the board has no such list.
func (c *Client) MoveCard(ctx context.Context, cardID string, stage domain.Stage) error {
	listID, ok := c.stageToListID[stage]
	if !ok {
		return errors.Wrapf(errors.ErrStageNotMapped, "stage %q", stage)
	}
	return c.request(ctx, http.MethodPut, "/cards/"+cardID,
		map[string]any{"idList": listID}, nil)
}

// AddComment appends a comment to a card.
func (c *Client) AddComment(ctx context.Context, cardID, text string) error {
	return c.request(ctx, http.MethodPost, "/cards/"+cardID+"/actions/comments",
		map[string]any{"text": text}, nil)
}

// AddChecklist creates a named checklist on a card and appends each item.
func (c *Client) AddChecklist(ctx context.Context, cardID, name string, items []string) error {
	var checklist struct {
		ID string `json:"id"`
	}
	if err := c.request(ctx, http.MethodPost, "/cards/"+cardID+"/checklists",
		map[string]any{"name": name}, &checklist); err != nil {
		return errors.Wrap(err, "creating checklist")
	}

	for _, item := range items {
		if err := c.request(ctx, http.MethodPost, "/checklists/"+checklist.ID+"/checkItems",
			map[string]any{"name": item}, nil); err != nil {
			return errors.Wrapf(err, "adding checklist item %q", item)
		}
	}
	return nil
}

// CreateCard creates a new card in the list mapped from stage.
func (c *Client) CreateCard(ctx context.Context, stage domain.Stage, name, desc string, opts CreateCardOptions) (*Card, error) {
	listID, ok := c.stageToListID[stage]
	if !ok {
		return nil, errors.Wrapf(errors.ErrStageNotMapped, "stage %q", stage)
	}

	payload := map[string]any{
		"idList": listID,
		"name":   name,
		"desc":   desc,
	}
	if len(opts.LabelIDs) > 0 {
		payload["idLabels"] = strings.Join(opts.LabelIDs, ",")
	}
	if opts.Due != nil {
		payload["due"] = opts.Due.Format(time.RFC3339)
	}

	var card Card
	if err := c.request(ctx, http.MethodPost, "/cards", payload, &card); err != nil {
		return nil, errors.Wrap(err, "creating card")
	}
	return &card, nil
}

// FindLabelID resolves a board label by name or color, case-insensitively.
// Returns "" when no label matches.
func (c *Client) FindLabelID(nameOrColor string) string {
	needle := strings.ToLower(strings.TrimSpace(nameOrColor))
	for _, label := range c.labels {
		if strings.ToLower(label.Name) == needle || strings.ToLower(label.Color) == needle {
			return label.ID
		}
	}
	return ""
}
