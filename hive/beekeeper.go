package hive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://beekeeper.hivehome.com/1.0"

var _ Session = (*Client)(nil)

// Client is a Session talking JSON over HTTP to the Hive servers.
// The product list is cached for the update interval; every accessory
// polling inside that window is answered from the cache.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	log        *logrus.Entry
	now        func() time.Time

	mu        sync.Mutex
	challenge string // opaque session id handed back by login
	token     string
	interval  time.Duration
	products  []product
	fetchedAt time.Time
}

type product struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Props struct {
		Online      bool    `json:"online"`
		Temperature float64 `json:"temperature"`
		Previous    struct {
			Mode string `json:"mode"`
		} `json:"previous"`
	} `json:"props"`
	State struct {
		Name   string  `json:"name"`
		Mode   string  `json:"mode"`
		Boost  *int    `json:"boost"`
		Target float64 `json:"target"`
	} `json:"state"`
}

func (p product) device() Device {
	d := Device{
		ID:          p.ID,
		Name:        p.State.Name,
		Kind:        Category(p.Type),
		Mode:        p.State.Mode,
		PrevMode:    p.Props.Previous.Mode,
		Temperature: p.Props.Temperature,
		Target:      p.State.Target,
		Online:      p.Props.Online,
	}
	if p.State.Boost != nil {
		d.Boost = *p.State.Boost
	}
	return d
}

// NewClient returns a client for the given credentials; baseURL may be empty
func NewClient(baseURL string, creds Credentials) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		creds:      creds,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        logrus.WithField("component", "hive"),
		now:        time.Now,
		interval:   ScanIntervalSecs * time.Second,
	}
}

// Login starts the authentication and returns the server's challenge
func (c *Client) Login(ctx context.Context) (string, error) {
	req := map[string]string{
		"username":       c.creds.Username,
		"password":       c.creds.Password,
		"deviceGroupKey": c.creds.DeviceGroupKey,
		"deviceKey":      c.creds.DeviceKey,
	}
	var resp struct {
		ChallengeName string `json:"ChallengeName"`
		Session       string `json:"Session"`
	}
	if err := c.postJSON(ctx, "/auth/login", req, &resp); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.challenge = resp.Session
	c.mu.Unlock()
	return resp.ChallengeName, nil
}

// DeviceLogin completes a login with the registered device's secrets
func (c *Client) DeviceLogin(ctx context.Context) error {
	c.mu.Lock()
	session := c.challenge
	c.mu.Unlock()

	req := map[string]string{
		"username":       c.creds.Username,
		"deviceGroupKey": c.creds.DeviceGroupKey,
		"deviceKey":      c.creds.DeviceKey,
		"devicePassword": c.creds.DevicePassword,
		"session":        session,
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.postJSON(ctx, "/auth/device-login", req, &resp); err != nil {
		return err
	}
	if resp.Token == "" {
		return fmt.Errorf("device login returned no token")
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()
	return nil
}

// UpdateInterval sets the minimum time between product list refreshes
func (c *Client) UpdateInterval(secs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = time.Duration(secs) * time.Second
}

// StartSession does the initial product list fetch
func (c *Client) StartSession(ctx context.Context) error {
	_, err := c.refresh(ctx, true)
	return err
}

// DeviceList returns every device of category cat
func (c *Client) DeviceList(ctx context.Context, cat Category) ([]Device, error) {
	products, err := c.refresh(ctx, false)
	if err != nil {
		return nil, err
	}
	var out []Device
	for _, p := range products {
		if Category(p.Type) == cat {
			out = append(out, p.device())
		}
	}
	return out, nil
}

// HotWater returns the hot water operations
func (c *Client) HotWater() HotWater { return hotWater{c} }

// Heating returns the room heating operations
func (c *Client) Heating() Heating { return heating{c} }

// lookup returns the latest version of d, refreshing the product list only
// if the cached copy is older than the update interval
func (c *Client) lookup(ctx context.Context, d Device) (Device, error) {
	products, err := c.refresh(ctx, false)
	if err != nil {
		return d, err
	}
	for _, p := range products {
		if p.ID == d.ID {
			return p.device(), nil
		}
	}
	return d, fmt.Errorf("%s (%s): %w", d.Name, d.ID, ErrNotFound)
}

func (c *Client) refresh(ctx context.Context, force bool) ([]product, error) {
	c.mu.Lock()
	if !force && !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.interval {
		products := c.products
		c.mu.Unlock()
		return products, nil
	}
	c.mu.Unlock()

	var products []product
	if err := c.getJSON(ctx, "/products", &products); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.products = products
	c.fetchedAt = c.now()
	c.mu.Unlock()
	c.log.WithField("count", len(products)).Debug("refreshed product list")
	return products, nil
}

// invalidate forces the next lookup to go to the server
func (c *Client) invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Client) setNode(ctx context.Context, d Device, body map[string]interface{}) error {
	path := fmt.Sprintf("/nodes/%s/%s", d.Kind, d.ID)
	c.log.WithFields(logrus.Fields{"device": d.ID, "path": path}).Debugf("sending %v", body)
	if err := c.postJSON(ctx, path, body, nil); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{"path": path, "status": resp.StatusCode}).Debug(method)

	if resp.StatusCode >= 300 {
		return HTTPStatusError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// modeFromWire maps what the server reports to a HeatingMode.
// While boosting the server reports BOOST and keeps the underlying mode in
// previous.
func modeFromWire(d Device) (HeatingMode, error) {
	mode := d.Mode
	if mode == string(ModeBoost) {
		mode = d.PrevMode
		if mode == "" {
			mode = string(ModeSchedule)
		}
	}
	switch HeatingMode(mode) {
	case ModeManual, ModeOn:
		return ModeOn, nil
	case ModeOff:
		return ModeOff, nil
	case ModeSchedule:
		return ModeSchedule, nil
	}
	return "", fmt.Errorf("unknown mode %q for %s", d.Mode, d.ID)
}

func boostFromWire(d Device) HeatingMode {
	if d.Mode == string(ModeBoost) || d.Boost > 0 {
		return ModeOn
	}
	return ModeOff
}

// boostOffBody restores the mode which was active before the boost
func boostOffBody(d Device) map[string]interface{} {
	prev := d.PrevMode
	if prev == "" || prev == string(ModeBoost) {
		prev = string(ModeSchedule)
	}
	return map[string]interface{}{"mode": prev}
}

type hotWater struct{ c *Client }

func (h hotWater) GetWaterHeater(ctx context.Context, d Device) (Device, error) {
	return h.c.lookup(ctx, d)
}

func (h hotWater) GetMode(_ context.Context, d Device) (HeatingMode, error) {
	return modeFromWire(d)
}

func (h hotWater) GetBoost(_ context.Context, d Device) (HeatingMode, error) {
	return boostFromWire(d), nil
}

func (h hotWater) SetMode(ctx context.Context, d Device, m HeatingMode) error {
	if !m.Valid() {
		return fmt.Errorf("unknown mode %q for %s", m, d.ID)
	}
	return h.c.setNode(ctx, d, map[string]interface{}{"mode": string(m)})
}

func (h hotWater) SetBoostOn(ctx context.Context, d Device, mins int) error {
	if mins <= 0 {
		return fmt.Errorf("boost duration must be > 0, got %d", mins)
	}
	return h.c.setNode(ctx, d, map[string]interface{}{"mode": string(ModeBoost), "boost": mins})
}

func (h hotWater) SetBoostOff(ctx context.Context, d Device) error {
	return h.c.setNode(ctx, d, boostOffBody(d))
}

type heating struct{ c *Client }

func (h heating) GetClimate(ctx context.Context, d Device) (Device, error) {
	return h.c.lookup(ctx, d)
}

func (h heating) GetMode(_ context.Context, d Device) (HeatingMode, error) {
	return modeFromWire(d)
}

func (h heating) GetBoost(_ context.Context, d Device) (HeatingMode, error) {
	return boostFromWire(d), nil
}

func (h heating) GetCurrentTemperature(_ context.Context, d Device) (float64, error) {
	return d.Temperature, nil
}

func (h heating) SetMode(ctx context.Context, d Device, m HeatingMode) error {
	if !m.Valid() {
		return fmt.Errorf("unknown mode %q for %s", m, d.ID)
	}
	return h.c.setNode(ctx, d, map[string]interface{}{"mode": string(m)})
}

func (h heating) SetBoostOn(ctx context.Context, d Device, mins int, temp float64) error {
	if mins <= 0 {
		return fmt.Errorf("boost duration must be > 0, got %d", mins)
	}
	return h.c.setNode(ctx, d, map[string]interface{}{"mode": string(ModeBoost), "boost": mins, "target": temp})
}

func (h heating) SetBoostOff(ctx context.Context, d Device) error {
	return h.c.setNode(ctx, d, boostOffBody(d))
}
