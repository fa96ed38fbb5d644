package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moltspeak/internal/domain"
	"moltspeak/internal/errs"
)

// ErrNotFound is returned for unknown agents.
var ErrNotFound = errors.New("agent not found")

// HTTP is a DirectoryClient for the JSON API above.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the directory at base. A nil client means
// http.DefaultClient.
func NewHTTP(base string, hc *http.Client) *HTTP {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

func (c *HTTP) Register(ctx context.Context, reg domain.AgentRegistration) (domain.DirectoryID, error) {
	var out struct {
		ID domain.DirectoryID `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/agents", reg, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *HTTP) Get(ctx context.Context, id domain.DirectoryID) (domain.AgentRecord, error) {
	var out domain.AgentRecord
	if err := c.do(ctx, http.MethodGet, "/agents/"+url.PathEscape(string(id)), nil, &out); err != nil {
		return domain.AgentRecord{}, err
	}
	return out, nil
}

func (c *HTTP) Search(ctx context.Context, q domain.AgentQuery) (domain.AgentList, error) {
	v := url.Values{}
	if q.Capability != "" {
		v.Set("capability", q.Capability)
	}
	if q.Org != "" {
		v.Set("org", q.Org)
	}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	path := "/agents"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out domain.AgentList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return domain.AgentList{}, err
	}
	return out, nil
}

func (c *HTTP) Heartbeat(ctx context.Context, id domain.DirectoryID) (domain.Heartbeat, error) {
	var out domain.Heartbeat
	if err := c.do(ctx, http.MethodPost, "/agents/"+url.PathEscape(string(id))+"/heartbeat", nil, &out); err != nil {
		return domain.Heartbeat{}, err
	}
	return out, nil
}

func (c *HTTP) Deregister(ctx context.Context, id domain.DirectoryID) error {
	return c.do(ctx, http.MethodDelete, "/agents/"+url.PathEscape(string(id)), nil, nil)
}

// Resolve finds ref by exact agent and org name and returns it with the
// published keys.
func (c *HTTP) Resolve(ctx context.Context, ref domain.AgentRef) (domain.AgentRef, error) {
	list, err := c.Search(ctx, domain.AgentQuery{Org: ref.Org, Text: ref.Agent, Limit: maxLimit})
	if err != nil {
		return domain.AgentRef{}, err
	}
	for _, rec := range list.Agents {
		if rec.AgentName == ref.Agent && rec.Org == ref.Org {
			return rec.Ref(), nil
		}
	}
	return domain.AgentRef{}, fmt.Errorf("resolve %s: %w", ref, ErrNotFound)
}

func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if isTimeout(err) {
			return errs.Wrap(errs.CodeTimeout, err, "directory %s %s", method, path)
		}
		return fmt.Errorf("directory %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errs.RateLimit(retryAfter(resp.Header.Get("Retry-After")))
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("directory %s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode/100 != 2:
		return fmt.Errorf("directory %s %s: %s%s", method, path, resp.Status, errorDetail(resp.Body))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// retryAfter parses delay-seconds; HTTP dates and garbage fall back to one
// second.
func retryAfter(h string) time.Duration {
	if s, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && s >= 0 {
		return time.Duration(s) * time.Second
	}
	return time.Second
}

func errorDetail(r io.Reader) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.NewDecoder(io.LimitReader(r, 4096)).Decode(&e) != nil || e.Error == "" {
		return ""
	}
	return ": " + e.Error
}

var (
	_ domain.DirectoryClient = (*HTTP)(nil)
	_ domain.KeyResolver     = (*HTTP)(nil)
)
