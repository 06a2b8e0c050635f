package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// auth selects which stored token a request carries.
type auth int

const (
	authNone auth = iota
	authOptional
	authUser
	authAdmin
)

// HTTPClient talks to the backend over HTTP+JSON. It attaches the stored
// bearer token and maps every failure into the error taxonomy. It never
// retries.
type HTTPClient struct {
	base    *url.URL
	http    *http.Client
	tokens  TokenSource
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithMetrics records every call.
func WithMetrics(m *Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

// WithLogger sets the logger for failed calls.
func WithLogger(l *slog.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// NewHTTPClient returns a client for the backend at baseURL.
func NewHTTPClient(baseURL string, tokens TokenSource, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway url %q must be absolute", baseURL)
	}

	c := &HTTPClient{
		base:   u,
		http:   &http.Client{Timeout: 60 * time.Second},
		tokens: tokens,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ Gateway = (*HTTPClient)(nil)

// loginBody splits an identifier into the email or username field.
func loginBody(creds Credentials) map[string]string {
	body := map[string]string{"password": creds.Password}
	if strings.Contains(creds.Identifier, "@") {
		body["email"] = creds.Identifier
	} else {
		body["username"] = creds.Identifier
	}
	return body
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *HTTPClient) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	if err := Validate(creds); err != nil {
		return "", err
	}
	var out tokenResponse
	if err := c.do(ctx, "authenticate", http.MethodPost, "/login", nil, authNone, loginBody(creds), &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &TransportError{Op: "authenticate", Err: errors.New("no access token in response")}
	}
	return out.AccessToken, nil
}

func (c *HTTPClient) Signup(ctx context.Context, form SignupForm) error {
	if err := Validate(form); err != nil {
		return err
	}
	body := struct {
		Email    string `json:"email,omitempty"`
		Username string `json:"username,omitempty"`
		Role     string `json:"role"`
		Language string `json:"language,omitempty"`
		Password string `json:"password"`
	}{form.Email, form.Username, form.Role, form.Language, form.Password}
	return c.do(ctx, "signup", http.MethodPost, "/signup", nil, authNone, body, nil)
}

func (c *HTTPClient) WhoAmI(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, &AuthError{Detail: "no token"}
	}
	var out Profile
	err := c.send(ctx, "whoami", http.MethodGet, "/me", nil, token, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	if err := Validate(update); err != nil {
		return err
	}
	return c.do(ctx, "update_profile", http.MethodPut, "/profile", nil, authUser, update, nil)
}

func (c *HTTPClient) Search(ctx context.Context, query string, level Level, language string) (*SearchResponse, error) {
	q := url.Values{"q": {query}}
	if level != "" {
		q.Set("level", string(level))
	}
	if language != "" {
		q.Set("language", language)
	}
	// Media is fetched separately so the text result is not delayed.
	q.Set("fetch_media", "false")

	var out SearchResponse
	if err := c.do(ctx, "search", http.MethodGet, "/search", q, authOptional, nil, &out); err != nil {
		return nil, err
	}
	if out.Source == "error" {
		return nil, &TransportError{Op: "search", Err: errors.New(firstNonEmpty(out.Error, out.Definition))}
	}
	return &out, nil
}

func (c *HTTPClient) FetchMedia(ctx context.Context, query string) (*Media, error) {
	var out Media
	if err := c.do(ctx, "fetch_media", http.MethodGet, "/search/media", url.Values{"q": {query}}, authNone, nil, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, &TransportError{Op: "fetch_media", Err: errors.New(out.Error)}
	}
	return &out, nil
}

func (c *HTTPClient) SubmitFeedback(ctx context.Context, historyID int64, value int) error {
	if value < -1 || value > 1 {
		return NewValidationError("feedback", "must be -1, 0 or 1")
	}
	path := fmt.Sprintf("/history/%d/feedback", historyID)
	return c.do(ctx, "submit_feedback", http.MethodPut, path, nil, authUser, map[string]int{"feedback": value}, nil)
}

func (c *HTTPClient) History(ctx context.Context) ([]HistoryItem, error) {
	var out []HistoryItem
	if err := c.do(ctx, "history", http.MethodGet, "/history", nil, authUser, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) DeleteHistory(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_history", http.MethodDelete, fmt.Sprintf("/history/%d", id), nil, authUser, nil, nil)
}

func (c *HTTPClient) ClearHistory(ctx context.Context) error {
	return c.do(ctx, "clear_history", http.MethodDelete, "/history", nil, authUser, nil, nil)
}

type quizResponse struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	Quiz      []Question `json:"quiz"`
	TermsUsed []string   `json:"terms_used"`
}

func (c *HTTPClient) GenerateQuiz(ctx context.Context, level Level, language, topic string) (*QuizSet, error) {
	q := url.Values{"level": {string(level)}}
	if language != "" {
		q.Set("language", language)
	}
	if topic != "" {
		q.Set("topic", topic)
	}

	var out quizResponse
	if err := c.do(ctx, "generate_quiz", http.MethodGet, "/quiz", q, authUser, nil, &out); err != nil {
		return nil, err
	}
	if out.Status != "" && out.Status != "success" {
		return nil, &GenerationError{Reason: firstNonEmpty(out.Message, out.Status)}
	}
	if len(out.Quiz) == 0 {
		return nil, &GenerationError{Reason: "no questions returned"}
	}
	return &QuizSet{Questions: out.Quiz, TopicsUsed: out.TermsUsed}, nil
}

func (c *HTTPClient) SubmitQuizResult(ctx context.Context, result QuizResult) error {
	return c.do(ctx, "submit_quiz_result", http.MethodPost, "/quiz/results", nil, authUser, result, nil)
}

func (c *HTTPClient) FetchLeaderboard(ctx context.Context, level Level) ([]LeaderboardEntry, error) {
	var q url.Values
	if level != "" {
		q = url.Values{"difficulty": {string(level)}}
	}
	var out []LeaderboardEntry
	if err := c.do(ctx, "fetch_leaderboard", http.MethodGet, "/quiz/leaderboard", q, authOptional, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Rank == 0 {
			out[i].Rank = i + 1
		}
	}
	return out, nil
}

func (c *HTTPClient) SubmitReview(ctx context.Context, form ReviewForm) error {
	if err := Validate(form); err != nil {
		return err
	}
	return c.do(ctx, "submit_review", http.MethodPost, "/review", nil, authUser, form, nil)
}

func (c *HTTPClient) MyReview(ctx context.Context) (*Review, error) {
	var out Review
	if err := c.do(ctx, "my_review", http.MethodGet, "/review", nil, authUser, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) AdminLogin(ctx context.Context, creds Credentials) (string, error) {
	if err := Validate(creds); err != nil {
		return "", err
	}
	var out tokenResponse
	if err := c.do(ctx, "admin_login", http.MethodPost, "/admin/login", nil, authNone, loginBody(creds), &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &TransportError{Op: "admin_login", Err: errors.New("no access token in response")}
	}
	return out.AccessToken, nil
}

func (c *HTTPClient) AdminStats(ctx context.Context, filter AdminStatsFilter) (*AdminStats, error) {
	q := url.Values{}
	if !filter.Since.IsZero() {
		q.Set("since", filter.Since.UTC().Format(time.RFC3339))
	}
	if !filter.Until.IsZero() {
		q.Set("until", filter.Until.UTC().Format(time.RFC3339))
	}
	var out AdminStats
	if err := c.do(ctx, "admin_stats", http.MethodGet, "/admin/stats", q, authAdmin, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) AdminUsers(ctx context.Context) ([]AdminUser, error) {
	var out []AdminUser
	if err := c.do(ctx, "admin_users", http.MethodGet, "/admin/users", nil, authAdmin, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do resolves the token for kind and sends the request.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, kind auth, body, out any) error {
	var token string
	if kind != authNone && c.tokens != nil {
		var err error
		if kind == authAdmin {
			token, err = c.tokens.AdminToken(ctx)
		} else {
			token, err = c.tokens.UserToken(ctx)
		}
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("read token: %w", err)}
		}
	}
	if token == "" && (kind == authUser || kind == authAdmin) {
		err := &AuthError{Detail: "no stored session"}
		c.metrics.observe(op, err, 0)
		return err
	}
	return c.send(ctx, op, method, path, query, token, body, out)
}

func (c *HTTPClient) send(ctx context.Context, op, method, path string, query url.Values, token string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.observe(op, err, time.Since(start))
		if err != nil && !errors.Is(err, ErrValidation) {
			c.logger.Debug("gateway call failed", slog.String("op", op), slog.String("error", err.Error()))
		}
	}()

	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, mErr := json.Marshal(body)
		if mErr != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", mErr)}
		}
		reader = bytes.NewReader(buf)
	}

	req, rErr := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if rErr != nil {
		return &TransportError{Op: op, Err: rErr}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, dErr := c.http.Do(req)
	if dErr != nil {
		return &TransportError{Op: op, Err: dErr}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if readErr != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: readErr}
	}

	if resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, raw)
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if uErr := json.Unmarshal(raw, out); uErr != nil {
			return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", uErr)}
		}
	}
	return nil
}

// statusError maps a non-2xx response onto the taxonomy.
func statusError(op string, status int, raw []byte) error {
	detail := errorDetail(raw)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Status: status, Detail: detail}
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return NewValidationError("detail", firstNonEmpty(detail, http.StatusText(status)))
	default:
		return &TransportError{Op: op, Status: status, Err: errors.New(firstNonEmpty(detail, http.StatusText(status)))}
	}
}

// errorDetail extracts {"detail": ...}, which is a string or a list of
// {"msg": ...} objects.
func errorDetail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(raw))
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			msgs = append(msgs, it.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(body.Detail)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
