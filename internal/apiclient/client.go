package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blogdesk/blogdesk/internal/article"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// UploadField is the multipart field the upload endpoint reads the file from.
const UploadField = "file0"

const maxResponseBytes = 10 << 20

// Options configures a Client.
type Options struct {
	BaseURL    string
	HealthPath string
	// Timeout bounds each request; zero means no timeout.
	Timeout time.Duration
	// RateLimit is requests per second; zero or less disables limiting.
	RateLimit float64
	RateBurst int
	Logger    *zap.Logger
	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the article API. Each method issues exactly one request.
type Client struct {
	baseURL    string
	healthPath string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

// UploadResult is what the upload endpoint reports back.
type UploadResult struct {
	Article *article.Article
	Message string
}

// New creates a Client from opts.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	healthPath := opts.HealthPath
	if healthPath != "" && !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		healthPath: healthPath,
		httpClient: hc,
		limiter:    rate.NewLimiter(limit, burst),
		log:        logger.Named("apiclient"),
	}
}

// BaseURL returns the API root this client points at.
func (c *Client) BaseURL() string { return c.baseURL }

// Health probes the API. Any 2xx answer counts as healthy.
func (c *Client) Health(ctx context.Context) error {
	resp, _, err := c.send(ctx, "health", http.MethodGet, c.healthPath, nil, "")
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: "health", StatusCode: resp.StatusCode, Message: "API not responding correctly"}
	}
	return nil
}

// Create stores a new article and returns the server's copy of it.
func (c *Client) Create(ctx context.Context, title, content string) (*article.Article, error) {
	env, err := c.doJSON(ctx, "create", http.MethodPost, "/crear", articleBody(title, content), "error creating article")
	if err != nil {
		return nil, err
	}
	if env.Article == nil {
		return nil, &APIError{Op: "create", Message: "malformed response: missing article"}
	}
	return env.Article, nil
}

// List returns every article.
func (c *Client) List(ctx context.Context) ([]article.Article, error) {
	env, err := c.doJSON(ctx, "list", http.MethodGet, "/listar", nil, "error loading articles")
	if err != nil {
		return nil, err
	}
	if env.Articles == nil {
		return []article.Article{}, nil
	}
	return env.Articles, nil
}

// Get fetches one article by id.
func (c *Client) Get(ctx context.Context, id string) (*article.Article, error) {
	env, err := c.doJSON(ctx, "get", http.MethodGet, "/articulo/"+url.PathEscape(id), nil, "article not found")
	if err != nil {
		return nil, err
	}
	if env.Article == nil {
		return nil, &APIError{Op: "get", Message: "malformed response: missing article"}
	}
	return env.Article, nil
}

// Update replaces the title and content of an article.
func (c *Client) Update(ctx context.Context, id, title, content string) (*article.Article, error) {
	env, err := c.doJSON(ctx, "update", http.MethodPut, "/actualizar/"+url.PathEscape(id), articleBody(title, content), "error updating article")
	if err != nil {
		return nil, err
	}
	if env.Article == nil {
		return nil, &APIError{Op: "update", Message: "malformed response: missing article"}
	}
	return env.Article, nil
}

// Delete removes an article. It returns true once the server confirms.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := c.doJSON(ctx, "delete", http.MethodDelete, "/borrar/"+url.PathEscape(id), nil, "error deleting article"); err != nil {
		return false, err
	}
	return true, nil
}

// UploadImage attaches the image read from r to an article.
func (c *Client) UploadImage(ctx context.Context, id, filename string, r io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, UploadField, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", mimetype.Detect(data).String())
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}

	_, env, err := c.do(ctx, "upload", http.MethodPost, "/subir-imagen/"+url.PathEscape(id), &buf, mw.FormDataContentType(), "error uploading image")
	if err != nil {
		return nil, err
	}
	return &UploadResult{Article: env.Article, Message: env.Message}, nil
}

// UploadFile is UploadImage for a file on disk.
func (c *Client) UploadFile(ctx context.Context, id, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	return c.UploadImage(ctx, id, filepath.Base(path), f)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func articleBody(title, content string) io.Reader {
	body, _ := json.Marshal(struct {
		Title   string `json:"titulo"`
		Content string `json:"contenido"`
	}{title, content})
	return bytes.NewReader(body)
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body io.Reader, fallback string) (*envelope, error) {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	_, env, err := c.do(ctx, op, method, path, body, contentType, fallback)
	return env, err
}

// do sends the request and decodes the envelope. Only the success marker
// decides the outcome; the HTTP status is carried for reporting.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType, fallback string) (*http.Response, *envelope, error) {
	resp, raw, err := c.send(ctx, op, method, path, body, contentType)
	if err != nil {
		return nil, nil, err
	}

	code := 0
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code = resp.StatusCode
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp, nil, &APIError{Op: op, StatusCode: code, Message: fmt.Sprintf("invalid response: %v", err)}
	}
	if !env.ok() {
		return resp, nil, &APIError{Op: op, StatusCode: code, Message: env.failure(fallback)}
	}
	return resp, &env, nil
}

func (c *Client) send(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*http.Response, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, &NetworkError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: building request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return nil, nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, &NetworkError{Op: op, Err: err}
	}

	c.log.Debug("request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return resp, raw, nil
}
