package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// PageOptions controls the PDF page produced by Gotenberg. Sizes are in inches.
type PageOptions struct {
	PaperWidth      float64
	PaperHeight     float64
	Landscape       bool
	PrintBackground bool
}

// DefaultPage is an A4 landscape page.
var DefaultPage = PageOptions{PaperWidth: 8.27, PaperHeight: 11.7, Landscape: true, PrintBackground: true}

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("gotenberg: client not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts an HTML document into a PDF on the default page.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	return c.RenderPage(ctx, html, DefaultPage)
}

// RenderPage converts an HTML document into a PDF using page.
func (c *Client) RenderPage(ctx context.Context, html string, page PageOptions) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewBufferString(html)); err != nil {
		return nil, err
	}
	fields := map[string]string{
		"landscape":       strconv.FormatBool(page.Landscape),
		"printBackground": strconv.FormatBool(page.PrintBackground),
	}
	if page.PaperWidth > 0 && page.PaperHeight > 0 {
		fields["paperWidth"] = strconv.FormatFloat(page.PaperWidth, 'f', -1, 64)
		fields["paperHeight"] = strconv.FormatFloat(page.PaperHeight, 'f', -1, 64)
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/forms/chromium/convert/html", c.baseURL), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("render failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
