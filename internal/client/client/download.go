package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Download fetches a result image with a plain GET and copies it to w.
// Result URLs are public file links, so no bearer token is sent.
func (c *HTTPClient) Download(ctx context.Context, resultURL string, w io.Writer) (int64, error) {
	target := ResolveResultURL(c.Origin(), resultURL)

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.gw.httpClient.Do(req)
	if err != nil {
		return 0, mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download failed: %s", resp.Status)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("write download: %w", err)
	}
	return n, nil
}
