package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// clientOptions carries the connection settings shared by all commands.
type clientOptions struct {
	Host      string
	Token     string
	Principal string
}

var httpClient = &http.Client{Timeout: 60 * time.Second}

// doJSON performs one API call and decodes the response body. Error
// responses are turned into a readable error carrying the first reported
// message.
func doJSON(opts *clientOptions, method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = buf
	}

	url := strings.TrimRight(opts.Host, "/") + "/api/v1" + path
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}
	if opts.Principal != "" {
		req.Header.Set("X-Principal", opts.Principal)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response (%s): %w", resp.Status, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s: %s", resp.Status, firstErrorMessage(decoded))
	}
	return decoded, nil
}

// firstErrorMessage pulls the first error message out of an API error
// payload, falling back to the raw body.
func firstErrorMessage(body map[string]interface{}) string {
	if errs, ok := body["errors"].([]interface{}); ok && len(errs) > 0 {
		if e, ok := errs[0].(map[string]interface{}); ok {
			if msg, ok := e["message"].(string); ok {
				return msg
			}
		}
	}
	raw, _ := json.Marshal(body)
	return string(raw)
}

// printJSON renders an API response as indented JSON on stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
