// Package funfact wraps the assorted public APIs behind the entertainment
// commands. Every lookup is a single GET with a bounded timeout; there is
// no retry and no state.
package funfact

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NoahCxrest/ERMSupport/internal/config"
)

const requestTimeout = 10 * time.Second

// Client fetches from the configured entertainment APIs.
type Client struct {
	cfg        config.FunConfig
	httpClient *http.Client
}

// New creates a Client over the given endpoints.
func New(cfg config.FunConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (c *Client) getJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) getText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

type imageEntry struct {
	URL string `json:"url"`
}

func (c *Client) firstImage(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	var entries []imageEntry
	if err := c.getJSON(ctx, rawURL, headers, &entries); err != nil {
		return "", err
	}
	if len(entries) == 0 || entries[0].URL == "" {
		return "", fmt.Errorf("no image in response")
	}
	return entries[0].URL, nil
}

// Dog returns a random dog image URL.
func (c *Client) Dog(ctx context.Context) (string, error) {
	var headers map[string]string
	if c.cfg.DogAPIKey != "" {
		headers = map[string]string{"x-api-key": c.cfg.DogAPIKey}
	}
	return c.firstImage(ctx, c.cfg.DogURL, headers)
}

// Cat returns a random cat image URL.
func (c *Client) Cat(ctx context.Context) (string, error) {
	var headers map[string]string
	if c.cfg.CatAPIKey != "" {
		headers = map[string]string{"x-api-key": c.cfg.CatAPIKey}
	}
	return c.firstImage(ctx, c.cfg.CatURL, headers)
}

// Meme holds one random meme.
type Meme struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Meme returns a random meme title and image URL.
func (c *Client) Meme(ctx context.Context) (Meme, error) {
	var m Meme
	if err := c.getJSON(ctx, c.cfg.MemeURL, nil, &m); err != nil {
		return Meme{}, err
	}
	if m.Title == "" || m.URL == "" {
		return Meme{}, fmt.Errorf("incomplete meme in response")
	}
	return m, nil
}

// Insult returns a random insult as plain text.
func (c *Client) Insult(ctx context.Context) (string, error) {
	return c.getText(ctx, c.cfg.InsultURL)
}

// Buzzword returns a random corporate buzzword phrase.
func (c *Client) Buzzword(ctx context.Context) (string, error) {
	var out struct {
		Phrase string `json:"phrase"`
	}
	if err := c.getJSON(ctx, c.cfg.BuzzwordURL, nil, &out); err != nil {
		return "", err
	}
	if out.Phrase == "" {
		return "", fmt.Errorf("no phrase in response")
	}
	return out.Phrase, nil
}

// Age returns the predicted age for a name as display text, or
// "Age not available" when the API has no prediction.
func (c *Client) Age(ctx context.Context, name string) (string, error) {
	u := fmt.Sprintf("%s?name=%s", c.cfg.AgeifyURL, url.QueryEscape(name))
	var out struct {
		Age *int `json:"age"`
	}
	if err := c.getJSON(ctx, u, nil, &out); err != nil {
		return "", err
	}
	if out.Age == nil {
		return "Age not available", nil
	}
	return fmt.Sprintf("%d", *out.Age), nil
}

// Country holds the displayed subset of one REST Countries record.
type Country struct {
	Name       string
	Capital    string
	Region     string
	Population int64
}

// Country looks up a country by name. The API returns a list; the first
// match is used.
func (c *Client) Country(ctx context.Context, name string) (Country, error) {
	u := c.cfg.CountriesURL + url.PathEscape(name)
	var out []struct {
		Name struct {
			Common string `json:"common"`
		} `json:"name"`
		Capital    []string `json:"capital"`
		Region     string   `json:"region"`
		Population int64    `json:"population"`
	}
	if err := c.getJSON(ctx, u, nil, &out); err != nil {
		return Country{}, err
	}
	if len(out) == 0 {
		return Country{}, fmt.Errorf("no country in response")
	}
	first := out[0]
	country := Country{
		Name:       first.Name.Common,
		Capital:    "Not available",
		Region:     first.Region,
		Population: first.Population,
	}
	if len(first.Capital) > 0 {
		country.Capital = first.Capital[0]
	}
	if country.Region == "" {
		country.Region = "Not available"
	}
	return country, nil
}

// Trump returns a random Trump quote.
func (c *Client) Trump(ctx context.Context) (string, error) {
	var out struct {
		Value string `json:"value"`
	}
	if err := c.getJSON(ctx, c.cfg.TrumpURL, nil, &out); err != nil {
		return "", err
	}
	if out.Value == "" {
		return "", fmt.Errorf("no quote in response")
	}
	return out.Value, nil
}
