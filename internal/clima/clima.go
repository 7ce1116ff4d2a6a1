// Package clima wraps the external weather, geocoding and news providers.
// Lookups are cached in-process for several hours since conditions feed a
// once-a-day pipeline.
package clima

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CacheTTL is how long geocoding and weather responses stay valid.
const CacheTTL = 6 * time.Hour

// Default provider endpoints, overridable for tests.
const (
	DefaultGeoBaseURL     = "http://api.openweathermap.org/geo/1.0"
	DefaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultNewsBaseURL    = "https://newsapi.org/v2"
	DefaultIBGEBaseURL    = "https://servicodados.ibge.gov.br/api/v1"
)

// Weather is the condition snapshot used in generation prompts and on the
// dashboard.
type Weather struct {
	Description string
	Temperature float64
}

// Article is a news headline shown on the dashboard.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Estado is an IBGE federative unit.
type Estado struct {
	ID    int    `json:"id"`
	Sigla string `json:"sigla"`
	Nome  string `json:"nome"`
}

// Municipio is an IBGE municipality.
type Municipio struct {
	ID   int    `json:"id"`
	Nome string `json:"nome"`
}

// Client talks to the weather/geocoding/news providers with a shared cache.
type Client struct {
	climaKey    string
	noticiasKey string
	httpClient  *http.Client
	cache       *gocache.Cache

	geoBaseURL     string
	weatherBaseURL string
	newsBaseURL    string
	ibgeBaseURL    string
}

// Opts holds parameters for creating a Client.
type Opts struct {
	ClimaAPIKey    string
	NoticiasAPIKey string
	HTTPClient     *http.Client // defaults to a 15s-timeout client
	GeoBaseURL     string
	WeatherBaseURL string
	NewsBaseURL    string
	IBGEBaseURL    string
}

// New creates a Client.
func New(opts Opts) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		climaKey:       opts.ClimaAPIKey,
		noticiasKey:    opts.NoticiasAPIKey,
		httpClient:     hc,
		cache:          gocache.New(CacheTTL, 30*time.Minute),
		geoBaseURL:     opts.GeoBaseURL,
		weatherBaseURL: opts.WeatherBaseURL,
		newsBaseURL:    opts.NewsBaseURL,
		ibgeBaseURL:    opts.IBGEBaseURL,
	}
	if c.geoBaseURL == "" {
		c.geoBaseURL = DefaultGeoBaseURL
	}
	if c.weatherBaseURL == "" {
		c.weatherBaseURL = DefaultWeatherBaseURL
	}
	if c.newsBaseURL == "" {
		c.newsBaseURL = DefaultNewsBaseURL
	}
	if c.ibgeBaseURL == "" {
		c.ibgeBaseURL = DefaultIBGEBaseURL
	}
	return c
}

// LatLon geocodes a Brazilian city/state pair. Results are cached for
// CacheTTL keyed by the inputs.
func (c *Client) LatLon(ctx context.Context, cidade, estado string) (lat, lon float64, err error) {
	key := "latlon:" + cidade + ":" + estado
	if v, ok := c.cache.Get(key); ok {
		pair := v.([2]float64)
		return pair[0], pair[1], nil
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s,%s,BR", cidade, estado))
	q.Set("limit", "1")
	q.Set("appid", c.climaKey)

	var results []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := c.getJSON(ctx, c.geoBaseURL+"/direct?"+q.Encode(), &results); err != nil {
		return 0, 0, fmt.Errorf("clima: geocode %s/%s: %w", cidade, estado, err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("clima: geocode %s/%s: no results", cidade, estado)
	}

	c.cache.Set(key, [2]float64{results[0].Lat, results[0].Lon}, gocache.DefaultExpiration)
	return results[0].Lat, results[0].Lon, nil
}

// Current returns the current weather for a coordinate pair, in Portuguese
// with metric units. Cached for CacheTTL keyed by the coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) (Weather, error) {
	key := fmt.Sprintf("weather:%.4f:%.4f", lat, lon)
	if v, ok := c.cache.Get(key); ok {
		return v.(Weather), nil
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("appid", c.climaKey)
	q.Set("lang", "pt")
	q.Set("units", "metric")

	var resp struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := c.getJSON(ctx, c.weatherBaseURL+"/weather?"+q.Encode(), &resp); err != nil {
		return Weather{}, fmt.Errorf("clima: current weather: %w", err)
	}
	if len(resp.Weather) == 0 {
		return Weather{}, fmt.Errorf("clima: current weather: empty conditions")
	}

	w := Weather{Description: resp.Weather[0].Description, Temperature: resp.Main.Temp}
	c.cache.Set(key, w, gocache.DefaultExpiration)
	return w, nil
}

// For is the city/state convenience combining geocoding and the current
// conditions lookup.
func (c *Client) For(ctx context.Context, cidade, estado string) (Weather, error) {
	lat, lon, err := c.LatLon(ctx, cidade, estado)
	if err != nil {
		return Weather{}, err
	}
	return c.Current(ctx, lat, lon)
}

// TopHeadlines returns up to five Brazilian headlines for the dashboard.
func (c *Client) TopHeadlines(ctx context.Context) ([]Article, error) {
	q := url.Values{}
	q.Set("country", "br")
	q.Set("apiKey", c.noticiasKey)

	var resp struct {
		Articles []Article `json:"articles"`
	}
	if err := c.getJSON(ctx, c.newsBaseURL+"/top-headlines?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("clima: top headlines: %w", err)
	}
	if len(resp.Articles) > 5 {
		resp.Articles = resp.Articles[:5]
	}
	return resp.Articles, nil
}

// Estados lists the Brazilian federative units (for the personal-data form).
func (c *Client) Estados(ctx context.Context) ([]Estado, error) {
	var estados []Estado
	if err := c.getJSON(ctx, c.ibgeBaseURL+"/localidades/estados?orderBy=nome", &estados); err != nil {
		return nil, fmt.Errorf("clima: ibge estados: %w", err)
	}
	return estados, nil
}

// Municipios lists the municipalities of a federative unit.
func (c *Client) Municipios(ctx context.Context, uf string) ([]Municipio, error) {
	var municipios []Municipio
	u := fmt.Sprintf("%s/localidades/estados/%s/municipios", c.ibgeBaseURL, url.PathEscape(uf))
	if err := c.getJSON(ctx, u, &municipios); err != nil {
		return nil, fmt.Errorf("clima: ibge municipios %s: %w", uf, err)
	}
	return municipios, nil
}

// getJSON performs a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
