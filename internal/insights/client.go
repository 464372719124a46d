// Package insights talks to the travel-insights HTTP service (review
// summaries, nearby places, seasonal weather) and to OpenWeather.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joshua-takyi/luwas/internal/cache"
)

const (
	defaultBaseURL    = "https://luwas-travel-app.vercel.app"
	defaultWeatherURL = "https://api.openweathermap.org"
	maxBodyBytes      = 1 << 20
)

type Review struct {
	Text   string  `json:"text"`
	Rating float64 `json:"rating"`
	User   struct {
		Name     string `json:"name"`
		ImageURL string `json:"image_url"`
	} `json:"user"`
}

type ReviewSummary struct {
	Rating  float64  `json:"rating"`
	Reviews []Review `json:"reviews"`
}

type Place struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Link        string `json:"link"`
}

type BestTime struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
	Emoji  string `json:"emoji"`
}

type SeasonInfo struct {
	Label       string `json:"label"`
	Months      string `json:"months"`
	Temperature string `json:"temperature"`
}

type WeatherInsight struct {
	BestTime    []BestTime   `json:"bestTime"`
	WeatherInfo []SeasonInfo `json:"weatherInfo"`
}

func (w *WeatherInsight) Empty() bool {
	return w == nil || (len(w.BestTime) == 0 && len(w.WeatherInfo) == 0)
}

type CurrentWeather struct {
	TemperatureC float64 `json:"temperatureC"`
	Condition    string  `json:"condition"`
	City         string  `json:"city"`
}

// Summary formats the weather the way the home header shows it, e.g. "31°C • Clouds".
func (w CurrentWeather) Summary() string {
	return fmt.Sprintf("%d°C • %s", int(math.Round(w.TemperatureC)), w.Condition)
}

type Config struct {
	BaseURL    string
	WeatherURL string
	APIKey     string
	Timeout    time.Duration
	CacheTTL   time.Duration
}

type Client struct {
	logger     *slog.Logger
	baseURL    string
	weatherURL string
	apiKey     string
	timeout    time.Duration
	http       *http.Client
	cache      *cache.Redis
	cacheTTL   time.Duration
}

// New creates the client. redis may be nil, which disables caching.
func New(cfg Config, logger *slog.Logger, redis *cache.Redis) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	weather := strings.TrimRight(cfg.WeatherURL, "/")
	if weather == "" {
		weather = defaultWeatherURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		logger:     logger.With("component", "insights"),
		baseURL:    base,
		weatherURL: weather,
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		http:       &http.Client{},
		cache:      redis,
		cacheTTL:   cfg.CacheTTL,
	}
}

func (c *Client) Reviews(ctx context.Context, name, location string) (*ReviewSummary, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("location", location)

	var out ReviewSummary
	key := "reviews:" + strings.ToLower(name+"|"+location)
	if err := c.cached(ctx, key, &out, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, c.baseURL+"/api/yelp/summary?"+q.Encode(), nil, &out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Nearby(ctx context.Context, lat, lon float64) ([]Place, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var out struct {
		Places []Place `json:"places"`
	}
	key := "nearby:" + q.Encode()
	if err := c.cached(ctx, key, &out, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, c.baseURL+"/api/recommendations?"+q.Encode(), nil, &out)
	}); err != nil {
		return nil, err
	}
	return out.Places, nil
}

func (c *Client) Weather(ctx context.Context, title, location string) (*WeatherInsight, error) {
	body, err := json.Marshal(map[string]string{"title": title, "location": location})
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}

	var out WeatherInsight
	key := "weather:" + strings.ToLower(title+"|"+location)
	if err := c.cached(ctx, key, &out, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, c.baseURL+"/api/ai/weather", body, &out)
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Current is never cached; it backs the live header on the home screen.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*CurrentWeather, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key not configured")
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	var raw struct {
		Name string `json:"name"`
		Main *struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}
	if err := c.do(ctx, http.MethodGet, c.weatherURL+"/data/2.5/weather?"+q.Encode(), nil, &raw); err != nil {
		return nil, err
	}
	if raw.Main == nil || len(raw.Weather) == 0 {
		return nil, fmt.Errorf("openweather response has no conditions")
	}
	return &CurrentWeather{
		TemperatureC: raw.Main.Temp,
		Condition:    raw.Weather[0].Main,
		City:         raw.Name,
	}, nil
}

func (c *Client) cached(ctx context.Context, key string, dest any, fetch func(context.Context) error) error {
	if c.cache != nil {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		ok, err := c.cache.GetJSON(cctx, "insights:"+key, dest)
		cancel()
		if err != nil {
			c.logger.Warn("read insights cache failed", "key", key, "error", err)
		} else if ok {
			return nil
		}
	}

	if err := fetch(ctx); err != nil {
		return err
	}

	if c.cache != nil && c.cacheTTL > 0 {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := c.cache.SetJSON(cctx, "insights:"+key, dest, c.cacheTTL); err != nil {
			c.logger.Warn("set insights cache failed", "key", key, "error", err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, reqURL string, body []byte, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status=%d body=%s", method, req.URL.Path, res.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
