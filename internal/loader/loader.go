package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mintesinot/fi-forecast/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Client fetches the unified record catalog over HTTP with rate
// limiting and retries, or reads it from a local file. It hands the
// core typed records; all semantic validation lives in dataset.Load.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new catalog client with rate limiting.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 5), // 5 requests per second
		logger:     log.With().Str("component", "record_loader").Logger(),
	}
}

// FetchRecords downloads and parses the unified CSV dataset.
func (c *Client) FetchRecords(ctx context.Context, url string) (models.RecordSet, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.RecordSet{}, fmt.Errorf("rate limiter error: %w", err)
	}

	c.logger.Debug().Str("url", url).Msg("Fetching record catalog")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.RecordSet{}, fmt.Errorf("creating request: %w", err)
	}

	// Use exponential backoff for retries
	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("non-200 status code: %d", resp.StatusCode)
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoffStrategy); err != nil {
		return models.RecordSet{}, fmt.Errorf("after retries: %w", err)
	}
	defer resp.Body.Close()

	rs, err := ParseCSV(resp.Body)
	if err != nil {
		return models.RecordSet{}, err
	}
	c.logger.Debug().
		Int("observations", len(rs.Observations)).
		Int("events", len(rs.Events)).
		Int("links", len(rs.Links)).
		Int("targets", len(rs.Targets)).
		Msg("Fetched record catalog")
	return rs, nil
}

// LoadFile reads the unified CSV dataset from disk.
func (c *Client) LoadFile(path string) (models.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.RecordSet{}, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	c.logger.Debug().Str("path", path).Msg("Reading record catalog")
	return ParseCSV(f)
}

// ParseCSV decodes the unified record format: one row per record, the
// record_type column discriminating the four kinds. Column order is
// free; rows are matched to columns by header name.
func ParseCSV(r io.Reader) (models.RecordSet, error) {
	var rs models.RecordSet

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return rs, fmt.Errorf("reading CSV header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rs, fmt.Errorf("reading CSV line %d: %w", line+1, err)
		}
		line++

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		recordType := field("record_type")
		switch recordType {
		case "observation":
			obs, err := parseObservation(field)
			if err != nil {
				return rs, fmt.Errorf("line %d: %w", line, err)
			}
			rs.Observations = append(rs.Observations, obs)
		case "event":
			ev, err := parseEvent(field)
			if err != nil {
				return rs, fmt.Errorf("line %d: %w", line, err)
			}
			rs.Events = append(rs.Events, ev)
		case "impact_link":
			link, err := parseLink(field)
			if err != nil {
				return rs, fmt.Errorf("line %d: %w", line, err)
			}
			rs.Links = append(rs.Links, link)
		case "target":
			tg, err := parseTarget(field)
			if err != nil {
				return rs, fmt.Errorf("line %d: %w", line, err)
			}
			rs.Targets = append(rs.Targets, tg)
		default:
			return rs, fmt.Errorf("line %d: unknown record_type %q", line, recordType)
		}
	}

	return rs, nil
}

func parseObservation(field func(string) string) (models.Observation, error) {
	date, err := parseDate(field("observation_date"))
	if err != nil {
		return models.Observation{}, fmt.Errorf("observation_date: %w", err)
	}
	value, err := parseFloat(field("value_numeric"))
	if err != nil {
		return models.Observation{}, fmt.Errorf("value_numeric: %w", err)
	}
	return models.Observation{
		RecordID:      field("record_id"),
		IndicatorCode: field("indicator_code"),
		Indicator:     field("indicator"),
		Pillar:        models.Pillar(field("pillar")),
		Date:          date,
		Value:         value,
		Unit:          field("unit"),
		Gender:        field("gender"),
		Location:      field("location"),
		Confidence:    models.Confidence(field("confidence")),
		SourceType:    field("source_type"),
	}, nil
}

func parseEvent(field func(string) string) (models.Event, error) {
	date, err := parseDate(field("observation_date"))
	if err != nil {
		return models.Event{}, fmt.Errorf("observation_date: %w", err)
	}
	return models.Event{
		RecordID:   field("record_id"),
		Date:       date,
		Category:   models.EventCategory(field("category")),
		Label:      field("indicator"), // the unified format reuses the indicator column for the event label
		Confidence: models.Confidence(field("confidence")),
		SourceType: field("source_type"),
	}, nil
}

func parseLink(field func(string) string) (models.ImpactLink, error) {
	magnitude, err := parseFloat(field("impact_magnitude"))
	if err != nil {
		return models.ImpactLink{}, fmt.Errorf("impact_magnitude: %w", err)
	}
	magLow, err := parseFloat(field("magnitude_low"))
	if err != nil {
		return models.ImpactLink{}, fmt.Errorf("magnitude_low: %w", err)
	}
	magHigh, err := parseFloat(field("magnitude_high"))
	if err != nil {
		return models.ImpactLink{}, fmt.Errorf("magnitude_high: %w", err)
	}
	lag, err := parseInt(field("lag_months"))
	if err != nil {
		return models.ImpactLink{}, fmt.Errorf("lag_months: %w", err)
	}
	return models.ImpactLink{
		RecordID:      field("record_id"),
		ParentID:      field("parent_id"),
		IndicatorCode: field("indicator_code"),
		Pillar:        models.Pillar(field("pillar")),
		Class:         models.ImpactClass(field("impact_class")),
		Direction:     models.ImpactDirection(field("impact_direction")),
		Magnitude:     magnitude,
		MagnitudeLow:  magLow,
		MagnitudeHigh: magHigh,
		LagMonths:     lag,
		Evidence:      models.EvidenceBasis(field("evidence_basis")),
		Confidence:    models.Confidence(field("confidence")),
	}, nil
}

func parseTarget(field func(string) string) (models.Target, error) {
	date, err := parseDate(field("observation_date"))
	if err != nil {
		return models.Target{}, fmt.Errorf("observation_date: %w", err)
	}
	value, err := parseFloat(field("value_numeric"))
	if err != nil {
		return models.Target{}, fmt.Errorf("value_numeric: %w", err)
	}
	return models.Target{
		RecordID:      field("record_id"),
		IndicatorCode: field("indicator_code"),
		Value:         value,
		Date:          date,
		Pillar:        models.Pillar(field("pillar")),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}
