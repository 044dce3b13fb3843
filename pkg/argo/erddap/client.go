// Copyright 2026 Pelagic Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package erddap implements argo.Source against an ERDDAP tabledap server.
// Both the primary archive (Ifremer) and the fallback mirror speak the same
// protocol, so one client parameterized by base URL covers both tiers.
package erddap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pelagic-labs/driftchat/pkg/argo"
)

const (
	// DefaultDataset is the core Argo dataset ID exposed by ERDDAP servers.
	DefaultDataset = "ArgoFloats"
	// DefaultTimeout is the HTTP client timeout. The data manager applies
	// its own shorter wall-clock deadline on top.
	DefaultTimeout = 60 * time.Second
)

// requestColumns are the tabledap columns fetched for every query. The core
// Argo dataset carries temperature, salinity, and pressure; dissolved
// oxygen lives in the BGC datasets and is simply absent here, which callers
// surface as "variable not found".
var requestColumns = []string{
	"platform_number", "cycle_number", "time", "latitude", "longitude",
	"pres", "temp", "psal", "pres_qc", "temp_qc", "psal_qc",
}

// columnVariable maps response columns onto canonical variable names.
var columnVariable = map[string]string{
	"pres": argo.VarPressure,
	"temp": argo.VarTemperature,
	"psal": argo.VarSalinity,
	"doxy": argo.VarOxygen,
}

// Client queries one ERDDAP server. Safe for concurrent use.
type Client struct {
	baseURL    string
	dataset    string
	name       string
	httpClient *http.Client
}

// Config holds configuration for an ERDDAP client.
type Config struct {
	// BaseURL is the server root, e.g. https://erddap.ifremer.fr/erddap.
	BaseURL string
	// Dataset overrides the tabledap dataset ID. Default: ArgoFloats.
	Dataset string
	// Name labels the source in logs and dataset provenance.
	Name string
	// Timeout bounds one HTTP round trip. Default: 60s.
	Timeout time.Duration
}

// NewClient creates an ERDDAP tabledap client.
func NewClient(config Config) *Client {
	if config.Dataset == "" {
		config.Dataset = DefaultDataset
	}
	if config.Name == "" {
		config.Name = "erddap"
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		dataset:    config.Dataset,
		name:       config.Name,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Name identifies the source.
func (c *Client) Name() string { return c.name }

// FetchRegion fetches all profiles inside the query bounds.
func (c *Client) FetchRegion(ctx context.Context, params argo.QueryParams) (*argo.Dataset, error) {
	constraints := []string{
		constraint("longitude", ">=", formatFloat(params.LonMin)),
		constraint("longitude", "<=", formatFloat(params.LonMax)),
		constraint("latitude", ">=", formatFloat(params.LatMin)),
		constraint("latitude", "<=", formatFloat(params.LatMax)),
		constraint("pres", ">=", formatFloat(params.DepthMin)),
		constraint("pres", "<=", formatFloat(params.DepthMax)),
	}
	constraints = append(constraints, timeConstraints(params)...)
	return c.fetch(ctx, constraints)
}

// FetchFloat fetches one float's history by WMO number. Spatial bounds in
// params are ignored; date bounds apply when set.
func (c *Client) FetchFloat(ctx context.Context, wmoID int, params argo.QueryParams) (*argo.Dataset, error) {
	// platform_number is a string column; the value must be quoted.
	constraints := []string{
		constraint("platform_number", "=", `"`+strconv.Itoa(wmoID)+`"`),
	}
	constraints = append(constraints, timeConstraints(params)...)
	return c.fetch(ctx, constraints)
}

func timeConstraints(params argo.QueryParams) []string {
	var out []string
	if params.StartDate != "" {
		out = append(out, constraint("time", ">=", params.StartDate))
	}
	if params.EndDate != "" {
		out = append(out, constraint("time", "<=", params.EndDate))
	}
	return out
}

// constraint renders one tabledap constraint. The operator stays literal;
// only the value is escaped.
func constraint(column, op, value string) string {
	return column + op + url.QueryEscape(value)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *Client) fetch(ctx context.Context, constraints []string) (*argo.Dataset, error) {
	query := strings.Join(requestColumns, ",")
	if len(constraints) > 0 {
		query += "&" + strings.Join(constraints, "&")
	}
	endpoint := fmt.Sprintf("%s/tabledap/%s.json?%s", c.baseURL, c.dataset, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// ERDDAP reports an empty result set as an error page rather than
		// an empty table. That is an answer, not a failure.
		if resp.StatusCode == http.StatusNotFound && isNoMatch(string(body)) {
			return &argo.Dataset{Source: c.name, FetchedAt: time.Now()}, nil
		}
		return nil, fmt.Errorf("%s returned status %d: %s",
			c.name, resp.StatusCode, truncate(string(body), 200))
	}

	var table tableResponse
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("failed to parse tabledap response: %w", err)
	}

	return c.buildDataset(&table)
}

// tableResponse is the tabledap .json envelope: parallel column names and
// row tuples.
type tableResponse struct {
	Table struct {
		ColumnNames []string        `json:"columnNames"`
		Rows        [][]interface{} `json:"rows"`
	} `json:"table"`
}

// buildDataset groups measurement rows into profiles. Tabledap returns one
// row per (float, cycle, depth level); rows sharing a float and cycle form
// one profile, in first-seen order.
func (c *Client) buildDataset(table *tableResponse) (*argo.Dataset, error) {
	col := make(map[string]int, len(table.Table.ColumnNames))
	for i, name := range table.Table.ColumnNames {
		col[strings.ToLower(name)] = i
	}
	for _, required := range []string{"platform_number", "cycle_number", "time", "latitude", "longitude"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("tabledap response missing column %q", required)
		}
	}

	type profileKey struct {
		floatID string
		cycle   int
	}

	ds := &argo.Dataset{Source: c.name, FetchedAt: time.Now()}
	index := make(map[profileKey]int)

	for _, row := range table.Table.Rows {
		floatID := asString(cell(row, col, "platform_number"))
		cycle := int(asFloat(cell(row, col, "cycle_number")))
		key := profileKey{floatID: floatID, cycle: cycle}

		i, ok := index[key]
		if !ok {
			ts, err := time.Parse(time.RFC3339, asString(cell(row, col, "time")))
			if err != nil {
				ts = time.Time{}
			}
			ds.Profiles = append(ds.Profiles, argo.Profile{
				FloatID:     floatID,
				CycleNumber: cycle,
				Latitude:    asFloat(cell(row, col, "latitude")),
				Longitude:   asFloat(cell(row, col, "longitude")),
				Timestamp:   ts,
				Variables:   make(map[string][]float64),
				QCFlags:     make(map[string][]int),
			})
			i = len(ds.Profiles) - 1
			index[key] = i
		}
		p := &ds.Profiles[i]

		for column, variable := range columnVariable {
			vi, ok := col[column]
			if !ok {
				continue
			}
			p.Variables[variable] = append(p.Variables[variable], asFloat(row[vi]))
			if qi, ok := col[column+"_qc"]; ok {
				p.QCFlags[variable] = append(p.QCFlags[variable], asQCFlag(row[qi]))
			}
		}
	}

	return ds, nil
}

func cell(row []interface{}, col map[string]int, name string) interface{} {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return nil
	}
	return row[i]
}

// asFloat coerces a tabledap cell to float64. Nulls and unparseable cells
// become NaN, matching the missing-value convention downstream.
func asFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nan()
		}
		return f
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nan()
		}
		return f
	default:
		return nan()
	}
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// asQCFlag parses a QC cell. Flags arrive as one-character strings on most
// servers and as numbers on some; unknown cells map to flag 0 so the QC
// filter drops the measurement.
func asQCFlag(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func nan() float64 { return math.NaN() }

func isNoMatch(body string) bool {
	return strings.Contains(body, "Your query produced no matching results") ||
		strings.Contains(body, "nRows = 0")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
