package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"form-intake/pkg/models"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Client defines the interface for keeping user records in an Airtable table
type Client interface {
	Put(ctx context.Context, rec models.UserRecord) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

type clientImpl struct {
	apiKey  string
	baseID  string
	table   string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Airtable client bound to one table
func NewClient(apiKey, baseID, table string) Client {
	return NewClientWithBaseURL(apiKey, baseID, table, defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a non-default API root
func NewClientWithBaseURL(apiKey, baseID, table, baseURL string) Client {
	return &clientImpl{
		apiKey:  apiKey,
		baseID:  baseID,
		table:   table,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *clientImpl) tableURL() string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(c.table))
}

// Put upserts the record, merging on the id field so a resubmission
// overwrites the earlier row.
func (c *clientImpl) Put(ctx context.Context, rec models.UserRecord) error {
	payload := map[string]interface{}{
		"performUpsert": map[string]interface{}{
			"fieldsToMergeOn": []string{models.FieldID},
		},
		"records": []map[string]interface{}{
			{
				"fields": map[string]interface{}{
					models.FieldID:        rec.ID,
					models.FieldName:      rec.Name,
					models.FieldEmail:     rec.Email,
					models.FieldMobile:    rec.Mobile,
					models.FieldCheckbox1: rec.Checkbox1,
				},
			},
		},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error creating payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.tableURL(), bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	// Add authentication and content type headers
	req.Header.Add("Authorization", "Bearer "+c.apiKey)
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error upserting Airtable record: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error from Airtable API (%d): %s", resp.StatusCode, string(body))
	}

	log.WithField("prefix", "airtable").WithField("table", c.table).Debug("upserted record")
	return nil
}

// Count pages through the table, requesting only the id field.
func (c *clientImpl) Count(ctx context.Context) (int64, error) {
	var total int64
	offset := ""

	for {
		params := url.Values{}
		params.Set("pageSize", "100")
		params.Add("fields[]", models.FieldID)
		if offset != "" {
			params.Set("offset", offset)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL()+"?"+params.Encode(), nil)
		if err != nil {
			return 0, fmt.Errorf("error creating request: %w", err)
		}
		req.Header.Add("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return 0, fmt.Errorf("error listing Airtable records: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, fmt.Errorf("error reading response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return 0, fmt.Errorf("error from Airtable API (%d): %s", resp.StatusCode, string(body))
		}

		var page struct {
			Records []struct {
				ID string `json:"id"`
			} `json:"records"`
			Offset string `json:"offset"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, fmt.Errorf("error parsing response: %w", err)
		}

		total += int64(len(page.Records))
		if page.Offset == "" {
			return total, nil
		}
		offset = page.Offset
	}
}

func (c *clientImpl) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
