package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Details are the user-entered fields collected on the details form.
type Details struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
}

// ResultRecord is the final session outcome pushed to the result sink.
type ResultRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Language string `json:"language"`

	Reading   int `json:"reading"`
	Listening int `json:"listening"`
	Writing   int `json:"writing"`
	Speaking  int `json:"speaking"`
	Average   int `json:"average"`

	SubmittedAt time.Time `json:"submitted_at"`
}

func newResultRecord(details Details, scores ScoreBoard) ResultRecord {
	return ResultRecord{
		ID:          uuid.NewString(),
		Name:        details.Name,
		Phone:       details.Phone,
		Language:    details.Language,
		Reading:     scores.Reading,
		Listening:   scores.Listening,
		Writing:     scores.Writing,
		Speaking:    scores.Speaking,
		Average:     scores.Average(),
		SubmittedAt: time.Now().UTC(),
	}
}

// WebhookSink posts result records to a collection endpoint. The session
// treats submission as fire-and-forget; the sink itself reports errors so
// they can at least be logged.
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:        url,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

func (s *WebhookSink) Submit(ctx context.Context, record ResultRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal result record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post result record: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("result sink rejected submission: %s", resp.Status)
	}

	return nil
}
