package lookup

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/log"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultAdviceURL = "https://api.adviceslip.com/advice"

	// FallbackTip is shown whenever the advice lookup fails.
	FallbackTip = "Save money for a rainy day!"
)

// AdviceClient fetches a random money tip.
type AdviceClient struct {
	url    string
	client *http.Client
	group  singleflight.Group
	logger *log.Logger
}

func NewAdviceClient(url string, client *http.Client, logger *log.Logger) *AdviceClient {
	if url == "" {
		url = DefaultAdviceURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &AdviceClient{url: url, client: client, logger: logger.WithComponent(log.ComponentLookup)}
}

type adviceResponse struct {
	Slip struct {
		Advice string `json:"advice"`
	} `json:"slip"`
}

// Tip returns a tip, or FallbackTip when the lookup failed.
func (c *AdviceClient) Tip(ctx context.Context) string {
	v, err, _ := c.group.Do("tip", func() (any, error) {
		var body adviceResponse
		if err := getJSON(ctx, c.client, c.url, &body); err != nil {
			return "", err
		}
		advice := strings.TrimSpace(body.Slip.Advice)
		if advice == "" {
			return "", fmt.Errorf("response has no advice")
		}
		return advice, nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Advice lookup failed", log.FieldURL, c.url, log.FieldError, err)
		return FallbackTip
	}
	return v.(string)
}
