package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/harper/dealdesk/internal/database/models"
)

// Provider API endpoints for deal upserts.
var providerEndpoints = map[models.CRMProvider]string{
	models.CRMProviderHubspot:    "https://api.hubapi.com/crm/v3/objects/deals",
	models.CRMProviderSalesforce: "https://api.salesforce.com/services/data/v59.0/sobjects/Opportunity",
	models.CRMProviderPipedrive:  "https://api.pipedrive.com/v1/deals",
}

type dealPayload struct {
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	Stage      string `json:"stage"`
	ValueCents int64  `json:"value_cents"`
	Currency   string `json:"currency"`
}

func pushDeal(ctx context.Context, client *http.Client, provider models.CRMProvider, deal *models.Deal) error {
	endpoint, ok := providerEndpoints[provider]
	if !ok {
		return fmt.Errorf("unsupported provider %q", provider)
	}

	body, err := json.Marshal(dealPayload{
		ExternalID: deal.ID.String(),
		Title:      deal.Title,
		Stage:      string(deal.Stage),
		ValueCents: deal.ValueCents,
		Currency:   deal.Currency,
	})
	if err != nil {
		return fmt.Errorf("encoding deal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("provider returned %d", resp.StatusCode)
	}
	return nil
}
