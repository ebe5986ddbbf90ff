package tasks

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/harper/dealdesk/internal/database/models"
)

// renderDeck flattens deals into the CSV layout the sales team imports
// into their deck tooling.
func renderDeck(deals []models.Deal) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"company", "title", "stage", "value_cents", "currency", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, deal := range deals {
		company := ""
		if deal.Company != nil {
			company = deal.Company.Name
		}
		row := []string{
			company,
			deal.Title,
			string(deal.Stage),
			strconv.FormatInt(deal.ValueCents, 10),
			deal.Currency,
			deal.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func deckFileName(stage string) string {
	stamp := time.Now().UTC().Format("2006-01-02")
	if stage == "" {
		return fmt.Sprintf("deck-%s.csv", stamp)
	}
	return fmt.Sprintf("deck-%s-%s.csv", stage, stamp)
}
