package scenario

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chainaim3003/actus-risk-service-extension1-sub001/utils"
)

const observationsQuery = `SELECT risk_factor_id, observed_at, value
FROM risk_factor_observations
WHERE scenario_id = $1
ORDER BY risk_factor_id, observed_at`

// LoadPostgres reads the market observations of a scenario. Rows are grouped
// into one step series per risk factor id, in id order.
func LoadPostgres(ctx context.Context, db *sql.DB, scenarioID string) ([]Market, error) {
	rows, err := db.QueryContext(ctx, observationsQuery, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("LoadPostgres: query %s: %w", scenarioID, err)
	}
	defer rows.Close()

	var markets []Market
	for rows.Next() {
		var (
			id    string
			at    time.Time
			value float64
		)
		if err := rows.Scan(&id, &at, &value); err != nil {
			return nil, fmt.Errorf("LoadPostgres: scan: %w", err)
		}
		if n := len(markets); n == 0 || markets[n-1].ID != id {
			markets = append(markets, Market{ID: id, Interpolation: "step"})
		}
		last := &markets[len(markets)-1]
		last.Points = append(last.Points, Point{Time: utils.FormatDate(at.UTC()), Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadPostgres: rows: %w", err)
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("LoadPostgres: scenario %s has no observations", scenarioID)
	}
	return markets, nil
}
