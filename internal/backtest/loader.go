package backtest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"curverider/internal/domain"
)

// snapshotBody is the wire format of one recorded observation: one JSON
// object per line.
type snapshotBody struct {
	AtMs                 int64   `json:"at_ms"`
	Mint                 string  `json:"mint"`
	Symbol               string  `json:"symbol"`
	Volume5m             float64 `json:"volume_5m"`
	Volume1h             float64 `json:"volume_1h"`
	Volume24h            float64 `json:"volume_24h"`
	LiquiditySol         float64 `json:"liquidity_sol"`
	HolderCount          int     `json:"holder_count"`
	HolderConcentration  float64 `json:"holder_concentration"`
	CurrentPrice         float64 `json:"current_price"`
	PriceChange5m        float64 `json:"price_change_5m"`
	PriceChange1h        float64 `json:"price_change_1h"`
	BuyPressure          float64 `json:"buy_pressure"`
	SellPressure         float64 `json:"sell_pressure"`
	BondingCurveProgress float64 `json:"bonding_curve_progress"`
	IsGraduated          bool    `json:"is_graduated"`
	AgeSeconds           int64   `json:"age_seconds"`
	VolumeAcceleration   float64 `json:"volume_acceleration"`
}

// LoadSnapshots reads newline-delimited JSON snapshots and returns them
// sorted by timestamp. Blank lines are skipped.
func LoadSnapshots(r io.Reader) ([]Snapshot, error) {
	var result []Snapshot

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var body snapshotBody
		if err := json.Unmarshal([]byte(text), &body); err != nil {
			return nil, fmt.Errorf("parse snapshot line %d: %w", line, err)
		}
		if body.Mint == "" {
			return nil, fmt.Errorf("snapshot line %d: mint is required", line)
		}

		result = append(result, Snapshot{
			AtMs: body.AtMs,
			Metrics: domain.TokenMetrics{
				Mint:                 body.Mint,
				Symbol:               body.Symbol,
				Volume5m:             body.Volume5m,
				Volume1h:             body.Volume1h,
				Volume24h:            body.Volume24h,
				LiquiditySol:         body.LiquiditySol,
				HolderCount:          body.HolderCount,
				HolderConcentration:  body.HolderConcentration,
				CurrentPrice:         body.CurrentPrice,
				PriceChange5m:        body.PriceChange5m,
				PriceChange1h:        body.PriceChange1h,
				BuyPressure:          body.BuyPressure,
				SellPressure:         body.SellPressure,
				BondingCurveProgress: body.BondingCurveProgress,
				IsGraduated:          body.IsGraduated,
				AgeSeconds:           body.AgeSeconds,
				VolumeAcceleration:   body.VolumeAcceleration,
			},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read snapshots: %w", err)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AtMs < result[j].AtMs
	})
	return result, nil
}
