package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/controller"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/log"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/storage"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/types"
)

func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	s := storage.Configured()
	lflag.Configure()

	ctx := context.Background()
	defer s.Close()

	log.Ctx(ctx).InfoContext(ctx, "seeding mock data")

	// Use a new random source
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	now := time.Now().UTC()
	start := now.Add(-24 * time.Hour).Truncate(time.Hour)
	cfg := types.DefaultSystemConfig()
	appliances := types.Appliances{
		"refrigerator": {ID: "refrigerator", Name: "Refrigerator (150W)", Category: "Motors/Compressors", Watt: 150, Hours: 24},
		"tv":           {ID: "tv", Name: "TV (100W)", Category: "Electronics", Watt: 100, Hours: 4},
		"led_bulb":     {ID: "led_bulb", Name: "LED Bulb (10W)", Category: "Lighting", Watt: 10, Hours: 6},
	}

	// Cloud cover drifts through the day with the odd front passing over
	cloud := 40.0
	for t := start; t.Before(now); t = t.Add(time.Hour) {
		cloud = math.Max(0, math.Min(100, cloud+rng.Float64()*30-15))

		obs := types.EnvironmentTelemetry{
			ID:            uuid.NewString(),
			Location:      "Middlesbrough",
			Timestamp:     t,
			TemperatureC:  10 + 6*math.Sin(float64(t.Hour()-9)*math.Pi/12) + rng.Float64(),
			HumidityPct:   60 + rng.Float64()*30,
			CloudCoverPct: math.Round(cloud),
			IrradianceWM2: controller.EstimateIrradiance(math.Round(cloud)),
		}
		if err := s.InsertTelemetry(ctx, obs); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed telemetry", "error", err)
			os.Exit(1)
		}

		// a decision pair every 3 hours, mirroring a user running the advisor
		if t.Hour()%3 != 0 {
			continue
		}
		c := controller.NewController(controller.WithClock(func() time.Time { return t }))
		today := c.TodayBalance(appliances, cfg)
		forecasts := make([]types.ForecastSample, 8)
		for i := range forecasts {
			forecasts[i] = types.ForecastSample{
				Timestamp:     t.Add(time.Duration(24+i*3) * time.Hour),
				CloudCoverPct: math.Round(math.Max(0, math.Min(100, cloud+rng.Float64()*40-20))),
			}
		}
		tomorrow := c.TomorrowBalance(forecasts, cfg, today.TotalLoadWH)
		for _, advice := range []types.Advice{
			c.Recommend(types.AdvisoryKindToday, today, appliances),
			c.Recommend(types.AdvisoryKindTomorrow, tomorrow, appliances),
		} {
			if err := s.InsertDecision(ctx, advice.Decision); err != nil {
				log.Ctx(ctx).ErrorContext(ctx, "failed to seed decision", "error", err)
				os.Exit(1)
			}
		}

		fmt.Printf("Seeded %s: cloud %.0f%%, today net %.2fkWh, tomorrow net %.2fkWh\n",
			t.Format(time.Kitchen), obs.CloudCoverPct, today.NetKWH, tomorrow.NetKWH)
	}

	log.Ctx(ctx).InfoContext(ctx, "seeded mock data successfully")
}
