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
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pelagic-labs/driftchat/internal/log"
	"github.com/pelagic-labs/driftchat/pkg/argo"
)

// The warm set: the basins and variables most queries touch.
var (
	precacheBasins    = []string{"north_atlantic", "north_pacific", "indian", "southern"}
	precacheVariables = []string{argo.VarTemperature, argo.VarSalinity}
)

var precacheForce bool

var precacheCmd = &cobra.Command{
	Use:   "precache",
	Short: "Warm the dataset cache for common basin and variable queries",
	Long: `Fetch and cache the common query set ahead of traffic: each of the
north_atlantic, north_pacific, indian, and southern basins crossed with
the TEMP and PSAL variables, over the default lookback window.`,
	RunE: runPrecache,
}

func init() {
	precacheCmd.Flags().BoolVar(&precacheForce, "force", false, "re-fetch even when a cache entry exists")
	rootCmd.AddCommand(precacheCmd)
}

func runPrecache(cmd *cobra.Command, args []string) error {
	if err := log.Configure(config.Log.Level, config.Log.Format); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer func() { _ = log.Sync() }()
	logger := log.Logger()

	manager, err := buildManager(config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return warmCommonRegions(ctx, manager, precacheForce, logger)
}

// warmCommonRegions warms the cache for the common query set and logs a
// per-combination outcome. It fails only when nothing could be warmed.
func warmCommonRegions(ctx context.Context, manager *argo.Manager, force bool, logger *zap.Logger) error {
	var hits, fetched, failed int

	for _, basinName := range precacheBasins {
		basin, ok := argo.BasinByName(basinName)
		if !ok {
			continue
		}
		for _, variable := range precacheVariables {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			params := argo.QueryParams{
				Variable: variable,
				LatMin:   basin.LatMin,
				LatMax:   basin.LatMax,
				LonMin:   basin.LonMin,
				LonMax:   basin.LonMax,
				DepthMin: 0,
				DepthMax: 2000,
			}

			cached, profiles, err := manager.Warm(ctx, params, force)
			if err != nil {
				failed++
				logger.Warn("Precache fetch failed",
					zap.String("basin", basinName),
					zap.String("variable", variable),
					zap.Error(err))
				continue
			}
			if cached {
				hits++
			} else {
				fetched++
			}
			logger.Info("Region warmed",
				zap.String("basin", basinName),
				zap.String("variable", variable),
				zap.Bool("cache_hit", cached),
				zap.Int("profiles", profiles))
		}
	}

	logger.Info("Precache complete",
		zap.Int("cache_hits", hits),
		zap.Int("fetched", fetched),
		zap.Int("failed", failed))

	if failed > 0 && hits == 0 && fetched == 0 {
		return fmt.Errorf("all %d precache fetches failed", failed)
	}
	return nil
}
