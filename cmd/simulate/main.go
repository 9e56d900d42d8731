// Package main provides the headless battle simulator: it loads content,
// fights a series of battles between two combatants and prints what the
// player would see, optionally persisting both party members.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/veteran/internal/config"
	"github.com/cory-johannsen/veteran/internal/game/battle"
	"github.com/cory-johannsen/veteran/internal/game/combatant"
	"github.com/cory-johannsen/veteran/internal/game/dice"
	"github.com/cory-johannsen/veteran/internal/game/move"
	"github.com/cory-johannsen/veteran/internal/game/veteran"
	"github.com/cory-johannsen/veteran/internal/observability"
	"github.com/cory-johannsen/veteran/internal/scripting"
	"github.com/cory-johannsen/veteran/internal/simulation"
	"github.com/cory-johannsen/veteran/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	playerSpecies := flag.String("player", "Charmander", "player combatant species")
	enemySpecies := flag.String("enemy", "Rattata", "rival combatant species")
	battles := flag.Int("battles", 0, "number of battles (0 = simulation.battles)")
	seed := flag.Uint64("seed", 0, "dice seed (0 = simulation.seed)")
	persist := flag.Bool("persist", false, "save both combatants to PostgreSQL")
	trainer := flag.String("trainer", "red", "trainer id used when persisting")
	playerID := flag.String("player-id", "", "resume the stored combatant with this id instead of creating one")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *battles > 0 {
		cfg.Simulation.Battles = *battles
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var base dice.Source
	if cfg.Simulation.Seed != 0 {
		base = dice.NewSeededSource(cfg.Simulation.Seed)
	} else {
		base = dice.NewCryptoSource()
	}
	src := dice.NewLoggedSource(base, logger)

	catalog, chart := loadContent(cfg.Content, logger)

	var selector battle.MoveSelector
	if cfg.Content.ScriptsDir != "" {
		mgr := scripting.NewManager(src, logger)
		defer mgr.Close()
		names, err := mgr.LoadTree(cfg.Content.ScriptsDir, cfg.Simulation.InstructionLimit)
		if err != nil {
			logger.Fatal("loading opponent scripts", zap.Error(err))
		}
		logger.Info("opponent scripts loaded",
			zap.String("dir", cfg.Content.ScriptsDir),
			zap.Strings("species_overrides", names),
		)
		selector = scripting.NewSelector(mgr, logger)
	}

	var repo *postgres.PartyRepository
	if *persist || *playerID != "" {
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		repo = postgres.NewPartyRepository(pool.DB(), src, logger)
	}

	var player *combatant.Combatant
	if *playerID != "" {
		player, err = repo.Load(ctx, *playerID)
		if err != nil {
			logger.Fatal("loading player combatant", zap.String("id", *playerID), zap.Error(err))
		}
	} else {
		player = combatant.New(*playerSpecies, src, combatant.WithLogger(logger))
	}
	newRival := func() *combatant.Combatant {
		return combatant.New(*enemySpecies, src, combatant.WithLogger(logger))
	}

	runner := simulation.NewRunner(catalog, chart, src, selector, cfg.Simulation, os.Stdout, logger)
	rival, sum, err := runner.Run(ctx, player, newRival(), newRival)
	if err != nil {
		logger.Error("simulation stopped", zap.Error(err))
	}

	os.Stdout.WriteString("\n")
	simulation.Report(os.Stdout, player)
	simulation.Report(os.Stdout, rival)

	if *persist {
		err := repo.ReplaceAll(ctx, []postgres.PartyMember{
			{TrainerID: *trainer, Slot: 0, Combatant: player},
			{TrainerID: *trainer + "-rival", Slot: 0, Combatant: rival},
		})
		if err != nil {
			logger.Fatal("saving combatants", zap.Error(err))
		}
		logger.Info("combatants saved", zap.String("player_id", player.ID()), zap.String("rival_id", rival.ID()))
	}

	logger.Info("simulation complete",
		zap.Int("battles", sum.Battles),
		zap.Int("wins", sum.Outcomes[veteran.Win]),
		zap.Bool("player_died", sum.PlayerDied),
		zap.Int("rivals_killed", sum.RivalsKilled),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// loadContent loads the move catalog and type chart, falling back to the
// built-in content for any path left empty.
func loadContent(cfg config.ContentConfig, logger *zap.Logger) (*move.Catalog, *move.TypeChart) {
	catalog := move.DefaultCatalog()
	if cfg.MovesDir != "" {
		c, err := move.LoadCatalog(cfg.MovesDir)
		if err != nil {
			logger.Fatal("loading moves", zap.String("dir", cfg.MovesDir), zap.Error(err))
		}
		catalog = c
	}
	chart := move.DefaultTypeChart()
	if cfg.TypeChartFile != "" {
		tc, err := move.LoadTypeChart(cfg.TypeChartFile)
		if err != nil {
			logger.Fatal("loading type chart", zap.String("file", cfg.TypeChartFile), zap.Error(err))
		}
		chart = tc
	}
	logger.Info("content loaded", zap.Int("moves", catalog.Len()))
	return catalog, chart
}
