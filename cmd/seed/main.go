// Package main seeds a listkeep data directory with catalog entities and,
// optionally, a demo account owning a few bookmarks and a shared list.
//
// Usage:
//
//	go run ./cmd/seed --data-path ~/listkeep
//	go run ./cmd/seed --data-path ~/listkeep --catalog entities.json --demo
package main

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/listkeep/listkeep-server/internal/auth"
	"github.com/listkeep/listkeep-server/internal/catalog"
	"github.com/listkeep/listkeep-server/internal/config"
	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/logger"
	"github.com/listkeep/listkeep-server/internal/merge"
	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/search"
	"github.com/listkeep/listkeep-server/internal/service"
	"github.com/listkeep/listkeep-server/internal/store"
	"github.com/listkeep/listkeep-server/internal/store/sqlite"
)

//go:embed catalog.json
var defaultCatalog []byte

var (
	catalogFile = flag.String("catalog", "", "JSON catalog file to import instead of the built-in sample")
	demo        = flag.Bool("demo", false, "Create a demo account with bookmarks and a shared list")
)

const (
	demoEmail    = "demo@listkeep.local"
	demoPassword = "listkeep-demo"
)

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lg := logger.New(logger.Config{Level: logger.ParseLevel(cfg.Logger.Level), Environment: cfg.App.Environment})

	ctx := context.Background()

	kv, err := store.OpenKV(cfg.Data.KVPath(), lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open key-value store: %v", err)
	}
	defer kv.Close()

	index, err := search.NewSearchIndex(search.Options{DataPath: cfg.Data.SearchPath(), Logger: lg.Logger})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	cat, err := catalog.New(kv, index, cfg.Catalog.CacheSize, lg.Logger)
	if err != nil {
		log.Fatalf("Failed to create catalog: %v", err)
	}
	defer cat.Close()

	var n int
	if *catalogFile != "" {
		n, err = cat.ImportFile(ctx, *catalogFile)
	} else {
		n, err = cat.Import(ctx, bytes.NewReader(defaultCatalog))
	}
	if err != nil {
		log.Fatalf("Failed to import catalog: %v", err)
	}
	fmt.Printf("Imported %d catalog entities into %s\n", n, cfg.Data.BasePath)

	if !*demo {
		return
	}

	db, err := sqlite.Open(cfg.Data.DatabasePath(), lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := seedDemo(ctx, cfg, db, cat, lg.Logger); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
}

func seedDemo(ctx context.Context, cfg *config.Config, db *sqlite.Store, cat *catalog.Catalog, lg *slog.Logger) error {
	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(key, time.Hour)
	if err != nil {
		return err
	}
	authSvc := service.NewAuthService(db, tokens, lg)
	saved := service.NewSavedService(db, lg)
	lists := service.NewSharedListService(db, nil, merge.Options{Locale: cfg.Lists.DefaultLocale}, metrics.New(), lg)

	resp, err := authSvc.Register(ctx, service.RegisterRequest{
		Email:       demoEmail,
		Password:    demoPassword,
		DisplayName: "Demo",
	})
	if errors.Is(err, domainerrors.ErrAlreadyExists) {
		fmt.Printf("Demo account %s already exists, skipping\n", demoEmail)
		return nil
	}
	if err != nil {
		return err
	}
	owner := resp.User.Ref()

	for _, slug := range []string{"stripe", "adyen", "plaid", "wise"} {
		entity, err := cat.Lookup(ctx, domain.ItemTypeOrganization, slug)
		if err != nil {
			lg.Warn("catalog entity missing, skipping", "slug", slug)
			continue
		}
		data, err := json.Marshal(entity.ItemData())
		if err != nil {
			return err
		}
		if _, err := saved.Create(ctx, owner.ID, service.ItemInput{
			ItemType: string(entity.Type),
			ItemData: data,
			Tags:     []string{"fintech"},
		}); err != nil {
			return err
		}
	}

	list, err := lists.Create(ctx, &owner, service.CreateListRequest{
		Title:      "Fintech picks",
		TagFilter:  []string{"fintech"},
		Visibility: string(domain.VisibilityPublic),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Demo account: %s / %s\n", demoEmail, demoPassword)
	fmt.Printf("Shared list:  %s/lists/%s\n", cfg.Server.PublicURL, list.ShareToken)
	return nil
}
