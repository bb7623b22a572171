package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	devenv "rankwatch/dev/env"
	configlibsql "rankwatch/lib/configutil/libsql"
	"rankwatch/lib/tablestore/sqlitestore"
)

const storeFile = devenv.DEV_STATE_PREFIX + "/rankwatch.db"

// sampleTargets mirrors the layout of the watch list sheet, the first row is
// a header.
var sampleTargets = [][]any{
	{"名前", "区分"},
	{"さくら", ""},
	{"花", "おちゃ"},
}

func create(ctx context.Context, recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	path, err := devenv.ResolvePath(storeFile)
	if err != nil {
		return err
	}
	if recreate {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			err = os.Remove(path + suffix)
			if err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}

	db, err := configlibsql.Struct{File: storeFile}.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := sqlitestore.NewStore(ctx, db)
	if err != nil {
		return err
	}
	exists, err := store.SheetExists(ctx, "検索リスト")
	if err != nil {
		return err
	}
	if exists {
		fmt.Println("local table store already seeded at", path)
		return nil
	}

	err = store.Seed(ctx, "検索リスト!B:C", sampleTargets)
	if err != nil {
		return err
	}
	fmt.Println("seeded local table store at", path)
	slog.Info(`set "sink": "sqlite" and "sqlite": {"file": "` + storeFile + `"} in config.local.json5 to run against it`)
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "recreate the dev environment from scratch")
	flag.Parse()

	err := create(context.Background(), *recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}
}
