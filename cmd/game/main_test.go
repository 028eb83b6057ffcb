package main

import (
	"context"
	"testing"
	"time"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/api/apitest"
)

func TestParseOptions_EnvironmentDefaults(t *testing.T) {
	t.Setenv("TILEBOARD_NAME", "Carol")
	t.Setenv("TILEBOARD_POLL", "2s")
	t.Setenv("TILEBOARD_SPECIAL", "true")

	o, err := parseOptions([]string{"-players", "3"})
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if o.name != "Carol" || o.poll != 2*time.Second || !o.special || o.players != 3 {
		t.Fatalf("unexpected options %+v", o)
	}

	o, _ = parseOptions([]string{"-name", "Dave"})
	if o.name != "Dave" {
		t.Fatalf("flag should override the environment, got %q", o.name)
	}
}

func TestJoinOrCreate(t *testing.T) {
	fake := apitest.NewServer()
	ts := apitest.Start(fake)
	defer ts.Close()
	c := api.New(ts.URL)
	ctx := context.Background()

	gameID, playerID, err := joinOrCreate(ctx, c, options{name: "Eve", players: 2, bot: "greedy"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if gameID == "" || playerID == "" {
		t.Fatalf("ids = %q %q", gameID, playerID)
	}
	if fake.Calls("create") != 1 || fake.Calls("join") != 1 {
		t.Fatalf("create %d join %d", fake.Calls("create"), fake.Calls("join"))
	}

	if _, _, err := joinOrCreate(ctx, c, options{gameID: gameID, name: "Frank"}); err == nil {
		t.Fatal("joining a full game should fail")
	}
	if _, _, err := joinOrCreate(ctx, c, options{gameID: "missing", name: "Frank"}); err == nil {
		t.Fatal("joining an unknown game should fail")
	}
}
