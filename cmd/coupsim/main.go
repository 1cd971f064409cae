package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"coup-lite/coup"
	"coup-lite/coup/npc"
)

// coupsim plays bot-only matches to completion, for balance tuning and
// as an end-to-end smoke test of the rules engine.

const simHostID = "sim"

var difficulties = []string{"easy", "medium", "hard"}
var personalities = []string{"balanced", "aggressive", "defensive", "bluffer"}

func main() {
	var (
		bots     = flag.Int("bots", 4, "number of bot seats (2-6)")
		matches  = flag.Int("matches", 1, "matches to play")
		seed     = flag.Int64("seed", 0, "rng seed (0 = random)")
		maxTurns = flag.Int("max-turns", 500, "abort a match after this many turns")
		verbose  = flag.Bool("v", false, "log every decision")
	)
	flag.Parse()

	if *bots < coup.MinPlayers || *bots > coup.MaxPlayers {
		fmt.Fprintf(os.Stderr, "bots must be in [%d,%d]\n", coup.MinPlayers, coup.MaxPlayers)
		os.Exit(2)
	}
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	wins := make(map[string]int)
	for i := 0; i < *matches; i++ {
		winner, err := playMatch(*bots, *seed+int64(i), *maxTurns)
		if err != nil {
			fmt.Fprintf(os.Stderr, "match %d: %v\n", i+1, err)
			os.Exit(1)
		}
		wins[winner]++
	}

	fmt.Printf("played %d matches with %d bots\n", *matches, *bots)
	for name, n := range wins {
		fmt.Printf("  %-28s %d\n", name, n)
	}
}

func playMatch(bots int, seed int64, maxTurns int) (string, error) {
	code, err := coup.NewMatchCode()
	if err != nil {
		return "", err
	}
	g, err := coup.NewMatch(coup.Config{
		Code:     code,
		HostID:   simHostID,
		Settings: coup.DefaultSettings(),
		Seed:     seed,
	})
	if err != nil {
		return "", err
	}

	mgr := npc.NewManager()
	for i := 0; i < bots; i++ {
		d := difficulties[i%len(difficulties)]
		p := personalities[i%len(personalities)]
		if _, err := mgr.Spawn(g, d, p); err != nil {
			return "", err
		}
	}
	g.SetCardChooser(mgr)

	if err := g.Start(simHostID); err != nil {
		return "", err
	}

	for g.Phase() == coup.PhasePlaying {
		snap := g.Snapshot()
		if snap.Turn > maxTurns {
			return "", fmt.Errorf("match exceeded %d turns", maxTurns)
		}
		if snap.Pending != nil {
			if err := respond(g, mgr, snap); err != nil {
				return "", err
			}
			continue
		}
		if err := takeTurn(g, mgr, snap); err != nil {
			return "", err
		}
	}

	final := g.Snapshot()
	for _, p := range final.Players {
		if p.ID == final.WinnerID {
			return p.DisplayName, nil
		}
	}
	return "", fmt.Errorf("match ended without a winner")
}

// takeTurn lets the current bot act, falling back to income and finally
// to a skip when its choice is rejected.
func takeTurn(g *coup.Game, mgr *npc.Manager, snap coup.Snapshot) error {
	current := snap.CurrentID
	d := mgr.OnTurn(current, snap.RedactFor(current))
	if _, err := g.ExecuteAction(current, d.Action, d.TargetID); err == nil {
		return nil
	} else if errors.Is(err, coup.ErrInvalidPhase) {
		return nil
	}
	if _, err := g.ExecuteAction(current, coup.ActionIncome, ""); err == nil {
		return nil
	}
	_, err := g.SkipTurn()
	return err
}

// respond walks the other seats: first challenger wins the window, then
// blocks, then the action resolves unopposed.
func respond(g *coup.Game, mgr *npc.Manager, snap coup.Snapshot) error {
	pa := snap.Pending
	for _, p := range snap.Players {
		if !p.Alive || p.ID == pa.ActorID {
			continue
		}
		if pa.Claims() && mgr.ShouldChallenge(p.ID, snap.RedactFor(p.ID)) {
			_, err := g.ChallengeAction(p.ID)
			return err
		}
	}
	if pa.Type != coup.ActionBlock {
		for _, p := range snap.Players {
			if !p.Alive || p.ID == pa.ActorID {
				continue
			}
			if role, ok := mgr.ShouldBlock(p.ID, snap.RedactFor(p.ID)); ok {
				if _, err := g.BlockAction(p.ID, role); err == nil {
					return nil
				}
			}
		}
	}
	_, err := g.ResolveAction()
	if errors.Is(err, coup.ErrNoPendingAction) || errors.Is(err, coup.ErrInvalidPhase) {
		return nil
	}
	return err
}
