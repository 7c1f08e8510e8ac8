package seasons

import (
	"errors"
	"math/big"
	"testing"
)

func TestBlacklistSnapshotsAndZeroesSales(t *testing.T) {
	engine, _, emitter := newTestEngine(t)
	season := mustCreateSeason(t, engine)
	sub := mustCreateSubmission(t, engine, season.ID, artistA)
	if err := engine.MintArtifact(buyerB, []uint64{sub.ID}, []uint64{4}, big.NewInt(400)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := engine.BlacklistSubmissionFromSeason(owner, season.ID, sub.ID); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	stored, _ := engine.Submission(sub.ID)
	if stored.TotalSold != 0 {
		t.Fatalf("totalSold must reset, got %d", stored.TotalSold)
	}
	if stored.SoldBeforeBlacklist != 4 {
		t.Fatalf("snapshot must keep 4, got %d", stored.SoldBeforeBlacklist)
	}
	if stored.ClaimableBalance != 4 {
		t.Fatalf("claimable balance must be frozen not voided, got %d", stored.ClaimableBalance)
	}
	flagged, err := engine.IsBlacklisted(season.ID, sub.ID)
	if err != nil || !flagged {
		t.Fatalf("expected blacklisted, got %v err %v", flagged, err)
	}
	snapshot, _ := engine.AmountSoldBeforeBlacklist(season.ID, sub.ID)
	if snapshot != 4 {
		t.Fatalf("expected snapshot 4, got %d", snapshot)
	}
	if len(emitter.byType(EventTypeSubmissionBlacklisted)) != 1 {
		t.Fatalf("expected SubmissionBlacklisted event")
	}
}

func TestBlacklistGuards(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	first := mustCreateSeason(t, engine)
	second := mustCreateSeason(t, engine)
	sub := mustCreateSubmission(t, engine, first.ID, artistA)

	if err := engine.BlacklistSubmissionFromSeason(buyerB, first.ID, sub.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := engine.BlacklistSubmissionFromSeason(owner, second.ID, sub.ID); !errors.Is(err, ErrNotPartOfSeason) {
		t.Fatalf("wrong season: expected ErrNotPartOfSeason, got %v", err)
	}
	if err := engine.BlacklistSubmissionFromSeason(owner, first.ID, 999); !errors.Is(err, ErrNotPartOfSeason) {
		t.Fatalf("unknown artifact: expected ErrNotPartOfSeason, got %v", err)
	}
	if err := engine.BlacklistSubmissionFromSeason(owner, first.ID, sub.ID); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if err := engine.BlacklistSubmissionFromSeason(owner, first.ID, sub.ID); !errors.Is(err, ErrAlreadyBlacklisted) {
		t.Fatalf("expected ErrAlreadyBlacklisted, got %v", err)
	}
}

func TestBlacklistedSubmissionRejectsSalesAndClaims(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	season := mustCreateSeason(t, engine)
	sub := mustCreateSubmission(t, engine, season.ID, artistA)
	if err := engine.MintArtifact(buyerB, []uint64{sub.ID}, []uint64{2}, big.NewInt(200)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.BlacklistSubmissionFromSeason(owner, season.ID, sub.ID); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	if err := engine.MintArtifact(buyerB, []uint64{sub.ID}, []uint64{1}, big.NewInt(100)); !errors.Is(err, ErrBlacklisted) {
		t.Fatalf("sale: expected ErrBlacklisted, got %v", err)
	}
	if err := engine.ArtistClaim(artistA, []uint64{sub.ID}, []uint64{1}); !errors.Is(err, ErrBlacklisted) {
		t.Fatalf("claim: expected ErrBlacklisted, got %v", err)
	}
}

func TestBlacklistedSubmissionExcludedFromCloseSeasonMint(t *testing.T) {
	engine, _, emitter := newTestEngine(t)
	season := mustCreateSeason(t, engine)
	kept := mustCreateSubmission(t, engine, season.ID, artistA)
	removed := mustCreateSubmission(t, engine, season.ID, artistA)
	if err := engine.MintArtifact(buyerB, []uint64{kept.ID, removed.ID}, []uint64{3, 5}, big.NewInt(800)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.BlacklistSubmissionFromSeason(owner, season.ID, removed.ID); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	engine.SetNowFunc(func() int64 { return testEnd + 1 })
	if _, err := engine.CloseSeason(owner, season.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if held, _ := engine.BalanceOf(protocol, kept.ID); held != 3 {
		t.Fatalf("protocol should hold 3 of kept artifact, got %d", held)
	}
	if held, _ := engine.BalanceOf(protocol, removed.ID); held != 0 {
		t.Fatalf("blacklisted artifact must not mint to protocol, got %d", held)
	}
	batch := emitter.byType(EventTypeProtocolArtifactsMinted)
	if len(batch) != 1 || batch[0].Attributes["artifactIds"] != "124" {
		t.Fatalf("batch event should only list the kept artifact: %v", batch)
	}
}
