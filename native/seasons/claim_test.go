package seasons

import (
	"errors"
	"math/big"
	"testing"
)

func TestArtistClaimMintsAgainstClaimableBalance(t *testing.T) {
	engine, _, emitter := newTestEngine(t)
	season := mustCreateSeason(t, engine)
	sub := mustCreateSubmission(t, engine, season.ID, artistA)
	if err := engine.MintArtifact(buyerB, []uint64{sub.ID}, []uint64{2}, big.NewInt(200)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := engine.ArtistClaim(artistA, []uint64{sub.ID}, []uint64{2}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	held, _ := engine.BalanceOf(artistA, sub.ID)
	if held != 2 {
		t.Fatalf("expected artist balance 2, got %d", held)
	}
	stored, _ := engine.Submission(sub.ID)
	if stored.ClaimableBalance != 0 {
		t.Fatalf("expected claimable 0, got %d", stored.ClaimableBalance)
	}
	if stored.TotalSold != 2 {
		t.Fatalf("claiming must not touch totalSold, got %d", stored.TotalSold)
	}
	claimed := emitter.byType(EventTypeArtifactsClaimed)
	if len(claimed) != 1 || claimed[0].Attributes["amount"] != "2" {
		t.Fatalf("claim event wrong: %v", claimed)
	}
	if claimed[0].Attributes["timestamp"] == "" {
		t.Fatalf("claim event must carry a timestamp")
	}

	// The balance is spent; a further claim has nothing left.
	if err := engine.ArtistClaim(artistA, []uint64{sub.ID}, []uint64{1}); !errors.Is(err, ErrNoTokensToMint) {
		t.Fatalf("expected ErrNoTokensToMint, got %v", err)
	}
}

func TestArtistClaimPartialThenRemainder(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	season := mustCreateSeason(t, engine)
	sub := mustCreateSubmission(t, engine, season.ID, artistA)
	if err := engine.MintArtifact(buyerB, []uint64{sub.ID}, []uint64{5}, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := engine.ArtistClaim(artistA, []uint64{sub.ID}, []uint64{3}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	stored, _ := engine.Submission(sub.ID)
	if stored.ClaimableBalance != 2 {
		t.Fatalf("expected claimable 2, got %d", stored.ClaimableBalance)
	}
	if err := engine.ArtistClaim(artistA, []uint64{sub.ID}, []uint64{3}); !errors.Is(err, ErrIncorrectAmount) {
		t.Fatalf("over-claim: expected ErrIncorrectAmount, got %v", err)
	}
	if err := engine.ArtistClaim(artistA, []uint64{sub.ID}, []uint64{2}); err != nil {
		t.Fatalf("remainder claim: %v", err)
	}
	if held, _ := engine.BalanceOf(artistA, sub.ID); held != 5 {
		t.Fatalf("expected artist balance 5, got %d", held)
	}
}

func TestArtistClaimAuthorization(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	season := mustCreateSeason(t, engine)
	sub := mustCreateSubmission(t, engine, season.ID, artistA)
	if err := engine.MintArtifact(buyerB, []uint64{sub.ID}, []uint64{2}, big.NewInt(200)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.ArtistClaim(buyerB, []uint64{sub.ID}, []uint64{2}); !errors.Is(err, ErrOnlyArtist) {
		t.Fatalf("expected ErrOnlyArtist, got %v", err)
	}
	if err := engine.ArtistClaim(artistA, []uint64{999}, []uint64{1}); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
	if err := engine.ArtistClaim(artistA, []uint64{sub.ID}, []uint64{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestArtistClaimBatchIsAllOrNothing(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	season := mustCreateSeason(t, engine)
	first := mustCreateSubmission(t, engine, season.ID, artistA)
	second := mustCreateSubmission(t, engine, season.ID, artistA)
	if err := engine.MintArtifact(buyerB, []uint64{first.ID, second.ID}, []uint64{3, 1}, big.NewInt(400)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	// Second pair over-claims; the first pair must not commit.
	err := engine.ArtistClaim(artistA, []uint64{first.ID, second.ID}, []uint64{2, 5})
	if !errors.Is(err, ErrIncorrectAmount) {
		t.Fatalf("expected ErrIncorrectAmount, got %v", err)
	}
	stored, _ := engine.Submission(first.ID)
	if stored.ClaimableBalance != 3 {
		t.Fatalf("partial claim leaked: %d", stored.ClaimableBalance)
	}
	if held, _ := engine.BalanceOf(artistA, first.ID); held != 0 {
		t.Fatalf("partial claim minted units: %d", held)
	}
}
