package rpc

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"

	"artifactledger/config"
	"artifactledger/core/types"
	"artifactledger/native/seasons"
	"artifactledger/observability"
)

type createSeasonParams struct {
	Caller    string `json:"caller"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

type createSubmissionParams struct {
	Caller   string `json:"caller"`
	SeasonID uint64 `json:"seasonId"`
	URI      string `json:"uri"`
	Artist   string `json:"artist"`
}

type seasonIDParams struct {
	Caller   string `json:"caller,omitempty"`
	SeasonID uint64 `json:"seasonId"`
}

type mintArtifactParams struct {
	Buyer       string   `json:"buyer"`
	ArtifactIDs []uint64 `json:"artifactIds"`
	Amounts     []uint64 `json:"amounts"`
	Paid        string   `json:"paid"`
}

type artistClaimParams struct {
	Claimant    string   `json:"claimant"`
	ArtifactIDs []uint64 `json:"artifactIds"`
	Amounts     []uint64 `json:"amounts"`
}

type moderationParams struct {
	Caller     string `json:"caller,omitempty"`
	SeasonID   uint64 `json:"seasonId"`
	ArtifactID uint64 `json:"artifactId"`
}

type artifactIDParams struct {
	ArtifactID uint64 `json:"artifactId"`
}

type accountArtifactParams struct {
	Account    string `json:"account"`
	ArtifactID uint64 `json:"artifactId"`
}

type accountSeasonParams struct {
	Account  string `json:"account"`
	SeasonID uint64 `json:"seasonId"`
}

type accountParams struct {
	Account string `json:"account"`
}

type setUnitPriceParams struct {
	Caller string `json:"caller"`
	Price  string `json:"price"`
}

type setWalletParams struct {
	Caller string `json:"caller"`
	Wallet string `json:"wallet"`
}

type setPercentParams struct {
	Caller  string `json:"caller"`
	Percent uint32 `json:"percent"`
}

type setShutdownParams struct {
	Caller   string `json:"caller"`
	Shutdown bool   `json:"shutdown"`
}

type callerParams struct {
	Caller string `json:"caller"`
}

type eventsParams struct {
	Offset int `json:"offset"`
}

type seasonResult struct {
	ID               uint64   `json:"id"`
	SubmissionIDs    []uint64 `json:"submissionIds"`
	StartTime        int64    `json:"startTime"`
	EndTime          int64    `json:"endTime"`
	Closed           bool     `json:"closed"`
	TopSubmissionIDs []uint64 `json:"topSubmissionIds,omitempty"`
}

type submissionResult struct {
	ID                  uint64 `json:"id"`
	SeasonID            uint64 `json:"seasonId"`
	URI                 string `json:"uri"`
	Artist              string `json:"artist"`
	TotalSold           uint64 `json:"totalSold"`
	ClaimableBalance    uint64 `json:"claimableBalance"`
	Blacklisted         bool   `json:"blacklisted"`
	SoldBeforeBlacklist uint64 `json:"soldBeforeBlacklist"`
}

type configResult struct {
	UnitPrice            string `json:"unitPrice"`
	ProtocolWallet       string `json:"protocolWallet"`
	TreasuryWallet       string `json:"treasuryWallet"`
	ProtocolFeePercent   uint32 `json:"protocolFeePercent"`
	TreasurySplitPercent uint32 `json:"treasurySplitPercent"`
	Shutdown             bool   `json:"shutdown"`
}

type eventResult struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

func formatSeason(season *seasons.Season) seasonResult {
	return seasonResult{
		ID:               season.ID,
		SubmissionIDs:    season.SubmissionIDs,
		StartTime:        season.StartTime,
		EndTime:          season.EndTime,
		Closed:           season.Closed,
		TopSubmissionIDs: season.TopSubmissionIDs,
	}
}

func formatSubmission(sub *seasons.Submission) submissionResult {
	return submissionResult{
		ID:                  sub.ID,
		SeasonID:            sub.SeasonID,
		URI:                 sub.URI,
		Artist:              formatAddress(sub.Artist),
		TotalSold:           sub.TotalSold,
		ClaimableBalance:    sub.ClaimableBalance,
		Blacklisted:         sub.Blacklisted,
		SoldBeforeBlacklist: sub.SoldBeforeBlacklist,
	}
}

func formatAddress(addr [20]byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 2, 2+len(addr)*2)
	out[0], out[1] = '0', 'x'
	for _, b := range addr {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return string(out)
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// decodeParams unmarshals the single parameter object of req into dst.
func decodeParams(w http.ResponseWriter, req *RPCRequest, dst interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], dst); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return false
	}
	return true
}

func decodeAddress(w http.ResponseWriter, req *RPCRequest, field, raw string) ([20]byte, bool) {
	addr, err := config.ParseAddress(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid "+field+" address", err.Error())
		return addr, false
	}
	return addr, true
}

func (s *Server) handleCreateSeason(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params createSeasonParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	season, err := s.node.CreateSeason(caller, params.StartTime, params.EndTime)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSeason(season))
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params createSubmissionParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	artist, ok := decodeAddress(w, req, "artist", params.Artist)
	if !ok {
		return
	}
	sub, err := s.node.CreateSubmission(caller, params.SeasonID, params.URI, artist)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSubmission(sub))
}

func (s *Server) handleCloseSeason(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params seasonIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	season, err := s.node.CloseSeason(caller, params.SeasonID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	observability.RegistryMetrics().RecordSeasonClosed()
	writeResult(w, req.ID, formatSeason(season))
}

func (s *Server) handleMintArtifact(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params mintArtifactParams
	if !decodeParams(w, req, &params) {
		return
	}
	buyer, ok := decodeAddress(w, req, "buyer", params.Buyer)
	if !ok {
		return
	}
	paid, err := config.ParseAmount(params.Paid)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid paid amount", err.Error())
		return
	}
	if err := s.node.MintArtifact(buyer, params.ArtifactIDs, params.Amounts, paid); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	var units uint64
	for _, amount := range params.Amounts {
		units += amount
	}
	if accrued, err := s.node.ProtocolAccrued(); err == nil {
		observability.RegistryMetrics().SetProtocolAccrued(accrued)
	}
	for i, id := range params.ArtifactIDs {
		if sub, err := s.node.Submission(id); err == nil {
			observability.RegistryMetrics().RecordSale(strconv.FormatUint(sub.SeasonID, 10), params.Amounts[i])
		}
	}
	writeResult(w, req.ID, map[string]interface{}{
		"buyer": params.Buyer,
		"units": units,
		"paid":  paid.String(),
	})
}

func (s *Server) handleArtistClaim(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params artistClaimParams
	if !decodeParams(w, req, &params) {
		return
	}
	claimant, ok := decodeAddress(w, req, "claimant", params.Claimant)
	if !ok {
		return
	}
	if err := s.node.ArtistClaim(claimant, params.ArtifactIDs, params.Amounts); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	var units uint64
	for _, amount := range params.Amounts {
		units += amount
	}
	observability.RegistryMetrics().RecordClaim(units)
	writeResult(w, req.ID, map[string]interface{}{
		"claimant": params.Claimant,
		"units":    units,
	})
}

func (s *Server) handleBlacklistSubmission(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params moderationParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.node.BlacklistSubmissionFromSeason(caller, params.SeasonID, params.ArtifactID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	observability.RegistryMetrics().RecordBlacklist()
	writeResult(w, req.ID, map[string]interface{}{
		"seasonId":   params.SeasonID,
		"artifactId": params.ArtifactID,
	})
}

func (s *Server) handleCalculateTopSubmissions(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params seasonIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	winners, err := s.node.CalculateTopSubmissionsOfSeason(caller, params.SeasonID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"seasonId": params.SeasonID,
		"winners":  winners,
	})
}

func (s *Server) handleWithdrawProtocolFees(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params callerParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	amount, err := s.node.WithdrawProtocolFees(caller)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	observability.RegistryMetrics().RecordFeeWithdrawal()
	writeResult(w, req.ID, map[string]interface{}{
		"amount": bigString(amount),
	})
}

func (s *Server) handleSetUnitPrice(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params setUnitPriceParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	price, err := config.ParseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid price", err.Error())
		return
	}
	if err := s.node.SetUnitPrice(caller, price); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"price": price.String()})
}

func (s *Server) handleSetProtocolWallet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.handleSetWallet(w, req, s.node.SetProtocolWallet)
}

func (s *Server) handleSetTreasuryWallet(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.handleSetWallet(w, req, s.node.SetTreasuryWallet)
}

func (s *Server) handleSetWallet(w http.ResponseWriter, req *RPCRequest, set func(caller, wallet [20]byte) error) {
	var params setWalletParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	wallet, ok := decodeAddress(w, req, "wallet", params.Wallet)
	if !ok {
		return
	}
	if err := set(caller, wallet); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"wallet": params.Wallet})
}

func (s *Server) handleSetProtocolFeePercent(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.handleSetPercent(w, req, s.node.SetProtocolFeePercent)
}

func (s *Server) handleSetTreasurySplitPercent(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.handleSetPercent(w, req, s.node.SetTreasurySplitPercent)
}

func (s *Server) handleSetPercent(w http.ResponseWriter, req *RPCRequest, set func(caller [20]byte, percent uint32) error) {
	var params setPercentParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := set(caller, params.Percent); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"percent": params.Percent})
}

func (s *Server) handleSetShutdown(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params setShutdownParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, ok := decodeAddress(w, req, "caller", params.Caller)
	if !ok {
		return
	}
	if err := s.node.SetShutdown(caller, params.Shutdown); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"shutdown": params.Shutdown})
}

func (s *Server) handleGetSeason(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params seasonIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	season, err := s.node.Season(params.SeasonID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSeason(season))
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params artifactIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	sub, err := s.node.Submission(params.ArtifactID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatSubmission(sub))
}

func (s *Server) handleLatestTokenID(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params seasonIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	id, err := s.node.LatestTokenID(params.SeasonID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"artifactId": id})
}

func (s *Server) handleTokenURI(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params artifactIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	uri, err := s.node.TokenURI(params.ArtifactID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"uri": uri})
}

func (s *Server) handleBalanceOf(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params accountArtifactParams
	if !decodeParams(w, req, &params) {
		return
	}
	account, ok := decodeAddress(w, req, "account", params.Account)
	if !ok {
		return
	}
	balance, err := s.node.BalanceOf(account, params.ArtifactID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"balance": balance})
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params accountParams
	if !decodeParams(w, req, &params) {
		return
	}
	account, ok := decodeAddress(w, req, "account", params.Account)
	if !ok {
		return
	}
	balance, err := s.node.AccountBalance(account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"balance": bigString(balance)})
}

func (s *Server) handleIsBlacklisted(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params moderationParams
	if !decodeParams(w, req, &params) {
		return
	}
	blacklisted, err := s.node.IsBlacklisted(params.SeasonID, params.ArtifactID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"blacklisted": blacklisted})
}

func (s *Server) handleAmountSoldBeforeBlacklist(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params moderationParams
	if !decodeParams(w, req, &params) {
		return
	}
	amount, err := s.node.AmountSoldBeforeBlacklist(params.SeasonID, params.ArtifactID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"amount": amount})
}

func (s *Server) handleTopSubmissions(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params seasonIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	winners, err := s.node.TopSubmissionsOfSeason(params.SeasonID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"winners": winners})
}

func (s *Server) handleTopBuyer(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params artifactIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	buyer, found, err := s.node.TopBuyerPerArtifact(params.ArtifactID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	result := map[string]interface{}{"found": found}
	if found {
		result["buyer"] = formatAddress(buyer)
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleTotalTokenSales(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params artifactIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	total, err := s.node.TotalTokenSales(params.ArtifactID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"total": total})
}

func (s *Server) handleTokensPurchasedInSeason(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params accountSeasonParams
	if !decodeParams(w, req, &params) {
		return
	}
	account, ok := decodeAddress(w, req, "account", params.Account)
	if !ok {
		return
	}
	total, err := s.node.TokensPurchasedInSeason(account, params.SeasonID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"total": total})
}

func (s *Server) handleTokensPurchasedPerArtifact(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params accountArtifactParams
	if !decodeParams(w, req, &params) {
		return
	}
	account, ok := decodeAddress(w, req, "account", params.Account)
	if !ok {
		return
	}
	total, err := s.node.TokensPurchasedPerArtifact(account, params.ArtifactID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"total": total})
}

func (s *Server) handleProtocolAccrued(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	accrued, err := s.node.ProtocolAccrued()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"accrued": bigString(accrued)})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	cfg, err := s.node.Config()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, configResult{
		UnitPrice:            bigString(cfg.UnitPrice),
		ProtocolWallet:       formatAddress(cfg.ProtocolWallet),
		TreasuryWallet:       formatAddress(cfg.TreasuryWallet),
		ProtocolFeePercent:   cfg.ProtocolFeePercent,
		TreasurySplitPercent: cfg.TreasurySplitPercent,
		Shutdown:             cfg.Shutdown,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	params := eventsParams{}
	if len(req.Params) == 1 {
		if err := json.Unmarshal(req.Params[0], &params); err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
			return
		}
	}
	events := s.node.Events(params.Offset)
	out := make([]eventResult, len(events))
	for i, evt := range events {
		out[i] = formatEvent(evt)
	}
	writeResult(w, req.ID, out)
}

func formatEvent(evt types.Event) eventResult {
	return eventResult{Type: evt.Type, Attributes: evt.Attributes}
}
