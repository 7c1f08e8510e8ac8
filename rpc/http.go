package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"artifactledger/core"
	"artifactledger/native/seasons"
	"artifactledger/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeNotFound       = -32004
	codeRejected       = -32010
)

// Server exposes the registry over JSON-RPC. Administrative methods require
// the bearer token configured via ARTIFACTLEDGER_RPC_TOKEN.
type Server struct {
	node      *core.Node
	authToken string
}

func NewServer(node *core.Node) *Server {
	token := strings.TrimSpace(os.Getenv("ARTIFACTLEDGER_RPC_TOKEN"))
	return &Server{
		node:      node,
		authToken: token,
	}
}

// Handler returns the HTTP handler serving RPC and the websocket stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.HandleFunc("/ws/events", s.handleEventsWS)
	return mux
}

func (s *Server) Start(addr string) error {
	fmt.Printf("Starting JSON-RPC server on %s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError translates a registry error into an RPC error response.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	status, code := classifyError(err)
	writeError(w, status, id, code, err.Error(), nil)
}

func classifyError(err error) (int, int) {
	switch {
	case errors.Is(err, seasons.ErrUnauthorized), errors.Is(err, seasons.ErrOnlyArtist):
		return http.StatusForbidden, codeUnauthorized
	case errors.Is(err, seasons.ErrSeasonNotFound),
		errors.Is(err, seasons.ErrSubmissionNotFound),
		errors.Is(err, seasons.ErrNotPartOfSeason):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, seasons.ErrInvalidInput),
		errors.Is(err, seasons.ErrIncorrectTimes),
		errors.Is(err, seasons.ErrInvalidPercentage):
		return http.StatusBadRequest, codeInvalidParams
	case errors.Is(err, seasons.ErrSeasonAlreadyClosed),
		errors.Is(err, seasons.ErrSeasonStillRunning),
		errors.Is(err, seasons.ErrSubmissionWindowElapsed),
		errors.Is(err, seasons.ErrIncorrectAmount),
		errors.Is(err, seasons.ErrBlacklisted),
		errors.Is(err, seasons.ErrAlreadyBlacklisted),
		errors.Is(err, seasons.ErrNoTokensToMint),
		errors.Is(err, seasons.ErrShutdown),
		errors.Is(err, seasons.ErrInsufficientFunds),
		errors.Is(err, seasons.ErrAmountOverflow):
		return http.StatusConflict, codeRejected
	default:
		return http.StatusInternalServerError, codeServerError
	}
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	s.route(recorder, r, req)
	code := ""
	if recorder.status >= 400 {
		code = strconv.Itoa(recorder.status)
	}
	observability.RPCMetrics().Observe(req.Method, code, time.Since(start))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "seasons_createSeason":
		s.authed(w, r, req, s.handleCreateSeason)
	case "seasons_createSubmission":
		s.authed(w, r, req, s.handleCreateSubmission)
	case "seasons_closeSeason":
		s.authed(w, r, req, s.handleCloseSeason)
	case "seasons_mintArtifact":
		s.handleMintArtifact(w, r, req)
	case "seasons_artistClaim":
		s.handleArtistClaim(w, r, req)
	case "seasons_blacklistSubmission":
		s.authed(w, r, req, s.handleBlacklistSubmission)
	case "seasons_calculateTopSubmissions":
		s.authed(w, r, req, s.handleCalculateTopSubmissions)
	case "seasons_withdrawProtocolFees":
		s.authed(w, r, req, s.handleWithdrawProtocolFees)
	case "seasons_setUnitPrice":
		s.authed(w, r, req, s.handleSetUnitPrice)
	case "seasons_setProtocolWallet":
		s.authed(w, r, req, s.handleSetProtocolWallet)
	case "seasons_setTreasuryWallet":
		s.authed(w, r, req, s.handleSetTreasuryWallet)
	case "seasons_setProtocolFeePercent":
		s.authed(w, r, req, s.handleSetProtocolFeePercent)
	case "seasons_setTreasurySplitPercent":
		s.authed(w, r, req, s.handleSetTreasurySplitPercent)
	case "seasons_setShutdown":
		s.authed(w, r, req, s.handleSetShutdown)
	case "seasons_getSeason":
		s.handleGetSeason(w, r, req)
	case "seasons_getSubmission":
		s.handleGetSubmission(w, r, req)
	case "seasons_latestTokenID":
		s.handleLatestTokenID(w, r, req)
	case "seasons_tokenURI":
		s.handleTokenURI(w, r, req)
	case "seasons_balanceOf":
		s.handleBalanceOf(w, r, req)
	case "seasons_accountBalance":
		s.handleAccountBalance(w, r, req)
	case "seasons_isBlacklisted":
		s.handleIsBlacklisted(w, r, req)
	case "seasons_amountSoldBeforeBlacklist":
		s.handleAmountSoldBeforeBlacklist(w, r, req)
	case "seasons_topSubmissions":
		s.handleTopSubmissions(w, r, req)
	case "seasons_topBuyer":
		s.handleTopBuyer(w, r, req)
	case "seasons_totalTokenSales":
		s.handleTotalTokenSales(w, r, req)
	case "seasons_tokensPurchasedInSeason":
		s.handleTokensPurchasedInSeason(w, r, req)
	case "seasons_tokensPurchasedPerArtifact":
		s.handleTokensPurchasedPerArtifact(w, r, req)
	case "seasons_protocolAccrued":
		s.handleProtocolAccrued(w, r, req)
	case "seasons_getConfig":
		s.handleGetConfig(w, r, req)
	case "seasons_events":
		s.handleEvents(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
	}
}

type handlerFunc func(http.ResponseWriter, *http.Request, *RPCRequest)

func (s *Server) authed(w http.ResponseWriter, r *http.Request, req *RPCRequest, next handlerFunc) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	next(w, r, req)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}
