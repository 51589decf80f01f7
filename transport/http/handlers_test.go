package http

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aegle-health/aegle/adapters/events"
	"github.com/aegle-health/aegle/adapters/store"
	"github.com/aegle-health/aegle/adapters/tokenizer"
	"github.com/aegle-health/aegle/core"
	"github.com/aegle-health/aegle/service"
)

type testServer struct {
	router *gin.Engine
}

func newTestServer(t *testing.T, controller string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	logger := zap.NewNop()
	state := core.NewLedgerState()
	eventPub := events.NopPublisher{}

	auth := service.NewAuthService(
		service.NewNonceRegistry(store.NewMemoryNonceStore(), logger),
		store.NewMemoryIdentityStore(),
		tokenizer.NewJWTTokenizer(signKey),
		eventPub,
		controller,
		logger,
	)
	rewards := service.NewRewardService(
		store.NewMemoryRewardStore(), state, eventPub,
		service.DefaultRewardAmounts, time.UTC, logger,
	)
	conditions := service.NewConditionService(
		store.NewMemoryConditionStore(), eventPub,
		service.DefaultConditionAmounts, logger,
	)
	achievements := service.NewAchievementService(
		store.NewMemoryAchievementStore(), state, eventPub,
		"0x281055afc982d96fAB65b3a49cAc8b878184cb16", service.DefaultCharitySplitPercent, logger,
	)

	handlers := NewHandlers(auth, rewards, conditions, achievements, logger)
	return &testServer{router: SetupRouter(handlers, auth)}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

// authenticate runs the full challenge-sign-verify flow with a fresh key.
func (s *testServer) authenticate(t *testing.T, key *ecdsa.PrivateKey) string {
	t.Helper()
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	w, body := s.do(t, http.MethodPost, "/auth/challenge", "", gin.H{"address": address})
	require.Equal(t, http.StatusOK, w.Code)
	message := body["message"].(string)

	sig, err := ethcrypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[64] += 27

	w, body = s.do(t, http.MethodPost, "/auth/verify", "", gin.H{
		"address":   address,
		"signature": hexutil.Encode(sig),
		"message":   message,
	})
	require.Equal(t, http.StatusOK, w.Code)
	return body["access_token"].(string)
}

func TestHTTP_AuthFlowAndMint(t *testing.T) {
	server := newTestServer(t, "")

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	token := server.authenticate(t, key)

	w, body := server.do(t, http.MethodPost, "/rewards/eye-test", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 50, body["balance"])

	w, body = server.do(t, http.MethodGet, "/rewards/discount", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 0, body["discount_percent"])
}

func TestHTTP_VerifyBadSignatureReason(t *testing.T) {
	server := newTestServer(t, "")

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	intruder, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	w, body := server.do(t, http.MethodPost, "/auth/challenge", "", gin.H{"address": address})
	require.Equal(t, http.StatusOK, w.Code)
	message := body["message"].(string)

	sig, err := ethcrypto.Sign(accounts.TextHash([]byte(message)), intruder)
	require.NoError(t, err)
	sig[64] += 27

	w, body = server.do(t, http.MethodPost, "/auth/verify", "", gin.H{
		"address":   address,
		"signature": hexutil.Encode(sig),
		"message":   message,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "invalid_signature", body["reason"])
}

func TestHTTP_MutationRequiresToken(t *testing.T) {
	server := newTestServer(t, "")

	w, body := server.do(t, http.MethodPost, "/rewards/eye-test", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "invalid_token", body["reason"])
}

func TestHTTP_ControllerPauseAndAchievements(t *testing.T) {
	controllerKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	controllerAddr := ethcrypto.PubkeyToAddress(controllerKey.PublicKey).Hex()

	server := newTestServer(t, controllerAddr)
	controllerToken := server.authenticate(t, controllerKey)

	userKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	userToken := server.authenticate(t, userKey)

	// Minters cannot pause or mint achievements.
	w, body := server.do(t, http.MethodPost, "/ledger/pause", userToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "insufficient_role", body["reason"])

	// The controller mints an achievement and records a sale.
	w, body = server.do(t, http.MethodPost, "/achievements", controllerToken, gin.H{
		"recipient":    controllerAddr,
		"type":         1,
		"metadata_ref": "ipfs://meta/1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, body["token_id"])

	w, body = server.do(t, http.MethodPost, "/achievements/1/sale", controllerToken, gin.H{"price": 100})
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 10, body["royalty"])
	require.EqualValues(t, 90, body["seller_payout"])

	// Pause blocks fungible minting until unpause.
	w, _ = server.do(t, http.MethodPost, "/ledger/pause", controllerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = server.do(t, http.MethodPost, "/rewards/exercise", userToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "ledger_paused", body["reason"])

	w, _ = server.do(t, http.MethodPost, "/ledger/unpause", controllerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = server.do(t, http.MethodPost, "/rewards/exercise", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 10, body["balance"])
}

func TestHTTP_ConditionReporting(t *testing.T) {
	server := newTestServer(t, "")

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	token := server.authenticate(t, key)

	w, body := server.do(t, http.MethodPost, "/health/conditions", token, gin.H{"tier": "severe", "confidence": 88})
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 0, body["amount"])

	w, body = server.do(t, http.MethodPost, "/health/conditions", token, gin.H{"tier": "normal", "confidence": 95})
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 10, body["amount"])

	w, body = server.do(t, http.MethodGet, "/health/statistics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 2, body["total_tests"])
	require.EqualValues(t, 1, body["severe_count"])

	w, body = server.do(t, http.MethodGet, "/health/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body["history"], 2)
}
