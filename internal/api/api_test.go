package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mining_rewards/internal/domain"
	"mining_rewards/internal/ledger"
	"mining_rewards/internal/testutil"
	"mining_rewards/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "api-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	r     *gin.Engine
	db    *gorm.DB
	clock *testutil.Clock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithRedis(t, nil)
}

func newTestAPIWithRedis(t *testing.T, rdb *redis.Client) *testAPI {
	t.Helper()
	gdb := testutil.NewDB(t)
	clock := testutil.NewClock()
	svc := ledger.NewService(gdb, ledger.WithClock(clock.Now))
	r := NewRouter(Deps{DB: gdb, Redis: rdb, Ledger: svc, JWTSecret: testSecret})
	return &testAPI{r: r, db: gdb, clock: clock}
}

func (a *testAPI) token(t *testing.T, u *domain.User) string {
	t.Helper()
	tok, err := utils.GenerateJWT(u.ID, u.Username, testSecret)
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func TestSignupAndLogin(t *testing.T) {
	a := newTestAPI(t)

	code, body := a.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"username": "Alice", "password": "secret1", "phoneNumber": "03001234567"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.NotEmpty(t, body["token"])
	alice := body["user"].(map[string]any)
	assert.Equal(t, "alice", alice["username"])
	assert.NotContains(t, alice, "password")
	inviteCode := alice["referralCode"].(string)
	require.Len(t, inviteCode, utils.ReferralCodeLength)

	code, body = a.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"username": "bob", "password": "secret2", "referralCode": inviteCode})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, alice["id"], body["user"].(map[string]any)["referredById"])

	code, body = a.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"username": "carol", "password": "secret3", "referralCode": "NOPE0000"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Nil(t, body["user"].(map[string]any)["referredById"])

	code, _ = a.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"username": "alice", "password": "another"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"username": "dave", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"username": "dave", "password": "secret4", "phoneNumber": "123"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, body = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "ALICE", "password": "secret1"})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["token"])
}

func TestRentAndClaim(t *testing.T) {
	a := newTestAPI(t)
	user := testutil.CreateUser(t, a.db, "miner", testutil.WithBalance("25"))
	tok := a.token(t, user)

	code, body := a.do(t, http.MethodPost, "/api/machines/rent", tok, gin.H{"machineId": "m2"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "5", body["user"].(map[string]any)["balance"])

	code, body = a.do(t, http.MethodPost, "/api/machines/rent", tok, gin.H{"machineId": "m2"})
	assert.Equal(t, http.StatusBadRequest, code, body)
	code, _ = a.do(t, http.MethodPost, "/api/machines/rent", tok, gin.H{"machineId": "m404"})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = a.do(t, http.MethodGet, "/api/mining/status/"+user.ID, tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["claimableMachines"])
	assert.Equal(t, "0.67", body["claimableReward"])
	assert.NotEmpty(t, body["serverTime"])

	code, body = a.do(t, http.MethodPost, "/api/mining/claim", tok, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "0.67", body["reward"])
	assert.Equal(t, "5.67", body["balance"])

	code, body = a.do(t, http.MethodPost, "/api/mining/claim", tok, nil)
	require.Equal(t, http.StatusBadRequest, code)
	assert.NotNil(t, body["nextClaimTime"])
	assert.Equal(t, float64(24*60*60), body["remainingSeconds"])

	a.clock.Advance(24 * time.Hour)
	code, body = a.do(t, http.MethodGet, "/api/machines/owned/"+user.ID, tok, nil)
	require.Equal(t, http.StatusOK, code)
	machines := body["machines"].([]any)
	require.Len(t, machines, 1)
	assert.Equal(t, true, machines[0].(map[string]any)["claimable"])
}

func TestBalanceChangesDropAdminCaches(t *testing.T) {
	rdb, log := testutil.NewRecordingRedis(t)
	a := newTestAPIWithRedis(t, rdb)
	user := testutil.CreateUser(t, a.db, "miner", testutil.WithBalance("25"))
	tok := a.token(t, user)
	statsDel := "del " + utils.AdminStatsKey
	usersScan := "scan match " + utils.AdminUsersPrefix + "* count"

	code, body := a.do(t, http.MethodPost, "/api/machines/rent", tok, gin.H{"machineId": "m2"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Contains(t, log.Commands(), statsDel)
	assert.Contains(t, log.Commands(), usersScan)

	log.Reset()
	code, body = a.do(t, http.MethodPost, "/api/mining/claim", tok, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, log.Commands(), statsDel)
	assert.Contains(t, log.Commands(), usersScan)

	log.Reset()
	code, _ = a.do(t, http.MethodPost, "/api/mining/claim", tok, nil)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, log.Commands())
}

func TestClaimWithoutMachines(t *testing.T) {
	a := newTestAPI(t)
	user := testutil.CreateUser(t, a.db, "idle")

	code, body := a.do(t, http.MethodPost, "/api/mining/claim", a.token(t, user), nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, ledger.ErrNoMachines.Error(), body["error"])
}

func TestUserRoutesAreScopedToCaller(t *testing.T) {
	a := newTestAPI(t)
	alice := testutil.CreateUser(t, a.db, "alice")
	bob := testutil.CreateUser(t, a.db, "bob")
	admin := testutil.CreateUser(t, a.db, "admin", testutil.AsAdmin())

	code, _ := a.do(t, http.MethodGet, "/api/users/"+bob.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = a.do(t, http.MethodGet, "/api/users/"+bob.ID, a.token(t, alice), nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, body := a.do(t, http.MethodGet, "/api/users/"+bob.ID, a.token(t, admin), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "bob", body["user"].(map[string]any)["username"])

	code, _ = a.do(t, http.MethodGet, "/api/admin/stats", a.token(t, alice), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestWithdrawalLifecycle(t *testing.T) {
	a := newTestAPI(t)
	user := testutil.CreateUser(t, a.db, "alice", testutil.WithBalance("20"), testutil.WithCommission("25"))
	testutil.CreateOwnedMachine(t, a.db, user, "m1", a.clock.Now(), nil)
	admin := testutil.CreateUser(t, a.db, "admin", testutil.AsAdmin())
	tok, adminTok := a.token(t, user), a.token(t, admin)
	payout := gin.H{"amount": "10", "method": "jazzcash", "accountHolderName": "Alice A", "accountNumber": "03001234567"}

	code, body := a.do(t, http.MethodPost, "/api/withdrawals/commission", tok, gin.H{"amount": 25, "method": "jazzcash", "accountHolderName": "Alice A", "accountNumber": "03001234567"})
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = a.do(t, http.MethodPost, "/api/withdrawals/request", tok, payout)
	require.Equal(t, http.StatusCreated, code, body)
	w := body["withdrawal"].(map[string]any)
	assert.Equal(t, "9", w["netAmount"])
	assert.Equal(t, "2430", w["pkrAmount"])
	testutil.RequireAmount(t, "10", testutil.ReloadUser(t, a.db, user.ID).Balance)

	code, body = a.do(t, http.MethodGet, "/api/admin/withdrawals?status=pending", adminTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total"])
	code, _ = a.do(t, http.MethodGet, "/api/admin/withdrawals?status=bogus", adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodPatch, "/api/admin/withdrawals/"+w["id"].(string), adminTok, gin.H{"status": "rejected"})
	require.Equal(t, http.StatusOK, code)
	testutil.RequireAmount(t, "20", testutil.ReloadUser(t, a.db, user.ID).Balance)

	code, _ = a.do(t, http.MethodPatch, "/api/admin/withdrawals/"+w["id"].(string), adminTok, gin.H{"status": "approved"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(t, http.MethodPatch, "/api/admin/withdrawals/missing", adminTok, gin.H{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = a.do(t, http.MethodGet, "/api/withdrawals/"+user.ID, tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["withdrawals"].([]any), 1)
}

func TestDepositApproval(t *testing.T) {
	a := newTestAPI(t)
	user := testutil.CreateUser(t, a.db, "alice")
	admin := testutil.CreateUser(t, a.db, "admin", testutil.AsAdmin())
	tok, adminTok := a.token(t, user), a.token(t, admin)

	code, body := a.do(t, http.MethodPost, "/api/deposits/request", tok, gin.H{"amount": "20", "transactionId": "EP-778899"})
	require.Equal(t, http.StatusCreated, code, body)
	d := body["deposit"].(map[string]any)
	assert.Equal(t, "6300", d["pkrAmount"])
	assert.Equal(t, domain.StatusPending, d["status"])

	code, _ = a.do(t, http.MethodPatch, "/api/admin/deposits/"+d["id"].(string), adminTok, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(t, http.MethodPatch, "/api/admin/deposits/"+d["id"].(string), adminTok, gin.H{"status": "approved"})
	assert.Equal(t, http.StatusBadRequest, code)
	testutil.RequireAmount(t, "20", testutil.ReloadUser(t, a.db, user.ID).Balance)

	code, body = a.do(t, http.MethodGet, "/api/admin/stats", adminTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["totalUsers"])
	assert.Equal(t, "20", body["approvedDeposits"])
	assert.Equal(t, float64(0), body["pendingDeposits"])

	code, body = a.do(t, http.MethodGet, "/api/deposits/"+user.ID, tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["deposits"].([]any), 1)
}

func TestAdminUsersAndBalance(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.db, "admin", testutil.AsAdmin())
	user := testutil.CreateUser(t, a.db, "alice")
	adminTok := a.token(t, admin)

	code, body := a.do(t, http.MethodGet, "/api/admin/users?page=1&page_size=1", adminTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(2), body["total_pages"])
	assert.Len(t, body["items"].([]any), 1)

	code, body = a.do(t, http.MethodPatch, "/api/admin/users/"+user.ID+"/balance", adminTok, gin.H{"balance": "75.5"})
	require.Equal(t, http.StatusOK, code, body)
	testutil.RequireAmount(t, "75.5", testutil.ReloadUser(t, a.db, user.ID).Balance)

	code, _ = a.do(t, http.MethodPatch, "/api/admin/users/"+user.ID+"/balance", adminTok, gin.H{"balance": "-1"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAnnouncements(t *testing.T) {
	a := newTestAPI(t)
	admin := testutil.CreateUser(t, a.db, "admin", testutil.AsAdmin())
	adminTok := a.token(t, admin)

	code, _ := a.do(t, http.MethodPost, "/api/admin/announcements", adminTok, gin.H{"title": "No body"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := a.do(t, http.MethodPost, "/api/admin/announcements", adminTok, gin.H{"title": "Launch", "description": "m10 is live", "priority": 5})
	require.Equal(t, http.StatusCreated, code, body)
	id := body["announcement"].(map[string]any)["id"].(string)

	code, body = a.do(t, http.MethodGet, "/api/announcements", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["announcements"].([]any), 1)

	code, _ = a.do(t, http.MethodPatch, "/api/admin/announcements/"+id, adminTok, gin.H{"isActive": false})
	require.Equal(t, http.StatusOK, code)
	code, body = a.do(t, http.MethodGet, "/api/announcements", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["announcements"])

	code, _ = a.do(t, http.MethodDelete, "/api/admin/announcements/"+id, adminTok, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = a.do(t, http.MethodDelete, "/api/admin/announcements/"+id, adminTok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMachinesCatalog(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodGet, "/api/machines", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["machines"].([]any), 10)
	assert.NotEmpty(t, body["rates"])

	code, body = a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}
