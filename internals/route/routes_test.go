package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_finance/internals/configs"
	"schoolku_finance/internals/databases/docstore"
	"schoolku_finance/internals/features/finance"
	billing "schoolku_finance/internals/features/finance/billings/model"
	"schoolku_finance/internals/features/finance/finerr"
)

const testSecret = "route-secret"

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
}

func setupApp(t *testing.T) (*fiber.App, docstore.Store) {
	t.Helper()
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, billing.CollectionClasses, "c1", billing.Class{ClassID: "c1", ClassName: "Grade 1"}))
	require.NoError(t, store.Upsert(ctx, billing.CollectionStudents, "alice", billing.Student{StudentID: "alice", StudentName: "Alice", StudentClassID: "c1"}))

	svc := finance.NewServices(store, nil, finance.Options{})
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error { return finerr.Respond(c, err) }})
	SetupRoutes(app, configs.FinanceConfig{JWTSecret: testSecret, StoreDriver: configs.StoreDriverMemory}, svc)
	return app, store
}

func token(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "acc-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func call(t *testing.T, app *fiber.App, method, path, tok, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	app, _ := setupApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFinanceFlow(t *testing.T) {
	app, _ := setupApp(t)
	tok := token(t, "accountant")

	// payment sebelum reconcile → NOT_INITIALIZED
	status, env := call(t, app, "POST", "/api/a/finance/payments", tok,
		`{"student_id":"alice","amount":"10","method":"cash","allow_overpayment":true}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NOT_INITIALIZED", env.ErrorCode)

	status, _ = call(t, app, "POST", "/api/a/finance/fee-rules", tok,
		`{"fee_rule_name":"Tuition","fee_rule_amount":"100","fee_rule_target_scope":"ALL"}`)
	require.Equal(t, http.StatusCreated, status)

	status, env = call(t, app, "POST", "/api/a/finance/reconcile", tok, "")
	require.Equal(t, http.StatusOK, status)
	var out struct {
		StudentsProcessed int             `json:"students_processed"`
		TotalDue          decimal.Decimal `json:"total_due"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 1, out.StudentsProcessed)
	assert.True(t, out.TotalDue.Equal(decimal.NewFromInt(100)))

	status, env = call(t, app, "POST", "/api/a/finance/payments", tok,
		`{"student_id":"alice","amount":"60","method":"cash"}`)
	require.Equal(t, http.StatusCreated, status)
	var rc struct {
		ReceiptNumber string            `json:"receipt_number"`
		NewBalance    decimal.Decimal   `json:"new_balance"`
		Status        billing.FeeStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rc))
	assert.Equal(t, "RCP-ALICE-0001", rc.ReceiptNumber)
	assert.True(t, rc.NewBalance.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, billing.FeeStatusPartial, rc.Status)

	// melebihi sisa tanpa allow_overpayment
	status, env = call(t, app, "POST", "/api/a/finance/payments", tok,
		`{"student_id":"alice","amount":"50","method":"cash"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)

	status, _ = call(t, app, "GET", "/api/a/finance/student-fees/alice", tok, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, "GET", "/api/a/finance/payments?student_id=alice", tok, "")
	assert.Equal(t, http.StatusOK, status)

	// reset butuh konfirmasi
	status, _ = call(t, app, "POST", "/api/a/finance/reset", tok, `{"confirm":"yes"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, env = call(t, app, "POST", "/api/a/finance/reset", tok, `{"confirm":"RESET"}`)
	require.Equal(t, http.StatusOK, status)
	var reset struct {
		StudentsReset        int `json:"students_reset"`
		TransactionsArchived int `json:"transactions_archived"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reset))
	assert.Equal(t, 1, reset.StudentsReset)
	assert.Equal(t, 1, reset.TransactionsArchived)

	status, _ = call(t, app, "GET", "/api/a/finance/activity", tok, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestFinanceRequiresAuth(t *testing.T) {
	app, _ := setupApp(t)

	status, _ := call(t, app, "GET", "/api/a/finance/fee-rules", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := call(t, app, "GET", "/api/a/finance/fee-rules", token(t, "teacher"), "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "PERMISSION_DENIED", env.ErrorCode)
}
