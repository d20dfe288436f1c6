// Package integration runs the API end to end against PostgreSQL and MySQL.
// Tests are skipped in short mode and when a database is unreachable.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountDTO "github.com/signmeup/signmeup/internal/account/http/dto"
	"github.com/signmeup/signmeup/internal/app"
	authDTO "github.com/signmeup/signmeup/internal/auth/http/dto"
	"github.com/signmeup/signmeup/internal/config"
	identityDTO "github.com/signmeup/signmeup/internal/identity/http/dto"
	"github.com/signmeup/signmeup/internal/testutil"
	userDTO "github.com/signmeup/signmeup/internal/user/http/dto"
	userUseCase "github.com/signmeup/signmeup/internal/user/usecase"
)

const (
	testEmail     = "alex@example.com"
	testPassword  = "Demo123!pass"
	testMasterKey = "integration_master_key_1"
)

// integrationTestContext holds the running API and the bearer token of the logged in user.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	cancel    context.CancelFunc
	token     string
	dbDriver  string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	useAuth bool,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if useAuth {
		req.Header.Set("Authorization", "Bearer "+ctx.token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// login exchanges credentials for a bearer token and stores it on ctx.
func (ctx *integrationTestContext) login(t *testing.T, masterKey string) *http.Response {
	t.Helper()

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", authDTO.LoginRequest{
		Email:     testEmail,
		Password:  testPassword,
		MasterKey: masterKey,
	}, false)
	if resp.StatusCode == http.StatusOK {
		var response authDTO.LoginResponse
		require.NoError(t, json.Unmarshal(body, &response))
		ctx.token = response.AccessToken
	}
	return resp
}

// setupIntegrationTest starts the API on a migrated, empty database.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		DBDriver:                  dbDriver,
		DBConnectionString:        dsn,
		DBMaxOpenConnections:      10,
		DBMaxIdleConnections:      5,
		DBConnMaxLifetime:         time.Hour,
		ServerHost:                "localhost",
		ServerPort:                8080,
		LogLevel:                  "error",
		AuthTokenExpiration:       time.Hour,
		MasterKeySalt:             "integration_salt",
		FieldEncryptionAlgorithm:  "aes-gcm",
		FieldCompressionThreshold: 1024,
		SessionCleanupInterval:    time.Minute,
		OutboxInterval:            time.Second,
		OutboxBatchSize:           10,
		OutboxMaxRetries:          3,
		LockoutMaxAttempts:        5,
		LockoutDuration:           time.Minute,
	}

	container := app.NewContainer(cfg)

	runCtx, cancel := context.WithCancel(context.Background())
	httpSrv, err := container.HTTPServer(runCtx)
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    httptest.NewServer(handler),
		cancel:    cancel,
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}
	if ctx.cancel != nil {
		ctx.cancel()
	}
	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}
	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}
}

func drivers() []struct{ name, dbDriver string } {
	return []struct{ name, dbDriver string }{
		{"PostgreSQL", "postgres"},
		{"MySQL", "mysql"},
	}
}

func ptr(s string) *string { return &s }

// TestIntegration_Vault_CompleteFlow registers a user, stores an identity and an account,
// reads them back decrypted and checks the columns hold ciphertext.
func TestIntegration_Vault_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range drivers() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			var identityID, accountID string

			t.Run("01_Probes", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/health", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Contains(t, string(body), `"database":"ok"`)
			})

			t.Run("02_Register", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/register", userDTO.RegisterUserRequest{
					Username:  "alex_johnson",
					Email:     testEmail,
					Password:  testPassword,
					MasterKey: testMasterKey,
					FirstName: "Alex",
					LastName:  "Johnson",
				}, false)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/auth/register", userDTO.RegisterUserRequest{
					Username:  "alex_again",
					Email:     testEmail,
					Password:  testPassword,
					MasterKey: testMasterKey,
				}, false)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
			})

			t.Run("03_Login", func(t *testing.T) {
				resp := ctx.login(t, "wrong_master_key")
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

				resp = ctx.login(t, testMasterKey)
				require.Equal(t, http.StatusOK, resp.StatusCode)
				require.NotEmpty(t, ctx.token)

				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/auth/me", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)
				assert.Contains(t, string(body), testEmail)
			})

			t.Run("04_CreateIdentity", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/identities", identityDTO.CreateIdentityRequest{
					Name:      "Professional Identity",
					FirstName: "Alex",
					LastName:  "Johnson",
					Email:     "alex.johnson.pro@email.com",
					City:      ptr("San Francisco"),
				}, true)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				var response identityDTO.IdentityResponse
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "Alex", response.FirstName)
				identityID = response.ID
			})

			t.Run("05_IdentityIsEncryptedAtRest", func(t *testing.T) {
				id := uuid.MustParse(identityID)
				var arg interface{} = id
				query := "SELECT first_name, city FROM identities WHERE id = $1"
				if ctx.dbDriver == "mysql" {
					raw, err := id.MarshalBinary()
					require.NoError(t, err)
					arg = raw
					query = "SELECT first_name, city FROM identities WHERE id = ?"
				}

				var firstName, city string
				require.NoError(t, ctx.db.QueryRow(query, arg).Scan(&firstName, &city))
				assert.NotEmpty(t, firstName)
				assert.NotEqual(t, "Alex", firstName)
				assert.NotContains(t, city, "San Francisco")
			})

			t.Run("06_CreateAccount", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/accounts", accountDTO.CreateAccountRequest{
					IdentityID:   uuid.MustParse(identityID),
					WebsiteName:  "GitHub",
					WebsiteURL:   "https://www.github.com/login",
					Username:     ptr("alex_johnson_dev"),
					Password:     ptr("SecurePass123!"),
					Notes:        ptr("Used for software development projects"),
					SignupMethod: "automated",
				}, true)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				var response accountDTO.AccountResponse
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "github.com", response.WebsiteDomain)
				accountID = response.ID
			})

			t.Run("07_ListAndGetAccount", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/accounts?domain=github.com", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var list accountDTO.ListAccountsResponse
				require.NoError(t, json.Unmarshal(body, &list))
				require.Len(t, list.Data, 1)
				assert.Equal(t, accountID, list.Data[0].ID)

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/accounts/"+accountID, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var account accountDTO.AccountResponse
				require.NoError(t, json.Unmarshal(body, &account))
				require.NotNil(t, account.Password)
				assert.Equal(t, "SecurePass123!", *account.Password)
				assert.NotNil(t, account.LastAccessed)
			})

			t.Run("08_UpdateAccount", func(t *testing.T) {
				completed := true
				resp, body := ctx.makeRequest(t, http.MethodPut, "/v1/accounts/"+accountID, accountDTO.UpdateAccountRequest{
					Password:        ptr("RotatedPass456!"),
					SignupCompleted: &completed,
				}, true)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var account accountDTO.AccountResponse
				require.NoError(t, json.Unmarshal(body, &account))
				assert.Equal(t, "RotatedPass456!", *account.Password)
				assert.True(t, account.SignupCompleted)
			})

			t.Run("09_Logout", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/auth/logout", nil, true)
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/identities", nil, true)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_MasterKeyRotation rotates the master key and checks that stored data
// follows the new key while the old key stops working.
func TestIntegration_MasterKeyRotation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range drivers() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/register", userDTO.RegisterUserRequest{
				Username:  "alex_johnson",
				Email:     testEmail,
				Password:  testPassword,
				MasterKey: testMasterKey,
			}, false)
			require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
			require.Equal(t, http.StatusOK, ctx.login(t, testMasterKey).StatusCode)

			resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/identities", identityDTO.CreateIdentityRequest{
				Name:      "Personal Identity",
				FirstName: "Alex",
				LastName:  "J",
				Email:     "alexj.personal@email.com",
			}, true)
			require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
			var identity identityDTO.IdentityResponse
			require.NoError(t, json.Unmarshal(body, &identity))

			useCase, err := ctx.container.UserUseCase()
			require.NoError(t, err)
			output, err := useCase.RotateMasterKey(context.Background(), userUseCase.RotateMasterKeyInput{
				Email:            testEmail,
				Password:         testPassword,
				CurrentMasterKey: testMasterKey,
				NewMasterKey:     "integration_master_key_2",
			})
			require.NoError(t, err)
			assert.Equal(t, 1, output.RowsRewritten)

			resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/identities", nil, true)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "rotation revokes sessions")

			assert.Equal(t, http.StatusUnauthorized, ctx.login(t, testMasterKey).StatusCode)
			require.Equal(t, http.StatusOK, ctx.login(t, "integration_master_key_2").StatusCode)

			resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/identities/"+identity.ID, nil, true)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var reloaded identityDTO.IdentityResponse
			require.NoError(t, json.Unmarshal(body, &reloaded))
			assert.Equal(t, "Alex", reloaded.FirstName)
			assert.Equal(t, "alexj.personal@email.com", reloaded.Email)
		})
	}
}
