package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"leavedesk/internal/app/server"
	"leavedesk/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		Environment:        "test",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 1000,
		MaxLoginFailures:   5,
	}
}

func call(t *testing.T, client *http.Client, method, url, token string, payload any) (int, envelope) {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode: %v", method, url, err)
	}
	return resp.StatusCode, env
}

func mustData(t *testing.T, status int, env envelope, wantStatus int, into any) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status = %d, want %d (error: %+v)", status, wantStatus, env.Error)
	}
	if into != nil {
		if err := json.Unmarshal(env.Data, into); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	status, env := call(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "",
		map[string]string{"email": email, "password": password})
	var out struct {
		Token string `json:"token"`
	}
	mustData(t, status, env, http.StatusOK, &out)
	if out.Token == "" {
		t.Fatal("empty token")
	}
	return out.Token
}

// nextMonday returns the first Monday at least a week out, so the
// requested range is never in the past regardless of run date.
func nextMonday() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func TestLeaveApprovalJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	nano := time.Now().UnixNano()
	staffEmail := fmt.Sprintf("staff-%d@test.local", nano)
	hodEmail := fmt.Sprintf("hod-%d@test.local", nano)
	staffNumber := fmt.Sprintf("%06d", nano%1000000)
	hodNumber := fmt.Sprintf("%06d", (nano+1)%1000000)

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	var staff, hod struct {
		ID string `json:"id"`
	}
	status, env := call(t, client, http.MethodPost, ts.URL+"/api/v1/auth/signup", "", map[string]string{
		"employeeNumber": staffNumber, "email": staffEmail,
		"firstName": "Staff", "lastName": "Member", "password": "Password123",
	})
	mustData(t, status, env, http.StatusCreated, &staff)
	status, env = call(t, client, http.MethodPost, ts.URL+"/api/v1/auth/signup", "", map[string]string{
		"employeeNumber": hodNumber, "email": hodEmail,
		"firstName": "Head", "lastName": "Dept", "password": "Password123",
	})
	mustData(t, status, env, http.StatusCreated, &hod)

	status, env = call(t, client, http.MethodPut, ts.URL+"/api/v1/users/"+hod.ID+"/role", adminToken,
		map[string]string{"role": "hod"})
	mustData(t, status, env, http.StatusOK, nil)

	var dept struct {
		ID string `json:"id"`
	}
	status, env = call(t, client, http.MethodPost, ts.URL+"/api/v1/departments", adminToken,
		map[string]string{"name": fmt.Sprintf("Dept %d", nano)})
	mustData(t, status, env, http.StatusCreated, &dept)
	status, env = call(t, client, http.MethodPut, ts.URL+"/api/v1/departments/"+dept.ID+"/hod", adminToken,
		map[string]string{"userId": hod.ID})
	mustData(t, status, env, http.StatusOK, nil)
	status, env = call(t, client, http.MethodPost, ts.URL+"/api/v1/departments/"+dept.ID+"/members", adminToken,
		map[string]string{"userId": staff.ID})
	mustData(t, status, env, http.StatusOK, nil)

	staffToken := login(t, client, ts.URL, staffEmail, "Password123")
	hodToken := login(t, client, ts.URL, hodEmail, "Password123")

	var types []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	status, env = call(t, client, http.MethodGet, ts.URL+"/api/v1/leave/types", staffToken, nil)
	mustData(t, status, env, http.StatusOK, &types)
	var annualID string
	for _, lt := range types {
		if lt.Name == "Annual Leave" {
			annualID = lt.ID
		}
	}
	if annualID == "" {
		t.Fatal("seeded Annual Leave type not found")
	}

	start := nextMonday()
	end := start.AddDate(0, 0, 4)
	var request struct {
		ID     string `json:"id"`
		Days   int    `json:"days"`
		Status string `json:"status"`
	}
	status, env = call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests", staffToken, map[string]string{
		"leaveTypeId": annualID,
		"startDate":   start.Format("2006-01-02"),
		"endDate":     end.Format("2006-01-02"),
		"contactInfo": "+266 5800 0000",
	})
	mustData(t, status, env, http.StatusCreated, &request)
	if request.Days != 5 {
		t.Fatalf("days = %d, want 5", request.Days)
	}
	if request.Status != "pending_hod_approval" {
		t.Fatalf("status = %s", request.Status)
	}

	// Staff cannot decide their own request.
	status, env = call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+request.ID+"/approve", staffToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("self-approve: status = %d, want 403", status)
	}

	var decided struct {
		Status string `json:"status"`
	}
	status, env = call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+request.ID+"/approve", hodToken,
		map[string]string{"comments": "coverage arranged"})
	mustData(t, status, env, http.StatusOK, &decided)
	if decided.Status != "pending_principal_secretary_approval" {
		t.Fatalf("after HOD: status = %s", decided.Status)
	}

	status, env = call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+request.ID+"/approve", adminToken, nil)
	mustData(t, status, env, http.StatusOK, &decided)
	if decided.Status != "approved" {
		t.Fatalf("after PS: status = %s", decided.Status)
	}

	// A second decision on the settled application must conflict.
	status, _ = call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+request.ID+"/reject", adminToken, nil)
	if status != http.StatusConflict {
		t.Fatalf("repeat decision: status = %d, want 409", status)
	}

	var balances []struct {
		LeaveTypeID string `json:"leaveTypeId"`
		Used        int    `json:"used"`
		Remaining   int    `json:"remaining"`
	}
	balancesURL := fmt.Sprintf("%s/api/v1/leave/balances?year=%d", ts.URL, start.Year())
	status, env = call(t, client, http.MethodGet, balancesURL, staffToken, nil)
	mustData(t, status, env, http.StatusOK, &balances)
	found := false
	for _, b := range balances {
		if b.LeaveTypeID == annualID {
			found = true
			if b.Used != 5 || b.Remaining != 25 {
				t.Fatalf("annual balance = %+v, want used 5 remaining 25", b)
			}
		}
	}
	if !found {
		t.Fatal("annual balance row missing")
	}

	pdfReq, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/leave/requests/"+request.ID+"/pdf", nil)
	pdfReq.Header.Set("Authorization", "Bearer "+staffToken)
	pdfResp, err := client.Do(pdfReq)
	if err != nil {
		t.Fatalf("pdf request: %v", err)
	}
	defer pdfResp.Body.Close()
	if pdfResp.StatusCode != http.StatusOK || pdfResp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf: status %d, content-type %q", pdfResp.StatusCode, pdfResp.Header.Get("Content-Type"))
	}

	var overview struct {
		StatusCounts struct {
			Approved int `json:"approved"`
		} `json:"statusCounts"`
	}
	statsURL := fmt.Sprintf("%s/api/v1/dashboard/stats?year=%d", ts.URL, start.Year())
	status, env = call(t, client, http.MethodGet, statsURL, staffToken, nil)
	mustData(t, status, env, http.StatusOK, &overview)
	if overview.StatusCounts.Approved < 1 {
		t.Fatalf("dashboard approved = %d, want at least 1", overview.StatusCounts.Approved)
	}

	status, env = call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+request.ID+"/cancel", staffToken, nil)
	mustData(t, status, env, http.StatusOK, &decided)
	if decided.Status != "cancelled" {
		t.Fatalf("after cancel: status = %s", decided.Status)
	}
	status, env = call(t, client, http.MethodGet, balancesURL, staffToken, nil)
	mustData(t, status, env, http.StatusOK, &balances)
	for _, b := range balances {
		if b.LeaveTypeID == annualID && b.Used != 0 {
			t.Fatalf("balance not restored after cancel: %+v", b)
		}
	}
}

func TestHODRequestSkipsHODStage(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	nano := time.Now().UnixNano()
	hodEmail := fmt.Sprintf("hod-solo-%d@test.local", nano)
	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	var hod struct {
		ID string `json:"id"`
	}
	status, env := call(t, client, http.MethodPost, ts.URL+"/api/v1/auth/signup", "", map[string]string{
		"employeeNumber": fmt.Sprintf("%05d", nano%100000), "email": hodEmail,
		"firstName": "Solo", "lastName": "Head", "password": "Password123",
	})
	mustData(t, status, env, http.StatusCreated, &hod)
	status, env = call(t, client, http.MethodPut, ts.URL+"/api/v1/users/"+hod.ID+"/role", adminToken,
		map[string]string{"role": "hod"})
	mustData(t, status, env, http.StatusOK, nil)

	hodToken := login(t, client, ts.URL, hodEmail, "Password123")

	var types []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	status, env = call(t, client, http.MethodGet, ts.URL+"/api/v1/leave/types", hodToken, nil)
	mustData(t, status, env, http.StatusOK, &types)
	var annualID string
	for _, lt := range types {
		if lt.Name == "Annual Leave" {
			annualID = lt.ID
		}
	}
	if annualID == "" {
		t.Fatal("seeded Annual Leave type not found")
	}

	start := nextMonday()
	var request struct {
		Status string `json:"status"`
	}
	status, env = call(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests", hodToken, map[string]string{
		"leaveTypeId": annualID,
		"startDate":   start.Format("2006-01-02"),
		"endDate":     start.AddDate(0, 0, 2).Format("2006-01-02"),
		"contactInfo": "+266 5800 0001",
	})
	mustData(t, status, env, http.StatusCreated, &request)
	if request.Status != "pending_principal_secretary_approval" {
		t.Fatalf("HOD application status = %s, want PS stage", request.Status)
	}
}
