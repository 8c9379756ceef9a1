//go:build integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/facemood/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facemood/internal/auth"
	"github.com/saturnino-fabrica-de-software/facemood/internal/database"
	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
	"github.com/saturnino-fabrica-de-software/facemood/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facemood/internal/push"
	"github.com/saturnino-fabrica-de-software/facemood/internal/repository"
	"github.com/saturnino-fabrica-de-software/facemood/internal/service"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "facemood_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Printf("Failed to start container: %v\n", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	connStr := fmt.Sprintf("postgres://test:test@%s:%s/facemood_test?sslmode=disable", host, port.Port())

	code := func() int {
		defer func() {
			if err := container.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate container: %v\n", err)
			}
		}()

		if err := migrate(ctx, connStr); err != nil {
			fmt.Printf("Failed to run migrations: %v\n", err)
			return 1
		}

		testDB, err = database.NewPool(ctx, database.DefaultPoolConfig(connStr))
		if err != nil {
			fmt.Printf("Failed to connect to database: %v\n", err)
			return 1
		}
		defer testDB.Close()

		return m.Run()
	}()
	os.Exit(code)
}

func migrate(ctx context.Context, dsn string) error {
	db, err := database.OpenSQL(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	name, err := database.DatabaseName(dsn)
	if err != nil {
		return err
	}
	m, err := database.NewMigrator(db, name, testLogger())
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

func newIntegrationRouter(t *testing.T) *Router {
	t.Helper()
	sessions := auth.NewSessionService("integration-secret", time.Hour)
	users := repository.NewUserRepository(testDB)
	employees := repository.NewEmployeeRepository(testDB)

	r := NewRouter(testLogger(), &Dependencies{
		Analysis:       service.NewAnalysisService(mock.New(), testLogger()),
		PushStore:      push.NewMemoryStore(),
		HR:             service.NewHRService(users, employees, sessions, nil, testLogger()),
		Sessions:       sessions,
		SessionTTL:     time.Hour,
		ReadyChecks:    map[string]handler.Pinger{"database": testDB},
		AnalyzeLimit:   100,
		MaxUploadBytes: 4 << 20,
	})
	r.Setup()
	t.Cleanup(func() { _ = r.Shutdown() })
	return r
}

func seedHRUser(t *testing.T, username, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &domain.User{Username: username, PasswordHash: hash, Role: domain.RoleHR}
	if err := repository.NewUserRepository(testDB).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestIntegration_ReadyEndpoint(t *testing.T) {
	router := newIntegrationRouter(t)

	resp, err := router.App().Test(httptest.NewRequest("GET", "/ready", nil), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
}

func TestIntegration_NotFoundReturns404(t *testing.T) {
	router := newIntegrationRouter(t)

	resp, err := router.App().Test(httptest.NewRequest("GET", "/nonexistent", nil), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Status = %d, want 404", resp.StatusCode)
	}
}

func TestIntegration_HREmployeeLifecycle(t *testing.T) {
	seedHRUser(t, "hr.lifecycle", "s3cret")
	app := newIntegrationRouter(t).App()

	// login
	req := httptest.NewRequest("POST", "/api/hr/login", bytes.NewBufferString(`{"username":"hr.lifecycle","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "hr_session" {
			session = c
		}
	}
	if session == nil {
		t.Fatal("hr_session cookie not set")
	}
	withSession := func(r *http.Request) *http.Request {
		r.AddCookie(session)
		return r
	}

	// create with photo
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	_ = w.WriteField("name", "Ana Souza")
	_ = w.WriteField("age", "31")
	_ = w.WriteField("department", "Finance")
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="ana.png"`)
	h.Set("Content-Type", "image/png")
	fw, _ := w.CreatePart(h)
	_, _ = fw.Write([]byte("\x89PNG fake"))
	_ = w.Close()

	req = withSession(httptest.NewRequest("POST", "/api/employees", body))
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.StatusCode != 201 {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("create status = %d, body %s", resp.StatusCode, data)
	}
	var created domain.Employee
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !created.HasPhoto {
		t.Error("created employee should have a photo")
	}

	// partial update
	req = withSession(httptest.NewRequest("PUT", "/api/employees/"+created.ID.String(), bytes.NewBufferString(`{"department":"Sales"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	var updated domain.Employee
	_ = json.NewDecoder(resp.Body).Decode(&updated)
	if updated.Department != "Sales" || updated.Name != "Ana Souza" || updated.Age != 31 {
		t.Errorf("update result = %+v", updated)
	}

	// photo
	resp, err = app.Test(withSession(httptest.NewRequest("GET", "/api/employees/"+created.ID.String()+"/photo", nil)), -1)
	if err != nil {
		t.Fatalf("photo: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("photo status = %d, want 200", resp.StatusCode)
	}

	// delete, then delete again
	for _, want := range []int{204, 404} {
		resp, err = app.Test(withSession(httptest.NewRequest("DELETE", "/api/employees/"+created.ID.String(), nil)), -1)
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		if resp.StatusCode != want {
			t.Errorf("delete status = %d, want %d", resp.StatusCode, want)
		}
	}
}

func TestIntegration_HRLoginRejectsWrongPassword(t *testing.T) {
	seedHRUser(t, "hr.wrongpw", "right")
	app := newIntegrationRouter(t).App()

	req := httptest.NewRequest("POST", "/api/hr/login", bytes.NewBufferString(`{"username":"hr.wrongpw","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("Status = %d, want 401", resp.StatusCode)
	}
}
