package auth

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yehyu2004/cosmo/internal/audit"
	"github.com/yehyu2004/cosmo/internal/db"
	"github.com/yehyu2004/cosmo/internal/rbac"
)

func TestIssueAndParseJWT(t *testing.T) {
	a := NewAuthService("test-secret", time.Hour)

	tok, err := a.IssueJWT("user-1", "ta")
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Sub != "user-1" || c.Role != "ta" {
		t.Fatalf("claims = %q/%q, want user-1/ta", c.Sub, c.Role)
	}

	other := NewAuthService("other-secret", time.Hour)
	if _, err := other.Parse(tok); err == nil {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	a := NewAuthService("test-secret", time.Millisecond)
	tok, err := a.IssueJWT("user-1", "student")
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := a.Parse(tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret", time.Hour)
	var gotSub, gotRole string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no header: code = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: code = %d, want 401", rec.Code)
	}

	tok, err := a.IssueJWT("user-1", "professor")
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: code = %d, want 200", rec.Code)
	}
	if gotSub != "user-1" || gotRole != "professor" {
		t.Fatalf("context = %q/%q, want user-1/professor", gotSub, gotRole)
	}
}

func newAuthTestDB(t *testing.T) (conn *sql.DB, admin, student string) {
	t.Helper()
	conn, err := db.Open(context.Background(),
		db.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared",
			strings.ReplaceAll(t.Name(), "/", "_")))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	admin, student = uuid.NewString(), uuid.NewString()
	for _, u := range []struct{ id, username, role string }{
		{admin, "root", "admin"},
		{student, "alice", "student"},
	} {
		if _, err := conn.Exec(`INSERT INTO users (id,username,password_hash,role,created_at)
			VALUES ($1,$2,'x',$3,$4)`, u.id, u.username, u.role, time.Now().Unix()); err != nil {
			t.Fatalf("insert user: %v", err)
		}
	}
	return conn, admin, student
}

func TestImpersonationSwapsReadRequests(t *testing.T) {
	conn, admin, student := newAuthTestDB(t)
	a := NewAuthService("test-secret", time.Hour)

	var gotSub, gotActor, gotRole string
	h := Impersonation(a, conn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotActor = ActorFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	asAdmin := func(method string, cookie string) *http.Request {
		req := httptest.NewRequest(method, "/assignments", nil)
		ctx := WithSubject(req.Context(), admin)
		ctx = rbac.WithRole(ctx, "admin")
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: ImpersonationCookie, Value: cookie})
		}
		return req.WithContext(ctx)
	}

	tok, err := a.IssueImpersonationToken(student, admin)
	if err != nil {
		t.Fatalf("IssueImpersonationToken: %v", err)
	}

	h.ServeHTTP(httptest.NewRecorder(), asAdmin(http.MethodGet, tok))
	if gotSub != student || gotRole != "student" {
		t.Fatalf("GET not swapped: sub=%q role=%q", gotSub, gotRole)
	}
	if gotActor != admin {
		t.Fatalf("actor = %q, want the real admin %q", gotActor, admin)
	}

	// Mutations always act as the real admin.
	h.ServeHTTP(httptest.NewRecorder(), asAdmin(http.MethodPost, tok))
	if gotSub != admin || gotRole != "admin" {
		t.Fatalf("POST swapped: sub=%q role=%q", gotSub, gotRole)
	}
}

func TestStartImpersonationRecordsAuditEvent(t *testing.T) {
	conn, admin, student := newAuthTestDB(t)
	a := NewAuthService("test-secret", time.Hour)
	events := audit.NewEventRepo(conn)

	body := strings.NewReader(fmt.Sprintf(`{"user_id":%q}`, student))
	req := httptest.NewRequest(http.MethodPost, "/impersonate", body)
	req = req.WithContext(WithSubject(req.Context(), admin))
	rec := httptest.NewRecorder()
	StartImpersonationHandler(a, conn, events)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var key, actor string
	err := conn.QueryRow(`SELECT key, actor FROM event_log WHERE typ=$1`,
		audit.TypeImpersonation).Scan(&key, &actor)
	if err != nil {
		t.Fatalf("impersonation event not recorded: %v", err)
	}
	if key != student || actor != admin {
		t.Fatalf("event (key=%q actor=%q), want (key=%q actor=%q)", key, actor, student, admin)
	}
}

func TestImpersonationIgnoresForeignToken(t *testing.T) {
	conn, admin, student := newAuthTestDB(t)
	a := NewAuthService("test-secret", time.Hour)

	var gotSub string
	h := Impersonation(a, conn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
	}))

	// Token minted for a different admin must not swap this request.
	tok, err := a.IssueImpersonationToken(student, uuid.NewString())
	if err != nil {
		t.Fatalf("IssueImpersonationToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/assignments", nil)
	ctx := WithSubject(req.Context(), admin)
	ctx = rbac.WithRole(ctx, "admin")
	req.AddCookie(&http.Cookie{Name: ImpersonationCookie, Value: tok})
	h.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))
	if gotSub != admin {
		t.Fatalf("sub = %q, want the admin untouched", gotSub)
	}
}
