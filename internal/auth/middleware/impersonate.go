package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yehyu2004/cosmo/internal/audit"
	"github.com/yehyu2004/cosmo/internal/rbac"
)

const ImpersonationCookie = "cosmo_impersonate"

const impersonationTTL = time.Hour

type impersonationClaims struct {
	Sub string `json:"sub"` // impersonated user id
	Act string `json:"act"` // real admin id
	jwt.RegisteredClaims
}

func (a *AuthService) IssueImpersonationToken(targetID, adminID string) (string, error) {
	now := time.Now()
	claims := &impersonationClaims{
		Sub: targetID,
		Act: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "cosmo-impersonate",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(impersonationTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) parseImpersonationToken(tokenStr string) (*impersonationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &impersonationClaims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid impersonation token")
	}
	c, ok := token.Claims.(*impersonationClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return c, nil
}

// Impersonation swaps the effective user for read requests when an admin
// carries a valid impersonation cookie. Mutating requests always act as the
// real admin. Must run after JWTMiddleware and AttachRoleFromDB.
func Impersonation(a *AuthService, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if r.Method != http.MethodGet || rbac.RoleFromContext(ctx) != "admin" {
				next.ServeHTTP(w, r)
				return
			}
			ck, err := r.Cookie(ImpersonationCookie)
			if err != nil || ck.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := a.parseImpersonationToken(ck.Value)
			if err != nil || claims.Act != SubjectFromContext(ctx) {
				next.ServeHTTP(w, r)
				return
			}

			var role string
			if err := db.QueryRowContext(ctx,
				`SELECT role FROM users WHERE id=$1`, claims.Sub).Scan(&role); err != nil {
				next.ServeHTTP(w, r) // stale cookie; act as self
				return
			}

			ctx = WithActor(ctx, SubjectFromContext(ctx))
			ctx = WithSubject(ctx, claims.Sub)
			ctx = rbac.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// POST /impersonate  { "user_id": "..." }  (admin only)
func StartImpersonationHandler(a *AuthService, db *sql.DB, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}

		var id, username, name, role string
		err := db.QueryRowContext(r.Context(),
			`SELECT id, username, name, role FROM users WHERE id=$1`, req.UserID).
			Scan(&id, &username, &name, &role)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		admin := SubjectFromContext(r.Context())
		tok, err := a.IssueImpersonationToken(id, admin)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		events.Record(r.Context(), audit.TypeImpersonation, id, admin,
			map[string]string{"username": username, "role": role})
		http.SetCookie(w, &http.Cookie{
			Name:     ImpersonationCookie,
			Value:    tok,
			Path:     "/",
			MaxAge:   int(impersonationTTL / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": id, "username": username, "name": name, "role": role,
		})
	}
}

// DELETE /impersonate  (admin only)
func StopImpersonationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     ImpersonationCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}
}
