package auth

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/yehyu2004/cosmo/internal/rbac"
)

// AttachRoleFromDB replaces the JWT claim role with the role currently
// stored in the users table, so a role change takes effect without waiting
// for the token to expire.
func AttachRoleFromDB(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)

			var role string
			err := db.QueryRowContext(ctx,
				`SELECT role FROM users WHERE id=$1`, sub).Scan(&role)
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
		})
	}
}
