package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	authmw "github.com/yehyu2004/cosmo/internal/auth/middleware"
)

// GET /profile: the effective user (impersonation-aware).
func GetProfileHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := authmw.SubjectFromContext(r.Context())
		var u userRow
		var sid sql.NullString
		err := db.QueryRowContext(r.Context(),
			`SELECT id,username,name,email,role,student_id,created_at FROM users WHERE id=$1`, id).
			Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Role, &sid, &u.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if sid.Valid {
			v := sid.String
			u.StudentID = &v
		}
		_ = json.NewEncoder(w).Encode(u)
	}
}

type updateProfileReq struct {
	StudentID *string `json:"student_id"`
}

// PATCH /profile: only the student id is self-serviceable. Always acts as
// the real user, never the impersonated one.
func UpdateProfileHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateProfileReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		id := authmw.ActorFromContext(r.Context())
		var val interface{}
		if req.StudentID != nil && strings.TrimSpace(*req.StudentID) != "" {
			val = strings.TrimSpace(*req.StudentID)
		}
		if _, err := db.ExecContext(r.Context(),
			`UPDATE users SET student_id=$1 WHERE id=$2`, val, id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		GetProfileHandler(db)(w, r)
	}
}
