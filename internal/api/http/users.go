package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yehyu2004/cosmo/internal/audit"
	authmw "github.com/yehyu2004/cosmo/internal/auth/middleware"
	"github.com/yehyu2004/cosmo/internal/rbac"
)

type userRow struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	StudentID *string `json:"student_id"`
	CreatedAt int64   `json:"created_at"`
}

// GET /users?role= (admin)
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		q := `SELECT id,username,name,email,role,student_id,created_at FROM users`
		if role == "" {
			rows, err = db.QueryContext(r.Context(), q+` ORDER BY created_at DESC`)
		} else {
			rows, err = db.QueryContext(r.Context(), q+` WHERE role=$1 ORDER BY created_at DESC`, role)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		out := []userRow{}
		for rows.Next() {
			var u userRow
			var sid sql.NullString
			if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Role, &sid, &u.CreatedAt); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if sid.Valid {
				v := sid.String
				u.StudentID = &v
			}
			out = append(out, u)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

type createUserReq struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// POST /users (admin)
func CreateUserHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password required", http.StatusBadRequest)
			return
		}
		role := strings.ToLower(strings.TrimSpace(req.Role))
		if role == "" {
			role = "student"
		}
		if !rbac.IsValidRole(role) {
			http.Error(w, "invalid role", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		id := uuid.NewString()
		_, err = db.ExecContext(r.Context(), `INSERT INTO users
			(id,username,name,email,password_hash,role,created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			id, req.Username, req.Name, req.Email, string(hash), role, time.Now().Unix())
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique") {
				http.Error(w, "username already taken", http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "username": req.Username, "role": role})
	}
}

type updateUserRoleReq struct {
	Role string `json:"role"`
}

// PATCH /users/{userID}/role (admin)
func UpdateUserRoleHandler(db *sql.DB, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := chi.URLParam(r, "userID")
		if target == "" {
			http.Error(w, "missing userID", http.StatusBadRequest)
			return
		}

		var req updateUserRoleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		role := strings.ToLower(strings.TrimSpace(req.Role))
		if !rbac.IsValidRole(role) {
			http.Error(w, "invalid role", http.StatusBadRequest)
			return
		}

		actor := authmw.ActorFromContext(r.Context())
		if target == actor && role != "admin" {
			http.Error(w, "you cannot change your own role", http.StatusBadRequest)
			return
		}

		// Ensure user exists & guard against demoting the last admin.
		var id, curRole string
		err := db.QueryRowContext(r.Context(),
			`SELECT id, role FROM users WHERE id=$1`, target).Scan(&id, &curRole)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if curRole == "admin" && role != "admin" {
			var adminCount int
			if err := db.QueryRowContext(r.Context(),
				`SELECT COUNT(1) FROM users WHERE role='admin'`).Scan(&adminCount); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if adminCount <= 1 {
				http.Error(w, "cannot demote the last admin", http.StatusBadRequest)
				return
			}
		}

		if _, err := db.ExecContext(r.Context(),
			`UPDATE users SET role=$1 WHERE id=$2`, role, id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		events.Record(r.Context(), audit.TypeRoleChanged, id, actor,
			map[string]string{"from": curRole, "to": role})
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "role": role})
	}
}
