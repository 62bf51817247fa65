package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jordannanyan/plagiarism-backend/auth"
	"github.com/jordannanyan/plagiarism-backend/dbutil"
	"github.com/jordannanyan/plagiarism-backend/httpx"
)

// User represents a user in the system
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthRequest represents login/register request
type AuthRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type AuthHandler struct {
	logger    *zap.Logger
	dbManager *dbutil.ConnectionManager
	jwtSecret []byte
}

func NewAuthHandler(logger *zap.Logger, dbManager *dbutil.ConnectionManager, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		dbManager: dbManager,
		jwtSecret: jwtSecret,
	}
}

func (h *AuthHandler) CreateTables() {
	createUsersTable := `
    CREATE TABLE IF NOT EXISTS users (
        id SERIAL PRIMARY KEY,
        username VARCHAR(50) UNIQUE NOT NULL,
        email VARCHAR(255) UNIQUE NOT NULL,
        password_hash VARCHAR(255) NOT NULL,
        role VARCHAR(20) NOT NULL DEFAULT 'mahasiswa'
            CHECK (role IN ('mahasiswa', 'dosen', 'admin')),
        created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);`
	if _, err := h.dbManager.GetDB().Exec(createUsersTable); err != nil {
		h.logger.Fatal("Failed to create users table", zap.Error(err))
	}
	h.logger.Info("Users table is ready")
}

func (h *AuthHandler) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (h *AuthHandler) checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "Username, email, and password are required")
		return
	}
	if len(req.Password) < 8 {
		httpx.Error(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}
	role := req.Role
	if role == "" {
		role = auth.RoleMahasiswa
	}
	if role != auth.RoleMahasiswa && role != auth.RoleDosen {
		// Admin accounts are provisioned out of band.
		httpx.Error(w, http.StatusBadRequest, "Invalid role")
		return
	}

	passwordHash, err := h.hashPassword(req.Password)
	if err != nil {
		h.logger.Error("Password hashing failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := User{Username: req.Username, Email: req.Email, Role: role}
	err = h.dbManager.GetDB().QueryRowContext(r.Context(), `
        INSERT INTO users (username, email, password_hash, role)
        VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		user.Username, user.Email, passwordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			httpx.Error(w, http.StatusConflict, "Username or email already taken")
			return
		}
		h.logger.Error("User insert failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, user.Role, h.jwtSecret, 24*time.Hour)
	if err != nil {
		h.logger.Error("Token generation failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.logger.Info("User registered",
		zap.Int("user_id", user.ID), zap.String("role", user.Role))
	httpx.JSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	var user User
	var passwordHash string
	err := h.dbManager.GetDB().QueryRowContext(r.Context(), `
        SELECT id, username, email, password_hash, role, created_at
        FROM users WHERE username = $1`, req.Username).
		Scan(&user.ID, &user.Username, &user.Email, &passwordHash, &user.Role, &user.CreatedAt)
	if err == sql.ErrNoRows {
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.logger.Error("User lookup failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if !h.checkPassword(req.Password, passwordHash) {
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, user.Role, h.jwtSecret, 24*time.Hour)
	if err != nil {
		h.logger.Error("Token generation failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}

	httpx.JSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var user User
	err := h.dbManager.GetDB().QueryRowContext(r.Context(), `
        SELECT id, username, email, role, created_at FROM users WHERE id = $1`,
		userCtx.UserID).
		Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}

	httpx.JSON(w, http.StatusOK, user)
}
