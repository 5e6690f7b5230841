package controllers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vnkhanh/e-thesis-backend/models"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/users", "", map[string]string{
		"username": "Sinh Viên A",
		"email":    "sv@uni.edu.vn",
		"password": "matkhau123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("đăng ký phải 201, got %d: %s", w.Code, w.Body.String())
	}
	var registered authResponse
	decodeJSON(t, w, &registered)
	if registered.Token == "" {
		t.Fatalf("đăng ký phải trả token")
	}
	if registered.User.Role != string(models.RoleUser) {
		t.Fatalf("tài khoản mới phải có role user, got %q", registered.User.Role)
	}

	// Token trả về dùng được ngay
	w = env.doJSON(t, http.MethodGet, "/api/auth", registered.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("token đăng ký phải hợp lệ, got %d", w.Code)
	}

	// Đăng nhập lại bằng mật khẩu
	w = env.doJSON(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "sv@uni.edu.vn",
		"password": "matkhau123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("đăng nhập phải 200, got %d: %s", w.Code, w.Body.String())
	}
	var loggedIn authResponse
	decodeJSON(t, w, &loggedIn)
	if loggedIn.User.ID != registered.User.ID {
		t.Fatalf("đăng nhập phải trả đúng user")
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"thiếu email", map[string]string{"username": "A", "password": "matkhau123"}},
		{"email sai định dạng", map[string]string{"username": "A", "email": "khong-phai-email", "password": "matkhau123"}},
		{"mật khẩu quá ngắn", map[string]string{"username": "A", "email": "a@uni.edu.vn", "password": "123"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if w := env.doJSON(t, http.MethodPost, "/api/users", "", tc.body); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "sv@uni.edu.vn", models.RoleUser)

	w := env.doJSON(t, http.MethodPost, "/api/users", "", map[string]string{
		"username": "Trùng Email",
		"email":    "sv@uni.edu.vn",
		"password": "matkhau123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("email trùng phải 400, got %d", w.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "sv@uni.edu.vn", models.RoleUser)

	w := env.doJSON(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "sv@uni.edu.vn",
		"password": "sai-mật-khẩu",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("sai mật khẩu phải 401, got %d", w.Code)
	}

	// Email không tồn tại: cùng thông điệp, không lộ email nào có thật
	w2 := env.doJSON(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "khongcoai@uni.edu.vn",
		"password": "matkhau123",
	})
	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("email lạ phải 401, got %d", w2.Code)
	}
	if w.Body.String() != w2.Body.String() {
		t.Fatalf("thông điệp lỗi phải giống nhau để không lộ email tồn tại")
	}
}

func TestLoginRejectsGoogleOnlyAccount(t *testing.T) {
	env := newTestEnv(t)

	// Tài khoản Google: password rỗng
	google := models.User{
		Username: "Google User",
		Email:    "google@uni.edu.vn",
		Role:     models.RoleUser,
	}
	if err := env.DB.Create(&google).Error; err != nil {
		t.Fatalf("tạo user: %v", err)
	}

	w := env.doJSON(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "google@uni.edu.vn",
		"password": "",
	})
	if w.Code != http.StatusBadRequest && w.Code != http.StatusUnauthorized {
		t.Fatalf("đăng nhập mật khẩu vào tài khoản Google phải bị chặn, got %d", w.Code)
	}

	w = env.doJSON(t, http.MethodPost, "/api/auth", "", map[string]string{
		"email":    "google@uni.edu.vn",
		"password": "đoán bừa",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddlewareAcceptsLegacyHeader(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "sv@uni.edu.vn", models.RoleUser)

	// Header X-Auth-Token với token trần (client cũ)
	req := httptest.NewRequest(http.MethodGet, "/api/auth", nil)
	req.Header.Set("X-Auth-Token", token)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("X-Auth-Token phải được chấp nhận, got %d", w.Code)
	}

	// Và cả dạng Bearer trong X-Auth-Token
	req = httptest.NewRequest(http.MethodGet, "/api/auth", nil)
	req.Header.Set("X-Auth-Token", "Bearer "+token)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("X-Auth-Token dạng Bearer phải được chấp nhận, got %d", w.Code)
	}
}

func TestProtectedRoutesRejectBadToken(t *testing.T) {
	env := newTestEnv(t)

	if w := env.doJSON(t, http.MethodGet, "/api/auth", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("thiếu token phải 401, got %d", w.Code)
	}
	if w := env.doJSON(t, http.MethodGet, "/api/auth", "token-rác", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("token rác phải 401, got %d", w.Code)
	}
}

func TestGoogleLoginRejectsInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	// Không có GOOGLE_CLIENT_ID và token giả -> idtoken.Validate fail
	w := env.doJSON(t, http.MethodPost, "/api/auth/google", "", map[string]string{
		"idToken": "id-token-giả",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("id token giả phải 401, got %d", w.Code)
	}

	// Thiếu idToken
	w = env.doJSON(t, http.MethodPost, "/api/auth/google", "", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("thiếu idToken phải 400, got %d", w.Code)
	}
}
