package services

import (
	"context"
	"errors"
	"os"

	"cloud.google.com/go/auth/credentials/idtoken"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-thesis-backend/models"
	"github.com/vnkhanh/e-thesis-backend/utils"
)

// Principal là danh tính đã xác thực cho 1 request
type Principal struct {
	UserID string
	Role   string
}

// ErrUnauthenticated: mọi nguồn token đều từ chối (sai, hết hạn, thiếu claims).
// Không phân biệt nguồn nào fail để tránh lộ chi tiết.
var ErrUnauthenticated = errors.New("token không hợp lệ hoặc hết hạn")

// TokenVerifier xác minh 1 loại token cụ thể
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (Principal, error)
}

// VerifierChain thử lần lượt từng verifier theo thứ tự ưu tiên
type VerifierChain []TokenVerifier

func (vc VerifierChain) Verify(ctx context.Context, tokenString string) (Principal, error) {
	for _, v := range vc {
		if p, err := v.Verify(ctx, tokenString); err == nil {
			return p, nil
		}
	}
	return Principal{}, ErrUnauthenticated
}

// DefaultVerifiers: JWT nội bộ trước, rồi tới Google ID token
func DefaultVerifiers(db *gorm.DB) VerifierChain {
	return VerifierChain{
		LocalVerifier{},
		GoogleVerifier{DB: db},
	}
}

// LocalVerifier xác minh JWT ký bằng JWT_SECRET; role lấy thẳng từ payload
type LocalVerifier struct{}

func (LocalVerifier) Verify(_ context.Context, tokenString string) (Principal, error) {
	claims, err := utils.VerifyToken(tokenString)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}
	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

// GoogleVerifier xác minh Google ID token rồi tra user theo email trong DB.
// Chưa có user -> tạo mới role 'user', password để trống (chỉ đăng nhập Google được).
type GoogleVerifier struct {
	DB *gorm.DB
}

func (g GoogleVerifier) Verify(ctx context.Context, tokenString string) (Principal, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	if clientID == "" {
		return Principal{}, ErrUnauthenticated
	}

	payload, err := idtoken.Validate(ctx, tokenString, clientID)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return Principal{}, ErrUnauthenticated
	}
	name, _ := payload.Claims["name"].(string)

	user, err := FindOrCreateGoogleUser(g.DB, email, name)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}
	return Principal{UserID: user.ID.String(), Role: string(user.Role)}, nil
}

// FindOrCreateGoogleUser tra user theo email, chưa có thì provision tài khoản Google
func FindOrCreateGoogleUser(db *gorm.DB, email, name string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if name == "" {
		name = email
	}
	user = models.User{
		Username: name,
		Email:    email,
		Role:     models.RoleUser,
		// Password để trống vì login Google
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
