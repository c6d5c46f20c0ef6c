package utility

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/dgrijalva/jwt-go"
)

// TokenClaims chứa data được mã hóa trong JWT token
type TokenClaims struct {
	UserID       string `json:"userId"`
	Time         string `json:"time"`
	RandomNumber string `json:"randomNumber"`
	jwt.StandardClaims
}

// CreateToken tạo JWT token mới cho người dùng.
//
// Parameters:
//   - secret: JWT secret key
//   - userID: ID người dùng (hex string)
//   - timeHex: Thời điểm tạo token (hex string)
//   - randomNumber: Số ngẫu nhiên làm nonce
//
// Returns:
//   - map chứa token đã ký ("token")
//   - error nếu ký thất bại
func CreateToken(secret string, userID string, timeHex string, randomNumber string) (map[string]string, error) {
	claims := TokenClaims{
		UserID:       userID,
		Time:         timeHex,
		RandomNumber: randomNumber,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return map[string]string{"token": signed}, nil
}

// ParseToken giải mã và xác thực JWT token, trả về claims nếu hợp lệ
func ParseToken(secret string, tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// RandomHex sinh chuỗi hex ngẫu nhiên với độ dài n bytes.
// Dùng cho các token tra cứu out-of-band (ví dụ: phê duyệt đăng nhập).
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
