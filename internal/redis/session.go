package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

func sessionFields(s domain.AdminSession) map[string]any {
	return map[string]any{
		"user_id":    s.UserID,
		"name":       s.Name,
		"is_admin":   strconv.FormatBool(s.IsAdmin),
		"expires_at": strconv.FormatInt(s.ExpiresAt.UnixMilli(), 10),
	}
}

func parseSession(token string, fields map[string]string) (*domain.AdminSession, error) {
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing session expiry: %w", err)
	}
	isAdmin, _ := strconv.ParseBool(fields["is_admin"])

	return &domain.AdminSession{
		Token:     token,
		UserID:    fields["user_id"],
		Name:      fields["name"],
		IsAdmin:   isAdmin,
		ExpiresAt: time.UnixMilli(expires).UTC(),
	}, nil
}
