package models

import "time"

// EmailOTP представляет одноразовый код для сброса пароля.
// На каждый email существует не более одной живой записи:
// выдача нового кода атомарно заменяет предыдущий.
type EmailOTP struct {
	Email     string    `db:"email" json:"email"`
	Code      string    `db:"code" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// Expired сообщает, истёк ли код на момент now.
// Граница включительная: код, проверенный ровно через TTL, считается истёкшим.
func (o *EmailOTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
