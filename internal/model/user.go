package model

import "time"

// User is consumed read-only by the task core; account management owns it.
type User struct {
	ID                 int       `json:"id"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	Timezone           string    `json:"timezone"`
	NotificationsOptIn bool      `json:"notifications_opt_in"`
	CreatedAt          time.Time `json:"created_at"`
}
