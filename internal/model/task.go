package model

import "time"

type Task struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	IsActive           bool      `json:"is_active"`
	IsCompleted        bool      `json:"is_completed"`
	CompletedPomodoros int       `json:"completed_pomodoros"`
	EstimatedPomodoros int       `json:"estimated_pomodoros"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type CreateTaskRequest struct {
	Title              string `json:"title"`
	EstimatedPomodoros int    `json:"estimated_pomodoros,omitempty"`
}

type UpdateTaskRequest struct {
	Title              *string `json:"title,omitempty"`
	EstimatedPomodoros *int    `json:"estimated_pomodoros,omitempty"`
	IsCompleted        *bool   `json:"is_completed,omitempty"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type AuthResult struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
