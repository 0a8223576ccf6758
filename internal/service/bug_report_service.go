package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
	"pomorix/internal/repository"
)

const maxBugDescriptionLength = 5000

type BugReportService struct {
	repo   *repository.BugReportRepository
	logger *slog.Logger
}

func NewBugReportService(repo *repository.BugReportRepository, logger *slog.Logger) *BugReportService {
	return &BugReportService{repo: repo, logger: logger}
}

func (s *BugReportService) Create(ctx context.Context, userID string, req model.CreateBugReportRequest) (*model.BugReport, *apperrors.APIError) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	switch {
	case title == "" || description == "":
		return nil, apperrors.BadRequest("invalid_bug_report", "title and description are required")
	case len(title) > maxTitleLength:
		return nil, apperrors.BadRequest("invalid_bug_report", "title must be at most 200 characters")
	case len(description) > maxBugDescriptionLength:
		return nil, apperrors.BadRequest("invalid_bug_report", "description must be at most 5000 characters")
	}

	report := model.BugReport{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &report); err != nil {
		s.logger.Error("create bug report", "user_id", userID, "error", err)
		return nil, apperrors.Internal("failed to save bug report")
	}
	s.logger.Info("bug report filed", "bug_report_id", report.ID, "user_id", userID)
	return &report, nil
}
