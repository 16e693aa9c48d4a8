package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/jobhive/jobhive/internal/domain"
	"github.com/jobhive/jobhive/internal/observability"
	"github.com/jobhive/jobhive/internal/repository"
)

type JobInput struct {
	Title       string
	Description string
	Company     string
	Location    string
	Type        domain.JobType
	Status      domain.JobStatus
}

type JobService interface {
	Create(ctx context.Context, employerID string, in JobInput) (*domain.Job, error)
	Get(ctx context.Context, id string) (*domain.Job, error)
	Update(ctx context.Context, actorID string, actorRole domain.Role, id string, in JobInput) (*domain.Job, error)
	Delete(ctx context.Context, actorID string, actorRole domain.Role, id string) error
	List(ctx context.Context, filter repository.JobFilter) (*repository.JobPage, error)
}

type jobService struct {
	jobs   repository.JobRepository
	logger *slog.Logger
}

func NewJobService(jobs repository.JobRepository, logger *slog.Logger) JobService {
	return &jobService{jobs: jobs, logger: logger}
}

func (in JobInput) validate() error {
	if strings.TrimSpace(in.Title) == "" ||
		strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.Company) == "" ||
		strings.TrimSpace(in.Location) == "" {
		return ErrInvalidJob
	}
	if !in.Type.Valid() {
		return ErrInvalidJob
	}
	if in.Status != "" && !in.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (s *jobService) Create(ctx context.Context, employerID string, in JobInput) (*domain.Job, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	job := &domain.Job{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Company:     strings.TrimSpace(in.Company),
		Location:    strings.TrimSpace(in.Location),
		Type:        in.Type,
		Status:      in.Status,
		EmployerID:  employerID,
	}
	if err := s.jobs.Create(job); err != nil {
		observability.RecordJobMutation(ctx, "create", "error")
		return nil, err
	}
	observability.RecordJobMutation(ctx, "create", "success")
	s.logger.InfoContext(ctx, "job created", "job_id", job.ID, "employer_id", employerID)
	return job, nil
}

func (s *jobService) Get(ctx context.Context, id string) (*domain.Job, error) {
	job, err := s.jobs.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// Update lets the owning employer edit the posting; admins may edit any.
func (s *jobService) Update(ctx context.Context, actorID string, actorRole domain.Role, id string, in JobInput) (*domain.Job, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != actorID && actorRole != domain.RoleAdmin {
		return nil, ErrNotJobOwner
	}

	job.Title = strings.TrimSpace(in.Title)
	job.Description = in.Description
	job.Company = strings.TrimSpace(in.Company)
	job.Location = strings.TrimSpace(in.Location)
	job.Type = in.Type
	if in.Status != "" {
		job.Status = in.Status
	}
	if err := s.jobs.Update(job); err != nil {
		observability.RecordJobMutation(ctx, "update", "error")
		return nil, err
	}
	observability.RecordJobMutation(ctx, "update", "success")
	return job, nil
}

func (s *jobService) Delete(ctx context.Context, actorID string, actorRole domain.Role, id string) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.EmployerID != actorID && actorRole != domain.RoleAdmin {
		return ErrNotJobOwner
	}
	if err := s.jobs.Delete(id); err != nil {
		observability.RecordJobMutation(ctx, "delete", "error")
		return err
	}
	observability.RecordJobMutation(ctx, "delete", "success")
	s.logger.InfoContext(ctx, "job deleted", "job_id", id, "actor_id", actorID)
	return nil
}

func (s *jobService) List(ctx context.Context, filter repository.JobFilter) (*repository.JobPage, error) {
	return s.jobs.List(filter)
}
