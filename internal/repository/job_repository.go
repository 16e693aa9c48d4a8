package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/jobhive/jobhive/internal/domain"
)

// JobFilter narrows List results. Zero values mean "no constraint".
type JobFilter struct {
	Status     domain.JobStatus
	Type       domain.JobType
	EmployerID string
	Location   string
	Query      string

	Page    int
	PerPage int
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func (f *JobFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}
}

type JobPage struct {
	Jobs    []domain.Job `json:"jobs"`
	Total   int64        `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

type JobRepository interface {
	Create(job *domain.Job) error
	FindByID(id string) (*domain.Job, error)
	Update(job *domain.Job) error
	Delete(id string) error
	List(filter JobFilter) (*JobPage, error)
}

type gormJobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &gormJobRepository{db: db}
}

func (r *gormJobRepository) Create(job *domain.Job) error {
	return r.db.Create(job).Error
}

func (r *gormJobRepository) FindByID(id string) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *gormJobRepository) Update(job *domain.Job) error {
	return r.db.Save(job).Error
}

func (r *gormJobRepository) Delete(id string) error {
	return r.db.Delete(&domain.Job{}, "id = ?", id).Error
}

func (r *gormJobRepository) List(filter JobFilter) (*JobPage, error) {
	filter.normalize()

	q := r.db.Model(&domain.Job{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.EmployerID != "" {
		q = q.Where("employer_id = ?", filter.EmployerID)
	}
	if filter.Location != "" {
		q = q.Where("lower(location) LIKE ?", "%"+strings.ToLower(filter.Location)+"%")
	}
	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		q = q.Where("lower(title) LIKE ? OR lower(company) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var jobs []domain.Job
	err := q.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	return &JobPage{
		Jobs:    jobs,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}, nil
}
