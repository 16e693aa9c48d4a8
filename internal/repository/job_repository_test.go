package repository

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/jobhive/jobhive/internal/domain"
)

func seedJobs(t *testing.T, repo JobRepository, employerID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		status := domain.JobStatusOpen
		if i%4 == 3 {
			status = domain.JobStatusClosed
		}
		job := &domain.Job{
			Title:       fmt.Sprintf("Backend Engineer %d", i),
			Description: "Build services",
			Company:     "Acme",
			Location:    "Berlin",
			Type:        domain.JobTypeFullTime,
			Status:      status,
			EmployerID:  employerID,
		}
		if err := repo.Create(job); err != nil {
			t.Fatalf("create job %d: %v", i, err)
		}
	}
}

func TestJobRepositoryCRUD(t *testing.T) {
	repo := NewJobRepository(openTestDB(t))

	job := &domain.Job{
		Title:       "Data Engineer",
		Description: "Pipelines",
		Company:     "Acme",
		Location:    "Remote",
		Type:        domain.JobTypeRemote,
		EmployerID:  "emp-1",
	}
	if err := repo.Create(job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID == "" {
		t.Fatal("no id assigned")
	}
	if job.Status != domain.JobStatusOpen {
		t.Errorf("status = %q, want open default", job.Status)
	}

	got, err := repo.FindByID(job.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	got.Title = "Senior Data Engineer"
	if err := repo.Update(got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, _ := repo.FindByID(job.ID)
	if again.Title != "Senior Data Engineer" {
		t.Errorf("title = %q", again.Title)
	}

	if err := repo.Delete(job.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(job.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("deleted job still found: err = %v", err)
	}
}

func TestJobRepositoryList(t *testing.T) {
	repo := NewJobRepository(openTestDB(t))
	seedJobs(t, repo, "emp-1", 10)
	seedJobs(t, repo, "emp-2", 3)

	t.Run("filters by employer", func(t *testing.T) {
		page, err := repo.List(JobFilter{EmployerID: "emp-2"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if page.Total != 3 {
			t.Errorf("total = %d, want 3", page.Total)
		}
	})

	t.Run("filters by status", func(t *testing.T) {
		page, err := repo.List(JobFilter{Status: domain.JobStatusClosed})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		for _, j := range page.Jobs {
			if j.Status != domain.JobStatusClosed {
				t.Errorf("job %s status = %q", j.ID, j.Status)
			}
		}
	})

	t.Run("paginates", func(t *testing.T) {
		page, err := repo.List(JobFilter{Page: 2, PerPage: 5})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if page.Total != 13 {
			t.Errorf("total = %d, want 13", page.Total)
		}
		if len(page.Jobs) != 5 {
			t.Errorf("got %d jobs on page 2, want 5", len(page.Jobs))
		}
		if page.Page != 2 || page.PerPage != 5 {
			t.Errorf("page meta = %d/%d", page.Page, page.PerPage)
		}
	})

	t.Run("caps per page", func(t *testing.T) {
		page, err := repo.List(JobFilter{PerPage: 10_000})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if page.PerPage != maxPerPage {
			t.Errorf("per page = %d, want %d", page.PerPage, maxPerPage)
		}
	})

	t.Run("searches title and company", func(t *testing.T) {
		page, err := repo.List(JobFilter{Query: "backend engineer 1"})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		// "Backend Engineer 1" exists once per employer.
		if page.Total != 2 {
			t.Errorf("total = %d, want 2", page.Total)
		}
	})
}
