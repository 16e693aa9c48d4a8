package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jobhive/jobhive/internal/domain"
	"github.com/jobhive/jobhive/internal/repository"
)

func newJobFixture(t *testing.T) JobService {
	t.Helper()
	return NewJobService(repository.NewJobRepository(openTestDB(t)), discardLogger())
}

func validJobInput() JobInput {
	return JobInput{
		Title:       "Backend Engineer",
		Description: "Build services",
		Company:     "Acme",
		Location:    "Berlin",
		Type:        domain.JobTypeFullTime,
	}
}

func TestJobCreate(t *testing.T) {
	ctx := context.Background()
	svc := newJobFixture(t)

	job, err := svc.Create(ctx, "emp-1", validJobInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID == "" || job.EmployerID != "emp-1" {
		t.Errorf("job = %+v", job)
	}
	if job.Status != domain.JobStatusOpen {
		t.Errorf("status = %q, want open default", job.Status)
	}

	t.Run("rejects missing fields", func(t *testing.T) {
		in := validJobInput()
		in.Title = "  "
		if _, err := svc.Create(ctx, "emp-1", in); !errors.Is(err, ErrInvalidJob) {
			t.Errorf("err = %v, want ErrInvalidJob", err)
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		in := validJobInput()
		in.Type = "gig"
		if _, err := svc.Create(ctx, "emp-1", in); !errors.Is(err, ErrInvalidJob) {
			t.Errorf("err = %v, want ErrInvalidJob", err)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		in := validJobInput()
		in.Status = "archived"
		if _, err := svc.Create(ctx, "emp-1", in); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("err = %v, want ErrInvalidStatus", err)
		}
	})
}

func TestJobOwnership(t *testing.T) {
	ctx := context.Background()
	svc := newJobFixture(t)

	job, err := svc.Create(ctx, "emp-1", validJobInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	update := validJobInput()
	update.Title = "Senior Backend Engineer"

	t.Run("owner may update", func(t *testing.T) {
		got, err := svc.Update(ctx, "emp-1", domain.RoleEmployer, job.ID, update)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Title != "Senior Backend Engineer" {
			t.Errorf("title = %q", got.Title)
		}
	})

	t.Run("other employer may not update", func(t *testing.T) {
		if _, err := svc.Update(ctx, "emp-2", domain.RoleEmployer, job.ID, update); !errors.Is(err, ErrNotJobOwner) {
			t.Errorf("err = %v, want ErrNotJobOwner", err)
		}
	})

	t.Run("admin may update any", func(t *testing.T) {
		if _, err := svc.Update(ctx, "admin-1", domain.RoleAdmin, job.ID, update); err != nil {
			t.Errorf("admin update: %v", err)
		}
	})

	t.Run("other employer may not delete", func(t *testing.T) {
		if err := svc.Delete(ctx, "emp-2", domain.RoleEmployer, job.ID); !errors.Is(err, ErrNotJobOwner) {
			t.Errorf("err = %v, want ErrNotJobOwner", err)
		}
	})

	t.Run("owner may delete", func(t *testing.T) {
		if err := svc.Delete(ctx, "emp-1", domain.RoleEmployer, job.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := svc.Get(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
			t.Errorf("err = %v, want ErrJobNotFound", err)
		}
	})
}

func TestJobGetAndList(t *testing.T) {
	ctx := context.Background()
	svc := newJobFixture(t)

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, "emp-1", validJobInput()); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	page, err := svc.List(ctx, repository.JobFilter{EmployerID: "emp-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
}
