package course_test

import (
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func setup(t *testing.T) (*course.Service, course.Repository) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	repo := inmemdb.NewCourseRepository(db)
	return course.NewService(repo), repo
}

func TestService_Outline(t *testing.T) {
	svc, repo := setup(t)

	crs := testutil.CreateCourse(t, repo, "Go 101", "go-101", true)
	mod1 := testutil.CreateModule(t, repo, crs.ID, "Basics", 0, true)
	mod2 := testutil.CreateModule(t, repo, crs.ID, "Drafts", 1, false)
	testutil.CreateLesson(t, repo, mod1.ID, "Hello", 0, true)
	testutil.CreateLesson(t, repo, mod1.ID, "Draft lesson", 1, false)
	testutil.CreateLesson(t, repo, mod2.ID, "Hidden", 0, false)

	draftCrs := testutil.CreateCourse(t, repo, "WIP", "wip", false)

	t.Run("learner view hides drafts", func(t *testing.T) {
		out, err := svc.Outline(crs.ID, course.LearnerView)
		if err != nil {
			t.Fatalf("Outline() failed: %v", err)
		}
		if len(out.Modules) != 1 {
			t.Fatalf("Modules len = %d, want 1", len(out.Modules))
		}
		if len(out.Modules[0].Lessons) != 1 {
			t.Errorf("Lessons len = %d, want 1", len(out.Modules[0].Lessons))
		}
	})

	t.Run("admin preview shows everything", func(t *testing.T) {
		out, err := svc.Outline(crs.ID, course.AdminPreview)
		if err != nil {
			t.Fatalf("Outline() failed: %v", err)
		}
		if len(out.Modules) != 2 {
			t.Fatalf("Modules len = %d, want 2", len(out.Modules))
		}
		if len(out.Modules[0].Lessons) != 2 {
			t.Errorf("Lessons len = %d, want 2", len(out.Modules[0].Lessons))
		}
		if out.Modules[0].ID != mod1.ID || out.Modules[1].ID != mod2.ID {
			t.Error("modules should be ordered by OrderIndex")
		}
	})

	t.Run("draft course is invisible to learners", func(t *testing.T) {
		if _, err := svc.Outline(draftCrs.ID, course.LearnerView); err != course.ErrNotFound {
			t.Errorf("Outline() error = %v, wantErr %v", err, course.ErrNotFound)
		}
		if _, err := svc.Outline(draftCrs.ID, course.AdminPreview); err != nil {
			t.Errorf("Outline() error = %v, want the draft visible in preview", err)
		}
	})

	t.Run("missing course", func(t *testing.T) {
		if _, err := svc.Outline("ad7a88f1-0000-4000-8000-1234567890ab", course.AdminPreview); err != course.ErrNotFound {
			t.Errorf("Outline() error = %v, wantErr %v", err, course.ErrNotFound)
		}
	})
}

func TestService_QueryCourses_views(t *testing.T) {
	svc, repo := setup(t)

	testutil.CreateCourse(t, repo, "Go 101", "go-101", true)
	testutil.CreateCourse(t, repo, "WIP", "wip", false)

	courses, err := svc.QueryCourses(course.LearnerView)
	if err != nil {
		t.Fatalf("QueryCourses() failed: %v", err)
	}
	if len(courses) != 1 {
		t.Errorf("QueryCourses(LearnerView) len = %d, want 1", len(courses))
	}

	courses, err = svc.QueryCourses(course.AdminPreview)
	if err != nil {
		t.Fatalf("QueryCourses() failed: %v", err)
	}
	if len(courses) != 2 {
		t.Errorf("QueryCourses(AdminPreview) len = %d, want 2", len(courses))
	}
}

func TestService_orderIndexCollisions(t *testing.T) {
	svc, repo := setup(t)

	crs := testutil.CreateCourse(t, repo, "Go 101", "go-101", true)
	mod := testutil.CreateModule(t, repo, crs.ID, "Basics", 0, true)
	testutil.CreateLesson(t, repo, mod.ID, "Hello", 0, true)

	_, err := svc.CreateModule(course.NewModule{CourseID: crs.ID, Title: "Clash", OrderIndex: 0})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("CreateModule() error = %v, want a validation error", err)
	}

	_, err = svc.CreateLesson(course.NewLesson{
		ModuleID: mod.ID, Title: "Clash", Kind: course.LessonText, OrderIndex: 0,
	})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("CreateLesson() error = %v, want a validation error", err)
	}

	// the scope is the parent unit, not the whole course
	mod2 := testutil.CreateModule(t, repo, crs.ID, "Concurrency", 1, true)
	if _, err = svc.CreateLesson(course.NewLesson{
		ModuleID: mod2.ID, Title: "Goroutines", Kind: course.LessonText, OrderIndex: 0,
	}); err != nil {
		t.Errorf("CreateLesson() failed: %v", err)
	}
}

func TestService_UpdateCourse_onlySetFields(t *testing.T) {
	svc, repo := setup(t)

	crs := testutil.CreateCourse(t, repo, "Go 101", "go-101", false)

	published := true
	updated, err := svc.UpdateCourse(crs.ID, course.UpdateCourse{
		Title:       "Go 101",
		Slug:        crs.Slug,
		IsPublished: &published,
	})
	if err != nil {
		t.Fatalf("UpdateCourse() failed: %v", err)
	}
	if !updated.IsPublished {
		t.Error("course should be published")
	}
	if !updated.IsFree || updated.Price != crs.Price {
		t.Errorf("unset fields should keep stored values; got %+v", updated)
	}
}
