package course

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound        = errors.New("course content not found")
	ErrSlugExists      = errors.New("a course with this slug already exists")
	ErrOrderIndexTaken = errors.New("this position is already taken in the parent scope")
)

type (
	// Repository gives access to course structure. Listing methods honor the
	// given ContentView and return units ordered by OrderIndex ascending.
	Repository interface {
		CreateCourse(c Course) (Course, error)
		GetCourseByID(id string) (Course, error)
		GetCourseBySlug(slug string) (Course, error)
		CheckSlugUniqueness(slug string, excludedCourses ...Course) error
		QueryCourses(view ContentView, ordering ...core.DBOrdering) ([]Course, error)
		// UpdateCourse only saves set fields; nil flag/price args keep stored values.
		UpdateCourse(c Course, isPublished, isFree *bool, price *int) (Course, error)
		// DeleteCoursesByID cascades to owned modules and lessons.
		DeleteCoursesByID(ids ...string) error

		CreateModule(m Module) (Module, error)
		GetModuleByID(id string) (Module, error)
		QueryModulesByCourseID(courseID string, view ContentView) ([]Module, error)
		UpdateModule(m Module, isPublished *bool) (Module, error)
		// DeleteModulesByID cascades to owned lessons.
		DeleteModulesByID(ids ...string) error

		CreateLesson(l Lesson) (Lesson, error)
		GetLessonByID(id string) (Lesson, error)
		QueryLessonsByModuleID(moduleID string, view ContentView) ([]Lesson, error)
		// QueryLessonsByCourseID collects the lessons of all the course's modules.
		QueryLessonsByCourseID(courseID string, view ContentView) ([]Lesson, error)
		UpdateLesson(l Lesson, isPublished *bool) (Lesson, error)
		DeleteLessonsByID(ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckSlugUniqueness(slug string, exclCourses ...Course) error {
	if err := svc.repo.CheckSlugUniqueness(slug, exclCourses...); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

// trapOrderIndexErr maps ErrOrderIndexTaken to a field-level validation error.
func trapOrderIndexErr(err error) error {
	if errors.Cause(err) == ErrOrderIndexTaken {
		return core.NewValidationError(err, core.FieldError{Field: "order_index", Error: err.Error()})
	}
	return err
}

// Courses

func (svc *Service) CreateCourse(nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCourse(Course{
		Title:       nc.Title,
		Slug:        nc.Slug,
		Description: nc.Description,
		IsFree:      nc.IsFree,
		Price:       nc.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetCourse(id string) (Course, error) {
	return svc.repo.GetCourseByID(id)
}

func (svc *Service) GetCourseBySlug(slug string) (Course, error) {
	return svc.repo.GetCourseBySlug(core.CleanString(slug, true /* lower */))
}

func (svc *Service) QueryCourses(view ContentView, ordering ...core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(view, ordering...)
}

func (svc *Service) UpdateCourse(id string, uc UpdateCourse) (Course, error) {
	crs := Course{
		ID:          id,
		Title:       uc.Title,
		Slug:        uc.Slug,
		Description: uc.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateCourse(crs, uc.IsPublished, uc.IsFree, uc.Price)
}

func (svc *Service) DeleteCourse(ids ...string) error {
	return svc.repo.DeleteCoursesByID(ids...)
}

// Modules

func (svc *Service) CreateModule(nm NewModule) (Module, error) {
	if _, err := svc.repo.GetCourseByID(nm.CourseID); err != nil {
		return Module{}, err
	}
	now := time.Now().UTC()
	mod, err := svc.repo.CreateModule(Module{
		CourseID:    nm.CourseID,
		Title:       nm.Title,
		Description: nm.Description,
		OrderIndex:  nm.OrderIndex,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return mod, trapOrderIndexErr(err)
}

func (svc *Service) GetModule(id string) (Module, error) {
	return svc.repo.GetModuleByID(id)
}

func (svc *Service) UpdateModule(id string, um UpdateModule) (Module, error) {
	orig, err := svc.repo.GetModuleByID(id)
	if err != nil {
		return Module{}, err
	}
	orig.Title = um.Title
	if um.Description != "" {
		orig.Description = um.Description
	}
	if um.OrderIndex != nil {
		orig.OrderIndex = *um.OrderIndex
	}
	orig.UpdatedAt = time.Now().UTC()

	mod, err := svc.repo.UpdateModule(orig, um.IsPublished)
	return mod, trapOrderIndexErr(err)
}

func (svc *Service) DeleteModule(ids ...string) error {
	return svc.repo.DeleteModulesByID(ids...)
}

// Lessons

func (svc *Service) CreateLesson(nl NewLesson) (Lesson, error) {
	if _, err := svc.repo.GetModuleByID(nl.ModuleID); err != nil {
		return Lesson{}, err
	}
	now := time.Now().UTC()
	lsn, err := svc.repo.CreateLesson(Lesson{
		ModuleID:   nl.ModuleID,
		Title:      nl.Title,
		Kind:       nl.Kind,
		Body:       nl.Body,
		VideoURL:   nl.VideoURL,
		OrderIndex: nl.OrderIndex,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return lsn, trapOrderIndexErr(err)
}

func (svc *Service) GetLesson(id string) (Lesson, error) {
	return svc.repo.GetLessonByID(id)
}

func (svc *Service) UpdateLesson(id string, ul UpdateLesson) (Lesson, error) {
	orig, err := svc.repo.GetLessonByID(id)
	if err != nil {
		return Lesson{}, err
	}
	orig.Title = ul.Title
	orig.Kind = ul.Kind
	if ul.Body != nil {
		orig.Body = *ul.Body
	}
	if ul.VideoURL != nil {
		orig.VideoURL = *ul.VideoURL
	}
	if ul.OrderIndex != nil {
		orig.OrderIndex = *ul.OrderIndex
	}
	orig.UpdatedAt = time.Now().UTC()

	lsn, err := svc.repo.UpdateLesson(orig, ul.IsPublished)
	return lsn, trapOrderIndexErr(err)
}

func (svc *Service) DeleteLesson(ids ...string) error {
	return svc.repo.DeleteLessonsByID(ids...)
}

// Outline returns the course with its modules and lessons scoped to the given view.
func (svc *Service) Outline(courseID string, view ContentView) (Outline, error) {
	crs, err := svc.repo.GetCourseByID(courseID)
	if err != nil {
		return Outline{}, err
	}
	if !crs.IsPublished && !view.IncludeUnpublished {
		return Outline{}, ErrNotFound
	}

	mods, err := svc.repo.QueryModulesByCourseID(courseID, view)
	if err != nil {
		return Outline{}, errors.Wrap(err, "querying modules")
	}

	outline := Outline{Course: crs, Modules: make([]ModuleOutline, 0, len(mods))}
	for _, mod := range mods {
		lessons, err := svc.repo.QueryLessonsByModuleID(mod.ID, view)
		if err != nil {
			return Outline{}, errors.Wrap(err, "querying lessons")
		}
		if lessons == nil {
			lessons = []Lesson{}
		}
		outline.Modules = append(outline.Modules, ModuleOutline{Module: mod, Lessons: lessons})
	}
	return outline, nil
}
