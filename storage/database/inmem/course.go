package inmemdb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *courseTable
	qz *quizTable // cascade target: gate quizzes die with their unit
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course, qz: db.quiz}
}

// Courses

func (repo *courseRepository) CreateCourse(c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetCourseByID(id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetCourseBySlug(slug string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.courses {
		if c.Slug == slug {
			return *c, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) CheckSlugUniqueness(slug string, excludedCourses ...course.Course) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]struct{}, len(excludedCourses))
	for _, c := range excludedCourses {
		excluded[c.ID] = struct{}{}
	}
	for _, c := range repo.db.courses {
		if _, ok := excluded[c.ID]; ok {
			continue
		}
		if c.Slug == slug {
			return course.ErrSlugExists
		}
	}
	return nil
}

func (repo *courseRepository) QueryCourses(view course.ContentView, ordering ...core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if c.IsPublished || view.IncludeUnpublished {
			courses = append(courses, *c)
		}
	}

	desc := len(ordering) > 0 && !ordering[0].Ascending
	sort.Slice(courses, func(i, j int) bool {
		less := courses[i].Title < courses[j].Title
		if len(ordering) > 0 && ordering[0].Field == "created_at" {
			less = courses[i].CreatedAt.Before(courses[j].CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(c course.Course, isPublished, isFree *bool, price *int) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.courses[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	// only save set fields
	if c.Title != "" {
		orig.Title = c.Title
	}
	if c.Slug != "" {
		orig.Slug = c.Slug
	}
	if c.Description != "" {
		orig.Description = c.Description
	}
	if isPublished != nil {
		orig.IsPublished = *isPublished
	}
	if isFree != nil {
		orig.IsFree = *isFree
	}
	if price != nil {
		orig.Price = *price
	}
	if !c.UpdatedAt.IsZero() {
		orig.UpdatedAt = c.UpdatedAt
	}
	return *orig, nil
}

func (repo *courseRepository) DeleteCoursesByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		for _, m := range repo.db.modules {
			if m.CourseID == id {
				repo.deleteModule(m.ID)
			}
		}
		delete(repo.db.courses, id)
	}
	return nil
}

// Modules

func (repo *courseRepository) CreateModule(m course.Module) (course.Module, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.moduleOrderIndexTaken(m.CourseID, m.OrderIndex, "") {
		return course.Module{}, course.ErrOrderIndexTaken
	}
	m.ID = uuid.New().String()
	repo.db.modules[m.ID] = &m
	return m, nil
}

func (repo *courseRepository) GetModuleByID(id string) (course.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.modules[id]; ok {
		return *m, nil
	}
	return course.Module{}, course.ErrNotFound
}

func (repo *courseRepository) QueryModulesByCourseID(courseID string, view course.ContentView) ([]course.Module, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	modules := make([]course.Module, 0)
	for _, m := range repo.db.modules {
		if m.CourseID == courseID && (m.IsPublished || view.IncludeUnpublished) {
			modules = append(modules, *m)
		}
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].OrderIndex < modules[j].OrderIndex })
	return modules, nil
}

func (repo *courseRepository) UpdateModule(m course.Module, isPublished *bool) (course.Module, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.modules[m.ID]
	if !ok {
		return course.Module{}, course.ErrNotFound
	}
	if repo.moduleOrderIndexTaken(orig.CourseID, m.OrderIndex, m.ID) {
		return course.Module{}, course.ErrOrderIndexTaken
	}
	orig.Title = m.Title
	orig.Description = m.Description
	orig.OrderIndex = m.OrderIndex
	if isPublished != nil {
		orig.IsPublished = *isPublished
	}
	orig.UpdatedAt = m.UpdatedAt
	return *orig, nil
}

func (repo *courseRepository) DeleteModulesByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		repo.deleteModule(id)
	}
	return nil
}

// deleteModule cascades to lessons and attached quizzes; callers hold the lock.
func (repo *courseRepository) deleteModule(id string) {
	for _, l := range repo.db.lessons {
		if l.ModuleID == id {
			repo.deleteLesson(l.ID)
		}
	}
	repo.deleteAttachedQuiz("", id)
	delete(repo.db.modules, id)
}

func (repo *courseRepository) moduleOrderIndexTaken(courseID string, orderIndex int, exclID string) bool {
	for _, m := range repo.db.modules {
		if m.CourseID == courseID && m.OrderIndex == orderIndex && m.ID != exclID {
			return true
		}
	}
	return false
}

// Lessons

func (repo *courseRepository) CreateLesson(l course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.lessonOrderIndexTaken(l.ModuleID, l.OrderIndex, "") {
		return course.Lesson{}, course.ErrOrderIndexTaken
	}
	l.ID = uuid.New().String()
	repo.db.lessons[l.ID] = &l
	return l, nil
}

func (repo *courseRepository) GetLessonByID(id string) (course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.lessons[id]; ok {
		return *l, nil
	}
	return course.Lesson{}, course.ErrNotFound
}

func (repo *courseRepository) QueryLessonsByModuleID(moduleID string, view course.ContentView) ([]course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lessons := make([]course.Lesson, 0)
	for _, l := range repo.db.lessons {
		if l.ModuleID == moduleID && (l.IsPublished || view.IncludeUnpublished) {
			lessons = append(lessons, *l)
		}
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].OrderIndex < lessons[j].OrderIndex })
	return lessons, nil
}

func (repo *courseRepository) QueryLessonsByCourseID(courseID string, view course.ContentView) ([]course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	moduleIDs := make(map[string]int) // module ID -> module order
	for _, m := range repo.db.modules {
		if m.CourseID == courseID && (m.IsPublished || view.IncludeUnpublished) {
			moduleIDs[m.ID] = m.OrderIndex
		}
	}

	lessons := make([]course.Lesson, 0)
	for _, l := range repo.db.lessons {
		if _, ok := moduleIDs[l.ModuleID]; !ok {
			continue
		}
		if l.IsPublished || view.IncludeUnpublished {
			lessons = append(lessons, *l)
		}
	}
	sort.Slice(lessons, func(i, j int) bool {
		if mi, mj := moduleIDs[lessons[i].ModuleID], moduleIDs[lessons[j].ModuleID]; mi != mj {
			return mi < mj
		}
		return lessons[i].OrderIndex < lessons[j].OrderIndex
	})
	return lessons, nil
}

func (repo *courseRepository) UpdateLesson(l course.Lesson, isPublished *bool) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.lessons[l.ID]
	if !ok {
		return course.Lesson{}, course.ErrNotFound
	}
	if repo.lessonOrderIndexTaken(orig.ModuleID, l.OrderIndex, l.ID) {
		return course.Lesson{}, course.ErrOrderIndexTaken
	}
	orig.Title = l.Title
	orig.Kind = l.Kind
	orig.Body = l.Body
	orig.VideoURL = l.VideoURL
	orig.OrderIndex = l.OrderIndex
	if isPublished != nil {
		orig.IsPublished = *isPublished
	}
	orig.UpdatedAt = l.UpdatedAt
	return *orig, nil
}

func (repo *courseRepository) DeleteLessonsByID(ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		repo.deleteLesson(id)
	}
	return nil
}

// deleteLesson cascades to the attached lesson quiz; callers hold the lock.
func (repo *courseRepository) deleteLesson(id string) {
	repo.deleteAttachedQuiz(id, "")
	delete(repo.db.lessons, id)
}

func (repo *courseRepository) lessonOrderIndexTaken(moduleID string, orderIndex int, exclID string) bool {
	for _, l := range repo.db.lessons {
		if l.ModuleID == moduleID && l.OrderIndex == orderIndex && l.ID != exclID {
			return true
		}
	}
	return false
}

// deleteAttachedQuiz removes the quiz attached to the given lesson or module
// along with its questions. Historical attempts are kept as audit trail.
func (repo *courseRepository) deleteAttachedQuiz(lessonID, moduleID string) {
	repo.qz.Lock()
	defer repo.qz.Unlock()

	for _, q := range repo.qz.quizzes {
		if (lessonID != "" && q.LessonID == lessonID) || (moduleID != "" && q.ModuleID == moduleID) {
			for _, qn := range repo.qz.questions {
				if qn.QuizID == q.ID {
					delete(repo.qz.questions, qn.ID)
				}
			}
			delete(repo.qz.quizzes, q.ID)
		}
	}
}
