package sqlxrepos

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

// unique constraint names from the migrations
const (
	courseSlugKey       = "course_slug_key"
	moduleOrderIndexKey = "module_course_id_order_index_key"
	lessonOrderIndexKey = "lesson_module_id_order_index_key"
)

type courseRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	IsPublished bool      `db:"is_published"`
	IsFree      bool      `db:"is_free"`
	Price       int       `db:"price"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r courseRow) course() course.Course { return course.Course(r) }

type moduleRow struct {
	ID          string    `db:"id"`
	CourseID    string    `db:"course_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	OrderIndex  int       `db:"order_index"`
	IsPublished bool      `db:"is_published"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r moduleRow) module() course.Module { return course.Module(r) }

type lessonRow struct {
	ID          string    `db:"id"`
	ModuleID    string    `db:"module_id"`
	Title       string    `db:"title"`
	Kind        string    `db:"kind"`
	Body        string    `db:"body"`
	VideoURL    string    `db:"video_url"`
	OrderIndex  int       `db:"order_index"`
	IsPublished bool      `db:"is_published"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r lessonRow) lesson() course.Lesson { return course.Lesson(r) }

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

// Courses

func (repo *courseRepository) CreateCourse(c course.Course) (course.Course, error) {
	c.ID = uuid.New().String()
	_, err := repo.db.Exec(`
		INSERT INTO course (id, title, slug, description, is_published, is_free, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Title, c.Slug, c.Description, c.IsPublished, c.IsFree, c.Price, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if err = trapUniqueViolation(err, course.ErrSlugExists, courseSlugKey); err == course.ErrSlugExists {
			return course.Course{}, err
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) GetCourseByID(id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	if err := repo.db.Get(&row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRows(err, course.ErrNotFound, "finding course by ID")
	}
	return row.course(), nil
}

func (repo *courseRepository) GetCourseBySlug(slug string) (course.Course, error) {
	var row courseRow
	if err := repo.db.Get(&row, `SELECT * FROM course WHERE slug = $1`, slug); err != nil {
		return course.Course{}, trapNoRows(err, course.ErrNotFound, "finding course by slug")
	}
	return row.course(), nil
}

func (repo *courseRepository) CheckSlugUniqueness(slug string, excludedCourses ...course.Course) error {
	excluded := make(pq.StringArray, 0, len(excludedCourses))
	for _, c := range excludedCourses {
		excluded = append(excluded, c.ID)
	}

	var exists bool
	err := repo.db.Get(&exists,
		`SELECT EXISTS (SELECT 1 FROM course WHERE slug = $1 AND id <> ALL ($2))`, slug, excluded)
	if err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if exists {
		return course.ErrSlugExists
	}
	return nil
}

func (repo *courseRepository) QueryCourses(view course.ContentView, ordering ...core.DBOrdering) ([]course.Course, error) {
	query := `SELECT * FROM course`
	if !view.IncludeUnpublished {
		query += " WHERE is_published = TRUE"
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY title"
	}

	var rows []courseRow
	if err := repo.db.Select(&rows, query); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.course())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(c course.Course, isPublished, isFree *bool, price *int) (course.Course, error) {
	// only save set fields
	orig, err := repo.GetCourseByID(c.ID)
	if err != nil {
		return course.Course{}, err
	}
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

	_, err = repo.db.Exec(`
		UPDATE course
		SET title = $2, slug = $3, description = $4, is_published = $5, is_free = $6, price = $7, updated_at = $8
		WHERE id = $1`,
		orig.ID, orig.Title, orig.Slug, orig.Description, orig.IsPublished, orig.IsFree, orig.Price, orig.UpdatedAt)
	if err != nil {
		if err = trapUniqueViolation(err, course.ErrSlugExists, courseSlugKey); err == course.ErrSlugExists {
			return course.Course{}, err
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return orig, nil
}

func (repo *courseRepository) DeleteCoursesByID(ids ...string) error {
	// FKs cascade to modules, lessons and attached quizzes; attempts are kept
	_, err := repo.db.Exec(`DELETE FROM course WHERE id = ANY ($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting courses")
}

// Modules

func (repo *courseRepository) CreateModule(m course.Module) (course.Module, error) {
	m.ID = uuid.New().String()
	_, err := repo.db.Exec(`
		INSERT INTO module (id, course_id, title, description, order_index, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.CourseID, m.Title, m.Description, m.OrderIndex, m.IsPublished, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if err = trapUniqueViolation(err, course.ErrOrderIndexTaken, moduleOrderIndexKey); err == course.ErrOrderIndexTaken {
			return course.Module{}, err
		}
		return course.Module{}, errors.Wrap(err, "inserting module")
	}
	return m, nil
}

func (repo *courseRepository) GetModuleByID(id string) (course.Module, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Module{}, course.ErrNotFound
	}
	var row moduleRow
	if err := repo.db.Get(&row, `SELECT * FROM module WHERE id = $1`, id); err != nil {
		return course.Module{}, trapNoRows(err, course.ErrNotFound, "finding module by ID")
	}
	return row.module(), nil
}

func (repo *courseRepository) QueryModulesByCourseID(courseID string, view course.ContentView) ([]course.Module, error) {
	query := `SELECT * FROM module WHERE course_id = $1`
	if !view.IncludeUnpublished {
		query += " AND is_published = TRUE"
	}
	query += " ORDER BY order_index"

	var rows []moduleRow
	if err := repo.db.Select(&rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	modules := make([]course.Module, 0, len(rows))
	for _, row := range rows {
		modules = append(modules, row.module())
	}
	return modules, nil
}

func (repo *courseRepository) UpdateModule(m course.Module, isPublished *bool) (course.Module, error) {
	orig, err := repo.GetModuleByID(m.ID)
	if err != nil {
		return course.Module{}, err
	}
	orig.Title = m.Title
	orig.Description = m.Description
	orig.OrderIndex = m.OrderIndex
	if isPublished != nil {
		orig.IsPublished = *isPublished
	}
	orig.UpdatedAt = m.UpdatedAt

	_, err = repo.db.Exec(`
		UPDATE module
		SET title = $2, description = $3, order_index = $4, is_published = $5, updated_at = $6
		WHERE id = $1`,
		orig.ID, orig.Title, orig.Description, orig.OrderIndex, orig.IsPublished, orig.UpdatedAt)
	if err != nil {
		if err = trapUniqueViolation(err, course.ErrOrderIndexTaken, moduleOrderIndexKey); err == course.ErrOrderIndexTaken {
			return course.Module{}, err
		}
		return course.Module{}, errors.Wrap(err, "updating module")
	}
	return orig, nil
}

func (repo *courseRepository) DeleteModulesByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM module WHERE id = ANY ($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting modules")
}

// Lessons

func (repo *courseRepository) CreateLesson(l course.Lesson) (course.Lesson, error) {
	l.ID = uuid.New().String()
	_, err := repo.db.Exec(`
		INSERT INTO lesson (id, module_id, title, kind, body, video_url, order_index, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, l.ModuleID, l.Title, l.Kind, l.Body, l.VideoURL, l.OrderIndex, l.IsPublished, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if err = trapUniqueViolation(err, course.ErrOrderIndexTaken, lessonOrderIndexKey); err == course.ErrOrderIndexTaken {
			return course.Lesson{}, err
		}
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return l, nil
}

func (repo *courseRepository) GetLessonByID(id string) (course.Lesson, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Lesson{}, course.ErrNotFound
	}
	var row lessonRow
	if err := repo.db.Get(&row, `SELECT * FROM lesson WHERE id = $1`, id); err != nil {
		return course.Lesson{}, trapNoRows(err, course.ErrNotFound, "finding lesson by ID")
	}
	return row.lesson(), nil
}

func (repo *courseRepository) QueryLessonsByModuleID(moduleID string, view course.ContentView) ([]course.Lesson, error) {
	query := `SELECT * FROM lesson WHERE module_id = $1`
	if !view.IncludeUnpublished {
		query += " AND is_published = TRUE"
	}
	query += " ORDER BY order_index"

	var rows []lessonRow
	if err := repo.db.Select(&rows, query, moduleID); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	lessons := make([]course.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.lesson())
	}
	return lessons, nil
}

func (repo *courseRepository) QueryLessonsByCourseID(courseID string, view course.ContentView) ([]course.Lesson, error) {
	conds := []string{"m.course_id = $1"}
	if !view.IncludeUnpublished {
		conds = append(conds, "m.is_published = TRUE", "l.is_published = TRUE")
	}
	query := `
		SELECT l.* FROM lesson l
		JOIN module m ON m.id = l.module_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY m.order_index, l.order_index`

	var rows []lessonRow
	if err := repo.db.Select(&rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying course lessons")
	}
	lessons := make([]course.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.lesson())
	}
	return lessons, nil
}

func (repo *courseRepository) UpdateLesson(l course.Lesson, isPublished *bool) (course.Lesson, error) {
	orig, err := repo.GetLessonByID(l.ID)
	if err != nil {
		return course.Lesson{}, err
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

	_, err = repo.db.Exec(`
		UPDATE lesson
		SET title = $2, kind = $3, body = $4, video_url = $5, order_index = $6, is_published = $7, updated_at = $8
		WHERE id = $1`,
		orig.ID, orig.Title, orig.Kind, orig.Body, orig.VideoURL, orig.OrderIndex, orig.IsPublished, orig.UpdatedAt)
	if err != nil {
		if err = trapUniqueViolation(err, course.ErrOrderIndexTaken, lessonOrderIndexKey); err == course.ErrOrderIndexTaken {
			return course.Lesson{}, err
		}
		return course.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	return orig, nil
}

func (repo *courseRepository) DeleteLessonsByID(ids ...string) error {
	_, err := repo.db.Exec(`DELETE FROM lesson WHERE id = ANY ($1)`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting lessons")
}
