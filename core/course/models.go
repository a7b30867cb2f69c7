package course

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// ContentView scopes reads of course content to a visibility tier.
// Learners only ever see published content; admins/teachers may preview
// drafts. Every listing and aggregation path takes one of these so the two
// tiers cannot silently diverge.
type ContentView struct {
	IncludeUnpublished bool
}

var (
	LearnerView  = ContentView{}
	AdminPreview = ContentView{IncludeUnpublished: true}
)

// ViewFor returns the admin preview tier when preview is requested and allowed.
func ViewFor(canPreview bool) ContentView {
	if canPreview {
		return AdminPreview
	}
	return LearnerView
}

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsPublished bool      `json:"is_published"`
	IsFree      bool      `json:"is_free"`
	Price       int       `json:"price"` // cents; charging is stubbed
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Module struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"order_index"` // unique within the course
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Lesson kinds
const (
	LessonText  = "text"
	LessonVideo = "video"
	LessonQuiz  = "quiz"
)

type Lesson struct {
	ID          string    `json:"id"`
	ModuleID    string    `json:"module_id"`
	Title       string    `json:"title"`
	Kind        string    `json:"kind"`
	Body        string    `json:"body,omitempty"`
	VideoURL    string    `json:"video_url,omitempty"`
	OrderIndex  int       `json:"order_index"` // unique within the module
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Outline composes a course with its modules and lessons for a given view.
type (
	Outline struct {
		Course
		Modules []ModuleOutline `json:"modules"`
	}

	ModuleOutline struct {
		Module
		Lessons []Lesson `json:"lessons"`
	}
)

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Slug        string `json:"slug" validate:"required,slug"`
	Description string `json:"description"`
	IsFree      bool   `json:"is_free"`
	Price       int    `json:"price" validate:"min=0"`
}

func (nc *NewCourse) Validate(svc *Service) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Slug = core.CleanString(nc.Slug, true /* lower */)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(nc.Slug)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title       string `json:"title"`
	Slug        string `json:"slug" validate:"omitempty,slug"`
	Description string `json:"description"`
	IsPublished *bool  `json:"is_published"`
	IsFree      *bool  `json:"is_free"`
	Price       *int   `json:"price"`
}

func (uc *UpdateCourse) Validate(orig Course, svc *Service) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}

	if slug := core.CleanString(uc.Slug, true /* lower */); slug != "" {
		uc.Slug = slug
	} else {
		uc.Slug = orig.Slug
	}

	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(uc.Slug, orig)
}

// NewModule contains information needed to create a new Module in a Course.
type NewModule struct {
	CourseID    string `json:"course_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" validate:"min=0"`
}

func (nm *NewModule) Validate() error {
	nm.Title = core.CleanString(nm.Title)
	return core.Validate.Struct(nm)
}

type UpdateModule struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  *int   `json:"order_index" validate:"omitempty,min=0"`
	IsPublished *bool  `json:"is_published"`
}

func (um *UpdateModule) Validate(orig Module) error {
	if title := core.CleanString(um.Title); title != "" {
		um.Title = title
	} else {
		um.Title = orig.Title
	}
	return core.Validate.Struct(um)
}

// NewLesson contains information needed to create a new Lesson in a Module.
type NewLesson struct {
	ModuleID   string `json:"module_id" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Kind       string `json:"kind" validate:"required,oneof=text video quiz"`
	Body       string `json:"body"`
	VideoURL   string `json:"video_url" validate:"omitempty,url"`
	OrderIndex int    `json:"order_index" validate:"min=0"`
}

func (nl *NewLesson) Validate() error {
	nl.Title = core.CleanString(nl.Title)
	nl.Kind = core.CleanString(nl.Kind, true /* lower */)
	return core.Validate.Struct(nl)
}

type UpdateLesson struct {
	Title       string  `json:"title"`
	Kind        string  `json:"kind" validate:"omitempty,oneof=text video quiz"`
	Body        *string `json:"body"`
	VideoURL    *string `json:"video_url"`
	OrderIndex  *int    `json:"order_index" validate:"omitempty,min=0"`
	IsPublished *bool   `json:"is_published"`
}

func (ul *UpdateLesson) Validate(orig Lesson) error {
	if title := core.CleanString(ul.Title); title != "" {
		ul.Title = title
	} else {
		ul.Title = orig.Title
	}
	if kind := core.CleanString(ul.Kind, true /* lower */); kind != "" {
		ul.Kind = kind
	} else {
		ul.Kind = orig.Kind
	}
	return core.Validate.Struct(ul)
}
