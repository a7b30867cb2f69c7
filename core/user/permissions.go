package user

import "strings"

// Permission names a single capability a user may hold. Handlers check
// capabilities through Can / PermissionsFor instead of inspecting role
// booleans scattered around the codebase.
type Permission string

const (
	// PermManageUsers allows creating, updating and deleting user accounts.
	PermManageUsers Permission = "users:manage"
	// PermManageCourses allows authoring courses, modules, lessons, quizzes and questions.
	PermManageCourses Permission = "courses:manage"
	// PermPreviewDraftContent allows viewing unpublished content (admin preview tier).
	PermPreviewDraftContent Permission = "content:preview-draft"
	// PermViewAnyProgress allows viewing any learner's progress, not just one's own.
	PermViewAnyProgress Permission = "progress:view-any"
)

// PermissionSet is a set of named capabilities.
type PermissionSet map[Permission]struct{}

func NewPermissionSet(perms ...Permission) PermissionSet {
	ps := make(PermissionSet, len(perms))
	for _, p := range perms {
		ps[p] = struct{}{}
	}
	return ps
}

func (ps PermissionSet) Has(p Permission) bool {
	_, ok := ps[p]
	return ok
}

var (
	adminPermissions = NewPermissionSet(
		PermManageUsers,
		PermManageCourses,
		PermPreviewDraftContent,
		PermViewAnyProgress,
	)
	teacherPermissions = NewPermissionSet(
		PermManageCourses,
		PermPreviewDraftContent,
		PermViewAnyProgress,
	)
	studentPermissions = NewPermissionSet()
)

// PermissionsFor is the single policy function mapping roles to capabilities.
func PermissionsFor(roles []string) PermissionSet {
	ps := make(PermissionSet)
	for _, role := range roles {
		var grant PermissionSet
		switch {
		case strings.HasPrefix(role, RoleAdmin):
			grant = adminPermissions
		case strings.HasPrefix(role, RoleTeacher):
			grant = teacherPermissions
		case strings.HasPrefix(role, RoleStudent):
			grant = studentPermissions
		}
		for p := range grant {
			ps[p] = struct{}{}
		}
	}
	return ps
}

// Can reports whether the user holds the given capability.
func (u *User) Can(p Permission) bool {
	return PermissionsFor(u.Roles).Has(p)
}
