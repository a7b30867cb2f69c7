package main

import (
	"fmt"

	"github.com/trezcool/darasa/core/course"
)

// refreshProgress recomputes the cached progress of every enrollment in a
// course. Meant to be run after authoring changes that reshape the course
// outline (added lessons, deleted modules).
func (cli *commandLine) refreshProgress(idOrSlug string) error {
	crs, err := cli.courseSvc.GetCourse(idOrSlug)
	if err == course.ErrNotFound {
		crs, err = cli.courseSvc.GetCourseBySlug(idOrSlug)
	}
	if err != nil {
		return err
	}
	if err := cli.progressSvc.RefreshCourseEnrollments(crs.ID); err != nil {
		return err
	}
	fmt.Printf("refreshed enrollments for course %q\n", crs.Slug)
	return nil
}
